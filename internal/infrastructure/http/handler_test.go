package httptransport

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appcart "github.com/storekit/pos/internal/application/cart"
	appcheckout "github.com/storekit/pos/internal/application/checkout"
	"github.com/storekit/pos/internal/domain/catalog"
	"github.com/storekit/pos/internal/domain/money"
	"github.com/storekit/pos/internal/domain/stock"
	"github.com/storekit/pos/internal/infrastructure/id"
	"github.com/storekit/pos/internal/infrastructure/memory"
)

type testEnv struct {
	server *httptest.Server
	ledger *stock.Ledger
	sales  *memory.SaleRepository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	ledger := stock.NewLedger()
	cat := memory.NewCatalog(ledger)

	seed := func(pid, code, name string, price money.Cents, available int) {
		p, err := catalog.NewProduct(pid, code, name, price)
		require.NoError(t, err)
		require.NoError(t, cat.Seed(p, available))
	}
	seed("p-1", "4006381333931", "Espresso Beans", 1000, 5)
	seed("p-2", "7290002055533", "Moka Pot", 2500, 8)

	sales := memory.NewSaleRepository()
	carts := memory.NewCartStore()

	cartSvc := appcart.NewService(cat, nil)
	finishSale := appcheckout.NewFinishSaleUseCase(ledger, sales, id.NewUUIDGenerator(), nil, nil)

	handler := NewHandler(carts, cartSvc, finishSale)
	server := httptest.NewServer(handler.Router())
	t.Cleanup(server.Close)

	return &testEnv{server: server, ledger: ledger, sales: sales}
}

func (env *testEnv) do(t *testing.T, method, path, session string, body any) (int, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, env.server.URL+path, reader)
	require.NoError(t, err)
	if session != "" {
		req.Header.Set("X-Session-ID", session)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := env.server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]any
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &decoded), "body: %s", raw)
	}
	return resp.StatusCode, decoded
}

func TestAddAndViewCart(t *testing.T) {
	env := newTestEnv(t)

	status, line := env.do(t, http.MethodPost, "/cart/items", "s1", map[string]any{
		"code":     "4006381333931",
		"quantity": 2,
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "p-1", line["product_id"])
	assert.Equal(t, float64(2), line["quantity"])
	assert.Equal(t, "10.00", line["unit_price"])
	assert.Equal(t, "20.00", line["total"])

	status, view := env.do(t, http.MethodGet, "/cart", "s1", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "20.00", view["total"])
	lines, ok := view["lines"].([]any)
	require.True(t, ok)
	assert.Len(t, lines, 1)
}

func TestCheckoutFlow(t *testing.T) {
	env := newTestEnv(t)

	status, _ := env.do(t, http.MethodPost, "/cart/items", "s1", map[string]any{
		"product_id": "p-1",
		"quantity":   2,
	})
	require.Equal(t, http.StatusOK, status)
	status, _ = env.do(t, http.MethodPost, "/cart/items", "s1", map[string]any{
		"product_id": "p-2",
		"quantity":   1,
	})
	require.Equal(t, http.StatusOK, status)

	status, receipt := env.do(t, http.MethodPost, "/checkout", "s1", nil)
	require.Equal(t, http.StatusCreated, status)
	assert.NotEmpty(t, receipt["sale_id"])
	assert.Equal(t, "45.00", receipt["total_amount"])
	assert.Equal(t, float64(2), receipt["item_count"])

	assert.Equal(t, 3, env.ledger.Available("p-1"))
	assert.Equal(t, 7, env.ledger.Available("p-2"))
	assert.Equal(t, 1, env.sales.Count())

	// The cart is cleared, so a second checkout has nothing to sell.
	status, body := env.do(t, http.MethodPost, "/checkout", "s1", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, body["error"], "empty")
}

func TestAddBeyondAdvisoryStock(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.do(t, http.MethodPost, "/cart/items", "s1", map[string]any{
		"product_id": "p-1",
		"quantity":   9,
	})
	require.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "p-1", body["product_id"])
	assert.Equal(t, float64(9), body["requested"])
	assert.Equal(t, float64(5), body["available"])
}

func TestCheckoutRacesToTheLedger(t *testing.T) {
	env := newTestEnv(t)

	// Both sessions pass the advisory check; the ledger arbitrates at checkout.
	for _, session := range []string{"s1", "s2"} {
		status, _ := env.do(t, http.MethodPost, "/cart/items", session, map[string]any{
			"product_id": "p-1",
			"quantity":   3,
		})
		require.Equal(t, http.StatusOK, status)
	}

	status, _ := env.do(t, http.MethodPost, "/checkout", "s1", nil)
	require.Equal(t, http.StatusCreated, status)

	status, body := env.do(t, http.MethodPost, "/checkout", "s2", nil)
	require.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "p-1", body["product_id"])
	assert.Equal(t, float64(3), body["requested"])
	assert.Equal(t, float64(2), body["available"])

	// The losing session keeps its cart for the operator to adjust.
	status, view := env.do(t, http.MethodGet, "/cart", "s2", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "30.00", view["total"])

	assert.Equal(t, 2, env.ledger.Available("p-1"))
	assert.Equal(t, 1, env.sales.Count())
}

func TestRemoveAndCancel(t *testing.T) {
	env := newTestEnv(t)

	status, _ := env.do(t, http.MethodPost, "/cart/items", "s1", map[string]any{
		"product_id": "p-1",
		"quantity":   2,
	})
	require.Equal(t, http.StatusOK, status)
	status, _ = env.do(t, http.MethodPost, "/cart/items", "s1", map[string]any{
		"product_id": "p-2",
		"quantity":   1,
	})
	require.Equal(t, http.StatusOK, status)

	status, view := env.do(t, http.MethodDelete, "/cart/items", "s1", map[string]any{
		"product_id": "p-1",
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "25.00", view["total"])

	status, view = env.do(t, http.MethodPost, "/cart/cancel", "s1", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "0.00", view["total"])

	// Nothing was reserved, so cancelling gives nothing back.
	assert.Equal(t, 5, env.ledger.Available("p-1"))
}

func TestIncrementEndpoint(t *testing.T) {
	env := newTestEnv(t)

	status, _ := env.do(t, http.MethodPost, "/cart/items", "s1", map[string]any{
		"product_id": "p-1",
		"quantity":   2,
	})
	require.Equal(t, http.StatusOK, status)

	status, line := env.do(t, http.MethodPost, "/cart/items/increment", "s1", map[string]any{
		"product_id": "p-1",
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(3), line["quantity"])
}

func TestSessionsAreIsolated(t *testing.T) {
	env := newTestEnv(t)

	status, _ := env.do(t, http.MethodPost, "/cart/items", "s1", map[string]any{
		"product_id": "p-1",
		"quantity":   2,
	})
	require.Equal(t, http.StatusOK, status)

	status, view := env.do(t, http.MethodGet, "/cart", "s2", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "0.00", view["total"])
}

func TestMissingSessionHeader(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.do(t, http.MethodGet, "/cart", "", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, body["error"], "X-Session-ID")
}

func TestUnknownProduct(t *testing.T) {
	env := newTestEnv(t)

	status, _ := env.do(t, http.MethodPost, "/cart/items", "s1", map[string]any{
		"product_id": "ghost",
		"quantity":   1,
	})
	assert.Equal(t, http.StatusNotFound, status)
}
