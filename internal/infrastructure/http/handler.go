package httptransport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	appcart "github.com/storekit/pos/internal/application/cart"
	appcheckout "github.com/storekit/pos/internal/application/checkout"
	domcart "github.com/storekit/pos/internal/domain/cart"
	"github.com/storekit/pos/internal/domain/catalog"
	"github.com/storekit/pos/internal/domain/sale"
	"github.com/storekit/pos/internal/domain/stock"
	"github.com/storekit/pos/internal/infrastructure/memory"
)

// sessionHeader carries the operator session identifier; each session owns
// exactly one cart.
const sessionHeader = "X-Session-ID"

type Handler struct {
	carts       *memory.CartStore
	cartService *appcart.Service
	checkout    *appcheckout.FinishSaleUseCase
}

func NewHandler(carts *memory.CartStore, cartSvc *appcart.Service, checkout *appcheckout.FinishSaleUseCase) *Handler {
	return &Handler{
		carts:       carts,
		cartService: cartSvc,
		checkout:    checkout,
	}
}

func (h *Handler) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/cart", h.method(http.MethodGet, h.withCart(h.handleViewCart)))
	mux.HandleFunc("/cart/items", h.withCart(h.handleCartItems))
	mux.HandleFunc("/cart/items/increment", h.method(http.MethodPost, h.withCart(h.handleIncrement)))
	mux.HandleFunc("/cart/cancel", h.method(http.MethodPost, h.withCart(h.handleCancelSale)))
	mux.HandleFunc("/checkout", h.method(http.MethodPost, h.withCart(h.handleFinishSale)))
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return mux
}

type cartHandlerFunc func(w http.ResponseWriter, r *http.Request, c *domcart.Cart)

// withCart resolves the session's cart and holds its lock for the duration of
// the request, serializing overlapping requests from one session.
func (h *Handler) withCart(next cartHandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := r.Header.Get(sessionHeader)
		if sessionID == "" {
			writeError(w, http.StatusBadRequest, errors.New("missing "+sessionHeader+" header"))
			return
		}

		c, unlock := h.carts.Acquire(sessionID)
		defer unlock()
		next(w, r, c)
	}
}

type addProductRequest struct {
	ProductID string `json:"product_id"`
	Code      string `json:"code"`
	Quantity  int    `json:"quantity"`
}

type removeProductRequest struct {
	ProductID string `json:"product_id"`
}

type incrementRequest struct {
	ProductID string `json:"product_id"`
}

type cartLineResponse struct {
	ProductID string `json:"product_id"`
	Code      string `json:"code"`
	Name      string `json:"name"`
	UnitPrice string `json:"unit_price"`
	Quantity  int    `json:"quantity"`
	Total     string `json:"total"`
}

type cartResponse struct {
	Lines []cartLineResponse `json:"lines"`
	Total string             `json:"total"`
}

type finishSaleResponse struct {
	SaleID      string `json:"sale_id"`
	TotalAmount string `json:"total_amount"`
	ItemCount   int    `json:"item_count"`
}

func (h *Handler) handleCartItems(w http.ResponseWriter, r *http.Request, c *domcart.Cart) {
	switch r.Method {
	case http.MethodPost:
		h.handleAddProduct(w, r, c)
	case http.MethodDelete:
		h.handleRemoveProduct(w, r, c)
	default:
		writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
	}
}

func (h *Handler) handleAddProduct(w http.ResponseWriter, r *http.Request, c *domcart.Cart) {
	var req addProductRequest
	if err := decodeJSON(r.Context(), r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	line, err := h.cartService.AddProduct(r.Context(), c, appcart.AddProductInput{
		ProductID: req.ProductID,
		Code:      req.Code,
		Quantity:  req.Quantity,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toLineResponse(*line))
}

func (h *Handler) handleRemoveProduct(w http.ResponseWriter, r *http.Request, c *domcart.Cart) {
	var req removeProductRequest
	if err := decodeJSON(r.Context(), r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	h.cartService.RemoveProduct(r.Context(), c, req.ProductID)
	writeJSON(w, http.StatusOK, toCartResponse(c))
}

func (h *Handler) handleIncrement(w http.ResponseWriter, r *http.Request, c *domcart.Cart) {
	var req incrementRequest
	if err := decodeJSON(r.Context(), r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	line, err := h.cartService.IncrementQuantity(r.Context(), c, req.ProductID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if line == nil {
		// Not in the cart; nothing changed.
		writeJSON(w, http.StatusOK, toCartResponse(c))
		return
	}

	writeJSON(w, http.StatusOK, toLineResponse(*line))
}

func (h *Handler) handleViewCart(w http.ResponseWriter, r *http.Request, c *domcart.Cart) {
	writeJSON(w, http.StatusOK, toCartResponse(c))
}

func (h *Handler) handleCancelSale(w http.ResponseWriter, r *http.Request, c *domcart.Cart) {
	h.cartService.CancelSale(r.Context(), c)
	writeJSON(w, http.StatusOK, toCartResponse(c))
}

func (h *Handler) handleFinishSale(w http.ResponseWriter, r *http.Request, c *domcart.Cart) {
	result, err := h.checkout.Execute(r.Context(), c)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, finishSaleResponse{
		SaleID:      result.SaleID,
		TotalAmount: result.TotalAmount.String(),
		ItemCount:   len(result.Sale.Items),
	})
}

func toLineResponse(line domcart.Line) cartLineResponse {
	return cartLineResponse{
		ProductID: line.ProductID,
		Code:      line.Code,
		Name:      line.Name,
		UnitPrice: line.UnitPrice.String(),
		Quantity:  line.Quantity,
		Total:     line.Subtotal().String(),
	}
}

func toCartResponse(c *domcart.Cart) cartResponse {
	lines := c.Lines()
	out := cartResponse{
		Lines: make([]cartLineResponse, 0, len(lines)),
		Total: c.Total().String(),
	}
	for _, line := range lines {
		out.Lines = append(out.Lines, toLineResponse(line))
	}
	return out
}

func (h *Handler) method(method string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method {
			writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
			return
		}
		handler(w, r)
	}
}

func decodeJSON(ctx context.Context, r *http.Request, dst any) error {
	_ = ctx
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

type insufficientStockResponse struct {
	Error     string `json:"error"`
	ProductID string `json:"product_id"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
}

func writeDomainError(w http.ResponseWriter, err error) {
	var shortfall *stock.InsufficientStockError
	if errors.As(err, &shortfall) {
		writeJSON(w, http.StatusConflict, insufficientStockResponse{
			Error:     err.Error(),
			ProductID: shortfall.ProductID,
			Requested: shortfall.Requested,
			Available: shortfall.Available,
		})
		return
	}

	switch {
	case errors.Is(err, catalog.ErrNotFound),
		errors.Is(err, stock.ErrNotFound),
		errors.Is(err, sale.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, domcart.ErrInvalidQuantity),
		errors.Is(err, stock.ErrInvalidQuantity),
		errors.Is(err, appcart.ErrMissingReference),
		errors.Is(err, appcheckout.ErrEmptyCart):
		writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, appcheckout.ErrPersistence):
		// Compensation already restored the stock; the operator can retry.
		writeError(w, http.StatusServiceUnavailable, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}
