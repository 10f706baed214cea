package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"

	domcart "github.com/storekit/pos/internal/domain/cart"
	"github.com/storekit/pos/internal/domain/catalog"
	"github.com/storekit/pos/internal/observability"
	"github.com/storekit/pos/internal/observability/logctx"
)

var ErrMissingReference = errors.New("cart: product id or code is required")

// Service runs the cart-side operations of the POS screen. The cart itself is
// owned by the calling session and passed in explicitly; the service only
// contributes the catalog lookups and the advisory stock check.
type Service struct {
	catalog catalog.Finder
	log     observability.Logger
}

func NewService(finder catalog.Finder, logger observability.Logger) *Service {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Service{
		catalog: finder,
		log:     logger.With(observability.F("component", "cart_service")),
	}
}

type AddProductInput struct {
	ProductID string
	Code      string
	Quantity  int
}

// AddProduct looks the product up by id or code, snapshots it, and merges the
// requested quantity into the cart. The stock check here reads the catalog's
// current value without reserving anything; the ledger re-validates at
// checkout, so a pass here is no guarantee of a successful sale.
func (s *Service) AddProduct(ctx context.Context, c *domcart.Cart, input AddProductInput) (*domcart.Line, error) {
	logger := logctx.FromOr(ctx, s.log)

	id := strings.TrimSpace(input.ProductID)
	code := strings.TrimSpace(input.Code)
	if id == "" && code == "" {
		return nil, ErrMissingReference
	}
	if input.Quantity < 1 {
		return nil, domcart.ErrInvalidQuantity
	}

	snap, err := s.catalog.FindByIDOrCode(ctx, id, code)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("cart: catalog lookup: %w", err)
	}

	line, err := c.AddLine(snap, input.Quantity)
	if err != nil {
		logger.Warn("cart_add_rejected",
			observability.F("product_id", snap.ID),
			observability.F("quantity", input.Quantity),
			observability.F("error", err.Error()),
		)
		return nil, err
	}

	logger.Info("cart_product_added",
		observability.F("product_id", line.ProductID),
		observability.F("quantity", line.Quantity),
	)
	return line, nil
}

// IncrementQuantity bumps an existing line by one, re-reading the catalog for
// a fresh advisory stock value. Products not in the cart are ignored.
func (s *Service) IncrementQuantity(ctx context.Context, c *domcart.Cart, productID string) (*domcart.Line, error) {
	logger := logctx.FromOr(ctx, s.log)

	if strings.TrimSpace(productID) == "" {
		return nil, ErrMissingReference
	}
	if c.Quantity(productID) == 0 {
		return nil, nil
	}

	snap, err := s.catalog.FindByIDOrCode(ctx, productID, "")
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("cart: catalog lookup: %w", err)
	}

	line, err := c.Increment(productID, snap.Stock)
	if err != nil {
		logger.Warn("cart_increment_rejected",
			observability.F("product_id", productID),
			observability.F("error", err.Error()),
		)
		return nil, err
	}
	return line, nil
}

// RemoveProduct drops the product's line from the cart if present.
func (s *Service) RemoveProduct(ctx context.Context, c *domcart.Cart, productID string) {
	logger := logctx.FromOr(ctx, s.log)
	c.Remove(productID)
	logger.Info("cart_product_removed", observability.F("product_id", productID))
}

// CancelSale clears the cart. Nothing was reserved at add time, so there is
// no stock to give back.
func (s *Service) CancelSale(ctx context.Context, c *domcart.Cart) {
	logger := logctx.FromOr(ctx, s.log)
	c.Clear()
	logger.Info("cart_cancelled")
}
