package catalog

import (
	"context"
	"errors"

	"github.com/storekit/pos/internal/domain/money"
)

var (
	ErrNotFound     = errors.New("catalog: product not found")
	ErrInvalidCode  = errors.New("catalog: code is required and limited to 14 characters")
	ErrInvalidName  = errors.New("catalog: name is required and limited to 100 characters")
	ErrInvalidPrice = errors.New("catalog: unit price must be zero or greater")
)

const (
	MaxCodeLength = 14
	MaxNameLength = 100
)

// Product describes a sellable item as known to the catalog. Stock is not
// part of the product itself; availability lives in the stock ledger.
type Product struct {
	ID        string
	Code      string
	Name      string
	UnitPrice money.Cents
}

func NewProduct(id, code, name string, unitPrice money.Cents) (Product, error) {
	if id == "" {
		return Product{}, errors.New("catalog: product id is required")
	}
	if code == "" || len(code) > MaxCodeLength {
		return Product{}, ErrInvalidCode
	}
	if name == "" || len(name) > MaxNameLength {
		return Product{}, ErrInvalidName
	}
	if unitPrice < 0 {
		return Product{}, ErrInvalidPrice
	}
	return Product{ID: id, Code: code, Name: name, UnitPrice: unitPrice}, nil
}

// Snapshot is a point-in-time read of a product together with the stock
// available when the lookup was served. The stock value is advisory only; the
// ledger re-checks availability at checkout.
type Snapshot struct {
	Product
	Stock int
}

// Finder looks up products by identifier or code. At least one of id and code
// must be non-empty; id wins when both are given.
type Finder interface {
	FindByIDOrCode(ctx context.Context, id, code string) (*Snapshot, error)
}
