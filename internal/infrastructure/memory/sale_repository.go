package memory

import (
	"context"
	"fmt"
	"sync"

	domain "github.com/storekit/pos/internal/domain/sale"
)

type SaleRepository struct {
	mu    sync.RWMutex
	sales map[string]*domain.Sale
}

func NewSaleRepository() *SaleRepository {
	return &SaleRepository{
		sales: make(map[string]*domain.Sale),
	}
}

// Create stores the sale and its items in one step. Sales are never updated
// or deleted afterwards.
func (r *SaleRepository) Create(ctx context.Context, s *domain.Sale) error {
	_ = ctx
	if s == nil || s.ID == "" {
		return fmt.Errorf("sale repository: id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sales[s.ID]; exists {
		return domain.ErrConflict
	}

	r.sales[s.ID] = s.Clone()
	return nil
}

func (r *SaleRepository) FindByID(ctx context.Context, id string) (*domain.Sale, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sales[id]
	if !ok {
		return nil, domain.ErrNotFound
	}

	return s.Clone(), nil
}

// Count reports how many sales have been recorded.
func (r *SaleRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sales)
}
