package memory

import (
	"context"
	"sync"

	"github.com/storekit/pos/internal/domain/catalog"
	"github.com/storekit/pos/internal/domain/stock"
)

// Catalog is an in-memory product catalog. Stock is not stored here; the
// snapshot reads availability from the ledger at lookup time, so the advisory
// add-to-cart check always sees the latest committed value.
type Catalog struct {
	mu     sync.RWMutex
	byID   map[string]catalog.Product
	byCode map[string]string // code -> product id
	ledger *stock.Ledger
}

func NewCatalog(ledger *stock.Ledger) *Catalog {
	return &Catalog{
		byID:   make(map[string]catalog.Product),
		byCode: make(map[string]string),
		ledger: ledger,
	}
}

// Seed registers a product together with its opening stock.
func (c *Catalog) Seed(p catalog.Product, available int) error {
	if err := c.ledger.SetAvailable(p.ID, available); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.byID[p.ID] = p
	c.byCode[p.Code] = p.ID
	return nil
}

func (c *Catalog) FindByIDOrCode(ctx context.Context, id, code string) (*catalog.Snapshot, error) {
	_ = ctx

	c.mu.RLock()
	var (
		p  catalog.Product
		ok bool
	)
	if id != "" {
		p, ok = c.byID[id]
	} else if code != "" {
		var pid string
		if pid, ok = c.byCode[code]; ok {
			p, ok = c.byID[pid]
		}
	}
	c.mu.RUnlock()

	if !ok {
		return nil, catalog.ErrNotFound
	}

	return &catalog.Snapshot{
		Product: p,
		Stock:   c.ledger.Available(p.ID),
	}, nil
}
