package cart

import (
	"errors"

	"github.com/storekit/pos/internal/domain/catalog"
	"github.com/storekit/pos/internal/domain/money"
	"github.com/storekit/pos/internal/domain/stock"
)

var ErrInvalidQuantity = errors.New("cart: quantity must be at least one")

// Line is one cart row. Code, name, and unit price are snapshots captured at
// add time; the live catalog is not re-read when the line changes.
type Line struct {
	ProductID string
	Code      string
	Name      string
	UnitPrice money.Cents
	Quantity  int
}

// Subtotal is the line quantity priced at the snapshot unit price.
func (l Line) Subtotal() money.Cents {
	return l.UnitPrice.MulQty(l.Quantity)
}

// Cart holds the pending sale for one operator session. It is exclusively
// owned by that session, so it carries no locking of its own.
type Cart struct {
	lines map[string]*Line
	order []string // product ids in first-add order
}

func New() *Cart {
	return &Cart{lines: make(map[string]*Line)}
}

// AddLine merges the requested quantity into the cart. Adding a product that
// is already present sums quantities instead of creating a second line. The
// snapshot's stock value is checked against the merged quantity as an early
// advisory guard; the ledger re-validates authoritatively at checkout.
func (c *Cart) AddLine(snap *catalog.Snapshot, quantity int) (*Line, error) {
	if snap == nil {
		return nil, catalog.ErrNotFound
	}
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	merged := quantity
	if existing, ok := c.lines[snap.ID]; ok {
		merged += existing.Quantity
	}
	if snap.Stock < merged {
		return nil, &stock.InsufficientStockError{
			ProductID: snap.ID,
			Requested: merged,
			Available: snap.Stock,
		}
	}

	line, ok := c.lines[snap.ID]
	if !ok {
		line = &Line{
			ProductID: snap.ID,
			Code:      snap.Code,
			Name:      snap.Name,
			UnitPrice: snap.UnitPrice,
		}
		c.lines[snap.ID] = line
		c.order = append(c.order, snap.ID)
	}
	line.Quantity = merged

	out := *line
	return &out, nil
}

// Increment bumps an existing line by one, re-running the advisory check
// against the given availability. Products not in the cart are ignored,
// matching the per-row action it backs.
func (c *Cart) Increment(productID string, available int) (*Line, error) {
	line, ok := c.lines[productID]
	if !ok {
		return nil, nil
	}
	if available < line.Quantity+1 {
		return nil, &stock.InsufficientStockError{
			ProductID: productID,
			Requested: line.Quantity + 1,
			Available: available,
		}
	}
	line.Quantity++

	out := *line
	return &out, nil
}

// Remove drops the line for the product. Absent products are a no-op.
func (c *Cart) Remove(productID string) {
	if _, ok := c.lines[productID]; !ok {
		return
	}
	delete(c.lines, productID)
	for i, id := range c.order {
		if id == productID {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// Clear empties the cart. Used on cancel and after a successful checkout.
func (c *Cart) Clear() {
	c.lines = make(map[string]*Line)
	c.order = nil
}

// Empty reports whether the cart has no lines.
func (c *Cart) Empty() bool {
	return len(c.lines) == 0
}

// Quantity reports the quantity in the cart for the product, zero when absent.
func (c *Cart) Quantity(productID string) int {
	if line, ok := c.lines[productID]; ok {
		return line.Quantity
	}
	return 0
}

// Lines returns the cart rows in first-add order.
func (c *Cart) Lines() []Line {
	out := make([]Line, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, *c.lines[id])
	}
	return out
}

// Total sums all line subtotals using the captured unit prices.
func (c *Cart) Total() money.Cents {
	var total money.Cents
	for _, id := range c.order {
		total += c.lines[id].Subtotal()
	}
	return total
}
