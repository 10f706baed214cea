package money

import "fmt"

// Cents is a fixed-point currency amount with two fractional digits, stored
// as integer hundredths of the unit currency.
type Cents int64

// MulQty prices qty units at c each.
func (c Cents) MulQty(qty int) Cents {
	return c * Cents(qty)
}

// String renders the amount as a decimal with two fractional digits, e.g. "45.00".
func (c Cents) String() string {
	sign := ""
	v := int64(c)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}
