package order

import (
	"strings"

	"github.com/shopspring/decimal"
)

// CalculateTotal sums quantity*price over items in decimal arithmetic and
// rounds the result to cents, ties to even.
func CalculateTotal(items []Item) float64 {
	total := decimal.Zero
	for _, it := range items {
		line := decimal.NewFromFloat(it.Price).Mul(decimal.NewFromInt(int64(it.Quantity)))
		total = total.Add(line)
	}
	return total.RoundBank(2).InexactFloat64()
}

// Filter narrows a list of orders. Nil fields impose no constraint.
type Filter struct {
	Status       *Status
	TableNumber  *int
	CustomerName *string
}

// Apply returns the orders matching every set field, in their original
// order. The input slice is left untouched.
func (f Filter) Apply(orders []Order) []Order {
	out := make([]Order, 0, len(orders))
	out = append(out, orders...)
	if f.Status != nil {
		out = keep(out, func(o Order) bool { return o.Status == *f.Status })
	}
	if f.TableNumber != nil {
		out = keep(out, func(o Order) bool { return o.TableNumber == *f.TableNumber })
	}
	if f.CustomerName != nil {
		needle := strings.ToLower(strings.TrimSpace(*f.CustomerName))
		out = keep(out, func(o Order) bool {
			return strings.Contains(strings.ToLower(o.CustomerName), needle)
		})
	}
	return out
}

// keep filters orders in place.
func keep(orders []Order, match func(Order) bool) []Order {
	n := 0
	for _, o := range orders {
		if match(o) {
			orders[n] = o
			n++
		}
	}
	return orders[:n]
}
