// Package assemble folds joined order rows into order aggregates.
package assemble

import (
	"github.com/xenking/bass-shop/internal/domain/order"
)

// CustomerOrderRow is one row of the joined customer order read: the order
// header repeated for every line.
type CustomerOrderRow struct {
	Order order.CustomerOrder
	Line  order.Line
}

// GuestOrderRow is one row of the joined guest order read.
type GuestOrderRow struct {
	Order order.GuestOrder
	Line  order.Line
}

// CustomerOrders folds joined rows into orders. Rows must be sorted
// by order id; the order of first appearance is kept.
func CustomerOrders(rows []CustomerOrderRow) []order.CustomerOrder {
	out := make([]order.CustomerOrder, 0)
	for _, r := range rows {
		if n := len(out); n > 0 && out[n-1].ID == r.Order.ID {
			out[n-1].Lines = append(out[n-1].Lines, r.Line)
			continue
		}
		o := r.Order
		o.Lines = []order.Line{r.Line}
		out = append(out, o)
	}
	return out
}

// GuestOrders folds joined rows into guest orders.
func GuestOrders(rows []GuestOrderRow) []order.GuestOrder {
	out := make([]order.GuestOrder, 0)
	for _, r := range rows {
		if n := len(out); n > 0 && out[n-1].ID == r.Order.ID {
			out[n-1].Lines = append(out[n-1].Lines, r.Line)
			continue
		}
		o := r.Order
		o.Lines = []order.Line{r.Line}
		out = append(out, o)
	}
	return out
}
