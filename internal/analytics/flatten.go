package analytics

import (
	"github.com/go-faster/errors"

	"github.com/xenking/bass-shop/internal/domain/catalog"
	"github.com/xenking/bass-shop/internal/domain/order"
)

// FlattenOrder converts a reloaded order into a snake_case property tree.
func FlattenOrder(o order.Order) (Props, error) {
	switch o := o.(type) {
	case *order.GuestOrder:
		return flattenGuestOrder(o), nil
	case *order.CustomerOrder:
		return flattenCustomerOrder(o), nil
	default:
		return nil, errors.Errorf("unsupported order type %T", o)
	}
}

func flattenGuestOrder(o *order.GuestOrder) Props {
	c := o.Contact
	var second any
	if c.AddressSecondLine != "" {
		second = c.AddressSecondLine
	}
	return Props{
		{"id", o.ID},
		{"first_name", c.FirstName},
		{"last_name", c.LastName},
		{"email", c.Email},
		{"address_first_line", c.AddressFirstLine},
		{"address_second_line", second},
		{"city", c.City},
		{"state", c.State},
		{"zip_code", c.ZipCode},
		{"created_at", o.CreatedAt},
		{"guest_order_bass_guitars", flattenLines(o.Lines, "guest_order_id", o.ID)},
	}
}

func flattenCustomerOrder(o *order.CustomerOrder) Props {
	return Props{
		{"id", o.ID},
		{"customer_id", o.Customer.ID},
		{"created_at", o.CreatedAt},
		{"order_bass_guitars", flattenLines(o.Lines, "order_id", o.ID)},
	}
}

func flattenLines(lines []order.Line, parentKey string, parentID int64) []Props {
	out := make([]Props, 0, len(lines))
	for _, l := range lines {
		p := Props{
			{"id", l.ID},
			{parentKey, parentID},
			{"bass_guitar_id", l.BassGuitarID},
			{"quantity", l.Quantity},
			{"historical_price", l.HistoricalPrice},
		}
		if l.BassGuitar != nil {
			p = append(p, Field{"bass_guitar", flattenBassGuitar(l.BassGuitar)})
		}
		out = append(out, p)
	}
	return out
}

func flattenBassGuitar(g *catalog.BassGuitar) Props {
	p := Props{
		{"id", g.ID},
		{"manufacturer_id", g.ManufacturerID},
		{"model_name", g.ModelName},
		{"color", g.Color},
		{"strings", g.Strings},
		{"price", g.Price},
	}
	if g.Manufacturer != nil {
		p = append(p, Field{"manufacturer", Props{
			{"id", g.Manufacturer.ID},
			{"name", g.Manufacturer.Name},
		}})
	}
	return p
}
