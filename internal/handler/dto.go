package handler

import (
	"time"

	"github.com/xenking/bass-shop/internal/domain/catalog"
	"github.com/xenking/bass-shop/internal/domain/order"
)

// GuestUserData is the contact and shipping record of a guest buyer.
type GuestUserData struct {
	FirstName         string `json:"first_name" minLength:"1"`
	LastName          string `json:"last_name" minLength:"1"`
	Email             string `json:"email" format:"email"`
	AddressFirstLine  string `json:"address_first_line" minLength:"1"`
	AddressSecondLine string `json:"address_second_line,omitempty"`
	City              string `json:"city" minLength:"1"`
	State             string `json:"state" minLength:"1"`
	ZipCode           int    `json:"zip_code"`
}

// CartLine is a requested bass guitar and quantity.
type CartLine struct {
	BassGuitarID int64 `json:"bass_guitar_id"`
	Quantity     int   `json:"quantity"`
}

type ManufacturerBody struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type BassGuitarBody struct {
	ID             int64             `json:"id"`
	ManufacturerID int64             `json:"manufacturer_id"`
	ModelName      string            `json:"model_name"`
	Color          string            `json:"color"`
	Strings        int               `json:"strings"`
	Price          float64           `json:"price"`
	Manufacturer   *ManufacturerBody `json:"manufacturer,omitempty"`
}

type OrderLineBody struct {
	ID              int64           `json:"id"`
	BassGuitarID    int64           `json:"bass_guitar_id"`
	Quantity        int             `json:"quantity"`
	HistoricalPrice float64         `json:"historical_price"`
	BassGuitar      *BassGuitarBody `json:"bass_guitar,omitempty"`
}

// OrderBody renders both order kinds. Customer orders carry customer_id,
// guest orders carry guest_user_data.
type OrderBody struct {
	ID            int64           `json:"id"`
	Kind          string          `json:"kind" enum:"guest,customer"`
	CreatedAt     time.Time       `json:"created_at"`
	CustomerID    int64           `json:"customer_id,omitempty"`
	GuestUserData *GuestUserData  `json:"guest_user_data,omitempty"`
	BassGuitars   []OrderLineBody `json:"bass_guitars"`
}

func toContact(g *GuestUserData) *order.Contact {
	if g == nil {
		return nil
	}
	return &order.Contact{
		FirstName:         g.FirstName,
		LastName:          g.LastName,
		Email:             g.Email,
		AddressFirstLine:  g.AddressFirstLine,
		AddressSecondLine: g.AddressSecondLine,
		City:              g.City,
		State:             g.State,
		ZipCode:           g.ZipCode,
	}
}

func toLineRequests(lines []CartLine) []order.LineRequest {
	out := make([]order.LineRequest, len(lines))
	for i, l := range lines {
		out[i] = order.LineRequest{BassGuitarID: l.BassGuitarID, Quantity: l.Quantity}
	}
	return out
}

func fromManufacturer(m catalog.Manufacturer) ManufacturerBody {
	return ManufacturerBody{ID: m.ID, Name: m.Name}
}

func fromBassGuitar(g catalog.BassGuitar) BassGuitarBody {
	b := BassGuitarBody{
		ID:             g.ID,
		ManufacturerID: g.ManufacturerID,
		ModelName:      g.ModelName,
		Color:          g.Color,
		Strings:        g.Strings,
		Price:          g.Price.InexactFloat64(),
	}
	if g.Manufacturer != nil {
		m := fromManufacturer(*g.Manufacturer)
		b.Manufacturer = &m
	}
	return b
}

func fromLines(lines []order.Line) []OrderLineBody {
	out := make([]OrderLineBody, len(lines))
	for i, l := range lines {
		out[i] = OrderLineBody{
			ID:              l.ID,
			BassGuitarID:    l.BassGuitarID,
			Quantity:        l.Quantity,
			HistoricalPrice: l.HistoricalPrice.InexactFloat64(),
		}
		if l.BassGuitar != nil {
			g := fromBassGuitar(*l.BassGuitar)
			out[i].BassGuitar = &g
		}
	}
	return out
}

func fromCustomerOrder(o *order.CustomerOrder) OrderBody {
	return OrderBody{
		ID:          o.ID,
		Kind:        "customer",
		CreatedAt:   o.CreatedAt,
		CustomerID:  o.Customer.ID,
		BassGuitars: fromLines(o.Lines),
	}
}

func fromGuestOrder(o *order.GuestOrder) OrderBody {
	c := o.Contact
	return OrderBody{
		ID:        o.ID,
		Kind:      "guest",
		CreatedAt: o.CreatedAt,
		GuestUserData: &GuestUserData{
			FirstName:         c.FirstName,
			LastName:          c.LastName,
			Email:             c.Email,
			AddressFirstLine:  c.AddressFirstLine,
			AddressSecondLine: c.AddressSecondLine,
			City:              c.City,
			State:             c.State,
			ZipCode:           c.ZipCode,
		},
		BassGuitars: fromLines(o.Lines),
	}
}
