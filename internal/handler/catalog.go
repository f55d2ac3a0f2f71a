package handler

import (
	"context"
)

type BassGuitarListOutput struct {
	Body []BassGuitarBody
}

type ManufacturerListOutput struct {
	Body []ManufacturerBody
}

// ListBassGuitars handles GET /bass-guitars.
func (h *Handler) ListBassGuitars(ctx context.Context, _ *struct{}) (*BassGuitarListOutput, error) {
	guitars, err := h.catalog.ListBassGuitars(ctx)
	if err != nil {
		return nil, mapError(ctx, err)
	}
	out := &BassGuitarListOutput{Body: make([]BassGuitarBody, len(guitars))}
	for i, g := range guitars {
		out.Body[i] = fromBassGuitar(g)
	}
	return out, nil
}

// ListManufacturers handles GET /manufacturers.
func (h *Handler) ListManufacturers(ctx context.Context, _ *struct{}) (*ManufacturerListOutput, error) {
	mfs, err := h.catalog.ListManufacturers(ctx)
	if err != nil {
		return nil, mapError(ctx, err)
	}
	out := &ManufacturerListOutput{Body: make([]ManufacturerBody, len(mfs))}
	for i, m := range mfs {
		out.Body[i] = fromManufacturer(m)
	}
	return out, nil
}
