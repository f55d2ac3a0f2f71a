package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bits-and-blooms/bloom/v3"
	pgzip "github.com/klauspost/pgzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/bass-shop/internal/storage"
)

func writeExport(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "export.jsonl.gz")
	f, err := os.Create(path)
	require.NoError(t, err)

	gz := pgzip.NewWriter(f)
	_, err = gz.Write([]byte(strings.Join(lines, "\n") + "\n"))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())
	return path
}

func TestDecodeRecord(t *testing.T) {
	for _, tt := range []struct {
		name   string
		input  string
		price  string
		errMsg string
	}{
		{
			name:  "StringPrice",
			input: `{"manufacturer":"Fender","model_name":"Jazz Bass","color":"Sunburst","strings":4,"price":"1499.99"}`,
			price: "1499.99",
		},
		{
			name:  "NumberPriceAndExtraFields",
			input: `{"sku":"x","manufacturer":"Ibanez","model_name":"SR505","color":"Black","strings":5,"price":899.5}`,
			price: "899.5",
		},
		{
			name:   "MissingColor",
			input:  `{"manufacturer":"Fender","model_name":"P Bass","strings":4,"price":"10"}`,
			errMsg: "required",
		},
		{
			name:   "ZeroPrice",
			input:  `{"manufacturer":"Fender","model_name":"P Bass","color":"Red","strings":4,"price":"0"}`,
			errMsg: "invalid price",
		},
		{
			name:   "BadStrings",
			input:  `{"manufacturer":"Fender","model_name":"P Bass","color":"Red","strings":"four","price":"1"}`,
			errMsg: "strings",
		},
	} {
		t.Run(tt.name, func(t *testing.T) {
			r, err := decodeRecord([]byte(tt.input))
			if tt.errMsg != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.price, r.Price.String())
		})
	}
}

func TestRun(t *testing.T) {
	ctx := context.Background()
	store, err := storage.Open(ctx, "sqlite::memory:")
	require.NoError(t, err)
	t.Cleanup(store.Close)

	first := writeExport(t,
		`{"manufacturer":"Fender","model_name":"Jazz Bass","color":"Sunburst","strings":4,"price":"1499.99"}`,
		``,
		`{"manufacturer":"Music Man","model_name":"StingRay","color":"Natural","strings":4,"price":"2199.00"}`,
	)
	second := writeExport(t,
		`{"manufacturer":"Fender","model_name":"JAZZ BASS","color":"sunburst","strings":4,"price":"1.00"}`,
		`{"manufacturer":"Fender","model_name":"Precision Bass","color":"Olympic White","strings":4,"price":"1299.00"}`,
	)

	stats, err := run(ctx, store.Catalog, []string{first, second}, bloom.NewWithEstimates(1000, 1e-9))
	require.NoError(t, err)
	assert.Equal(t, 4, stats.read)
	assert.Equal(t, 3, stats.imported)
	assert.Equal(t, 1, stats.duplicates)

	guitars, err := store.Catalog.ListBassGuitars(ctx)
	require.NoError(t, err)
	assert.Len(t, guitars, 3)

	manufacturers, err := store.Catalog.ListManufacturers(ctx)
	require.NoError(t, err)
	assert.Len(t, manufacturers, 2)
}

func TestRun_ManufacturerCase(t *testing.T) {
	ctx := context.Background()
	store, err := storage.Open(ctx, "sqlite::memory:")
	require.NoError(t, err)
	t.Cleanup(store.Close)

	_, err = store.Catalog.UpsertManufacturer(ctx, "Music Man")
	require.NoError(t, err)

	path := writeExport(t,
		`{"manufacturer":"Fender","model_name":"Jazz Bass","color":"Sunburst","strings":4,"price":"1499.99"}`,
		`{"manufacturer":"fender","model_name":"Precision Bass","color":"Olympic White","strings":4,"price":"1299.00"}`,
		`{"manufacturer":"MUSIC MAN","model_name":"StingRay","color":"Natural","strings":4,"price":"2199.00"}`,
	)
	stats, err := run(ctx, store.Catalog, []string{path}, bloom.NewWithEstimates(1000, 1e-9))
	require.NoError(t, err)
	assert.Equal(t, 3, stats.imported)
	assert.Zero(t, stats.duplicates)

	manufacturers, err := store.Catalog.ListManufacturers(ctx)
	require.NoError(t, err)
	names := make([]string, 0, len(manufacturers))
	for _, m := range manufacturers {
		names = append(names, m.Name)
	}
	assert.ElementsMatch(t, []string{"Fender", "Music Man"}, names)

	guitars, err := store.Catalog.ListBassGuitars(ctx)
	require.NoError(t, err)
	require.Len(t, guitars, 3)
	for _, g := range guitars {
		require.NotNil(t, g.Manufacturer)
		assert.Contains(t, []string{"Fender", "Music Man"}, g.Manufacturer.Name)
	}
}

func TestRun_DecodeError(t *testing.T) {
	ctx := context.Background()
	store, err := storage.Open(ctx, "sqlite::memory:")
	require.NoError(t, err)
	t.Cleanup(store.Close)

	path := writeExport(t, `{"manufacturer":`)
	_, err = run(ctx, store.Catalog, []string{path}, bloom.NewWithEstimates(10, 0.01))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "export.jsonl.gz:1")
}

func TestRun_MissingFile(t *testing.T) {
	ctx := context.Background()
	store, err := storage.Open(ctx, "sqlite::memory:")
	require.NoError(t, err)
	t.Cleanup(store.Close)

	_, err = run(ctx, store.Catalog, []string{filepath.Join(t.TempDir(), "nope.gz")}, bloom.NewWithEstimates(10, 0.01))
	require.Error(t, err)
}
