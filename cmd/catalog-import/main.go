// Command catalog-import loads bass guitars from gzip-compressed JSON Lines
// exports into the catalog. Files are decoded concurrently; repeated
// manufacturer/model/color triples are skipped so the first occurrence wins.
package main

import (
	"bufio"
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/bass-shop/internal/domain/catalog"
	"github.com/xenking/bass-shop/internal/storage"
)

const (
	progressEvery  = 10_000
	maxLineBytes   = 1 << 20
	recordsBacklog = 1024
)

// record is one line of an export.
type record struct {
	Manufacturer string
	ModelName    string
	Color        string
	Strings      int
	Price        decimal.Decimal
}

func (r record) key() string {
	return strings.ToLower(r.Manufacturer) + "|" + strings.ToLower(r.ModelName) + "|" + strings.ToLower(r.Color)
}

func main() {
	var (
		databaseURL string
		capacity    uint
		fpr         float64
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL URL or sqlite:<path> (or DATABASE_URL env)")
	flag.UintVar(&capacity, "expected", 1_000_000, "expected number of distinct bass guitars")
	flag.Float64Var(&fpr, "fpr", 1e-6, "duplicate filter false positive rate")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	files := flag.Args()
	if len(files) == 0 {
		slog.Error("usage: catalog-import [flags] export.jsonl.gz...")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	store, err := storage.Open(ctx, databaseURL)
	if err != nil {
		slog.Error("open storage", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer store.Close()

	stats, err := run(ctx, store.Catalog, files, bloom.NewWithEstimates(capacity, fpr))
	if err != nil {
		slog.Error("catalog import failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("catalog import completed",
		slog.Int("read", stats.read),
		slog.Int("imported", stats.imported),
		slog.Int("duplicates", stats.duplicates),
	)
}

type importStats struct {
	read       int
	imported   int
	duplicates int
}

// run decodes every file concurrently and upserts records from a single
// writer, so manufacturer ids are resolved once.
func run(ctx context.Context, store storage.CatalogStore, files []string, seen *bloom.BloomFilter) (importStats, error) {
	records := make(chan record, recordsBacklog)

	g, ctx := errgroup.WithContext(ctx)
	readers, rctx := errgroup.WithContext(ctx)
	for _, path := range files {
		readers.Go(func() error {
			return streamFile(rctx, path, func(r record) error {
				select {
				case records <- r:
					return nil
				case <-rctx.Done():
					return rctx.Err()
				}
			})
		})
	}
	g.Go(func() error {
		defer close(records)
		return readers.Wait()
	})

	var stats importStats
	g.Go(func() error {
		// Keyed by lowercased name, matching how records are deduplicated.
		manufacturers := make(map[string]int64)
		existing, err := store.ListManufacturers(ctx)
		if err != nil {
			return errors.Wrap(err, "list manufacturers")
		}
		for _, m := range existing {
			if _, ok := manufacturers[strings.ToLower(m.Name)]; !ok {
				manufacturers[strings.ToLower(m.Name)] = m.ID
			}
		}

		for r := range records {
			stats.read++
			if seen.TestOrAddString(r.key()) {
				stats.duplicates++
				continue
			}

			name := strings.ToLower(r.Manufacturer)
			mid, ok := manufacturers[name]
			if !ok {
				id, err := store.UpsertManufacturer(ctx, r.Manufacturer)
				if err != nil {
					return errors.Wrapf(err, "upsert manufacturer %q", r.Manufacturer)
				}
				manufacturers[name], mid = id, id
			}

			if err := store.UpsertBassGuitar(ctx, &catalog.BassGuitar{
				ManufacturerID: mid,
				ModelName:      r.ModelName,
				Color:          r.Color,
				Strings:        r.Strings,
				Price:          r.Price,
			}); err != nil {
				return errors.Wrapf(err, "upsert %s %s", r.Manufacturer, r.ModelName)
			}

			stats.imported++
			if stats.imported%progressEvery == 0 {
				slog.Info("import progress", slog.Int("imported", stats.imported))
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return stats, err
	}
	return stats, nil
}

// streamFile decodes a gzip-compressed JSON Lines file, skipping blank lines.
func streamFile(ctx context.Context, path string, fn func(record) error) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return errors.Wrapf(err, "create gzip reader for %s", path)
	}
	defer func() { _ = gz.Close() }()

	scanner := bufio.NewScanner(gz)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
	for line := 1; scanner.Scan(); line++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		raw := scanner.Bytes()
		if len(strings.TrimSpace(string(raw))) == 0 {
			continue
		}
		r, err := decodeRecord(raw)
		if err != nil {
			return errors.Wrapf(err, "%s:%d", path, line)
		}
		if err := fn(r); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return errors.Wrapf(err, "scan %s", path)
	}
	return nil
}

// decodeRecord parses
//
//	{"manufacturer":"Fender","model_name":"Jazz Bass","color":"Sunburst","strings":4,"price":"1499.99"}
//
// Price may be a JSON string or number. Unknown fields are ignored.
func decodeRecord(raw []byte) (record, error) {
	var r record
	d := jx.DecodeBytes(raw)
	if err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		var err error
		switch string(key) {
		case "manufacturer":
			r.Manufacturer, err = d.Str()
		case "model_name":
			r.ModelName, err = d.Str()
		case "color":
			r.Color, err = d.Str()
		case "strings":
			r.Strings, err = d.Int()
		case "price":
			r.Price, err = decodePrice(d)
		default:
			return d.Skip()
		}
		if err != nil {
			return errors.Wrapf(err, "field %q", key)
		}
		return nil
	}); err != nil {
		return record{}, err
	}

	switch {
	case r.Manufacturer == "" || r.ModelName == "" || r.Color == "":
		return record{}, errors.New("manufacturer, model_name and color are required")
	case r.Strings <= 0:
		return record{}, errors.Errorf("invalid strings %d", r.Strings)
	case !r.Price.IsPositive():
		return record{}, errors.Errorf("invalid price %s", r.Price)
	}
	return r, nil
}

func decodePrice(d *jx.Decoder) (decimal.Decimal, error) {
	switch d.Next() {
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return decimal.Decimal{}, err
		}
		return decimal.NewFromString(s)
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return decimal.Decimal{}, err
		}
		return decimal.NewFromString(n.String())
	default:
		return decimal.Decimal{}, errors.Errorf("unexpected %s", d.Next())
	}
}
