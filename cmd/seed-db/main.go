// Command seed-db loads the demo catalog and user accounts, and can mint a
// bearer token for one of the seeded accounts.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/go-faster/errors"
	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"

	"github.com/xenking/bass-shop/internal/domain/auth"
	"github.com/xenking/bass-shop/internal/domain/catalog"
	"github.com/xenking/bass-shop/internal/storage"
)

type manufacturerJSON struct {
	Manufacturer string `json:"manufacturer"`
	BassGuitars  []struct {
		ModelName string          `json:"model_name"`
		Color     string          `json:"color"`
		Strings   int             `json:"strings"`
		Price     decimal.Decimal `json:"price"`
	} `json:"bass_guitars"`
}

type userJSON struct {
	AccountID string        `json:"account_id"`
	UserType  auth.UserType `json:"user_type"`
	FirstName string        `json:"first_name"`
	LastName  string        `json:"last_name"`
	Email     string        `json:"email"`
}

func main() {
	var (
		databaseURL string
		catalogFile string
		usersFile   string
		tokenFor    string
		jwtSecret   string
		jwtIssuer   string
		tokenTTL    time.Duration
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL URL or sqlite:<path> (or DATABASE_URL env)")
	flag.StringVar(&catalogFile, "catalog-file", "db/seed/catalog.json", "path to catalog JSON file")
	flag.StringVar(&usersFile, "users-file", "db/seed/users.json", "path to users JSON file")
	flag.StringVar(&tokenFor, "token-for", "", "print a bearer token for this account id after seeding")
	flag.StringVar(&jwtSecret, "jwt-secret", "", "HMAC secret for --token-for (or SHOP_JWT_SECRET env)")
	flag.StringVar(&jwtIssuer, "jwt-issuer", "", "iss claim for --token-for")
	flag.DurationVar(&tokenTTL, "token-ttl", 24*time.Hour, "lifetime of the --token-for token")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if jwtSecret == "" {
		jwtSecret = os.Getenv("SHOP_JWT_SECRET")
	}
	if tokenFor != "" && jwtSecret == "" {
		slog.Error("--token-for requires --jwt-secret or SHOP_JWT_SECRET")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, catalogFile, usersFile); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	slog.Info("seed completed successfully")

	if tokenFor != "" {
		token, err := issueToken([]byte(jwtSecret), jwtIssuer, tokenFor, time.Now(), tokenTTL)
		if err != nil {
			slog.Error("issue token", slog.String("error", err.Error()))
			os.Exit(1)
		}
		fmt.Println("Bearer " + token)
	}
}

func run(ctx context.Context, databaseURL, catalogFile, usersFile string) error {
	slog.Info("connecting to database")

	store, err := storage.Open(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "open storage")
	}
	defer store.Close()

	if err := seedCatalog(ctx, store.Catalog, catalogFile); err != nil {
		return errors.Wrap(err, "seed catalog")
	}
	if err := seedUsers(ctx, store.Users, usersFile); err != nil {
		return errors.Wrap(err, "seed users")
	}
	return nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "read %s", path)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return errors.Wrapf(err, "parse %s", path)
	}
	return nil
}

func seedCatalog(ctx context.Context, store storage.CatalogStore, path string) error {
	slog.Info("reading catalog file", slog.String("path", path))

	var manufacturers []manufacturerJSON
	if err := readJSON(path, &manufacturers); err != nil {
		return err
	}

	for _, m := range manufacturers {
		mid, err := store.UpsertManufacturer(ctx, m.Manufacturer)
		if err != nil {
			return errors.Wrapf(err, "upsert manufacturer %s", m.Manufacturer)
		}
		for _, g := range m.BassGuitars {
			bg := catalog.BassGuitar{
				ManufacturerID: mid,
				ModelName:      g.ModelName,
				Color:          g.Color,
				Strings:        g.Strings,
				Price:          g.Price,
			}
			if err := store.UpsertBassGuitar(ctx, &bg); err != nil {
				return errors.Wrapf(err, "upsert bass guitar %s %s", m.Manufacturer, g.ModelName)
			}
			slog.Info("upserted bass guitar",
				slog.Int64("id", bg.ID),
				slog.String("manufacturer", m.Manufacturer),
				slog.String("model", g.ModelName),
				slog.String("price", g.Price.StringFixed(2)),
			)
		}
	}
	return nil
}

func seedUsers(ctx context.Context, store storage.UserStore, path string) error {
	slog.Info("reading users file", slog.String("path", path))

	var users []userJSON
	if err := readJSON(path, &users); err != nil {
		return err
	}

	for _, u := range users {
		if u.UserType != auth.UserTypeCustomer && u.UserType != auth.UserTypeEmployee {
			return errors.Errorf("user %s: unknown user type %q", u.AccountID, u.UserType)
		}
		if err := store.UpsertUser(ctx, &auth.User{
			AccountID: u.AccountID,
			Type:      u.UserType,
			FirstName: u.FirstName,
			LastName:  u.LastName,
			Email:     u.Email,
		}); err != nil {
			return errors.Wrapf(err, "upsert user %s", u.AccountID)
		}
		slog.Info("upserted user", slog.String("account_id", u.AccountID), slog.String("type", string(u.UserType)))
	}
	return nil
}

// issueToken signs an HS256 token whose subject is accountID.
func issueToken(secret []byte, issuer, accountID string, now time.Time, ttl time.Duration) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   accountID,
		Issuer:    issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}
