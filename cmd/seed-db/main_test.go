package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/bass-shop/internal/domain/auth"
	"github.com/xenking/bass-shop/internal/storage"
)

func TestSeed_RepoFixtures(t *testing.T) {
	ctx := context.Background()
	store, err := storage.Open(ctx, "sqlite::memory:")
	require.NoError(t, err)
	t.Cleanup(store.Close)

	catalogFile := filepath.Join("..", "..", "db", "seed", "catalog.json")
	usersFile := filepath.Join("..", "..", "db", "seed", "users.json")

	// Seeding twice must not duplicate anything.
	for range 2 {
		require.NoError(t, seedCatalog(ctx, store.Catalog, catalogFile))
		require.NoError(t, seedUsers(ctx, store.Users, usersFile))
	}

	guitars, err := store.Catalog.ListBassGuitars(ctx)
	require.NoError(t, err)
	assert.Len(t, guitars, 8)

	manufacturers, err := store.Catalog.ListManufacturers(ctx)
	require.NoError(t, err)
	assert.Len(t, manufacturers, 4)

	staff, err := store.Users.FindByAccountID(ctx, "acct-staff")
	require.NoError(t, err)
	assert.Equal(t, auth.UserTypeEmployee, staff.Type)
}

func TestSeedUsers_UnknownType(t *testing.T) {
	ctx := context.Background()
	store, err := storage.Open(ctx, "sqlite::memory:")
	require.NoError(t, err)
	t.Cleanup(store.Close)

	path := filepath.Join(t.TempDir(), "users.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"account_id":"x","user_type":"admin"}]`), 0o600))

	err = seedUsers(ctx, store.Users, path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown user type "admin"`)
}

func TestIssueToken(t *testing.T) {
	secret := []byte("seed-secret")
	token, err := issueToken(secret, "accounts", "acct-jaco", time.Now(), time.Hour)
	require.NoError(t, err)

	sub, err := auth.NewJWTVerifier(secret, "accounts", 0).Subject(token)
	require.NoError(t, err)
	assert.Equal(t, "acct-jaco", sub)

	expired, err := issueToken(secret, "accounts", "acct-jaco", time.Now().Add(-2*time.Hour), time.Hour)
	require.NoError(t, err)
	_, err = auth.NewJWTVerifier(secret, "accounts", 0).Subject(expired)
	assert.Error(t, err)
}
