//go:build integration

package favorite

import (
	"context"
	"errors"
	"log"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"go-market/internal/apperr"
	"go-market/internal/events"
	"go-market/internal/listing"
	"go-market/internal/testutil"
)

var testPG *testutil.Postgres

func TestMain(m *testing.M) {
	pg, err := testutil.StartPostgres(context.Background())
	if errors.Is(err, testutil.ErrNoDocker) {
		log.Printf("skipping integration tests: %s", err)
		os.Exit(0)
	}
	if err != nil {
		log.Fatalf("postgres: %s", err)
	}
	testPG = pg

	code := m.Run()

	pg.Close()
	os.Exit(code)
}

func setup(t *testing.T) (*Repository, *listing.Repository) {
	t.Helper()
	require.NoError(t, testPG.Reset(context.Background()))
	return NewRepository(testPG.DB.Conn), listing.NewRepository(testPG.DB.Conn)
}

func TestRepository_ToggleTwiceLeavesNoRows(t *testing.T) {
	repo, listings := setup(t)
	ctx := context.Background()

	l := &listing.Listing{OwnerID: "seller", Title: "Bike", Price: 10}
	require.NoError(t, listings.Insert(ctx, l))

	svc := NewService(repo, events.Nop{}, zap.NewNop())
	first, err := svc.Toggle(ctx, "u", l.ID)
	require.NoError(t, err)
	second, err := svc.Toggle(ctx, "u", l.ID)
	require.NoError(t, err)
	assert.True(t, first)
	assert.False(t, second)

	var n int
	require.NoError(t, testPG.DB.Conn.GetContext(ctx, &n, `SELECT COUNT(*) FROM favorites`))
	assert.Zero(t, n)
}

func TestRepository_DuplicateAndMissing(t *testing.T) {
	repo, listings := setup(t)
	ctx := context.Background()

	l := &listing.Listing{OwnerID: "seller", Title: "Bike", Price: 10}
	require.NoError(t, listings.Insert(ctx, l))

	require.NoError(t, repo.Insert(ctx, "u", l.ID))
	assert.ErrorIs(t, repo.Insert(ctx, "u", l.ID), apperr.ErrConflict)
	assert.ErrorIs(t, repo.Insert(ctx, "u", l.ID+100), apperr.ErrNotFound)

	require.NoError(t, repo.Delete(ctx, "u", l.ID))
	assert.ErrorIs(t, repo.Delete(ctx, "u", l.ID), apperr.ErrNotFound)
}

func TestRepository_ListAndCascade(t *testing.T) {
	repo, listings := setup(t)
	ctx := context.Background()

	a := &listing.Listing{OwnerID: "s", Title: "A", Price: 1}
	b := &listing.Listing{OwnerID: "s", Title: "B", Price: 2}
	require.NoError(t, listings.Insert(ctx, a))
	require.NoError(t, listings.Insert(ctx, b))

	require.NoError(t, repo.Insert(ctx, "u", a.ID))
	require.NoError(t, repo.Insert(ctx, "u", b.ID))

	favs, err := repo.ListListings(ctx, "u")
	require.NoError(t, err)
	require.Len(t, favs, 2)
	assert.Equal(t, b.ID, favs[0].ID)

	require.NoError(t, listings.Delete(ctx, b.ID))
	exists, err := repo.Exists(ctx, "u", b.ID)
	require.NoError(t, err)
	assert.False(t, exists)
}
