package club_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clubroster/internal/adapters/storage/club"
	"clubroster/internal/adapters/storage/storagetest"
	domain "clubroster/internal/domain/club"
)

func TestSQLiteStore_SaveAndGet(t *testing.T) {
	ctx := context.Background()
	store := club.NewSQLiteStore(storagetest.Open(t))

	c := domain.Club{ID: "c1", Name: "Frisbee Praha", ShortName: "FP", Email: "fp@example.com", City: "Praha"}
	require.NoError(t, store.Save(ctx, c))

	got, err := store.GetByID(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, c, got)

	c.City = "Brno"
	require.NoError(t, store.Save(ctx, c))
	got, err = store.GetByID(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "Brno", got.City)

	_, err = store.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestSQLiteStore_List(t *testing.T) {
	ctx := context.Background()
	store := club.NewSQLiteStore(storagetest.Open(t))

	require.NoError(t, store.Save(ctx, domain.Club{ID: "b", Name: "Zlin Ultimate"}))
	require.NoError(t, store.Save(ctx, domain.Club{ID: "a", Name: "Brno Disc"}))

	clubs, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, clubs, 2)
	assert.Equal(t, "Brno Disc", clubs[0].Name)
	assert.Equal(t, "Zlin Ultimate", clubs[1].Name)
}
