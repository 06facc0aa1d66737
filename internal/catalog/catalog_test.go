package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velvetoven/pastry_shop/internal/kvstore"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	return NewService(kvstore.New(kvstore.NewMemoryBackend(), nil))
}

func TestProducts_SeedFallback(t *testing.T) {
	t.Parallel()

	s := newTestService(t)
	items := s.Products()
	require.NotEmpty(t, items, "empty store serves the seed list")
	assert.Equal(t, Seed(), items)
}

func TestUpsert_PersistsOverSeed(t *testing.T) {
	t.Parallel()

	s := newTestService(t)
	require.NoError(t, s.Upsert(Product{Code: "NEW-1", Name: "Kouign-Amann", Price: 4.2}))

	items := s.Products()
	assert.Len(t, items, len(Seed())+1)

	p, ok := s.FindByCode("NEW-1")
	require.True(t, ok)
	assert.Equal(t, "Kouign-Amann", p.Name)
}

func TestUpsert_ReplacesByCode(t *testing.T) {
	t.Parallel()

	s := newTestService(t)
	require.NoError(t, s.Upsert(Product{Code: "P1", Name: "old", Price: 1}))
	require.NoError(t, s.Upsert(Product{Code: "P1", Name: "new", Price: 2}))

	p, ok := s.FindByCode("P1")
	require.True(t, ok)
	assert.Equal(t, "new", p.Name)
	assert.Equal(t, 2.0, p.Price)
}

func TestUpsert_Validation(t *testing.T) {
	t.Parallel()

	s := newTestService(t)
	assert.ErrorIs(t, s.Upsert(Product{Code: ""}), ErrValidation)
	assert.ErrorIs(t, s.Upsert(Product{Code: "  "}), ErrValidation)
	assert.ErrorIs(t, s.Upsert(Product{Code: "P1", Price: -1}), ErrValidation)
}

func TestStockLimit(t *testing.T) {
	t.Parallel()

	s := newTestService(t)
	require.NoError(t, s.Upsert(Product{Code: "CAP", Stock: intPtr(5)}))
	require.NoError(t, s.Upsert(Product{Code: "FREE"}))
	require.NoError(t, s.Upsert(Product{Code: "NEG", Stock: intPtr(-1)}))
	require.NoError(t, s.Upsert(Product{Code: "ZERO", Stock: intPtr(0)}))

	limit, ok := s.StockLimit("CAP")
	require.True(t, ok)
	assert.Equal(t, 5, limit)

	_, ok = s.StockLimit("FREE")
	assert.False(t, ok, "no stock figure means unlimited")

	_, ok = s.StockLimit("NEG")
	assert.False(t, ok, "negative stock means unlimited")

	limit, ok = s.StockLimit("ZERO")
	require.True(t, ok)
	assert.Equal(t, 0, limit)

	_, ok = s.StockLimit("UNKNOWN")
	assert.False(t, ok, "unknown codes never block cart operations")
}

func TestStockLimit_SeesFreshEdits(t *testing.T) {
	t.Parallel()

	s := newTestService(t)
	require.NoError(t, s.Upsert(Product{Code: "P1", Stock: intPtr(5)}))

	limit, ok := s.StockLimit("P1")
	require.True(t, ok)
	require.Equal(t, 5, limit)

	require.NoError(t, s.Upsert(Product{Code: "P1", Stock: intPtr(2)}))

	limit, ok = s.StockLimit("P1")
	require.True(t, ok)
	assert.Equal(t, 2, limit, "stock is resolved fresh, never cached")
}

func TestDelete(t *testing.T) {
	t.Parallel()

	s := newTestService(t)
	require.NoError(t, s.Upsert(Product{Code: "P1", Price: 1}))
	require.NoError(t, s.Delete("P1"))

	_, ok := s.FindByCode("P1")
	assert.False(t, ok)

	assert.ErrorIs(t, s.Delete("P1"), ErrNotFound)
}

func TestAdjustStock(t *testing.T) {
	t.Parallel()

	s := newTestService(t)
	require.NoError(t, s.Upsert(Product{Code: "P1", Stock: intPtr(5)}))
	require.NoError(t, s.Upsert(Product{Code: "FREE"}))

	require.NoError(t, s.AdjustStock("P1", -3))
	limit, ok := s.StockLimit("P1")
	require.True(t, ok)
	assert.Equal(t, 2, limit)

	// clamped at zero
	require.NoError(t, s.AdjustStock("P1", -10))
	limit, ok = s.StockLimit("P1")
	require.True(t, ok)
	assert.Equal(t, 0, limit)

	// unlimited products are untouched
	require.NoError(t, s.AdjustStock("FREE", -3))
	_, ok = s.StockLimit("FREE")
	assert.False(t, ok)

	assert.ErrorIs(t, s.AdjustStock("UNKNOWN", -1), ErrNotFound)
}
