package store

import (
	"context"
	"sort"
	"sync"
	"testing"

	perrors "github.com/abgdnv/productcatalog/internal/product/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestStore opens a fresh in-memory store that is closed when the test ends.
func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLite(context.Background(), ":memory:")
	require.NoError(t, err, "failed to open in-memory store")
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteStore_FindAll_Empty(t *testing.T) {
	// given
	s := newTestStore(t)

	// when
	products, err := s.FindAll(context.Background())

	// then
	require.NoError(t, err)
	require.NotNil(t, products, "an empty store must yield an empty slice, not nil")
	assert.Empty(t, products)
}

func TestSQLiteStore_CreateAndFindAll(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	toCreate := []Product{
		{Name: "Test Product", Price: 123.45},
		{Name: "Free Sample", Price: 0},
		{Name: "Product 2", Price: 75.0},
	}
	for i, p := range toCreate {
		id, err := s.Create(ctx, p.Name, p.Price)
		require.NoError(t, err)
		assert.Equal(t, int64(i+1), id, "ids start at 1 and grow by one")
	}

	products, err := s.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, products, len(toCreate))
	for i, p := range products {
		assert.Equal(t, int64(i+1), p.ID)
		assert.Equal(t, toCreate[i].Name, p.Name)
		assert.Equal(t, toCreate[i].Price, p.Price)
	}
}

func TestSQLiteStore_Create_RejectsEmptyName(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Create(context.Background(), "", 10)

	var storageErr *perrors.StorageError
	require.ErrorAs(t, err, &storageErr)
	assert.Equal(t, "create product", storageErr.Op)

	products, err := s.FindAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestSQLiteStore_ConcurrentCreates(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	const workers = 50

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		ids []int64
	)
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := s.Create(ctx, "Product", float64(i))
			assert.NoError(t, err)
			mu.Lock()
			ids = append(ids, id)
			mu.Unlock()
		}()
	}
	wg.Wait()

	require.Len(t, ids, workers)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for i, id := range ids {
		assert.Equal(t, int64(i+1), id, "ids must be unique and gap free")
	}
}

func TestSQLiteStore_StoresAreIsolated(t *testing.T) {
	ctx := context.Background()
	first := newTestStore(t)
	second := newTestStore(t)

	_, err := first.Create(ctx, "Only here", 1)
	require.NoError(t, err)

	products, err := second.FindAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestSQLiteStore_ClosedMedium(t *testing.T) {
	ctx := context.Background()
	s, err := OpenSQLite(ctx, ":memory:")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	testCases := []struct {
		name string
		call func() error
		op   string
	}{
		{
			name: "create",
			call: func() error { _, err := s.Create(ctx, "Product", 1); return err },
			op:   "create product",
		},
		{
			name: "find all",
			call: func() error { _, err := s.FindAll(ctx); return err },
			op:   "list products",
		},
		{
			name: "ping",
			call: func() error { return s.Ping(ctx) },
			op:   "ping",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// when
			err := tc.call()

			// then
			var storageErr *perrors.StorageError
			require.ErrorAs(t, err, &storageErr)
			assert.Equal(t, tc.op, storageErr.Op)
			assert.NotEmpty(t, storageErr.Error())
		})
	}
}

func TestSQLiteStore_IDsNeverReused(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	first, err := s.Create(ctx, "A", 1)
	require.NoError(t, err)
	// Remove the row behind the store's back: AUTOINCREMENT must still move forward.
	_, err = s.db.ExecContext(ctx, "DELETE FROM products WHERE id = ?", first)
	require.NoError(t, err)

	second, err := s.Create(ctx, "B", 2)
	require.NoError(t, err)
	assert.Greater(t, second, first)
}
