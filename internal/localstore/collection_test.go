package localstore_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/tillsync/internal/localstore"
	"github.com/MrJamesThe3rd/tillsync/internal/record"
)

func TestCollection_LoadEmpty(t *testing.T) {
	c := localstore.NewCollection[record.Category](localstore.NewMemory(), "categories", nil)

	got, err := c.Load(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestCollection_CorruptPayloadDegradesToEmpty(t *testing.T) {
	ctx := context.Background()
	store := localstore.NewMemory()
	require.NoError(t, store.Save(ctx, "products", []byte(`[{"id":`)))

	c := localstore.NewCollection[record.Product](store, "products", nil)

	got, err := c.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCollection_SaveThenLoad(t *testing.T) {
	ctx := context.Background()
	c := localstore.NewCollection[record.Category](localstore.NewMemory(), "categories", nil)

	want := []record.Category{
		{ID: "hot", Name: "Hot", SyncStatus: record.StatusSynced},
		{ID: "snacks", Name: "Snacks"},
	}
	require.NoError(t, c.Save(ctx, want))

	got, err := c.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestCollection_UpdateErrorLeavesStoreUntouched(t *testing.T) {
	ctx := context.Background()
	c := localstore.NewCollection[record.Category](localstore.NewMemory(), "categories", nil)
	require.NoError(t, c.Save(ctx, []record.Category{{ID: "hot", Name: "Hot"}}))

	err := c.Update(ctx, func(all []record.Category) ([]record.Category, error) {
		return nil, errors.New("boom")
	})
	require.Error(t, err)

	got, err := c.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestCollection_ConcurrentUpdatesDoNotLoseWrites(t *testing.T) {
	ctx := context.Background()
	c := localstore.NewCollection[record.Expense](localstore.NewMemory(), "expenses", nil)

	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			_ = c.Update(ctx, func(all []record.Expense) ([]record.Expense, error) {
				return append(all, record.Expense{ID: "e"}), nil
			})
		}()
	}

	wg.Wait()

	got, err := c.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 50)
}

func TestSQLite_RoundTrip(t *testing.T) {
	ctx := context.Background()

	store, err := localstore.OpenSQLite(ctx, filepath.Join(t.TempDir(), "till.db"), nil)
	require.NoError(t, err)

	defer store.Close()

	got, err := store.Load(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, store.Save(ctx, "k", []byte("one")))
	require.NoError(t, store.Save(ctx, "k", []byte("two")))

	got, err = store.Load(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "two", string(got))
}

func TestSQLite_PathWithURICharacters(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "till?v=1#main.db")

	store, err := localstore.OpenSQLite(ctx, path, nil)
	require.NoError(t, err)

	require.NoError(t, store.Save(ctx, "k", []byte("v")))
	require.NoError(t, store.Close())

	_, err = os.Stat(path)
	require.NoError(t, err)

	store, err = localstore.OpenSQLite(ctx, path, nil)
	require.NoError(t, err)

	defer store.Close()

	got, err := store.Load(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", string(got))
}

func TestMemory_Closed(t *testing.T) {
	m := localstore.NewMemory()
	require.NoError(t, m.Close())

	_, err := m.Load(context.Background(), "k")
	assert.ErrorIs(t, err, localstore.ErrClosed)
}

type countingStore struct {
	*localstore.Memory
	saves int
}

func (c *countingStore) Save(ctx context.Context, key string, value []byte) error {
	c.saves++
	return c.Memory.Save(ctx, key, value)
}

func TestCollection_UpdateNoChangeSkipsWrite(t *testing.T) {
	ctx := context.Background()
	store := &countingStore{Memory: localstore.NewMemory()}
	c := localstore.NewCollection[record.Category](store, "categories", nil)

	err := c.Update(ctx, func(all []record.Category) ([]record.Category, error) {
		return all, localstore.ErrNoChange
	})
	require.NoError(t, err)
	assert.Zero(t, store.saves)
}
