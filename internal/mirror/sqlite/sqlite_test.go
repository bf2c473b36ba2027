package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sahilbhanushali/GharGrocerProd/internal/mirror"
	"github.com/Sahilbhanushali/GharGrocerProd/internal/mirror/mirrortest"
	"github.com/Sahilbhanushali/GharGrocerProd/pkg/database"
)

func openTestStore(t *testing.T, path string) *Store {
	t.Helper()
	s, err := Open(context.Background(), database.DefaultSQLiteConfig(path))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_Conformance(t *testing.T) {
	mirrortest.Run(t, func(t *testing.T) mirror.Store {
		return openTestStore(t, filepath.Join(t.TempDir(), "mirror.db"))
	})
}

func TestStore_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mirror.db")
	ctx := context.Background()

	s, err := Open(ctx, database.DefaultSQLiteConfig(path))
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, mirror.SlotCart, []byte(`[{"product_id":"A"}]`)))
	require.NoError(t, s.Close())

	reopened := openTestStore(t, path)
	got, err := reopened.Get(ctx, mirror.SlotCart)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"product_id":"A"}]`, string(got))
}

func TestStore_ClosedDB(t *testing.T) {
	s := openTestStore(t, filepath.Join(t.TempDir(), "mirror.db"))
	require.NoError(t, s.Close())

	err := s.Set(context.Background(), mirror.SlotCart, []byte(`[]`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sqlite set cart")
}

func TestOpen_BadPath(t *testing.T) {
	_, err := Open(context.Background(), database.DefaultSQLiteConfig(filepath.Join(t.TempDir(), "missing", "dir", "mirror.db")))
	assert.Error(t, err)
}
