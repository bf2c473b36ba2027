// Package mirrortest holds the behaviour every mirror.Store backend must share.
package mirrortest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sahilbhanushali/GharGrocerProd/internal/mirror"
)

// Run exercises a fresh store returned by newStore.
func Run(t *testing.T, newStore func(t *testing.T) mirror.Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("empty slot", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Get(ctx, mirror.SlotCart)
		assert.ErrorIs(t, err, mirror.ErrNotFound)
	})

	t.Run("set get overwrite", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Set(ctx, mirror.SlotCart, []byte(`[1]`)))
		require.NoError(t, s.Set(ctx, mirror.SlotCart, []byte(`[1,2]`)))

		got, err := s.Get(ctx, mirror.SlotCart)
		require.NoError(t, err)
		assert.Equal(t, `[1,2]`, string(got))
	})

	t.Run("slots are independent", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Set(ctx, mirror.SlotCart, []byte(`"c"`)))
		require.NoError(t, s.Set(ctx, mirror.SlotWishlist, []byte(`"w"`)))
		require.NoError(t, s.Delete(ctx, mirror.SlotCart))

		_, err := s.Get(ctx, mirror.SlotCart)
		assert.ErrorIs(t, err, mirror.ErrNotFound)

		got, err := s.Get(ctx, mirror.SlotWishlist)
		require.NoError(t, err)
		assert.Equal(t, `"w"`, string(got))
	})

	t.Run("delete empty slot", func(t *testing.T) {
		s := newStore(t)
		assert.NoError(t, s.Delete(ctx, mirror.SlotAuthToken))
	})

	t.Run("json helpers", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, mirror.SaveJSON(ctx, s, mirror.SlotAuthUser, map[string]string{"name": "Asha"}))

		var got map[string]string
		found, err := mirror.LoadJSON(ctx, s, mirror.SlotAuthUser, &got)
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, "Asha", got["name"])
	})

	t.Run("ping", func(t *testing.T) {
		assert.NoError(t, newStore(t).Ping(ctx))
	})
}
