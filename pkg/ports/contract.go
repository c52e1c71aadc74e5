package ports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunStateContextContract runs a suite of tests to verify that a StateContext
// implementation adheres to the defined interface contract.
func RunStateContextContract(t *testing.T, sc StateContext) {
	ctx := context.Background()
	prefix := "contract_" + time.Now().Format("20060102150405")

	t.Run("Get Unset", func(t *testing.T) {
		value, ok, err := sc.Get(ctx, prefix+"_missing")
		require.NoError(t, err)
		assert.False(t, ok, "unset variable must report ok=false")
		assert.False(t, value)
	})

	t.Run("Set and Get", func(t *testing.T) {
		key := prefix + "_door"
		require.NoError(t, sc.Set(ctx, key, true))

		value, ok, err := sc.Get(ctx, key)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.True(t, value)
	})

	t.Run("False Is Set", func(t *testing.T) {
		key := prefix + "_lamp"
		require.NoError(t, sc.Set(ctx, key, false))

		value, ok, err := sc.Get(ctx, key)
		require.NoError(t, err)
		assert.True(t, ok, "false is a stored value, not absence")
		assert.False(t, value)
	})

	t.Run("Overwrite", func(t *testing.T) {
		key := prefix + "_flag"
		require.NoError(t, sc.Set(ctx, key, true))
		require.NoError(t, sc.Set(ctx, key, false))

		value, ok, err := sc.Get(ctx, key)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.False(t, value)
	})

	if lister, ok := sc.(VariableLister); ok {
		t.Run("Snapshot", func(t *testing.T) {
			key := prefix + "_listed"
			require.NoError(t, sc.Set(ctx, key, true))

			snap, err := lister.Snapshot(ctx)
			require.NoError(t, err)
			assert.Equal(t, true, snap[key])
		})
	}
}
