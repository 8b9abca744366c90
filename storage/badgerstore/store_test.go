//go:build integration

package badgerstore_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m2mdev/lwm2mcore/storage/badgerstore"
)

// Gated behind the integration build tag, mirroring marmos91-dittofs's
// badger_conformance_test.go: opening a real badger.DB is slow enough
// that it should not run on every `go test ./...`.
func TestStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store, err := badgerstore.Open(filepath.Join(dir, "lwm2mcore.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	_, found, err := store.Get("missing")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.Put("k", []byte("v")))
	v, found, err := store.Get("k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "v", string(v))

	require.NoError(t, store.Delete("k"))
	_, found, err = store.Get("k")
	require.NoError(t, err)
	assert.False(t, found)
}
