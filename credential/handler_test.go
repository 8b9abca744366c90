package credential

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m2mdev/lwm2mcore/dispatch"
	"github.com/m2mdev/lwm2mcore/registry"
)

func newTestSecurityHandler(t *testing.T) SecurityHandler {
	t.Helper()
	reg := registry.New()
	registry.RegisterBuiltins(reg)
	_, err := reg.CreateInstance(registry.ObjectSecurity, 0)
	require.NoError(t, err)
	store := NewStore(newMemBlobs())
	return SecurityHandler{Store: store, Registry: reg, ServerID: 1}
}

func TestSecurityHandlerInstanceExists(t *testing.T) {
	h := newTestSecurityHandler(t)
	assert.True(t, h.InstanceExists(0))
	assert.False(t, h.InstanceExists(1))
}

func TestSecurityHandlerWriteThenReadURI(t *testing.T) {
	h := newTestSecurityHandler(t)
	ctx := context.Background()
	status := h.WriteResource(ctx, 0, registry.ResSecurityURI, "coaps://dm.example.net:5684", []byte("coaps://dm.example.net:5684"))
	require.Equal(t, dispatch.StatusOK, status)

	v, status := h.ReadResource(ctx, 0, registry.ResSecurityURI)
	require.Equal(t, dispatch.StatusOK, status)
	assert.Equal(t, "coaps://dm.example.net:5684", v)
}

func TestSecurityHandlerReadShortServerID(t *testing.T) {
	h := newTestSecurityHandler(t)
	v, status := h.ReadResource(context.Background(), 0, registry.ResSecurityShortServerID)
	require.Equal(t, dispatch.StatusOK, status)
	assert.Equal(t, "1", v)
}

func TestSecurityHandlerReadURIBeforeWrite(t *testing.T) {
	h := newTestSecurityHandler(t)
	_, status := h.ReadResource(context.Background(), 0, registry.ResSecurityURI)
	assert.Equal(t, dispatch.StatusNotYetImplemented, status)
}

func TestSecurityHandlerWriteOverflow(t *testing.T) {
	h := newTestSecurityHandler(t)
	oversized := make([]byte, maxSizeFor(KindDMSecretKey)+1)
	status := h.WriteResource(context.Background(), 0, registry.ResSecuritySecretKey, "", oversized)
	assert.Equal(t, dispatch.StatusOverflow, status)
}

func TestSecurityHandlerWriteUnmappedResourceIsNoop(t *testing.T) {
	h := newTestSecurityHandler(t)
	status := h.WriteResource(context.Background(), 0, registry.ResSecurityShortServerID, "1", []byte("1"))
	assert.Equal(t, dispatch.StatusOK, status)
}

func maxSizeFor(k Kind) int { return k.maxSize() }
