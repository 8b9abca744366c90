package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m2mdev/lwm2mcore/dispatch"
	"github.com/m2mdev/lwm2mcore/registry"
)

func TestServerHandlerReadDefaults(t *testing.T) {
	m, _ := newTestManager(t)
	h := NewServerHandler(m)

	v, status := h.ReadResource(context.Background(), 0, registry.ResServerShortServerID)
	require.Equal(t, dispatch.StatusOK, status)
	assert.Equal(t, "1", v)

	v, status = h.ReadResource(context.Background(), 0, registry.ResServerLifetime)
	require.Equal(t, dispatch.StatusOK, status)
	assert.Equal(t, "86400", v)

	v, status = h.ReadResource(context.Background(), 0, registry.ResServerBinding)
	require.Equal(t, dispatch.StatusOK, status)
	assert.Equal(t, "U", v)
}

func TestServerHandlerWriteLifetimeRejectsNonPositive(t *testing.T) {
	m, _ := newTestManager(t)
	h := NewServerHandler(m)
	status := h.WriteResource(context.Background(), 0, registry.ResServerLifetime, "0", []byte("0"))
	assert.Equal(t, dispatch.StatusInvalidArg, status)
}

func TestServerHandlerWriteLifetimeUpdatesReadback(t *testing.T) {
	m, _ := newTestManager(t)
	h := NewServerHandler(m)
	status := h.WriteResource(context.Background(), 0, registry.ResServerLifetime, "120", []byte("120"))
	require.Equal(t, dispatch.StatusOK, status)
	v, _ := h.ReadResource(context.Background(), 0, registry.ResServerLifetime)
	assert.Equal(t, "120", v)
}

func TestServerHandlerExecuteUpdateTriggerDelegatesToManager(t *testing.T) {
	m, tr := newTestManager(t)
	require.NoError(t, m.Register(context.Background()))
	m.stopLifetimeTimer()
	tr.sent = nil

	h := NewServerHandler(m)
	status := h.ExecuteResource(context.Background(), 0, registry.ResServerUpdateTrigger, nil)
	assert.Equal(t, dispatch.StatusOK, status)
	require.Len(t, tr.sent, 1)
	assert.Equal(t, m.location, tr.sent[0].Path)
	m.stopLifetimeTimer()
}

func TestServerHandlerInstanceExists(t *testing.T) {
	m, _ := newTestManager(t)
	h := NewServerHandler(m)
	assert.True(t, h.InstanceExists(0))
	assert.False(t, h.InstanceExists(1))
}
