package session

import (
	"context"
	"testing"

	piondtls "github.com/pion/dtls/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m2mdev/lwm2mcore/credential"
	"github.com/m2mdev/lwm2mcore/dispatch"
	"github.com/m2mdev/lwm2mcore/registry"
	"github.com/m2mdev/lwm2mcore/storage"
	"github.com/m2mdev/lwm2mcore/transport"
)

type memBlobs struct{ data map[string][]byte }

func newMemBlobs() *memBlobs { return &memBlobs{data: make(map[string][]byte)} }
func (m *memBlobs) Get(key string) ([]byte, bool, error) {
	v, ok := m.data[key]
	return v, ok, nil
}
func (m *memBlobs) Put(key string, v []byte) error { m.data[key] = v; return nil }
func (m *memBlobs) Delete(key string) error         { delete(m.data, key); return nil }

var _ storage.Blobs = (*memBlobs)(nil)

// fakeTransport is an in-memory transport.Facade stand-in: Connect
// always succeeds and Send answers registration with a fixed location.
type fakeTransport struct {
	connected bool
	sent      []transport.Request
	location  string
}

func (f *fakeTransport) Open(endpoint string) error { return nil }

func (f *fakeTransport) Connect(ctx context.Context, host string, config *piondtls.Config, recv transport.OnReceive) error {
	f.connected = true
	return nil
}

func (f *fakeTransport) Send(ctx context.Context, req transport.Request) (transport.Message, error) {
	f.sent = append(f.sent, req)
	if req.Path == "rd" {
		return transport.Message{Code: 201, Location: f.location}, nil
	}
	return transport.Message{Code: 204}, nil
}

func (f *fakeTransport) Close() error { f.connected = false; return nil }

func newTestManager(t *testing.T) (*Manager, *fakeTransport) {
	t.Helper()
	reg := registry.New()
	registry.RegisterBuiltins(reg)
	_, err := reg.CreateInstance(registry.ObjectServer, 0)
	require.NoError(t, err)

	disp := dispatch.New(reg)
	store := credential.NewStore(newMemBlobs())
	require.NoError(t, store.Set(credential.KindDMAddress, 1, []byte("dm.example.net:5684")))
	require.NoError(t, store.Set(credential.KindDMPublicKey, 1, []byte("client-id")))
	require.NoError(t, store.Set(credential.KindDMSecretKey, 1, []byte("0123456789abcdef")))

	tr := &fakeTransport{location: "/rd/abc123"}
	bus := NewBus()
	m := New(reg, disp, store, tr, bus, "test-endpoint", 1)
	return m, tr
}

func TestRegisterSuccessArmsTimerAndCachesLocation(t *testing.T) {
	m, tr := newTestManager(t)
	require.NoError(t, m.Register(context.Background()))
	assert.Equal(t, StateRegistered, m.State())
	assert.Equal(t, "/rd/abc123", m.location)
	assert.True(t, tr.connected)
	m.stopLifetimeTimer()
}

func TestRegisterFailsWithoutDMCredentials(t *testing.T) {
	reg := registry.New()
	registry.RegisterBuiltins(reg)
	disp := dispatch.New(reg)
	store := credential.NewStore(newMemBlobs())
	tr := &fakeTransport{}
	m := New(reg, disp, store, tr, NewBus(), "test-endpoint", 1)

	err := m.Register(context.Background())
	assert.Error(t, err)
	assert.Equal(t, StateIdle, m.State())
}

func TestUpdateRegistersIfNotYetLocated(t *testing.T) {
	m, _ := newTestManager(t)
	require.NoError(t, m.Update(context.Background()))
	assert.Equal(t, StateRegistered, m.State())
	m.stopLifetimeTimer()
}

func TestUpdateAfterRegisterSendsToLocation(t *testing.T) {
	m, tr := newTestManager(t)
	require.NoError(t, m.Register(context.Background()))
	m.stopLifetimeTimer()
	require.NoError(t, m.Update(context.Background()))
	last := tr.sent[len(tr.sent)-1]
	assert.Equal(t, transport.MethodPost, last.Method)
	assert.Equal(t, "/rd/abc123", last.Path)
	m.stopLifetimeTimer()
}

func TestDeregisterClearsLocationAndReturnsIdle(t *testing.T) {
	m, _ := newTestManager(t)
	require.NoError(t, m.Register(context.Background()))
	m.stopLifetimeTimer()
	require.NoError(t, m.Deregister(context.Background()))
	assert.Equal(t, StateIdle, m.State())
	assert.Empty(t, m.location)
}

func TestDeregisterWithoutRegistrationFails(t *testing.T) {
	m, _ := newTestManager(t)
	err := m.Deregister(context.Background())
	assert.Error(t, err)
}

func TestInstanceIDListExcludesSecurityObject(t *testing.T) {
	reg := registry.New()
	registry.RegisterBuiltins(reg)
	_, err := reg.CreateInstance(registry.ObjectSecurity, 0)
	require.NoError(t, err)
	_, err = reg.CreateInstance(registry.ObjectServer, 0)
	require.NoError(t, err)
	_, err = reg.CreateInstance(registry.ObjectDevice, 0)
	require.NoError(t, err)

	disp := dispatch.New(reg)
	store := credential.NewStore(newMemBlobs())
	m := New(reg, disp, store, &fakeTransport{}, NewBus(), "test-endpoint", 1)

	paths := m.instanceIDList()
	assert.NotContains(t, paths, "/0/0")
	assert.Contains(t, paths, "/1/0")
	assert.Contains(t, paths, "/3/0")
}

func TestBootstrapStagesWritesThenTimesOutWithoutFinish(t *testing.T) {
	m, _ := newTestManager(t)

	done := make(chan error, 1)
	go func() { done <- m.Bootstrap(context.Background(), "bs.example.net:5684", &piondtls.Config{}) }()

	// The fake transport's Connect discards recv, so this simplified
	// fake never invokes it; instead drive the staging handler directly
	// the way a real inbound WRITE/Bootstrap-Finish would, to exercise
	// the commit path deterministically in a unit test.
	handler := m.Dispatcher.Handlers[registry.ObjectSecurity]
	writer, ok := handler.(interface {
		WriteResource(ctx context.Context, instanceID, resourceID uint16, value string, raw []byte) dispatch.Status
	})
	require.True(t, ok)
	assert.Equal(t, dispatch.StatusOK, writer.WriteResource(context.Background(), 0, registry.ResSecurityURI, "", []byte("dm.example.net:5684")))
	assert.Equal(t, dispatch.StatusOK, writer.WriteResource(context.Background(), 0, registry.ResSecurityIdentity, "", []byte("client-id")))
	assert.Equal(t, dispatch.StatusOK, writer.WriteResource(context.Background(), 0, registry.ResSecuritySecretKey, "", []byte("0123456789abcdef")))

	// Finish the outstanding Bootstrap call by cancelling its context
	// equivalent: since the fake transport never calls recv with "/bs",
	// Bootstrap will time out; assert it fails cleanly rather than
	// hanging, and that object 0 is restored to its prior handler.
	err := <-done
	assert.Error(t, err)
	assert.Equal(t, StateIdle, m.State())
	assert.Nil(t, m.Dispatcher.Handlers[registry.ObjectSecurity]) // no prior handler was bound
}
