package dispatch

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m2mdev/lwm2mcore/registry"
)

// fakeDeviceHandler is a minimal in-memory Reader/Writer/Executer/Creater
// over the Device object, used to exercise Dispatch without pulling in
// the real registry-backed handler.
type fakeDeviceHandler struct {
	instances map[uint16]map[uint16]string
	executed  []uint16
}

func newFakeDeviceHandler() *fakeDeviceHandler {
	return &fakeDeviceHandler{
		instances: map[uint16]map[uint16]string{
			0: {
				registry.ResDeviceManufacturer: "Acme Corp",
				registry.ResDeviceModelNumber:  "X1",
				registry.ResDeviceSerialNumber: "SN-0001",
			},
		},
	}
}

func (h *fakeDeviceHandler) InstanceExists(instanceID uint16) bool {
	_, ok := h.instances[instanceID]
	return ok
}

func (h *fakeDeviceHandler) ReadResource(ctx context.Context, instanceID, resourceID uint16) (string, Status) {
	res, ok := h.instances[instanceID]
	if !ok {
		return "", StatusGeneral
	}
	v, ok := res[resourceID]
	if !ok {
		return "", StatusOpNotSupported
	}
	return v, StatusOK
}

func (h *fakeDeviceHandler) WriteResource(ctx context.Context, instanceID, resourceID uint16, value string, raw []byte) Status {
	res, ok := h.instances[instanceID]
	if !ok {
		return StatusGeneral
	}
	res[resourceID] = value
	return StatusOK
}

func (h *fakeDeviceHandler) ExecuteResource(ctx context.Context, instanceID, resourceID uint16, args []byte) Status {
	h.executed = append(h.executed, resourceID)
	return StatusOK
}

func (h *fakeDeviceHandler) CreateInstance(ctx context.Context, instanceID uint16) Status {
	if _, ok := h.instances[instanceID]; ok {
		return StatusInvalidArg
	}
	h.instances[instanceID] = map[uint16]string{}
	return StatusOK
}

func (h *fakeDeviceHandler) DeleteInstance(ctx context.Context, instanceID uint16) Status {
	if _, ok := h.instances[instanceID]; !ok {
		return StatusOpNotSupported
	}
	delete(h.instances, instanceID)
	return StatusOK
}

func newTestDispatcher(t *testing.T) (*Dispatcher, *fakeDeviceHandler) {
	t.Helper()
	reg := registry.New()
	registry.RegisterBuiltins(reg)
	_, err := reg.CreateInstance(registry.ObjectDevice, 0)
	require.NoError(t, err)

	h := newFakeDeviceHandler()
	d := New(reg)
	d.Bind(registry.ObjectDevice, h)
	return d, h
}

func TestDispatchReadSingleResource(t *testing.T) {
	d, _ := newTestDispatcher(t)
	resp, err := d.Dispatch(context.Background(), Request{
		Op: OpRead, ObjectID: registry.ObjectDevice, InstanceID: 0,
		ResourceID: registry.ResDeviceManufacturer, ResourceInstanceID: registry.Unspecified,
	})
	require.NoError(t, err)
	assert.Equal(t, CodeContent, resp.Code)
	assert.NotEmpty(t, resp.Payload)
}

func TestDispatchReadMissingInstanceIs404(t *testing.T) {
	d, _ := newTestDispatcher(t)
	resp, err := d.Dispatch(context.Background(), Request{
		Op: OpRead, ObjectID: registry.ObjectDevice, InstanceID: 7,
		ResourceID: registry.ResDeviceManufacturer, ResourceInstanceID: registry.Unspecified,
	})
	require.NoError(t, err)
	assert.Equal(t, CodeNotFound, resp.Code)
}

func TestDispatchReadUnknownResourceIs404(t *testing.T) {
	d, _ := newTestDispatcher(t)
	resp, err := d.Dispatch(context.Background(), Request{
		Op: OpRead, ObjectID: registry.ObjectDevice, InstanceID: 0,
		ResourceID: 9999, ResourceInstanceID: registry.Unspecified,
	})
	require.NoError(t, err)
	assert.Equal(t, CodeNotFound, resp.Code)
}

func TestDispatchWriteReadOnlyResourceIsMethodNotAllowed(t *testing.T) {
	d, _ := newTestDispatcher(t)
	resp, err := d.Dispatch(context.Background(), Request{
		Op: OpWrite, ObjectID: registry.ObjectDevice, InstanceID: 0,
		ResourceID: registry.ResDeviceManufacturer, ResourceInstanceID: registry.Unspecified,
		ContentType: ContentTextPlain, Payload: []byte("New Co"),
	})
	require.NoError(t, err)
	assert.Equal(t, CodeMethodNotAllowed, resp.Code)
}

func TestDispatchWriteWritableResource(t *testing.T) {
	d, h := newTestDispatcher(t)
	resp, err := d.Dispatch(context.Background(), Request{
		Op: OpWrite, ObjectID: registry.ObjectDevice, InstanceID: 0,
		ResourceID: registry.ResDeviceTimezone, ResourceInstanceID: registry.Unspecified,
		ContentType: ContentTextPlain, Payload: []byte("Europe/Paris"),
	})
	require.NoError(t, err)
	assert.Equal(t, CodeChanged, resp.Code)
	assert.Equal(t, "Europe/Paris", h.instances[0][registry.ResDeviceTimezone])
}

func TestDispatchWholeInstanceRead(t *testing.T) {
	d, _ := newTestDispatcher(t)
	resp, err := d.Dispatch(context.Background(), Request{
		Op: OpRead, ObjectID: registry.ObjectDevice, InstanceID: 0,
		ResourceID: registry.Unspecified, ResourceInstanceID: registry.Unspecified,
	})
	require.NoError(t, err)
	assert.Equal(t, CodeContent, resp.Code)
	items := unmarshalTLVItems(resp.Payload)
	assert.NotEmpty(t, items)
}

func TestDispatchCreateThenDelete(t *testing.T) {
	d, h := newTestDispatcher(t)
	// Device is single-instance, so exercise CREATE/DELETE on the
	// unbounded Server object with the same fake handler.
	d.Bind(registry.ObjectServer, h)
	resp, err := d.Dispatch(context.Background(), Request{
		Op: OpCreate, ObjectID: registry.ObjectServer, InstanceID: 1,
		ResourceID: registry.Unspecified, ResourceInstanceID: registry.Unspecified,
		ContentType: ContentTLV,
	})
	require.NoError(t, err)
	assert.Equal(t, CodeCreated, resp.Code)
	assert.True(t, h.InstanceExists(1))

	resp, err = d.Dispatch(context.Background(), Request{
		Op: OpDelete, ObjectID: registry.ObjectServer, InstanceID: 1,
		ResourceID: registry.Unspecified, ResourceInstanceID: registry.Unspecified,
	})
	require.NoError(t, err)
	assert.Equal(t, CodeDeleted, resp.Code)
	assert.False(t, h.InstanceExists(1))
}

func TestDispatchExecute(t *testing.T) {
	d, h := newTestDispatcher(t)
	resp, err := d.Dispatch(context.Background(), Request{
		Op: OpExecute, ObjectID: registry.ObjectDevice, InstanceID: 0,
		ResourceID: registry.ResDeviceCurrentTime, ResourceInstanceID: registry.Unspecified,
	})
	require.NoError(t, err)
	// CurrentTime has no execute capability; expect MethodNotAllowed.
	assert.Equal(t, CodeMethodNotAllowed, resp.Code)
	assert.Empty(t, h.executed)
}

func TestDispatchObserveRegistersBaselineAndNotifyIsQuietUntilChange(t *testing.T) {
	d, h := newTestDispatcher(t)
	resp, err := d.Dispatch(context.Background(), Request{
		Op: OpObserve, ObjectID: registry.ObjectDevice, InstanceID: 0,
		ResourceID: registry.ResDeviceManufacturer, ResourceInstanceID: registry.Unspecified,
	})
	require.NoError(t, err)
	assert.Equal(t, CodeContent, resp.Code)

	assert.Empty(t, d.Notify(context.Background()))

	h.instances[0][registry.ResDeviceManufacturer] = "New Co"
	notifications := d.Notify(context.Background())
	require.Len(t, notifications, 1)
	assert.Equal(t, registry.ObjectDevice, notifications[0].ObjectID)
	assert.Equal(t, registry.ResDeviceManufacturer, notifications[0].ResourceID)

	assert.Empty(t, d.Notify(context.Background()))
}

func TestDispatchObserveCancelStopsNotify(t *testing.T) {
	d, h := newTestDispatcher(t)
	_, err := d.Dispatch(context.Background(), Request{
		Op: OpObserve, ObjectID: registry.ObjectDevice, InstanceID: 0,
		ResourceID: registry.ResDeviceManufacturer, ResourceInstanceID: registry.Unspecified,
	})
	require.NoError(t, err)

	resp, err := d.Dispatch(context.Background(), Request{
		Op: OpObserveCancel, ObjectID: registry.ObjectDevice, InstanceID: 0,
		ResourceID: registry.ResDeviceManufacturer, ResourceInstanceID: registry.Unspecified,
	})
	require.NoError(t, err)
	assert.Equal(t, CodeContent, resp.Code)

	h.instances[0][registry.ResDeviceManufacturer] = "New Co"
	assert.Empty(t, d.Notify(context.Background()))
}

func TestDispatchWholeInstanceObserveNotifiesOnAnyChangedResource(t *testing.T) {
	d, h := newTestDispatcher(t)
	resp, err := d.Dispatch(context.Background(), Request{
		Op: OpObserve, ObjectID: registry.ObjectDevice, InstanceID: 0,
		ResourceID: registry.Unspecified, ResourceInstanceID: registry.Unspecified,
	})
	require.NoError(t, err)
	assert.Equal(t, CodeContent, resp.Code)

	h.instances[0][registry.ResDeviceModelNumber] = "X2"
	notifications := d.Notify(context.Background())
	require.Len(t, notifications, 1)
	assert.Equal(t, registry.ResDeviceModelNumber, notifications[0].ResourceID)
}

func TestStatusToCoAPCodeTable(t *testing.T) {
	cases := []struct {
		status Status
		op     Op
		want   Code
	}{
		{StatusOK, OpRead, CodeContent},
		{StatusOK, OpWrite, CodeChanged},
		{StatusOK, OpCreate, CodeCreated},
		{StatusOK, OpDelete, CodeDeleted},
		{StatusInvalidArg, OpWrite, CodeBadRequest},
		{StatusOpNotSupported, OpRead, CodeNotFound},
		{StatusNotYetImplemented, OpExecute, CodeNotImplemented},
		{StatusInvalidState, OpWrite, CodeServiceUnavailable},
		{StatusIncorrectRange, OpRead, CodeInternalServerError},
		{StatusOverflow, OpWrite, CodeInternalServerError},
		{StatusGeneral, OpRead, CodeInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, StatusToCoAPCode(tc.status, tc.op))
	}
}

func TestTLVRoundTrip(t *testing.T) {
	item := tlvItem{Type: tlvResource, ID: 300, Value: []byte("hello world, this is a value")}
	encoded := item.marshal()
	decoded, n, ok := unmarshalTLVItem(encoded)
	require.True(t, ok)
	assert.Equal(t, len(encoded), n)
	assert.Equal(t, item.ID, decoded.ID)
	assert.Equal(t, item.Type, decoded.Type)
	assert.Equal(t, item.Value, decoded.Value)
}

func TestTLVRoundTripLongValue(t *testing.T) {
	value := make([]byte, 400)
	for i := range value {
		value[i] = byte(i)
	}
	item := tlvItem{Type: tlvResource, ID: 5, Value: value}
	decoded, _, ok := unmarshalTLVItem(item.marshal())
	require.True(t, ok)
	assert.Equal(t, value, decoded.Value)
}
