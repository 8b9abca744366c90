package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBuiltinRegistry() *Registry {
	r := New()
	RegisterBuiltins(r)
	return r
}

func TestDeviceObjectResourceSet(t *testing.T) {
	r := newBuiltinRegistry()
	ids, err := r.ListResourcesOf(ObjectDevice)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint16{0, 1, 2, 3, 9, 12, 13, 15, 20000, 20001, 20002, 20003, 20004, 20005}, ids)
}

func TestFindResourceUnknownObject(t *testing.T) {
	r := newBuiltinRegistry()
	_, err := r.FindResource(9999, 0)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFindResourceUnknownResource(t *testing.T) {
	r := newBuiltinRegistry()
	_, err := r.FindResource(ObjectDevice, 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateInstanceSingleObjectRejectsSecond(t *testing.T) {
	r := newBuiltinRegistry()
	_, err := r.CreateInstance(ObjectDevice, 0)
	require.NoError(t, err)
	_, err = r.CreateInstance(ObjectDevice, 1)
	assert.ErrorIs(t, err, ErrOutOfBounds)
}

func TestCreateInstanceDuplicateRejected(t *testing.T) {
	r := newBuiltinRegistry()
	_, err := r.CreateInstance(ObjectServer, 0)
	require.NoError(t, err)
	_, err = r.CreateInstance(ObjectServer, 0)
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestCreateInstanceOutOfBounds(t *testing.T) {
	r := newBuiltinRegistry()
	_, err := r.CreateInstance(ObjectFileTransfer, uint16(MaxFileTransferInstances))
	assert.ErrorIs(t, err, ErrOutOfBounds)
	_, err = r.CreateInstance(ObjectFileTransfer, uint16(MaxFileTransferInstances-1))
	assert.NoError(t, err)
}

func TestDeleteInstance(t *testing.T) {
	r := newBuiltinRegistry()
	_, err := r.CreateInstance(ObjectServer, 0)
	require.NoError(t, err)
	require.NoError(t, r.DeleteInstance(ObjectServer, 0))
	assert.Nil(t, r.Instance(ObjectServer, 0))
	assert.ErrorIs(t, r.DeleteInstance(ObjectServer, 0), ErrNotFound)
}

func TestObjectIDsAndInstanceIDsSorted(t *testing.T) {
	r := newBuiltinRegistry()
	_, err := r.CreateInstance(ObjectServer, 2)
	require.NoError(t, err)
	_, err = r.CreateInstance(ObjectServer, 1)
	require.NoError(t, err)
	_, err = r.CreateInstance(ObjectDevice, 0)
	require.NoError(t, err)

	assert.Equal(t, []uint16{ObjectServer, ObjectDevice}, r.ObjectIDs())
	assert.Equal(t, []uint16{1, 2}, r.InstanceIDs(ObjectServer))
}

func TestResourceInstanceLazyCreate(t *testing.T) {
	r := newBuiltinRegistry()
	inst, err := r.CreateInstance(ObjectDevice, 0)
	require.NoError(t, err)
	assert.Empty(t, inst.Resources)
	ri := inst.ResourceInstance(ResDeviceManufacturer)
	require.NotNil(t, ri)
	assert.Same(t, ri, inst.ResourceInstance(ResDeviceManufacturer))
}

func TestCapabilityHas(t *testing.T) {
	mask := CapRead | CapWrite
	assert.True(t, mask.Has(CapRead))
	assert.True(t, mask.Has(CapWrite))
	assert.False(t, mask.Has(CapExecute))
}

const sampleObjectXML = `<LWM2M>
  <Object>
    <Name>Gateway</Name>
    <ObjectID>25</ObjectID>
    <MultipleInstances>Single</MultipleInstances>
    <Mandatory>Optional</Mandatory>
    <Resources>
      <Item ID="0">
        <Name>GatewayID</Name>
        <Operations>R</Operations>
        <MultipleInstances>Single</MultipleInstances>
        <Mandatory>Mandatory</Mandatory>
        <Type>String</Type>
      </Item>
      <Item ID="1">
        <Name>ConnectedDevices</Name>
        <Operations>RW</Operations>
        <MultipleInstances>Multiple</MultipleInstances>
        <Mandatory>Optional</Mandatory>
        <Type>Integer</Type>
      </Item>
    </Resources>
  </Object>
</LWM2M>`

func TestLoadLwm2mDefinitions(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "25.xml"), []byte(sampleObjectXML), 0o644))

	defs, err := LoadLwm2mDefinitions(dir)
	require.NoError(t, err)
	require.Len(t, defs, 1)

	obj := defs[0]
	assert.Equal(t, uint16(25), obj.ID)
	assert.Equal(t, "Gateway", obj.Name)
	assert.False(t, obj.Multiplicity.Multi)
	require.Len(t, obj.Resources, 2)

	id0 := obj.FindResource(0)
	require.NotNil(t, id0)
	assert.Equal(t, TypeString, id0.Type)
	assert.True(t, id0.Capabilities.Has(CapRead))
	assert.False(t, id0.Capabilities.Has(CapWrite))

	id1 := obj.FindResource(1)
	require.NotNil(t, id1)
	assert.True(t, id1.Multiplicity.Multi)
	assert.True(t, id1.Capabilities.Has(CapWrite))
}

func TestLoadLwm2mDefinitionsSkipsMalformed(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.xml"), []byte("not xml"), 0o644))
	defs, err := LoadLwm2mDefinitions(dir)
	require.NoError(t, err)
	assert.Empty(t, defs)
}
