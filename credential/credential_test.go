package credential

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memBlobs is a minimal in-memory storage.Blobs for testing, standing in
// for storage/badgerstore without pulling in an on-disk database.
type memBlobs struct {
	data map[string][]byte
}

func newMemBlobs() *memBlobs { return &memBlobs{data: make(map[string][]byte)} }

func (m *memBlobs) Get(key string) ([]byte, bool, error) {
	v, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	return v, true, nil
}

func (m *memBlobs) Put(key string, value []byte) error {
	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *memBlobs) Delete(key string) error {
	delete(m.data, key)
	return nil
}

func TestStoreSetGetRoundTrip(t *testing.T) {
	s := NewStore(newMemBlobs())
	require.NoError(t, s.Set(KindDMAddress, 1, []byte("coaps://dm.example.net:5684")))
	v, err := s.Get(KindDMAddress, 1)
	require.NoError(t, err)
	assert.Equal(t, "coaps://dm.example.net:5684", string(v))
}

func TestStoreGetNotProvisioned(t *testing.T) {
	s := NewStore(newMemBlobs())
	_, err := s.Get(KindDMSecretKey, 1)
	assert.ErrorIs(t, err, ErrNotProvisioned)
}

func TestStoreSetOverflow(t *testing.T) {
	s := NewStore(newMemBlobs())
	oversized := make([]byte, 17)
	err := s.Set(KindDMSecretKey, 1, oversized)
	assert.ErrorIs(t, err, ErrOverflow)
}

func TestStoreMatch(t *testing.T) {
	s := NewStore(newMemBlobs())
	require.NoError(t, s.Set(KindDMPublicKey, 1, []byte("client-identity")))
	assert.True(t, s.Match(KindDMPublicKey, 1, []byte("client-identity")))
	assert.False(t, s.Match(KindDMPublicKey, 1, []byte("someone-else")))
}

func TestStoreDelete(t *testing.T) {
	s := NewStore(newMemBlobs())
	require.NoError(t, s.Set(KindDMAddress, 1, []byte("coaps://x")))
	require.NoError(t, s.Delete(KindDMAddress, 1))
	assert.False(t, s.CheckPresent(KindDMAddress, 1))
}

func TestCredentialStatusProgression(t *testing.T) {
	s := NewStore(newMemBlobs())
	assert.Equal(t, StatusNone, s.CredentialStatus(1))

	require.NoError(t, s.Set(KindBSAddress, BootstrapServerID, []byte("coaps://bs.example.net")))
	assert.Equal(t, StatusBootstrapOnly, s.CredentialStatus(1))

	require.NoError(t, s.Set(KindDMAddress, 1, []byte("coaps://dm.example.net")))
	require.NoError(t, s.Set(KindDMSecretKey, 1, []byte("0123456789abcdef")))
	require.NoError(t, s.Set(KindDMPublicKey, 1, []byte("client-identity")))
	assert.Equal(t, StatusDMProvisioned, s.CredentialStatus(1))
}

func TestStagingCommitIncomplete(t *testing.T) {
	st := NewStaging()
	require.NoError(t, st.Set(KindDMAddress, []byte("coaps://dm.example.net")))
	dst := NewStore(newMemBlobs())
	err := st.Commit(dst, BootstrapServerID, 1)
	assert.ErrorIs(t, err, ErrIncompleteStaging)
	assert.False(t, dst.CheckPresent(KindDMAddress, 1))
}

func TestStagingCommitCompleteThenReset(t *testing.T) {
	st := NewStaging()
	require.NoError(t, st.Set(KindBSAddress, []byte("coaps://bs.example.net")))
	require.NoError(t, st.Set(KindDMAddress, []byte("coaps://dm.example.net")))
	require.NoError(t, st.Set(KindDMSecretKey, []byte("0123456789abcdef")))
	require.NoError(t, st.Set(KindDMPublicKey, []byte("client-identity")))

	dst := NewStore(newMemBlobs())
	require.NoError(t, st.Commit(dst, BootstrapServerID, 1))

	assert.True(t, dst.CheckPresent(KindDMAddress, 1))
	assert.True(t, dst.CheckPresent(KindDMSecretKey, 1))
	assert.True(t, dst.CheckPresent(KindDMPublicKey, 1))
	assert.True(t, dst.CheckPresent(KindBSAddress, BootstrapServerID))

	// Commit wipes the staging area.
	assert.False(t, st.dmComplete())
}

func TestStagingSetOverflow(t *testing.T) {
	st := NewStaging()
	err := st.Set(KindDMSecretKey, make([]byte, 17))
	assert.ErrorIs(t, err, ErrOverflow)
}

func TestStagingReset(t *testing.T) {
	st := NewStaging()
	require.NoError(t, st.Set(KindBSAddress, []byte("coaps://bs.example.net")))
	st.Reset()
	assert.Empty(t, st.bsAddress)
}
