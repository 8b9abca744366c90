package filetransfer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memBlobs struct{ data map[string][]byte }

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
func (m *memBlobs) Delete(key string) error { delete(m.data, key); return nil }

func TestCheckTransferPossibleUnderMax(t *testing.T) {
	eng, err := New(newMemBlobs())
	require.NoError(t, err)
	assert.True(t, eng.CheckTransferPossible(2, 4))
	assert.Equal(t, StateIdle, eng.ws.State) // untouched, no rejection recorded
}

func TestCheckTransferPossibleAtMax(t *testing.T) {
	eng, err := New(newMemBlobs())
	require.NoError(t, err)
	ok := eng.CheckTransferPossible(4, 4)
	assert.False(t, ok)
	assert.Equal(t, StateIdle, eng.ws.State)
	assert.Equal(t, ResultFailure, eng.ws.Result)
	assert.Equal(t, ErrMaxStoredFilesReached, eng.ws.FailureReason)
}

func TestBeginThenFinishSuccess(t *testing.T) {
	eng, err := New(newMemBlobs())
	require.NoError(t, err)
	status := eng.Begin(DirectionUpload, "firmware.bin")
	assert.Equal(t, int(0), int(status))
	assert.Equal(t, StateInProgress, eng.ws.State)

	eng.Finish(true, "")
	assert.Equal(t, StateIdle, eng.ws.State)
	assert.Equal(t, ResultSuccess, eng.ws.Result)
}

func TestFinishFailureTruncatesReason(t *testing.T) {
	eng, err := New(newMemBlobs())
	require.NoError(t, err)
	eng.Begin(DirectionDownload, "big.bin")

	long := make([]byte, 200)
	for i := range long {
		long[i] = 'x'
	}
	eng.Finish(false, string(long))
	assert.Equal(t, ResultFailure, eng.ws.Result)
	assert.Len(t, eng.ws.FailureReason, maxFailureReasonLen)
}

func TestWorkspaceRoundTrip(t *testing.T) {
	blobs := newMemBlobs()
	eng, err := New(blobs)
	require.NoError(t, err)
	eng.Begin(DirectionUpload, "a.bin")

	reloaded, err := New(blobs)
	require.NoError(t, err)
	assert.Equal(t, StateInProgress, reloaded.ws.State)
	assert.Equal(t, "a.bin", reloaded.ws.Name)
}
