// Package filetransfer implements the object-33406 file-transfer
// engine: its persisted workspace (state/result/direction/failure-
// reason), the same write discipline as the update engine, and a
// storage-exhaustion check against the configured instance bound.
package filetransfer

import (
	"bytes"
	"encoding/gob"
	"errors"

	"github.com/m2mdev/lwm2mcore/storage"
)

const workspaceVersion = 1
const workspaceKey = "file_transfer_workspace"

// State is object 33406 resource 0's value.
type State int

// File-transfer states.
const (
	StateIdle State = iota
	StateInProgress
)

// Result is object 33406 resource 1's value.
type Result int

// File-transfer results.
const (
	ResultDefault Result = iota
	ResultSuccess
	ResultFailure
)

// Direction is object 33406 resource 2's value.
type Direction int

// Transfer directions.
const (
	DirectionDownload Direction = iota
	DirectionUpload
)

// maxFailureReasonLen bounds the failure-reason string.
const maxFailureReasonLen = 128

// ErrMaxStoredFilesReached is the exact failure-reason string reported
// when MaxFileTransferInstances is reached.
const ErrMaxStoredFilesReached = "Maximum number of stored files was reached"

// Workspace is the persisted, versioned file-transfer state, mirroring
// update.Workspace's envelope discipline exactly.
type Workspace struct {
	State         State
	Result        Result
	Direction     Direction
	FailureReason string
	Name          string
}

type envelope struct {
	Version int
	Data    []byte
}

// LoadWorkspace reads the persisted workspace, or a fresh zero-value one
// if none exists yet or its version does not match (deleted and
// reinitialized from defaults).
func LoadWorkspace(blobs storage.Blobs) (*Workspace, error) {
	raw, found, err := blobs.Get(workspaceKey)
	if err != nil {
		if errors.Is(err, storage.ErrVersionMismatch) {
			_ = blobs.Delete(workspaceKey)
			return &Workspace{}, nil
		}
		return nil, err
	}
	if !found {
		return &Workspace{}, nil
	}
	var env envelope
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&env); err != nil {
		_ = blobs.Delete(workspaceKey)
		return &Workspace{}, nil
	}
	if env.Version != workspaceVersion {
		_ = blobs.Delete(workspaceKey)
		return &Workspace{}, nil
	}
	var ws Workspace
	if err := gob.NewDecoder(bytes.NewReader(env.Data)).Decode(&ws); err != nil {
		_ = blobs.Delete(workspaceKey)
		return &Workspace{}, nil
	}
	return &ws, nil
}

// Save persists ws.
func (ws *Workspace) Save(blobs storage.Blobs) error {
	var data bytes.Buffer
	if err := gob.NewEncoder(&data).Encode(ws); err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(envelope{Version: workspaceVersion, Data: data.Bytes()}); err != nil {
		return err
	}
	return blobs.Put(workspaceKey, buf.Bytes())
}

func truncateFailureReason(s string) string {
	if len(s) <= maxFailureReasonLen {
		return s
	}
	return s[:maxFailureReasonLen]
}
