// Package update implements the firmware (object 5) and software
// (object 9) update engines: the persisted download workspace, the
// push/URI-pull entry points, the CRC32/SHA-1 integrity pipeline, and
// the firmware state machine.
//
// OMA-TS-LightweightM2M-V1_0_2-20180209-A Appendix E.5/E.6, Firmware
// Update and Software Management objects.
package update

import (
	"bytes"
	"encoding/gob"
	"errors"

	"github.com/m2mdev/lwm2mcore/storage"
)

// workspaceVersion is the leading version tag of the persisted
// Workspace envelope; LoadWorkspace compares it against the stored
// envelope and, on a stale one, reinitializes from defaults.
const workspaceVersion = 1

const workspaceKey = "pkgdwl_workspace"

// Type distinguishes which object a Workspace belongs to.
type Type int

// Update types.
const (
	TypeNone Type = iota
	TypeFirmware
	TypeSoftware
)

// Workspace is the persisted, versioned download/install state shared
// between the firmware and software engines, since both follow the same
// download-then-install shape and the same integrity pipeline.
type Workspace struct {
	UpdateType Type

	PackageURI       string
	PackageSize      int64
	DownloadedBytes  int64
	RemainingBytes   int64
	PackageName      string
	PackageVersion   string

	FWState  FirmwareState
	FWResult FirmwareResult

	SWState  SoftwareState
	SWResult SoftwareResult

	CRC32       uint32
	SHA1Context []byte // serialized hash.Hash, see integrity.go
}

// envelope is the on-disk shape: a version tag guarding the gob payload.
// The on-disk format itself is an internal detail; gob is the lightest
// choice consistent with the rest of the workspace code.
type envelope struct {
	Version int
	Data    []byte
}

func newWorkspace(t Type) *Workspace {
	return &Workspace{UpdateType: t}
}

// LoadWorkspace reads the persisted workspace for t, or returns a fresh
// zero-value Workspace if none exists yet or the stored envelope's
// version does not match (the blob is deleted and rebuilt from
// defaults).
func LoadWorkspace(blobs storage.Blobs, t Type) (*Workspace, error) {
	raw, found, err := blobs.Get(workspaceKey)
	if err != nil {
		if errors.Is(err, storage.ErrVersionMismatch) {
			_ = blobs.Delete(workspaceKey)
			return newWorkspace(t), nil
		}
		return nil, err
	}
	if !found {
		return newWorkspace(t), nil
	}
	var env envelope
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&env); err != nil {
		_ = blobs.Delete(workspaceKey)
		return newWorkspace(t), nil
	}
	if env.Version != workspaceVersion {
		_ = blobs.Delete(workspaceKey)
		return newWorkspace(t), nil
	}
	var ws Workspace
	if err := gob.NewDecoder(bytes.NewReader(env.Data)).Decode(&ws); err != nil {
		_ = blobs.Delete(workspaceKey)
		return newWorkspace(t), nil
	}
	return &ws, nil
}

// Save persists ws. Every mutation to the workspace in engine.go calls
// Save before the caller can next suspend, so a crash mid-transfer never
// loses more than the in-flight chunk.
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

// reset zeroes ws back to its just-created shape, keeping only
// UpdateType. SetPackageURI, cancel, a PushPackageChunk that starts a
// new update type and a successful LaunchUninstall call it; Launch does
// not, so the install result stays readable afterwards.
func (ws *Workspace) reset() {
	t := ws.UpdateType
	*ws = Workspace{UpdateType: t}
}
