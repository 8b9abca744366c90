package filetransfer

import (
	"context"
	"strconv"

	"github.com/m2mdev/lwm2mcore/dispatch"
	"github.com/m2mdev/lwm2mcore/registry"
	"github.com/m2mdev/lwm2mcore/storage"
)

// Engine is the file-transfer workspace plus the registry count check
// for object 33406.
type Engine struct {
	blobs storage.Blobs
	ws    *Workspace
}

// New loads the persisted workspace.
func New(blobs storage.Blobs) (*Engine, error) {
	ws, err := LoadWorkspace(blobs)
	if err != nil {
		return nil, err
	}
	return &Engine{blobs: blobs, ws: ws}, nil
}

// CheckTransferPossible reports whether a new transfer may start: when
// count (the registry's live count of object-33406 instances) has
// reached max, the workspace is set to idle/failure with the fixed
// reason string and false is returned.
func (e *Engine) CheckTransferPossible(count, max int) bool {
	if count < max {
		return true
	}
	e.ws.State = StateIdle
	e.ws.Result = ResultFailure
	e.ws.FailureReason = ErrMaxStoredFilesReached
	_ = e.ws.Save(e.blobs)
	return false
}

// Begin starts a transfer in the given direction, provided
// CheckTransferPossible has not already rejected it.
func (e *Engine) Begin(direction Direction, name string) dispatch.Status {
	e.ws.State = StateInProgress
	e.ws.Direction = direction
	e.ws.Name = name
	e.ws.Result = ResultDefault
	e.ws.FailureReason = ""
	if err := e.ws.Save(e.blobs); err != nil {
		return dispatch.StatusGeneral
	}
	return dispatch.StatusOK
}

// Finish completes the in-progress transfer, recording success or a
// truncated failure reason.
func (e *Engine) Finish(ok bool, reason string) {
	e.ws.State = StateIdle
	if ok {
		e.ws.Result = ResultSuccess
		e.ws.FailureReason = ""
	} else {
		e.ws.Result = ResultFailure
		e.ws.FailureReason = truncateFailureReason(reason)
	}
	_ = e.ws.Save(e.blobs)
}

// Handler adapts Engine to dispatch.Handler for object 33406.
type Handler struct {
	Engine   *Engine
	Registry *registry.Registry
}

func (h Handler) InstanceExists(instanceID uint16) bool {
	return h.Registry.Instance(registry.ObjectFileTransfer, instanceID) != nil
}

func (h Handler) ReadResource(ctx context.Context, instanceID, resourceID uint16) (string, dispatch.Status) {
	switch resourceID {
	case registry.ResFileState:
		return strconv.Itoa(int(h.Engine.ws.State)), dispatch.StatusOK
	case registry.ResFileResult:
		return strconv.Itoa(int(h.Engine.ws.Result)), dispatch.StatusOK
	case registry.ResFileDirection:
		return strconv.Itoa(int(h.Engine.ws.Direction)), dispatch.StatusOK
	case registry.ResFileFailureReason:
		return h.Engine.ws.FailureReason, dispatch.StatusOK
	case registry.ResFileName:
		return h.Engine.ws.Name, dispatch.StatusOK
	default:
		return "", dispatch.StatusNotYetImplemented
	}
}

func (h Handler) WriteResource(ctx context.Context, instanceID, resourceID uint16, value string, raw []byte) dispatch.Status {
	switch resourceID {
	case registry.ResFileDirection:
		n, err := strconv.Atoi(value)
		if err != nil {
			return dispatch.StatusInvalidArg
		}
		if !h.Engine.CheckTransferPossible(h.Registry.InstanceCount(registry.ObjectFileTransfer), registry.MaxFileTransferInstances) {
			return dispatch.StatusInvalidState
		}
		return h.Engine.Begin(Direction(n), h.Engine.ws.Name)
	case registry.ResFileName:
		h.Engine.ws.Name = value
		if err := h.Engine.ws.Save(h.Engine.blobs); err != nil {
			return dispatch.StatusGeneral
		}
		return dispatch.StatusOK
	default:
		return dispatch.StatusNotYetImplemented
	}
}

func (h Handler) CreateInstance(ctx context.Context, instanceID uint16) dispatch.Status {
	return dispatch.StatusOK
}

func (h Handler) DeleteInstance(ctx context.Context, instanceID uint16) dispatch.Status {
	return dispatch.StatusOK
}
