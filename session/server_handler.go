package session

import (
	"context"
	"strconv"

	"github.com/m2mdev/lwm2mcore/dispatch"
	"github.com/m2mdev/lwm2mcore/registry"
)

// ServerHandler adapts a Manager to dispatch.Handler for object 1
// (Server): ShortServerID, Lifetime, Binding and the Registration
// Update Trigger EXECUTE. Only instance 0 exists; this client tracks a
// single DM server.
type ServerHandler struct {
	Manager  *Manager
	lifetime int
	binding  string
}

// NewServerHandler creates a ServerHandler bound to m, defaulting
// Lifetime/Binding to the registration path's own defaults
// (DefaultLifetime, "U" for UDP queue-mode-less binding).
func NewServerHandler(m *Manager) *ServerHandler {
	return &ServerHandler{Manager: m, lifetime: DefaultLifetime, binding: lwm2mBindingMode}
}

func (h *ServerHandler) InstanceExists(instanceID uint16) bool { return instanceID == 0 }

func (h *ServerHandler) ReadResource(ctx context.Context, instanceID, resourceID uint16) (string, dispatch.Status) {
	switch resourceID {
	case registry.ResServerShortServerID:
		return strconv.Itoa(int(h.Manager.DMServerID)), dispatch.StatusOK
	case registry.ResServerLifetime:
		return strconv.Itoa(h.lifetime), dispatch.StatusOK
	case registry.ResServerBinding:
		return h.binding, dispatch.StatusOK
	default:
		return "", dispatch.StatusNotYetImplemented
	}
}

// WriteResource handles a Lifetime write by rearming the lifetime timer
// at the new value * 0.9 whenever the manager is currently registered.
func (h *ServerHandler) WriteResource(ctx context.Context, instanceID, resourceID uint16, value string, raw []byte) dispatch.Status {
	switch resourceID {
	case registry.ResServerLifetime:
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return dispatch.StatusInvalidArg
		}
		h.lifetime = n
		if h.Manager.location != "" {
			h.Manager.armLifetimeTimer(n)
		}
		return dispatch.StatusOK
	case registry.ResServerBinding:
		h.binding = value
		return dispatch.StatusOK
	default:
		return dispatch.StatusNotYetImplemented
	}
}

func (h *ServerHandler) ExecuteResource(ctx context.Context, instanceID, resourceID uint16, args []byte) dispatch.Status {
	switch resourceID {
	case registry.ResServerUpdateTrigger:
		return h.Manager.RegistrationUpdateTrigger(ctx)
	default:
		return dispatch.StatusNotYetImplemented
	}
}

func (h *ServerHandler) CreateInstance(ctx context.Context, instanceID uint16) dispatch.Status {
	return dispatch.StatusOK
}

func (h *ServerHandler) DeleteInstance(ctx context.Context, instanceID uint16) dispatch.Status {
	return dispatch.StatusOK
}
