package credential

import (
	"context"
	"errors"
	"strconv"

	"github.com/m2mdev/lwm2mcore/dispatch"
	"github.com/m2mdev/lwm2mcore/registry"
)

// SecurityHandler adapts Store to dispatch.Handler for object 0
// (Security) outside a bootstrap session. Credentials are never exposed
// by the READ path of object 0, so registry/builtin.go's security
// descriptor already omits READ capability on
// PublicKeyOrIdentity/SecretKey, and ReadResource below is never called
// for them — the dispatcher's capability-mask step (step 3) rejects
// those requests before a handler is invoked.
//
// cmd/lwm2mcored binds this on object 0; session.Manager saves it as
// the "prior" handler and temporarily swaps in its own staging-aware
// handler only for the duration of a Bootstrap call
// (session/bootstrap.go), restoring this one once Bootstrap returns.
type SecurityHandler struct {
	Store    *Store
	Registry *registry.Registry
	ServerID uint16
}

func (h SecurityHandler) InstanceExists(instanceID uint16) bool {
	return h.Registry.Instance(registry.ObjectSecurity, instanceID) != nil
}

func (h SecurityHandler) ReadResource(ctx context.Context, instanceID, resourceID uint16) (string, dispatch.Status) {
	switch resourceID {
	case registry.ResSecurityURI:
		v, err := h.Store.Get(KindDMAddress, h.ServerID)
		if err != nil {
			return "", dispatch.StatusNotYetImplemented
		}
		return string(v), dispatch.StatusOK
	case registry.ResSecurityShortServerID:
		return strconv.Itoa(int(h.ServerID)), dispatch.StatusOK
	default:
		return "", dispatch.StatusNotYetImplemented
	}
}

// WriteResource re-provisions a server's security material after
// bootstrap (e.g. a DM-initiated key rotation); it writes straight to
// the persistent Store since this handler is only ever bound outside a
// bootstrap session.
func (h SecurityHandler) WriteResource(ctx context.Context, instanceID, resourceID uint16, value string, raw []byte) dispatch.Status {
	kind, ok := securityKindFor(resourceID)
	if !ok {
		return dispatch.StatusOK
	}
	if err := h.Store.Set(kind, h.ServerID, raw); err != nil {
		if errors.Is(err, ErrOverflow) {
			return dispatch.StatusOverflow
		}
		return dispatch.StatusGeneral
	}
	return dispatch.StatusOK
}

func (h SecurityHandler) CreateInstance(ctx context.Context, instanceID uint16) dispatch.Status {
	return dispatch.StatusOK
}

func (h SecurityHandler) DeleteInstance(ctx context.Context, instanceID uint16) dispatch.Status {
	return dispatch.StatusOK
}

// securityKindFor maps a Security-object resource id onto the Store
// Kind it writes, mirroring session's securityResourceToKind mapping
// for the staging path.
func securityKindFor(resourceID uint16) (Kind, bool) {
	switch resourceID {
	case registry.ResSecurityURI:
		return KindDMAddress, true
	case registry.ResSecurityIdentity:
		return KindDMPublicKey, true
	case registry.ResSecuritySecretKey:
		return KindDMSecretKey, true
	default:
		return 0, false
	}
}
