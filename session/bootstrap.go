package session

import (
	"context"
	"time"

	piondtls "github.com/pion/dtls/v2"

	"github.com/m2mdev/lwm2mcore/credential"
	"github.com/m2mdev/lwm2mcore/dispatch"
	"github.com/m2mdev/lwm2mcore/registry"
	"github.com/m2mdev/lwm2mcore/transport"
)

// BootstrapTimeout bounds the wait for Bootstrap-Finish.
const BootstrapTimeout = 60 * time.Second

// stagingHandler adapts credential.Staging into a dispatch.Writer over
// object 0 (Security), so bootstrap WRITEs land in the staging area
// instead of the main credential store. It is bound to object 0 only
// for the lifetime of a Bootstrap call, since DM credential resources
// written during a bootstrap session must not touch the main store
// until the server sends Bootstrap-Finish.
type stagingHandler struct {
	staging *credential.Staging
}

func (h *stagingHandler) InstanceExists(instanceID uint16) bool { return true }

func (h *stagingHandler) WriteResource(ctx context.Context, instanceID, resourceID uint16, value string, raw []byte) dispatch.Status {
	kind, ok := securityResourceToKind(resourceID)
	if !ok {
		// Resources with no staging-kind mapping (e.g. ShortServerID)
		// are accepted but not staged; they play no part in the commit.
		return dispatch.StatusOK
	}
	if err := h.staging.Set(kind, raw); err != nil {
		return dispatch.StatusInvalidArg
	}
	return dispatch.StatusOK
}

func (h *stagingHandler) CreateInstance(ctx context.Context, instanceID uint16) dispatch.Status {
	return dispatch.StatusOK
}

func (h *stagingHandler) DeleteInstance(ctx context.Context, instanceID uint16) dispatch.Status {
	return dispatch.StatusOK
}

// securityResourceToKind maps a Security-object resource id onto the
// staging Kind it populates. Every mapped resource maps onto a DM
// Kind: the instance id of the write is not consulted, so a write to
// the bootstrap-server instance of object 0 is staged into the same DM
// slots, and no BS Kind is ever staged through this handler.
func securityResourceToKind(resourceID uint16) (credential.Kind, bool) {
	switch resourceID {
	case registry.ResSecurityURI:
		return credential.KindDMAddress, true
	case registry.ResSecurityIdentity:
		return credential.KindDMPublicKey, true
	case registry.ResSecuritySecretKey:
		return credential.KindDMSecretKey, true
	default:
		return 0, false
	}
}

// Bootstrap runs the bootstrap sub-protocol: send Bootstrap-Request to
// bsHost under PSK config, bind a staging-aware handler to object 0,
// process inbound WRITEs until Bootstrap-Finish, then commit the
// staging area. On a complete commit the manager is left in
// StateBootstrappedStaged; if Bootstrap-Finish arrives with an
// incomplete DM credential set, Bootstrap returns nil and the manager
// stays in StateBootstrapping. On any failure it returns to StateIdle.
func (m *Manager) Bootstrap(ctx context.Context, bsHost string, config *piondtls.Config) error {
	m.setState(StateBootstrapping)
	m.publish(Event{Kind: EventSessionTypeStart, Session: &SessionEvent{State: StateBootstrapping, Type: SessionTypeBootstrap}})

	staging := &stagingHandler{staging: m.Staging}
	prior := m.Dispatcher.Handlers[registry.ObjectSecurity]
	m.Dispatcher.Bind(registry.ObjectSecurity, staging)
	defer m.Dispatcher.Bind(registry.ObjectSecurity, prior)

	finished := make(chan struct{})
	recv := func(msg transport.Message) {
		if msg.Path == "/bs" {
			close(finished)
		}
	}

	if err := m.Transport.Connect(ctx, bsHost, config, recv); err != nil {
		return m.fail("bootstrap connect failed: " + err.Error())
	}
	defer m.Transport.Close()

	log.Info("starting bootstrap request")
	_, err := m.Transport.Send(ctx, transport.Request{
		Method: transport.MethodPost,
		Path:   "bs",
		Query:  []string{"ep=" + m.EndpointClientName},
	})
	if err != nil {
		return m.fail("bootstrap request failed: " + err.Error())
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, BootstrapTimeout)
	defer cancel()
	select {
	case <-timeoutCtx.Done():
		return m.fail("bootstrap timed out")
	case <-finished:
	}

	if err := m.Staging.Commit(m.Store, credential.BootstrapServerID, m.DMServerID); err != nil {
		// An incomplete DM slot set is not a failure: the spec allows
		// further bootstrap writes to complete it in a later session.
		log.WithError(err).Warn("bootstrap finished with an incomplete DM credential set")
		return nil
	}

	m.setState(StateBootstrappedStaged)
	log.Info("bootstrap committed, DM credentials provisioned")
	return nil
}
