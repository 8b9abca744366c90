// Package session drives the bootstrap -> DM registration -> lifetime
// update -> deregistration state machine, reconciles staged bootstrap
// credentials into the credential store, and reports every transition
// on the event bus.
//
// OMA-TS-LightweightM2M-V1_0_2-20180209-A 5.2 Bootstrap Interface, 5.3
// Client Registration Interface.
package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	piondtls "github.com/pion/dtls/v2"
	"github.com/sirupsen/logrus"

	"github.com/m2mdev/lwm2mcore/credential"
	"github.com/m2mdev/lwm2mcore/dispatch"
	"github.com/m2mdev/lwm2mcore/registry"
	"github.com/m2mdev/lwm2mcore/transport"
)

// State is the session manager's current phase.
type State int

// Session states.
const (
	StateIdle State = iota
	StateBootstrapping
	StateBootstrappedStaged
	StateRegistering
	StateRegistered
	StateUpdating
	StateDeregistering
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateBootstrapping:
		return "bootstrapping"
	case StateBootstrappedStaged:
		return "bootstrapped-staged"
	case StateRegistering:
		return "registering"
	case StateRegistered:
		return "registered"
	case StateUpdating:
		return "updating"
	case StateDeregistering:
		return "deregistering"
	default:
		return "unknown"
	}
}

const (
	// DefaultLifetime is used when object 1's Lifetime resource cannot
	// be read.
	DefaultLifetime = 86400

	lwm2mVersion     = "1.0"
	lwm2mBindingMode = "U"
)

// Manager is the session state machine. It owns the single transport
// connection, the registration location, the lifetime timer, and the
// bootstrap staging area; every mutation happens on the caller's
// goroutine — the Manager itself does not spawn goroutines beyond the
// lifetime timer.
type Manager struct {
	Registry   *registry.Registry
	Dispatcher *dispatch.Dispatcher
	Store      *credential.Store
	Staging    *credential.Staging
	Transport  transport.Facade
	Bus        *Bus

	EndpointClientName string
	DMServerID         uint16

	state    State
	location string

	lifetimeTimer *time.Timer
	stopTimer     chan struct{}
}

// New creates a Manager in StateIdle.
func New(reg *registry.Registry, disp *dispatch.Dispatcher, store *credential.Store, tr transport.Facade, bus *Bus, endpointClientName string, dmServerID uint16) *Manager {
	return &Manager{
		Registry:           reg,
		Dispatcher:         disp,
		Store:              store,
		Staging:            credential.NewStaging(),
		Transport:          tr,
		Bus:                bus,
		EndpointClientName: endpointClientName,
		DMServerID:         dmServerID,
		state:              StateIdle,
	}
}

// State returns the manager's current phase.
func (m *Manager) State() State { return m.state }

func (m *Manager) setState(s State) {
	m.state = s
	m.publish(Event{Kind: EventSessionStarted, Session: &SessionEvent{State: s}})
}

func (m *Manager) publish(ev Event) {
	if m.Bus != nil {
		m.Bus.Publish(ev)
	}
}

// fail returns the manager to StateIdle and emits a failure event: a
// failure at any state returns to Idle.
func (m *Manager) fail(reason string) error {
	m.stopLifetimeTimer()
	m.state = StateIdle
	m.publish(Event{Kind: EventSessionFailed, Session: &SessionEvent{State: StateIdle, Message: reason}})
	return errors.New(reason)
}

func (m *Manager) dmAddress() (string, error) {
	addr, err := m.Store.Get(credential.KindDMAddress, m.DMServerID)
	if err != nil {
		return "", err
	}
	return string(addr), nil
}

func (m *Manager) dmPSKConfig() (*piondtls.Config, error) {
	identity, err := m.Store.Get(credential.KindDMPublicKey, m.DMServerID)
	if err != nil {
		return nil, err
	}
	key, err := m.Store.Get(credential.KindDMSecretKey, m.DMServerID)
	if err != nil {
		return nil, err
	}
	return &piondtls.Config{
		PSK: func(hint []byte) ([]byte, error) { return key, nil },
		PSKIdentityHint: identity,
	}, nil
}

// instanceIDList builds the CoRE Link Format instance catalogue for
// registration, excluding object 0 (Security) per OMA-TS-
// LightweightM2M-V1_0_2-20180209-A 5.3.1 ("The Security Object ID:0 MUST
// NOT be part of the Registration Objects and Object Instances list").
func (m *Manager) instanceIDList() []string {
	var paths []string
	for _, objectID := range m.Registry.ObjectIDs() {
		if objectID == registry.ObjectSecurity {
			continue
		}
		for _, instanceID := range m.Registry.InstanceIDs(objectID) {
			paths = append(paths, fmt.Sprintf("/%d/%d", objectID, instanceID))
		}
	}
	return paths
}

func (m *Manager) registerLinkFormat() []byte {
	return []byte("</>;rt=\"oma.lwm2m\";ct=11543,<" + strings.Join(m.instanceIDList(), ">,<") + ">")
}

// lifetime reads the cached DM Server instance's Lifetime resource via
// the Reader bound on the dispatcher for object 1, falling back to
// DefaultLifetime if it cannot be read (no Server handler or instance
// yet, or the resource returned something other than completed-ok).
func (m *Manager) lifetime(ctx context.Context) int {
	reader, ok := m.Dispatcher.Handlers[registry.ObjectServer].(dispatch.Reader)
	if !ok || !reader.InstanceExists(0) {
		return DefaultLifetime
	}
	v, status := reader.ReadResource(ctx, 0, registry.ResServerLifetime)
	if status != dispatch.StatusOK {
		return DefaultLifetime
	}
	n, convErr := strconv.Atoi(v)
	if convErr != nil || n <= 0 {
		return DefaultLifetime
	}
	return n
}

func (m *Manager) stopLifetimeTimer() {
	if m.lifetimeTimer != nil {
		m.lifetimeTimer.Stop()
		m.lifetimeTimer = nil
	}
}

var log = logrus.WithField("component", "session")
