package session

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/m2mdev/lwm2mcore/dispatch"
	"github.com/m2mdev/lwm2mcore/transport"
)

// RegisterTimeout bounds the wait for a registration reply.
const RegisterTimeout = 30 * time.Second

// Register connects to the DM server with the PSK credentials the
// bootstrap phase staged, POSTs the CoRE Link Format catalogue to
// "/rd", caches the server-assigned location, and arms the lifetime
// timer at lifetime * 0.9.
//
// OMA-TS-LightweightM2M-V1_0_2-20180209-A 5.3.1 Register.
func (m *Manager) Register(ctx context.Context) error {
	m.setState(StateRegistering)

	addr, err := m.dmAddress()
	if err != nil {
		return m.fail("no DM server address: " + err.Error())
	}
	config, err := m.dmPSKConfig()
	if err != nil {
		return m.fail("no DM credentials: " + err.Error())
	}

	var locationCh = make(chan string, 1)
	recv := func(msg transport.Message) {
		if msg.Location != "" {
			select {
			case locationCh <- msg.Location:
			default:
			}
		}
	}
	if err := m.Transport.Connect(ctx, addr, config, recv); err != nil {
		return m.fail("register connect failed: " + err.Error())
	}

	lifetime := m.lifetime(ctx)
	resp, err := m.Transport.Send(ctx, transport.Request{
		Method:        transport.MethodPost,
		Path:          "rd",
		ContentFormat: 40, // application/link-format
		Query: []string{
			"lwm2m=" + lwm2mVersion,
			"ep=" + m.EndpointClientName,
			"b=" + lwm2mBindingMode,
			"lt=" + strconv.Itoa(lifetime),
		},
		Payload: m.registerLinkFormat(),
	})
	if err != nil {
		return m.fail("register request failed: " + err.Error())
	}
	if resp.Location != "" {
		m.location = resp.Location
	} else {
		select {
		case m.location = <-locationCh:
		case <-time.After(RegisterTimeout):
			return m.fail("register timed out waiting for location")
		}
	}

	m.setState(StateRegistered)
	m.armLifetimeTimer(lifetime)
	m.publish(Event{Kind: EventSessionFinished, Session: &SessionEvent{State: StateRegistered}})
	log.WithField("location", m.location).Info("registered")
	return nil
}

// Update sends a lifetime/registration-update POST to the cached
// location. It is invoked by the armed lifetime timer and by an
// EXECUTE on object 1 resource 8 (Registration Update Trigger).
func (m *Manager) Update(ctx context.Context) error {
	if m.location == "" {
		return m.Register(ctx)
	}
	m.setState(StateUpdating)

	_, err := m.Transport.Send(ctx, transport.Request{
		Method: transport.MethodPost,
		Path:   m.location,
	})
	if err != nil {
		return m.fail("update request failed: " + err.Error())
	}

	m.setState(StateRegistered)
	m.armLifetimeTimer(m.lifetime(ctx))
	log.Info("registration updated")
	return nil
}

// Deregister sends a DELETE to the cached location and returns the
// manager to StateIdle.
func (m *Manager) Deregister(ctx context.Context) error {
	if m.location == "" {
		return errors.New("session: not registered")
	}
	m.state = StateDeregistering
	m.stopLifetimeTimer()

	_, err := m.Transport.Send(ctx, transport.Request{
		Method: transport.MethodDelete,
		Path:   m.location,
	})
	_ = m.Transport.Close()
	m.location = ""
	m.state = StateIdle
	m.publish(Event{Kind: EventSessionInactive, Session: &SessionEvent{State: StateIdle}})
	if err != nil {
		return err
	}
	log.Info("deregistered")
	return nil
}

// armLifetimeTimer schedules the next Update call at lifetime * 0.9
// seconds, replacing any previously armed timer.
func (m *Manager) armLifetimeTimer(lifetimeSeconds int) {
	m.stopLifetimeTimer()
	d := time.Duration(float64(lifetimeSeconds)*0.9) * time.Second
	m.lifetimeTimer = time.AfterFunc(d, func() {
		_ = m.Update(context.Background())
	})
}

// RegistrationUpdateTrigger implements the EXECUTE handler for object 1
// resource 8: it forces an immediate Update over the same path the
// lifetime timer uses.
func (m *Manager) RegistrationUpdateTrigger(ctx context.Context) dispatch.Status {
	if err := m.Update(ctx); err != nil {
		return dispatch.StatusGeneral
	}
	return dispatch.StatusOK
}
