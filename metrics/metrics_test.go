package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/m2mdev/lwm2mcore/session"
)

func TestObserverTracksDownloadProgress(t *testing.T) {
	bus := session.NewBus()
	obs := NewObserver(bus)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go obs.Run(ctx)

	bus.Publish(session.Event{Kind: session.EventDownloadProgress, Download: &session.DownloadEvent{Downloaded: 50, Total: 200}})
	require.Eventually(t, func() bool {
		return testutil.ToFloat64(downloadProgressRatio) == 0.25
	}, time.Second, time.Millisecond)
}

func TestObserverTracksSessionState(t *testing.T) {
	bus := session.NewBus()
	obs := NewObserver(bus)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go obs.Run(ctx)

	bus.Publish(session.Event{Kind: session.EventSessionStarted, Session: &session.SessionEvent{State: session.StateRegistering}})
	require.Eventually(t, func() bool {
		return testutil.ToFloat64(sessionState) == float64(session.StateRegistering)
	}, time.Second, time.Millisecond)

	bus.Publish(session.Event{Kind: session.EventSessionFailed, Session: &session.SessionEvent{State: session.StateIdle}})
	require.Eventually(t, func() bool {
		return testutil.ToFloat64(sessionState) == float64(session.StateIdle)
	}, time.Second, time.Millisecond)
}
