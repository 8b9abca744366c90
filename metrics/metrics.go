// Package metrics exposes the client's session and package-download
// state as Prometheus gauges/counters, using promauto-registered
// collectors behind a small Observe-style API. It is a consumer of the
// session event bus, not a replacement for it: every event still reaches
// any other subscriber unchanged.
package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/m2mdev/lwm2mcore/session"
)

// Update-state values fed into lwm2mcoreUpdateState, mirroring the
// firmware/software update lifecycle at a coarse grain (the workspace
// itself, not this gauge, is the source of truth for the precise FW/SW
// state enums).
const (
	updateStateIdle    = 0
	updateStateRunning = 1
	updateStateFailed  = 2
)

var (
	sessionState = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "lwm2mcore_session_state",
		Help: "Current session.State as an integer (0=Idle .. 6=Deregistering).",
	})
	updateState = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "lwm2mcore_update_state",
		Help: "Coarse firmware/software update activity: 0=idle, 1=running, 2=failed.",
	})
	downloadBytesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lwm2mcore_package_download_bytes_total",
		Help: "Cumulative bytes received across all package downloads.",
	})
	downloadProgressRatio = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "lwm2mcore_package_download_progress_ratio",
		Help: "Fraction (0..1) of the in-flight package download completed.",
	})
)

// Observer drains a session.Bus subscription and feeds the package
// gauges/counters above. It never blocks the publisher: the bus itself
// already drops events for a full subscriber channel, and Observer's
// Run loop keeps draining as fast as the consumer goroutine is
// scheduled.
type Observer struct {
	events         <-chan session.Event
	lastDownloaded int64
}

// NewObserver subscribes to bus with a modest buffer and returns an
// Observer ready for Run.
func NewObserver(bus *session.Bus) *Observer {
	return &Observer{events: bus.Subscribe(32)}
}

// Run drains events until ctx is cancelled.
func (o *Observer) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-o.events:
			o.observe(ev)
		}
	}
}

func (o *Observer) observe(ev session.Event) {
	switch ev.Kind {
	case session.EventSessionStarted:
		if ev.Session != nil {
			sessionState.Set(float64(ev.Session.State))
		}
	case session.EventSessionFailed, session.EventSessionInactive:
		sessionState.Set(float64(session.StateIdle))
	case session.EventUpdateStarted:
		updateState.Set(updateStateRunning)
	case session.EventUpdateFinished:
		updateState.Set(updateStateIdle)
	case session.EventUpdateFailed:
		updateState.Set(updateStateFailed)
	case session.EventDownloadProgress:
		o.observeDownload(ev.Download)
	case session.EventPackageDownloadFinished:
		downloadProgressRatio.Set(1)
		o.lastDownloaded = 0
	case session.EventPackageDownloadFailed:
		o.lastDownloaded = 0
	}
}

func (o *Observer) observeDownload(dl *session.DownloadEvent) {
	if dl == nil {
		return
	}
	if delta := dl.Downloaded - o.lastDownloaded; delta > 0 {
		downloadBytesTotal.Add(float64(delta))
	}
	o.lastDownloaded = dl.Downloaded
	if dl.Total > 0 {
		downloadProgressRatio.Set(float64(dl.Downloaded) / float64(dl.Total))
	}
}
