// Package eventsink provides composable protocol.EventsManager adapters:
// a fan-out broadcaster and a Prometheus-instrumented wrapper. Neither
// replaces the primary events manager spec.md §9 says stays an injected
// collaborator — they sit in front of it.
package eventsink

import (
	"github.com/cwsl/radescan-driver/internal/metrics"
	"github.com/cwsl/radescan-driver/internal/protocol"
)

// Multi broadcasts every call to all of its members, in order. A nil
// member is skipped, so callers can build the slice unconditionally and
// leave optional sinks out.
type Multi struct {
	Sinks []protocol.EventsManager
}

func (m Multi) Connected() {
	for _, s := range m.Sinks {
		if s != nil {
			s.Connected()
		}
	}
}

func (m Multi) TrajectoriesDiscovered(tracks map[string]protocol.TrajectoryRecord) {
	for _, s := range m.Sinks {
		if s != nil {
			s.TrajectoriesDiscovered(tracks)
		}
	}
}

func (m Multi) CaptureTargetState(rec protocol.CaptureStatusRecord) {
	for _, s := range m.Sinks {
		if s != nil {
			s.CaptureTargetState(rec)
		}
	}
}

func (m Multi) ServerStateChanged(rec protocol.ServerStateRecord) {
	for _, s := range m.Sinks {
		if s != nil {
			s.ServerStateChanged(rec)
		}
	}
}

func (m Multi) ExtendedStateChanged(rec protocol.ExtendedStatusRecord) {
	for _, s := range m.Sinks {
		if s != nil {
			s.ExtendedStateChanged(rec)
		}
	}
}

// Instrumented wraps an EventsManager, incrementing
// radescan_events_emitted_total{event} before delegating every call.
type Instrumented struct {
	Inner protocol.EventsManager
	Reg   *metrics.Registry
}

func (i Instrumented) Connected() {
	i.Reg.EventsEmitted.WithLabelValues("connected").Inc()
	i.Inner.Connected()
}

func (i Instrumented) TrajectoriesDiscovered(tracks map[string]protocol.TrajectoryRecord) {
	i.Reg.EventsEmitted.WithLabelValues("trajectories_discovered").Inc()
	i.Inner.TrajectoriesDiscovered(tracks)
}

func (i Instrumented) CaptureTargetState(rec protocol.CaptureStatusRecord) {
	i.Reg.EventsEmitted.WithLabelValues("capture_target_state").Inc()
	i.Inner.CaptureTargetState(rec)
}

func (i Instrumented) ServerStateChanged(rec protocol.ServerStateRecord) {
	i.Reg.EventsEmitted.WithLabelValues("server_state_changed").Inc()
	i.Inner.ServerStateChanged(rec)
}

func (i Instrumented) ExtendedStateChanged(rec protocol.ExtendedStatusRecord) {
	i.Reg.EventsEmitted.WithLabelValues("extended_state_changed").Inc()
	i.Inner.ExtendedStateChanged(rec)
}
