package core

import (
	"time"

	"github.com/EffortlessMetrics/runbookd/internal/config"
)

// Step is the single entry point into the reducer: (state, config, event) ->
// side effects, with state mutated in place. It is the only place that
// decides whether to append a render broadcast, applying the dedup-on-broadcast
// rule after every event regardless of which branch handled it.
func (s *DaemonState) Step(cfg *config.RunbookConfig, ev Event) []SideEffect {
	var effects []SideEffect

	switch ev.Kind {
	case EventHook:
		effects = s.applyHook(ev)
	case EventClientHello:
		effects = s.applyClientHello(ev)
	case EventKeypadPress:
		effects = s.applyKeypadPress(cfg, ev.PromptID)
	case EventDialpadButton:
		effects = s.applyDialpadButton(cfg, ev.Button)
	case EventAdjustment:
		effects = s.applyAdjustment(cfg, ev.AdjustKind, ev.Delta)
	case EventPageNav:
		s.applyPageNav(cfg, ev.Direction)
	case EventTerminalsSnapshot:
		s.applyTerminalsSnapshot(ev.Terminals, ev.ActiveIndex)
	case EventHooksForwarderConnected:
		s.ForwarderConnected = true
	case EventHooksForwarderDisconnected:
		s.ForwarderConnected = false
	case EventUnknownClientMessage:
		effects = append(effects, notice("unrecognized client message: "+ev.UnknownType))
	case EventTick:
		s.applyTick(ev)
	}

	if render, changed := s.nextRender(cfg, ev.At); changed {
		effects = append(effects, broadcastRender(render))
	}
	return effects
}

// applyClientHello records nothing in state today — protocol version and
// capability negotiation is the transport layer's concern. A hello goes
// through the same render dedup as any other event: it yields a render
// broadcast only when the projection differs from the last one broadcast,
// so a client that connects while nothing has changed receives no render
// until the next change.
func (s *DaemonState) applyClientHello(ev Event) []SideEffect {
	return nil
}

// applyTick is the only place wall-clock-driven expiry happens, and it only
// happens because an adapter chose to emit a Tick — the reducer itself never
// consults a clock.
func (s *DaemonState) applyTick(ev Event) {
	if s.LastEndedState != nil && ev.At.Sub(s.LastEndedStateAt) > EndedLatchTTL {
		s.LastEndedState = nil
	}
}

// nextRender projects the current state and reports whether it differs from
// the last broadcast model, updating the cache either way.
func (s *DaemonState) nextRender(cfg *config.RunbookConfig, at time.Time) (RenderModel, bool) {
	render := ProjectRender(s, cfg, at)
	if s.hasLastRender && s.lastRender.Equal(render) {
		return render, false
	}
	s.lastRender = render
	s.hasLastRender = true
	return render, true
}
