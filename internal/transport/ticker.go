package transport

import (
	"time"

	"github.com/robfig/cron/v3"

	"github.com/EffortlessMetrics/runbookd/internal/core"
)

// tickSchedule fires once a second. This is the only wall-clock-driven input
// to the reducer; everything it can do (expire the last_ended_state latch)
// is listed explicitly in core.DaemonState.applyTick.
const tickSchedule = "@every 1s"

// StartTicker runs a cron schedule that injects an EventTick into the
// reducer on every fire, and returns a stop function. Using a scheduler
// library here instead of a bare time.Ticker keeps the daemon's one
// recurring job expressed the same way as any other scheduled task might be
// added later (e.g. periodic diagnostics flush).
func (s *Server) StartTicker() func() {
	c := cron.New(cron.WithSeconds())
	_, err := c.AddFunc(tickSchedule, func() {
		s.Step(core.TickEvent(time.Now()))
	})
	if err != nil {
		s.log.Error().Err(err).Msg("schedule tick")
		return func() {}
	}
	c.Start()
	return func() {
		<-c.Stop().Done()
	}
}
