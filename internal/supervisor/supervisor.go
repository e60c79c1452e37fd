// Package supervisor handles the daemon's graceful shutdown idiom: install a
// signal channel, run the serve loop until either it returns on its own or a
// shutdown signal arrives, then give in-flight work a bounded grace period
// to drain before the process exits.
package supervisor

import (
	"context"
	"os"
	"os/signal"
	"time"
)

// GracePeriod bounds how long Run waits for serve to return after a
// shutdown signal before giving up and returning anyway.
const GracePeriod = 8 * time.Second

// Run installs the platform shutdown signals, starts serve in the
// background, and blocks until serve returns or a signal arrives. serve
// receives a context that is canceled the moment a shutdown signal is
// observed, and must return once its ctx is done.
func Run(serve func(ctx context.Context) error) error {
	sigCh := make(chan os.Signal, 4)
	signal.Notify(sigCh, supervisorSignals()...)
	defer signal.Stop(sigCh)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- serve(ctx) }()

	select {
	case err := <-errCh:
		return err
	case <-sigCh:
		cancel()
	}

	select {
	case err := <-errCh:
		return err
	case <-time.After(GracePeriod):
		return nil
	}
}
