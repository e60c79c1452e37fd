// Command runbookd runs the keypad daemon: it loads a RunbookConfig, serves
// /hook and /ws, and drives the pure reducer in internal/core from both.
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v3"

	"github.com/EffortlessMetrics/runbookd/internal/appinfo"
	"github.com/EffortlessMetrics/runbookd/internal/config"
	"github.com/EffortlessMetrics/runbookd/internal/eventlog"
	"github.com/EffortlessMetrics/runbookd/internal/supervisor"
	"github.com/EffortlessMetrics/runbookd/internal/transport"
)

// Exit codes per the external interface contract: 0 on a clean shutdown, 2
// on a configuration error, 64 when the listener cannot bind.
const (
	exitOK            = 0
	exitConfigError   = 2
	exitBindFailure   = 64
)

func main() {
	os.Exit(run(os.Args))
}

func run(args []string) int {
	var (
		configPath   string
		listenAddr   string
		logLevel     string
		eventLogPath string
	)

	app := &cli.Command{
		Name:    "runbookd",
		Usage:   "Keypad daemon for editor-driven agent sessions",
		Version: appinfo.Display(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to runbook.yaml",
				Sources:     cli.EnvVars("RUNBOOKD_CONFIG"),
				Value:       "runbook.yaml",
				Destination: &configPath,
			},
			&cli.StringFlag{
				Name:        "listen",
				Usage:       "override the config's listen address",
				Sources:     cli.EnvVars("RUNBOOKD_LISTEN"),
				Destination: &listenAddr,
			},
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "debug, info, warn, error",
				Sources:     cli.EnvVars("RUNBOOKD_LOG_LEVEL"),
				Value:       "info",
				Destination: &logLevel,
			},
			&cli.StringFlag{
				Name:        "event-log",
				Usage:       "optional path to a diagnostic SQLite event log",
				Sources:     cli.EnvVars("RUNBOOKD_EVENT_LOG"),
				Destination: &eventLogPath,
			},
		},
	}

	exitCode := exitOK
	app.Action = func(ctx context.Context, c *cli.Command) error {
		log := newLogger(logLevel)

		cfg, err := config.Load(configPath)
		if err != nil {
			log.Error().Err(err).Str("path", configPath).Msg("load config")
			exitCode = exitConfigError
			return nil
		}
		if listenAddr != "" {
			cfg.ListenAddr = listenAddr
		}

		srv := transport.NewServer(cfg, log)

		if eventLogPath != "" {
			store, err := eventlog.Open(eventLogPath)
			if err != nil {
				log.Error().Err(err).Str("path", eventLogPath).Msg("open event log")
				exitCode = exitConfigError
				return nil
			}
			defer store.Close()
			srv.SetEventLog(store)
		}

		mux := http.NewServeMux()
		mux.Handle("/hook", srv.HookHandler())
		mux.Handle("/ws", srv.WSHandler())

		httpServer := &http.Server{Handler: mux}
		listener, err := net.Listen("tcp", cfg.ListenAddr)
		if err != nil {
			log.Error().Err(err).Str("addr", cfg.ListenAddr).Msg("bind listener")
			exitCode = exitBindFailure
			return nil
		}

		stopTicker := srv.StartTicker()
		defer stopTicker()

		log.Info().Str("addr", cfg.ListenAddr).Str("version", appinfo.Display()).Msg("runbookd listening")

		err = supervisor.Run(func(ctx context.Context) error {
			errCh := make(chan error, 1)
			go func() { errCh <- httpServer.Serve(listener) }()
			select {
			case <-ctx.Done():
				_ = httpServer.Close()
				return nil
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			}
		})
		if err != nil {
			log.Error().Err(err).Msg("serve")
			exitCode = 1
		}
		return nil
	}

	if err := app.Run(context.Background(), args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return exitCode
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(lvl).With().Timestamp().Logger()
}
