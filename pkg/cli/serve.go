package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"
	httpctrl "github.com/secmon-lab/hippo/pkg/controller/http"
	"github.com/secmon-lab/hippo/pkg/service/worker"
	"github.com/secmon-lab/hippo/pkg/utils/async"
	"github.com/secmon-lab/hippo/pkg/utils/logging"
	"github.com/secmon-lab/hippo/pkg/utils/metrics"
	"github.com/urfave/cli/v3"
)

func cmdServe() *cli.Command {
	var addr string
	var enableMetrics bool
	var allowedOrigins []string
	var maxAudioSize int64
	var sessionIdle time.Duration
	var pipelineCfg pipelineConfig

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address",
			Value:       ":8080",
			Sources:     cli.EnvVars("HIPPO_ADDR"),
			Destination: &addr,
		},
		&cli.BoolFlag{
			Name:        "metrics",
			Usage:       "Expose Prometheus metrics at /metrics",
			Value:       true,
			Sources:     cli.EnvVars("HIPPO_METRICS"),
			Destination: &enableMetrics,
		},
		&cli.StringSliceFlag{
			Name:        "allowed-origin",
			Usage:       "Origin allowed to open the websocket relay (repeatable)",
			Sources:     cli.EnvVars("HIPPO_ALLOWED_ORIGINS"),
			Destination: &allowedOrigins,
		},
		&cli.Int64Flag{
			Name:        "max-audio-size",
			Usage:       "Maximum size of one uploaded utterance in bytes",
			Value:       httpctrl.DefaultMaxAudioSize,
			Sources:     cli.EnvVars("HIPPO_MAX_AUDIO_SIZE"),
			Destination: &maxAudioSize,
		},
		&cli.DurationFlag{
			Name:        "session-idle-timeout",
			Usage:       "Evict live sessions idle for this long (0 keeps them forever)",
			Value:       30 * time.Minute,
			Sources:     cli.EnvVars("HIPPO_SESSION_IDLE_TIMEOUT"),
			Destination: &sessionIdle,
		},
	}
	flags = append(flags, pipelineCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			recorder := metrics.New()

			uc, repo, err := pipelineCfg.build(ctx, recorder)
			if err != nil {
				return err
			}
			defer closeRepository(ctx, repo)

			var reaper *worker.SessionReaper
			if sessionIdle > 0 {
				reaper = worker.NewSessionReaper(uc.Sessions, sessionIdle, min(sessionIdle, time.Minute))
				reaper.Start(ctx)
			}

			httpOpts := []httpctrl.Options{
				httpctrl.WithMaxAudioSize(maxAudioSize),
			}
			if enableMetrics {
				httpOpts = append(httpOpts, httpctrl.WithMetricsHandler(recorder.Handler()))
			}
			if len(allowedOrigins) > 0 {
				httpOpts = append(httpOpts, httpctrl.WithAllowedOrigins(allowedOrigins...))
			}

			server := &http.Server{
				Addr:              addr,
				Handler:           httpctrl.New(uc, httpOpts...),
				ReadHeaderTimeout: 30 * time.Second,
			}

			// Setup signal handling for graceful shutdown
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

			errCh := make(chan error, 1)
			go func() {
				logging.Default().Info("Starting HTTP server", "addr", addr, "metrics", enableMetrics)
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- goerr.Wrap(err, "failed to start server")
				}
			}()

			select {
			case err := <-errCh:
				return err
			case sig := <-sigCh:
				logging.Default().Info("Received shutdown signal", "signal", sig)

				if reaper != nil {
					reaper.Stop()
				}

				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()

				if err := server.Shutdown(shutdownCtx); err != nil {
					return goerr.Wrap(err, "failed to shutdown server gracefully")
				}
				if err := async.Wait(shutdownCtx); err != nil {
					logging.Default().Warn("turn log archive did not finish", "error", err)
				}

				logging.Default().Info("Server shutdown completed")
				return nil
			}
		},
	}
}
