// Package main demonstrates svcsup's lifecycle: a foreground service
// with a regular task, a daemon task, and a nested child service,
// shut down cleanly on SIGINT/SIGTERM.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	supervisor "github.com/tomtom215/svcsup"
)

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc := supervisor.ServiceFunc(func(ctx context.Context) error {
		mgr := supervisor.ManagerFromContext(ctx)

		mgr.RunDaemonTask(func(ctx context.Context) error {
			ticker := time.NewTicker(5 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-ticker.C:
					logger.Info().Msg("heartbeat")
				}
			}
		}, "heartbeat")

		mgr.RunTask(func(ctx context.Context) error {
			logger.Info().Msg("one-shot warmup task starting")
			select {
			case <-time.After(2 * time.Second):
			case <-ctx.Done():
				return ctx.Err()
			}
			logger.Info().Msg("one-shot warmup task done")
			return nil
		}, "warmup")

		childMgr := mgr.RunChildService(supervisor.ServiceFunc(func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		}), "watchdog")
		if err := childMgr.WaitStarted(ctx); err != nil {
			return err
		}

		<-ctx.Done()
		return ctx.Err()
	})

	logger.Info().Msg("starting demo service, press ctrl-c to stop")
	err := supervisor.RunService(ctx, svc, supervisor.WithLogger(logger), supervisor.WithName("demo"))
	if err != nil && ctx.Err() == nil {
		logger.Error().Err(err).Msg("demo service failed")
		os.Exit(1)
	}
	logger.Info().Msg("demo service stopped cleanly")
}
