package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/five82/thermo/internal/config"
	"github.com/five82/thermo/internal/logging"
	"github.com/five82/thermo/internal/simulator"
)

func main() {
	os.Exit(run())
}

func run() int {
	addr := flag.String("listen", "127.0.0.1:8080", "listen address")
	interval := flag.Duration("interval", time.Second, "current_temperature broadcast interval")
	ambient := flag.Float64("ambient", 0, "ambient temperature in °C (0 uses the default)")
	level := flag.String("log-level", "info", "log level")
	format := flag.String("log-format", "text", "log format: json or text")
	flag.Parse()

	logger, closeLog, err := logging.Setup(config.LoggingConfig{Level: *level, Format: *format}, "thermo-sim")
	if err != nil {
		fmt.Fprintf(os.Stderr, "thermo-sim: %v\n", err)
		return 1
	}
	defer closeLog()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	sim := simulator.New(simulator.Options{
		Model:    simulator.NewModel(simulator.Params{Ambient: *ambient}),
		Interval: *interval,
		Logger:   logger,
	})

	srv := &http.Server{
		Addr:              *addr,
		Handler:           sim.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", *addr).Msg("simulator listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	go sim.Run(ctx)

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			logger.Error().Err(err).Msg("listen failed")
			return 1
		}
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("shutdown")
	}
	logger.Info().Msg("simulator stopped")
	return 0
}
