package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/five82/thermo/internal/config"
	"github.com/five82/thermo/internal/gateway"
	"github.com/five82/thermo/internal/logging"
	"github.com/five82/thermo/internal/prefs"
	"github.com/five82/thermo/internal/state"
	"github.com/five82/thermo/internal/telemetry"
	"github.com/five82/thermo/internal/ui"
)

// Options configure the thermo application. Zero values keep the
// configuration file's settings.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/thermo/prefs.toml
	Host       string
	Heater     *bool
	Chart      string
}

// Run boots the thermo TUI until the user quits or the context is cancelled.
func Run(ctx context.Context, opts Options) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	logCfg := cfg.Logging
	logCfg.File = cfg.LogFile()
	logger, closeLog, err := logging.Setup(logCfg, "thermo")
	if err != nil {
		return fmt.Errorf("setup logging: %w", err)
	}
	defer closeLog()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	store := &state.Store{}

	metrics, err := startTelemetry(ctx, cfg.Metrics, store, logger)
	if err != nil {
		return err
	}

	client, err := gateway.NewClient(gateway.Options{
		Endpoint:       cfg.Gateway.Endpoint(),
		Dialer:         gateway.WebsocketDialer{HandshakeTimeout: cfg.Gateway.HandshakeTimeout},
		ReconnectDelay: cfg.Gateway.ReconnectDelay,
		Logger:         logger,
		Metrics:        metrics,
	})
	if err != nil {
		return fmt.Errorf("init gateway client: %w", err)
	}

	logger.Info().
		Str("endpoint", client.Endpoint()).
		Dur("reconnect_delay", client.ReconnectDelay()).
		Bool("heater", cfg.Features.Heater).
		Str("chart", string(cfg.Features.Chart)).
		Msg("starting")

	StartPump(ctx, store, client, logger.With().Str("component", "pump").Logger())
	go func() {
		if err := client.Run(ctx); err != nil {
			logger.Error().Err(err).Msg("gateway client stopped")
		}
	}()

	userPrefs := prefs.Load(opts.PrefsPath)
	chart := cfg.Features.Chart
	if opts.Chart == "" && userPrefs.Chart != "" {
		if mode, err := config.ParseChartMode(userPrefs.Chart); err == nil {
			chart = mode
		}
	}

	err = ui.Run(ui.Options{
		Context:   ctx,
		Client:    client,
		Store:     store,
		Config:    &cfg,
		ThemeName: userPrefs.Theme,
		ChartMode: chart,
		PrefsPath: opts.PrefsPath,
		LogPath:   logCfg.File,
		Logger:    logger.With().Str("component", "ui").Logger(),
	})
	logger.Info().Msg("shutting down")
	return err
}

// loadConfig reads the configuration file and applies command-line overrides.
func loadConfig(opts Options) (config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	if opts.Host != "" {
		cfg.Gateway.Host = opts.Host
	}
	if opts.Heater != nil {
		cfg.Features.Heater = *opts.Heater
	}
	if opts.Chart != "" {
		mode, err := config.ParseChartMode(opts.Chart)
		if err != nil {
			return config.Config{}, fmt.Errorf("chart flag: %w", err)
		}
		cfg.Features.Chart = mode
	}
	return cfg, nil
}

func startTelemetry(ctx context.Context, cfg config.MetricsConfig, store *state.Store, logger zerolog.Logger) (telemetry.Collector, error) {
	if cfg.Listen == "" {
		return telemetry.Noop(), nil
	}
	collector, err := telemetry.NewPrometheusCollector()
	if err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}
	log := logger.With().Str("component", "metrics").Logger()
	if err := serveMetrics(ctx, cfg.Listen, newMetricsRouter(collector, store, log), log); err != nil {
		return nil, fmt.Errorf("listen metrics on %s: %w", cfg.Listen, err)
	}
	return collector, nil
}
