package config

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config captures everything thermo needs to reach a gateway and render it.
type Config struct {
	Gateway  GatewayConfig
	Features FeatureConfig
	Logging  LoggingConfig
	Metrics  MetricsConfig
}

// GatewayConfig describes the device serving the websocket.
type GatewayConfig struct {
	Host             string
	ReconnectDelay   time.Duration
	HandshakeTimeout time.Duration
}

// FeatureConfig toggles the optional dashboard controls.
type FeatureConfig struct {
	Heater bool
	Chart  ChartMode
}

// LoggingConfig controls where and how the client logs.
type LoggingConfig struct {
	Level  string
	Format string
	File   string
	Loki   LokiConfig
}

// LokiConfig enables shipping log lines to a Loki instance.
type LokiConfig struct {
	Enabled bool
	URL     string
	Labels  map[string]string
}

// MetricsConfig exposes Prometheus metrics when Listen is set.
type MetricsConfig struct {
	Listen string
}

const (
	defaultConfigPath       = "~/.config/thermo/config.toml"
	defaultLogFile          = "~/.local/share/thermo/thermo.log"
	defaultHost             = "192.168.4.1"
	defaultReconnectDelay   = 2 * time.Second
	defaultHandshakeTimeout = 5 * time.Second
	defaultLogLevel         = "info"
	defaultLogFormat        = "json"

	// Scheme and path are fixed by the gateway firmware.
	gatewayScheme = "ws"
	gatewayPath   = "/ws"
)

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Gateway: GatewayConfig{
			Host:             defaultHost,
			ReconnectDelay:   defaultReconnectDelay,
			HandshakeTimeout: defaultHandshakeTimeout,
		},
		Features: FeatureConfig{Heater: true, Chart: ChartStatic},
		Logging: LoggingConfig{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
			File:   mustExpand(defaultLogFile),
		},
	}
}

type rawConfig struct {
	Gateway struct {
		Host             string `toml:"host"`
		ReconnectDelay   string `toml:"reconnect_delay"`
		HandshakeTimeout string `toml:"handshake_timeout"`
	} `toml:"gateway"`
	Features struct {
		Heater *bool  `toml:"heater"`
		Chart  string `toml:"chart"`
	} `toml:"features"`
	Logging struct {
		Level  string `toml:"level"`
		Format string `toml:"format"`
		File   string `toml:"file"`
		Loki   struct {
			Enabled bool              `toml:"enabled"`
			URL     string            `toml:"url"`
			Labels  map[string]string `toml:"labels"`
		} `toml:"loki"`
	} `toml:"logging"`
	Metrics struct {
		Listen string `toml:"listen"`
	} `toml:"metrics"`
}

// Load locates and parses the thermo config, falling back to defaults when missing.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw rawConfig
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if host := strings.TrimSpace(raw.Gateway.Host); host != "" {
		cfg.Gateway.Host = host
	}
	if cfg.Gateway.ReconnectDelay, err = parseDuration(raw.Gateway.ReconnectDelay, defaultReconnectDelay); err != nil {
		return Config{}, fmt.Errorf("parse gateway.reconnect_delay: %w", err)
	}
	if cfg.Gateway.HandshakeTimeout, err = parseDuration(raw.Gateway.HandshakeTimeout, defaultHandshakeTimeout); err != nil {
		return Config{}, fmt.Errorf("parse gateway.handshake_timeout: %w", err)
	}

	if raw.Features.Heater != nil {
		cfg.Features.Heater = *raw.Features.Heater
	}
	if strings.TrimSpace(raw.Features.Chart) != "" {
		mode, err := ParseChartMode(raw.Features.Chart)
		if err != nil {
			return Config{}, fmt.Errorf("parse features.chart: %w", err)
		}
		cfg.Features.Chart = mode
	}

	if level := strings.TrimSpace(raw.Logging.Level); level != "" {
		cfg.Logging.Level = strings.ToLower(level)
	}
	if format := strings.TrimSpace(raw.Logging.Format); format != "" {
		cfg.Logging.Format = strings.ToLower(format)
	}
	if file := strings.TrimSpace(raw.Logging.File); file != "" {
		cfg.Logging.File = mustExpand(file)
	}
	cfg.Logging.Loki = LokiConfig{
		Enabled: raw.Logging.Loki.Enabled,
		URL:     strings.TrimSpace(raw.Logging.Loki.URL),
		Labels:  raw.Logging.Loki.Labels,
	}

	cfg.Metrics.Listen = strings.TrimSpace(raw.Metrics.Listen)

	return cfg, nil
}

// Endpoint returns the websocket URL of the gateway: ws://<host>/ws.
func (g GatewayConfig) Endpoint() string {
	host := strings.TrimSpace(g.Host)
	if host == "" {
		host = defaultHost
	}
	u := url.URL{Scheme: gatewayScheme, Host: host, Path: gatewayPath}
	return u.String()
}

// LogFile returns the log file path, defaulting when unset.
func (c Config) LogFile() string {
	if strings.TrimSpace(c.Logging.File) == "" {
		return mustExpand(defaultLogFile)
	}
	return c.Logging.File
}

func parseDuration(value string, fallback time.Duration) (time.Duration, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(trimmed)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("duration %q must be positive", trimmed)
	}
	return d, nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
