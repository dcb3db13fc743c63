// Package config handles loading and parsing thermo configuration files.
//
// # Overview
//
// This package reads thermo's TOML configuration to discover which gateway to
// connect to, which optional dashboard controls to show, and where to write
// logs. Every field is optional; a missing file yields Default().
//
// # Configuration Discovery
//
// The Load function follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/thermo/config.toml (default)
//  3. If the config file doesn't exist, fall back to hardcoded defaults
//  4. If the file exists but fields are missing/empty, use defaults
//
// # Default Values
//
//   - Config file: ~/.config/thermo/config.toml
//   - Gateway host: 192.168.4.1 (the device's soft-AP address)
//   - Reconnect delay: 2s, fixed
//   - Handshake timeout: 5s
//   - Heater control: enabled
//   - Chart: static
//   - Log file: ~/.local/share/thermo/thermo.log (JSON lines, level info)
//   - Metrics: disabled
//
// # TOML Format
//
//	[gateway]
//	host = "thermostat.local"
//	reconnect_delay = "2s"
//	handshake_timeout = "5s"
//
//	[features]
//	heater = true
//	chart = "live"        # static | live | off
//
//	[logging]
//	level = "debug"
//	format = "text"       # json | text
//	file = "~/.local/share/thermo/thermo.log"
//
//	[logging.loki]
//	enabled = false
//	url = "http://loki:3100/loki/api/v1/push"
//	labels = { app = "thermo" }
//
//	[metrics]
//	listen = "127.0.0.1:9464"
//
// # Gateway Endpoint
//
// The websocket scheme and path are fixed by the firmware: the endpoint is
// always ws://<host>/ws. Only the host (optionally with a port) is configurable.
//
// # Error Handling
//
// Load returns errors for:
//   - Path expansion failures (e.g., cannot determine home directory)
//   - File read errors (except os.ErrNotExist, which triggers defaults)
//   - TOML parsing errors
//   - Invalid durations or chart modes
package config
