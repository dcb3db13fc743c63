// Package app provides the orchestration layer for the thermo application.
//
// # Overview
//
// This package wires together configuration, logging, telemetry, the
// gateway connection, state management and the UI. It is the composition
// root where all dependencies are initialized and connected.
//
// # Architecture
//
//  1. Load ~/.config/thermo/config.toml and apply command-line overrides
//  2. Set up the zerolog file logger (and Loki, when enabled)
//  3. Start the Prometheus endpoint when metrics.listen is set
//  4. Create the gateway client and the shared state.Store
//  5. Launch the pump that applies gateway events to the store
//  6. Start the TUI and block until the user exits or the context cancels
//
// # Components
//
//   - app.go: Run and configuration overrides
//   - pump.go: background goroutine copying gateway events into the store
//   - metrics.go: /metrics and /healthz behind a gorilla/mux router
//
// # Data Flow
//
//	┌──────────────┐
//	│   Run()      │ Initialize everything
//	└──────┬───────┘
//	       │
//	       ├─────> config.Load()         Read config.toml
//	       ├─────> logging.Setup()       File logger
//	       ├─────> gateway.NewClient()   Websocket client
//	       ├─────> StartPump()           Events -> store
//	       ├─────> client.Run()          Connect + reconnect loop
//	       └─────> ui.Run()              Start TUI (blocks)
//
// # Error Handling
//
// Only configuration, logging and metrics listener failures are fatal.
// Once the UI is up, gateway failures are shown in the header and recovered
// by the client's fixed-delay reconnect.
package app
