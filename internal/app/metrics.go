package app

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/five82/thermo/internal/state"
	"github.com/five82/thermo/internal/telemetry"
)

const shutdownTimeout = 3 * time.Second

// newMetricsRouter serves /metrics and a /healthz summary of the connection.
func newMetricsRouter(collector *telemetry.PrometheusCollector, store *state.Store, log zerolog.Logger) http.Handler {
	r := mux.NewRouter()
	r.Handle("/metrics", collector.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		snap := store.Snapshot()
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(struct {
			Connection          string `json:"connection"`
			Epoch               uint64 `json:"epoch"`
			ConsecutiveFailures int    `json:"consecutive_failures"`
			Malformed           int    `json:"malformed"`
		}{
			Connection:          snap.Connection.String(),
			Epoch:               snap.Epoch,
			ConsecutiveFailures: snap.ConsecutiveFailures,
			Malformed:           snap.Malformed,
		})
	}).Methods(http.MethodGet)

	recovered := handlers.RecoveryHandler(handlers.PrintRecoveryStack(true))(r)
	return handlers.CombinedLoggingHandler(log, recovered)
}

// serveMetrics listens on addr until ctx is cancelled. Listen errors are
// returned synchronously; serve errors are logged.
func serveMetrics(ctx context.Context, addr string, h http.Handler, log zerolog.Logger) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	srv := &http.Server{Handler: h, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	go func() {
		log.Info().Str("addr", ln.Addr().String()).Msg("metrics listening")
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()
	return nil
}
