package telemetry

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector receives connection and message events from the gateway client.
//
// Hooks run inline on the read loop and the UI send path, so implementations
// must not block.
type Collector interface {
	IncConnectAttempt()
	IncConnectionClosed()
	SetConnectionState(state string)
	IncInbound(field string)
	IncMalformed()
	IncOutbound(field string)
	IncSendRejected(field string)
}

type noopCollector struct{}

// Noop returns a collector that discards all metrics.
func Noop() Collector {
	return noopCollector{}
}

func (noopCollector) IncConnectAttempt()        {}
func (noopCollector) IncConnectionClosed()      {}
func (noopCollector) SetConnectionState(string) {}
func (noopCollector) IncInbound(string)         {}
func (noopCollector) IncMalformed()             {}
func (noopCollector) IncOutbound(string)        {}
func (noopCollector) IncSendRejected(string)    {}

// connectionStates lists every value SetConnectionState may receive.
var connectionStates = []string{"disconnected", "connecting", "open", "closed"}

// PrometheusCollector exposes client telemetry via Prometheus.
type PrometheusCollector struct {
	gatherer prometheus.Gatherer

	connectAttempts prometheus.Counter
	closes          prometheus.Counter
	state           *prometheus.GaugeVec
	inbound         *prometheus.CounterVec
	malformed       prometheus.Counter
	outbound        *prometheus.CounterVec
	rejected        *prometheus.CounterVec
}

// NewPrometheusCollector registers the client metrics with a fresh registry.
func NewPrometheusCollector() (*PrometheusCollector, error) {
	reg := prometheus.NewRegistry()
	c := &PrometheusCollector{
		gatherer: reg,
		connectAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "thermo_gateway_connect_attempts_total",
			Help: "Number of websocket connection attempts to the gateway.",
		}),
		closes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "thermo_gateway_connection_closes_total",
			Help: "Number of gateway connections that closed, for any reason.",
		}),
		state: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "thermo_gateway_connection_state",
			Help: "1 for the current connection state, 0 otherwise.",
		}, []string{"state"}),
		inbound: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "thermo_gateway_inbound_fields_total",
			Help: "Inbound field updates received from the gateway.",
		}, []string{"field"}),
		malformed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "thermo_gateway_malformed_messages_total",
			Help: "Inbound messages dropped because they were not a JSON object.",
		}),
		outbound: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "thermo_gateway_outbound_commands_total",
			Help: "Single-field commands written to the gateway.",
		}, []string{"field"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "thermo_gateway_send_rejected_total",
			Help: "Commands rejected because no connection was open.",
		}, []string{"field"}),
	}

	collectors := []prometheus.Collector{
		c.connectAttempts, c.closes, c.state, c.inbound, c.malformed, c.outbound, c.rejected,
	}
	for _, col := range collectors {
		if err := reg.Register(col); err != nil {
			var already prometheus.AlreadyRegisteredError
			if errors.As(err, &already) {
				continue
			}
			return nil, err
		}
	}
	c.SetConnectionState("disconnected")
	return c, nil
}

// Handler serves the collector's registry in the Prometheus text format.
func (c *PrometheusCollector) Handler() http.Handler {
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})
}

// Gatherer exposes the underlying registry.
func (c *PrometheusCollector) Gatherer() prometheus.Gatherer {
	return c.gatherer
}

func (c *PrometheusCollector) IncConnectAttempt()   { c.connectAttempts.Inc() }
func (c *PrometheusCollector) IncConnectionClosed() { c.closes.Inc() }
func (c *PrometheusCollector) IncMalformed()        { c.malformed.Inc() }

// SetConnectionState flips the state gauge so exactly one label reads 1.
func (c *PrometheusCollector) SetConnectionState(state string) {
	for _, s := range connectionStates {
		value := 0.0
		if s == state {
			value = 1
		}
		c.state.WithLabelValues(s).Set(value)
	}
}

func (c *PrometheusCollector) IncInbound(field string) {
	c.inbound.WithLabelValues(field).Inc()
}

func (c *PrometheusCollector) IncOutbound(field string) {
	c.outbound.WithLabelValues(field).Inc()
}

func (c *PrometheusCollector) IncSendRejected(field string) {
	c.rejected.WithLabelValues(field).Inc()
}
