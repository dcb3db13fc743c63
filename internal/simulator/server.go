package simulator

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	defaultInterval = time.Second
	sendBuffer      = 16
	maxMessageSize  = 4096
	writeTimeout    = 5 * time.Second
)

// message is an outbound sparse patch.
type message struct {
	CurrentTemperature *float64 `json:"current_temperature,omitempty"`
	TargetTemperature  *float64 `json:"target_temperature,omitempty"`
	HeaterState        *bool    `json:"heater_state,omitempty"`
}

// command is an inbound update. is_heating_on is accepted as an alias of
// heater_state.
type command struct {
	TargetTemperature *float64 `json:"target_temperature"`
	HeaterState       *bool    `json:"heater_state"`
	IsHeatingOn       *bool    `json:"is_heating_on"`
}

// Options configure a Server.
type Options struct {
	Model    *Model
	Interval time.Duration // current_temperature broadcast period
	Logger   zerolog.Logger
}

// Server is a simulated gateway serving /ws, /healthz and /api/state.
type Server struct {
	model    *Model
	interval time.Duration
	log      zerolog.Logger
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*client]struct{}
}

type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func (c *client) close() {
	c.once.Do(func() {
		close(c.send)
	})
}

// New builds a Server. A nil model starts from the firmware defaults.
func New(opts Options) *Server {
	if opts.Model == nil {
		opts.Model = NewModel(Params{})
	}
	if opts.Interval <= 0 {
		opts.Interval = defaultInterval
	}
	return &Server{
		model:    opts.Model,
		interval: opts.Interval,
		log:      opts.Logger.With().Str("component", "simulator").Logger(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
	}
}

// Router returns the simulator routes.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/ws", s.handleWebSocket).Methods(http.MethodGet)
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/api/state", s.handleState).Methods(http.MethodGet)
	return r
}

// Handler wraps Router with access logging.
func (s *Server) Handler() http.Handler {
	return handlers.LoggingHandler(s.log, s.Router())
}

// Run advances the model and broadcasts current_temperature every interval
// until ctx is cancelled. Connected clients are closed on return.
func (s *Server) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	defer s.closeAll()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			st := s.model.Step(s.interval)
			s.broadcast(message{CurrentTemperature: &st.CurrentTemperature})
			s.log.Debug().
				Float64("current", st.CurrentTemperature).
				Float64("target", st.TargetTemperature).
				Bool("heater", st.HeaterState).
				Float64("duty", st.Duty).
				Msg("tick")
		}
	}
}

// Clients returns the number of connected websocket clients.
func (s *Server) Clients() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// Model returns the thermal model behind the server.
func (s *Server) Model() *Model {
	return s.model
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	c := &client{id: uuid.NewString(), conn: conn, send: make(chan []byte, sendBuffer)}
	conn.SetReadLimit(maxMessageSize)

	// The greeting is queued before registering so it precedes any broadcast.
	st := s.model.Snapshot()
	if data, err := json.Marshal(message{TargetTemperature: &st.TargetTemperature, HeaterState: &st.HeaterState}); err == nil {
		c.send <- data
	}
	if data, err := json.Marshal(message{CurrentTemperature: &st.CurrentTemperature}); err == nil {
		c.send <- data
	}

	s.mu.Lock()
	s.clients[c] = struct{}{}
	s.mu.Unlock()
	s.log.Info().Str("client", c.id).Str("remote", r.RemoteAddr).Msg("client connected")

	go s.writeLoop(c)
	s.readLoop(c)

	s.remove(c)
	s.log.Info().Str("client", c.id).Msg("client disconnected")
}

func (s *Server) readLoop(c *client) {
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		s.handleCommand(c, data)
	}
}

func (s *Server) writeLoop(c *client) {
	defer c.conn.Close()
	for data := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			s.log.Debug().Err(err).Str("client", c.id).Msg("write failed")
			s.remove(c)
			return
		}
	}
	_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

func (s *Server) handleCommand(c *client, data []byte) {
	var cmd command
	if err := json.Unmarshal(data, &cmd); err != nil {
		s.log.Warn().Err(err).Str("client", c.id).Str("payload", string(data)).Msg("invalid message")
		return
	}

	if cmd.TargetTemperature != nil {
		st := s.model.SetTarget(*cmd.TargetTemperature)
		s.log.Info().Float64("target", st.TargetTemperature).Str("client", c.id).Msg("target temperature set")
		s.broadcast(message{TargetTemperature: &st.TargetTemperature})
	}

	heater := cmd.HeaterState
	if heater == nil {
		heater = cmd.IsHeatingOn
	}
	if heater != nil {
		st := s.model.SetHeater(*heater)
		s.log.Info().Bool("heater", st.HeaterState).Str("client", c.id).Msg("heater state set")
		s.broadcast(message{HeaterState: &st.HeaterState})
	}
}

func (s *Server) broadcast(msg message) {
	data, err := json.Marshal(msg)
	if err != nil {
		s.log.Error().Err(err).Msg("encode broadcast")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		select {
		case c.send <- data:
		default:
			s.log.Warn().Str("client", c.id).Msg("client too slow, dropping")
			delete(s.clients, c)
			c.close()
		}
	}
}

func (s *Server) remove(c *client) {
	s.mu.Lock()
	delete(s.clients, c)
	s.mu.Unlock()
	c.close()
}

func (s *Server) closeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		delete(s.clients, c)
		c.close()
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = fmt.Fprintln(w, "ok")
}

func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	payload := struct {
		State
		Clients int `json:"clients"`
	}{State: s.model.Snapshot(), Clients: s.Clients()}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log.Warn().Err(err).Msg("encode state")
	}
}
