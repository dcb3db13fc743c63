package state

import (
	"fmt"
	"sync"
	"time"

	"github.com/five82/thermo/internal/gateway"
)

// HistorySize is the number of current-temperature readings kept for the
// live chart.
const HistorySize = 120

// Reading is one current_temperature sample.
type Reading struct {
	At      time.Time
	Celsius float64
}

// Snapshot represents the latest data available to the UI.
type Snapshot struct {
	Thermostat          Thermostat
	Connection          gateway.ConnState
	ConnID              string
	Epoch               uint64
	LastUpdated         time.Time // last inbound patch
	LastStateChange     time.Time
	RetryAt             time.Time // zero unless a reconnect is pending
	LastError           error
	ConsecutiveFailures int // closes since the last successful open
	Malformed           int
	History             []Reading
}

// IsOffline returns true when the gateway has been unreachable for multiple
// attempts.
func (s Snapshot) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// Store coordinates concurrent updates to the snapshot.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
	history  []Reading
	next     int
	notify   chan struct{}
}

// ApplyPatch reconciles an inbound patch into the stored thermostat state.
func (s *Store) ApplyPatch(patch gateway.Patch, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot.Thermostat = Reconcile(s.snapshot.Thermostat, patch)
	if patch.CurrentTemperature != nil {
		s.record(Reading{At: at, Celsius: *patch.CurrentTemperature})
	}
	s.snapshot.LastUpdated = at
	s.signal()
}

// SetConnection records a connection state transition. retryIn is the
// reconnect delay when state is Closed and ignored otherwise. err is kept
// for display; nil leaves the last error in place unless the connection
// opened.
func (s *Store) SetConnection(st gateway.ConnState, connID string, epoch uint64, err error, retryIn time.Duration, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot.Connection = st
	s.snapshot.ConnID = connID
	s.snapshot.Epoch = epoch
	s.snapshot.LastStateChange = at
	s.snapshot.RetryAt = time.Time{}

	switch st {
	case gateway.StateOpen:
		s.snapshot.ConsecutiveFailures = 0
		s.snapshot.LastError = nil
	case gateway.StateClosed:
		s.snapshot.ConsecutiveFailures++
		if retryIn > 0 {
			s.snapshot.RetryAt = at.Add(retryIn)
		}
	}
	if err != nil {
		s.snapshot.LastError = err
	}
	s.signal()
}

// RecordError keeps a transport error for display without changing state.
func (s *Store) RecordError(err error) {
	if err == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.LastError = err
	s.signal()
}

// RecordMalformed counts a dropped inbound payload. Thermostat values are
// untouched.
func (s *Store) RecordMalformed(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.Malformed++
	if err != nil {
		s.snapshot.LastError = err
	}
	s.signal()
}

// Changes is signalled after every update. Signals coalesce; a receiver
// should read a fresh Snapshot each time.
func (s *Store) Changes() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.changes()
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	snap.Thermostat = s.snapshot.Thermostat.clone()
	snap.History = s.orderedHistory()
	if s.snapshot.LastError != nil {
		snap.LastError = fmt.Errorf("%w", s.snapshot.LastError)
	}
	return snap
}

func (s *Store) record(r Reading) {
	if len(s.history) < HistorySize {
		s.history = append(s.history, r)
		return
	}
	s.history[s.next] = r
	s.next = (s.next + 1) % HistorySize
}

func (s *Store) orderedHistory() []Reading {
	if len(s.history) == 0 {
		return nil
	}
	out := make([]Reading, 0, len(s.history))
	out = append(out, s.history[s.next:]...)
	out = append(out, s.history[:s.next]...)
	return out
}

func (s *Store) changes() chan struct{} {
	if s.notify == nil {
		s.notify = make(chan struct{}, 1)
	}
	return s.notify
}

func (s *Store) signal() {
	select {
	case s.changes() <- struct{}{}:
	default:
	}
}
