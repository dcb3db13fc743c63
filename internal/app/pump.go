package app

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/five82/thermo/internal/gateway"
	"github.com/five82/thermo/internal/state"
)

// eventSource is the part of gateway.Client the pump reads from.
type eventSource interface {
	Events() <-chan gateway.Event
	ReconnectDelay() time.Duration
}

// StartPump launches a background goroutine that applies gateway events to
// the store in the order they arrive. It returns immediately.
func StartPump(ctx context.Context, store *state.Store, src eventSource, log zerolog.Logger) {
	go func() {
		events := src.Events()
		for {
			select {
			case <-ctx.Done():
				return
			case ev := <-events:
				apply(store, ev, src.ReconnectDelay(), log)
			}
		}
	}()
}

func apply(store *state.Store, ev gateway.Event, retryIn time.Duration, log zerolog.Logger) {
	switch ev.Kind {
	case gateway.EventStateChanged:
		store.SetConnection(ev.State, ev.ConnID, ev.Epoch, ev.Err, retryIn, ev.At)
	case gateway.EventPatch:
		store.ApplyPatch(ev.Patch, ev.At)
	case gateway.EventMalformed:
		store.RecordMalformed(ev.Err)
	case gateway.EventError:
		store.RecordError(ev.Err)
	default:
		log.Debug().Int("kind", int(ev.Kind)).Msg("unhandled gateway event")
	}
}
