package dispatch

import (
	"encoding/json"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/ForeFoldAi/eye-care-sub001/pkg/types"
)

// Handlers is the typed handler table for server-pushed events. Nil entries
// are skipped. Handlers run on the dispatching goroutine and must not block;
// their side effects are confined to the store and session state.
type Handlers struct {
	NewMessage   func(types.Message)
	Typing       func(types.TypingEvent)
	Delivered    func(types.ReceiptEvent)
	Read         func(types.ReceiptEvent)
	StatusChange func(types.StatusEvent)
	UnreadCounts func(types.UnreadCounts)
	ServerError  func(types.ServerError)
}

// Dispatcher routes each inbound event to exactly one handler. It holds no
// domain state of its own. Unknown event kinds are ignored so newer backends
// stay compatible; a panic in one handler never prevents delivery of
// subsequent events.
type Dispatcher struct {
	handlers  Handlers
	log       zerolog.Logger
	malformed atomic.Int64
}

// New creates a dispatcher over the given handler table.
func New(handlers Handlers, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		handlers: handlers,
		log:      logger.With().Str("component", "dispatch").Logger(),
	}
}

// Dispatch decodes and routes a single event.
func (d *Dispatcher) Dispatch(event types.Event) {
	switch event.Kind {
	case types.EventNewMessage:
		decodeAndCall(d, event, d.handlers.NewMessage)
	case types.EventUserTyping:
		decodeAndCall(d, event, d.handlers.Typing)
	case types.EventMessageDelivered:
		decodeAndCall(d, event, d.handlers.Delivered)
	case types.EventMessageRead:
		decodeAndCall(d, event, d.handlers.Read)
	case types.EventUserStatusChange:
		decodeAndCall(d, event, d.handlers.StatusChange)
	case types.EventUnreadCounts:
		decodeAndCall(d, event, d.handlers.UnreadCounts)
	case types.EventError:
		decodeAndCall(d, event, d.handlers.ServerError)
	default:
		d.log.Debug().Str("kind", event.Kind).Msg("ignoring unknown event kind")
	}
}

// MalformedCount returns how many events carried undecodable payloads.
func (d *Dispatcher) MalformedCount() int64 {
	return d.malformed.Load()
}

func decodeAndCall[T any](d *Dispatcher, event types.Event, handler func(T)) {
	if handler == nil {
		return
	}

	var payload T
	if len(event.Data) > 0 {
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			d.malformed.Add(1)
			d.log.Warn().Str("kind", event.Kind).Err(err).Msg("malformed event payload")
			return
		}
	}

	defer func() {
		if r := recover(); r != nil {
			d.log.Error().Str("kind", event.Kind).Interface("panic", r).Msg("handler panicked")
		}
	}()
	handler(payload)
}
