package transport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/ForeFoldAi/eye-care-sub001/pkg/interfaces"
	"github.com/ForeFoldAi/eye-care-sub001/pkg/types"
)

// Options controls transport behavior.
type Options struct {
	URL               string
	Token             string
	HandshakeTimeout  time.Duration
	ReconnectDelay    time.Duration
	ReconnectAttempts int
	Logger            zerolog.Logger

	// Dialer overrides the websocket dialer, used by tests.
	Dialer *websocket.Dialer
}

// Transport maintains the single authenticated WebSocket to the backend.
// Network drops are redialed with constant backoff up to a bounded attempt
// count; handshake rejection and server-initiated closes are terminal and
// surfaced as distinct errors. Inbound events are delivered on one channel
// in arrival order.
type Transport struct {
	opts   Options
	dialer *websocket.Dialer
	log    zerolog.Logger

	events  chan types.Event
	writeCh chan []byte

	mu      sync.RWMutex
	state   interfaces.ConnState
	lastErr error
	conn    *websocket.Conn

	ctx    context.Context
	cancel context.CancelFunc

	closeOnce  sync.Once
	eventsOnce sync.Once
}

// New creates a transport. Connect must be called before Send.
func New(opts Options) *Transport {
	dialer := opts.Dialer
	if dialer == nil {
		dialer = &websocket.Dialer{HandshakeTimeout: opts.HandshakeTimeout}
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Transport{
		opts:    opts,
		dialer:  dialer,
		log:     opts.Logger.With().Str("component", "transport").Logger(),
		events:  make(chan types.Event, 256),
		writeCh: make(chan []byte, 100),
		state:   interfaces.ConnStateDisconnected,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Connect dials and authenticates. A duplicate call while connected or
// connecting is a no-op. The initial dial is subject to the same bounded
// backoff policy as reconnects.
func (t *Transport) Connect(ctx context.Context) error {
	t.mu.Lock()
	switch t.state {
	case interfaces.ConnStateConnected, interfaces.ConnStateConnecting:
		t.mu.Unlock()
		return nil
	case interfaces.ConnStateFailed:
		t.mu.Unlock()
		return t.LastError()
	}
	t.state = interfaces.ConnStateConnecting
	t.mu.Unlock()

	if err := checkTokenExpiry(t.opts.Token, time.Now()); err != nil {
		t.fail(err)
		return err
	}

	conn, err := t.dial(ctx)
	if err != nil {
		t.fail(err)
		return err
	}

	t.adopt(conn)
	go t.supervise(conn)
	return nil
}

// Send emits a client event over the push channel. Safe for concurrent use;
// writes are serialized by a single writer goroutine.
func (t *Transport) Send(event types.Event) error {
	t.mu.RLock()
	state := t.state
	t.mu.RUnlock()
	if state != interfaces.ConnStateConnected && state != interfaces.ConnStateConnecting {
		return types.ErrNotConnected
	}

	data, err := json.Marshal(event)
	if err != nil {
		return ErrInvalidPayload
	}

	select {
	case t.writeCh <- data:
		return nil
	case <-time.After(5 * time.Second):
		return ErrWriteTimeout
	case <-t.ctx.Done():
		return ErrClosed
	}
}

// Events returns the inbound event stream. Closed on terminal shutdown.
func (t *Transport) Events() <-chan types.Event { return t.events }

// State returns the current connection state.
func (t *Transport) State() interfaces.ConnState {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state
}

// LastError returns the terminal error, nil while the transport is healthy.
func (t *Transport) LastError() error {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.lastErr
}

// Close tears down the connection and stops reconnection.
func (t *Transport) Close() error {
	t.closeOnce.Do(func() {
		t.cancel()
		t.mu.Lock()
		if t.conn != nil {
			t.conn.Close()
		}
		t.state = interfaces.ConnStateDisconnected
		t.mu.Unlock()
		t.closeEvents()
	})
	return nil
}

// dial attempts the handshake under the bounded constant-backoff policy.
// Authentication rejection aborts immediately; connectivity failures retry
// up to the attempt ceiling.
func (t *Transport) dial(ctx context.Context) (*websocket.Conn, error) {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+t.opts.Token)

	var conn *websocket.Conn
	policy := backoff.WithContext(
		backoff.WithMaxRetries(
			backoff.NewConstantBackOff(t.opts.ReconnectDelay),
			uint64(t.opts.ReconnectAttempts),
		),
		ctx,
	)

	attempt := 0
	err := backoff.Retry(func() error {
		attempt++
		c, resp, err := t.dialer.DialContext(ctx, t.opts.URL, header)
		if err != nil {
			if resp != nil && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) {
				return backoff.Permanent(types.ErrAuthenticationFailed)
			}
			t.log.Warn().Int("attempt", attempt).Err(err).Msg("handshake failed")
			return err
		}
		conn = c
		return nil
	}, policy)

	if err != nil {
		if errors.Is(err, types.ErrAuthenticationFailed) {
			return nil, types.ErrAuthenticationFailed
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		t.log.Error().Int("attempts", attempt).Msg("reconnect attempts exhausted")
		return nil, types.ErrReconnectExhausted
	}

	t.log.Info().Str("url", t.opts.URL).Msg("connected")
	return conn, nil
}

// supervise owns one live connection at a time: it runs the read and write
// loops, classifies the close reason, and redials on network drops. It exits
// only on terminal conditions.
func (t *Transport) supervise(conn *websocket.Conn) {
	for {
		readErr := t.serve(conn)

		if t.ctx.Err() != nil {
			return // Close was called
		}

		if isServerClose(readErr) {
			t.log.Warn().Err(readErr).Msg("server closed the connection")
			t.fail(types.ErrServerDisconnect)
			t.closeEvents()
			return
		}

		// Network-level drop: redial under the bounded policy.
		t.log.Warn().Err(readErr).Msg("connection dropped, reconnecting")
		t.setState(interfaces.ConnStateConnecting)

		next, err := t.dial(t.ctx)
		if err != nil {
			if t.ctx.Err() != nil {
				return
			}
			t.fail(err)
			t.closeEvents()
			return
		}

		t.adopt(next)
		conn = next
	}
}

// serve pumps one connection until it errors, returning the read error.
func (t *Transport) serve(conn *websocket.Conn) error {
	writeDone := make(chan struct{})
	go t.writeLoop(conn, writeDone)
	defer func() {
		close(writeDone)
		conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		var event types.Event
		if err := json.Unmarshal(data, &event); err != nil || event.Kind == "" {
			t.log.Debug().Err(err).Msg("dropping undecodable frame")
			continue
		}

		select {
		case t.events <- event:
		case <-t.ctx.Done():
			return ErrClosed
		}
	}
}

// writeLoop serializes all writes onto the current connection.
func (t *Transport) writeLoop(conn *websocket.Conn, done <-chan struct{}) {
	for {
		select {
		case data := <-t.writeCh:
			if err := conn.SetWriteDeadline(time.Now().Add(5 * time.Second)); err != nil {
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				t.log.Debug().Err(err).Msg("write failed")
				return
			}
		case <-done:
			return
		case <-t.ctx.Done():
			return
		}
	}
}

func (t *Transport) setState(s interfaces.ConnState) {
	t.mu.Lock()
	t.state = s
	t.mu.Unlock()
}

// adopt installs the live connection so Close can unblock its read loop.
func (t *Transport) adopt(conn *websocket.Conn) {
	t.mu.Lock()
	t.conn = conn
	t.state = interfaces.ConnStateConnected
	t.mu.Unlock()
}

func (t *Transport) fail(err error) {
	t.mu.Lock()
	t.state = interfaces.ConnStateFailed
	if t.lastErr == nil {
		t.lastErr = err
	}
	t.mu.Unlock()
}

func (t *Transport) closeEvents() {
	t.eventsOnce.Do(func() { close(t.events) })
}

// isServerClose reports whether the read error represents a deliberate
// server-side close rather than a network-level drop.
func isServerClose(err error) bool {
	var closeErr *websocket.CloseError
	if !errors.As(err, &closeErr) {
		return false
	}
	switch closeErr.Code {
	case websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.ClosePolicyViolation:
		return true
	default:
		return false
	}
}
