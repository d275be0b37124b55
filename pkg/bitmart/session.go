package bitmart

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/veiloq/bitmart-connector/pkg/logging"
)

// session owns one physical WebSocket connection: its lifecycle, the active
// subscription list, the outbound keepalive, and the decode→dispatch pipeline
// for inbound frames.
//
// Exactly one connection is open at a time. A transport error tears the
// connection down and drives the reconnect policy with the subscription list
// that was active at open time; an explicit close ends the session without
// reconnecting. Channel-level filtering happens in the adapters (client.go),
// not here — the session hands every decoded envelope to its handler.
type session struct {
	url       string
	logger    logging.Logger
	meta      *metadata
	policy    ReconnectPolicy
	heartbeat time.Duration

	mu      sync.Mutex
	conn    *websocket.Conn
	gen     uint64
	subs    []SubscribeRequest
	handler EnvelopeHandler
	closed  bool

	writeMu sync.Mutex
}

var errConnNotOpen = errors.New("connection not open")

func newSession(url string, meta *metadata, policy ReconnectPolicy, heartbeat time.Duration, logger logging.Logger) *session {
	if policy == nil {
		policy = AlwaysReconnect()
	}
	if heartbeat <= 0 {
		heartbeat = 5 * time.Second
	}
	return &session{
		url:       url,
		logger:    logger,
		meta:      meta,
		policy:    policy,
		heartbeat: heartbeat,
	}
}

// open establishes a new connection, replacing any prior one. The symbol-name
// map is populated first; a metadata failure is the only error surfaced to
// the caller. Dial failures follow the transport-error path and feed the
// reconnect policy instead of returning.
//
// Calling open again while a connection is up is not a resubscribe API: it
// tears down the old connection and starts fresh with the new list.
func (s *session) open(ctx context.Context, subs []SubscribeRequest, handler EnvelopeHandler) error {
	if _, err := s.meta.symbolNames(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	s.subs = append([]SubscribeRequest(nil), subs...)
	s.handler = handler
	s.closed = false
	s.teardownLocked()
	s.mu.Unlock()

	if err := s.connect(ctx); err != nil {
		s.logger.Warn("connection failed", logging.Error(err))
		go s.reconnect()
	}
	return nil
}

// connect dials the endpoint, sends every active subscription as its own text
// frame, and starts the keepalive and read pump for the new connection.
func (s *session) connect(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.conn = conn
	s.gen++
	gen := s.gen
	subs := s.subs
	s.mu.Unlock()

	s.logger.Info("connection open")

	for _, sub := range subs {
		if err := s.send(sub); err != nil {
			// The read pump will observe the broken connection and drive
			// the reconnect; nothing more to do here.
			s.logger.Warn("sending subscription failed", logging.Error(err))
			break
		}
	}

	go s.keepalive(conn, gen)
	go s.readPump(conn, gen)
	return nil
}

// add sends additional subscriptions on the open connection. When no
// connection is open the request is logged and dropped: there is no queueing
// and no error to the caller. This fire-and-forget contract is deliberate.
func (s *session) add(subs []SubscribeRequest) {
	s.mu.Lock()
	open := s.conn != nil
	s.mu.Unlock()

	if !open {
		s.logger.Info("cannot add to subscription, connection not open")
		return
	}
	for _, sub := range subs {
		if err := s.send(sub); err != nil {
			s.logger.Warn("sending subscription failed", logging.Error(err))
			return
		}
	}
}

// close gracefully closes the connection if one is open and always clears the
// local handle, making it safe to call repeatedly. No reconnect follows an
// explicit close.
func (s *session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.teardownLocked()
}

// teardownLocked closes and clears the current connection. Callers hold s.mu.
// Bumping the generation detaches the old connection's keepalive and read
// pump so they exit without touching session state.
func (s *session) teardownLocked() {
	if s.conn == nil {
		return
	}
	s.writeMu.Lock()
	_ = s.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	s.writeMu.Unlock()
	_ = s.conn.Close()
	s.conn = nil
	s.gen++
}

// send marshals one subscription request and writes it as a text frame.
func (s *session) send(sub SubscribeRequest) error {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		return errConnNotOpen
	}

	frame, err := json.Marshal(sub)
	if err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return conn.WriteMessage(websocket.TextMessage, frame)
}

// keepalive sends the fixed ping payload every heartbeat interval while the
// connection it was started for is still current. This is a one-way outbound
// heartbeat to prevent server idle timeouts; no pong is expected.
func (s *session) keepalive(conn *websocket.Conn, gen uint64) {
	ticker := time.NewTicker(s.heartbeat)
	defer ticker.Stop()

	ping, _ := json.Marshal(SubscribeRequest{Subscribe: channelPing})

	for range ticker.C {
		s.mu.Lock()
		current := s.gen == gen && s.conn == conn
		s.mu.Unlock()
		if !current {
			return
		}

		s.writeMu.Lock()
		err := conn.WriteMessage(websocket.TextMessage, ping)
		s.writeMu.Unlock()
		if err != nil {
			return
		}
	}
}

// readPump reads frames until the connection dies, decoding each through the
// frame codec and dispatching envelopes to the handler in arrival order.
func (s *session) readPump(conn *websocket.Conn, gen uint64) {
	defer s.afterPump(conn, gen)

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}

		envelope, err := decodeFrame(raw)
		if err != nil {
			s.logger.Error("dropping undecodable frame", logging.Error(err))
			continue
		}
		if envelope == nil {
			s.logger.Debug("empty payload, skipping")
			continue
		}

		s.mu.Lock()
		handler := s.handler
		s.mu.Unlock()
		if handler != nil {
			handler(*envelope)
		}
	}
}

// afterPump runs when the read loop exits. If this connection is still the
// session's current one and the exit was not an explicit close, the transport
// failed and the reconnect policy takes over.
func (s *session) afterPump(conn *websocket.Conn, gen uint64) {
	s.mu.Lock()
	stale := s.gen != gen || s.conn != conn
	if !stale {
		_ = s.conn.Close()
		s.conn = nil
		s.gen++
	}
	closed := s.closed
	s.mu.Unlock()

	if stale {
		return
	}
	if closed {
		s.logger.Info("connection closed")
		return
	}

	s.logger.Warn("connection lost, reconnecting")
	s.reconnect()
}

// reconnect re-opens the session with the subscription list and handler that
// were active before the error, consulting the policy between attempts. The
// default policy retries immediately and forever; errors never surface to the
// caller and never exhaust.
func (s *session) reconnect() {
	for attempt := 1; ; attempt++ {
		delay, retry := s.policy.Next(attempt)
		if !retry {
			s.logger.Error("reconnect attempts exhausted",
				logging.Int("attempts", attempt-1))
			return
		}
		if delay > 0 {
			time.Sleep(delay)
		}

		s.mu.Lock()
		subs := s.subs
		closed := s.closed
		s.mu.Unlock()
		if closed {
			return
		}

		if _, err := s.meta.symbolNames(context.Background()); err != nil {
			s.logger.Warn("reconnect metadata fetch failed", logging.Error(err))
			continue
		}

		s.mu.Lock()
		s.teardownLocked()
		s.subs = subs
		s.mu.Unlock()

		if err := s.connect(context.Background()); err != nil {
			s.logger.Warn("reconnect attempt failed",
				logging.Int("attempt", attempt),
				logging.Error(err))
			continue
		}
		return
	}
}
