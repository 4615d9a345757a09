// Package chatsocket manages the single live chat connection: connect,
// keep-alive, send, historical-page fetch, and ordered demultiplexing of
// history pages versus live messages.
//
// At most one connection is open per session; switching chats fully closes
// the prior connection before opening the next. Rapid switches are
// serialized by a generation counter checked after every suspension point,
// so a superseded attempt can never leave a second socket open or apply a
// stale history page.
package chatsocket

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/quill-chat/quill/pkg/store"
	"github.com/quill-chat/quill/pkg/toast"
)

// Mode is the session's connection state.
type Mode int32

const (
	ModeIdle Mode = iota
	ModeConnecting
	ModeOpen
	ModeClosing
)

// String returns the string representation of the Mode.
func (m Mode) String() string {
	switch m {
	case ModeIdle:
		return "idle"
	case ModeConnecting:
		return "connecting"
	case ModeOpen:
		return "open"
	case ModeClosing:
		return "closing"
	default:
		return "unknown"
	}
}

// DefaultPingInterval is how often the keep-alive ping is sent while the
// socket stays open.
const DefaultPingInterval = 60 * time.Second

// Wire payload types (§ inbound/outbound protocol).
const (
	typeMessage = "message"
	typeError   = "error"
	typeGetOld  = "get old"
)

type outbound struct {
	Content string `json:"content"`
	Type    string `json:"type"`
}

// Config configures a Session.
type Config struct {
	// BaseURL is the socket endpoint prefix; the connection URL is
	// BaseURL/{userID}/{chatID}/{token}.
	BaseURL string

	// Store receives messages and history pages.
	Store *store.Store

	// Notifier surfaces server error frames to the user.
	Notifier toast.Notifier

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// PingInterval defaults to DefaultPingInterval.
	PingInterval time.Duration

	// Dialer defaults to websocket.DefaultDialer.
	Dialer *websocket.Dialer
}

// Session is the chat socket manager. Public methods never propagate
// transport errors: failures are logged and reported as zero/false values.
type Session struct {
	baseURL      string
	store        *store.Store
	notifier     toast.Notifier
	logger       *slog.Logger
	pingInterval time.Duration
	dialer       *websocket.Dialer

	gen atomic.Uint64 // connection generation, bumped per Open

	mu      sync.Mutex
	mode    Mode
	conn    *websocket.Conn
	connGen uint64 // generation that owns conn

	connecting chan struct{} // non-nil while an Open is establishing
	done       chan struct{} // closed when the read loop has cleaned up

	historyPending bool
	historyOffset  int
	historyGen     uint64 // generation the pending request was issued on
	historyCh      chan int

	writeMu sync.Mutex
}

// New creates a session manager.
func New(cfg Config) *Session {
	s := &Session{
		baseURL:      cfg.BaseURL,
		store:        cfg.Store,
		notifier:     cfg.Notifier,
		logger:       cfg.Logger,
		pingInterval: cfg.PingInterval,
		dialer:       cfg.Dialer,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.pingInterval <= 0 {
		s.pingInterval = DefaultPingInterval
	}
	if s.dialer == nil {
		s.dialer = websocket.DefaultDialer
	}
	return s
}

var (
	defaultMu      sync.Mutex
	defaultSession *Session
)

// Configure installs the process-wide session manager.
func Configure(cfg Config) *Session {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultSession = New(cfg)
	return defaultSession
}

// Default returns the process-wide session manager, or nil before Configure.
func Default() *Session {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	return defaultSession
}

// Reset discards the process-wide session manager. Test harnesses call this
// between cases.
func Reset() {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultSession = nil
}

// Mode returns the current connection mode.
func (s *Session) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// Open tears down any existing connection, dials a new one for the chat,
// waits for the first history page, and reports success. A later Open call
// supersedes one still in flight; the superseded attempt closes its own
// socket and reports false. Ordinary connection failures are logged, never
// thrown.
func (s *Session) Open(ctx context.Context, chatID int, token string) bool {
	gen := s.gen.Add(1)

	s.teardownOlder(gen)
	if gen != s.gen.Load() {
		return false
	}

	user := s.store.GetState().User
	if user == nil || user.ID == 0 {
		s.logger.Error("chatsocket: user id missing, cannot open connection")
		return false
	}

	connecting := make(chan struct{})
	s.mu.Lock()
	s.mode = ModeConnecting
	s.connecting = connecting
	s.mu.Unlock()

	settle := func() {
		s.mu.Lock()
		if s.connecting == connecting {
			s.connecting = nil
		}
		s.mu.Unlock()
		close(connecting)
	}

	url := fmt.Sprintf("%s/%d/%d/%s", s.baseURL, user.ID, chatID, token)
	conn, resp, err := s.dialer.DialContext(ctx, url, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		s.logger.Error("chatsocket: dial failed", "chat_id", chatID, "error", err)
		s.settleIdle()
		settle()
		return false
	}

	if gen != s.gen.Load() {
		// Superseded while dialing; never leave a second live socket.
		conn.Close()
		s.settleIdle()
		settle()
		return false
	}

	done := make(chan struct{})
	s.mu.Lock()
	if gen != s.gen.Load() {
		s.mu.Unlock()
		conn.Close()
		s.settleIdle()
		settle()
		return false
	}
	oldConn := s.conn
	oldDone := s.done
	s.conn = conn
	s.connGen = gen
	s.mode = ModeOpen
	s.done = done
	s.mu.Unlock()

	// An interleaved older connection can still exist when its Open raced
	// past teardownOlder before this attempt installed; retire it now.
	s.shutdown(oldConn, oldDone)

	connectsTotal.Inc()

	go s.readLoop(conn, gen, done)
	go s.pingLoop(conn, done)

	settle()

	s.OldMessages(ctx, 0)
	if gen != s.gen.Load() {
		return false
	}
	return true
}

// settleIdle drops back to idle unless a newer attempt has already
// installed its connection.
func (s *Session) settleIdle() {
	s.mu.Lock()
	if s.conn == nil {
		s.mode = ModeIdle
	}
	s.mu.Unlock()
}

// Close is idempotent: it resolves immediately when no socket exists,
// otherwise it requests a close and waits until the read loop has cleared
// all session-local state, so a subsequent Open starts clean.
func (s *Session) Close() {
	s.mu.Lock()
	conn := s.conn
	done := s.done
	if conn != nil {
		s.mode = ModeClosing
	}
	s.mu.Unlock()

	s.shutdown(conn, done)
}

// teardownOlder closes the current connection only when it belongs to an
// earlier generation. A superseded Open must never tear down the socket a
// later call has already installed.
func (s *Session) teardownOlder(gen uint64) {
	s.mu.Lock()
	if s.conn == nil || s.connGen >= gen {
		s.mu.Unlock()
		return
	}
	conn := s.conn
	done := s.done
	s.mode = ModeClosing
	s.mu.Unlock()

	s.shutdown(conn, done)
}

func (s *Session) shutdown(conn *websocket.Conn, done chan struct{}) {
	if conn == nil {
		return
	}

	deadline := time.Now().Add(time.Second)
	conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
	conn.Close()

	if done != nil {
		<-done
	}
}

// Send transmits a message immediately when the socket is open; otherwise
// the message is dropped with a warning. There is no send queue or retry.
func (s *Session) Send(content, msgType string) {
	s.mu.Lock()
	conn := s.conn
	open := s.mode == ModeOpen
	s.mu.Unlock()

	if conn == nil || !open {
		s.logger.Warn("chatsocket: socket not open, message dropped", "type", msgType)
		return
	}

	payload, err := json.Marshal(outbound{Content: content, Type: msgType})
	if err != nil {
		s.logger.Error("chatsocket: marshal failed", "error", err)
		return
	}
	if err := s.write(conn, payload); err != nil {
		s.logger.Error("chatsocket: send failed", "error", err)
		return
	}
	messagesSent.Inc()
}

// SendMessage sends a plain chat message.
func (s *Session) SendMessage(content string) {
	s.Send(content, typeMessage)
}

// OldMessages waits out any in-flight connection establishment, then
// requests a history page at the offset and returns the number of messages
// it carried. It returns 0 immediately when the socket is not open.
// Callers treat a count below the page size as the end-of-history signal.
//
// History requests are single-slot: a second request while one is pending
// is rejected with a warning rather than silently replacing the first.
func (s *Session) OldMessages(ctx context.Context, offset int) int {
	s.mu.Lock()
	connecting := s.connecting
	s.mu.Unlock()
	if connecting != nil {
		select {
		case <-connecting:
		case <-ctx.Done():
			return 0
		}
	}

	s.mu.Lock()
	if s.conn == nil || s.mode != ModeOpen {
		s.mu.Unlock()
		return 0
	}
	if s.historyPending {
		s.mu.Unlock()
		s.logger.Warn("chatsocket: history request already pending, rejected", "offset", offset)
		return 0
	}
	ch := make(chan int, 1)
	s.historyPending = true
	s.historyOffset = offset
	s.historyGen = s.connGen
	s.historyCh = ch
	conn := s.conn
	s.mu.Unlock()

	payload, _ := json.Marshal(outbound{Content: strconv.Itoa(offset), Type: typeGetOld})
	release := func() {
		s.mu.Lock()
		if s.historyCh == ch {
			s.historyPending = false
			s.historyCh = nil
		}
		s.mu.Unlock()
	}

	if err := s.write(conn, payload); err != nil {
		s.logger.Error("chatsocket: history request failed", "error", err)
		release()
		return 0
	}

	select {
	case n := <-ch:
		return n
	case <-ctx.Done():
		release()
		return 0
	}
}

// write serializes socket writes; gorilla permits one concurrent writer.
func (s *Session) write(conn *websocket.Conn, payload []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return conn.WriteMessage(websocket.TextMessage, payload)
}

// pingLoop sends the keep-alive while the socket remains open. The literal
// "ping" text frame is what the chat server expects.
func (s *Session) pingLoop(conn *websocket.Conn, done chan struct{}) {
	ticker := time.NewTicker(s.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := s.write(conn, []byte("ping")); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

// readLoop reads until the connection drops, demultiplexing inbound
// payloads, then clears all session-local state.
func (s *Session) readLoop(conn *websocket.Conn, gen uint64, done chan struct{}) {
	defer s.cleanup(conn, gen, done)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				s.logger.Error("chatsocket: read error", "error", err)
			}
			return
		}
		s.handleInbound(gen, data)
	}
}

// handleInbound demultiplexes one payload: an array is a history page, a
// single object is a live message or an error frame.
func (s *Session) handleInbound(gen uint64, data []byte) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return
	}

	if trimmed[0] == '[' {
		s.handleHistoryPage(gen, trimmed)
		return
	}

	var msg store.Message
	if err := json.Unmarshal(trimmed, &msg); err != nil {
		s.logger.Error("chatsocket: malformed payload", "error", err)
		return
	}

	switch msg.Type {
	case typeMessage:
		if gen != s.gen.Load() {
			return
		}
		s.store.AddMessage(msg)
		messagesReceived.Inc()

	case typeError:
		// Server-side error frames do not close the connection.
		s.logger.Error("chatsocket: server error frame", "content", msg.Content)
		toast.Error(s.notifier, msg.Content)
		errorFrames.Inc()

	default:
		s.logger.Debug("chatsocket: ignored payload", "type", msg.Type)
	}
}

func (s *Session) handleHistoryPage(gen uint64, data []byte) {
	var batch []store.Message
	if err := json.Unmarshal(data, &batch); err != nil {
		s.logger.Error("chatsocket: malformed history page", "error", err)
		return
	}

	filtered := batch[:0:0]
	for _, m := range batch {
		if m.Type == typeMessage {
			filtered = append(filtered, m)
		}
	}

	s.mu.Lock()
	pending := s.historyPending && s.historyGen == gen
	offset := s.historyOffset
	ch := s.historyCh
	if pending {
		s.historyPending = false
		s.historyCh = nil
	}
	s.mu.Unlock()

	// A page from a superseded connection must never touch the store: the
	// user has navigated to a different chat since it was requested.
	if gen != s.gen.Load() {
		return
	}

	if offset == 0 {
		s.store.SetMessages(filtered)
	} else {
		current := s.store.GetState().Messages
		s.store.SetMessages(append(current, filtered...))
	}
	historyPages.Inc()

	if pending && ch != nil {
		ch <- len(filtered)
	}
}

// cleanup clears connection-local state so a subsequent Open starts clean,
// resolving any pending history waiter with 0. A retired connection only
// touches state its own generation still owns.
func (s *Session) cleanup(conn *websocket.Conn, gen uint64, done chan struct{}) {
	conn.Close()

	s.mu.Lock()
	if s.conn == conn {
		s.conn = nil
		s.mode = ModeIdle
	}
	pending := s.historyPending && s.historyGen == gen
	ch := s.historyCh
	if pending {
		s.historyPending = false
		s.historyCh = nil
		s.historyOffset = 0
	}
	s.mu.Unlock()

	if pending && ch != nil {
		ch <- 0
	}
	close(done)
}
