package transport

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/richard-senior/mcp/internal/logger"
)

// sseSession is one connected SSE peer: the long-lived GET stream that
// carries server->client messages, plus the transport-side queue that
// httpHandler feeds and the stream goroutine drains.
type sseSession struct {
	id     string
	events chan []byte
	done   chan struct{}

	closeOnce sync.Once
}

func newSSESession(id string) *sseSession {
	return &sseSession{
		id:     id,
		events: make(chan []byte, 64),
		done:   make(chan struct{}),
	}
}

func (s *sseSession) Connect(ctx context.Context, handler MessageHandler) error {
	// The SSE session's inbound messages arrive via HTTP POST, routed in
	// by SSEServerTransport.httpHandler; handler is stashed there, not
	// driven from a read loop here.
	return nil
}

func (s *sseSession) Send(ctx context.Context, msg Message) error {
	select {
	case s.events <- msg:
		return nil
	case <-s.done:
		return fmt.Errorf("sse session %s closed", s.id)
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *sseSession) CloseGracefully(ctx context.Context) error {
	return s.Close()
}

func (s *sseSession) Close() error {
	s.closeOnce.Do(func() { close(s.done) })
	return nil
}

// SSEServerTransport implements ServerTransport as an HTTP+SSE pair of
// routes: GET <ssePath> opens the long-lived event stream and hands back
// a session id via the "endpoint" event; POST <messagePath> accepts one
// JSON-RPC message addressed to a session, via either the sessionId query
// parameter (protocol versions before 2025-03-26) or the Mcp-Session-Id
// header (2025-03-26 and later).
type SSEServerTransport struct {
	Addr string

	ssePath     string
	messagePath string

	mu       sync.Mutex
	sessions map[string]*sseSession
	handlers map[string]MessageHandler

	idleTimeout time.Duration
}

// NewSSEServerTransport builds a transport serving its two routes under
// basePath (e.g. "" for root, or "/mcp" to mount under a prefix), bound
// to addr (e.g. ":8080").
func NewSSEServerTransport(addr, basePath string) *SSEServerTransport {
	return &SSEServerTransport{
		Addr:        addr,
		ssePath:     basePath + "/sse",
		messagePath: basePath + "/message",
		sessions:    make(map[string]*sseSession),
		handlers:    make(map[string]MessageHandler),
		idleTimeout: 10 * time.Minute,
	}
}

// Serve registers the two routes on a ServeMux and blocks until ctx is
// cancelled. Two routes don't justify pulling in a router package; a
// third-party mux would only pay for itself with path params or
// middleware chains neither route needs.
func (t *SSEServerTransport) Serve(ctx context.Context, onSession func(sessionID string, tr Transport)) error {
	mux := http.NewServeMux()
	mux.HandleFunc(t.ssePath, func(w http.ResponseWriter, r *http.Request) {
		t.handleSSE(w, r, onSession)
	})
	mux.HandleFunc(t.messagePath, t.handleMessage)

	srv := &http.Server{Addr: t.Addr, Handler: mux}
	go t.cleanupRoutine(ctx)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		// Tell every still-open stream to emit its close event before the
		// HTTP server starts tearing connections down; Shutdown itself
		// only waits for handlers to return, it doesn't signal them.
		t.mu.Lock()
		sessions := make([]*sseSession, 0, len(t.sessions))
		for _, s := range t.sessions {
			sessions = append(sessions, s)
		}
		t.mu.Unlock()
		for _, s := range sessions {
			s.Close()
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

func (t *SSEServerTransport) handleSSE(w http.ResponseWriter, r *http.Request, onSession func(string, Transport)) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	id := uuid.New().String()
	sess := newSSESession(id)

	t.mu.Lock()
	t.sessions[id] = sess
	t.mu.Unlock()
	defer func() {
		t.mu.Lock()
		delete(t.sessions, id)
		delete(t.handlers, id)
		t.mu.Unlock()
		sess.Close()
	}()

	onSession(id, sess)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	// Every event on this stream carries a monotonically increasing id,
	// starting at 0 on the endpoint event, so a reconnecting client could
	// resume via Last-Event-ID.
	var eventID int64

	endpoint := fmt.Sprintf("%s?sessionId=%s", t.messagePath, id)
	fmt.Fprintf(w, "event: endpoint\nid: %d\ndata: %s\n\n", eventID, endpoint)
	flusher.Flush()
	eventID++

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-sess.done:
			fmt.Fprintf(w, "event: close\nid: %d\ndata: {}\n\n", eventID)
			flusher.Flush()
			return
		case msg, ok := <-sess.events:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: message\nid: %d\ndata: %s\n\n", eventID, msg)
			flusher.Flush()
			eventID++
		}
	}
}

func (t *SSEServerTransport) handleMessage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := r.Header.Get("Mcp-Session-Id")
	if id == "" {
		id = r.URL.Query().Get("sessionId")
	}
	if id == "" {
		http.Error(w, "missing session id", http.StatusBadRequest)
		return
	}

	t.mu.Lock()
	handler := t.handlers[id]
	_, known := t.sessions[id]
	t.mu.Unlock()
	if !known {
		http.Error(w, "unknown session", http.StatusNotFound)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, 16*1024*1024))
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(string(body)) == "" {
		http.Error(w, "empty body", http.StatusBadRequest)
		return
	}

	if handler == nil {
		// Handler not yet wired (registered just after onSession callback
		// returns); this is the narrow race between SSE connect and the
		// very first POST. The message is logged and rejected with 503.
		logger.Warn("sse transport: message for session with no handler yet", id)
		http.Error(w, "session not ready", http.StatusServiceUnavailable)
		return
	}

	handler(body)
	w.WriteHeader(http.StatusAccepted)
}

// RegisterHandler wires the session's inbound message handler. Called by
// the server immediately after onSession hands it a Transport, since the
// SSE GET and the session's first POST can race.
func (t *SSEServerTransport) RegisterHandler(sessionID string, handler MessageHandler) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.handlers[sessionID] = handler
}

func (t *SSEServerTransport) Broadcast(ctx context.Context, msg Message) error {
	t.mu.Lock()
	sessions := make([]*sseSession, 0, len(t.sessions))
	for _, s := range t.sessions {
		sessions = append(sessions, s)
	}
	t.mu.Unlock()

	for _, s := range sessions {
		if err := s.Send(ctx, msg); err != nil {
			logger.Warn("sse transport: broadcast to session failed", s.id, err)
		}
	}
	return nil
}

func (t *SSEServerTransport) cleanupRoutine(ctx context.Context) {
	ticker := time.NewTicker(t.idleTimeout)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// Sessions close themselves when their SSE connection drops
			// (ctx.Done in handleSSE). This tick only logs how many
			// sessions are open; it does not close or remove any.
			t.mu.Lock()
			n := len(t.sessions)
			t.mu.Unlock()
			logger.Debug("sse transport: cleanup tick, active sessions", n)
		}
	}
}
