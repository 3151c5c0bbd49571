// Package session implements the peer-to-peer correlation layer shared by
// both ends of an MCP connection: matching outbound requests to their
// eventual responses, dispatching inbound requests/notifications to
// registered handlers, and running handlers on a bounded worker pool so a
// slow tool call can never stall the transport's read loop.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/richard-senior/mcp/internal/logger"
	"github.com/richard-senior/mcp/pkg/protocol"
	"github.com/richard-senior/mcp/pkg/transport"
)

// RequestHandler answers one inbound request, returning either a result
// (marshalled as the response's "result") or an error mapped onto a
// JSON-RPC error response.
type RequestHandler func(ctx context.Context, params json.RawMessage) (any, error)

// NotificationHandler reacts to one inbound notification. No response is
// ever sent, so there is nothing to return.
type NotificationHandler func(ctx context.Context, params json.RawMessage)

// pendingCall is one outstanding SendRequest awaiting its response.
type pendingCall struct {
	resultCh chan *protocol.JsonRpcResponse
}

// Session correlates JSON-RPC traffic over a single Transport. The same
// type backs both a server's per-client session and a client's connection
// to one server; which methods it's allowed to dispatch is governed by
// the capability gate installed via SetRequestHandler, not by Session
// itself.
type Session struct {
	id        string
	transport transport.Transport

	idPrefix string
	nextID   int64

	mu      sync.Mutex
	pending map[string]*pendingCall

	requestHandlers      map[string]RequestHandler
	notificationHandlers map[string]NotificationHandler

	defaultTimeout time.Duration

	workers chan struct{} // bounded worker pool

	closeOnce sync.Once
	closed    chan struct{}
}

// New builds a Session with the given id (used as a prefix for outbound
// request ids, and as the session's identity in logs) over t. maxWorkers
// bounds how many inbound requests/notifications are dispatched
// concurrently; 0 selects a sensible default.
func New(id string, t transport.Transport, maxWorkers int) *Session {
	if maxWorkers <= 0 {
		maxWorkers = 32
	}
	return &Session{
		id:                   id,
		transport:            t,
		idPrefix:             id,
		pending:              make(map[string]*pendingCall),
		requestHandlers:      make(map[string]RequestHandler),
		notificationHandlers: make(map[string]NotificationHandler),
		defaultTimeout:       30 * time.Second,
		workers:              make(chan struct{}, maxWorkers),
		closed:               make(chan struct{}),
	}
}

// ID returns the session's identity.
func (s *Session) ID() string { return s.id }

// SetRequestHandler registers the handler invoked for inbound requests
// with the given method. Call before Start, or after under the same
// lock discipline as registries elsewhere in this module (the map isn't
// touched once Start's dispatch loop begins reading it concurrently with
// writes, so callers should finish registering before traffic arrives).
func (s *Session) SetRequestHandler(method string, h RequestHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requestHandlers[method] = h
}

// SetNotificationHandler registers the handler invoked for inbound
// notifications with the given method.
func (s *Session) SetNotificationHandler(method string, h NotificationHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notificationHandlers[method] = h
}

// Start connects the underlying transport and begins dispatching inbound
// messages. It returns once the transport's Connect call has launched its
// read loop; Start does not block.
func (s *Session) Start(ctx context.Context) error {
	return s.transport.Connect(ctx, func(msg transport.Message) {
		s.HandleMessage(ctx, msg)
	})
}

// HandleMessage processes one inbound message. Transports that drive
// delivery themselves (stdio's read loop, via Connect) never need to call
// this directly; transports whose peer half is push-based (HTTP+SSE,
// where each message arrives as its own POST) call it from their own
// per-request handler instead of relying on Connect's read loop.
func (s *Session) HandleMessage(ctx context.Context, msg []byte) {
	kind, err := protocol.SniffMessage(msg)
	if err != nil {
		logger.Warn("session: malformed message", s.id, err)
		return
	}

	switch kind {
	case protocol.KindResponse:
		s.handleResponse(msg)
	case protocol.KindRequest:
		s.dispatch(ctx, func() { s.handleRequest(ctx, msg) })
	case protocol.KindNotification:
		s.dispatch(ctx, func() { s.handleNotification(ctx, msg) })
	default:
		logger.Warn("session: unrecognized message shape", s.id)
	}
}

// dispatch runs fn on the bounded worker pool. The pool, not an
// unbounded goroutine per message, keeps a burst of inbound traffic from
// exhausting memory; a full pool simply delays fn rather than dropping it.
func (s *Session) dispatch(ctx context.Context, fn func()) {
	select {
	case s.workers <- struct{}{}:
	case <-s.closed:
		return
	case <-ctx.Done():
		return
	}
	go func() {
		defer func() { <-s.workers }()
		fn()
	}()
}

func (s *Session) handleResponse(msg []byte) {
	resp, err := protocol.ParseJsonRpcResponse(msg)
	if err != nil {
		logger.Warn("session: bad response", s.id, err)
		return
	}
	key := fmt.Sprint(resp.ID)

	s.mu.Lock()
	call, ok := s.pending[key]
	if ok {
		delete(s.pending, key)
	}
	s.mu.Unlock()

	if !ok {
		logger.Warn("session: response for unknown request id", s.id, key)
		return
	}
	call.resultCh <- resp
}

func (s *Session) handleRequest(ctx context.Context, msg []byte) {
	req, err := protocol.ParseJsonRpcRequest(msg)
	if err != nil {
		s.sendError(nil, protocol.ErrParse, "parse error: "+err.Error(), nil)
		return
	}

	s.mu.Lock()
	handler, ok := s.requestHandlers[req.Method]
	s.mu.Unlock()

	if !ok {
		s.sendError(req.ID, protocol.ErrMethodNotFound, "method not found: "+req.Method, nil)
		return
	}

	result, err := handler(ctx, req.Params)
	if err != nil {
		var rpcErr *protocol.JsonRpcError
		if errors.As(err, &rpcErr) {
			s.sendError(req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
			return
		}
		s.sendError(req.ID, protocol.ErrInternal, err.Error(), nil)
		return
	}

	resp, err := protocol.NewJsonRpcResponse(result, req.ID)
	if err != nil {
		s.sendError(req.ID, protocol.ErrInternal, "failed to marshal result: "+err.Error(), nil)
		return
	}
	s.send(resp)
}

func (s *Session) handleNotification(ctx context.Context, msg []byte) {
	req, err := protocol.ParseJsonRpcRequest(msg)
	if err != nil {
		logger.Warn("session: bad notification", s.id, err)
		return
	}

	s.mu.Lock()
	handler, ok := s.notificationHandlers[req.Method]
	s.mu.Unlock()

	if !ok {
		logger.Debug("session: no handler for notification", req.Method)
		return
	}
	handler(ctx, req.Params)
}

// sendError sends a JSON-RPC error response. data carries optional
// structured detail (e.g. {"reason": "..."}) per JsonRpcError.Data; pass
// nil when there's nothing beyond the message to report.
func (s *Session) sendError(id protocol.RequestId, code int, message string, data any) {
	resp := protocol.NewJsonRpcErrorResponse(code, message, data, id)
	s.send(resp)
}

func (s *Session) send(resp *protocol.JsonRpcResponse) {
	data, err := json.Marshal(resp)
	if err != nil {
		logger.Warn("session: failed to marshal outbound response", s.id, err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.transport.Send(ctx, data); err != nil {
		logger.Warn("session: failed to send response", s.id, err)
	}
}

// nextRequestID returns a monotonically increasing, session-scoped id of
// the form "<prefix>-<n>".
func (s *Session) nextRequestID() string {
	n := atomic.AddInt64(&s.nextID, 1)
	return fmt.Sprintf("%s-%d", s.idPrefix, n)
}

// SendRequest sends method/params as a request and blocks until the
// matching response arrives, ctx is cancelled, or timeout elapses
// (timeout <= 0 uses the session default).
func (s *Session) SendRequest(ctx context.Context, method string, params any, timeout time.Duration) (*protocol.JsonRpcResponse, error) {
	if timeout <= 0 {
		timeout = s.defaultTimeout
	}
	id := s.nextRequestID()
	req, err := protocol.NewJsonRpcRequest(method, params, id)
	if err != nil {
		return nil, fmt.Errorf("session: building request: %w", err)
	}

	call := &pendingCall{resultCh: make(chan *protocol.JsonRpcResponse, 1)}
	s.mu.Lock()
	s.pending[id] = call
	s.mu.Unlock()

	data, err := json.Marshal(req)
	if err != nil {
		s.forgetPending(id)
		return nil, fmt.Errorf("session: marshalling request: %w", err)
	}

	sendCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := s.transport.Send(sendCtx, data); err != nil {
		s.forgetPending(id)
		return nil, fmt.Errorf("session: sending request: %w", err)
	}

	select {
	case resp := <-call.resultCh:
		return resp, nil
	case <-time.After(timeout):
		s.forgetPending(id)
		return nil, fmt.Errorf("session: request %s timed out after %s", method, timeout)
	case <-ctx.Done():
		s.forgetPending(id)
		return nil, ctx.Err()
	case <-s.closed:
		s.forgetPending(id)
		return nil, fmt.Errorf("session: closed while awaiting response to %s", method)
	}
}

// SendRequestJSON is SendRequest plus result unmarshalling: a convenience
// for callers (tool handlers reaching back into the client for sampling
// or roots) that don't want to juggle the raw envelope themselves.
func (s *Session) SendRequestJSON(ctx context.Context, method string, params any, out any) error {
	resp, err := s.SendRequest(ctx, method, params, 0)
	if err != nil {
		return err
	}
	if resp.Error != nil {
		return resp.Error
	}
	if out == nil || len(resp.Result) == 0 {
		return nil
	}
	return json.Unmarshal(resp.Result, out)
}

func (s *Session) forgetPending(id string) {
	s.mu.Lock()
	delete(s.pending, id)
	s.mu.Unlock()
}

// SendNotification sends method/params with no id and does not wait for
// any reply, per JSON-RPC notification semantics.
func (s *Session) SendNotification(ctx context.Context, method string, params any) error {
	note, err := protocol.NewJsonRpcNotification(method, params)
	if err != nil {
		return fmt.Errorf("session: building notification: %w", err)
	}
	data, err := json.Marshal(note)
	if err != nil {
		return fmt.Errorf("session: marshalling notification: %w", err)
	}
	return s.transport.Send(ctx, data)
}

// CloseGracefully lets in-flight handlers finish, then tears the session
// down. Any pending SendRequest calls are released with an error.
func (s *Session) CloseGracefully(ctx context.Context) error {
	// Holding every worker slot means no handler is still running.
drain:
	for i := 0; i < cap(s.workers); i++ {
		select {
		case s.workers <- struct{}{}:
		case <-ctx.Done():
			break drain
		}
	}
	err := s.transport.CloseGracefully(ctx)
	s.markClosed()
	return err
}

// Close tears the session down immediately.
func (s *Session) Close() error {
	err := s.transport.Close()
	s.markClosed()
	return err
}

func (s *Session) markClosed() {
	s.closeOnce.Do(func() { close(s.closed) })
}
