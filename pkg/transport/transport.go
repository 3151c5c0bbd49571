// Package transport implements the wire bindings a session can run over:
// line-delimited JSON on stdio, and HTTP+SSE. Both bindings satisfy the
// same Transport contract so pkg/session never needs to know which one
// it's talking through.
package transport

import (
	"context"

	"github.com/richard-senior/mcp/pkg/protocol"
)

// Message is anything that can cross a Transport: a request, a
// notification, or a response. Session decides which based on the
// envelope's shape (see protocol.SniffMessage).
type Message = []byte

// MessageHandler is invoked by a Transport for every inbound message it
// reads off the wire. Implementations must not block the read loop for
// long; session dispatches onto a worker pool.
type MessageHandler func(msg Message)

// Transport is the client-facing (or single-peer) half of the contract:
// connect, send one message, and two shutdown modes. Graceful shutdown
// lets in-flight messages finish; Close tears the connection down hard.
type Transport interface {
	// Connect starts the transport's read loop, delivering every inbound
	// message to handler until the context is cancelled or Close is called.
	Connect(ctx context.Context, handler MessageHandler) error

	// Send writes a single message to the peer.
	Send(ctx context.Context, msg Message) error

	// CloseGracefully waits for in-flight sends to finish, then closes.
	CloseGracefully(ctx context.Context) error

	// Close tears the transport down immediately.
	Close() error
}

// ServerTransport is the listening side of a transport binding: it can
// accept multiple concurrent peers (HTTP+SSE) or exactly one (stdio owns
// its single child-process pipe pair). Each accepted peer is handed to
// the server as its own Transport plus a session id.
type ServerTransport interface {
	// Serve starts accepting peers, calling onSession for each new one.
	// It blocks until ctx is cancelled.
	Serve(ctx context.Context, onSession func(sessionID string, t Transport)) error

	// Broadcast sends msg to every currently connected peer. Used for
	// server-initiated notifications (list-changed, resource-updated)
	// that aren't addressed to one session in particular.
	Broadcast(ctx context.Context, msg Message) error
}
