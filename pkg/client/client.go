// Package client implements the client half of an MCP connection: the
// initialize handshake, and the handlers a host program registers to
// answer server-initiated requests (sampling, roots) and notifications.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/richard-senior/mcp/internal/logger"
	"github.com/richard-senior/mcp/pkg/protocol"
	"github.com/richard-senior/mcp/pkg/session"
	"github.com/richard-senior/mcp/pkg/transport"
)

// SamplingHandler answers a sampling/createMessage request from the
// server: given the requested messages, produce the assistant's reply.
type SamplingHandler func(ctx context.Context, req protocol.CreateMessageParams) (*protocol.CreateMessageResult, error)

// Client is one connection to an MCP server, over any Transport.
type Client struct {
	info protocol.Implementation

	sess *session.Session

	mu           sync.RWMutex
	capabilities protocol.ServerCapabilities
	serverInfo   protocol.Implementation

	roots           *RootsRegistry
	samplingHandler SamplingHandler
}

// New builds a Client identifying itself to servers as name/version.
func New(name, version string) *Client {
	return &Client{
		info:  protocol.Implementation{Name: name, Version: version},
		roots: NewRootsRegistry(),
	}
}

// SetSamplingHandler registers the function that answers
// sampling/createMessage requests. Until one is set, the client declares
// no sampling capability and such requests fail with METHOD_NOT_FOUND.
func (c *Client) SetSamplingHandler(h SamplingHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.samplingHandler = h
}

// Connect starts the session over t and performs the initialize
// handshake, blocking until the server responds.
func (c *Client) Connect(ctx context.Context, t transport.Transport) error {
	c.sess = session.New("cli", t, 0)
	c.bindHandlers()

	if err := c.sess.Start(ctx); err != nil {
		return fmt.Errorf("client: starting session: %w", err)
	}

	caps := protocol.ClientCapabilities{}
	if !c.roots.Empty() {
		caps.Roots = &protocol.ListChanged{ListChanged: true}
	}
	c.mu.RLock()
	hasSampling := c.samplingHandler != nil
	c.mu.RUnlock()
	if hasSampling {
		caps.Sampling = &struct{}{}
	}

	var result protocol.InitializeResult
	if err := c.sess.SendRequestJSON(ctx, string(protocol.MethodInitialize), protocol.InitializeParams{
		ProtocolVersion: protocol.DefaultProtocolVersion,
		Capabilities:    caps,
		ClientInfo:      c.info,
	}, &result); err != nil {
		return fmt.Errorf("client: initialize: %w", err)
	}

	c.mu.Lock()
	c.capabilities = result.Capabilities
	c.serverInfo = result.ServerInfo
	c.mu.Unlock()

	return c.sess.SendNotification(ctx, string(protocol.NotificationInitialized), nil)
}

func (c *Client) bindHandlers() {
	c.sess.SetRequestHandler(string(protocol.MethodSamplingCreateMessage), c.handleCreateMessage)
	c.sess.SetRequestHandler(string(protocol.MethodRootsList), c.handleRootsList)
	c.sess.SetRequestHandler(string(protocol.MethodPing), func(ctx context.Context, params json.RawMessage) (any, error) {
		return protocol.EmptyResult{}, nil
	})

	c.sess.SetNotificationHandler(string(protocol.NotificationToolsListChanged), func(ctx context.Context, params json.RawMessage) {
		logger.Debug("server tool list changed")
	})
	c.sess.SetNotificationHandler(string(protocol.NotificationResourcesListChanged), func(ctx context.Context, params json.RawMessage) {
		logger.Debug("server resource list changed")
	})
	c.sess.SetNotificationHandler(string(protocol.NotificationResourceUpdated), func(ctx context.Context, params json.RawMessage) {
		logger.Debug("server resource updated")
	})
	c.sess.SetNotificationHandler(string(protocol.NotificationPromptsListChanged), func(ctx context.Context, params json.RawMessage) {
		logger.Debug("server prompt list changed")
	})
	c.sess.SetNotificationHandler(string(protocol.NotificationMessage), func(ctx context.Context, params json.RawMessage) {
		var msg protocol.LoggingMessageParams
		if err := json.Unmarshal(params, &msg); err == nil {
			logger.Info("server log:", msg.Level, msg.Data)
		}
	})
}

func (c *Client) handleCreateMessage(ctx context.Context, params json.RawMessage) (any, error) {
	c.mu.RLock()
	handler := c.samplingHandler
	c.mu.RUnlock()
	if handler == nil {
		return nil, &protocol.JsonRpcError{
			Code:    protocol.ErrMethodNotFound,
			Message: "method not found: " + string(protocol.MethodSamplingCreateMessage),
		}
	}
	var req protocol.CreateMessageParams
	if err := json.Unmarshal(params, &req); err != nil {
		return nil, fmt.Errorf("invalid sampling/createMessage params: %w", err)
	}
	return handler(ctx, req)
}

// handleRootsList answers a server's inbound roots/list request. A client
// that never registered any root never declared the roots capability
// during initialize (see Connect), so it must reject the request the same
// way an unregistered method would, carrying the reason a server can log
// or surface to whoever's driving it.
func (c *Client) handleRootsList(ctx context.Context, params json.RawMessage) (any, error) {
	if c.roots.Empty() {
		return nil, &protocol.JsonRpcError{
			Code:    protocol.ErrMethodNotFound,
			Message: "method not found: " + string(protocol.MethodRootsList),
			Data:    map[string]string{"reason": "Client does not have roots capability"},
		}
	}
	return protocol.ListRootsResult{Roots: c.roots.List()}, nil
}

// Roots exposes the registry of filesystem/URI roots this client
// advertises to servers.
func (c *Client) Roots() *RootsRegistry { return c.roots }

// ServerCapabilities returns the capabilities the server declared during
// initialize. Calling tools/list, resources/*, or prompts/* against a
// server that didn't declare the matching capability will simply fail
// with METHOD_NOT_FOUND; this is a convenience for callers that want to
// check first.
func (c *Client) ServerCapabilities() protocol.ServerCapabilities {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.capabilities
}

// ServerInfo returns the server's declared name/version.
func (c *Client) ServerInfo() protocol.Implementation {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.serverInfo
}

// ListTools calls tools/list.
func (c *Client) ListTools(ctx context.Context) (*protocol.ListToolsResult, error) {
	var result protocol.ListToolsResult
	if err := c.sess.SendRequestJSON(ctx, string(protocol.MethodToolsList), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// CallTool calls tools/call.
func (c *Client) CallTool(ctx context.Context, name string, args map[string]any) (*protocol.CallToolResult, error) {
	var result protocol.CallToolResult
	params := protocol.CallToolParams{Name: name, Arguments: args}
	if err := c.sess.SendRequestJSON(ctx, string(protocol.MethodToolsCall), params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListResources calls resources/list.
func (c *Client) ListResources(ctx context.Context) (*protocol.ListResourcesResult, error) {
	var result protocol.ListResourcesResult
	if err := c.sess.SendRequestJSON(ctx, string(protocol.MethodResourcesList), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ReadResource calls resources/read.
func (c *Client) ReadResource(ctx context.Context, uri string) (*protocol.ReadResourceResult, error) {
	var result protocol.ReadResourceResult
	if err := c.sess.SendRequestJSON(ctx, string(protocol.MethodResourcesRead), protocol.ReadResourceParams{URI: uri}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListPrompts calls prompts/list.
func (c *Client) ListPrompts(ctx context.Context) (*protocol.ListPromptsResult, error) {
	var result protocol.ListPromptsResult
	if err := c.sess.SendRequestJSON(ctx, string(protocol.MethodPromptsList), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetPrompt calls prompts/get.
func (c *Client) GetPrompt(ctx context.Context, name string, args map[string]string) (*protocol.GetPromptResult, error) {
	var result protocol.GetPromptResult
	params := protocol.GetPromptParams{Name: name, Arguments: args}
	if err := c.sess.SendRequestJSON(ctx, string(protocol.MethodPromptsGet), params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Close tears the connection down immediately.
func (c *Client) Close() error { return c.sess.Close() }

// CloseGracefully waits for in-flight calls to settle before closing.
func (c *Client) CloseGracefully(ctx context.Context) error { return c.sess.CloseGracefully(ctx) }
