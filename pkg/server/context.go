package server

import (
	"context"

	"github.com/richard-senior/mcp/pkg/protocol"
)

// ToolContext is injected into a ToolHandler/ResourceHandler/PromptHandler
// alongside its declared arguments, carrying everything about the call
// that isn't itself a JSON-Schema argument: the request context, which
// session issued the call, and the means to make a server-initiated
// request back to that session's client (sampling, roots).
type ToolContext struct {
	context.Context

	SessionID string

	session serverPeer
}

// serverPeer is the subset of *Session a ToolContext needs, kept as a
// narrow interface so pkg/server doesn't have to import pkg/session just
// to shape this type.
type serverPeer interface {
	SendRequestJSON(ctx context.Context, method string, params any, out any) error
}

// RequestSampling asks the connected client to sample from its LLM on
// this server's behalf, per the sampling/createMessage request.
func (c *ToolContext) RequestSampling(params protocol.CreateMessageParams) (*protocol.CreateMessageResult, error) {
	var result protocol.CreateMessageResult
	if err := c.session.SendRequestJSON(c.Context, "sampling/createMessage", params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListClientRoots asks the connected client which filesystem/URI roots it
// has exposed, per the roots/list request.
func (c *ToolContext) ListClientRoots() (*protocol.ListRootsResult, error) {
	var result protocol.ListRootsResult
	if err := c.session.SendRequestJSON(c.Context, "roots/list", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
