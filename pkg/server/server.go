// Package server implements the server half of an MCP connection: the
// initialize handshake, capability-gated method dispatch, and the
// tool/resource/prompt registries a host program populates before
// calling Serve.
package server

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/richard-senior/mcp/internal/logger"
	"github.com/richard-senior/mcp/pkg/protocol"
	"github.com/richard-senior/mcp/pkg/session"
	"github.com/richard-senior/mcp/pkg/transport"
)

// Server holds one program's worth of registered tools, resources and
// prompts, and binds them onto however many sessions a transport hands
// it. A stdio server serves exactly one session for its whole lifetime;
// an HTTP+SSE server spins up a fresh one per connected peer.
type Server struct {
	info         protocol.Implementation
	instructions string
	registry     *registry
	subs         *subscriptions

	resourcesSubscribable bool
}

// New builds a Server advertising name/version as its serverInfo.
func New(name, version string) *Server {
	return &Server{
		info:     protocol.Implementation{Name: name, Version: version},
		registry: newRegistry(),
		subs:     newSubscriptions(),
	}
}

// SetInstructions sets the free-text instructions returned in the
// initialize result, telling the client how to make best use of this
// server.
func (s *Server) SetInstructions(text string) { s.instructions = text }

// EnableResourceSubscriptions advertises resources.subscribe support and
// binds resources/subscribe and resources/unsubscribe, which track each
// session's subscribed URIs; updates are then sent with
// NotifyResourceUpdated.
func (s *Server) EnableResourceSubscriptions() { s.resourcesSubscribable = true }

// RegisterTool adds one callable tool.
func (s *Server) RegisterTool(tool protocol.Tool, handler ToolHandler) {
	s.registry.registerTool(tool, handler)
	logger.Info("registered tool:", tool.Name)
}

// ListTools returns every tool registered so far, in registration order.
func (s *Server) ListTools() []protocol.Tool { return s.registry.listTools() }

// RegisterResource adds one literal, readable resource.
func (s *Server) RegisterResource(res protocol.Resource, handler ResourceHandler) {
	s.registry.registerResource(res, handler)
	logger.Info("registered resource:", res.URI)
}

// RegisterResourceTemplate adds a URI template; concrete reads against a
// matching URI are routed to handler with the template's variables bound.
func (s *Server) RegisterResourceTemplate(tmpl protocol.ResourceTemplate, handler ResourceHandler) error {
	if err := s.registry.registerResourceTemplate(tmpl, handler); err != nil {
		return err
	}
	logger.Info("registered resource template:", tmpl.URITemplate)
	return nil
}

// RegisterPrompt adds one prompt template.
func (s *Server) RegisterPrompt(p protocol.Prompt, handler PromptHandler) {
	s.registry.registerPrompt(p, handler)
	logger.Info("registered prompt:", p.Name)
}

// ListPrompts returns every prompt registered so far, in registration order.
func (s *Server) ListPrompts() []protocol.Prompt { return s.registry.listPrompts() }

// ListResources returns every literal resource registered so far, in
// registration order.
func (s *Server) ListResources() []protocol.Resource { return s.registry.listResources() }

// RegisterCompletion adds the handler answering completion/complete for
// one argument of ref (a prompt's declared argument, or a resource
// template's RFC 6570 variable).
func (s *Server) RegisterCompletion(ref protocol.CompleteReference, argument string, handler CompletionHandler) {
	s.registry.registerCompletion(ref, argument, handler)
	logger.Info("registered completion:", ref.Type, argument)
}

// capabilities reports what this server currently supports, per
// spec's rule that a capability's mere presence (even as an empty
// object) is what enables its methods; an absent key means the matching
// methods respond METHOD_NOT_FOUND. bindHandlers assembles its
// per-session dispatch table from exactly this, so a capability left out
// here never gets a wire-reachable handler either.
func (s *Server) capabilities() protocol.ServerCapabilities {
	caps := protocol.ServerCapabilities{
		Logging: &struct{}{},
	}
	if s.registry.hasTools() {
		caps.Tools = &protocol.ListChanged{ListChanged: true}
	}
	if s.registry.hasResources() {
		caps.Resources = &protocol.ResourcesCapability{
			Subscribe:   s.resourcesSubscribable,
			ListChanged: true,
		}
	}
	if s.registry.hasPrompts() {
		caps.Prompts = &protocol.ListChanged{ListChanged: true}
	}
	if s.registry.hasCompletions() {
		caps.Completions = &struct{}{}
	}
	return caps
}

// ServeStdio runs a single session over stdin/stdout until ctx is
// cancelled. EOF on stdin ends the transport's read loop but does not
// return from ServeStdio.
func (s *Server) ServeStdio(ctx context.Context, t transport.Transport) error {
	sess := session.New("srv-stdio", t, 0)
	s.bindHandlers(sess)
	if err := sess.Start(ctx); err != nil {
		return fmt.Errorf("server: starting stdio session: %w", err)
	}
	<-ctx.Done()
	return sess.CloseGracefully(context.Background())
}

// ServeHTTP runs an HTTP+SSE ServerTransport, binding a fresh Session to
// every peer it accepts, until ctx is cancelled.
func (s *Server) ServeHTTP(ctx context.Context, st transport.ServerTransport) error {
	registerer, ok := st.(interface {
		RegisterHandler(sessionID string, handler transport.MessageHandler)
	})

	return st.Serve(ctx, func(sessionID string, t transport.Transport) {
		sess := session.New(sessionID, t, 0)
		s.bindHandlers(sess)
		if err := sess.Start(ctx); err != nil {
			logger.Warn("server: session start failed", sessionID, err)
		}
		if ok {
			// SSE's peer half is push-based: each inbound message is its
			// own HTTP POST, not something a Connect-installed read loop
			// pulls off a stream. Route those POSTs straight into the
			// session's dispatcher instead.
			registerer.RegisterHandler(sessionID, func(msg transport.Message) {
				sess.HandleMessage(ctx, msg)
			})
		}
	})
}

// bindHandlers assembles the session's request-handler table from exactly
// what capabilities() reports: a capability this server never declared
// gets no handler bound for its methods at all, so they fall straight
// through to session's own METHOD_NOT_FOUND rather than relying on each
// handler to self-guard.
func (s *Server) bindHandlers(sess *session.Session) {
	sess.SetRequestHandler(string(protocol.MethodInitialize), s.handleInitialize)
	sess.SetRequestHandler(string(protocol.MethodPing), s.handlePing)

	caps := s.capabilities()

	if caps.Tools != nil {
		sess.SetRequestHandler(string(protocol.MethodToolsList), s.handleToolsList)
		sess.SetRequestHandler(string(protocol.MethodToolsCall), s.handleToolsCall(sess))
	}
	if caps.Resources != nil {
		sess.SetRequestHandler(string(protocol.MethodResourcesList), s.handleResourcesList)
		sess.SetRequestHandler(string(protocol.MethodResourcesTemplatesList), s.handleResourceTemplatesList)
		sess.SetRequestHandler(string(protocol.MethodResourcesRead), s.handleResourcesRead(sess))
		if caps.Resources.Subscribe {
			sess.SetRequestHandler(string(protocol.MethodResourcesSubscribe), s.handleResourcesSubscribe(sess))
			sess.SetRequestHandler(string(protocol.MethodResourcesUnsubscribe), s.handleResourcesUnsubscribe(sess))
		}
	}
	if caps.Prompts != nil {
		sess.SetRequestHandler(string(protocol.MethodPromptsList), s.handlePromptsList)
		sess.SetRequestHandler(string(protocol.MethodPromptsGet), s.handlePromptsGet(sess))
	}
	if caps.Completions != nil {
		sess.SetRequestHandler(string(protocol.MethodCompletionComplete), s.handleComplete)
	}
	if caps.Logging != nil {
		sess.SetRequestHandler(string(protocol.MethodLoggingSetLevel), s.handleSetLevel)
	}

	sess.SetNotificationHandler(string(protocol.NotificationInitialized), s.handleInitialized)
	sess.SetNotificationHandler(string(protocol.NotificationCancelled), s.handleCancelled)
}

func (s *Server) handleInitialize(ctx context.Context, params json.RawMessage) (any, error) {
	var req protocol.InitializeParams
	if len(params) > 0 {
		if err := json.Unmarshal(params, &req); err != nil {
			return nil, fmt.Errorf("invalid initialize params: %w", err)
		}
	}

	version := protocol.NegotiateProtocolVersion(req.ProtocolVersion)
	logger.Info("initialize: client", req.ClientInfo.Name, req.ClientInfo.Version, "protocol", version)

	return protocol.InitializeResult{
		ProtocolVersion: version,
		Capabilities:    s.capabilities(),
		ServerInfo:      s.info,
		Instructions:    s.instructions,
	}, nil
}

func (s *Server) handleInitialized(ctx context.Context, params json.RawMessage) {
	logger.Debug("client acknowledged initialization")
}

func (s *Server) handleCancelled(ctx context.Context, params json.RawMessage) {
	logger.Debug("request cancelled by peer")
}

func (s *Server) handlePing(ctx context.Context, params json.RawMessage) (any, error) {
	return protocol.EmptyResult{}, nil
}

func (s *Server) handleToolsList(ctx context.Context, params json.RawMessage) (any, error) {
	return protocol.ListToolsResult{Tools: s.registry.listTools()}, nil
}

func (s *Server) handleToolsCall(sess *session.Session) session.RequestHandler {
	return func(ctx context.Context, params json.RawMessage) (any, error) {
		var req protocol.CallToolParams
		if err := json.Unmarshal(params, &req); err != nil {
			return nil, fmt.Errorf("invalid tools/call params: %w", err)
		}

		entry, ok := s.registry.tool(req.Name)
		if !ok {
			return protocol.NewToolResultError(fmt.Sprintf("unknown tool: %s", req.Name)), nil
		}

		tc := &ToolContext{Context: ctx, SessionID: sess.ID(), session: sess}
		result, err := entry.handler(tc, req.Arguments)
		if err != nil {
			// A handler's Go error becomes a tool-level failure, not a
			// JSON-RPC error: the call was dispatched fine, the tool
			// itself failed (spec §4.8 point 3).
			return protocol.NewToolResultError(err.Error()), nil
		}
		return result, nil
	}
}

func (s *Server) handleResourcesList(ctx context.Context, params json.RawMessage) (any, error) {
	return protocol.ListResourcesResult{Resources: s.registry.listResources()}, nil
}

func (s *Server) handleResourceTemplatesList(ctx context.Context, params json.RawMessage) (any, error) {
	return protocol.ListResourceTemplatesResult{ResourceTemplates: s.registry.listResourceTemplates()}, nil
}

func (s *Server) handleResourcesRead(sess *session.Session) session.RequestHandler {
	return func(ctx context.Context, params json.RawMessage) (any, error) {
		var req protocol.ReadResourceParams
		if err := json.Unmarshal(params, &req); err != nil {
			return nil, fmt.Errorf("invalid resources/read params: %w", err)
		}

		handler, uriParams, ok := s.registry.resolveResource(req.URI)
		if !ok {
			return nil, fmt.Errorf("%w: no resource matches %q", errResourceNotFound, req.URI)
		}

		tc := &ToolContext{Context: ctx, SessionID: sess.ID(), session: sess}
		return handler(tc, req.URI, uriParams)
	}
}

func (s *Server) handlePromptsList(ctx context.Context, params json.RawMessage) (any, error) {
	return protocol.ListPromptsResult{Prompts: s.registry.listPrompts()}, nil
}

func (s *Server) handlePromptsGet(sess *session.Session) session.RequestHandler {
	return func(ctx context.Context, params json.RawMessage) (any, error) {
		var req protocol.GetPromptParams
		if err := json.Unmarshal(params, &req); err != nil {
			return nil, fmt.Errorf("invalid prompts/get params: %w", err)
		}

		entry, ok := s.registry.prompt(req.Name)
		if !ok {
			return nil, fmt.Errorf("%w: %q", errPromptNotFound, req.Name)
		}

		for _, arg := range entry.prompt.Arguments {
			if arg.Required {
				if _, has := req.Arguments[arg.Name]; !has {
					return nil, fmt.Errorf("%w: missing required argument %q", errInvalidArguments, arg.Name)
				}
			}
		}

		tc := &ToolContext{Context: ctx, SessionID: sess.ID(), session: sess}
		return entry.handler(tc, req.Arguments)
	}
}

// handleComplete answers completion/complete. The reference is validated
// before any handler runs: a prompt ref's argument must be one the prompt
// actually declares, and a resource ref's argument must name one of the
// matching template's RFC 6570 variables. Only once that holds does a
// registered CompletionHandler, if any, get asked for candidates.
func (s *Server) handleComplete(ctx context.Context, params json.RawMessage) (any, error) {
	var req protocol.CompleteParams
	if err := json.Unmarshal(params, &req); err != nil {
		return nil, fmt.Errorf("invalid completion/complete params: %w", err)
	}

	switch req.Ref.Type {
	case "ref/prompt":
		entry, ok := s.registry.prompt(req.Ref.Name)
		if !ok {
			return nil, fmt.Errorf("%w: %q", errPromptNotFound, req.Ref.Name)
		}
		known := false
		for _, arg := range entry.prompt.Arguments {
			if arg.Name == req.Argument.Name {
				known = true
				break
			}
		}
		if !known {
			return nil, fmt.Errorf("%w: prompt %q has no argument %q", errInvalidArguments, req.Ref.Name, req.Argument.Name)
		}
	case "ref/resource":
		entry, ok := s.registry.resourceTemplateByURI(req.Ref.URI)
		if !ok {
			return nil, fmt.Errorf("%w: no resource template matches %q", errResourceNotFound, req.Ref.URI)
		}
		known := false
		for _, v := range entry.matcher.vars {
			if v == req.Argument.Name {
				known = true
				break
			}
		}
		if !known {
			return nil, fmt.Errorf("%w: template %q has no variable %q", errInvalidArguments, req.Ref.URI, req.Argument.Name)
		}
	default:
		return nil, fmt.Errorf("%w: unknown reference type %q", errInvalidArguments, req.Ref.Type)
	}

	var values []string
	if handler, ok := s.registry.completion(req.Ref, req.Argument.Name); ok {
		out, err := handler(&ToolContext{Context: ctx}, req.Argument.Value)
		if err != nil {
			return nil, fmt.Errorf("completion handler for %s: %w", req.Argument.Name, err)
		}
		values = out
	}

	total := len(values)
	hasMore := total > 100
	if hasMore {
		values = values[:100]
	}
	return protocol.CompleteResult{Completion: protocol.CompletionValues{Values: values, Total: total, HasMore: hasMore}}, nil
}

func (s *Server) handleSetLevel(ctx context.Context, params json.RawMessage) (any, error) {
	var req protocol.SetLevelParams
	if err := json.Unmarshal(params, &req); err != nil {
		return nil, fmt.Errorf("invalid logging/setLevel params: %w", err)
	}
	logger.SetLevelFromMCP(string(req.Level))
	return protocol.EmptyResult{}, nil
}

// NewSessionID generates a session identity for transports (HTTP+SSE)
// that need one before any handshake has happened.
func NewSessionID() string { return uuid.New().String() }
