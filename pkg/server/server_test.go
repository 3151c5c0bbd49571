package server

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/richard-senior/mcp/pkg/protocol"
	"github.com/richard-senior/mcp/pkg/session"
	"github.com/richard-senior/mcp/pkg/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// discardTransport satisfies transport.Transport without touching any
// real I/O, letting tests build a *session.Session to pass into
// handlers that need one (tools/call, resources/read, prompts/get).
type discardTransport struct{}

func (discardTransport) Connect(ctx context.Context, h transport.MessageHandler) error { return nil }
func (discardTransport) Send(ctx context.Context, msg transport.Message) error          { return nil }
func (discardTransport) CloseGracefully(ctx context.Context) error                     { return nil }
func (discardTransport) Close() error                                                  { return nil }

func newTestSession() *session.Session {
	return session.New("test-session", discardTransport{}, 4)
}

func echoTool() (protocol.Tool, ToolHandler) {
	tool := protocol.Tool{
		Name:        "echo",
		Description: "echoes its input",
		InputSchema: protocol.NewObjectSchema(map[string]*protocol.JsonSchema{
			"text": {Type: "string"},
		}, []string{"text"}),
	}
	handler := func(ctx *ToolContext, args map[string]any) (*protocol.CallToolResult, error) {
		return protocol.NewToolResultText(args["text"].(string)), nil
	}
	return tool, handler
}

func TestCapabilitiesReflectRegisteredKinds(t *testing.T) {
	s := New("test", "1.0")
	caps := s.capabilities()
	assert.NotNil(t, caps.Logging)
	assert.Nil(t, caps.Completions)
	assert.Nil(t, caps.Tools)
	assert.Nil(t, caps.Resources)
	assert.Nil(t, caps.Prompts)

	tool, handler := echoTool()
	s.RegisterTool(tool, handler)
	caps = s.capabilities()
	require.NotNil(t, caps.Tools)
	assert.True(t, caps.Tools.ListChanged)

	s.RegisterCompletion(protocol.CompleteReference{Type: "ref/prompt", Name: "greet"}, "name",
		func(ctx *ToolContext, value string) ([]string, error) { return nil, nil })
	caps = s.capabilities()
	assert.NotNil(t, caps.Completions)
}

// recordingTransport captures every message Send writes, so a test can
// assert on the response bindHandlers' dispatch table produced without
// reaching into session's unexported handler maps.
type recordingTransport struct {
	mu   sync.Mutex
	sent [][]byte
	done chan struct{}
}

func newRecordingTransport() *recordingTransport {
	return &recordingTransport{done: make(chan struct{}, 8)}
}

func (r *recordingTransport) Connect(ctx context.Context, h transport.MessageHandler) error { return nil }
func (r *recordingTransport) Send(ctx context.Context, msg transport.Message) error {
	r.mu.Lock()
	r.sent = append(r.sent, msg)
	r.mu.Unlock()
	r.done <- struct{}{}
	return nil
}
func (r *recordingTransport) CloseGracefully(ctx context.Context) error { return nil }
func (r *recordingTransport) Close() error                              { return nil }

func (r *recordingTransport) awaitResponse(t *testing.T) []byte {
	t.Helper()
	select {
	case <-r.done:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for response")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sent[len(r.sent)-1]
}

// TestBindHandlersOmitsUndeclaredCapabilities confirms a capability the
// server never registered anything for never gets a dispatch-table entry:
// the request falls through to session's own METHOD_NOT_FOUND instead of
// a handler that would have to self-guard.
func TestBindHandlersOmitsUndeclaredCapabilities(t *testing.T) {
	s := New("test", "1.0")
	rt := newRecordingTransport()
	sess := session.New("bind-test", rt, 4)
	s.bindHandlers(sess)

	sess.HandleMessage(context.Background(), []byte(`{"jsonrpc":"2.0","id":1,"method":"prompts/list"}`))
	var resp protocol.JsonRpcResponse
	require.NoError(t, json.Unmarshal(rt.awaitResponse(t), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, protocol.ErrMethodNotFound, resp.Error.Code)

	s.RegisterPrompt(protocol.Prompt{Name: "greet"}, func(ctx *ToolContext, args map[string]string) (*protocol.GetPromptResult, error) {
		return &protocol.GetPromptResult{}, nil
	})
	sess2 := session.New("bind-test-2", rt, 4)
	s.bindHandlers(sess2)
	sess2.HandleMessage(context.Background(), []byte(`{"jsonrpc":"2.0","id":2,"method":"prompts/list"}`))
	var resp2 protocol.JsonRpcResponse
	require.NoError(t, json.Unmarshal(rt.awaitResponse(t), &resp2))
	assert.Nil(t, resp2.Error)
}

func TestHandleInitializeNegotiatesVersion(t *testing.T) {
	s := New("test", "1.0")
	s.SetInstructions("use me wisely")

	params, _ := json.Marshal(protocol.InitializeParams{
		ProtocolVersion: "2024-11-05",
		ClientInfo:      protocol.Implementation{Name: "test-client", Version: "0.1"},
	})
	result, err := s.handleInitialize(context.Background(), params)
	require.NoError(t, err)
	initResult := result.(protocol.InitializeResult)
	assert.Equal(t, "2024-11-05", initResult.ProtocolVersion)
	assert.Equal(t, "test", initResult.ServerInfo.Name)
	assert.Equal(t, "use me wisely", initResult.Instructions)
}

func TestHandleInitializeFallsBackOnUnknownVersion(t *testing.T) {
	s := New("test", "1.0")
	params, _ := json.Marshal(protocol.InitializeParams{ProtocolVersion: "1999-01-01"})
	result, err := s.handleInitialize(context.Background(), params)
	require.NoError(t, err)
	assert.Equal(t, protocol.DefaultProtocolVersion, result.(protocol.InitializeResult).ProtocolVersion)
}

func TestHandleToolsListAndCall(t *testing.T) {
	s := New("test", "1.0")
	tool, handler := echoTool()
	s.RegisterTool(tool, handler)

	listResult, err := s.handleToolsList(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, listResult.(protocol.ListToolsResult).Tools, 1)

	sess := newTestSession()
	callParams, _ := json.Marshal(protocol.CallToolParams{Name: "echo", Arguments: map[string]any{"text": "hi"}})
	result, err := s.handleToolsCall(sess)(context.Background(), callParams)
	require.NoError(t, err)
	callResult := result.(*protocol.CallToolResult)
	assert.False(t, callResult.IsError)
	assert.Equal(t, "hi", callResult.Content[0].Text)
}

func TestHandleToolsCallUnknownToolIsToolError(t *testing.T) {
	s := New("test", "1.0")
	sess := newTestSession()
	callParams, _ := json.Marshal(protocol.CallToolParams{Name: "missing"})
	result, err := s.handleToolsCall(sess)(context.Background(), callParams)
	require.NoError(t, err)
	assert.True(t, result.(*protocol.CallToolResult).IsError)
}

func TestHandleResourcesReadResolvesLiteralAndTemplate(t *testing.T) {
	s := New("test", "1.0")
	s.RegisterResource(protocol.Resource{URI: "mcp://docs/overview", Name: "overview"},
		func(ctx *ToolContext, uri string, params map[string]string) (*protocol.ReadResourceResult, error) {
			return &protocol.ReadResourceResult{Contents: []protocol.ResourceContents{{URI: uri, Text: "literal"}}}, nil
		})
	require.NoError(t, s.RegisterResourceTemplate(protocol.ResourceTemplate{URITemplate: "mcp://docs/{page}"},
		func(ctx *ToolContext, uri string, params map[string]string) (*protocol.ReadResourceResult, error) {
			return &protocol.ReadResourceResult{Contents: []protocol.ResourceContents{{URI: uri, Text: "page:" + params["page"]}}}, nil
		}))

	sess := newTestSession()
	readHandler := s.handleResourcesRead(sess)

	params, _ := json.Marshal(protocol.ReadResourceParams{URI: "mcp://docs/overview"})
	result, err := readHandler(context.Background(), params)
	require.NoError(t, err)
	assert.Equal(t, "literal", result.(*protocol.ReadResourceResult).Contents[0].Text)

	params, _ = json.Marshal(protocol.ReadResourceParams{URI: "mcp://docs/weather"})
	result, err = readHandler(context.Background(), params)
	require.NoError(t, err)
	assert.Equal(t, "page:weather", result.(*protocol.ReadResourceResult).Contents[0].Text)

	params, _ = json.Marshal(protocol.ReadResourceParams{URI: "mcp://nope"})
	_, err = readHandler(context.Background(), params)
	assert.Error(t, err)
}

func TestHandlePromptsGetRejectsMissingRequiredArgument(t *testing.T) {
	s := New("test", "1.0")
	s.RegisterPrompt(protocol.Prompt{
		Name:      "greet",
		Arguments: []protocol.PromptArgument{{Name: "name", Required: true}},
	}, func(ctx *ToolContext, args map[string]string) (*protocol.GetPromptResult, error) {
		return &protocol.GetPromptResult{Messages: []protocol.PromptMessage{{Role: protocol.RoleUser, Content: protocol.TextContent("hi " + args["name"])}}}, nil
	})

	sess := newTestSession()
	getHandler := s.handlePromptsGet(sess)

	params, _ := json.Marshal(protocol.GetPromptParams{Name: "greet"})
	_, err := getHandler(context.Background(), params)
	assert.Error(t, err)

	params, _ = json.Marshal(protocol.GetPromptParams{Name: "greet", Arguments: map[string]string{"name": "ada"}})
	result, err := getHandler(context.Background(), params)
	require.NoError(t, err)
	assert.Equal(t, "hi ada", result.(*protocol.GetPromptResult).Messages[0].Content.Text)
}

func TestHandlePingReturnsEmptyResult(t *testing.T) {
	s := New("test", "1.0")
	result, err := s.handlePing(context.Background(), nil)
	require.NoError(t, err)
	assert.IsType(t, protocol.EmptyResult{}, result)
}

func TestHandleCompleteRejectsArgumentNotOnPrompt(t *testing.T) {
	s := New("test", "1.0")
	s.RegisterPrompt(protocol.Prompt{
		Name:      "greet",
		Arguments: []protocol.PromptArgument{{Name: "name"}},
	}, func(ctx *ToolContext, args map[string]string) (*protocol.GetPromptResult, error) {
		return &protocol.GetPromptResult{}, nil
	})

	params, _ := json.Marshal(protocol.CompleteParams{
		Ref:      protocol.CompleteReference{Type: "ref/prompt", Name: "greet"},
		Argument: protocol.CompleteArgument{Name: "nickname", Value: "a"},
	})
	_, err := s.handleComplete(context.Background(), params)
	assert.Error(t, err)
}

func TestHandleCompleteRejectsArgumentNotOnResourceTemplate(t *testing.T) {
	s := New("test", "1.0")
	require.NoError(t, s.RegisterResourceTemplate(protocol.ResourceTemplate{URITemplate: "mcp://docs/{page}"},
		func(ctx *ToolContext, uri string, params map[string]string) (*protocol.ReadResourceResult, error) {
			return &protocol.ReadResourceResult{}, nil
		}))

	params, _ := json.Marshal(protocol.CompleteParams{
		Ref:      protocol.CompleteReference{Type: "ref/resource", URI: "mcp://docs/{page}"},
		Argument: protocol.CompleteArgument{Name: "section", Value: "a"},
	})
	_, err := s.handleComplete(context.Background(), params)
	assert.Error(t, err)
}

func TestHandleCompleteDelegatesToRegisteredHandler(t *testing.T) {
	s := New("test", "1.0")
	require.NoError(t, s.RegisterResourceTemplate(protocol.ResourceTemplate{URITemplate: "mcp://docs/{page}"},
		func(ctx *ToolContext, uri string, params map[string]string) (*protocol.ReadResourceResult, error) {
			return &protocol.ReadResourceResult{}, nil
		}))
	ref := protocol.CompleteReference{Type: "ref/resource", URI: "mcp://docs/{page}"}
	s.RegisterCompletion(ref, "page", func(ctx *ToolContext, value string) ([]string, error) {
		return []string{"overview", "setup"}, nil
	})

	params, _ := json.Marshal(protocol.CompleteParams{Ref: ref, Argument: protocol.CompleteArgument{Name: "page", Value: "o"}})
	result, err := s.handleComplete(context.Background(), params)
	require.NoError(t, err)
	completion := result.(protocol.CompleteResult).Completion
	assert.Equal(t, []string{"overview", "setup"}, completion.Values)
	assert.Equal(t, 2, completion.Total)
}

func TestHandleCompleteWithoutRegisteredHandlerReturnsEmpty(t *testing.T) {
	s := New("test", "1.0")
	s.RegisterPrompt(protocol.Prompt{
		Name:      "greet",
		Arguments: []protocol.PromptArgument{{Name: "name"}},
	}, func(ctx *ToolContext, args map[string]string) (*protocol.GetPromptResult, error) {
		return &protocol.GetPromptResult{}, nil
	})

	params, _ := json.Marshal(protocol.CompleteParams{
		Ref:      protocol.CompleteReference{Type: "ref/prompt", Name: "greet"},
		Argument: protocol.CompleteArgument{Name: "name", Value: "a"},
	})
	result, err := s.handleComplete(context.Background(), params)
	require.NoError(t, err)
	assert.Empty(t, result.(protocol.CompleteResult).Completion.Values)
}
