package protocol

// Tool describes a named, schema-described executable a server exposes.
// Name is unique within a server.
type Tool struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	InputSchema JsonSchema `json:"inputSchema"`
}

// ListToolsResult is the response to tools/list.
type ListToolsResult struct {
	Tools []Tool `json:"tools"`
}

// CallToolParams are the params of a tools/call request.
type CallToolParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

// CallToolResult is the response to tools/call. isError and a JSON-RPC
// error are distinct: a tool-level failure is still a successful JSON-RPC
// response, carrying IsError=true.
type CallToolResult struct {
	Content []Content `json:"content"`
	IsError bool      `json:"isError,omitempty"`
}

// NewToolResultText builds a successful CallToolResult with a single text
// content item.
func NewToolResultText(text string) *CallToolResult {
	return &CallToolResult{Content: []Content{TextContent(text)}}
}

// NewToolResultError builds a tool-level failure result (isError: true),
// per spec §4.8 point 3 — never a JSON-RPC error.
func NewToolResultError(message string) *CallToolResult {
	return &CallToolResult{Content: []Content{TextContent(message)}, IsError: true}
}

// NewToolResultImage builds a successful CallToolResult carrying a single
// image content item.
func NewToolResultImage(data, mimeType string) *CallToolResult {
	return &CallToolResult{Content: []Content{ImageContent(data, mimeType)}}
}
