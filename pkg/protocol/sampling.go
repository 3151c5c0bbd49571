package protocol

// SamplingMessage is one turn offered to (or produced by) sampling/createMessage.
// A sampling request normally carries only text or image content, but
// Content is the general type, so an embedded resource is not rejected here.
type SamplingMessage struct {
	Role    Role    `json:"role"`
	Content Content `json:"content"`
}

// ModelHint is a loose, fuzzy-matched name suggestion ("claude-3-5-sonnet").
type ModelHint struct {
	Name string `json:"name,omitempty"`
}

// ModelPreferences lets the caller express priorities without naming an
// exact model; the server is free to pick any model satisfying them.
type ModelPreferences struct {
	Hints                []ModelHint `json:"hints,omitempty"`
	CostPriority         float64     `json:"costPriority,omitempty"`
	SpeedPriority        float64     `json:"speedPriority,omitempty"`
	IntelligencePriority float64     `json:"intelligencePriority,omitempty"`
}

// CreateMessageParams are the params of a sampling/createMessage request,
// sent by a server to a client to ask it to sample from an LLM on the
// server's behalf.
type CreateMessageParams struct {
	Messages         []SamplingMessage `json:"messages"`
	ModelPreferences *ModelPreferences `json:"modelPreferences,omitempty"`
	SystemPrompt     string            `json:"systemPrompt,omitempty"`
	MaxTokens        int               `json:"maxTokens"`
	Temperature      float64           `json:"temperature,omitempty"`
	StopSequences    []string          `json:"stopSequences,omitempty"`
}

// CreateMessageResult is the client's response carrying the sampled message.
type CreateMessageResult struct {
	Role       Role    `json:"role"`
	Content    Content `json:"content"`
	Model      string  `json:"model"`
	StopReason string  `json:"stopReason,omitempty"`
}
