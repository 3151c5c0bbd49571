// Package prompts implements a disk-backed registry of prompt templates,
// rendered on demand into the message sequences the prompts/get method
// returns.
package prompts

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/richard-senior/mcp/internal/logger"
	"github.com/richard-senior/mcp/pkg/protocol"
	"github.com/richard-senior/mcp/pkg/server"
)

// storedPrompt is the on-disk representation of one prompt: its metadata
// plus a template string with {{argument}} placeholders.
type storedPrompt struct {
	protocol.Prompt
	Template string `json:"template"`
}

// Registry manages a directory of prompt template files.
type Registry struct {
	baseDir string
}

// NewRegistry creates a prompt registry rooted at ~/.mcp/prompts,
// writing each of a handful of sample prompts whose file is missing
// from the directory.
func NewRegistry() *Registry {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		logger.Error("failed to resolve home directory:", err)
		homeDir = "."
	}

	baseDir := filepath.Join(homeDir, ".mcp", "prompts")
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		logger.Error("failed to create prompt registry directory:", err)
	}

	reg := &Registry{baseDir: baseDir}
	reg.ensureSamplePrompts()
	return reg
}

func (r *Registry) promptPath(name string) (string, error) {
	if strings.Contains(name, "..") || strings.ContainsAny(name, "/\\") {
		return "", fmt.Errorf("invalid prompt name: %s", name)
	}
	return filepath.Join(r.baseDir, name+".json"), nil
}

func (r *Registry) load(name string) (*storedPrompt, error) {
	path, err := r.promptPath(name)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("prompt not found: %s", name)
		}
		return nil, fmt.Errorf("reading prompt file: %w", err)
	}

	var sp storedPrompt
	if err := json.Unmarshal(data, &sp); err != nil {
		return nil, fmt.Errorf("parsing prompt file: %w", err)
	}
	return &sp, nil
}

// Save writes a prompt template to the registry.
func (r *Registry) Save(prompt protocol.Prompt, template string) error {
	if prompt.Name == "" {
		return fmt.Errorf("prompt name cannot be empty")
	}
	path, err := r.promptPath(prompt.Name)
	if err != nil {
		return err
	}

	sp := storedPrompt{Prompt: prompt, Template: template}
	data, err := json.MarshalIndent(sp, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling prompt: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// List returns the metadata (not the template bodies) of every stored
// prompt, for the prompts/list response.
func (r *Registry) List() ([]protocol.Prompt, error) {
	var prompts []protocol.Prompt

	err := filepath.WalkDir(r.baseDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".json") {
			return nil
		}
		name := strings.TrimSuffix(d.Name(), ".json")
		sp, err := r.load(name)
		if err != nil {
			logger.Warn("failed to read prompt", name, err)
			return nil
		}
		prompts = append(prompts, sp.Prompt)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing prompts: %w", err)
	}
	return prompts, nil
}

// Render loads a prompt by name, validates the supplied arguments against
// its declared required arguments, and substitutes them into the
// template to produce the final message sequence.
func (r *Registry) Render(name string, args map[string]string) (*protocol.GetPromptResult, error) {
	sp, err := r.load(name)
	if err != nil {
		return nil, err
	}

	for _, arg := range sp.Arguments {
		if arg.Required {
			if _, ok := args[arg.Name]; !ok {
				return nil, fmt.Errorf("missing required argument: %s", arg.Name)
			}
		}
	}

	text := sp.Template
	for k, v := range args {
		text = strings.ReplaceAll(text, "{{"+k+"}}", v)
	}

	return &protocol.GetPromptResult{
		Description: sp.Description,
		Messages: []protocol.PromptMessage{
			{Role: protocol.RoleUser, Content: protocol.TextContent(text)},
		},
	}, nil
}

// Delete removes a prompt from the registry.
func (r *Registry) Delete(name string) error {
	path, err := r.promptPath(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("prompt not found: %s", name)
		}
		return fmt.Errorf("deleting prompt: %w", err)
	}
	return nil
}

type samplePrompt struct {
	prompt   protocol.Prompt
	template string
}

func (r *Registry) ensureSamplePrompts() {
	samples := []samplePrompt{
		{
			prompt: protocol.Prompt{
				Name:        "code-review",
				Description: "Review code for best practices, bugs, and improvements",
				Arguments: []protocol.PromptArgument{
					{Name: "language", Description: "Programming language of the code", Required: true},
					{Name: "code", Description: "The code to review", Required: true},
				},
			},
			template: "Please review the following {{language}} code for:\n- Best practices\n- Potential bugs\n" +
				"- Performance improvements\n- Security issues\n\nCode:\n```{{language}}\n{{code}}\n```",
		},
		{
			prompt: protocol.Prompt{
				Name:        "explain-concept",
				Description: "Explain a technical concept in simple terms",
				Arguments: []protocol.PromptArgument{
					{Name: "concept", Description: "The technical concept to explain", Required: true},
					{Name: "audience", Description: "Target audience, e.g. beginner or expert", Required: false},
				},
			},
			template: "Please explain {{concept}} in simple terms that a {{audience}} would understand. " +
				"Include:\n- What it is\n- Why it's important\n- How it works\n- Real-world examples",
		},
		{
			prompt: protocol.Prompt{
				Name:        "summarize",
				Description: "Summarizes a piece of text in the requested tone",
				Arguments: []protocol.PromptArgument{
					{Name: "text", Description: "The text to summarize", Required: true},
					{Name: "tone", Description: "The tone of the summary, e.g. formal or casual", Required: false},
				},
			},
			template: "Summarize the following text in a {{tone}} tone:\n\n{{text}}",
		},
	}

	for _, s := range samples {
		if _, err := r.load(s.prompt.Name); err == nil {
			continue
		}
		if err := r.Save(s.prompt, s.template); err != nil {
			logger.Warn("failed to write sample prompt", s.prompt.Name, err)
			continue
		}
		logger.Info("created sample prompt", s.prompt.Name)
	}
}

// RegisterAll wires every stored prompt into s, one prompts/get handler
// per prompt name.
func (r *Registry) RegisterAll(s *server.Server) error {
	prompts, err := r.List()
	if err != nil {
		return err
	}
	for _, p := range prompts {
		name := p.Name
		s.RegisterPrompt(p, func(ctx *server.ToolContext, args map[string]string) (*protocol.GetPromptResult, error) {
			return r.Render(name, args)
		})
	}
	return nil
}
