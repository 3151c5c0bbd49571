package server

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/richard-senior/mcp/pkg/protocol"
)

// ToolHandler executes one tools/call invocation.
type ToolHandler func(ctx *ToolContext, args map[string]any) (*protocol.CallToolResult, error)

// ResourceHandler reads one resource, literal or matched from a template.
// matchedURI is the concrete URI requested; when the registration was a
// template, params holds the RFC 6570 variables pulled out of it.
type ResourceHandler func(ctx *ToolContext, matchedURI string, params map[string]string) (*protocol.ReadResourceResult, error)

// PromptHandler renders one prompts/get invocation.
type PromptHandler func(ctx *ToolContext, args map[string]string) (*protocol.GetPromptResult, error)

// CompletionHandler produces completion candidates for one argument of a
// prompt or resource template, given the partial value typed so far.
type CompletionHandler func(ctx *ToolContext, value string) ([]string, error)

type toolEntry struct {
	tool    protocol.Tool
	handler ToolHandler
}

type promptEntry struct {
	prompt  protocol.Prompt
	handler PromptHandler
}

type resourceEntry struct {
	resource protocol.Resource
	handler  ResourceHandler
}

type templateEntry struct {
	template protocol.ResourceTemplate
	matcher  *templateMatcher
	handler  ResourceHandler
}

type completionEntry struct {
	handler CompletionHandler
}

// registry holds every registered tool, resource, resource template and
// prompt, in registration order (order matters for list responses and,
// for templates, for which one wins when more than one matches a URI).
type registry struct {
	mu sync.RWMutex

	toolOrder []string
	tools     map[string]*toolEntry

	resourceOrder []string
	resources     map[string]*resourceEntry

	templates []*templateEntry

	promptOrder []string
	prompts     map[string]*promptEntry

	completions map[string]*completionEntry
}

func newRegistry() *registry {
	return &registry{
		tools:       make(map[string]*toolEntry),
		resources:   make(map[string]*resourceEntry),
		prompts:     make(map[string]*promptEntry),
		completions: make(map[string]*completionEntry),
	}
}

func (r *registry) registerTool(tool protocol.Tool, h ToolHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[tool.Name]; !exists {
		r.toolOrder = append(r.toolOrder, tool.Name)
	}
	r.tools[tool.Name] = &toolEntry{tool: tool, handler: h}
}

func (r *registry) listTools() []protocol.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]protocol.Tool, 0, len(r.toolOrder))
	for _, name := range r.toolOrder {
		out = append(out, r.tools[name].tool)
	}
	return out
}

func (r *registry) tool(name string) (*toolEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.tools[name]
	return e, ok
}

func (r *registry) registerResource(res protocol.Resource, h ResourceHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.resources[res.URI]; !exists {
		r.resourceOrder = append(r.resourceOrder, res.URI)
	}
	r.resources[res.URI] = &resourceEntry{resource: res, handler: h}
}

func (r *registry) registerResourceTemplate(tmpl protocol.ResourceTemplate, h ResourceHandler) error {
	m, err := newTemplateMatcher(tmpl.URITemplate)
	if err != nil {
		return fmt.Errorf("registering resource template %q: %w", tmpl.URITemplate, err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.templates = append(r.templates, &templateEntry{template: tmpl, matcher: m, handler: h})
	return nil
}

func (r *registry) listResources() []protocol.Resource {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]protocol.Resource, 0, len(r.resourceOrder))
	for _, uri := range r.resourceOrder {
		out = append(out, r.resources[uri].resource)
	}
	return out
}

func (r *registry) listResourceTemplates() []protocol.ResourceTemplate {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]protocol.ResourceTemplate, 0, len(r.templates))
	for _, t := range r.templates {
		out = append(out, t.template)
	}
	return out
}

// resolveResource finds the handler for uri: an exact literal match wins
// first; otherwise the first registered template (in registration order)
// whose pattern matches, per the tie-break spec §4.6 calls for.
func (r *registry) resolveResource(uri string) (ResourceHandler, map[string]string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.resources[uri]; ok {
		return e.handler, nil, true
	}
	for _, t := range r.templates {
		if params, ok := t.matcher.match(uri); ok {
			return t.handler, params, true
		}
	}
	return nil, nil, false
}

func (r *registry) registerPrompt(p protocol.Prompt, h PromptHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.prompts[p.Name]; !exists {
		r.promptOrder = append(r.promptOrder, p.Name)
	}
	r.prompts[p.Name] = &promptEntry{prompt: p, handler: h}
}

func (r *registry) listPrompts() []protocol.Prompt {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]protocol.Prompt, 0, len(r.promptOrder))
	for _, name := range r.promptOrder {
		out = append(out, r.prompts[name].prompt)
	}
	return out
}

func (r *registry) prompt(name string) (*promptEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.prompts[name]
	return e, ok
}

// registerCompletion adds the handler answering completion/complete for
// one argument of ref. Re-registering the same (ref, argument) pair
// replaces the earlier handler.
func (r *registry) registerCompletion(ref protocol.CompleteReference, argument string, h CompletionHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completions[completionKey(ref, argument)] = &completionEntry{handler: h}
}

func (r *registry) completion(ref protocol.CompleteReference, argument string) (CompletionHandler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.completions[completionKey(ref, argument)]
	if !ok {
		return nil, false
	}
	return e.handler, true
}

func (r *registry) hasCompletions() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.completions) > 0
}

// completionKey identifies a (reference, argument) pair: a prompt ref by
// name, a resource ref by its template URI (unexpanded, matching
// ResourceTemplate.URITemplate exactly).
func completionKey(ref protocol.CompleteReference, argument string) string {
	if ref.Type == "ref/resource" {
		return "ref/resource\x00" + ref.URI + "\x00" + argument
	}
	return "ref/prompt\x00" + ref.Name + "\x00" + argument
}

// resourceTemplateByURI finds the registered template whose URITemplate
// exactly matches uri, used by completion/complete to validate an
// argument name against a template's RFC 6570 variables (not to resolve a
// concrete resource read, which is resolveResource's job).
func (r *registry) resourceTemplateByURI(uri string) (*templateEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, t := range r.templates {
		if t.template.URITemplate == uri {
			return t, true
		}
	}
	return nil, false
}

func (r *registry) hasTools() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools) > 0
}

func (r *registry) hasResources() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.resources) > 0 || len(r.templates) > 0
}

func (r *registry) hasPrompts() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.prompts) > 0
}

// templateMatcher compiles an RFC 6570 level-1 URI template ("{var}"
// placeholders, no operators) into a regexp that also records variable
// names, so a successful match can be unpacked back into named params.
type templateMatcher struct {
	re   *regexp.Regexp
	vars []string
}

var templateVarRe = regexp.MustCompile(`\{([a-zA-Z_][a-zA-Z0-9_]*)\}`)

func newTemplateMatcher(template string) (*templateMatcher, error) {
	var vars []string
	// QuoteMeta escapes "{" and "}" too; unescape just those so
	// templateVarRe can still find the "{var}" spans afterward.
	pattern := regexp.QuoteMeta(template)
	pattern = strings.ReplaceAll(pattern, `\{`, "{")
	pattern = strings.ReplaceAll(pattern, `\}`, "}")
	pattern = templateVarRe.ReplaceAllStringFunc(pattern, func(m string) string {
		name := templateVarRe.FindStringSubmatch(m)[1]
		vars = append(vars, name)
		return fmt.Sprintf("(?P<%s>[^/]+)", name)
	})
	re, err := regexp.Compile("^" + pattern + "$")
	if err != nil {
		return nil, err
	}
	return &templateMatcher{re: re, vars: vars}, nil
}

func (m *templateMatcher) match(uri string) (map[string]string, bool) {
	groups := m.re.FindStringSubmatch(uri)
	if groups == nil {
		return nil, false
	}
	params := make(map[string]string, len(m.vars))
	for i, name := range m.re.SubexpNames() {
		if i == 0 || name == "" {
			continue
		}
		params[name] = groups[i]
	}
	return params, true
}
