package tools

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/richard-senior/mcp/internal/logger"
	"github.com/richard-senior/mcp/pkg/protocol"
	"github.com/richard-senior/mcp/pkg/server"
	"github.com/richard-senior/mcp/pkg/toolkit"
)

// RulesRegistry is the on-disk registry of available lint-style rules.
type RulesRegistry struct {
	Rules []RuleInfo `json:"rules"`
}

// RuleInfo describes one rule in the registry.
type RuleInfo struct {
	ID          string   `json:"id"`
	Description string   `json:"description"`
	Path        string   `json:"path"`
	Globs       []string `json:"globs"`
	AlwaysApply bool     `json:"alwaysApply"`
}

// RuleContent is a parsed rule file.
type RuleContent struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Content     string `json:"content"`
}

// RuleResult is the outcome of checking one rule against one file.
type RuleResult struct {
	RuleID      string   `json:"ruleId"`
	Passed      bool     `json:"passed"`
	Violations  []string `json:"violations,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// CheckCodeRulesArgs is the input schema for check_code_rules.
type CheckCodeRulesArgs struct {
	FilePath     string `json:"filepath" jsonschema:"description=Absolute path of the source file to check"`
	RegistryPath string `json:"registrypath,omitempty" jsonschema:"description=Path to the rules registry json file; defaults to the registry's standard location"`
}

// CheckCodeRulesResult is what check_code_rules returns.
type CheckCodeRulesResult struct {
	Results []RuleResult `json:"results"`
	Passed  int          `json:"passed"`
	Failed  int          `json:"failed"`
}

// CheckCodeRules applies every applicable rule from a registry to a
// single source file and reports which rules passed or failed.
func CheckCodeRules() (protocol.Tool, server.ToolHandler) {
	tool, handler, err := toolkit.New(toolkit.Definition{
		Name: "check_code_rules",
		Description: "Checks a source file against a registry of style rules (e.g. error wrapping, " +
			"receiver naming) and reports any violations with suggested fixes.",
	}, handleCheckCodeRules)
	if err != nil {
		logger.Fatal("building check_code_rules tool:", err)
	}
	return tool, handler
}

func handleCheckCodeRules(ctx *server.ToolContext, args CheckCodeRulesArgs) (CheckCodeRulesResult, error) {
	registryPath := args.RegistryPath
	if registryPath == "" {
		var err error
		registryPath, err = GetRegistryPath()
		if err != nil {
			return CheckCodeRulesResult{}, fmt.Errorf("resolving default registry path: %w", err)
		}
	}

	registry, err := LoadRulesRegistry(registryPath)
	if err != nil {
		return CheckCodeRulesResult{}, err
	}

	var applicable []RuleInfo
	for _, rule := range registry.Rules {
		if IsFileMatchingRule(args.FilePath, rule) {
			applicable = append(applicable, rule)
		}
	}

	var results []RuleResult
	for _, rule := range applicable {
		content, err := GetRuleContent(rule.ID, registryPath)
		if err != nil {
			logger.Warn("failed to load rule content for", rule.ID, err)
			continue
		}
		result, err := ApplyRuleToFile(args.FilePath, content)
		if err != nil {
			logger.Warn("failed to apply rule", rule.ID, err)
			continue
		}
		results = append(results, *result)
	}

	return CheckCodeRulesResult{
		Results: results,
		Passed:  countPassedRules(results),
		Failed:  countFailedRules(results),
	}, nil
}

// LoadRulesRegistry loads the rules registry from a file.
func LoadRulesRegistry(path string) (*RulesRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules registry: %w", err)
	}

	var registry RulesRegistry
	if err := json.Unmarshal(data, &registry); err != nil {
		return nil, fmt.Errorf("failed to parse rules registry: %w", err)
	}
	return &registry, nil
}

// GetRuleContent loads and parses a single rule file out of the registry.
func GetRuleContent(ruleID string, registryPath string) (*RuleContent, error) {
	registry, err := LoadRulesRegistry(registryPath)
	if err != nil {
		return nil, err
	}

	var rulePath string
	for _, rule := range registry.Rules {
		if rule.ID == ruleID {
			rulePath = rule.Path
			break
		}
	}
	if rulePath == "" {
		return nil, fmt.Errorf("rule not found: %s", ruleID)
	}

	data, err := os.ReadFile(rulePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read rule file: %w", err)
	}
	content := string(data)

	nameRegex := regexp.MustCompile(`<rule>\s*name:\s*([^\n]+)`)
	descRegex := regexp.MustCompile(`description:\s*([^\n]+)`)

	nameMatch := nameRegex.FindStringSubmatch(content)
	descMatch := descRegex.FindStringSubmatch(content)
	if len(nameMatch) < 2 || len(descMatch) < 2 {
		return nil, fmt.Errorf("failed to parse rule content for %s", ruleID)
	}

	return &RuleContent{
		ID:          strings.TrimSpace(nameMatch[1]),
		Description: strings.TrimSpace(descMatch[1]),
		Content:     content,
	}, nil
}

// IsFileMatchingRule reports whether a file falls under a rule's globs.
func IsFileMatchingRule(filePath string, rule RuleInfo) bool {
	if rule.AlwaysApply {
		return true
	}
	for _, glob := range rule.Globs {
		if matched, err := filepath.Match(glob, filePath); err == nil && matched {
			return true
		}
	}
	return false
}

// ApplyRuleToFile checks a single rule's known violation patterns
// against a file's content.
func ApplyRuleToFile(filePath string, rule *RuleContent) (*RuleResult, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	content := string(data)

	result := &RuleResult{RuleID: rule.ID, Passed: true}

	if strings.Contains(rule.ID, "error_handling") {
		if strings.Contains(content, "if err != nil {") && strings.Contains(content, "return errors.New(") {
			result.Passed = false
			result.Violations = append(result.Violations, "creating a new error instead of wrapping the original")
			result.Suggestions = append(result.Suggestions, `use fmt.Errorf("context: %w", err) to wrap errors`)
		}
	}

	if strings.Contains(rule.ID, "receiver_names") {
		if strings.Contains(content, "func (this ") || strings.Contains(content, "func (self ") {
			result.Passed = false
			result.Violations = append(result.Violations, "non-idiomatic receiver name: 'this' or 'self'")
			result.Suggestions = append(result.Suggestions, "use a short receiver name derived from the type")
		}
	}

	return result, nil
}

// GetRegistryPath returns the default location of the rules registry.
func GetRegistryPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, ".mcp", "registry.json"), nil
}

func countPassedRules(results []RuleResult) int {
	count := 0
	for _, r := range results {
		if r.Passed {
			count++
		}
	}
	return count
}

func countFailedRules(results []RuleResult) int {
	count := 0
	for _, r := range results {
		if !r.Passed {
			count++
		}
	}
	return count
}
