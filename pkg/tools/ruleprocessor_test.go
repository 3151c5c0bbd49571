package tools

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestIsFileMatchingRule(t *testing.T) {
	always := RuleInfo{AlwaysApply: true}
	assert.True(t, IsFileMatchingRule("anything.go", always))

	globbed := RuleInfo{Globs: []string{"*.go"}}
	assert.True(t, IsFileMatchingRule("main.go", globbed))
	assert.False(t, IsFileMatchingRule("main.py", globbed))
}

func TestApplyRuleToFileDetectsErrorHandlingViolation(t *testing.T) {
	dir := t.TempDir()
	path := writeTempFile(t, dir, "bad.go", `package x
func f() error {
	if err != nil {
		return errors.New("boom")
	}
	return nil
}
`)
	result, err := ApplyRuleToFile(path, &RuleContent{ID: "error_handling"})
	require.NoError(t, err)
	assert.False(t, result.Passed)
	assert.NotEmpty(t, result.Violations)
}

func TestApplyRuleToFilePassesCleanFile(t *testing.T) {
	dir := t.TempDir()
	path := writeTempFile(t, dir, "good.go", `package x
func f() error {
	if err != nil {
		return fmt.Errorf("context: %w", err)
	}
	return nil
}
`)
	result, err := ApplyRuleToFile(path, &RuleContent{ID: "error_handling"})
	require.NoError(t, err)
	assert.True(t, result.Passed)
}

func TestApplyRuleToFileDetectsReceiverNameViolation(t *testing.T) {
	dir := t.TempDir()
	path := writeTempFile(t, dir, "recv.go", `package x
func (this *Foo) Bar() {}
`)
	result, err := ApplyRuleToFile(path, &RuleContent{ID: "receiver_names"})
	require.NoError(t, err)
	assert.False(t, result.Passed)
}

func TestLoadRulesRegistryRoundTrip(t *testing.T) {
	dir := t.TempDir()
	registryPath := writeTempFile(t, dir, "registry.json", `{"rules":[{"id":"error_handling","description":"wraps errors","path":"rule.md","globs":["*.go"]}]}`)

	registry, err := LoadRulesRegistry(registryPath)
	require.NoError(t, err)
	require.Len(t, registry.Rules, 1)
	assert.Equal(t, "error_handling", registry.Rules[0].ID)
}

func TestGetRuleContentParsesNameAndDescription(t *testing.T) {
	dir := t.TempDir()
	ruleFile := writeTempFile(t, dir, "rule.md", "<rule>\nname: error_handling\ndescription: wraps errors with context\n</rule>\n")
	registryPath := writeTempFile(t, dir, "registry.json", `{"rules":[{"id":"error_handling","description":"wraps errors","path":"`+ruleFile+`","globs":["*.go"]}]}`)

	content, err := GetRuleContent("error_handling", registryPath)
	require.NoError(t, err)
	assert.Equal(t, "error_handling", content.ID)
	assert.Equal(t, "wraps errors with context", content.Description)
}

func TestGetRuleContentUnknownRule(t *testing.T) {
	dir := t.TempDir()
	registryPath := writeTempFile(t, dir, "registry.json", `{"rules":[]}`)
	_, err := GetRuleContent("missing", registryPath)
	assert.Error(t, err)
}

func TestGetRegistryPathUsesHomeDirectory(t *testing.T) {
	path, err := GetRegistryPath()
	require.NoError(t, err)
	home, _ := os.UserHomeDir()
	assert.Equal(t, filepath.Join(home, ".mcp", "registry.json"), path)
}

func TestHandleCheckCodeRulesEndToEnd(t *testing.T) {
	dir := t.TempDir()
	target := writeTempFile(t, dir, "target.go", `package x
func f() error {
	if err != nil {
		return errors.New("boom")
	}
	return nil
}
`)
	ruleFile := writeTempFile(t, dir, "error_handling.md", "<rule>\nname: error_handling\ndescription: wraps errors\n</rule>\n")
	registryPath := writeTempFile(t, dir, "registry.json", `{"rules":[{"id":"error_handling","description":"wraps errors","path":"`+ruleFile+`","globs":["*.go"],"alwaysApply":true}]}`)

	result, err := handleCheckCodeRules(nil, CheckCodeRulesArgs{FilePath: target, RegistryPath: registryPath})
	require.NoError(t, err)
	require.Len(t, result.Results, 1)
	assert.Equal(t, 0, result.Passed)
	assert.Equal(t, 1, result.Failed)
}

func TestCountPassedAndFailedRules(t *testing.T) {
	results := []RuleResult{{Passed: true}, {Passed: false}, {Passed: true}}
	assert.Equal(t, 2, countPassedRules(results))
	assert.Equal(t, 1, countFailedRules(results))
}
