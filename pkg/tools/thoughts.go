package tools

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/richard-senior/mcp/internal/logger"
	"github.com/richard-senior/mcp/pkg/protocol"
	"github.com/richard-senior/mcp/pkg/server"
	"github.com/richard-senior/mcp/pkg/toolkit"
)

const (
	thoughtsDataDir    = "~/.mcp/thoughts"
	thoughtsDataFile   = "thoughts.json"
	thoughtsAutoSaveSeconds = 30
)

// ThoughtsArgs is the input schema for the thoughts tool.
type ThoughtsArgs struct {
	Thought           string `json:"thought" jsonschema:"description=Your current thinking step"`
	ThoughtNumber     int    `json:"thoughtNumber" jsonschema:"description=Current thought number in sequence"`
	TotalThoughts     int    `json:"totalThoughts" jsonschema:"description=Current estimate of thoughts needed; can be adjusted up or down"`
	NextThoughtNeeded bool   `json:"nextThoughtNeeded" jsonschema:"description=True if another thought is needed, even if at what seemed like the end"`
	IsRevision        bool   `json:"isRevision,omitempty" jsonschema:"description=Whether this thought revises a previous one"`
	RevisesThought    int    `json:"revisesThought,omitempty" jsonschema:"description=Which thought number is being reconsidered, if isRevision"`
	BranchFromThought int    `json:"branchFromThought,omitempty" jsonschema:"description=Branching point thought number, if branching"`
	BranchID          string `json:"branchId,omitempty" jsonschema:"description=Identifier for the current branch, if any"`
	NeedsMoreThoughts bool   `json:"needsMoreThoughts,omitempty" jsonschema:"description=True if, on reaching the end, more thoughts turn out to be needed"`
}

// ThoughtData is one persisted thought in the sequential thinking process.
type ThoughtData struct {
	Thought           string    `json:"thought"`
	ThoughtNumber     int       `json:"thoughtNumber"`
	TotalThoughts     int       `json:"totalThoughts"`
	NextThoughtNeeded bool      `json:"nextThoughtNeeded"`
	IsRevision        bool      `json:"isRevision,omitempty"`
	RevisesThought    int       `json:"revisesThought,omitempty"`
	BranchFromThought int       `json:"branchFromThought,omitempty"`
	BranchID          string    `json:"branchId,omitempty"`
	NeedsMoreThoughts bool      `json:"needsMoreThoughts,omitempty"`
	Timestamp         time.Time `json:"timestamp"`
}

// ThoughtsResult is returned to the caller after each thought is recorded.
type ThoughtsResult struct {
	ThoughtNumber        int      `json:"thoughtNumber"`
	TotalThoughts        int      `json:"totalThoughts"`
	NextThoughtNeeded    bool     `json:"nextThoughtNeeded"`
	Branches             []string `json:"branches"`
	ThoughtHistoryLength int      `json:"thoughtHistoryLength"`
}

// persistentThoughtData is the structure saved to and loaded from disk.
type persistentThoughtData struct {
	ThoughtHistory []ThoughtData            `json:"thoughtHistory"`
	Branches       map[string][]ThoughtData `json:"branches"`
	LastUpdated    time.Time                `json:"lastUpdated"`
}

// SequentialThinking holds the state of an ongoing sequential-thinking
// session: the full thought history plus any named branches off it.
type SequentialThinking struct {
	mutex          sync.RWMutex
	thoughtHistory []ThoughtData
	branches       map[string][]ThoughtData
	lastUpdated    time.Time
	dataFile       string
}

func expandThoughtsPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			logger.Error("failed to resolve home directory:", err)
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

// newSequentialThinking creates a SequentialThinking instance, loading any
// previously persisted history from disk and arming the auto-save timer.
func newSequentialThinking() *SequentialThinking {
	dataDir := expandThoughtsPath(thoughtsDataDir)
	dataFile := filepath.Join(dataDir, thoughtsDataFile)

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		logger.Error("failed to create thoughts data directory:", err)
	}

	st := &SequentialThinking{
		branches: make(map[string][]ThoughtData),
		dataFile: dataFile,
	}
	st.loadFromFile()
	st.startAutoSave()
	return st
}

func (st *SequentialThinking) startAutoSave() {
	time.AfterFunc(thoughtsAutoSaveSeconds*time.Second, func() {
		st.saveToFile()
		st.startAutoSave()
	})
}

func (st *SequentialThinking) loadFromFile() {
	st.mutex.Lock()
	defer st.mutex.Unlock()

	if _, err := os.Stat(st.dataFile); os.IsNotExist(err) {
		logger.Info("thoughts data file does not exist yet, will create on first save")
		return
	}

	data, err := os.ReadFile(st.dataFile)
	if err != nil {
		logger.Error("failed to read thoughts data file:", err)
		return
	}

	var persisted persistentThoughtData
	if err := json.Unmarshal(data, &persisted); err != nil {
		logger.Error("failed to parse thoughts data file:", err)
		return
	}

	st.thoughtHistory = persisted.ThoughtHistory
	st.branches = persisted.Branches
	if st.branches == nil {
		st.branches = make(map[string][]ThoughtData)
	}
	st.lastUpdated = persisted.LastUpdated
	logger.Info("loaded thoughts data from", st.dataFile, "last updated", st.lastUpdated)
}

func (st *SequentialThinking) saveToFile() {
	st.mutex.RLock()
	persisted := persistentThoughtData{
		ThoughtHistory: st.thoughtHistory,
		Branches:       st.branches,
		LastUpdated:    time.Now(),
	}
	st.mutex.RUnlock()

	data, err := json.MarshalIndent(persisted, "", "  ")
	if err != nil {
		logger.Error("failed to marshal thoughts data:", err)
		return
	}
	if err := os.WriteFile(st.dataFile, data, 0644); err != nil {
		logger.Error("failed to write thoughts data file:", err)
		return
	}
}

var (
	thinkingOnce     sync.Once
	thinkingInstance *SequentialThinking
)

// getThinkingInstance returns the process-wide sequential-thinking
// singleton; one history is shared by every session, matching the
// teacher's original single-process tool state.
func getThinkingInstance() *SequentialThinking {
	thinkingOnce.Do(func() {
		thinkingInstance = newSequentialThinking()
	})
	return thinkingInstance
}

// formatThought renders a thought as a bordered text box for the log,
// distinguishing plain thoughts, revisions and branches.
func formatThought(td ThoughtData) string {
	var prefix, context string
	switch {
	case td.IsRevision:
		prefix = "Revision"
		context = fmt.Sprintf(" (revising thought %d)", td.RevisesThought)
	case td.BranchFromThought > 0:
		prefix = "Branch"
		context = fmt.Sprintf(" (from thought %d, id %s)", td.BranchFromThought, td.BranchID)
	default:
		prefix = "Thought"
	}

	header := fmt.Sprintf("%s %d/%d%s", prefix, td.ThoughtNumber, td.TotalThoughts, context)
	borderLen := len(header)
	if l := len(td.Thought); l > borderLen {
		borderLen = l
	}
	borderLen += 4
	border := strings.Repeat("-", borderLen)

	return fmt.Sprintf("\n+%s+\n| %s%s |\n+%s+\n| %s%s |\n+%s+",
		border,
		header, strings.Repeat(" ", borderLen-len(header)-2),
		border,
		td.Thought, strings.Repeat(" ", borderLen-len(td.Thought)-2),
		border)
}

// processThought records one thought, updates any branch it belongs to,
// persists the history and returns a summary of where the sequence stands.
func (st *SequentialThinking) processThought(args ThoughtsArgs) ThoughtsResult {
	st.mutex.Lock()
	defer st.mutex.Unlock()

	thought := ThoughtData{
		Thought:           args.Thought,
		ThoughtNumber:     args.ThoughtNumber,
		TotalThoughts:     args.TotalThoughts,
		NextThoughtNeeded: args.NextThoughtNeeded,
		IsRevision:        args.IsRevision,
		RevisesThought:    args.RevisesThought,
		BranchFromThought: args.BranchFromThought,
		BranchID:          args.BranchID,
		NeedsMoreThoughts: args.NeedsMoreThoughts,
		Timestamp:         time.Now(),
	}

	if thought.ThoughtNumber > thought.TotalThoughts {
		thought.TotalThoughts = thought.ThoughtNumber
	}

	st.thoughtHistory = append(st.thoughtHistory, thought)

	if thought.BranchFromThought > 0 && thought.BranchID != "" {
		st.branches[thought.BranchID] = append(st.branches[thought.BranchID], thought)
	}

	logger.Info(formatThought(thought))
	go st.saveToFile()

	branchKeys := make([]string, 0, len(st.branches))
	for k := range st.branches {
		branchKeys = append(branchKeys, k)
	}

	return ThoughtsResult{
		ThoughtNumber:        thought.ThoughtNumber,
		TotalThoughts:        thought.TotalThoughts,
		NextThoughtNeeded:    thought.NextThoughtNeeded,
		Branches:             branchKeys,
		ThoughtHistoryLength: len(st.thoughtHistory),
	}
}

// Thoughts provides a dynamic, revisable sequential-thinking scratchpad:
// each call records one step of reasoning that can build on, question or
// revise previous steps, with the full history persisted to disk.
func Thoughts() (protocol.Tool, server.ToolHandler) {
	tool, handler, err := toolkit.New(toolkit.Definition{
		Name: "thoughts",
		Description: "A detailed tool for dynamic and reflective problem-solving through thoughts. " +
			"Breaks down complex problems into revisable, branchable steps instead of a single linear " +
			"answer. Use it when the scope of a problem is unclear up front, when a solution may need " +
			"course correction, or when context needs to be maintained across several steps. A thought " +
			"can be a regular step, a revision of an earlier thought (set isRevision and revisesThought), " +
			"or a branch off an earlier thought (set branchFromThought and branchId). Keep setting " +
			"nextThoughtNeeded true until the problem is actually resolved.",
	}, handleThoughts)
	if err != nil {
		logger.Fatal("building thoughts tool:", err)
	}
	return tool, handler
}

func handleThoughts(ctx *server.ToolContext, args ThoughtsArgs) (ThoughtsResult, error) {
	if args.Thought == "" {
		return ThoughtsResult{}, fmt.Errorf("thought must not be empty")
	}
	return getThinkingInstance().processThought(args), nil
}
