// Package instrument defines the shared contract and per-event algorithm
// that claudecode.Instrumenter and
// codexcli.Instrumenter both embed and configure with their own tool-name
// tables — modeled on adapters that implement a single shared interface
// with adapter-specific tables (DESIGN.md).
package instrument

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/andywolf/vibes-core/internal/annotation"
	"github.com/andywolf/vibes-core/internal/auditio"
	"github.com/andywolf/vibes-core/internal/glob"
	"github.com/andywolf/vibes-core/internal/observability"
	"github.com/andywolf/vibes-core/internal/session"
	"github.com/andywolf/vibes-core/internal/vibesconfig"
	"github.com/andywolf/vibes-core/internal/vibeshash"
)

// Instrumenter is the public contract both agent-specific instrumenters
// implement.
type Instrumenter interface {
	HandleToolExecution(sessionID string, event ToolExecutionEvent)
	HandleThinkingChunk(sessionID string, text string)
	HandleUsage(sessionID string, usage UsageEvent)
	HandlePrompt(sessionID string, promptText string, contextFiles []string)
	HandleResult(sessionID string, finalText string)
	Flush(sessionID string)
}

// ToolExecutionEvent is the upstream, already-parsed tool-call event the
// coordinator forwards.
type ToolExecutionEvent struct {
	ToolName  string
	Input     map[string]any
	Timestamp int64
}

// UsageEvent carries token accounting for one turn.
type UsageEvent struct {
	InputTokens     *int
	OutputTokens    *int
	ReasoningTokens *int
	ModelName       string
}

// ToolTables bundles the two static, agent-specific lookup tables: every
// known tool maps to a command_type; file-modifying tools
// additionally map to an action.
type ToolTables struct {
	CommandType map[string]annotation.CommandType
	Action      map[string]annotation.LineAction
}

// CommandClassifier is an optional enrichment hook held in Base.Classifier.
// No code path in this module calls it: its output is not added to
// tool_extensions or to any other entry field.
type CommandClassifier func(commandText string) []string

type turnState struct {
	mu              sync.Mutex
	reasoningBuf    strings.Builder
	reasoningTokens int
	modelName       string
	lastPromptHash  string
}

// Base implements the shared per-event algorithm.
// claudecode.Instrumenter and codexcli.Instrumenter embed Base and supply
// their own ToolTables.
type Base struct {
	Sessions          *session.Manager
	IO                *auditio.Runtime
	Builder           *annotation.Builder
	Logger            observability.Logger
	Tables            ToolTables
	ExcludePatterns   []string
	CompressThreshold int
	ExternalThreshold int
	Classifier        CommandClassifier

	mu     sync.Mutex
	states map[string]*turnState
}

// NewBase returns a Base with the defaults applied (thresholds default to
// vibesconfig's).
func NewBase(sessions *session.Manager, io *auditio.Runtime, builder *annotation.Builder, logger observability.Logger, tables ToolTables, excludePatterns []string) *Base {
	if builder == nil {
		builder = annotation.NewBuilder()
	}
	if logger == nil {
		logger = observability.NoopLogger{}
	}
	return &Base{
		Sessions:          sessions,
		IO:                io,
		Builder:           builder,
		Logger:            logger,
		Tables:            tables,
		ExcludePatterns:   excludePatterns,
		CompressThreshold: vibesconfig.DefaultCompressThresholdBytes,
		ExternalThreshold: vibesconfig.DefaultExternalBlobThresholdBytes,
		states:            map[string]*turnState{},
	}
}

func (b *Base) turn(sessionID string) *turnState {
	b.mu.Lock()
	defer b.mu.Unlock()
	st, ok := b.states[sessionID]
	if !ok {
		st = &turnState{}
		b.states[sessionID] = st
	}
	return st
}

func (b *Base) dropTurn(sessionID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.states, sessionID)
}

// commandTypeFor resolves tool into a command_type, defaulting to "other"
// for unknown tools.
func (b *Base) commandTypeFor(tool string) annotation.CommandType {
	if ct, ok := b.Tables.CommandType[tool]; ok {
		return ct
	}
	return annotation.CommandOther
}

// actionFor resolves tool into an action, returning ok=false for tools
// that are not file-modifying.
func (b *Base) actionFor(tool string) (annotation.LineAction, bool) {
	a, ok := b.Tables.Action[tool]
	return a, ok
}

// ExtractFilePath tries the prioritized field-name list .
func ExtractFilePath(input map[string]any) (string, bool) {
	for _, key := range []string{"file_path", "path", "notebook_path", "filename", "target_file"} {
		if v, ok := input[key]; ok {
			if s, ok := v.(string); ok && s != "" {
				return s, true
			}
		}
	}
	return "", false
}

// ExtractShellCommand tries "command" then "cmd".
func ExtractShellCommand(input map[string]any) (string, bool) {
	for _, key := range []string{"command", "cmd"} {
		if v, ok := input[key]; ok {
			if s, ok := v.(string); ok && s != "" {
				return s, true
			}
		}
	}
	return "", false
}

// ExtractLineRange derives a [start, end] range from offset+limit or
// cell_number.
func ExtractLineRange(input map[string]any) (start, end int, ok bool) {
	if offsetV, hasOffset := input["offset"]; hasOffset {
		if limitV, hasLimit := input["limit"]; hasLimit {
			offset, offsetOK := toInt(offsetV)
			limit, limitOK := toInt(limitV)
			if offsetOK && limitOK {
				return offset, offset + limit - 1, true
			}
		}
	}
	if cellV, hasCell := input["cell_number"]; hasCell {
		if cell, cellOK := toInt(cellV); cellOK {
			return cell, cell, true
		}
	}
	return 0, 0, false
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}

// NormalizePath canonicalizes separators and resolves "."/".." components.
func NormalizePath(p string) string {
	return filepath.ToSlash(filepath.Clean(p))
}

// Truncate returns s limited to max runes (no ellipsis), used both for the
// 200-char shell-command truncation here and reused by the orchestration
// instrumenter for its own output summaries.
func Truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}

// ExecuteToolEvent implements the per-event algorithm .
func (b *Base) ExecuteToolEvent(sessionID string, event ToolExecutionEvent) {
	st := b.Sessions.Get(sessionID)
	if st == nil {
		return
	}

	if event.ToolName == "" {
		b.Logger.Warnf("instrument: malformed tool event for session %s: empty tool name", sessionID)
		return
	}

	reasoningHash := b.flushReasoning(sessionID)

	path, hasPath := ExtractFilePath(event.Input)
	cmd, hasCmd := ExtractShellCommand(event.Input)

	var commandText string
	switch {
	case hasCmd:
		commandText = Truncate(cmd, 200)
	case hasPath:
		commandText = fmt.Sprintf("%s: %s", event.ToolName, path)
	default:
		commandText = event.ToolName
	}

	commandType := b.commandTypeFor(event.ToolName)
	entry, hash, err := b.Builder.NewCommandEntry(commandText, commandType, nil, "", "")
	if err != nil {
		b.Logger.Warnf("instrument: build command entry for session %s: %v", sessionID, err)
		return
	}
	b.Sessions.RecordManifestEntry(sessionID, hash, entry)

	action, isFileModifying := b.actionFor(event.ToolName)
	if !isFileModifying {
		return
	}
	if !hasPath {
		return
	}

	normalized := NormalizePath(path)
	if glob.MatchAny(b.ExcludePatterns, normalized) {
		return
	}

	envHash := st.EnvHash()
	if envHash == "" {
		return
	}

	lineStart, lineEnd := 1, 1
	if s, e, ok := ExtractLineRange(event.Input); ok {
		lineStart, lineEnd = s, e
	}

	var promptHash string
	if st.Assurance != vibesconfig.AssuranceLow {
		ts := b.turn(sessionID)
		ts.mu.Lock()
		promptHash = ts.lastPromptHash
		ts.mu.Unlock()
	}

	line := b.Builder.NewLineRecord(normalized, lineStart, lineEnd, envHash, action, string(st.Assurance), hash, promptHash, reasoningHash, sessionID, "")
	b.Sessions.RecordAnnotation(sessionID, line)
}

// HandleThinkingChunk accumulates reasoning text, but only at assurance
// level high; at medium and low, chunks are dropped.
func (b *Base) HandleThinkingChunk(sessionID string, text string) {
	st := b.Sessions.Get(sessionID)
	if st == nil || st.Assurance != vibesconfig.AssuranceHigh {
		return
	}
	ts := b.turn(sessionID)
	ts.mu.Lock()
	ts.reasoningBuf.WriteString(text)
	ts.mu.Unlock()
}

// HandleUsage accumulates reasoning_tokens across multiple usage events
// per turn and caches the first non-empty model name seen.
func (b *Base) HandleUsage(sessionID string, usage UsageEvent) {
	if b.Sessions.Get(sessionID) == nil {
		return
	}
	ts := b.turn(sessionID)
	ts.mu.Lock()
	if usage.ReasoningTokens != nil {
		ts.reasoningTokens += *usage.ReasoningTokens
	}
	if ts.modelName == "" && usage.ModelName != "" {
		ts.modelName = usage.ModelName
	}
	ts.mu.Unlock()
}

// HandlePrompt is a no-op at assurance low; at medium and high it
// constructs and records a prompt entry, stashing its hash for linking
// from subsequent line annotations. Multiple calls within
// one turn: last prompt wins (open question #3).
func (b *Base) HandlePrompt(sessionID string, promptText string, contextFiles []string) {
	st := b.Sessions.Get(sessionID)
	if st == nil || st.Assurance == vibesconfig.AssuranceLow {
		return
	}
	entry, hash, err := b.Builder.NewPromptEntry(promptText, "", contextFiles)
	if err != nil {
		b.Logger.Warnf("instrument: build prompt entry for session %s: %v", sessionID, err)
		return
	}
	b.Sessions.RecordManifestEntry(sessionID, hash, entry)

	ts := b.turn(sessionID)
	ts.mu.Lock()
	ts.lastPromptHash = hash
	ts.mu.Unlock()
}

// HandleResult only flushes buffered reasoning; the final text itself is
// not stored by the core.
func (b *Base) HandleResult(sessionID string, finalText string) {
	b.flushReasoning(sessionID)
}

// Flush flushes buffered reasoning, then clears all per-session
// instrumenter state.
func (b *Base) Flush(sessionID string) {
	b.flushReasoning(sessionID)
	b.dropTurn(sessionID)
}

// flushReasoning implements the reasoning flush path, returning the hash
// of the resulting reasoning entry, or "" if there was nothing buffered.
func (b *Base) flushReasoning(sessionID string) string {
	ts := b.turn(sessionID)

	ts.mu.Lock()
	text := ts.reasoningBuf.String()
	tokenCount := ts.reasoningTokens
	model := ts.modelName
	ts.reasoningBuf.Reset()
	ts.reasoningTokens = 0
	ts.mu.Unlock()

	if text == "" {
		return ""
	}

	var tokenCountPtr *int
	if tokenCount > 0 {
		tokenCountPtr = &tokenCount
	}

	entry, hash, err := b.Builder.NewReasoningEntry(text, tokenCountPtr, model, b.CompressThreshold, b.ExternalThreshold)
	if err == annotation.ErrNeedsBlob {
		st := b.Sessions.Get(sessionID)
		if st == nil {
			return ""
		}
		blobHash := vibeshash.HashBytes([]byte(text))
		relPath, werr := b.IO.WriteReasoningBlob(st.ProjectPath, blobHash, []byte(text))
		if werr != nil {
			b.Logger.Warnf("instrument: write reasoning blob for session %s: %v", sessionID, werr)
			return ""
		}
		entry, hash, err = b.Builder.NewExternalReasoningEntry(relPath, tokenCountPtr, model)
	}
	if err != nil {
		b.Logger.Warnf("instrument: build reasoning entry for session %s: %v", sessionID, err)
		return ""
	}

	b.Sessions.RecordManifestEntry(sessionID, hash, entry)
	return hash
}
