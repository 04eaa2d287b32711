// Package coordinator subscribes to host
// process events, routes them per agent type to the matching instrumenter,
// auto-initializes .ai-audit/, and tracks projects the process cannot
// write to. Its event-driven lifecycle generalizes a single-session
// controller loop to "N concurrent per-project sessions" (DESIGN.md).
package coordinator

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
	"syscall"

	"github.com/andywolf/vibes-core/internal/annotation"
	"github.com/andywolf/vibes-core/internal/auditio"
	"github.com/andywolf/vibes-core/internal/external"
	"github.com/andywolf/vibes-core/internal/instrument"
	"github.com/andywolf/vibes-core/internal/instrument/orchestration"
	"github.com/andywolf/vibes-core/internal/observability"
	"github.com/andywolf/vibes-core/internal/session"
	"github.com/andywolf/vibes-core/internal/vibesconfig"
)

// Notifier is the optional safe_send(channel, payload) sink .
type Notifier func(channel string, payload any)

// ProcessSpawnConfig is the payload of handle_process_spawn.
type ProcessSpawnConfig struct {
	ToolType    string
	ProjectPath string
	Cwd         string
}

// ProcessEventEmitter is the host process-events source the coordinator
// consumes; the emitter's implementation is out of scope here.
type ProcessEventEmitter interface {
	OnToolExecution(handler func(sessionID string, event instrument.ToolExecutionEvent))
	OnThinkingChunk(handler func(sessionID string, text string))
	OnUsage(handler func(sessionID string, usage instrument.UsageEvent))
}

// toolNameForAgentType maps a known agent type to the tool_name recorded
// in the placeholder environment entry. Unknown
// agent types fall back to the type string itself.
var toolNameForAgentType = map[string]string{
	"claude-code": "claude-code",
	"codex":       "codex-cli",
}

// Coordinator wires upstream events to instrumenters.
type Coordinator struct {
	Sessions       *session.Manager
	IO             *auditio.Runtime
	Builder        *annotation.Builder
	Logger         observability.Logger
	Settings       *vibesconfig.HostSettings
	Bridge         *external.Bridge
	ClaudeCode     instrument.Instrumenter
	Codex          instrument.Instrumenter
	Orchestration  *orchestration.Instrumenter
	Notifier       Notifier

	mu                  sync.Mutex
	sessionAgentType    map[string]string
	nonWritableProjects map[string]bool
	autoInitAttempted   map[string]bool
	binaryMissingWarned bool
}

// New returns a Coordinator. sessions/io/builder/logger/settings must be
// non-nil; Bridge, the two per-agent instrumenters, Orchestration, and
// Notifier are optional.
func New(sessions *session.Manager, io *auditio.Runtime, builder *annotation.Builder, logger observability.Logger, settings *vibesconfig.HostSettings) *Coordinator {
	c := &Coordinator{
		Sessions:            sessions,
		IO:                  io,
		Builder:             builder,
		Logger:              logger,
		Settings:            settings,
		sessionAgentType:    map[string]string{},
		nonWritableProjects: map[string]bool{},
		autoInitAttempted:   map[string]bool{},
	}
	sessions.OnAnnotationRecorded = c.onAnnotationRecorded
	return c
}

func (c *Coordinator) safeCall(name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			c.Logger.Warnf("coordinator: %s handler panicked: %v", name, r)
		}
	}()
	fn()
}

// AttachToProcessEvents installs handlers on emitter for tool-execution,
// thinking-chunk, and usage, each wrapped so a handler error can never
// propagate back through the emitter. If instrumentation is
// disabled in settings, it returns without subscribing.
func (c *Coordinator) AttachToProcessEvents(emitter ProcessEventEmitter) {
	if !c.Settings.Enabled {
		return
	}
	emitter.OnToolExecution(func(sessionID string, event instrument.ToolExecutionEvent) {
		c.safeCall("tool-execution", func() { c.HandleToolExecution(sessionID, event) })
	})
	emitter.OnThinkingChunk(func(sessionID string, text string) {
		c.safeCall("thinking-chunk", func() { c.HandleThinkingChunk(sessionID, text) })
	})
	emitter.OnUsage(func(sessionID string, usage instrument.UsageEvent) {
		c.safeCall("usage", func() { c.HandleUsage(sessionID, usage) })
	})
}

// HandleProcessSpawn handles a newly launched agent process.
func (c *Coordinator) HandleProcessSpawn(sessionID string, cfg ProcessSpawnConfig) {
	if !c.Settings.Enabled {
		return
	}
	if !c.Settings.AgentEnabled(cfg.ToolType) {
		return
	}

	projectPath := cfg.ProjectPath
	if projectPath == "" {
		projectPath = cfg.Cwd
	}
	if projectPath == "" {
		return
	}

	if c.IsProjectUnwritable(projectPath) {
		return
	}

	c.mu.Lock()
	attempted := c.autoInitAttempted[projectPath]
	c.autoInitAttempted[projectPath] = true
	c.mu.Unlock()

	if !attempted && !c.IO.HasConfig(projectPath) && c.Settings.AutoInit {
		c.autoInit(projectPath)
	}

	// Probe write access; non-fatal in itself (actual creation happens
	// lazily), but a permission error here is treated as terminal for the
	// project.
	if err := c.probeWritable(projectPath); err != nil {
		if isPermissionClass(err) {
			c.markNonWritable(projectPath)
			return
		}
		c.Logger.Warnf("coordinator: write probe for %s: %v", projectPath, err)
	}

	st := c.Sessions.StartSession(sessionID, projectPath, cfg.ToolType, c.Settings.AssuranceLevel, "")
	if st == nil {
		return
	}

	toolName, ok := toolNameForAgentType[cfg.ToolType]
	if !ok {
		toolName = cfg.ToolType
	}
	entry, hash, err := c.Builder.NewEnvironmentEntry(toolName, "unknown", "unknown", "unknown", nil, nil)
	if err != nil {
		c.Logger.Warnf("coordinator: build placeholder environment entry for %s: %v", sessionID, err)
	} else {
		c.Sessions.RecordManifestEntry(sessionID, hash, entry)
		c.Sessions.UpdateEnvironmentHash(sessionID, hash)
	}

	c.mu.Lock()
	c.sessionAgentType[sessionID] = cfg.ToolType
	c.mu.Unlock()
}

func (c *Coordinator) probeWritable(project string) error {
	dir := project + "/.ai-audit"
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("coordinator: probe mkdir: %w", err)
	}
	return nil
}

func isPermissionClass(err error) bool {
	return errors.Is(err, fs.ErrPermission) || errors.Is(err, os.ErrPermission) || errors.Is(err, syscall.EROFS)
}

func (c *Coordinator) autoInit(project string) {
	if c.Bridge != nil {
		if res := c.Bridge.Init(project, "", string(c.Settings.AssuranceLevel), nil); res.Success {
			return
		}
	}
	cfg := vibesconfig.NewProjectConfig("", c.Settings.AssuranceLevel, nil, nil)
	if err := c.IO.InitDirectly(project, cfg); err != nil {
		c.Logger.Warnf("coordinator: auto-init %s: %v", project, err)
	}
}

// HandleProcessExit handles an agent process exiting.
func (c *Coordinator) HandleProcessExit(sessionID string, exitCode int) {
	st := c.Sessions.Get(sessionID)
	if st == nil {
		return
	}

	if instr := c.instrumenterFor(sessionID); instr != nil {
		instr.Flush(sessionID)
	}
	c.Sessions.EndSession(sessionID)

	c.mu.Lock()
	delete(c.sessionAgentType, sessionID)
	c.mu.Unlock()
}

func (c *Coordinator) instrumenterFor(sessionID string) instrument.Instrumenter {
	c.mu.Lock()
	agentType := c.sessionAgentType[sessionID]
	c.mu.Unlock()

	switch agentType {
	case "claude-code":
		return c.ClaudeCode
	case "codex":
		return c.Codex
	default:
		return nil
	}
}

// HandleToolExecution routes to the instrumenter for sessionID's agent
// type. Unknown session ids and unknown agent types are no-ops.
func (c *Coordinator) HandleToolExecution(sessionID string, event instrument.ToolExecutionEvent) {
	if instr := c.instrumenterFor(sessionID); instr != nil {
		instr.HandleToolExecution(sessionID, event)
	}
}

// HandleThinkingChunk routes to the instrumenter for sessionID's agent
// type.
func (c *Coordinator) HandleThinkingChunk(sessionID string, text string) {
	if instr := c.instrumenterFor(sessionID); instr != nil {
		instr.HandleThinkingChunk(sessionID, text)
	}
}

// HandleUsage routes to the instrumenter for sessionID's agent type.
func (c *Coordinator) HandleUsage(sessionID string, usage instrument.UsageEvent) {
	if instr := c.instrumenterFor(sessionID); instr != nil {
		instr.HandleUsage(sessionID, usage)
	}
}

// HandlePromptSent routes to the instrumenter for sessionID's agent type.
func (c *Coordinator) HandlePromptSent(sessionID string, promptText string, contextFiles []string) {
	if instr := c.instrumenterFor(sessionID); instr != nil {
		instr.HandlePrompt(sessionID, promptText, contextFiles)
	}
}

// IsProjectUnwritable reports whether project was previously marked
// non-writable.
func (c *Coordinator) IsProjectUnwritable(project string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nonWritableProjects[project]
}

func (c *Coordinator) markNonWritable(project string) {
	c.mu.Lock()
	c.nonWritableProjects[project] = true
	c.mu.Unlock()
}

// ClearUnwritableProjectCache clears the non-writable-project set.
func (c *Coordinator) ClearUnwritableProjectCache() {
	c.mu.Lock()
	c.nonWritableProjects = map[string]bool{}
	c.mu.Unlock()
}

// ClearAutoInitCache clears the per-project auto-init-attempted set.
func (c *Coordinator) ClearAutoInitCache() {
	c.mu.Lock()
	c.autoInitAttempted = map[string]bool{}
	c.mu.Unlock()
}

// GetOrchestrationInstrumenter returns the orchestration instrumenter.
func (c *Coordinator) GetOrchestrationInstrumenter() *orchestration.Instrumenter {
	return c.Orchestration
}

// GetSessionStats returns a snapshot of a live session's counters, or nil
// if unknown.
func (c *Coordinator) GetSessionStats(sessionID string) *SessionStats {
	st := c.Sessions.Get(sessionID)
	if st == nil {
		return nil
	}
	return &SessionStats{
		SessionID:       st.ID,
		AgentType:       st.AgentType,
		Active:          st.Active,
		AnnotationCount: st.AnnotationCount,
		EnvironmentHash: st.EnvHash(),
	}
}

// SessionStats is the snapshot returned by GetSessionStats.
type SessionStats struct {
	SessionID       string
	AgentType       string
	Active          bool
	AnnotationCount int
	EnvironmentHash string
}

// FlushAll delegates to the durable I/O runtime's global flush.
func (c *Coordinator) FlushAll() {
	c.IO.FlushAll()
}

// NotifyVibesBinaryMissing emits a one-shot "vibes:binary-missing"
// notification, deduplicated within the process.
func (c *Coordinator) NotifyVibesBinaryMissing() {
	c.mu.Lock()
	if c.binaryMissingWarned {
		c.mu.Unlock()
		return
	}
	c.binaryMissingWarned = true
	c.mu.Unlock()

	c.Logger.Warnf("coordinator: vibescheck binary not found")
	if c.Notifier != nil {
		c.safeCall("notify", func() { c.Notifier("vibes:binary-missing", nil) })
	}
}

// onAnnotationRecorded is installed by New as session.Manager's
// OnAnnotationRecorded callback; it emits vibes:annotation-update only
// when a Notifier is configured.
func (c *Coordinator) onAnnotationRecorded(sessionID string, count int, last session.LastAnnotation) {
	if c.Notifier == nil {
		return
	}
	payload := map[string]any{
		"session_id":       sessionID,
		"annotation_count": count,
		"last_annotation": map[string]any{
			"type":      last.Type,
			"file_path": last.FilePath,
			"action":    last.Action,
			"timestamp": last.Timestamp,
		},
	}
	c.safeCall("annotation-update", func() { c.Notifier("vibes:annotation-update", payload) })
}
