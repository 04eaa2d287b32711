// Package orchestration implements the orchestration instrumenter: higher-level dispatch/complete/batch events for
// the orchestrator's own session, distinct from agent sessions. Grounded
// on a labeled, duration-formatted event construction style and an
// iteration lifecycle shared with the per-agent instrumenters.
package orchestration

import (
	"fmt"
	"strings"

	"github.com/andywolf/vibes-core/internal/annotation"
	"github.com/andywolf/vibes-core/internal/instrument"
	"github.com/andywolf/vibes-core/internal/observability"
	"github.com/andywolf/vibes-core/internal/session"
	"github.com/andywolf/vibes-core/internal/vibesconfig"
)

// Instrumenter records the orchestrator's own lifecycle events, a
// separate vocabulary from the per-agent instrumenters so it does not
// share their tool-name tables.
type Instrumenter struct {
	Sessions *session.Manager
	Builder  *annotation.Builder
	Logger   observability.Logger
}

// New returns an orchestration Instrumenter.
func New(sessions *session.Manager, builder *annotation.Builder, logger observability.Logger) *Instrumenter {
	if builder == nil {
		builder = annotation.NewBuilder()
	}
	if logger == nil {
		logger = observability.NoopLogger{}
	}
	return &Instrumenter{Sessions: sessions, Builder: builder, Logger: logger}
}

func (o *Instrumenter) record(sessionID, commandText string, exitCode *int, outputSummary, workingDirectory string) string {
	entry, hash, err := o.Builder.NewCommandEntry(commandText, annotation.CommandToolUse, exitCode, outputSummary, workingDirectory)
	if err != nil {
		o.Logger.Warnf("orchestration: build command entry for session %s: %v", sessionID, err)
		return ""
	}
	o.Sessions.RecordManifestEntry(sessionID, hash, entry)
	return hash
}

// RecordAgentSpawn records a command entry for dispatching a sub-agent,
// plus an optional prompt entry for the task description when assurance
// is not low.
func (o *Instrumenter) RecordAgentSpawn(sessionID, agentType, agentID, taskDescription, projectPath string, assurance vibesconfig.AssuranceLevel) {
	text := fmt.Sprintf("dispatch %s agent [%s]", agentType, agentID)
	o.record(sessionID, text, nil, "", projectPath)

	if taskDescription == "" || assurance == vibesconfig.AssuranceLow {
		return
	}
	entry, hash, err := o.Builder.NewPromptEntry(taskDescription, "", nil)
	if err != nil {
		o.Logger.Warnf("orchestration: build prompt entry for session %s: %v", sessionID, err)
		return
	}
	o.Sessions.RecordManifestEntry(sessionID, hash, entry)
}

// RecordAgentComplete records a command entry for a finished sub-agent
// run, with exit code 0 (success) or 1 (failure) and a duration-bearing
// output summary.
func (o *Instrumenter) RecordAgentComplete(sessionID, agentType, agentID string, success bool, durationSeconds float64) {
	exitCode := 1
	status := "failed"
	if success {
		exitCode = 0
		status = "succeeded"
	}
	text := fmt.Sprintf("complete %s agent [%s]", agentType, agentID)
	summary := fmt.Sprintf("%s in %.1fs", status, durationSeconds)
	o.record(sessionID, text, &exitCode, summary, "")
}

// RecordBatchRunStart records a command entry describing a batch run,
// with the document list (truncated to 200 runes) as the output summary.
func (o *Instrumenter) RecordBatchRunStart(sessionID string, count int, agentType string, documents []string) {
	text := fmt.Sprintf("batch run: %d %s agent(s)", count, agentType)
	summary := instrument.Truncate(strings.Join(documents, ", "), 200)
	o.record(sessionID, text, nil, summary, "")
}

// RecordBatchRunComplete records a command entry with exit code 0 and
// counts of completed documents and tasks.
func (o *Instrumenter) RecordBatchRunComplete(sessionID string, completedDocuments, completedTasks int) {
	exitCode := 0
	summary := fmt.Sprintf("%d documents, %d tasks completed", completedDocuments, completedTasks)
	o.record(sessionID, "batch run complete", &exitCode, summary, "")
}
