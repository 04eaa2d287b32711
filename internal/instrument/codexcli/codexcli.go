// Package codexcli implements the simpler-tool-vocabulary agent
// instrumenter, grounded on
// Codex event vocabulary in internal/audit/extract.go's
// ExtractFromCodexEvents (command_execution/file_change) and
// internal/agent/codex (separate adapter construction for the same
// agent.Agent interface as claudecode).
package codexcli

import (
	"github.com/andywolf/vibes-core/internal/annotation"
	"github.com/andywolf/vibes-core/internal/auditio"
	"github.com/andywolf/vibes-core/internal/instrument"
	"github.com/andywolf/vibes-core/internal/observability"
	"github.com/andywolf/vibes-core/internal/session"
)

// tables is the static tool-name vocabulary for Codex's
// simpler event set.
var tables = instrument.ToolTables{
	CommandType: map[string]annotation.CommandType{
		"command_execution": annotation.CommandShell,
		"file_change":        annotation.CommandFileWrite,
		"file_read":          annotation.CommandFileRead,
	},
	Action: map[string]annotation.LineAction{
		"file_change": annotation.ActionModify,
	},
}

// Instrumenter is the Codex agent instrumenter, sharing the same contract
// and algorithm as claudecode.Instrumenter but a distinct tool vocabulary.
type Instrumenter struct {
	*instrument.Base
}

// New returns a Codex Instrumenter.
func New(sessions *session.Manager, io *auditio.Runtime, builder *annotation.Builder, logger observability.Logger, excludePatterns []string) *Instrumenter {
	return &Instrumenter{Base: instrument.NewBase(sessions, io, builder, logger, tables, excludePatterns)}
}

// HandleToolExecution adapts the public per-tool event shape to Base's
// shared algorithm.
func (i *Instrumenter) HandleToolExecution(sessionID string, event instrument.ToolExecutionEvent) {
	i.Base.ExecuteToolEvent(sessionID, event)
}
