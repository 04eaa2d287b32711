// Package claudecode implements the rich-tool-vocabulary agent
// instrumenter and a stream-json transcript parser that turns Claude
// Code's NDJSON CLI output into calls against it.
package claudecode

import (
	"github.com/andywolf/vibes-core/internal/annotation"
	"github.com/andywolf/vibes-core/internal/auditio"
	"github.com/andywolf/vibes-core/internal/instrument"
	"github.com/andywolf/vibes-core/internal/observability"
	"github.com/andywolf/vibes-core/internal/session"
)

// tables is the static tool-name vocabulary for Claude
// Code's rich tool set, generalized from internal/audit/extract.go's
// per-tool switch.
var tables = instrument.ToolTables{
	CommandType: map[string]annotation.CommandType{
		"Bash":         annotation.CommandShell,
		"Write":        annotation.CommandFileWrite,
		"Edit":         annotation.CommandFileWrite,
		"NotebookEdit": annotation.CommandFileWrite,
		"Read":         annotation.CommandFileRead,
		"NotebookRead": annotation.CommandFileRead,
		"Glob":         annotation.CommandFileRead,
		"Grep":         annotation.CommandFileRead,
		"WebFetch":     annotation.CommandAPICall,
		"WebSearch":    annotation.CommandAPICall,
		"Task":         annotation.CommandToolUse,
	},
	Action: map[string]annotation.LineAction{
		"Write":        annotation.ActionCreate,
		"Edit":         annotation.ActionModify,
		"NotebookEdit": annotation.ActionModify,
	},
}

// Instrumenter is the Claude Code agent instrumenter. It embeds
// instrument.Base, configured with the table above, and is otherwise a
// thin adapter satisfying instrument.Instrumenter.
type Instrumenter struct {
	*instrument.Base
}

// New returns a Claude Code Instrumenter.
func New(sessions *session.Manager, io *auditio.Runtime, builder *annotation.Builder, logger observability.Logger, excludePatterns []string) *Instrumenter {
	return &Instrumenter{Base: instrument.NewBase(sessions, io, builder, logger, tables, excludePatterns)}
}

// HandleToolExecution adapts the public per-tool event shape to Base's
// shared algorithm.
func (i *Instrumenter) HandleToolExecution(sessionID string, event instrument.ToolExecutionEvent) {
	i.Base.ExecuteToolEvent(sessionID, event)
}
