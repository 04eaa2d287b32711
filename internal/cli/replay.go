package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"

	"github.com/andywolf/vibes-core/internal/annotation"
	"github.com/andywolf/vibes-core/internal/auditio"
	"github.com/andywolf/vibes-core/internal/coordinator"
	"github.com/andywolf/vibes-core/internal/instrument"
	"github.com/andywolf/vibes-core/internal/instrument/claudecode"
	"github.com/andywolf/vibes-core/internal/instrument/codexcli"
	"github.com/andywolf/vibes-core/internal/observability"
	"github.com/andywolf/vibes-core/internal/session"
	"github.com/andywolf/vibes-core/internal/vibesconfig"
	"github.com/spf13/cobra"
)

// replayEvent is one line of the process-events JSONL fixture format
// replay consumes: {"event": "...", "session_id": "...", ...}.
type replayEvent struct {
	Event           string         `json:"event"`
	SessionID       string         `json:"session_id"`
	ToolType        string         `json:"tool_type"`
	ProjectPath     string         `json:"project_path"`
	ToolName        string         `json:"tool_name"`
	Input           map[string]any `json:"input"`
	Text            string         `json:"text"`
	InputTokens     *int           `json:"input_tokens"`
	OutputTokens    *int           `json:"output_tokens"`
	ReasoningTokens *int           `json:"reasoning_tokens"`
	ModelName       string         `json:"model_name"`
	ContextFiles    []string       `json:"context_files"`
	ExitCode        int            `json:"exit_code"`
}

var (
	replayProjectDir string
	replayAssurance  string
)

var replayCmd = &cobra.Command{
	Use:   "replay <events.jsonl>",
	Short: "Drive a Coordinator from a JSONL fixture of process events",
	Long: `replay reads a newline-delimited JSON fixture, one process event per
line ("spawn", "prompt", "tool_execution", "thinking_chunk", "usage", or
"exit"), and feeds it through a Coordinator against --project, writing
real .ai-audit/ output. Intended for demos and for exercising the write
path against a scratch project directory.`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

func init() {
	replayCmd.Flags().StringVar(&replayProjectDir, "project", ".", "project directory to write .ai-audit/ into")
	replayCmd.Flags().StringVar(&replayAssurance, "assurance", "medium", "assurance level: low, medium, or high")
	rootCmd.AddCommand(replayCmd)
}

func runReplay(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("open fixture: %w", err)
	}
	defer f.Close()

	logger := observability.NewStdLogger()
	io := auditio.NewRuntime(logger)
	builder := annotation.NewBuilder()
	sessions := session.NewManager(io, builder, logger)

	settings := vibesconfig.DefaultHostSettings()
	settings.AssuranceLevel = vibesconfig.AssuranceLevel(replayAssurance)

	co := coordinator.New(sessions, io, builder, logger, settings)
	co.ClaudeCode = claudecode.New(sessions, io, builder, logger, nil)
	co.Codex = codexcli.New(sessions, io, builder, logger, nil)

	scanner := bufio.NewScanner(f)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var ev replayEvent
		if err := json.Unmarshal(line, &ev); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "line %d: skipping malformed event: %v\n", lineNum, err)
			continue
		}
		applyReplayEvent(co, ev)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read fixture: %w", err)
	}

	io.FlushAll()
	fmt.Fprintf(cmd.OutOrStdout(), "replayed %d lines into %s\n", lineNum, replayProjectDir)
	return nil
}

func applyReplayEvent(co *coordinator.Coordinator, ev replayEvent) {
	switch ev.Event {
	case "spawn":
		projectPath := ev.ProjectPath
		if projectPath == "" {
			projectPath = replayProjectDir
		}
		co.HandleProcessSpawn(ev.SessionID, coordinator.ProcessSpawnConfig{
			ToolType:    ev.ToolType,
			ProjectPath: projectPath,
		})
	case "prompt":
		co.HandlePromptSent(ev.SessionID, ev.Text, ev.ContextFiles)
	case "tool_execution":
		co.HandleToolExecution(ev.SessionID, instrument.ToolExecutionEvent{
			ToolName: ev.ToolName,
			Input:    ev.Input,
		})
	case "thinking_chunk":
		co.HandleThinkingChunk(ev.SessionID, ev.Text)
	case "usage":
		co.HandleUsage(ev.SessionID, instrument.UsageEvent{
			InputTokens:     ev.InputTokens,
			OutputTokens:    ev.OutputTokens,
			ReasoningTokens: ev.ReasoningTokens,
			ModelName:       ev.ModelName,
		})
	case "exit":
		co.HandleProcessExit(ev.SessionID, ev.ExitCode)
	}
}
