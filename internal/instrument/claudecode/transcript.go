package claudecode

import (
	"bytes"
	"encoding/json"
	"strings"
)

// transcriptEventType enumerates the top-level line types in Claude
// Code's stream-json transcript output.
type transcriptEventType string

const (
	lineSystem    transcriptEventType = "system"
	lineAssistant transcriptEventType = "assistant"
	lineUser      transcriptEventType = "user"
	lineResult    transcriptEventType = "result"
)

// blockType enumerates content block types within a message.
type blockType string

const (
	blockText     blockType = "text"
	blockThinking blockType = "thinking"
	blockToolUse  blockType = "tool_use"
)

// tokenUsage mirrors the usage object attached to a result line.
type tokenUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

type rawContentBlock struct {
	Type     string          `json:"type"`
	Text     string          `json:"text,omitempty"`
	Thinking string          `json:"thinking,omitempty"`
	Name     string          `json:"name,omitempty"`
	Input    json.RawMessage `json:"input,omitempty"`
}

type rawLine struct {
	Type    string          `json:"type"`
	Message json.RawMessage `json:"message,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
}

type rawMessage struct {
	Content []rawContentBlock `json:"content"`
}

type rawResult struct {
	Content []rawContentBlock `json:"content"`
	Usage   *tokenUsage       `json:"usage,omitempty"`
}

// TranscriptCall is one call the transcript parser makes against an
// Instrumenter while replaying a captured stream-json transcript.
type TranscriptCall struct {
	Kind      string // "tool_execution", "thinking_chunk", or "usage"
	ToolName  string
	ToolInput map[string]any
	Text      string
	Usage     UsageValues
}

// UsageValues carries the subset of token accounting ParseTranscript can
// recover from a stream-json transcript.
type UsageValues struct {
	InputTokens  int
	OutputTokens int
}

// ParseTranscript decodes newline-delimited JSON in Claude Code's
// stream-json transcript format into an ordered list of calls a caller
// can replay against an Instrumenter (tool_use blocks become
// tool_execution calls, thinking blocks become thinking_chunk calls, and
// a result line's usage becomes a usage call). Malformed lines are
// silently skipped — a truncated or corrupted transcript should still
// yield whatever prefix parsed cleanly.
func ParseTranscript(data []byte) []TranscriptCall {
	var calls []TranscriptCall

	for _, line := range bytes.Split(data, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}

		var raw rawLine
		if err := json.Unmarshal(line, &raw); err != nil {
			continue
		}

		switch transcriptEventType(raw.Type) {
		case lineAssistant, lineUser:
			var msg rawMessage
			if err := json.Unmarshal(raw.Message, &msg); err != nil {
				continue
			}
			calls = append(calls, blocksToCalls(msg.Content)...)

		case lineResult:
			var res rawResult
			if err := json.Unmarshal(raw.Result, &res); err != nil {
				continue
			}
			calls = append(calls, blocksToCalls(res.Content)...)
			if res.Usage != nil {
				calls = append(calls, TranscriptCall{
					Kind: "usage",
					Usage: UsageValues{
						InputTokens:  res.Usage.InputTokens,
						OutputTokens: res.Usage.OutputTokens,
					},
				})
			}
		}
	}

	return calls
}

func blocksToCalls(blocks []rawContentBlock) []TranscriptCall {
	var calls []TranscriptCall
	for _, block := range blocks {
		switch blockType(block.Type) {
		case blockThinking:
			if block.Thinking != "" {
				calls = append(calls, TranscriptCall{Kind: "thinking_chunk", Text: block.Thinking})
			}
		case blockToolUse:
			var input map[string]any
			if len(block.Input) > 0 {
				_ = json.Unmarshal(block.Input, &input)
			}
			calls = append(calls, TranscriptCall{Kind: "tool_execution", ToolName: block.Name, ToolInput: input})
		}
	}
	return calls
}

// ExtractAssistantText concatenates the plain-text blocks of an
// assistant message, ignoring tool-use and thinking blocks.
func ExtractAssistantText(data []byte) string {
	var parts []string
	for _, line := range bytes.Split(data, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		var raw rawLine
		if err := json.Unmarshal(line, &raw); err != nil || transcriptEventType(raw.Type) != lineAssistant {
			continue
		}
		var msg rawMessage
		if err := json.Unmarshal(raw.Message, &msg); err != nil {
			continue
		}
		for _, block := range msg.Content {
			if blockType(block.Type) == blockText && block.Text != "" {
				parts = append(parts, block.Text)
			}
		}
	}
	return strings.Join(parts, "\n")
}
