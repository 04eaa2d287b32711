package annotation

import "encoding/json"

// ManifestEntry is implemented by every manifest entry variant
// (EnvironmentEntry, CommandEntry, PromptEntry, ReasoningEntry). Type
// returns the tag serialized as the "type" discriminant; CanonicalFields
// (from vibeshash.Entry) feeds the content hash.
type ManifestEntry interface {
	Type() string
	CanonicalFields() map[string]any
	json.Marshaler
}

// EnvironmentEntry describes the agent tool and model that produced a set
// of annotations.
type EnvironmentEntry struct {
	ToolName        string         `json:"tool_name"`
	ToolVersion     string         `json:"tool_version"`
	ModelName       string         `json:"model_name"`
	ModelVersion    string         `json:"model_version"`
	ModelParameters map[string]any `json:"model_parameters,omitempty"`
	ToolExtensions  []string       `json:"tool_extensions,omitempty"`
	CreatedAt       string         `json:"created_at"`
}

func (e EnvironmentEntry) Type() string { return "environment" }

func (e EnvironmentEntry) CanonicalFields() map[string]any {
	fields := map[string]any{
		"type":          e.Type(),
		"tool_name":     e.ToolName,
		"tool_version":  e.ToolVersion,
		"model_name":    e.ModelName,
		"model_version": e.ModelVersion,
		"created_at":    e.CreatedAt,
	}
	if e.ModelParameters != nil {
		fields["model_parameters"] = e.ModelParameters
	}
	if e.ToolExtensions != nil {
		fields["tool_extensions"] = e.ToolExtensions
	}
	return fields
}

func (e EnvironmentEntry) MarshalJSON() ([]byte, error) {
	type alias EnvironmentEntry
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{Type: e.Type(), alias: alias(e)})
}

// CommandType enumerates the kinds of commands a command entry records.
type CommandType string

const (
	CommandShell      CommandType = "shell"
	CommandFileWrite  CommandType = "file_write"
	CommandFileRead   CommandType = "file_read"
	CommandFileDelete CommandType = "file_delete"
	CommandAPICall    CommandType = "api_call"
	CommandToolUse    CommandType = "tool_use"
	CommandOther      CommandType = "other"
)

// CommandEntry records an executed command or tool invocation. ExitCode is a pointer so 0 is distinguishable from unset.
type CommandEntry struct {
	CommandText          string      `json:"command_text"`
	CommandType          CommandType `json:"command_type"`
	CommandExitCode      *int        `json:"command_exit_code,omitempty"`
	CommandOutputSummary string      `json:"command_output_summary,omitempty"`
	WorkingDirectory     string      `json:"working_directory,omitempty"`
	CreatedAt            string      `json:"created_at"`
}

func (e CommandEntry) Type() string { return "command" }

func (e CommandEntry) CanonicalFields() map[string]any {
	fields := map[string]any{
		"type":         e.Type(),
		"command_text": e.CommandText,
		"command_type": string(e.CommandType),
		"created_at":   e.CreatedAt,
	}
	if e.CommandExitCode != nil {
		fields["command_exit_code"] = *e.CommandExitCode
	}
	if e.CommandOutputSummary != "" {
		fields["command_output_summary"] = e.CommandOutputSummary
	}
	if e.WorkingDirectory != "" {
		fields["working_directory"] = e.WorkingDirectory
	}
	return fields
}

func (e CommandEntry) MarshalJSON() ([]byte, error) {
	type alias CommandEntry
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{Type: e.Type(), alias: alias(e)})
}

// PromptEntry records the text of a prompt sent to the agent.
type PromptEntry struct {
	PromptText         string   `json:"prompt_text"`
	PromptType         string   `json:"prompt_type,omitempty"`
	PromptContextFiles []string `json:"prompt_context_files,omitempty"`
	CreatedAt          string   `json:"created_at"`
}

func (e PromptEntry) Type() string { return "prompt" }

func (e PromptEntry) CanonicalFields() map[string]any {
	fields := map[string]any{
		"type":        e.Type(),
		"prompt_text": e.PromptText,
		"prompt_type": e.PromptType,
		"created_at":  e.CreatedAt,
	}
	if e.PromptContextFiles != nil {
		fields["prompt_context_files"] = e.PromptContextFiles
	}
	return fields
}

func (e PromptEntry) MarshalJSON() ([]byte, error) {
	type alias PromptEntry
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{Type: e.Type(), alias: alias(e)})
}

// ReasoningEntry holds chain-of-thought text inline, inline-compressed, or
// as an external blob. Exactly one of Text,
// TextCompressed, or (External, BlobPath) is set.
type ReasoningEntry struct {
	ReasoningText           string `json:"reasoning_text,omitempty"`
	ReasoningTextCompressed string `json:"reasoning_text_compressed,omitempty"`
	Compressed              bool   `json:"compressed,omitempty"`
	External                bool   `json:"external,omitempty"`
	BlobPath                string `json:"blob_path,omitempty"`
	ReasoningTokenCount     *int   `json:"reasoning_token_count,omitempty"`
	ReasoningModel          string `json:"reasoning_model,omitempty"`
	CreatedAt               string `json:"created_at"`
}

func (e ReasoningEntry) Type() string { return "reasoning" }

func (e ReasoningEntry) CanonicalFields() map[string]any {
	fields := map[string]any{
		"type":       e.Type(),
		"created_at": e.CreatedAt,
	}
	switch {
	case e.External:
		fields["external"] = true
		fields["blob_path"] = e.BlobPath
	case e.Compressed:
		fields["reasoning_text_compressed"] = e.ReasoningTextCompressed
		fields["compressed"] = true
	default:
		fields["reasoning_text"] = e.ReasoningText
	}
	if e.ReasoningTokenCount != nil {
		fields["reasoning_token_count"] = *e.ReasoningTokenCount
	}
	if e.ReasoningModel != "" {
		fields["reasoning_model"] = e.ReasoningModel
	}
	return fields
}

func (e ReasoningEntry) MarshalJSON() ([]byte, error) {
	type alias ReasoningEntry
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{Type: e.Type(), alias: alias(e)})
}
