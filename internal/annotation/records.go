package annotation

import "encoding/json"

// Record is implemented by SessionRecord and LineRecord, the two variants
// appended to annotations.jsonl.
type Record interface {
	Type() string
	json.Marshaler
}

// SessionEvent distinguishes the two session lifecycle brackets.
type SessionEvent string

const (
	SessionStart SessionEvent = "start"
	SessionEnd   SessionEvent = "end"
)

// SessionRecord is a session-lifecycle bracket record.
type SessionRecord struct {
	Event           SessionEvent `json:"event"`
	SessionID       string       `json:"session_id"`
	Timestamp       string       `json:"timestamp"`
	EnvironmentHash string       `json:"environment_hash,omitempty"`
	AssuranceLevel  string       `json:"assurance_level,omitempty"`
	Description     string       `json:"description,omitempty"`
}

func (r SessionRecord) Type() string { return "session" }

func (r SessionRecord) MarshalJSON() ([]byte, error) {
	type alias SessionRecord
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{Type: r.Type(), alias: alias(r)})
}

// LineAction enumerates the actions a line annotation records.
type LineAction string

const (
	ActionCreate LineAction = "create"
	ActionModify LineAction = "modify"
	ActionDelete LineAction = "delete"
	ActionReview LineAction = "review"
)

// LineRecord is a line-range provenance record.
type LineRecord struct {
	FilePath        string     `json:"file_path"`
	LineStart       int        `json:"line_start"`
	LineEnd         int        `json:"line_end"`
	EnvironmentHash string     `json:"environment_hash"`
	Action          LineAction `json:"action"`
	Timestamp       string     `json:"timestamp"`
	AssuranceLevel  string     `json:"assurance_level"`
	CommandHash     string     `json:"command_hash,omitempty"`
	PromptHash      string     `json:"prompt_hash,omitempty"`
	ReasoningHash   string     `json:"reasoning_hash,omitempty"`
	SessionID       string     `json:"session_id,omitempty"`
	CommitHash      string     `json:"commit_hash,omitempty"`
}

func (r LineRecord) Type() string { return "line" }

func (r LineRecord) MarshalJSON() ([]byte, error) {
	type alias LineRecord
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{Type: r.Type(), alias: alias(r)})
}
