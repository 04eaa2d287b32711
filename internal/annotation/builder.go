// Package annotation implements the pure, side-effect-free constructors for
// manifest entries and annotation records.
// Nothing in this package performs I/O; Builder only assembles values and
// computes their content hash via internal/vibeshash.
package annotation

import (
	"bytes"
	"compress/gzip"
	"encoding/base64"
	"fmt"

	"github.com/andywolf/vibes-core/internal/vibeshash"
)

// Builder constructs manifest entries and annotation records with injected
// time and id sources, so tests get deterministic output.
type Builder struct {
	Clock Clock
	IDs   IDGenerator
}

// NewBuilder returns a Builder using the system clock and uuid generator.
func NewBuilder() *Builder {
	return &Builder{Clock: SystemClock(), IDs: UUIDGenerator()}
}

func (b *Builder) now() string { return formatTimestamp(b.Clock.Now()) }

// NewEnvironmentEntry constructs an environment manifest entry and its hash.
func (b *Builder) NewEnvironmentEntry(toolName, toolVersion, modelName, modelVersion string, modelParameters map[string]any, toolExtensions []string) (EnvironmentEntry, string, error) {
	e := EnvironmentEntry{
		ToolName:        toolName,
		ToolVersion:     toolVersion,
		ModelName:       modelName,
		ModelVersion:    modelVersion,
		ModelParameters: modelParameters,
		ToolExtensions:  toolExtensions,
		CreatedAt:       b.now(),
	}
	h, err := vibeshash.Hash(e)
	if err != nil {
		return EnvironmentEntry{}, "", fmt.Errorf("annotation: hash environment entry: %w", err)
	}
	return e, h, nil
}

// truncateEllipsis truncates s to at most max runes, appending "..." when
// truncation occurs.
func truncateEllipsis(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}

// NewCommandEntry constructs a command manifest entry and its hash.
// exitCode is nil when unset; outputSummary is truncated to 200 runes with
// an ellipsis suffix when cut.
func (b *Builder) NewCommandEntry(commandText string, commandType CommandType, exitCode *int, outputSummary, workingDirectory string) (CommandEntry, string, error) {
	e := CommandEntry{
		CommandText:          commandText,
		CommandType:          commandType,
		CommandExitCode:      exitCode,
		CommandOutputSummary: truncateEllipsis(outputSummary, 200),
		WorkingDirectory:      workingDirectory,
		CreatedAt:            b.now(),
	}
	h, err := vibeshash.Hash(e)
	if err != nil {
		return CommandEntry{}, "", fmt.Errorf("annotation: hash command entry: %w", err)
	}
	return e, h, nil
}

// NewPromptEntry constructs a prompt manifest entry and its hash.
// promptType defaults to "user_instruction" when empty.
func (b *Builder) NewPromptEntry(promptText, promptType string, contextFiles []string) (PromptEntry, string, error) {
	if promptType == "" {
		promptType = "user_instruction"
	}
	e := PromptEntry{
		PromptText:         promptText,
		PromptType:         promptType,
		PromptContextFiles: contextFiles,
		CreatedAt:          b.now(),
	}
	h, err := vibeshash.Hash(e)
	if err != nil {
		return PromptEntry{}, "", fmt.Errorf("annotation: hash prompt entry: %w", err)
	}
	return e, h, nil
}

// ReasoningEncoding selects how reasoning text is stored, per the two
// configured byte thresholds.
type ReasoningEncoding int

const (
	ReasoningInline ReasoningEncoding = iota
	ReasoningCompressed
	ReasoningExternal
)

// SelectReasoningEncoding chooses the encoding for text of the given byte
// size. Exactly compressThreshold bytes still stores inline; one byte over
// triggers compression.
func SelectReasoningEncoding(sizeBytes, compressThreshold, externalThreshold int) ReasoningEncoding {
	switch {
	case sizeBytes > externalThreshold:
		return ReasoningExternal
	case sizeBytes > compressThreshold:
		return ReasoningCompressed
	default:
		return ReasoningInline
	}
}

// ErrNeedsBlob is returned by NewReasoningEntry when the text exceeds the
// external threshold: the caller must write the blob (via auditio) and
// call NewExternalReasoningEntry with the resulting relative path.
var ErrNeedsBlob = fmt.Errorf("annotation: reasoning text exceeds external threshold, write a blob first")

// NewReasoningEntry constructs an inline or inline-compressed reasoning
// entry. If the text requires external storage, it returns ErrNeedsBlob and
// a zero entry; the caller writes the blob and calls
// NewExternalReasoningEntry instead.
func (b *Builder) NewReasoningEntry(text string, tokenCount *int, model string, compressThreshold, externalThreshold int) (ReasoningEntry, string, error) {
	switch SelectReasoningEncoding(len(text), compressThreshold, externalThreshold) {
	case ReasoningExternal:
		return ReasoningEntry{}, "", ErrNeedsBlob
	case ReasoningCompressed:
		compressed, err := gzipBase64(text)
		if err != nil {
			return ReasoningEntry{}, "", fmt.Errorf("annotation: compress reasoning: %w", err)
		}
		e := ReasoningEntry{
			ReasoningTextCompressed: compressed,
			Compressed:              true,
			ReasoningTokenCount:     tokenCount,
			ReasoningModel:          model,
			CreatedAt:               b.now(),
		}
		h, err := vibeshash.Hash(e)
		if err != nil {
			return ReasoningEntry{}, "", fmt.Errorf("annotation: hash reasoning entry: %w", err)
		}
		return e, h, nil
	default:
		e := ReasoningEntry{
			ReasoningText:       text,
			ReasoningTokenCount: tokenCount,
			ReasoningModel:      model,
			CreatedAt:           b.now(),
		}
		h, err := vibeshash.Hash(e)
		if err != nil {
			return ReasoningEntry{}, "", fmt.Errorf("annotation: hash reasoning entry: %w", err)
		}
		return e, h, nil
	}
}

// NewExternalReasoningEntry constructs a reasoning entry pointing at an
// already-written blob.
func (b *Builder) NewExternalReasoningEntry(blobPath string, tokenCount *int, model string) (ReasoningEntry, string, error) {
	e := ReasoningEntry{
		External:            true,
		BlobPath:            blobPath,
		ReasoningTokenCount: tokenCount,
		ReasoningModel:      model,
		CreatedAt:           b.now(),
	}
	h, err := vibeshash.Hash(e)
	if err != nil {
		return ReasoningEntry{}, "", fmt.Errorf("annotation: hash reasoning entry: %w", err)
	}
	return e, h, nil
}

func gzipBase64(text string) (string, error) {
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	if _, err := gw.Write([]byte(text)); err != nil {
		gw.Close()
		return "", err
	}
	if err := gw.Close(); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// NewSessionRecord constructs a session lifecycle bracket record.
func (b *Builder) NewSessionRecord(event SessionEvent, sessionID, environmentHash, assuranceLevel, description string) SessionRecord {
	return SessionRecord{
		Event:           event,
		SessionID:       sessionID,
		Timestamp:       b.now(),
		EnvironmentHash: environmentHash,
		AssuranceLevel:  assuranceLevel,
		Description:     description,
	}
}

// NewLineRecord constructs a line-range provenance record.
func (b *Builder) NewLineRecord(filePath string, lineStart, lineEnd int, environmentHash string, action LineAction, assuranceLevel, commandHash, promptHash, reasoningHash, sessionID, commitHash string) LineRecord {
	return LineRecord{
		FilePath:        filePath,
		LineStart:       lineStart,
		LineEnd:         lineEnd,
		EnvironmentHash: environmentHash,
		Action:          action,
		Timestamp:       b.now(),
		AssuranceLevel:  assuranceLevel,
		CommandHash:     commandHash,
		PromptHash:      promptHash,
		ReasoningHash:   reasoningHash,
		SessionID:       sessionID,
		CommitHash:      commitHash,
	}
}

// NewSessionID generates a fresh VIBES session id (UUID v4).
func (b *Builder) NewSessionID() string { return b.IDs.NewID() }
