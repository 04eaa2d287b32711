// Package external is the optional bridge to the external
// `vibescheck` analysis binary: locating it, caching the lookup, and
// invoking its read-side subcommands with a hard timeout and an output
// cap. Built on stdlib os/exec (building argv, capturing stdout,
// applying a context timeout) rather than a process-management library
// (DESIGN.md).
package external

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/andywolf/vibes-core/internal/observability"
)

const (
	invokeTimeout  = 30 * time.Second
	outputCapBytes = 5 * 1024 * 1024
)

// BridgeResult is the uniform, never-an-error return shape of every
// public operation.
type BridgeResult struct {
	Success bool
	Data    string
	Error   string
}

// Bridge locates and invokes the vibescheck binary.
type Bridge struct {
	explicitPath string
	logger       observability.Logger

	mu       sync.Mutex
	resolved bool
	binPath  string // empty if resolution found nothing
}

// New returns a Bridge. explicitPath, if non-empty, is tried first and
// takes precedence over platform defaults and $PATH.
func New(explicitPath string, logger observability.Logger) *Bridge {
	if logger == nil {
		logger = observability.NoopLogger{}
	}
	return &Bridge{explicitPath: explicitPath, logger: logger}
}

// ClearCache forces the next operation to re-run binary resolution.
func (b *Bridge) ClearCache() {
	b.mu.Lock()
	b.resolved = false
	b.binPath = ""
	b.mu.Unlock()
}

func (b *Bridge) resolve() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.resolved {
		return b.binPath
	}
	b.resolved = true
	b.binPath = b.locate()
	return b.binPath
}

func (b *Bridge) locate() string {
	if b.explicitPath != "" {
		if info, err := os.Stat(b.explicitPath); err == nil && !info.IsDir() {
			return b.explicitPath
		}
	}
	for _, candidate := range platformDefaultPaths() {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
	}
	if p, err := exec.LookPath("vibescheck"); err == nil {
		return p
	}
	return ""
}

func platformDefaultPaths() []string {
	name := "vibescheck"
	if runtime.GOOS == "windows" {
		name = "vibescheck.exe"
	}
	switch runtime.GOOS {
	case "windows":
		return []string{filepath.Join(os.Getenv("ProgramFiles"), "vibescheck", name)}
	case "darwin":
		return []string{filepath.Join("/opt/homebrew/bin", name), filepath.Join("/usr/local/bin", name)}
	default:
		return []string{filepath.Join("/usr/local/bin", name), filepath.Join(os.Getenv("HOME"), ".local", "bin", name)}
	}
}

// run invokes the binary with args in dir, returning a BridgeResult that
// never surfaces a Go error — only {Success, Data, Error} .
func (b *Bridge) run(dir string, args ...string) BridgeResult {
	bin := b.resolve()
	if bin == "" {
		return BridgeResult{Success: false, Error: "vibescheck binary not found"}
	}

	ctx, cancel := context.WithTimeout(context.Background(), invokeTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &limitedWriter{w: &stdout, remaining: outputCapBytes}
	cmd.Stderr = &limitedWriter{w: &stderr, remaining: outputCapBytes}

	err := cmd.Run()
	if ctx.Err() == context.DeadlineExceeded {
		return BridgeResult{Success: false, Error: "vibescheck: operation timed out after 30s"}
	}
	if err != nil {
		msg := stderr.String()
		if msg == "" {
			msg = err.Error()
		}
		return BridgeResult{Success: false, Error: fmt.Sprintf("vibescheck: %s", msg)}
	}
	return BridgeResult{Success: true, Data: stdout.String()}
}

// limitedWriter caps the number of bytes copied into w, silently
// discarding the remainder — the output buffer cap
// implemented on the write side since exec.Cmd writes directly.
type limitedWriter struct {
	w         io.Writer
	remaining int
}

func (l *limitedWriter) Write(p []byte) (int, error) {
	if l.remaining <= 0 {
		return len(p), nil
	}
	n := len(p)
	if n > l.remaining {
		n = l.remaining
	}
	written, err := l.w.Write(p[:n])
	l.remaining -= written
	return len(p), err
}

// Init runs `vibescheck init`.
func (b *Bridge) Init(projectDir, projectName, assurance string, extensions []string) BridgeResult {
	args := []string{"init", "--project-name", projectName, "--assurance-level", assurance}
	if len(extensions) > 0 {
		args = append(args, "--extensions", joinComma(extensions))
	}
	return b.run(projectDir, args...)
}

// Build runs `vibescheck build`.
func (b *Bridge) Build(projectDir string) BridgeResult {
	return b.run(projectDir, "build")
}

// Stats runs `vibescheck stats [file]`.
func (b *Bridge) Stats(projectDir, file string) BridgeResult {
	args := []string{"stats"}
	if file != "" {
		args = append(args, file)
	}
	return b.run(projectDir, args...)
}

// Blame runs `vibescheck blame --json file`.
func (b *Bridge) Blame(projectDir, file string) BridgeResult {
	return b.run(projectDir, "blame", "--json", file)
}

// LogQuery parameterizes Log.
type LogQuery struct {
	File      string
	Model     string
	SessionID string
	Limit     int
	JSON      bool
}

// Log runs `vibescheck log [--file f] [--model m] [--session s] [--limit n] [--json]`.
func (b *Bridge) Log(projectDir string, q LogQuery) BridgeResult {
	args := []string{"log"}
	if q.File != "" {
		args = append(args, "--file", q.File)
	}
	if q.Model != "" {
		args = append(args, "--model", q.Model)
	}
	if q.SessionID != "" {
		args = append(args, "--session", q.SessionID)
	}
	if q.Limit > 0 {
		args = append(args, "--limit", strconv.Itoa(q.Limit))
	}
	if q.JSON {
		args = append(args, "--json")
	}
	return b.run(projectDir, args...)
}

// Coverage runs `vibescheck coverage [--json]`.
func (b *Bridge) Coverage(projectDir string, json bool) BridgeResult {
	args := []string{"coverage"}
	if json {
		args = append(args, "--json")
	}
	return b.run(projectDir, args...)
}

// Report runs `vibescheck report [--format markdown|html|json]`.
func (b *Bridge) Report(projectDir, format string) BridgeResult {
	args := []string{"report"}
	if format != "" {
		args = append(args, "--format", format)
	}
	return b.run(projectDir, args...)
}

// Sessions runs `vibescheck sessions --json`.
func (b *Bridge) Sessions(projectDir string) BridgeResult {
	return b.run(projectDir, "sessions", "--json")
}

// Models runs `vibescheck models --json`.
func (b *Bridge) Models(projectDir string) BridgeResult {
	return b.run(projectDir, "models", "--json")
}

// Version runs `vibescheck --version`.
func (b *Bridge) Version(projectDir string) BridgeResult {
	return b.run(projectDir, "--version")
}

func joinComma(items []string) string {
	out := ""
	for i, s := range items {
		if i > 0 {
			out += ","
		}
		out += s
	}
	return out
}
