package external

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/andywolf/vibes-core/internal/observability"
)

func writeFakeBinary(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "vibescheck")
	script := "#!/bin/sh\n" + body + "\n"
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write fake binary: %v", err)
	}
	return path
}

func TestBridgeMissingBinaryReturnsFailureNotError(t *testing.T) {
	b := New(filepath.Join(t.TempDir(), "does-not-exist"), observability.NoopLogger{})
	res := b.Models(t.TempDir())
	if res.Success {
		t.Fatalf("expected failure for missing binary")
	}
	if res.Error == "" {
		t.Fatalf("expected a non-empty error message")
	}
}

func TestBridgeSuccessCapturesStdout(t *testing.T) {
	bin := writeFakeBinary(t, `echo -n '{"models":["claude"]}'`)
	b := New(bin, observability.NoopLogger{})
	res := b.Models(t.TempDir())
	if !res.Success {
		t.Fatalf("expected success, got error %q", res.Error)
	}
	if !strings.Contains(res.Data, "claude") {
		t.Fatalf("unexpected data: %q", res.Data)
	}
}

func TestBridgeFailureCapturesStderr(t *testing.T) {
	bin := writeFakeBinary(t, `echo "boom" 1>&2; exit 1`)
	b := New(bin, observability.NoopLogger{})
	res := b.Stats(t.TempDir(), "")
	if res.Success {
		t.Fatalf("expected failure")
	}
	if !strings.Contains(res.Error, "boom") {
		t.Fatalf("expected stderr in error, got %q", res.Error)
	}
}

func TestBridgeResolutionIsCachedAcrossCalls(t *testing.T) {
	bin := writeFakeBinary(t, `echo -n ok`)
	b := New(bin, observability.NoopLogger{})

	if res := b.Version(t.TempDir()); !res.Success {
		t.Fatalf("expected first resolution to succeed: %v", res)
	}
	if !b.resolved {
		t.Fatalf("expected resolution to be cached after first call")
	}

	b.ClearCache()
	if b.resolved {
		t.Fatalf("expected ClearCache to reset the cached flag")
	}
	if res := b.Version(t.TempDir()); !res.Success {
		t.Fatalf("expected re-resolution to still succeed: %v", res)
	}
}

func TestLogBuildsExpectedArgs(t *testing.T) {
	bin := writeFakeBinary(t, `echo -n "$@"`)
	b := New(bin, observability.NoopLogger{})
	res := b.Log(t.TempDir(), LogQuery{File: "a.go", Model: "claude", SessionID: "s1", Limit: 5, JSON: true})
	if !res.Success {
		t.Fatalf("expected success: %v", res)
	}
	want := "log --file a.go --model claude --session s1 --limit 5 --json"
	if res.Data != want {
		t.Fatalf("got args %q, want %q", res.Data, want)
	}
}
