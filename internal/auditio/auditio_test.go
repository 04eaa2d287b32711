package auditio

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/andywolf/vibes-core/internal/annotation"
	"github.com/andywolf/vibes-core/internal/observability"
	"github.com/andywolf/vibes-core/internal/vibesconfig"
)

func newTestRuntime() *Runtime {
	return NewRuntime(observability.NoopLogger{})
}

func TestAppendAnnotationImmediateWritesOrderedRecords(t *testing.T) {
	dir := t.TempDir()
	r := newTestRuntime()

	r.AppendAnnotation(dir, annotation.LineRecord{FilePath: "a.go"})
	r.AppendAnnotation(dir, annotation.LineRecord{FilePath: "b.go"})
	if err := r.AppendAnnotationImmediate(dir, annotation.SessionRecord{Event: annotation.SessionEnd, SessionID: "s1"}); err != nil {
		t.Fatalf("AppendAnnotationImmediate: %v", err)
	}

	lines, err := r.ReadAnnotations(dir)
	if err != nil {
		t.Fatalf("ReadAnnotations: %v", err)
	}
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines (2 buffered + 1 immediate), got %d: %v", len(lines), lines)
	}
	if !contains(lines[2], `"event":"end"`) {
		t.Fatalf("expected immediate record last, got %q", lines[2])
	}
}

func contains(s, sub string) bool {
	return len(s) >= len(sub) && (func() bool {
		for i := 0; i+len(sub) <= len(s); i++ {
			if s[i:i+len(sub)] == sub {
				return true
			}
		}
		return false
	})()
}

func TestAppendAnnotationFlushesAt20Records(t *testing.T) {
	dir := t.TempDir()
	r := newTestRuntime()

	for i := 0; i < 19; i++ {
		r.AppendAnnotation(dir, annotation.LineRecord{FilePath: "f.go"})
	}
	lines, _ := r.ReadAnnotations(dir)
	if len(lines) != 0 {
		t.Fatalf("expected no flush at 19 records, got %d lines", len(lines))
	}

	r.AppendAnnotation(dir, annotation.LineRecord{FilePath: "f.go"})
	// size-triggered flush is asynchronous; poll briefly for it to land.
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		lines, _ = r.ReadAnnotations(dir)
		if len(lines) == 20 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if len(lines) != 20 {
		t.Fatalf("expected flush at 20 records, got %d", len(lines))
	}
}

func TestAddManifestEntryIsWriteIfAbsent(t *testing.T) {
	dir := t.TempDir()
	r := newTestRuntime()

	first := annotation.CommandEntry{CommandText: "ls", CommandType: annotation.CommandShell, CreatedAt: "t1"}
	second := annotation.CommandEntry{CommandText: "rm -rf /", CommandType: annotation.CommandShell, CreatedAt: "t2"}

	r.AddManifestEntry(dir, "hash1", first)
	if err := r.forceFlushManifest(dir); err != nil {
		t.Fatalf("forceFlushManifest: %v", err)
	}
	r.AddManifestEntry(dir, "hash1", second)
	if err := r.forceFlushManifest(dir); err != nil {
		t.Fatalf("forceFlushManifest: %v", err)
	}

	mf, err := r.ReadManifest(dir)
	if err != nil {
		t.Fatalf("ReadManifest: %v", err)
	}
	raw, ok := mf.Entries["hash1"]
	if !ok {
		t.Fatalf("expected hash1 present")
	}
	if !contains(string(raw), "ls") {
		t.Fatalf("expected original entry preserved (immutability), got %s", raw)
	}
}

func TestWriteReasoningBlobRoundTrip(t *testing.T) {
	dir := t.TempDir()
	r := newTestRuntime()

	rel, err := r.WriteReasoningBlob(dir, "deadbeef", []byte("hello blob"))
	if err != nil {
		t.Fatalf("WriteReasoningBlob: %v", err)
	}
	if rel != "blobs/deadbeef.blob" {
		t.Fatalf("unexpected relative path %q", rel)
	}
	data, err := r.ReadReasoningBlob(dir, rel)
	if err != nil {
		t.Fatalf("ReadReasoningBlob: %v", err)
	}
	if string(data) != "hello blob" {
		t.Fatalf("unexpected blob contents %q", data)
	}
}

func TestInitDirectlyCreatesLayout(t *testing.T) {
	dir := t.TempDir()
	r := newTestRuntime()

	cfg := vibesconfig.NewProjectConfig("proj", vibesconfig.AssuranceMedium, nil, nil)
	if err := r.InitDirectly(dir, cfg); err != nil {
		t.Fatalf("InitDirectly: %v", err)
	}

	for _, p := range []string{"config.json", "manifest.json", "annotations.jsonl", "blobs"} {
		if _, err := os.Stat(filepath.Join(dir, ".ai-audit", p)); err != nil {
			t.Errorf("expected %s to exist: %v", p, err)
		}
	}
	if !r.HasConfig(dir) {
		t.Errorf("expected HasConfig true after InitDirectly")
	}
}

func TestFlushAllDrainsMultipleProjects(t *testing.T) {
	dirA := t.TempDir()
	dirB := t.TempDir()
	r := newTestRuntime()

	for i := 0; i < 5; i++ {
		r.AppendAnnotation(dirA, annotation.LineRecord{FilePath: "a.go"})
		r.AppendAnnotation(dirB, annotation.LineRecord{FilePath: "b.go"})
	}
	r.AddManifestEntry(dirA, "h1", annotation.CommandEntry{CommandText: "ls", CommandType: annotation.CommandShell})
	r.AddManifestEntry(dirB, "h2", annotation.CommandEntry{CommandText: "pwd", CommandType: annotation.CommandShell})

	r.FlushAll()

	linesA, _ := r.ReadAnnotations(dirA)
	linesB, _ := r.ReadAnnotations(dirB)
	if len(linesA) != 5 || len(linesB) != 5 {
		t.Fatalf("expected 5 lines each, got %d/%d", len(linesA), len(linesB))
	}

	mfA, _ := r.ReadManifest(dirA)
	mfB, _ := r.ReadManifest(dirB)
	if _, ok := mfA.Entries["h1"]; !ok {
		t.Fatalf("expected h1 in project A manifest")
	}
	if _, ok := mfB.Entries["h2"]; !ok {
		t.Fatalf("expected h2 in project B manifest")
	}
	if _, ok := mfA.Entries["h2"]; ok {
		t.Fatalf("project A manifest must not contain project B's entry")
	}
}
