package vibeshash

import (
	"regexp"
	"testing"
)

var hexRe = regexp.MustCompile(`^[0-9a-f]{64}$`)

type fakeEntry struct {
	fields map[string]any
}

func (f fakeEntry) CanonicalFields() map[string]any { return f.fields }

func TestHashWidth(t *testing.T) {
	h, err := Hash(fakeEntry{map[string]any{"type": "command", "command_text": "ls"}})
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if !hexRe.MatchString(h) {
		t.Fatalf("hash %q does not match 64-hex pattern", h)
	}
}

func TestHashStableAcrossCreatedAt(t *testing.T) {
	e1 := fakeEntry{map[string]any{"type": "command", "command_text": "ls", "created_at": "2020-01-01T00:00:00Z"}}
	e2 := fakeEntry{map[string]any{"type": "command", "command_text": "ls", "created_at": "2030-06-06T00:00:00Z"}}

	h1, err := Hash(e1)
	if err != nil {
		t.Fatalf("Hash e1: %v", err)
	}
	h2, err := Hash(e2)
	if err != nil {
		t.Fatalf("Hash e2: %v", err)
	}
	if h1 != h2 {
		t.Fatalf("expected identical hashes ignoring created_at, got %q vs %q", h1, h2)
	}
}

func TestHashDiffersOnContent(t *testing.T) {
	h1, _ := Hash(fakeEntry{map[string]any{"type": "command", "command_text": "ls"}})
	h2, _ := Hash(fakeEntry{map[string]any{"type": "command", "command_text": "pwd"}})
	if h1 == h2 {
		t.Fatalf("expected different hashes for different content")
	}
}

func TestCanonicalizeStripsCreatedAt(t *testing.T) {
	out, err := Canonicalize(fakeEntry{map[string]any{"a": 1, "created_at": "now"}})
	if err != nil {
		t.Fatalf("Canonicalize: %v", err)
	}
	if regexp.MustCompile(`created_at`).Match(out) {
		t.Fatalf("canonical form still contains created_at: %s", out)
	}
}
