package coordinator

import (
	"strings"
	"testing"

	"github.com/andywolf/vibes-core/internal/annotation"
	"github.com/andywolf/vibes-core/internal/auditio"
	"github.com/andywolf/vibes-core/internal/instrument"
	"github.com/andywolf/vibes-core/internal/instrument/claudecode"
	"github.com/andywolf/vibes-core/internal/observability"
	"github.com/andywolf/vibes-core/internal/session"
	"github.com/andywolf/vibes-core/internal/vibesconfig"
)

func newFixture(t *testing.T) (dir string, c *Coordinator, io *auditio.Runtime) {
	t.Helper()
	dir = t.TempDir()
	io = auditio.NewRuntime(observability.NoopLogger{})
	builder := annotation.NewBuilder()
	sessions := session.NewManager(io, builder, observability.NoopLogger{})
	settings := vibesconfig.DefaultHostSettings()
	c = New(sessions, io, builder, observability.NoopLogger{}, settings)
	c.ClaudeCode = claudecode.New(sessions, io, builder, observability.NoopLogger{}, nil)
	return dir, c, io
}

func TestHandleProcessSpawnAutoInitsAndStartsSession(t *testing.T) {
	dir, c, io := newFixture(t)

	c.HandleProcessSpawn("s1", ProcessSpawnConfig{ToolType: "claude-code", ProjectPath: dir})

	if !io.HasConfig(dir) {
		t.Fatalf("expected auto-init to create config.json")
	}
	st := c.Sessions.Get("s1")
	if st == nil || !st.Active {
		t.Fatalf("expected an active session")
	}
	if st.EnvHash() == "" {
		t.Fatalf("expected a placeholder environment hash to be set")
	}

	io.FlushAll()
	mf, err := io.ReadManifest(dir)
	if err != nil {
		t.Fatalf("ReadManifest: %v", err)
	}
	found := false
	for _, raw := range mf.Entries {
		if strings.Contains(string(raw), `"type":"environment"`) {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a placeholder environment entry in the manifest")
	}
}

func TestHandleProcessSpawnSkipsDisabledAgent(t *testing.T) {
	dir, c, _ := newFixture(t)
	c.Settings.PerAgentConfig = map[string]vibesconfig.PerAgentConfig{"claude-code": {Enabled: false}}

	c.HandleProcessSpawn("s2", ProcessSpawnConfig{ToolType: "claude-code", ProjectPath: dir})

	if c.Sessions.Get("s2") != nil {
		t.Fatalf("expected no session to be started for a disabled agent")
	}
}

func TestHandleToolExecutionRoutesToClaudeCode(t *testing.T) {
	dir, c, io := newFixture(t)
	c.HandleProcessSpawn("s3", ProcessSpawnConfig{ToolType: "claude-code", ProjectPath: dir})

	c.HandleToolExecution("s3", instrument.ToolExecutionEvent{
		ToolName: "Write",
		Input:    map[string]any{"file_path": "a.go"},
	})
	io.FlushAll()

	lines, err := io.ReadAnnotations(dir)
	if err != nil {
		t.Fatalf("ReadAnnotations: %v", err)
	}
	found := false
	for _, l := range lines {
		if strings.Contains(l, `"file_path":"a.go"`) {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a line annotation for a.go, got %v", lines)
	}
}

func TestHandleToolExecutionNoopForUnknownSession(t *testing.T) {
	_, c, _ := newFixture(t)
	// Should not panic despite no session/agent type being registered.
	c.HandleToolExecution("ghost", instrument.ToolExecutionEvent{ToolName: "Write"})
}

func TestHandleProcessExitFlushesAndEndsSession(t *testing.T) {
	dir, c, io := newFixture(t)
	c.HandleProcessSpawn("s4", ProcessSpawnConfig{ToolType: "claude-code", ProjectPath: dir})
	c.HandleToolExecution("s4", instrument.ToolExecutionEvent{ToolName: "Write", Input: map[string]any{"file_path": "b.go"}})

	c.HandleProcessExit("s4", 0)

	st := c.Sessions.Get("s4")
	if st == nil || st.Active {
		t.Fatalf("expected session to be ended")
	}

	lines, err := io.ReadAnnotations(dir)
	if err != nil {
		t.Fatalf("ReadAnnotations: %v", err)
	}
	if len(lines) == 0 {
		t.Fatalf("expected buffered annotations to have been flushed by exit")
	}
}

func TestAnnotationUpdateNotificationFires(t *testing.T) {
	dir, c, _ := newFixture(t)
	var got map[string]any
	c.Notifier = func(channel string, payload any) {
		if channel == "vibes:annotation-update" {
			got = payload.(map[string]any)
		}
	}
	c.HandleProcessSpawn("s5", ProcessSpawnConfig{ToolType: "claude-code", ProjectPath: dir})
	c.HandleToolExecution("s5", instrument.ToolExecutionEvent{ToolName: "Write", Input: map[string]any{"file_path": "c.go"}})

	if got == nil {
		t.Fatalf("expected at least one annotation-update notification")
	}
	if got["session_id"] != "s5" {
		t.Fatalf("unexpected session id in notification: %v", got)
	}
}

func TestNonWritableProjectCacheSuppressesFurtherSpawns(t *testing.T) {
	_, c, _ := newFixture(t)
	c.markNonWritable("/no/such/project")

	c.HandleProcessSpawn("s6", ProcessSpawnConfig{ToolType: "claude-code", ProjectPath: "/no/such/project"})
	if c.Sessions.Get("s6") != nil {
		t.Fatalf("expected spawn to be suppressed for a cached non-writable project")
	}

	c.ClearUnwritableProjectCache()
	if c.IsProjectUnwritable("/no/such/project") {
		t.Fatalf("expected cache to be cleared")
	}
}
