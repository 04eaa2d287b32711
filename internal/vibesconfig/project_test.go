package vibesconfig

import "testing"

func TestNewProjectConfigAppliesDefaults(t *testing.T) {
	cfg := NewProjectConfig("my-project", "", nil, nil)

	if cfg.Standard != standardName || cfg.StandardVersion != standardVersion {
		t.Fatalf("expected standard header to be set, got %q/%q", cfg.Standard, cfg.StandardVersion)
	}
	if cfg.AssuranceLevel != AssuranceMedium {
		t.Fatalf("expected default assurance medium, got %q", cfg.AssuranceLevel)
	}
	if len(cfg.TrackedExtensions) != len(DefaultTrackedExtensions) {
		t.Fatalf("expected default tracked extensions, got %v", cfg.TrackedExtensions)
	}
	if len(cfg.ExcludePatterns) != len(DefaultExcludePatterns) {
		t.Fatalf("expected default exclude patterns, got %v", cfg.ExcludePatterns)
	}
	if cfg.CompressReasoningThresholdBytes != DefaultCompressThresholdBytes {
		t.Fatalf("expected default compress threshold, got %d", cfg.CompressReasoningThresholdBytes)
	}
	if cfg.ExternalBlobThresholdBytes != DefaultExternalBlobThresholdBytes {
		t.Fatalf("expected default external blob threshold, got %d", cfg.ExternalBlobThresholdBytes)
	}
}

func TestNewProjectConfigHonorsExplicitValues(t *testing.T) {
	exts := []string{".go"}
	patterns := []string{"**/vendor/**"}
	cfg := NewProjectConfig("my-project", AssuranceHigh, exts, patterns)

	if cfg.AssuranceLevel != AssuranceHigh {
		t.Fatalf("expected explicit assurance to be honored, got %q", cfg.AssuranceLevel)
	}
	if len(cfg.TrackedExtensions) != 1 || cfg.TrackedExtensions[0] != ".go" {
		t.Fatalf("expected explicit tracked extensions to be honored, got %v", cfg.TrackedExtensions)
	}
	if len(cfg.ExcludePatterns) != 1 || cfg.ExcludePatterns[0] != "**/vendor/**" {
		t.Fatalf("expected explicit exclude patterns to be honored, got %v", cfg.ExcludePatterns)
	}
}

func TestNewManifestFileStartsEmptyWithStandardHeader(t *testing.T) {
	mf := NewManifestFile()

	if mf.Standard != standardName || mf.Version != standardVersion {
		t.Fatalf("expected standard header to be set, got %q/%q", mf.Standard, mf.Version)
	}
	if len(mf.Entries) != 0 {
		t.Fatalf("expected empty entries map, got %d entries", len(mf.Entries))
	}
}

func TestAgentEnabledFallsBackToKnownInstrumentableDefaults(t *testing.T) {
	s := DefaultHostSettings()

	if !s.AgentEnabled("claude-code") {
		t.Fatal("expected claude-code to default to enabled")
	}
	if !s.AgentEnabled("codex") {
		t.Fatal("expected codex to default to enabled")
	}
	if s.AgentEnabled("some-unknown-agent") {
		t.Fatal("expected unknown, non-instrumentable agent types to default to disabled")
	}

	s.PerAgentConfig["claude-code"] = PerAgentConfig{Enabled: false}
	if s.AgentEnabled("claude-code") {
		t.Fatal("expected explicit per-agent config to override the default")
	}
}
