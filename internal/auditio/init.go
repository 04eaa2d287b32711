package auditio

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/andywolf/vibes-core/internal/vibesconfig"
)

// InitDirectly creates .ai-audit/ and blobs/, writes config.json from the
// supplied config, writes an empty manifest.json if absent, and touches
// annotations.jsonl. Used when the external vibescheck binary is
// unavailable.
func (r *Runtime) InitDirectly(project string, cfg vibesconfig.ProjectConfig) error {
	auditDir := filepath.Join(project, ".ai-audit")
	blobsDir := filepath.Join(auditDir, "blobs")
	if err := os.MkdirAll(blobsDir, 0o755); err != nil {
		return fmt.Errorf("auditio: mkdir .ai-audit: %w", err)
	}

	if err := writeJSONAtomic(filepath.Join(auditDir, "config.json"), cfg); err != nil {
		return fmt.Errorf("auditio: write config.json: %w", err)
	}

	mp := manifestPath(project)
	if _, err := os.Stat(mp); errors.Is(err, os.ErrNotExist) {
		if err := writeJSONAtomic(mp, vibesconfig.NewManifestFile()); err != nil {
			return fmt.Errorf("auditio: write manifest.json: %w", err)
		}
	}

	ap := annotationsPath(project)
	f, err := os.OpenFile(ap, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("auditio: touch annotations.jsonl: %w", err)
	}
	return f.Close()
}

// HasConfig reports whether .ai-audit/config.json already exists, the
// probe the coordinator makes before deciding to auto-init.
func (r *Runtime) HasConfig(project string) bool {
	_, err := os.Stat(filepath.Join(project, ".ai-audit", "config.json"))
	return err == nil
}

// ReadProjectConfig loads .ai-audit/config.json.
func (r *Runtime) ReadProjectConfig(project string) (vibesconfig.ProjectConfig, error) {
	data, err := os.ReadFile(filepath.Join(project, ".ai-audit", "config.json"))
	if err != nil {
		return vibesconfig.ProjectConfig{}, fmt.Errorf("auditio: read config.json: %w", err)
	}
	var cfg vibesconfig.ProjectConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return vibesconfig.ProjectConfig{}, fmt.Errorf("auditio: parse config.json: %w", err)
	}
	return cfg, nil
}
