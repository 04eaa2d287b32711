package auditio

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
)

// WriteReasoningBlob ensures the blobs/ subdirectory exists and writes
// blobs/{hash}.blob, returning the relative path (forward-slash, regardless
// of host OS, since it is stored verbatim as blob_path in manifest.json)
// the caller passes to the external-reasoning entry constructor.
func (r *Runtime) WriteReasoningBlob(project, hash string, data []byte) (string, error) {
	blobsDir := filepath.Join(project, ".ai-audit", "blobs")
	if err := os.MkdirAll(blobsDir, 0o755); err != nil {
		return "", fmt.Errorf("auditio: mkdir blobs: %w", err)
	}

	relPath := path.Join("blobs", hash+".blob")
	fullPath := filepath.Join(project, ".ai-audit", filepath.FromSlash(relPath))
	if err := os.WriteFile(fullPath, data, 0o644); err != nil {
		return "", fmt.Errorf("auditio: write blob: %w", err)
	}
	return relPath, nil
}

// ReadReasoningBlob reads back a previously written blob, for round-trip
// tests.
func (r *Runtime) ReadReasoningBlob(project, relPath string) ([]byte, error) {
	fullPath := filepath.Join(project, ".ai-audit", filepath.FromSlash(relPath))
	data, err := os.ReadFile(fullPath)
	if err != nil {
		return nil, fmt.Errorf("auditio: read blob: %w", err)
	}
	return data, nil
}
