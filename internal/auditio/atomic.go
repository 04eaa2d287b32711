package auditio

import (
	"encoding/json"
	"fmt"
	"os"
)

// writeFileAtomic implements the write-temp-fsync-rename sequence
// config.json/manifest.json need: write the full payload to
// "<path>.tmp", fsync the handle, close, then rename over the final path.
// Rename is atomic at the directory-entry level on POSIX, so concurrent
// readers see either the old or new content, never a torn file. Grounded
// on Aureuma-si's persistLocked (tmp + os.Rename), extended with the
// explicit fsync (see DESIGN.md).
func writeFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp"

	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("auditio: open temp file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("auditio: write temp file: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("auditio: fsync temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("auditio: close temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("auditio: rename temp file: %w", err)
	}
	return nil
}

// writeJSONAtomic marshals v as tab-indented JSON with a trailing newline
// and writes it atomically.
func writeJSONAtomic(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "\t")
	if err != nil {
		return fmt.Errorf("auditio: marshal json: %w", err)
	}
	data = append(data, '\n')
	return writeFileAtomic(path, data)
}
