package auditio

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/andywolf/vibes-core/internal/annotation"
	"github.com/andywolf/vibes-core/internal/vibesconfig"
)

type pendingEntry struct {
	entry annotation.ManifestEntry
}

// manifestDebounce holds a write-if-absent pending map plus a generation
// counter standing in for a cancelable timer.
type manifestDebounce struct {
	mu         sync.Mutex
	pending    map[string]pendingEntry
	generation int
}

func manifestPath(project string) string {
	return filepath.Join(project, ".ai-audit", "manifest.json")
}

// AddManifestEntry stores (hash -> entry) in the project's pending map,
// write-if-absent, and arms a 500ms debounce timer. Each subsequent call
// resets the effective deadline by incrementing a generation counter that
// the fired callback checks before acting — superseded timers become
// no-ops rather than being canceled.
func (r *Runtime) AddManifestEntry(project, hash string, entry annotation.ManifestEntry) {
	md := r.getDebounce(project)

	md.mu.Lock()
	if _, exists := md.pending[hash]; !exists {
		md.pending[hash] = pendingEntry{entry: entry}
	}
	md.generation++
	gen := md.generation
	md.mu.Unlock()

	time.AfterFunc(manifestDebounceDelay, func() {
		r.flushManifestIfCurrent(project, gen)
	})
}

func (r *Runtime) flushManifestIfCurrent(project string, gen int) {
	md := r.getDebounce(project)

	md.mu.Lock()
	if gen != md.generation {
		// A later AddManifestEntry call superseded this arm.
		md.mu.Unlock()
		return
	}
	pending := md.pending
	md.pending = map[string]pendingEntry{}
	md.mu.Unlock()

	if len(pending) == 0 {
		return
	}

	lock := r.projectLock(project)
	lock.Lock()
	defer lock.Unlock()

	if err := r.mergeManifestLocked(project, pending); err != nil {
		r.logger.Warnf("auditio: manifest flush for %s: %v", project, err)
	}
}

// forceFlushManifest drains and writes any pending manifest entries for
// project regardless of generation, used by FlushAll.
func (r *Runtime) forceFlushManifest(project string) error {
	md := r.getDebounce(project)

	md.mu.Lock()
	pending := md.pending
	md.pending = map[string]pendingEntry{}
	md.generation++
	md.mu.Unlock()

	if len(pending) == 0 {
		return nil
	}

	lock := r.projectLock(project)
	lock.Lock()
	defer lock.Unlock()

	return r.mergeManifestLocked(project, pending)
}

// mergeManifestLocked assumes the caller holds the project mutex. It reads
// the current manifest.json (or starts fresh), inserts pending hashes not
// already present (manifest entries are immutable once written), and
// rewrites atomically.
func (r *Runtime) mergeManifestLocked(project string, pending map[string]pendingEntry) error {
	mf, err := r.readManifest(project)
	if err != nil {
		return err
	}

	changed := false
	for hash, pe := range pending {
		if _, exists := mf.Entries[hash]; exists {
			continue
		}
		raw, err := json.Marshal(pe.entry)
		if err != nil {
			return fmt.Errorf("auditio: marshal manifest entry %s: %w", hash, err)
		}
		mf.Entries[hash] = raw
		changed = true
	}
	if !changed {
		return nil
	}

	return writeJSONAtomic(manifestPath(project), mf)
}

func (r *Runtime) readManifest(project string) (vibesconfig.ManifestFile, error) {
	data, err := os.ReadFile(manifestPath(project))
	if errors.Is(err, os.ErrNotExist) {
		return vibesconfig.NewManifestFile(), nil
	}
	if err != nil {
		return vibesconfig.ManifestFile{}, fmt.Errorf("auditio: read manifest: %w", err)
	}
	var mf vibesconfig.ManifestFile
	if err := json.Unmarshal(data, &mf); err != nil {
		return vibesconfig.ManifestFile{}, fmt.Errorf("auditio: parse manifest: %w", err)
	}
	if mf.Entries == nil {
		mf.Entries = map[string]json.RawMessage{}
	}
	return mf, nil
}

// ReadManifest exposes the current on-disk manifest for read-side callers
// and tests.
func (r *Runtime) ReadManifest(project string) (vibesconfig.ManifestFile, error) {
	return r.readManifest(project)
}
