// Package auditio is the durable I/O layer: it
// buffers and debounces writes to a project's .ai-audit/ directory,
// serializes them per project, and performs the atomic write-temp-fsync-
// rename sequence for config.json/manifest.json. It is the shared
// single runtime value, owned by the coordinator and passed by reference
// to whatever needs it.
package auditio

import (
	"sync"
	"time"

	"github.com/andywolf/vibes-core/internal/observability"
)

const (
	annotationFlushSize     = 20
	annotationFlushInterval = 2 * time.Second
	manifestDebounceDelay   = 500 * time.Millisecond
)

// Runtime owns, per project path, a pending-annotation buffer, a pending-
// manifest debounce map, and a serializing mutex — the in-process
// substitute for an async task chain.
type Runtime struct {
	logger observability.Logger

	mapMu      sync.Mutex
	projectMus map[string]*sync.Mutex
	buffers    map[string]*projectBuffer
	debounces  map[string]*manifestDebounce
}

// NewRuntime returns a Runtime logging warnings through logger. A nil
// logger is replaced with observability.NoopLogger.
func NewRuntime(logger observability.Logger) *Runtime {
	if logger == nil {
		logger = observability.NoopLogger{}
	}
	return &Runtime{
		logger:     logger,
		projectMus: map[string]*sync.Mutex{},
		buffers:    map[string]*projectBuffer{},
		debounces:  map[string]*manifestDebounce{},
	}
}

func (r *Runtime) projectLock(project string) *sync.Mutex {
	r.mapMu.Lock()
	defer r.mapMu.Unlock()
	m, ok := r.projectMus[project]
	if !ok {
		m = &sync.Mutex{}
		r.projectMus[project] = m
	}
	return m
}

func (r *Runtime) getBuffer(project string) *projectBuffer {
	r.mapMu.Lock()
	defer r.mapMu.Unlock()
	b, ok := r.buffers[project]
	if !ok {
		b = &projectBuffer{}
		r.buffers[project] = b
	}
	return b
}

func (r *Runtime) getDebounce(project string) *manifestDebounce {
	r.mapMu.Lock()
	defer r.mapMu.Unlock()
	d, ok := r.debounces[project]
	if !ok {
		d = &manifestDebounce{pending: map[string]pendingEntry{}}
		r.debounces[project] = d
	}
	return d
}

// knownProjects returns every project path with a live buffer or
// debounce entry, used by FlushAll.
func (r *Runtime) knownProjects() []string {
	r.mapMu.Lock()
	defer r.mapMu.Unlock()
	seen := map[string]bool{}
	for p := range r.buffers {
		seen[p] = true
	}
	for p := range r.debounces {
		seen[p] = true
	}
	projects := make([]string, 0, len(seen))
	for p := range seen {
		projects = append(projects, p)
	}
	return projects
}
