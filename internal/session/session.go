// Package session implements the per-session state machine: start/end bracketing, annotation counting, and
// environment-hash linking, backed by the durable I/O runtime.
package session

import (
	"sync"

	"github.com/andywolf/vibes-core/internal/annotation"
	"github.com/andywolf/vibes-core/internal/auditio"
	"github.com/andywolf/vibes-core/internal/observability"
	"github.com/andywolf/vibes-core/internal/vibesconfig"
)

// State is one live agent session.
type State struct {
	ID              string
	ProjectPath     string
	AgentType       string
	Assurance       vibesconfig.AssuranceLevel
	EnvironmentHash string
	AnnotationCount int
	Active          bool

	mu sync.Mutex
}

// LastAnnotation is the payload handed to OnAnnotationRecorded, mirroring
// the notification shape coordinator forwards to the UI.
type LastAnnotation struct {
	Type      string
	FilePath  string
	Action    string
	Timestamp string
}

// OnAnnotationRecorded is invoked synchronously after every annotation
// count increments. Panics inside it are recovered so a misbehaving
// callback can never break instrumentation.
type OnAnnotationRecorded func(sessionID string, count int, last LastAnnotation)

// Manager holds every live SessionState behind a single mutex, the Go-
// native substitute for module-level mutable maps.
type Manager struct {
	io      *auditio.Runtime
	builder *annotation.Builder
	logger  observability.Logger

	OnAnnotationRecorded OnAnnotationRecorded

	mu       sync.Mutex
	sessions map[string]*State
}

// NewManager returns a Manager writing through io and building entries
// with builder. A nil builder defaults to annotation.NewBuilder(); a nil
// logger defaults to a no-op logger.
func NewManager(io *auditio.Runtime, builder *annotation.Builder, logger observability.Logger) *Manager {
	if builder == nil {
		builder = annotation.NewBuilder()
	}
	if logger == nil {
		logger = observability.NoopLogger{}
	}
	return &Manager{io: io, builder: builder, logger: logger, sessions: map[string]*State{}}
}

// StartSession writes a session-start record via the immediate path and
// registers the session. The record's session_id is id itself; no
// separate UUID session id is generated. If id is
// already active, VIBES core refuses: it returns the existing state
// unchanged and logs a warning rather than silently overwriting (open
// question #1, DESIGN.md).
func (m *Manager) StartSession(id, projectPath, agentType string, assurance vibesconfig.AssuranceLevel, envHash string) *State {
	m.mu.Lock()
	if existing, ok := m.sessions[id]; ok && existing.Active {
		m.mu.Unlock()
		m.logger.Warnf("session: StartSession(%s) called while already active, refusing to overwrite", id)
		return existing
	}
	m.mu.Unlock()

	st := &State{
		ID:              id,
		ProjectPath:     projectPath,
		AgentType:       agentType,
		Assurance:       assurance,
		EnvironmentHash: envHash,
		Active:          true,
	}

	m.mu.Lock()
	m.sessions[id] = st
	m.mu.Unlock()

	rec := m.builder.NewSessionRecord(annotation.SessionStart, id, envHash, string(assurance), "")
	if err := m.io.AppendAnnotationImmediate(projectPath, rec); err != nil {
		m.logger.Warnf("session: start record for %s: %v", id, err)
	}
	m.bumpCount(st, "session", "", "", rec.Timestamp)

	return st
}

// EndSession is a no-op if id is unknown or already ended. Otherwise it
// flushes buffered annotations, writes the session-end record via the
// immediate path (including the current environment_hash, if set), and
// marks the session inactive.
func (m *Manager) EndSession(id string) {
	st := m.get(id)
	if st == nil {
		return
	}

	st.mu.Lock()
	if !st.Active {
		st.mu.Unlock()
		return
	}
	st.Active = false
	envHash := st.EnvironmentHash
	assurance := st.Assurance
	st.mu.Unlock()

	rec := m.builder.NewSessionRecord(annotation.SessionEnd, id, envHash, string(assurance), "")
	if err := m.io.AppendAnnotationImmediate(st.ProjectPath, rec); err != nil {
		m.logger.Warnf("session: end record for %s: %v", id, err)
	}
}

// RecordAnnotation is a no-op if id is unknown or inactive. Otherwise it
// appends rec via the buffered path and increments the session's
// annotation counter.
func (m *Manager) RecordAnnotation(id string, rec annotation.Record) {
	st := m.get(id)
	if st == nil || !st.isActive() {
		return
	}
	m.io.AppendAnnotation(st.ProjectPath, rec)

	var filePath, action string
	if line, ok := rec.(annotation.LineRecord); ok {
		filePath = line.FilePath
		action = string(line.Action)
	}
	m.bumpCount(st, rec.Type(), filePath, action, "")
}

// RecordManifestEntry is a no-op if id is unknown or inactive. Otherwise
// it schedules entry via the debounced manifest path. The annotation
// counter is not incremented — manifest entries are not annotations.
func (m *Manager) RecordManifestEntry(id, hash string, entry annotation.ManifestEntry) {
	st := m.get(id)
	if st == nil || !st.isActive() {
		return
	}
	m.io.AddManifestEntry(st.ProjectPath, hash, entry)
}

// UpdateEnvironmentHash sets the field on an active session; no-op
// otherwise. Used when the real model name arrives after session start,
// replacing the coordinator's placeholder environment entry "in place"
// rather than creating a second one.
func (m *Manager) UpdateEnvironmentHash(id, newHash string) {
	st := m.get(id)
	if st == nil || !st.isActive() {
		return
	}
	st.mu.Lock()
	st.EnvironmentHash = newHash
	st.mu.Unlock()
}

// Get returns the session state for id, or nil if unknown.
func (m *Manager) Get(id string) *State {
	return m.get(id)
}

func (m *Manager) get(id string) *State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[id]
}

func (s *State) isActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Active
}

// EnvHash returns the session's current environment hash, or "" if unset.
func (s *State) EnvHash() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.EnvironmentHash
}

func (m *Manager) bumpCount(st *State, recType, filePath, action, timestamp string) {
	st.mu.Lock()
	st.AnnotationCount++
	count := st.AnnotationCount
	st.mu.Unlock()

	if m.OnAnnotationRecorded == nil {
		return
	}
	func() {
		defer func() {
			if r := recover(); r != nil {
				m.logger.Warnf("session: OnAnnotationRecorded callback panicked: %v", r)
			}
		}()
		m.OnAnnotationRecorded(st.ID, count, LastAnnotation{Type: recType, FilePath: filePath, Action: action, Timestamp: timestamp})
	}()
}
