package auditio

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/andywolf/vibes-core/internal/annotation"
)

// projectBuffer holds pending annotations plus at
// most one armed flush timer.
type projectBuffer struct {
	mu         sync.Mutex
	pending    []annotation.Record
	timerArmed bool
}

func annotationsPath(project string) string {
	return filepath.Join(project, ".ai-audit", "annotations.jsonl")
}

// AppendAnnotation enters rec into the project's buffer without writing to
// disk and returns. A flush is triggered once the buffer reaches 20
// records (scheduled, not awaited) or 2 seconds after the first record in
// the current window, whichever comes first. Re-arming the
// timer while already armed is a no-op.
func (r *Runtime) AppendAnnotation(project string, rec annotation.Record) {
	pb := r.getBuffer(project)

	pb.mu.Lock()
	pb.pending = append(pb.pending, rec)
	needsImmediateFlush := len(pb.pending) >= annotationFlushSize
	if !pb.timerArmed {
		pb.timerArmed = true
		time.AfterFunc(annotationFlushInterval, func() {
			r.flushAnnotations(project)
		})
	}
	pb.mu.Unlock()

	if needsImmediateFlush {
		go r.flushAnnotations(project)
	}
}

// AppendAnnotationImmediate bypasses the buffer: it acquires the project
// mutex, flushes any pending buffered records first (to preserve on-disk
// order), then appends rec before releasing the lock. Used for session
// start/end records so crashes cannot lose session bracketing.
func (r *Runtime) AppendAnnotationImmediate(project string, rec annotation.Record) error {
	lock := r.projectLock(project)
	lock.Lock()
	defer lock.Unlock()

	if err := r.flushAnnotationsLocked(project); err != nil {
		r.logger.Warnf("auditio: flush before immediate append in %s: %v", project, err)
	}
	return r.appendRecords(project, []annotation.Record{rec})
}

// flushAnnotations acquires the project mutex and drains the buffer.
func (r *Runtime) flushAnnotations(project string) {
	lock := r.projectLock(project)
	lock.Lock()
	defer lock.Unlock()

	if err := r.flushAnnotationsLocked(project); err != nil {
		r.logger.Warnf("auditio: flush annotations for %s: %v", project, err)
	}
}

// flushAnnotationsLocked assumes the caller already holds the project
// mutex.
func (r *Runtime) flushAnnotationsLocked(project string) error {
	pb := r.getBuffer(project)

	pb.mu.Lock()
	records := pb.pending
	pb.pending = nil
	pb.timerArmed = false
	pb.mu.Unlock()

	if len(records) == 0 {
		return nil
	}
	return r.appendRecords(project, records)
}

func (r *Runtime) appendRecords(project string, records []annotation.Record) error {
	path := annotationsPath(project)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("auditio: mkdir for annotations: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("auditio: open annotations file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, rec := range records {
		data, err := rec.MarshalJSON()
		if err != nil {
			return fmt.Errorf("auditio: marshal annotation: %w", err)
		}
		if _, err := w.Write(data); err != nil {
			return fmt.Errorf("auditio: write annotation: %w", err)
		}
		if err := w.WriteByte('\n'); err != nil {
			return fmt.Errorf("auditio: write newline: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("auditio: flush annotations: %w", err)
	}
	return nil
}

// ReadAnnotations reads every line of annotations.jsonl back as raw JSON,
// for round-trip tests.
func (r *Runtime) ReadAnnotations(project string) ([]string, error) {
	path := annotationsPath(project)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("auditio: read annotations: %w", err)
	}
	var lines []string
	start := 0
	for i, b := range data {
		if b == '\n' {
			if i > start {
				lines = append(lines, string(data[start:i]))
			}
			start = i + 1
		}
	}
	return lines, nil
}
