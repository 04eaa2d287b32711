// Package observability carries a small logging layer
// (Infof/Warnf/Errorf over a stdlib *log.Logger), with
// no cloud-sink half:
// this core has no cloud control plane to forward logs to (DESIGN.md).
package observability

import (
	"log"
	"os"
)

// Logger is the small logging contract every component that can fail
// is given, so I/O and handler errors are
// logged at warn level instead of propagating to the host agent process.
type Logger interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// StdLogger implements Logger over the standard library's *log.Logger.
type StdLogger struct {
	l *log.Logger
}

// NewStdLogger returns a StdLogger writing to stderr with a "vibes: "
// prefix, matching the project's logger prefix convention.
func NewStdLogger() *StdLogger {
	return &StdLogger{l: log.New(os.Stderr, "vibes: ", log.LstdFlags)}
}

func (s *StdLogger) Infof(format string, args ...any)  { s.l.Printf("INFO "+format, args...) }
func (s *StdLogger) Warnf(format string, args ...any)  { s.l.Printf("WARN "+format, args...) }
func (s *StdLogger) Errorf(format string, args ...any) { s.l.Printf("ERROR "+format, args...) }

// NoopLogger discards everything; used by tests that don't care about log
// output.
type NoopLogger struct{}

func (NoopLogger) Infof(string, ...any)  {}
func (NoopLogger) Warnf(string, ...any)  {}
func (NoopLogger) Errorf(string, ...any) {}
