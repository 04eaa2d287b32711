package annotation

import (
	"time"

	"github.com/google/uuid"
)

// Clock supplies "now" to the builder. Tests inject a fixed clock so
// constructed entries have deterministic created_at/timestamp values.
type Clock interface {
	Now() time.Time
}

// IDGenerator supplies session and other generated identifiers. Tests
// inject a sequence generator for deterministic ids.
type IDGenerator interface {
	NewID() string
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

type uuidGenerator struct{}

func (uuidGenerator) NewID() string { return uuid.New().String() }

// SystemClock is the default Clock, backed by time.Now.
func SystemClock() Clock { return systemClock{} }

// UUIDGenerator is the default IDGenerator, backed by uuid.New.
func UUIDGenerator() IDGenerator { return uuidGenerator{} }

// formatTimestamp renders t as ISO-8601 UTC with millisecond precision.
func formatTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}
