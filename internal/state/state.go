// Package state defines the flag store and document store capabilities the
// pipeline stages coordinate through. The flag store is read-then-write with
// no compare-and-swap guarantee: duplicate work is an accepted, bounded cost;
// duplicate final side effects are prevented by per-stage idempotency checks.
package state

import (
	"context"
	"strconv"
	"time"
)

// Flag property keys, persisted as string-typed values for portability
// across storage backends.
const (
	KeyProcessed   = "processed"
	KeyProcessedAt = "processed_at"
	KeyInflight    = "inflight"
	KeyInflightAt  = "inflight_at"
	KeyEmailSent   = "email_sent"
)

// Flags is the per-transcript idempotency record. All flags start unset;
// they transition in stage order (inflight before processed before
// email_sent) and are never deleted by the pipeline itself.
type Flags struct {
	Inflight    bool
	InflightAt  time.Time
	Processed   bool
	ProcessedAt time.Time
	EmailSent   bool
}

// Properties renders the flags as the string property bag stored on the
// source item.
func (f Flags) Properties() map[string]string {
	props := map[string]string{
		KeyInflight:  strconv.FormatBool(f.Inflight),
		KeyProcessed: strconv.FormatBool(f.Processed),
		KeyEmailSent: strconv.FormatBool(f.EmailSent),
	}
	if !f.InflightAt.IsZero() {
		props[KeyInflightAt] = f.InflightAt.UTC().Format(time.RFC3339)
	}
	if !f.ProcessedAt.IsZero() {
		props[KeyProcessedAt] = f.ProcessedAt.UTC().Format(time.RFC3339)
	}
	return props
}

// FlagsFromProperties parses a string property bag. Unknown or malformed
// values read as unset; flags are best-effort by design.
func FlagsFromProperties(props map[string]string) Flags {
	var f Flags
	f.Inflight, _ = strconv.ParseBool(props[KeyInflight])
	f.Processed, _ = strconv.ParseBool(props[KeyProcessed])
	f.EmailSent, _ = strconv.ParseBool(props[KeyEmailSent])
	if t, err := time.Parse(time.RFC3339, props[KeyInflightAt]); err == nil {
		f.InflightAt = t
	}
	if t, err := time.Parse(time.RFC3339, props[KeyProcessedAt]); err == nil {
		f.ProcessedAt = t
	}
	return f
}

// StateStore reads and writes the per-transcript flags. Implementations may
// offer stronger atomicity (e.g. conditional updates), but callers must only
// rely on the best-effort read-then-write semantics documented here.
type StateStore interface {
	// Flags returns the current flags for the transcript.
	Flags(ctx context.Context, id string) (Flags, error)

	// TrySetInflight marks the transcript inflight with a timestamp.
	// It returns false without writing when the transcript is already
	// inflight or processed.
	TrySetInflight(ctx context.Context, id string) (bool, error)

	// SetProcessed marks the transcript processed and clears inflight.
	SetProcessed(ctx context.Context, id string) error

	// SetEmailSent marks the notification as dispatched. Callers must only
	// invoke this after a confirmed send.
	SetEmailSent(ctx context.Context, id string) error

	// ClearFlag unsets a single flag key. Maintenance use only.
	ClearFlag(ctx context.Context, id string, key string) error
}

// Document is one candidate transcript in a source location.
type Document struct {
	ID   string
	Name string
}

// DocumentStore lists and fetches transcripts, and moves terminally invalid
// ones out of the scan set.
type DocumentStore interface {
	// List enumerates candidate transcripts in a source location.
	List(ctx context.Context, location string) ([]Document, error)

	// Fetch returns the plain-text content of a transcript. An empty
	// string with no error means the document had no usable content.
	Fetch(ctx context.Context, id string) (string, error)

	// Quarantine moves the document out of the scan set so it is never
	// picked up again.
	Quarantine(ctx context.Context, id string) error
}
