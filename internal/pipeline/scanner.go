// Package pipeline implements the three queue-triggered stages (scanner,
// processor, notifier) and the idempotency state machine that keeps each
// transcript graded and emailed at most once despite at-least-once delivery.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/gdaskalakis/troy/internal/models"
	"github.com/gdaskalakis/troy/internal/queue"
	"github.com/gdaskalakis/troy/internal/state"
)

// Scanner enumerates candidate transcripts, claims unseen ones by marking
// them inflight, and publishes one task per claimed transcript.
type Scanner struct {
	flags state.StateStore
	docs  state.DocumentStore
	pub   queue.Publisher
	topic string

	// sources maps a rep identifier to their transcript source location.
	sources map[string]string
}

// NewScanner creates a scanner publishing tasks to the given topic.
func NewScanner(flags state.StateStore, docs state.DocumentStore, pub queue.Publisher, topic string, sources map[string]string) *Scanner {
	return &Scanner{
		flags:   flags,
		docs:    docs,
		pub:     pub,
		topic:   topic,
		sources: sources,
	}
}

// ScanSummary reports what one scan pass did.
type ScanSummary struct {
	Scanned   int `json:"scanned"`
	Published int `json:"published"`
	Skipped   int `json:"skipped"`
	Errors    int `json:"errors"`
}

// Scan runs one pass over every configured source location. A transcript
// already processed or inflight is skipped without republishing. The claim
// is read-then-write: two concurrent passes can both observe an unseen
// transcript, so the processor re-checks before doing expensive work.
func (s *Scanner) Scan(ctx context.Context) (*ScanSummary, error) {
	summary := &ScanSummary{}

	for rep, location := range s.sources {
		docs, err := s.docs.List(ctx, location)
		if err != nil {
			slog.ErrorContext(ctx, "failed to list source location", "rep", rep, "location", location, "error", err)
			summary.Errors++
			continue
		}

		for _, doc := range docs {
			summary.Scanned++

			flags, err := s.flags.Flags(ctx, doc.ID)
			if err != nil {
				// Best effort: an unreadable flag degrades to "proceed",
				// accepting possible duplicate work over halting the scan.
				slog.WarnContext(ctx, "failed to read flags, proceeding", "fileId", doc.ID, "error", err)
			} else if flags.Processed || flags.Inflight {
				summary.Skipped++
				continue
			}

			claimed, err := s.flags.TrySetInflight(ctx, doc.ID)
			if err != nil {
				slog.ErrorContext(ctx, "failed to mark inflight", "fileId", doc.ID, "error", err)
				summary.Errors++
				continue
			}
			if !claimed {
				summary.Skipped++
				continue
			}

			task := models.Task{
				FileID:   doc.ID,
				FileName: doc.Name,
				Rep:      rep,
				FolderID: location,
			}
			if err := s.publish(ctx, task); err != nil {
				slog.ErrorContext(ctx, "failed to publish task", "fileId", doc.ID, "error", err)
				summary.Errors++
				continue
			}

			slog.InfoContext(ctx, "published task", "fileId", doc.ID, "fileName", doc.Name, "rep", rep)
			summary.Published++
		}
	}

	return summary, nil
}

func (s *Scanner) publish(ctx context.Context, task models.Task) error {
	data, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("marshaling task: %w", err)
	}
	return s.pub.Publish(ctx, s.topic, data)
}
