package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gdaskalakis/troy/internal/models"
	"github.com/gdaskalakis/troy/internal/notify"
	"github.com/gdaskalakis/troy/internal/queue"
	"github.com/gdaskalakis/troy/internal/state"
)

// drain runs handle over every message on a topic and returns the results.
func drain(t *testing.T, q *queue.Memory, topic string, handle func(context.Context, []byte) (*models.HandlerResult, error)) []*models.HandlerResult {
	t.Helper()
	var results []*models.HandlerResult
	for {
		msg, ok := q.Pop(topic)
		if !ok {
			return results
		}
		result, err := handle(context.Background(), msg)
		require.NoError(t, err)
		results = append(results, result)
	}
}

func TestPipelineEndToEnd(t *testing.T) {
	ctx := context.Background()
	store := state.NewMemoryStore()
	store.AddDocument("calls/alice", state.Document{ID: "doc1", Name: "call1.txt"}, validTranscript)
	store.AddDocument("calls/alice", state.Document{ID: "junk", Name: "junk.txt"}, "too short")

	q := queue.NewMemory()
	grader := &stubGrader{results: fixedResults()}
	mailer := notify.NewMemoryMailer()

	scanner := NewScanner(store, store, q, tasksTopic, map[string]string{"alice": "calls/alice"})
	processor := NewProcessor(store, store, grader, q, resultsTopic, "manager@example.com")
	notifier := NewNotifier(store, mailer, "no-reply@vfi.net", "manager@example.com")

	// First pass: both documents are picked up, one is graded, the other
	// quarantined, and exactly one email goes out.
	summary, err := scanner.Scan(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, summary.Published)

	processed := drain(t, q, tasksTopic, processor.Handle)
	require.Len(t, processed, 2)

	emailed := drain(t, q, resultsTopic, notifier.Handle)
	require.Len(t, emailed, 1)
	require.Equal(t, models.StatusSuccess, emailed[0].Status)

	require.Equal(t, 1, grader.calls)
	require.Len(t, mailer.Sent(), 1)
	require.True(t, store.Quarantined("junk"))

	flags, err := store.Flags(ctx, "doc1")
	require.NoError(t, err)
	require.True(t, flags.Processed)
	require.True(t, flags.EmailSent)
	require.False(t, flags.Inflight)

	// Second pass over the same world: nothing is republished, regraded, or
	// re-emailed.
	summary, err = scanner.Scan(ctx)
	require.NoError(t, err)
	require.Zero(t, summary.Published)
	require.Zero(t, q.Len(tasksTopic))
	require.Equal(t, 1, grader.calls)
	require.Len(t, mailer.Sent(), 1)
}

func TestPipelineRedeliveredEventsAreHarmless(t *testing.T) {
	ctx := context.Background()
	store := state.NewMemoryStore()
	store.AddDocument("calls/alice", state.Document{ID: "doc1", Name: "call1.txt"}, validTranscript)

	q := queue.NewMemory()
	grader := &stubGrader{results: fixedResults()}
	mailer := notify.NewMemoryMailer()

	scanner := NewScanner(store, store, q, tasksTopic, map[string]string{"alice": "calls/alice"})
	processor := NewProcessor(store, store, grader, q, resultsTopic, "manager@example.com")
	notifier := NewNotifier(store, mailer, "no-reply@vfi.net", "manager@example.com")

	_, err := scanner.Scan(ctx)
	require.NoError(t, err)

	taskEvent, ok := q.Pop(tasksTopic)
	require.True(t, ok)

	// The task is delivered twice.
	_, err = processor.Handle(ctx, taskEvent)
	require.NoError(t, err)
	dup, err := processor.Handle(ctx, taskEvent)
	require.NoError(t, err)
	require.Equal(t, models.StatusSkipped, dup.Status)

	payloadEvent, ok := q.Pop(resultsTopic)
	require.True(t, ok)

	// The payload is delivered twice as well.
	_, err = notifier.Handle(ctx, payloadEvent)
	require.NoError(t, err)
	dup, err = notifier.Handle(ctx, payloadEvent)
	require.NoError(t, err)
	require.Equal(t, models.StatusSkipped, dup.Status)

	require.Equal(t, 1, grader.calls)
	require.Len(t, mailer.Sent(), 1)
}
