package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gdaskalakis/troy/internal/models"
	"github.com/gdaskalakis/troy/internal/queue"
	"github.com/gdaskalakis/troy/internal/state"
)

const resultsTopic = "transcripts.processed"

// validTranscript is long enough to clear the default validity gate.
var validTranscript = strings.Repeat("Rep: How is the acquisition pipeline looking this quarter? ", 5)

// stubGrader returns a fixed result and counts invocations.
type stubGrader struct {
	calls   int
	results models.GradingResults
}

func (g *stubGrader) GradeAll(ctx context.Context, transcript string) models.GradingResults {
	g.calls++
	return g.results
}

func fixedResults() models.GradingResults {
	return models.GradingResults{
		IndividualScores: map[string]models.SkillReport{
			"discovery": {Skill: "discovery", Grade: models.GradeB, Reasoning: "Good questions."},
		},
		FinalSynthesis: models.SynthesisResult{
			FinalGrade:     models.GradeB,
			Assessment:     "Solid call.",
			DerivedMetrics: map[string]any{},
		},
	}
}

type failingPublisher struct{}

func (failingPublisher) Publish(ctx context.Context, topic string, data []byte) error {
	return errors.New("broker unavailable")
}

func taskEvent(t *testing.T, task models.Task) []byte {
	t.Helper()
	data, err := json.Marshal(task)
	require.NoError(t, err)
	return data
}

func TestProcessorGradesAndPublishes(t *testing.T) {
	ctx := context.Background()
	store := state.NewMemoryStore()
	store.AddDocument("calls/alice", state.Document{ID: "doc1", Name: "call1.txt"}, validTranscript)

	grader := &stubGrader{results: fixedResults()}
	q := queue.NewMemory()
	p := NewProcessor(store, store, grader, q, resultsTopic, "manager@example.com")

	result, err := p.Handle(ctx, taskEvent(t, models.Task{FileID: "doc1", FileName: "call1.txt", Rep: "alice"}))
	require.NoError(t, err)
	require.Equal(t, models.StatusSuccess, result.Status)
	require.Equal(t, 1, grader.calls)

	// Processed flag is set and inflight cleared.
	flags, err := store.Flags(ctx, "doc1")
	require.NoError(t, err)
	require.True(t, flags.Processed)
	require.False(t, flags.Inflight)

	// The published payload carries the full wire shape.
	msg, ok := q.Pop(resultsTopic)
	require.True(t, ok)
	payload, err := queue.DecodeGradingPayload(msg)
	require.NoError(t, err)
	require.Equal(t, "doc1", payload.FileID)
	require.Equal(t, "alice", payload.Rep)
	require.Equal(t, "manager@example.com", payload.ManagerEmail)
	require.Equal(t, validTranscript, payload.Transcript)
	require.Equal(t, models.GradeB, payload.GradingResults.FinalSynthesis.FinalGrade)
	require.Contains(t, payload.Metadata.ExecutionID, "doc1-")
	require.Equal(t, string(models.StatusSuccess), payload.Metadata.ProcessingStatus)
}

func TestProcessorSkipsAlreadyProcessed(t *testing.T) {
	ctx := context.Background()
	store := state.NewMemoryStore()
	store.AddDocument("calls/alice", state.Document{ID: "doc1", Name: "call1.txt"}, validTranscript)
	require.NoError(t, store.SetProcessed(ctx, "doc1"))

	grader := &stubGrader{results: fixedResults()}
	q := queue.NewMemory()
	p := NewProcessor(store, store, grader, q, resultsTopic, "manager@example.com")

	result, err := p.Handle(ctx, taskEvent(t, models.Task{FileID: "doc1"}))
	require.NoError(t, err)
	require.Equal(t, models.StatusSkipped, result.Status)
	require.Equal(t, models.ReasonAlreadyProcessed, result.Reason)

	// No model call, no payload.
	require.Zero(t, grader.calls)
	require.Zero(t, q.Len(resultsTopic))
}

func TestProcessorDuplicateDeliveryGradesOnce(t *testing.T) {
	ctx := context.Background()
	store := state.NewMemoryStore()
	store.AddDocument("calls/alice", state.Document{ID: "doc1", Name: "call1.txt"}, validTranscript)

	grader := &stubGrader{results: fixedResults()}
	q := queue.NewMemory()
	p := NewProcessor(store, store, grader, q, resultsTopic, "manager@example.com")

	event := taskEvent(t, models.Task{FileID: "doc1", FileName: "call1.txt", Rep: "alice"})

	first, err := p.Handle(ctx, event)
	require.NoError(t, err)
	require.Equal(t, models.StatusSuccess, first.Status)

	second, err := p.Handle(ctx, event)
	require.NoError(t, err)
	require.Equal(t, models.StatusSkipped, second.Status)

	require.Equal(t, 1, grader.calls)
	require.Equal(t, 1, q.Len(resultsTopic))
}

func TestProcessorQuarantinesInvalidTranscript(t *testing.T) {
	ctx := context.Background()
	store := state.NewMemoryStore()
	store.AddDocument("calls/alice", state.Document{ID: "doc1", Name: "call1.txt"}, "too short")

	grader := &stubGrader{results: fixedResults()}
	q := queue.NewMemory()
	p := NewProcessor(store, store, grader, q, resultsTopic, "manager@example.com")

	result, err := p.Handle(ctx, taskEvent(t, models.Task{FileID: "doc1"}))
	require.NoError(t, err)
	require.Equal(t, models.StatusSkipped, result.Status)
	require.Equal(t, models.ReasonInvalidTranscript, result.Reason)
	require.NotEmpty(t, result.Details["cause"])

	require.True(t, store.Quarantined("doc1"))
	require.Zero(t, grader.calls)
}

func TestProcessorQuarantinesPlaceholder(t *testing.T) {
	ctx := context.Background()
	store := state.NewMemoryStore()
	content := strings.Repeat("Lorem ipsum dolor sit amet, consectetur adipiscing elit. ", 3)
	store.AddDocument("calls/alice", state.Document{ID: "doc1", Name: "call1.txt"}, content)

	grader := &stubGrader{results: fixedResults()}
	p := NewProcessor(store, store, grader, queue.NewMemory(), resultsTopic, "manager@example.com")

	result, err := p.Handle(ctx, taskEvent(t, models.Task{FileID: "doc1"}))
	require.NoError(t, err)
	require.Equal(t, models.ReasonInvalidTranscript, result.Reason)
	require.True(t, store.Quarantined("doc1"))
}

func TestProcessorFetchFailureQuarantines(t *testing.T) {
	ctx := context.Background()
	store := state.NewMemoryStore()

	grader := &stubGrader{results: fixedResults()}
	p := NewProcessor(store, store, grader, queue.NewMemory(), resultsTopic, "manager@example.com")

	result, err := p.Handle(ctx, taskEvent(t, models.Task{FileID: "ghost"}))
	require.NoError(t, err)
	require.Equal(t, models.StatusSkipped, result.Status)
	require.Equal(t, models.ReasonInvalidTranscript, result.Reason)
	require.True(t, store.Quarantined("ghost"))
}

func TestProcessorPublishFailure(t *testing.T) {
	ctx := context.Background()
	store := state.NewMemoryStore()
	store.AddDocument("calls/alice", state.Document{ID: "doc1", Name: "call1.txt"}, validTranscript)

	grader := &stubGrader{results: fixedResults()}
	p := NewProcessor(store, store, grader, failingPublisher{}, resultsTopic, "manager@example.com")

	result, err := p.Handle(ctx, taskEvent(t, models.Task{FileID: "doc1"}))
	require.Error(t, err)
	require.Equal(t, models.StatusFailed, result.Status)

	// The transcript still counts as processed; recovery goes through the
	// archived payload, not through regrading.
	flags, err := store.Flags(ctx, "doc1")
	require.NoError(t, err)
	require.True(t, flags.Processed)
}

func TestProcessorInvalidEvent(t *testing.T) {
	p := NewProcessor(state.NewMemoryStore(), state.NewMemoryStore(), &stubGrader{}, queue.NewMemory(), resultsTopic, "manager@example.com")

	result, err := p.Handle(context.Background(), []byte(`{"fileName": "no-id.txt"}`))
	require.Error(t, err)
	require.Equal(t, models.StatusFailed, result.Status)
}
