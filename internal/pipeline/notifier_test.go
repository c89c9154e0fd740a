package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gdaskalakis/troy/internal/models"
	"github.com/gdaskalakis/troy/internal/notify"
	"github.com/gdaskalakis/troy/internal/state"
)

func samplePayload() models.GradingPayload {
	return models.GradingPayload{
		FileID:         "doc1",
		FileName:       "call1.txt",
		Rep:            "alice",
		ManagerEmail:   "manager@example.com",
		Timestamp:      time.Now().UTC(),
		Transcript:     "Rep: Hello.\nProspect: Hi.",
		GradingResults: fixedResults(),
	}
}

func payloadEvent(t *testing.T, payload models.GradingPayload) []byte {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	return data
}

func TestNotifierSendsReport(t *testing.T) {
	ctx := context.Background()
	store := state.NewMemoryStore()
	mailer := notify.NewMemoryMailer()
	n := NewNotifier(store, mailer, "no-reply@vfi.net", "manager@example.com")

	result, err := n.Handle(ctx, payloadEvent(t, samplePayload()))
	require.NoError(t, err)
	require.Equal(t, models.StatusSuccess, result.Status)

	sent := mailer.Sent()
	require.Len(t, sent, 1)
	require.Equal(t, "manager@example.com", sent[0].To)
	require.Equal(t, "no-reply@vfi.net", sent[0].From)
	require.Equal(t, "Sales Transcript Grading: call1.txt - alice", sent[0].Subject)
	require.Contains(t, sent[0].HTMLBody, "Solid call.")
	require.Equal(t, "call1.txt_transcript.txt", sent[0].AttachmentName)
	require.Equal(t, "Rep: Hello.\nProspect: Hi.", string(sent[0].Attachment))

	flags, err := store.Flags(ctx, "doc1")
	require.NoError(t, err)
	require.True(t, flags.EmailSent)
}

func TestNotifierRedeliverySendsOnce(t *testing.T) {
	ctx := context.Background()
	store := state.NewMemoryStore()
	mailer := notify.NewMemoryMailer()
	n := NewNotifier(store, mailer, "no-reply@vfi.net", "manager@example.com")

	event := payloadEvent(t, samplePayload())

	first, err := n.Handle(ctx, event)
	require.NoError(t, err)
	require.Equal(t, models.StatusSuccess, first.Status)

	second, err := n.Handle(ctx, event)
	require.NoError(t, err)
	require.Equal(t, models.StatusSkipped, second.Status)
	require.Equal(t, models.ReasonEmailAlreadySent, second.Reason)

	require.Len(t, mailer.Sent(), 1)
}

func TestNotifierSendFailureLeavesFlagUnset(t *testing.T) {
	ctx := context.Background()
	store := state.NewMemoryStore()
	mailer := notify.NewMemoryMailer()
	mailer.FailWith(errors.New("smtp down"))
	n := NewNotifier(store, mailer, "no-reply@vfi.net", "manager@example.com")

	event := payloadEvent(t, samplePayload())

	result, err := n.Handle(ctx, event)
	require.Error(t, err)
	require.Equal(t, models.StatusFailed, result.Status)

	flags, err := store.Flags(ctx, "doc1")
	require.NoError(t, err)
	require.False(t, flags.EmailSent)

	// Redelivery after the transport recovers sends exactly once.
	mailer.FailWith(nil)
	retry, err := n.Handle(ctx, event)
	require.NoError(t, err)
	require.Equal(t, models.StatusSuccess, retry.Status)
	require.Len(t, mailer.Sent(), 1)
}

func TestNotifierInvalidEvent(t *testing.T) {
	n := NewNotifier(state.NewMemoryStore(), notify.NewMemoryMailer(), "no-reply@vfi.net", "manager@example.com")

	result, err := n.Handle(context.Background(), []byte(`{"rep": "alice"}`))
	require.Error(t, err)
	require.Equal(t, models.StatusFailed, result.Status)
}
