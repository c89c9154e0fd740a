package state

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemoryStoreTrySetInflight(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()

	claimed, err := m.TrySetInflight(ctx, "doc1")
	require.NoError(t, err)
	require.True(t, claimed)

	// A second claim on the same document loses.
	claimed, err = m.TrySetInflight(ctx, "doc1")
	require.NoError(t, err)
	require.False(t, claimed)

	f, err := m.Flags(ctx, "doc1")
	require.NoError(t, err)
	require.True(t, f.Inflight)
	require.False(t, f.InflightAt.IsZero())
}

func TestMemoryStoreProcessedBlocksInflight(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()

	require.NoError(t, m.SetProcessed(ctx, "doc1"))

	claimed, err := m.TrySetInflight(ctx, "doc1")
	require.NoError(t, err)
	require.False(t, claimed)
}

func TestMemoryStoreSetProcessedClearsInflight(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()

	_, err := m.TrySetInflight(ctx, "doc1")
	require.NoError(t, err)
	require.NoError(t, m.SetProcessed(ctx, "doc1"))

	f, err := m.Flags(ctx, "doc1")
	require.NoError(t, err)
	require.True(t, f.Processed)
	require.False(t, f.Inflight)
	require.False(t, f.ProcessedAt.IsZero())
}

func TestMemoryStoreClearFlag(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()

	require.NoError(t, m.SetProcessed(ctx, "doc1"))
	require.NoError(t, m.SetEmailSent(ctx, "doc1"))

	require.NoError(t, m.ClearFlag(ctx, "doc1", KeyProcessed))
	f, err := m.Flags(ctx, "doc1")
	require.NoError(t, err)
	require.False(t, f.Processed)
	require.True(t, f.ProcessedAt.IsZero())
	require.True(t, f.EmailSent)

	require.Error(t, m.ClearFlag(ctx, "doc1", "bogus"))
}

func TestMemoryStoreQuarantineHidesDocument(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	m.AddDocument("calls/alice", Document{ID: "doc1", Name: "call1.txt"}, "hello")
	m.AddDocument("calls/alice", Document{ID: "doc2", Name: "call2.txt"}, "world")

	require.NoError(t, m.Quarantine(ctx, "doc1"))

	docs, err := m.List(ctx, "calls/alice")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	require.Equal(t, "doc2", docs[0].ID)
	require.True(t, m.Quarantined("doc1"))
}

func TestMemoryStoreFetch(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	m.AddDocument("calls/alice", Document{ID: "doc1", Name: "call1.txt"}, "the transcript")

	content, err := m.Fetch(ctx, "doc1")
	require.NoError(t, err)
	require.Equal(t, "the transcript", content)

	_, err = m.Fetch(ctx, "missing")
	require.ErrorContains(t, err, "not found")
}
