package state

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFlagsPropertiesRoundTrip(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	f := Flags{
		Inflight:    true,
		InflightAt:  now,
		Processed:   true,
		ProcessedAt: now.Add(time.Minute),
		EmailSent:   true,
	}

	props := f.Properties()
	require.Equal(t, "true", props[KeyInflight])
	require.Equal(t, "true", props[KeyProcessed])
	require.Equal(t, "true", props[KeyEmailSent])
	require.Equal(t, "2026-03-14T09:30:00Z", props[KeyInflightAt])

	parsed := FlagsFromProperties(props)
	require.Equal(t, f, parsed)
}

func TestFlagsZeroTimestampsOmitted(t *testing.T) {
	props := Flags{Processed: true}.Properties()
	require.Equal(t, "true", props[KeyProcessed])
	require.NotContains(t, props, KeyProcessedAt)
	require.NotContains(t, props, KeyInflightAt)
}

func TestFlagsFromPropertiesMalformed(t *testing.T) {
	f := FlagsFromProperties(map[string]string{
		KeyProcessed:  "definitely",
		KeyInflightAt: "not-a-timestamp",
		KeyEmailSent:  "TRUE",
	})
	require.False(t, f.Processed)
	require.True(t, f.EmailSent)
	require.True(t, f.InflightAt.IsZero())
}

func TestFlagsFromPropertiesEmpty(t *testing.T) {
	f := FlagsFromProperties(map[string]string{})
	require.Equal(t, Flags{}, f)
}
