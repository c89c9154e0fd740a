package pipeline

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTranscriptPolicyAcceptsRealContent(t *testing.T) {
	p := DefaultTranscriptPolicy()
	require.Empty(t, p.Check(validTranscript))
}

func TestTranscriptPolicyRejectsShort(t *testing.T) {
	p := DefaultTranscriptPolicy()
	require.NotEmpty(t, p.Check("hi"))
	require.NotEmpty(t, p.Check("   "))
	require.NotEmpty(t, p.Check(""))
}

func TestTranscriptPolicyRejectsPlaceholders(t *testing.T) {
	p := DefaultTranscriptPolicy()
	long := strings.Repeat("x", DefaultMinTranscriptChars)

	require.NotEmpty(t, p.Check("LOREM IPSUM dolor sit amet "+long))
	require.NotEmpty(t, p.Check("this is a Test Transcript "+long))
	require.NotEmpty(t, p.Check("placeholder content "+long))
}

func TestTranscriptPolicyCustomThresholds(t *testing.T) {
	p := TranscriptPolicy{MinChars: 5, PlaceholderPatterns: []string{"synthetic"}}

	require.Empty(t, p.Check("short but fine"))
	require.NotEmpty(t, p.Check("tiny"))
	require.NotEmpty(t, p.Check("entirely SYNTHETIC content here"))
}
