package main

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRootCommandSubcommands(t *testing.T) {
	cmd := newRootCommand()

	expected := []string{"scan", "process", "notify", "run", "grade", "replay", "clear-flag", "init"}
	for _, name := range expected {
		found := false
		for _, sub := range cmd.Commands() {
			if sub.Name() == name {
				found = true
				break
			}
		}
		require.True(t, found, "missing subcommand %q", name)
	}
}

func TestStageFailureErrorMatching(t *testing.T) {
	wrapped := fmt.Errorf("pipeline: %w", &StageFailureError{Message: "2 task(s) failed"})

	var sfe *StageFailureError
	require.True(t, errors.As(wrapped, &sfe))
	require.Equal(t, "2 task(s) failed", sfe.Message)

	require.False(t, errors.As(errors.New("plain"), &sfe))
}

func TestClearFlagRejectsUnknownFlag(t *testing.T) {
	cmd := newRootCommand()
	cmd.SetArgs([]string{"clear-flag", "doc1", "bogus"})
	err := cmd.Execute()
	require.ErrorContains(t, err, "unknown flag")
}
