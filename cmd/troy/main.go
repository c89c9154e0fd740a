package main

import (
	"errors"
	"fmt"
	"os"
)

// Exit codes for different failure modes
const (
	ExitSuccess     = 0 // Everything handled successfully
	ExitStageFailed = 1 // One or more pipeline events failed
	ExitError       = 2 // Configuration or runtime error
)

// StageFailureError indicates that the command itself ran, but one or more
// pipeline events it handled ended in a failed result.
type StageFailureError struct {
	Message string
}

func (e *StageFailureError) Error() string {
	return e.Message
}

func main() {
	if err := execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)

		// Check error type to determine exit code
		var stageFailureErr *StageFailureError
		if errors.As(err, &stageFailureErr) {
			os.Exit(ExitStageFailed)
		}

		// All other errors are configuration/runtime errors
		os.Exit(ExitError)
	}
}
