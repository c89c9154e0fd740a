package llm

import (
	"context"
	"sync"
)

// ScriptedClient is a test double that replays canned responses in order.
// Once the script is exhausted the last response repeats, so callers that
// retry don't run off the end.
type ScriptedClient struct {
	mu        sync.Mutex
	responses []string
	errs      []error
	calls     int
	prompts   []string
}

// NewScriptedClient creates a client that returns the given responses, one
// per Generate call.
func NewScriptedClient(responses ...string) *ScriptedClient {
	return &ScriptedClient{responses: responses}
}

// NewFailingClient creates a client whose every call fails with err.
func NewFailingClient(err error) *ScriptedClient {
	return &ScriptedClient{errs: []error{err}}
}

// Generate implements [Client].
func (s *ScriptedClient) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.calls
	s.calls++
	s.prompts = append(s.prompts, req.Prompt)

	if len(s.errs) > 0 {
		if idx >= len(s.errs) {
			idx = len(s.errs) - 1
		}
		return "", s.errs[idx]
	}

	if len(s.responses) == 0 {
		return "", nil
	}
	if idx >= len(s.responses) {
		idx = len(s.responses) - 1
	}
	return s.responses[idx], nil
}

// Calls returns how many times Generate was invoked.
func (s *ScriptedClient) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// Prompts returns the prompts received so far.
func (s *ScriptedClient) Prompts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.prompts))
	copy(out, s.prompts)
	return out
}
