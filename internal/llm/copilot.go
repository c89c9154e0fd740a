package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	copilot "github.com/github/copilot-sdk/go"

	"github.com/gdaskalakis/troy/internal/utils"
)

// CopilotClient generates text through the Copilot SDK. Each Generate call
// runs in a fresh session so grading calls stay independent of each other.
type CopilotClient struct {
	model string
}

// NewCopilotClient creates a client that defaults to the given model ID.
func NewCopilotClient(model string) (*CopilotClient, error) {
	if model == "" {
		return nil, errors.New("missing model")
	}
	return &CopilotClient{model: model}, nil
}

// Generate implements [Client].
func (c *CopilotClient) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	client := copilot.NewClient(&copilot.ClientOptions{
		AutoStart:       utils.Ptr(true),
		AutoRestart:     utils.Ptr(true),
		UseLoggedInUser: utils.Ptr(true),
		LogLevel:        "error",
	})

	defer func() {
		if err := client.Stop(); err != nil {
			slog.ErrorContext(ctx, "error stopping copilot client", "error", err)
		}
	}()

	model := req.Model
	if model == "" {
		model = c.model
	}

	session, err := client.CreateSession(ctx, &copilot.SessionConfig{
		Model:     model,
		Streaming: true,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}

	session.On(utils.SessionToSlog)

	resp, err := session.SendAndWait(ctx, copilot.MessageOptions{
		Prompt: req.Prompt,
		Mode:   "enqueue",
	})
	if err != nil {
		return "", fmt.Errorf("failed to send prompt: %w", err)
	}

	if resp.Data.Content == nil {
		return "", errors.New("model returned no response content")
	}

	return *resp.Data.Content, nil
}
