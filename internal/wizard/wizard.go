// Package wizard implements the interactive project setup form behind the
// init command.
package wizard

import (
	"fmt"
	"io"
	"net/mail"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/gdaskalakis/troy/internal/config"
)

// RunSetupWizard runs an interactive huh form that collects the minimum
// configuration for a working pipeline and returns it overlaid on the
// defaults.
func RunSetupWizard(in io.Reader, out io.Writer) (*config.Config, error) {
	var (
		accountURL string
		container  string
		sourcesRaw string
		model      = config.DefaultModel
		sender     = config.DefaultSender
		recipient  string
	)

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Storage account URL").
				Description("Blob service endpoint holding the transcripts").
				Placeholder("https://myaccount.blob.core.windows.net/").
				Value(&accountURL).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("storage account URL is required")
					}
					return nil
				}),
			huh.NewInput().
				Title("Container").
				Description("Container name holding the transcript blobs").
				Placeholder("transcripts").
				Value(&container).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("container is required")
					}
					return nil
				}),
			huh.NewInput().
				Title("Sources").
				Description("Comma-separated rep=prefix pairs, e.g. alice=calls/alice,bob=calls/bob").
				Placeholder("alice=calls/alice").
				Value(&sourcesRaw).
				Validate(func(s string) error {
					_, err := ParseSources(s)
					return err
				}),
			huh.NewInput().
				Title("Model").
				Description("Model used for grading").
				Value(&model),
			huh.NewInput().
				Title("Sender address").
				Description("From address on report emails").
				Value(&sender),
			huh.NewInput().
				Title("Recipient address").
				Description("Where grading reports are sent").
				Placeholder("manager@example.com").
				Value(&recipient).
				Validate(func(s string) error {
					if _, err := mail.ParseAddress(strings.TrimSpace(s)); err != nil {
						return fmt.Errorf("invalid email address")
					}
					return nil
				}),
		),
	).
		WithInput(in).
		WithOutput(out)

	// Use accessible mode for non-TTY input (e.g., tests, piped input).
	if f, ok := in.(*os.File); !ok || !term.IsTerminal(int(f.Fd())) {
		form = form.WithAccessible(true)
	}

	if err := form.Run(); err != nil {
		return nil, fmt.Errorf("setup wizard failed: %w", err)
	}

	sources, err := ParseSources(sourcesRaw)
	if err != nil {
		return nil, err
	}

	cfg := config.New()
	cfg.Storage.AccountURL = strings.TrimSpace(accountURL)
	cfg.Storage.Container = strings.TrimSpace(container)
	cfg.Sources = sources
	cfg.Model.Model = strings.TrimSpace(model)
	cfg.Email.Sender = strings.TrimSpace(sender)
	cfg.Email.Recipient = strings.TrimSpace(recipient)
	return cfg, nil
}

// ParseSources parses comma-separated rep=prefix pairs into a source map.
func ParseSources(s string) (map[string]string, error) {
	sources := map[string]string{}
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		rep, prefix, ok := strings.Cut(pair, "=")
		rep, prefix = strings.TrimSpace(rep), strings.TrimSpace(prefix)
		if !ok || rep == "" || prefix == "" {
			return nil, fmt.Errorf("invalid source %q: expected rep=prefix", pair)
		}
		sources[rep] = prefix
	}
	return sources, nil
}

// RenderYAML serializes a config for writing to .troy.yaml.
func RenderYAML(cfg *config.Config) ([]byte, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("serializing config: %w", err)
	}
	return data, nil
}
