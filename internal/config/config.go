// Package config provides the Config struct and loader for .troy.yaml
// project files with TROY_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Default values for pipeline configuration. These are the single source of
// truth; New() references them and no other code should duplicate them.
const (
	DefaultConfigFile = ".troy.yaml"

	DefaultModel        = "gpt-4o-mini"
	DefaultMaxRetries   = 3
	DefaultWorkers      = 4
	DefaultTasksTopic   = "transcripts.to_process"
	DefaultResultsTopic = "transcripts.processed"

	DefaultSender    = "no-reply@vfi.net"
	DefaultRecipient = "manager@vfi.net"
	DefaultSMTPPort  = 587

	DefaultQuarantinePrefix   = "quarantine"
	DefaultMinTranscriptChars = 80
	DefaultArchiveDir         = "archive"
)

// ModelConfig holds text-generation settings.
type ModelConfig struct {
	Model      string `yaml:"model,omitempty"`
	MaxRetries int    `yaml:"max_retries,omitempty"`
	Workers    int    `yaml:"workers,omitempty"`
}

// TopicsConfig holds the queue topic names.
type TopicsConfig struct {
	Tasks   string `yaml:"tasks,omitempty"`
	Results string `yaml:"results,omitempty"`
}

// EmailConfig holds notification settings.
type EmailConfig struct {
	Sender    string `yaml:"sender,omitempty"`
	Recipient string `yaml:"recipient,omitempty"`
	SMTPHost  string `yaml:"smtp_host,omitempty"`
	SMTPPort  int    `yaml:"smtp_port,omitempty"`
	SMTPUser  string `yaml:"smtp_user,omitempty"`
	// SMTPPassword comes from the environment only, never the file.
	SMTPPassword string `yaml:"-"`
}

// StorageConfig holds the document store settings.
type StorageConfig struct {
	AccountURL       string `yaml:"account_url,omitempty"`
	Container        string `yaml:"container,omitempty"`
	QuarantinePrefix string `yaml:"quarantine_prefix,omitempty"`
}

// ScanConfig holds validity-gate thresholds and archive settings.
type ScanConfig struct {
	MinTranscriptChars  int      `yaml:"min_transcript_chars,omitempty"`
	PlaceholderPatterns []string `yaml:"placeholder_patterns,omitempty"`
	ArchiveDir          string   `yaml:"archive_dir,omitempty"`
}

// Config is the top-level configuration loaded from .troy.yaml.
type Config struct {
	Model   ModelConfig   `yaml:"model,omitempty"`
	Topics  TopicsConfig  `yaml:"topics,omitempty"`
	Email   EmailConfig   `yaml:"email,omitempty"`
	Storage StorageConfig `yaml:"storage,omitempty"`
	Scan    ScanConfig    `yaml:"scan,omitempty"`

	// Sources maps a rep identifier to their transcript source location
	// (a prefix inside the storage container).
	Sources map[string]string `yaml:"sources,omitempty"`
}

// New returns a Config with all hard-coded defaults populated.
func New() *Config {
	return &Config{
		Model: ModelConfig{
			Model:      DefaultModel,
			MaxRetries: DefaultMaxRetries,
			Workers:    DefaultWorkers,
		},
		Topics: TopicsConfig{
			Tasks:   DefaultTasksTopic,
			Results: DefaultResultsTopic,
		},
		Email: EmailConfig{
			Sender:    DefaultSender,
			Recipient: DefaultRecipient,
			SMTPPort:  DefaultSMTPPort,
		},
		Storage: StorageConfig{
			QuarantinePrefix: DefaultQuarantinePrefix,
		},
		Scan: ScanConfig{
			MinTranscriptChars: DefaultMinTranscriptChars,
			ArchiveDir:         DefaultArchiveDir,
		},
		Sources: map[string]string{},
	}
}

// Load reads path (or DefaultConfigFile when empty), overlays the values
// found there on the defaults, then overlays TROY_* environment variables.
// A missing config file is not an error; the defaults plus environment
// still make a usable configuration.
func Load(path string) (*Config, error) {
	// Optional .env for local runs; ignore when absent.
	_ = godotenv.Load()

	cfg := New()

	if path == "" {
		path = DefaultConfigFile
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		// fall through to env overlay
	case err != nil:
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	setString(&c.Model.Model, "TROY_MODEL")
	setInt(&c.Model.MaxRetries, "TROY_MAX_RETRIES")
	setInt(&c.Model.Workers, "TROY_WORKERS")

	setString(&c.Topics.Tasks, "TROY_TASKS_TOPIC")
	setString(&c.Topics.Results, "TROY_RESULTS_TOPIC")

	setString(&c.Email.Sender, "TROY_FROM_EMAIL")
	setString(&c.Email.Recipient, "TROY_RECIPIENT_EMAIL")
	setString(&c.Email.SMTPHost, "TROY_SMTP_HOST")
	setInt(&c.Email.SMTPPort, "TROY_SMTP_PORT")
	setString(&c.Email.SMTPUser, "TROY_SMTP_USER")
	setString(&c.Email.SMTPPassword, "TROY_SMTP_PASSWORD")

	setString(&c.Storage.AccountURL, "TROY_STORAGE_ACCOUNT_URL")
	setString(&c.Storage.Container, "TROY_STORAGE_CONTAINER")
	setString(&c.Storage.QuarantinePrefix, "TROY_QUARANTINE_PREFIX")

	setInt(&c.Scan.MinTranscriptChars, "TROY_MIN_TRANSCRIPT_CHARS")
	setString(&c.Scan.ArchiveDir, "TROY_ARCHIVE_DIR")
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}
