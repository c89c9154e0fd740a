// Package archive persists grading payloads as compressed JSON so a lost
// notification can be replayed without re-grading the transcript.
package archive

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/gdaskalakis/troy/internal/models"
)

const fileExt = ".json.zst"

// Store writes and reads archived grading payloads in a directory.
type Store struct {
	dir string
	now func() time.Time
}

// New creates a store rooted at dir. The directory is created on first
// write.
func New(dir string) *Store {
	return &Store{dir: dir, now: time.Now}
}

// Write persists a payload and returns the file path it was written to.
func (s *Store) Write(payload models.GradingPayload) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("creating archive dir: %w", err)
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling payload: %w", err)
	}

	name := fmt.Sprintf("%s_%s%s", payload.FileID, s.now().UTC().Format("20060102_150405"), fileExt)
	path := filepath.Join(s.dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating archive file: %w", err)
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f)
	if err != nil {
		return "", fmt.Errorf("creating zstd writer: %w", err)
	}
	if _, err := enc.Write(data); err != nil {
		enc.Close()
		return "", fmt.Errorf("writing archive: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("flushing archive: %w", err)
	}

	return path, nil
}

// Read loads an archived payload from a file path.
func (s *Store) Read(path string) (models.GradingPayload, error) {
	f, err := os.Open(path)
	if err != nil {
		return models.GradingPayload{}, fmt.Errorf("opening archive: %w", err)
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return models.GradingPayload{}, fmt.Errorf("creating zstd reader: %w", err)
	}
	defer dec.Close()

	data, err := io.ReadAll(dec)
	if err != nil {
		return models.GradingPayload{}, fmt.Errorf("reading archive: %w", err)
	}

	var payload models.GradingPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return models.GradingPayload{}, fmt.Errorf("decoding archive: %w", err)
	}
	return payload, nil
}

// List returns the archived payload paths, oldest first.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading archive dir: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), fileExt) {
			continue
		}
		paths = append(paths, filepath.Join(s.dir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}
