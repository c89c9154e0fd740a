package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/gdaskalakis/troy/internal/models"
	"github.com/gdaskalakis/troy/internal/report"
)

func newGradeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "grade <transcript-file>",
		Short: "Grade a local transcript without touching the pipeline",
		Long: `Grade a transcript file on disk and print the results. No flags are set,
nothing is published, and no email is sent; this is for trying out rubric
or model changes before they reach the pipeline.

Output formats:
  text   grade table on stdout (default)
  json   full grading results as JSON

With --html the rendered report email body is also written to a file.`,
		Args: cobra.ExactArgs(1),
		RunE: runGrade,
	}
	cmd.Flags().String("rep", "", "Rep name recorded on the report")
	cmd.Flags().String("format", "text", "Output format: text | json")
	cmd.Flags().String("html", "", "Also write the rendered report HTML to this file")
	return cmd
}

func runGrade(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return err
	}
	if format != "text" && format != "json" {
		return fmt.Errorf("invalid format %q: expected text or json", format)
	}
	rep, err := cmd.Flags().GetString("rep")
	if err != nil {
		return err
	}
	htmlPath, err := cmd.Flags().GetString("html")
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	grader, err := newGrader(cfg)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading transcript: %w", err)
	}

	results := grader.GradeAll(cmd.Context(), string(data))

	switch format {
	case "json":
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetIndent("", "  ")
		if err := enc.Encode(results); err != nil {
			return fmt.Errorf("encoding results: %w", err)
		}
		fmt.Fprint(cmd.OutOrStdout(), buf.String()) //nolint:errcheck
	default:
		displayGradeTable(cmd.OutOrStdout(), filepath.Base(args[0]), rep, results)
	}

	if htmlPath != "" {
		payload := models.GradingPayload{
			FileID:         args[0],
			FileName:       filepath.Base(args[0]),
			Rep:            rep,
			Timestamp:      time.Now().UTC(),
			Transcript:     string(data),
			GradingResults: results,
		}
		html, err := report.BuildHTML(payload)
		if err != nil {
			return err
		}
		if err := os.WriteFile(htmlPath, []byte(html), 0o644); err != nil {
			return fmt.Errorf("writing report HTML: %w", err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "report written to %s\n", htmlPath) //nolint:errcheck
	}

	return nil
}
