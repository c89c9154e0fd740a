package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gdaskalakis/troy/internal/config"
	"github.com/gdaskalakis/troy/internal/wizard"
)

func newInitCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a .troy.yaml through an interactive setup",
		Long: `Walk through the minimum configuration for a working pipeline (storage
account, container, per-rep sources, model, and email addresses) and write
it to .troy.yaml in the current directory.

SMTP credentials are never written to the file; set TROY_SMTP_HOST,
TROY_SMTP_USER and TROY_SMTP_PASSWORD in the environment or a .env file.`,
		Args: cobra.NoArgs,
		RunE: runInit,
	}
	cmd.Flags().Bool("force", false, "Overwrite an existing config file")
	return cmd
}

func runInit(cmd *cobra.Command, args []string) error {
	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	if _, err := os.Stat(config.DefaultConfigFile); err == nil && !force {
		return fmt.Errorf("%s already exists, use --force to overwrite", config.DefaultConfigFile)
	}

	cfg, err := wizard.RunSetupWizard(cmd.InOrStdin(), cmd.OutOrStdout())
	if err != nil {
		return err
	}

	data, err := wizard.RenderYAML(cfg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(config.DefaultConfigFile, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", config.DefaultConfigFile, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", config.DefaultConfigFile) //nolint:errcheck
	return nil
}
