package main

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nao1215/vvreport/internal/config"
	"github.com/spf13/cobra"
)

//go:embed templates/vvreport.yaml
var configTemplate embed.FS

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new vvreport configuration file",
		Long: `Initialize creates a new .vvreport.yaml configuration file in the current directory.

The generated file includes:
- Default output formats and formatter settings
- Commented delivery settings for SMTP and Postmark
- Archive settings

Secrets such as SMTP passwords and Postmark tokens are read from the
environment (VVREPORT_SMTP_PASSWORD, VVREPORT_POSTMARK_SERVER_TOKEN) and
never from this file.

Examples:
  # Create .vvreport.yaml in current directory
  vvreport init

  # Create config file at a specific path
  vvreport init -o myconfig.yaml

  # Force overwrite existing file
  vvreport init -f`,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", config.DefaultConfigFile,
		"Output file path for the configuration")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing configuration file")

	return cmd
}

// runInitCmd executes the init command.
func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	if !force {
		if _, err := os.Stat(outputPath); err == nil {
			return fmt.Errorf("configuration file already exists: %s (use -f to overwrite)", outputPath)
		}
	}

	content, err := configTemplate.ReadFile("templates/vvreport.yaml")
	if err != nil {
		return fmt.Errorf("failed to read config template: %w", err)
	}

	dir := filepath.Dir(outputPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(outputPath, content, 0600); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created configuration file: %s\n", outputPath)
	fmt.Fprintln(out, "\nEdit this file to configure:")
	fmt.Fprintln(out, "  - Output formats and directory")
	fmt.Fprintln(out, "  - Recipients and the mail transport")
	fmt.Fprintln(out, "  - The report archive")

	return nil
}
