package main

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nao1215/crawldash/internal/config"
)

//go:embed templates/crawldash.yaml
var configTemplate []byte

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a crawldash configuration file",
		Long: `Init writes a commented .crawldash configuration file to the current
directory.

The generated file documents:
- The report API to use and the default output format
- Page size, timeout and proxy defaults
- Per-server overrides, such as extra headers for a staging API

Examples:
  # Create .crawldash in the current directory
  crawldash init

  # Create the file at a specific path
  crawldash init -o ~/.config/crawldash/config.yaml

  # Overwrite an existing file
  crawldash init -f`,
		Args: cobra.NoArgs,
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

	dir := filepath.Dir(outputPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(outputPath, configTemplate, 0600); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Created configuration file: %s\n", outputPath)
	fmt.Fprintln(w, "\nEdit this file to configure:")
	fmt.Fprintln(w, "  - The report API and its page size")
	fmt.Fprintln(w, "  - Request timeout and SOCKS5 proxy")
	fmt.Fprintln(w, "  - Extra headers per server")

	return nil
}
