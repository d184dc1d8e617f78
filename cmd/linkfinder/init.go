package main

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nao1215/linkfinder/internal/config"
)

//go:embed templates/linkfinder.yaml
var configTemplate embed.FS

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a commented site configuration template",
		Long: `Init writes a .linkfinder file that tunes how each site is crawled and compared.

The defaults section applies to every site:
  fileExtensions   extra static-file extensions that are never crawled
  ignorePatterns   URL path globs dropped from both link sets

Entries under sites, keyed by host name, override the defaults:
  sitemapPath      sitemap location when it is not /sitemap.xml
  strictHost       compare host names instead of matching the seed URL text
  depth            HTML crawl depth for this site
  followPatterns   only collect URLs whose path matches one of these globs
  cookie, headers  sent with every request, for sites behind a login

Examples:
  # Create .linkfinder in current directory
  linkfinder init

  # Create config file at a specific path
  linkfinder init -o ~/.config/linkfinder/config.yaml

  # Force overwrite existing file
  linkfinder init -f`,
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

	content, err := configTemplate.ReadFile("templates/linkfinder.yaml")
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
	fmt.Fprintln(out, "\nUncomment a site entry to set its sitemapPath, strictHost or depth.")
	fmt.Fprintln(out, "Patterns under defaults apply to both the HTML crawl and the sitemap.")

	return nil
}
