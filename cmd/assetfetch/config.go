package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"assetfetch/pkg/auth"
	"assetfetch/pkg/catalog"
	"assetfetch/pkg/config"
	"assetfetch/pkg/ui"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const defaultConfigPath = ".assetfetch.yaml"

const exampleConfig = `# assetfetch configuration file
#
# Every value can also be set through ASSETFETCH_* environment variables
# (for example ASSETFETCH_OUTPUT_DIR) or command line flags, which win.

# Upstream dataset
source:
  # Folder holding one sub-folder per exercise
  base_url: "https://raw.githubusercontent.com/yuhonas/free-exercise-db/main/exercises"

  # Sent with every request; the upstream rejects requests without one
  user_agent: "Mozilla/5.0"

  # Requested first, then the fallback when anything goes wrong
  primary_format: "jpg"
  fallback_format: "gif"

# Where assets are written
output:
  directory: "assets/exercises"

  # Every file gets this extension whatever format was downloaded
  extension: "gif"

download:
  # Per-request timeout, 0 disables it
  timeout: 0s

# Optional table replacing the built-in exercises, either
#   squats: Squat
#   plank: Plank
# or a list of {local: ..., remote: ...} items
catalog:
  file: ""

logging:
  # debug, info, warn, error
  level: "warn"

  # Optional log file, appended to
  file: ""
`

func newConfigCmd(g *globalOptions) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration files",
		Long: `Manage assetfetch configuration files.

Configuration is resolved from, in order of priority:
  - Command line flags
  - Environment variables (ASSETFETCH_*) and .env files
  - Configuration file
  - Default values`,
	}

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Create an example configuration file",
		Long: `Create an example configuration file with all available options.

The file is created as ./.assetfetch.yaml unless --config names another path.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigInit(cmd, g)
		},
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow(cmd, g)
		},
	}

	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration",
		Long: `Validate the configuration for syntax errors and invalid values.

This command checks:
  - YAML syntax and field values
  - The catalog file, when one is configured
  - That the output and log directories can be created`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigValidate(cmd, g)
		},
	}

	configCmd.AddCommand(initCmd, showCmd, validateCmd)
	return configCmd
}

func runConfigInit(cmd *cobra.Command, g *globalOptions) error {
	configPath := g.configFile
	if configPath == "" {
		configPath = defaultConfigPath
	}

	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("configuration file already exists: %s", configPath)
	}

	if dir := filepath.Dir(configPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	if err := os.WriteFile(configPath, []byte(exampleConfig), 0644); err != nil {
		return fmt.Errorf("failed to create configuration file: %w", err)
	}

	out := cmd.OutOrStdout()
	ui.PrintSuccess("Configuration file created: " + configPath)
	fmt.Fprintln(out, "\nNext steps:")
	fmt.Fprintln(out, "1. Edit the configuration file")
	fmt.Fprintln(out, "2. Run 'assetfetch config validate' to check it")
	fmt.Fprintln(out, "3. Download with 'assetfetch fetch'")
	return nil
}

func runConfigShow(cmd *cobra.Command, g *globalOptions) error {
	cfg, err := config.Load(g.configFile, nil)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to format configuration: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprint(out, string(data))

	if manager, err := credentialManager(); err == nil {
		if token := manager.TokenFor(cfg.Source.BaseURL); token != "" {
			fmt.Fprintf(out, "\n%s: %s\n", ui.Cyan("token"), auth.MaskToken(token))
		}
	}

	fmt.Fprintln(out, "\nConfiguration sources (in order of priority):")
	fmt.Fprintln(out, "1. Command line flags")
	fmt.Fprintln(out, "2. Environment variables (ASSETFETCH_*)")
	if g.configFile != "" {
		fmt.Fprintf(out, "3. Configuration file: %s\n", g.configFile)
	} else {
		fmt.Fprintln(out, "3. Configuration file: (searched in default locations)")
	}
	fmt.Fprintln(out, "4. Default values")
	return nil
}

func runConfigValidate(cmd *cobra.Command, g *globalOptions) error {
	if g.configFile != "" {
		ui.PrintInfo("Validating configuration", g.configFile)
	}

	cfg, err := config.Load(g.configFile, nil)
	if err != nil {
		return err
	}

	var problems []error

	if cfg.Catalog.File != "" {
		if _, err := catalog.LoadFile(cfg.Catalog.File); err != nil {
			problems = append(problems, fmt.Errorf("catalog: %w", err))
		}
	}

	if err := os.MkdirAll(cfg.Output.Directory, 0755); err != nil {
		problems = append(problems, fmt.Errorf("cannot create output directory: %w", err))
	}

	if cfg.Logging.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Logging.File), 0755); err != nil {
			problems = append(problems, fmt.Errorf("cannot create log directory: %w", err))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration has errors: %w", errors.Join(problems...))
	}

	ui.PrintSuccess("Configuration is valid")

	entries := catalog.Default().Len()
	if cfg.Catalog.File != "" {
		table, _ := catalog.LoadFile(cfg.Catalog.File)
		entries = table.Len()
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "\nConfiguration summary:")
	fmt.Fprintf(out, "  Base URL: %s\n", cfg.Source.BaseURL)
	fmt.Fprintf(out, "  Formats: %s, then %s\n", cfg.Source.PrimaryFormat, cfg.Source.FallbackFormat)
	fmt.Fprintf(out, "  Output: %s/<local>.%s\n", cfg.Output.Directory, cfg.Output.Extension)
	fmt.Fprintf(out, "  Entries: %d\n", entries)
	fmt.Fprintf(out, "  Log level: %s\n", cfg.Logging.Level)
	return nil
}
