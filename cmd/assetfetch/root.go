package main

import (
	"fmt"
	"os"
	"runtime"

	"assetfetch/pkg/logger"
	"assetfetch/pkg/ui"

	"github.com/spf13/cobra"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"
)

// globalOptions holds the persistent flags
type globalOptions struct {
	configFile string
	logLevel   string
	noColor    bool
	quiet      bool
}

// newRootCmd builds the command tree. Running the root command without a
// subcommand performs a fetch.
func newRootCmd() *cobra.Command {
	g := &globalOptions{}
	f := &fetchOptions{}

	rootCmd := &cobra.Command{
		Use:   "assetfetch",
		Short: "Download exercise demonstration images into a local asset directory",
		Long: `assetfetch downloads one demonstration image per exercise from the
free-exercise-db dataset and stores it as assets/exercises/<exercise>.gif.

Each exercise is requested as JPEG first and as GIF when that fails. Missing
images are reported and counted; they never stop the run.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger.Version = version
			ui.Output = cmd.OutOrStdout()
			ui.SetColorEnabled(ui.ShouldColor(os.Stdout, g.noColor))
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFetch(cmd, g, f)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&g.configFile, "config", "c", "", "config file (default is ./.assetfetch.yaml or $HOME/.config/assetfetch/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&g.noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&g.quiet, "quiet", "q", false, "print only the final summary")

	// The root command doubles as fetch
	addFetchFlags(rootCmd, f)

	rootCmd.AddCommand(
		newFetchCmd(g),
		newListCmd(g),
		newConfigCmd(g),
		newAuthCmd(g),
	)

	rootCmd.SetVersionTemplate(ui.Banner + `
assetfetch {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true

	return rootCmd
}

// Execute runs the root command and exits non-zero on setup errors
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		ui.Output = os.Stderr
		ui.PrintError("Error", err)
		os.Exit(1)
	}
}
