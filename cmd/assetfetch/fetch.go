package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"assetfetch/internal/fetcher"
	"assetfetch/pkg/auth"
	"assetfetch/pkg/catalog"
	"assetfetch/pkg/config"
	"assetfetch/pkg/logger"
	"assetfetch/pkg/storage"
	"assetfetch/pkg/ui"
	"assetfetch/pkg/upstream"

	"github.com/spf13/cobra"
)

// credentialManager opens the stored upstream credentials
var credentialManager = auth.NewManager

// fetchOptions holds the fetch flags
type fetchOptions struct {
	outputDir   string
	baseURL     string
	userAgent   string
	primary     string
	fallback    string
	extension   string
	catalogFile string
	timeout     time.Duration
	only        []string
	notify      bool
}

func newFetchCmd(g *globalOptions) *cobra.Command {
	f := &fetchOptions{}

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download every exercise asset (default command)",
		Long: `Download one asset per exercise in table order.

For each exercise <base>/<remote>/0.jpg is requested first, then 0.gif.
The first body that succeeds is written to <output>/<exercise>.gif,
replacing any previous file. Failures are counted, never fatal: the
command exits 0 once the run completes.`,
		Example: `  # Download the built-in exercise table
  assetfetch

  # Download into another directory
  assetfetch fetch -o ./public/exercises

  # Refresh only two exercises
  assetfetch fetch --only squats,plank

  # Use a mirror and a custom table
  assetfetch fetch --base-url https://mirror.example.com/exercises --catalog exercises.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFetch(cmd, g, f)
		},
	}

	addFetchFlags(cmd, f)
	return cmd
}

func addFetchFlags(cmd *cobra.Command, f *fetchOptions) {
	cmd.Flags().StringVarP(&f.outputDir, "output", "o", "", "output directory (default: assets/exercises)")
	cmd.Flags().StringVar(&f.baseURL, "base-url", "", "upstream exercises base URL")
	cmd.Flags().StringVar(&f.userAgent, "user-agent", "", "User-Agent header sent with every request")
	cmd.Flags().StringVar(&f.primary, "primary", "", "preferred remote format (default: jpg)")
	cmd.Flags().StringVar(&f.fallback, "fallback", "", "fallback remote format (default: gif)")
	cmd.Flags().StringVar(&f.extension, "extension", "", "extension of written files (default: gif)")
	cmd.Flags().StringVar(&f.catalogFile, "catalog", "", "YAML file replacing the built-in exercise table")
	cmd.Flags().DurationVar(&f.timeout, "timeout", 0, "per-request timeout, 0 for none")
	cmd.Flags().StringSliceVar(&f.only, "only", nil, "restrict the run to these local ids")
	cmd.Flags().BoolVar(&f.notify, "notify", false, "send a desktop notification when the run completes")
}

// flagMap returns only the flags the user set, keyed as config expects
func (f *fetchOptions) flagMap(cmd *cobra.Command, g *globalOptions) map[string]interface{} {
	flags := make(map[string]interface{})
	changed := func(name string) bool {
		fl := cmd.Flags().Lookup(name)
		return fl != nil && fl.Changed
	}

	if changed("output") {
		flags["output"] = f.outputDir
	}
	if changed("base-url") {
		flags["base-url"] = f.baseURL
	}
	if changed("user-agent") {
		flags["user-agent"] = f.userAgent
	}
	if changed("primary") {
		flags["primary"] = f.primary
	}
	if changed("fallback") {
		flags["fallback"] = f.fallback
	}
	if changed("extension") {
		flags["extension"] = f.extension
	}
	if changed("catalog") {
		flags["catalog"] = f.catalogFile
	}
	if changed("timeout") {
		flags["timeout"] = f.timeout
	}
	if g.logLevel != "" {
		flags["log-level"] = g.logLevel
	}

	return flags
}

func runFetch(cmd *cobra.Command, g *globalOptions, f *fetchOptions) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(g.configFile, f.flagMap(cmd, g))
	if err != nil {
		return err
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		return err
	}
	log := logger.GetLogger()

	table, err := resolveTable(cfg, f.only)
	if err != nil {
		return err
	}

	client := upstream.NewClient(upstream.Options{
		BaseURL:   cfg.Source.BaseURL,
		UserAgent: cfg.Source.UserAgent,
		Token:     storedToken(cfg.Source.BaseURL, log),
		Timeout:   cfg.Download.Timeout,
	}, log)

	sink, err := storage.NewManager(cfg.Output.Directory, cfg.Output.Extension)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	reporter := ui.NewConsoleReporter(out, g.quiet)

	summary := fetcher.New(client, sink,
		fetcher.WithFormats(cfg.Source.PrimaryFormat, cfg.Source.FallbackFormat),
		fetcher.WithReporter(reporter),
		fetcher.WithLogger(log),
	).FetchAll(ctx, table)

	ui.PrintSummary(out, summary)
	if !g.quiet {
		ui.PrintFailures(out, summary)
	}

	logger.LogRunSummary(log, summary.Total(), summary.Failed, map[string]interface{}{
		"output_dir": sink.GetOutputDir(),
		"duration":   reporter.GetElapsedTime(),
		"cancelled":  ctx.Err() != nil,
	})

	if f.notify {
		if err := ui.NewNotifier().NotifyRunComplete(summary); err != nil {
			log.WithError(err).Debug("desktop notification failed")
		}
	}

	return nil
}

// resolveTable picks the built-in or file table and applies --only
func resolveTable(cfg *config.Config, only []string) (*catalog.Table, error) {
	table := catalog.Default()
	if cfg.Catalog.File != "" {
		var err error
		table, err = catalog.LoadFile(cfg.Catalog.File)
		if err != nil {
			return nil, err
		}
	}

	if len(only) > 0 {
		return table.Subset(only...)
	}
	return table, nil
}

// storedToken resolves the token for the upstream host through the
// credential chain. Any failure means anonymous access.
func storedToken(baseURL string, log logger.Logger) string {
	manager, err := credentialManager()
	if err != nil {
		log.WithError(err).Debug("credential store unavailable")
		return ""
	}
	return manager.TokenFor(baseURL)
}
