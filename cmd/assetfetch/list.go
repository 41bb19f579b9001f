package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"assetfetch/pkg/config"
	"assetfetch/pkg/storage"
	"assetfetch/pkg/ui"

	"github.com/spf13/cobra"
)

func newListCmd(g *globalOptions) *cobra.Command {
	var catalogFile, outputDir string
	var missingOnly bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show the exercise table and which assets are present",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := map[string]interface{}{
				"catalog": catalogFile,
				"output":  outputDir,
			}
			if g.logLevel != "" {
				flags["log-level"] = g.logLevel
			}

			cfg, err := config.Load(g.configFile, flags)
			if err != nil {
				return err
			}

			table, err := resolveTable(cfg, nil)
			if err != nil {
				return err
			}

			// Listing never creates the output directory
			var sink *storage.Manager
			if info, err := os.Stat(cfg.Output.Directory); err == nil && info.IsDir() {
				sink, err = storage.NewManager(cfg.Output.Directory, cfg.Output.Extension)
				if err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "LOCAL\tREMOTE\tSTATUS")

			present := 0
			for _, entry := range table.Entries() {
				status := ui.Yellow("missing")
				if sink != nil && sink.Exists(entry.LocalID) {
					present++
					if missingOnly {
						continue
					}
					status = ui.Green("present")
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", entry.LocalID, entry.RemoteID, status)
			}
			if err := w.Flush(); err != nil {
				return err
			}

			fmt.Fprintf(out, "\n%d entries, %d present in %s\n", table.Len(), present, cfg.Output.Directory)
			return nil
		},
	}

	cmd.Flags().StringVar(&catalogFile, "catalog", "", "YAML file replacing the built-in exercise table")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "output directory to inspect")
	cmd.Flags().BoolVar(&missingOnly, "missing", false, "show only entries without an asset")

	return cmd
}
