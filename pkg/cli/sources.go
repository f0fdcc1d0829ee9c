package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"blockmerge/pkg/sources"
)

func newSourcesCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sources",
		Short: "List the configured sources in priority order",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runSources(opts)
		},
	}
}

func runSources(opts *globalOptions) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	srcs := sources.BuildSources(sources.Catalog, cfg.Sources, cfg.Custom.List, cfg.Catalog.Enabled)

	w := tabwriter.NewWriter(opts.stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tID\tCATEGORY\tFORMAT\tLOCATION")
	for i, s := range srcs {
		category, format := "-", "-"
		if def, ok := sources.Lookup(s.ID); ok {
			category, format = def.Category, def.Format
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", i+1, s.ID, category, format, s.Location)
	}
	return w.Flush()
}
