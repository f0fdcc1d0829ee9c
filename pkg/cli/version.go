package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"blockmerge/pkg/version"
)

func newVersionCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the blockmerge version",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintf(opts.stdout, "blockmerge %s\n", version.BlockmergeVersion)
		},
	}
}
