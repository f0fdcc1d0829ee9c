// Package cli implements the blockmerge command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"blockmerge/pkg/config"
)

// exitError carries an exit code for failures that were already reported.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

type globalOptions struct {
	configPath string
	logLevel   string
	stdout     io.Writer
	stderr     io.Writer
}

// Execute runs the command line with the process arguments and returns the
// exit code.
func Execute() int {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
}

// Run runs the command line with args and returns the exit code.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts := &globalOptions{stdout: stdout, stderr: stderr}
	cmd := newRootCommand(opts)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return 0
	}

	var exitErr *exitError
	if errors.As(err, &exitErr) {
		return exitErr.code
	}
	fmt.Fprintln(stderr, "error:", err)
	return 1
}

func newRootCommand(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "blockmerge",
		Short: "Merge third-party blocklists into one filter list",
		Long: "blockmerge downloads ad, tracker and malware blocklists, converts hosts " +
			"entries into filter rules, drops unsafe entries and writes one " +
			"deduplicated list with a metadata header.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBuild(cmd.Context(), opts, &buildOptions{})
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "Path to the TOML config file (default $BLOCKMERGE_CONFIG or "+config.DefaultConfigPath+")")
	flags.StringVar(&opts.logLevel, "log-level", "", "Override logging.level (debug, info, warn, error)")

	cmd.AddCommand(newBuildCommand(opts))
	cmd.AddCommand(newCheckCommand(opts))
	cmd.AddCommand(newSourcesCommand(opts))
	cmd.AddCommand(newVersionCommand(opts))
	return cmd
}

// loadConfig reads the configuration and applies global flag overrides.
func loadConfig(opts *globalOptions) (*config.Config, error) {
	cfg, err := config.Setup(opts.configPath)
	if err != nil {
		return nil, err
	}
	if opts.logLevel != "" {
		if err = config.ValidateLogLevel(opts.logLevel); err != nil {
			return nil, err
		}
		cfg.Logging.Level = opts.logLevel
	}
	return cfg, nil
}
