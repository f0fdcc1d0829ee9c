package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"blockmerge/pkg/check"
)

type checkOptions struct {
	strict      bool
	lenient     bool
	maxProblems int
}

func newCheckCommand(opts *globalOptions) *cobra.Command {
	co := &checkOptions{}
	cmd := &cobra.Command{
		Use:   "check <file>",
		Short: "Lint a generated rule file",
		Long: "check verifies the header of a rule file, counts its entries and " +
			"parses every rule with the filtering engine used by ad-blocking clients.",
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runCheck(opts, co, args[0])
		},
	}
	cmd.Flags().BoolVar(&co.strict, "strict", false, "Require the strict domain-block grammar")
	cmd.Flags().BoolVar(&co.lenient, "lenient", false, "Do not require the strict grammar even if output.strict is set")
	cmd.Flags().IntVar(&co.maxProblems, "max-problems", 20, "Number of problems to print, 0 prints all")
	cmd.MarkFlagsMutuallyExclusive("strict", "lenient")
	return cmd
}

func runCheck(opts *globalOptions, co *checkOptions, path string) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	strict := (cfg.Output.Strict || co.strict) && !co.lenient
	report, err := check.File(path, check.Options{
		Strict:       strict,
		SpecialRules: cfg.Output.SpecialRules,
		MaxProblems:  co.maxProblems,
	})
	if report == nil {
		return err
	}

	out := opts.stdout
	h := report.Header
	fmt.Fprintf(out, "%s: %q version %s, updated %s, %d sources\n",
		path, h.Title, h.Version, h.Updated.UTC().Format("2006-01-02T15:04:05Z"), h.Sources)
	fmt.Fprintf(out, "%d rules (%d special, %d cosmetic), %d invalid\n",
		report.Rules, report.Special, report.Cosmetic, report.Invalid)
	for _, p := range report.Problems {
		fmt.Fprintf(out, "line %d: %s: %s\n", p.Line, p.Text, p.Err)
	}
	if err != nil {
		return err
	}
	if !report.OK() {
		return &exitError{code: 1}
	}
	return nil
}
