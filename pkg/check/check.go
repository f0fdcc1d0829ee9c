// Package check lints a generated rule file: it verifies the header and
// parses every rule the way an ad-blocking client would.
package check

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/AdguardTeam/golibs/errors"
	"github.com/AdguardTeam/urlfilter/rules"

	"blockmerge/pkg/output"
	"blockmerge/pkg/rule"
)

// Header errors.
const (
	ErrNoHeader        errors.Error = "rule file has no header"
	ErrEntriesMismatch errors.Error = "header entry count does not match rules"
)

// listID is the list identifier given to parsed rules; it is never used for
// matching.
const listID = 1

// Options configures a check.
type Options struct {
	// Strict also applies the strict domain-block grammar.
	Strict bool

	// SpecialRules are accepted without parsing.
	SpecialRules []string

	// MaxProblems bounds the number of recorded problems. Zero or less
	// records all of them.
	MaxProblems int
}

// Problem is a rule line that failed a check.
type Problem struct {
	Line int
	Text string
	Err  error
}

// Report is the outcome of a check.
type Report struct {
	Header   output.Header
	Rules    int
	Cosmetic int
	Special  int
	Invalid  int
	Problems []Problem
}

// OK reports whether the file passed every check.
func (r *Report) OK() bool {
	return r.Invalid == 0 && r.Header.Entries == r.Rules
}

// File checks the rule file at path.
func File(path string, opts Options) (report *Report, err error) {
	// #nosec G304 -- path is provided by the operator.
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening rule file: %w", err)
	}
	defer func() { err = errors.WithDeferred(err, f.Close()) }()

	return Read(f, opts)
}

// Read checks a rule file read from r. A non-nil report is returned with
// ErrEntriesMismatch so callers can still print the details.
func Read(r io.Reader, opts Options) (*Report, error) {
	br := bufio.NewReader(r)
	header, lineNum, err := output.ParseHeader(br)
	if err != nil {
		return nil, err
	}
	if lineNum == 0 {
		return nil, ErrNoHeader
	}

	special := make(map[string]struct{}, len(opts.SpecialRules))
	for _, text := range opts.SpecialRules {
		special[strings.TrimSpace(text)] = struct{}{}
	}

	report := &Report{Header: header}
	scanner := bufio.NewScanner(br)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		lineNum++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "!") {
			continue
		}
		report.Rules++

		if _, ok := special[text]; ok {
			report.Special++
			continue
		}
		if rule.IsCosmetic(text) {
			report.Cosmetic++
			if opts.Strict {
				report.add(opts, lineNum, text, rule.ErrNoAnchor)
			}
			continue
		}

		if err = lintRule(text, opts.Strict); err != nil {
			report.add(opts, lineNum, text, err)
		}
	}
	if err = scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading rules: %w", err)
	}

	if header.Entries != report.Rules {
		return report, fmt.Errorf("%w: header says %d, found %d", ErrEntriesMismatch, header.Entries, report.Rules)
	}
	return report, nil
}

func lintRule(text string, strict bool) error {
	if strict {
		if err := rule.ValidateStrict(text); err != nil {
			return err
		}
	}
	if _, err := rules.NewNetworkRule(text, listID); err != nil {
		return fmt.Errorf("client would refuse rule: %w", err)
	}
	return nil
}

func (r *Report) add(opts Options, line int, text string, err error) {
	r.Invalid++
	if opts.MaxProblems > 0 && len(r.Problems) >= opts.MaxProblems {
		return
	}
	r.Problems = append(r.Problems, Problem{Line: line, Text: text, Err: err})
}
