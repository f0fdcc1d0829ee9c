// Package normalize converts raw blocklist lines into canonical filter rules.
package normalize

import (
	"log/slog"
	"strings"

	"blockmerge/pkg/rule"
)

const commentMarker = "!"

// Verdict is the outcome of normalizing a single line.
type Verdict int

// Normalization verdicts.
const (
	Accepted Verdict = iota
	Special
	Empty
	Comment
	Excluded
	InvalidHosts
	StrictReject
)

// String implements the fmt.Stringer interface for Verdict.
func (v Verdict) String() string {
	switch v {
	case Accepted:
		return "accepted"
	case Special:
		return "special"
	case Empty:
		return "empty"
	case Comment:
		return "comment"
	case Excluded:
		return "excluded"
	case InvalidHosts:
		return "invalid_hosts"
	case StrictReject:
		return "strict_reject"
	default:
		return "unknown"
	}
}

// OK reports whether the line produced a rule.
func (v Verdict) OK() bool {
	return v == Accepted || v == Special
}

// Options configures a Normalizer.
type Options struct {
	Exclusions   *ExclusionSet
	Strict       bool
	SpecialRules []string
	Log          *slog.Logger
	ErrorLimit   int
	RejectedLog  string
}

// Normalizer turns raw lines into canonical rules. Its configuration is fixed
// at construction.
type Normalizer struct {
	exclusions *ExclusionSet
	strict     bool
	special    map[string]struct{}
	log        *slog.Logger
	errorLimit int
	rejected   *rejectedLogger
}

// New constructs a Normalizer.
func New(opts Options) *Normalizer {
	log := opts.Log
	if log == nil {
		log = slog.Default()
	}
	exclusions := opts.Exclusions
	if exclusions == nil {
		exclusions = NewExclusionSet()
	}
	special := make(map[string]struct{}, len(opts.SpecialRules))
	for _, text := range opts.SpecialRules {
		if trimmed := strings.TrimSpace(text); trimmed != "" {
			special[trimmed] = struct{}{}
		}
	}
	return &Normalizer{
		exclusions: exclusions,
		strict:     opts.Strict,
		special:    special,
		log:        log,
		errorLimit: opts.ErrorLimit,
		rejected:   newRejectedLogger(opts.RejectedLog, log),
	}
}

// Strict reports whether strict grammar checking is enabled.
func (n *Normalizer) Strict() bool {
	return n.strict
}

// Line normalizes one raw line. It produces a rule only when the verdict is
// OK.
func (n *Normalizer) Line(raw string) (rule.Rule, Verdict) {
	line := strings.TrimSpace(stripBOM(raw))
	if line == "" {
		return rule.Rule{}, Empty
	}
	if isCommentLine(line) {
		return rule.Rule{}, Comment
	}
	if _, ok := n.exclusions.Match(line); ok {
		return rule.Rule{}, Excluded
	}
	if _, ok := n.special[line]; ok {
		return rule.Parse(line), Special
	}

	candidate := line
	if hostsLine(line) {
		domain, err := hostsDomain(line)
		if err != nil {
			return rule.Rule{}, InvalidHosts
		}
		candidate = rule.FromDomain(domain).String()
	}

	if n.strict && !rule.IsStrict(candidate) {
		return rule.Rule{}, StrictReject
	}
	return rule.Parse(candidate), Accepted
}

// Close releases the rejected lines log, if any.
func (n *Normalizer) Close() error {
	return n.rejected.Close()
}

func stripBOM(line string) string {
	return strings.TrimPrefix(line, "\ufeff")
}

func isCommentLine(line string) bool {
	if strings.HasPrefix(line, commentMarker) {
		return true
	}
	// Hosts files use # for comments; ## and friends start cosmetic rules.
	if strings.HasPrefix(line, "#") && !rule.IsCosmetic(line) {
		return true
	}
	// List headers such as [Adblock Plus 2.0].
	return strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]")
}
