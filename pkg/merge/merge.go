// Package merge deduplicates, completes and orders canonical rules.
package merge

import (
	"fmt"
	"slices"
	"strings"

	"blockmerge/pkg/rule"
)

// Order selects the final ordering of merged rules.
type Order string

// Supported orders.
const (
	OrderSource      Order = "source"
	OrderSpecificity Order = "specificity"
)

// ParseOrder validates an order name. An empty name means OrderSource.
func ParseOrder(name string) (Order, error) {
	switch o := Order(strings.ToLower(strings.TrimSpace(name))); o {
	case "", OrderSource:
		return OrderSource, nil
	case OrderSpecificity:
		return o, nil
	default:
		return "", fmt.Errorf("invalid order %q (must be one of: source, specificity)", name)
	}
}

// Options configures Merge.
type Options struct {
	// Supplemental rules are appended when not already present verbatim.
	Supplemental []string

	Order             Order
	CompressWildcards bool
}

// Merge runs dedup, appends supplemental rules, then applies the optional
// ordering and wildcard compression. rules must be in source priority order.
func Merge(rules []rule.Rule, opts Options) []rule.Rule {
	merged := Dedup(rules)
	merged = AppendSupplemental(merged, opts.Supplemental)
	if opts.Order == OrderSpecificity {
		SortBySpecificity(merged)
	}
	if opts.CompressWildcards {
		merged = CompressWildcards(merged)
	}
	return merged
}

// Dedup keeps the first rule for each core and preserves the relative order of
// first occurrences.
func Dedup(rules []rule.Rule) []rule.Rule {
	set := NewRuleSet()
	for _, r := range rules {
		set.Add(r)
	}
	return slices.Clone(set.Rules())
}

// AppendSupplemental appends every extra rule whose text is not already in
// rules.
func AppendSupplemental(rules []rule.Rule, extra []string) []rule.Rule {
	if len(extra) == 0 {
		return rules
	}
	present := make(map[string]struct{}, len(rules))
	for _, r := range rules {
		present[r.String()] = struct{}{}
	}
	for _, text := range extra {
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		if _, ok := present[text]; ok {
			continue
		}
		present[text] = struct{}{}
		rules = append(rules, rule.Parse(text))
	}
	return rules
}

// SortBySpecificity orders rules by the length of their domain portion,
// longest first. Ties keep their relative order.
func SortBySpecificity(rules []rule.Rule) {
	slices.SortStableFunc(rules, func(a, b rule.Rule) int {
		return len(b.Domain()) - len(a.Domain())
	})
}

// CompressWildcards drops a plain domain rule when it is a subdomain of the
// suffix of the immediately preceding emitted ||*.suffix^ rule. Only
// consecutive runs are collapsed.
func CompressWildcards(rules []rule.Rule) []rule.Rule {
	out := make([]rule.Rule, 0, len(rules))
	suffix := ""
	for _, r := range rules {
		plain := r.IsDomainBlock() && !r.HasModifiers()
		if plain && suffix != "" && strings.HasSuffix(r.Domain(), "."+suffix) {
			continue
		}

		out = append(out, r)
		suffix = ""
		if s, ok := strings.CutPrefix(r.Domain(), "*."); ok && plain {
			suffix = s
		}
	}
	return out
}
