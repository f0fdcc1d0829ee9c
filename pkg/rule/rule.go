// Package rule models Adblock-style filter rules in their canonical form.
package rule

import "strings"

const (
	anchor          = "||"
	separator       = "^"
	modifierMarker  = "$"
	modifierDivider = ","
)

// Rule is a filter rule split into its pattern and its $-delimited modifiers.
type Rule struct {
	Pattern   string
	Modifiers []string
}

// FromDomain returns the domain block rule ||domain^.
func FromDomain(domain string) Rule {
	return Rule{Pattern: anchor + domain + separator}
}

// Parse splits text into pattern and modifiers. Cosmetic rules never carry
// network modifiers, so their whole text is the pattern.
func Parse(text string) Rule {
	if IsCosmetic(text) {
		return Rule{Pattern: text}
	}

	idx := modifierIndex(text)
	if idx < 0 {
		return Rule{Pattern: text}
	}
	return Rule{
		Pattern:   text[:idx],
		Modifiers: strings.Split(text[idx+1:], modifierDivider),
	}
}

func modifierIndex(text string) int {
	start := 0
	// Regular expression rules may contain $ as an end anchor.
	if strings.HasPrefix(text, "/") {
		if end := strings.LastIndex(text, "/"); end > 0 {
			start = end + 1
		}
	}
	idx := strings.Index(text[start:], modifierMarker)
	if idx < 0 {
		return -1
	}
	return start + idx
}

// IsCosmetic reports whether text is an element hiding, CSS or scriptlet rule.
func IsCosmetic(text string) bool {
	for i := 0; i < len(text)-1; i++ {
		if text[i] != '#' {
			continue
		}
		switch text[i+1] {
		case '#', '@', '$', '?', '%':
			return true
		}
	}
	return false
}

// String serializes the rule back into filter syntax.
func (r Rule) String() string {
	if r.Modifiers == nil {
		return r.Pattern
	}
	return r.Pattern + modifierMarker + strings.Join(r.Modifiers, modifierDivider)
}

// Core returns the deduplication key: the pattern without modifiers and
// without its trailing separator.
func (r Rule) Core() string {
	return strings.TrimSuffix(r.Pattern, separator)
}

// Domain returns the domain portion of the rule, between the || anchor and
// the first separator.
func (r Rule) Domain() string {
	domain := strings.TrimPrefix(r.Pattern, anchor)
	if idx := strings.Index(domain, separator); idx >= 0 {
		domain = domain[:idx]
	}
	return domain
}

// IsDomainBlock reports whether the rule is an anchored domain rule.
func (r Rule) IsDomainBlock() bool {
	return strings.HasPrefix(r.Pattern, anchor)
}

// HasModifiers reports whether the rule carries a modifier suffix.
func (r Rule) HasModifiers() bool {
	return r.Modifiers != nil
}
