package merge

import "blockmerge/pkg/rule"

// RuleSet is an insertion-ordered set of rules keyed by their core. The
// first rule added for a core wins.
type RuleSet struct {
	seen  map[string]struct{}
	rules []rule.Rule
}

// NewRuleSet creates an empty RuleSet.
func NewRuleSet() *RuleSet {
	return &RuleSet{
		seen: make(map[string]struct{}),
	}
}

// Add adds r unless a rule with the same core is already present. It reports
// whether r was added. Generic rules such as $popup,domain=example.com have
// an empty core and dedup like any other.
func (s *RuleSet) Add(r rule.Rule) bool {
	core := r.Core()
	if _, ok := s.seen[core]; ok {
		return false
	}
	s.seen[core] = struct{}{}
	s.rules = append(s.rules, r)
	return true
}

// Merge adds every rule of other, in order.
func (s *RuleSet) Merge(other *RuleSet) {
	if other == nil {
		return
	}
	for _, r := range other.rules {
		s.Add(r)
	}
}

// Contains reports whether a rule with the same core is present.
func (s *RuleSet) Contains(r rule.Rule) bool {
	_, ok := s.seen[r.Core()]
	return ok
}

// Len returns the number of rules in the set.
func (s *RuleSet) Len() int {
	return len(s.rules)
}

// Rules returns the rules in insertion order. The caller must not modify the
// returned slice.
func (s *RuleSet) Rules() []rule.Rule {
	return s.rules
}
