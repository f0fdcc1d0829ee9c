package normalize

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/AdguardTeam/golibs/errors"
)

// DefaultExclusions are trusted infrastructure hosts that no generated rule
// may ever mention.
var DefaultExclusions = []string{
	"fonts.googleapis.com",
	"fonts.gstatic.com",
	"ajax.googleapis.com",
	"cdnjs.cloudflare.com",
	"challenges.cloudflare.com",
	"cdn.jsdelivr.net",
	"code.jquery.com",
}

// ExclusionSet is an immutable, ordered set of substrings. A line containing
// any member never produces a rule.
type ExclusionSet struct {
	entries []string
}

// NewExclusionSet builds a set from entries, dropping blanks and duplicates.
func NewExclusionSet(entries ...string) *ExclusionSet {
	seen := make(map[string]struct{}, len(entries))
	set := &ExclusionSet{entries: make([]string, 0, len(entries))}
	for _, entry := range entries {
		trimmed := strings.TrimSpace(entry)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		set.entries = append(set.entries, trimmed)
	}
	return set
}

// Match returns the first member contained in line. Matching is
// case-sensitive substring containment.
func (s *ExclusionSet) Match(line string) (string, bool) {
	if s == nil {
		return "", false
	}
	for _, entry := range s.entries {
		if strings.Contains(line, entry) {
			return entry, true
		}
	}
	return "", false
}

// Len returns the number of members.
func (s *ExclusionSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.entries)
}

// Entries returns a copy of the members in insertion order.
func (s *ExclusionSet) Entries() []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s.entries...)
}

// LoadExclusions reads additional exclusion entries from a file, one per line.
// Lines starting with #, !, ; or // are comments.
func LoadExclusions(path string, log *slog.Logger) (entries []string, err error) {
	if path == "" {
		return nil, nil
	}
	if log == nil {
		log = slog.Default()
	}

	file, err := os.Open(path) // #nosec G304 -- path is provided via config.
	if err != nil {
		return nil, fmt.Errorf("open exclusions: %w", err)
	}
	defer func() { err = errors.WithDeferred(err, file.Close()) }()

	entries, err = readExclusions(file)
	if err != nil {
		return nil, err
	}
	log.Info("loaded exclusions", "path", path, "entries", len(entries))
	return entries, nil
}

func readExclusions(r io.Reader) ([]string, error) {
	var entries []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(stripBOM(scanner.Text()))
		if line == "" || isExclusionComment(line) {
			continue
		}
		entries = append(entries, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan exclusions: %w", err)
	}
	return entries, nil
}

func isExclusionComment(line string) bool {
	return strings.HasPrefix(line, "#") ||
		strings.HasPrefix(line, "!") ||
		strings.HasPrefix(line, ";") ||
		strings.HasPrefix(line, "//")
}
