package normalize

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"

	"blockmerge/pkg/rule"
)

// maxLineSize bounds a single line; some lists carry very long cosmetic rules.
const maxLineSize = 1 << 20

// ParseStats summarises normalization of one source.
type ParseStats struct {
	TotalLines int
	Rules      int
	Skipped    int
	Excluded   int
	Invalid    int
}

type errorLimiter struct {
	limit int
	count int
}

// Text normalizes every line of a source body and returns the produced rules
// in line order.
func (n *Normalizer) Text(listID string, r io.Reader) ([]rule.Rule, ParseStats, error) {
	stats := ParseStats{}
	limiter := errorLimiter{limit: n.errorLimit}
	rules := make([]rule.Rule, 0, 1024)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for lineNum := 1; scanner.Scan(); lineNum++ {
		raw := scanner.Text()
		stats.TotalLines++

		canonical, verdict := n.Line(raw)
		switch verdict {
		case Accepted, Special:
			stats.Rules++
			rules = append(rules, canonical)
		case Empty, Comment:
			stats.Skipped++
		case Excluded:
			stats.Excluded++
			n.rejected.Log(listID, lineNum, verdict, raw)
		default:
			stats.Invalid++
			limiter.log(n.log, listID, lineNum, raw, verdict)
			n.rejected.Log(listID, lineNum, verdict, raw)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, stats, fmt.Errorf("scan list: %w", err)
	}

	limiter.summary(n.log, listID, stats.Invalid)
	n.log.Info("normalized blocklist",
		"list", listID,
		"lines", stats.TotalLines,
		"rules", stats.Rules,
		"excluded", stats.Excluded,
		"invalid", stats.Invalid,
	)
	return rules, stats, nil
}

func (l *errorLimiter) log(logger *slog.Logger, listID string, lineNum int, line string, verdict Verdict) {
	if l.limit == 0 {
		return
	}
	if l.limit > 0 && l.count >= l.limit {
		l.count++
		return
	}
	l.count++
	logger.Debug("rejected blocklist entry", "list", listID, "line", lineNum, "entry", line, "reason", verdict)
}

func (l *errorLimiter) summary(logger *slog.Logger, listID string, invalid int) {
	if l.limit <= 0 {
		return
	}
	if invalid > l.limit {
		logger.Debug("blocklist rejections suppressed", "list", listID, "rejected", invalid, "logged", l.limit)
	}
}
