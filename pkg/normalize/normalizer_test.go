package normalize

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blockmerge/pkg/rule"
)

const popupRule = "*$popup,third-party"

func newTestNormalizer(t *testing.T, strict bool) *Normalizer {
	t.Helper()

	return New(Options{
		Exclusions:   NewExclusionSet(DefaultExclusions...),
		Strict:       strict,
		SpecialRules: []string{popupRule},
		Log:          slog.New(slog.NewTextHandler(io.Discard, nil)),
		ErrorLimit:   5,
	})
}

func TestLineHostsConversion(t *testing.T) {
	for _, strict := range []bool{false, true} {
		n := newTestNormalizer(t, strict)

		testCases := []struct {
			in      string
			want    string
			verdict Verdict
		}{
			{"0.0.0.0 example.com", "||example.com^", Accepted},
			{"127.0.0.1 example.org", "||example.org^", Accepted},
			{"  0.0.0.0\tads.Example.NET.  ", "||ads.example.net^", Accepted},
			{"0.0.0.0 tracker.example.com # trailing comment", "||tracker.example.com^", Accepted},
			{"0.0.0.0 ", "", InvalidHosts},
			{"0.0.0.0 # only a comment", "", InvalidHosts},
			{"127.0.0.1 localhost", "", InvalidHosts},
			{"0.0.0.0 0.0.0.0", "", InvalidHosts},
			{"0.0.0.0 ip6-allnodes", "", InvalidHosts},
			{"0.0.0.0 bad..domain", "", InvalidHosts},
		}

		for _, tc := range testCases {
			got, verdict := n.Line(tc.in)
			assert.Equal(t, tc.verdict, verdict, "strict=%t line=%q", strict, tc.in)
			if verdict.OK() {
				assert.Equal(t, tc.want, got.String(), "strict=%t line=%q", strict, tc.in)
			}
		}
	}
}

func TestLineSkipsCommentsAndBlanks(t *testing.T) {
	n := newTestNormalizer(t, false)

	for _, in := range []string{"", "   ", "! Title: EasyList", "# hosts comment", "[Adblock Plus 2.0]", "\ufeff! bom"} {
		_, verdict := n.Line(in)
		assert.False(t, verdict.OK(), in)
	}

	got, verdict := n.Line("##.ad-banner")
	assert.Equal(t, Accepted, verdict)
	assert.Equal(t, "##.ad-banner", got.String())
}

func TestLineExclusion(t *testing.T) {
	for _, strict := range []bool{false, true} {
		n := newTestNormalizer(t, strict)

		for _, in := range []string{
			"||fonts.googleapis.com^",
			"0.0.0.0 fonts.googleapis.com",
			"||fonts.googleapis.com^$third-party",
		} {
			_, verdict := n.Line(in)
			assert.Equal(t, Excluded, verdict, in)
		}
	}

	n := New(Options{Exclusions: NewExclusionSet("Example.com")})
	_, verdict := n.Line("||example.com^")
	assert.Equal(t, Accepted, verdict, "matching is case-sensitive")
}

func TestLineStrictGrammar(t *testing.T) {
	strict := newTestNormalizer(t, true)
	lenient := newTestNormalizer(t, false)

	const withModifier = "||ads.example.com^$important"

	_, verdict := strict.Line(withModifier)
	assert.Equal(t, StrictReject, verdict)

	got, verdict := lenient.Line(withModifier)
	require.Equal(t, Accepted, verdict)
	assert.Equal(t, withModifier, got.String())
	assert.Equal(t, []string{"important"}, got.Modifiers)

	for _, in := range []string{"||*.example.com^", "example.com", "/banner[0-9]/", "##.ad", "@@||example.com^"} {
		_, verdict = strict.Line(in)
		assert.Equal(t, StrictReject, verdict, in)
	}
}

func TestLineSpecialRuleBypassesStrict(t *testing.T) {
	n := newTestNormalizer(t, true)

	got, verdict := n.Line("  " + popupRule + "  ")
	require.Equal(t, Special, verdict)
	assert.Equal(t, popupRule, got.String())
}

func TestLineIdempotent(t *testing.T) {
	canonical := []string{
		"||example.com^",
		"||ads.tracker.example.org^",
		"||a.com^$popup",
		"@@||allowed.example.com^",
	}

	for _, strict := range []bool{false, true} {
		n := newTestNormalizer(t, strict)
		for _, in := range canonical {
			got, verdict := n.Line(in)
			if !verdict.OK() {
				assert.True(t, strict, "non-strict mode must accept %q", in)
				continue
			}
			assert.Equal(t, in, got.String())

			again, verdict := n.Line(got.String())
			require.True(t, verdict.OK())
			assert.Equal(t, got, again)
		}
	}
}

func TestText(t *testing.T) {
	input := strings.Join([]string{
		"! Title: test",
		"0.0.0.0 bad.com",
		"||tracker.net^",
		"0.0.0.0 fonts.googleapis.com",
		"0.0.0.0 ",
		"||ads.example.com^$important",
		"",
	}, "\n")

	var logBuf bytes.Buffer
	n := New(Options{
		Exclusions: NewExclusionSet(DefaultExclusions...),
		Strict:     true,
		Log:        slog.New(slog.NewTextHandler(&logBuf, &slog.HandlerOptions{Level: slog.LevelDebug})),
		ErrorLimit: 1,
	})

	rules, stats, err := n.Text("test", strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, []rule.Rule{rule.FromDomain("bad.com"), rule.FromDomain("tracker.net")}, rules)
	assert.Equal(t, ParseStats{TotalLines: 6, Rules: 2, Skipped: 1, Excluded: 1, Invalid: 2}, stats)

	logText := logBuf.String()
	assert.Equal(t, 1, strings.Count(logText, "rejected blocklist entry"))
	assert.Contains(t, logText, "blocklist rejections suppressed")
	assert.Contains(t, logText, "normalized blocklist")
}

func TestTextRejectedLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rejected.log")
	n := New(Options{
		Exclusions:  NewExclusionSet("googleapis"),
		Strict:      true,
		Log:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		RejectedLog: path,
	})

	_, _, err := n.Text("feed", strings.NewReader("||fonts.googleapis.com^\n||a.com^$popup\n||ok.com^\n"))
	require.NoError(t, err)
	require.NoError(t, n.Close())

	content, err := os.ReadFile(path)
	require.NoError(t, err)

	text := string(content)
	assert.Contains(t, text, "list=feed line=1 reason=excluded")
	assert.Contains(t, text, "list=feed line=2 reason=strict_reject")
	assert.NotContains(t, text, "ok.com")
}

func TestLoadExclusions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exclusions.txt")
	content := strings.Join([]string{
		"# trusted hosts",
		"static.example.com",
		"! adblock style comment",
		"; ini style comment",
		"// c style comment",
		"",
		"  cdn.example.net  ",
	}, "\n")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	entries, err := LoadExclusions(path, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	assert.Equal(t, []string{"static.example.com", "cdn.example.net"}, entries)

	_, err = LoadExclusions(filepath.Join(t.TempDir(), "missing.txt"), nil)
	assert.Error(t, err)

	entries, err = LoadExclusions("", nil)
	assert.NoError(t, err)
	assert.Empty(t, entries)
}

func TestExclusionSet(t *testing.T) {
	set := NewExclusionSet("a.example", " ", "b.example", "a.example")
	assert.Equal(t, 2, set.Len())
	assert.Equal(t, []string{"a.example", "b.example"}, set.Entries())

	entry, ok := set.Match("||cdn.b.example^")
	assert.True(t, ok)
	assert.Equal(t, "b.example", entry)

	_, ok = set.Match("||c.example^")
	assert.False(t, ok)

	var empty *ExclusionSet
	_, ok = empty.Match("anything")
	assert.False(t, ok)
}
