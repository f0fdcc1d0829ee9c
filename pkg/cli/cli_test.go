package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blockmerge/internal/testutil"
	"blockmerge/pkg/version"
)

type env struct {
	dir     string
	output  string
	metrics string
	config  string
}

// newEnv writes a config that reads the given feed URLs, keyed by source ID,
// with the built-in catalog disabled.
func newEnv(t *testing.T, feeds map[string]string, extra string) *env {
	t.Helper()

	dir := t.TempDir()
	e := &env{
		dir:     dir,
		output:  filepath.Join(dir, "rules.txt"),
		metrics: filepath.Join(dir, "blockmerge.prom"),
		config:  filepath.Join(dir, "blockmerge.conf"),
	}

	b := &strings.Builder{}
	fmt.Fprintf(b, "[logging]\nlevel = \"debug\"\nfile = %q\n\n", filepath.Join(dir, "blockmerge.log"))
	fmt.Fprintf(b, "[output]\npath = %q\ntitle = \"Test List\"\nversion = \"1.0\"\n\n", e.output)
	fmt.Fprintf(b, "[fetch]\nbase_delay = \"1ms\"\nmax_delay = \"2ms\"\ntimeout = \"5s\"\n\n")
	fmt.Fprintf(b, "[metrics]\ntextfile = %q\n\n", e.metrics)
	fmt.Fprintf(b, "[catalog]\nenabled = false\n\n")
	for id, url := range feeds {
		fmt.Fprintf(b, "[sources.%s]\nenabled = true\nurl = %q\n\n", id, url)
	}
	b.WriteString(extra)

	require.NoError(t, os.WriteFile(e.config, []byte(b.String()), 0o600))
	return e
}

func (e *env) run(t *testing.T, args ...string) (code int, stdout, stderr string) {
	t.Helper()

	outBuf, errBuf := &bytes.Buffer{}, &bytes.Buffer{}
	args = append([]string{"--config", e.config}, args...)
	code = Run(context.Background(), args, outBuf, errBuf)
	return code, outBuf.String(), errBuf.String()
}

func TestBuild_EndToEnd(t *testing.T) {
	stub := testutil.StartFeedStub(t, map[string]testutil.Feed{
		"/a.txt": {Body: "0.0.0.0 bad.com\n! comment\n"},
		"/b.txt": {Body: "||tracker.net^\n0.0.0.0 bad.com\n"},
	})
	e := newEnv(t, map[string]string{
		"a_first":  stub.URLFor("/a.txt"),
		"b_second": stub.URLFor("/b.txt"),
	}, "")

	code, _, stderr := e.run(t, "build")
	require.Equal(t, 0, code, stderr)

	data, err := os.ReadFile(e.output)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 9)
	assert.Equal(t, "! Title: Test List", lines[0])
	assert.Equal(t, "! Version: 1.0", lines[1])
	assert.Equal(t, "! Sources: 2 verified feeds", lines[3])
	assert.Equal(t, "! Entries: 3", lines[4])
	assert.Equal(t, []string{"||bad.com^", "||tracker.net^", "*$popup,third-party"}, lines[6:])

	prom, err := os.ReadFile(e.metrics)
	require.NoError(t, err)
	assert.Contains(t, string(prom), "blockmerge_last_run_success 1")
	assert.Contains(t, string(prom), "blockmerge_rules_emitted 3")
}

func TestBuild_DefaultCommand(t *testing.T) {
	stub := testutil.StartFeedStub(t, map[string]testutil.Feed{
		"/a.txt": {Body: "||ads.example.com^\n"},
	})
	e := newEnv(t, map[string]string{"a": stub.URLFor("/a.txt")}, "")

	code, _, stderr := e.run(t)
	require.Equal(t, 0, code, stderr)
	assert.FileExists(t, e.output)
}

func TestBuild_QualityGate(t *testing.T) {
	stub := testutil.StartFeedStub(t, map[string]testutil.Feed{
		"/ok.txt": {Body: "||ads.example.com^\n"},
	})
	feeds := map[string]string{"ok": stub.URLFor("/ok.txt")}
	for i := range 4 {
		feeds[fmt.Sprintf("gone_%d", i)] = stub.URLFor(fmt.Sprintf("/gone_%d.txt", i))
	}
	e := newEnv(t, feeds, "")

	code, _, _ := e.run(t, "build")
	assert.Equal(t, 1, code)
	assert.NoFileExists(t, e.output)

	prom, err := os.ReadFile(e.metrics)
	require.NoError(t, err)
	assert.Contains(t, string(prom), "blockmerge_last_run_success 0")
	assert.Contains(t, string(prom), "blockmerge_sources_failed 4")
}

func TestBuild_RetryRecovers(t *testing.T) {
	stub := testutil.StartFeedStub(t, map[string]testutil.Feed{
		"/flaky.txt": {Body: "||ads.example.com^\n", FailFirst: 2},
	})
	e := newEnv(t, map[string]string{"flaky": stub.URLFor("/flaky.txt")}, "")

	code, _, stderr := e.run(t, "build")
	require.Equal(t, 0, code, stderr)
	assert.Equal(t, 3, stub.Hits("/flaky.txt"))
}

func TestBuild_DryRun(t *testing.T) {
	stub := testutil.StartFeedStub(t, map[string]testutil.Feed{
		"/a.txt": {Body: "||ads.example.com^\n||fonts.googleapis.com^\n"},
	})
	e := newEnv(t, map[string]string{"a": stub.URLFor("/a.txt")}, "")

	code, stdout, stderr := e.run(t, "build", "--dry-run")
	require.Equal(t, 0, code, stderr)
	assert.Equal(t, "||ads.example.com^\n*$popup,third-party\n", stdout)
	assert.Contains(t, stderr, "1 lines rejected")
	assert.NoFileExists(t, e.output)
}

func TestLogTarget(t *testing.T) {
	assert.Equal(t, "stderr", logTarget("stdout", true))
	assert.Equal(t, "stderr", logTarget(" STDOUT ", true))
	assert.Equal(t, "stdout", logTarget("stdout", false))
	assert.Equal(t, "/var/log/blockmerge.log", logTarget("/var/log/blockmerge.log", true))
	assert.Equal(t, "", logTarget("", true))
}

func TestBuild_ConfigError(t *testing.T) {
	e := newEnv(t, nil, "[gate]\nmax_failed_sources = -1\n")

	code, _, stderr := e.run(t, "build")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "error:")
}

func TestBuild_NoSources(t *testing.T) {
	e := newEnv(t, nil, "")

	code, _, stderr := e.run(t, "build")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "no sources configured")
}

func TestCheck(t *testing.T) {
	stub := testutil.StartFeedStub(t, map[string]testutil.Feed{
		"/a.txt": {Body: "||ads.example.com^\n0.0.0.0 tracker.example.net\n"},
	})
	e := newEnv(t, map[string]string{"a": stub.URLFor("/a.txt")}, "")

	code, _, stderr := e.run(t, "build")
	require.Equal(t, 0, code, stderr)

	code, stdout, stderr := e.run(t, "check", e.output)
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "3 rules (1 special, 0 cosmetic), 0 invalid")

	broken := filepath.Join(e.dir, "broken.txt")
	require.NoError(t, os.WriteFile(broken, []byte("! Title: x\n! Entries: 1\n\n||a.example.com^$important\n"), 0o600))

	code, stdout, _ = e.run(t, "check", broken)
	assert.Equal(t, 1, code)
	assert.Contains(t, stdout, "line 4:")

	code, _, _ = e.run(t, "check", "--lenient", broken)
	assert.Equal(t, 0, code)
}

func TestSources(t *testing.T) {
	e := newEnv(t, map[string]string{"zeta": "https://lists.example/z.txt"}, "[custom]\nlist = [\"/srv/local.txt\"]\n")

	code, stdout, _ := e.run(t, "sources")
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "zeta")
	assert.Contains(t, stdout, "custom_1")
	assert.NotContains(t, stdout, "easylist")
}

func TestVersion(t *testing.T) {
	e := newEnv(t, nil, "")

	code, stdout, _ := e.run(t, "version")
	require.Equal(t, 0, code)
	assert.Equal(t, "blockmerge "+version.BlockmergeVersion+"\n", stdout)
}
