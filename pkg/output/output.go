// Package output renders and persists the consolidated rule file.
package output

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/AdguardTeam/golibs/errors"
	renameio "github.com/google/renameio/v2"

	"blockmerge/pkg/rule"
)

// Header field names.
const (
	fieldTitle   = "Title"
	fieldVersion = "Version"
	fieldUpdated = "Updated"
	fieldSources = "Sources"
	fieldEntries = "Entries"

	sourcesSuffix = " verified feeds"
)

// Header is the metadata block written at the top of the rule file.
type Header struct {
	Title   string
	Version string
	Updated time.Time
	Sources int
	Entries int
}

// WriteError is returned when the rule file cannot be persisted.
type WriteError struct {
	Path string
	Err  error
}

// type check
var _ error = (*WriteError)(nil)

// Error implements the error interface for *WriteError.
func (err *WriteError) Error() string {
	return fmt.Sprintf("writing %q: %s", err.Path, err.Err)
}

// Unwrap returns the underlying error.
func (err *WriteError) Unwrap() error {
	return err.Err
}

// Render writes the header followed by one rule per line. h.Entries is
// ignored and replaced by len(rules).
func Render(w io.Writer, h Header, rules []rule.Rule) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "! %s: %s\n", fieldTitle, h.Title)
	fmt.Fprintf(bw, "! %s: %s\n", fieldVersion, h.Version)
	fmt.Fprintf(bw, "! %s: %s\n", fieldUpdated, h.Updated.UTC().Format(time.RFC3339))
	fmt.Fprintf(bw, "! %s: %d%s\n", fieldSources, h.Sources, sourcesSuffix)
	fmt.Fprintf(bw, "! %s: %d\n", fieldEntries, len(rules))
	_ = bw.WriteByte('\n')

	for _, r := range rules {
		_, _ = bw.WriteString(r.String())
		_ = bw.WriteByte('\n')
	}

	return bw.Flush()
}

// WriteFile renders the rule file into path atomically: readers see either
// the previous file or the complete new one.
func WriteFile(path string, h Header, rules []rule.Rule) (err error) {
	pending, err := renameio.NewPendingFile(path, renameio.WithPermissions(0o644))
	if err != nil {
		return &WriteError{Path: path, Err: fmt.Errorf("creating temporary file: %w", err)}
	}
	defer func() { err = errors.WithDeferred(err, pending.Cleanup()) }()

	if err = Render(pending, h, rules); err != nil {
		return &WriteError{Path: path, Err: err}
	}
	if err = pending.CloseAtomicallyReplace(); err != nil {
		return &WriteError{Path: path, Err: err}
	}
	return nil
}

// ParseHeader reads the leading ! Key: value lines of a rule file. It stops
// at the first line that is not a header comment.
func ParseHeader(r *bufio.Reader) (Header, int, error) {
	var h Header
	lines := 0
	for {
		peek, err := r.Peek(1)
		if err != nil || peek[0] != '!' {
			break
		}
		line, err := r.ReadString('\n')
		if err != nil && err != io.EOF {
			return h, lines, fmt.Errorf("reading header: %w", err)
		}
		lines++

		key, value, ok := strings.Cut(strings.TrimSpace(strings.TrimPrefix(line, "!")), ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		if perr := h.set(strings.TrimSpace(key), value); perr != nil {
			return h, lines, perr
		}
		if err == io.EOF {
			break
		}
	}
	return h, lines, nil
}

func (h *Header) set(key, value string) error {
	var err error
	switch key {
	case fieldTitle:
		h.Title = value
	case fieldVersion:
		h.Version = value
	case fieldUpdated:
		h.Updated, err = time.Parse(time.RFC3339, value)
	case fieldSources:
		h.Sources, err = strconv.Atoi(strings.TrimSuffix(value, sourcesSuffix))
	case fieldEntries:
		h.Entries, err = strconv.Atoi(value)
	}
	if err != nil {
		return fmt.Errorf("header field %s: %w", key, err)
	}
	return nil
}
