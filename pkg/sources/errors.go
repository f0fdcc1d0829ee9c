package sources

import "fmt"

// StatusError is returned when a source answers with a non-2xx status.
type StatusError struct {
	URL    string
	Server string
	Code   int
}

// type check
var _ error = (*StatusError)(nil)

// Error implements the error interface for *StatusError.
func (err *StatusError) Error() string {
	if err.Server == "" {
		return fmt.Sprintf("unexpected status %d", err.Code)
	}
	return fmt.Sprintf("server %q: unexpected status %d", err.Server, err.Code)
}

// ContentTypeError is returned when a source declares a content type other
// than the expected one.
type ContentTypeError struct {
	Expected string
	Got      string
}

// type check
var _ error = (*ContentTypeError)(nil)

// Error implements the error interface for *ContentTypeError.
func (err *ContentTypeError) Error() string {
	return fmt.Sprintf("content type %q, want %q", err.Got, err.Expected)
}

// UnavailableError marks a source as failed for the rest of the run.
type UnavailableError struct {
	Source   string
	Attempts int
	Err      error
}

// type check
var _ error = (*UnavailableError)(nil)

// Error implements the error interface for *UnavailableError.
func (err *UnavailableError) Error() string {
	return fmt.Sprintf("source %s unavailable after %d attempt(s): %s", err.Source, err.Attempts, err.Err)
}

// Unwrap returns the last fetch error.
func (err *UnavailableError) Unwrap() error {
	return err.Err
}
