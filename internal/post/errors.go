package post

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinels matched by the typed errors below via errors.Is.
var (
	ErrIO             = errors.New("post: read failed")
	ErrNotAHeader     = errors.New("post: not a header")
	ErrMissingHeaders = errors.New("post: missing headers")
)

// IOError reports that the underlying line stream could not be read.
type IOError struct {
	Err error
}

func (e *IOError) Error() string { return "post: read failed: " + e.Err.Error() }

func (e *IOError) Unwrap() error { return e.Err }

func (e *IOError) Is(target error) bool { return target == ErrIO }

// NotAHeaderError reports a line in the header region that is not a
// "key: value" pair.
type NotAHeaderError struct {
	Line string
}

func (e *NotAHeaderError) Error() string {
	return fmt.Sprintf("post: not a header: %q", e.Line)
}

func (e *NotAHeaderError) Is(target error) bool { return target == ErrNotAHeader }

// MissingHeadersError lists every required header that was absent.
type MissingHeadersError struct {
	Keys []string
}

func (e *MissingHeadersError) Error() string {
	return "post: missing headers: " + strings.Join(e.Keys, ", ")
}

func (e *MissingHeadersError) Is(target error) bool { return target == ErrMissingHeaders }

// Error kinds as reported by Kind.
const (
	KindIO             = "io"
	KindNotAHeader     = "not_a_header"
	KindMissingHeaders = "missing_headers"
)

// Kind classifies err into one of the Kind* constants, or "" when err did
// not come from this package.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrIO):
		return KindIO
	case errors.Is(err, ErrNotAHeader):
		return KindNotAHeader
	case errors.Is(err, ErrMissingHeaders):
		return KindMissingHeaders
	default:
		return ""
	}
}
