package content

import (
	"errors"
	"fmt"
)

// FetchErrorKind classifies load failures.
type FetchErrorKind int

const (
	// NotFound covers non-success transport outcomes: missing files, HTTP
	// status >= 300, unreachable hosts.
	NotFound FetchErrorKind = iota + 1
	// Malformed means the payload arrived but could not be decoded.
	Malformed
)

func (k FetchErrorKind) String() string {
	switch k {
	case NotFound:
		return "not_found"
	case Malformed:
		return "malformed"
	default:
		return "unknown"
	}
}

var (
	// ErrNotFound matches any FetchError of kind NotFound via errors.Is.
	ErrNotFound = errors.New("content: not found")
	// ErrMalformed matches any FetchError of kind Malformed via errors.Is.
	ErrMalformed = errors.New("content: malformed")
	// ErrUnsupportedSource is returned for source URIs with an unknown scheme.
	ErrUnsupportedSource = errors.New("content: unsupported source")
)

// FetchError reports a failed content or fragment load.
type FetchError struct {
	Kind   FetchErrorKind
	Source string
	// Status is the HTTP status when the failure came from a response.
	Status int
	Err    error
}

// NewFetchError builds a FetchError of the given kind.
func NewFetchError(kind FetchErrorKind, source string, status int, err error) *FetchError {
	return &FetchError{Kind: kind, Source: source, Status: status, Err: err}
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	msg := fmt.Sprintf("content: fetch %s: %s", e.Source, e.Kind)
	if e.Status != 0 {
		msg += fmt.Sprintf(" (status %d)", e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes the underlying cause.
func (e *FetchError) Unwrap() error { return e.Err }

// Is matches the kind sentinels.
func (e *FetchError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Kind == NotFound
	case ErrMalformed:
		return e.Kind == Malformed
	}
	return false
}
