package page

import (
	"errors"
	"fmt"

	"github.com/Diegoproggramer/CivilCity/internal/content"
)

// Code labels an error panel.
type Code string

const (
	RouteNotFound        Code = "ROUTE_NOT_FOUND"
	ContentNotFound      Code = "CONTENT_NOT_FOUND"
	ComponentLoadFailure Code = "COMPONENT_LOAD_FAILURE"
	DataLinkFailure      Code = "DATA_LINK_FAILURE"
)

// Sentinels for errors.Is; they match any *Error with the same code.
var (
	ErrRouteNotFound        = &Error{Code: RouteNotFound}
	ErrContentNotFound      = &Error{Code: ContentNotFound}
	ErrComponentLoadFailure = &Error{Code: ComponentLoadFailure}
	ErrDataLinkFailure      = &Error{Code: DataLinkFailure}
)

// Error is a render failure surfaced to the user as a labelled panel.
type Error struct {
	Code  Code
	Route content.RouteID
	Err   error
}

func (e *Error) Error() string {
	msg := string(e.Code)
	if e.Route != "" {
		msg = fmt.Sprintf("%s: route %q", msg, e.Route)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// CodeOf extracts the panel code of err. Errors that are not render
// failures report ok=false.
func CodeOf(err error) (Code, bool) {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Code, true
	}
	return "", false
}
