// Package apperr defines the API error type: a closed set of kinds, each
// with its own rendering for clients and for server logs.
package apperr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// DefaultCode is the status used when none is attached.
const DefaultCode = http.StatusBadRequest

// Kind enumerates the error variants.
type Kind int

const (
	// KindEmpty carries no detail and renders as an empty object.
	KindEmpty Kind = iota
	// KindSimple carries a log detail string next to the user message.
	KindSimple
	// KindWrapped carries a lower-level cause (pool, driver) kept for logs only.
	KindWrapped
)

func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "Empty"
	case KindSimple:
		return "Simple"
	case KindWrapped:
		return "Wrapped"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Event is an optional structured payload attached to an error.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// Error is the single error type returned by handlers and services.
type Error struct {
	message string
	kind    Kind
	detail  string
	cause   error
	code    int
	event   *Event
}

// New pairs a user-facing message with an internal log message.
func New(usrMsg, logMsg string) *Error {
	return &Error{message: usrMsg, kind: KindSimple, detail: logMsg, code: DefaultCode}
}

// Empty returns an error without any detail.
func Empty() *Error {
	return &Error{kind: KindEmpty, code: DefaultCode}
}

// Wrap turns a lower-level error into a Wrapped error. The message defaults
// to the kind name until WithMsg sets one.
func Wrap(cause error) *Error {
	return &Error{message: KindWrapped.String(), kind: KindWrapped, cause: cause, code: DefaultCode}
}

// WithMsg replaces the user-facing message.
func (e *Error) WithMsg(msg string) *Error {
	e.message = msg
	return e
}

// WithCode sets the HTTP status code.
func (e *Error) WithCode(code int) *Error {
	e.code = code
	return e
}

// WithEvent attaches a structured event.
func (e *Error) WithEvent(ev Event) *Error {
	e.event = &ev
	return e
}

func (e *Error) Kind() Kind { return e.kind }
func (e *Error) Code() int { return e.code }
func (e *Error) Message() string { return e.message }
func (e *Error) Event() *Event { return e.event }
func (e *Error) HasSource() bool { return e.kind == KindWrapped && e.cause != nil }

// Error renders the message for logs. Simple errors append the log detail
// unless it repeats the message.
func (e *Error) Error() string {
	switch e.kind {
	case KindEmpty:
		return ""
	case KindSimple:
		if e.detail == "" || e.detail == e.message {
			return e.message
		}
		return e.message + ". " + e.detail
	default:
		return e.message
	}
}

// Unwrap exposes the cause of wrapped errors.
func (e *Error) Unwrap() error {
	if e.kind != KindWrapped {
		return nil
	}
	return e.cause
}

// Format supports %+v, which appends the cause.
func (e *Error) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if s.Flag('+') && e.HasSource() {
			fmt.Fprintf(s, "%s.\n[CAUSE] %+v", e.message, e.cause)
			return
		}
		fmt.Fprint(s, e.Error())
	case 's':
		fmt.Fprint(s, e.Error())
	case 'q':
		fmt.Fprintf(s, "%q", e.Error())
	}
}

// Body is what the client receives.
func (e *Error) Body() []byte {
	if e.kind == KindEmpty {
		return []byte("{}")
	}
	return envelope(e.message)
}

func envelope(msg string) []byte {
	body, _ := json.Marshal(map[string]any{
		"Message":           msg,
		"error":             "",
		"error_description": "",
		"ValidationErrors":  map[string][]string{"": {msg}},
		"ErrorModel": map[string]string{
			"Message": msg,
			"Object":  "error",
		},
		"ExceptionMessage":      nil,
		"ExceptionStackTrace":   nil,
		"InnerExceptionMessage": nil,
		"Object":                "error",
	})
	return body
}

// From converts any error into *Error, keeping an existing *Error as-is.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Wrap(err)
}

// Map converts err and sets msg as its user message. A nil error maps to nil.
func Map(err error, msg string) *Error {
	if err == nil {
		return nil
	}
	return From(err).WithMsg(msg)
}

// Require returns a Simple error carrying msg when v is nil.
func Require[T any](v *T, msg string) (*T, error) {
	if v == nil {
		return nil, New(msg, "")
	}
	return v, nil
}
