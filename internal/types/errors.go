package types

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies failures raised while loading and running scenarios.
type ErrorKind string

const (
	KindInvalidRequest  ErrorKind = "invalid_request"
	KindInvalidHeader   ErrorKind = "invalid_header"
	KindInvalidResponse ErrorKind = "invalid_response"
	KindScenarioParsing ErrorKind = "scenario_parsing"
	KindAssertion       ErrorKind = "assertion"
	KindConfiguration   ErrorKind = "configuration"
)

// Error carries a kind, the operation that failed and a self-contained message.
type Error struct {
	Op   string
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}

	parts := make([]string, 0, 3)
	if e.Op != "" {
		parts = append(parts, e.Op)
	}
	if e.Msg != "" {
		parts = append(parts, e.Msg)
	} else {
		parts = append(parts, string(e.Kind))
	}
	if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}
	return strings.Join(parts, ": ")
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Errorf builds an Error with a formatted message
func Errorf(kind ErrorKind, op string, format string, args ...any) *Error {
	return &Error{Op: op, Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches kind and op to an underlying error
func Wrap(kind ErrorKind, op string, err error, msg string) *Error {
	return &Error{Op: op, Kind: kind, Msg: msg, Err: err}
}

// AssertionFailure builds an assertion error. Its message is the whole error text.
func AssertionFailure(format string, args ...any) *Error {
	return &Error{Kind: KindAssertion, Msg: fmt.Sprintf(format, args...)}
}

// IsKind reports whether err, or anything it wraps, is an Error of kind
func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// KindOf returns the kind of the first Error in err's chain, or ""
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
