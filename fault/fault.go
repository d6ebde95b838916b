package fault

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Kind classifies a failure. Kinds are stable identifiers: callers branch on
// them with IsKind or errors.Is, and log pipelines can index on them.
type Kind string

const (
	// InvalidArgument indicates a malformed connection descriptor or call.
	InvalidArgument Kind = "invalid_argument"

	// Security indicates credentials would have been sent over an
	// insecure transport.
	Security Kind = "security"

	// Timeout indicates a request or poll run exceeded its deadline.
	Timeout Kind = "timeout"

	// Server indicates a non-success HTTP status, an unparseable response
	// payload, or a failing result transform. The context fields
	// distinguish the sub-cause.
	Server Kind = "server"

	// RetryLimit indicates a poll run exhausted its attempt budget.
	RetryLimit Kind = "retry_limit"

	// Cancelled indicates the caller's context was cancelled.
	Cancelled Kind = "cancelled"
)

// Error is a tagged error with structured context.
//
// Fields are free-form key/value context (status codes, URLs, response
// bodies). The zero map is never mutated in place; With returns a copy so a
// shared template error can be specialized safely.
type Error struct {
	Kind    Kind
	Message string
	Fields  map[string]any
	Err     error
}

// New creates an Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf creates an Error of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// With returns a copy of the error with an added context field.
func (e *Error) With(key string, value any) *Error {
	clone := *e
	clone.Fields = make(map[string]any, len(e.Fields)+1)
	for k, v := range e.Fields {
		clone.Fields[k] = v
	}
	clone.Fields[key] = value
	return &clone
}

// Wrap returns a copy of the error with the given cause attached.
func (e *Error) Wrap(err error) *Error {
	clone := *e
	clone.Err = err
	return &clone
}

// Field returns the context field for key, or nil.
func (e *Error) Field(key string) any {
	return e.Fields[key]
}

// Error implements the error interface. Context fields are appended in
// sorted order so messages are deterministic.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if len(e.Fields) > 0 {
		keys := make([]string, 0, len(e.Fields))
		for k := range e.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString(" (")
		for i, k := range keys {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s=%v", k, e.Fields[k])
		}
		b.WriteString(")")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap exposes the cause for errors.Is / errors.As chains.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches two *Error values on Kind alone, so sentinel comparisons like
// errors.Is(err, fault.New(fault.Timeout, "")) work without message equality.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Kind == t.Kind
}

// KindOf returns the kind of err if it is (or wraps) a *Error, else "".
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err is (or wraps) a *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
