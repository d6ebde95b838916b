package fault

import (
	"github.com/rs/zerolog"
)

// Factory mints tagged errors and records each one on its logger.
//
// Components receive a Factory at construction instead of sharing a
// process-wide error/logging object. The zero value is usable and silent.
type Factory struct {
	logger zerolog.Logger
}

// NewFactory creates a Factory that logs every minted error at debug level.
func NewFactory(logger zerolog.Logger) *Factory {
	return &Factory{logger: logger}
}

// New creates an Error and logs it with its context fields.
func (f *Factory) New(kind Kind, message string) *Error {
	e := New(kind, message)
	f.log(e)
	return e
}

// Newf creates a formatted Error and logs it with its context fields.
func (f *Factory) Newf(kind Kind, format string, args ...any) *Error {
	e := Newf(kind, format, args...)
	f.log(e)
	return e
}

// Emit logs an already-built error. Use after With/Wrap chains so the
// recorded entry carries the final field set.
func (f *Factory) Emit(e *Error) *Error {
	f.log(e)
	return e
}

func (f *Factory) log(e *Error) {
	if f == nil {
		return
	}
	ev := f.logger.Debug().Str("kind", string(e.Kind))
	for k, v := range e.Fields {
		ev = ev.Interface(k, v)
	}
	if e.Err != nil {
		ev = ev.AnErr("cause", e.Err)
	}
	ev.Msg(e.Message)
}
