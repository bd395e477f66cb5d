package core

import (
	"strings"

	"github.com/pkg/errors"
)

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

// ValidationError is returned when input breaks a rule of the domain
// (as opposed to a validator tag), optionally pointing at the offending fields.
type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{Err: err, Fields: flds}
}

// NewFieldError is a ValidationError about a single field.
func NewFieldError(field, msg string) error {
	return &ValidationError{Fields: []FieldError{{Field: field, Error: msg}}}
}

func (err *ValidationError) Error() string {
	if err.Err != nil {
		return err.Err.Error()
	}
	msgs := make([]string, 0, len(err.Fields))
	for _, fErr := range err.Fields {
		msgs = append(msgs, fErr.Field+": "+fErr.Error)
	}
	return strings.Join(msgs, "; ")
}

func (err *ValidationError) Unwrap() error {
	return err.Err
}

// FieldMap returns {field: message}, or nil when no field is named.
func (err *ValidationError) FieldMap() map[string]string {
	if len(err.Fields) == 0 {
		return nil
	}
	fldErrs := make(map[string]string, len(err.Fields))
	for _, fErr := range err.Fields {
		fldErrs[fErr.Field] = fErr.Error
	}
	return fldErrs
}

// AsValidationError finds a ValidationError in err's chain.
func AsValidationError(err error) (*ValidationError, bool) {
	var vErr *ValidationError
	ok := errors.As(err, &vErr)
	return vErr, ok
}

type shutdown struct {
	message string
	err     error
}

// NewShutdownError is returned when the app can no longer serve requests safely, e.g. its storage is gone.
func NewShutdownError(msg string, cause error) error {
	return &shutdown{message: msg, err: cause}
}

func (s *shutdown) Error() string {
	if s.err == nil {
		return s.message
	}
	return s.message + ": " + s.err.Error()
}

func (s *shutdown) Unwrap() error {
	return s.err
}

func IsShutdown(err error) bool {
	var s *shutdown
	return errors.As(err, &s)
}
