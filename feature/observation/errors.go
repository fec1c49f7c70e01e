package observation

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a failed mutation.
type Kind string

const (
	KindValidation Kind = "validation"
	KindNotFound   Kind = "not_found"
	KindForbidden  Kind = "forbidden"
	KindInternal   Kind = "internal"
)

// FieldError is one rejected input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (f FieldError) String() string {
	return f.Field + ": " + f.Message
}

// Error is the tagged failure returned by the service.
type Error struct {
	Kind   Kind
	Fields []FieldError
	Err    error
}

func (e *Error) Error() string {
	switch {
	case len(e.Fields) > 0:
		msgs := make([]string, len(e.Fields))
		for i, f := range e.Fields {
			msgs[i] = f.String()
		}
		return fmt.Sprintf("%s: %s", e.Kind, strings.Join(msgs, "; "))
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of err. Untagged errors are internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func notFound(err error) error {
	return &Error{Kind: KindNotFound, Err: err}
}

func forbidden() error {
	return &Error{Kind: KindForbidden, Err: errors.New("caller neither owns the observation nor moderates")}
}

func internal(err error) error {
	return &Error{Kind: KindInternal, Err: err}
}

func invalid(field, msg string) error {
	return &Error{Kind: KindValidation, Fields: []FieldError{{Field: field, Message: msg}}}
}

// validator accumulates field errors across a whole submission.
type validator struct {
	fields []FieldError
}

func (v *validator) add(field, msg string) {
	v.fields = append(v.fields, FieldError{Field: field, Message: msg})
}

func (v *validator) err() error {
	if len(v.fields) == 0 {
		return nil
	}
	return &Error{Kind: KindValidation, Fields: v.fields}
}
