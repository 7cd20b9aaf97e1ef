package core

import (
	"fmt"

	"github.com/pkg/errors"
)

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

// ValidationError is a local, pre-submit error. It never reaches a gateway.
type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// FieldMap returns the field errors keyed by field name.
func (err ValidationError) FieldMap() map[string]string {
	m := make(map[string]string, len(err.Fields))
	for _, f := range err.Fields {
		m[f.Field] = f.Error
	}
	return m
}

// TransportError means a remote call did not take effect.
type TransportError struct {
	Op     string // list | create | update | delete | rpc | auth ...
	Entity string
	Status int // HTTP status, 0 when not applicable
	Err    error
}

func NewTransportError(op, entity string, err error) error {
	return &TransportError{Op: op, Entity: entity, Err: err}
}

func (err TransportError) Error() string {
	msg := err.Op
	if err.Entity != "" {
		msg += " " + err.Entity
	}
	if err.Status != 0 {
		msg += fmt.Sprintf(" (status %d)", err.Status)
	}
	if err.Err != nil {
		msg += ": " + err.Err.Error()
	}
	return msg
}

func (err TransportError) Cause() error  { return err.Err }
func (err TransportError) Unwrap() error { return err.Err }

func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
