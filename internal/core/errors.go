package core

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidDate   = errors.New("invalid date")
	ErrInvalidPayer  = errors.New("invalid payer")
	ErrEmptyCategory = errors.New("empty category")
)

// ValidationError reports a rejected input field.
type ValidationError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// StoreReadError wraps a failed read against the persistence store.
type StoreReadError struct {
	Op  string
	Err error
}

func (e *StoreReadError) Error() string {
	return fmt.Sprintf("store read %s: %v", e.Op, e.Err)
}

func (e *StoreReadError) Unwrap() error { return e.Err }

// StoreWriteError wraps a failed or rejected write against the persistence store.
type StoreWriteError struct {
	Op  string
	ID  string
	Err error
}

func (e *StoreWriteError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("store write %s %s: %v", e.Op, e.ID, e.Err)
	}
	return fmt.Sprintf("store write %s: %v", e.Op, e.Err)
}

func (e *StoreWriteError) Unwrap() error { return e.Err }

// ReadError wraps err as a StoreReadError unless it already is one.
func ReadError(op string, err error) error {
	if err == nil {
		return nil
	}
	var re *StoreReadError
	if errors.As(err, &re) {
		return err
	}
	return &StoreReadError{Op: op, Err: err}
}

// WriteError wraps err as a StoreWriteError unless it already is one.
// Validation failures pass through unchanged.
func WriteError(op, id string, err error) error {
	if err == nil {
		return nil
	}
	var we *StoreWriteError
	var ve *ValidationError
	if errors.As(err, &we) || errors.As(err, &ve) {
		return err
	}
	return &StoreWriteError{Op: op, ID: id, Err: err}
}
