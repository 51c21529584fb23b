// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors
var (
	ErrEmptyStrategy     = errors.New("strategy has no legs")
	ErrInvalidSpot       = errors.New("spot price must be positive")
	ErrInvalidOptionType = errors.New("invalid option type")
	ErrInvalidSide       = errors.New("invalid position side")
	ErrLegNotFound       = errors.New("leg not found")
	ErrStrikeNotFound    = errors.New("strike not found in chain")
	ErrNoQuote           = errors.New("no usable quote")
	ErrConfigInvalid     = errors.New("invalid configuration")
	ErrDataNotFound      = errors.New("data not found")
	ErrDatabaseError     = errors.New("database error")
	ErrInputValidation   = errors.New("input validation failed")
	ErrUnsupportedFormat = errors.New("unsupported file format")
)

// ValidationError represents a validation error.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s (%v): %s", e.Field, e.Value, e.Message)
}

// Unwrap lets errors.Is match ErrInputValidation.
func (e *ValidationError) Unwrap() error {
	return ErrInputValidation
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// DataError represents a data-related error.
type DataError struct {
	DataType string
	Ticker   string
	Message  string
	Err      error
}

func (e *DataError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("data error [%s] %s: %s: %v", e.DataType, e.Ticker, e.Message, e.Err)
	}
	return fmt.Sprintf("data error [%s] %s: %s", e.DataType, e.Ticker, e.Message)
}

func (e *DataError) Unwrap() error {
	return e.Err
}

// NewDataError creates a new DataError.
func NewDataError(dataType, ticker, message string, err error) *DataError {
	return &DataError{
		DataType: dataType,
		Ticker:   ticker,
		Message:  message,
		Err:      err,
	}
}

// LegError ties an error to a single leg of a strategy.
type LegError struct {
	LegID int64
	Index int
	Err   error
}

func (e *LegError) Error() string {
	if e.LegID != 0 {
		return fmt.Sprintf("leg %d: %v", e.LegID, e.Err)
	}
	return fmt.Sprintf("leg #%d: %v", e.Index+1, e.Err)
}

func (e *LegError) Unwrap() error {
	return e.Err
}

// NewLegError creates a new LegError.
func NewLegError(legID int64, index int, err error) *LegError {
	return &LegError{
		LegID: legID,
		Index: index,
		Err:   err,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Join combines errors, dropping nils.
func Join(errs ...error) error {
	return errors.Join(errs...)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
