package errors

import (
	"errors"
	"fmt"
)

// Domain error types for business logic

var (
	// ErrTickerNotFound indicates a ticker was never persisted by the pipeline
	ErrTickerNotFound = errors.New("ticker not found")

	// ErrSourceMissing indicates a required raw input source is missing or unreadable
	ErrSourceMissing = errors.New("raw input source missing")

	// ErrPipelineRunning indicates another pipeline run holds the run lock
	ErrPipelineRunning = errors.New("pipeline run already in progress")

	// ErrRunNotFound indicates no pipeline run has been recorded yet
	ErrRunNotFound = errors.New("pipeline run not found")

	// ErrInvalidInput indicates invalid input parameters
	ErrInvalidInput = errors.New("invalid input")

	// ErrInternal indicates an internal error
	ErrInternal = errors.New("internal error")

	// ErrUnavailable indicates a backing service is unavailable
	ErrUnavailable = errors.New("service unavailable")
)

// TickerError records a per-ticker recoverable failure inside a batch run.
// Recoverable failures are collected into the run report, never propagated.
type TickerError struct {
	Ticker string
	Stage  string // parse, fuse, persist
	Err    error
}

// Error implements the error interface
func (e *TickerError) Error() string {
	return fmt.Sprintf("ticker %s: %s: %v", e.Ticker, e.Stage, e.Err)
}

// Unwrap returns the wrapped error
func (e *TickerError) Unwrap() error {
	return e.Err
}

// NewTickerError creates a per-ticker failure record
func NewTickerError(ticker, stage string, err error) *TickerError {
	return &TickerError{Ticker: ticker, Stage: stage, Err: err}
}

// Helper functions

// Is checks if err is or wraps target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target type
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap wraps an error with context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

func New(message string) error {
	return errors.New(message)
}

func Newf(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}
