package engine

import (
	"errors"
	"fmt"
)

// ErrInert is wrapped by Err when the engine could not be initialised.
var ErrInert = errors.New("engine inert")

// InitError describes why New could not build a working engine.
type InitError struct {
	// Code identifies the error category.
	Code InitErrorCode

	// Message is a human-readable description.
	Message string

	// Cause is the underlying error, if any.
	Cause error
}

// InitErrorCode categorizes initialisation errors.
type InitErrorCode string

const (
	// ErrCodeMissingFrame indicates no FrameSource was supplied.
	ErrCodeMissingFrame InitErrorCode = "MISSING_FRAME"

	// ErrCodeMissingStirrer indicates no Stirrer was supplied.
	ErrCodeMissingStirrer InitErrorCode = "MISSING_STIRRER"

	// ErrCodeInvalidConfig indicates the config failed validation or could
	// not be turned into a sequencer or gate.
	ErrCodeInvalidConfig InitErrorCode = "INVALID_CONFIG"
)

func (e *InitError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *InitError) Unwrap() error { return e.Cause }

// IsInert reports whether err came from an inert engine.
func IsInert(err error) bool {
	return errors.Is(err, ErrInert)
}

func newInitError(code InitErrorCode, message string, cause error) *InitError {
	return &InitError{Code: code, Message: message, Cause: cause}
}
