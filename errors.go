package p2pchat

import (
	"errors"
	"fmt"
)

// Error represents a chat core error with categorization.
type Error struct {
	// Code is a machine-readable error code
	Code string

	// Message is a human-readable error message
	Message string

	// Err is the underlying error (if any)
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Error codes for chat operations.
const (
	// ErrCodeStoreWrite indicates the persistence layer rejected a write.
	ErrCodeStoreWrite = "STORE_WRITE_FAILURE"

	// ErrCodeStoreRead indicates the persistence layer rejected a read.
	ErrCodeStoreRead = "STORE_READ_FAILURE"

	// ErrCodeNoPeers indicates a publish had no reachable peers.
	ErrCodeNoPeers = "NO_PEERS"

	// ErrCodeDecode indicates inbound bytes were not an envelope.
	ErrCodeDecode = "DECODE_ERROR"

	// ErrCodeCommand indicates a malformed user command.
	ErrCodeCommand = "COMMAND_ERROR"

	// ErrCodeStartup indicates the node or store could not be brought up.
	ErrCodeStartup = "STARTUP_FAILURE"

	// ErrCodeConfiguration indicates invalid configuration.
	ErrCodeConfiguration = "CONFIGURATION_ERROR"

	// ErrCodeValidation indicates validation failed.
	ErrCodeValidation = "VALIDATION_ERROR"
)

// Common errors.
var (
	// ErrNoPeers is returned by a Substrate when a publish cannot reach anyone.
	// It is a steady-state condition, not a fault.
	ErrNoPeers = &Error{
		Code:    ErrCodeNoPeers,
		Message: "no peers subscribed to topic",
	}

	// ErrStoreClosed is returned by store operations after Close.
	ErrStoreClosed = &Error{
		Code:    ErrCodeStoreWrite,
		Message: "message store is closed",
	}
)

// NewError creates a new Error with the given code and message.
func NewError(code, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// NewErrorWithCause creates a new Error wrapping an underlying error.
func NewErrorWithCause(code, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     cause,
	}
}

// HasCode reports whether err is, or wraps, an *Error with the given code.
func HasCode(err error, code string) bool {
	var chatErr *Error
	if errors.As(err, &chatErr) {
		return chatErr.Code == code
	}
	return false
}

// IsNoPeers checks if an error reports that no peers were reachable.
func IsNoPeers(err error) bool {
	return errors.Is(err, ErrNoPeers) || HasCode(err, ErrCodeNoPeers)
}
