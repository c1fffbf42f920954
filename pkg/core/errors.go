// Package core provides the agent client: context assembly, response
// generation and memory lifecycle management on top of the storage, llm and
// intelligence packages.
package core

import (
	"errors"
	"fmt"
)

// Predefined errors for common failure scenarios.
var (
	// ErrNotFound indicates that a requested agent or record was not found.
	ErrNotFound = errors.New("not found")

	// ErrInvalidConfig indicates that the provided configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrInvalidInput indicates that the provided input is invalid.
	ErrInvalidInput = errors.New("invalid input")

	// ErrStorageOperation indicates that a storage operation failed.
	ErrStorageOperation = errors.New("storage operation failed")

	// ErrLLMOperation indicates that an LLM operation failed.
	ErrLLMOperation = errors.New("llm operation failed")

	// ErrEmbeddingFailed indicates that embedding generation failed.
	ErrEmbeddingFailed = errors.New("embedding generation failed")

	// ErrProviderUnavailable indicates that no usable provider configuration exists.
	ErrProviderUnavailable = errors.New("llm provider unavailable")

	// ErrUnsupportedProvider indicates a provider name outside the supported set.
	ErrUnsupportedProvider = errors.New("unsupported llm provider")
)

// AgentError wraps errors with operation context.
//
// It provides additional context about which operation failed,
// making error messages more informative for debugging.
//
// Example:
//
//	err := &AgentError{
//	    Op:  "BuildAgentContext",
//	    Err: ErrStorageOperation,
//	}
//	// Error() returns: "fragent: BuildAgentContext: storage operation failed"
type AgentError struct {
	// Op is the name of the operation that failed.
	Op string

	// Err is the underlying error.
	Err error
}

// Error returns a formatted error message.
//
// The format is: "fragent: <Op>: <Err>"
func (e *AgentError) Error() string {
	return fmt.Sprintf("fragent: %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
//
// This allows using errors.Is() and errors.As() with AgentError.
func (e *AgentError) Unwrap() error {
	return e.Err
}

// NewAgentError creates a new AgentError wrapping the given error.
//
// If err is nil, returns nil. This allows safe error wrapping:
//
//	if err != nil {
//	    return NewAgentError("Interact", err)
//	}
func NewAgentError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &AgentError{
		Op:  op,
		Err: err,
	}
}

// storageError wraps a store failure, translating storage.ErrNotFound into
// ErrNotFound and everything else into ErrStorageOperation.
func storageError(op string, err error) error {
	if err == nil {
		return nil
	}
	if isNotFound(err) {
		return NewAgentError(op, fmt.Errorf("%w: %v", ErrNotFound, err))
	}
	return NewAgentError(op, fmt.Errorf("%w: %v", ErrStorageOperation, err))
}
