package budget

import (
	"errors"
	"fmt"
)

// Domain-level error values returned by the budget engine.
var (
	ErrInvalidEnvelopeID     = errors.New("invalid envelope id")
	ErrInvalidEnvelopeName   = errors.New("invalid envelope name")
	ErrInvalidAmountCents    = errors.New("invalid amount cents")
	ErrInvalidSuggestionType = errors.New("invalid suggestion type")
	ErrInvalidPriorityTier   = errors.New("invalid priority tier")
	ErrInvalidStrategyKind   = errors.New("invalid strategy kind")
	ErrInvalidHybridAmount   = errors.New("invalid hybrid amount")
	ErrInvalidDebtSnapshot   = errors.New("invalid debt snapshot")
	ErrInvalidEngineConfig   = errors.New("invalid engine config")
)

// OperationError wraps a failure with a stable operation code.
type OperationError struct {
	operation string
	subject   string
	code      string
	err       error
}

// Error returns the formatted error message.
func (operationError OperationError) Error() string {
	return fmt.Sprintf("%s.%s.%s: %v", operationError.operation, operationError.subject, operationError.code, operationError.err)
}

// Unwrap returns the underlying error.
func (operationError OperationError) Unwrap() error {
	return operationError.err
}

// Operation returns the operation segment.
func (operationError OperationError) Operation() string {
	return operationError.operation
}

// Subject returns the subject segment.
func (operationError OperationError) Subject() string {
	return operationError.subject
}

// Code returns the stable error code segment.
func (operationError OperationError) Code() string {
	return operationError.code
}

// WrapError wraps an error with operation, subject, and code metadata.
func WrapError(operation string, subject string, code string, err error) error {
	if err == nil {
		return nil
	}
	return OperationError{
		operation: operation,
		subject:   subject,
		code:      code,
		err:       err,
	}
}
