package wallet

import (
	"errors"
	"fmt"
)

// Domain-level error values returned by the wallet sync layer.
var (
	ErrFetchFailed        = errors.New("wallet fetch failed")
	ErrUnauthorized       = errors.New("wallet request unauthorized")
	ErrInvalidSnapshot    = errors.New("invalid balance snapshot")
	ErrInvalidCacheConfig = errors.New("invalid cache config")
	ErrCacheClosed        = errors.New("cache closed")
)

// OperationError annotates a failure with where it happened: the operation
// that ran, the subject it acted on, and a stable machine-readable code.
type OperationError struct {
	operation string
	subject   string
	code      string
	err       error
}

// Error renders the failure as operation.subject.code followed by the cause.
func (operationError OperationError) Error() string {
	return fmt.Sprintf("%s.%s.%s: %v", operationError.operation, operationError.subject, operationError.code, operationError.err)
}

// Unwrap exposes the cause so errors.Is and errors.As see through the wrapper.
func (operationError OperationError) Unwrap() error {
	return operationError.err
}

// Operation reports which operation failed.
func (operationError OperationError) Operation() string {
	return operationError.operation
}

// Subject reports what the failed operation was acting on.
func (operationError OperationError) Subject() string {
	return operationError.subject
}

// Code reports the stable failure code.
func (operationError OperationError) Code() string {
	return operationError.code
}

// WrapError attaches operation metadata to err. A nil err passes through
// unchanged so call sites can wrap unconditionally.
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
