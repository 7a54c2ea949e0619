package cancelctx

import "fmt"

// InvalidArgumentError represents a validation failure raised synchronously
// by a construction or derivation call, before any state mutation occurs.
type InvalidArgumentError struct {
	Message string
	Code    string
}

// Error implements the error interface for InvalidArgumentError
func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidArgumentError creates a new InvalidArgumentError instance
func NewInvalidArgumentError(message string, code string) *InvalidArgumentError {
	return &InvalidArgumentError{
		Message: message,
		Code:    code,
	}
}

func NewInvalidParentError() *InvalidArgumentError {
	return NewInvalidArgumentError("Parent must be a context", "INVALID_PARENT")
}

func NewInvalidDeadlineError() *InvalidArgumentError {
	return NewInvalidArgumentError("Deadline must be a valid timestamp", "INVALID_DEADLINE")
}

func NewInvalidValuesError() *InvalidArgumentError {
	return NewInvalidArgumentError("Values must be a key/value mapping", "INVALID_VALUES")
}

func NewInvalidIdentityError() *InvalidArgumentError {
	return NewInvalidArgumentError(`Attribute "id" must be a string`, "INVALID_IDENTITY")
}

func NewInvalidAttributeError(key string) *InvalidArgumentError {
	return NewInvalidArgumentError(fmt.Sprintf("Invalid value for attribute %q", key), "INVALID_ATTRIBUTE")
}

func NewInvalidPathError() *InvalidArgumentError {
	return NewInvalidArgumentError("Path must be a non-empty string", "INVALID_PATH")
}
