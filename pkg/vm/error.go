package vm

import (
	"fmt"
)

// ErrorType represents the type of runtime error.
type ErrorType string

const (
	// Fatal errors - the invocation stops
	ErrorStackOverflow    ErrorType = "STACK_OVERFLOW"
	ErrorUndefinedFunc    ErrorType = "UNDEFINED_FUNCTION"
	ErrorArgumentMismatch ErrorType = "ARGUMENT_MISMATCH"
	ErrorStepLimit        ErrorType = "STEP_LIMIT"
	ErrorUnmatchedBlock   ErrorType = "UNMATCHED_BLOCK"

	// Non-fatal errors - logged, execution continues
	ErrorUndefinedVar     ErrorType = "UNDEFINED_VARIABLE"
	ErrorInvalidOperation ErrorType = "INVALID_OPERATION"
)

// RuntimeError represents a runtime error raised while executing a script.
type RuntimeError struct {
	Type     ErrorType
	Message  string
	Line     int    // Line number if available, -1 otherwise
	File     string // Script name if available
	Function string // Function being executed if available
}

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	if e.Line >= 0 && e.File != "" {
		return fmt.Sprintf("[%s] %s at %s:%d", e.Type, e.Message, e.File, e.Line)
	}
	if e.Line >= 0 {
		return fmt.Sprintf("[%s] %s at line %d", e.Type, e.Message, e.Line)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// IsFatal returns true if the error is fatal and execution should stop.
func (e *RuntimeError) IsFatal() bool {
	switch e.Type {
	case ErrorStackOverflow, ErrorUndefinedFunc, ErrorArgumentMismatch, ErrorStepLimit, ErrorUnmatchedBlock:
		return true
	default:
		return false
	}
}

// NewRuntimeError creates a new RuntimeError.
func NewRuntimeError(errType ErrorType, message string) *RuntimeError {
	return &RuntimeError{
		Type:    errType,
		Message: message,
		Line:    -1,
	}
}

// NewRuntimeErrorWithLine creates a new RuntimeError with line information.
func NewRuntimeErrorWithLine(errType ErrorType, message string, line int) *RuntimeError {
	return &RuntimeError{
		Type:    errType,
		Message: message,
		Line:    line,
	}
}

// withLocation fills in the location fields that are still empty.
func (e *RuntimeError) withLocation(file, function string, line int) *RuntimeError {
	if e.File == "" {
		e.File = file
	}
	if e.Function == "" {
		e.Function = function
	}
	if e.Line < 0 {
		e.Line = line
	}
	return e
}

// NewUndefinedVariableError creates an undefined variable error.
func NewUndefinedVariableError(name string) *RuntimeError {
	return NewRuntimeError(ErrorUndefinedVar, fmt.Sprintf("undefined variable: %s", name))
}

// NewUndefinedFunctionError creates an undefined function error.
func NewUndefinedFunctionError(name string) *RuntimeError {
	return NewRuntimeError(ErrorUndefinedFunc, fmt.Sprintf("undefined function: %s", name))
}

// NewArgumentMismatchError creates an argument count mismatch error.
func NewArgumentMismatchError(name string, want, got int) *RuntimeError {
	return NewRuntimeError(ErrorArgumentMismatch, fmt.Sprintf("function %s expects %d arguments, got %d", name, want, got))
}

// NewStackOverflowError creates a stack overflow error.
func NewStackOverflowError(depth int) *RuntimeError {
	return NewRuntimeError(ErrorStackOverflow, fmt.Sprintf("stack overflow: depth %d exceeds maximum %d", depth, MaxStackDepth))
}

// NewStepLimitError creates a step budget error.
func NewStepLimitError(limit int) *RuntimeError {
	return NewRuntimeError(ErrorStepLimit, fmt.Sprintf("step limit of %d statements exceeded", limit))
}
