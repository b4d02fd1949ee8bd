package scripting

import (
	"context"
	"errors"

	"github.com/zurustar/textgame/pkg/script"
)

// ErrExecutionUnsupported is returned by executors that only walk the
// control flow and do not execute statements.
var ErrExecutionUnsupported = errors.New("statement execution is not supported")

// Invocation describes one function run handed to a StatementExecutor.
type Invocation struct {
	RunID    string
	Script   *script.Asset
	Function *script.FunctionDefinition
	Args     []any
}

// StatementExecutor executes the control flow of a script function.
// Implementations must not modify the Program.
type StatementExecutor interface {
	Execute(ctx context.Context, inv Invocation) error
}

// TraceExecutor is the default executor. The control flow has already been
// logged by the runtime, so it only reports that nothing was executed.
type TraceExecutor struct{}

// Execute always returns ErrExecutionUnsupported.
func (TraceExecutor) Execute(ctx context.Context, inv Invocation) error {
	return ErrExecutionUnsupported
}

// ExecutorFunc adapts a function to the StatementExecutor interface.
type ExecutorFunc func(ctx context.Context, inv Invocation) error

// Execute calls f(ctx, inv).
func (f ExecutorFunc) Execute(ctx context.Context, inv Invocation) error {
	return f(ctx, inv)
}
