package vm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/zurustar/textgame/pkg/logger"
	"github.com/zurustar/textgame/pkg/script"
	"github.com/zurustar/textgame/pkg/scripting"
)

// StackFrame represents a call stack frame for a user-defined function call.
type StackFrame struct {
	FunctionName string
	Scope        *Scope
	CallLine     int
}

// Execution is the state of one invocation: the global binding table,
// the call stack and the step counter.
type Execution struct {
	ctx       context.Context
	ip        *Interpreter
	script    *script.Asset
	global    *Scope
	callStack []*StackFrame
	steps     int
	warnings  []*RuntimeError
	log       *slog.Logger
}

func newExecution(ctx context.Context, ip *Interpreter, inv scripting.Invocation) *Execution {
	return &Execution{
		ctx:       ctx,
		ip:        ip,
		script:    inv.Script,
		global:    NewScope(nil),
		callStack: make([]*StackFrame, 0, 16),
		log:       logger.WithTag(ip.log, "Interpreter.Execute").With("run_id", inv.RunID, "script", inv.Script.Name),
	}
}

// Context returns the context of the invocation.
func (ex *Execution) Context() context.Context { return ex.ctx }

// Logger returns the logger of the invocation.
func (ex *Execution) Logger() *slog.Logger { return ex.log }

// Output returns the writer used by print.
func (ex *Execution) Output() io.Writer { return ex.ip.out }

// Interpreter returns the interpreter running this execution.
func (ex *Execution) Interpreter() *Interpreter { return ex.ip }

// Global returns the global scope of the invocation.
func (ex *Execution) Global() *Scope { return ex.global }

// Depth returns the current call stack depth.
func (ex *Execution) Depth() int { return len(ex.callStack) }

// Steps returns the number of statements executed so far.
func (ex *Execution) Steps() int { return ex.steps }

// Warnings returns the non-fatal runtime errors raised so far.
func (ex *Execution) Warnings() []*RuntimeError { return ex.warnings }

// call pushes a frame, binds the parameters and runs the function body.
func (ex *Execution) call(fn *script.FunctionDefinition, args []any, line int) (any, error) {
	if len(ex.callStack) >= MaxStackDepth {
		return nil, NewStackOverflowError(len(ex.callStack)+1).withLocation(ex.script.Name, fn.Name, line)
	}
	if len(args) != len(fn.Arguments) {
		return nil, NewArgumentMismatchError(fn.Name, len(fn.Arguments), len(args)).withLocation(ex.script.Name, fn.Name, line)
	}

	scope := NewScope(ex.global)
	for i, name := range fn.Arguments {
		scope.SetLocal(name, args[i])
	}

	ex.callStack = append(ex.callStack, &StackFrame{FunctionName: fn.Name, Scope: scope, CallLine: line})
	defer func() {
		ex.callStack = ex.callStack[:len(ex.callStack)-1]
	}()

	return nil, ex.run(fn, scope)
}

// run walks the control flow of fn with an instruction pointer.
func (ex *Execution) run(fn *script.FunctionDefinition, scope *Scope) error {
	flow := fn.ControlFlow
	for pc := 0; pc < len(flow); pc++ {
		stmt := flow[pc]
		line := stmt.SourceLine()

		if err := ex.ctx.Err(); err != nil {
			return fmt.Errorf("script %s cancelled in %s at line %d: %w", ex.script.Name, fn.Name, line, err)
		}
		ex.steps++
		if limit := ex.ip.maxSteps; limit > 0 && ex.steps > limit {
			return NewStepLimitError(limit).withLocation(ex.script.Name, fn.Name, line)
		}

		var err error
		switch s := stmt.(type) {
		case script.AssignmentStatement:
			err = ex.assign(fn, s, scope)

		case script.ConditionStart:
			var ok bool
			ok, err = EvaluateCondition(s.Body, scope)
			if err != nil {
				// a condition that cannot be evaluated is false
				ok = false
			}
			if !ok {
				end := script.MatchingEnd(flow, pc)
				if end < 0 {
					return NewRuntimeError(ErrorUnmatchedBlock, "condition without matching endif").withLocation(ex.script.Name, fn.Name, line)
				}
				pc = end
			}

		case script.ConditionEnd:
			// end of a taken branch

		case script.CallStatement:
			err = ex.callStatement(s, scope)
		}

		if err := ex.handle(err, fn, line); err != nil {
			return err
		}
	}
	return nil
}

func (ex *Execution) assign(fn *script.FunctionDefinition, stmt script.AssignmentStatement, scope *Scope) error {
	v, ok := fn.Variable(stmt)
	if !ok {
		return NewRuntimeError(ErrorInvalidOperation, fmt.Sprintf("variable index %d out of range", stmt.VariableIndex))
	}
	value, err := EvaluateExpression(v.Value, scope)
	if err != nil {
		return err
	}
	scope.Set(v.Name, value)
	return nil
}

// callStatement evaluates the arguments and dispatches to a user-defined
// function first, then to a builtin. If an argument cannot be evaluated the
// call is skipped.
func (ex *Execution) callStatement(stmt script.CallStatement, scope *Scope) error {
	args := make([]any, len(stmt.Arguments))
	for i, arg := range stmt.Arguments {
		if arg.Quoted {
			args[i] = arg.Value
			continue
		}
		value, err := EvaluateExpression(arg.Value, scope)
		if err != nil {
			return err
		}
		args[i] = value
	}

	if fn, ok := ex.script.Program.Function(stmt.Callee); ok {
		_, err := ex.call(fn, args, stmt.Line)
		return err
	}

	if builtin, ok := ex.ip.builtins[stmt.Callee]; ok {
		if _, err := builtin(ex, args); err != nil {
			var rerr *RuntimeError
			if errors.As(err, &rerr) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			return NewRuntimeError(ErrorInvalidOperation, fmt.Sprintf("%s: %v", stmt.Callee, err))
		}
		return nil
	}

	return NewUndefinedFunctionError(stmt.Callee)
}

// handle logs non-fatal runtime errors and returns fatal ones.
func (ex *Execution) handle(err error, fn *script.FunctionDefinition, line int) error {
	if err == nil {
		return nil
	}

	var rerr *RuntimeError
	if !errors.As(err, &rerr) {
		return err
	}
	rerr.withLocation(ex.script.Name, fn.Name, line)
	if rerr.IsFatal() {
		return err
	}

	ex.warnings = append(ex.warnings, rerr)
	ex.log.Warn("Runtime error", "type", string(rerr.Type), "function", rerr.Function, "line", rerr.Line, "error", rerr.Message)
	return nil
}
