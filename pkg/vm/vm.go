// Package vm provides the statement interpreter for parsed scripts.
// It implements the execution model of the script runtime:
// - per-invocation binding tables (the Program is never modified)
// - call frames for user-defined functions
// - conditional skip regions
// - built-in function registry
// - step budget and context cancellation
package vm

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/zurustar/textgame/pkg/logger"
	"github.com/zurustar/textgame/pkg/scripting"
)

// MaxStackDepth is the maximum call stack depth before stack overflow.
const MaxStackDepth = 1000

// BuiltinFunc is the signature for built-in functions.
// Built-in functions receive the running execution and the evaluated arguments.
type BuiltinFunc func(ex *Execution, args []any) (any, error)

// EntityLookup resolves scene entities by name.
type EntityLookup interface {
	EntityByName(name string) (uint64, bool)
}

// ScriptStarter starts another script asset by path.
type ScriptStarter interface {
	StartScript(ctx context.Context, path string) error
}

// Interpreter executes the control flow of script functions.
// It holds configuration and builtins only; all execution state lives in
// an Execution created per invocation.
type Interpreter struct {
	builtins map[string]BuiltinFunc
	entities EntityLookup
	starter  ScriptStarter
	out      io.Writer
	maxSteps int
	log      *slog.Logger
}

// Option is a functional option for configuring the Interpreter.
type Option func(*Interpreter)

// WithLogger sets a custom logger.
func WithLogger(log *slog.Logger) Option {
	return func(ip *Interpreter) {
		ip.log = log
	}
}

// WithMaxSteps limits the number of statements one invocation may execute.
// Zero or a negative value means no limit.
func WithMaxSteps(n int) Option {
	return func(ip *Interpreter) {
		ip.maxSteps = n
	}
}

// WithEntityLookup sets the entity resolver used by GetEntityByName.
func WithEntityLookup(l EntityLookup) Option {
	return func(ip *Interpreter) {
		ip.entities = l
	}
}

// WithScriptStarter sets the handler used by StartScript.
func WithScriptStarter(s ScriptStarter) Option {
	return func(ip *Interpreter) {
		ip.starter = s
	}
}

// WithOutput sets the writer used by print. The default is os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(ip *Interpreter) {
		ip.out = w
	}
}

// New creates a new Interpreter with the default builtins registered.
func New(opts ...Option) *Interpreter {
	ip := &Interpreter{
		builtins: make(map[string]BuiltinFunc),
		out:      os.Stdout,
		log:      logger.GetLogger(),
	}
	for _, opt := range opts {
		opt(ip)
	}
	ip.registerDefaultBuiltins()
	return ip
}

// RegisterBuiltin registers a built-in function. An existing builtin with the
// same name is replaced. User-defined functions take precedence over builtins.
func (ip *Interpreter) RegisterBuiltin(name string, fn BuiltinFunc) {
	ip.builtins[name] = fn
}

// Builtin returns the builtin registered under name.
func (ip *Interpreter) Builtin(name string) (BuiltinFunc, bool) {
	fn, ok := ip.builtins[name]
	return fn, ok
}

// Execute runs the invocation's function to completion.
// Non-fatal runtime errors are logged and execution continues; a fatal
// runtime error or context cancellation ends the invocation and is returned.
func (ip *Interpreter) Execute(ctx context.Context, inv scripting.Invocation) error {
	ex := newExecution(ctx, ip, inv)
	_, err := ex.call(inv.Function, inv.Args, inv.Function.Line)
	if err != nil {
		ex.log.Error("Script execution aborted", "error", err)
		return err
	}
	ex.log.Debug("Script execution finished", "steps", ex.steps, "warnings", len(ex.warnings))
	return nil
}

var _ scripting.StatementExecutor = (*Interpreter)(nil)
