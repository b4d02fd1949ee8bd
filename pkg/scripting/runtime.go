// Package scripting runs the scripts of the active scene.
//
// The runtime selects the active scene, locates its registered scripts and
// runs each script's entry function by walking its control flow. Statement
// execution is delegated to a StatementExecutor; the default TraceExecutor
// only logs the control flow.
package scripting

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/zurustar/textgame/pkg/logger"
	"github.com/zurustar/textgame/pkg/scene"
	"github.com/zurustar/textgame/pkg/script"
)

// UpdateFunction is called once per frame for every started script that
// defines it.
const UpdateFunction = "update"

// SceneSource provides the loaded scenes and the active scene name.
// *scene.Registry satisfies it.
type SceneSource interface {
	ActiveSceneName() string
	Scene(name string) (*scene.Scene, bool)
}

// Runtime runs the scripts of the active scene.
type Runtime struct {
	scenes    SceneSource
	exec      StatementExecutor
	log       *slog.Logger
	lastError string

	// scripts whose entry function was run by Start
	started []*script.Asset
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithLogger sets a custom logger.
func WithLogger(log *slog.Logger) Option {
	return func(r *Runtime) {
		r.log = log
	}
}

// WithExecutor sets the statement executor. The default is TraceExecutor.
func WithExecutor(exec StatementExecutor) Option {
	return func(r *Runtime) {
		r.exec = exec
	}
}

// New creates a runtime reading scenes from scenes.
func New(scenes SceneSource, opts ...Option) *Runtime {
	r := &Runtime{
		scenes: scenes,
		exec:   TraceExecutor{},
		log:    logger.GetLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// LastError returns the description of the last resolution or execution
// failure of RunScript, or "" if the last run did not record one.
func (r *Runtime) LastError() string {
	return r.lastError
}

// Start runs the entry function of every registered script of the active
// scene. It returns false only when there is no usable active scene; script
// failures are logged and do not stop the remaining scripts.
func (r *Runtime) Start(ctx context.Context) bool {
	log := logger.WithTag(r.log, "Runtime.Start")

	name := r.scenes.ActiveSceneName()
	if name == "" {
		log.Error("Script engine requires an active scene to be present.")
		return false
	}

	s, ok := r.scenes.Scene(name)
	if !ok {
		log.Error("Active scene is not in loaded scenes list!", "scene", name)
		return false
	}

	r.started = r.started[:0]
	if len(s.Scripts) == 0 {
		log.Debug(fmt.Sprintf("Scene '%s' has no scripts.", s.Name))
		return true
	}

	for _, ref := range s.Scripts {
		if !ref.Loaded() {
			log.Error(fmt.Sprintf("Script '%s' is not registered in scene '%s'.", ref.Source, s.Name))
			continue
		}

		r.started = append(r.started, ref.Script)
		if !r.RunScript(ctx, ref.Script, script.EntryFunction) {
			log.Error(fmt.Sprintf("Script Runtime Error: failed to run script's '%s' main function in scene '%s'.", ref.Script.Name, s.Name))
			if r.lastError != "" {
				log.Error("Script Runtime Error Description: " + r.lastError)
			}
		}
	}

	return true
}

// RunScript runs functionName of the given script, or the entry function
// when functionName is empty.
func (r *Runtime) RunScript(ctx context.Context, asset *script.Asset, functionName string) bool {
	return r.run(ctx, asset, functionName, nil)
}

func (r *Runtime) run(ctx context.Context, asset *script.Asset, functionName string, args []any) bool {
	if functionName == "" {
		functionName = script.EntryFunction
	}
	r.lastError = ""

	if asset == nil || asset.Program == nil || asset.Program.Len() == 0 {
		name := ""
		if asset != nil {
			name = asset.Name
		}
		r.lastError = fmt.Sprintf("Script '%s' has no functions!", name)
		return false
	}

	fn, ok := asset.Program.Function(functionName)
	if !ok {
		r.lastError = fmt.Sprintf("Function '%s' was not found.", functionName)
		return false
	}

	runID := uuid.NewString()
	log := logger.WithTag(r.log, "Runtime.RunScript").With("run_id", runID, "script", asset.Name)

	log.Debug(fmt.Sprintf("Script '%s' control flow: ", asset.Name), "function", fn.Name)
	for i, stmt := range fn.ControlFlow {
		log.Debug(fmt.Sprintf("#%d, Type: %s", i, stmt.Kind()), "line", stmt.SourceLine())
	}

	err := r.exec.Execute(ctx, Invocation{
		RunID:    runID,
		Script:   asset,
		Function: fn,
		Args:     args,
	})
	if err != nil {
		if !errors.Is(err, ErrExecutionUnsupported) {
			r.lastError = err.Error()
		}
		log.Debug("Function was not executed", "function", fn.Name, "error", err)
		return false
	}
	return true
}

// Update runs the update function of every started script, passing the
// frame delta in seconds. It does nothing with the TraceExecutor.
func (r *Runtime) Update(ctx context.Context, delta time.Duration) {
	if _, trace := r.exec.(TraceExecutor); trace {
		return
	}

	log := logger.WithTag(r.log, "Runtime.Update")
	for _, s := range r.started {
		fn, ok := s.Program.Function(UpdateFunction)
		if !ok {
			continue
		}
		var args []any
		if len(fn.Arguments) > 0 {
			args = []any{delta.Seconds()}
		}
		if !r.run(ctx, s, UpdateFunction, args) && r.lastError != "" {
			log.Error("Script Runtime Error: "+r.lastError, "script", s.Name)
		}
	}
}

// Stop ends the run. Started scripts are forgotten.
func (r *Runtime) Stop() {
	r.started = nil
	logger.WithTag(r.log, "Runtime.Stop").Debug("Runtime has stopped.")
}

// Started returns the names of the scripts started by the last Start.
func (r *Runtime) Started() []string {
	names := make([]string, 0, len(r.started))
	for _, s := range r.started {
		names = append(names, s.Name)
	}
	return names
}
