package vm

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// EntityHandleUndefined is returned by GetEntityByName when no entity matches.
const EntityHandleUndefined int64 = -1

// errNoScriptStarter is returned by StartScript when no starter is configured.
var errNoScriptStarter = errors.New("no script starter is configured")

func (ip *Interpreter) registerDefaultBuiltins() {
	ip.RegisterBuiltin("print", builtinPrint)
	ip.RegisterBuiltin("log", builtinLog)
	ip.RegisterBuiltin("GetEntityByName", builtinGetEntityByName)
	ip.RegisterBuiltin("FadeIn", builtinFade("in"))
	ip.RegisterBuiltin("FadeOut", builtinFade("out"))
	ip.RegisterBuiltin("StartScript", builtinStartScript)
}

func joinArgs(args []any) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = toString(a)
	}
	return strings.Join(parts, " ")
}

// print(args...) writes its arguments separated by spaces.
func builtinPrint(ex *Execution, args []any) (any, error) {
	_, err := fmt.Fprintln(ex.ip.out, joinArgs(args))
	return nil, err
}

// log(args...) writes its arguments to the log at INFO.
func builtinLog(ex *Execution, args []any) (any, error) {
	ex.log.Info(joinArgs(args))
	return nil, nil
}

// GetEntityByName(name) returns the entity id, or EntityHandleUndefined.
func builtinGetEntityByName(ex *Execution, args []any) (any, error) {
	if len(args) != 1 {
		return nil, NewArgumentMismatchError("GetEntityByName", 1, len(args))
	}
	name, ok := args[0].(string)
	if !ok {
		return nil, fmt.Errorf("entity name must be a string, got %s", typeName(args[0]))
	}
	if name == "" || ex.ip.entities == nil {
		return EntityHandleUndefined, nil
	}

	id, found := ex.ip.entities.EntityByName(name)
	if !found {
		ex.log.Debug("Entity not found", "name", name)
		return EntityHandleUndefined, nil
	}
	return int64(id), nil
}

// FadeIn(ms) / FadeOut(ms). Rendering is not part of the interpreter, so the
// request is only validated and logged.
func builtinFade(direction string) BuiltinFunc {
	name := "FadeIn"
	if direction == "out" {
		name = "FadeOut"
	}
	return func(ex *Execution, args []any) (any, error) {
		if len(args) != 1 {
			return nil, NewArgumentMismatchError(name, 1, len(args))
		}
		ms, ok := toInt64(args[0])
		if !ok || ms < 0 {
			return nil, fmt.Errorf("duration must be a non-negative number, got %v", args[0])
		}
		d := time.Duration(ms) * time.Millisecond
		ex.log.Debug("Fade requested", "direction", direction, "duration", d)
		return d, nil
	}
}

// StartScript(path) asks the configured ScriptStarter to run another script.
func builtinStartScript(ex *Execution, args []any) (any, error) {
	if len(args) != 1 {
		return nil, NewArgumentMismatchError("StartScript", 1, len(args))
	}
	path, ok := args[0].(string)
	if !ok || path == "" {
		return nil, fmt.Errorf("script path must be a non-empty string, got %v", args[0])
	}
	if ex.ip.starter == nil {
		return nil, errNoScriptStarter
	}
	return nil, ex.ip.starter.StartScript(ex.ctx, path)
}
