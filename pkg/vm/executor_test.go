package vm

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/zurustar/textgame/pkg/logger"
	"github.com/zurustar/textgame/pkg/script"
	"github.com/zurustar/textgame/pkg/scripting"
)

func parseScript(t *testing.T, src string) *script.Asset {
	t.Helper()
	a := script.Parse("test.script", []byte(src), script.WithLogger(logger.Discard()))
	if a.ErrorCount != 0 {
		t.Fatalf("script has %d errors: %v", a.ErrorCount, a.Errors)
	}
	return a
}

func invoke(t *testing.T, ip *Interpreter, a *script.Asset, function string, args ...any) error {
	t.Helper()
	fn, ok := a.Program.Function(function)
	if !ok {
		t.Fatalf("function %s not found", function)
	}
	return ip.Execute(context.Background(), scripting.Invocation{RunID: "test", Script: a, Function: fn, Args: args})
}

func newTestInterpreter(opts ...Option) (*Interpreter, *bytes.Buffer) {
	var out bytes.Buffer
	opts = append([]Option{WithLogger(logger.Discard()), WithOutput(&out)}, opts...)
	return New(opts...), &out
}

func runtimeErrorType(err error) ErrorType {
	var rerr *RuntimeError
	if errors.As(err, &rerr) {
		return rerr.Type
	}
	return ""
}

func TestExecute_AssignmentsAndCalls(t *testing.T) {
	a := parseScript(t, `function main()
{
greeting = "hello, world"
greet(greeting, 2)
}
function greet(text, times)
{
print(text, times)
}
`)
	ip, out := newTestInterpreter()

	if err := invoke(t, ip, a, "main"); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if got := out.String(); got != "hello, world 2\n" {
		t.Errorf("output = %q", got)
	}
}

func TestExecute_ConditionSkipRegions(t *testing.T) {
	a := parseScript(t, `function main()
{
x = 5
if (x == 5)
print("taken")
if (x > 10)
print("nested skipped")
endif
print("after nested")
endif
if (x != 5)
print("skipped")
if (x == 5)
print("inner of skipped")
endif
endif
print("done")
}
`)
	ip, out := newTestInterpreter()

	if err := invoke(t, ip, a, "main"); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	want := "taken\nafter nested\ndone\n"
	if got := out.String(); got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestExecute_UserFunctionsShadowBuiltins(t *testing.T) {
	a := parseScript(t, `function main()
{
print("from main")
}
function print(text)
{
log(text)
}
`)
	ip, out := newTestInterpreter()

	if err := invoke(t, ip, a, "main"); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if out.Len() != 0 {
		t.Errorf("builtin print was called: %q", out.String())
	}
}

func TestExecute_ParametersAreLocal(t *testing.T) {
	a := parseScript(t, `function main()
{
value = "outer"
change(value)
print(value)
}
function change(value)
{
value = "inner"
}
`)
	ip, out := newTestInterpreter()

	if err := invoke(t, ip, a, "main"); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if got := out.String(); got != "outer\n" {
		t.Errorf("output = %q, want %q", got, "outer\n")
	}
}

func TestExecute_FatalErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want ErrorType
	}{
		{"undefined function", "function main()\n{\nmissing()\n}\n", ErrorUndefinedFunc},
		{"argument mismatch", "function main()\n{\nf(1, 2)\n}\nfunction f(a)\n{\n}\n", ErrorArgumentMismatch},
		{"stack overflow", "function main()\n{\nmain()\n}\n", ErrorStackOverflow},
		{"builtin arity", "function main()\n{\nFadeIn()\n}\n", ErrorArgumentMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ip, _ := newTestInterpreter()
			err := invoke(t, ip, parseScript(t, tt.src), "main")
			if got := runtimeErrorType(err); got != tt.want {
				t.Errorf("error = %v, want %s", err, tt.want)
			}
		})
	}
}

func TestExecute_UndefinedFunctionLocation(t *testing.T) {
	ip, _ := newTestInterpreter()
	err := invoke(t, ip, parseScript(t, "function main()\n{\nhelper()\n}\nfunction helper()\n{\n\nmissing()\n}\n"), "main")

	var rerr *RuntimeError
	if !errors.As(err, &rerr) {
		t.Fatalf("expected RuntimeError, got %v", err)
	}
	if rerr.Function != "helper" || rerr.Line != 8 || rerr.File != "test.script" {
		t.Errorf("unexpected location: %s line %d in %s", rerr.Function, rerr.Line, rerr.File)
	}
}

func TestExecute_NonFatalErrorsContinue(t *testing.T) {
	a := parseScript(t, `function main()
{
x = unknown
print(unknown)
if (x == 1)
print("skipped")
endif
y = 1 + 2
print("still running")
}
`)
	ip, out := newTestInterpreter()

	if err := invoke(t, ip, a, "main"); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if got := out.String(); got != "still running\n" {
		t.Errorf("output = %q", got)
	}
}

func TestExecute_StepLimit(t *testing.T) {
	a := parseScript(t, "function main()\n{\na = 1\nb = 2\nc = 3\n}\n")

	ip, _ := newTestInterpreter(WithMaxSteps(2))
	if got := runtimeErrorType(invoke(t, ip, a, "main")); got != ErrorStepLimit {
		t.Errorf("expected STEP_LIMIT, got %q", got)
	}

	ip, _ = newTestInterpreter(WithMaxSteps(3))
	if err := invoke(t, ip, a, "main"); err != nil {
		t.Errorf("unexpected error with enough steps: %v", err)
	}
}

func TestExecute_Cancellation(t *testing.T) {
	a := parseScript(t, "function main()\n{\nprint(\"never\")\n}\n")
	fn, _ := a.Program.Function("main")
	ip, out := newTestInterpreter()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := ip.Execute(ctx, scripting.Invocation{Script: a, Function: fn})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if out.Len() != 0 {
		t.Errorf("statement ran after cancellation: %q", out.String())
	}
}

func TestExecute_DoesNotModifyProgram(t *testing.T) {
	a := parseScript(t, "function main()\n{\nx = 1\nx = 2\nprint(x)\n}\n")
	fn, _ := a.Program.Function("main")
	before := len(fn.Variables)
	ip, _ := newTestInterpreter()

	for i := 0; i < 3; i++ {
		if err := invoke(t, ip, a, "main"); err != nil {
			t.Fatalf("Execute() error: %v", err)
		}
	}
	if len(fn.Variables) != before || fn.Variables[1].Value != "2" {
		t.Errorf("program changed: %+v", fn.Variables)
	}
}

func TestExecute_WithRuntime(t *testing.T) {
	a := parseScript(t, "function main()\n{\nprint(\"via runtime\")\n}\nfunction update(delta)\n{\nif (delta > 0)\nprint(\"tick\")\nendif\n}\n")
	ip, out := newTestInterpreter()
	rt := scripting.New(nil, scripting.WithLogger(logger.Discard()), scripting.WithExecutor(ip))

	if !rt.RunScript(context.Background(), a, "") {
		t.Fatalf("RunScript() failed: %s", rt.LastError())
	}
	if rt.RunScript(context.Background(), a, "update") {
		t.Error("update without its argument should fail")
	}
	if !strings.Contains(rt.LastError(), "ARGUMENT_MISMATCH") {
		t.Errorf("LastError() = %q", rt.LastError())
	}
	if out.String() != "via runtime\n" {
		t.Errorf("output = %q", out.String())
	}
}
