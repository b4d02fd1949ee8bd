package scripting

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/zurustar/textgame/pkg/logger"
	"github.com/zurustar/textgame/pkg/scene"
	"github.com/zurustar/textgame/pkg/script"
)

func newCaptureLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})), &buf
}

func parse(t *testing.T, name, src string) *script.Asset {
	t.Helper()
	a := script.Parse(name, []byte(src), script.WithLogger(logger.Discard()))
	if a.ErrorCount != 0 {
		t.Fatalf("script %s has %d errors: %v", name, a.ErrorCount, a.Errors)
	}
	return a
}

func registryWith(t *testing.T, scripts ...*script.Asset) *scene.Registry {
	t.Helper()
	s := &scene.Scene{Name: "intro"}
	for _, a := range scripts {
		s.Scripts = append(s.Scripts, &scene.ScriptReference{Source: a.Name, Script: a})
	}
	r := scene.NewRegistry()
	r.Add(s)
	if err := r.SetActive("intro"); err != nil {
		t.Fatalf("SetActive: %v", err)
	}
	return r
}

const mainScript = `function main()
{
greet("world")
x = 5
if (x == 5)
greet("five")
endif
}
function greet(who)
{
}
`

// staleSource reports an active scene that was never loaded.
type staleSource struct{}

func (staleSource) ActiveSceneName() string                { return "ghost" }
func (staleSource) Scene(name string) (*scene.Scene, bool) { return nil, false }

func TestStart_NoActiveScene(t *testing.T) {
	log, buf := newCaptureLogger()
	rt := New(scene.NewRegistry(), WithLogger(log))

	if rt.Start(context.Background()) {
		t.Fatal("Start() should fail without an active scene")
	}
	if !strings.Contains(buf.String(), "requires an active scene") {
		t.Errorf("expected error log, got:\n%s", buf.String())
	}
}

func TestStart_ActiveSceneNotLoaded(t *testing.T) {
	log, buf := newCaptureLogger()
	rt := New(staleSource{}, WithLogger(log))

	if rt.Start(context.Background()) {
		t.Fatal("Start() should fail when the active scene is not loaded")
	}
	if !strings.Contains(buf.String(), "not in loaded scenes list") {
		t.Errorf("expected error log, got:\n%s", buf.String())
	}
}

func TestStart_SceneWithoutScripts(t *testing.T) {
	log, buf := newCaptureLogger()
	rt := New(registryWith(t), WithLogger(log))

	if !rt.Start(context.Background()) {
		t.Fatal("Start() should succeed for a scene without scripts")
	}
	if !strings.Contains(buf.String(), "Scene 'intro' has no scripts.") {
		t.Errorf("expected trace log, got:\n%s", buf.String())
	}
}

func TestStart_ContinuesAfterFailingScript(t *testing.T) {
	empty := parse(t, "empty.script", "")
	main := parse(t, "main.script", mainScript)

	log, buf := newCaptureLogger()
	rt := New(registryWith(t, empty, main), WithLogger(log))

	if !rt.Start(context.Background()) {
		t.Fatal("Start() should return true even if a script fails")
	}

	out := buf.String()
	for _, want := range []string{
		"failed to run script's 'empty.script' main function in scene 'intro'",
		"Script 'empty.script' has no functions!",
		"Script 'main.script' control flow",
		"#0, Type: FUNCTION_CALL",
		"#1, Type: VARIABLE_ASSIGNMENT",
		"#2, Type: CONDITION_START",
		"#3, Type: FUNCTION_CALL",
		"#4, Type: CONDITION_END",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("log does not contain %q:\n%s", want, out)
		}
	}
	if got := rt.Started(); len(got) != 2 {
		t.Errorf("Started() = %v", got)
	}
}

func TestStart_SkipsUnregisteredScripts(t *testing.T) {
	reg := scene.NewRegistry()
	reg.Add(&scene.Scene{Name: "intro", Scripts: []*scene.ScriptReference{{Source: "broken.script"}}})
	if err := reg.SetActive("intro"); err != nil {
		t.Fatal(err)
	}

	log, buf := newCaptureLogger()
	rt := New(reg, WithLogger(log))
	if !rt.Start(context.Background()) {
		t.Fatal("Start() should succeed")
	}
	if !strings.Contains(buf.String(), "Script 'broken.script' is not registered") {
		t.Errorf("expected error log, got:\n%s", buf.String())
	}
	if len(rt.Started()) != 0 {
		t.Errorf("Started() = %v", rt.Started())
	}
}

func TestRunScript_Resolution(t *testing.T) {
	main := parse(t, "main.script", mainScript)
	rt := New(scene.NewRegistry(), WithLogger(logger.Discard()))
	ctx := context.Background()

	if rt.RunScript(ctx, main, "missing") {
		t.Error("RunScript(missing) should fail")
	}
	if rt.LastError() != "Function 'missing' was not found." {
		t.Errorf("LastError() = %q", rt.LastError())
	}

	if rt.RunScript(ctx, parse(t, "none.script", "// nothing\n"), "") {
		t.Error("RunScript on a script without functions should fail")
	}
	if rt.LastError() != "Script 'none.script' has no functions!" {
		t.Errorf("LastError() = %q", rt.LastError())
	}

	// 解決はできるが既定の実行器は実行しない
	if rt.RunScript(ctx, main, "") {
		t.Error("RunScript with TraceExecutor should return false")
	}
	if rt.LastError() != "" {
		t.Errorf("LastError() = %q, want empty", rt.LastError())
	}
}

func TestRunScript_Executor(t *testing.T) {
	main := parse(t, "main.script", mainScript)

	var got []Invocation
	exec := ExecutorFunc(func(ctx context.Context, inv Invocation) error {
		got = append(got, inv)
		return nil
	})
	rt := New(scene.NewRegistry(), WithLogger(logger.Discard()), WithExecutor(exec))

	if !rt.RunScript(context.Background(), main, "") {
		t.Fatalf("RunScript() failed: %s", rt.LastError())
	}
	if !rt.RunScript(context.Background(), main, "greet") {
		t.Fatalf("RunScript(greet) failed: %s", rt.LastError())
	}

	if len(got) != 2 {
		t.Fatalf("expected 2 invocations, got %d", len(got))
	}
	if got[0].Function.Name != "main" || got[1].Function.Name != "greet" {
		t.Errorf("unexpected functions: %s, %s", got[0].Function.Name, got[1].Function.Name)
	}
	if _, err := uuid.Parse(got[0].RunID); err != nil {
		t.Errorf("RunID %q is not a uuid: %v", got[0].RunID, err)
	}
	if got[0].RunID == got[1].RunID {
		t.Error("each run should get its own RunID")
	}
}

func TestRunScript_ExecutorError(t *testing.T) {
	main := parse(t, "main.script", mainScript)
	exec := ExecutorFunc(func(ctx context.Context, inv Invocation) error {
		return errors.New("undefined function: greet")
	})
	rt := New(scene.NewRegistry(), WithLogger(logger.Discard()), WithExecutor(exec))

	if rt.RunScript(context.Background(), main, "main") {
		t.Fatal("RunScript() should fail")
	}
	if rt.LastError() != "undefined function: greet" {
		t.Errorf("LastError() = %q", rt.LastError())
	}
}

func TestUpdate(t *testing.T) {
	withUpdate := parse(t, "a.script", "function main()\n{\n}\nfunction update(delta)\n{\n}\n")
	withoutUpdate := parse(t, "b.script", "function main()\n{\n}\n")

	var calls []Invocation
	exec := ExecutorFunc(func(ctx context.Context, inv Invocation) error {
		calls = append(calls, inv)
		return nil
	})
	rt := New(registryWith(t, withUpdate, withoutUpdate), WithLogger(logger.Discard()), WithExecutor(exec))

	// 開始前は何もしない
	rt.Update(context.Background(), time.Second)
	if len(calls) != 0 {
		t.Fatalf("Update before Start made %d calls", len(calls))
	}

	if !rt.Start(context.Background()) {
		t.Fatal("Start() failed")
	}
	calls = nil

	rt.Update(context.Background(), 500*time.Millisecond)
	if len(calls) != 1 {
		t.Fatalf("expected 1 update call, got %d", len(calls))
	}
	if calls[0].Function.Name != "update" || len(calls[0].Args) != 1 || calls[0].Args[0] != 0.5 {
		t.Errorf("unexpected update invocation: %+v", calls[0])
	}

	rt.Stop()
	rt.Update(context.Background(), time.Second)
	if len(calls) != 1 {
		t.Errorf("Update after Stop made calls: %d", len(calls))
	}
}

func TestUpdate_TraceExecutorIsNoop(t *testing.T) {
	withUpdate := parse(t, "a.script", "function main()\n{\n}\nfunction update(delta)\n{\n}\n")
	log, buf := newCaptureLogger()
	rt := New(registryWith(t, withUpdate), WithLogger(log))

	rt.Start(context.Background())
	buf.Reset()
	rt.Update(context.Background(), time.Second)
	if buf.Len() != 0 {
		t.Errorf("Update with TraceExecutor logged:\n%s", buf.String())
	}

	rt.Stop()
	if !strings.Contains(buf.String(), "Runtime has stopped.") {
		t.Errorf("expected stop log, got:\n%s", buf.String())
	}
}
