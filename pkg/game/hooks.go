package game

import (
	"context"
	"errors"
	"fmt"

	"github.com/zurustar/textgame/pkg/asset"
	"github.com/zurustar/textgame/pkg/fileutil"
	"github.com/zurustar/textgame/pkg/scripting"
	"github.com/zurustar/textgame/pkg/vm"
)

// MaxNestedScripts はStartScriptで入れ子に起動できるスクリプトの深さ
const MaxNestedScripts = 16

// errNoRuntime はStarterにRuntimeが設定されていないことを示す
var errNoRuntime = errors.New("script starter is not attached to a runtime")

// EntityByName はアクティブなシーンのエンティティを名前で探す
func (ld *Loaded) EntityByName(name string) (uint64, bool) {
	sc, ok := ld.Scenes.ActiveScene()
	if !ok {
		return 0, false
	}
	for _, ent := range sc.Entities {
		if ent.Name == name {
			return ent.ID, true
		}
	}
	return 0, false
}

// Starter はスクリプトからのStartScriptをRuntimeへ中継する
type Starter struct {
	game    *Loaded
	runtime *scripting.Runtime
	depth   int
}

// NewStarter はStarterを作成する
// RuntimeはInterpreterの生成後にAttachで設定する
func NewStarter(ld *Loaded) *Starter {
	return &Starter{game: ld}
}

// Attach はスクリプトを実行するRuntimeを設定する
func (s *Starter) Attach(rt *scripting.Runtime) {
	s.runtime = rt
}

// StartScript は登録済みのスクリプト（無ければ新たに読み込んだもの）のmainを実行する
func (s *Starter) StartScript(ctx context.Context, p string) error {
	if s.runtime == nil {
		return errNoRuntime
	}
	if s.depth >= MaxNestedScripts {
		return fmt.Errorf("too many nested scripts (limit %d) while starting %s", MaxNestedScripts, p)
	}

	a, ok := s.game.Script(p)
	if !ok {
		var err error
		if a, err = s.game.loadScript(p); err != nil {
			return err
		}
	}

	s.depth++
	defer func() { s.depth-- }()

	if !s.runtime.RunScript(ctx, a, "") {
		return fmt.Errorf("failed to start %s: %s", p, s.runtime.LastError())
	}
	return nil
}

// InstallBuiltins はゲームのアセットを参照する組み込み関数を登録する
func (ld *Loaded) InstallBuiltins(ip *vm.Interpreter) {
	ip.RegisterBuiltin("ShowText", ld.builtinShowText)
}

// ShowText(file, key) はテキストアセットの値を出力する
func (ld *Loaded) builtinShowText(ex *vm.Execution, args []any) (any, error) {
	if len(args) != 2 {
		return nil, vm.NewArgumentMismatchError("ShowText", 2, len(args))
	}
	file, ok1 := args[0].(string)
	key, ok2 := args[1].(string)
	if !ok1 || !ok2 {
		return nil, fmt.Errorf("ShowText expects (string, string), got (%T, %T)", args[0], args[1])
	}

	p := fileutil.CleanPath(file)
	if ref, err := asset.ParseRef(file); err == nil && ref.Kind == asset.KindText {
		p = ref.Path
	}

	t, ok := ld.Library.Text(p)
	if !ok {
		ex.Logger().Warn("Text asset is not loaded", "file", file)
		return nil, nil
	}
	v, ok := t.Value(key)
	if !ok {
		ex.Logger().Warn("Text key not found", "file", file, "key", key)
		return nil, nil
	}
	_, err := fmt.Fprintln(ex.Output(), v)
	return nil, err
}

var (
	_ vm.EntityLookup  = (*Loaded)(nil)
	_ vm.ScriptStarter = (*Starter)(nil)
)
