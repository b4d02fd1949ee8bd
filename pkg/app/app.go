package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/zurustar/textgame/pkg/cli"
	"github.com/zurustar/textgame/pkg/config"
	"github.com/zurustar/textgame/pkg/fileutil"
	"github.com/zurustar/textgame/pkg/game"
	"github.com/zurustar/textgame/pkg/logger"
	"github.com/zurustar/textgame/pkg/scripting"
	"github.com/zurustar/textgame/pkg/vm"
)

// Application はアプリケーションのメインロジックを管理する
type Application struct {
	config   *cli.Config
	settings config.Settings
	log      *slog.Logger
	gameReg  *game.Registry
	embedFS  fs.FS
	out      io.Writer // print・ヘルプの出力先
	logOut   io.Writer // コンソールログの出力先
}

// Option はApplicationのオプション
type Option func(*Application)

// WithOutput はスクリプトの出力先を設定する
func WithOutput(w io.Writer) Option {
	return func(app *Application) {
		app.out = w
	}
}

// WithLogOutput はコンソールログの出力先を設定する
func WithLogOutput(w io.Writer) Option {
	return func(app *Application) {
		app.logOut = w
	}
}

// New Applicationを作成
func New(embedFS fs.FS, opts ...Option) *Application {
	app := &Application{
		embedFS: embedFS,
		out:     os.Stdout,
		logOut:  os.Stdout,
	}
	for _, opt := range opts {
		opt(app)
	}
	return app
}

// Run アプリケーションを実行
// ctxがキャンセルされるとフレームループを終了して正常終了する
func (app *Application) Run(ctx context.Context, args []string) error {
	// 1. コマンドライン引数の解析
	cfg, err := cli.ParseArgs(args)
	if err != nil {
		return fmt.Errorf("failed to parse args: %w", err)
	}
	app.config = cfg

	if app.config.ShowHelp {
		cli.PrintHelp(app.out)
		return nil
	}

	// 2. ゲームの選択
	selected, err := app.selectGame()
	if err != nil {
		return fmt.Errorf("failed to select game: %w", err)
	}
	fsys, err := app.gameReg.Open(selected)
	if err != nil {
		return fmt.Errorf("failed to open game: %w", err)
	}

	// 3. 設定ファイルの読み込み
	if err := app.loadSettings(fsys); err != nil {
		return err
	}

	// 4. ロガーの初期化
	if err := app.initLogger(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	app.log.Info("Application started", "game", selected.Name, "path", selected.Path, "embedded", selected.IsEmbedded)

	// 5. シーン・スクリプト・アセットの読み込み
	loaded, err := game.Load(ctx, fsys, app.settings, game.WithLogger(app.log))
	if err != nil {
		return fmt.Errorf("failed to load game: %w", err)
	}

	// 6. スクリプトの実行
	rt := app.newRuntime(loaded)
	if !rt.Start(ctx) {
		return fmt.Errorf("failed to start scripts in scene %q", loaded.Scenes.ActiveSceneName())
	}
	app.log.Info("Scripts started", "scene", loaded.Scenes.ActiveSceneName(), "scripts", rt.Started())

	// 7. フレームループ
	app.runFrames(ctx, rt)
	rt.Stop()

	app.log.Info("Application terminated normally")
	return nil
}

// selectGame 外部ディレクトリまたは組み込みゲームを選択する
func (app *Application) selectGame() (*game.Game, error) {
	app.gameReg = game.NewRegistry(app.embedFS)

	name := ""
	if p := app.config.GamePath; p != "" {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if err := app.gameReg.LoadExternal(p); err != nil {
				return nil, fmt.Errorf("failed to load external game: %w", err)
			}
		} else {
			// ディレクトリでなければ組み込みゲーム名として扱う
			name = p
		}
	}
	return app.gameReg.Select(name)
}

// loadSettings 設定ファイルを読み込み、コマンドライン引数で上書きする
func (app *Application) loadSettings(fsys fileutil.FileSystem) error {
	var (
		settings config.Settings
		err      error
	)
	if app.config.ConfigPath != "" {
		settings, err = config.LoadFile(app.config.ConfigPath)
	} else {
		settings, err = config.Load(fsys, "")
	}
	if err != nil {
		return err
	}

	if app.config.LogLevel != "" {
		settings.Logging.Level = app.config.LogLevel
	}
	if app.config.LogFile != "" {
		settings.Logging.File = app.config.LogFile
	}
	if app.config.Execute {
		settings.Runtime.Execute = true
	}
	if app.config.Scene != "" {
		settings.Game.EntryScene = app.config.Scene
	}
	app.settings = settings
	return nil
}

// initLogger ロガーを初期化
func (app *Application) initLogger() error {
	err := logger.Init(logger.Options{
		Level:  app.settings.Logging.Level,
		File:   app.settings.Logging.File,
		Output: app.logOut,
	})
	if err != nil {
		return err
	}
	app.log = logger.GetLogger()
	return nil
}

// newRuntime スクリプトランタイムを作成する
// 実行が無効な場合は制御フローのトレースのみ行う
func (app *Application) newRuntime(loaded *game.Loaded) *scripting.Runtime {
	if !app.settings.Runtime.Execute {
		return scripting.New(loaded.Scenes, scripting.WithLogger(app.log))
	}

	starter := game.NewStarter(loaded)
	ip := vm.New(
		vm.WithLogger(app.log),
		vm.WithMaxSteps(app.settings.Runtime.MaxSteps),
		vm.WithEntityLookup(loaded),
		vm.WithScriptStarter(starter),
		vm.WithOutput(app.out),
	)
	loaded.InstallBuiltins(ip)

	rt := scripting.New(loaded.Scenes, scripting.WithLogger(app.log), scripting.WithExecutor(ip))
	starter.Attach(rt)
	return rt
}

// runFrames フレームレートに従ってUpdateを呼ぶ
// タイムアウトまたはctxのキャンセルで終了する
func (app *Application) runFrames(ctx context.Context, rt *scripting.Runtime) {
	if !app.settings.Runtime.Execute && app.config.Timeout == 0 {
		app.log.Debug("Trace mode: frame loop skipped")
		return
	}

	if app.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, app.config.Timeout)
		defer cancel()
	}

	interval := time.Second / time.Duration(app.settings.Runtime.FrameRate)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	app.log.Info("Frame loop started", "frame_rate", app.settings.Runtime.FrameRate, "timeout", app.config.Timeout)

	frames := 0
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				app.log.Info("Timeout reached, terminating", "frames", frames)
			} else {
				app.log.Info("Frame loop cancelled", "frames", frames)
			}
			return
		case now := <-ticker.C:
			rt.Update(ctx, now.Sub(last))
			last = now
			frames++
		}
	}
}
