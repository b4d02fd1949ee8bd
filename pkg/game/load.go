package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/zurustar/textgame/pkg/asset"
	"github.com/zurustar/textgame/pkg/config"
	"github.com/zurustar/textgame/pkg/fileutil"
	"github.com/zurustar/textgame/pkg/logger"
	"github.com/zurustar/textgame/pkg/scene"
	"github.com/zurustar/textgame/pkg/script"
)

// ErrNoScenes はシーンが1つも読み込めなかったことを示す
var ErrNoScenes = errors.New("no scenes could be loaded")

// Loaded は読み込み済みのゲーム
type Loaded struct {
	Settings config.Settings
	Scenes   *scene.Registry
	Library  *asset.Library

	loader  *asset.Loader
	scripts map[string]*script.Asset // 構文エラーの無いスクリプト（パスごと）
	log     *slog.Logger
}

// Option はLoadのオプション
type Option func(*Loaded)

// WithLogger はロガーを設定する
func WithLogger(l *slog.Logger) Option {
	return func(ld *Loaded) {
		ld.log = l
	}
}

// Load は設定に列挙されたシーンを読み込み、スクリプトとアセットを登録する
//
// 構文エラーのあるスクリプトはシーンに登録しない。アセットの読み込み失敗は
// ログに出力して続行する。最後にエントリーシーン（未指定なら最初のシーン）を
// アクティブにする。
func Load(ctx context.Context, fsys fileutil.FileSystem, settings config.Settings, opts ...Option) (*Loaded, error) {
	ld := &Loaded{
		Settings: settings,
		Scenes:   scene.NewRegistry(),
		Library:  asset.NewLibrary(),
		scripts:  make(map[string]*script.Asset),
		log:      logger.GetLogger(),
	}
	for _, opt := range opts {
		opt(ld)
	}
	ld.loader = asset.NewLoader(fsys, asset.WithLogger(ld.log))
	log := logger.WithTag(ld.log, "Game.Load")

	for _, entry := range settings.Game.Scenes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		sc, err := ld.loadScene(ctx, entry)
		if err != nil {
			log.Error("Failed to load scene", "scene", entry, "error", err)
			continue
		}
		ld.Scenes.Add(sc)
		log.Info("Scene loaded", "scene", sc.Name, "scripts", len(sc.Scripts), "entities", len(sc.Entities))
	}

	scenes := ld.Scenes.Scenes()
	if len(scenes) == 0 {
		return nil, ErrNoScenes
	}

	entry := settings.Game.EntryScene
	if entry == "" {
		entry = scenes[0].Name
	}
	if err := ld.Scenes.SetActive(entry); err != nil {
		return nil, fmt.Errorf("failed to activate entry scene: %w", err)
	}
	log.Info("Active scene: "+entry, "assets", ld.Library.Len())

	return ld, nil
}

// sceneRef は設定ファイルのシーン指定を参照に変換する（"scene:" は省略可）
func sceneRef(entry string) (asset.Ref, error) {
	ref, err := asset.ParseRef(entry)
	if err != nil {
		ref = asset.NewRef(asset.KindScene, fileutil.CleanPath(entry))
	}
	if ref.Kind != asset.KindScene || ref.Path == "." {
		return asset.Ref{}, fmt.Errorf("%w: %q is not a scene", asset.ErrInvalidRef, entry)
	}
	return ref, nil
}

// sceneName はファイルパスからシーン名を作る（ファイルに "name" が無い場合に使う）
func sceneName(p string) string {
	base := path.Base(p)
	return strings.TrimSuffix(base, path.Ext(base))
}

func (ld *Loaded) loadScene(ctx context.Context, entry string) (*scene.Scene, error) {
	ref, err := sceneRef(entry)
	if err != nil {
		return nil, err
	}
	data, err := ld.loader.Read(ref)
	if err != nil {
		return nil, err
	}
	sc, err := scene.Parse(sceneName(ref.Path), data, ld.log)
	if err != nil {
		return nil, err
	}
	sc.Source = ref.Path

	for _, sr := range sc.Scripts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		a, err := ld.loadScript(sr.Source)
		if err != nil {
			ld.log.Error("Script will not be registered", "scene", sc.Name, "script", sr.Source, "error", err)
			continue
		}
		sr.Script = a
	}

	for _, ent := range sc.Entities {
		ld.loadEntityAsset(sc.Name, ent)
	}
	return sc, nil
}

// loadScript はスクリプトを読み込む。同じパスは1度だけ解析する
func (ld *Loaded) loadScript(p string) (*script.Asset, error) {
	p = fileutil.CleanPath(p)
	if a, ok := ld.scripts[p]; ok {
		return a, nil
	}

	a, err := ld.loader.LoadScript(asset.NewRef(asset.KindScript, p))
	if err != nil {
		return nil, err
	}
	if a.ErrorCount > 0 {
		for _, perr := range a.Errors {
			ld.log.Error(perr.Error(), "context", "\n"+perr.Context)
		}
		return nil, fmt.Errorf("script %s has %d syntax error(s)", p, a.ErrorCount)
	}

	ld.scripts[p] = a
	return a, nil
}

func (ld *Loaded) loadEntityAsset(owner string, ent scene.Entity) {
	switch ent.Kind {
	case asset.KindText, asset.KindGfx, asset.KindSound:
	default:
		return
	}
	if ent.Source == "" || ent.Source == "." {
		return
	}
	ref := ent.Ref()
	if _, ok := ld.Library.Get(ref); ok {
		return
	}
	if err := ld.loader.Load(ref, ld.Library); err != nil {
		ld.log.Warn("Failed to load asset", "scene", owner, "entity", ent.Name, "ref", ref.String(), "error", err)
	}
}

// Script は登録済みのスクリプトをパスで取得する
func (ld *Loaded) Script(p string) (*script.Asset, bool) {
	a, ok := ld.scripts[fileutil.CleanPath(p)]
	return a, ok
}
