// Package game はゲーム（設定ファイル・シーン・スクリプト・アセットのまとまり）の
// 検出と読み込みを行う。
package game

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/zurustar/textgame/pkg/fileutil"
)

// EmbeddedRoot は埋め込みファイルシステム内のゲームディレクトリ
const EmbeddedRoot = "games"

// ErrNoGame は利用できるゲームが無いことを示す
var ErrNoGame = errors.New("no games available")

// ErrSelectionRequired は複数のゲームがあり、名前の指定が必要なことを示す
var ErrSelectionRequired = errors.New("multiple games available")

// Game は1つのゲームを表す
type Game struct {
	Name       string // ゲーム名（ディレクトリ名）
	Path       string // ゲームのパス（embedの場合は仮想パス）
	IsEmbedded bool   // embedされたゲームかどうか
}

// Registry はゲームの管理を行う
type Registry struct {
	embedded []Game // embedされたゲーム一覧
	external *Game  // 外部から指定されたゲーム
	embedFS  fs.FS
}

// NewRegistry はRegistryを作成する。embedFSはnilでもよい
func NewRegistry(embedFS fs.FS) *Registry {
	r := &Registry{embedFS: embedFS}
	r.loadEmbeddedGames()
	return r
}

// loadEmbeddedGames はgamesディレクトリ内のサブディレクトリを列挙する
func (r *Registry) loadEmbeddedGames() {
	if r.embedFS == nil {
		return
	}
	entries, err := fs.ReadDir(r.embedFS, EmbeddedRoot)
	if err != nil {
		// gamesディレクトリが無い場合は何もしない
		return
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		r.embedded = append(r.embedded, Game{
			Name:       entry.Name(),
			Path:       path.Join(EmbeddedRoot, entry.Name()),
			IsEmbedded: true,
		})
	}
	sort.Slice(r.embedded, func(i, j int) bool {
		return r.embedded[i].Name < r.embedded[j].Name
	})
}

// LoadExternal は外部ディレクトリのゲームを登録する
func (r *Registry) LoadExternal(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("game directory does not exist: %s", dir)
		}
		return fmt.Errorf("failed to access game directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("game path is not a directory: %s", dir)
	}

	absPath, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %w", err)
	}

	r.external = &Game{
		Name: filepath.Base(absPath),
		Path: absPath,
	}
	return nil
}

// Games は利用可能なゲーム一覧を返す
// 外部ゲームが指定されている場合はそれのみを返す
func (r *Registry) Games() []Game {
	if r.external != nil {
		return []Game{*r.external}
	}
	return append([]Game(nil), r.embedded...)
}

// Select はゲームを選択する
// nameが空の場合、ゲームが1つだけなら自動選択する
func (r *Registry) Select(name string) (*Game, error) {
	games := r.Games()
	if len(games) == 0 {
		return nil, ErrNoGame
	}

	if name == "" {
		if len(games) == 1 {
			return &games[0], nil
		}
		return nil, fmt.Errorf("%w, specify one of: %s", ErrSelectionRequired, strings.Join(names(games), ", "))
	}

	for i := range games {
		if strings.EqualFold(games[i].Name, name) {
			return &games[i], nil
		}
	}
	return nil, fmt.Errorf("game %q not found (available: %s)", name, strings.Join(names(games), ", "))
}

// Open はゲームのファイルシステムを開く
func (r *Registry) Open(g *Game) (fileutil.FileSystem, error) {
	if !g.IsEmbedded {
		return fileutil.NewRealFS(g.Path), nil
	}
	if r.embedFS == nil {
		return nil, fmt.Errorf("game %s is embedded but no embedded file system is available", g.Name)
	}
	return fileutil.NewEmbedFS(r.embedFS, g.Path)
}

func names(games []Game) []string {
	out := make([]string, len(games))
	for i, g := range games {
		out[i] = g.Name
	}
	return out
}
