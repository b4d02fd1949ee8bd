// Package scene はシーンファイルの読み込みと、読み込み済みシーンの管理を行う。
//
// シーンファイルはJSONで、"menu" 配列に配置されるエンティティを列挙する。
// 種類がscriptのエントリはスクリプト参照として、それ以外はエンティティとして扱う。
package scene

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/zurustar/textgame/pkg/asset"
	"github.com/zurustar/textgame/pkg/fileutil"
	"github.com/zurustar/textgame/pkg/logger"
	"github.com/zurustar/textgame/pkg/script"
)

// ErrInvalidScene はシーンファイルが不正であることを示す
var ErrInvalidScene = errors.New("invalid scene")

// Scene は読み込み済みのシーン
type Scene struct {
	Name     string
	Source   string // 読み込み元のパス
	Scripts  []*ScriptReference
	Entities []Entity
}

// ScriptReference はシーンに含まれるスクリプトへの参照
// Scriptは構文エラーなく解析できた場合のみゲームローダーが設定する
type ScriptReference struct {
	ID     uint64
	Name   string
	Source string
	Script *script.Asset
}

// Loaded はスクリプトが登録済みかを返す
func (r *ScriptReference) Loaded() bool {
	return r.Script != nil
}

// Entity はスクリプト以外のシーン要素
type Entity struct {
	ID       uint64
	Name     string
	Kind     asset.Kind
	Position [3]float64
	Width    uint32
	Height   uint32
	Order    uint32
	Source   string
	Parent   uint64
}

// Ref はエンティティのアセット参照を返す
func (e Entity) Ref() asset.Ref {
	return asset.NewRef(e.Kind, e.Source)
}

type rawScene struct {
	Name string     `json:"name"`
	Menu []rawEntry `json:"menu"`
}

type rawEntry struct {
	ID       json.Number `json:"id"`
	Name     string      `json:"name"`
	Type     any         `json:"type"`
	Position []float64   `json:"position"`
	Width    uint32      `json:"width"`
	Height   uint32      `json:"height"`
	Order    uint32      `json:"order"`
	Source   string      `json:"source"`
	Parent   json.Number `json:"parent"`
}

// Parse はシーンファイルを検証して読み込む
// nameはファイルに "name" が無い場合のシーン名になる
func Parse(name string, data []byte, log *slog.Logger) (*Scene, error) {
	if log == nil {
		log = logger.GetLogger()
	}
	log = logger.WithTag(log, "SceneAsset.ParseData")

	if err := Validate(data); err != nil {
		return nil, fmt.Errorf("failed to parse scene %s: %w", name, err)
	}

	var raw rawScene
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: failed to parse scene %s: %v", ErrInvalidScene, name, err)
	}

	s := &Scene{Name: raw.Name, Source: name}
	if s.Name == "" {
		s.Name = name
	}

	if len(raw.Menu) == 0 {
		log.Warn(fmt.Sprintf("Scene file %q doesn't have any entities!", s.Name))
		return s, nil
	}

	for i, e := range raw.Menu {
		kind, err := entryKind(e.Type)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: menu[%d]: %v", ErrInvalidScene, name, i, err)
		}
		id, err := parseUint(e.ID)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: menu[%d].id: %v", ErrInvalidScene, name, i, err)
		}
		source := entrySource(e.Source)

		// スクリプトは専用のリストへ
		if kind == asset.KindScript {
			s.Scripts = append(s.Scripts, &ScriptReference{ID: id, Name: e.Name, Source: source})
			log.Debug("Script: "+source, "scene", s.Name)
			continue
		}

		parent, err := parseUint(e.Parent)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: menu[%d].parent: %v", ErrInvalidScene, name, i, err)
		}
		ent := Entity{
			ID:     id,
			Name:   e.Name,
			Kind:   kind,
			Width:  e.Width,
			Height: e.Height,
			Order:  e.Order,
			Source: source,
			Parent: parent,
		}
		copy(ent.Position[:], e.Position)
		s.Entities = append(s.Entities, ent)
		log.Debug("Entity: "+e.Name, "scene", s.Name, "kind", kind.String())
	}

	return s, nil
}

// entryKind は "type" の値（種類名または旧形式のハッシュ）を解釈する
func entryKind(v any) (asset.Kind, error) {
	switch t := v.(type) {
	case string:
		if k, ok := asset.KindFromName(t); ok {
			return k, nil
		}
		return asset.KindUnknown, fmt.Errorf("unknown asset type %q", t)
	case json.Number:
		h, err := strconv.ParseUint(t.String(), 10, 64)
		if err != nil {
			return asset.KindUnknown, fmt.Errorf("invalid asset type %s", t)
		}
		if k, ok := asset.KindFromHash(h); ok {
			return k, nil
		}
		return asset.KindUnknown, fmt.Errorf("unknown asset type hash %d", h)
	default:
		return asset.KindUnknown, fmt.Errorf("unsupported asset type %v", v)
	}
}

// entrySource はプレフィックス付きの参照ならパス部分を返す
func entrySource(src string) string {
	if ref, err := asset.ParseRef(src); err == nil {
		return ref.Path
	}
	return fileutil.CleanPath(src)
}

func parseUint(n json.Number) (uint64, error) {
	if n == "" {
		return 0, nil
	}
	return strconv.ParseUint(n.String(), 10, 64)
}

// ScriptNames はスクリプト参照のソース一覧を返す
func (s *Scene) ScriptNames() []string {
	names := make([]string, 0, len(s.Scripts))
	for _, r := range s.Scripts {
		names = append(names, r.Source)
	}
	return names
}
