// Package asset はゲームアセット（スクリプト、シーン、テキスト、画像、サウンド）の
// 参照の解釈と読み込みを扱う。
package asset

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zurustar/textgame/pkg/fileutil"
)

// Kind はアセットの種類
type Kind int

const (
	KindUnknown Kind = iota
	KindText
	KindGfx
	KindSound
	KindScript
	KindScene
)

var kindNames = map[Kind]string{
	KindText:   "text",
	KindGfx:    "gfx",
	KindSound:  "sound",
	KindScript: "script",
	KindScene:  "scene",
}

// 旧形式のシーンファイルは種類名の代わりに64ビットのハッシュを書く
var kindHashes = map[Kind]uint64{
	KindText:   0x80a69b9688ccaf52,
	KindGfx:    0x28a480fa8bad468a,
	KindSound:  0x381b96c7a2ec1dff,
	KindScript: 0xcf7e685ca7386f66,
	KindScene:  0x34ebd9f0e7011c68,
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Hash は旧形式の種類ハッシュを返す
func (k Kind) Hash() uint64 {
	return kindHashes[k]
}

// KindFromName は種類名（大文字小文字を無視）からKindを返す
func KindFromName(name string) (Kind, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for k, n := range kindNames {
		if n == name {
			return k, true
		}
	}
	return KindUnknown, false
}

// KindFromHash は旧形式の種類ハッシュからKindを返す
func KindFromHash(h uint64) (Kind, bool) {
	for k, v := range kindHashes {
		if v == h {
			return k, true
		}
	}
	return KindUnknown, false
}

// ErrInvalidRef は解釈できないアセット参照を示す
var ErrInvalidRef = errors.New("invalid asset reference")

// Ref は "script:scripts/intro.script" 形式のアセット参照
type Ref struct {
	Kind Kind
	Path string
}

// ParseRef はアセット参照を解釈する
// 種類のプレフィックスが無い、または未知の場合はエラー
func ParseRef(s string) (Ref, error) {
	prefix, rest, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return Ref{}, fmt.Errorf("%w: missing kind prefix in %q", ErrInvalidRef, s)
	}
	kind, ok := KindFromName(prefix)
	if !ok {
		return Ref{}, fmt.Errorf("%w: unknown kind %q in %q", ErrInvalidRef, prefix, s)
	}
	p := fileutil.CleanPath(strings.TrimSpace(rest))
	if p == "." {
		return Ref{}, fmt.Errorf("%w: empty path in %q", ErrInvalidRef, s)
	}
	return Ref{Kind: kind, Path: p}, nil
}

// NewRef は種類とパスから参照を作る
func NewRef(kind Kind, p string) Ref {
	return Ref{Kind: kind, Path: fileutil.CleanPath(p)}
}

func (r Ref) String() string {
	return r.Kind.String() + ":" + r.Path
}
