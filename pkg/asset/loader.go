package asset

import (
	"fmt"
	"log/slog"

	"github.com/zurustar/textgame/pkg/fileutil"
	"github.com/zurustar/textgame/pkg/logger"
	"github.com/zurustar/textgame/pkg/script"
)

// Loader はFileSystemからアセットを読み込む
type Loader struct {
	fs  fileutil.FileSystem
	log *slog.Logger
}

// LoaderOption はLoaderのオプション
type LoaderOption func(*Loader)

// WithLogger はLoaderのロガーを設定する
func WithLogger(l *slog.Logger) LoaderOption {
	return func(ld *Loader) {
		ld.log = l
	}
}

// NewLoader は新しいLoaderを作成する
func NewLoader(fsys fileutil.FileSystem, opts ...LoaderOption) *Loader {
	l := &Loader{fs: fsys, log: logger.GetLogger()}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// FileSystem は読み込み元のFileSystemを返す
func (l *Loader) FileSystem() fileutil.FileSystem {
	return l.fs
}

// Read は参照先の生のバイト列を返す
func (l *Loader) Read(ref Ref) ([]byte, error) {
	data, err := l.fs.ReadFile(ref.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read asset %s: %w", ref, err)
	}
	l.log.Debug("Asset read", "ref", ref.String(), "bytes", len(data))
	return data, nil
}

// LoadScript はスクリプトを読み込んで解析する
// 構文エラーがあってもAssetを返す。登録するかどうかは呼び出し側がErrorCountで判断する
func (l *Loader) LoadScript(ref Ref) (*script.Asset, error) {
	if err := expectKind(ref, KindScript); err != nil {
		return nil, err
	}
	data, err := l.Read(ref)
	if err != nil {
		return nil, err
	}
	return script.Parse(ref.Path, DecodeText(data), script.WithLogger(l.log)), nil
}

// LoadText はテキストアセットを読み込む
func (l *Loader) LoadText(ref Ref) (*TextAsset, error) {
	if err := expectKind(ref, KindText); err != nil {
		return nil, err
	}
	data, err := l.Read(ref)
	if err != nil {
		return nil, err
	}
	return ParseText(ref.Path, data), nil
}

// LoadGfx は画像アセットを読み込む
func (l *Loader) LoadGfx(ref Ref) (*GfxAsset, error) {
	if err := expectKind(ref, KindGfx); err != nil {
		return nil, err
	}
	data, err := l.Read(ref)
	if err != nil {
		return nil, err
	}
	return DecodeGfx(ref.Path, data)
}

// LoadSound はサウンドアセットを読み込む
func (l *Loader) LoadSound(ref Ref) (*SoundAsset, error) {
	if err := expectKind(ref, KindSound); err != nil {
		return nil, err
	}
	data, err := l.Read(ref)
	if err != nil {
		return nil, err
	}
	return DecodeSound(ref.Path, data)
}

// Load は種類に応じてアセットを読み込みlibへ登録する
// スクリプトとシーンはそれぞれ専用の読み込み経路を使うため対象外
func (l *Loader) Load(ref Ref, lib *Library) error {
	var (
		a   any
		err error
	)
	switch ref.Kind {
	case KindText:
		a, err = l.LoadText(ref)
	case KindGfx:
		a, err = l.LoadGfx(ref)
	case KindSound:
		a, err = l.LoadSound(ref)
	default:
		return fmt.Errorf("%w: %s cannot be loaded into a library", ErrInvalidRef, ref)
	}
	if err != nil {
		return err
	}
	lib.Put(ref, a)
	return nil
}

func expectKind(ref Ref, kind Kind) error {
	if ref.Kind != kind {
		return fmt.Errorf("%w: %s is not a %s asset", ErrInvalidRef, ref, kind)
	}
	return nil
}
