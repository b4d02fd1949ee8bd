package asset

import (
	"bytes"
	"fmt"
	"image"
	_ "image/png"

	_ "golang.org/x/image/bmp"
)

// GfxAsset は画像アセットの情報
// 描画は行わないため、ヘッダーから得られる形式とサイズのみ保持する
type GfxAsset struct {
	Name   string
	Format string
	Width  int
	Height int
}

// DecodeGfx は画像のヘッダーを読み込む（BMP、PNG対応）
func DecodeGfx(name string, data []byte) (*GfxAsset, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", name, err)
	}
	return &GfxAsset{
		Name:   name,
		Format: format,
		Width:  cfg.Width,
		Height: cfg.Height,
	}, nil
}
