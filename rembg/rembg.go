package rembg

import (
	"context"
	"image"
)

type Remover interface {
	Remove(ctx context.Context, img image.Image) (image.Image, error)
}

// Option 调整 DarkRemBG 的预处理
type Option func(*DarkRemBG)

// WithMaxSide 先把最长边缩放到 maxSide 以内，0 表示不缩放。
// 缩放经过预乘 alpha，完全透明像素的 RGB 会变成 0，随后按暗像素清除
func WithMaxSide(maxSide int) Option {
	return func(d *DarkRemBG) {
		d.maxSide = maxSide
	}
}

var _ Remover = (*DarkRemBG)(nil)

// DarkRemBG 把近黑色背景替换为全透明
type DarkRemBG struct {
	maxSide int
}

func NewDarkRemBG(opts ...Option) *DarkRemBG {
	d := &DarkRemBG{}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *DarkRemBG) Remove(ctx context.Context, img image.Image) (image.Image, error) {
	out, _, err := d.RemoveCount(ctx, img)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// RemoveCount 与 Remove 相同，同时返回被清除的像素数
func (d *DarkRemBG) RemoveCount(ctx context.Context, img image.Image) (*image.NRGBA, int, error) {
	if img == nil {
		return nil, 0, ErrNilImage
	}
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	src := ToNRGBA(img)
	src = resizeWithinMax(src, d.maxSide)

	cleared := ClearDark(src)
	return src, cleared, nil
}
