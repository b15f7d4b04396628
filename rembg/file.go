package rembg

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/chaos-io/bgclear/util"
)

// Result 记录一次文件转换的结果
type Result struct {
	Format  string // 输入格式，如 png、jpeg
	Width   int
	Height  int
	Cleared int // 被替换为透明的像素数
}

// RemoveBackground 读取 inputPath，去掉近黑背景，以 PNG 写入 outputPath
func RemoveBackground(inputPath, outputPath string) error {
	_, err := RemoveBackgroundContext(context.Background(), inputPath, outputPath)
	return err
}

// RemoveBackgroundContext 同 RemoveBackground，inputPath 也可以是 http(s) 地址。
// 失败时不会留下输出文件，错误可用 errors.Is 区分 ErrLoad、ErrDecode、ErrSave。
func RemoveBackgroundContext(ctx context.Context, inputPath, outputPath string, opts ...Option) (*Result, error) {
	img, format, err := util.LoadImage(ctx, inputPath)
	if err != nil {
		if errors.Is(err, util.ErrDecode) {
			return nil, fmt.Errorf("%w %s: %w", ErrDecode, inputPath, err)
		}
		return nil, fmt.Errorf("%w %s: %w", ErrLoad, inputPath, err)
	}
	slog.Debug("loaded image", "path", inputPath, "format", format, "bounds", img.Bounds())

	out, cleared, err := NewDarkRemBG(opts...).RemoveCount(ctx, img)
	if err != nil {
		return nil, err
	}

	if err := util.SavePNG(outputPath, out); err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrSave, outputPath, err)
	}
	slog.Debug("saved image", "path", outputPath, "cleared", cleared)

	return &Result{
		Format:  format,
		Width:   out.Bounds().Dx(),
		Height:  out.Bounds().Dy(),
		Cleared: cleared,
	}, nil
}
