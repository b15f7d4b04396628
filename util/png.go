package util

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"

	"github.com/segmentio/ksuid"
)

// alphaNRGBA 让 png 编码器始终写出带 alpha 的 RGBA（color type 6），
// 即使所有像素都不透明
type alphaNRGBA struct {
	*image.NRGBA
}

func (alphaNRGBA) Opaque() bool { return false }

// EncodePNG 以带 alpha 通道的 PNG 写入 w
func EncodePNG(w io.Writer, img *image.NRGBA) error {
	enc := png.Encoder{CompressionLevel: png.DefaultCompression}
	return enc.Encode(w, alphaNRGBA{img})
}

// SavePNG 先写同目录下的临时文件，完整写入并关闭后再重命名为 path，
// 失败时删除临时文件，不会留下半个输出
func SavePNG(path string, img *image.NRGBA) (err error) {
	dir := filepath.Dir(path)
	tmpPath := filepath.Join(dir, "."+filepath.Base(path)+"."+ksuid.New().String()+".tmp")

	f, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	if err = EncodePNG(f, img); err != nil {
		return fmt.Errorf("png encode: %w", err)
	}
	if err = f.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err = os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
