package util

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"strings"

	nhttp "github.com/chaos-io/bgclear/util/http"

	// 注册常见格式的解码器
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrDecode 数据不是可识别或完整的图片
var ErrDecode = errors.New("undecodable image")

var defaultClient nhttp.IClient = nhttp.NewHTTPClient()

// LoadImage 按前缀判断 src 是 http(s) 地址还是本地路径
func LoadImage(ctx context.Context, src string) (image.Image, string, error) {
	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		return DownloadImage(ctx, defaultClient, src)
	}
	return OpenImage(src)
}

// DownloadImage 下载图片
func DownloadImage(ctx context.Context, cli nhttp.IClient, url string) (image.Image, string, error) {
	var imgData []byte
	err := cli.DoHTTPRequest(ctx, &nhttp.RequestParam{
		RequestURI: url,
		Method:     "GET",
		Response:   &imgData,
	})
	if err != nil {
		return nil, "", err
	}

	return DecodeImage(bytes.NewReader(imgData))
}

// OpenImage 打开本地图片
func OpenImage(path string) (image.Image, string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, "", err
	}
	defer func() {
		_ = file.Close()
	}()

	return DecodeImage(file)
}

// DecodeImage 解码图片并返回格式名（png、jpeg、bmp 等）
func DecodeImage(r io.Reader) (image.Image, string, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return img, format, nil
}
