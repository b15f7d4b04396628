package rembg

import "errors"

var (
	// ErrLoad 输入文件不存在、不可读或下载失败
	ErrLoad = errors.New("load image")
	// ErrDecode 输入不是可识别的图片格式
	ErrDecode = errors.New("decode image")
	// ErrSave 输出路径不可写或 PNG 编码失败
	ErrSave = errors.New("save image")

	ErrNilImage = errors.New("nil image provided")
)
