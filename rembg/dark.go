package rembg

import (
	"image"
	"image/color"

	"github.com/nfnt/resize"
	"golang.org/x/image/draw"
)

// DarkThreshold 三个颜色通道都严格小于该值的像素视为背景
const DarkThreshold = 30

// Clear 背景像素被替换成的颜色
var Clear = color.NRGBA{R: 255, G: 255, B: 255, A: 0}

// IsDark 判断像素是否属于近黑背景，alpha 不参与判断
func IsDark(c color.NRGBA) bool {
	return c.R < DarkThreshold && c.G < DarkThreshold && c.B < DarkThreshold
}

// ClearDark 原地把近黑像素改成 Clear，返回改动的像素数
func ClearDark(img *image.NRGBA) int {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	cleared := 0
	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+w*4]
		for i := 0; i < len(row); i += 4 {
			px := row[i : i+4 : i+4]
			if !IsDark(color.NRGBA{R: px[0], G: px[1], B: px[2], A: px[3]}) {
				continue
			}
			px[0], px[1], px[2], px[3] = Clear.R, Clear.G, Clear.B, Clear.A
			cleared++
		}
	}
	return cleared
}

// ToNRGBA 复制为 NRGBA，没有 alpha 的格式补 255，不修改原图。
// 非预乘的来源直接转换，完全透明像素的 RGB 也原样保留
func ToNRGBA(img image.Image) *image.NRGBA {
	b := img.Bounds()
	dst := image.NewNRGBA(b)

	switch src := img.(type) {
	case *image.NRGBA:
		for y := b.Min.Y; y < b.Max.Y; y++ {
			copy(dst.Pix[dst.PixOffset(b.Min.X, y):dst.PixOffset(b.Max.X, y)],
				src.Pix[src.PixOffset(b.Min.X, y):src.PixOffset(b.Max.X, y)])
		}
	case *image.Paletted:
		palette := nrgbaPalette(src.Palette)
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				idx := int(src.ColorIndexAt(x, y))
				if idx < len(palette) {
					dst.SetNRGBA(x, y, palette[idx])
				}
			}
		}
	case *image.NRGBA64:
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				c := src.NRGBA64At(x, y)
				dst.SetNRGBA(x, y, color.NRGBA{
					R: uint8(c.R >> 8), G: uint8(c.G >> 8), B: uint8(c.B >> 8), A: uint8(c.A >> 8),
				})
			}
		}
	case *image.NYCbCrA:
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				c := src.YCbCrAt(x, y)
				r, g, bl := color.YCbCrToRGB(c.Y, c.Cb, c.Cr)
				dst.SetNRGBA(x, y, color.NRGBA{R: r, G: g, B: bl, A: src.A[src.AOffset(x, y)]})
			}
		}
	default:
		draw.Draw(dst, b, img, b.Min, draw.Src)
	}
	return dst
}

// nrgbaPalette 调色板里已经是 NRGBA 的颜色（png 的 tRNS）直接使用，
// 其他颜色走 NRGBAModel 转换
func nrgbaPalette(p color.Palette) []color.NRGBA {
	out := make([]color.NRGBA, len(p))
	for i, c := range p {
		if n, ok := c.(color.NRGBA); ok {
			out[i] = n
			continue
		}
		out[i] = color.NRGBAModel.Convert(c).(color.NRGBA)
	}
	return out
}

// resizeWithinMax 缩放（最长边 <= maxSize），maxSize <= 0 时原样返回
func resizeWithinMax(img *image.NRGBA, maxSize int) *image.NRGBA {
	if maxSize <= 0 {
		return img
	}

	w := img.Bounds().Dx()
	h := img.Bounds().Dy()
	longest := max(w, h)
	if longest <= maxSize {
		return img
	}

	scale := float64(maxSize) / float64(longest)
	newW := max(1, int(float64(w)*scale))
	newH := max(1, int(float64(h)*scale))

	resized := resize.Resize(uint(newW), uint(newH), img, resize.Lanczos3)
	return ToNRGBA(resized)
}
