package image

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"net/http"
	"strings"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// =============================================================================
// ✂️ 宽高比适配
// =============================================================================

// FitImage 居中裁剪到预设比例，再缩放到预设尺寸
func FitImage(src image.Image, p Preset) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, p.Width, p.Height))

	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 {
		return dst
	}

	draw.CatmullRom.Scale(dst, dst.Bounds(), src, cropRect(b, p.Ratio()), draw.Src, nil)
	return dst
}

// cropRect 计算原图中与目标比例一致的居中区域。比例相等时走裁高分支
func cropRect(b image.Rectangle, target float64) image.Rectangle {
	w, h := b.Dx(), b.Dy()
	original := float64(w) / float64(h)

	if original > target {
		nw := min(max(int(float64(h)*target), 1), w)
		left := (w - nw) / 2
		return image.Rect(b.Min.X+left, b.Min.Y, b.Min.X+left+nw, b.Max.Y)
	}

	nh := min(max(int(float64(w)/target), 1), h)
	top := (h - nh) / 2
	return image.Rect(b.Min.X, b.Min.Y+top, b.Max.X, b.Min.Y+top+nh)
}

// DefaultMaxPixels 解码前允许的最大像素数（宽×高）
const DefaultMaxPixels int64 = 64 << 20

// FitToAspect 以 DefaultMaxPixels 为上限调用 FitToAspectLimit
func FitToAspect(data []byte, p Preset) string {
	return FitToAspectLimit(data, p, DefaultMaxPixels)
}

// FitToAspectLimit 解码图片并适配到预设，返回 PNG data URI。
// 头部声明的像素数超过 maxPixels、解码或编码失败时返回原始字节的 data URI。
// maxPixels <= 0 时使用 DefaultMaxPixels
func FitToAspectLimit(data []byte, p Preset, maxPixels int64) string {
	if maxPixels <= 0 {
		maxPixels = DefaultMaxPixels
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil || cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > maxPixels {
		return rawDataURI(data)
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return rawDataURI(data)
	}

	encoded, err := encodePNG(FitImage(src, p))
	if err != nil {
		return rawDataURI(data)
	}
	return DataURI("image/png", encoded)
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// =============================================================================
// 🔗 data URI
// =============================================================================

// DataURI 构造 base64 data URI
func DataURI(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// rawDataURI 按内容嗅探类型，非图片时按 image/png
func rawDataURI(data []byte) string {
	mime := http.DetectContentType(data)
	if !strings.HasPrefix(mime, "image/") {
		mime = "image/png"
	}
	return DataURI(mime, data)
}

var errNotDataURI = errors.New("not a data URI")

// decodeDataURI 解析 "data:[mime][;base64],payload"
func decodeDataURI(uri string) ([]byte, string, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return nil, "", errNotDataURI
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, "", fmt.Errorf("data URI without payload")
	}

	mime, isBase64 := strings.CutSuffix(meta, ";base64")
	if !isBase64 {
		return []byte(payload), mime, nil
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		// 部分上游省略填充
		data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
		if err != nil {
			return nil, "", fmt.Errorf("decode data URI: %w", err)
		}
	}
	return data, mime, nil
}
