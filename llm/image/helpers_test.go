package image

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// pngBytes 生成 w×h 的纯色 PNG
func pngBytes(t testing.TB, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 0x80, A: 0xFF})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// pngSize 解析 PNG data URI 并返回尺寸
func pngSize(t testing.TB, uri string) (int, int) {
	t.Helper()
	data, mime, err := decodeDataURI(uri)
	require.NoError(t, err)
	require.Equal(t, "image/png", mime)
	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	return cfg.Width, cfg.Height
}

type recordedGeneration struct {
	tier   string
	preset string
}

type fakeRecorder struct {
	generations []recordedGeneration
	fetches     []string
	skipped     int
}

func (r *fakeRecorder) RecordImageGeneration(tier, preset string, _ time.Duration) {
	r.generations = append(r.generations, recordedGeneration{tier: tier, preset: preset})
}

func (r *fakeRecorder) RecordImageFetch(outcome string) {
	r.fetches = append(r.fetches, outcome)
}

func (r *fakeRecorder) RecordStreamChunkSkipped() {
	r.skipped++
}
