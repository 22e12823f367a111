package image

import (
	"hash/fnv"
	"image"
	"image/color"
	"math/rand/v2"
	"strconv"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// =============================================================================
// 🎨 本地兜底图片
// =============================================================================

// PlaceholderDataURI 是 1×1 透明 PNG，渲染失败时使用
const PlaceholderDataURI = "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg=="

// DefaultFallbackMaxSide 兜底图片默认最长边
const DefaultFallbackMaxSide = 512

const (
	circleCount     = 15
	circleMargin    = 50
	circleMinRadius = 20
	circleMaxRadius = 60
	maxPromptRunes  = 50
	bandPadX        = 10
	bandPadY        = 5
)

var (
	gradientTop    = [3]float64{240, 248, 255}
	gradientBottom = [3]float64{135, 206, 250}

	circleColors = []color.RGBA{
		{0xFF, 0x6B, 0x6B, 0xFF},
		{0x4E, 0xCD, 0xC4, 0xFF},
		{0x45, 0xB7, 0xD1, 0xFF},
		{0x96, 0xCE, 0xB4, 0xFF},
		{0xFF, 0xEA, 0xA7, 0xFF},
		{0xDD, 0xA0, 0xDD, 0xFF},
	}

	textBlack = color.RGBA{0, 0, 0, 0xFF}
	textGray  = color.RGBA{0x66, 0x66, 0x66, 0xFF}
)

// Synthesizer 根据提示词确定性地绘制兜底图片
type Synthesizer struct {
	maxSide int
	face    font.Face
}

// NewSynthesizer 创建兜底图片绘制器，maxSide 非正时使用 512
func NewSynthesizer(maxSide int) *Synthesizer {
	if maxSide <= 0 {
		maxSide = DefaultFallbackMaxSide
	}
	return &Synthesizer{maxSide: maxSide, face: basicfont.Face7x13}
}

var defaultSynthesizer = NewSynthesizer(DefaultFallbackMaxSide)

// Synthesize 使用默认尺寸生成第 index 张兜底图片
func Synthesize(index int, prompt string, p Preset) GeneratedImage {
	return defaultSynthesizer.Synthesize(index, prompt, p)
}

// Synthesize 生成第 index 张兜底图片。相同输入得到逐字节相同的结果，
// 任何失败都退化为占位图
func (s *Synthesizer) Synthesize(index int, prompt string, p Preset) (out GeneratedImage) {
	out = GeneratedImage{
		ID:          "fallback_img_" + strconv.Itoa(index),
		URL:         PlaceholderDataURI,
		Description: "Fallback image generated for prompt: " + prompt,
	}

	defer func() {
		if r := recover(); r != nil {
			out.URL = PlaceholderDataURI
		}
	}()

	encoded, err := encodePNG(s.Render(index, prompt, p))
	if err != nil {
		return out
	}
	out.URL = DataURI("image/png", encoded)
	return out
}

// Render 绘制兜底图片
func (s *Synthesizer) Render(index int, prompt string, p Preset) *image.RGBA {
	w, h := p.WorkingSize(s.maxSide)
	img := image.NewRGBA(image.Rect(0, 0, w, h))

	fillGradient(img)

	rng := rand.New(rand.NewPCG(fallbackSeed(prompt, index)))
	for range circleCount {
		x := randInclusive(rng, circleMargin, w-circleMargin)
		y := randInclusive(rng, circleMargin, h-circleMargin)
		r := randInclusive(rng, circleMinRadius, circleMaxRadius)
		fillCircle(img, x, y, r, circleColors[rng.IntN(len(circleColors))])
	}

	// 三条文字带使用同一行高
	lineHeight := s.face.Metrics().Ascent.Ceil() + s.face.Metrics().Descent.Ceil()
	s.drawBand(img, "AI Image Generation", 30, lineHeight, textBlack)
	s.drawBand(img, "(API Fallback Mode)", 70, lineHeight, textGray)
	s.drawBand(img, truncatePrompt(prompt), h-60, lineHeight, textBlack)

	return img
}

// fallbackSeed 对 prompt + "\x00" + index 取 FNV-1a 64 位哈希
func fallbackSeed(prompt string, index int) (uint64, uint64) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(prompt))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(strconv.Itoa(index)))
	seed := h.Sum64()
	return seed, seed ^ 0x9E3779B97F4A7C15
}

// fillGradient 自上而下的线性渐变
func fillGradient(img *image.RGBA) {
	b := img.Bounds()
	h := float64(b.Dy())
	for y := 0; y < b.Dy(); y++ {
		t := float64(y) / h
		c := color.RGBA{
			R: uint8(gradientTop[0] + (gradientBottom[0]-gradientTop[0])*t),
			G: uint8(gradientTop[1] + (gradientBottom[1]-gradientTop[1])*t),
			B: uint8(gradientTop[2] + (gradientBottom[2]-gradientTop[2])*t),
			A: 0xFF,
		}
		row := img.Pix[y*img.Stride : y*img.Stride+b.Dx()*4]
		for x := 0; x < len(row); x += 4 {
			row[x], row[x+1], row[x+2], row[x+3] = c.R, c.G, c.B, c.A
		}
	}
}

// fillCircle 填充圆心 (cx, cy)、半径 r 的圆，超出画布部分裁掉
func fillCircle(img *image.RGBA, cx, cy, r int, c color.RGBA) {
	b := img.Bounds()
	for y := max(cy-r, b.Min.Y); y <= min(cy+r, b.Max.Y-1); y++ {
		dy := y - cy
		for x := max(cx-r, b.Min.X); x <= min(cx+r, b.Max.X-1); x++ {
			dx := x - cx
			if dx*dx+dy*dy <= r*r {
				img.SetRGBA(x, y, c)
			}
		}
	}
}

// drawBand 在白底矩形上水平居中绘制一行文字，top 为文字顶端
func (s *Synthesizer) drawBand(img *image.RGBA, text string, top, lineHeight int, c color.RGBA) {
	width := font.MeasureString(s.face, text).Ceil()
	left := floorDiv(img.Bounds().Dx()-width, 2)

	bg := image.Rect(left-bandPadX, top-bandPadY, left+width+bandPadX+1, top+lineHeight+bandPadY+1)
	draw.Draw(img, bg, image.White, image.Point{}, draw.Src)

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: s.face,
		Dot:  fixed.P(left, top+s.face.Metrics().Ascent.Ceil()),
	}
	d.DrawString(text)
}

// truncatePrompt 超过 50 个字符时截断并追加 "..."
func truncatePrompt(prompt string) string {
	runes := []rune(prompt)
	if len(runes) <= maxPromptRunes {
		return prompt
	}
	return string(runes[:maxPromptRunes]) + "..."
}

// randInclusive 返回 [lo, hi] 内的整数；区间为空时取中点
func randInclusive(rng *rand.Rand, lo, hi int) int {
	if hi < lo {
		return (lo + hi) / 2
	}
	return lo + rng.IntN(hi-lo+1)
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
