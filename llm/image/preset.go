package image

import (
	"fmt"
	"strings"
)

// 预设名称
const (
	PresetSquare    = "square"
	PresetLandscape = "landscape"
	PresetPortrait  = "portrait"
	PresetWide      = "wide"
	PresetTall      = "tall"
)

// Preset 是一个固定的输出尺寸与其自然语言描述
type Preset struct {
	Name        string `json:"name"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Description string `json:"description"`
	// Aspect 为 "W:H" 形式的比例标签
	Aspect string `json:"aspect"`
}

// presets 顺序固定，只读
var presets = [...]Preset{
	{Name: PresetSquare, Width: 1024, Height: 1024, Description: "square 1:1 aspect ratio", Aspect: "1:1"},
	{Name: PresetLandscape, Width: 1536, Height: 1024, Description: "landscape 3:2 aspect ratio, wider than tall", Aspect: "3:2"},
	{Name: PresetPortrait, Width: 1024, Height: 1536, Description: "portrait 2:3 aspect ratio, taller than wide", Aspect: "2:3"},
	{Name: PresetWide, Width: 1792, Height: 1024, Description: "wide 16:9 aspect ratio, cinematic", Aspect: "16:9"},
	{Name: PresetTall, Width: 1024, Height: 1792, Description: "tall 9:16 aspect ratio, mobile/story format", Aspect: "9:16"},
}

// Lookup 按名称查找预设，忽略大小写与首尾空白
func Lookup(name string) (Preset, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, p := range presets {
		if p.Name == name {
			return p, true
		}
	}
	return Preset{}, false
}

// Resolve 返回名称对应的预设，未知或为空时返回 square
func Resolve(name string) Preset {
	if p, ok := Lookup(name); ok {
		return p
	}
	return presets[0]
}

// Presets 按 square, landscape, portrait, wide, tall 顺序返回全部预设
func Presets() []Preset {
	out := make([]Preset, len(presets))
	copy(out, presets[:])
	return out
}

// Ratio 返回宽高比
func (p Preset) Ratio() float64 {
	return float64(p.Width) / float64(p.Height)
}

// WorkingSize 等比缩放，使较长边等于 maxSide
func (p Preset) WorkingSize(maxSide int) (w, h int) {
	longest := max(p.Width, p.Height)
	return p.Width * maxSide / longest, p.Height * maxSide / longest
}

// EnhancePrompt 在提示词后追加尺寸要求
func (p Preset) EnhancePrompt(prompt string) string {
	return fmt.Sprintf("%s\n\nIMPORTANT: Generate this image in %s. The image dimensions should be approximately %dx%d pixels.",
		prompt, p.Description, p.Width, p.Height)
}

// String 实现 fmt.Stringer
func (p Preset) String() string {
	return fmt.Sprintf("%s (%dx%d)", p.Name, p.Width, p.Height)
}
