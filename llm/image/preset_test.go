package image

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   string
		width  int
		height int
	}{
		{"square", "square", PresetSquare, 1024, 1024},
		{"landscape", "landscape", PresetLandscape, 1536, 1024},
		{"portrait", "portrait", PresetPortrait, 1024, 1536},
		{"wide", "wide", PresetWide, 1792, 1024},
		{"tall", "tall", PresetTall, 1024, 1792},
		{"case and space", "  WIDE ", PresetWide, 1792, 1024},
		{"empty", "", PresetSquare, 1024, 1024},
		{"bogus", "bogus", PresetSquare, 1024, 1024},
		{"ratio label", "16:9", PresetSquare, 1024, 1024},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Resolve(tt.input)
			assert.Equal(t, tt.want, p.Name)
			assert.Equal(t, tt.width, p.Width)
			assert.Equal(t, tt.height, p.Height)
		})
	}
}

func TestPresets_OrderAndCopy(t *testing.T) {
	got := Presets()
	names := make([]string, 0, len(got))
	for _, p := range got {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"square", "landscape", "portrait", "wide", "tall"}, names)

	got[0].Width = 1
	assert.Equal(t, 1024, Resolve("square").Width)
}

func TestPreset_WorkingSize(t *testing.T) {
	tests := []struct {
		preset string
		w, h   int
	}{
		{PresetSquare, 512, 512},
		{PresetLandscape, 512, 341},
		{PresetPortrait, 341, 512},
		{PresetWide, 512, 292},
		{PresetTall, 292, 512},
	}
	for _, tt := range tests {
		t.Run(tt.preset, func(t *testing.T) {
			w, h := Resolve(tt.preset).WorkingSize(512)
			assert.Equal(t, tt.w, w)
			assert.Equal(t, tt.h, h)
		})
	}
}

func TestPreset_EnhancePrompt(t *testing.T) {
	got := Resolve("wide").EnhancePrompt("skyline")
	assert.Equal(t, "skyline\n\nIMPORTANT: Generate this image in wide 16:9 aspect ratio, cinematic. The image dimensions should be approximately 1792x1024 pixels.", got)
}

func TestProperty_ResolveNeverFails(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("unknown names resolve to square", prop.ForAll(
		func(name string) bool {
			p := Resolve(name)
			if _, ok := Lookup(name); ok {
				return strings.EqualFold(strings.TrimSpace(name), p.Name)
			}
			return p.Name == PresetSquare && p.Width == 1024 && p.Height == 1024
		},
		gen.AnyString(),
	))

	properties.Property("known names resolve regardless of case", prop.ForAll(
		func(idx int, upper bool) bool {
			want := Presets()[idx]
			name := want.Name
			if upper {
				name = strings.ToUpper(name)
			}
			return Resolve(name) == want
		},
		gen.IntRange(0, 4),
		gen.Bool(),
	))

	properties.TestingRun(t)
}
