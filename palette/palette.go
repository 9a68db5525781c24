// Package palette maps bitplane levels to display colours.
package palette

import (
	"fmt"
	"image/color"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Palette holds one colour per level, index 0 is an unlit pixel
type Palette []colorful.Color

// Named LED colours, lit end of the ramp
var presets = map[string]colorful.Color{
	"red":   {R: 1, G: 0.08, B: 0.05},
	"amber": {R: 1, G: 0.62, B: 0.05},
	"green": {R: 0.15, G: 1, B: 0.25},
	"white": {R: 1, G: 1, B: 1},
}

// Off is the colour of a dark LED
var Off = colorful.Color{R: 0.04, G: 0.04, B: 0.04}

// Ramp blends from off to on over levels+1 entries.
// Grey endpoints blend in RGB, anything else in Lab so hue stays stable.
func Ramp(levels int, off, on colorful.Color) Palette {
	levels = max(levels, 1)
	p := make(Palette, levels+1)
	grey := isGrey(off) || isGrey(on)
	for i := range p {
		t := float64(i) / float64(levels)
		if grey {
			p[i] = off.BlendRgb(on, t).Clamped()
		} else {
			p[i] = off.BlendLab(on, t).Clamped()
		}
	}
	return p
}

// Preset builds a ramp to a named LED colour
func Preset(name string, levels int) (Palette, error) {
	on, ok := presets[name]
	if !ok {
		return nil, fmt.Errorf("palette: unknown colour %q", name)
	}
	return Ramp(levels, Off, on), nil
}

// FromHex builds a ramp to a #rrggbb colour
func FromHex(hex string, levels int) (Palette, error) {
	on, err := colorful.Hex(hex)
	if err != nil {
		return nil, fmt.Errorf("palette: %w", err)
	}
	return Ramp(levels, Off, on), nil
}

// Levels is the brightest level the palette covers
func (p Palette) Levels() int { return len(p) - 1 }

// At returns the colour of a level, clamped to the ramp
func (p Palette) At(level int) colorful.Color {
	return p[min(max(level, 0), len(p)-1)]
}

// RGB returns the 8-bit channels of a level
func (p Palette) RGB(level int) (r, g, b uint8) {
	return p.At(level).RGB255()
}

// Color returns an opaque image colour for a level
func (p Palette) Color(level int) color.RGBA {
	r, g, b := p.RGB(level)
	return color.RGBA{R: r, G: g, B: b, A: 0xff}
}

// Colors is the palette as an image/color.Palette, e.g. for GIF frames
func (p Palette) Colors() color.Palette {
	cp := make(color.Palette, len(p))
	for i := range p {
		cp[i] = p.Color(i)
	}
	return cp
}

func isGrey(c colorful.Color) bool {
	return c.R == c.G && c.G == c.B
}
