// Package color holds the RGB colors used for lineages and track markers.
package color

import "fmt"

// Color is an opaque 8-bit RGB color. The zero value is black.
type Color struct {
	R, G, B uint8
}

// Predefined colors.
var (
	Black = Color{}
	White = Color{255, 255, 255}
	Red   = Color{255, 0, 0}
	Blue  = Color{0, 0, 255}
	// Gray is used for tracks whose links are not trusted.
	Gray = FromFloat(0.7, 0.7, 0.7)
)

// RGB returns the color with the given channels.
func RGB(r, g, b uint8) Color { return Color{r, g, b} }

// FromFloat returns the color for channels in 0..1; values are clamped.
func FromFloat(r, g, b float64) Color {
	return Color{channel(r), channel(g), channel(b)}
}

func channel(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 255
	}
	return uint8(v*255 + 0.5)
}

// FromInt decodes the 0xRRGGBB integer form used in data files.
func FromInt(v int) Color {
	return Color{uint8(v >> 16 & 0xff), uint8(v >> 8 & 0xff), uint8(v & 0xff)}
}

// Int encodes the color as 0xRRGGBB.
func (c Color) Int() int {
	return int(c.R)<<16 | int(c.G)<<8 | int(c.B)
}

// IsBlack reports whether c is black, which means "no color assigned".
func (c Color) IsBlack() bool { return c == Black }

// Hex returns the color as "#rrggbb".
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func (c Color) String() string { return c.Hex() }

// palette is a set of well-separated, non-black lineage colors.
var palette = []Color{
	{0x1f, 0x77, 0xb4}, {0xff, 0x7f, 0x0e}, {0x2c, 0xa0, 0x2c}, {0x94, 0x67, 0xbd},
	{0x8c, 0x56, 0x4b}, {0xe3, 0x77, 0xc2}, {0xbc, 0xbd, 0x22}, {0x17, 0xbe, 0xcf},
	{0xaf, 0xc7, 0xe8}, {0xff, 0xbb, 0x78}, {0x98, 0xdf, 0x8a}, {0xc5, 0xb0, 0xd5},
}

// Palette returns the i-th lineage color, cycling through a fixed palette.
// Negative indices are treated as their absolute value.
func Palette(i int) Color {
	if i < 0 {
		i = -i
	}
	return palette[i%len(palette)]
}
