package theme

import (
	colorful "github.com/lucasb-eyer/go-colorful"
)

// Packed is a single-word color laid out as A<<24 | B<<16 | G<<8 | R.
// Stored little-endian the bytes read R, G, B, A, the same order as
// image.RGBA pixels. Zero is the "no signal" sentinel.
type Packed uint32

const (
	Sentinel    Packed = 0
	AlphaOpaque Packed = 0xff000000
)

func Pack(r, g, b uint8) Packed {
	return Packed(b)<<16 | Packed(g)<<8 | Packed(r)
}

func FromRGB(c RGB) Packed {
	return Pack(c[0], c[1], c[2])
}

// FromColor packs a go-colorful color, clamping it into gamut first.
func FromColor(c colorful.Color) Packed {
	r, g, b := c.Clamped().RGB255()
	return Pack(r, g, b)
}

func (p Packed) Channels() (r, g, b uint8) {
	return uint8(p), uint8(p >> 8), uint8(p >> 16)
}

func (p Packed) Alpha() uint8 {
	return uint8(p >> 24)
}

func (p Packed) Opaque() Packed {
	return p | AlphaOpaque
}

func (p Packed) RGB() RGB {
	r, g, b := p.Channels()
	return RGB{r, g, b}
}

func (p Packed) Color() colorful.Color {
	r, g, b := p.Channels()
	return colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}
}

func (p Packed) Hex() string {
	return p.Color().Hex()
}

// Lift maps every channel from [0,255] into [start,255], so a dark color
// never drops below the neutral floor.
func (p Packed) Lift(start uint8) Packed {
	r, g, b := p.Channels()
	return Pack(lift(r, start), lift(g, start), lift(b, start))
}

// lift is start + v*(255-start)/255, rounded
func lift(v, start uint8) uint8 {
	span := 255 - int(start)
	return uint8(int(start) + (int(v)*span+127)/255)
}

// ParseHex reads a #rrggbb string.
func ParseHex(s string) (Packed, error) {
	c, err := colorful.Hex(s)
	if err != nil {
		return 0, err
	}
	return FromColor(c), nil
}
