package theme

import (
	"errors"
	"fmt"
	"math"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
)

var (
	ErrEmptyPalette = errors.New("palette has no colors")
	ErrLevelRange   = errors.New("level outside [0,1]")
)

// Semitones is the default key palette: a hue wheel with one color per
// semitone class, starting at red.
var Semitones = []RGB{
	{255, 0, 0},
	{255, 128, 0},
	{255, 255, 0},
	{128, 255, 0},
	{0, 255, 0},
	{0, 255, 128},
	{0, 255, 255},
	{0, 128, 255},
	{0, 0, 255},
	{128, 0, 255},
	{255, 0, 255},
	{255, 0, 128},
}

// KeyPalette maps per-key intensity levels to packed colors. Key k uses
// table entry (rotation + k) mod len(table), with floor-mod semantics so
// negative rotations wrap backwards instead of mirroring.
type KeyPalette struct {
	table    []RGB
	rotation int
}

func NewKeyPalette(table []RGB) (*KeyPalette, error) {
	if len(table) == 0 {
		return nil, fault.Wrap(ErrEmptyPalette,
			fmsg.WithDesc("new key palette", "The key palette needs at least one color"),
			ftag.With(ftag.InvalidArgument))
	}
	t := make([]RGB, len(table))
	copy(t, table)
	return &KeyPalette{table: t}, nil
}

// KeyPaletteFrom builds a key palette from a loaded .gpl palette.
func KeyPaletteFrom(p *Palette) (*KeyPalette, error) {
	if p == nil {
		return NewKeyPalette(nil)
	}
	return NewKeyPalette(p.Colors)
}

func (kp *KeyPalette) Len() int {
	return len(kp.table)
}

func (kp *KeyPalette) Rotation() int {
	return kp.rotation
}

func (kp *KeyPalette) SetRotation(n int) {
	kp.rotation = n
}

// Rotate shifts the colors around the octave by delta steps.
func (kp *KeyPalette) Rotate(delta int) {
	kp.rotation = floorMod(kp.rotation+delta, len(kp.table))
}

// Entry returns the table color used for key.
func (kp *KeyPalette) Entry(key int) RGB {
	return kp.table[floorMod(kp.rotation+key, len(kp.table))]
}

// KeyColors applies the intensity levels to the palette, one packed color
// per level.
func (kp *KeyPalette) KeyColors(levels []float64) ([]Packed, error) {
	out := make([]Packed, len(levels))
	if err := kp.KeyColorsInto(out, levels); err != nil {
		return nil, err
	}
	return out, nil
}

// KeyColorsInto is KeyColors writing into dst, which must be as long as
// levels. Used by the frame loop to avoid a per-frame allocation.
func (kp *KeyPalette) KeyColorsInto(dst []Packed, levels []float64) error {
	if len(dst) != len(levels) {
		return fault.New(fmt.Sprintf("destination holds %d colors, got %d levels", len(dst), len(levels)),
			ftag.With(ftag.InvalidArgument))
	}
	for key, level := range levels {
		if math.IsNaN(level) || level < 0 || level > 1 {
			return fault.Wrap(ErrLevelRange,
				fmsg.With(fmt.Sprintf("key %d level %v", key, level)),
				ftag.With(ftag.InvalidArgument))
		}
		c := kp.Entry(key)
		dst[key] = Pack(scale(c[0], level), scale(c[1], level), scale(c[2], level))
	}
	return nil
}

func scale(channel uint8, level float64) uint8 {
	return uint8(math.Round(level * float64(channel)))
}

func floorMod(a, n int) int {
	m := a % n
	if m < 0 {
		m += n
	}
	return m
}
