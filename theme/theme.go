package theme

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme carries the UI palette and the resting/highlight key colors.
type Theme struct {
	Palette *Palette
	Keys    KeyColors
}

// KeyColors are the fills used by the keyboard when it is not showing
// precomputed colors.
type KeyColors struct {
	White  Packed
	Black  Packed
	Active Packed
}

// DefaultUI is a plasma-like ramp used when no .gpl file is configured.
var DefaultUI = &Palette{
	Name: "plasma",
	Colors: []RGB{
		{13, 8, 135},
		{84, 2, 163},
		{139, 10, 165},
		{185, 50, 137},
		{219, 92, 104},
		{244, 136, 73},
		{254, 188, 43},
		{240, 249, 33},
	},
}

func DefaultKeyColors() KeyColors {
	return KeyColors{
		White:  Pack(0xff, 0xff, 0xff),
		Black:  Pack(0x00, 0x00, 0x00),
		Active: Pack(0xff, 0x00, 0x00),
	}
}

func New(palette *Palette, keys KeyColors) *Theme {
	if palette == nil {
		palette = DefaultUI
	}
	return &Theme{
		Palette: palette,
		Keys:    keys,
	}
}

// Color roles mapped to palette positions (0-1)
const (
	RoleBG      = 0.0
	RoleMuted   = 0.2
	RoleFG      = 0.4
	RoleAccent  = 0.5
	RoleWarning = 0.8
)

func (t *Theme) FG() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleFG))
}

func (t *Theme) Accent() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleAccent))
}

func (t *Theme) Muted() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleMuted))
}

func (t *Theme) Warning() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleWarning))
}

func rgbToLipgloss(c RGB) lipgloss.Color {
	return lipgloss.Color(FromRGB(c).Hex())
}
