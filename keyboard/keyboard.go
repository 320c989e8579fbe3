package keyboard

import (
	"errors"
	"fmt"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"

	"keyscope/theme"
)

var (
	ErrLayout         = errors.New("invalid keyboard layout")
	ErrNoSurface      = errors.New("no rendering surface")
	ErrSliceWidth     = errors.New("key slices do not cover the keyboard width")
	ErrLengthMismatch = errors.New("per-key input length does not match key count")
	ErrNoMode         = errors.New("no update mode")
)

type Kind int

const (
	White Kind = iota
	Black
)

func (k Kind) String() string {
	if k == Black {
		return "black"
	}
	return "white"
}

// Key is a persistent shape handle. Position never changes after layout;
// Fill and Stroke are rewritten every frame.
type Key struct {
	Index  int
	Pitch  int
	Kind   Kind
	X      int
	Y      int
	Width  int
	Height int
	Radius int
	Fill   theme.Packed
	Stroke theme.Packed
}

func (k *Key) Contains(x, y int) bool {
	return x >= k.X && x < k.X+k.Width && y >= k.Y && y < k.Y+k.Height
}

// Label is the note name drawn on a white key.
type Label struct {
	Key  int
	X    int
	Y    int
	Text string
	Fill theme.Packed
}

// Surface receives the shapes once, when the keyboard is laid out.
type Surface interface {
	AddKey(k *Key)
	AddLabel(l *Label)
	Resize(width, height int)
}

// Keyboard holds the generated layout and the handles given to the surface.
type Keyboard struct {
	Layout Layout
	Keys   []*Key
	Labels []*Label // indexed by key; nil for black keys
	Slices []int    // raster column width per key
	Width  int
	Height int

	colors theme.KeyColors
}

// New lays out the keyboard once and hands every shape to surface.
// Inspired by https://github.com/davidgilbertson/sight-reader/blob/master/app/client/Piano.js
func New(layout Layout, colors theme.KeyColors, surface Surface) (*Keyboard, error) {
	if surface == nil {
		return nil, fault.Wrap(ErrNoSurface,
			fmsg.WithDesc("new keyboard", "The keyboard needs a surface to draw on"),
			ftag.With(ftag.InvalidArgument))
	}
	if err := layout.Validate(); err != nil {
		return nil, err
	}

	s := layout.Scale
	kb := &Keyboard{
		Layout: layout,
		Keys:   make([]*Key, layout.KeyCount),
		Labels: make([]*Label, layout.KeyCount),
		Slices: make([]int, layout.KeyCount),
		Height: layout.WhiteHeight * s,
		colors: colors,
	}

	padding := layout.BlackPadding * s
	blackOffset := padding
	whiteOffset := 0
	whiteIndex := layout.WhiteIndex
	blackSum := 0

	var blacks []*Key
	for i := layout.StartSlot; i < layout.StartSlot+layout.KeyCount; i++ {
		slot := i % len(layout.BlackWidths)
		blackWidth := layout.BlackWidths[slot] * s
		index := i - layout.StartSlot

		kb.Slices[index] = blackWidth
		blackSum += blackWidth

		key := &Key{
			Index:  index,
			Pitch:  layout.FirstPitch + index,
			Radius: layout.Radius,
		}
		if layout.BlackSlots[slot] != 0 {
			key.Kind = Black
			key.X = blackOffset
			key.Width = blackWidth - 1
			key.Height = layout.BlackHeight * s
			key.Fill = colors.Black
			blacks = append(blacks, key)
		} else {
			note := whiteIndex % len(layout.WhiteWidths)
			whiteWidth := layout.WhiteWidths[note] * s

			key.Kind = White
			key.X = whiteOffset
			key.Width = whiteWidth - 1
			key.Height = layout.WhiteHeight * s
			key.Fill = colors.White
			surface.AddKey(key)

			octave := whiteIndex/len(layout.WhiteWidths) + layout.StartOctave
			label := &Label{
				Key:  index,
				X:    whiteOffset + 5*s,
				Y:    layout.WhiteHeight*s - 6*s,
				Text: fmt.Sprintf("%c%d", noteLetters[note], octave),
				Fill: colors.Black,
			}
			kb.Labels[index] = label
			surface.AddLabel(label)

			whiteIndex++
			whiteOffset += whiteWidth
		}
		kb.Keys[index] = key
		blackOffset += blackWidth
	}

	// black keys go on top of the white ones
	for _, key := range blacks {
		surface.AddKey(key)
	}

	// the black track starts padded and ends out of step with the white track
	last := len(kb.Slices) - 1
	kb.Slices[0] += padding
	kb.Slices[last] += whiteOffset - blackSum - padding
	kb.Width = whiteOffset

	if err := checkSlices(kb.Slices, kb.Width); err != nil {
		return nil, err
	}

	surface.Resize(kb.Width, kb.Height)
	return kb, nil
}

func checkSlices(slices []int, width int) error {
	sum := 0
	for i, w := range slices {
		if w < 1 {
			return fault.Wrap(ErrSliceWidth,
				fmsg.With(fmt.Sprintf("key %d has slice width %d", i, w)),
				ftag.With(ftag.InvalidArgument))
		}
		sum += w
	}
	if sum != width {
		return fault.Wrap(ErrSliceWidth,
			fmsg.With(fmt.Sprintf("slices sum to %d, keyboard is %d wide", sum, width)),
			ftag.With(ftag.InvalidArgument))
	}
	return nil
}

func (kb *Keyboard) Len() int {
	return len(kb.Keys)
}

// KeyAt returns the key drawn at pixel (x, y), black keys first, or -1.
func (kb *Keyboard) KeyAt(x, y int) int {
	hit := -1
	for _, k := range kb.Keys {
		if !k.Contains(x, y) {
			continue
		}
		if k.Kind == Black {
			return k.Index
		}
		hit = k.Index
	}
	return hit
}

// SliceAt returns the key whose raster slice covers column x, or -1.
func (kb *Keyboard) SliceAt(x int) int {
	if x < 0 {
		return -1
	}
	for i, w := range kb.Slices {
		if x < w {
			return i
		}
		x -= w
	}
	return -1
}

// KeyForPitch maps a MIDI note number to a key index.
func (kb *Keyboard) KeyForPitch(pitch int) (int, bool) {
	index := pitch - kb.Layout.FirstPitch
	if index < 0 || index >= len(kb.Keys) {
		return 0, false
	}
	return index, true
}

func (kb *Keyboard) resting(k *Key) theme.Packed {
	if k.Kind == Black {
		return kb.colors.Black
	}
	return kb.colors.White
}
