package keyboard

import (
	"fmt"
	"time"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"

	"keyscope/theme"
)

// DefaultThreshold is the fraction of a note's duration during which the
// key stays highlighted.
const DefaultThreshold = 1.0 / 60

// neutral floor for reference colors on strokes and labels
const neutralColor = 0x55

// NoteStates is the per-key playback record read by HighlightMode.
type NoteStates interface {
	Len() int
	Note(key int) (paused bool, elapsed, duration time.Duration)
}

// Mode selects how Update colors the keys. It is either HighlightMode or
// PrecomputedMode.
type Mode interface {
	mode()
}

// HighlightMode colors a key with the active color while its note is in
// the first Threshold fraction of its duration.
type HighlightMode struct {
	Notes     NoteStates
	Threshold float64 // 0 means DefaultThreshold
}

// PrecomputedMode fills keys with audio colors and outlines them with the
// reference colors.
type PrecomputedMode struct {
	Audio     []theme.Packed
	Reference []theme.Packed
}

func (HighlightMode) mode()   {}
func (PrecomputedMode) mode() {}

// Update recolors the existing key and label handles.
func (kb *Keyboard) Update(m Mode) error {
	switch m := m.(type) {
	case HighlightMode:
		return kb.highlight(m)
	case *HighlightMode:
		if m == nil {
			break
		}
		return kb.highlight(*m)
	case PrecomputedMode:
		return kb.precomputed(m)
	case *PrecomputedMode:
		if m == nil {
			break
		}
		return kb.precomputed(*m)
	}
	return fault.Wrap(ErrNoMode, fmsg.With("keyboard update"), ftag.With(ftag.InvalidArgument))
}

func (kb *Keyboard) highlight(m HighlightMode) error {
	if m.Notes == nil {
		return fault.Wrap(ErrNoMode, fmsg.With("highlight mode without note states"), ftag.With(ftag.InvalidArgument))
	}
	if err := kb.checkLen("note states", m.Notes.Len()); err != nil {
		return err
	}
	threshold := m.Threshold
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	for i, k := range kb.Keys {
		paused, elapsed, duration := m.Notes.Note(i)
		if !paused && float64(elapsed) < float64(duration)*threshold {
			k.Fill = kb.colors.Active
		} else {
			k.Fill = kb.resting(k)
		}
		k.Stroke = theme.Sentinel
		if l := kb.Labels[i]; l != nil {
			l.Fill = kb.colors.Black
		}
	}
	return nil
}

func (kb *Keyboard) precomputed(m PrecomputedMode) error {
	if err := kb.checkLen("audio colors", len(m.Audio)); err != nil {
		return err
	}
	if err := kb.checkLen("reference colors", len(m.Reference)); err != nil {
		return err
	}

	for i, k := range kb.Keys {
		k.Fill = m.Audio[i]
		stroke := m.Reference[i].Lift(neutralColor)
		k.Stroke = stroke
		if l := kb.Labels[i]; l != nil {
			l.Fill = stroke
		}
	}
	return nil
}

func (kb *Keyboard) checkLen(what string, n int) error {
	if n == len(kb.Keys) {
		return nil
	}
	return fault.Wrap(ErrLengthMismatch,
		fmsg.With(fmt.Sprintf("%s: got %d, keyboard has %d keys", what, n, len(kb.Keys))),
		ftag.With(ftag.InvalidArgument))
}
