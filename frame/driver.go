// Package frame runs one display frame at a time: advance playback, map
// levels to colors, recolor the keyboard, push a row into the spectrogram.
package frame

import (
	"errors"
	"fmt"
	"time"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"

	"keyscope/debug"
	"keyscope/keyboard"
	"keyscope/playback"
	"keyscope/spectrogram"
	"keyscope/theme"
)

var (
	ErrKeyCount   = errors.New("components disagree on key count")
	ErrFrameLimit = errors.New("sources did not finish within the frame limit")
)

// Source changes playback state as frame time passes: a note sequence, a
// MIDI file, live input.
type Source interface {
	Advance(dt time.Duration, state *playback.State) error
	Done() bool
}

// ModeKind picks the keyboard coloring for each frame.
type ModeKind int

const (
	Highlight ModeKind = iota
	Precomputed
)

func (m ModeKind) String() string {
	if m == Precomputed {
		return "precomputed"
	}
	return "highlight"
}

// Result describes one Step.
type Result struct {
	Frame   int
	Skipped bool
}

// Driver owns the per-frame state. It is not safe for concurrent use; the
// host calls Step from a single goroutine.
type Driver struct {
	Keyboard  *keyboard.Keyboard
	Buffer    *spectrogram.Buffer
	Palette   *theme.KeyPalette
	State     *playback.State
	Levels    *playback.Levels
	Mode      ModeKind
	Threshold float64

	sources []Source
	audio   []theme.Packed
	ref     []theme.Packed
	frames  int
}

func New(kb *keyboard.Keyboard, buf *spectrogram.Buffer, pal *theme.KeyPalette, state *playback.State, levels *playback.Levels) (*Driver, error) {
	if kb == nil || buf == nil || pal == nil || state == nil || levels == nil {
		return nil, fault.New("frame driver needs keyboard, buffer, palette, state and levels",
			ftag.With(ftag.InvalidArgument))
	}
	keys := kb.Len()
	if buf.Keys() != keys || state.Len() != keys || levels.Len() != keys {
		return nil, fault.Wrap(ErrKeyCount,
			fmsg.With(fmt.Sprintf("keyboard %d, spectrogram %d, playback %d, levels %d",
				keys, buf.Keys(), state.Len(), levels.Len())),
			ftag.With(ftag.InvalidArgument))
	}
	return &Driver{
		Keyboard:  kb,
		Buffer:    buf,
		Palette:   pal,
		State:     state,
		Levels:    levels,
		Threshold: keyboard.DefaultThreshold,
		audio:     make([]theme.Packed, keys),
		ref:       make([]theme.Packed, keys),
	}, nil
}

// AddSource registers a source and marks the state ready: there is now
// something that can drive it.
func (d *Driver) AddSource(s Source) {
	d.sources = append(d.sources, s)
	d.State.MarkReady()
}

// Done reports whether every source has finished and no note sounds.
func (d *Driver) Done() bool {
	for _, s := range d.sources {
		if !s.Done() {
			return false
		}
	}
	return d.State.Sounding() == 0
}

func (d *Driver) Frames() int {
	return d.frames
}

func (d *Driver) ToggleMode() ModeKind {
	if d.Mode == Highlight {
		d.Mode = Precomputed
	} else {
		d.Mode = Highlight
	}
	return d.Mode
}

// Step runs one frame dt after the previous one. Frames are skipped, not
// waited for, while the state is not ready.
func (d *Driver) Step(dt time.Duration) (Result, error) {
	d.State.Advance(dt)
	for _, s := range d.sources {
		if err := s.Advance(dt, d.State); err != nil {
			return Result{Frame: d.frames}, err
		}
	}

	if !d.State.Ready() {
		return Result{Frame: d.frames, Skipped: true}, nil
	}

	audioLevels, refLevels := d.Levels.Compute(d.State)
	if err := d.Palette.KeyColorsInto(d.audio, audioLevels); err != nil {
		return Result{Frame: d.frames}, err
	}
	if err := d.Palette.KeyColorsInto(d.ref, refLevels); err != nil {
		return Result{Frame: d.frames}, err
	}

	var mode keyboard.Mode = keyboard.HighlightMode{Notes: d.State, Threshold: d.Threshold}
	if d.Mode == Precomputed {
		mode = keyboard.PrecomputedMode{Audio: d.audio, Reference: d.ref}
	}
	if err := d.Keyboard.Update(mode); err != nil {
		return Result{Frame: d.frames}, err
	}
	if err := d.Buffer.Update(d.audio, d.ref); err != nil {
		return Result{Frame: d.frames}, err
	}

	d.frames++
	debug.LogEvery(300, "frame", "frame %d, %d sounding", d.frames, d.State.Sounding())
	return Result{Frame: d.frames}, nil
}

// Render steps dt at a time until every source is done and no note sounds,
// then runs tail more frames so the last notes scroll up the raster. limit
// caps the number of steps; zero means no cap.
func (d *Driver) Render(dt time.Duration, tail, limit int) error {
	after := 0
	for steps := 0; ; steps++ {
		if d.Done() {
			if after >= tail {
				return nil
			}
			after++
		}
		if limit > 0 && steps >= limit {
			return fault.Wrap(ErrFrameLimit,
				fmsg.WithDesc(fmt.Sprintf("stopped after %d steps", steps),
					"Playback did not finish; is one of the sources endless?"),
				ftag.With(ftag.InvalidArgument))
		}
		if _, err := d.Step(dt); err != nil {
			return err
		}
	}
}
