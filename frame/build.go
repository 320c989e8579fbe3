package frame

import (
	"path/filepath"
	"strings"
	"time"

	"keyscope/keyboard"
	"keyscope/playback"
	"keyscope/spectrogram"
	"keyscope/theme"
)

// Options collects everything Build needs to assemble a driver.
type Options struct {
	Layout       keyboard.Layout
	KeyColors    theme.KeyColors
	Palette      []theme.RGB
	Rotation     int
	Height       int
	Sentinel     spectrogram.SentinelMode
	NoteDuration time.Duration
	FPS          int
	Mode         ModeKind
	Threshold    float64

	// Keys receives the keyboard shapes, Raster the spectrogram frames.
	Keys   keyboard.Surface
	Raster spectrogram.Surface
}

// Build lays out the keyboard, sizes the spectrogram from its slices and
// returns a driver with no sources yet.
func Build(opts Options) (*Driver, error) {
	kb, err := keyboard.New(opts.Layout, opts.KeyColors, opts.Keys)
	if err != nil {
		return nil, err
	}
	buf, err := spectrogram.New(kb.Slices, opts.Height, opts.Raster, spectrogram.WithSentinel(opts.Sentinel))
	if err != nil {
		return nil, err
	}
	table := opts.Palette
	if len(table) == 0 {
		table = theme.Semitones
	}
	pal, err := theme.NewKeyPalette(table)
	if err != nil {
		return nil, err
	}
	pal.SetRotation(opts.Rotation)

	state := playback.NewState(kb.Len(), opts.NoteDuration)
	d, err := New(kb, buf, pal, state, playback.NewLevels(kb.Len(), opts.FPS))
	if err != nil {
		return nil, err
	}
	d.Mode = opts.Mode
	if opts.Threshold > 0 {
		d.Threshold = opts.Threshold
	}
	return d, nil
}

// OpenSource loads a note sequence (.json) or a MIDI file (.mid, .midi).
func OpenSource(path string, firstPitch int, sampleDelay time.Duration) (Source, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mid", ".midi", ".smf":
		p, err := playback.LoadMIDIFile(path, firstPitch)
		if err != nil {
			return nil, err
		}
		return p, nil
	}
	seq, err := playback.LoadSequence(path)
	if err != nil {
		return nil, err
	}
	return playback.NewScheduler(seq, sampleDelay), nil
}
