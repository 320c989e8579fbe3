package frame

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"keyscope/keyboard"
	"keyscope/playback"
	"keyscope/spectrogram"
	"keyscope/theme"
)

type scriptSource struct {
	plays map[int]float64
	done  bool
}

func (s *scriptSource) Advance(dt time.Duration, state *playback.State) error {
	if s.done {
		return nil
	}
	for key, v := range s.plays {
		if err := state.Play(key, v); err != nil {
			return err
		}
	}
	s.done = true
	return nil
}

func (s *scriptSource) Done() bool { return s.done }

func testOptions() Options {
	return Options{
		Layout:    keyboard.DefaultLayout(),
		KeyColors: theme.DefaultKeyColors(),
		Height:    4,
		FPS:       30,
		Keys:      &keyboard.Recorder{},
		Raster:    &spectrogram.PixelSurface{},
	}
}

func TestStepSkipsUntilReady(t *testing.T) {
	d, err := Build(testOptions())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	res, err := d.Step(33 * time.Millisecond)
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	if !res.Skipped || d.Buffer.Frames() != 0 {
		t.Fatalf("expected a skipped frame, got %+v with %d raster frames", res, d.Buffer.Frames())
	}
}

func TestStepDrawsKeyboardAndRaster(t *testing.T) {
	d, err := Build(testOptions())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	d.AddSource(&scriptSource{plays: map[int]float64{0: 1}})

	res, err := d.Step(33 * time.Millisecond)
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	if res.Skipped || res.Frame != 1 || d.Frames() != 1 {
		t.Fatalf("expected frame 1, got %+v", res)
	}

	if d.Keyboard.Keys[0].Fill != theme.DefaultKeyColors().Active {
		t.Fatalf("expected key 0 highlighted, got %s", d.Keyboard.Keys[0].Fill.Hex())
	}
	if d.Keyboard.Keys[1].Fill != theme.DefaultKeyColors().White {
		t.Fatalf("expected key 1 at rest, got %s", d.Keyboard.Keys[1].Fill.Hex())
	}

	// a new reference paints a flat bar across the key's slice
	want := theme.FromRGB(d.Palette.Entry(0)).Opaque()
	bottom := d.Buffer.Height() - 1
	for x := 0; x < d.Keyboard.Slices[0]; x++ {
		if got := d.Buffer.At(x, bottom); got != want {
			t.Fatalf("column %d: expected %s, got %s", x, want.Hex(), got.Hex())
		}
	}
	if got := d.Buffer.At(d.Keyboard.Slices[0], bottom); got != theme.AlphaOpaque {
		t.Fatalf("expected silent key 1 to be opaque black, got %08x", uint32(got))
	}

	if d.Done() {
		t.Fatal("a sounding note keeps the driver running")
	}
}

func TestToggleMode(t *testing.T) {
	d, err := Build(testOptions())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	d.AddSource(&scriptSource{plays: map[int]float64{0: 1}})

	if got := d.ToggleMode(); got != Precomputed || got.String() != "precomputed" {
		t.Fatalf("expected precomputed, got %v", got)
	}
	if _, err := d.Step(33 * time.Millisecond); err != nil {
		t.Fatalf("Step: %v", err)
	}
	want := theme.FromRGB(d.Palette.Entry(0)).Lift(0x55)
	if got := d.Keyboard.Keys[0].Stroke; got != want {
		t.Fatalf("expected stroke %s, got %s", want.Hex(), got.Hex())
	}
	if d.ToggleMode() != Highlight {
		t.Fatal("expected highlight after a second toggle")
	}
}

func TestStepReportsSourceErrors(t *testing.T) {
	d, err := Build(testOptions())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	d.AddSource(&scriptSource{plays: map[int]float64{0: 3}})

	if _, err := d.Step(time.Millisecond); !errors.Is(err, playback.ErrVolumeRange) {
		t.Fatalf("expected ErrVolumeRange, got %v", err)
	}
}

func TestNewChecksKeyCounts(t *testing.T) {
	kb, err := keyboard.New(keyboard.DefaultLayout(), theme.DefaultKeyColors(), &keyboard.Recorder{})
	if err != nil {
		t.Fatal(err)
	}
	buf, err := spectrogram.New([]int{1, 1}, 2, &spectrogram.PixelSurface{})
	if err != nil {
		t.Fatal(err)
	}
	pal, _ := theme.NewKeyPalette(theme.Semitones)

	_, err = New(kb, buf, pal, playback.NewState(kb.Len(), 0), playback.NewLevels(kb.Len(), 30))
	if !errors.Is(err, ErrKeyCount) {
		t.Fatalf("expected ErrKeyCount, got %v", err)
	}
	good, err := spectrogram.New(kb.Slices, 2, &spectrogram.PixelSurface{})
	if err != nil {
		t.Fatal(err)
	}
	_, err = New(kb, good, pal, playback.NewState(kb.Len(), 0), playback.NewLevels(kb.Len()-1, 30))
	if !errors.Is(err, ErrKeyCount) {
		t.Fatalf("expected ErrKeyCount for short levels, got %v", err)
	}
	if _, err := New(kb, nil, pal, nil, nil); err == nil {
		t.Fatal("expected an error for missing components")
	}
}

func TestBuildUsesRotation(t *testing.T) {
	opts := testOptions()
	opts.Rotation = -1
	d, err := Build(opts)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if d.Palette.Entry(0) != theme.Semitones[11] {
		t.Fatalf("expected key 0 to take the last semitone color, got %v", d.Palette.Entry(0))
	}
}

func TestOpenSource(t *testing.T) {
	dir := t.TempDir()
	seqPath := filepath.Join(dir, "notes.json")
	if err := os.WriteFile(seqPath, []byte(`[[1, 0], [0, 1]]`), 0644); err != nil {
		t.Fatal(err)
	}

	src, err := OpenSource(seqPath, 40, 0)
	if err != nil {
		t.Fatalf("OpenSource: %v", err)
	}
	if _, ok := src.(*playback.Scheduler); !ok {
		t.Fatalf("expected a scheduler for .json, got %T", src)
	}

	src, err = OpenSource(filepath.Join(dir, "missing.mid"), 40, 0)
	if err == nil || src != nil {
		t.Fatalf("expected a nil source and an error, got %v, %v", src, err)
	}
}

type endlessSource struct{}

func (endlessSource) Advance(time.Duration, *playback.State) error { return nil }
func (endlessSource) Done() bool                                    { return false }

func TestRenderRunsTailAfterLastNote(t *testing.T) {
	opts := testOptions()
	opts.NoteDuration = 100 * time.Millisecond
	d, err := Build(opts)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	d.AddSource(&scriptSource{plays: map[int]float64{0: 1}})

	if err := d.Render(10*time.Millisecond, 5, 0); err != nil {
		t.Fatalf("Render: %v", err)
	}
	// the note sounds for 10 frames after the one that starts it
	if d.Frames() != 16 {
		t.Fatalf("expected 11 frames of the note and 5 of tail, got %d", d.Frames())
	}
	if !d.Done() {
		t.Fatal("expected the driver to be done")
	}
}

func TestRenderStopsAtLimit(t *testing.T) {
	d, err := Build(testOptions())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	d.AddSource(endlessSource{})

	if err := d.Render(10*time.Millisecond, 5, 20); !errors.Is(err, ErrFrameLimit) {
		t.Fatalf("expected ErrFrameLimit, got %v", err)
	}
	if d.Frames() != 20 {
		t.Fatalf("expected 20 frames before giving up, got %d", d.Frames())
	}
}
