package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Southclaws/fault/ftag"

	"keyscope/frame"
	"keyscope/spectrogram"
	"keyscope/theme"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
	if cfg.SampleDelay() != 67*time.Millisecond {
		t.Fatalf("expected 67ms sample delay, got %v", cfg.SampleDelay())
	}
	if cfg.NoteDuration() != 4*time.Second {
		t.Fatalf("expected 4s notes, got %v", cfg.NoteDuration())
	}

	kc, err := cfg.KeyColors()
	if err != nil {
		t.Fatalf("KeyColors: %v", err)
	}
	if kc != theme.DefaultKeyColors() {
		t.Fatalf("expected default key colors, got %+v", kc)
	}
}

func TestLoadFromMissingFile(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "config.json"))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Spectrogram.Height != 600 {
		t.Fatalf("expected default height, got %d", cfg.Spectrogram.Height)
	}
}

func TestLoadFromPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	body := `{"keyboard": {"layout": "full", "mode": "precomputed"}, "spectrogram": {"sentinel": "transparent"}}`
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Keyboard.ActiveColor != "red" || cfg.UI.FPS != 30 {
		t.Fatal("expected unset fields to keep their defaults")
	}

	opts, err := cfg.FrameOptions()
	if err != nil {
		t.Fatalf("FrameOptions: %v", err)
	}
	if opts.Layout.KeyCount != 88 || opts.Mode != frame.Precomputed || opts.Sentinel != spectrogram.SentinelTransparent {
		t.Fatalf("unexpected options %+v", opts)
	}
}

func TestLoadFromBadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFrom(path); ftag.Get(err) != ftag.InvalidArgument {
		t.Fatalf("expected invalid argument, got %v", err)
	}
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]func(*Config){
		"layout":    func(c *Config) { c.Keyboard.Layout = "harpsichord" },
		"mode":      func(c *Config) { c.Keyboard.Mode = "rainbow" },
		"threshold": func(c *Config) { c.Keyboard.Threshold = 2 },
		"color":     func(c *Config) { c.Keyboard.ActiveColor = "notacolor" },
		"hex":       func(c *Config) { c.Keyboard.WhiteColor = "#12" },
		"sentinel":  func(c *Config) { c.Spectrogram.Sentinel = "blink" },
		"height":    func(c *Config) { c.Spectrogram.Height = 0 },
		"fps":       func(c *Config) { c.UI.FPS = 0 },
		"delay":     func(c *Config) { c.Playback.SampleDelayMs = 0 },
	}
	for name, mutate := range cases {
		cfg := DefaultConfig()
		mutate(cfg)
		err := cfg.Validate()
		if err == nil {
			t.Fatalf("%s: expected a validation error", name)
		}
		if ftag.Get(err) != ftag.InvalidArgument {
			t.Fatalf("%s: expected invalid argument, got %v", name, err)
		}
		if _, err := cfg.FrameOptions(); ftag.Get(err) != ftag.InvalidArgument {
			t.Fatalf("%s: expected FrameOptions to fail too, got %v", name, err)
		}
	}
}

func TestFrameOptionsResolvesFields(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Keyboard.Scale = 2
	cfg.Keyboard.ActiveColor = "#00ff00"

	opts, err := cfg.FrameOptions()
	if err != nil {
		t.Fatalf("FrameOptions: %v", err)
	}
	if opts.Layout.Scale != 2 || opts.Layout.KeyCount != 69 {
		t.Fatalf("unexpected layout %+v", opts.Layout)
	}
	if opts.KeyColors.Active != theme.Pack(0, 0xff, 0) {
		t.Fatalf("expected green active color, got %s", opts.KeyColors.Active.Hex())
	}
	if opts.Mode != frame.Highlight || opts.Sentinel != spectrogram.SentinelOpaque {
		t.Fatalf("expected highlight and opaque defaults, got %v %v", opts.Mode, opts.Sentinel)
	}
}

func TestResolveColor(t *testing.T) {
	cases := map[string]theme.Packed{
		"red":           theme.Pack(0xff, 0, 0),
		"DarkSlateBlue": theme.Pack(0x48, 0x3d, 0x8b),
		" #0a0b0c ":     theme.Pack(0x0a, 0x0b, 0x0c),
	}
	for in, want := range cases {
		got, err := ResolveColor(in)
		if err != nil {
			t.Fatalf("%q: %v", in, err)
		}
		if got != want {
			t.Fatalf("%q: expected %s, got %s", in, want.Hex(), got.Hex())
		}
	}
}

func TestSaveToRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")
	cfg := DefaultConfig()
	cfg.Palette.Rotation = 5
	cfg.MIDI.Enabled = false

	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}
	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if loaded.Palette.Rotation != 5 || loaded.MIDI.Enabled {
		t.Fatalf("expected saved values back, got %+v", loaded)
	}
}

func TestFrameOptionsLoadsPalette(t *testing.T) {
	dir := t.TempDir()
	gpl := "GIMP Palette\nName: two\n#\n255 0 0\tred\n0 0 255\tblue\n"
	path := filepath.Join(dir, "keys.gpl")
	if err := os.WriteFile(path, []byte(gpl), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := DefaultConfig()
	cfg.Palette.Path = path
	opts, err := cfg.FrameOptions()
	if err != nil {
		t.Fatalf("FrameOptions: %v", err)
	}
	if len(opts.Palette) != 2 || opts.Palette[1] != (theme.RGB{0, 0, 255}) {
		t.Fatalf("unexpected palette %v", opts.Palette)
	}

	cfg.Palette.Path = filepath.Join(dir, "missing.gpl")
	if _, err := cfg.FrameOptions(); ftag.Get(err) != ftag.NotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}
