package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
	homedir "github.com/mitchellh/go-homedir"
	"golang.org/x/image/colornames"

	"keyscope/frame"
	"keyscope/keyboard"
	"keyscope/playback"
	"keyscope/spectrogram"
	"keyscope/theme"
)

// KeyboardConfig controls the keyboard layout and key colors
type KeyboardConfig struct {
	Layout      string  `json:"layout,omitempty"` // standard (69 keys) or full (88 keys)
	Scale       int     `json:"scale,omitempty"`
	Mode        string  `json:"mode,omitempty"` // highlight or precomputed
	Threshold   float64 `json:"threshold,omitempty"`
	ActiveColor string  `json:"activeColor,omitempty"` // color name or #rrggbb
	WhiteColor  string  `json:"whiteColor,omitempty"`
	BlackColor  string  `json:"blackColor,omitempty"`
}

// PaletteConfig selects the key and UI palettes
type PaletteConfig struct {
	Path     string `json:"path,omitempty"` // .gpl with one color per semitone
	Rotation int    `json:"rotation,omitempty"`
	UIPath   string `json:"uiPath,omitempty"`
}

// SpectrogramConfig sizes the raster history
type SpectrogramConfig struct {
	Height   int    `json:"height,omitempty"`
	Sentinel string `json:"sentinel,omitempty"` // opaque or transparent
}

// PlaybackConfig controls sequence stepping and note lengths
type PlaybackConfig struct {
	SampleDelayMs  int `json:"sampleDelayMs,omitempty"`
	NoteDurationMs int `json:"noteDurationMs,omitempty"`
}

// UIConfig stores UI preferences
type UIConfig struct {
	FPS       int    `json:"fps,omitempty"`
	ExportDir string `json:"exportDir,omitempty"`
	Debug     bool   `json:"debug,omitempty"`
}

// MIDIConfig selects live input ports
type MIDIConfig struct {
	Enabled bool   `json:"enabled"`
	Input   string `json:"input,omitempty"` // port name substring, empty = any
}

// Config is the main configuration structure
type Config struct {
	Keyboard    KeyboardConfig    `json:"keyboard"`
	Palette     PaletteConfig     `json:"palette,omitempty"`
	Spectrogram SpectrogramConfig `json:"spectrogram"`
	Playback    PlaybackConfig    `json:"playback"`
	UI          UIConfig          `json:"ui"`
	MIDI        MIDIConfig        `json:"midi"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Keyboard: KeyboardConfig{
			Layout:      "standard",
			Scale:       1,
			Mode:        ModeHighlight,
			Threshold:   keyboard.DefaultThreshold,
			ActiveColor: "red",
			WhiteColor:  "white",
			BlackColor:  "black",
		},
		Spectrogram: SpectrogramConfig{
			Height:   600,
			Sentinel: spectrogram.SentinelOpaque.String(),
		},
		Playback: PlaybackConfig{
			SampleDelayMs:  int(playback.DefaultSampleDelay / time.Millisecond),
			NoteDurationMs: int(playback.DefaultNoteDuration / time.Millisecond),
		},
		UI: UIConfig{
			FPS:       30,
			ExportDir: ".",
		},
		MIDI: MIDIConfig{
			Enabled: true,
		},
	}
}

const (
	ModeHighlight   = "highlight"
	ModePrecomputed = "precomputed"
)

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "keyscope"), nil
}

// ConfigPath returns the full path to config.json
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the config from disk, or returns defaults if not found
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return DefaultConfig(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads the config at path. Missing fields keep their defaults.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fault.Wrap(err, fmsg.With("read config"), ftag.With(ftag.Internal))
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fault.Wrap(err,
			fmsg.WithDesc("decode config", "Config file "+path+" is not valid JSON"),
			ftag.With(ftag.InvalidArgument))
	}

	if err := cfg.expandPaths(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) expandPaths() error {
	for _, p := range []*string{&c.Palette.Path, &c.Palette.UIPath, &c.UI.ExportDir} {
		expanded, err := homedir.Expand(*p)
		if err != nil {
			return fault.Wrap(err, fmsg.With("expand path "+*p), ftag.With(ftag.InvalidArgument))
		}
		*p = expanded
	}
	return nil
}

// Save writes the config to disk
func (c *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fault.Wrap(err, fmsg.With("create config dir"), ftag.With(ftag.Internal))
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fault.Wrap(err, fmsg.With("encode config"), ftag.With(ftag.Internal))
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fault.Wrap(err, fmsg.With("write config"), ftag.With(ftag.Internal))
	}
	return nil
}

// Validate checks every field that would otherwise fail later, mid-frame
func (c *Config) Validate() error {
	_, err := c.resolve()
	return err
}

// resolved holds the config fields that need parsing
type resolved struct {
	layout   keyboard.Layout
	colors   theme.KeyColors
	sentinel spectrogram.SentinelMode
	mode     frame.ModeKind
}

func (c *Config) resolve() (resolved, error) {
	var r resolved
	var err error
	if r.layout, err = c.Layout(); err != nil {
		return r, err
	}
	if r.colors, err = c.KeyColors(); err != nil {
		return r, err
	}
	if r.sentinel, err = c.SentinelMode(); err != nil {
		return r, err
	}
	switch c.Keyboard.Mode {
	case ModeHighlight:
		r.mode = frame.Highlight
	case ModePrecomputed:
		r.mode = frame.Precomputed
	default:
		return r, invalid("keyboard mode %q is not highlight or precomputed", c.Keyboard.Mode)
	}
	if c.Keyboard.Threshold < 0 || c.Keyboard.Threshold > 1 {
		return r, invalid("highlight threshold %v is outside [0,1]", c.Keyboard.Threshold)
	}
	if c.Spectrogram.Height < 1 {
		return r, invalid("spectrogram height %d must be positive", c.Spectrogram.Height)
	}
	if c.UI.FPS < 1 || c.UI.FPS > 240 {
		return r, invalid("fps %d is outside 1..240", c.UI.FPS)
	}
	if c.Playback.SampleDelayMs < 1 || c.Playback.NoteDurationMs < 1 {
		return r, invalid("sample delay and note duration must be positive")
	}
	return r, nil
}

// Layout returns the keyboard layout with the configured scale
func (c *Config) Layout() (keyboard.Layout, error) {
	l, err := keyboard.LayoutByName(c.Keyboard.Layout)
	if err != nil {
		return l, err
	}
	if c.Keyboard.Scale > 0 {
		l.Scale = c.Keyboard.Scale
	}
	return l, l.Validate()
}

// KeyColors resolves the configured key color names
func (c *Config) KeyColors() (theme.KeyColors, error) {
	var kc theme.KeyColors
	var err error
	if kc.Active, err = ResolveColor(c.Keyboard.ActiveColor); err != nil {
		return kc, err
	}
	if kc.White, err = ResolveColor(c.Keyboard.WhiteColor); err != nil {
		return kc, err
	}
	if kc.Black, err = ResolveColor(c.Keyboard.BlackColor); err != nil {
		return kc, err
	}
	return kc, nil
}

func (c *Config) SentinelMode() (spectrogram.SentinelMode, error) {
	switch c.Spectrogram.Sentinel {
	case "", "opaque":
		return spectrogram.SentinelOpaque, nil
	case "transparent":
		return spectrogram.SentinelTransparent, nil
	}
	return 0, invalid("sentinel mode %q is not opaque or transparent", c.Spectrogram.Sentinel)
}

func (c *Config) SampleDelay() time.Duration {
	return time.Duration(c.Playback.SampleDelayMs) * time.Millisecond
}

func (c *Config) NoteDuration() time.Duration {
	return time.Duration(c.Playback.NoteDurationMs) * time.Millisecond
}

// ResolveColor accepts an SVG color name ("red", "darkslateblue") or #rrggbb
func ResolveColor(s string) (theme.Packed, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "#") {
		p, err := theme.ParseHex(s)
		if err != nil {
			return 0, fault.Wrap(err,
				fmsg.WithDesc("parse color", fmt.Sprintf("%q is not a #rrggbb color", s)),
				ftag.With(ftag.InvalidArgument))
		}
		return p, nil
	}
	c, ok := colornames.Map[strings.ToLower(s)]
	if !ok {
		return 0, invalid("unknown color name %q", s)
	}
	return theme.Pack(c.R, c.G, c.B), nil
}

func invalid(format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	return fault.New(msg, fmsg.WithDesc("invalid config", msg), ftag.With(ftag.InvalidArgument))
}

// FrameOptions turns the config into driver options. The caller fills in
// the surfaces.
func (c *Config) FrameOptions() (frame.Options, error) {
	r, err := c.resolve()
	if err != nil {
		return frame.Options{}, err
	}

	var table []theme.RGB
	if c.Palette.Path != "" {
		p, err := theme.LoadGPL(c.Palette.Path)
		if err != nil {
			return frame.Options{}, err
		}
		table = p.Colors
	}

	return frame.Options{
		Layout:       r.layout,
		KeyColors:    r.colors,
		Palette:      table,
		Rotation:     c.Palette.Rotation,
		Height:       c.Spectrogram.Height,
		Sentinel:     r.sentinel,
		NoteDuration: c.NoteDuration(),
		FPS:          c.UI.FPS,
		Mode:         r.mode,
		Threshold:    c.Keyboard.Threshold,
	}, nil
}

// Theme builds the UI theme, loading the UI palette when one is configured.
func (c *Config) Theme() (*theme.Theme, error) {
	colors, err := c.KeyColors()
	if err != nil {
		return nil, err
	}
	var ui *theme.Palette
	if c.Palette.UIPath != "" {
		if ui, err = theme.LoadGPL(c.Palette.UIPath); err != nil {
			return nil, err
		}
	}
	return theme.New(ui, colors), nil
}
