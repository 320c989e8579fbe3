package main

import (
	"context"
	"fmt"
	"os"

	"github.com/Southclaws/fault/fmsg"
	tea "github.com/charmbracelet/bubbletea"

	"keyscope/config"
	"keyscope/debug"
	"keyscope/frame"
	"keyscope/keyboard"
	"keyscope/midi"
	"keyscope/spectrogram"
	"keyscope/tui"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		msg := fmsg.GetIssue(err)
		if msg == "" {
			msg = err.Error()
		}
		fmt.Fprintf(os.Stderr, "Error: %s\n", msg)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if cfg.UI.Debug || os.Getenv("KEYSCOPE_DEBUG") == "1" {
		if err := debug.Enable(""); err != nil {
			fmt.Fprintf(os.Stderr, "debug log: %v\n", err)
		}
		defer debug.Disable()
	}

	th, err := cfg.Theme()
	if err != nil {
		return err
	}
	opts, err := cfg.FrameOptions()
	if err != nil {
		return err
	}

	keys := &keyboard.Recorder{}
	raster := &spectrogram.PixelSurface{}
	opts.Keys = keys
	opts.Raster = raster

	driver, err := frame.Build(opts)
	if err != nil {
		return err
	}
	debug.Log("main", "keyboard %dx%d, %d keys, raster height %d",
		driver.Keyboard.Width, driver.Keyboard.Height, driver.Keyboard.Len(), opts.Height)

	for _, path := range args {
		src, err := frame.OpenSource(path, opts.Layout.FirstPitch, cfg.SampleDelay())
		if err != nil {
			return err
		}
		driver.AddSource(src)
	}

	m := tui.NewModel(driver, raster, spectrogram.NewExporter(cfg.UI.ExportDir), th, cfg.UI.FPS)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.MIDI.Enabled {
		deviceMgr := midi.NewDeviceManager(cfg.MIDI.Input)
		feed := midi.NewFeed(opts.Layout.FirstPitch)
		driver.AddSource(feed)
		go deviceMgr.Run(ctx)
		m = m.WithMIDI(deviceMgr, feed)
	}

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err = p.Run()
	return err
}
