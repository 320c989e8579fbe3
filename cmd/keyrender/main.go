package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Southclaws/fault/fmsg"

	"keyscope/config"
	"keyscope/debug"
	"keyscope/frame"
	"keyscope/keyboard"
	"keyscope/midi"
	"keyscope/spectrogram"
)

const (
	// frames rendered after the last note ends
	tailFrames = 120
	maxRender  = time.Hour
)

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}

	if os.Getenv("KEYSCOPE_DEBUG") == "1" {
		debug.EnableWriter(os.Stderr)
		defer debug.Disable()
	}

	var err error
	switch os.Args[1] {
	case "layout":
		err = printLayout(os.Args[2:])
	case "render":
		err = render(os.Args[2:])
	case "ports":
		listPorts()
	default:
		usage()
	}
	if err != nil {
		msg := fmsg.GetIssue(err)
		if msg == "" {
			msg = err.Error()
		}
		fmt.Fprintf(os.Stderr, "Error: %s\n", msg)
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("keyrender - headless keyscope renderer")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  layout [standard|full]        - Print key geometry and raster slices")
	fmt.Println("  render <song> <out.png>       - Play a .json sequence or .mid file and save the raster")
	fmt.Println("  ports                         - List MIDI input ports")
}

func printLayout(args []string) error {
	name := "standard"
	if len(args) > 0 {
		name = args[0]
	}
	layout, err := keyboard.LayoutByName(name)
	if err != nil {
		return err
	}
	cfg := config.DefaultConfig()
	colors, err := cfg.KeyColors()
	if err != nil {
		return err
	}

	rec := &keyboard.Recorder{}
	kb, err := keyboard.New(layout, colors, rec)
	if err != nil {
		return err
	}

	fmt.Printf("%d keys, %dx%d\n", kb.Len(), kb.Width, kb.Height)
	fmt.Printf("%-5s %-5s %-6s %5s %5s %5s  %s\n", "key", "pitch", "kind", "x", "width", "slice", "label")
	for i, k := range kb.Keys {
		label := ""
		if l := kb.Labels[i]; l != nil {
			label = l.Text
		}
		fmt.Printf("%-5d %-5d %-6s %5d %5d %5d  %s\n", i, k.Pitch, k.Kind, k.X, k.Width, kb.Slices[i], label)
	}
	return nil
}

func render(args []string) error {
	if len(args) < 2 {
		usage()
		return nil
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	frames, path, err := renderSong(cfg, args[0], args[1])
	if err != nil {
		return err
	}
	fmt.Printf("%d frames -> %s\n", frames, path)
	return nil
}

// renderSong plays song to the end without a terminal and saves the raster
// to out. It returns the frame count and the path written.
func renderSong(cfg *config.Config, song, out string) (int, string, error) {
	opts, err := cfg.FrameOptions()
	if err != nil {
		return 0, "", err
	}

	// the raster surface has to know its size up front
	probe, err := keyboard.New(opts.Layout, opts.KeyColors, &keyboard.Recorder{})
	if err != nil {
		return 0, "", err
	}
	raster := spectrogram.NewImageSurface(probe.Width, opts.Height)
	opts.Keys = &keyboard.Recorder{}
	opts.Raster = raster

	driver, err := frame.Build(opts)
	if err != nil {
		return 0, "", err
	}
	src, err := frame.OpenSource(song, opts.Layout.FirstPitch, cfg.SampleDelay())
	if err != nil {
		return 0, "", err
	}
	driver.AddSource(src)

	dt := time.Second / time.Duration(cfg.UI.FPS)
	if err := driver.Render(dt, tailFrames, int(maxRender/dt)); err != nil {
		return driver.Frames(), "", err
	}

	exporter := spectrogram.NewExporter(filepath.Dir(out))
	exporter.Name = filepath.Base(out)
	path, err := exporter.Export(raster.Image())
	if err != nil {
		return driver.Frames(), "", err
	}
	return driver.Frames(), path, nil
}

func listPorts() {
	fmt.Println("=== MIDI Input Ports ===")
	fmt.Println("(waiting up to 3 seconds...)")

	ports, ok := midi.InPorts(3 * time.Second)
	if !ok {
		fmt.Println("\nTIMEOUT! CoreMIDI is hung.")
		fmt.Println("Fix: sudo killall coreaudiod midiserver")
		return
	}
	for i, p := range ports {
		marker := ""
		if strings.Contains(strings.ToLower(p.String()), "through") {
			marker = " (skipped by default)"
		}
		fmt.Printf("  %d: %s%s\n", i, p.String(), marker)
	}
}
