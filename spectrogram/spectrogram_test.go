package spectrogram

import (
	"errors"
	"image/color"
	"os"
	"path/filepath"
	"testing"
	"time"

	"keyscope/theme"
)

var (
	r0 = theme.Pack(0x10, 0, 0)
	r1 = theme.Pack(0, 0x20, 0)
	r2 = theme.Pack(0, 0, 0x30)
	a0 = theme.Pack(0x01, 0x01, 0x01)
	a1 = theme.Pack(0x02, 0x02, 0x02)
	a2 = theme.Pack(0x03, 0x03, 0x03)
)

func newTestBuffer(t *testing.T, slices []int, height int, opts ...Option) (*Buffer, *PixelSurface) {
	t.Helper()
	surface := &PixelSurface{}
	b, err := New(slices, height, surface, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return b, surface
}

func expectRow(t *testing.T, b *Buffer, y int, want ...theme.Packed) {
	t.Helper()
	got := b.Row(y)
	if len(got) != len(want) {
		t.Fatalf("row %d: expected %d pixels, got %d", y, len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("row %d col %d: expected %08x, got %08x", y, i, uint32(want[i]), uint32(got[i]))
		}
	}
}

func op(c theme.Packed) theme.Packed { return c.Opaque() }

func TestBarThenBorder(t *testing.T) {
	b, surface := newTestBuffer(t, []int{2, 3, 2}, 3)
	audio := []theme.Packed{a0, a1, a2}
	ref := []theme.Packed{r0, r1, r2}

	if err := b.Update(audio, ref); err != nil {
		t.Fatalf("Update: %v", err)
	}
	expectRow(t, b, 2, op(r0), op(r0), op(r1), op(r1), op(r1), op(r2), op(r2))
	expectRow(t, b, 1, 0, 0, 0, 0, 0, 0, 0)

	if err := b.Update(audio, ref); err != nil {
		t.Fatalf("Update: %v", err)
	}
	// two-column slices are all border
	expectRow(t, b, 2, op(r0), op(r0), op(r1), op(a1), op(r1), op(r2), op(r2))
	expectRow(t, b, 1, op(r0), op(r0), op(r1), op(r1), op(r1), op(r2), op(r2))
	expectRow(t, b, 0, 0, 0, 0, 0, 0, 0, 0)

	if surface.Width != 7 || surface.Height != 3 || len(surface.Pix) != 21 {
		t.Fatalf("unexpected presented frame %dx%d (%d pixels)", surface.Width, surface.Height, len(surface.Pix))
	}
	if b.Frames() != 2 {
		t.Fatalf("expected 2 frames, got %d", b.Frames())
	}
}

func TestScrollMovesRowsUp(t *testing.T) {
	b, _ := newTestBuffer(t, []int{1, 1}, 4)

	for i := 1; i <= 6; i++ {
		marker := theme.Pack(uint8(i), 0, 0)
		ref := []theme.Packed{marker, marker}
		if err := b.Update(ref, ref); err != nil {
			t.Fatalf("Update %d: %v", i, err)
		}
	}
	// newest at the bottom, older frames above in order
	for y := 0; y < 4; y++ {
		want := op(theme.Pack(uint8(3+y), 0, 0))
		if got := b.At(0, y); got != want {
			t.Fatalf("row %d: expected %08x, got %08x", y, uint32(want), uint32(got))
		}
	}
}

func TestSentinelReusesLastReference(t *testing.T) {
	b, _ := newTestBuffer(t, []int{3}, 2)
	audio := []theme.Packed{a0}

	if err := b.Update(audio, []theme.Packed{r0}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	// reference drops to the sentinel: bar in the last known color
	if err := b.Update(audio, []theme.Packed{theme.Sentinel}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	expectRow(t, b, 1, op(r0), op(r0), op(r0))

	// unchanged sentinel: border of sentinel around the audio color
	if err := b.Update(audio, []theme.Packed{theme.Sentinel}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	expectRow(t, b, 1, op(0), op(a0), op(0))
}

func TestFirstFrameSentinel(t *testing.T) {
	b, _ := newTestBuffer(t, []int{3}, 1)

	if err := b.Update([]theme.Packed{a0}, []theme.Packed{theme.Sentinel}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	expectRow(t, b, 0, theme.AlphaOpaque, theme.AlphaOpaque, theme.AlphaOpaque)

	if err := b.Update([]theme.Packed{a0}, []theme.Packed{theme.Sentinel}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	expectRow(t, b, 0, theme.AlphaOpaque, op(a0), theme.AlphaOpaque)
}

func TestSentinelTransparent(t *testing.T) {
	b, _ := newTestBuffer(t, []int{3}, 1, WithSentinel(SentinelTransparent))

	b.Update([]theme.Packed{a0}, []theme.Packed{theme.Sentinel})
	b.Update([]theme.Packed{a0}, []theme.Packed{theme.Sentinel})
	expectRow(t, b, 0, 0, op(a0), 0)

	if SentinelTransparent.String() != "transparent" || SentinelOpaque.String() != "opaque" {
		t.Fatal("unexpected sentinel mode names")
	}
}

func TestAlphaAlwaysOpaque(t *testing.T) {
	b, _ := newTestBuffer(t, []int{4, 4}, 2)
	audio := []theme.Packed{theme.Pack(1, 2, 3), theme.Pack(4, 5, 6)}
	ref := []theme.Packed{theme.Pack(7, 8, 9), theme.Pack(10, 11, 12)}

	for i := 0; i < 2; i++ {
		if err := b.Update(audio, ref); err != nil {
			t.Fatalf("Update: %v", err)
		}
	}
	for y := 0; y < 2; y++ {
		for x := 0; x < 8; x++ {
			if a := b.At(x, y).Alpha(); a != 0xff {
				t.Fatalf("pixel (%d,%d) has alpha %d", x, y, a)
			}
		}
	}
}

func TestNewPreconditions(t *testing.T) {
	if _, err := New([]int{2}, 3, nil); !errors.Is(err, ErrNoSurface) {
		t.Fatalf("expected ErrNoSurface, got %v", err)
	}
	if _, err := New(nil, 3, &PixelSurface{}); !errors.Is(err, ErrSliceWidth) {
		t.Fatalf("expected ErrSliceWidth for no slices, got %v", err)
	}
	if _, err := New([]int{2, 0}, 3, &PixelSurface{}); !errors.Is(err, ErrSliceWidth) {
		t.Fatalf("expected ErrSliceWidth for zero slice, got %v", err)
	}
	if _, err := New([]int{2}, 0, &PixelSurface{}); !errors.Is(err, ErrHeight) {
		t.Fatalf("expected ErrHeight, got %v", err)
	}
	if _, err := New([]int{2, 3}, 4, NewImageSurface(4, 4)); !errors.Is(err, ErrSurfaceSize) {
		t.Fatalf("expected ErrSurfaceSize, got %v", err)
	}
	if _, err := New([]int{2, 3}, 4, NewImageSurface(5, 4)); err != nil {
		t.Fatalf("expected matching image surface to work, got %v", err)
	}
}

func TestUpdateLengthMismatch(t *testing.T) {
	b, surface := newTestBuffer(t, []int{2, 2}, 2)

	err := b.Update([]theme.Packed{a0}, []theme.Packed{r0, r1})
	if !errors.Is(err, ErrLengthMismatch) {
		t.Fatalf("expected ErrLengthMismatch, got %v", err)
	}
	if b.Frames() != 0 || surface.Pix != nil {
		t.Fatal("a rejected update should not touch the raster")
	}
}

func TestImageByteOrder(t *testing.T) {
	s := NewImageSurface(2, 1)
	b, err := New([]int{2}, 1, s)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	c := theme.Pack(0x11, 0x22, 0x33)
	if err := b.Update([]theme.Packed{c}, []theme.Packed{c}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	want := color.RGBA{0x11, 0x22, 0x33, 0xff}
	if got := s.Image().RGBAAt(1, 0); got != want {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if got := b.Image().RGBAAt(0, 0); got != want {
		t.Fatalf("expected %v from buffer image, got %v", want, got)
	}
}

func TestExporter(t *testing.T) {
	dir := t.TempDir()
	e := NewExporter(dir)
	e.now = func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }

	img := NewImageSurface(3, 2).Image()
	first, err := e.Export(img)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if filepath.Base(first) != DefaultExportName {
		t.Fatalf("expected %s, got %s", DefaultExportName, first)
	}

	second, err := e.Export(img)
	if err != nil {
		t.Fatalf("second Export: %v", err)
	}
	if filepath.Base(second) != "pianolizer-20240301-120000.000.png" {
		t.Fatalf("expected a timestamped name, got %s", second)
	}
	third, err := e.Export(img)
	if err != nil {
		t.Fatalf("third Export: %v", err)
	}
	if filepath.Base(third) != "pianolizer-20240301-120000.000-2.png" {
		t.Fatalf("expected a numbered name within the same millisecond, got %s", third)
	}

	for _, p := range []string{first, second, third} {
		if _, err := os.Stat(p); err != nil {
			t.Fatalf("expected %s to exist: %v", p, err)
		}
	}
}
