package spectrogram

import (
	"encoding/binary"
	"errors"
	"fmt"
	"image"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"

	"keyscope/theme"
)

var (
	ErrNoSurface      = errors.New("no rendering surface")
	ErrSliceWidth     = errors.New("invalid key slices")
	ErrHeight         = errors.New("invalid raster height")
	ErrSurfaceSize    = errors.New("surface size does not match raster")
	ErrLengthMismatch = errors.New("per-key color count does not match slices")
)

// Surface is the display target. Present receives the whole buffer, row
// major, once per update.
type Surface interface {
	Present(pix []theme.Packed, width, height int) error
}

// Sizer is implemented by surfaces with a fixed size of their own.
type Sizer interface {
	Size() (width, height int)
}

// SentinelMode decides how a pixel whose color resolves to the sentinel
// is written.
type SentinelMode int

const (
	// SentinelOpaque writes the sentinel as opaque black.
	SentinelOpaque SentinelMode = iota
	// SentinelTransparent leaves sentinel pixels fully transparent.
	SentinelTransparent
)

func (m SentinelMode) String() string {
	if m == SentinelTransparent {
		return "transparent"
	}
	return "opaque"
}

type Option func(*Buffer)

func WithSentinel(m SentinelMode) Option {
	return func(b *Buffer) {
		b.sentinel = m
	}
}

// Buffer is a scrolling raster history. Time runs bottom to top: every
// update pushes the image one row up and paints a fresh bottom row, with
// each key owning a slice of columns.
type Buffer struct {
	slices []int
	width  int
	height int
	pix    []theme.Packed

	// last reference color written per key, and whether one was written
	last   []theme.Packed
	primed []bool

	surface  Surface
	sentinel SentinelMode
	frames   int
}

func New(slices []int, height int, surface Surface, opts ...Option) (*Buffer, error) {
	if surface == nil {
		return nil, fault.Wrap(ErrNoSurface,
			fmsg.WithDesc("new spectrogram", "The spectrogram needs a surface to draw on"),
			ftag.With(ftag.InvalidArgument))
	}
	if len(slices) == 0 {
		return nil, fault.Wrap(ErrSliceWidth, fmsg.With("no key slices"), ftag.With(ftag.InvalidArgument))
	}
	if height < 1 {
		return nil, fault.Wrap(ErrHeight,
			fmsg.With(fmt.Sprintf("height %d", height)),
			ftag.With(ftag.InvalidArgument))
	}

	width := 0
	for i, w := range slices {
		if w < 1 {
			return nil, fault.Wrap(ErrSliceWidth,
				fmsg.With(fmt.Sprintf("key %d has slice width %d", i, w)),
				ftag.With(ftag.InvalidArgument))
		}
		width += w
	}

	if s, ok := surface.(Sizer); ok {
		sw, sh := s.Size()
		if sw != width || sh != height {
			return nil, fault.Wrap(ErrSurfaceSize,
				fmsg.With(fmt.Sprintf("surface is %dx%d, raster is %dx%d", sw, sh, width, height)),
				ftag.With(ftag.InvalidArgument))
		}
	}

	b := &Buffer{
		slices:  append([]int(nil), slices...),
		width:   width,
		height:  height,
		pix:     make([]theme.Packed, width*height),
		last:    make([]theme.Packed, len(slices)),
		primed:  make([]bool, len(slices)),
		surface: surface,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

func (b *Buffer) Width() int  { return b.width }
func (b *Buffer) Height() int { return b.height }
func (b *Buffer) Keys() int   { return len(b.slices) }

// Frames counts completed updates.
func (b *Buffer) Frames() int { return b.frames }

// Update scrolls the history by one row, paints the bottom row from the
// per-key colors and presents the whole buffer.
//
// A key whose reference color changed since the last frame gets a flat
// bar across its slice. An unchanged reference becomes a one pixel border
// around the audio color.
func (b *Buffer) Update(audio, reference []theme.Packed) error {
	if len(audio) != len(b.slices) || len(reference) != len(b.slices) {
		return fault.Wrap(ErrLengthMismatch,
			fmsg.With(fmt.Sprintf("got %d audio and %d reference colors for %d keys", len(audio), len(reference), len(b.slices))),
			ftag.With(ftag.InvalidArgument))
	}

	lastLine := b.width * (b.height - 1)
	copy(b.pix[:lastLine], b.pix[b.width:])

	j := lastLine
	for key, slice := range b.slices {
		ref := reference[key]
		if !b.primed[key] || b.last[key] != ref {
			c := ref
			if c == theme.Sentinel {
				c = b.last[key]
			}
			for i := 0; i < slice; i, j = i+1, j+1 {
				b.pix[j] = b.opaque(c)
			}
			b.last[key] = ref
			b.primed[key] = true
			continue
		}
		for i := 0; i < slice; i, j = i+1, j+1 {
			c := audio[key]
			if i < 1 || i >= slice-1 {
				c = ref
			}
			b.pix[j] = b.opaque(c)
		}
	}

	b.frames++
	return b.surface.Present(b.pix, b.width, b.height)
}

func (b *Buffer) opaque(c theme.Packed) theme.Packed {
	if c == theme.Sentinel && b.sentinel == SentinelTransparent {
		return 0
	}
	return c.Opaque()
}

// At returns the pixel at column x, row y (row 0 is the oldest).
func (b *Buffer) At(x, y int) theme.Packed {
	return b.pix[y*b.width+x]
}

// Row returns a copy of row y.
func (b *Buffer) Row(y int) []theme.Packed {
	row := make([]theme.Packed, b.width)
	copy(row, b.pix[y*b.width:(y+1)*b.width])
	return row
}

// Image copies the current buffer into an RGBA image.
func (b *Buffer) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, b.width, b.height))
	fill(img, b.pix)
	return img
}

func fill(img *image.RGBA, pix []theme.Packed) {
	for i, c := range pix {
		binary.LittleEndian.PutUint32(img.Pix[i*4:], uint32(c))
	}
}
