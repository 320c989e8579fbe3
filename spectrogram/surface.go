package spectrogram

import (
	"image"

	"keyscope/theme"
)

// ImageSurface mirrors every presented frame into an RGBA image.
type ImageSurface struct {
	img *image.RGBA
}

func NewImageSurface(width, height int) *ImageSurface {
	return &ImageSurface{img: image.NewRGBA(image.Rect(0, 0, width, height))}
}

func (s *ImageSurface) Size() (int, int) {
	r := s.img.Bounds()
	return r.Dx(), r.Dy()
}

func (s *ImageSurface) Present(pix []theme.Packed, width, height int) error {
	if w, h := s.Size(); w != width || h != height {
		s.img = image.NewRGBA(image.Rect(0, 0, width, height))
	}
	fill(s.img, pix)
	return nil
}

// Image returns the last presented frame. The image is reused between
// frames; copy it to keep a snapshot.
func (s *ImageSurface) Image() *image.RGBA {
	return s.img
}

// PixelSurface keeps a reference to the presented pixels without copying.
// Terminal views read from it between frames.
type PixelSurface struct {
	Pix    []theme.Packed
	Width  int
	Height int
}

func (s *PixelSurface) Present(pix []theme.Packed, width, height int) error {
	s.Pix = pix
	s.Width = width
	s.Height = height
	return nil
}
