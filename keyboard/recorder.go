package keyboard

// Recorder is a Surface that keeps the handles in drawing order. Headless
// tools and tests render from it.
type Recorder struct {
	Keys   []*Key
	Labels []*Label
	Width  int
	Height int
}

func (r *Recorder) AddKey(k *Key) {
	r.Keys = append(r.Keys, k)
}

func (r *Recorder) AddLabel(l *Label) {
	r.Labels = append(r.Labels, l)
}

func (r *Recorder) Resize(width, height int) {
	r.Width = width
	r.Height = height
}
