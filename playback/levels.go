package playback

import (
	"github.com/charmbracelet/harmonica"
)

// Levels derives per-key intensities from the playback state. The
// reference level is the note volume while it sounds; the audio level
// follows the volume as it decays over the note, smoothed by a spring.
type Levels struct {
	spring    harmonica.Spring
	audio     []float64
	velocity  []float64
	reference []float64
}

func NewLevels(keys, fps int) *Levels {
	if fps < 1 {
		fps = 60
	}
	return &Levels{
		spring:    harmonica.NewSpring(harmonica.FPS(fps), 12.0, 0.9),
		audio:     make([]float64, keys),
		velocity:  make([]float64, keys),
		reference: make([]float64, keys),
	}
}

func (l *Levels) Len() int {
	return len(l.audio)
}

// Compute updates and returns the audio and reference levels. The returned
// slices are reused on the next call.
func (l *Levels) Compute(state *State) (audio, reference []float64) {
	for key := range l.audio {
		if key >= state.Len() {
			l.audio[key], l.reference[key] = 0, 0
			continue
		}
		n := state.Get(key)
		target := 0.0
		ref := 0.0
		if n.Sounding() {
			ref = n.Volume
			target = n.Volume * (1 - n.Progress())
		}
		pos, vel := l.spring.Update(l.audio[key], l.velocity[key], target)
		l.audio[key] = clamp01(pos)
		l.velocity[key] = vel
		l.reference[key] = ref
	}
	return l.audio, l.reference
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
