package midi

import (
	"time"

	"keyscope/playback"
)

// Drain moves pending note events into state without blocking and returns
// how many were applied. firstPitch is the MIDI note of key 0; notes off
// the keyboard are ignored.
func Drain(events <-chan NoteEvent, state *playback.State, firstPitch int) (int, error) {
	applied := 0
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return applied, nil
			}
			key := int(ev.Note) - firstPitch
			if key < 0 || key >= state.Len() {
				continue
			}
			volume := float64(playback.Stop)
			if ev.Velocity > 0 {
				volume = float64(ev.Velocity) / 127
			}
			if err := state.Play(key, volume); err != nil {
				return applied, err
			}
			applied++
		default:
			return applied, nil
		}
	}
}

// Feed drains every attached controller into the playback state once per
// frame. It never finishes.
type Feed struct {
	firstPitch int
	inputs     map[string]<-chan NoteEvent
}

func NewFeed(firstPitch int) *Feed {
	return &Feed{firstPitch: firstPitch, inputs: make(map[string]<-chan NoteEvent)}
}

func (f *Feed) Attach(c Controller) {
	f.inputs[c.ID()] = c.NoteEvents()
}

func (f *Feed) Detach(id string) {
	delete(f.inputs, id)
}

func (f *Feed) Inputs() int {
	return len(f.inputs)
}

func (f *Feed) Advance(dt time.Duration, state *playback.State) error {
	for _, events := range f.inputs {
		if _, err := Drain(events, state, f.firstPitch); err != nil {
			return err
		}
	}
	return nil
}

func (f *Feed) Done() bool {
	return false
}
