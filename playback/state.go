// Package playback models what each key is doing: whether its note is
// sounding, for how long, and at what volume. The frame driver owns one
// State and passes it to everything that reads or changes it.
package playback

import (
	"errors"
	"fmt"
	"time"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
)

var (
	ErrKeyRange    = errors.New("key index out of range")
	ErrVolumeRange = errors.New("volume must be -1 or within [0,1]")
)

// Stop is the volume that silences a note.
const Stop = -1

const DefaultNoteDuration = 4 * time.Second

// Readiness tells the frame driver whether there is anything to draw yet.
type Readiness int

const (
	NotReady Readiness = iota
	Ready
)

func (r Readiness) String() string {
	if r == Ready {
		return "ready"
	}
	return "not ready"
}

// NoteState is the playback record of one key.
type NoteState struct {
	Paused   bool
	Elapsed  time.Duration
	Duration time.Duration
	Volume   float64
}

// Sounding reports whether the note is playing.
func (n NoteState) Sounding() bool {
	return !n.Paused
}

// Progress is the played fraction of the note, 0 when it has no duration.
func (n NoteState) Progress() float64 {
	if n.Duration <= 0 {
		return 0
	}
	p := float64(n.Elapsed) / float64(n.Duration)
	if p > 1 {
		return 1
	}
	return p
}

type State struct {
	notes     []NoteState
	readiness Readiness
}

// NewState creates a state for keys notes, all paused, each lasting
// duration once started.
func NewState(keys int, duration time.Duration) *State {
	if duration <= 0 {
		duration = DefaultNoteDuration
	}
	notes := make([]NoteState, keys)
	for i := range notes {
		notes[i] = NoteState{Paused: true, Duration: duration}
	}
	return &State{notes: notes}
}

func (s *State) Len() int {
	return len(s.notes)
}

// Note implements keyboard.NoteStates.
func (s *State) Note(key int) (paused bool, elapsed, duration time.Duration) {
	n := s.notes[key]
	return n.Paused, n.Elapsed, n.Duration
}

func (s *State) Get(key int) NoteState {
	return s.notes[key]
}

func (s *State) Readiness() Readiness {
	return s.readiness
}

func (s *State) Ready() bool {
	return s.readiness == Ready
}

func (s *State) MarkReady() {
	s.readiness = Ready
}

// Play starts key at volume, or restarts it from the beginning when it is
// already sounding. A volume of Stop pauses the note and rewinds it.
func (s *State) Play(key int, volume float64) error {
	if key < 0 || key >= len(s.notes) {
		return fault.Wrap(ErrKeyRange,
			fmsg.With(fmt.Sprintf("key %d of %d", key, len(s.notes))),
			ftag.With(ftag.InvalidArgument))
	}
	n := &s.notes[key]
	if volume == Stop {
		n.Paused = true
		n.Elapsed = 0
		n.Volume = 0
		return nil
	}
	if volume < 0 || volume > 1 {
		return fault.Wrap(ErrVolumeRange,
			fmsg.With(fmt.Sprintf("key %d volume %v", key, volume)),
			ftag.With(ftag.InvalidArgument))
	}
	n.Volume = volume
	n.Elapsed = 0
	n.Paused = false
	return nil
}

// Advance moves every sounding note forward by dt. Notes that reach their
// duration end and pause.
func (s *State) Advance(dt time.Duration) {
	if dt <= 0 {
		return
	}
	for i := range s.notes {
		n := &s.notes[i]
		if n.Paused {
			continue
		}
		n.Elapsed += dt
		if n.Elapsed >= n.Duration {
			n.Elapsed = 0
			n.Paused = true
			n.Volume = 0
		}
	}
}

// Sounding counts the notes currently playing.
func (s *State) Sounding() int {
	count := 0
	for _, n := range s.notes {
		if !n.Paused {
			count++
		}
	}
	return count
}

// Reset silences every note. Readiness is kept.
func (s *State) Reset() {
	for i := range s.notes {
		d := s.notes[i].Duration
		s.notes[i] = NoteState{Paused: true, Duration: d}
	}
}
