package playback

import (
	"io"
	"os"
	"sort"
	"time"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

const defaultBPM = 120.0

// NoteEvent is a note start (Velocity > 0) or end (Velocity == 0) at a
// point in song time.
type NoteEvent struct {
	At       time.Duration
	Pitch    int
	Velocity uint8
}

// MIDIPlayer replays the notes of a standard MIDI file into a State.
type MIDIPlayer struct {
	events     []NoteEvent
	firstPitch int
	clock      time.Duration
	next       int
}

// LoadMIDIFile reads path; firstPitch is the MIDI note of key 0.
func LoadMIDIFile(path string, firstPitch int) (*MIDIPlayer, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fault.Wrap(err,
				fmsg.WithDesc("open midi file", "MIDI file "+path+" does not exist"),
				ftag.With(ftag.NotFound))
		}
		return nil, fault.Wrap(err, fmsg.With("open midi file"), ftag.With(ftag.Internal))
	}
	defer f.Close()
	return ReadMIDI(f, firstPitch)
}

func ReadMIDI(r io.Reader, firstPitch int) (*MIDIPlayer, error) {
	s, err := smf.ReadFrom(r)
	if err != nil {
		return nil, fault.Wrap(err,
			fmsg.WithDesc("read midi file", "Not a readable standard MIDI file"),
			ftag.With(ftag.InvalidArgument))
	}
	events, err := noteEvents(s)
	if err != nil {
		return nil, err
	}
	return NewMIDIPlayer(events, firstPitch), nil
}

// NewMIDIPlayer plays events, which need not be sorted.
func NewMIDIPlayer(events []NoteEvent, firstPitch int) *MIDIPlayer {
	sorted := append([]NoteEvent(nil), events...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].At < sorted[j].At
	})
	return &MIDIPlayer{events: sorted, firstPitch: firstPitch}
}

type tickEvent struct {
	tick uint64
	msg  smf.Message
}

// noteEvents flattens all tracks into note events in song time, following
// tempo changes from any track.
func noteEvents(s *smf.SMF) ([]NoteEvent, error) {
	ticks, ok := s.TimeFormat.(smf.MetricTicks)
	if !ok {
		return nil, fault.New("midi file uses SMPTE time",
			fmsg.WithDesc("read midi file", "Only metric (ticks per quarter) MIDI files are supported"),
			ftag.With(ftag.InvalidArgument))
	}

	var all []tickEvent
	for _, track := range s.Tracks {
		var abs uint64
		for _, ev := range track {
			abs += uint64(ev.Delta)
			all = append(all, tickEvent{tick: abs, msg: ev.Message})
		}
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].tick < all[j].tick
	})

	var (
		out      []NoteEvent
		bpm      = defaultBPM
		lastTick uint64
		at       time.Duration
	)
	for _, ev := range all {
		at += ticks.Duration(bpm, uint32(ev.tick-lastTick))
		lastTick = ev.tick

		var tempo float64
		if ev.msg.GetMetaTempo(&tempo) && tempo > 0 {
			bpm = tempo
			continue
		}

		msg := gomidi.Message(ev.msg)
		var channel, key, velocity uint8
		switch {
		case msg.GetNoteStart(&channel, &key, &velocity):
			out = append(out, NoteEvent{At: at, Pitch: int(key), Velocity: velocity})
		case msg.GetNoteEnd(&channel, &key):
			out = append(out, NoteEvent{At: at, Pitch: int(key)})
		}
	}
	return out, nil
}

// Advance applies every event due within dt. Pitches outside the keyboard
// are skipped.
func (p *MIDIPlayer) Advance(dt time.Duration, state *State) error {
	if dt > 0 {
		p.clock += dt
	}
	for p.next < len(p.events) && p.events[p.next].At <= p.clock {
		ev := p.events[p.next]
		p.next++

		key := ev.Pitch - p.firstPitch
		if key < 0 || key >= state.Len() {
			continue
		}
		volume := float64(Stop)
		if ev.Velocity > 0 {
			volume = float64(ev.Velocity) / 127
		}
		if err := state.Play(key, volume); err != nil {
			return err
		}
	}
	return nil
}

func (p *MIDIPlayer) Done() bool {
	return p.next >= len(p.events)
}

// Length is the time of the last event.
func (p *MIDIPlayer) Length() time.Duration {
	if len(p.events) == 0 {
		return 0
	}
	return p.events[len(p.events)-1].At
}
