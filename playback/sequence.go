package playback

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
)

// DefaultSampleDelay is the time between two frames of a note sequence.
const DefaultSampleDelay = 67 * time.Millisecond

// Sequence is a list of frames, each holding one volume per key. Zero
// leaves a key alone, Stop silences it, anything else plays it.
type Sequence struct {
	Frames [][]float64 `json:"frames"`
}

// LoadSequence reads a sequence file. Both {"frames": [[...], ...]} and a
// bare [[...], ...] array are accepted.
func LoadSequence(path string) (*Sequence, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fault.Wrap(err,
				fmsg.WithDesc("open sequence", "Sequence file "+path+" does not exist"),
				ftag.With(ftag.NotFound))
		}
		return nil, fault.Wrap(err, fmsg.With("open sequence"), ftag.With(ftag.Internal))
	}
	defer f.Close()
	return ReadSequence(f)
}

func ReadSequence(r io.Reader) (*Sequence, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fault.Wrap(err, fmsg.With("read sequence"), ftag.With(ftag.Internal))
	}

	var seq Sequence
	if err := json.Unmarshal(data, &seq.Frames); err != nil {
		if err := json.Unmarshal(data, &seq); err != nil {
			return nil, fault.Wrap(err,
				fmsg.WithDesc("decode sequence", "Sequence is not a list of frames"),
				ftag.With(ftag.InvalidArgument))
		}
	}
	if err := seq.Validate(); err != nil {
		return nil, err
	}
	return &seq, nil
}

// Validate checks every volume is Stop or within [0,1].
func (s *Sequence) Validate() error {
	for i, frame := range s.Frames {
		if err := checkFrame(i, frame); err != nil {
			return err
		}
	}
	return nil
}

func checkFrame(index int, frame []float64) error {
	for key, v := range frame {
		if v == Stop || (v >= 0 && v <= 1) {
			continue
		}
		return fault.Wrap(ErrVolumeRange,
			fmsg.WithDesc(fmt.Sprintf("frame %d key %d volume %v", index, key, v),
				fmt.Sprintf("Sequence frame %d has volume %v for key %d", index, v, key)),
			ftag.With(ftag.InvalidArgument))
	}
	return nil
}

// Scheduler plays a sequence one frame every delay of frame time. It has no
// timers; the frame driver calls Advance with the elapsed time.
type Scheduler struct {
	seq   *Sequence
	delay time.Duration
	clock time.Duration
	next  int
}

func NewScheduler(seq *Sequence, delay time.Duration) *Scheduler {
	if delay <= 0 {
		delay = DefaultSampleDelay
	}
	return &Scheduler{seq: seq, delay: delay}
}

// Advance plays every frame that became due within dt. The first frame is
// due immediately. A frame with a bad volume is skipped whole and reported;
// later frames still play on the next call.
func (s *Scheduler) Advance(dt time.Duration, state *State) error {
	if dt > 0 {
		s.clock += dt
	}
	for s.next < len(s.seq.Frames) && time.Duration(s.next)*s.delay <= s.clock {
		index := s.next
		s.next++
		if err := playFrame(index, s.seq.Frames[index], state); err != nil {
			return err
		}
	}
	return nil
}

func (s *Scheduler) Done() bool {
	return s.next >= len(s.seq.Frames)
}

// Position returns the number of frames played and the total.
func (s *Scheduler) Position() (int, int) {
	return s.next, len(s.seq.Frames)
}

func playFrame(index int, frame []float64, state *State) error {
	if err := checkFrame(index, frame); err != nil {
		return err
	}
	n := len(frame)
	if n > state.Len() {
		n = state.Len()
	}
	for key := 0; key < n; key++ {
		if frame[key] == 0 {
			continue
		}
		if err := state.Play(key, frame[key]); err != nil {
			return err
		}
	}
	return nil
}
