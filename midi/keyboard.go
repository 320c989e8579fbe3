package midi

import (
	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"

	"keyscope/debug"
)

// KeyboardController handles a standard MIDI keyboard
type KeyboardController struct {
	id       string
	inPort   drivers.In
	stopFunc func()

	noteChan chan NoteEvent
}

// NewKeyboardController creates a keyboard controller (input only)
func NewKeyboardController(id string, inPort drivers.In) (*KeyboardController, error) {
	kb := &KeyboardController{
		id:       id,
		inPort:   inPort,
		noteChan: make(chan NoteEvent, 64),
	}

	if inPort != nil {
		stop, err := gomidi.ListenTo(inPort, kb.handle)
		if err != nil {
			return nil, fault.Wrap(err,
				fmsg.WithDesc("open input", "Could not listen to MIDI port "+id),
				ftag.With(ftag.Internal))
		}
		kb.stopFunc = stop
	}

	return kb, nil
}

// handle runs on the driver's goroutine; events are dropped rather than
// blocking it when the frame loop falls behind.
func (kb *KeyboardController) handle(msg gomidi.Message, timestampms int32) {
	var channel, note, velocity uint8
	var ev NoteEvent
	switch {
	case msg.GetNoteStart(&channel, &note, &velocity):
		ev = NoteEvent{Note: note, Velocity: velocity, Channel: channel}
	case msg.GetNoteEnd(&channel, &note):
		ev = NoteEvent{Note: note, Channel: channel}
	default:
		return
	}
	select {
	case kb.noteChan <- ev:
	default:
		debug.LogEvery(16, "midi", "dropped note event from %s", kb.id)
	}
}

func (kb *KeyboardController) ID() string {
	return kb.id
}

func (kb *KeyboardController) Type() ControllerType {
	return ControllerKeyboard
}

func (kb *KeyboardController) NoteEvents() <-chan NoteEvent {
	return kb.noteChan
}

func (kb *KeyboardController) Close() error {
	if kb.stopFunc != nil {
		kb.stopFunc()
	}
	close(kb.noteChan)
	return nil
}
