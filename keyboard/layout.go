package keyboard

import (
	"fmt"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
)

// Layout describes how a keyboard span is generated from two repeating
// patterns. Widths and heights are in units that get multiplied by Scale.
//
// Key widths after http://www.quadibloc.com/other/cnv05.htm
type Layout struct {
	Scale        int
	KeyCount     int
	StartSlot    int // position in the 12-slot pattern of the first key
	WhiteIndex   int // white-key index of the first white key (0 = C)
	StartOctave  int
	BlackPadding int // black-track offset of the first key
	WhiteHeight  int
	BlackHeight  int
	Radius       int
	FirstPitch   int // MIDI note number of key 0

	WhiteWidths []int // one per white key in an octave, starting at C
	BlackWidths []int // black-track step per slot, starting at C
	BlackSlots  []int // non-zero where the slot holds a physical black key
}

var (
	whiteWidths = []int{23, 24, 23, 24, 23, 23, 24}
	blackWidths = []int{14, 14, 14, 14, 14, 13, 14, 13, 14, 13, 14, 13}
	blackSlots  = []int{0, 2, 0, 4, 0, 0, 7, 0, 9, 0, 11, 0}
)

const noteLetters = "CDEFGAB"

// DefaultLayout is the 69-key span E2..C8.
func DefaultLayout() Layout {
	return Layout{
		Scale:        1,
		KeyCount:     69,
		StartSlot:    4,
		WhiteIndex:   2,
		StartOctave:  2,
		BlackPadding: 10,
		WhiteHeight:  150,
		BlackHeight:  100,
		Radius:       2,
		FirstPitch:   40,
		WhiteWidths:  whiteWidths,
		BlackWidths:  blackWidths,
		BlackSlots:   blackSlots,
	}
}

// FullLayout is the 88-key span A0..C8.
func FullLayout() Layout {
	l := DefaultLayout()
	l.KeyCount = 88
	l.StartSlot = 9
	l.WhiteIndex = 5
	l.StartOctave = 0
	l.BlackPadding = 7
	l.FirstPitch = 21
	return l
}

// LayoutByName returns "standard" (69 keys) or "full" (88 keys).
func LayoutByName(name string) (Layout, error) {
	switch name {
	case "", "standard":
		return DefaultLayout(), nil
	case "full":
		return FullLayout(), nil
	}
	return Layout{}, fault.New("unknown keyboard layout "+name,
		fmsg.WithDesc("layout lookup", fmt.Sprintf("Keyboard layout %q is not one of standard, full", name)),
		ftag.With(ftag.InvalidArgument))
}

func (l Layout) Validate() error {
	switch {
	case l.Scale < 1:
		return layoutErr("scale must be at least 1, got %d", l.Scale)
	case l.KeyCount < 1:
		return layoutErr("key count must be at least 1, got %d", l.KeyCount)
	case len(l.WhiteWidths) != len(noteLetters):
		return layoutErr("white pattern needs %d widths, got %d", len(noteLetters), len(l.WhiteWidths))
	case len(l.BlackWidths) == 0 || len(l.BlackWidths) != len(l.BlackSlots):
		return layoutErr("black pattern has %d widths and %d slots", len(l.BlackWidths), len(l.BlackSlots))
	case l.StartSlot < 0 || l.WhiteIndex < 0 || l.BlackPadding < 0:
		return layoutErr("negative start slot, white index or padding")
	case l.WhiteHeight < 1 || l.BlackHeight < 1:
		return layoutErr("key heights must be positive")
	}
	for _, w := range l.WhiteWidths {
		if w < 1 {
			return layoutErr("white widths must be positive")
		}
	}
	for _, w := range l.BlackWidths {
		if w < 1 {
			return layoutErr("black widths must be positive")
		}
	}
	return nil
}

func layoutErr(format string, args ...any) error {
	return fault.Wrap(ErrLayout,
		fmsg.With(fmt.Sprintf(format, args...)),
		ftag.With(ftag.InvalidArgument))
}
