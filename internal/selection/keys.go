package selection

import "strings"

// Key is a listbox navigation key.
type Key int

const (
	KeyNone Key = iota
	KeyEnter
	KeySpace
	KeyLeft
	KeyUp
	KeyRight
	KeyDown
	KeyHome
	KeyEnd
)

// ParseKey maps key names as reported by terminals and browsers.
func ParseKey(s string) Key {
	switch strings.ToLower(s) {
	case "enter", "return":
		return KeyEnter
	case " ", "space", "spacebar":
		return KeySpace
	case "left", "arrowleft":
		return KeyLeft
	case "up", "arrowup":
		return KeyUp
	case "right", "arrowright":
		return KeyRight
	case "down", "arrowdown":
		return KeyDown
	case "home":
		return KeyHome
	case "end":
		return KeyEnd
	default:
		return KeyNone
	}
}

// KeyResult reports the effect of HandleKey.
type KeyResult struct {
	Transition Transition
	// FocusMoved is set when the tab stop moved to another option.
	FocusMoved bool
	Handled    bool
}

// HandleKey applies the listbox keyboard contract. Arrow keys wrap around.
func (m *Machine) HandleKey(k Key) KeyResult {
	n := len(m.options)
	if n == 0 {
		return KeyResult{}
	}
	next := m.focus
	switch k {
	case KeyEnter, KeySpace:
		t, _ := m.Activate(m.options[m.focus].ID)
		return KeyResult{Transition: t, Handled: true}
	case KeyLeft, KeyUp:
		next = (m.focus - 1 + n) % n
	case KeyRight, KeyDown:
		next = (m.focus + 1) % n
	case KeyHome:
		next = 0
	case KeyEnd:
		next = n - 1
	default:
		return KeyResult{}
	}
	moved := next != m.focus
	m.focus = next
	m.applyMarkers()
	return KeyResult{FocusMoved: moved, Handled: true}
}
