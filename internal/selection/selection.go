// Package selection implements the single-choice listbox over catalog
// entries: at most one selected option, toggle on repeated activation and a
// roving tab stop for keyboard users.
package selection

import (
	"fmt"

	"mapexec/internal/catalog"
	"mapexec/internal/sanitize"
)

// Option is the render snapshot of one selectable mapping.
type Option struct {
	ID          string // original mapping id, used for every comparison
	ElementID   string // encoded id, rendering only
	Title       string
	Description string
	Type        string
	Selected    bool
	TabIndex    int // 0 for the single reachable tab stop, -1 otherwise
}

// AriaSelected is the aria-selected attribute value.
func (o Option) AriaSelected() string {
	if o.Selected {
		return "true"
	}
	return "false"
}

// Transition tells the caller which edge of the state machine was taken.
type Transition int

const (
	// Unchanged: nothing was activated.
	Unchanged Transition = iota
	// Selected: Unselected or Selected(x) moved to Selected(id).
	Selected
	// Deselected: Selected(id) was activated again and toggled off.
	Deselected
)

func (t Transition) String() string {
	switch t {
	case Selected:
		return "selected"
	case Deselected:
		return "deselected"
	default:
		return "unchanged"
	}
}

// Machine holds the options of the current catalog and the selection. It is
// not safe for concurrent use; the widget controller serializes access.
type Machine struct {
	options    []Option
	selectedID string
	selected   bool
	focus      int
}

func New() *Machine {
	return &Machine{}
}

// Replace swaps the option set wholesale. The selection is cleared because
// previously selected ids may no longer exist; the tab stop returns to the first option.
func (m *Machine) Replace(items []catalog.MappingDescriptor) {
	opts := make([]Option, 0, len(items))
	for _, it := range items {
		opts = append(opts, Option{
			ID:          it.ID,
			ElementID:   sanitize.EncodeID(it.ID),
			Title:       it.Title,
			Description: it.Description,
			Type:        it.Type,
		})
	}
	m.options = opts
	m.selectedID, m.selected = "", false
	m.focus = 0
	m.applyMarkers()
}

// Activate implements the three transitions on id. Unknown ids are rejected
// without changing state.
func (m *Machine) Activate(id string) (Transition, error) {
	idx := m.indexOf(id)
	if idx < 0 {
		return Unchanged, fmt.Errorf("unknown mapping %q", id)
	}
	m.focus = idx
	if m.selected && m.selectedID == id {
		m.selectedID, m.selected = "", false
		m.applyMarkers()
		return Deselected, nil
	}
	m.selectedID, m.selected = id, true
	m.applyMarkers()
	return Selected, nil
}

// Clear drops the selection without touching the options.
func (m *Machine) Clear() {
	m.selectedID, m.selected = "", false
	m.applyMarkers()
}

// SelectedID returns the selected mapping id, if any.
func (m *Machine) SelectedID() (string, bool) {
	return m.selectedID, m.selected
}

// SelectedOption returns the option carrying the selection marker.
func (m *Machine) SelectedOption() (Option, bool) {
	if !m.selected {
		return Option{}, false
	}
	if idx := m.indexOf(m.selectedID); idx >= 0 {
		return m.options[idx], true
	}
	return Option{}, false
}

// Options returns a copy of the render snapshots in catalog order.
func (m *Machine) Options() []Option {
	out := make([]Option, len(m.options))
	copy(out, m.options)
	return out
}

// Len returns the number of options.
func (m *Machine) Len() int { return len(m.options) }

// Focused returns the option owning the tab stop.
func (m *Machine) Focused() (Option, bool) {
	if len(m.options) == 0 {
		return Option{}, false
	}
	return m.options[m.focus], true
}

// Lookup finds an option by mapping id.
func (m *Machine) Lookup(id string) (Option, bool) {
	if idx := m.indexOf(id); idx >= 0 {
		return m.options[idx], true
	}
	return Option{}, false
}

func (m *Machine) indexOf(id string) int {
	for i := range m.options {
		if m.options[i].ID == id {
			return i
		}
	}
	return -1
}

// applyMarkers clears the marker and the tab stop from every option before
// setting them again, so a stale marker can never survive.
func (m *Machine) applyMarkers() {
	for i := range m.options {
		m.options[i].Selected = false
		m.options[i].TabIndex = -1
	}
	if len(m.options) == 0 {
		m.focus = 0
		return
	}
	if m.focus < 0 || m.focus >= len(m.options) {
		m.focus = 0
	}
	m.options[m.focus].TabIndex = 0
	if !m.selected {
		return
	}
	if idx := m.indexOf(m.selectedID); idx >= 0 {
		m.options[idx].Selected = true
	} else {
		m.selectedID, m.selected = "", false
	}
}
