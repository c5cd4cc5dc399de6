package tui

import (
	"context"
	"sync"

	"mapexec/internal/selection"
	"mapexec/internal/state"
	"mapexec/internal/widget"
)

// TUIModel is the widget.Renderer of the terminal UI. The controller calls it
// from whichever goroutine changed the state; View reads snapshots.
type TUIModel struct {
	mu      sync.RWMutex
	options []selection.Option
	message widget.Message
	submit  widget.Submit
	focused string

	journal *state.DB
	history []state.ExecutionRow
}

// Snapshot is a consistent copy of everything the view draws.
type Snapshot struct {
	Options []selection.Option
	Message widget.Message
	Submit  widget.Submit
	Focused string
	History []state.ExecutionRow
}

// NewTUIModel creates an empty model; journal may be nil.
func NewTUIModel(journal *state.DB) *TUIModel {
	return &TUIModel{journal: journal, submit: widget.Submit{Label: widget.LabelExecute}}
}

func (m *TUIModel) RenderOptions(opts []selection.Option) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.options = opts
}

func (m *TUIModel) ShowMessage(msg widget.Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.message = msg
}

func (m *TUIModel) SetSubmit(s widget.Submit) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.submit = s
}

func (m *TUIModel) Focus(elementID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.focused = elementID
}

// Snapshot returns a copy safe to use without the lock.
func (m *TUIModel) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := Snapshot{
		Options: make([]selection.Option, len(m.options)),
		Message: m.message,
		Submit:  m.submit,
		Focused: m.focused,
		History: make([]state.ExecutionRow, len(m.history)),
	}
	copy(s.Options, m.options)
	copy(s.History, m.history)
	return s
}

// LoadHistory refreshes the execution history from the session journal.
func (m *TUIModel) LoadHistory(ctx context.Context) error {
	if m.journal == nil {
		return nil
	}
	rows, err := m.journal.ListExecutions(ctx)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.history = rows
	m.mu.Unlock()
	return nil
}
