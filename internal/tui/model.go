// Package tui is the terminal adapter of the mapping widget: it renders the
// controller's state with lipgloss and feeds key presses back into it.
package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"mapexec/internal/config"
	"mapexec/internal/localfile"
	"mapexec/internal/widget"
)

type model struct {
	tuiModel      *TUIModel
	tuiView       *TUIView
	tuiController *TUIController
}

type tickMsg time.Time

type catalogMsg struct{ err error }

type execDoneMsg struct{ res widget.ExecutionResult }

type errMsg struct{ err error }

// Options configure New. Deps.Renderer and Deps.Picker are supplied by the TUI.
type Options struct {
	Context   context.Context
	Settings  config.Settings
	Deps      widget.Deps
	Theme     string
	RefreshHz int
}

// New wires a widget controller to a terminal renderer and a filesystem picker.
func New(opts Options) tea.Model {
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	tuiModel := NewTUIModel(opts.Deps.Journal)
	tuiView := NewTUIView(opts.Theme)
	tuiController := NewTUIController(opts.Context, tuiModel, tuiView)

	picker := localfile.New(opts.Deps.Log, tuiController.openPathInput)
	deps := opts.Deps
	deps.Renderer = tuiModel
	deps.Picker = picker
	tuiController.attach(widget.New(deps), picker, opts.Settings, opts.RefreshHz)

	m := &model{
		tuiModel:      tuiModel,
		tuiView:       tuiView,
		tuiController: tuiController,
	}
	tuiController.SetModel(m)
	return m
}

func (m *model) Init() tea.Cmd {
	return m.tuiController.Init()
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	return m.tuiController.Update(msg)
}

func (m *model) View() string {
	return m.tuiView.View(m.tuiModel, m.tuiController)
}

func tickCmd(hz int) tea.Cmd {
	if hz <= 0 {
		hz = 10
	}
	d := time.Second / time.Duration(hz)
	return tea.Tick(d, func(t time.Time) tea.Msg { return tickMsg(t) })
}
