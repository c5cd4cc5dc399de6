package tui

import (
	"context"
	"html"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"mapexec/internal/config"
	"mapexec/internal/localfile"
	"mapexec/internal/selection"
	"mapexec/internal/widget"
)

type TUIController struct {
	ctx    context.Context
	cancel context.CancelFunc

	model    *TUIModel
	view     *TUIView
	wrapped  tea.Model
	ctrl     *widget.Controller
	picker   *localfile.Picker
	settings config.Settings
	hz       int

	spin        spinner.Model
	showHelp    bool
	showHistory bool
	pathOn      bool
	pathInput   textinput.Model
}

func NewTUIController(ctx context.Context, model *TUIModel, view *TUIView) *TUIController {
	ctx, cancel := context.WithCancel(ctx)
	pathInput := textinput.New()
	pathInput.Placeholder = "/path/to/input.xml"
	return &TUIController{
		ctx:       ctx,
		cancel:    cancel,
		model:     model,
		view:      view,
		spin:      spinner.New(spinner.WithSpinner(spinner.Dot)),
		pathInput: pathInput,
	}
}

func (c *TUIController) attach(ctrl *widget.Controller, picker *localfile.Picker, s config.Settings, hz int) {
	c.ctrl = ctrl
	c.picker = picker
	c.settings = s
	c.hz = hz
}

func (c *TUIController) SetModel(m tea.Model) { c.wrapped = m }

func (c *TUIController) wrapModel() tea.Model { return c.wrapped }

func (c *TUIController) Init() tea.Cmd {
	return tea.Batch(c.initializeCmd(), tickCmd(c.hz))
}

func (c *TUIController) initializeCmd() tea.Cmd {
	return func() tea.Msg {
		return catalogMsg{err: c.ctrl.Initialize(c.ctx, c.settings)}
	}
}

func (c *TUIController) reloadCmd() tea.Cmd {
	return func() tea.Msg {
		return catalogMsg{err: c.ctrl.Reload(c.ctx)}
	}
}

func (c *TUIController) executeCmd() tea.Cmd {
	return func() tea.Msg {
		return execDoneMsg{res: c.ctrl.Run(c.ctx)}
	}
}

func (c *TUIController) historyCmd() tea.Cmd {
	return func() tea.Msg {
		if err := c.model.LoadHistory(c.ctx); err != nil {
			return errMsg{err}
		}
		return nil
	}
}

func (c *TUIController) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		c.view.SetSize(msg.Width, msg.Height)
		return c.wrapModel(), nil

	case tea.KeyMsg:
		return c.handleKeyMsg(msg)

	case tickMsg:
		return c.wrapModel(), tickCmd(c.hz)

	case spinner.TickMsg:
		if !c.ctrl.Busy() {
			return c.wrapModel(), nil
		}
		var cmd tea.Cmd
		c.spin, cmd = c.spin.Update(msg)
		return c.wrapModel(), cmd

	case catalogMsg:
		// failures have already been reported by the controller
		return c.wrapModel(), nil

	case execDoneMsg:
		return c.wrapModel(), c.historyCmd()

	case errMsg:
		c.ctrl.Report(widget.Error, html.EscapeString(msg.err.Error()))
		return c.wrapModel(), nil
	}

	return c.wrapModel(), nil
}

func (c *TUIController) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return c.quit()
	}
	if c.showHelp {
		return c.handleHelpKeys(msg)
	}
	if c.pathOn {
		return c.handlePathKeys(msg)
	}
	return c.handleNormalKeys(msg)
}

func (c *TUIController) handleNormalKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key := msg.String(); key {
	case "q":
		return c.quit()

	case "?":
		c.showHelp = true

	case "k":
		c.ctrl.HandleKey(selection.KeyUp)

	case "j":
		c.ctrl.HandleKey(selection.KeyDown)

	case "up", "down", "left", "right", "home", "end", "enter", " ":
		c.ctrl.HandleKey(selection.ParseKey(key))

	case "o":
		c.ctrl.Browse()
		return c.wrapModel(), textinput.Blink

	case "x":
		return c.wrapModel(), tea.Batch(c.executeCmd(), c.spin.Tick)

	case "r":
		return c.wrapModel(), c.reloadCmd()

	case "h":
		c.showHistory = !c.showHistory
		if c.showHistory {
			return c.wrapModel(), c.historyCmd()
		}
	}

	return c.wrapModel(), nil
}

func (c *TUIController) handleHelpKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "?", "esc", "q":
		c.showHelp = false
	}
	return c.wrapModel(), nil
}

// openPathInput is the picker's browse action.
func (c *TUIController) openPathInput() {
	c.pathOn = true
	c.pathInput.SetValue(c.picker.Path())
	c.pathInput.CursorEnd()
	c.pathInput.Focus()
}

func (c *TUIController) handlePathKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		c.closePathInput()
		return c.wrapModel(), nil

	case "tab":
		c.pathInput.SetValue(completePath(c.pathInput.Value()))
		c.pathInput.CursorEnd()
		return c.wrapModel(), nil

	case "enter":
		path := c.pathInput.Value()
		if path == "" {
			c.closePathInput()
			return c.wrapModel(), nil
		}
		if err := c.picker.Attach(path); err != nil {
			c.ctrl.Report(widget.Error, "File could not be attached: "+html.EscapeString(err.Error()))
			return c.wrapModel(), nil
		}
		c.closePathInput()
		c.ctrl.FileAttached()
		return c.wrapModel(), nil
	}

	var cmd tea.Cmd
	c.pathInput, cmd = c.pathInput.Update(msg)
	return c.wrapModel(), cmd
}

func (c *TUIController) closePathInput() {
	c.pathOn = false
	c.pathInput.Blur()
}

func (c *TUIController) quit() (tea.Model, tea.Cmd) {
	c.ctrl.Teardown()
	c.cancel()
	return c.wrapModel(), tea.Quit
}
