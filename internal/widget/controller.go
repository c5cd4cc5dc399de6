// Package widget is the selection/execution controller of the mapping input:
// it owns the selected mapping, validates an execution, talks to the mapping
// service and reports every outcome as a sanitized message. Rendering, file
// picking and saving results are delegated to collaborators.
package widget

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net/http"
	"sync"

	"mapexec/internal/catalog"
	"mapexec/internal/config"
	apperrors "mapexec/internal/errors"
	"mapexec/internal/logging"
	"mapexec/internal/metrics"
	"mapexec/internal/selection"
	"mapexec/internal/state"
)

const (
	msgSelectMapping = "Please select a mapping."
	msgNoMappings    = "No mappings available."
)

// ErrTornDown is returned by lifecycle calls after Teardown.
var ErrTornDown = errors.New("widget has been torn down")

// Deps are the collaborators of a Controller. Only Loader is required.
type Deps struct {
	Client     *http.Client
	Loader     *catalog.Loader
	Picker     FilePicker
	Renderer   Renderer
	Downloader Downloader
	Log        *logging.Logger
	Metrics    *metrics.Manager
	Journal    *state.DB
	UserAgent  string
}

// Controller is one widget instance. All state changes and the matching
// render calls happen under one lock, so a renderer never observes a marker
// that disagrees with the selection.
type Controller struct {
	mu sync.Mutex

	client     *http.Client
	loader     *catalog.Loader
	picker     FilePicker
	render     Renderer
	downloader Downloader
	log        *logging.Logger
	metrics    *metrics.Manager
	journal    *state.DB
	userAgent  string

	settings config.Settings
	sel      *selection.Machine
	submit   Submit
	message  Message

	inFlight    bool
	initialized bool
	tornDown    bool

	// catalog request sequencing: issued counts started fetches, applied is
	// the sequence number of the list currently rendered.
	issued  uint64
	applied uint64
}

func New(d Deps) *Controller {
	c := &Controller{
		client:     d.Client,
		loader:     d.Loader,
		picker:     d.Picker,
		render:     d.Renderer,
		downloader: d.Downloader,
		log:        d.Log,
		metrics:    d.Metrics,
		journal:    d.Journal,
		userAgent:  d.UserAgent,
		settings:   config.DefaultSettings(),
		sel:        selection.New(),
		submit:     Submit{Label: LabelExecute},
	}
	if c.client == nil {
		c.client = http.DefaultClient
	}
	if c.loader == nil {
		c.loader = catalog.NewLoader(c.client, c.log, c.userAgent)
	}
	if c.picker == nil {
		c.picker = emptyPicker{}
	}
	if c.render == nil {
		c.render = nopRenderer{}
	}
	return c
}

// Initialize applies the settings, draws the empty widget and loads the catalog.
// The returned error is informational; it has already been reported.
func (c *Controller) Initialize(ctx context.Context, s config.Settings) error {
	c.mu.Lock()
	if c.tornDown {
		c.mu.Unlock()
		return ErrTornDown
	}
	if err := c.applySettingsLocked(s); err != nil {
		c.log.Warnf("initialize: %v; using %s", err, c.settings.BaseURL)
	}
	c.initialized = true
	c.render.RenderOptions(c.sel.Options())
	c.setSubmitLocked(c.unselectedSubmitLocked())
	c.mu.Unlock()
	return c.Reload(ctx)
}

// Attribute names understood by OnConfigChanged.
const (
	AttrBaseURL     = "base-url"
	AttrMaxFileSize = "max-file-size"
)

// OnConfigChanged applies one changed host attribute. An invalid base URL is
// rejected and the previous one kept; an invalid size limit falls back to the
// default. A new base URL reloads the catalog.
func (c *Controller) OnConfigChanged(ctx context.Context, name, value string) error {
	c.mu.Lock()
	if c.tornDown {
		c.mu.Unlock()
		return ErrTornDown
	}
	switch name {
	case AttrBaseURL:
		u, err := config.ParseBaseURL(value)
		if err != nil {
			c.log.Warnf("config: %v; keeping %s", err, logging.SanitizeURL(c.settings.BaseURL.String()))
			c.mu.Unlock()
			return err
		}
		changed := u.String() != c.settings.BaseURL.String()
		c.settings.BaseURL = u
		reload := changed && c.initialized
		c.mu.Unlock()
		if reload {
			return c.Reload(ctx)
		}
		return nil
	case AttrMaxFileSize:
		n, err := config.ParseMaxFileSizeMB(value)
		c.settings.MaxFileSizeBytes = n
		c.mu.Unlock()
		if err != nil {
			c.log.Warnf("config: %v; using the default limit", err)
		}
		return err
	default:
		c.mu.Unlock()
		return fmt.Errorf("unknown attribute %q", name)
	}
}

// SetSettings replaces both settings at once, keeping the previous base URL
// when the new one is missing.
func (c *Controller) SetSettings(ctx context.Context, s config.Settings) error {
	c.mu.Lock()
	if c.tornDown {
		c.mu.Unlock()
		return ErrTornDown
	}
	prev := c.settings.BaseURL.String()
	err := c.applySettingsLocked(s)
	reload := c.initialized && c.settings.BaseURL.String() != prev
	c.mu.Unlock()
	if reload {
		if rerr := c.Reload(ctx); rerr != nil {
			return errors.Join(err, rerr)
		}
	}
	return err
}

func (c *Controller) applySettingsLocked(s config.Settings) error {
	var err error
	if s.BaseURL != nil && s.BaseURL.IsAbs() {
		c.settings.BaseURL = s.BaseURL
	} else if s.BaseURL != nil {
		err = &apperrors.ConfigurationError{Field: AttrBaseURL, Value: s.BaseURL.String()}
	}
	if s.MaxFileSizeBytes > 0 {
		c.settings.MaxFileSizeBytes = s.MaxFileSizeBytes
	} else {
		c.settings.MaxFileSizeBytes = config.MB(config.DefaultMaxFileSizeMB)
	}
	return err
}

// Settings returns the settings in effect.
func (c *Controller) Settings() config.Settings {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.settings
}

// Teardown detaches the controller. Pending catalog responses are dropped and
// later calls are ignored.
func (c *Controller) Teardown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tornDown {
		return
	}
	c.tornDown = true
	c.issued++
	c.sel.Replace(nil)
	c.picker.Clear()
	c.log.Debugf("widget torn down")
}

// Reload fetches the catalog and, unless a newer list has been applied in the
// meantime, replaces the rendered options wholesale. Failures leave the list
// as it was.
func (c *Controller) Reload(ctx context.Context) error {
	c.mu.Lock()
	if c.tornDown {
		c.mu.Unlock()
		return ErrTornDown
	}
	c.issued++
	seq := c.issued
	base := c.settings.BaseURL
	c.mu.Unlock()

	items, err := c.loader.Load(ctx, base)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tornDown {
		return ErrTornDown
	}
	if seq < c.applied {
		c.log.Debugf("catalog: dropping response %d, list %d is newer", seq, c.applied)
		return nil
	}
	c.metrics.IncCatalogLoad(err == nil)
	if err != nil {
		c.reportLocked(Error, "Could not load the list of mappings: "+html.EscapeString(err.Error()))
		return err
	}
	c.applied = seq
	c.sel.Replace(items)
	c.render.RenderOptions(c.sel.Options())
	c.setSubmitLocked(c.unselectedSubmitLocked())
	if len(items) == 0 {
		c.reportLocked(Info, msgNoMappings)
	} else {
		c.reportLocked(Info, msgSelectMapping)
	}
	return nil
}

// Activate runs the selection state machine for the mapping id.
func (c *Controller) Activate(id string) (selection.Transition, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tornDown {
		return selection.Unchanged, ErrTornDown
	}
	t, err := c.sel.Activate(id)
	if err != nil {
		c.log.Warnf("activate: %v", err)
		return t, err
	}
	c.afterTransitionLocked(t)
	return t, nil
}

// HandleKey applies the listbox keyboard contract.
func (c *Controller) HandleKey(k selection.Key) selection.KeyResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tornDown {
		return selection.KeyResult{}
	}
	res := c.sel.HandleKey(k)
	if !res.Handled {
		return res
	}
	if res.Transition != selection.Unchanged {
		c.afterTransitionLocked(res.Transition)
		return res
	}
	c.render.RenderOptions(c.sel.Options())
	if f, ok := c.sel.Focused(); ok && res.FocusMoved {
		c.render.Focus(f.ElementID)
	}
	return res
}

func (c *Controller) afterTransitionLocked(t selection.Transition) {
	c.render.RenderOptions(c.sel.Options())
	if f, ok := c.sel.Focused(); ok {
		c.render.Focus(f.ElementID)
	}
	switch t {
	case selection.Selected:
		opt, _ := c.sel.SelectedOption()
		c.log.Debugf("selected mapping %q", opt.ID)
		c.reportLocked(Info, fmt.Sprintf("Mapping <b>%s</b> selected. Choose a file, then execute.", html.EscapeString(opt.Title)))
		c.setSubmitLocked(Submit{Enabled: !c.inFlight, Label: c.submit.Label, Busy: c.inFlight})
	case selection.Deselected:
		c.reportLocked(Info, msgSelectMapping)
		c.setSubmitLocked(Submit{Enabled: false, Label: c.submit.Label, Busy: c.inFlight})
	}
}

// SelectedID returns the selected mapping id.
func (c *Controller) SelectedID() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sel.SelectedID()
}

// Options returns the current render snapshots.
func (c *Controller) Options() []selection.Option {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sel.Options()
}

// Submit returns the state of the execute control.
func (c *Controller) Submit() Submit {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.submit
}

// LastMessage returns the message currently shown.
func (c *Controller) LastMessage() Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.message
}

// Busy reports whether an execution is in flight.
func (c *Controller) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inFlight
}

// FileAttached announces a newly attached file.
func (c *Controller) FileAttached() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if f, ok := c.picker.Active(); ok {
		c.reportLocked(Info, fmt.Sprintf("File added: <b>%s</b>", html.EscapeString(f.Name)))
	}
}

// Browse opens the picker's browse dialog.
func (c *Controller) Browse() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.tornDown {
		c.picker.Browse()
	}
}

// Report shows a message on behalf of an adapter.
func (c *Controller) Report(kind Kind, htmlText string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reportLocked(kind, htmlText)
}

func (c *Controller) reportLocked(kind Kind, htmlText string) {
	msg := NewMessage(htmlText, kind)
	c.message = msg
	c.render.ShowMessage(msg)
	if kind == Error {
		c.log.Errorf("%s", msg.Text())
	} else {
		c.log.Infof("%s", msg.Text())
	}
}

// unselectedSubmitLocked is the submit state once the selection is gone: a
// running execution keeps its busy label.
func (c *Controller) unselectedSubmitLocked() Submit {
	if c.inFlight {
		return Submit{Enabled: false, Label: LabelWait, Busy: true}
	}
	return Submit{Enabled: false, Label: LabelExecute}
}

func (c *Controller) setSubmitLocked(s Submit) {
	if s.Label == "" {
		s.Label = LabelExecute
	}
	c.submit = s
	c.render.SetSubmit(s)
}
