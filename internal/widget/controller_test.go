package widget_test

import (
	"context"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mapexec/internal/config"
	"mapexec/internal/selection"
	"mapexec/internal/state"
	"mapexec/internal/testutil"
	"mapexec/internal/widget"
)

const demoCatalog = `[{"mappingId":"m1","title":"Demo","description":"d","mappingType":"X"}]`

type harness struct {
	svc        *testutil.MappingService
	picker     *testutil.Picker
	render     *testutil.Renderer
	downloader *testutil.Downloader
	journal    *state.DB
	ctrl       *widget.Controller
}

func newHarness(t *testing.T, catalogBody string) *harness {
	t.Helper()
	h := &harness{
		svc:        testutil.NewMappingService(t),
		picker:     &testutil.Picker{},
		render:     &testutil.Renderer{},
		downloader: &testutil.Downloader{},
	}
	h.svc.SetCatalog(http.StatusOK, catalogBody)
	db, err := state.Open()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	h.journal = db
	h.ctrl = widget.New(widget.Deps{
		Client:     h.svc.Client(),
		Picker:     h.picker,
		Renderer:   h.render,
		Downloader: h.downloader,
		Journal:    db,
		UserAgent:  "mapexec-test",
	})
	return h
}

func (h *harness) init(t *testing.T, maxMB int) {
	t.Helper()
	s := config.Settings{BaseURL: h.svc.BaseURL(t), MaxFileSizeBytes: config.MB(maxMB)}
	require.NoError(t, h.ctrl.Initialize(context.Background(), s))
}

func TestInitializeRendersCatalog(t *testing.T) {
	h := newHarness(t, demoCatalog)
	h.init(t, 5)

	require.Len(t, h.render.Options, 1)
	opt := h.render.Options[0]
	assert.Equal(t, "Demo", opt.Title)
	assert.Equal(t, "d", opt.Description)
	assert.Equal(t, 0, opt.TabIndex)
	assert.False(t, opt.Selected)
	assert.Equal(t, "Please select a mapping.", h.render.LastMessage().Text())
	assert.False(t, h.render.LastSubmit().Enabled)

	tr, err := h.ctrl.Activate("m1")
	require.NoError(t, err)
	assert.Equal(t, selection.Selected, tr)
	id, ok := h.ctrl.SelectedID()
	assert.True(t, ok)
	assert.Equal(t, "m1", id)
	assert.True(t, h.render.LastSubmit().Enabled)
	assert.True(t, h.render.Options[0].Selected)
	assert.Equal(t, "true", h.render.Options[0].AriaSelected())
	assert.Equal(t, h.render.Options[0].ElementID, h.render.Focused)
}

func TestActivateTogglesAndSwitches(t *testing.T) {
	h := newHarness(t, `[
		{"mappingId":"a","title":"A","mappingType":"X"},
		{"mappingId":"b","title":"B","mappingType":"X"}
	]`)
	h.init(t, 5)

	_, err := h.ctrl.Activate("a")
	require.NoError(t, err)
	tr, err := h.ctrl.Activate("b")
	require.NoError(t, err)
	assert.Equal(t, selection.Selected, tr)
	id, _ := h.ctrl.SelectedID()
	assert.Equal(t, "b", id)
	assert.True(t, h.render.LastSubmit().Enabled)

	tr, err = h.ctrl.Activate("b")
	require.NoError(t, err)
	assert.Equal(t, selection.Deselected, tr)
	_, ok := h.ctrl.SelectedID()
	assert.False(t, ok)
	assert.False(t, h.render.LastSubmit().Enabled)
	for _, o := range h.render.Options {
		assert.False(t, o.Selected, o.ID)
	}
}

func TestActivateUnknownIDIsRejected(t *testing.T) {
	h := newHarness(t, demoCatalog)
	h.init(t, 5)

	_, err := h.ctrl.Activate("nope")
	assert.Error(t, err)
	_, ok := h.ctrl.SelectedID()
	assert.False(t, ok)
}

func TestHandleKeyMovesFocusAndActivates(t *testing.T) {
	h := newHarness(t, `[
		{"mappingId":"a","title":"A"},
		{"mappingId":"b","title":"B"}
	]`)
	h.init(t, 5)

	res := h.ctrl.HandleKey(selection.KeyDown)
	assert.True(t, res.Handled)
	assert.True(t, res.FocusMoved)
	assert.Equal(t, h.render.Options[1].ElementID, h.render.Focused)

	res = h.ctrl.HandleKey(selection.KeyEnter)
	assert.Equal(t, selection.Selected, res.Transition)
	id, _ := h.ctrl.SelectedID()
	assert.Equal(t, "b", id)
}

func TestCatalogErrors(t *testing.T) {
	h := newHarness(t, demoCatalog)
	h.init(t, 5)
	_, err := h.ctrl.Activate("m1")
	require.NoError(t, err)

	h.svc.SetCatalog(http.StatusInternalServerError, "boom")
	err = h.ctrl.Reload(context.Background())
	require.Error(t, err)

	msg := h.render.LastMessage()
	assert.Equal(t, widget.Error, msg.Kind)
	assert.Equal(t, "alert", msg.Role)
	assert.Contains(t, msg.Text(), "Could not load the list of mappings")
	// the previous list and selection survive a failed reload
	require.Len(t, h.render.Options, 1)
	id, ok := h.ctrl.SelectedID()
	assert.True(t, ok)
	assert.Equal(t, "m1", id)
}

func TestEmptyCatalog(t *testing.T) {
	h := newHarness(t, `[]`)
	h.init(t, 5)
	assert.Empty(t, h.render.Options)
	assert.Equal(t, "No mappings available.", h.render.LastMessage().Text())
}

func TestReloadReplacesListAndClearsSelection(t *testing.T) {
	h := newHarness(t, demoCatalog)
	h.init(t, 5)
	_, err := h.ctrl.Activate("m1")
	require.NoError(t, err)

	h.svc.SetCatalog(http.StatusOK, `[{"mappingId":"m2","title":"Other"}]`)
	require.NoError(t, h.ctrl.Reload(context.Background()))

	require.Len(t, h.render.Options, 1)
	assert.Equal(t, "m2", h.render.Options[0].ID)
	_, ok := h.ctrl.SelectedID()
	assert.False(t, ok)
	assert.False(t, h.render.LastSubmit().Enabled)
}

func TestStaleCatalogResponseIsDropped(t *testing.T) {
	slow := testutil.NewMappingService(t)
	hold := make(chan struct{})
	slow.Set(http.MethodGet, "/api/v1/mappingAdministration/", testutil.MockResponse{
		StatusCode: http.StatusOK,
		Body:       `[{"mappingId":"old","title":"Old"}]`,
		Hold:       hold,
	})

	h := newHarness(t, `[{"mappingId":"new","title":"New"}]`)

	s := config.Settings{BaseURL: slow.BaseURL(t), MaxFileSizeBytes: config.MB(5)}
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = h.ctrl.Initialize(context.Background(), s)
	}()
	require.Eventually(t, func() bool {
		return slow.Hits(http.MethodGet, "/api/v1/mappingAdministration/") == 1
	}, testTimeout, tick)

	require.NoError(t, h.ctrl.OnConfigChanged(context.Background(), widget.AttrBaseURL, h.svc.BaseURL(t).String()))
	close(hold)
	wg.Wait()

	opts := h.ctrl.Options()
	require.Len(t, opts, 1)
	assert.Equal(t, "new", opts[0].ID)
}

func TestOnConfigChanged(t *testing.T) {
	h := newHarness(t, demoCatalog)
	h.init(t, 5)
	before := h.ctrl.Settings()

	err := h.ctrl.OnConfigChanged(context.Background(), widget.AttrBaseURL, "not a url")
	assert.Error(t, err)
	assert.Equal(t, before.BaseURL.String(), h.ctrl.Settings().BaseURL.String())

	err = h.ctrl.OnConfigChanged(context.Background(), widget.AttrMaxFileSize, "-3")
	assert.Error(t, err)
	assert.Equal(t, config.MB(config.DefaultMaxFileSizeMB), h.ctrl.Settings().MaxFileSizeBytes)

	require.NoError(t, h.ctrl.OnConfigChanged(context.Background(), widget.AttrMaxFileSize, "7"))
	assert.Equal(t, config.MB(7), h.ctrl.Settings().MaxFileSizeBytes)

	assert.Error(t, h.ctrl.OnConfigChanged(context.Background(), "colour", "red"))
}

func TestBaseURLChangeReloads(t *testing.T) {
	h := newHarness(t, demoCatalog)
	h.init(t, 5)
	other := testutil.NewMappingService(t)
	other.SetCatalog(http.StatusOK, `[{"mappingId":"x","title":"X"}]`)

	require.NoError(t, h.ctrl.OnConfigChanged(context.Background(), widget.AttrBaseURL, other.BaseURL(t).String()))
	assert.Equal(t, 1, other.Hits(http.MethodGet, "/api/v1/mappingAdministration/"))
	require.Len(t, h.render.Options, 1)
	assert.Equal(t, "x", h.render.Options[0].ID)
}

func TestFileAttachedMessage(t *testing.T) {
	h := newHarness(t, demoCatalog)
	h.init(t, 5)
	h.picker.Attach("<data>.csv", []byte("a,b"))
	h.ctrl.FileAttached()

	msg := h.render.LastMessage()
	assert.Equal(t, widget.Info, msg.Kind)
	assert.Equal(t, "File added: <data>.csv", msg.Text())
	assert.Contains(t, msg.HTML, "<b>&lt;data&gt;.csv</b>")
}

func TestTeardown(t *testing.T) {
	h := newHarness(t, demoCatalog)
	h.init(t, 5)
	h.picker.Attach("in.txt", []byte("x"))
	h.ctrl.Teardown()

	assert.Equal(t, 0, h.picker.Count())
	assert.ErrorIs(t, h.ctrl.Reload(context.Background()), widget.ErrTornDown)
	_, err := h.ctrl.Activate("m1")
	assert.ErrorIs(t, err, widget.ErrTornDown)
	assert.False(t, h.ctrl.Execute(context.Background()))
	assert.Equal(t, 0, h.svc.TotalPosts())
}
