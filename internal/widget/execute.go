package widget

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"

	"github.com/dustin/go-humanize"

	"mapexec/internal/download"
	apperrors "mapexec/internal/errors"
	"mapexec/internal/logging"
	"mapexec/internal/sanitize"
	"mapexec/internal/state"
	"mapexec/internal/util"
)

const (
	// ExecutionPath is the execution endpoint relative to the base URL; the
	// mapping id is appended as one path element.
	ExecutionPath = "api/v1/mappingExecution"
	// DocumentField is the multipart field carrying the input file.
	DocumentField = "document"
)

// ExecutionResult is the outcome of one Run. It is never persisted.
type ExecutionResult struct {
	Success      bool
	ExecutionID  string
	MappingID    string
	Result       *download.Result // set on HTTP 200
	FilenameHint string
	ContentType  string
	SavedPath    string
	StatusCode   int
	Err          error
	ErrorMessage string
}

// Execute runs one execution and reports whether it succeeded. Every failure
// has been shown as a message by the time it returns.
func (c *Controller) Execute(ctx context.Context) bool {
	return c.Run(ctx).Success
}

type execution struct {
	id        string
	mappingID string
	file      File
	body      io.ReadCloser
	base      *url.URL
	started   time.Time
}

// Run is Execute with the details of the outcome.
func (c *Controller) Run(ctx context.Context) ExecutionResult {
	ex, res, row, ok := c.begin()
	if !ok {
		c.record(ctx, row)
		return res
	}

	res = c.perform(ctx, ex)

	row = c.finish(ex, &res)
	c.record(ctx, row)
	if err := c.metrics.Write(); err != nil {
		c.log.Warnf("metrics: %v", err)
	}
	return res
}

// begin checks the preconditions in order and marks the execution in flight.
// A rejection comes back with the journal row to record once unlocked.
func (c *Controller) begin() (*execution, ExecutionResult, *state.ExecutionRow, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ex := &execution{id: state.NewExecutionID(), started: time.Now()}
	reject := func(err error) (*execution, ExecutionResult, *state.ExecutionRow, bool) {
		c.reportLocked(Error, html.EscapeString(err.Error()))
		c.metrics.IncExecution(state.StatusRejected)
		row := c.journalRow(ex, state.StatusRejected, 0, "", 0, err.Error())
		return nil, ExecutionResult{ExecutionID: ex.id, MappingID: ex.mappingID, Err: err, ErrorMessage: err.Error()}, row, false
	}

	if c.tornDown {
		return nil, ExecutionResult{Err: ErrTornDown, ErrorMessage: ErrTornDown.Error()}, nil, false
	}
	if c.inFlight {
		return reject(&apperrors.ValidationError{Reason: "An execution is already running."})
	}
	id, ok := c.sel.SelectedID()
	if !ok {
		return reject(&apperrors.ValidationError{Reason: "No mapping selected."})
	}
	ex.mappingID = id
	if c.picker.Count() < 1 {
		return reject(&apperrors.ValidationError{Reason: "No file selected."})
	}
	f, ok := c.picker.Active()
	if !ok {
		return reject(&apperrors.ValidationError{Reason: "No file selected."})
	}
	ex.file = f
	if limit := c.settings.MaxFileSizeBytes; f.Size > limit {
		return reject(&apperrors.ValidationError{Reason: fmt.Sprintf("Selected file is too large (%s > %s).",
			sanitize.FormatBytes(f.Size), sanitize.FormatBytes(limit))})
	}
	if f.Open == nil {
		return reject(&apperrors.ValidationError{Reason: "Selected file could not be read."})
	}
	body, err := f.Open()
	if err != nil {
		c.log.Warnf("open %s: %v", f.Name, err)
		return reject(&apperrors.ValidationError{Reason: "Selected file could not be read."})
	}
	ex.body = body
	ex.base = c.settings.BaseURL

	c.inFlight = true
	c.setSubmitLocked(Submit{Enabled: false, Label: LabelWait, Busy: true})
	c.log.Infof("executing mapping %q with %s (%s)", id, f.Name, humanize.IBytes(uint64(max(f.Size, 0))))
	return ex, ExecutionResult{}, nil, true
}

// perform sends the request and saves the result. It runs without the lock.
func (c *Controller) perform(ctx context.Context, ex *execution) ExecutionResult {
	res := ExecutionResult{ExecutionID: ex.id, MappingID: ex.mappingID}
	defer func() { _ = ex.body.Close() }()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(DocumentField, sanitize.Filename(ex.file.Name))
	if err == nil {
		var n int64
		n, err = io.Copy(part, ex.body)
		c.metrics.AddBytesUploaded(n)
	}
	if err == nil {
		err = mw.Close()
	}
	if err != nil {
		// The handle opened but could not be read to the end.
		res.Err = &apperrors.ValidationError{Reason: "Selected file could not be read."}
		c.log.Warnf("read %s: %v", ex.file.Name, err)
		return res
	}

	endpoint := util.JoinURLEscaped(ex.base, ExecutionPath, ex.mappingID).String()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		res.Err = &apperrors.ExecutionTransportError{MappingID: ex.mappingID, Err: err}
		return res
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	c.log.Debugf("POST %s", logging.SanitizeURL(endpoint))
	resp, err := c.client.Do(req)
	if err != nil {
		res.Err = &apperrors.ExecutionTransportError{MappingID: ex.mappingID, Err: err}
		return res
	}
	defer func() { _ = resp.Body.Close() }()
	res.StatusCode = resp.StatusCode
	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.log.Debugf("execution %s: status %d body %q", ex.id, resp.StatusCode, snippet)
		res.Err = &apperrors.ExecutionHTTPError{MappingID: ex.mappingID, StatusCode: resp.StatusCode}
		return res
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		res.Err = &apperrors.ExecutionTransportError{MappingID: ex.mappingID, Err: err}
		return res
	}
	c.metrics.AddBytesDownloaded(int64(len(data)))
	r := download.Result{
		MappingID:          ex.mappingID,
		Body:               data,
		ContentType:        resp.Header.Get("Content-Type"),
		ContentDisposition: resp.Header.Get("Content-Disposition"),
	}
	res.Result = &r
	res.FilenameHint = r.FilenameHint()
	res.ContentType = r.ContentType

	if c.downloader != nil {
		path, err := c.downloader.Save(ctx, r)
		if err != nil {
			res.Err = fmt.Errorf("result could not be saved: %w", err)
			return res
		}
		res.SavedPath = path
	}
	res.Success = true
	return res
}

// finish reports the outcome and runs the reset path: submit back to its
// idle label, enabled only while a mapping is selected, and the picker cleared.
// It returns the journal row; disk I/O happens after the lock is released.
func (c *Controller) finish(ex *execution, res *ExecutionResult) *state.ExecutionRow {
	c.mu.Lock()
	defer c.mu.Unlock()

	elapsed := time.Since(ex.started)
	c.metrics.ObserveExecutionSeconds(elapsed.Seconds())
	status := state.StatusSucceeded
	if res.Success {
		name := res.SavedPath
		if name == "" && res.Result != nil {
			name = res.Result.Filename()
		}
		c.reportLocked(Info, fmt.Sprintf("Mapping executed successfully. Result saved as <b>%s</b>.", html.EscapeString(name)))
	} else {
		status = state.StatusFailed
		if res.Err == nil {
			res.Err = fmt.Errorf("execution failed")
		}
		res.ErrorMessage = res.Err.Error()
		c.reportLocked(Error, html.EscapeString(res.ErrorMessage))
	}
	c.metrics.IncExecution(status)
	var resultSize int64
	if res.Result != nil {
		resultSize = int64(len(res.Result.Body))
	}
	row := c.journalRow(ex, status, res.StatusCode, res.SavedPath, resultSize, res.ErrorMessage)

	c.inFlight = false
	_, selected := c.sel.SelectedID()
	c.setSubmitLocked(Submit{Enabled: selected && !c.tornDown, Label: LabelExecute})
	c.picker.Clear()
	return row
}

func (c *Controller) journalRow(ex *execution, status string, httpStatus int, path string, resultSize int64, errText string) *state.ExecutionRow {
	if c.journal == nil {
		return nil
	}
	return &state.ExecutionRow{
		ID:         ex.id,
		MappingID:  ex.mappingID,
		FileName:   ex.file.Name,
		FileSize:   ex.file.Size,
		Status:     status,
		HTTPStatus: httpStatus,
		ResultPath: path,
		ResultSize: resultSize,
		Error:      errText,
		StartedAt:  ex.started,
		Duration:   time.Since(ex.started),
	}
}

// record writes row to the journal. Called without the lock.
func (c *Controller) record(ctx context.Context, row *state.ExecutionRow) {
	if row == nil || c.journal == nil {
		return
	}
	if ctx.Err() != nil {
		ctx = context.Background()
	}
	if err := c.journal.RecordExecution(ctx, *row); err != nil {
		c.log.Warnf("journal: %v", err)
	}
}
