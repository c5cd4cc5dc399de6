package testutil

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"

	"mapexec/internal/download"
	"mapexec/internal/selection"
	"mapexec/internal/widget"
)

// Picker is an in-memory FilePicker.
type Picker struct {
	mu       sync.Mutex
	file     *widget.File
	Cleared  int
	Browsed  int
	OpenErr  error
	NoHandle bool
}

// Attach puts a file with the given content into the picker.
func (p *Picker) Attach(name string, content []byte) {
	p.AttachSized(name, int64(len(content)), content)
}

// AttachSized reports size regardless of the actual content length.
func (p *Picker) AttachSized(name string, size int64, content []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	f := widget.File{Name: name, Size: size}
	if !p.NoHandle {
		f.Open = func() (io.ReadCloser, error) {
			if p.OpenErr != nil {
				return nil, p.OpenErr
			}
			return io.NopCloser(bytes.NewReader(content)), nil
		}
	}
	p.file = &f
}

func (p *Picker) Count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.file == nil {
		return 0
	}
	return 1
}

func (p *Picker) Active() (widget.File, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.file == nil {
		return widget.File{}, false
	}
	return *p.file, true
}

func (p *Picker) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.file = nil
	p.Cleared++
}

func (p *Picker) Browse() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Browsed++
}

// Renderer records everything the controller draws.
type Renderer struct {
	mu       sync.Mutex
	Options  []selection.Option
	Messages []widget.Message
	Submits  []widget.Submit
	Focused  string
}

func (r *Renderer) RenderOptions(opts []selection.Option) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Options = opts
}

func (r *Renderer) ShowMessage(m widget.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Messages = append(r.Messages, m)
}

func (r *Renderer) SetSubmit(s widget.Submit) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Submits = append(r.Submits, s)
}

func (r *Renderer) Focus(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Focused = id
}

// LastMessage returns the latest message, or the zero Message.
func (r *Renderer) LastMessage() widget.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.Messages) == 0 {
		return widget.Message{}
	}
	return r.Messages[len(r.Messages)-1]
}

// LastSubmit returns the latest submit state.
func (r *Renderer) LastSubmit() widget.Submit {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.Submits) == 0 {
		return widget.Submit{}
	}
	return r.Submits[len(r.Submits)-1]
}

// Downloader keeps saved results in memory.
type Downloader struct {
	mu    sync.Mutex
	Saved []download.Result
	Err   error
}

func (d *Downloader) Save(_ context.Context, r download.Result) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Err != nil {
		return "", d.Err
	}
	d.Saved = append(d.Saved, r)
	return "/downloads/" + r.Filename(), nil
}

// ErrUnreadable is a ready-made open error.
var ErrUnreadable = errors.New("permission denied")
