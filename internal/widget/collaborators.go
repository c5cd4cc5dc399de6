package widget

import (
	"context"
	"io"

	"mapexec/internal/download"
	"mapexec/internal/selection"
)

// File is the document currently attached to the picker.
type File struct {
	Name string
	Size int64
	// Open returns the file contents. A nil Open means the handle is not retrievable.
	Open func() (io.ReadCloser, error)
}

// FilePicker holds zero or one attached file.
type FilePicker interface {
	Count() int
	Active() (File, bool)
	Clear()
	Browse()
}

// Submit describes the execute control.
type Submit struct {
	Enabled bool
	Label   string
	Busy    bool
}

const (
	LabelExecute = "Execute"
	LabelWait    = "Please wait..."
)

// Renderer is the surface the controller draws on. Calls arrive in the order
// the state changed and never concurrently.
type Renderer interface {
	RenderOptions(opts []selection.Option)
	ShowMessage(msg Message)
	SetSubmit(s Submit)
	Focus(elementID string)
}

// Downloader stores a successful result and returns where it went.
type Downloader interface {
	Save(ctx context.Context, r download.Result) (string, error)
}

type nopRenderer struct{}

func (nopRenderer) RenderOptions([]selection.Option) {}
func (nopRenderer) ShowMessage(Message)              {}
func (nopRenderer) SetSubmit(Submit)                 {}
func (nopRenderer) Focus(string)                     {}

type emptyPicker struct{}

func (emptyPicker) Count() int           { return 0 }
func (emptyPicker) Active() (File, bool) { return File{}, false }
func (emptyPicker) Clear()               {}
func (emptyPicker) Browse()              {}
