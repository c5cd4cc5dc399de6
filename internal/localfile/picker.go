// Package localfile is a FilePicker over the local filesystem.
package localfile

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"mapexec/internal/logging"
	"mapexec/internal/util"
	"mapexec/internal/widget"
)

// Picker holds at most one attached file. Attaching replaces the previous one.
type Picker struct {
	mu     sync.Mutex
	path   string
	size   int64
	log    *logging.Logger
	browse func()
}

// New returns an empty picker. onBrowse is invoked by Browse and may be nil.
func New(log *logging.Logger, onBrowse func()) *Picker {
	return &Picker{log: log, browse: onBrowse}
}

// Attach stats path and makes it the active file.
func (p *Picker) Attach(path string) error {
	path = util.ExpandHome(path)
	st, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("attach %s: %w", path, err)
	}
	if st.IsDir() {
		return fmt.Errorf("attach %s: is a directory", path)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.path = path
	p.size = st.Size()
	p.log.Debugf("attached %s (%d bytes)", path, p.size)
	return nil
}

// Path returns the attached path or "".
func (p *Picker) Path() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.path
}

func (p *Picker) Count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.path == "" {
		return 0
	}
	return 1
}

// ErrChanged is returned by Open when the file no longer has the size
// Active reported.
var ErrChanged = errors.New("file changed since it was checked")

// Active re-stats the attached file, so the reported size is the one Open
// will deliver. Open fails with ErrChanged if the file changed in between and
// never reads more than the reported size.
func (p *Picker) Active() (widget.File, bool) {
	p.mu.Lock()
	path := p.path
	p.mu.Unlock()
	if path == "" {
		return widget.File{}, false
	}
	f := widget.File{Name: filepath.Base(path)}
	st, err := os.Stat(path)
	if err != nil {
		p.log.Warnf("stat %s: %v", path, err)
		f.Open = func() (io.ReadCloser, error) { return nil, err }
		return f, true
	}
	size := st.Size()
	f.Size = size
	f.Open = func() (io.ReadCloser, error) { return openSized(path, size) }
	return f, true
}

func openSized(path string, size int64) (io.ReadCloser, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	st, err := fh.Stat()
	if err != nil {
		_ = fh.Close()
		return nil, err
	}
	if st.Size() != size {
		_ = fh.Close()
		return nil, fmt.Errorf("%s: %w (%d bytes, expected %d)", path, ErrChanged, st.Size(), size)
	}
	return struct {
		io.Reader
		io.Closer
	}{io.LimitReader(fh, size), fh}, nil
}

func (p *Picker) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.path = ""
	p.size = 0
}

func (p *Picker) Browse() {
	if p.browse != nil {
		p.browse()
	}
}
