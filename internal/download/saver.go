package download

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/dustin/go-humanize"

	"mapexec/internal/logging"
	"mapexec/internal/sanitize"
	"mapexec/internal/util"
)

// Saver writes results into one directory. Files are written to a .part
// file first and renamed, so a failed write never leaves a truncated result.
type Saver struct {
	// mu serializes name selection and rename so parallel runs never pick
	// the same free name.
	mu        sync.Mutex
	dir       string
	overwrite bool
	log       *logging.Logger
}

func NewSaver(dir string, overwrite bool, log *logging.Logger) *Saver {
	if dir == "" {
		dir = "."
	}
	return &Saver{dir: dir, overwrite: overwrite, log: log}
}

// Dir returns the target directory.
func (s *Saver) Dir() string { return s.dir }

// Save stores r and returns the final path.
func (s *Saver) Save(ctx context.Context, r Result) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	name := r.Filename()
	dest := filepath.Join(s.dir, name)
	if filepath.Dir(dest) != filepath.Clean(s.dir) {
		s.log.Warnf("result name %q leaves %s; using the fallback name", name, s.dir)
		name = sanitize.FallbackFilename + extensionFor(r.ContentType)
		dest = filepath.Join(s.dir, name)
	}
	if !s.overwrite {
		var err error
		if dest, err = util.UniquePath(s.dir, name); err != nil {
			return "", err
		}
	}
	part := dest + ".part"
	f, err := os.OpenFile(part, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return "", err
	}
	hasher := sha256.New()
	_, werr := io.Copy(io.MultiWriter(f, hasher), bytes.NewReader(r.Body))
	cerr := f.Close()
	if err := errors.Join(werr, cerr); err != nil {
		_ = os.Remove(part)
		return "", fmt.Errorf("write %s: %w", part, err)
	}
	if err := os.Rename(part, dest); err != nil {
		_ = os.Remove(part)
		return "", err
	}
	s.log.Infof("saved %s (%s, sha256=%s)", dest, humanize.IBytes(uint64(len(r.Body))), hex.EncodeToString(hasher.Sum(nil)))
	return dest, nil
}
