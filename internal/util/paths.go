package util

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"mapexec/internal/sanitize"
)

// UniquePath returns a path inside dir for the given base filename that does
// not exist yet, trying numeric suffixes " (2)", " (3)", etc. before the extension.
func UniquePath(dir, base string) (string, error) {
	base = sanitize.Filename(base)
	ext := filepath.Ext(base)
	name := strings.TrimSuffix(base, ext)
	path := filepath.Join(dir, base)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return path, nil
		}
		return "", err
	}
	for i := 2; ; i++ {
		cand := filepath.Join(dir, fmt.Sprintf("%s (%d)%s", name, i, ext))
		if _, err := os.Stat(cand); os.IsNotExist(err) {
			return cand, nil
		}
	}
}

// ExpandHome replaces a leading "~" or "~/" with the user's home directory.
// The path is returned unchanged when the home directory is unknown.
func ExpandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	h, err := os.UserHomeDir()
	if err != nil || h == "" {
		return p
	}
	if p == "~" {
		return h
	}
	return filepath.Join(h, p[2:])
}
