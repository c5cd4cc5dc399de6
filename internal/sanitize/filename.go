// Package sanitize holds the pure string filters applied before anything
// reaches a rendering surface or the local filesystem.
package sanitize

import "strings"

// FallbackFilename is used when nothing usable is left of a suggested name.
const FallbackFilename = "result"

const reservedFilenameChars = `\/:*?"<>|`

// Filename strips control characters and reserved path/device characters from
// a server-suggested name and trims surrounding whitespace.
func Filename(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		if r < 32 || r == 127 || strings.ContainsRune(reservedFilenameChars, r) {
			continue
		}
		b.WriteRune(r)
	}
	out := strings.TrimSpace(b.String())
	if out == "" {
		return FallbackFilename
	}
	return out
}
