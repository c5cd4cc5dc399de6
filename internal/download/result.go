// Package download turns an execution response into a file on disk.
package download

import (
	"mime"
	"strings"

	"mapexec/internal/sanitize"
)

// Result is the successful answer of one mapping execution.
type Result struct {
	MappingID          string
	Body               []byte
	ContentType        string // "" when the header was absent
	ContentDisposition string // "" when the header was absent
}

// FilenameHint is the unsanitized filename suggested by content-disposition,
// preferring the RFC 5987 filename* parameter. Empty when none was given.
func (r Result) FilenameHint() string {
	cd := strings.TrimSpace(r.ContentDisposition)
	if cd == "" {
		return ""
	}
	if _, params, err := mime.ParseMediaType(cd); err == nil {
		// mime decodes filename* into "filename".
		return strings.TrimSpace(params["filename"])
	}
	return legacyFilename(cd)
}

// Filename is the local name for the result: the sanitized hint, or
// "result" plus an extension derived from the content type. Hints that name
// a directory entry ("." or "..") are ignored.
func (r Result) Filename() string {
	if hint := r.FilenameHint(); hint != "" {
		if name := sanitize.Filename(hint); !isDotName(name) {
			return name
		}
	}
	return sanitize.FallbackFilename + extensionFor(r.ContentType)
}

func isDotName(name string) bool {
	return strings.Trim(name, ".") == ""
}

// legacyFilename digs filename=... out of headers mime rejects, e.g. unquoted
// values containing spaces.
func legacyFilename(cd string) string {
	for _, part := range strings.Split(cd, ";") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok || !strings.EqualFold(strings.TrimSpace(k), "filename") {
			continue
		}
		return strings.Trim(strings.TrimSpace(v), `"`)
	}
	return ""
}

var preferredExt = map[string]string{
	"application/json": ".json",
	"application/xml":  ".xml",
	"text/xml":         ".xml",
	"text/plain":       ".txt",
	"text/csv":         ".csv",
	"application/zip":  ".zip",
	"application/pdf":  ".pdf",
}

func extensionFor(contentType string) string {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil || mt == "" {
		return ""
	}
	if ext, ok := preferredExt[mt]; ok {
		return ext
	}
	if exts, err := mime.ExtensionsByType(mt); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ""
}
