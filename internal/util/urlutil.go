package util

import (
	"net/url"
	"strings"
)

// JoinURL appends path segments to base, inserting exactly one slash between
// parts. A trailing slash on the last segment is kept. The base is not modified.
func JoinURL(base *url.URL, segments ...string) *url.URL {
	u := *base
	p := u.Path
	for _, s := range segments {
		if s == "" {
			continue
		}
		p = strings.TrimSuffix(p, "/") + "/" + strings.TrimPrefix(s, "/")
	}
	u.Path = p
	u.RawPath = ""
	return &u
}

// JoinURLEscaped is JoinURL for a final segment that must stay a single path
// element, such as an id that may contain slashes.
func JoinURLEscaped(base *url.URL, prefix, element string) *url.URL {
	u := JoinURL(base, prefix)
	p := strings.TrimSuffix(u.Path, "/") + "/" + element
	u.RawPath = strings.TrimSuffix(u.EscapedPath(), "/") + "/" + url.PathEscape(element)
	u.Path = p
	return u
}
