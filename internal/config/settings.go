package config

import (
	"errors"
	"net/url"
	"strconv"
	"strings"

	apperrors "mapexec/internal/errors"
)

const (
	// DefaultBaseURL is where a locally started mapping service listens.
	DefaultBaseURL = "http://localhost:8090/"
	// DefaultMaxFileSizeMB applies when no valid limit was supplied.
	DefaultMaxFileSizeMB = 10

	bytesPerMB = 1024 * 1024
)

// Settings is the runtime configuration of one widget instance.
type Settings struct {
	BaseURL          *url.URL
	MaxFileSizeBytes int64
}

// DefaultSettings returns DefaultBaseURL and DefaultMaxFileSizeMB.
func DefaultSettings() Settings {
	u, _ := url.Parse(DefaultBaseURL)
	return Settings{BaseURL: u, MaxFileSizeBytes: DefaultMaxFileSizeMB * bytesPerMB}
}

// ParseBaseURL accepts absolute http(s) URLs only.
func ParseBaseURL(raw string) (*url.URL, error) {
	s := strings.TrimSpace(raw)
	u, err := url.Parse(s)
	if err != nil {
		return nil, &apperrors.ConfigurationError{Field: "base-url", Value: raw, Err: err}
	}
	if !u.IsAbs() || u.Host == "" {
		return nil, &apperrors.ConfigurationError{Field: "base-url", Value: raw, Err: errors.New("must be an absolute URL")}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, &apperrors.ConfigurationError{Field: "base-url", Value: raw, Err: errors.New("scheme must be http or https")}
	}
	return u, nil
}

// ParseMaxFileSizeMB returns the limit in bytes. Anything but a positive
// integer yields the default limit together with a ConfigurationError.
func ParseMaxFileSizeMB(raw string) (int64, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n <= 0 {
		if err == nil {
			err = errors.New("must be a positive integer")
		}
		return DefaultMaxFileSizeMB * bytesPerMB, &apperrors.ConfigurationError{Field: "max-file-size", Value: raw, Err: err}
	}
	return int64(n) * bytesPerMB, nil
}

// MB converts a megabyte count to bytes.
func MB(n int) int64 { return int64(n) * bytesPerMB }
