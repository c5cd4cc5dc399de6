package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ValidationError represents a detailed config validation error
type ValidationError struct {
	Field      string
	Value      interface{}
	Message    string
	Suggestion string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("Config validation error in '%s': %s", e.Field, e.Message)
}

// ValidateDetailed performs comprehensive validation with friendly error messages
func (c *Config) ValidateDetailed() []ValidationError {
	var errs []ValidationError

	if c.Version != 1 {
		errs = append(errs, ValidationError{
			Field:      "version",
			Value:      c.Version,
			Message:    fmt.Sprintf("Unsupported version: %d", c.Version),
			Suggestion: "Use version: 1",
		})
	}

	if _, err := ParseBaseURL(c.Service.BaseURL); err != nil {
		errs = append(errs, ValidationError{
			Field:      "service.base_url",
			Value:      c.Service.BaseURL,
			Message:    err.Error(),
			Suggestion: "Use the mapping service root, e.g.:\n  base_url: " + DefaultBaseURL,
		})
	}

	if c.Service.MaxFileSizeMB < 0 {
		errs = append(errs, ValidationError{
			Field:      "service.max_file_size_mb",
			Value:      c.Service.MaxFileSizeMB,
			Message:    "Must be a positive number of megabytes",
			Suggestion: fmt.Sprintf("Remove the field to use the default of %d MB", DefaultMaxFileSizeMB),
		})
	}

	if c.Network.TimeoutSeconds < 0 {
		errs = append(errs, ValidationError{
			Field:      "network.timeout_seconds",
			Value:      c.Network.TimeoutSeconds,
			Message:    "Must be >= 0",
			Suggestion: "Mapping runs can take a while; 120 is a reasonable value",
		})
	}

	if c.Output.DownloadDir != "" {
		if fi, err := os.Stat(c.Output.DownloadDir); err == nil && !fi.IsDir() {
			errs = append(errs, ValidationError{
				Field:      "output.download_dir",
				Value:      c.Output.DownloadDir,
				Message:    "Path exists but is not a directory",
				Suggestion: "Point download_dir at a directory",
			})
		}
	}

	switch strings.ToLower(c.Logging.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		errs = append(errs, ValidationError{
			Field:      "logging.level",
			Value:      c.Logging.Level,
			Message:    "Unknown log level",
			Suggestion: "Use one of: debug, info, warn, error",
		})
	}

	switch strings.ToLower(c.Logging.Format) {
	case "", "human", "json":
	default:
		errs = append(errs, ValidationError{
			Field:      "logging.format",
			Value:      c.Logging.Format,
			Message:    "Unknown log format",
			Suggestion: "Use human or json",
		})
	}

	if c.Logging.File.Enabled && c.Logging.File.Path == "" {
		errs = append(errs, ValidationError{
			Field:      "logging.file.path",
			Message:    "Required when logging.file.enabled is true",
			Suggestion: "Set e.g. path: ~/.local/state/mapexec/mapexec.log",
		})
	}

	if c.Metrics.PrometheusTextfile.Enabled {
		p := c.Metrics.PrometheusTextfile.Path
		if p == "" {
			errs = append(errs, ValidationError{
				Field:      "metrics.prometheus_textfile.path",
				Message:    "Required when the textfile exporter is enabled",
				Suggestion: "Point it at the node_exporter textfile directory, e.g. /var/lib/node_exporter/mapexec.prom",
			})
		} else if _, err := os.Stat(filepath.Dir(p)); err != nil {
			errs = append(errs, ValidationError{
				Field:      "metrics.prometheus_textfile.path",
				Value:      p,
				Message:    "Parent directory does not exist",
				Suggestion: "Create it with: mkdir -p " + filepath.Dir(p),
			})
		}
	}

	return errs
}
