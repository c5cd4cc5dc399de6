package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config mirrors the YAML schema. Missing values fall back to the defaults
// applied by ApplyDefaults; Validate rejects values that cannot work.
type Config struct {
	Version int       `yaml:"version" validate:"eq=1"`
	Service Service   `yaml:"service"`
	Network Network   `yaml:"network"`
	Output  Output    `yaml:"output"`
	Logging Logging   `yaml:"logging"`
	Metrics Metrics   `yaml:"metrics"`
	UI      UIOptions `yaml:"ui"`
}

type Service struct {
	// BaseURL is the mapping service root, e.g. http://localhost:8090/
	BaseURL string `yaml:"base_url" validate:"required,url"`
	// MaxFileSizeMB limits uploads. Non-positive values fall back to DefaultMaxFileSizeMB.
	MaxFileSizeMB int `yaml:"max_file_size_mb" validate:"gte=0"`
}

type Network struct {
	TimeoutSeconds int    `yaml:"timeout_seconds" validate:"gte=0"`
	TLSVerify      *bool  `yaml:"tls_verify"`
	UserAgent      string `yaml:"user_agent"`
}

type Output struct {
	DownloadDir string `yaml:"download_dir"`
	// Overwrite replaces an existing file instead of picking "name (n).ext".
	Overwrite bool `yaml:"overwrite"`
}

type Logging struct {
	Level  string  `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	Format string  `yaml:"format" validate:"omitempty,oneof=human json"`
	File   LogFile `yaml:"file"`
}

type LogFile struct {
	Enabled      bool   `yaml:"enabled"`
	Path         string `yaml:"path" validate:"required_if=Enabled true"`
	MaxMegabytes int    `yaml:"max_megabytes" validate:"gte=0"`
	MaxBackups   int    `yaml:"max_backups" validate:"gte=0"`
	MaxAgeDays   int    `yaml:"max_age_days" validate:"gte=0"`
}

type Metrics struct {
	PrometheusTextfile PromTextfile `yaml:"prometheus_textfile"`
}

type PromTextfile struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path" validate:"required_if=Enabled true"`
}

type UIOptions struct {
	// RefreshHz controls the TUI spinner/tick frequency. If 0, defaults to 10.
	RefreshHz int `yaml:"refresh_hz" validate:"gte=0,lte=30"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	c := &Config{Version: 1}
	c.ApplyDefaults()
	return c
}

// Load reads, parses, expands, and validates a YAML config file.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}
	expanded, err := expandTilde(path)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(expanded)
	if err != nil {
		return nil, err
	}
	return Parse(b)
}

// Parse is Load without the file access.
func Parse(b []byte) (*Config, error) {
	// Expand ${ENV} placeholders before unmarshalling
	b = []byte(os.ExpandEnv(string(b)))
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}
	c.ApplyDefaults()
	if err := c.expandPaths(); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// ApplyDefaults fills zero values.
func (c *Config) ApplyDefaults() {
	if strings.TrimSpace(c.Service.BaseURL) == "" {
		c.Service.BaseURL = DefaultBaseURL
	}
	if c.Service.MaxFileSizeMB <= 0 {
		c.Service.MaxFileSizeMB = DefaultMaxFileSizeMB
	}
	if c.Network.TimeoutSeconds == 0 {
		c.Network.TimeoutSeconds = 120
	}
	if c.Output.DownloadDir == "" {
		c.Output.DownloadDir = "."
	}
	if c.UI.RefreshHz == 0 {
		c.UI.RefreshHz = 10
	}
}

// TLSVerifyEnabled defaults to true when tls_verify is absent.
func (c *Config) TLSVerifyEnabled() bool {
	return c.Network.TLSVerify == nil || *c.Network.TLSVerify
}

// Settings derives the runtime widget settings from the file configuration.
func (c *Config) Settings() (Settings, error) {
	u, err := ParseBaseURL(c.Service.BaseURL)
	if err != nil {
		return Settings{}, err
	}
	return Settings{BaseURL: u, MaxFileSizeBytes: int64(c.Service.MaxFileSizeMB) * bytesPerMB}, nil
}

func (c *Config) expandPaths() error {
	var err error
	if c.Output.DownloadDir, err = expandTilde(c.Output.DownloadDir); err != nil {
		return err
	}
	if c.Logging.File.Path, err = expandTilde(c.Logging.File.Path); err != nil {
		return err
	}
	if c.Metrics.PrometheusTextfile.Path, err = expandTilde(c.Metrics.PrometheusTextfile.Path); err != nil {
		return err
	}
	return nil
}

// Validate runs the struct tag rules and the checks tags cannot express.
func (c *Config) Validate() error {
	if err := newValidator().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			e := verrs[0]
			return fmt.Errorf("%s: failed %q validation (value %v)", e.Namespace(), e.ActualTag(), e.Value())
		}
		return err
	}
	if _, err := ParseBaseURL(c.Service.BaseURL); err != nil {
		return fmt.Errorf("service.base_url: %w", err)
	}
	return nil
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		// Use YAML field names in error messages
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

func expandTilde(p string) (string, error) {
	if p == "" {
		return "", nil
	}
	if p[0] != '~' {
		return p, nil
	}
	h, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	if p == "~" {
		return h, nil
	}
	return filepath.Join(h, p[2:]), nil
}

// EnsureDir creates path if it does not exist.
func EnsureDir(path string, perm fs.FileMode) error {
	if path == "" {
		return nil
	}
	return os.MkdirAll(path, perm)
}

// DefaultPath is $MAPEXEC_CONFIG or ~/.config/mapexec/config.yml.
func DefaultPath() string {
	if env := os.Getenv("MAPEXEC_CONFIG"); env != "" {
		return env
	}
	if h, err := os.UserHomeDir(); err == nil && h != "" {
		return filepath.Join(h, ".config", "mapexec", "config.yml")
	}
	return ""
}
