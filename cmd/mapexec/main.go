package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"mapexec/internal/config"
	apperrors "mapexec/internal/errors"
	"mapexec/internal/logging"
	"mapexec/internal/util"
)

var version = "dev"

// stdout receives command output; logs go to stderr.
var stdout io.Writer = os.Stdout

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintln(os.Stderr, "warning: .env:", err)
	}
	util.Version = version
	if err := run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		usage()
		return errors.New("no command provided")
	}

	cmd := args[0]
	switch cmd {
	case "catalog":
		return handleCatalog(ctx, args[1:])
	case "run":
		return handleRun(ctx, args[1:])
	case "tui":
		return handleTUI(ctx, args[1:])
	case "config":
		return handleConfig(ctx, args[1:])
	case "doctor":
		return handleDoctor(ctx, args[1:])
	case "version":
		fmt.Fprintln(stdout, version)
		return nil
	case "completion":
		return handleCompletion(ctx, args[1:])
	case "help", "-h", "--help":
		usage()
		return nil
	default:
		usage()
		return fmt.Errorf("unknown command: %s", cmd)
	}
}

func usage() {
	fmt.Fprintln(stdout, strings.TrimSpace(`mapexec - run mappings of a mapping service against local files

Usage:
  mapexec <command> [flags]

Commands:
  catalog           List the mappings the service offers
  run               Execute a mapping for one or more files and save the results
  tui               Open the interactive terminal widget
  config validate   Validate a YAML config file
  config print      Print the effective config as YAML
  doctor            Check config, result directory and service connectivity
  version           Print version
  help              Show this help
  completion        Generate shell completion scripts (bash|zsh|fish)

Flags:
  --config PATH           Path to YAML config file (or MAPEXEC_CONFIG; default: ~/.config/mapexec/config.yml)
  --log-level L           Log level: debug|info|warn|error (per command)
  --json                  JSON log output (per command)
  --base-url URL          Mapping service root (or MAPEXEC_BASE_URL)
  --max-file-size-mb N    Upload limit in MB (or MAPEXEC_MAX_FILE_SIZE_MB)

Run flags:
  --mapping ID|TITLE      Mapping id, or a title that fuzzily matches exactly one mapping
  --batch FILE            YAML jobs file (version: 1, jobs: [{mapping, files, out}])
  --out DIR               Directory for results (default: output.download_dir)
  --parallel N            Number of files executed at once (default 1)
  --summary               Print the session journal when done
`))
}

// commonFlags are registered on every subcommand.
type commonFlags struct {
	cfgPath   string
	logLevel  string
	jsonOut   bool
	baseURL   string
	maxSizeMB string
}

func addCommonFlags(fs *flag.FlagSet) *commonFlags {
	f := &commonFlags{}
	fs.StringVar(&f.cfgPath, "config", "", "Path to YAML config file")
	fs.StringVar(&f.logLevel, "log-level", "", "log level (default: logging.level or info)")
	fs.BoolVar(&f.jsonOut, "json", false, "json logs and output")
	fs.StringVar(&f.baseURL, "base-url", "", "mapping service root URL")
	fs.StringVar(&f.maxSizeMB, "max-file-size-mb", "", "upload limit in MB")
	return f
}

// env is what a command needs after flags, config and overrides are resolved.
type env struct {
	cfg       *config.Config
	settings  config.Settings
	log       *logging.Logger
	client    *http.Client
	userAgent string
}

func (e *env) Close() {
	if e != nil {
		_ = e.log.Close()
	}
}

// setup loads the config, applies environment and flag overrides and builds
// the logger and HTTP client.
func (f *commonFlags) setup() (*env, error) {
	cfg, err := f.loadConfig()
	if err != nil {
		return nil, err
	}
	warnings := f.applyOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		if problems := cfg.ValidateDetailed(); len(problems) > 0 {
			return nil, apperrors.ConfigError(problems[0].Field, problems[0].Message).WithDetails(err)
		}
		return nil, err
	}
	settings, err := cfg.Settings()
	if err != nil {
		return nil, err
	}
	log := f.newLogger(cfg)
	for _, w := range warnings {
		log.Warnf("%s", w)
	}
	return &env{
		cfg:       cfg,
		settings:  settings,
		log:       log,
		client:    util.NewHTTPClient(cfg),
		userAgent: util.UserAgent(cfg),
	}, nil
}

// loadConfig reads the config file. A missing file is only an error when a
// path was given explicitly.
func (f *commonFlags) loadConfig() (*config.Config, error) {
	path := f.cfgPath
	explicit := path != "" || os.Getenv("MAPEXEC_CONFIG") != ""
	if path == "" {
		path = config.DefaultPath()
	}
	if path == "" {
		return config.Default(), nil
	}
	if _, err := os.Stat(util.ExpandHome(path)); err != nil {
		if explicit {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return config.Default(), nil
	}
	return config.Load(path)
}

// applyOverrides layers MAPEXEC_* variables and then flags over the file.
// An unusable size limit falls back to the default and is reported.
func (f *commonFlags) applyOverrides(cfg *config.Config) []string {
	var warnings []string
	setSize := func(raw string) {
		n, err := config.ParseMaxFileSizeMB(raw)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("%v; using %d MB", err, config.DefaultMaxFileSizeMB))
		}
		cfg.Service.MaxFileSizeMB = int(n / config.MB(1))
	}
	if v := strings.TrimSpace(os.Getenv("MAPEXEC_BASE_URL")); v != "" {
		cfg.Service.BaseURL = v
	}
	if v := os.Getenv("MAPEXEC_MAX_FILE_SIZE_MB"); v != "" {
		setSize(v)
	}
	if f.baseURL != "" {
		cfg.Service.BaseURL = f.baseURL
	}
	if f.maxSizeMB != "" {
		setSize(f.maxSizeMB)
	}
	return warnings
}

func (f *commonFlags) level(cfg *config.Config) string {
	switch {
	case f.logLevel != "":
		return f.logLevel
	case cfg.Logging.Level != "":
		return cfg.Logging.Level
	default:
		return "info"
	}
}

func (f *commonFlags) newLogger(cfg *config.Config) *logging.Logger {
	jsonOut := f.jsonOut || cfg.Logging.Format == "json"
	if cfg.Logging.File.Enabled {
		return logging.NewWithFile(f.level(cfg), jsonOut, logging.FileOptions{
			Path:         cfg.Logging.File.Path,
			MaxMegabytes: cfg.Logging.File.MaxMegabytes,
			MaxBackups:   cfg.Logging.File.MaxBackups,
			MaxAgeDays:   cfg.Logging.File.MaxAgeDays,
		})
	}
	return logging.New(f.level(cfg), jsonOut)
}
