package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"mapexec/internal/catalog"
	"mapexec/internal/config"
	"mapexec/internal/logging"
	"mapexec/internal/system"
	"mapexec/internal/util"
)

// Check represents a single diagnostic check
type Check struct {
	Name        string
	Run         func(ctx context.Context) CheckResult
	Critical    bool // If true, failure means executions cannot work
	Description string
}

// CheckResult represents the result of a diagnostic check
type CheckResult struct {
	Passed     bool
	Warning    bool // Passed but with warnings
	Message    string
	Suggestion string
}

func handleDoctor(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("doctor", flag.ContinueOnError)
	cf := addCommonFlags(fs)
	verbose := fs.Bool("verbose", false, "Show detailed output for each check")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfgPath := cf.cfgPath
	if cfgPath == "" {
		cfgPath = os.Getenv("MAPEXEC_CONFIG")
	}
	if cfgPath == "" {
		cfgPath = config.DefaultPath()
	}
	e, cfgErr := cf.setup()
	if e != nil {
		defer e.Close()
	}

	fmt.Fprint(stdout, "Running mapexec diagnostics...\n\n")

	notLoaded := CheckResult{Passed: false, Message: "Config not loaded"}
	checks := []Check{
		{
			Name:        "Config file",
			Description: "A config file is optional; defaults are used without one",
			Run: func(ctx context.Context) CheckResult {
				if cfgPath == "" {
					return CheckResult{Passed: true, Warning: true, Message: "No config path; using defaults"}
				}
				if _, err := os.Stat(util.ExpandHome(cfgPath)); err != nil {
					return CheckResult{
						Passed:     true,
						Warning:    true,
						Message:    fmt.Sprintf("Not found: %s (using defaults)", cfgPath),
						Suggestion: "Run 'mapexec config print > " + cfgPath + "' to start one",
					}
				}
				return CheckResult{Passed: true, Message: fmt.Sprintf("Found: %s", cfgPath)}
			},
		},
		{
			Name:        "Config is valid",
			Critical:    true,
			Description: "Configuration must parse and validate",
			Run: func(ctx context.Context) CheckResult {
				if cfgErr != nil {
					return CheckResult{
						Passed:     false,
						Message:    "Config loading failed",
						Suggestion: fmt.Sprintf("Fix config errors:\n%v\n\nRun 'mapexec config validate' for details", cfgErr),
					}
				}
				return CheckResult{
					Passed: true,
					Message: fmt.Sprintf("Service %s, upload limit %s",
						logging.SanitizeURL(e.settings.BaseURL.String()),
						humanize.IBytes(uint64(e.settings.MaxFileSizeBytes))),
				}
			},
		},
		{
			Name:        "Download directory exists and is writable",
			Critical:    true,
			Description: "Results must have a valid destination directory",
			Run: func(ctx context.Context) CheckResult {
				if e == nil {
					return notLoaded
				}
				return checkWritableDir(e.cfg.Output.DownloadDir)
			},
		},
		{
			Name:        "Disk space available",
			Description: "Room for execution results",
			Run: func(ctx context.Context) CheckResult {
				if e == nil {
					return notLoaded
				}
				ok, available, err := system.HasSufficientSpace(e.cfg.Output.DownloadDir, uint64(e.settings.MaxFileSizeBytes))
				if err != nil {
					return CheckResult{Passed: true, Warning: true, Message: fmt.Sprintf("Could not check disk space: %v", err)}
				}
				if !ok {
					return CheckResult{
						Passed:     false,
						Message:    fmt.Sprintf("Very low disk space: %s", humanize.Bytes(available)),
						Suggestion: "Free up disk space or set output.download_dir to another volume",
					}
				}
				return CheckResult{Passed: true, Message: fmt.Sprintf("%s available", humanize.Bytes(available))}
			},
		},
		{
			Name:        "Proxy settings",
			Description: "Proxies picked up from the environment",
			Run: func(ctx context.Context) CheckResult {
				proxies := system.DetectProxySettings()
				if len(proxies) == 0 {
					return CheckResult{Passed: true, Message: "No proxy configured"}
				}
				keys := make([]string, 0, len(proxies))
				for k := range proxies {
					keys = append(keys, k)
				}
				sort.Strings(keys)
				var lines []string
				for _, k := range keys {
					lines = append(lines, fmt.Sprintf("%s=%s", k, logging.SanitizeURL(proxies[k])))
				}
				return CheckResult{Passed: true, Message: strings.Join(lines, ", ")}
			},
		},
		{
			Name:        "Mapping service reachable",
			Critical:    true,
			Description: "TCP connection to the service host",
			Run: func(ctx context.Context) CheckResult {
				if e == nil {
					return notLoaded
				}
				if err := system.CheckServiceReachable(ctx, e.settings.BaseURL); err != nil {
					return CheckResult{Passed: false, Message: "Network check failed", Suggestion: err.Error()}
				}
				return CheckResult{Passed: true, Message: fmt.Sprintf("Connected to %s", e.settings.BaseURL.Host)}
			},
		},
		{
			Name:        "Mapping catalog",
			Critical:    true,
			Description: "The service answers the catalog request",
			Run: func(ctx context.Context) CheckResult {
				if e == nil {
					return notLoaded
				}
				items, err := catalog.NewLoader(e.client, e.log, e.userAgent).Load(ctx, e.settings.BaseURL)
				if err != nil {
					return CheckResult{
						Passed:     false,
						Message:    "Catalog request failed",
						Suggestion: system.ClassifyTransportError(err).Error(),
					}
				}
				if len(items) == 0 {
					return CheckResult{Passed: true, Warning: true, Message: "No mappings available"}
				}
				return CheckResult{Passed: true, Message: fmt.Sprintf("%d mapping(s) available", len(items))}
			},
		},
		{
			Name:        "Orphaned .part files",
			Description: "Results left half-written by an earlier session",
			Run: func(ctx context.Context) CheckResult {
				if e == nil {
					return notLoaded
				}
				n := countPartFiles(e.cfg.Output.DownloadDir)
				if n == 0 {
					return CheckResult{Passed: true, Message: "No orphaned .part files"}
				}
				return CheckResult{
					Passed:     true,
					Warning:    true,
					Message:    fmt.Sprintf("Found %d .part file(s)", n),
					Suggestion: fmt.Sprintf("Remove them: rm %s", filepath.Join(e.cfg.Output.DownloadDir, "*.part")),
				}
			},
		},
	}

	return runChecks(ctx, checks, *verbose)
}

func runChecks(ctx context.Context, checks []Check, verbose bool) error {
	passedCount, failedCount, warningCount := 0, 0, 0
	for _, check := range checks {
		if verbose {
			fmt.Fprintf(stdout, "[ ] %s...\n", check.Name)
		}

		start := time.Now()
		result := check.Run(ctx)
		duration := time.Since(start)

		symbol := "✓"
		switch {
		case !result.Passed:
			symbol = "✗"
			failedCount++
		case result.Warning:
			symbol = "⚠"
			warningCount++
			passedCount++
		default:
			passedCount++
		}

		fmt.Fprintf(stdout, "%s %s", symbol, check.Name)
		if verbose {
			fmt.Fprintf(stdout, " (%.2fs)", duration.Seconds())
		}
		fmt.Fprintln(stdout)
		if result.Message != "" {
			fmt.Fprintf(stdout, "  %s\n", result.Message)
		}
		if result.Suggestion != "" {
			for _, line := range strings.Split(result.Suggestion, "\n") {
				fmt.Fprintf(stdout, "  → %s\n", line)
			}
		}
		if verbose || !result.Passed || result.Warning {
			fmt.Fprintln(stdout)
		}
	}

	fmt.Fprintf(stdout, "\nDiagnostic Summary:\n")
	fmt.Fprintf(stdout, "  Total checks: %d\n", len(checks))
	fmt.Fprintf(stdout, "  Passed:       %d\n", passedCount)
	fmt.Fprintf(stdout, "  Warnings:     %d\n", warningCount)
	fmt.Fprintf(stdout, "  Failed:       %d\n", failedCount)

	if failedCount > 0 {
		fmt.Fprintln(stdout, "\n⚠ Some critical checks failed. Executions will not work until they are fixed.")
		return fmt.Errorf("%d checks failed", failedCount)
	}
	if warningCount > 0 {
		fmt.Fprintln(stdout, "\n⚠ Some checks have warnings.")
	} else {
		fmt.Fprintln(stdout, "\n✓ All checks passed! mapexec is ready to use.")
	}
	return nil
}

func checkWritableDir(dir string) CheckResult {
	if dir == "" {
		return CheckResult{Passed: false, Message: "output.download_dir not set in config", Suggestion: "Add output.download_dir to your config file"}
	}
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return CheckResult{
				Passed:     false,
				Message:    fmt.Sprintf("Directory doesn't exist and can't be created: %s", dir),
				Suggestion: fmt.Sprintf("Create manually: mkdir -p %s", dir),
			}
		}
		return CheckResult{Passed: true, Warning: true, Message: fmt.Sprintf("Created directory: %s", dir)}
	}
	if err != nil {
		return CheckResult{Passed: false, Message: fmt.Sprintf("Cannot access: %s", err), Suggestion: "Check file permissions"}
	}
	if !info.IsDir() {
		return CheckResult{Passed: false, Message: "Path exists but is not a directory", Suggestion: "Choose a different output.download_dir"}
	}
	probe := filepath.Join(dir, ".mapexec_write_test")
	if err := os.WriteFile(probe, []byte("test"), 0o644); err != nil {
		return CheckResult{
			Passed:     false,
			Message:    "Directory is not writable",
			Suggestion: fmt.Sprintf("Fix permissions: chmod u+w %s", dir),
		}
	}
	_ = os.Remove(probe)
	return CheckResult{Passed: true, Message: fmt.Sprintf("Writable: %s", dir)}
}

func countPartFiles(dir string) int {
	n := 0
	_ = filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), ".part") {
			n++
		}
		return nil
	})
	return n
}
