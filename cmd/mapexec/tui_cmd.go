package main

import (
	"context"
	"flag"

	tea "github.com/charmbracelet/bubbletea"

	"mapexec/internal/download"
	"mapexec/internal/logging"
	"mapexec/internal/metrics"
	"mapexec/internal/state"
	ui "mapexec/internal/tui"
	"mapexec/internal/widget"
)

func handleTUI(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("tui", flag.ContinueOnError)
	cf := addCommonFlags(fs)
	theme := fs.String("theme", "dark", "color theme: dark|light")
	outDir := fs.String("out", "", "directory for results (default: output.download_dir)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	e, err := cf.setup()
	if err != nil {
		return err
	}
	defer e.Close()

	// The terminal belongs to the UI: log to the rotating file or nowhere.
	var fo logging.FileOptions
	if lf := e.cfg.Logging.File; lf.Enabled {
		fo = logging.FileOptions{Path: lf.Path, MaxMegabytes: lf.MaxMegabytes, MaxBackups: lf.MaxBackups, MaxAgeDays: lf.MaxAgeDays}
	}
	log := logging.NewFileOnly(cf.level(e.cfg), fo)
	defer func() { _ = log.Close() }()

	journal, err := state.Open()
	if err != nil {
		return err
	}
	defer func() { _ = journal.Close() }()

	dir := *outDir
	if dir == "" {
		dir = e.cfg.Output.DownloadDir
	}
	m := ui.New(ui.Options{
		Context:  ctx,
		Settings: e.settings,
		Deps: widget.Deps{
			Client:     e.client,
			Downloader: download.NewSaver(dir, e.cfg.Output.Overwrite, log),
			Log:        log,
			Metrics:    metrics.New(e.cfg),
			Journal:    journal,
			UserAgent:  e.userAgent,
		},
		Theme:     *theme,
		RefreshHz: e.cfg.UI.RefreshHz,
	})
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err = p.Run()
	return err
}
