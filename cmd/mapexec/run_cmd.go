package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"html"
	"path/filepath"
	"sync"
	"sync/atomic"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"

	"mapexec/internal/batch"
	"mapexec/internal/catalog"
	"mapexec/internal/config"
	"mapexec/internal/download"
	apperrors "mapexec/internal/errors"
	"mapexec/internal/localfile"
	"mapexec/internal/lockfile"
	"mapexec/internal/metrics"
	"mapexec/internal/selection"
	"mapexec/internal/state"
	"mapexec/internal/widget"
)

func handleRun(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	cf := addCommonFlags(fs)
	mapping := fs.String("mapping", "", "mapping id or title")
	batchPath := fs.String("batch", "", "YAML jobs file (replaces --mapping and FILE arguments)")
	outDir := fs.String("out", "", "directory for results (default: output.download_dir)")
	parallel := fs.Int("parallel", 1, "number of files executed at once")
	summary := fs.Bool("summary", false, "print the session journal when done")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var tasks []batch.Task
	switch {
	case *batchPath != "":
		if *mapping != "" || fs.NArg() > 0 {
			return errors.New("--batch cannot be combined with --mapping or FILE arguments")
		}
		bf, err := batch.Load(*batchPath)
		if err != nil {
			return err
		}
		if tasks, err = bf.Tasks(); err != nil {
			return err
		}
	case *mapping == "":
		return errors.New("--mapping is required")
	case fs.NArg() == 0:
		return errors.New("at least one input file is required")
	default:
		for _, p := range fs.Args() {
			tasks = append(tasks, batch.Task{Mapping: *mapping, Path: p})
		}
	}

	e, err := cf.setup()
	if err != nil {
		return err
	}
	defer e.Close()

	items, err := catalog.NewLoader(e.client, e.log, e.userAgent).Load(ctx, e.settings.BaseURL)
	if err != nil {
		return err
	}
	resolved := map[string]string{}
	for i, t := range tasks {
		id, ok := resolved[t.Mapping]
		if !ok {
			desc, err := resolveMapping(items, t.Mapping)
			if err != nil {
				return err
			}
			e.log.Infof("mapping %q resolves to %q (%s)", t.Mapping, desc.Title, desc.ID)
			id = desc.ID
			resolved[t.Mapping] = id
		}
		tasks[i].Mapping = id
	}

	journal, err := state.Open()
	if err != nil {
		return err
	}
	defer func() { _ = journal.Close() }()

	dir := *outDir
	if dir == "" {
		dir = e.cfg.Output.DownloadDir
	}
	r := &runner{
		env:     e,
		savers:  map[string]*download.Saver{},
		metrics: metrics.New(e.cfg),
		journal: journal,
	}
	for i := range tasks {
		if tasks[i].Out == "" {
			tasks[i].Out = dir
		}
		if _, ok := r.savers[tasks[i].Out]; ok {
			continue
		}
		lock, err := lockResultDir(tasks[i].Out)
		if err != nil {
			return err
		}
		defer func() { _ = lock.Release() }()
		r.savers[tasks[i].Out] = download.NewSaver(tasks[i].Out, e.cfg.Output.Overwrite, e.log)
	}

	n := *parallel
	if n < 1 {
		n = 1
	}
	var g errgroup.Group
	g.SetLimit(n)
	var failed atomic.Int32
	start := time.Now()
	for _, t := range tasks {
		t := t
		g.Go(func() error {
			if !r.runOne(ctx, t) {
				failed.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()
	e.log.Infof("%d file(s) in %s", len(tasks), time.Since(start).Round(time.Millisecond))

	if *summary {
		if err := printSummary(ctx, journal, cf.jsonOut); err != nil {
			return err
		}
	}
	if f := failed.Load(); f > 0 {
		return fmt.Errorf("%d of %d execution(s) failed", f, len(tasks))
	}
	return ctx.Err()
}

type runner struct {
	env     *env
	savers  map[string]*download.Saver // per result directory, read-only once running
	metrics *metrics.Manager
	journal *state.DB
	outMu   sync.Mutex
}

// lockResultDir creates dir and keeps other mapexec processes from saving
// into it until the lock is released.
func lockResultDir(dir string) (*lockfile.LockFile, error) {
	if err := config.EnsureDir(dir, 0o755); err != nil {
		return nil, apperrors.PathError(dir, err)
	}
	return lockfile.AcquireDir(dir)
}

// runOne drives a fresh widget controller through select, attach and execute.
func (r *runner) runOne(ctx context.Context, t batch.Task) bool {
	name := filepath.Base(t.Path)
	rec := &recorder{}
	picker := localfile.New(r.env.log, nil)
	ctrl := widget.New(widget.Deps{
		Client:     r.env.client,
		Picker:     picker,
		Renderer:   rec,
		Downloader: r.savers[t.Out],
		Log:        r.env.log.With("file", name),
		Metrics:    r.metrics,
		Journal:    r.journal,
		UserAgent:  r.env.userAgent,
	})
	defer ctrl.Teardown()

	ok := func() bool {
		if err := ctrl.Initialize(ctx, r.env.settings); err != nil {
			return false
		}
		if tr, err := ctrl.Activate(t.Mapping); err != nil || tr != selection.Selected {
			ctrl.Report(widget.Error, fmt.Sprintf("Mapping <b>%s</b> is no longer offered.", html.EscapeString(t.Mapping)))
			return false
		}
		if err := picker.Attach(t.Path); err != nil {
			ctrl.Report(widget.Error, "File could not be attached: "+html.EscapeString(err.Error()))
			return false
		}
		ctrl.FileAttached()
		return ctrl.Execute(ctx)
	}()

	r.outMu.Lock()
	defer r.outMu.Unlock()
	status := "ok"
	if !ok {
		status = "failed"
	}
	fmt.Fprintf(stdout, "%s: %s: %s\n", name, status, rec.last().Text())
	return ok
}

// recorder is the renderer of non-interactive runs: only the last message
// matters, everything else is already in the log.
type recorder struct {
	mu  sync.Mutex
	msg widget.Message
}

func (r *recorder) RenderOptions([]selection.Option) {}
func (r *recorder) SetSubmit(widget.Submit)          {}
func (r *recorder) Focus(string)                     {}

func (r *recorder) ShowMessage(m widget.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msg = m
}

func (r *recorder) last() widget.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.msg
}

func printSummary(ctx context.Context, journal *state.DB, jsonOut bool) error {
	rows, err := journal.ListExecutions(ctx)
	if err != nil {
		return err
	}
	counts, err := journal.Summary(ctx)
	if err != nil {
		return err
	}
	if jsonOut {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{"counts": counts, "rows": rows})
	}
	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STATUS\tFILE\tSIZE\tRESULT\tDURATION")
	for _, row := range rows {
		result := row.ResultPath
		if result == "" {
			result = row.Error
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", row.Status, row.FileName,
			humanize.IBytes(uint64(max(row.FileSize, 0))), result, row.Duration.Round(time.Millisecond))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Summary: succeeded=%d failed=%d rejected=%d\n",
		counts[state.StatusSucceeded], counts[state.StatusFailed], counts[state.StatusRejected])
	return nil
}
