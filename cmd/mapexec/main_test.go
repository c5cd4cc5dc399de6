package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mapexec/internal/batch"
	"mapexec/internal/catalog"
	"mapexec/internal/download"
	apperrors "mapexec/internal/errors"
	"mapexec/internal/testutil"
)

// isolate points config discovery at an empty home and captures stdout.
func isolate(t *testing.T) *bytes.Buffer {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("MAPEXEC_CONFIG", "")
	t.Setenv("MAPEXEC_BASE_URL", "")
	t.Setenv("MAPEXEC_MAX_FILE_SIZE_MB", "")
	var buf bytes.Buffer
	prev := stdout
	stdout = &buf
	t.Cleanup(func() { stdout = prev })
	return &buf
}

func newService(t *testing.T) *testutil.MappingService {
	t.Helper()
	svc := testutil.NewMappingService(t)
	svc.SetCatalog(http.StatusOK, `[
		{"mappingId":"m1","title":"Demo","description":"d","mappingType":"X"},
		{"mappingId":"m2","title":"Invoice to JSON","mappingType":"Y"}
	]`)
	return svc
}

func TestRunUnknownCommand(t *testing.T) {
	isolate(t)
	assert.Error(t, run(context.Background(), []string{"frobnicate"}))
	assert.Error(t, run(context.Background(), nil))
}

func TestVersionAndHelp(t *testing.T) {
	out := isolate(t)
	require.NoError(t, run(context.Background(), []string{"version"}))
	assert.Equal(t, version+"\n", out.String())

	out.Reset()
	require.NoError(t, run(context.Background(), []string{"help"}))
	assert.Contains(t, out.String(), "mapexec <command>")
}

func TestCatalogJSON(t *testing.T) {
	out := isolate(t)
	svc := newService(t)

	require.NoError(t, run(context.Background(), []string{"catalog", "--json", "--log-level", "error", "--base-url", svc.URL + "/"}))
	var items []catalog.MappingDescriptor
	require.NoError(t, json.Unmarshal(out.Bytes(), &items))
	require.Len(t, items, 2)
	assert.Equal(t, "m1", items[0].ID)
	assert.Equal(t, "Demo", items[0].Title)
}

func TestCatalogTable(t *testing.T) {
	out := isolate(t)
	svc := newService(t)
	t.Setenv("MAPEXEC_BASE_URL", svc.URL+"/")

	require.NoError(t, run(context.Background(), []string{"catalog", "--log-level", "error"}))
	assert.Contains(t, out.String(), "Invoice to JSON")
	assert.Contains(t, out.String(), "ID")
}

func TestRunExecutesEveryFile(t *testing.T) {
	out := isolate(t)
	svc := newService(t)
	svc.SetExecution("m2", testutil.MockResponse{
		StatusCode: http.StatusOK,
		Body:       `{"ok":true}`,
		Headers:    map[string]string{"Content-Disposition": "attachment; filename=result.json"},
	})
	a := testutil.TempFile(t, "a.xml", []byte("<a/>"))
	b := testutil.TempFile(t, "b.xml", []byte("<b/>"))
	dir := t.TempDir()

	err := run(context.Background(), []string{"run",
		"--base-url", svc.URL + "/", "--log-level", "error",
		"--mapping", "invoice", "--out", dir, "--parallel", "2", "--summary",
		a, b})
	require.NoError(t, err)

	for _, name := range []string{"result.json", "result (2).json"} {
		data, err := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err, name)
		assert.Equal(t, `{"ok":true}`, string(data))
	}
	assert.Len(t, svc.Uploads(), 2)
	assert.Contains(t, out.String(), "a.xml: ok: Mapping executed successfully.")
	assert.Contains(t, out.String(), "Summary: succeeded=2 failed=0 rejected=0")
}

func TestRunReportsFailures(t *testing.T) {
	out := isolate(t)
	svc := newService(t)
	svc.SetExecution("m1", testutil.MockResponse{StatusCode: http.StatusBadGateway})
	in := testutil.TempFile(t, "in.csv", []byte("x"))

	err := run(context.Background(), []string{"run",
		"--base-url", svc.URL + "/", "--log-level", "error",
		"--mapping", "m1", "--out", t.TempDir(), in})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 1")
	assert.Contains(t, out.String(), "Mapping failed. Service returned with status 502.")
}

func TestRunRejectsOversizedFile(t *testing.T) {
	out := isolate(t)
	svc := newService(t)
	in := testutil.TempFile(t, "big.bin", testutil.Bytes(1024*1024+1))

	err := run(context.Background(), []string{"run",
		"--base-url", svc.URL + "/", "--log-level", "error", "--max-file-size-mb", "1",
		"--mapping", "m1", "--out", t.TempDir(), in})
	require.Error(t, err)
	assert.Contains(t, out.String(), "Selected file is too large (1.00 MB > 1.00 MB).")
	assert.Equal(t, 0, svc.TotalPosts())
}

func TestRunMissingFile(t *testing.T) {
	out := isolate(t)
	svc := newService(t)

	err := run(context.Background(), []string{"run",
		"--base-url", svc.URL + "/", "--log-level", "error",
		"--mapping", "m1", "--out", t.TempDir(), filepath.Join(t.TempDir(), "nope.txt")})
	require.Error(t, err)
	assert.Contains(t, out.String(), "File could not be attached")
}

func TestRunFlagErrors(t *testing.T) {
	isolate(t)
	assert.Error(t, run(context.Background(), []string{"run", "in.txt"}))
	assert.Error(t, run(context.Background(), []string{"run", "--mapping", "m1"}))
}

func TestConfigValidateAndPrint(t *testing.T) {
	out := isolate(t)
	dir := t.TempDir()
	good := filepath.Join(dir, "good.yml")
	require.NoError(t, os.WriteFile(good, []byte("version: 1\nservice:\n  base_url: http://mapper.local:8090/\n  max_file_size_mb: 25\n"), 0o644))

	require.NoError(t, run(context.Background(), []string{"config", "validate", "--config", good}))
	assert.Contains(t, out.String(), "is valid")

	out.Reset()
	require.NoError(t, run(context.Background(), []string{"config", "print", "--config", good, "--log-level", "error"}))
	assert.Contains(t, out.String(), "base_url: http://mapper.local:8090/")
	assert.Contains(t, out.String(), "max_file_size_mb: 25")

	bad := filepath.Join(dir, "bad.yml")
	require.NoError(t, os.WriteFile(bad, []byte("version: 2\nservice:\n  base_url: ftp://nope\n"), 0o644))
	out.Reset()
	err := run(context.Background(), []string{"config", "validate", "--config", bad})
	require.Error(t, err)
	assert.True(t, strings.Contains(out.String(), "version") && strings.Contains(out.String(), "service.base_url"), out.String())

	assert.Error(t, run(context.Background(), []string{"config", "print", "--config", filepath.Join(dir, "missing.yml")}))
}

func TestEnvironmentOverridesConfig(t *testing.T) {
	isolate(t)
	t.Setenv("MAPEXEC_BASE_URL", "http://env.example:9000/")
	t.Setenv("MAPEXEC_MAX_FILE_SIZE_MB", "junk")

	cf := &commonFlags{}
	e, err := cf.setup()
	require.NoError(t, err)
	defer e.Close()
	assert.Equal(t, "http://env.example:9000/", e.settings.BaseURL.String())
	assert.Equal(t, int64(10*1024*1024), e.settings.MaxFileSizeBytes)

	cf = &commonFlags{baseURL: "http://flag.example/", maxSizeMB: "3"}
	e2, err := cf.setup()
	require.NoError(t, err)
	defer e2.Close()
	assert.Equal(t, "http://flag.example/", e2.settings.BaseURL.String())
	assert.Equal(t, int64(3*1024*1024), e2.settings.MaxFileSizeBytes)
}

func TestCompletion(t *testing.T) {
	out := isolate(t)
	for _, sh := range []string{"bash", "zsh", "fish"} {
		out.Reset()
		require.NoError(t, run(context.Background(), []string{"completion", sh}))
		assert.Contains(t, out.String(), "mapexec")
	}
	assert.Error(t, run(context.Background(), []string{"completion", "tcsh"}))
}

func TestRunBatch(t *testing.T) {
	out := isolate(t)
	svc := newService(t)
	svc.SetExecution("m1", testutil.MockResponse{StatusCode: http.StatusOK, Body: "one"})
	svc.SetExecution("m2", testutil.MockResponse{
		StatusCode: http.StatusOK,
		Body:       "two",
		Headers:    map[string]string{"Content-Disposition": "attachment; filename=inv.json"},
	})
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.xml"), []byte("<a/>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.xml"), []byte("<b/>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "c.csv"), []byte("c"), 0o644))
	jobs := filepath.Join(dir, "jobs.yml")
	require.NoError(t, os.WriteFile(jobs, []byte(`version: 1
jobs:
  - mapping: invoice
    files: "*.xml"
    out: invoices
  - mapping: m1
    files: c.csv
    out: demo
`), 0o644))

	err := run(context.Background(), []string{"run",
		"--base-url", svc.URL + "/", "--log-level", "error", "--parallel", "3",
		"--batch", jobs})
	require.NoError(t, err)

	for _, name := range []string{"inv.json", "inv (2).json"} {
		_, err := os.Stat(filepath.Join(dir, "invoices", name))
		assert.NoError(t, err, name)
	}
	entries, err := os.ReadDir(filepath.Join(dir, "demo"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.Len(t, svc.Uploads(), 3)
	assert.Contains(t, out.String(), "c.csv: ok:")

	assert.Error(t, run(context.Background(), []string{"run", "--batch", jobs, "--mapping", "m1"}))
}

func TestDoctor(t *testing.T) {
	out := isolate(t)
	svc := newService(t)
	dir := t.TempDir()
	cfg := filepath.Join(dir, "config.yml")
	require.NoError(t, os.WriteFile(cfg, []byte("version: 1\noutput:\n  download_dir: "+filepath.Join(dir, "results")+"\n"), 0o644))

	require.NoError(t, run(context.Background(), []string{"doctor", "--config", cfg, "--log-level", "error", "--base-url", svc.URL + "/"}))
	assert.Contains(t, out.String(), "✓ Mapping catalog")
	assert.Contains(t, out.String(), "2 mapping(s) available")
	assert.Contains(t, out.String(), "Created directory")

	svc.Close()
	out.Reset()
	err := run(context.Background(), []string{"doctor", "--config", cfg, "--log-level", "error", "--base-url", svc.URL + "/"})
	require.Error(t, err)
	assert.Contains(t, out.String(), "✗ Mapping service reachable")
}

func TestRunOneReportsVanishedMapping(t *testing.T) {
	out := isolate(t)
	svc := newService(t)
	cf := &commonFlags{baseURL: svc.URL + "/", logLevel: "error"}
	e, err := cf.setup()
	require.NoError(t, err)
	defer e.Close()

	r := &runner{env: e, savers: map[string]*download.Saver{}}
	in := testutil.TempFile(t, "in.xml", []byte("<a/>"))
	ok := r.runOne(context.Background(), batch.Task{Mapping: "gone", Path: in})
	assert.False(t, ok)
	assert.Contains(t, out.String(), "in.xml: failed: Mapping gone is no longer offered.")
	assert.Equal(t, 0, svc.TotalPosts())
}

func TestInvalidConfigIsReportedWithField(t *testing.T) {
	isolate(t)
	err := run(context.Background(), []string{"catalog", "--base-url", "ftp://nope"})
	require.Error(t, err)
	var fe *apperrors.UserFriendlyError
	require.ErrorAs(t, err, &fe)
	assert.Contains(t, fe.Message, "service.base_url")
	assert.Contains(t, fe.Suggestion, "mapexec config validate")
}

func TestRunUnusableResultDir(t *testing.T) {
	isolate(t)
	svc := newService(t)
	blocker := testutil.TempFile(t, "blocker", []byte("x"))
	in := testutil.TempFile(t, "in.csv", []byte("x"))

	err := run(context.Background(), []string{"run",
		"--base-url", svc.URL + "/", "--log-level", "error",
		"--mapping", "m1", "--out", filepath.Join(blocker, "out"), in})
	require.Error(t, err)
	var fe *apperrors.UserFriendlyError
	require.ErrorAs(t, err, &fe)
	assert.Contains(t, fe.Message, filepath.Join(blocker, "out"))
	assert.Equal(t, 0, svc.TotalPosts())
}
