// Package batch reads jobs files for mapexec run --batch.
package batch

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"mapexec/internal/util"
)

type File struct {
	Version int        `yaml:"version"`
	Jobs    []BatchJob `yaml:"jobs" validate:"dive"`
}

// BatchJob runs one mapping over the files matching Files. Out overrides the
// result directory for this job only.
type BatchJob struct {
	Mapping string `yaml:"mapping" validate:"required"`
	Files   string `yaml:"files" validate:"required"`
	Out     string `yaml:"out"`
}

// Task is one mapping execution for one input file.
type Task struct {
	Mapping string
	Path    string
	Out     string
}

func Load(path string) (*File, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f File
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, err
	}
	if f.Version != 1 {
		return nil, fmt.Errorf("unsupported batch version: %d", f.Version)
	}
	if len(f.Jobs) == 0 {
		return nil, fmt.Errorf("batch has no jobs")
	}
	if err := validator.New().Struct(&f); err != nil {
		return nil, fmt.Errorf("invalid batch %s: %w", path, err)
	}
	f.resolve(filepath.Dir(path))
	return &f, nil
}

// resolve makes relative paths relative to the batch file's directory.
func (f *File) resolve(dir string) {
	abs := func(p string) string {
		if p == "" {
			return p
		}
		p = util.ExpandHome(p)
		if !filepath.IsAbs(p) {
			p = filepath.Join(dir, p)
		}
		return p
	}
	for i := range f.Jobs {
		f.Jobs[i].Files = abs(f.Jobs[i].Files)
		f.Jobs[i].Out = abs(f.Jobs[i].Out)
	}
}

// Tasks expands every job's pattern. A pattern without glob characters is
// kept as is so a missing file surfaces as a failed execution; a glob that
// matches nothing is an error.
func (f *File) Tasks() ([]Task, error) {
	var out []Task
	for i, j := range f.Jobs {
		paths := []string{j.Files}
		if hasMeta(j.Files) {
			m, err := filepath.Glob(j.Files)
			if err != nil {
				return nil, fmt.Errorf("job %d: %w", i+1, err)
			}
			if len(m) == 0 {
				return nil, fmt.Errorf("job %d: no files match %s", i+1, j.Files)
			}
			sort.Strings(m)
			paths = m
		}
		for _, p := range paths {
			out = append(out, Task{Mapping: j.Mapping, Path: p, Out: j.Out})
		}
	}
	return out, nil
}

func hasMeta(p string) bool {
	for _, c := range p {
		switch c {
		case '*', '?', '[':
			return true
		}
	}
	return false
}
