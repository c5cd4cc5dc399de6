package util

import (
	"os"
	"path/filepath"
	"testing"
)

func TestUniquePath(t *testing.T) {
	d := t.TempDir()
	p1, err := UniquePath(d, "result.json")
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(p1) != "result.json" {
		t.Fatalf("got %s want result.json", filepath.Base(p1))
	}
	if err := os.WriteFile(p1, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	p2, err := UniquePath(d, "result.json")
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(p2) != "result (2).json" {
		t.Fatalf("got %s want %q", filepath.Base(p2), "result (2).json")
	}
}

func TestUniquePathSanitizes(t *testing.T) {
	d := t.TempDir()
	p, err := UniquePath(d, "../../etc/passwd")
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Dir(p) != d {
		t.Fatalf("path escaped dir: %s", p)
	}
}

func TestExpandHome(t *testing.T) {
	t.Setenv("HOME", "/home/tester")
	cases := map[string]string{
		"~":            "/home/tester",
		"~/in/a.csv":   "/home/tester/in/a.csv",
		"~other/a.csv": "~other/a.csv",
		"rel/a.csv":    "rel/a.csv",
	}
	for in, want := range cases {
		if got := ExpandHome(in); got != want {
			t.Errorf("ExpandHome(%q) = %q, want %q", in, got, want)
		}
	}
}
