package tui

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme and styling helpers

type Theme struct {
	border   lipgloss.Style
	title    lipgloss.Style
	label    lipgloss.Style
	row      lipgloss.Style
	focused  lipgloss.Style
	selected lipgloss.Style
	head     lipgloss.Style
	footer   lipgloss.Style
	ok       lipgloss.Style
	bad      lipgloss.Style
	button   lipgloss.Style
}

func defaultTheme() Theme {
	b := lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	return Theme{
		border:   b.BorderForeground(lipgloss.Color("63")),
		title:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("81")),
		label:    lipgloss.NewStyle().Faint(true),
		row:      lipgloss.NewStyle(),
		focused:  lipgloss.NewStyle().Foreground(lipgloss.Color("219")),
		selected: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42")),
		head:     lipgloss.NewStyle().Foreground(lipgloss.Color("213")).Bold(true),
		footer:   lipgloss.NewStyle().Faint(true),
		ok:       lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		bad:      lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		button:   lipgloss.NewStyle().Bold(true).Padding(0, 1).Background(lipgloss.Color("63")).Foreground(lipgloss.Color("230")),
	}
}

func themePresets() []Theme {
	dark := defaultTheme()
	light := Theme{
		border:   lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1).BorderForeground(lipgloss.Color("240")),
		title:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62")),
		label:    lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		row:      lipgloss.NewStyle(),
		focused:  lipgloss.NewStyle().Foreground(lipgloss.Color("162")),
		selected: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("22")),
		head:     lipgloss.NewStyle().Foreground(lipgloss.Color("162")).Bold(true),
		footer:   lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		ok:       lipgloss.NewStyle().Foreground(lipgloss.Color("22")),
		bad:      lipgloss.NewStyle().Foreground(lipgloss.Color("160")),
		button:   lipgloss.NewStyle().Bold(true).Padding(0, 1).Background(lipgloss.Color("62")).Foreground(lipgloss.Color("255")),
	}
	return []Theme{dark, light}
}

func themeIndexByName(name string) int {
	presets := themePresets()
	names := []string{"dark", "light"}
	for i, n := range names {
		if strings.EqualFold(n, name) {
			return i % len(presets)
		}
	}
	return 0
}

// String utilities

func truncateMiddle(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max < 7 {
		return s[:max]
	}
	left := (max - 3) / 2
	right := max - 3 - left
	return s[:left] + "..." + s[len(s)-right:]
}

func longestCommonPrefix(ss []string) string {
	if len(ss) == 0 {
		return ""
	}
	pfx := ss[0]
	for _, s := range ss[1:] {
		for !strings.HasPrefix(s, pfx) {
			pfx = pfx[:len(pfx)-1]
			if pfx == "" {
				return ""
			}
		}
	}
	return pfx
}

// completePath extends input to the longest unambiguous file name below its
// directory. Directories get a trailing slash.
func completePath(input string) string {
	s := strings.TrimSpace(input)
	if s == "" {
		return s
	}
	h, _ := os.UserHomeDir()
	exp := os.ExpandEnv(s)
	if strings.HasPrefix(exp, "~") && h != "" {
		exp = strings.Replace(exp, "~", h, 1)
	}
	dir := exp
	prefix := ""
	if fi, err := os.Stat(exp); err != nil || !fi.IsDir() {
		dir = filepath.Dir(exp)
		prefix = filepath.Base(exp)
	}
	ents, err := os.ReadDir(dir)
	if err != nil {
		return s
	}
	matches := make([]string, 0, len(ents))
	for _, e := range ents {
		name := e.Name()
		if strings.HasPrefix(strings.ToLower(name), strings.ToLower(prefix)) {
			if e.IsDir() {
				name += "/"
			}
			matches = append(matches, name)
		}
	}
	if len(matches) == 0 {
		return s
	}
	base := matches[0]
	if len(matches) > 1 {
		base = longestCommonPrefix(matches)
	}
	out := filepath.Join(dir, base)
	if strings.HasSuffix(base, "/") {
		out += "/"
	}
	if h != "" && strings.HasPrefix(out, h+string(os.PathSeparator)) {
		out = "~" + strings.TrimPrefix(out, h)
	}
	return out
}
