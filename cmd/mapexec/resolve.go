package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"mapexec/internal/catalog"
)

// resolveMapping finds the mapping a user named: an exact id wins, then a
// case-insensitive title, then a title that fuzzily matches exactly once.
func resolveMapping(items []catalog.MappingDescriptor, query string) (catalog.MappingDescriptor, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return catalog.MappingDescriptor{}, fmt.Errorf("no mapping given")
	}
	for _, it := range items {
		if it.ID == q {
			return it, nil
		}
	}
	var byTitle []catalog.MappingDescriptor
	for _, it := range items {
		if strings.EqualFold(it.Title, q) {
			byTitle = append(byTitle, it)
		}
	}
	if len(byTitle) == 1 {
		return byTitle[0], nil
	}
	if len(byTitle) > 1 {
		return catalog.MappingDescriptor{}, ambiguous(q, byTitle)
	}

	titles := make([]string, len(items))
	for i, it := range items {
		titles[i] = it.Title
	}
	ranks := fuzzy.RankFindNormalizedFold(q, titles)
	switch len(ranks) {
	case 0:
		return catalog.MappingDescriptor{}, fmt.Errorf("no mapping matches %q", q)
	case 1:
		return items[ranks[0].OriginalIndex], nil
	}
	sort.Sort(ranks)
	matches := make([]catalog.MappingDescriptor, 0, len(ranks))
	for _, r := range ranks {
		matches = append(matches, items[r.OriginalIndex])
	}
	return catalog.MappingDescriptor{}, ambiguous(q, matches)
}

func ambiguous(q string, matches []catalog.MappingDescriptor) error {
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, fmt.Sprintf("%s (%s)", m.Title, m.ID))
	}
	return fmt.Errorf("mapping %q is ambiguous: %s; use the id", q, strings.Join(names, ", "))
}
