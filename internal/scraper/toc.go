package scraper

import (
	"sort"
	"strings"
)

// NumberFromURL returns the leading integer of the last path segment, ignoring
// any fragment, or 0 when there is none. "/book/12/34#p1" → 34.
func NumberFromURL(u string) int {
	last := u
	if i := strings.LastIndexByte(u, '/'); i >= 0 {
		last = u[i+1:]
	}
	if i := strings.IndexByte(last, '#'); i >= 0 {
		last = last[:i]
	}
	n, ok := leadingInt(last)
	if !ok {
		return 0
	}
	return n
}

// leadingInt parses an optionally signed run of digits after leading whitespace
func leadingInt(s string) (int, bool) {
	s = strings.TrimLeft(s, " \t\n\r")
	neg := false
	if s != "" && (s[0] == '-' || s[0] == '+') {
		neg = s[0] == '-'
		s = s[1:]
	}
	n, digits := 0, 0
	for digits < len(s) && s[digits] >= '0' && s[digits] <= '9' {
		n = n*10 + int(s[digits]-'0')
		digits++
	}
	if digits == 0 {
		return 0, false
	}
	if neg {
		n = -n
	}
	return n, true
}

// StartEndPages turns volume start pages into inclusive [start, end] ranges.
// Volumes are ordered by numeric name when both names are numeric, otherwise by
// start page; each volume ends where the next begins and the last ends at pages.
func StartEndPages(volumes map[string]int, pages int) map[string][2]int {
	ranges := make(map[string][2]int, len(volumes))
	if len(volumes) == 0 {
		return ranges
	}

	names := make([]string, 0, len(volumes))
	for name := range volumes {
		names = append(names, name)
	}
	sort.Strings(names)
	sort.SliceStable(names, func(i, j int) bool {
		a, aok := leadingInt(names[i])
		b, bok := leadingInt(names[j])
		if aok && bok {
			return a < b
		}
		return volumes[names[i]] < volumes[names[j]]
	})

	for i, name := range names {
		end := pages
		if i < len(names)-1 {
			end = volumes[names[i+1]] - 1
		}
		ranges[name] = [2]int{volumes[name], end}
	}
	return ranges
}

// CutTOC keeps the entries whose page lies within rng. Entries are assumed to be
// in page order: anything after the range ends the scan, and a branch that
// starts before the range is dropped along with its children.
func CutTOC(toc []TocItem, rng [2]int) []TocItem {
	result := []TocItem{}

	for _, item := range toc {
		if item.Page < rng[0] {
			continue
		}
		if item.Page > rng[1] {
			break
		}
		entry := TocItem{Page: item.Page, Text: item.Text}
		if len(item.Children) > 0 {
			if sub := CutTOC(item.Children, rng); len(sub) > 0 {
				entry.Children = sub
			}
		}
		result = append(result, entry)
	}

	return result
}
