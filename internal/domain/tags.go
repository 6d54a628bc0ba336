package domain

import (
	"strings"

	"golang.org/x/text/cases"
)

// ParseTags splits a comma separated tag list, trimming entries and
// dropping empty ones. Order is preserved.
func ParseTags(raw string) []string {
	return CleanTags(strings.Split(raw, ","))
}

// CleanTags trims tags and drops empty entries.
func CleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// HasTag reports whether the book carries tag, compared case-insensitively.
func (b *Book) HasTag(tag string) bool {
	// A Caser holds state, so each call gets its own.
	folder := cases.Fold()
	want := folder.String(strings.TrimSpace(tag))
	if want == "" {
		return false
	}
	for _, t := range b.Tags {
		if folder.String(strings.TrimSpace(t)) == want {
			return true
		}
	}
	return false
}
