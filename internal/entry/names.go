// Package entry holds the ownership graph of catalog resources (Manga,
// Chapter, Page, External) rendered by the filesystem, independent of
// inodes or caching.
package entry

import (
	"strconv"
	"strings"
)

// Sanitize makes s safe to use as a single path component: path separators
// and control characters are replaced with underscores. It never returns an
// empty string for a non-empty input.
func Sanitize(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	for _, r := range s {
		switch {
		case r == '/' || r == '\\' || r == 0:
			b.WriteByte('_')
		case r < 0x20:
			b.WriteByte('_')
		default:
			b.WriteRune(r)
		}
	}

	return b.String()
}

// MangaDisplayName renders "{title} [{id}]".
func MangaDisplayName(title string, id uint64) string {
	return Sanitize(formatWithID(title, id))
}

// ChapterDisplayName renders the four-way title/volume combination from
// spec §4.3.
func ChapterDisplayName(title, volume, number string, id uint64) string {
	var base string

	switch {
	case title == "" && volume == "":
		base = "Ch. " + number
	case title == "" && volume != "":
		base = "Vol. " + volume + " Ch. " + number
	case title != "" && volume == "":
		base = "Ch. " + number + " - " + title
	default:
		base = "Vol. " + volume + " Ch. " + number + " - " + title
	}

	return Sanitize(formatWithID(base, id))
}

// ExternalFileName is the literal name used for a chapter's synthesized
// redirect page.
const ExternalFileName = "external.html"

func formatWithID(base string, id uint64) string {
	return base + " [" + strconv.FormatUint(id, 10) + "]"
}
