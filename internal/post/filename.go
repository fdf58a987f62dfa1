package post

import (
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// FileKind selects the extension produced by SuggestedFilename.
type FileKind int

const (
	Rendered FileKind = iota // .html
	Source                   // .md
)

// Extension returns the file extension for k, dot included.
func (k FileKind) Extension() string {
	if k == Source {
		return ".md"
	}
	return ".html"
}

const titleWords = 3

// SuggestedFilename derives "first-three-title-words-<id>.<ext>" from the
// title and id headers. Words are lowercased and stripped of anything but
// letters, digits, '-' and '_'.
func (d *Document) SuggestedFilename(kind FileKind) (string, error) {
	var missing []string
	title, ok := d.Lookup(HeaderTitle)
	if !ok {
		missing = append(missing, HeaderTitle)
	}
	id, ok := d.Lookup(HeaderID)
	if !ok {
		missing = append(missing, HeaderID)
	}
	if len(missing) > 0 {
		return "", &MissingHeadersError{Keys: missing}
	}

	var parts []string
	for _, w := range strings.Fields(cases.Lower(language.Und).String(title)) {
		if w = safeWord(w); w != "" {
			parts = append(parts, w)
		}
		if len(parts) == titleWords {
			break
		}
	}
	if id = safeWord(id); id != "" {
		parts = append(parts, id)
	}
	return strings.Join(parts, "-") + kind.Extension(), nil
}

func safeWord(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' {
			return r
		}
		return -1
	}, s)
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// Date parses the date header.
func (d *Document) Date() (time.Time, bool) {
	v, ok := d.Lookup(HeaderDate)
	if !ok {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// NewID returns a short random identifier suitable for the id header.
func NewID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}
