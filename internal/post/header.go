package post

import "strings"

const (
	headerSeparator = ":"
	commentMarker   = "#"
)

// HeaderLine is one "key: value" entry from the header block of a post.
type HeaderLine struct {
	Raw   string `json:"raw"` // line as read, untrimmed
	Key   string `json:"key"`
	Value string `json:"value"`
}

// ParseHeaderLine splits line at its first colon. Both sides are trimmed and
// must be non-empty; anything else yields a *NotAHeaderError.
func ParseHeaderLine(line string) (HeaderLine, error) {
	key, value, ok := strings.Cut(line, headerSeparator)
	if !ok {
		return HeaderLine{}, &NotAHeaderError{Line: line}
	}
	key = strings.TrimSpace(key)
	value = strings.TrimSpace(value)
	if key == "" || value == "" {
		return HeaderLine{}, &NotAHeaderError{Line: line}
	}
	return HeaderLine{Raw: line, Key: key, Value: value}, nil
}

// String returns the original line.
func (h HeaderLine) String() string {
	return h.Raw
}
