// Package post parses post source files: a block of "key: value" header
// lines, a blank separator line, then a free-form body.
package post

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"
)

// maxLineSize bounds a single line; longer lines fail the read.
const maxLineSize = 1 << 20

// Document is a parsed post. It is immutable once Parse returns it.
type Document struct {
	lines     []string
	headers   []HeaderLine
	bodyStart int // index into lines; len(lines) when there is no body
	modTime   time.Time
}

// ParseOptions controls a single Parse call.
//
// A zero ModTime means the modification time is unknown. Policy decides
// whether missing required headers fail the parse; use DefaultPolicy or
// LenientPolicy rather than a zero value when in doubt.
type ParseOptions struct {
	ModTime time.Time
	Policy  Policy
}

type parseState int

const (
	readingHeaders parseState = iota
	readingBody
)

// Parse reads r to the end and builds a Document.
//
// Lines starting with "#" inside the header block are comments. Blank lines
// before the first header are tolerated; the first blank line after a header
// ends the block. A file whose content after leading blank lines is not a
// header has no header block, and its body starts after the first blank line.
//
// Errors are *IOError, *NotAHeaderError or *MissingHeadersError.
func Parse(r io.Reader, opts ParseOptions) (*Document, error) {
	d := &Document{modTime: opts.ModTime}
	if !d.modTime.IsZero() && d.modTime.Before(time.Unix(0, 0)) {
		panic(fmt.Sprintf("post: modification time %s precedes the epoch", d.modTime))
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 4096), maxLineSize)

	state := readingHeaders
	pendingBody := -1 // body start implied by a blank line seen before any header
	d.bodyStart = -1

	for sc.Scan() {
		line := sc.Text()
		d.lines = append(d.lines, line)
		if state == readingBody {
			continue
		}

		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, commentMarker):
			continue
		case trimmed == "":
			if len(d.headers) > 0 {
				state = readingBody
				d.bodyStart = len(d.lines)
			} else if pendingBody < 0 {
				pendingBody = len(d.lines)
			}
			continue
		}

		h, err := ParseHeaderLine(line)
		if err != nil {
			if len(d.headers) == 0 && pendingBody >= 0 {
				state = readingBody
				d.bodyStart = pendingBody
				continue
			}
			return nil, err
		}
		d.headers = append(d.headers, h)
	}
	if err := sc.Err(); err != nil {
		return nil, &IOError{Err: err}
	}

	if d.bodyStart < 0 {
		d.bodyStart = len(d.lines)
		if len(d.headers) == 0 && pendingBody >= 0 {
			d.bodyStart = pendingBody
		}
	}

	if err := opts.Policy.Validate(d); err != nil {
		return nil, err
	}
	return d, nil
}

// ParseString is Parse over an in-memory string.
func ParseString(s string, opts ParseOptions) (*Document, error) {
	return Parse(strings.NewReader(s), opts)
}

// Lookup returns the value of the first header whose key matches key,
// ignoring case. Later headers with the same key are never returned.
func (d *Document) Lookup(key string) (string, bool) {
	for _, h := range d.headers {
		if strings.EqualFold(h.Key, key) {
			return h.Value, true
		}
	}
	return "", false
}

// HasHeader reports whether Lookup would find key.
func (d *Document) HasHeader(key string) bool {
	_, ok := d.Lookup(key)
	return ok
}

// Headers returns a copy of the header lines in file order.
func (d *Document) Headers() []HeaderLine {
	out := make([]HeaderLine, len(d.headers))
	copy(out, d.headers)
	return out
}

// Len returns the number of header lines, duplicates included.
func (d *Document) Len() int {
	return len(d.headers)
}

// Body returns the lines after the header block joined with "\n".
func (d *Document) Body() string {
	return strings.Join(d.lines[d.bodyStart:], "\n")
}

// Serialize returns the source text exactly as read, minus line-ending
// normalization.
func (d *Document) Serialize() string {
	return strings.Join(d.lines, "\n")
}

func (d *Document) String() string {
	return d.Serialize()
}

// ModTime returns the source modification time, if one was supplied.
func (d *Document) ModTime() (time.Time, bool) {
	return d.modTime, !d.modTime.IsZero()
}

// LastModified returns ModTime as seconds since the epoch.
func (d *Document) LastModified() (int64, bool) {
	if d.modTime.IsZero() {
		return 0, false
	}
	return d.modTime.Unix(), true
}
