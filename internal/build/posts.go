package build

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/starford/quire/internal/apperr"
	"github.com/starford/quire/internal/post"
)

// Validate parses text with the configured policy.
func (b *Builder) Validate(text string) (*post.Document, error) {
	return post.ParseString(text, post.ParseOptions{Policy: b.opts.Policy})
}

// Preview is a draft rendered without enforcing the header policy.
type Preview struct {
	Headers []post.HeaderLine `json:"headers"`
	Missing []string          `json:"missing,omitempty"`
	Output  string            `json:"output,omitempty"`
	HTML    string            `json:"html"`
}

// Preview parses text leniently, reports which required headers are
// missing and renders the body. Malformed header blocks still fail.
func (b *Builder) Preview(ctx context.Context, text string) (*Preview, error) {
	doc, err := post.ParseString(text, post.ParseOptions{Policy: post.LenientPolicy()})
	if err != nil {
		return nil, err
	}
	p := &Preview{Headers: doc.Headers()}
	var mh *post.MissingHeadersError
	if err := b.opts.Policy.Validate(doc); errors.As(err, &mh) {
		p.Missing = mh.Keys
	}
	if name, err := doc.SuggestedFilename(post.Rendered); err == nil {
		p.Output = name
	}
	html, err := b.renderer.Render(ctx, doc.Body())
	if err != nil {
		return nil, fmt.Errorf("build: render preview: %w", err)
	}
	p.HTML = html
	return p, nil
}

// Scaffold returns the text of a new post carrying every default header.
func Scaffold(title, author string, now time.Time) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Title: %s\n", title)
	fmt.Fprintf(&sb, "Author: %s\n", author)
	fmt.Fprintf(&sb, "ID: %s\n", post.NewID())
	fmt.Fprintf(&sb, "Date: %s\n", now.Format(time.DateOnly))
	sb.WriteString("\n")
	return sb.String()
}

// NewPost writes a scaffolded post into the posts directory and returns
// its path.
func (b *Builder) NewPost(title, author string) (string, error) {
	title, author = strings.TrimSpace(title), strings.TrimSpace(author)
	if title == "" || author == "" {
		return "", fmt.Errorf("%w: title and author are required", apperr.ErrInvalidPost)
	}
	text := Scaffold(title, author, time.Now())
	doc, err := post.ParseString(text, post.ParseOptions{Policy: post.LenientPolicy()})
	if err != nil {
		return "", fmt.Errorf("%w: %v", apperr.ErrInvalidPost, err)
	}
	name, err := b.sourceName(doc)
	if err != nil {
		return "", err
	}
	if b.src.Exists(name) {
		return "", fmt.Errorf("%w: %s", apperr.ErrAlreadyExists, name)
	}
	if err := b.src.Write(name, []byte(text)); err != nil {
		return "", err
	}
	b.logger.Info("build: new post", slog.String("path", name))
	return name, nil
}

// Move is one planned or performed source rename.
type Move struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Rename moves every valid source to its suggested name within its own
// directory. With dryRun set nothing is touched. Invalid sources and
// renames that would overwrite an existing file are reported as failures.
func (b *Builder) Rename(ctx context.Context, dryRun bool) ([]Move, *Report, error) {
	rep, err := b.Check(ctx)
	if err != nil {
		return nil, nil, err
	}

	var moves []Move
	for _, s := range rep.Posts {
		rc, modTime, err := b.src.Open(s.Path)
		if err != nil {
			rep.Failures = append(rep.Failures, Failure{Path: s.Path, Kind: post.KindIO, Err: err})
			continue
		}
		doc, err := post.Parse(rc, post.ParseOptions{ModTime: knownModTime(modTime), Policy: post.LenientPolicy()})
		rc.Close()
		if err != nil {
			rep.Failures = append(rep.Failures, Failure{Path: s.Path, Kind: post.Kind(err), Err: err})
			continue
		}
		name, err := b.sourceName(doc)
		if err != nil {
			rep.Failures = append(rep.Failures, Failure{Path: s.Path, Kind: post.Kind(err), Err: err})
			continue
		}
		if dir := path.Dir(s.Path); dir != "." {
			name = dir + "/" + name
		}
		if name == s.Path {
			continue
		}
		mv := Move{From: s.Path, To: name}
		if !dryRun {
			if err := b.src.Move(s.Path, name); err != nil {
				kind := post.KindIO
				if errors.Is(err, fs.ErrExist) {
					kind = KindDuplicate
				}
				rep.Failures = append(rep.Failures, Failure{Path: s.Path, Kind: kind, Err: err})
				continue
			}
			b.logger.Info("build: renamed", slog.String("from", mv.From), slog.String("to", mv.To))
		}
		moves = append(moves, mv)
	}
	return moves, rep, nil
}

// sourceName is the suggested source file name with the configured
// extension.
func (b *Builder) sourceName(doc *post.Document) (string, error) {
	name, err := doc.SuggestedFilename(post.Source)
	if err != nil {
		return "", err
	}
	if ext := post.Source.Extension(); b.opts.Extension != ext {
		name = strings.TrimSuffix(name, ext) + b.opts.Extension
	}
	return name, nil
}
