// Package postservice answers read-side questions about the built site for
// the HTTP API and the MCP server.
package postservice

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/starford/quire/internal/apperr"
	"github.com/starford/quire/internal/build"
	"github.com/starford/quire/internal/index"
	"github.com/starford/quire/internal/models"
	"github.com/starford/quire/internal/post"
	"github.com/starford/quire/internal/storage"
)

// PostDetail is the full representation of a post.
type PostDetail struct {
	models.PostSummary
	Headers []post.HeaderLine `json:"headers"`
	Body    string            `json:"body"`
	HTML    string            `json:"html"`
}

// Validation is the outcome of checking a draft against the header policy.
type Validation struct {
	Valid    bool     `json:"valid"`
	Kind     string   `json:"kind,omitempty"`
	Error    string   `json:"error,omitempty"`
	Missing  []string `json:"missing,omitempty"`
	Filename string   `json:"filename,omitempty"`
}

// Service coordinates the source tree, the cache and the builder.
type Service struct {
	src     storage.Provider
	db      index.PostIndex
	builder *build.Builder
}

// NewService creates a new post service.
func NewService(src storage.Provider, db index.PostIndex, b *build.Builder) *Service {
	return &Service{src: src, db: db, builder: b}
}

// ListPosts returns posts newest first with the total count.
func (s *Service) ListPosts(_ context.Context, limit, offset int) ([]models.PostSummary, int, error) {
	items, total, err := s.db.ListPosts(limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return nonNilSlice(items), total, nil
}

// GetPost reads a post by id from the cache and its source.
func (s *Service) GetPost(_ context.Context, id string) (*PostDetail, error) {
	summary, err := s.db.GetPost(id)
	if err != nil {
		return nil, err
	}
	rc, modTime, err := s.src.Open(summary.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	defer rc.Close()

	doc, err := post.Parse(rc, post.ParseOptions{ModTime: modTime, Policy: post.LenientPolicy()})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrInvalidPost, err)
	}
	_, html, err := s.db.GetRendered(summary.Path)
	if err != nil {
		return nil, err
	}
	return &PostDetail{
		PostSummary: *summary,
		Headers:     nonNilSlice(doc.Headers()),
		Body:        doc.Body(),
		HTML:        html,
	}, nil
}

// Source returns the raw source text of a post.
func (s *Service) Source(_ context.Context, id string) (string, error) {
	summary, err := s.db.GetPost(id)
	if err != nil {
		return "", err
	}
	data, err := s.src.Read(summary.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", apperr.ErrNotFound
		}
		return "", err
	}
	return string(data), nil
}

// Search delegates full-text search to the index.
func (s *Service) Search(_ context.Context, query string, limit int) ([]index.SearchResult, error) {
	res, err := s.db.Search(query, limit)
	if err != nil {
		return nil, err
	}
	return nonNilSlice(res), nil
}

// Preview renders a draft without enforcing the header policy.
func (s *Service) Preview(ctx context.Context, text string) (*build.Preview, error) {
	p, err := s.builder.Preview(ctx, text)
	if err != nil {
		var nh *post.NotAHeaderError
		if errors.As(err, &nh) {
			return nil, fmt.Errorf("%w: %v", apperr.ErrInvalidPost, err)
		}
		return nil, err
	}
	p.Headers = nonNilSlice(p.Headers)
	return p, nil
}

// Validate checks a draft against the configured header policy.
func (s *Service) Validate(_ context.Context, text string) *Validation {
	doc, err := s.builder.Validate(text)
	if err != nil {
		v := &Validation{Kind: post.Kind(err), Error: err.Error()}
		var mh *post.MissingHeadersError
		if errors.As(err, &mh) {
			v.Missing = mh.Keys
		}
		return v
	}
	v := &Validation{Valid: true}
	if name, err := doc.SuggestedFilename(post.Source); err == nil {
		v.Filename = name
	}
	return v
}

// Policy returns the header policy posts are checked against.
func (s *Service) Policy() post.Policy {
	return s.builder.Policy()
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
