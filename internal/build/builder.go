// Package build turns a directory of post sources into a static site.
package build

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/starford/quire/internal/checksum"
	"github.com/starford/quire/internal/index"
	"github.com/starford/quire/internal/metrics"
	"github.com/starford/quire/internal/models"
	"github.com/starford/quire/internal/post"
	"github.com/starford/quire/internal/render"
	"github.com/starford/quire/internal/storage"
)

// Output file names written next to the post pages.
const (
	IndexFile = "index.html"
	CSSFile   = "static/style.css"
)

// Options configures a Builder.
type Options struct {
	Site      render.SiteInfo
	Policy    post.Policy
	Extension string // source extension, e.g. ".md"
	Workers   int
	Clean     bool // delete stale output pages
}

// Builder runs builds. Builds are serialized; the other methods may be
// called concurrently.
type Builder struct {
	src      storage.Provider
	out      storage.Provider
	db       index.PostIndex // nil disables the cache
	renderer render.Renderer
	site     *render.Site
	opts     Options
	logger   *slog.Logger
	metrics  *metrics.Recorder

	mu sync.Mutex
}

// New creates a Builder. db and rec may be nil.
func New(src, out storage.Provider, db index.PostIndex, r render.Renderer, opts Options, logger *slog.Logger, rec *metrics.Recorder) (*Builder, error) {
	site, err := render.NewSite()
	if err != nil {
		return nil, err
	}
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.Extension == "" {
		opts.Extension = post.Source.Extension()
	}
	opts.Policy = opts.Policy.Normalize()
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{
		src:      src,
		out:      out,
		db:       db,
		renderer: r,
		site:     site,
		opts:     opts,
		logger:   logger,
		metrics:  rec,
	}, nil
}

// Policy returns the header policy applied to sources.
func (b *Builder) Policy() post.Policy {
	return b.opts.Policy
}

// Extension returns the source file extension.
func (b *Builder) Extension() string {
	return b.opts.Extension
}

// parsed is the outcome of reading one source.
type parsed struct {
	meta    models.SourceMeta
	doc     *post.Document
	summary models.PostSummary
	html    string
	skipped bool
	err     *Failure
}

// Build parses every source, renders changed posts, and writes the index
// page and stylesheet. Per-file problems are collected in the report; the
// returned error is reserved for failures that stop the whole build.
func (b *Builder) Build(ctx context.Context) (*Report, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	start := time.Now()
	rep := &Report{}

	items, err := b.parseAll(ctx, rep)
	if err != nil {
		return nil, err
	}
	valid := dedupe(items)

	cached := b.cachedChecksums()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.opts.Workers)
	for _, it := range valid {
		g.Go(func() error {
			return b.renderOne(gctx, it, cached)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var entries []*parsed
	for _, it := range items {
		if it.err != nil {
			rep.Failures = append(rep.Failures, *it.err)
			switch it.err.Kind {
			case KindRender, KindDuplicate:
				b.metrics.IncParsed(metrics.ResultOK)
				b.metrics.IncRendered(metrics.ResultFailed)
			default:
				b.metrics.IncParsed(it.err.Kind)
			}
			continue
		}
		b.metrics.IncParsed(metrics.ResultOK)
		if it.skipped {
			rep.Skipped = append(rep.Skipped, it.meta.Path)
			b.metrics.IncRendered(metrics.ResultSkipped)
		} else {
			rep.Written = append(rep.Written, it.meta.Path)
			b.metrics.IncRendered(metrics.ResultWritten)
			if b.db != nil {
				if err := b.db.UpsertPost(it.summary, it.doc.Body(), it.html); err != nil {
					b.logger.Warn("build: cache update failed", slog.String("path", it.meta.Path), slog.String("error", err.Error()))
				}
			}
		}
		entries = append(entries, it)
	}

	sortNewestFirst(entries)
	for _, it := range entries {
		rep.Posts = append(rep.Posts, it.summary)
	}

	if err := b.writeIndex(entries); err != nil {
		return nil, err
	}
	if err := b.out.Write(CSSFile, render.CSS()); err != nil {
		return nil, fmt.Errorf("build: write stylesheet: %w", err)
	}

	b.prune(items, entries, cached, rep)

	rep.Duration = time.Since(start)
	b.metrics.ObserveBuild(rep.Duration, len(rep.Posts))
	b.logger.Info("build: done",
		slog.Int("posts", len(rep.Posts)),
		slog.Int("written", len(rep.Written)),
		slog.Int("skipped", len(rep.Skipped)),
		slog.Int("failed", len(rep.Failures)),
		slog.Duration("duration", rep.Duration))
	return rep, nil
}

// Check parses every source without rendering anything.
func (b *Builder) Check(ctx context.Context) (*Report, error) {
	start := time.Now()
	rep := &Report{}
	items, err := b.parseAll(ctx, rep)
	if err != nil {
		return nil, err
	}
	valid := dedupe(items)
	for _, it := range items {
		if it.err != nil {
			rep.Failures = append(rep.Failures, *it.err)
		}
	}
	sortNewestFirst(valid)
	for _, it := range valid {
		rep.Posts = append(rep.Posts, it.summary)
	}
	rep.Duration = time.Since(start)
	return rep, nil
}

// parseAll lists and parses every source in parallel. Results keep the
// listing order, which is sorted by path.
func (b *Builder) parseAll(ctx context.Context, rep *Report) ([]*parsed, error) {
	metas, err := b.src.List("")
	if err != nil {
		return nil, fmt.Errorf("build: list sources: %w", err)
	}

	items := make([]*parsed, len(metas))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.opts.Workers)
	for i, m := range metas {
		items[i] = &parsed{meta: m}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			b.parseOne(items[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return items, nil
}

func (b *Builder) parseOne(it *parsed) {
	rc, modTime, err := b.src.Open(it.meta.Path)
	if err != nil {
		it.err = &Failure{Path: it.meta.Path, Kind: post.KindIO, Err: err}
		return
	}
	data, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		it.err = &Failure{Path: it.meta.Path, Kind: post.KindIO, Err: err}
		return
	}
	it.meta.Checksum = checksum.Sum(data)

	doc, err := post.Parse(bytes.NewReader(data), post.ParseOptions{ModTime: knownModTime(modTime), Policy: b.opts.Policy})
	if err != nil {
		it.err = &Failure{Path: it.meta.Path, Kind: post.Kind(err), Err: err}
		return
	}
	summary, err := Summarize(doc, it.meta.Path)
	if err != nil {
		it.err = &Failure{Path: it.meta.Path, Kind: post.Kind(err), Err: err}
		return
	}
	summary.Checksum = it.meta.Checksum
	it.doc = doc
	it.summary = summary
}

// knownModTime drops modification times the parser rejects.
func knownModTime(t time.Time) time.Time {
	if t.Before(time.Unix(0, 0)) {
		return time.Time{}
	}
	return t
}

// Summarize extracts the metadata shown in listings from a parsed post.
// It fails when the post has no title or id to derive an output name from.
func Summarize(doc *post.Document, srcPath string) (models.PostSummary, error) {
	output, err := doc.SuggestedFilename(post.Rendered)
	if err != nil {
		return models.PostSummary{}, err
	}
	s := models.PostSummary{Path: srcPath, Output: output}
	s.ID, _ = doc.Lookup(post.HeaderID)
	s.Title, _ = doc.Lookup(post.HeaderTitle)
	s.Subtitle, _ = doc.Lookup(post.HeaderSubtitle)
	s.Author, _ = doc.Lookup(post.HeaderAuthor)
	s.Date, _ = doc.Date()
	s.ModTime, _ = doc.ModTime()
	return s, nil
}

// dedupe marks every post whose output name was already claimed by an
// earlier path as a duplicate and returns the remaining valid posts.
func dedupe(items []*parsed) []*parsed {
	claimed := make(map[string]string)
	var valid []*parsed
	for _, it := range items {
		if it.err != nil {
			continue
		}
		if first, ok := claimed[it.summary.Output]; ok {
			it.err = &Failure{
				Path: it.meta.Path,
				Kind: KindDuplicate,
				Err:  fmt.Errorf("output %s already produced by %s", it.summary.Output, first),
			}
			continue
		}
		claimed[it.summary.Output] = it.meta.Path
		valid = append(valid, it)
	}
	return valid
}

func (b *Builder) cachedChecksums() map[string]string {
	if b.db == nil {
		return nil
	}
	cs, err := b.db.AllChecksums()
	if err != nil {
		b.logger.Warn("build: read cache failed", slog.String("error", err.Error()))
		return nil
	}
	return cs
}

// renderOne renders and writes a single post page, reusing the cached
// fragment when the source is unchanged and its page still exists.
func (b *Builder) renderOne(ctx context.Context, it *parsed, cached map[string]string) error {
	if cs, ok := cached[it.meta.Path]; ok && cs == it.meta.Checksum && b.out.Exists(it.summary.Output) {
		_, html, err := b.db.GetRendered(it.meta.Path)
		if err == nil && html != "" {
			it.html = html
			it.skipped = true
			return nil
		}
	}

	html, err := b.renderer.Render(ctx, it.doc.Body())
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		it.err = &Failure{Path: it.meta.Path, Kind: KindRender, Err: err}
		return nil
	}
	page, err := b.site.Post(render.PostPage{
		Site:    b.opts.Site,
		Post:    it.summary,
		Content: template.HTML(html), //nolint:gosec // renderer output is trusted
	})
	if err != nil {
		it.err = &Failure{Path: it.meta.Path, Kind: KindRender, Err: err}
		return nil
	}
	if err := b.out.Write(it.summary.Output, page); err != nil {
		it.err = &Failure{Path: it.meta.Path, Kind: post.KindIO, Err: err}
		return nil
	}
	it.html = html
	b.logger.Debug("build: wrote page", slog.String("path", it.meta.Path), slog.String("output", it.summary.Output))
	return nil
}

func (b *Builder) writeIndex(entries []*parsed) error {
	page := render.IndexPage{Site: b.opts.Site}
	for _, it := range entries {
		page.Posts = append(page.Posts, render.IndexEntry{
			Post:    it.summary,
			Content: template.HTML(it.html), //nolint:gosec // renderer output is trusted
		})
	}
	data, err := b.site.Index(page)
	if err != nil {
		return fmt.Errorf("build: %w", err)
	}
	if err := b.out.Write(IndexFile, data); err != nil {
		return fmt.Errorf("build: write index: %w", err)
	}
	return nil
}

// prune removes top-level pages no post produced and cache rows of
// sources that no longer exist.
func (b *Builder) prune(items, entries []*parsed, cached map[string]string, rep *Report) {
	sources := make(map[string]struct{}, len(items))
	for _, it := range items {
		sources[it.meta.Path] = struct{}{}
	}
	for p := range cached {
		if _, ok := sources[p]; ok {
			continue
		}
		if err := b.db.DeletePost(p); err != nil {
			b.logger.Warn("build: drop cache row failed", slog.String("path", p), slog.String("error", err.Error()))
			continue
		}
		rep.Removed = append(rep.Removed, p)
	}
	sort.Strings(rep.Removed)

	if !b.opts.Clean {
		return
	}
	produced := map[string]struct{}{IndexFile: {}}
	for _, it := range entries {
		produced[it.summary.Output] = struct{}{}
	}
	// Pages of posts that failed this time stay in place.
	for _, it := range items {
		if it.err != nil && it.err.Kind != KindDuplicate && it.summary.Output != "" {
			produced[it.summary.Output] = struct{}{}
		}
	}
	pages, err := b.out.List("")
	if err != nil {
		b.logger.Warn("build: list output failed", slog.String("error", err.Error()))
		return
	}
	for _, m := range pages {
		if strings.Contains(m.Path, "/") || path.Ext(m.Path) != post.Rendered.Extension() {
			continue
		}
		if _, ok := produced[m.Path]; ok {
			continue
		}
		if err := b.out.Delete(m.Path); err != nil {
			b.logger.Warn("build: prune failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		rep.Pruned = append(rep.Pruned, m.Path)
	}
}

// sortNewestFirst orders by date, then modification time, then title.
func sortNewestFirst(items []*parsed) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i].summary, items[j].summary
		if !a.Date.Equal(b.Date) {
			return a.Date.After(b.Date)
		}
		if !a.ModTime.Equal(b.ModTime) {
			return a.ModTime.After(b.ModTime)
		}
		return a.Title < b.Title
	})
}
