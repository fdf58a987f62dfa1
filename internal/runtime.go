package internal

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/starford/quire/internal/build"
	"github.com/starford/quire/internal/index"
	"github.com/starford/quire/internal/metrics"
	"github.com/starford/quire/internal/postservice"
	"github.com/starford/quire/internal/storage"
)

// runtime holds everything a command needs once the config is loaded.
type runtime struct {
	cfg     *Config
	logger  *slog.Logger
	src     *storage.FS
	out     *storage.FS
	db      *index.DB
	metrics *metrics.Recorder
	builder *build.Builder
	svc     *postservice.Service
	version string
}

func newRuntime(opts []Option) (*runtime, error) {
	app := &application{logOutput: os.Stdout, version: "dev"}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(app.logOutput, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Debug("Configuration loaded",
		slog.String("posts_dir", cfg.Posts.Dir),
		slog.String("output_dir", cfg.Output.Dir),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.Any("required_headers", cfg.Headers.Policy().Required),
		slog.String("log_level", cfg.App.LogLevel.String()))

	for _, dir := range []string{cfg.Posts.Dir, cfg.Output.Dir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create dir %s: %w", dir, err)
		}
	}
	src, err := storage.NewFS(cfg.Posts.Dir, cfg.Posts.Extension)
	if err != nil {
		return nil, fmt.Errorf("init posts storage: %w", err)
	}
	out, err := storage.NewFS(cfg.Output.Dir, ".html")
	if err != nil {
		return nil, fmt.Errorf("init output storage: %w", err)
	}

	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init index: %w", err)
	}

	reg := prom.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	rec := metrics.NewRecorder(reg)

	b, err := build.New(src, out, db, cfg.Renderer.New(), build.Options{
		Site:      cfg.Site.Info(),
		Policy:    cfg.Headers.Policy(),
		Extension: cfg.Posts.Extension,
		Workers:   cfg.Build.Workers,
		Clean:     cfg.Output.Clean,
	}, logger, rec)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init builder: %w", err)
	}

	return &runtime{
		cfg:     cfg,
		logger:  logger,
		src:     src,
		out:     out,
		db:      db,
		metrics: rec,
		builder: b,
		svc:     postservice.NewService(src, db, b),
		version: app.version,
	}, nil
}

func (rt *runtime) close() {
	if err := rt.db.Close(); err != nil {
		rt.logger.Warn("close index failed", slog.String("error", err.Error()))
	}
}

// logFailures writes one warning per invalid post.
func (rt *runtime) logFailures(rep *build.Report) {
	for _, f := range rep.Failures {
		rt.logger.Warn("invalid post",
			slog.String("path", f.Path),
			slog.String("kind", f.Kind),
			slog.String("error", f.Err.Error()))
	}
}

// Build runs one full build.
func Build(ctx context.Context, opts ...Option) (*build.Report, error) {
	rt, err := newRuntime(opts)
	if err != nil {
		return nil, err
	}
	defer rt.close()
	rep, err := rt.builder.Build(ctx)
	if err != nil {
		return nil, err
	}
	rt.logFailures(rep)
	return rep, nil
}

// Check parses every post without rendering.
func Check(ctx context.Context, opts ...Option) (*build.Report, error) {
	rt, err := newRuntime(opts)
	if err != nil {
		return nil, err
	}
	defer rt.close()
	rep, err := rt.builder.Check(ctx)
	if err != nil {
		return nil, err
	}
	rt.logFailures(rep)
	return rep, nil
}

// Rename moves post sources to their suggested names.
func Rename(ctx context.Context, dryRun bool, opts ...Option) ([]build.Move, *build.Report, error) {
	rt, err := newRuntime(opts)
	if err != nil {
		return nil, nil, err
	}
	defer rt.close()
	moves, rep, err := rt.builder.Rename(ctx, dryRun)
	if err != nil {
		return nil, nil, err
	}
	rt.logFailures(rep)
	return moves, rep, nil
}

// NewPost scaffolds a post source. An empty author falls back to
// site.author.
func NewPost(_ context.Context, title, author string, opts ...Option) (string, error) {
	rt, err := newRuntime(opts)
	if err != nil {
		return "", err
	}
	defer rt.close()
	if author == "" {
		author = rt.cfg.Site.Author
	}
	return rt.builder.NewPost(title, author)
}

// Search queries the cache of the last build.
func Search(ctx context.Context, query string, limit int, opts ...Option) ([]index.SearchResult, error) {
	rt, err := newRuntime(opts)
	if err != nil {
		return nil, err
	}
	defer rt.close()
	return rt.svc.Search(ctx, query, limit)
}
