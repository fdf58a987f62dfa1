// Package testutil provides shared test helpers for setting up post trees,
// caches and builders.
package testutil

import (
	"context"
	"os"
	"testing"

	"github.com/starford/quire/internal/build"
	"github.com/starford/quire/internal/index"
	"github.com/starford/quire/internal/post"
	"github.com/starford/quire/internal/render"
	"github.com/starford/quire/internal/storage"
)

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "quire-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestDir creates a temporary directory with a storage provider listing ext.
func TestDir(t *testing.T, ext string) *storage.FS {
	t.Helper()
	store, err := storage.NewFS(t.TempDir(), ext)
	if err != nil {
		t.Fatal(err)
	}
	return store
}

// Site bundles a source tree, an output tree, a cache and a builder wired
// together the way serve mode wires them.
type Site struct {
	Src     *storage.FS
	Out     *storage.FS
	DB      *index.DB
	Builder *build.Builder
}

// NewSite creates an empty site using the default header policy and the
// built-in Markdown renderer.
func NewSite(t *testing.T) *Site {
	t.Helper()
	s := &Site{
		Src: TestDir(t, ".md"),
		Out: TestDir(t, ".html"),
		DB:  TestDB(t),
	}
	b, err := build.New(s.Src, s.Out, s.DB, render.NewGoldmark(), build.Options{
		Site:   render.SiteInfo{Title: "Test"},
		Policy: post.DefaultPolicy(),
		Clean:  true,
	}, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	s.Builder = b
	return s
}

// Write stores a source file.
func (s *Site) Write(t *testing.T, path, text string) {
	t.Helper()
	if err := s.Src.Write(path, []byte(text)); err != nil {
		t.Fatal(err)
	}
}

// Build runs a build and fails the test on a build-stopping error.
func (s *Site) Build(t *testing.T) *build.Report {
	t.Helper()
	rep, err := s.Builder.Build(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	return rep
}
