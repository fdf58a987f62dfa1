package index

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/starford/quire/internal/apperr"
	"github.com/starford/quire/internal/models"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "quire-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM posts`).Scan(&count); err != nil {
		t.Fatalf("posts table missing: %v", err)
	}
}

func TestUpsertAndGetChecksum(t *testing.T) {
	db := testDB(t)
	p := models.PostSummary{
		Path:     "hello.md",
		ID:       "abc12345",
		Title:    "Hello World",
		Author:   "Jo",
		Checksum: "c1",
		Date:     day(3),
	}
	if err := db.UpsertPost(p, "This is a hello world post.", ""); err != nil {
		t.Fatalf("UpsertPost: %v", err)
	}
	cs, err := db.GetChecksum("hello.md")
	if err != nil {
		t.Fatalf("GetChecksum: %v", err)
	}
	if cs != "c1" {
		t.Errorf("checksum = %q, want %q", cs, "c1")
	}
}

func TestGetPost(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertPost(models.PostSummary{Path: "a.md", ID: "id-a", Title: "A", Output: "a-id-a.html", Date: day(2)}, "body", "")

	p, err := db.GetPost("id-a")
	if err != nil {
		t.Fatalf("GetPost: %v", err)
	}
	if p.Title != "A" || p.Output != "a-id-a.html" || !p.Date.Equal(day(2)) {
		t.Errorf("post = %+v", p)
	}

	if _, err := db.GetPost("missing"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestListPosts_NewestFirst(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertPost(models.PostSummary{Path: "old.md", ID: "1", Title: "Old", Date: day(1)}, "", "")
	_ = db.UpsertPost(models.PostSummary{Path: "new.md", ID: "2", Title: "New", Date: day(9)}, "", "")
	_ = db.UpsertPost(models.PostSummary{Path: "undated.md", ID: "3", Title: "Undated"}, "", "")

	posts, total, err := db.ListPosts(0, 0)
	if err != nil {
		t.Fatalf("ListPosts: %v", err)
	}
	if total != 3 || len(posts) != 3 {
		t.Fatalf("total = %d, len = %d", total, len(posts))
	}
	if posts[0].ID != "2" || posts[1].ID != "1" || posts[2].ID != "3" {
		t.Errorf("order = %s, %s, %s", posts[0].ID, posts[1].ID, posts[2].ID)
	}

	page, total, err := db.ListPosts(1, 1)
	if err != nil {
		t.Fatalf("ListPosts page: %v", err)
	}
	if total != 3 || len(page) != 1 || page[0].ID != "1" {
		t.Errorf("page = %+v, total = %d", page, total)
	}
}

func TestDeletePost(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertPost(models.PostSummary{Path: "del.md", ID: "x", Checksum: "x"}, "body", "")

	if err := db.DeletePost("del.md"); err != nil {
		t.Fatalf("DeletePost: %v", err)
	}
	cs, _ := db.GetChecksum("del.md")
	if cs != "" {
		t.Errorf("deleted post still has checksum %q", cs)
	}
}

func TestUpsertUpdatesExisting(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertPost(models.PostSummary{Path: "up.md", ID: "u", Title: "Old", Checksum: "1"}, "old body", "")
	_ = db.UpsertPost(models.PostSummary{Path: "up.md", ID: "u", Title: "New", Checksum: "2"}, "new body", "")

	all, err := db.AllChecksums()
	if err != nil {
		t.Fatalf("AllChecksums: %v", err)
	}
	if len(all) != 1 || all["up.md"] != "2" {
		t.Errorf("checksums = %v", all)
	}
	p, _ := db.GetPost("u")
	if p.Title != "New" {
		t.Errorf("title = %q", p.Title)
	}
}

func TestGetChecksum_NotFound(t *testing.T) {
	db := testDB(t)
	cs, err := db.GetChecksum("nonexistent.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cs != "" {
		t.Errorf("expected empty checksum, got %q", cs)
	}
}

func TestSearch_Basic(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertPost(models.PostSummary{Path: "s.md", ID: "s1", Title: "Search Me", Checksum: "1"}, "uniqueword appears here", "")

	results, err := db.Search("uniqueword", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].Path != "s.md" || results[0].ID != "s1" {
		t.Errorf("search results = %+v, want 1 hit for s.md", results)
	}
}

func TestGetRendered(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertPost(models.PostSummary{Path: "r.md", ID: "r", Checksum: "c9"}, "body", "<p>body</p>")

	cs, html, err := db.GetRendered("r.md")
	if err != nil {
		t.Fatalf("GetRendered: %v", err)
	}
	if cs != "c9" || html != "<p>body</p>" {
		t.Errorf("got (%q, %q)", cs, html)
	}

	cs, html, err = db.GetRendered("missing.md")
	if err != nil || cs != "" || html != "" {
		t.Errorf("missing path: (%q, %q, %v)", cs, html, err)
	}
}
