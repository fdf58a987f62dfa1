package index

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/starford/quire/internal/apperr"
	"github.com/starford/quire/internal/models"
)

// SearchResult represents one search hit.
type SearchResult struct {
	ID      string `json:"id"`
	Path    string `json:"path"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

const selectPost = `SELECT path, post_id, output, title, subtitle, author, date, checksum, mod_time FROM posts`

// UpsertPost inserts or replaces a post, its rendered fragment and its FTS
// entry within a transaction.
func (db *DB) UpsertPost(p models.PostSummary, body, html string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	_, err = tx.Exec(`
		INSERT INTO posts (path, post_id, output, title, subtitle, author, date, checksum, mod_time, body, html, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			post_id    = excluded.post_id,
			output     = excluded.output,
			title      = excluded.title,
			subtitle   = excluded.subtitle,
			author     = excluded.author,
			date       = excluded.date,
			checksum   = excluded.checksum,
			mod_time   = excluded.mod_time,
			body       = excluded.body,
			html       = excluded.html,
			updated_at = excluded.updated_at
	`, p.Path, p.ID, p.Output, p.Title, p.Subtitle, p.Author, nullTime(p.Date), p.Checksum, nullTime(p.ModTime), body, html, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("index: upsert post: %w", err)
	}

	// FTS upsert (no-op when FTS5 tag is absent).
	if err := ftsUpsert(tx, p.Path, p.Title, p.Author, body); err != nil {
		return err
	}

	return tx.Commit()
}

// DeletePost removes a post and its FTS entry.
func (db *DB) DeletePost(path string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, path)
	if _, err := tx.Exec(`DELETE FROM posts WHERE path = ?`, path); err != nil {
		return fmt.Errorf("index: delete post: %w", err)
	}
	return tx.Commit()
}

// GetChecksum returns the stored checksum for a source path, or empty string if not found.
func (db *DB) GetChecksum(path string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM posts WHERE path = ?`, path).Scan(&cs)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("index: get checksum: %w", err)
	}
	return cs, nil
}

// GetRendered returns the checksum and rendered fragment cached for a
// source path. Both are empty when the path is not cached.
func (db *DB) GetRendered(path string) (string, string, error) {
	var cs, html string
	err := db.conn.QueryRow(`SELECT checksum, html FROM posts WHERE path = ?`, path).Scan(&cs, &html)
	if errors.Is(err, sql.ErrNoRows) {
		return "", "", nil
	}
	if err != nil {
		return "", "", fmt.Errorf("index: get rendered: %w", err)
	}
	return cs, html, nil
}

// AllChecksums returns path → checksum for every cached post.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM posts`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}

// GetPost looks a post up by its id header.
func (db *DB) GetPost(id string) (*models.PostSummary, error) {
	row := db.conn.QueryRow(selectPost+` WHERE post_id = ? ORDER BY path LIMIT 1`, id)
	p, err := scanPost(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("index: get post: %w", err)
	}
	return p, nil
}

// ListPosts returns posts newest first together with the total count.
// A non-positive limit returns every post.
func (db *DB) ListPosts(limit, offset int) ([]models.PostSummary, int, error) {
	var total int
	if err := db.conn.QueryRow(`SELECT count(*) FROM posts`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("index: count posts: %w", err)
	}
	if limit <= 0 {
		limit = -1
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := db.conn.Query(selectPost+`
		ORDER BY date DESC, mod_time DESC, title ASC
		LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("index: list posts: %w", err)
	}
	defer rows.Close()

	var out []models.PostSummary
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *p)
	}
	return out, total, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPost(s scanner) (*models.PostSummary, error) {
	var (
		p       models.PostSummary
		date    sql.NullTime
		modTime sql.NullTime
	)
	if err := s.Scan(&p.Path, &p.ID, &p.Output, &p.Title, &p.Subtitle, &p.Author, &date, &p.Checksum, &modTime); err != nil {
		return nil, err
	}
	p.Date = date.Time
	p.ModTime = modTime.Time
	return &p, nil
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
