// Package models defines the domain types shared across quire packages.
package models

import "time"

// SourceMeta describes one post source file found in the posts directory.
type SourceMeta struct {
	Path     string    `json:"path"`
	Checksum string    `json:"checksum"`
	ModTime  time.Time `json:"mod_time"`
}

// PostSummary is the metadata of a successfully parsed post as used by the
// index page, the API and the MCP tools.
type PostSummary struct {
	ID       string    `json:"id"`
	Path     string    `json:"path"`
	Output   string    `json:"output"`
	Title    string    `json:"title"`
	Subtitle string    `json:"subtitle,omitempty"`
	Author   string    `json:"author"`
	Date     time.Time `json:"date"`
	Checksum string    `json:"checksum"`
	ModTime  time.Time `json:"mod_time"`
}
