package api

import (
	"github.com/starford/quire/internal/models"
	"github.com/starford/quire/internal/postservice"
)

// PreviewRequest is the request body for rendering a draft.
type PreviewRequest struct {
	Content string `json:"content" example:"Title: Draft\n\nHello" validate:"required"`
}

// PostDetail is the full post response type (aliased from the domain layer).
type PostDetail = postservice.PostDetail

// PostListResponse wraps paginated post listings.
type PostListResponse struct {
	Posts []models.PostSummary `json:"posts" validate:"required"`
	Total int                  `json:"total" example:"42" validate:"required"`
}

// SearchResult is a single search hit in the API response.
type SearchResult struct {
	ID      string `json:"id" example:"ab12cd34" validate:"required"`
	Path    string `json:"path" example:"hello.md" validate:"required"`
	Title   string `json:"title" example:"Hello" validate:"required"`
	Snippet string `json:"snippet" example:"...matched text..." validate:"required"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []SearchResult `json:"results" validate:"required"`
}

// PreviewResponse is the rendered draft.
type PreviewResponse struct {
	Headers []HeaderDTO `json:"headers" validate:"required"`
	Missing []string    `json:"missing,omitempty" example:"date"`
	Output  string      `json:"output,omitempty" example:"draft-ab12cd34.html"`
	HTML    string      `json:"html" validate:"required"`
}

// HeaderDTO is one header line of a post.
type HeaderDTO struct {
	Raw   string `json:"raw" example:"Title: Hello"`
	Key   string `json:"key" example:"Title"`
	Value string `json:"value" example:"Hello"`
}
