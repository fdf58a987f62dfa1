package index

import "github.com/starford/quire/internal/models"

// PostIndex defines the build cache and search operations.
// Consumers should depend on this interface rather than the concrete *DB type
// to facilitate testing with fakes.
type PostIndex interface {
	UpsertPost(p models.PostSummary, body, html string) error
	DeletePost(path string) error
	GetChecksum(path string) (string, error)
	GetRendered(path string) (checksum, html string, err error)
	GetPost(id string) (*models.PostSummary, error)
	ListPosts(limit, offset int) ([]models.PostSummary, int, error)
	Search(query string, limit int) ([]SearchResult, error)
	AllChecksums() (map[string]string, error)
	Close() error
}

// Verify *DB satisfies PostIndex at compile time.
var _ PostIndex = (*DB)(nil)
