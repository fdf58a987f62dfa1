package build

import (
	"fmt"
	"time"

	"github.com/starford/quire/internal/models"
)

// Failure kinds added by the build on top of the parse kinds.
const (
	KindRender    = "render"
	KindDuplicate = "duplicate"
)

// Failure is a per-file problem. Kind is one of the post.Kind values,
// KindRender or KindDuplicate.
type Failure struct {
	Path string `json:"path"`
	Kind string `json:"kind"`
	Err  error  `json:"-"`
}

func (f Failure) Error() string {
	return fmt.Sprintf("%s: %s: %v", f.Path, f.Kind, f.Err)
}

func (f Failure) Unwrap() error { return f.Err }

// Report summarizes a build or check run.
type Report struct {
	Posts    []models.PostSummary // valid posts, newest first
	Written  []string             // sources whose page was rendered
	Skipped  []string             // sources whose page was unchanged
	Removed  []string             // vanished sources dropped from the cache
	Pruned   []string             // stale output pages deleted
	Failures []Failure
	Duration time.Duration
}

// OK reports whether every source was valid.
func (r *Report) OK() bool {
	return len(r.Failures) == 0
}

// FailuresByKind counts failures per kind.
func (r *Report) FailuresByKind() map[string]int {
	out := make(map[string]int)
	for _, f := range r.Failures {
		out[f.Kind]++
	}
	return out
}
