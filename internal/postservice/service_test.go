package postservice_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/quire/internal/apperr"
	"github.com/starford/quire/internal/post"
	"github.com/starford/quire/internal/postservice"
	"github.com/starford/quire/internal/testutil"
)

const hello = "Title: Hello There\nAuthor: Ann\nID: h1\nDate: 2024-04-01\n\nSome *text* about things.\n"

func newService(t *testing.T) (*postservice.Service, *testutil.Site) {
	t.Helper()
	site := testutil.NewSite(t)
	site.Write(t, "hello.md", hello)
	site.Build(t)
	return postservice.NewService(site.Src, site.DB, site.Builder), site
}

func TestGetPost(t *testing.T) {
	svc, _ := newService(t)
	p, err := svc.GetPost(context.Background(), "h1")
	require.NoError(t, err)
	assert.Equal(t, "Hello There", p.Title)
	assert.Equal(t, "hello-there-h1.html", p.Output)
	assert.Equal(t, "Some *text* about things.", p.Body)
	assert.Contains(t, p.HTML, "<em>text</em>")
	assert.Len(t, p.Headers, 4)
}

func TestGetPost_NotFound(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.GetPost(context.Background(), "nope")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestGetPost_SourceGoneAfterBuild(t *testing.T) {
	svc, site := newService(t)
	require.NoError(t, site.Src.Delete("hello.md"))
	_, err := svc.GetPost(context.Background(), "h1")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestListPosts_EmptyIsNonNil(t *testing.T) {
	site := testutil.NewSite(t)
	svc := postservice.NewService(site.Src, site.DB, site.Builder)
	items, total, err := svc.ListPosts(context.Background(), 10, 0)
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Zero(t, total)
}

func TestSource(t *testing.T) {
	svc, _ := newService(t)
	src, err := svc.Source(context.Background(), "h1")
	require.NoError(t, err)
	assert.Equal(t, hello, src)
}

func TestValidate(t *testing.T) {
	svc, _ := newService(t)

	v := svc.Validate(context.Background(), hello)
	assert.True(t, v.Valid)
	assert.Equal(t, "hello-there-h1.md", v.Filename)

	v = svc.Validate(context.Background(), "Title: T\n\nbody")
	assert.False(t, v.Valid)
	assert.Equal(t, post.KindMissingHeaders, v.Kind)
	assert.Equal(t, []string{"author", "id", "date"}, v.Missing)

	v = svc.Validate(context.Background(), "Title: T\nbroken\n\nbody")
	assert.Equal(t, post.KindNotAHeader, v.Kind)
	assert.Contains(t, v.Error, "broken")
}

func TestPreview_InvalidHeaderBlock(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.Preview(context.Background(), "Title: T\nbroken\n\nbody")
	assert.ErrorIs(t, err, apperr.ErrInvalidPost)
}
