package post

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPolicy_LenientAcceptsAnything(t *testing.T) {
	d, err := ParseString("\nHi there", lenient())
	require.NoError(t, err)
	assert.NoError(t, LenientPolicy().Validate(d))
	assert.NoError(t, Policy{Required: []string{"title"}}.Validate(d))
}

func TestPolicy_CaseInsensitive(t *testing.T) {
	d, err := ParseString("TITLE: X\naUtHoR: Y\n\nBody", lenient())
	require.NoError(t, err)
	p := Policy{Required: []string{"title", "author"}, Strict: true}
	assert.NoError(t, p.Validate(d))
}

func TestPolicy_DefaultRequiresIDAndDate(t *testing.T) {
	d, err := ParseString("Title: X\nAuthor: Y\n\nBody", lenient())
	require.NoError(t, err)
	err = DefaultPolicy().Validate(d)
	var mh *MissingHeadersError
	require.ErrorAs(t, err, &mh)
	assert.Equal(t, []string{"id", "date"}, mh.Keys)
}

func TestPolicy_DefaultIsIndependentCopy(t *testing.T) {
	p := DefaultPolicy()
	p.Required[0] = "changed"
	assert.Equal(t, "title", DefaultRequiredHeaders[0])
}

func TestPolicy_Normalize(t *testing.T) {
	p := Policy{Required: []string{" Title", "AUTHOR", "", "title", "  "}, Strict: true}.Normalize()
	assert.Equal(t, []string{"title", "author"}, p.Required)
	assert.True(t, p.Strict)
}
