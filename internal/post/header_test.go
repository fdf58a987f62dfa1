package post

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHeaderLine_Trimming(t *testing.T) {
	for _, text := range []string{"aaaa:bbbb", "aaaa: bbbb", " aaaa : bbbb ", "\taaaa:\tbbbb\t"} {
		h, err := ParseHeaderLine(text)
		require.NoError(t, err, text)
		assert.Equal(t, "aaaa", h.Key)
		assert.Equal(t, "bbbb", h.Value)
		assert.Equal(t, text, h.Raw)
		assert.Equal(t, text, h.String())
	}
}

func TestParseHeaderLine_Multiword(t *testing.T) {
	h, err := ParseHeaderLine("Alpha Bet: Soup Four")
	require.NoError(t, err)
	assert.Equal(t, "Alpha Bet", h.Key)
	assert.Equal(t, "Soup Four", h.Value)
}

func TestParseHeaderLine_ValueKeepsLaterColons(t *testing.T) {
	h, err := ParseHeaderLine("Link: https://example.com:8080/a")
	require.NoError(t, err)
	assert.Equal(t, "Link", h.Key)
	assert.Equal(t, "https://example.com:8080/a", h.Value)
}

func TestParseHeaderLine_PreservesCase(t *testing.T) {
	h, err := ParseHeaderLine("TiTLE: Mixed Case")
	require.NoError(t, err)
	assert.Equal(t, "TiTLE", h.Key)
	assert.Equal(t, "Mixed Case", h.Value)
}

func TestParseHeaderLine_Invalid(t *testing.T) {
	for _, text := range []string{"nocolon", "", ":", "a:", ":b", "  :  ", " key :   "} {
		_, err := ParseHeaderLine(text)
		require.Error(t, err, text)
		assert.ErrorIs(t, err, ErrNotAHeader)

		var nah *NotAHeaderError
		require.True(t, errors.As(err, &nah))
		assert.Equal(t, text, nah.Line)
		assert.Equal(t, KindNotAHeader, Kind(err))
	}
}

func TestParseHeaderLine_Property(t *testing.T) {
	keys := []string{"k", "Title", "  spaced key ", "x-y_z", "Ünïcode"}
	values := []string{"v", " padded value  ", "a:b:c", "多字节", "#not a comment"}
	for _, k := range keys {
		for _, v := range values {
			h, err := ParseHeaderLine(k + ": " + v)
			require.NoError(t, err)
			assert.Equal(t, strings.TrimSpace(k), h.Key)
			assert.Equal(t, strings.TrimSpace(v), h.Value)
		}
	}
}
