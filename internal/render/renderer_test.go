package render

import (
	"context"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireBinary(t *testing.T, name string) {
	t.Helper()
	if _, err := exec.LookPath(name); err != nil {
		t.Skipf("%s not available: %v", name, err)
	}
}

func TestCommand_PipesBodyThroughStdin(t *testing.T) {
	requireBinary(t, "cat")
	r := &Command{Argv: []string{"cat"}}
	out, err := r.Render(context.Background(), "Hi\nthere bob")
	require.NoError(t, err)
	assert.Equal(t, "Hi\nthere bob", out)
}

func TestCommand_NonZeroExitIncludesStderr(t *testing.T) {
	requireBinary(t, "sh")
	r := &Command{Argv: []string{"sh", "-c", "echo broken markup >&2; exit 3"}}
	_, err := r.Render(context.Background(), "body")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken markup")
}

func TestCommand_Timeout(t *testing.T) {
	requireBinary(t, "sleep")
	r := &Command{Argv: []string{"sleep", "5"}, Timeout: 50 * time.Millisecond}
	start := time.Now()
	_, err := r.Render(context.Background(), "")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 4*time.Second)
}

func TestCommand_Empty(t *testing.T) {
	_, err := (&Command{}).Render(context.Background(), "x")
	assert.Error(t, err)
}

func TestGoldmark_Render(t *testing.T) {
	out, err := NewGoldmark().Render(context.Background(), "# Heading\n\nSome *emphasis* and ~~strike~~.")
	require.NoError(t, err)
	assert.Contains(t, out, `<h1 id="heading">Heading</h1>`)
	assert.Contains(t, out, "<em>emphasis</em>")
	assert.Contains(t, out, "<del>strike</del>")
}

func TestNew_SelectsRenderer(t *testing.T) {
	_, isGoldmark := New(nil, 0).(*Goldmark)
	assert.True(t, isGoldmark)

	cmd, isCommand := New([]string{"pandoc", "-f", "markdown"}, time.Second).(*Command)
	require.True(t, isCommand)
	assert.Equal(t, "pandoc", cmd.Argv[0])
	assert.Equal(t, time.Second, cmd.Timeout)
}

func TestCommand_LargeBody(t *testing.T) {
	requireBinary(t, "cat")
	body := strings.Repeat("line of text\n", 20000)
	out, err := (&Command{Argv: []string{"cat"}}).Render(context.Background(), body)
	require.NoError(t, err)
	assert.Equal(t, body, out)
}
