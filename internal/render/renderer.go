// Package render turns post bodies into HTML fragments and assembles the
// generated pages around them.
package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
)

// Renderer converts a post body into an HTML fragment.
type Renderer interface {
	Render(ctx context.Context, body string) (string, error)
}

// Command pipes the body to an external program's stdin and returns its
// stdout. Timeout, when positive, bounds the whole invocation.
type Command struct {
	Argv    []string
	Timeout time.Duration
}

// Render runs the command once for body.
func (c *Command) Render(ctx context.Context, body string) (string, error) {
	if len(c.Argv) == 0 {
		return "", errors.New("render: empty command")
	}
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, c.Argv[0], c.Argv[1:]...)
	cmd.Stdin = strings.NewReader(body)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", fmt.Errorf("render: %s: %w", c.Argv[0], ctxErr)
		}
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return "", fmt.Errorf("render: %s: %w: %s", c.Argv[0], err, msg)
		}
		return "", fmt.Errorf("render: %s: %w", c.Argv[0], err)
	}
	return stdout.String(), nil
}

// Goldmark renders Markdown in-process. It is used when no external
// renderer command is configured.
type Goldmark struct {
	md goldmark.Markdown
}

// NewGoldmark returns a GitHub-flavoured Markdown renderer.
func NewGoldmark() *Goldmark {
	return &Goldmark{md: goldmark.New(
		goldmark.WithExtensions(extension.GFM, extension.Footnote, extension.Typographer),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	)}
}

// Render converts body to HTML.
func (g *Goldmark) Render(_ context.Context, body string) (string, error) {
	var buf bytes.Buffer
	if err := g.md.Convert([]byte(body), &buf); err != nil {
		return "", fmt.Errorf("render: goldmark: %w", err)
	}
	return buf.String(), nil
}

// New returns a Command renderer for argv, or Goldmark when argv is empty.
func New(argv []string, timeout time.Duration) Renderer {
	if len(argv) == 0 {
		return NewGoldmark()
	}
	return &Command{Argv: argv, Timeout: timeout}
}
