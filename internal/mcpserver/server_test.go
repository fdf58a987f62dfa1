package mcpserver

import (
	"context"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/quire/internal/postservice"
	"github.com/starford/quire/internal/testutil"
)

const samplePost = "Title: Sample Post Here\nAuthor: Ann\nID: s1\nDate: 2024-06-01\n\nA body about gardens.\n"

func testServer(t *testing.T) (*Server, *testutil.Site) {
	t.Helper()
	site := testutil.NewSite(t)
	site.Write(t, "sample.md", samplePost)
	site.Build(t)
	svc := postservice.NewService(site.Src, site.DB, site.Builder)
	return New(svc, site.Builder, "test"), site
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no direct "call tool" test helper, so handlers are
	// invoked directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "list_posts":
		result, err = srv.listPosts(ctx, req)
	case "read_post":
		result, err = srv.readPost(ctx, req)
	case "search_posts":
		result, err = srv.searchPosts(ctx, req)
	case "validate_post":
		result, err = srv.validatePost(ctx, req)
	case "new_post":
		result, err = srv.newPost(ctx, req)
	case "get_post_format":
		result, err = srv.getPostFormat(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestReadPost(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "read_post", map[string]interface{}{"id": "s1"})
	if got := resultText(r); got != samplePost {
		t.Errorf("read result = %q", got)
	}
}

func TestReadPostMissing(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "read_post", map[string]interface{}{"id": "nope"})
	if !r.IsError {
		t.Error("expected error for missing post")
	}
	r = callTool(t, srv, "read_post", map[string]interface{}{})
	if !r.IsError {
		t.Error("expected error when id is absent")
	}
}

func TestListPosts(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "list_posts", map[string]interface{}{"limit": float64(10)})
	var out struct {
		Posts []struct {
			ID     string `json:"id"`
			Output string `json:"output"`
		} `json:"posts"`
		Total int `json:"total"`
	}
	if err := json.Unmarshal([]byte(resultText(r)), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Total != 1 || len(out.Posts) != 1 || out.Posts[0].Output != "sample-post-here-s1.html" {
		t.Errorf("list = %+v", out)
	}
}

func TestSearchPosts(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "search_posts", map[string]interface{}{"query": "gardens"})
	if !strings.Contains(resultText(r), `"id": "s1"`) {
		t.Errorf("search = %q", resultText(r))
	}
}

func TestValidatePost(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "validate_post", map[string]interface{}{"content": samplePost})
	var v postservice.Validation
	if err := json.Unmarshal([]byte(resultText(r)), &v); err != nil {
		t.Fatal(err)
	}
	if !v.Valid || v.Filename != "sample-post-here-s1.md" {
		t.Errorf("valid post = %+v", v)
	}

	r = callTool(t, srv, "validate_post", map[string]interface{}{"content": "Title: X\n\nbody"})
	v = postservice.Validation{}
	_ = json.Unmarshal([]byte(resultText(r)), &v)
	if v.Valid || v.Kind != "missing_headers" || strings.Join(v.Missing, ",") != "author,id,date" {
		t.Errorf("missing headers = %+v", v)
	}
}

func TestNewPost(t *testing.T) {
	srv, site := testServer(t)
	r := callTool(t, srv, "new_post", map[string]interface{}{"title": "Fresh Idea", "author": "Bo"})
	text := resultText(r)
	if r.IsError || !strings.HasPrefix(text, "created: fresh-idea-") {
		t.Fatalf("new_post = %q", text)
	}
	if !site.Src.Exists(strings.TrimPrefix(text, "created: ")) {
		t.Error("new post not written")
	}
}

func TestGetPostFormat(t *testing.T) {
	srv, _ := testServer(t)
	text := resultText(callTool(t, srv, "get_post_format", nil))
	if !strings.HasPrefix(text, "# Quire Post Format") {
		t.Errorf("format = %q", text[:40])
	}
	if !strings.Contains(text, "This site requires: title, author, id, date.") {
		t.Error("format text does not name the required headers")
	}

	res, err := srv.readPostFormatResource(context.Background(), mcp.ReadResourceRequest{})
	if err != nil || len(res) != 1 {
		t.Fatalf("resource = %v, %v", res, err)
	}
	if tc, ok := res[0].(mcp.TextResourceContents); !ok || tc.URI != PostFormatURI || tc.Text != text {
		t.Errorf("resource contents = %+v", res[0])
	}
}
