package api

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/starford/quire/internal/postservice"
	"github.com/starford/quire/internal/testutil"
)

const (
	postA = "Title: Alpha Post\nAuthor: Ann\nID: a1\nDate: 2024-01-01\n\nThe quick brown fox.\n"
	postB = "Title: Beta Post\nAuthor: Bob\nID: b2\nDate: 2024-02-01\n\nLazy dogs sleep.\n"
)

// testEnv builds a small site and returns its router.
// An empty authToken means disabled mode.
func testEnv(t *testing.T, authToken string) http.Handler {
	t.Helper()
	return testEnvWithSSE(t, authToken != "", authToken, nil)
}

func testEnvWithSSE(t *testing.T, authEnabled bool, token string, sseHandler http.Handler) http.Handler {
	t.Helper()
	site := testutil.NewSite(t)
	site.Write(t, "a.md", postA)
	site.Write(t, "b.md", postB)
	site.Build(t)

	svc := postservice.NewService(site.Src, site.DB, site.Builder)
	return NewRouter(svc, authEnabled, token, sseHandler)
}

func do(router http.Handler, method, target string, body []byte, hdr map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestListPosts(t *testing.T) {
	router := testEnv(t, "")
	w := do(router, http.MethodGet, "/posts", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d", w.Code)
	}
	var resp PostListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Total != 2 || len(resp.Posts) != 2 {
		t.Fatalf("total = %d, posts = %d", resp.Total, len(resp.Posts))
	}
	if resp.Posts[0].ID != "b2" {
		t.Errorf("first post = %q, want newest (b2)", resp.Posts[0].ID)
	}

	w = do(router, http.MethodGet, "/posts?limit=1&offset=1", nil, nil)
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Posts) != 1 || resp.Posts[0].ID != "a1" {
		t.Errorf("paged posts = %+v", resp.Posts)
	}
}

func TestGetPost(t *testing.T) {
	router := testEnv(t, "")
	w := do(router, http.MethodGet, "/posts/a1", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d, body = %s", w.Code, w.Body.String())
	}
	var p PostDetail
	if err := json.Unmarshal(w.Body.Bytes(), &p); err != nil {
		t.Fatal(err)
	}
	if p.Title != "Alpha Post" || p.Output != "alpha-post-a1.html" {
		t.Errorf("unexpected post: %+v", p.PostSummary)
	}
	if !strings.Contains(p.HTML, "quick brown fox") {
		t.Errorf("html = %q", p.HTML)
	}
	if len(p.Headers) != 4 || p.Headers[0].Key != "Title" {
		t.Errorf("headers = %+v", p.Headers)
	}
}

func TestGetPost_NotFound(t *testing.T) {
	router := testEnv(t, "")
	w := do(router, http.MethodGet, "/posts/missing", nil, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestSearchEndpoint(t *testing.T) {
	router := testEnv(t, "")
	w := do(router, http.MethodGet, "/search?q=fox", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("search status = %d", w.Code)
	}
	var resp SearchResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Results) != 1 || resp.Results[0].ID != "a1" {
		t.Errorf("results = %+v", resp.Results)
	}
}

func TestSearchMissingQuery(t *testing.T) {
	router := testEnv(t, "")
	w := do(router, http.MethodGet, "/search", nil, nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("search no query = %d, want 400", w.Code)
	}
}

func TestPreview(t *testing.T) {
	router := testEnv(t, "")
	body, _ := json.Marshal(PreviewRequest{Content: "Title: Draft\nID: d9\n\n**bold** move\n"})
	w := do(router, http.MethodPost, "/preview", body, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("preview status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp PreviewResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(resp.HTML, "<strong>bold</strong>") {
		t.Errorf("html = %q", resp.HTML)
	}
	if strings.Join(resp.Missing, ",") != "author,date" {
		t.Errorf("missing = %v", resp.Missing)
	}
	if resp.Output != "draft-d9.html" {
		t.Errorf("output = %q", resp.Output)
	}
}

func TestPreview_BadRequests(t *testing.T) {
	router := testEnv(t, "")

	w := do(router, http.MethodPost, "/preview", []byte("{not json"), nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("invalid json = %d, want 400", w.Code)
	}

	body, _ := json.Marshal(PreviewRequest{})
	w = do(router, http.MethodPost, "/preview", body, nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("empty content = %d, want 400", w.Code)
	}

	body, _ = json.Marshal(PreviewRequest{Content: "Title: X\nnope\n\nbody"})
	w = do(router, http.MethodPost, "/preview", body, nil)
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("malformed headers = %d, want 422", w.Code)
	}
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	router := testEnv(t, "secret123")
	w := do(router, http.MethodGet, "/posts", nil, map[string]string{"Authorization": "Bearer secret123"})
	if w.Code != http.StatusOK {
		t.Errorf("valid token = %d, want 200", w.Code)
	}
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	router := testEnv(t, "secret123")
	w := do(router, http.MethodGet, "/posts", nil, nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("missing token = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_WrongToken(t *testing.T) {
	router := testEnv(t, "secret123")
	w := do(router, http.MethodGet, "/posts", nil, map[string]string{"Authorization": "Bearer wrong"})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong token = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_Disabled(t *testing.T) {
	router := testEnvWithSSE(t, false, "ignored", nil)
	w := do(router, http.MethodGet, "/posts", nil, nil)
	if w.Code != http.StatusOK {
		t.Errorf("disabled auth = %d, want 200", w.Code)
	}
}

// stubSSE writes headers and blocks until the request context is done.
var stubSSE = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.WriteHeader(http.StatusOK)
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
	<-r.Context().Done()
})

func TestSSEEvents_AuthProtected(t *testing.T) {
	router := testEnvWithSSE(t, true, "secret", stubSSE)
	w := do(router, http.MethodGet, "/events", nil, nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("SSE no auth = %d, want 401", w.Code)
	}
}

func TestSSEEvents_ValidToken(t *testing.T) {
	router := testEnvWithSSE(t, true, "tok", stubSSE)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	req.Header.Set("Authorization", "Bearer tok")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("SSE with valid token = %d, want 200", w.Code)
	}
}

func TestSiteHandler(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>home</h1>"), 0o644); err != nil {
		t.Fatal(err)
	}
	h := NewSiteHandler(dir)

	w := do(h, http.MethodGet, "/", nil, nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "home") {
		t.Errorf("index = %d %q", w.Code, w.Body.String())
	}
	w = do(h, http.MethodGet, "/../../etc/passwd", nil, nil)
	if w.Code == http.StatusOK && strings.Contains(w.Body.String(), "root:") {
		t.Error("traversal escaped the site root")
	}
}
