package render

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/starford/quire/internal/models"
)

// SiteInfo is the blog-wide data shown on every page.
type SiteInfo struct {
	Title    string
	Subtitle string
	BaseURL  string
}

// PostPage is the data for a single rendered post.
type PostPage struct {
	Site    SiteInfo
	Post    models.PostSummary
	Content template.HTML
}

// IndexEntry is one post on the index page.
type IndexEntry struct {
	Post    models.PostSummary
	Content template.HTML
}

// IndexPage is the data for index.html.
type IndexPage struct {
	Site  SiteInfo
	Posts []IndexEntry
}

const layoutTmpl = `{{define "begin"}}<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8" />
    <title>{{.}}</title>
    <link href="/static/style.css" rel="stylesheet" type="text/css" />
    <link rel="icon" type="image/png" href="/static/img/favicon.png" />
</head>
<body>
<div id="page_content">
{{end}}
{{define "site_header"}}<header>
    <h1 id="blog_title"><a href="/">{{.Title}}</a></h1>
    {{with .Subtitle}}<h2 id="blog_subtitle">{{.}}</h2>{{end}}
    <img id="blog_img" src="/static/img/header.jpg" alt="" />
</header>
{{end}}
{{define "post_header"}}<div class="post_header">
    {{if .Link}}<h1 class="post_title"><a href="{{.Link}}">{{.Post.Title}}</a></h1>
    {{else}}<h1 class="post_title">{{.Post.Title}}</h1>
    {{end}}{{with .Post.Subtitle}}<h2 class="post_subtitle">{{.}}</h2>
    {{end}}<p class="post_author">{{.Post.Author}}</p>
    {{if not .Post.Date.IsZero}}<p class="post_date"><time datetime="{{.Post.Date | isodate}}">{{.Post.Date | humandate}}</time></p>{{end}}
</div>
{{end}}
{{define "end"}}<footer>
</footer>
</div>
</body>
</html>
{{end}}`

const postTmpl = `{{template "begin" .Post.Title}}{{template "site_header" .Site}}<article>
{{template "post_header" (header .Post "")}}<div class="post_body">
{{.Content}}
</div>
</article>
{{template "end"}}`

const indexTmpl = `{{template "begin" .Site.Title}}{{template "site_header" .Site}}{{range .Posts}}<article>
{{template "post_header" (header .Post (permalink .Post.Output))}}<div class="post_body">
{{.Content}}
</div>
</article>
{{else}}<article><p>No posts yet.</p></article>
{{end}}{{template "end"}}`

type postHeader struct {
	Post models.PostSummary
	Link string
}

var funcs = template.FuncMap{
	"header":    func(p models.PostSummary, link string) postHeader { return postHeader{Post: p, Link: link} },
	"permalink": func(output string) string { return "/" + output },
	"isodate":   func(t time.Time) string { return t.Format("2006-01-02") },
	"humandate": func(t time.Time) string { return t.Format("January 2, 2006") },
}

// Site assembles full HTML documents.
type Site struct {
	post  *template.Template
	index *template.Template
}

// NewSite parses the built-in page templates.
func NewSite() (*Site, error) {
	base, err := template.New("layout").Funcs(funcs).Parse(layoutTmpl)
	if err != nil {
		return nil, fmt.Errorf("render: parse layout: %w", err)
	}
	post, err := template.Must(base.Clone()).New("post").Parse(postTmpl)
	if err != nil {
		return nil, fmt.Errorf("render: parse post template: %w", err)
	}
	index, err := template.Must(base.Clone()).New("index").Parse(indexTmpl)
	if err != nil {
		return nil, fmt.Errorf("render: parse index template: %w", err)
	}
	return &Site{post: post, index: index}, nil
}

// Post renders a single post page.
func (s *Site) Post(p PostPage) ([]byte, error) {
	var buf bytes.Buffer
	if err := s.post.ExecuteTemplate(&buf, "post", p); err != nil {
		return nil, fmt.Errorf("render: post page: %w", err)
	}
	return buf.Bytes(), nil
}

// Index renders the index page.
func (s *Site) Index(p IndexPage) ([]byte, error) {
	var buf bytes.Buffer
	if err := s.index.ExecuteTemplate(&buf, "index", p); err != nil {
		return nil, fmt.Errorf("render: index page: %w", err)
	}
	return buf.Bytes(), nil
}

// CSS returns the default stylesheet served as /static/style.css.
func CSS() []byte {
	return []byte(stylesheet)
}

const stylesheet = `body {
    font-family: Georgia, "Times New Roman", Times, serif;
    margin: 0;
    padding: 0;
    background-color: #f3f3f3;
}
header, footer, article {
    background-color: #fff;
    border: 1px solid #ccc;
}
header {
    display: grid;
    grid-template-columns: auto 150px;
    grid-template-rows: 1fr auto auto 6fr;
    grid-template-areas:
        ".        img"
        "title    img"
        "subtitle img"
        ".        img";
    justify-items: center;
}
article {
    padding: 20px 40px;
}
#page_content {
    padding: 5px;
    background-color: #ddd;
    max-width: 900px;
    margin: 24px auto;
}
a {
    text-decoration: none;
    color: #336699;
}
a:hover {
    color: #5588bb;
}
#blog_title {
    grid-area: title;
}
#blog_subtitle {
    grid-area: subtitle;
    font-size: medium;
    font-weight: normal;
}
#blog_img {
    grid-area: img;
    align-self: center;
}
img {
    max-width: 100%;
}
`
