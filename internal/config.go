package internal

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/quire/internal/post"
	"github.com/starford/quire/internal/render"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App      ApplicationConfig `yaml:"app"`
	Site     SiteConfig        `yaml:"site"`
	Posts    PostsConfig       `yaml:"posts"`
	Output   OutputConfig      `yaml:"output"`
	Headers  HeadersConfig     `yaml:"headers"`
	Renderer RendererConfig    `yaml:"renderer"`
	Build    BuildConfig       `yaml:"build"`
	SQLite   SQLiteConfig      `yaml:"sqlite"`
	Auth     AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	for _, v := range []validation.Validatable{
		&c.App, &c.Site, &c.Posts, &c.Output, &c.Headers, &c.Renderer, &c.Build, &c.SQLite, &c.Auth,
	} {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	if c.Posts.Dir == c.Output.Dir {
		return fmt.Errorf("posts.dir and output.dir must differ")
	}
	return nil
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// SiteConfig holds the blog-wide text shown on every page.
type SiteConfig struct {
	Title    string `yaml:"title"`
	Subtitle string `yaml:"subtitle"`
	Author   string `yaml:"author"`
	BaseURL  string `yaml:"base_url"`
}

// Validate validates the site configuration.
func (c *SiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Title, validation.Required),
	)
}

// Info converts the config into template data.
func (c *SiteConfig) Info() render.SiteInfo {
	return render.SiteInfo{Title: c.Title, Subtitle: c.Subtitle, BaseURL: c.BaseURL}
}

// PostsConfig locates the post sources.
type PostsConfig struct {
	Dir       string `yaml:"dir"`
	Extension string `yaml:"extension"`
}

// Validate validates the posts configuration.
func (c *PostsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Dir, validation.Required),
		validation.Field(&c.Extension, validation.Required,
			validation.By(func(any) error {
				if !strings.HasPrefix(c.Extension, ".") || len(c.Extension) < 2 {
					return fmt.Errorf("must start with a dot")
				}
				return nil
			})),
	)
}

// OutputConfig locates the generated site.
type OutputConfig struct {
	Dir   string `yaml:"dir"`
	Clean bool   `yaml:"clean"`
}

// Validate validates the output configuration.
func (c *OutputConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Dir, validation.Required),
	)
}

// HeadersConfig is the required-header policy.
type HeadersConfig struct {
	Required []string `yaml:"required"`
	Strict   bool     `yaml:"strict"`
}

// Validate validates the headers configuration.
func (c *HeadersConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Required, validation.Each(validation.Required)),
	)
}

// Policy converts the config into a post.Policy.
func (c *HeadersConfig) Policy() post.Policy {
	return post.Policy{Required: c.Required, Strict: c.Strict}.Normalize()
}

// RendererConfig selects the body renderer. An empty command uses the
// built-in Markdown renderer.
type RendererConfig struct {
	Command []string      `yaml:"command"`
	Timeout time.Duration `yaml:"timeout"`
}

// Validate validates the renderer configuration.
func (c *RendererConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Timeout, validation.Min(time.Duration(0))),
	)
}

// New builds the configured renderer.
func (c *RendererConfig) New() render.Renderer {
	return render.New(c.Command, c.Timeout)
}

// BuildConfig tunes the build pipeline.
type BuildConfig struct {
	Workers int `yaml:"workers"`
}

// Validate validates the build configuration.
func (c *BuildConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Workers, validation.Min(0), validation.Max(256)),
	)
}

// SQLiteConfig holds SQLite database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// AuthConfig holds authentication configuration for the HTTP API.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Site: SiteConfig{
			Title: "My Blog",
		},
		Posts: PostsConfig{
			Dir:       "./posts",
			Extension: ".md",
		},
		Output: OutputConfig{
			Dir:   "./public",
			Clean: true,
		},
		Headers: HeadersConfig{
			Required: post.DefaultPolicy().Required,
			Strict:   true,
		},
		Renderer: RendererConfig{
			Timeout: 10 * time.Second,
		},
		Build: BuildConfig{
			Workers: 4,
		},
		SQLite: SQLiteConfig{
			Path: "./quire.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
