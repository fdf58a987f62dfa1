package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/quire/internal"
	"github.com/starford/quire/internal/build"
	pkgconfig "github.com/starford/quire/pkg/config"
)

var version = "dev"

// errInvalidPosts makes check exit non-zero once the report is printed.
var errInvalidPosts = errors.New("invalid posts found")

// loadOptions reads the config file over the defaults. One-shot commands
// pass WithLogOutput(os.Stderr) so stdout carries only their output.
func loadOptions(cmd *cli.Command, extra ...internal.Option) ([]internal.Option, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	if _, err := pkgconfig.LoadOptional(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	opts := []internal.Option{
		internal.WithConfig(cfg),
		internal.WithVersion(version),
	}
	return append(opts, extra...), nil
}

func printReport(w io.Writer, rep *build.Report) {
	for _, f := range rep.Failures {
		fmt.Fprintf(w, "FAIL %s [%s]: %v\n", f.Path, f.Kind, f.Err)
	}
	for _, p := range rep.Pruned {
		fmt.Fprintf(w, "pruned %s\n", p)
	}
	fmt.Fprintf(w, "%d posts, %d written, %d unchanged, %d failed in %s\n",
		len(rep.Posts), len(rep.Written), len(rep.Skipped), len(rep.Failures), rep.Duration.Round(time.Millisecond))

	kinds := rep.FailuresByKind()
	names := make([]string, 0, len(kinds))
	for k := range kinds {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		fmt.Fprintf(w, "  %s: %d\n", k, kinds[k])
	}
}

func runBuild(ctx context.Context, cmd *cli.Command) error {
	opts, err := loadOptions(cmd, internal.WithLogOutput(os.Stderr))
	if err != nil {
		return err
	}
	rep, err := internal.Build(ctx, opts...)
	if err != nil {
		return fmt.Errorf("build error: %w", err)
	}
	printReport(os.Stdout, rep)
	return nil
}

func runCheck(ctx context.Context, cmd *cli.Command) error {
	opts, err := loadOptions(cmd, internal.WithLogOutput(os.Stderr))
	if err != nil {
		return err
	}
	rep, err := internal.Check(ctx, opts...)
	if err != nil {
		return fmt.Errorf("check error: %w", err)
	}
	printReport(os.Stdout, rep)
	if !rep.OK() {
		return errInvalidPosts
	}
	return nil
}

func runNew(ctx context.Context, cmd *cli.Command) error {
	title := cmd.Args().First()
	if title == "" {
		return fmt.Errorf("usage: quire new <title>")
	}
	opts, err := loadOptions(cmd, internal.WithLogOutput(os.Stderr))
	if err != nil {
		return err
	}
	name, err := internal.NewPost(ctx, title, cmd.String("author"), opts...)
	if err != nil {
		return err
	}
	fmt.Println(name)
	return nil
}

func runRename(ctx context.Context, cmd *cli.Command) error {
	opts, err := loadOptions(cmd, internal.WithLogOutput(os.Stderr))
	if err != nil {
		return err
	}
	dryRun := cmd.Bool("dry-run")
	moves, rep, err := internal.Rename(ctx, dryRun, opts...)
	if err != nil {
		return fmt.Errorf("rename error: %w", err)
	}
	verb := "renamed"
	if dryRun {
		verb = "would rename"
	}
	for _, mv := range moves {
		fmt.Printf("%s %s -> %s\n", verb, mv.From, mv.To)
	}
	for _, f := range rep.Failures {
		fmt.Printf("FAIL %s [%s]: %v\n", f.Path, f.Kind, f.Err)
	}
	return nil
}

func runServe(ctx context.Context, cmd *cli.Command) error {
	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func runSearch(ctx context.Context, cmd *cli.Command) error {
	query := cmd.Args().First()
	if query == "" {
		return fmt.Errorf("usage: quire search <query>")
	}
	opts, err := loadOptions(cmd, internal.WithLogOutput(os.Stderr))
	if err != nil {
		return err
	}
	results, err := internal.Search(ctx, query, int(cmd.Int("limit")), opts...)
	if err != nil {
		return err
	}
	for _, r := range results {
		fmt.Printf("%s\t%s\t%s\n", r.Path, r.Title, r.Snippet)
	}
	return nil
}

func runMCP(ctx context.Context, cmd *cli.Command) error {
	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}
	return internal.ServeMCP(ctx, opts...)
}

func main() {
	cmd := &cli.Command{
		Name:    "quire",
		Usage:   "Static blog generator for header-and-body post files",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "quire.yaml",
				Value:       "quire.yaml",
				Sources:     cli.EnvVars("QUIRE_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "build",
				Usage:  "Render every valid post and the index page",
				Action: runBuild,
			},
			{
				Name:   "check",
				Usage:  "Parse and validate every post without rendering",
				Action: runCheck,
			},
			{
				Name:      "new",
				Usage:     "Scaffold a post with the required headers",
				ArgsUsage: "<title>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "author", Aliases: []string{"a"}, Usage: "Post author (defaults to site.author)"},
				},
				Action: runNew,
			},
			{
				Name:  "rename",
				Usage: "Move post sources to their suggested file names",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "dry-run", Usage: "Only print the planned moves"},
				},
				Action: runRename,
			},
			{
				Name:   "serve",
				Usage:  "Serve the site and API, rebuilding on change",
				Action: runServe,
			},
			{
				Name:      "search",
				Usage:     "Search posts of the last build",
				ArgsUsage: "<query>",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Value: 20, Usage: "Maximum results"},
				},
				Action: runSearch,
			},
			{
				Name:   "mcp",
				Usage:  "Run the MCP server on stdio",
				Action: runMCP,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
