package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/tagsense/internal"
	"github.com/starford/tagsense/internal/analysis"
	"github.com/starford/tagsense/internal/storage"
	pkgconfig "github.com/starford/tagsense/pkg/config"
)

var version = "dev"

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadOptional(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if p := cmd.String("schema"); p != "" {
		cfg.Schema.Path = p
	}
	return cfg, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, internal.WithConfig(cfg), internal.WithVersion(version)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func runLSP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.RunLSP(ctx, os.Stdin, os.Stdout, internal.WithConfig(cfg), internal.WithVersion(version))
}

func runMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if w := cmd.String("workspace"); w != "" {
		cfg.Workspace.Path = w
	}
	return internal.RunMCP(ctx, internal.WithConfig(cfg), internal.WithVersion(version))
}

// offlineService builds an analysis service for the one-shot commands,
// logging to stderr so stdout stays machine-readable.
func offlineService(cmd *cli.Command) (*analysis.Service, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	reg, err := internal.LoadSchemas(cfg.Schema.Path, logger)
	if err != nil {
		return nil, err
	}
	return analysis.NewService(reg), nil
}

// readInput reads a document from path, or stdin when path is "-".
func readInput(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("missing document argument (a file path or - for stdin)")
	}
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		return string(data), err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func scan(ctx context.Context, cmd *cli.Command) error {
	svc, err := offlineService(cmd)
	if err != nil {
		return err
	}
	paths := cmd.Args().Slice()
	if len(paths) == 0 {
		paths = []string{"."}
	}

	var files []scannedFile
	for _, p := range paths {
		docs, err := collect(p)
		if err != nil {
			return err
		}
		for _, d := range docs {
			files = append(files, scannedFile{
				Path:     d.path,
				Result:   svc.Scan(ctx, d.text),
				Problems: svc.Check(ctx, d.text),
			})
		}
	}

	if cmd.Bool("json") {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(files); err != nil {
			return err
		}
	} else {
		newReporter(os.Stdout, cmd.Bool("no-color")).scan(files)
	}

	if n := countErrors(files); n > 0 {
		return cli.Exit(fmt.Sprintf("%d tag bodies failed to parse", n), 1)
	}
	return nil
}

type document struct {
	path string
	text string
}

// collect returns the YAML documents under p, or p itself when it is a file.
func collect(p string) ([]document, error) {
	if p == "-" {
		text, err := readInput(p)
		return []document{{path: "<stdin>", text: text}}, err
	}
	info, err := os.Stat(p)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		text, err := readInput(p)
		if err != nil {
			return nil, err
		}
		return []document{{path: p, text: text}}, nil
	}

	store, err := storage.NewFS(p)
	if err != nil {
		return nil, err
	}
	metas, err := store.List("")
	if err != nil {
		return nil, err
	}
	docs := make([]document, 0, len(metas))
	for _, m := range metas {
		data, err := store.Read(m.Path)
		if err != nil {
			return nil, err
		}
		docs = append(docs, document{path: filepath.Join(p, filepath.FromSlash(m.Path)), text: string(data)})
	}
	return docs, nil
}

func resolve(ctx context.Context, cmd *cli.Command) error {
	svc, err := offlineService(cmd)
	if err != nil {
		return err
	}
	text, err := readInput(cmd.Args().First())
	if err != nil {
		return err
	}
	pc, err := svc.Resolve(ctx, text, int(cmd.Int("line")), int(cmd.Int("column")))
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return json.NewEncoder(os.Stdout).Encode(pc)
	}
	newReporter(os.Stdout, cmd.Bool("no-color")).context(pc)
	return nil
}

func complete(ctx context.Context, cmd *cli.Command) error {
	svc, err := offlineService(cmd)
	if err != nil {
		return err
	}
	text, err := readInput(cmd.Args().First())
	if err != nil {
		return err
	}
	c, err := svc.Complete(ctx, text, int(cmd.Int("line")), int(cmd.Int("column")))
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return json.NewEncoder(os.Stdout).Encode(c)
	}
	newReporter(os.Stdout, cmd.Bool("no-color")).completion(c)
	return nil
}

func outputFlags(extra ...cli.Flag) []cli.Flag {
	return append(extra,
		&cli.BoolFlag{Name: "json", Usage: "Print JSON instead of text"},
		&cli.BoolFlag{Name: "no-color", Usage: "Disable colored output"},
	)
}

func positionFlags() []cli.Flag {
	return outputFlags(
		&cli.IntFlag{Name: "line", Aliases: []string{"l"}, Usage: "1-based cursor line", Required: true},
		&cli.IntFlag{Name: "column", Aliases: []string{"col"}, Usage: "1-based cursor column", Required: true},
	)
}

func main() {
	cmd := &cli.Command{
		Name:    "tagsense",
		Usage:   "Editor intelligence for custom !Tag markers in YAML documents",
		Version: version,
		Action:  serve,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
			&cli.StringFlag{
				Name:    "schema",
				Aliases: []string{"s"},
				Usage:   "Path to the tag schema file (overrides config)",
				Sources: cli.EnvVars("TAGSENSE_SCHEMA_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API",
				Action: serve,
			},
			{
				Name:   "lsp",
				Usage:  "Run the language server on stdin/stdout",
				Action: runLSP,
			},
			{
				Name:   "mcp",
				Usage:  "Run the MCP server on stdin/stdout",
				Action: runMCP,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "workspace", Aliases: []string{"w"}, Usage: "Directory of YAML documents exposed to MCP clients"},
				},
			},
			{
				Name:      "scan",
				Usage:     "List tag occurrences and problems in YAML files or directories",
				ArgsUsage: "[path...]",
				Action:    scan,
				Flags:     outputFlags(),
			},
			{
				Name:      "resolve",
				Usage:     "Print the tag and key enclosing a cursor",
				ArgsUsage: "<file|->",
				Action:    resolve,
				Flags:     positionFlags(),
			},
			{
				Name:      "complete",
				Usage:     "Print completion suggestions at a cursor",
				ArgsUsage: "<file|->",
				Action:    complete,
				Flags:     positionFlags(),
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
