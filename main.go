// gscnav resolves function references in GSC/CSC game scripts: go to
// definition and hover from the command line or as a language server.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/phobologic/gscnav/internal/catalog"
	"github.com/phobologic/gscnav/internal/config"
	"github.com/phobologic/gscnav/internal/discover"
	"github.com/phobologic/gscnav/internal/resolve"
	"github.com/phobologic/gscnav/internal/source"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	cmd := newRootCmd(stdin, stdout, stderr)
	cmd.SetArgs(args)
	return cmd.ExecuteContext(ctx)
}

// globalOptions holds the persistent flags shared by every subcommand.
type globalOptions struct {
	root       string
	configPath string
	color      string
	format     string
	verbose    bool
}

func newRootCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	opts := &globalOptions{}
	root := &cobra.Command{
		Use:   "gscnav",
		Short: "Go to definition and hover for GSC/CSC game scripts",
		Long: `gscnav resolves the function under a cursor position to its definitions in
the current script, the scripts it #includes, or an explicitly named module.

Run "gscnav lsp" to serve the same lookups to an editor over stdio.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetVersionTemplate("gscnav {{.Version}}\n")

	flags := root.PersistentFlags()
	flags.StringVar(&opts.root, "root", ".", "workspace directory")
	flags.StringVar(&opts.configPath, "config", "", "config file (default: nearest "+config.FileName+")")
	flags.StringVar(&opts.color, "color", "auto", "colorize output (auto|on|off)")
	flags.StringVar(&opts.format, "format", "", "output format (text|json|toon)")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "log debug output to stderr")

	root.AddCommand(
		newDefCmd(opts),
		newHoverCmd(opts),
		newIncludesCmd(opts),
		newDepsCmd(opts),
		newLSPCmd(opts),
		newInitCmd(),
	)
	return root
}

// env is the per-invocation state every command works with.
type env struct {
	cfg      *config.Config
	root     string
	logger   *slog.Logger
	ws       *discover.Workspace
	reader   *source.FileReader
	resolver *resolve.Resolver
	catalog  *catalog.Catalog
	out      *printer
}

// setup validates the global flags, loads configuration, and wires the
// workspace, reader, and resolver. defaultFormat applies when --format is unset.
func (o *globalOptions) setup(cmd *cobra.Command, defaultFormat string) (*env, error) {
	root, err := filepath.Abs(o.root)
	if err != nil {
		return nil, fmt.Errorf("resolving root: %w", err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("root path: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s: not a directory", root)
	}

	format := o.format
	if format == "" {
		format = defaultFormat
	}
	switch format {
	case formatText, formatJSON, formatTOON:
	default:
		return nil, fmt.Errorf("unsupported format %q (want text, json, or toon)", format)
	}

	var useColor bool
	switch o.color {
	case "on":
		useColor = true
	case "off":
	case "auto":
		useColor = isTerminal(cmd.OutOrStdout())
	default:
		return nil, fmt.Errorf("unsupported color mode %q (want auto, on, or off)", o.color)
	}

	cfg, err := config.Load(root, o.configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	level, err := cfg.LogLevel()
	if err != nil {
		return nil, err
	}
	if o.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	logger.Debug("loaded config", "path", cfg.Path, "roots", cfg.Workspace.Roots)

	cat, err := catalog.Default()
	if err != nil {
		return nil, fmt.Errorf("loading built-in catalog: %w", err)
	}
	logger.Debug("loaded built-in catalog", "functions", cat.Len())

	ws := newWorkspace(cfg)
	reader := source.NewReader(nil, cfg.Workspace.MaxFileSize)
	return &env{
		cfg:    cfg,
		root:   root,
		logger: logger,
		ws:     ws,
		reader: reader,
		resolver: resolve.New(resolve.Options{
			Reader:    reader,
			Locator:   ws,
			Extension: cfg.Workspace.Extension,
			Workers:   cfg.Resolve.Workers,
			Logger:    logger,
		}),
		catalog: cat,
		out:     newPrinter(cmd.OutOrStdout(), format, useColor, root),
	}, nil
}

func newWorkspace(cfg *config.Config) *discover.Workspace {
	return discover.New(discover.Options{
		Roots:            cfg.Workspace.Roots,
		Exclude:          cfg.Workspace.Exclude,
		MaxFileSize:      cfg.Workspace.MaxFileSize,
		RespectGitignore: cfg.Workspace.RespectGitignore,
	})
}

// isTerminal reports whether w is a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
