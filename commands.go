package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/phobologic/gscnav/internal/config"
	"github.com/phobologic/gscnav/internal/discover"
	"github.com/phobologic/gscnav/internal/graph"
	"github.com/phobologic/gscnav/internal/include"
	"github.com/phobologic/gscnav/internal/lang"
	"github.com/phobologic/gscnav/internal/lsp"
	"github.com/phobologic/gscnav/internal/model"
	"github.com/phobologic/gscnav/internal/resolve"
	"github.com/phobologic/gscnav/internal/source"
)

func newDefCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "def FILE LINE:COL",
		Short: "List the definitions of the function at a position",
		Long: `List every definition of the function referenced at LINE:COL in FILE.
LINE and COL are 1-based; COL counts bytes.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.setup(cmd, formatText)
			if err != nil {
				return err
			}
			res, err := e.lookup(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return e.out.definitions(res)
		},
	}
}

func newHoverCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "hover FILE LINE:COL",
		Short: "Describe the function at a position",
		Long: `Describe the function referenced at LINE:COL in FILE when it has exactly one
definition in scope. Calls with no script definition fall back to the
built-in function catalog.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.setup(cmd, formatText)
			if err != nil {
				return err
			}
			res, err := e.lookup(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			if meta := resolve.MetadataFor(res); meta != nil {
				return e.out.metadata(meta)
			}
			if resolve.Builtin(res) {
				if entry, ok := e.catalog.Lookup(res.Token.Name); ok {
					return e.out.builtin(entry)
				}
			}
			return e.out.noMetadata(res)
		},
	}
}

func newIncludesCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "includes FILE",
		Short: "List the #include directives of a script and the files they resolve to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.setup(cmd, formatText)
			if err != nil {
				return err
			}
			doc, err := e.read(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			includes, err := e.includes(cmd.Context(), doc)
			if err != nil {
				return err
			}
			return e.out.includes(doc.Path, includes)
		},
	}
}

func newDepsCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "deps [DIR]",
		Short: "Print the include graph of the workspace",
		Long: `Print which scripts include which, across every script in the workspace.
DIR overrides --root.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				opts.root = args[0]
			}
			e, err := opts.setup(cmd, formatTOON)
			if err != nil {
				return err
			}
			files, err := e.ws.Files(cmd.Context(), nil)
			if err != nil {
				return fmt.Errorf("discovering files: %w", err)
			}
			if len(files) == 0 {
				return fmt.Errorf("no script files found (languages: %s)", strings.Join(lang.Names(), ", "))
			}
			g, err := graph.Build(cmd.Context(), files, e.reader, graph.Options{
				Root:      e.root,
				Extension: e.cfg.Workspace.Extension,
				Workers:   e.cfg.Resolve.Workers,
				Logger:    e.logger,
			})
			if err != nil {
				return err
			}
			return e.out.graph(g)
		},
	}
}

func newLSPCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "lsp",
		Short: "Run the language server over stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := opts.setup(cmd, formatText)
			if err != nil {
				return err
			}
			server := lsp.NewServer(cmd.InOrStdin(), cmd.OutOrStdout(), lsp.Options{
				Workspace:   opts.workspaceFor(e),
				Extension:   e.cfg.Workspace.Extension,
				Workers:     e.cfg.Resolve.Workers,
				MaxFileSize: e.cfg.Workspace.MaxFileSize,
				Catalog:     e.catalog,
				Version:     version,
				Logger:      e.logger,
			})
			if err := server.Run(cmd.Context()); err != nil {
				if errors.Is(err, lsp.ErrExit) {
					return nil
				}
				if errors.Is(err, lsp.ErrExitWithoutShutdown) {
					return errors.New("lsp exit without shutdown")
				}
				return err
			}
			return nil
		},
	}
}

// workspaceFor returns the locator factory for the language server. The
// client's root gets its own configuration unless --config pins one.
func (o *globalOptions) workspaceFor(e *env) lsp.WorkspaceFunc {
	return func(root string) resolve.Locator {
		if o.configPath != "" {
			return e.ws
		}
		cfg, err := config.Load(root, "")
		if err != nil {
			e.logger.Warn("loading workspace config failed, using defaults", "root", root, "err", err)
			cfg = config.Default(root)
		}
		return newWorkspace(cfg)
	}
}

func (e *env) read(ctx context.Context, file string) (model.SourceFile, error) {
	path, err := filepath.Abs(file)
	if err != nil {
		return model.SourceFile{}, fmt.Errorf("resolving %s: %w", file, err)
	}
	text, err := e.reader.Read(ctx, path)
	if err != nil {
		return model.SourceFile{}, fmt.Errorf("reading %s: %w", file, err)
	}
	return model.SourceFile{Path: path, Text: text}, nil
}

func (e *env) lookup(ctx context.Context, file, at string) (resolve.Result, error) {
	pos, err := parseLocation(at)
	if err != nil {
		return resolve.Result{}, err
	}
	doc, err := e.read(ctx, file)
	if err != nil {
		return resolve.Result{}, err
	}
	offset := source.OffsetAt(doc.Text, pos)
	e.logger.Debug("resolving", "path", doc.Path, "line", pos.Line, "column", pos.Column, "offset", offset)
	return e.resolver.Lookup(ctx, doc, offset)
}

// includes resolves each distinct module path doc includes, in directive order.
func (e *env) includes(ctx context.Context, doc model.SourceFile) ([]model.Include, error) {
	ext := lang.ModuleExtension(doc.Path, e.cfg.Workspace.Extension)
	seen := make(map[string]struct{})
	var out []model.Include
	for _, mod := range include.Extract(doc.Text) {
		if _, dup := seen[mod]; dup {
			continue
		}
		seen[mod] = struct{}{}
		files, err := e.ws.FindFiles(ctx, discover.ModuleFile(mod, ext))
		if err != nil {
			return nil, fmt.Errorf("locating %s: %w", mod, err)
		}
		out = append(out, model.Include{Module: mod, Files: files})
	}
	return out, nil
}

// parseLocation parses a 1-based "LINE:COL" into a 0-based position.
func parseLocation(s string) (model.Position, error) {
	lineStr, colStr, ok := strings.Cut(s, ":")
	if !ok {
		return model.Position{}, fmt.Errorf("invalid position %q: want LINE:COL", s)
	}
	line, err := strconv.Atoi(lineStr)
	if err != nil || line < 1 {
		return model.Position{}, fmt.Errorf("invalid line %q", lineStr)
	}
	col, err := strconv.Atoi(colStr)
	if err != nil || col < 1 {
		return model.Position{}, fmt.Errorf("invalid column %q", colStr)
	}
	return model.Position{Line: line - 1, Column: col - 1}, nil
}
