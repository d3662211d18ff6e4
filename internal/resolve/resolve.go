// Package resolve answers "where is the function under the cursor defined?"
// across the current file, its includes, or an explicit module path.
package resolve

import (
	"context"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/phobologic/gscnav/internal/cursor"
	"github.com/phobologic/gscnav/internal/discover"
	"github.com/phobologic/gscnav/internal/include"
	"github.com/phobologic/gscnav/internal/lang"
	"github.com/phobologic/gscnav/internal/model"
	"github.com/phobologic/gscnav/internal/scan"
	"github.com/phobologic/gscnav/internal/source"
)

// Locator enumerates the workspace files whose path matches a relative
// module file name such as "maps/mp/_utility.gsc".
type Locator interface {
	FindFiles(ctx context.Context, pattern string) ([]string, error)
}

// Options configures a Resolver.
type Options struct {
	Reader  source.Reader
	Locator Locator
	// Extension is appended to module paths when the requesting document is
	// not itself a script file. Defaults to ".gsc".
	Extension string
	// Workers bounds concurrent file scans. Defaults to GOMAXPROCS.
	Workers int
	Logger  *slog.Logger
}

// Resolver resolves cursor positions to definition sites. It keeps no state
// between requests and is safe for concurrent use.
type Resolver struct {
	reader  source.Reader
	locator Locator
	ext     string
	workers int
	logger  *slog.Logger
}

// Result is the outcome of one resolution request.
type Result struct {
	Token model.CursorToken
	// Found is false when the cursor is not on a function reference.
	Found bool
	Sites []model.DefinitionSite
}

// New creates a Resolver.
func New(opts Options) *Resolver {
	ext := opts.Extension
	if ext == "" {
		ext = ".gsc"
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Resolver{
		reader:  opts.Reader,
		locator: opts.Locator,
		ext:     ext,
		workers: workers,
		logger:  logger,
	}
}

// Lookup classifies the token at offset in doc and scans its scope. The only
// error it returns is the context's.
func (r *Resolver) Lookup(ctx context.Context, doc model.SourceFile, offset int) (Result, error) {
	tok, ok := cursor.Classify(doc.Text, offset)
	if !ok {
		return Result{}, nil
	}
	files, err := r.Scope(ctx, doc, tok)
	if err != nil {
		return Result{}, err
	}
	sites, err := r.scanAll(ctx, doc, files, tok.Name)
	if err != nil {
		return Result{}, err
	}
	return Result{Token: tok, Found: true, Sites: sites}, nil
}

// Definitions returns every definition site of the function under the cursor.
func (r *Resolver) Definitions(ctx context.Context, doc model.SourceFile, offset int) ([]model.DefinitionSite, error) {
	res, err := r.Lookup(ctx, doc, offset)
	if err != nil {
		return nil, err
	}
	return res.Sites, nil
}

// Metadata describes the function under the cursor when exactly one
// definition is in scope. Zero or several definitions yield nil.
func (r *Resolver) Metadata(ctx context.Context, doc model.SourceFile, offset int) (*model.Metadata, error) {
	res, err := r.Lookup(ctx, doc, offset)
	if err != nil {
		return nil, err
	}
	return MetadataFor(res), nil
}

// MetadataFor extracts metadata from an unambiguous result.
func MetadataFor(res Result) *model.Metadata {
	if len(res.Sites) != 1 {
		return nil
	}
	site := res.Sites[0]
	return &model.Metadata{
		Name:   res.Token.Name,
		Params: site.Params,
		File:   site.File,
	}
}

// Builtin reports whether res is an unqualified call with no script
// definition in scope, which makes it a candidate engine built-in.
func Builtin(res Result) bool {
	return res.Found && len(res.Sites) == 0 && !res.Token.Namespaced() && res.Token.Shape == model.Call
}

// Scope returns the candidate files for tok: the files matching its module
// path if it has one, otherwise doc itself followed by the files of every
// include. Duplicates are dropped, keeping the first occurrence.
func (r *Resolver) Scope(ctx context.Context, doc model.SourceFile, tok model.CursorToken) ([]string, error) {
	ext := lang.ModuleExtension(doc.Path, r.ext)

	var files []string
	if tok.NamespacePath != "" {
		found, err := r.find(ctx, tok.NamespacePath, ext)
		if err != nil {
			return nil, err
		}
		files = append(files, found...)
	} else {
		files = append(files, doc.Path)
		for _, mod := range include.Extract(doc.Text) {
			found, err := r.find(ctx, mod, ext)
			if err != nil {
				return nil, err
			}
			files = append(files, found...)
		}
	}
	return dedupe(doc.Path, files), nil
}

func (r *Resolver) find(ctx context.Context, modulePath, ext string) ([]string, error) {
	if r.locator == nil {
		return nil, nil
	}
	pattern := discover.ModuleFile(modulePath, ext)
	found, err := r.locator.FindFiles(ctx, pattern)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		r.logger.Debug("locating module failed", "module", modulePath, "err", err)
		return nil, nil
	}
	return found, nil
}

func (r *Resolver) scanAll(ctx context.Context, doc model.SourceFile, files []string, name string) ([]model.DefinitionSite, error) {
	if len(files) == 0 {
		return nil, nil
	}
	found := make([]*model.DefinitionSite, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(r.workers, len(files)))

	for i, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			text, err := r.text(gctx, doc, path)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				r.logger.Debug("skipping candidate", "path", path, "err", err)
				return nil
			}
			if site, ok := scan.FindDefinition(text, name); ok {
				site.File = path
				found[i] = &site
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var sites []model.DefinitionSite
	for _, site := range found {
		if site != nil {
			sites = append(sites, *site)
		}
	}
	return sites, nil
}

// text returns doc's own snapshot for doc's path and reads anything else.
func (r *Resolver) text(ctx context.Context, doc model.SourceFile, path string) (string, error) {
	if sameFile(doc.Path, path) {
		return doc.Text, nil
	}
	if r.reader == nil {
		return "", source.ErrNotFound
	}
	return r.reader.Read(ctx, path)
}

func dedupe(current string, files []string) []string {
	seen := make(map[string]struct{}, len(files))
	out := make([]string, 0, len(files))
	for _, f := range files {
		key := fileKey(current, f)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, f)
	}
	return out
}

func sameFile(a, b string) bool {
	if a == "" || b == "" {
		return a == b
	}
	return source.Key(a) == source.Key(b)
}

func fileKey(current, path string) string {
	if path == "" || sameFile(current, path) {
		return "\x00current"
	}
	return source.Key(path)
}
