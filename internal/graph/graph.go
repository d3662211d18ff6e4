// Package graph builds the include graph of a workspace.
package graph

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/phobologic/gscnav/internal/discover"
	"github.com/phobologic/gscnav/internal/include"
	"github.com/phobologic/gscnav/internal/lang"
	"github.com/phobologic/gscnav/internal/model"
	"github.com/phobologic/gscnav/internal/source"
)

// Options configures Build.
type Options struct {
	// Root is the directory graph paths are reported relative to.
	Root string
	// Extension applies to files that are not themselves scripts. Defaults to ".gsc".
	Extension string
	Workers   int
	Logger    *slog.Logger
}

// Build reads every file, extracts its include directives, and links each
// module path to the files it names. Files that cannot be read contribute no
// edges. Edges are deduplicated and sorted by source then target.
func Build(ctx context.Context, files []discover.FileEntry, reader source.Reader, opts Options) (*model.IncludeGraph, error) {
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

	modules := make([][]string, len(files))
	if len(files) > 0 {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(min(workers, len(files)))
		for i := range files {
			g.Go(func() error {
				text, err := reader.Read(gctx, files[i].Abs())
				if err != nil {
					if ctxErr := gctx.Err(); ctxErr != nil {
						return ctxErr
					}
					logger.Debug("skipping unreadable file", "path", files[i].Abs(), "err", err)
					return nil
				}
				modules[i] = include.Extract(text)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, fmt.Errorf("scanning includes: %w", err)
		}
	}

	type edgeKey struct{ src, tgt string }
	edgeModules := make(map[edgeKey][]string)
	unresolved := make(map[string][]string)
	paths := make([]string, len(files))
	for i := range files {
		paths[i] = source.Relative(opts.Root, files[i].Abs())
	}

	for i := range files {
		src := paths[i]
		modExt := lang.ModuleExtension(files[i].Path, ext)
		for _, mod := range modules[i] {
			pattern := discover.ModuleFile(mod, modExt)
			matched := false
			for j := range files {
				if !discover.Match(filepath.ToSlash(files[j].Path), pattern) {
					continue
				}
				matched = true
				if j == i {
					continue // no self-edges
				}
				key := edgeKey{src, paths[j]}
				if !contains(edgeModules[key], mod) {
					edgeModules[key] = append(edgeModules[key], mod)
				}
			}
			if !matched && !contains(unresolved[src], mod) {
				unresolved[src] = append(unresolved[src], mod)
			}
		}
	}

	deps := make([]model.Dependency, 0, len(edgeModules))
	for key, mods := range edgeModules {
		deps = append(deps, model.Dependency{
			Source:  key.src,
			Target:  key.tgt,
			Modules: mods,
		})
	}
	sort.Slice(deps, func(i, j int) bool {
		if deps[i].Source != deps[j].Source {
			return deps[i].Source < deps[j].Source
		}
		return deps[i].Target < deps[j].Target
	})

	return &model.IncludeGraph{
		Root:         opts.Root,
		Files:        paths,
		Dependencies: deps,
		Unresolved:   unresolved,
	}, nil
}

func contains(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}
