// Package discover finds script files in a workspace and resolves module
// paths to them.
package discover

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	ignore "github.com/sabhiram/go-gitignore"

	"github.com/phobologic/gscnav/internal/include"
	"github.com/phobologic/gscnav/internal/lang"
)

// FileEntry represents a discovered script file.
type FileEntry struct {
	Root     string
	Path     string // Relative to Root
	Language string
}

// Abs returns the absolute path of the entry.
func (e FileEntry) Abs() string {
	return filepath.Join(e.Root, e.Path)
}

var skipDirs = map[string]struct{}{
	"node_modules": {},
	".git":         {},
	".hg":          {},
	".svn":         {},
	".vscode":      {},
	".idea":        {},
}

// Options configures a Workspace.
type Options struct {
	Roots []string
	// Exclude holds gitignore-style patterns applied relative to each root.
	Exclude []string
	// MaxFileSize skips larger files; <= 0 means no limit.
	MaxFileSize      int64
	RespectGitignore bool
}

// Workspace enumerates script files under a set of roots. It holds no
// state between calls, so every call sees the file system as it is.
type Workspace struct {
	roots       []string
	exclude     *ignore.GitIgnore
	maxFileSize int64
	gitignore   bool
}

// New creates a Workspace. Roots are made absolute.
func New(opts Options) *Workspace {
	roots := make([]string, 0, len(opts.Roots))
	for _, r := range opts.Roots {
		if abs, err := filepath.Abs(r); err == nil {
			r = abs
		}
		roots = append(roots, filepath.Clean(r))
	}
	var exclude *ignore.GitIgnore
	if len(opts.Exclude) > 0 {
		exclude = ignore.CompileIgnoreLines(opts.Exclude...)
	}
	return &Workspace{
		roots:       roots,
		exclude:     exclude,
		maxFileSize: opts.MaxFileSize,
		gitignore:   opts.RespectGitignore,
	}
}

// Files discovers script files under every root, sorted by root then path.
// If languages is non-empty, only files matching one of the listed languages are returned.
func (w *Workspace) Files(ctx context.Context, languages []string) ([]FileEntry, error) {
	var all []FileEntry
	for _, root := range w.roots {
		entries, err := w.walk(ctx, root, languages)
		if err != nil {
			return nil, err
		}
		all = append(all, entries...)
	}
	return all, nil
}

// FindFiles returns the absolute path of every workspace file whose path
// relative to a root ends with pattern on a directory boundary, e.g.
// "maps/mp/_utility.gsc" matches "raw/maps/mp/_utility.gsc".
func (w *Workspace) FindFiles(ctx context.Context, pattern string) ([]string, error) {
	pattern = strings.TrimPrefix(filepath.ToSlash(pattern), "/")
	if pattern == "" {
		return nil, nil
	}
	entries, err := w.Files(ctx, nil)
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, e := range entries {
		if Match(filepath.ToSlash(e.Path), pattern) {
			paths = append(paths, e.Abs())
		}
	}
	return paths, nil
}

// ModuleFile maps a module path such as `maps\mp\_utility` to the relative
// file name it denotes, "maps/mp/_utility" + ext.
func ModuleFile(modulePath, ext string) string {
	return strings.Join(include.Segments(modulePath), "/") + ext
}

// Match reports whether the slash-separated relative path rel names the
// same file as pattern, anywhere in the tree. Comparison ignores case.
func Match(rel, pattern string) bool {
	if len(rel) < len(pattern) {
		return false
	}
	if len(rel) == len(pattern) {
		return strings.EqualFold(rel, pattern)
	}
	cut := len(rel) - len(pattern)
	return rel[cut-1] == '/' && strings.EqualFold(rel[cut:], pattern)
}

func (w *Workspace) walk(ctx context.Context, root string, languages []string) ([]FileEntry, error) {
	langSet := make(map[string]struct{}, len(languages))
	for _, l := range languages {
		langSet[l] = struct{}{}
	}
	var gitFiles map[string]struct{}
	var gi *ignore.GitIgnore
	if w.gitignore {
		gitFiles = gitLsFiles(ctx, root)
		if gitFiles == nil {
			gi = loadGitignore(root)
		}
	}

	var results []FileEntry

	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			return nil // skip errors
		}

		name := d.Name()

		if d.IsDir() {
			if path == root {
				return nil
			}
			if _, skip := skipDirs[name]; skip || strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}

		if strings.HasPrefix(name, ".") {
			return nil
		}

		// Skip symlinks
		if d.Type()&os.ModeSymlink != 0 {
			return nil
		}

		langName := lang.ForExtension(filepath.Ext(name))
		if langName == "" {
			return nil
		}
		if len(langSet) > 0 {
			if _, ok := langSet[langName]; !ok {
				return nil
			}
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}

		if gitFiles != nil {
			if _, ok := gitFiles[filepath.ToSlash(rel)]; !ok {
				return nil
			}
		} else if gi != nil && gi.MatchesPath(rel) {
			return nil
		}
		if w.exclude != nil && w.exclude.MatchesPath(rel) {
			return nil
		}

		if w.maxFileSize > 0 {
			info, err := d.Info()
			if err == nil && info.Size() > w.maxFileSize {
				return nil
			}
		}

		results = append(results, FileEntry{Root: root, Path: rel, Language: langName})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Path < results[j].Path
	})

	return results, nil
}

func gitLsFiles(ctx context.Context, root string) map[string]struct{} {
	gitDir := filepath.Join(root, ".git")
	info, err := os.Stat(gitDir)
	if err != nil || !info.IsDir() {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", "ls-files", "--cached", "--others", "--exclude-standard")
	cmd.Dir = root
	out, err := cmd.Output()
	if err != nil {
		return nil
	}

	files := make(map[string]struct{})
	for _, line := range strings.Split(strings.TrimRight(string(out), "\n"), "\n") {
		if line != "" {
			files[line] = struct{}{}
		}
	}
	return files
}

func loadGitignore(root string) *ignore.GitIgnore {
	path := filepath.Join(root, ".gitignore")
	gi, err := ignore.CompileIgnoreFile(path)
	if err != nil {
		return nil
	}
	return gi
}
