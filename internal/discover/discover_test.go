package discover

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDiscoverScriptFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	writeFile(t, dir, "maps/mp/_load.gsc", "main() {}")
	writeFile(t, dir, "clientscripts/mp/_load.csc", "main() {}")
	// Non-script file should be ignored
	writeFile(t, dir, "readme.txt", "hello")
	// Hidden file should be ignored
	writeFile(t, dir, ".hidden.gsc", "secret() {}")

	ws := New(Options{Roots: []string{dir}})
	entries, err := ws.Files(context.Background(), nil)
	if err != nil {
		t.Fatalf("Files: %v", err)
	}

	paths := make([]string, len(entries))
	for i, e := range entries {
		paths[i] = filepath.ToSlash(e.Path)
	}

	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d: %v", len(entries), paths)
	}

	// Should be sorted
	if paths[0] != "clientscripts/mp/_load.csc" {
		t.Errorf("entry 0: got %q", paths[0])
	}
	if paths[1] != "maps/mp/_load.gsc" {
		t.Errorf("entry 1: got %q", paths[1])
	}
	if entries[0].Language != "csc" || entries[1].Language != "gsc" {
		t.Errorf("languages = %q, %q", entries[0].Language, entries[1].Language)
	}
	if entries[1].Abs() != filepath.Join(dir, "maps", "mp", "_load.gsc") {
		t.Errorf("Abs = %q", entries[1].Abs())
	}
}

func TestDiscoverSkipDirs(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	writeFile(t, dir, "main.gsc", "main() {}")
	writeFile(t, dir, "node_modules/pkg.gsc", "x() {}")
	writeFile(t, dir, ".hidden/secret.gsc", "x() {}")

	entries, err := New(Options{Roots: []string{dir}}).Files(context.Background(), nil)
	if err != nil {
		t.Fatalf("Files: %v", err)
	}

	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Path != "main.gsc" {
		t.Errorf("expected main.gsc, got %q", entries[0].Path)
	}
}

func TestDiscoverLanguageFilter(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	writeFile(t, dir, "a.gsc", "a() {}")
	writeFile(t, dir, "b.csc", "b() {}")

	ws := New(Options{Roots: []string{dir}})
	entries, err := ws.Files(context.Background(), []string{"gsc"})
	if err != nil {
		t.Fatalf("Files: %v", err)
	}
	if len(entries) != 1 || entries[0].Path != "a.gsc" {
		t.Fatalf("expected only a.gsc, got %+v", entries)
	}
}

func TestDiscoverSymlinksSkipped(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "real.gsc", "main() {}")

	// Create symlink
	err := os.Symlink(filepath.Join(dir, "real.gsc"), filepath.Join(dir, "link.gsc"))
	if err != nil {
		t.Skip("symlinks not supported")
	}

	entries, err := New(Options{Roots: []string{dir}}).Files(context.Background(), nil)
	if err != nil {
		t.Fatalf("Files: %v", err)
	}

	if len(entries) != 1 {
		t.Fatalf("expected 1 entry (no symlink), got %d", len(entries))
	}
	if entries[0].Path != "real.gsc" {
		t.Errorf("expected real.gsc, got %q", entries[0].Path)
	}
}

func TestDiscoverExcludeAndGitignore(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "maps/keep.gsc", "a() {}")
	writeFile(t, dir, "dumps/old.gsc", "a() {}")
	writeFile(t, dir, "generated/gen.gsc", "a() {}")
	writeFile(t, dir, ".gitignore", "generated/\n")

	ws := New(Options{
		Roots:            []string{dir},
		Exclude:          []string{"dumps/"},
		RespectGitignore: true,
	})
	entries, err := ws.Files(context.Background(), nil)
	if err != nil {
		t.Fatalf("Files: %v", err)
	}
	if len(entries) != 1 || filepath.ToSlash(entries[0].Path) != "maps/keep.gsc" {
		t.Fatalf("expected only maps/keep.gsc, got %+v", entries)
	}
}

func TestDiscoverMaxFileSize(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "small.gsc", "a() {}")
	writeFile(t, dir, "big.gsc", strings.Repeat("x", 100))

	entries, err := New(Options{Roots: []string{dir}, MaxFileSize: 50}).Files(context.Background(), nil)
	if err != nil {
		t.Fatalf("Files: %v", err)
	}
	if len(entries) != 1 || entries[0].Path != "small.gsc" {
		t.Fatalf("expected only small.gsc, got %+v", entries)
	}
}

func TestDiscoverCancelled(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "a.gsc", "a() {}")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New(Options{Roots: []string{dir}}).Files(ctx, nil); err == nil {
		t.Fatal("expected context error")
	}
}

func TestFindFiles(t *testing.T) {
	t.Parallel()

	first := t.TempDir()
	second := t.TempDir()
	writeFile(t, first, "raw/maps/mp/_utility.gsc", "a() {}")
	writeFile(t, first, "raw/maps/mp/gametypes/_utility.gsc", "a() {}")
	writeFile(t, second, "maps/mp/_utility.gsc", "a() {}")
	writeFile(t, second, "othermaps/mp/_utility.gsc", "a() {}")

	ws := New(Options{Roots: []string{first, second}})
	got, err := ws.FindFiles(context.Background(), ModuleFile(`maps\mp\_utility`, ".gsc"))
	if err != nil {
		t.Fatalf("FindFiles: %v", err)
	}
	want := []string{
		filepath.Join(first, "raw", "maps", "mp", "_utility.gsc"),
		filepath.Join(second, "maps", "mp", "_utility.gsc"),
	}
	if len(got) != len(want) {
		t.Fatalf("FindFiles = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("FindFiles[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	none, err := ws.FindFiles(context.Background(), "maps/mp/_missing.gsc")
	if err != nil {
		t.Fatalf("FindFiles: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("expected no files, got %v", none)
	}
}

func TestMatch(t *testing.T) {
	t.Parallel()

	cases := []struct {
		rel     string
		pattern string
		want    bool
	}{
		{"maps/mp/_load.gsc", "maps/mp/_load.gsc", true},
		{"raw/maps/mp/_load.gsc", "maps/mp/_load.gsc", true},
		{"Raw/Maps/MP/_Load.gsc", "maps/mp/_load.gsc", true},
		{"othermaps/mp/_load.gsc", "maps/mp/_load.gsc", false},
		{"mp/_load.gsc", "maps/mp/_load.gsc", false},
		{"maps/mp/_load.gsc.bak", "maps/mp/_load.gsc", false},
	}
	for _, tc := range cases {
		t.Run(tc.rel, func(t *testing.T) {
			t.Parallel()
			if got := Match(tc.rel, tc.pattern); got != tc.want {
				t.Errorf("Match(%q, %q) = %v, want %v", tc.rel, tc.pattern, got, tc.want)
			}
		})
	}
}

func TestModuleFile(t *testing.T) {
	t.Parallel()

	if got := ModuleFile(`maps\mp\gametypes\_globallogic`, ".gsc"); got != "maps/mp/gametypes/_globallogic.gsc" {
		t.Errorf("ModuleFile = %q", got)
	}
	if got := ModuleFile("common_scripts/utility", ".csc"); got != "common_scripts/utility.csc" {
		t.Errorf("ModuleFile = %q", got)
	}
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
