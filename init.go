package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/phobologic/gscnav/internal/config"
)

const (
	sentinelStart = "# gscnav:start"
	sentinelEnd   = "# gscnav:end"
)

// newInitCmd implements `gscnav init`, which writes (or updates) the default
// settings section of a gscnav.toml file.
func newInitCmd() *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "init [PATH]",
		Short: "Write default settings to " + config.FileName,
		Long: `Write the default gscnav settings to a config file. The section is wrapped in
sentinel comments so it can be updated in place on subsequent runs without
touching surrounding content. Creates the file if it does not exist.

PATH defaults to ./` + config.FileName + `. Tables defined outside the sentinel
block are not merged; remove them before running init.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout, stderr := cmd.OutOrStdout(), cmd.ErrOrStderr()
			section := generateSection()

			// --dry-run with no path: just print the section itself.
			if dryRun && len(args) == 0 {
				_, _ = fmt.Fprintln(stdout, section)
				return nil
			}

			path := config.FileName
			if len(args) > 0 {
				path = args[0]
			}

			existing, _ := os.ReadFile(path)
			updated := applySection(string(existing), section)

			if dryRun {
				_, _ = fmt.Fprint(stdout, updated)
				return nil
			}

			if err := os.WriteFile(path, []byte(updated), 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", path, err)
			}

			_, _ = fmt.Fprintf(stderr, "wrote gscnav settings to %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print what would be written without modifying the file")
	return cmd
}

// generateSection returns the sentinel-wrapped default settings block.
func generateSection() string {
	def := config.Default(".")
	body := fmt.Sprintf(`[workspace]
# Directories scanned for scripts, relative to this file.
roots = ["."]
# Extension appended to module paths referenced from non-script files.
extension = %q
# Gitignore-style patterns of files never scanned.
exclude = []
# Files larger than this many bytes are never scanned.
max_file_size = %d
respect_gitignore = %t

[resolve]
# Concurrent file scans per lookup; 0 uses every CPU.
workers = %d

[log]
# debug, info, warn, or error. GSCNAV_LOG_LEVEL overrides.
level = %q`,
		def.Workspace.Extension,
		def.Workspace.MaxFileSize,
		def.Workspace.RespectGitignore,
		def.Resolve.Workers,
		def.Log.Level,
	)

	return sentinelStart + "\n" + body + "\n" + sentinelEnd
}

// applySection inserts section into content, replacing an existing sentinel
// block if present or appending if not. It is a pure function for easy testing.
func applySection(content, section string) string {
	start := strings.Index(content, sentinelStart)
	end := strings.Index(content, sentinelEnd)

	if start >= 0 && end > start {
		return content[:start] + section + content[end+len(sentinelEnd):]
	}

	// Append, ensuring a blank line separator.
	if len(content) > 0 && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	if len(content) == 0 {
		return section + "\n"
	}
	return content + "\n" + section + "\n"
}
