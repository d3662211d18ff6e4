// Package toon implements TOON (Token-Oriented Object Notation) encoding.
package toon

import (
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/phobologic/gscnav/internal/catalog"
	"github.com/phobologic/gscnav/internal/model"
	"github.com/phobologic/gscnav/internal/scan"
	"github.com/phobologic/gscnav/internal/source"
)

var (
	needsQuoting = regexp.MustCompile(`[,:"\\{}\[\]]`)
	looksNumeric = regexp.MustCompile(`^-?(?:0|[1-9]\d*)(?:\.\d+)?$`)
	keywords     = map[string]struct{}{
		"true":  {},
		"false": {},
		"null":  {},
	}
)

// EncodeDefinitions renders the definition sites of symbol. Paths are shown
// relative to root; lines and columns are 1-based.
func EncodeDefinitions(symbol string, sites []model.DefinitionSite, root string) string {
	var parts []string
	parts = append(parts, fmt.Sprintf("symbol: %s", encodeValue(symbol)))

	var rows [][]string
	for i := range sites {
		s := &sites[i]
		rows = append(rows, []string{
			source.Relative(root, s.File),
			strconv.Itoa(s.Line + 1),
			strconv.Itoa(s.Column + 1),
			scan.Signature(symbol, s.Params),
		})
	}
	parts = append(parts, formatTabular("definitions", []string{"file", "line", "column", "signature"}, rows))
	return strings.Join(parts, "\n")
}

// EncodeMetadata renders hover metadata. A nil m encodes as null.
func EncodeMetadata(m *model.Metadata, root string) string {
	if m == nil {
		return "metadata: null"
	}
	parts := []string{
		fmt.Sprintf("name: %s", encodeValue(m.Name)),
		fmt.Sprintf("params: %s", encodeValue(m.Params)),
		fmt.Sprintf("file: %s", encodeValue(source.Relative(root, m.File))),
	}
	return strings.Join(parts, "\n")
}

// EncodeBuiltin renders the catalog documentation of an engine built-in.
func EncodeBuiltin(e catalog.Entry) string {
	parts := []string{
		fmt.Sprintf("builtin: %s", encodeValue(e.Name)),
		fmt.Sprintf("signature: %s", encodeValue(e.Signature())),
	}
	if e.Summary != "" {
		parts = append(parts, fmt.Sprintf("summary: %s", encodeValue(e.Summary)))
	}
	return strings.Join(parts, "\n")
}

// EncodeIncludes renders the include directives of file with the workspace
// files each resolves to. An unresolved module has an empty file cell.
func EncodeIncludes(file string, includes []model.Include, root string) string {
	var rows [][]string
	for _, inc := range includes {
		if len(inc.Files) == 0 {
			rows = append(rows, []string{inc.Module, ""})
			continue
		}
		for _, f := range inc.Files {
			rows = append(rows, []string{inc.Module, source.Relative(root, f)})
		}
	}
	return fmt.Sprintf("file: %s\n", encodeValue(source.Relative(root, file))) +
		formatTabular("includes", []string{"module", "file"}, rows)
}

// EncodeGraph converts an include graph into TOON format.
func EncodeGraph(g *model.IncludeGraph) string {
	var parts []string

	parts = append(parts, fmt.Sprintf("root: %s", encodeValue(filepath.ToSlash(g.Root))))

	var fileRows [][]string
	for _, f := range g.Files {
		fileRows = append(fileRows, []string{f})
	}
	parts = append(parts, formatTabular("files", []string{"path"}, fileRows))

	var depRows [][]string
	for i := range g.Dependencies {
		d := &g.Dependencies[i]
		depRows = append(depRows, []string{
			d.Source,
			d.Target,
			strings.Join(d.Modules, " "),
		})
	}
	parts = append(parts, formatTabular("includes", []string{"source", "target", "modules"}, depRows))

	if len(g.Unresolved) > 0 {
		files := make([]string, 0, len(g.Unresolved))
		for f := range g.Unresolved {
			files = append(files, f)
		}
		sort.Strings(files)

		var rows [][]string
		for _, f := range files {
			for _, mod := range g.Unresolved[f] {
				rows = append(rows, []string{f, mod})
			}
		}
		parts = append(parts, formatTabular("unresolved", []string{"file", "module"}, rows))
	}

	return strings.Join(parts, "\n")
}

func formatTabular(name string, columns []string, rows [][]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s[%d]{%s}:", name, len(rows), strings.Join(columns, ","))
	for _, row := range rows {
		encoded := make([]string, len(row))
		for i, cell := range row {
			encoded[i] = encodeValue(cell)
		}
		fmt.Fprintf(&b, "\n  %s", strings.Join(encoded, ","))
	}
	return b.String()
}

func encodeValue(value string) string {
	if value == "" {
		return `""`
	}

	if value != strings.TrimSpace(value) {
		return quote(value)
	}

	if strings.ContainsAny(value, "\n\r\t") {
		return quote(value)
	}

	if _, ok := keywords[strings.ToLower(value)]; ok {
		return quote(value)
	}

	if looksNumeric.MatchString(value) {
		return value
	}

	if needsQuoting.MatchString(value) {
		return quote(value)
	}

	if strings.HasPrefix(value, "-") {
		return quote(value)
	}

	return value
}

func quote(value string) string {
	escaped := strings.ReplaceAll(value, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `"`, `\"`)
	escaped = strings.ReplaceAll(escaped, "\n", `\n`)
	escaped = strings.ReplaceAll(escaped, "\r", `\r`)
	escaped = strings.ReplaceAll(escaped, "\t", `\t`)
	return `"` + escaped + `"`
}
