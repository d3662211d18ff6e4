package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"github.com/phobologic/gscnav/internal/catalog"
	"github.com/phobologic/gscnav/internal/model"
	"github.com/phobologic/gscnav/internal/resolve"
	"github.com/phobologic/gscnav/internal/scan"
	"github.com/phobologic/gscnav/internal/source"
	"github.com/phobologic/gscnav/internal/toon"
)

const (
	formatText = "text"
	formatJSON = "json"
	formatTOON = "toon"
)

// printer renders command results in the selected format. Paths are shown
// relative to root; lines and columns are 1-based.
type printer struct {
	w      io.Writer
	format string
	root   string

	path   *color.Color
	name   *color.Color
	faint  *color.Color
	errorC *color.Color
}

func newPrinter(w io.Writer, format string, useColor bool, root string) *printer {
	p := &printer{
		w:      w,
		format: format,
		root:   root,
		path:   color.New(color.FgCyan),
		name:   color.New(color.Bold),
		faint:  color.New(color.Faint),
		errorC: color.New(color.FgRed),
	}
	for _, c := range []*color.Color{p.path, p.name, p.faint, p.errorC} {
		if useColor {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p *printer) rel(path string) string {
	return source.Relative(p.root, path)
}

type siteJSON struct {
	File      string `json:"file"`
	Line      int    `json:"line"`
	Column    int    `json:"column"`
	Params    string `json:"params"`
	Signature string `json:"signature"`
}

type definitionsJSON struct {
	Symbol      string     `json:"symbol,omitempty"`
	Namespace   string     `json:"namespace,omitempty"`
	Shape       string     `json:"shape,omitempty"`
	Definitions []siteJSON `json:"definitions"`
}

func (p *printer) definitions(res resolve.Result) error {
	switch p.format {
	case formatJSON:
		out := definitionsJSON{Definitions: []siteJSON{}}
		if res.Found {
			out.Symbol = res.Token.Name
			out.Namespace = res.Token.NamespacePath
			out.Shape = string(res.Token.Shape)
		}
		for _, s := range res.Sites {
			out.Definitions = append(out.Definitions, siteJSON{
				File:      p.rel(s.File),
				Line:      s.Line + 1,
				Column:    s.Column + 1,
				Params:    s.Params,
				Signature: scan.Signature(res.Token.Name, s.Params),
			})
		}
		return p.json(out)
	case formatTOON:
		return p.line(toon.EncodeDefinitions(res.Token.Name, res.Sites, p.root))
	}

	if !res.Found {
		return p.line(p.faint.Sprint("no function reference at position"))
	}
	if len(res.Sites) == 0 {
		return p.line(p.faint.Sprintf("no definition of %s in scope", res.Token.Name))
	}

	locs := make([]string, len(res.Sites))
	width := 0
	for i, s := range res.Sites {
		locs[i] = fmt.Sprintf("%s:%d:%d", p.rel(s.File), s.Line+1, s.Column+1)
		width = max(width, runewidth.StringWidth(locs[i]))
	}
	for i, s := range res.Sites {
		pad := runewidth.FillRight(locs[i], width)
		loc := p.path.Sprint(locs[i]) + pad[len(locs[i]):]
		if err := p.line(loc + "  " + p.name.Sprint(scan.Signature(res.Token.Name, s.Params))); err != nil {
			return err
		}
	}
	return nil
}

type metadataJSON struct {
	Name    string `json:"name"`
	Params  string `json:"params"`
	File    string `json:"file,omitempty"`
	Builtin bool   `json:"builtin,omitempty"`
	Summary string `json:"summary,omitempty"`
	Example string `json:"example,omitempty"`
}

func (p *printer) metadata(m *model.Metadata) error {
	switch p.format {
	case formatJSON:
		return p.json(metadataJSON{Name: m.Name, Params: m.Params, File: p.rel(m.File)})
	case formatTOON:
		return p.line(toon.EncodeMetadata(m, p.root))
	}
	return p.line(p.name.Sprint(scan.Signature(m.Name, m.Params)) + "\n  " +
		p.faint.Sprint("defined in ") + p.path.Sprint(p.rel(m.File)))
}

func (p *printer) builtin(e catalog.Entry) error {
	switch p.format {
	case formatJSON:
		params := make([]string, len(e.Params))
		for i, prm := range e.Params {
			params[i] = prm.Name
		}
		return p.json(metadataJSON{
			Name:    e.Name,
			Params:  strings.Join(params, ", "),
			Builtin: true,
			Summary: e.Summary,
			Example: e.Example,
		})
	case formatTOON:
		return p.line(toon.EncodeBuiltin(e))
	}
	var b strings.Builder
	b.WriteString(p.name.Sprint(e.Signature()))
	b.WriteString("  " + p.faint.Sprint("(built-in)"))
	if e.Summary != "" {
		b.WriteString("\n  " + e.Summary)
	}
	if e.Example != "" {
		b.WriteString("\n  " + p.faint.Sprint("example: ") + e.Example)
	}
	return p.line(b.String())
}

func (p *printer) noMetadata(res resolve.Result) error {
	switch p.format {
	case formatJSON:
		return p.json(nil)
	case formatTOON:
		return p.line(toon.EncodeMetadata(nil, p.root))
	}
	if !res.Found {
		return p.line(p.faint.Sprint("no function reference at position"))
	}
	return p.line(p.faint.Sprintf("no unambiguous definition of %s (%d in scope)", res.Token.Name, len(res.Sites)))
}

type includeJSON struct {
	Module string   `json:"module"`
	Files  []string `json:"files"`
}

func (p *printer) includes(file string, includes []model.Include) error {
	switch p.format {
	case formatJSON:
		out := make([]includeJSON, 0, len(includes))
		for _, inc := range includes {
			files := make([]string, 0, len(inc.Files))
			for _, f := range inc.Files {
				files = append(files, p.rel(f))
			}
			out = append(out, includeJSON{Module: inc.Module, Files: files})
		}
		return p.json(out)
	case formatTOON:
		return p.line(toon.EncodeIncludes(file, includes, p.root))
	}

	width := 0
	for _, inc := range includes {
		width = max(width, runewidth.StringWidth(inc.Module))
	}
	for _, inc := range includes {
		pad := runewidth.FillRight(inc.Module, width)[len(inc.Module):]
		target := p.errorC.Sprint("(unresolved)")
		if len(inc.Files) > 0 {
			rels := make([]string, len(inc.Files))
			for i, f := range inc.Files {
				rels[i] = p.path.Sprint(p.rel(f))
			}
			target = strings.Join(rels, ", ")
		}
		if err := p.line(p.name.Sprint(inc.Module) + pad + "  " + target); err != nil {
			return err
		}
	}
	return nil
}

type dependencyJSON struct {
	Source  string   `json:"source"`
	Target  string   `json:"target"`
	Modules []string `json:"modules"`
}

type graphJSON struct {
	Root         string              `json:"root"`
	Files        []string            `json:"files"`
	Dependencies []dependencyJSON    `json:"includes"`
	Unresolved   map[string][]string `json:"unresolved,omitempty"`
}

func (p *printer) graph(g *model.IncludeGraph) error {
	switch p.format {
	case formatJSON:
		out := graphJSON{Root: g.Root, Files: g.Files, Unresolved: g.Unresolved, Dependencies: []dependencyJSON{}}
		for _, d := range g.Dependencies {
			out.Dependencies = append(out.Dependencies, dependencyJSON(d))
		}
		return p.json(out)
	case formatTOON:
		return p.line(toon.EncodeGraph(g))
	}

	width := 0
	for _, d := range g.Dependencies {
		width = max(width, runewidth.StringWidth(d.Source))
	}
	for _, d := range g.Dependencies {
		pad := runewidth.FillRight(d.Source, width)[len(d.Source):]
		if err := p.line(p.path.Sprint(d.Source) + pad + " -> " + p.path.Sprint(d.Target)); err != nil {
			return err
		}
	}
	for _, f := range g.Files {
		for _, mod := range g.Unresolved[f] {
			if err := p.line(p.path.Sprint(f) + ": " + p.errorC.Sprintf("unresolved include %s", mod)); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p *printer) json(v any) error {
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (p *printer) line(s string) error {
	_, err := fmt.Fprintln(p.w, s)
	return err
}
