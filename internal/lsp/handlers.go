package lsp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/phobologic/gscnav/internal/model"
	"github.com/phobologic/gscnav/internal/resolve"
	"github.com/phobologic/gscnav/internal/scan"
	"github.com/phobologic/gscnav/internal/source"
)

// document returns the snapshot text of the requested document and the byte
// offset of the requested position in it.
func (s *Server) document(ctx context.Context, reader source.Reader, params json.RawMessage) (model.SourceFile, int, error) {
	var p textDocumentPositionParams
	if err := json.Unmarshal(params, &p); err != nil {
		return model.SourceFile{}, 0, errInvalidParams
	}
	path := uriToPath(p.TextDocument.URI)
	if path == "" {
		return model.SourceFile{}, 0, fmt.Errorf("unsupported uri %q", p.TextDocument.URI)
	}
	text, err := reader.Read(ctx, path)
	if err != nil {
		return model.SourceFile{}, 0, err
	}
	doc := model.SourceFile{Path: path, Text: text}
	return doc, offsetForPosition(text, p.Position), nil
}

func (s *Server) definition(ctx context.Context, snap snapshot, params json.RawMessage) (any, error) {
	r, reader := s.resolver(snap)
	doc, offset, err := s.document(ctx, reader, params)
	if err != nil {
		return nil, err
	}
	res, err := r.Lookup(ctx, doc, offset)
	if err != nil {
		return nil, err
	}

	locations := make([]location, 0, len(res.Sites))
	for _, site := range res.Sites {
		text := doc.Text
		if site.File != doc.Path {
			text, err = reader.Read(ctx, site.File)
			if err != nil {
				s.logger.Debug("definition file vanished", "path", site.File, "err", err)
				continue
			}
		}
		locations = append(locations, location{
			URI:   pathToURI(site.File),
			Range: rangeForOffsets(text, site.Offset, site.Offset+len(res.Token.Name)),
		})
	}
	return locations, nil
}

func (s *Server) hover(ctx context.Context, snap snapshot, params json.RawMessage) (any, error) {
	r, reader := s.resolver(snap)
	doc, offset, err := s.document(ctx, reader, params)
	if err != nil {
		return nil, err
	}
	res, err := r.Lookup(ctx, doc, offset)
	if err != nil {
		return nil, err
	}
	value := s.hoverText(res, snap.root)
	if value == "" {
		return nil, nil
	}
	rng := rangeForOffsets(doc.Text, res.Token.Start, res.Token.End)
	return hover{
		Contents: markupContent{Kind: "markdown", Value: value},
		Range:    &rng,
	}, nil
}

// hoverText renders the single script definition of the token when there is
// exactly one, or the built-in documentation for an unqualified call that
// resolves to no script definition.
func (s *Server) hoverText(res resolve.Result, root string) string {
	if !res.Found {
		return ""
	}
	if meta := resolve.MetadataFor(res); meta != nil {
		var b strings.Builder
		b.WriteString("```gsc\n")
		b.WriteString(scan.Signature(meta.Name, meta.Params))
		b.WriteString("\n```\n")
		fmt.Fprintf(&b, "Defined in `%s`", source.Relative(root, meta.File))
		return b.String()
	}
	if !resolve.Builtin(res) {
		return ""
	}
	entry, ok := s.opts.Catalog.Lookup(res.Token.Name)
	if !ok {
		return ""
	}
	var b strings.Builder
	b.WriteString("```gsc\n")
	b.WriteString(entry.Signature())
	b.WriteString("\n```")
	if entry.Summary != "" {
		b.WriteString("\n")
		b.WriteString(entry.Summary)
	}
	if entry.Example != "" {
		b.WriteString("\n\nExample:\n```gsc\n")
		b.WriteString(entry.Example)
		b.WriteString("\n```")
	}
	return b.String()
}
