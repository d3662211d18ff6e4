// Package scan locates function definitions in script text by lexical
// pattern matching.
package scan

import (
	"regexp"
	"strings"

	"github.com/phobologic/gscnav/internal/model"
	"github.com/phobologic/gscnav/internal/source"
)

const (
	lineComment  = `//[^\n]*`
	blockComment = `/\*[\s\S]*?\*/`
	stringLit    = `"(?:[^"\\\n]|\\.)*"`

	paramList = `((?:` + lineComment + `|` + blockComment + `|[\s\w,])*)`
	trailing  = `(?:` + lineComment + `|` + blockComment + `|\s)*`
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// definitionPattern compiles the search pattern for name. Comments and string
// literals are alternatives of the same expression, so a leftmost match that
// lands on them consumes the whole comment and any name inside it is skipped.
// Submatch 1 is the definition, submatch 2 its parameter text.
func definitionPattern(name string) (*regexp.Regexp, error) {
	def := `\b` + regexp.QuoteMeta(name) + `\s*\(` + paramList + `\)` + trailing + `\{`
	return regexp.Compile(lineComment + `|` + blockComment + `|` + stringLit + `|(` + def + `)`)
}

// FindDefinition returns the first definition of name in text. The match is
// case-sensitive. A name that does not occur as a definition, including one
// containing characters that cannot appear in an identifier, yields false.
func FindDefinition(text, name string) (model.DefinitionSite, bool) {
	if name == "" || text == "" {
		return model.DefinitionSite{}, false
	}
	re, err := definitionPattern(name)
	if err != nil {
		return model.DefinitionSite{}, false
	}

	for _, loc := range re.FindAllStringSubmatchIndex(text, -1) {
		if loc[2] < 0 {
			continue
		}
		offset := loc[2]
		return model.DefinitionSite{
			Offset:   offset,
			Position: source.PositionAt(text, offset),
			Params:   text[loc[4]:loc[5]],
		}, true
	}
	return model.DefinitionSite{}, false
}

// Signature renders name and its raw parameter text on a single line.
func Signature(name, params string) string {
	return name + "(" + collapseWhitespace(params) + ")"
}

func collapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}
