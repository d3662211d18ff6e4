// Package model defines core data structures for gscnav.
package model

// CallShape describes the syntax surrounding an identifier under the cursor.
type CallShape string

const (
	Call    CallShape = "call"
	Pointer CallShape = "pointer"
	Neither CallShape = "neither"
)

// SourceFile is a document handed to the engine by its host: an identifier
// plus a snapshot of its current text.
type SourceFile struct {
	Path string
	Text string
}

// Position is a 0-indexed line and byte column.
type Position struct {
	Line   int
	Column int
}

// CursorToken is the identifier found at a cursor position.
type CursorToken struct {
	Name string
	// NamespacePath is the module path preceding "::", or "" if absent.
	NamespacePath string
	Shape         CallShape
	// Start and End are byte offsets of Name within the document.
	Start int
	End   int
}

// Namespaced reports whether the token was written with a "::" separator.
func (t CursorToken) Namespaced() bool {
	return t.NamespacePath != ""
}

// DefinitionSite is a function definition located in a file.
type DefinitionSite struct {
	File   string
	Offset int
	Position
	// Params is the raw text between the definition's parentheses.
	Params string
}

// Metadata describes the single definition behind an unambiguous symbol.
type Metadata struct {
	Name   string
	Params string
	File   string
}

// Include is one #include directive and the workspace files its module
// path resolves to.
type Include struct {
	Module string
	Files  []string
}

// Dependency represents an edge in the include graph:
// Source includes Target through one or more module paths.
type Dependency struct {
	Source  string
	Target  string
	Modules []string
}

// IncludeGraph is the analyzed workspace include structure, ready for serialization.
type IncludeGraph struct {
	Root         string
	Files        []string
	Dependencies []Dependency
	// Unresolved maps a file to the module paths it includes that match no
	// workspace file.
	Unresolved map[string][]string
}
