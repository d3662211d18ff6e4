// Package catalog provides lookup of engine built-in function documentation.
package catalog

import (
	"embed"
	"fmt"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
)

//go:embed data/*.toml
var dataFS embed.FS

// Param is a built-in function parameter.
type Param struct {
	Name     string `toml:"name"`
	Optional bool   `toml:"optional"`
}

// Entry documents one built-in function.
type Entry struct {
	Name    string   `toml:"name"`
	CallOn  string   `toml:"callon"`
	Summary string   `toml:"summary"`
	Example string   `toml:"example"`
	Games   []string `toml:"games"`
	Params  []Param  `toml:"param"`
}

// Signature renders the entry as `[callon] name(<required>, [optional])`.
func (e Entry) Signature() string {
	parts := make([]string, len(e.Params))
	for i, p := range e.Params {
		if p.Optional {
			parts[i] = "[" + p.Name + "]"
		} else {
			parts[i] = "<" + p.Name + ">"
		}
	}
	sig := e.Name + "(" + strings.Join(parts, ", ") + ")"
	if e.CallOn != "" {
		sig = "<" + e.CallOn + "> " + sig
	}
	return sig
}

// Catalog indexes entries by lowercase name.
type Catalog struct {
	byName map[string]Entry
}

type document struct {
	Functions []Entry `toml:"function"`
}

// Parse decodes a TOML catalog. Later entries replace earlier ones with the
// same name.
func Parse(data []byte) (*Catalog, error) {
	var doc document
	if _, err := toml.Decode(string(data), &doc); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}
	c := &Catalog{byName: make(map[string]Entry, len(doc.Functions))}
	for _, e := range doc.Functions {
		if strings.TrimSpace(e.Name) == "" {
			return nil, fmt.Errorf("parsing catalog: function without a name")
		}
		c.byName[strings.ToLower(e.Name)] = e
	}
	return c, nil
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
	defaultErr     error
)

// Default returns the embedded catalog, parsed once.
func Default() (*Catalog, error) {
	defaultOnce.Do(func() {
		data, err := dataFS.ReadFile("data/builtins.toml")
		if err != nil {
			defaultErr = fmt.Errorf("reading catalog: %w", err)
			return
		}
		defaultCatalog, defaultErr = Parse(data)
	})
	return defaultCatalog, defaultErr
}

// Lookup finds a built-in by name, ignoring case.
func (c *Catalog) Lookup(name string) (Entry, bool) {
	if c == nil {
		return Entry{}, false
	}
	e, ok := c.byName[strings.ToLower(name)]
	return e, ok
}

// Len returns the number of entries.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.byName)
}
