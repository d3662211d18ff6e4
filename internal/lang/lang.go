// Package lang provides a registry mapping file extensions to the script
// dialects gscnav understands.
package lang

import (
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Language describes a script dialect.
type Language struct {
	Name       string
	Extensions []string
	// Description is shown in CLI help.
	Description string
}

// Languages maps language names to their configuration.
var Languages = map[string]*Language{
	"gsc": {
		Name:        "gsc",
		Extensions:  []string{".gsc"},
		Description: "server-side game scripts",
	},
	"csc": {
		Name:        "csc",
		Extensions:  []string{".csc"},
		Description: "client-side game scripts",
	},
}

// extensionMap is built lazily from Languages.
var extensionMap map[string]string
var extensionOnce sync.Once

func getExtensionMap() map[string]string {
	extensionOnce.Do(func() {
		extensionMap = make(map[string]string)
		for _, l := range Languages {
			for _, ext := range l.Extensions {
				extensionMap[ext] = l.Name
			}
		}
	})
	return extensionMap
}

// ForExtension returns the language name for a file extension, or "" if unsupported.
// Extensions are compared case-insensitively.
func ForExtension(ext string) string {
	return getExtensionMap()[strings.ToLower(ext)]
}

// ModuleExtension returns the extension module paths resolve to when
// referenced from the document at path: the document's own extension when it
// is a script, fallback otherwise.
func ModuleExtension(path, fallback string) string {
	ext := filepath.Ext(path)
	if ForExtension(ext) != "" {
		return strings.ToLower(ext)
	}
	return fallback
}

// Names returns the registered language names in sorted order.
func Names() []string {
	names := make([]string, 0, len(Languages))
	for name := range Languages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
