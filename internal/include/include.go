// Package include extracts #include directives from script text.
package include

import (
	"regexp"
	"strings"
)

var directiveRe = regexp.MustCompile(`#include\s*(\w+(?:[\\/]\w+)*)\s*;`)

// Extract returns the module path of every #include statement in text, in
// document order. Duplicates are kept.
func Extract(text string) []string {
	matches := directiveRe.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}
	paths := make([]string, 0, len(matches))
	for _, m := range matches {
		paths = append(paths, m[1])
	}
	return paths
}

// Segments splits a module path on either path separator.
func Segments(modulePath string) []string {
	return strings.FieldsFunc(modulePath, func(r rune) bool {
		return r == '\\' || r == '/'
	})
}
