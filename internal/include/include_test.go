package include

import (
	"reflect"
	"testing"
)

func TestExtract(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want []string
	}{
		{"none", "main() {}\n", nil},
		{"single", "#include maps\\mp\\_utility;\n", []string{`maps\mp\_utility`}},
		{
			"document order",
			"#include common_scripts\\utility;\n#include maps\\mp\\_utility;\n",
			[]string{`common_scripts\utility`, `maps\mp\_utility`},
		},
		{"spacing", "#include   maps\\mp\\_load  ;", []string{`maps\mp\_load`}},
		{"forward slashes", "#include maps/mp/_load;", []string{"maps/mp/_load"}},
		{"no space", "#includemaps\\mp\\_load;", []string{`maps\mp\_load`}},
		{"duplicates kept", "#include a\\b;\n#include a\\b;", []string{`a\b`, `a\b`}},
		{"missing semicolon", "#include maps\\mp\\_load\nmain() {}", nil},
		{"crlf", "#include a\\b;\r\n#include c;\r\n", []string{`a\b`, "c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Extract(tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Extract(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestSegments(t *testing.T) {
	t.Parallel()

	got := Segments(`maps\mp/gametypes\_globallogic`)
	want := []string{"maps", "mp", "gametypes", "_globallogic"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Segments = %q, want %q", got, want)
	}
}
