package toon

import (
	"strings"
	"testing"

	"github.com/phobologic/gscnav/internal/catalog"
	"github.com/phobologic/gscnav/internal/model"
)

func TestEncodeValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", `""`},
		{"simple", "hello", "hello"},
		{"leading space", " hello", `" hello"`},
		{"trailing space", "hello ", `"hello "`},
		{"newline", "a\nb", `"a\nb"`},
		{"tab", "a\tb", `"a\tb"`},
		{"carriage return", "a\rb", `"a\rb"`},
		{"true keyword", "true", `"true"`},
		{"True keyword", "True", `"True"`},
		{"false keyword", "false", `"false"`},
		{"null keyword", "null", `"null"`},
		{"integer", "42", "42"},
		{"negative integer", "-1", "-1"},
		{"float", "3.14", "3.14"},
		{"zero", "0", "0"},
		{"leading zero invalid", "01", "01"},
		{"comma", "a,b", `"a,b"`},
		{"colon", "a:b", `"a:b"`},
		{"quote", `a"b`, `"a\"b"`},
		{"backslash", `a\b`, `"a\\b"`},
		{"bracket", "a[b", `"a[b"`},
		{"brace", "a{b", `"a{b"`},
		{"dash prefix", "-foo", `"-foo"`},
		{"path", "maps/mp/_utility.gsc", "maps/mp/_utility.gsc"},
		{"module path", `maps\mp\_utility`, `"maps\\mp\\_utility"`},
		{"signature no special", "spawnBot(count)", "spawnBot(count)"},
		{"signature with params", "spawnBot(count, team)", `"spawnBot(count, team)"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := encodeValue(tt.in)
			if got != tt.want {
				t.Errorf("encodeValue(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestEncodeDefinitions(t *testing.T) {
	t.Parallel()

	sites := []model.DefinitionSite{
		{File: "/ws/maps/mp/_utility.gsc", Position: model.Position{Line: 4, Column: 0}, Params: "count"},
		{File: "/shared/_bots.gsc", Position: model.Position{Line: 0, Column: 2}, Params: "count,\n\tteam"},
	}

	got := EncodeDefinitions("spawnBot", sites, "/ws")
	want := strings.Join([]string{
		"symbol: spawnBot",
		"definitions[2]{file,line,column,signature}:",
		"  maps/mp/_utility.gsc,5,1,spawnBot(count)",
		`  /shared/_bots.gsc,1,3,"spawnBot(count, team)"`,
	}, "\n")
	if got != want {
		t.Errorf("EncodeDefinitions:\n%s\nwant:\n%s", got, want)
	}
}

func TestEncodeDefinitionsEmpty(t *testing.T) {
	t.Parallel()

	got := EncodeDefinitions("isDefined", nil, "/ws")
	if !strings.Contains(got, "definitions[0]{file,line,column,signature}:") {
		t.Errorf("expected empty definitions section, got:\n%s", got)
	}
}

func TestEncodeMetadata(t *testing.T) {
	t.Parallel()

	got := EncodeMetadata(&model.Metadata{Name: "spawnBot", Params: "", File: "/ws/a.gsc"}, "/ws")
	want := "name: spawnBot\nparams: \"\"\nfile: a.gsc"
	if got != want {
		t.Errorf("EncodeMetadata = %q, want %q", got, want)
	}
	if got := EncodeMetadata(nil, "/ws"); got != "metadata: null" {
		t.Errorf("EncodeMetadata(nil) = %q", got)
	}
}

func TestEncodeGraph(t *testing.T) {
	t.Parallel()

	g := &model.IncludeGraph{
		Root:  "/ws",
		Files: []string{"maps/mp/_load.gsc", "maps/mp/_utility.gsc"},
		Dependencies: []model.Dependency{
			{Source: "maps/mp/_load.gsc", Target: "maps/mp/_utility.gsc", Modules: []string{"maps/mp/_utility"}},
		},
		Unresolved: map[string][]string{
			"maps/mp/_utility.gsc": {`common\scripts\missing`},
			"maps/mp/_load.gsc":    {"gone"},
		},
	}

	lines := strings.Split(EncodeGraph(g), "\n")
	want := []string{
		"root: /ws",
		"files[2]{path}:",
		"  maps/mp/_load.gsc",
		"  maps/mp/_utility.gsc",
		"includes[1]{source,target,modules}:",
		"  maps/mp/_load.gsc,maps/mp/_utility.gsc,maps/mp/_utility",
		"unresolved[2]{file,module}:",
		"  maps/mp/_load.gsc,gone",
		`  maps/mp/_utility.gsc,"common\\scripts\\missing"`,
	}
	if len(lines) != len(want) {
		t.Fatalf("got %d lines, want %d:\n%s", len(lines), len(want), strings.Join(lines, "\n"))
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d: got %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestEncodeGraphEmpty(t *testing.T) {
	t.Parallel()

	got := EncodeGraph(&model.IncludeGraph{Root: "/ws"})
	if !strings.Contains(got, "files[0]{path}:") {
		t.Errorf("expected empty files section, got:\n%s", got)
	}
	if strings.Contains(got, "unresolved") {
		t.Errorf("unexpected unresolved section:\n%s", got)
	}
}

func TestEncodeIncludes(t *testing.T) {
	t.Parallel()

	includes := []model.Include{
		{Module: `maps\mp\_utility`, Files: []string{"/ws/maps/mp/_utility.gsc", "/ws/dlc/maps/mp/_utility.gsc"}},
		{Module: "gone"},
	}
	got := EncodeIncludes("/ws/maps/mp/gametypes/dm.gsc", includes, "/ws")
	want := strings.Join([]string{
		"file: maps/mp/gametypes/dm.gsc",
		"includes[3]{module,file}:",
		`  "maps\\mp\\_utility",maps/mp/_utility.gsc`,
		`  "maps\\mp\\_utility",dlc/maps/mp/_utility.gsc`,
		`  gone,""`,
	}, "\n")
	if got != want {
		t.Errorf("EncodeIncludes:\n%s\nwant:\n%s", got, want)
	}
}

func TestEncodeBuiltin(t *testing.T) {
	t.Parallel()

	e := catalog.Entry{
		Name:    "setModel",
		CallOn:  "entity",
		Summary: "Sets the model of an entity.",
		Params:  []catalog.Param{{Name: "model"}},
	}
	want := "builtin: setModel\nsignature: <entity> setModel(<model>)\nsummary: Sets the model of an entity."
	if got := EncodeBuiltin(e); got != want {
		t.Errorf("EncodeBuiltin = %q, want %q", got, want)
	}
}
