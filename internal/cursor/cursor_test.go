package cursor

import (
	"strings"
	"testing"

	"github.com/phobologic/gscnav/internal/model"
)

// at returns text with the "|" marker removed and the marker's offset.
func at(t *testing.T, marked string) (string, int) {
	t.Helper()
	i := strings.Index(marked, "|")
	if i < 0 {
		t.Fatalf("no cursor marker in %q", marked)
	}
	return marked[:i] + marked[i+1:], i
}

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		marked    string
		wantOK    bool
		wantName  string
		wantNS    string
		wantShape model.CallShape
	}{
		{
			name:      "method call",
			marked:    "guy UseCo|verNode(node);",
			wantOK:    true,
			wantName:  "UseCoverNode",
			wantShape: model.Call,
		},
		{
			name:      "namespaced call",
			marked:    "maps\\mp\\gametypes\\_globallogic::in|it();",
			wantOK:    true,
			wantName:  "init",
			wantNS:    `maps\mp\gametypes\_globallogic`,
			wantShape: model.Call,
		},
		{
			name:      "pointer",
			marked:    "ptr = maps\\mp\\_utility::some|Func;",
			wantOK:    true,
			wantName:  "someFunc",
			wantNS:    `maps\mp\_utility`,
			wantShape: model.Pointer,
		},
		{
			name:      "local pointer",
			marked:    "level.callback = ::on|Connect;",
			wantOK:    true,
			wantName:  "onConnect",
			wantShape: model.Pointer,
		},
		{
			name:      "spaces around separator",
			marked:    "thread maps\\mp\\_utility :: wait|Till ( \"x\" );",
			wantOK:    true,
			wantName:  "waitTill",
			wantNS:    `maps\mp\_utility`,
			wantShape: model.Call,
		},
		{
			name:      "cursor at identifier start",
			marked:    "|foo();",
			wantOK:    true,
			wantName:  "foo",
			wantShape: model.Call,
		},
		{
			name:      "cursor just past identifier",
			marked:    "foo|();",
			wantOK:    true,
			wantName:  "foo",
			wantShape: model.Call,
		},
		{
			name:   "local variable",
			marked: "count = cou|nt + 1;",
		},
		{
			name:   "whitespace",
			marked: "foo( a, | b );",
		},
		{
			name:   "call on next line is ignored",
			marked: "fo|o\n();",
		},
		{
			name:   "keyword before call",
			marked: "main()\n{\n\tself th|read spawner();\n}",
		},
		{
			name:      "crlf line",
			marked:    "main()\r\n{\r\n\tself thread spa|wner();\r\n}",
			wantOK:    true,
			wantName:  "spawner",
			wantShape: model.Call,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			text, offset := at(t, tt.marked)
			tok, ok := Classify(text, offset)
			if ok != tt.wantOK {
				t.Fatalf("Classify ok = %v, want %v (tok %+v)", ok, tt.wantOK, tok)
			}
			if !ok {
				return
			}
			if tok.Name != tt.wantName {
				t.Errorf("name = %q, want %q", tok.Name, tt.wantName)
			}
			if tok.NamespacePath != tt.wantNS {
				t.Errorf("namespace = %q, want %q", tok.NamespacePath, tt.wantNS)
			}
			if tok.Shape != tt.wantShape {
				t.Errorf("shape = %q, want %q", tok.Shape, tt.wantShape)
			}
			if text[tok.Start:tok.End] != tok.Name {
				t.Errorf("bounds [%d:%d] = %q, want %q", tok.Start, tok.End, text[tok.Start:tok.End], tok.Name)
			}
		})
	}
}

func TestClassifyOutOfRange(t *testing.T) {
	t.Parallel()

	for _, offset := range []int{-1, 100} {
		if _, ok := Classify("foo();", offset); ok {
			t.Errorf("Classify at %d: expected no token", offset)
		}
	}
	if _, ok := Classify("", 0); ok {
		t.Error("Classify on empty text: expected no token")
	}
}
