package lsp

import (
	"path/filepath"
	"testing"
)

func TestApplyChanges(t *testing.T) {
	t.Parallel()

	text := "main()\n{\n\tfoo();\n}\n"
	got := applyChanges(text, []textDocumentContentChangeEvent{
		{
			Range: &lspRange{
				Start: position{Line: 2, Character: 1},
				End:   position{Line: 2, Character: 4},
			},
			Text: "bar",
		},
		{
			Range: &lspRange{
				Start: position{Line: 0, Character: 0},
				End:   position{Line: 0, Character: 0},
			},
			Text: "// entry\n",
		},
	})
	if want := "// entry\nmain()\n{\n\tbar();\n}\n"; got != want {
		t.Errorf("incremental: got %q, want %q", got, want)
	}

	got = applyChanges(text, []textDocumentContentChangeEvent{{Text: "init()\n{\n}\n"}})
	if got != "init()\n{\n}\n" {
		t.Errorf("full: got %q", got)
	}

	if got := applyChanges(text, nil); got != text {
		t.Errorf("no changes: got %q", got)
	}
}

func TestOffsetForPositionUTF16(t *testing.T) {
	t.Parallel()

	// "é" is 2 bytes and 1 UTF-16 unit; "😀" is 4 bytes and 2 units.
	text := "é😀x\r\nfoo"
	tests := []struct {
		pos  position
		want int
	}{
		{position{Line: 0, Character: 0}, 0},
		{position{Line: 0, Character: 1}, 2},
		{position{Line: 0, Character: 2}, 2}, // inside a surrogate pair
		{position{Line: 0, Character: 3}, 6},
		{position{Line: 0, Character: 4}, 7},
		{position{Line: 0, Character: 40}, 7}, // clamps before "\r\n"
		{position{Line: 1, Character: 2}, 11},
		{position{Line: 5, Character: 0}, len(text)},
	}
	for _, tt := range tests {
		if got := offsetForPosition(text, tt.pos); got != tt.want {
			t.Errorf("offsetForPosition(%+v) = %d, want %d", tt.pos, got, tt.want)
		}
	}
}

func TestPositionForOffset(t *testing.T) {
	t.Parallel()

	text := "é😀x\r\nfoo"
	tests := []struct {
		offset int
		want   position
	}{
		{0, position{Line: 0, Character: 0}},
		{2, position{Line: 0, Character: 1}},
		{6, position{Line: 0, Character: 3}},
		{7, position{Line: 0, Character: 4}},
		{9, position{Line: 1, Character: 0}},
		{99, position{Line: 1, Character: 3}},
		{-3, position{Line: 0, Character: 0}},
	}
	for _, tt := range tests {
		if got := positionForOffset(text, tt.offset); got != tt.want {
			t.Errorf("positionForOffset(%d) = %+v, want %+v", tt.offset, got, tt.want)
		}
	}
}

func TestSafeUint32(t *testing.T) {
	t.Parallel()

	if got := safeUint32(-1); got != 0 {
		t.Errorf("safeUint32(-1) = %d", got)
	}
	if got := safeUint32(42); got != 42 {
		t.Errorf("safeUint32(42) = %d", got)
	}
	if got := safeUint32(1 << 40); got != maxUint32 {
		t.Errorf("safeUint32(1<<40) = %d", got)
	}
}

func TestURIRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "maps", "mp", "my script.gsc")
	uri := pathToURI(path)
	if got := uriToPath(uri); got != path {
		t.Errorf("uriToPath(%q) = %q, want %q", uri, got, path)
	}
	if got := uriToPath("untitled:Untitled-1"); got != "" {
		t.Errorf("non-file scheme = %q, want empty", got)
	}
	if got := uriToPath(""); got != "" {
		t.Errorf("empty = %q", got)
	}
}
