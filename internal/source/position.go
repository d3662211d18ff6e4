package source

import (
	"strings"

	"github.com/phobologic/gscnav/internal/model"
)

// PositionAt converts a byte offset to a 0-indexed line and column. Both "\n"
// and "\r\n" count as a single line break.
func PositionAt(text string, offset int) model.Position {
	if offset < 0 {
		offset = 0
	}
	if offset > len(text) {
		offset = len(text)
	}
	before := text[:offset]
	line := strings.Count(before, "\n")
	col := offset - (strings.LastIndexByte(before, '\n') + 1)
	return model.Position{Line: line, Column: col}
}

// OffsetAt converts a 0-indexed line and byte column to an offset. Columns
// past the end of the line clamp to the line end (before any "\r").
func OffsetAt(text string, pos model.Position) int {
	if pos.Line < 0 || pos.Column < 0 {
		return 0
	}
	start := 0
	for line := 0; line < pos.Line; line++ {
		i := strings.IndexByte(text[start:], '\n')
		if i < 0 {
			return len(text)
		}
		start += i + 1
	}
	end := LineEnd(text, start)
	if start+pos.Column > end {
		return end
	}
	return start + pos.Column
}

// LineStart returns the offset of the first byte of the line holding offset.
func LineStart(text string, offset int) int {
	return strings.LastIndexByte(text[:offset], '\n') + 1
}

// LineEnd returns the offset just past the last content byte of the line
// holding offset, excluding the line break.
func LineEnd(text string, offset int) int {
	end := len(text)
	if i := strings.IndexByte(text[offset:], '\n'); i >= 0 {
		end = offset + i
	}
	if end > offset && text[end-1] == '\r' {
		end--
	}
	return end
}
