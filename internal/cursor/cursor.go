// Package cursor identifies the function reference under a cursor position.
package cursor

import (
	"regexp"

	"github.com/phobologic/gscnav/internal/model"
	"github.com/phobologic/gscnav/internal/source"
)

const modulePathPattern = `\w+(?:[\\/]\w+)*`

// Classify extracts the identifier at offset and reports how it is used.
// It returns false when the cursor is not on an identifier or the identifier
// is neither called nor referenced through "::".
func Classify(text string, offset int) (model.CursorToken, bool) {
	start, end, ok := identifierAt(text, offset)
	if !ok {
		return model.CursorToken{}, false
	}
	name := text[start:end]

	left := text[source.LineStart(text, start):end]
	right := text[start:source.LineEnd(text, start)]

	quoted := regexp.QuoteMeta(name)
	leftRe, err := regexp.Compile(`(?:(` + modulePathPattern + `)\s*)?::\s*` + quoted + `$`)
	if err != nil {
		return model.CursorToken{}, false
	}
	rightRe, err := regexp.Compile(`^` + quoted + `\s*\(`)
	if err != nil {
		return model.CursorToken{}, false
	}

	leftMatch := leftRe.FindStringSubmatch(left)
	rightMatch := rightRe.MatchString(right)
	if leftMatch == nil && !rightMatch {
		return model.CursorToken{}, false
	}

	tok := model.CursorToken{
		Name:  name,
		Shape: model.Call,
		Start: start,
		End:   end,
	}
	if leftMatch != nil {
		tok.NamespacePath = leftMatch[1]
		if !rightMatch {
			tok.Shape = model.Pointer
		}
	}
	return tok, true
}

// identifierAt returns the bounds of the identifier containing offset or
// ending right before it.
func identifierAt(text string, offset int) (int, int, bool) {
	if offset < 0 || offset > len(text) {
		return 0, 0, false
	}
	start := offset
	switch {
	case offset < len(text) && isIdentByte(text[offset]):
	case offset > 0 && isIdentByte(text[offset-1]):
		start = offset - 1
	default:
		return 0, 0, false
	}
	for start > 0 && isIdentByte(text[start-1]) {
		start--
	}
	end := start
	for end < len(text) && isIdentByte(text[end]) {
		end++
	}
	return start, end, true
}

func isIdentByte(c byte) bool {
	return c == '_' ||
		('a' <= c && c <= 'z') ||
		('A' <= c && c <= 'Z') ||
		('0' <= c && c <= '9')
}
