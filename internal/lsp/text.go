package lsp

import (
	"strings"
	"unicode/utf8"

	"fortio.org/safecast"
)

const maxUint32 = ^uint32(0)

func safeUint32(n int) uint32 {
	if n < 0 {
		return 0
	}
	v, err := safecast.Conv[uint32](n)
	if err != nil {
		return maxUint32
	}
	return v
}

func applyChanges(text string, changes []textDocumentContentChangeEvent) string {
	for _, change := range changes {
		if change.Range == nil {
			text = change.Text
			continue
		}
		start := offsetForPosition(text, change.Range.Start)
		end := offsetForPosition(text, change.Range.End)
		if end < start {
			end = start
		}
		text = text[:start] + change.Text + text[end:]
	}
	return text
}

// offsetForPosition converts a UTF-16 based position into a byte offset in
// text. Positions past the end of a line clamp to the line end; positions
// past the last line clamp to len(text).
func offsetForPosition(text string, pos position) int {
	line := uint32(0)
	i := 0
	for i < len(text) && line < pos.Line {
		if text[i] == '\n' {
			line++
		}
		i++
	}
	if line < pos.Line {
		return len(text)
	}
	units := uint32(0)
	for i < len(text) && units < pos.Character {
		if text[i] == '\n' || (text[i] == '\r' && strings.HasPrefix(text[i+1:], "\n")) {
			break
		}
		r, size := utf8.DecodeRuneInString(text[i:])
		need := uint32(1)
		if r > 0xFFFF {
			need = 2
		}
		if units+need > pos.Character {
			break
		}
		units += need
		i += size
	}
	return i
}

// positionForOffset converts a byte offset in text into a UTF-16 based position.
func positionForOffset(text string, offset int) position {
	offset = max(0, min(offset, len(text)))
	head := text[:offset]
	line := strings.Count(head, "\n")
	lineStart := strings.LastIndexByte(head, '\n') + 1

	units := 0
	for _, r := range head[lineStart:] {
		if r > 0xFFFF {
			units += 2
		} else {
			units++
		}
	}
	return position{Line: safeUint32(line), Character: safeUint32(units)}
}

func rangeForOffsets(text string, start, end int) lspRange {
	return lspRange{
		Start: positionForOffset(text, start),
		End:   positionForOffset(text, end),
	}
}
