package engine

import (
	"fmt"
)

// utf16RuneLen mirrors utf16.RuneLen from Go 1.23, which is unavailable on
// older toolchains.
func utf16RuneLen(r rune) int {
	switch {
	case 0 <= r && r < 0xd800, 0xe000 <= r && r < 0x10000:
		return 1
	case 0x10000 <= r && r <= '\U0010FFFF':
		return 2
	default:
		return -1
	}
}

// lineSpan records where a line starts and how long it is, in bytes and in
// UTF-16 code units. The trailing '\n' is not part of the span.
type lineSpan struct {
	start    int
	byteLen  int
	utf16Len int
}

// lineIndex maps line numbers to spans so position lookups don't rescan the
// whole document. Rebuilt after every splice.
type lineIndex []lineSpan

func buildIndex(content string) lineIndex {
	var ix lineIndex
	lineStart := 0
	units := 0
	for i, r := range content {
		if r == '\n' {
			ix = append(ix, lineSpan{start: lineStart, byteLen: i - lineStart, utf16Len: units})
			lineStart = i + 1
			units = 0
			continue
		}
		units += utf16RuneLen(r)
	}
	ix = append(ix, lineSpan{start: lineStart, byteLen: len(content) - lineStart, utf16Len: units})
	return ix
}

// offset resolves a line/UTF-16 position to a byte offset into content.
func (ix lineIndex) offset(content string, line, char uint32) (int, error) {
	if int(line) >= len(ix) {
		return 0, fmt.Errorf("line %d out of range: %w", line, ErrBadPosition)
	}
	span := ix[line]
	target := int(char)
	if target > span.utf16Len {
		return 0, fmt.Errorf("character %d out of range on line %d: %w", char, line, ErrBadPosition)
	}

	units := 0
	for i, r := range content[span.start : span.start+span.byteLen] {
		if units == target {
			return span.start + i, nil
		}
		units += utf16RuneLen(r)
		if units > target {
			return 0, fmt.Errorf("character %d inside a code point on line %d: %w", char, line, ErrBadPosition)
		}
	}
	return span.start + span.byteLen, nil
}
