package patch

import (
	"errors"
	"fmt"
	"strings"
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

// ErrInvalidRange is returned when a change's position does not resolve to a
// valid offset within the text it is applied to. Out-of-bounds positions are
// never clamped.
var ErrInvalidRange = errors.New("invalid range")

// Position is a zero-based location in a document. Character counts UTF-16
// code units from the start of the line. Only '\n' terminates a line; '\r'
// is ordinary content.
type Position struct {
	Line      uint32
	Character uint32
}

// Range is a half-open span between two positions, end exclusive.
type Range struct {
	Start Position
	End   Position
}

// Change is a single edit operation. A nil Range replaces the whole document
// with Text; otherwise the range is spliced out and Text inserted in its
// place.
type Change struct {
	Range *Range
	Text  string
}

// Apply runs the changes over text strictly in order. Each change's positions
// are interpreted against the text produced by the previous change, not
// against the original input.
func Apply(text string, changes []Change) (string, error) {
	for i, change := range changes {
		next, err := applyOne(text, change)
		if err != nil {
			return "", fmt.Errorf("change %d: %w", i, err)
		}
		text = next
	}
	return text, nil
}

func applyOne(text string, change Change) (string, error) {
	if change.Range == nil {
		return change.Text, nil
	}

	start, err := Offset(text, change.Range.Start)
	if err != nil {
		return "", fmt.Errorf("start position: %w", err)
	}
	end, err := Offset(text, change.Range.End)
	if err != nil {
		return "", fmt.Errorf("end position: %w", err)
	}
	if end < start {
		return "", fmt.Errorf("end offset %d before start offset %d: %w", end, start, ErrInvalidRange)
	}

	var b strings.Builder
	b.Grow(len(text) - (end - start) + len(change.Text))
	b.WriteString(text[:start])
	b.WriteString(change.Text)
	b.WriteString(text[end:])
	return b.String(), nil
}

// Offset resolves pos to a byte offset into text. It rescans the text from
// the top on every call; the point of this engine is to be obviously
// correct, not fast, so the rescan stays.
func Offset(text string, pos Position) (int, error) {
	lineStart := 0
	for line := uint32(0); line < pos.Line; line++ {
		nl := strings.IndexByte(text[lineStart:], '\n')
		if nl < 0 {
			return 0, fmt.Errorf("line %d past end of document: %w", pos.Line, ErrInvalidRange)
		}
		lineStart += nl + 1
	}

	units := uint32(0)
	for i, r := range text[lineStart:] {
		if units == pos.Character {
			return lineStart + i, nil
		}
		if r == '\n' {
			return 0, fmt.Errorf("character %d past end of line %d: %w", pos.Character, pos.Line, ErrInvalidRange)
		}
		units += uint32(utf16RuneLen(r))
		if units > pos.Character {
			return 0, fmt.Errorf("character %d inside a code point on line %d: %w", pos.Character, pos.Line, ErrInvalidRange)
		}
	}
	if units == pos.Character {
		return len(text), nil
	}
	return 0, fmt.Errorf("character %d past end of line %d: %w", pos.Character, pos.Line, ErrInvalidRange)
}
