package rainlang

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"go.lsp.dev/protocol"
)

// lineStarts returns the byte offset of the start of every line in text.
func lineStarts(text string) []int {
	starts := make([]int, 1, strings.Count(text, "\n")+1)
	starts[0] = 0
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return starts
}

// PositionAt converts a byte offset into a line/character position.
// Offsets outside the text clamp to its boundaries.
func PositionAt(text string, offset int) protocol.Position {
	if offset < 0 {
		offset = 0
	}
	if offset > len(text) {
		offset = len(text)
	}

	starts := lineStarts(text)
	line := sort.Search(len(starts), func(i int) bool {
		return starts[i] > offset
	}) - 1

	return protocol.Position{
		Line:      uint32(line),
		Character: uint32(offset - starts[line]),
	}
}

// OffsetAt converts a line/character position into a byte offset. Lines
// past the end clamp to the text length; characters past a line's end
// clamp to the start of the next line.
func OffsetAt(text string, position protocol.Position) int {
	starts := lineStarts(text)
	line := int(position.Line)
	if line >= len(starts) {
		return len(text)
	}

	lineEnd := len(text)
	if line+1 < len(starts) {
		lineEnd = starts[line+1]
	}

	offset := starts[line] + int(position.Character)
	if offset > lineEnd {
		offset = lineEnd
	}
	return offset
}

// InclusiveParse returns every match of pattern in text, each with its
// span shifted by offset.
func InclusiveParse(text string, pattern *regexp.Regexp, offset int) []ParsedItem {
	var items []ParsedItem
	for _, loc := range pattern.FindAllStringIndex(text, -1) {
		items = append(items, ParsedItem{
			Value:    text[loc[0]:loc[1]],
			Position: Offsets{loc[0] + offset, loc[1] + offset},
		})
	}
	return items
}

// ExclusiveParse returns the segments of text between matches of pattern,
// each with its span shifted by offset. Empty segments between adjacent
// matches are always kept; includeEmptyEnds controls only the empty
// segments before a leading match and after a trailing match.
func ExclusiveParse(text string, pattern *regexp.Regexp, offset int, includeEmptyEnds bool) []ParsedItem {
	locs := pattern.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return []ParsedItem{{Value: text, Position: Offsets{offset, offset + len(text)}}}
	}

	var items []ParsedItem
	prev := 0
	for i, loc := range locs {
		if loc[0] > prev || i > 0 || includeEmptyEnds {
			items = append(items, ParsedItem{
				Value:    text[prev:loc[0]],
				Position: Offsets{prev + offset, loc[0] + offset},
			})
		}
		prev = loc[1]
	}
	if prev < len(text) || includeEmptyEnds {
		items = append(items, ParsedItem{
			Value:    text[prev:],
			Position: Offsets{prev + offset, len(text) + offset},
		})
	}
	return items
}

func checkSpan(text string, position Offsets) error {
	if position[0] < 0 || position[1] > len(text) || position[0] > position[1] {
		return fmt.Errorf("%w: [%d, %d] in %d bytes", ErrOutOfBounds, position[0], position[1], len(text))
	}
	return nil
}

// FillIn replaces every non-whitespace byte inside position with a space,
// leaving whitespace untouched so line/column geometry is preserved. It
// fails with ErrOutOfBounds if position exceeds the text.
func FillIn(text string, position Offsets) (string, error) {
	if err := checkSpan(text, position); err != nil {
		return "", err
	}
	b := []byte(text)
	for i := position[0]; i < position[1]; i++ {
		if !unicode.IsSpace(rune(b[i])) {
			b[i] = ' '
		}
	}
	return string(b), nil
}

// FillOut replaces every non-whitespace byte outside position with a
// space, leaving whitespace untouched. It fails with ErrOutOfBounds if
// position exceeds the text.
func FillOut(text string, position Offsets) (string, error) {
	if err := checkSpan(text, position); err != nil {
		return "", err
	}
	b := []byte(text)
	for i := 0; i < len(b); i++ {
		if i >= position[0] && i < position[1] {
			continue
		}
		if !unicode.IsSpace(rune(b[i])) {
			b[i] = ' '
		}
	}
	return string(b), nil
}

// TrackedTrim trims surrounding whitespace and reports how many bytes were
// removed from each end.
func TrackedTrim(text string) (trimmed string, leading, trailing int) {
	trimmedLeft := strings.TrimLeftFunc(text, unicode.IsSpace)
	leading = len(text) - len(trimmedLeft)
	trimmed = strings.TrimRightFunc(trimmedLeft, unicode.IsSpace)
	trailing = len(trimmedLeft) - len(trimmed)
	return trimmed, leading, trailing
}
