package lsp

import (
	"go.lsp.dev/protocol"

	"github.com/beehive-innovation/rainlang"
)

// SemanticTokens renders every elided fragment of the document as a
// delta-encoded token stream. tokenType is the index the client assigned
// to the elision token type; modifiersLen is the width of its modifier
// bitset, reported fully set so clients can style elisions prominently.
func SemanticTokens(rd *rainlang.RainDocument, tokenType, modifiersLen int) *protocol.SemanticTokens {
	text := rd.Text()
	modifiers := uint32(1<<uint(modifiersLen)) - 1

	var spans []rainlang.Offsets
	for _, binding := range rd.Bindings {
		if _, ok := binding.Elided(); !ok {
			continue
		}
		spans = append(spans, binding.ContentPosition)
	}

	data := make([]uint32, 0, len(spans)*5)
	var prevLine, prevChar uint32
	for _, span := range spans {
		// multi-line spans emit one token per covered line
		start := rainlang.PositionAt(text, span[0])
		end := rainlang.PositionAt(text, span[1])
		for line := start.Line; line <= end.Line; line++ {
			char := uint32(0)
			if line == start.Line {
				char = start.Character
			}
			length := lineLength(text, line) - char
			if line == end.Line {
				length = end.Character - char
			}
			if length == 0 {
				continue
			}

			deltaLine := line - prevLine
			deltaChar := char
			if deltaLine == 0 {
				deltaChar = char - prevChar
			}
			data = append(data, deltaLine, deltaChar, length, uint32(tokenType), modifiers)
			prevLine, prevChar = line, char
		}
	}
	return &protocol.SemanticTokens{Data: data}
}

func lineLength(text string, line uint32) uint32 {
	start := rainlang.OffsetAt(text, protocol.Position{Line: line, Character: 0})
	end := rainlang.OffsetAt(text, protocol.Position{Line: line + 1, Character: 0})
	length := end - start
	if length > 0 && start+length <= len(text) && text[start+length-1] == '\n' {
		length--
	}
	return uint32(length)
}
