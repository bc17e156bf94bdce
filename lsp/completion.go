package lsp

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"
	"go.lsp.dev/protocol"

	"github.com/beehive-innovation/rainlang"
)

// prefixChars are the characters that extend a completion prefix (and, at
// the cursor itself, suppress completion mid-token).
func isPrefixChar(c byte) bool {
	return c == '-' || c == '.' || c == '\'' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9')
}

// Complete answers a completion query at position. It returns nil when the
// position is not a trigger point: mid-token, on a leaf path, or inside an
// already-typed hash.
func Complete(rd *rainlang.RainDocument, position protocol.Position, markup protocol.MarkupKind) []protocol.CompletionItem {
	text := rd.Text()
	offset := rainlang.OffsetAt(text, position)

	if offset < len(text) && isPrefixChar(text[offset]) {
		return nil
	}

	for i := range rd.Imports {
		imp := &rd.Imports[i]
		if offset > imp.Position[0] && offset <= imp.Position[1]+1 {
			return completeImport(rd, imp, offset, position, markup)
		}
	}

	prefix, quoted := prefixAt(text, offset)
	if strings.Contains(prefix, ".") {
		return completePath(rd, prefix, markup)
	}

	var items []protocol.CompletionItem
	if !quoted {
		items = append(items, opcodeItems(rd, markup)...)
		items = append(items, stackAliasItems(rd, offset, position)...)
	}
	items = append(items, namespaceItems(rd.Namespace, markup)...)
	return rank(items, prefix)
}

// prefixAt extracts the identifier run immediately before the cursor,
// reporting whether it was a quoted (by-name) reference.
func prefixAt(text string, offset int) (string, bool) {
	start := offset
	for start > 0 && isPrefixChar(text[start-1]) {
		start--
	}
	prefix := text[start:offset]
	if strings.HasPrefix(prefix, "'") {
		return prefix[1:], true
	}
	return prefix, false
}

// completeImport handles a cursor inside an import statement: namespace
// entries of the imported document in the configuration segment, document
// and meta hashes in the head segment.
func completeImport(rd *rainlang.RainDocument, imp *rainlang.Import, offset int, position protocol.Position, markup protocol.MarkupKind) []protocol.CompletionItem {
	text := rd.Text()

	inConfig := imp.Hash != "" && offset > imp.HashPosition[1]
	if inConfig && imp.Sequence != nil && imp.Sequence.Dotrain != nil {
		prefix, _ := prefixAt(text, offset)
		if rainlang.WordPattern.MatchString(prefix) {
			return rank(namespaceItems(imp.Sequence.Dotrain.Namespace, markup), prefix)
		}
		return nil
	}

	// past the @ marker itself
	headStart := imp.Position[0] + 1
	head := text[headStart:offset]
	chunks := strings.Fields(head)
	if len(chunks) > 3 {
		return nil
	}
	for i, chunk := range chunks {
		if i > 1 {
			break
		}
		if rainlang.HashPattern.MatchString(chunk) {
			return nil
		}
	}

	// the partial token being replaced, empty when the cursor follows
	// whitespace
	partialStart := offset
	for partialStart > headStart && !isSpace(text[partialStart-1]) {
		partialStart--
	}
	partial := text[partialStart:offset]
	replaceRange := protocol.Range{
		Start: rainlang.PositionAt(text, partialStart),
		End:   position,
	}

	var items []protocol.CompletionItem
	current := string(rd.URI())
	for docURI, hash := range rd.Store().DocumentCache() {
		if docURI == current {
			continue
		}
		items = append(items, protocol.CompletionItem{
			Label:  docURI,
			Kind:   protocol.CompletionItemKindFile,
			Detail: hash,
			TextEdit: &protocol.TextEdit{
				Range:   replaceRange,
				NewText: hash,
			},
			Documentation: &protocol.MarkupContent{
				Kind:  markup,
				Value: "rain document at " + docURI,
			},
		})
	}

	if rainlang.MetaHashPrefixPattern.MatchString(partial) {
		for hash := range rd.Store().Cache() {
			items = append(items, protocol.CompletionItem{
				Label:  hash,
				Kind:   protocol.CompletionItemKindConstant,
				Detail: "meta hash",
				TextEdit: &protocol.TextEdit{
					Range:   replaceRange,
					NewText: hash,
				},
			})
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Label < items[j].Label })
	return items
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// completePath walks a dotted prefix through the namespace and offers the
// children of the interior node it lands on.
func completePath(rd *rainlang.RainDocument, prefix string, markup protocol.MarkupKind) []protocol.CompletionItem {
	segments := strings.Split(prefix, ".")
	if len(segments) > rainlang.MaxNamespaceDepth {
		return nil
	}

	// all but the trailing partial segment must be complete identifiers
	for _, segment := range segments[:len(segments)-1] {
		if !rainlang.WordPattern.MatchString(segment) {
			return nil
		}
	}

	current := rd.Namespace
	for _, segment := range segments[:len(segments)-1] {
		child, ok := current.Nested(segment)
		if !ok {
			return nil
		}
		current = child
	}
	return rank(namespaceItems(current, markup), segments[len(segments)-1])
}

// namespaceItems renders the direct children of a namespace, tagged by
// kind.
func namespaceItems(ns rainlang.Namespace, markup protocol.MarkupKind) []protocol.CompletionItem {
	var items []protocol.CompletionItem
	for name, item := range ns {
		switch v := item.(type) {
		case rainlang.Namespace:
			items = append(items, protocol.CompletionItem{
				Label:      name,
				Kind:       protocol.CompletionItemKindField,
				Detail:     "namespace",
				InsertText: name,
			})
		case rainlang.NamespaceNode:
			items = append(items, leafItem(name, v, markup))
		}
	}
	return items
}

func leafItem(name string, node rainlang.NamespaceNode, markup protocol.MarkupKind) protocol.CompletionItem {
	item := protocol.CompletionItem{
		Label:      name,
		InsertText: name,
	}

	if dispair, ok := node.Dispair(); ok {
		item.Kind = protocol.CompletionItemKindInterface
		item.Detail = "deployer"
		item.Documentation = &protocol.MarkupContent{
			Kind:  markup,
			Value: fmt.Sprintf("deployer with %d words", len(dispair.ParsedWords)),
		}
		return item
	}

	binding, _ := node.Binding()
	switch b := binding.Item.(type) {
	case rainlang.ConstantBinding:
		item.Kind = protocol.CompletionItemKindConstant
		item.Detail = "constant binding"
		item.Documentation = &protocol.MarkupContent{Kind: markup, Value: b.Value}
	case rainlang.ElidedBinding:
		item.Kind = protocol.CompletionItemKindVariable
		item.Detail = "elided binding"
		item.Documentation = &protocol.MarkupContent{Kind: markup, Value: b.Msg}
	case rainlang.ExpBinding:
		item.Kind = protocol.CompletionItemKindClass
		item.Detail = "expression binding"
		item.Documentation = &protocol.MarkupContent{
			Kind:  markup,
			Value: renderCode(binding.Content, markup),
		}
	default:
		item.Kind = protocol.CompletionItemKindVariable
		item.Detail = "binding"
	}
	return item
}

// renderCode fences source text when the client asked for markdown.
func renderCode(content string, markup protocol.MarkupKind) string {
	if markup == protocol.Markdown {
		return "```rainlang\n" + content + "\n```"
	}
	return content
}

func opcodeItems(rd *rainlang.RainDocument, markup protocol.MarkupKind) []protocol.CompletionItem {
	if rd.KnownWords == nil {
		return nil
	}
	items := make([]protocol.CompletionItem, 0, len(rd.KnownWords.Words))
	for _, word := range rd.KnownWords.Words {
		items = append(items, protocol.CompletionItem{
			Label:      word.Word,
			Kind:       protocol.CompletionItemKindFunction,
			Detail:     "opcode",
			InsertText: word.Word,
			Documentation: &protocol.MarkupContent{
				Kind:  markup,
				Value: word.Description,
			},
		})
	}
	return items
}

// stackAliasItems offers aliases declared on lines strictly before the
// cursor's line inside the expression binding under the cursor.
func stackAliasItems(rd *rainlang.RainDocument, offset int, position protocol.Position) []protocol.CompletionItem {
	var items []protocol.CompletionItem
	for _, binding := range rd.Bindings {
		exp, ok := binding.Exp()
		if !ok {
			continue
		}
		if offset < binding.ContentPosition[0] || offset > binding.Position[1] {
			continue
		}
		for _, source := range exp.Document.AST {
			for _, line := range source.Lines {
				lineEnd := rainlang.PositionAt(rd.Text(), line.Position[1])
				if lineEnd.Line >= position.Line {
					continue
				}
				for _, alias := range line.Aliases {
					if alias.Name == "_" {
						continue
					}
					items = append(items, protocol.CompletionItem{
						Label:      alias.Name,
						Kind:       protocol.CompletionItemKindVariable,
						Detail:     "stack alias",
						InsertText: alias.Name,
					})
				}
			}
		}
	}
	return items
}

// rank orders candidates by fuzzy relevance to the typed prefix, dropping
// non-matches. An empty prefix keeps everything in label order.
func rank(items []protocol.CompletionItem, prefix string) []protocol.CompletionItem {
	if len(items) == 0 {
		return nil
	}
	if prefix == "" {
		sort.Slice(items, func(i, j int) bool { return items[i].Label < items[j].Label })
		return items
	}

	labels := make([]string, len(items))
	for i, item := range items {
		labels[i] = item.Label
	}
	matches := fuzzy.Find(prefix, labels)
	if len(matches) == 0 {
		return nil
	}
	ranked := make([]protocol.CompletionItem, 0, len(matches))
	for _, m := range matches {
		ranked = append(ranked, items[m.Index])
	}
	return ranked
}
