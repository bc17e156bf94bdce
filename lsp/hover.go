package lsp

import (
	"fmt"

	"go.lsp.dev/protocol"

	"github.com/beehive-innovation/rainlang"
)

// Hover answers a hover query: binding kinds and contents, import targets
// and expression nodes under the cursor.
func Hover(rd *rainlang.RainDocument, position protocol.Position, markup protocol.MarkupKind) *protocol.Hover {
	text := rd.Text()
	offset := rainlang.OffsetAt(text, position)

	for i := range rd.Imports {
		imp := &rd.Imports[i]
		if offset >= imp.Position[0] && offset <= imp.Position[1] {
			return importHover(rd, imp, markup)
		}
	}

	for _, binding := range rd.Bindings {
		if offset >= binding.NamePosition[0] && offset <= binding.NamePosition[1] {
			return bindingHover(rd, binding, markup)
		}
		if offset >= binding.ContentPosition[0] && offset <= binding.ContentPosition[1] {
			if exp, ok := binding.Exp(); ok {
				if h := nodeHover(rd, exp.Document, offset, markup); h != nil {
					return h
				}
			}
			return bindingHover(rd, binding, markup)
		}
	}
	return nil
}

func importHover(rd *rainlang.RainDocument, imp *rainlang.Import, markup protocol.MarkupKind) *protocol.Hover {
	value := "unresolved import"
	if imp.Sequence != nil {
		switch {
		case imp.Sequence.Dotrain != nil:
			value = "imported rain document"
		case imp.Sequence.Dispair != nil:
			value = fmt.Sprintf("imported deployer with %d words",
				len(imp.Sequence.Dispair.ParsedWords))
		}
	}
	return hover(rd, value, imp.Position, markup)
}

func bindingHover(rd *rainlang.RainDocument, binding *rainlang.Binding, markup protocol.MarkupKind) *protocol.Hover {
	var value string
	switch item := binding.Item.(type) {
	case rainlang.ElidedBinding:
		value = "elided binding: " + item.Msg
	case rainlang.ConstantBinding:
		value = "constant: " + item.Value
	case rainlang.ExpBinding:
		value = renderCode(binding.Content, markup)
	default:
		value = "binding"
	}
	return hover(rd, value, binding.Position, markup)
}

// nodeHover descends the expression AST to the innermost node covering
// offset.
func nodeHover(rd *rainlang.RainDocument, doc *rainlang.RainlangDocument, offset int, markup protocol.MarkupKind) *protocol.Hover {
	for _, source := range doc.AST {
		for _, line := range source.Lines {
			for _, alias := range line.Aliases {
				if offset >= alias.Position[0] && offset <= alias.Position[1] {
					return hover(rd, "stack alias", alias.Position, markup)
				}
			}
			for _, node := range line.Nodes {
				if h := describeNode(rd, node, offset, markup); h != nil {
					return h
				}
			}
		}
	}
	return nil
}

func describeNode(rd *rainlang.RainDocument, node rainlang.Node, offset int, markup protocol.MarkupKind) *protocol.Hover {
	pos := node.NodePosition()
	if offset < pos[0] || offset > pos[1] {
		return nil
	}

	switch n := node.(type) {
	case rainlang.Opcode:
		for _, input := range n.Inputs {
			if h := describeNode(rd, input, offset, markup); h != nil {
				return h
			}
		}
		value := n.Opcode.Name
		if n.Opcode.Description != "" {
			value += ": " + n.Opcode.Description
		}
		return hover(rd, value, n.Opcode.Position, markup)
	case rainlang.Literal:
		value := n.Value
		if n.ID != "" {
			value = n.ID + ": " + n.Value
		}
		return hover(rd, value, pos, markup)
	case rainlang.Alias:
		return hover(rd, "stack alias", pos, markup)
	}
	return nil
}

func hover(rd *rainlang.RainDocument, value string, span rainlang.Offsets, markup protocol.MarkupKind) *protocol.Hover {
	return &protocol.Hover{
		Contents: protocol.MarkupContent{Kind: markup, Value: value},
		Range: &protocol.Range{
			Start: rainlang.PositionAt(rd.Text(), span[0]),
			End:   rainlang.PositionAt(rd.Text(), span[1]),
		},
	}
}
