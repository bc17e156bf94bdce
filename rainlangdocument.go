package rainlang

import (
	"regexp"
	"strings"

	"github.com/beehive-innovation/rainlang/meta"
)

var (
	semiPattern  = regexp.MustCompile(`;`)
	commaPattern = regexp.MustCompile(`,`)
	tokenPattern = regexp.MustCompile(`^[^\s()<>,;]+`)
)

// RainlangDocument is the expression AST of one binding's content. It is
// self-contained: problems raised while parsing the fragment accumulate
// here and are later copied onto the owning binding.
type RainlangDocument struct {
	Text         string
	AST          []RainlangSource
	Problems     []Problem
	Comments     []Comment
	Dependencies []string
}

// ParseRainlang parses one expression fragment against the resolving
// namespace and the active word set. The parse is error tolerant: it
// always returns a document, with problems recorded in place of any
// unparseable region.
func ParseRainlang(text string, namespace Namespace, words *meta.AuthoringMeta) *RainlangDocument {
	d := &RainlangDocument{Text: text}
	p := &fragmentParser{doc: d, namespace: namespace, words: words}
	p.parse()
	return d
}

type fragmentParser struct {
	doc       *RainlangDocument
	namespace Namespace
	words     *meta.AuthoringMeta
}

func (p *fragmentParser) problem(code ErrorCode, position Offsets, items ...any) {
	p.doc.Problems = append(p.doc.Problems, code.Problem(position, items...))
}

func (p *fragmentParser) parse() {
	working := p.doc.Text

	// Comments are legal at document level but not inside expressions.
	for _, item := range InclusiveParse(working, CommentPattern, 0) {
		p.doc.Comments = append(p.doc.Comments, Comment{
			Comment:  item.Value,
			Position: item.Position,
		})
		if !strings.HasSuffix(item.Value, "*/") {
			p.problem(ErrCodeUnexpectedEndOfComment, Offsets{item.Position[1], item.Position[1]})
		}
		p.problem(ErrCodeUnexpectedComment, item.Position)

		filled, err := FillIn(working, item.Position)
		if err != nil {
			p.problem(ErrCodeRuntimeError, Offsets{0, 0}, err.Error())
			return
		}
		working = filled
	}

	// Scanning stops at the first byte outside the 7-bit range.
	if loc := NonASCIIPattern.FindStringIndex(working); loc != nil {
		p.problem(ErrCodeIllegalChar, Offsets{loc[0], loc[1]}, working[loc[0]:loc[1]])

		filled, err := FillIn(working, Offsets{loc[0], len(working)})
		if err != nil {
			p.problem(ErrCodeRuntimeError, Offsets{0, 0}, err.Error())
			return
		}
		working = filled
	}

	trimmed, _, trailing := TrackedTrim(working)
	if trimmed != "" && !strings.HasSuffix(trimmed, ";") {
		end := len(working) - trailing
		p.problem(ErrCodeExpectedSemi, Offsets{end - 1, end})
	}

	for _, chunk := range ExclusiveParse(working, semiPattern, 0, false) {
		if strings.TrimSpace(chunk.Value) == "" {
			continue
		}
		p.parseSource(chunk)
	}
}

func (p *fragmentParser) parseSource(chunk ParsedItem) {
	_, leading, trailing := TrackedTrim(chunk.Value)
	source := RainlangSource{
		Position: Offsets{chunk.Position[0] + leading, chunk.Position[1] - trailing},
	}

	lines := ExclusiveParse(chunk.Value, commaPattern, chunk.Position[0], true)
	for _, line := range lines {
		if strings.TrimSpace(line.Value) == "" {
			if len(lines) > 1 {
				p.problem(ErrCodeInvalidEmptyLine, line.Position)
			}
			continue
		}
		source.Lines = append(source.Lines, p.parseLine(line, source.Lines))
	}
	p.doc.AST = append(p.doc.AST, source)
}

func (p *fragmentParser) parseLine(seg ParsedItem, previous []RainlangLine) RainlangLine {
	_, leading, trailing := TrackedTrim(seg.Value)
	line := RainlangLine{
		Position: Offsets{seg.Position[0] + leading, seg.Position[1] - trailing},
	}

	sep := strings.Index(seg.Value, ":")
	if sep < 0 {
		p.problem(ErrCodeInvalidExpression, line.Position)
		return line
	}

	line.Aliases = p.parseAliases(seg.Value[:sep], seg.Position[0])
	line.Nodes = p.parseFragment(seg.Value[sep+1:], seg.Position[0]+sep+1, previous)
	return line
}

func (p *fragmentParser) parseAliases(text string, offset int) []Alias {
	var aliases []Alias
	seen := map[string]bool{}
	for _, item := range ExclusiveParse(text, WSPattern, offset, false) {
		if item.Value == "" {
			continue
		}
		if item.Value != "_" && !WordPattern.MatchString(item.Value) {
			p.problem(ErrCodeInvalidWordPattern, item.Position, item.Value)
			continue
		}
		if item.Value != "_" && seen[item.Value] {
			p.problem(ErrCodeDuplicateAlias, item.Position, item.Value)
		}
		seen[item.Value] = true
		aliases = append(aliases, Alias{Name: item.Value, Position: item.Position})
	}
	return aliases
}

// parseFragment scans the right-hand side of a line, tracking parenthesis
// nesting with an explicit opcode stack.
func (p *fragmentParser) parseFragment(text string, offset int, previous []RainlangLine) []Node {
	var nodes []Node
	var stack []*Opcode
	var pending *Opcode

	attach := func(n Node) {
		if len(stack) > 0 {
			top := stack[len(stack)-1]
			top.Inputs = append(top.Inputs, n)
		} else {
			nodes = append(nodes, n)
		}
	}

	cursor := 0
	for cursor < len(text) {
		c := text[cursor]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			cursor++

		case c == '(':
			if pending == nil {
				p.problem(ErrCodeExpectedOpcode, Offsets{offset + cursor, offset + cursor + 1})
				pending = &Opcode{
					Opcode:   OpcodeDetails{Position: Offsets{offset + cursor, offset + cursor}},
					Position: Offsets{offset + cursor, offset + cursor},
				}
			}
			pending.ParensPosition[0] = offset + cursor
			pending.ParenOpen = true
			stack = append(stack, pending)
			pending = nil
			cursor++

		case c == ')':
			if pending != nil {
				p.problem(ErrCodeExpectedOpeningParen, pending.Position)
				attachOrphan(pending, &nodes, stack)
				pending = nil
			}
			if len(stack) == 0 {
				p.problem(ErrCodeUnexpectedClosingParen, Offsets{offset + cursor, offset + cursor + 1})
				cursor++
				continue
			}
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			top.ParensPosition[1] = offset + cursor + 1
			top.Position[1] = offset + cursor + 1
			top.ParenOpen = false
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				parent.Inputs = append(parent.Inputs, *top)
			} else {
				nodes = append(nodes, *top)
			}
			cursor++

		case c == '<':
			end := strings.IndexByte(text[cursor:], '>')
			if end < 0 {
				p.problem(ErrCodeExpectedClosingAngleBracket,
					Offsets{offset + cursor, offset + len(text)})
				cursor = len(text)
				continue
			}
			span := Offsets{offset + cursor, offset + cursor + end + 1}
			if pending == nil {
				p.problem(ErrCodeExpectedOperandArgs, span)
			} else {
				pending.OperandArgs = p.parseOperandArgs(
					text[cursor+1:cursor+end], offset+cursor+1, span)
				pending.Position[1] = span[1]
			}
			cursor += end + 1

		case c == '>':
			p.problem(ErrCodeUnexpectedClosingAngleParen,
				Offsets{offset + cursor, offset + cursor + 1})
			cursor++

		default:
			if pending != nil {
				p.problem(ErrCodeExpectedOpeningParen, pending.Position)
				attachOrphan(pending, &nodes, stack)
				pending = nil
			}
			m := tokenPattern.FindString(text[cursor:])
			if m == "" {
				cursor++
				continue
			}
			span := Offsets{offset + cursor, offset + cursor + len(m)}
			opcodeNext := strings.HasPrefix(text[cursor+len(m):], "(") ||
				strings.HasPrefix(text[cursor+len(m):], "<")

			if opcodeNext {
				pending = p.makeOpcode(m, span)
			} else {
				if node := p.resolveToken(m, span, previous); node != nil {
					attach(node)
				}
			}
			cursor += len(m)
		}
	}

	if pending != nil {
		p.problem(ErrCodeExpectedOpeningParen, pending.Position)
		attachOrphan(pending, &nodes, stack)
	}
	for i := len(stack) - 1; i >= 0; i-- {
		top := stack[i]
		p.problem(ErrCodeExpectedClosingParen,
			Offsets{top.ParensPosition[0], offset + len(text)})
		top.Position[1] = offset + len(text)
		if i > 0 {
			stack[i-1].Inputs = append(stack[i-1].Inputs, *top)
		} else {
			nodes = append(nodes, *top)
		}
	}
	return nodes
}

// attachOrphan files an opcode that never got its parenthesis.
func attachOrphan(op *Opcode, nodes *[]Node, stack []*Opcode) {
	if len(stack) > 0 {
		top := stack[len(stack)-1]
		top.Inputs = append(top.Inputs, *op)
	} else {
		*nodes = append(*nodes, *op)
	}
}

func (p *fragmentParser) makeOpcode(word string, span Offsets) *Opcode {
	op := &Opcode{
		Opcode:   OpcodeDetails{Name: word, Position: span},
		Position: span,
	}
	if !WordPattern.MatchString(word) {
		p.problem(ErrCodeInvalidWordPattern, span, word)
		return op
	}
	if p.words == nil {
		p.problem(ErrCodeUndefinedAuthoringMeta, span)
		return op
	}
	entry, ok := p.words.Lookup(word)
	if !ok {
		p.problem(ErrCodeUndefinedOpcode, span, word)
		return op
	}
	op.Opcode.Description = entry.Description
	return op
}

func (p *fragmentParser) parseOperandArgs(text string, offset int, span Offsets) *OperandArg {
	arg := &OperandArg{Position: span}
	for _, item := range InclusiveParse(text, OperandArgsPattern, offset) {
		out := OperandArgItem{Position: item.Position}
		switch {
		case NumericPattern.MatchString(item.Value):
			if _, err := ToUint256(item.Value); err != nil {
				p.problem(ErrCodeOutOfRangeOperandArgs, item.Position)
			}
			out.Value = item.Value
		case QuotePattern.MatchString(item.Value):
			name := item.Value[1:]
			p.checkQuote(name, item.Position)
			out.Value = item.Value
			out.Name = name
		default:
			p.problem(ErrCodeInvalidOperandArg, item.Position, item.Value)
			out.Value = item.Value
		}
		arg.Args = append(arg.Args, out)
	}
	return arg
}

// checkQuote validates a by-name binding reference and records it as a
// dependency when it lands on an expression binding.
func (p *fragmentParser) checkQuote(name string, span Offsets) {
	node, ok := searchName(p.namespace, name)
	if !ok {
		p.problem(ErrCodeUndefinedQuote, span, name)
		return
	}
	leaf, isLeaf := node.(NamespaceNode)
	if !isLeaf {
		p.problem(ErrCodeUnexpectedNamespacePath, span)
		return
	}
	binding, isBinding := leaf.Binding()
	if !isBinding {
		p.problem(ErrCodeUndefinedQuote, span, name)
		return
	}
	switch item := binding.Item.(type) {
	case ConstantBinding:
		p.problem(ErrCodeInvalidQuote, span, name)
	case ElidedBinding:
		p.problem(ErrCodeElidedBinding, span, item.Msg)
	case ExpBinding:
		p.doc.Dependencies = append(p.doc.Dependencies, name)
	}
}

// resolveToken classifies a bare RHS token: numeric literal, quote, stack
// alias reference or namespace reference.
func (p *fragmentParser) resolveToken(token string, span Offsets, previous []RainlangLine) Node {
	if NumericPattern.MatchString(token) {
		if _, err := ToUint256(token); err != nil {
			p.problem(ErrCodeOutOfRangeValue, span)
		}
		return Literal{Value: token, Position: span}
	}

	if strings.HasPrefix(token, "'") {
		if !QuotePattern.MatchString(token) {
			p.problem(ErrCodeInvalidWordPattern, span, token)
			return Literal{Value: token, Position: span}
		}
		p.checkQuote(token[1:], span)
		return Literal{Value: token, Position: span, ID: token[1:]}
	}

	if strings.Contains(token, ".") {
		return p.resolvePath(token, span)
	}

	if !WordPattern.MatchString(token) {
		p.problem(ErrCodeInvalidWordPattern, span, token)
		return Literal{Value: token, Position: span}
	}

	for _, line := range previous {
		for _, alias := range line.Aliases {
			if alias.Name == token {
				return Alias{Name: token, Position: span}
			}
		}
	}

	if item, ok := p.namespace[token]; ok {
		return p.referenceNode(token, span, item)
	}

	p.problem(ErrCodeUndefinedWord, span, token)
	return Opcode{
		Opcode:   OpcodeDetails{Name: token, Position: span},
		Position: span,
	}
}

func (p *fragmentParser) resolvePath(token string, span Offsets) Node {
	if !NamespacePattern.MatchString(token) {
		p.problem(ErrCodeInvalidWordPattern, span, token)
		return Literal{Value: token, Position: span}
	}
	item, ok := searchName(p.namespace, token)
	if !ok {
		p.problem(ErrCodeUndefinedIdentifier, span, token)
		return Literal{Value: token, Position: span}
	}
	return p.referenceNode(token, span, item)
}

// referenceNode builds the AST node for a direct (by-value) reference.
// Only constant bindings may be referenced this way.
func (p *fragmentParser) referenceNode(name string, span Offsets, item NamespaceItem) Node {
	leaf, isLeaf := item.(NamespaceNode)
	if !isLeaf {
		p.problem(ErrCodeInvalidNamespaceReference, span, name)
		return Literal{Value: name, Position: span}
	}
	binding, isBinding := leaf.Binding()
	if !isBinding {
		p.problem(ErrCodeInvalidReference, span, name)
		return Literal{Value: name, Position: span}
	}
	switch b := binding.Item.(type) {
	case ConstantBinding:
		return Literal{Value: b.Value, Position: span, ID: name}
	case ElidedBinding:
		p.problem(ErrCodeElidedBinding, span, b.Msg)
	default:
		p.problem(ErrCodeInvalidReference, span, name)
	}
	return Literal{Value: name, Position: span, ID: name}
}
