package rainlang_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beehive-innovation/rainlang"
	"github.com/beehive-innovation/rainlang/meta"
)

func testWords() *meta.AuthoringMeta {
	return &meta.AuthoringMeta{Words: []meta.AuthoringWord{
		{Word: "add", Description: "sums all inputs"},
		{Word: "sub", Description: "subtracts"},
		{Word: "int-max", Description: "maximum of inputs"},
	}}
}

func testNamespace() rainlang.Namespace {
	constant := &rainlang.Binding{
		Name:    "fee",
		Content: "100",
		Item:    rainlang.ConstantBinding{Value: "100"},
	}
	elided := &rainlang.Binding{
		Name:    "target",
		Content: "! must be rebound",
		Item:    rainlang.ElidedBinding{Msg: "must be rebound"},
	}
	exp := &rainlang.Binding{
		Name:    "calc",
		Content: "_: add(1 2);",
		Item:    rainlang.ExpBinding{Document: &rainlang.RainlangDocument{}},
	}
	return rainlang.Namespace{
		"fee":    rainlang.NamespaceNode{Hash: "root", ImportIndex: -1, Element: constant},
		"target": rainlang.NamespaceNode{Hash: "root", ImportIndex: -1, Element: elided},
		"calc":   rainlang.NamespaceNode{Hash: "root", ImportIndex: -1, Element: exp},
	}
}

func codes(problems []rainlang.Problem) []rainlang.ErrorCode {
	out := make([]rainlang.ErrorCode, len(problems))
	for i, p := range problems {
		out[i] = p.Code
	}
	return out
}

func TestParseRainlangBasic(t *testing.T) {
	t.Parallel()

	doc := rainlang.ParseRainlang("a b: add(1 0x02), _: sub(a b);", testNamespace(), testWords())
	require.Empty(t, doc.Problems)
	require.Len(t, doc.AST, 1)
	require.Len(t, doc.AST[0].Lines, 2)

	first := doc.AST[0].Lines[0]
	require.Len(t, first.Aliases, 2)
	assert.Equal(t, "a", first.Aliases[0].Name)
	assert.Equal(t, "b", first.Aliases[1].Name)
	require.Len(t, first.Nodes, 1)

	op, ok := first.Nodes[0].(rainlang.Opcode)
	require.True(t, ok)
	assert.Equal(t, "add", op.Opcode.Name)
	assert.Equal(t, "sums all inputs", op.Opcode.Description)
	require.Len(t, op.Inputs, 2)

	second := doc.AST[0].Lines[1]
	op, ok = second.Nodes[0].(rainlang.Opcode)
	require.True(t, ok)
	require.Len(t, op.Inputs, 2)
	alias, ok := op.Inputs[0].(rainlang.Alias)
	require.True(t, ok)
	assert.Equal(t, "a", alias.Name)
}

func TestParseRainlangLiteralNodes(t *testing.T) {
	t.Parallel()

	doc := rainlang.ParseRainlang("_ _: 0x0a 25;", testNamespace(), testWords())
	require.Empty(t, doc.Problems)

	expected := []rainlang.Node{
		rainlang.Literal{Value: "0x0a", Position: rainlang.Offsets{5, 9}},
		rainlang.Literal{Value: "25", Position: rainlang.Offsets{10, 12}},
	}
	if diff := cmp.Diff(expected, doc.AST[0].Lines[0].Nodes); diff != "" {
		t.Errorf("nodes mismatch (-want +got):\n%s", diff)
	}
}

func TestParseRainlangEmptyLines(t *testing.T) {
	t.Parallel()

	// adjacent commas give a zero width line
	doc := rainlang.ParseRainlang("_: 1,,_: 2;", testNamespace(), testWords())
	assert.Contains(t, codes(doc.Problems), rainlang.ErrCodeInvalidEmptyLine)
	require.Len(t, doc.AST, 1)
	assert.Len(t, doc.AST[0].Lines, 2)

	// trailing comma before the semi
	doc = rainlang.ParseRainlang("_: 1,;", testNamespace(), testWords())
	assert.Contains(t, codes(doc.Problems), rainlang.ErrCodeInvalidEmptyLine)
}

func TestParseRainlangOffsets(t *testing.T) {
	t.Parallel()

	text := "out: add(1 2);"
	doc := rainlang.ParseRainlang(text, testNamespace(), testWords())
	require.Len(t, doc.AST, 1)
	require.Len(t, doc.AST[0].Lines, 1)

	line := doc.AST[0].Lines[0]
	alias := line.Aliases[0]
	assert.Equal(t, "out", text[alias.Position[0]:alias.Position[1]])

	op := line.Nodes[0].(rainlang.Opcode)
	assert.Equal(t, "add", text[op.Opcode.Position[0]:op.Opcode.Position[1]])
	assert.Equal(t, "(1 2)", text[op.ParensPosition[0]:op.ParensPosition[1]])
}

func TestParseRainlangProblems(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		text     string
		expected rainlang.ErrorCode
	}{
		{"missing semi", "_: add(1 2)", rainlang.ErrCodeExpectedSemi},
		{"unknown opcode", "_: mul(1 2);", rainlang.ErrCodeUndefinedOpcode},
		{"unexpected close paren", "_: add(1 2));", rainlang.ErrCodeUnexpectedClosingParen},
		{"unclosed paren", "_: add(1 2;", rainlang.ErrCodeExpectedClosingParen},
		{"undefined word", "_: add(1 unknown);", rainlang.ErrCodeUndefinedWord},
		{"comment inside expression", "/* note */ _: add(1 2);", rainlang.ErrCodeUnexpectedComment},
		{"duplicate alias", "a a: add(1 2);", rainlang.ErrCodeDuplicateAlias},
		{"bad alias", "A_b: add(1 2);", rainlang.ErrCodeInvalidWordPattern},
		{"orphan paren", "_: (1 2);", rainlang.ErrCodeExpectedOpcode},
		{"illegal char", "_: add(1 é);", rainlang.ErrCodeIllegalChar},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			doc := rainlang.ParseRainlang(tt.text, testNamespace(), testWords())
			assert.Contains(t, codes(doc.Problems), tt.expected)
		})
	}
}

func TestParseRainlangReferences(t *testing.T) {
	t.Parallel()

	// constants resolve to their value
	doc := rainlang.ParseRainlang("_: add(fee 1);", testNamespace(), testWords())
	require.Empty(t, doc.Problems)
	op := doc.AST[0].Lines[0].Nodes[0].(rainlang.Opcode)
	lit, ok := op.Inputs[0].(rainlang.Literal)
	require.True(t, ok)
	assert.Equal(t, "100", lit.Value)
	assert.Equal(t, "fee", lit.ID)

	// expression bindings cannot be referenced by value
	doc = rainlang.ParseRainlang("_: add(calc 1);", testNamespace(), testWords())
	assert.Contains(t, codes(doc.Problems), rainlang.ErrCodeInvalidReference)

	// elided bindings surface their elision message
	doc = rainlang.ParseRainlang("_: add(target 1);", testNamespace(), testWords())
	assert.Contains(t, codes(doc.Problems), rainlang.ErrCodeElidedBinding)
}

func TestParseRainlangQuotes(t *testing.T) {
	t.Parallel()

	// quoting an expression binding records a dependency
	doc := rainlang.ParseRainlang("_: add(1 2), _: 'calc;", testNamespace(), testWords())
	require.Empty(t, doc.Problems)
	assert.Equal(t, []string{"calc"}, doc.Dependencies)

	// constants cannot be quoted
	doc = rainlang.ParseRainlang("_: 'fee;", testNamespace(), testWords())
	assert.Contains(t, codes(doc.Problems), rainlang.ErrCodeInvalidQuote)

	// unknown quote target
	doc = rainlang.ParseRainlang("_: 'missing;", testNamespace(), testWords())
	assert.Contains(t, codes(doc.Problems), rainlang.ErrCodeUndefinedQuote)
}

func TestParseRainlangOperandArgs(t *testing.T) {
	t.Parallel()

	doc := rainlang.ParseRainlang("_: int-max<2 'calc>(1 2);", testNamespace(), testWords())
	require.Empty(t, doc.Problems)

	op := doc.AST[0].Lines[0].Nodes[0].(rainlang.Opcode)
	require.NotNil(t, op.OperandArgs)
	require.Len(t, op.OperandArgs.Args, 2)
	assert.Equal(t, "2", op.OperandArgs.Args[0].Value)
	assert.Equal(t, "calc", op.OperandArgs.Args[1].Name)
	assert.Equal(t, []string{"calc"}, doc.Dependencies)

	doc = rainlang.ParseRainlang("_: int-max<$$>(1 2);", testNamespace(), testWords())
	assert.Contains(t, codes(doc.Problems), rainlang.ErrCodeInvalidOperandArg)

	doc = rainlang.ParseRainlang("_: int-max<2(1 2);", testNamespace(), testWords())
	assert.Contains(t, codes(doc.Problems), rainlang.ErrCodeExpectedClosingAngleBracket)
}

// Parsing twice yields identical structure.
func TestParseRainlangIdempotent(t *testing.T) {
	t.Parallel()

	text := "a b: add(1 2) sub(3 4), _: int-max<1>(a b);"
	first := rainlang.ParseRainlang(text, testNamespace(), testWords())
	second := rainlang.ParseRainlang(text, testNamespace(), testWords())
	assert.Equal(t, first.AST, second.AST)
	assert.Equal(t, first.Problems, second.Problems)
}
