package rainlang_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
	"go.lsp.dev/uri"

	"github.com/beehive-innovation/rainlang"
	"github.com/beehive-innovation/rainlang/meta"
)

const testURI = uri.URI("file:///test.rain")

// storeDeployer stores a deployer meta and returns its hash.
func storeDeployer(t *testing.T, store *meta.Store, words ...string) string {
	t.Helper()

	record := meta.DeployerRecord{
		ConstructorMetaHash: "0xabcd",
		BytecodeMetaHash:    "0xef01",
	}
	for _, w := range words {
		record.Words = append(record.Words, meta.AuthoringWord{Word: w, Description: w + " op"})
	}
	payload, err := msgpack.Marshal(record)
	require.NoError(t, err)

	encoded, err := meta.Encode([]meta.DocumentItem{{
		Payload:     payload,
		Magic:       meta.ExpressionDeployerV2BytecodeV1,
		ContentType: "application/octet-stream",
	}})
	require.NoError(t, err)
	return store.UpdateWith(encoded)
}

// storeDotrain stores a dotrain meta and returns its hash.
func storeDotrain(t *testing.T, store *meta.Store, text string) string {
	t.Helper()

	encoded, err := meta.Encode([]meta.DocumentItem{{
		Payload:     []byte(text),
		Magic:       meta.DotrainV1,
		ContentType: "application/octet-stream",
	}})
	require.NoError(t, err)
	return store.UpdateWith(encoded)
}

func allCodes(rd *rainlang.RainDocument) []rainlang.ErrorCode {
	return codes(rd.AllProblems())
}

func TestBindingClassification(t *testing.T) {
	t.Parallel()

	text := "#fee 100\n#target ! must be rebound\n#main _: 1 2;"
	rd := rainlang.Create(text, testURI, meta.NewStore())
	require.Empty(t, rd.AllProblems())
	require.Len(t, rd.Bindings, 3)

	constant, ok := rd.Bindings[0].Constant()
	require.True(t, ok)
	assert.Equal(t, "100", constant.Value)

	elided, ok := rd.Bindings[1].Elided()
	require.True(t, ok)
	assert.Equal(t, "must be rebound", elided.Msg)

	exp, ok := rd.Bindings[2].Exp()
	require.True(t, ok)
	require.Len(t, exp.Document.AST, 1)

	// expression offsets are absolute into the document text
	line := exp.Document.AST[0].Lines[0]
	lit := line.Nodes[0].(rainlang.Literal)
	assert.Equal(t, "1", text[lit.Position[0]:lit.Position[1]])
}

func TestBindingProblems(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		text     string
		expected rainlang.ErrorCode
	}{
		{"duplicate identifier", "#a 1\n#a 2", rainlang.ErrCodeDuplicateIdentifier},
		{"invalid name", "#Not-Valid 1", rainlang.ErrCodeInvalidBindingIdentifier},
		{"empty binding", "#a 1\n#b", rainlang.ErrCodeInvalidEmptyBinding},
		{"out of range constant", "#a 1e100", rainlang.ErrCodeOutOfRangeValue},
		{"pragma after binding", "#a 1\n@lib 0x12", rainlang.ErrCodeUnexpectedPragma},
		{"stray content", "stray\n#a 1", rainlang.ErrCodeUnexpectedToken},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rd := rainlang.Create(tt.text, testURI, meta.NewStore())
			assert.Contains(t, allCodes(rd), tt.expected)
		})
	}
}

func TestImportSyncMiss(t *testing.T) {
	t.Parallel()

	hash := "0xab12345678901234567890123456789012345678901234567890123456789012"
	rd := rainlang.Create("@lib "+hash+"\n#a 1", testURI, meta.NewStore())
	assert.Contains(t, allCodes(rd), rainlang.ErrCodeUnresolvableDependencies)
}

func TestImportInvalidHash(t *testing.T) {
	t.Parallel()

	rd := rainlang.Create("@lib 0x1234\n#a 1", testURI, meta.NewStore())
	assert.Contains(t, allCodes(rd), rainlang.ErrCodeInvalidHash)

	rd = rainlang.Create("@lib\n#a 1", testURI, meta.NewStore())
	assert.Contains(t, allCodes(rd), rainlang.ErrCodeExpectedHexLiteral)
}

func TestDeployerImport(t *testing.T) {
	t.Parallel()

	store := meta.NewStore()
	hash := storeDeployer(t, store, "add", "sub")

	rd := rainlang.Create("@"+hash+"\n#main _: add(1 2);", testURI, store)
	require.Empty(t, rd.AllProblems())
	require.NotNil(t, rd.KnownWords)

	_, ok := rd.KnownWords.Lookup("add")
	assert.True(t, ok)
}

func TestDotrainImport(t *testing.T) {
	t.Parallel()

	store := meta.NewStore()
	hash := storeDotrain(t, store, "#fee 100\n#max-amount 5e3")

	rd := rainlang.Create("@lib "+hash+"\n#main _: lib.fee;", testURI, store)
	require.Empty(t, rd.AllProblems())

	lib, ok := rd.Namespace.Nested("lib")
	require.True(t, ok)
	node, ok := lib.Node("fee")
	require.True(t, ok)
	assert.Equal(t, hash, node.Hash)
	assert.Equal(t, 0, node.ImportIndex)
	assert.True(t, node.IsConstant())

	// the reference resolved to the constant's value
	exp, ok := rd.Bindings[0].Exp()
	require.True(t, ok)
	lit := exp.Document.AST[0].Lines[0].Nodes[0].(rainlang.Literal)
	assert.Equal(t, "100", lit.Value)
	assert.Equal(t, "lib.fee", lit.ID)
}

func TestImportedDocumentWithProblems(t *testing.T) {
	t.Parallel()

	store := meta.NewStore()
	hash := storeDotrain(t, store, "#broken é")

	rd := rainlang.Create("@lib "+hash+"\n#a 1", testURI, store)
	assert.Contains(t, allCodes(rd), rainlang.ErrCodeInvalidRainDocument)
}

func TestDeepImportChain(t *testing.T) {
	t.Parallel()

	store := meta.NewStore()
	hash := storeDotrain(t, store, "#fee 100")
	for i := 0; i < rainlang.MaxImportDepth; i++ {
		hash = storeDotrain(t, store, "@lib "+hash+"\n#n 1")
	}

	rd := rainlang.Create("@lib "+hash+"\n#main _: 1;", testURI, store)
	assert.Contains(t, allCodes(rd), rainlang.ErrCodeInvalidRainDocument)

	// the guard fires on the deepest document of the chain
	inner := rd
	for len(inner.Imports) > 0 && inner.Imports[0].Sequence != nil &&
		inner.Imports[0].Sequence.Dotrain != nil {
		inner = inner.Imports[0].Sequence.Dotrain
	}
	require.NotSame(t, rd, inner)
	assert.Contains(t, allCodes(inner), rainlang.ErrCodeDeepImport)
}

func TestInconsumableMeta(t *testing.T) {
	t.Parallel()

	store := meta.NewStore()
	item := meta.DocumentItem{
		Payload:     []byte{1},
		Magic:       meta.ExpressionDeployerV2BytecodeV1,
		ContentType: "application/octet-stream",
	}
	encoded, err := meta.Encode([]meta.DocumentItem{item, item})
	require.NoError(t, err)
	hash := store.UpdateWith(encoded)

	rd := rainlang.Create("@"+hash+"\n#a 1", testURI, store)
	assert.Contains(t, allCodes(rd), rainlang.ErrCodeInconsumableMeta)
}

func TestCorruptMeta(t *testing.T) {
	t.Parallel()

	store := meta.NewStore()
	hash := store.UpdateWith([]byte("not a meta document"))

	rd := rainlang.Create("@"+hash+"\n#a 1", testURI, store)
	assert.Contains(t, allCodes(rd), rainlang.ErrCodeCorruptMeta)
}

func TestNamespaceOccupied(t *testing.T) {
	t.Parallel()

	store := meta.NewStore()
	hash := storeDotrain(t, store, "#fee 100")

	// the import target collides with a local leaf binding
	rd := rainlang.Create("@lib "+hash+"\n#lib 1", testURI, store)
	assert.Contains(t, allCodes(rd), rainlang.ErrCodeNamespaceOccupied)
}

func TestSelfReference(t *testing.T) {
	t.Parallel()

	store := meta.NewStore()
	ownHash, err := store.SetDotrain("#a 1", string(testURI), false)
	require.NoError(t, err)

	rd := rainlang.Create("@self "+ownHash+"\n#a 1", testURI, store)
	assert.Contains(t, allCodes(rd), rainlang.ErrCodeInvalidSelfReference)
}

func TestDuplicateImport(t *testing.T) {
	t.Parallel()

	store := meta.NewStore()
	hash := storeDotrain(t, store, "#fee 100")

	rd := rainlang.Create("@a "+hash+"\n@b "+hash+"\n#main _: 1;", testURI, store)
	assert.Contains(t, allCodes(rd), rainlang.ErrCodeDuplicateImport)
}

func TestRebindConfiguration(t *testing.T) {
	t.Parallel()

	store := meta.NewStore()
	hash := storeDotrain(t, store, "#fee 100\n#main _: 1;")

	rd := rainlang.Create("@lib "+hash+" fee 250\n#root-binding 1", testURI, store)
	require.Empty(t, rd.AllProblems())

	lib, ok := rd.Namespace.Nested("lib")
	require.True(t, ok)
	node, ok := lib.Node("fee")
	require.True(t, ok)
	binding, ok := node.Binding()
	require.True(t, ok)
	constant, ok := binding.Constant()
	require.True(t, ok)
	assert.Equal(t, "250", constant.Value)
}

func TestRebindNonConstant(t *testing.T) {
	t.Parallel()

	store := meta.NewStore()
	hash := storeDotrain(t, store, "#main _: 1;")

	rd := rainlang.Create("@lib "+hash+" main 250\n#root-binding 1", testURI, store)
	assert.Contains(t, allCodes(rd), rainlang.ErrCodeUnexpectedRebinding)
}

func TestRenameConfiguration(t *testing.T) {
	t.Parallel()

	store := meta.NewStore()
	hash := storeDotrain(t, store, "#fee 100")

	rd := rainlang.Create("@lib "+hash+" 'fee cost\n#root-binding 1", testURI, store)
	require.Empty(t, rd.AllProblems())

	lib, ok := rd.Namespace.Nested("lib")
	require.True(t, ok)
	_, hasOld := lib.Node("fee")
	assert.False(t, hasOld)
	node, ok := lib.Node("cost")
	require.True(t, ok)
	assert.True(t, node.IsConstant())
}

func TestCircularQuotes(t *testing.T) {
	t.Parallel()

	rd := rainlang.Create("#a _: 'b;\n#b _: 'a;", testURI, meta.NewStore())

	count := 0
	for _, problem := range rd.AllProblems() {
		if problem.Code == rainlang.ErrCodeCircularDependencyQuote {
			count++
			// positioned at the quote that closes the cycle
			start := problem.Position[0]
			assert.Equal(t, "'a", rd.Text()[start:start+2])
		}
	}
	assert.Equal(t, 1, count)
}

func TestCircularQuoteSpanSkipsPrefixMatch(t *testing.T) {
	t.Parallel()

	// 'ab shares a prefix with the cycle target 'a
	text := "#ab _: 1;\n#a _: 'x;\n#x _: 'ab 'a;"
	rd := rainlang.Create(text, testURI, meta.NewStore())

	found := false
	for _, problem := range rd.AllProblems() {
		if problem.Code == rainlang.ErrCodeCircularDependencyQuote {
			found = true
			assert.Equal(t, "'a", rd.Text()[problem.Position[0]:problem.Position[1]])
			assert.Equal(t, strings.LastIndex(text, "'a"), problem.Position[0])
		}
	}
	assert.True(t, found)
}

func TestSelfQuote(t *testing.T) {
	t.Parallel()

	rd := rainlang.Create("#a _: 'a;", testURI, meta.NewStore())
	assert.Contains(t, allCodes(rd), rainlang.ErrCodeCircularDependencyQuote)
}

func TestMultipleWordSets(t *testing.T) {
	t.Parallel()

	store := meta.NewStore()
	first := storeDeployer(t, store, "add")
	second := storeDeployer(t, store, "sub")

	rd := rainlang.Create("@one "+first+"\n@two "+second+"\n#a 1", testURI, store)
	assert.Contains(t, allCodes(rd), rainlang.ErrCodeSingletonWords)
}

// Parsing the same text twice yields identical problem sets.
func TestRainDocumentIdempotent(t *testing.T) {
	t.Parallel()

	store := meta.NewStore()
	hash := storeDeployer(t, store, "add")

	text := "@" + hash + "\n#fee 100\n#main _: add(fee 2);"
	first := rainlang.Create(text, testURI, store)
	second := rainlang.Create(text, testURI, store)
	assert.Equal(t, first.AllProblems(), second.AllProblems())
	assert.Equal(t, len(first.Bindings), len(second.Bindings))
}
