package rainlang

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func leaf(name string, item BindingItem) NamespaceItem {
	return NamespaceNode{
		Hash:        LocalHash,
		ImportIndex: -1,
		Element:     &Binding{Name: name, Item: item},
	}
}

func TestSearchName(t *testing.T) {
	t.Parallel()

	ns := Namespace{
		"fee": leaf("fee", ConstantBinding{Value: "1"}),
		"lib": Namespace{
			"inner": Namespace{
				"deep": leaf("deep", ConstantBinding{Value: "2"}),
			},
		},
	}

	item, ok := searchName(ns, "fee")
	require.True(t, ok)
	node, isLeaf := item.(NamespaceNode)
	require.True(t, isLeaf)
	assert.True(t, node.IsConstant())

	item, ok = searchName(ns, "lib.inner.deep")
	require.True(t, ok)
	_, isLeaf = item.(NamespaceNode)
	assert.True(t, isLeaf)

	// interior hit
	item, ok = searchName(ns, "lib.inner")
	require.True(t, ok)
	_, isNested := item.(Namespace)
	assert.True(t, isNested)

	// trailing dot tolerated
	_, ok = searchName(ns, "lib.inner.")
	assert.True(t, ok)

	_, ok = searchName(ns, "lib.missing")
	assert.False(t, ok)
	_, ok = searchName(ns, "fee.too.deep")
	assert.False(t, ok)
	_, ok = searchName(ns, "")
	assert.False(t, ok)
}

func TestSearchNameDepthBound(t *testing.T) {
	t.Parallel()

	ns := Namespace{"a": leaf("a", ConstantBinding{Value: "1"})}
	path := strings.Repeat("a.", MaxNamespaceDepth) + "a"
	_, ok := searchName(ns, path)
	assert.False(t, ok)
}

func TestCopyNamespaceRewritesProvenance(t *testing.T) {
	t.Parallel()

	original := &Binding{Name: "fee", Item: ConstantBinding{Value: "1"}}
	ns := Namespace{
		"fee": NamespaceNode{Hash: LocalHash, ImportIndex: -1, Element: original},
		"sub": Namespace{
			"x": NamespaceNode{Hash: LocalHash, ImportIndex: -1, Element: original},
		},
	}

	copied := copyNamespace(ns, "0xdead", 3)
	node, ok := copied.Node("fee")
	require.True(t, ok)
	assert.Equal(t, "0xdead", node.Hash)
	assert.Equal(t, 3, node.ImportIndex)

	sub, ok := copied.Nested("sub")
	require.True(t, ok)
	inner, ok := sub.Node("x")
	require.True(t, ok)
	assert.Equal(t, "0xdead", inner.Hash)

	// bindings are copied by value, mutating the copy leaves the
	// source untouched
	binding, ok := node.Binding()
	require.True(t, ok)
	binding.Item = ConstantBinding{Value: "999"}
	got, _ := original.Constant()
	assert.Equal(t, "1", got.Value)
}

func TestMergeNamespace(t *testing.T) {
	t.Parallel()

	target := Namespace{"fee": leaf("fee", ConstantBinding{Value: "1"})}

	// same kind keeps the existing entry silently
	problems := mergeNamespace(target,
		Namespace{"fee": leaf("fee", ConstantBinding{Value: "2"})}, Offsets{0, 5})
	assert.Empty(t, problems)
	node, _ := target.Node("fee")
	binding, _ := node.Binding()
	got, _ := binding.Constant()
	assert.Equal(t, "1", got.Value)

	// different kind raises occupied
	problems = mergeNamespace(target,
		Namespace{"fee": Namespace{}}, Offsets{0, 5})
	require.Len(t, problems, 1)
	assert.Equal(t, ErrCodeNamespaceOccupied, problems[0].Code)

	// new names merge in
	problems = mergeNamespace(target,
		Namespace{"extra": leaf("extra", ConstantBinding{Value: "3"})}, Offsets{0, 5})
	assert.Empty(t, problems)
	_, ok := target.Node("extra")
	assert.True(t, ok)
}

func TestChildNamespace(t *testing.T) {
	t.Parallel()

	root := Namespace{}
	child, problem := childNamespace(root, "a.b", Offsets{0, 1})
	require.Nil(t, problem)
	child["x"] = leaf("x", ConstantBinding{Value: "1"})

	item, ok := searchName(root, "a.b.x")
	require.True(t, ok)
	_, isLeaf := item.(NamespaceNode)
	assert.True(t, isLeaf)

	// a leaf on the path is occupied
	root["taken"] = leaf("taken", ConstantBinding{Value: "1"})
	_, problem = childNamespace(root, "taken.inner", Offsets{0, 1})
	require.NotNil(t, problem)
	assert.Equal(t, ErrCodeNamespaceOccupied, problem.Code)

	// path over the depth bound
	deep := strings.TrimSuffix(strings.Repeat("s.", MaxNamespaceDepth+1), ".")
	_, problem = childNamespace(root, deep, Offsets{0, 1})
	require.NotNil(t, problem)
	assert.Equal(t, ErrCodeDeepNamespace, problem.Code)

	// a trailing dot targets the named namespace, not an empty key
	child, problem = childNamespace(root, "lib.", Offsets{0, 1})
	require.Nil(t, problem)
	_, hasEmpty := child[""]
	assert.False(t, hasEmpty)
	nested, ok := root.Nested("lib")
	require.True(t, ok)
	assert.Equal(t, nested, child)
}

func TestApplyConfigurationPairs(t *testing.T) {
	t.Parallel()

	ns := Namespace{
		"fee":  leaf("fee", ConstantBinding{Value: "1"}),
		"main": leaf("main", ExpBinding{}),
	}
	cfg := &ImportConfiguration{Groups: [][2]ParsedItem{
		{{Value: "'fee", Position: Offsets{0, 4}}, {Value: "cost", Position: Offsets{5, 9}}},
		{{Value: "main", Position: Offsets{10, 14}}, {Value: "7", Position: Offsets{15, 16}}},
		{{Value: "'missing", Position: Offsets{17, 25}}, {Value: "y", Position: Offsets{26, 27}}},
	}}

	applyConfiguration(ns, cfg)

	_, hasOld := ns.Node("fee")
	assert.False(t, hasOld)
	_, hasNew := ns.Node("cost")
	assert.True(t, hasNew)

	problemCodes := codes(cfg.Problems)
	assert.Contains(t, problemCodes, ErrCodeUnexpectedRebinding)
	assert.Contains(t, problemCodes, ErrCodeUndefinedIdentifier)
}

func TestApplyConfigurationElision(t *testing.T) {
	t.Parallel()

	ns := Namespace{"fee": leaf("fee", ConstantBinding{Value: "1"})}
	cfg := &ImportConfiguration{Groups: [][2]ParsedItem{
		{{Value: "fee", Position: Offsets{0, 3}}, {Value: "!", Position: Offsets{4, 5}}},
	}}

	applyConfiguration(ns, cfg)

	assert.Empty(t, cfg.Problems)
	node, ok := ns.Node("fee")
	require.True(t, ok)
	assert.True(t, node.IsElided())
}

func codes(problems []Problem) []ErrorCode {
	out := make([]ErrorCode, len(problems))
	for i, p := range problems {
		out[i] = p.Code
	}
	return out
}
