package rainlang

// Offsets is a half-open [start, end) character span into the document text.
type Offsets = [2]int

// ParsedItem is a raw text chunk paired with its span.
type ParsedItem struct {
	Value    string
	Position Offsets
}

// Comment is a /* ... */ block. Comments terminated by end of text instead
// of */ still yield a Comment covering the remaining text.
type Comment struct {
	Comment  string
	Position Offsets
}

// Node is a fragment of a rainlang expression: a Literal, an Opcode or an
// Alias reference.
type Node interface {
	// NodePosition returns the fragment's span.
	NodePosition() Offsets
}

// Literal is a numeric or string literal, or a reference to a constant
// binding where ID holds the referenced path.
type Literal struct {
	Value    string
	Position Offsets
	ID       string
}

// Opcode is a word applied to inputs, with optional operand arguments.
type Opcode struct {
	Opcode         OpcodeDetails
	Inputs         []Node
	OperandArgs    *OperandArg
	Position       Offsets
	ParensPosition Offsets
	ParenOpen      bool
}

// OpcodeDetails is an opcode word with its description and span.
type OpcodeDetails struct {
	Name        string
	Description string
	Position    Offsets
}

// OperandArg is the <...> operand argument list of an opcode.
type OperandArg struct {
	Position Offsets
	Args     []OperandArgItem
}

// OperandArgItem is a single operand argument, either a literal value or a
// quoted binding reference.
type OperandArgItem struct {
	Value       string
	Name        string
	Position    Offsets
	Description string
}

// Alias is a reference to an LHS alias of a preceding line, or an LHS
// declaration itself.
type Alias struct {
	Name     string
	Position Offsets
}

func (l Literal) NodePosition() Offsets { return l.Position }
func (o Opcode) NodePosition() Offsets  { return o.Position }
func (a Alias) NodePosition() Offsets   { return a.Position }

// RainlangLine is one comma-separated line of a source: LHS aliases and RHS
// nodes.
type RainlangLine struct {
	Nodes    []Node
	Position Offsets
	Aliases  []Alias
}

// RainlangSource is one semi-terminated group of lines.
type RainlangSource struct {
	Lines    []RainlangLine
	Position Offsets
}

// BindingItem is the classified payload of a binding: ElidedBinding,
// ConstantBinding or ExpBinding.
type BindingItem interface {
	bindingItem()
}

// ElidedBinding is a binding of the form `! msg` that must be rebound
// before use.
type ElidedBinding struct {
	Msg string
}

// ConstantBinding is a binding whose whole content is a single numeric
// literal.
type ConstantBinding struct {
	Value string
}

// ExpBinding is a binding holding a parsed rainlang expression fragment.
type ExpBinding struct {
	Document *RainlangDocument
}

func (ElidedBinding) bindingItem()   {}
func (ConstantBinding) bindingItem() {}
func (ExpBinding) bindingItem()      {}

// Binding is a named #binding block of a rain document.
type Binding struct {
	Name            string
	NamePosition    Offsets
	Content         string
	ContentPosition Offsets
	Position        Offsets
	Problems        []Problem
	Item            BindingItem
}

// Elided returns the binding's item as an elision, if it is one.
func (b *Binding) Elided() (ElidedBinding, bool) {
	e, ok := b.Item.(ElidedBinding)
	return e, ok
}

// Constant returns the binding's item as a constant, if it is one.
func (b *Binding) Constant() (ConstantBinding, bool) {
	c, ok := b.Item.(ConstantBinding)
	return c, ok
}

// Exp returns the binding's item as an expression, if it is one.
func (b *Binding) Exp() (ExpBinding, bool) {
	e, ok := b.Item.(ExpBinding)
	return e, ok
}

// DispairImportItem is a deployer import: its bytecode hash plus the
// authoring words it provides.
type DispairImportItem struct {
	ConstructorMetaHash string
	BytecodeMetaHash    string
	ParsedWords         []AuthoringWord
}

// AuthoringWord is one word of a deployer's authoring meta.
type AuthoringWord struct {
	Word        string
	Description string
}

// NamespaceElement is a leaf payload: a *Binding or a DispairImportItem.
type NamespaceElement interface {
	namespaceElement()
}

func (*Binding) namespaceElement()          {}
func (DispairImportItem) namespaceElement() {}

// NamespaceNode is a leaf of a namespace tree, recording the hash of the
// import that provided the element and the import statement's index in the
// document, or -1 for locally defined elements.
type NamespaceNode struct {
	Hash        string
	ImportIndex int
	Element     NamespaceElement
}

// Binding returns the node's element as a binding, if it is one.
func (n NamespaceNode) Binding() (*Binding, bool) {
	b, ok := n.Element.(*Binding)
	return b, ok
}

// Dispair returns the node's element as a deployer import, if it is one.
func (n NamespaceNode) Dispair() (DispairImportItem, bool) {
	d, ok := n.Element.(DispairImportItem)
	return d, ok
}

// IsElided reports whether the node holds an elided binding.
func (n NamespaceNode) IsElided() bool {
	if b, ok := n.Binding(); ok {
		_, elided := b.Elided()
		return elided
	}
	return false
}

// IsConstant reports whether the node holds a constant binding.
func (n NamespaceNode) IsConstant() bool {
	if b, ok := n.Binding(); ok {
		_, constant := b.Constant()
		return constant
	}
	return false
}

// NamespaceItem is either a leaf NamespaceNode or a nested Namespace.
type NamespaceItem interface {
	namespaceItem()
}

func (NamespaceNode) namespaceItem() {}
func (Namespace) namespaceItem()     {}

// Namespace is a tree of named items built from local bindings and imports.
type Namespace map[string]NamespaceItem

// Node returns the item stored under key as a leaf, if present.
func (ns Namespace) Node(key string) (NamespaceNode, bool) {
	n, ok := ns[key].(NamespaceNode)
	return n, ok
}

// Nested returns the item stored under key as a child namespace, if present.
func (ns Namespace) Nested(key string) (Namespace, bool) {
	child, ok := ns[key].(Namespace)
	return child, ok
}

// ImportConfiguration is the parsed configuration segment of an import
// statement: rename, rebind and elision pairs, plus any problems found in
// the segment itself.
type ImportConfiguration struct {
	Groups   [][2]ParsedItem
	Problems []Problem
}

// ImportSequence holds the meta items an import resolved to.
type ImportSequence struct {
	Dispair *DispairImportItem
	Dotrain *RainDocument
}

// Import is one @ statement of a rain document.
type Import struct {
	Name          string
	NamePosition  Offsets
	Hash          string
	HashPosition  Offsets
	Position      Offsets
	Problems      []Problem
	Configuration *ImportConfiguration
	Sequence      *ImportSequence
}
