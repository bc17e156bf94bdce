// Package rainlang parses rain documents into an AST, resolves imports by
// content hash, builds the namespace tree and exposes the result to the
// language intelligence layer.
package rainlang

import (
	"context"
	"regexp"
	"strings"

	"go.lsp.dev/uri"
	"golang.org/x/sync/errgroup"

	"github.com/beehive-innovation/rainlang/meta"
)

var markerPattern = regexp.MustCompile(`[@#]`)

// RainDocument is a fully parsed rain document: its imports, bindings,
// merged namespace and every problem found along the way. Instances are
// built once per text and read-only afterwards.
type RainDocument struct {
	text        string
	uri         uri.URI
	store       *meta.Store
	importDepth int

	Problems   []Problem
	Imports    []Import
	Comments   []Comment
	Bindings   []*Binding
	Namespace  Namespace
	KnownWords *meta.AuthoringMeta
}

// Create parses text synchronously: imports resolve against the store's
// local cache only, a miss is an unresolvable dependency.
func Create(text string, docURI uri.URI, store *meta.Store) *RainDocument {
	rd := newRainDocument(text, docURI, store, 0)
	rd.parse(nil)
	return rd
}

// CreateAsync parses text after prefetching every import hash missing
// from the store, retrying each local lookup exactly once.
func CreateAsync(ctx context.Context, text string, docURI uri.URI, store *meta.Store) *RainDocument {
	rd := newRainDocument(text, docURI, store, 0)
	rd.parse(ctx)
	return rd
}

func newRainDocument(text string, docURI uri.URI, store *meta.Store, depth int) *RainDocument {
	if store == nil {
		store = meta.NewStore()
	}
	return &RainDocument{
		text:        text,
		uri:         docURI,
		store:       store,
		importDepth: depth,
		Namespace:   Namespace{},
	}
}

// Text returns the source text this document was parsed from.
func (rd *RainDocument) Text() string { return rd.text }

// URI returns the document's identifier.
func (rd *RainDocument) URI() uri.URI { return rd.uri }

// Store returns the content-addressed store the document resolves against.
func (rd *RainDocument) Store() *meta.Store { return rd.store }

// AllProblems collects the document's own problems plus those attached to
// imports, import configurations and bindings.
func (rd *RainDocument) AllProblems() []Problem {
	var all []Problem
	all = append(all, rd.Problems...)
	for _, imp := range rd.Imports {
		all = append(all, imp.Problems...)
		if imp.Configuration != nil {
			all = append(all, imp.Configuration.Problems...)
		}
	}
	for _, binding := range rd.Bindings {
		all = append(all, binding.Problems...)
	}
	return all
}

// Binding returns the document-local binding with the given name.
func (rd *RainDocument) Binding(name string) (*Binding, bool) {
	for _, b := range rd.Bindings {
		if b.Name == name {
			return b, true
		}
	}
	return nil, false
}

// parse runs the whole pipeline. A nil ctx selects synchronous import
// resolution against the local cache only.
func (rd *RainDocument) parse(ctx context.Context) {
	rd.Problems = nil
	rd.Imports = nil
	rd.Comments = nil
	rd.Bindings = nil
	rd.Namespace = Namespace{}
	rd.KnownWords = nil

	working := rd.text

	for _, item := range InclusiveParse(working, CommentPattern, 0) {
		rd.Comments = append(rd.Comments, Comment{
			Comment:  item.Value,
			Position: item.Position,
		})
		if !strings.HasSuffix(item.Value, "*/") {
			rd.Problems = append(rd.Problems,
				ErrCodeUnexpectedEndOfComment.Problem(Offsets{item.Position[1], item.Position[1]}))
		}
		filled, err := FillIn(working, item.Position)
		if err != nil {
			rd.Problems = append(rd.Problems,
				ErrCodeRuntimeError.Problem(Offsets{0, 0}, err.Error()))
			return
		}
		working = filled
	}

	if loc := NonASCIIPattern.FindStringIndex(working); loc != nil {
		rd.Problems = append(rd.Problems,
			ErrCodeIllegalChar.Problem(Offsets{loc[0], loc[1]}, working[loc[0]:loc[1]]))

		filled, err := FillIn(working, Offsets{loc[0], len(working)})
		if err != nil {
			rd.Problems = append(rd.Problems,
				ErrCodeRuntimeError.Problem(Offsets{0, 0}, err.Error()))
			return
		}
		working = filled
	}

	rd.parseStatements(working)
	rd.resolveImports(ctx)
	rd.buildNamespace()
	rd.resolveKnownWords()
	rd.classifyBindings()
	rd.checkDependencies()
}

// parseStatements splits the document into @ import and # binding
// statements. Each marker owns the text up to the next marker.
func (rd *RainDocument) parseStatements(working string) {
	markers := InclusiveParse(working, markerPattern, 0)
	if len(markers) == 0 {
		if strings.TrimSpace(working) != "" {
			span := spanOfContent(working, 0)
			rd.Problems = append(rd.Problems,
				ErrCodeUnexpectedToken.Problem(span, strings.TrimSpace(working)))
		}
		return
	}

	if head := working[:markers[0].Position[0]]; strings.TrimSpace(head) != "" {
		rd.Problems = append(rd.Problems,
			ErrCodeUnexpectedToken.Problem(spanOfContent(head, 0), strings.TrimSpace(head)))
	}

	seenBinding := false
	seenHashes := map[string]int{}
	for i, marker := range markers {
		start := marker.Position[1]
		end := len(working)
		if i+1 < len(markers) {
			end = markers[i+1].Position[0]
		}
		body := working[start:end]

		if marker.Value == "@" {
			if seenBinding {
				rd.Problems = append(rd.Problems,
					ErrCodeUnexpectedPragma.Problem(Offsets{marker.Position[0], marker.Position[1]}))
				continue
			}
			rd.parseImport(body, marker.Position[0], start, seenHashes)
		} else {
			seenBinding = true
			rd.parseBinding(body, marker.Position[0], start, end)
		}
	}
}

// spanOfContent returns the span of the non-whitespace content of text.
func spanOfContent(text string, offset int) Offsets {
	trimmed, leading, trailing := TrackedTrim(text)
	if trimmed == "" {
		return Offsets{offset, offset}
	}
	return Offsets{offset + leading, offset + len(text) - trailing}
}

func (rd *RainDocument) parseImport(body string, markerStart, bodyStart int, seenHashes map[string]int) {
	imp := Import{
		Position: Offsets{markerStart, bodyStart + len(strings.TrimRight(body, " \t\n\r"))},
	}

	items := ExclusiveParse(body, WSPattern, bodyStart, false)
	var filtered []ParsedItem
	for _, item := range items {
		if item.Value != "" {
			filtered = append(filtered, item)
		}
	}

	cursor := 0
	if cursor < len(filtered) && !strings.HasPrefix(filtered[cursor].Value, "0x") {
		name := filtered[cursor]
		if NamespacePattern.MatchString(name.Value) {
			imp.Name = name.Value
			imp.NamePosition = name.Position
		} else {
			imp.Problems = append(imp.Problems,
				ErrCodeInvalidWordPattern.Problem(name.Position, name.Value))
		}
		cursor++
	}

	if cursor >= len(filtered) {
		imp.Problems = append(imp.Problems,
			ErrCodeExpectedHexLiteral.Problem(Offsets{markerStart, markerStart + 1}))
		rd.Imports = append(rd.Imports, imp)
		return
	}

	hashItem := filtered[cursor]
	cursor++
	switch {
	case HashPattern.MatchString(hashItem.Value):
		imp.Hash = strings.ToLower(hashItem.Value)
		imp.HashPosition = hashItem.Position
		if _, dup := seenHashes[imp.Hash]; dup {
			imp.Problems = append(imp.Problems,
				ErrCodeDuplicateImport.Problem(hashItem.Position))
		}
		seenHashes[imp.Hash] = len(rd.Imports)
	case ImportHashPattern.MatchString(hashItem.Value):
		imp.Problems = append(imp.Problems,
			ErrCodeInvalidHash.Problem(hashItem.Position))
	default:
		imp.Problems = append(imp.Problems,
			ErrCodeExpectedHexLiteral.Problem(hashItem.Position))
	}

	if cursor < len(filtered) {
		cfg := &ImportConfiguration{}
		for cursor < len(filtered) {
			key := filtered[cursor]
			value := ParsedItem{Position: Offsets{key.Position[1], key.Position[1]}}
			if cursor+1 < len(filtered) {
				value = filtered[cursor+1]
				cursor += 2
			} else {
				cursor++
			}
			cfg.Groups = append(cfg.Groups, [2]ParsedItem{key, value})
		}
		imp.Configuration = cfg
	}

	rd.Imports = append(rd.Imports, imp)
}

func (rd *RainDocument) parseBinding(body string, markerStart, bodyStart, bodyEnd int) {
	binding := &Binding{Position: Offsets{markerStart, bodyEnd}}

	nameLen := strings.IndexFunc(body, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
	if nameLen < 0 {
		nameLen = len(body)
	}
	name := body[:nameLen]
	binding.Name = name
	binding.NamePosition = Offsets{bodyStart, bodyStart + nameLen}

	if name == "" || !WordPattern.MatchString(name) {
		binding.Problems = append(binding.Problems,
			ErrCodeInvalidBindingIdentifier.Problem(binding.NamePosition, name))
	} else {
		for _, existing := range rd.Bindings {
			if existing.Name == name {
				binding.Problems = append(binding.Problems,
					ErrCodeDuplicateIdentifier.Problem(binding.NamePosition, name))
				break
			}
		}
	}

	content := body[nameLen:]
	binding.ContentPosition = spanOfContent(content, bodyStart+nameLen)
	binding.Content = rd.text[binding.ContentPosition[0]:binding.ContentPosition[1]]
	if strings.TrimSpace(content) == "" {
		binding.Problems = append(binding.Problems,
			ErrCodeInvalidEmptyBinding.Problem(binding.NamePosition, name))
	}

	rd.Bindings = append(rd.Bindings, binding)
}

// resolveImports materializes every import's sequence from the store. In
// asynchronous mode all missing hashes are prefetched in parallel first,
// then each lookup is retried locally exactly once.
func (rd *RainDocument) resolveImports(ctx context.Context) {
	if ctx != nil {
		g, gctx := errgroup.WithContext(ctx)
		for i := range rd.Imports {
			hash := rd.Imports[i].Hash
			if hash == "" {
				continue
			}
			if _, ok := rd.store.Get(hash); ok {
				continue
			}
			g.Go(func() error {
				// errors surface as local cache misses below
				_, _ = rd.store.Fetch(gctx, hash)
				return nil
			})
		}
		_ = g.Wait()
	}

	ownHash, _ := rd.store.DotrainHash(string(rd.uri))
	for i := range rd.Imports {
		imp := &rd.Imports[i]
		if imp.Hash == "" {
			continue
		}
		if ownHash != "" && imp.Hash == ownHash {
			imp.Problems = append(imp.Problems,
				ErrCodeInvalidSelfReference.Problem(imp.HashPosition))
			continue
		}

		payload, ok := rd.store.Get(imp.Hash)
		if !ok {
			imp.Problems = append(imp.Problems,
				ErrCodeUnresolvableDependencies.Problem(imp.HashPosition, imp.Hash))
			continue
		}
		rd.materializeImport(ctx, imp, payload)
	}
}

func (rd *RainDocument) materializeImport(ctx context.Context, imp *Import, payload []byte) {
	items, err := meta.Decode(payload)
	if err != nil {
		imp.Problems = append(imp.Problems,
			ErrCodeCorruptMeta.Problem(imp.HashPosition))
		return
	}
	if !meta.IsConsumable(items) {
		imp.Problems = append(imp.Problems,
			ErrCodeInconsumableMeta.Problem(imp.HashPosition))
		return
	}

	sequence := &ImportSequence{}
	for _, item := range items {
		switch item.Magic {
		case meta.DotrainV1:
			if rd.importDepth+1 > MaxImportDepth {
				imp.Problems = append(imp.Problems,
					ErrCodeDeepImport.Problem(imp.HashPosition))
				continue
			}
			sub := newRainDocument(string(item.Payload),
				uri.URI("memory://"+imp.Hash), rd.store, rd.importDepth+1)
			sub.parse(ctx)
			if len(sub.AllProblems()) > 0 {
				imp.Problems = append(imp.Problems,
					ErrCodeInvalidRainDocument.Problem(imp.HashPosition))
			}
			sequence.Dotrain = sub
		case meta.ExpressionDeployerV2BytecodeV1:
			rec, err := meta.DecodeDeployerRecord(item.Payload)
			if err != nil {
				imp.Problems = append(imp.Problems,
					ErrCodeCorruptMeta.Problem(imp.HashPosition))
				continue
			}
			words := make([]AuthoringWord, len(rec.Words))
			for i, w := range rec.Words {
				words[i] = AuthoringWord{Word: w.Word, Description: w.Description}
			}
			sequence.Dispair = &DispairImportItem{
				ConstructorMetaHash: rec.ConstructorMetaHash,
				BytecodeMetaHash:    rec.BytecodeMetaHash,
				ParsedWords:         words,
			}
		}
	}
	imp.Sequence = sequence
}

// buildNamespace inserts local bindings first, then merges each import's
// contribution in statement order at its target path.
func (rd *RainDocument) buildNamespace() {
	for _, binding := range rd.Bindings {
		if !WordPattern.MatchString(binding.Name) {
			continue
		}
		if _, occupied := rd.Namespace[binding.Name]; occupied {
			continue
		}
		rd.Namespace[binding.Name] = NamespaceNode{
			Hash:        LocalHash,
			ImportIndex: -1,
			Element:     binding,
		}
	}

	for i := range rd.Imports {
		imp := &rd.Imports[i]
		if imp.Sequence == nil {
			continue
		}

		target, problem := childNamespace(rd.Namespace, imp.Name, imp.Position)
		if problem != nil {
			imp.Problems = append(imp.Problems, *problem)
			continue
		}

		if imp.Sequence.Dotrain != nil {
			incoming := copyNamespace(imp.Sequence.Dotrain.Namespace, imp.Hash, i)
			applyConfiguration(incoming, imp.Configuration)
			imp.Problems = append(imp.Problems,
				mergeNamespace(target, incoming, imp.Position)...)
		}
		if imp.Sequence.Dispair != nil {
			node := NamespaceNode{Hash: imp.Hash, ImportIndex: i, Element: *imp.Sequence.Dispair}
			if existing, occupied := target["dispair"]; occupied {
				if !sameKind(existing, node) {
					imp.Problems = append(imp.Problems,
						ErrCodeNamespaceOccupied.Problem(imp.Position, "dispair"))
				}
			} else {
				target["dispair"] = node
			}
		}
	}
}

// resolveKnownWords picks the document's opcode table from imported
// deployers. Words must be singleton across the whole namespace.
func (rd *RainDocument) resolveKnownWords() {
	var dispairs []DispairImportItem
	collectDispairs(rd.Namespace, &dispairs)

	switch len(dispairs) {
	case 0:
	case 1:
		words := make([]meta.AuthoringWord, len(dispairs[0].ParsedWords))
		for i, w := range dispairs[0].ParsedWords {
			words[i] = meta.AuthoringWord{Word: w.Word, Description: w.Description}
		}
		rd.KnownWords = &meta.AuthoringMeta{Words: words}
	default:
		span := Offsets{0, 0}
		if len(rd.Imports) > 0 {
			span = rd.Imports[len(rd.Imports)-1].Position
		}
		rd.Problems = append(rd.Problems, ErrCodeSingletonWords.Problem(span))
	}
}

func collectDispairs(ns Namespace, out *[]DispairImportItem) {
	for _, item := range ns {
		switch v := item.(type) {
		case NamespaceNode:
			if d, ok := v.Dispair(); ok {
				*out = append(*out, d)
			}
		case Namespace:
			collectDispairs(v, out)
		}
	}
}

// classifyBindings determines each binding's kind, then parses expression
// bindings against the merged namespace. Kinds are assigned for every
// binding before any expression is parsed, so a quote can reference a
// binding declared later in the document.
func (rd *RainDocument) classifyBindings() {
	for _, binding := range rd.Bindings {
		content := strings.TrimSpace(binding.Content)
		switch {
		case content == "":
		case strings.HasPrefix(content, "!"):
			binding.Item = ElidedBinding{Msg: strings.TrimSpace(content[1:])}
		case NumericPattern.MatchString(content):
			if _, err := ToUint256(content); err != nil {
				binding.Problems = append(binding.Problems,
					ErrCodeOutOfRangeValue.Problem(binding.ContentPosition))
			}
			binding.Item = ConstantBinding{Value: content}
		default:
			binding.Item = ExpBinding{}
		}
	}

	for _, binding := range rd.Bindings {
		if _, ok := binding.Exp(); !ok {
			continue
		}
		// fill everything outside the content so the fragment parser
		// reports absolute offsets
		fragment, err := FillOut(rd.text, binding.ContentPosition)
		if err != nil {
			binding.Problems = append(binding.Problems,
				ErrCodeRuntimeError.Problem(Offsets{0, 0}, err.Error()))
			continue
		}
		doc := ParseRainlang(fragment, rd.Namespace, rd.KnownWords)
		binding.Problems = append(binding.Problems, doc.Problems...)
		binding.Item = ExpBinding{Document: doc}
	}
}

// checkDependencies walks the quote graph with an iterative depth-first
// traversal, reporting the first back edge found per root.
func (rd *RainDocument) checkDependencies() {
	deps := map[string][]string{}
	for _, binding := range rd.Bindings {
		if exp, ok := binding.Exp(); ok {
			deps[binding.Name] = exp.Document.Dependencies
		}
	}

	visited := map[string]bool{}
	for _, binding := range rd.Bindings {
		if _, ok := deps[binding.Name]; !ok || visited[binding.Name] {
			continue
		}

		type frame struct {
			name string
			next int
		}
		onPath := map[string]bool{binding.Name: true}
		stack := []frame{{name: binding.Name}}

	walk:
		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			edges := deps[top.name]
			for top.next < len(edges) {
				dep := edges[top.next]
				top.next++
				if onPath[dep] {
					rd.reportCycle(top.name, dep)
					break walk
				}
				if _, isExp := deps[dep]; isExp && !visited[dep] {
					onPath[dep] = true
					stack = append(stack, frame{name: dep})
					continue walk
				}
			}
			visited[top.name] = true
			delete(onPath, top.name)
			stack = stack[:len(stack)-1]
		}
		for name := range onPath {
			visited[name] = true
		}
	}
}

// isQuoteTail reports whether b can extend a quoted reference token.
func isQuoteTail(b byte) bool {
	return b == '-' || b == '.' || (b >= '0' && b <= '9') || (b >= 'a' && b <= 'z')
}

// reportCycle attaches the circular dependency problem to the binding
// whose quote closes the cycle, at that quote's span.
func (rd *RainDocument) reportCycle(from, to string) {
	binding, ok := rd.Binding(from)
	if !ok {
		return
	}
	span := binding.NamePosition
	needle := "'" + to
	for next := 0; ; {
		idx := strings.Index(binding.Content[next:], needle)
		if idx < 0 {
			break
		}
		idx += next
		end := idx + len(needle)
		// skip prefix matches of a longer quote like 'ab when looking for 'a
		if end < len(binding.Content) && isQuoteTail(binding.Content[end]) {
			next = end
			continue
		}
		start := binding.ContentPosition[0] + idx
		span = Offsets{start, start + len(needle)}
		break
	}
	binding.Problems = append(binding.Problems,
		ErrCodeCircularDependencyQuote.Problem(span))
}
