package rainlang

import "strings"

const (
	// MaxImportDepth bounds how many levels of embedded documents an
	// import chain may follow.
	MaxImportDepth = 32

	// MaxNamespaceDepth bounds dotted path segment count.
	MaxNamespaceDepth = 32

	// LocalHash tags namespace nodes defined by the document itself
	// rather than an import.
	LocalHash = "root"
)

// searchName walks a dotted path from the namespace root. A trailing dot
// is tolerated. Paths over the depth bound fail.
func searchName(ns Namespace, path string) (NamespaceItem, bool) {
	path = strings.TrimPrefix(path, ".")
	path = strings.TrimSuffix(path, ".")
	if path == "" {
		return nil, false
	}

	segments := strings.Split(path, ".")
	if len(segments) > MaxNamespaceDepth {
		return nil, false
	}

	current := ns
	for i, segment := range segments {
		item, ok := current[segment]
		if !ok {
			return nil, false
		}
		if i == len(segments)-1 {
			return item, true
		}
		child, isNested := item.(Namespace)
		if !isNested {
			return nil, false
		}
		current = child
	}
	return nil, false
}

// copyNamespace deep copies a namespace tree, rewriting every leaf's hash
// and import index to attribute it to the importing statement. Bindings
// are copied by value so later rebinds never touch the source document.
func copyNamespace(ns Namespace, hash string, importIndex int) Namespace {
	out := make(Namespace, len(ns))
	for name, item := range ns {
		switch v := item.(type) {
		case NamespaceNode:
			node := NamespaceNode{Hash: hash, ImportIndex: importIndex}
			switch el := v.Element.(type) {
			case *Binding:
				clone := *el
				node.Element = &clone
			case DispairImportItem:
				node.Element = el
			}
			out[name] = node
		case Namespace:
			out[name] = copyNamespace(v, hash, importIndex)
		}
	}
	return out
}

// sameKind reports whether two namespace items can occupy the one slot:
// leaves must hold the same element kind, interiors are always mergeable
// with interiors.
func sameKind(a, b NamespaceItem) bool {
	an, aLeaf := a.(NamespaceNode)
	bn, bLeaf := b.(NamespaceNode)
	if aLeaf != bLeaf {
		return false
	}
	if !aLeaf {
		return true
	}
	_, aBinding := an.Binding()
	_, bBinding := bn.Binding()
	return aBinding == bBinding
}

// mergeNamespace merges incoming into target, reporting a problem at
// position for every occupied slot. Identical-kind leaf collisions keep
// the existing entry.
func mergeNamespace(target, incoming Namespace, position Offsets) []Problem {
	var problems []Problem
	for name, item := range incoming {
		existing, ok := target[name]
		if !ok {
			target[name] = item
			continue
		}
		if !sameKind(existing, item) {
			problems = append(problems, ErrCodeNamespaceOccupied.Problem(position, name))
			continue
		}
		existingNS, isNested := existing.(Namespace)
		if isNested {
			problems = append(problems,
				mergeNamespace(existingNS, item.(Namespace), position)...)
		}
	}
	return problems
}

// childNamespace resolves (creating on demand) the dotted target path an
// import merges into. An empty name targets the root.
func childNamespace(root Namespace, path string, position Offsets) (Namespace, *Problem) {
	if path == "" || path == "." {
		return root, nil
	}

	path = strings.TrimPrefix(path, ".")
	path = strings.TrimSuffix(path, ".")

	segments := strings.Split(path, ".")
	if len(segments) > MaxNamespaceDepth {
		p := ErrCodeDeepNamespace.Problem(position)
		return nil, &p
	}

	current := root
	for _, segment := range segments {
		item, ok := current[segment]
		if !ok {
			next := Namespace{}
			current[segment] = next
			current = next
			continue
		}
		child, isNested := item.(Namespace)
		if !isNested {
			p := ErrCodeNamespaceOccupied.Problem(position, segment)
			return nil, &p
		}
		current = child
	}
	return current, nil
}

// applyConfiguration rewrites an imported namespace per the import's
// rename and rebind pairs. Problems land on the configuration itself.
func applyConfiguration(ns Namespace, cfg *ImportConfiguration) {
	if cfg == nil {
		return
	}
	for _, group := range cfg.Groups {
		key, value := group[0], group[1]
		span := Offsets{key.Position[0], value.Position[1]}
		if value.Value == "" {
			span = key.Position
		}

		switch {
		case strings.HasPrefix(key.Value, "'"):
			// rename: 'old-name new-name
			oldName := key.Value[1:]
			if value.Value == "" {
				cfg.Problems = append(cfg.Problems,
					ErrCodeExpectedRename.Problem(key.Position, key.Value))
				continue
			}
			if !WordPattern.MatchString(oldName) || !WordPattern.MatchString(value.Value) {
				cfg.Problems = append(cfg.Problems,
					ErrCodeInvalidWordPattern.Problem(span, key.Value+" "+value.Value))
				continue
			}
			item, ok := ns[oldName]
			if !ok {
				cfg.Problems = append(cfg.Problems,
					ErrCodeUndefinedIdentifier.Problem(key.Position, oldName))
				continue
			}
			if _, occupied := ns[value.Value]; occupied {
				cfg.Problems = append(cfg.Problems,
					ErrCodeNamespaceOccupied.Problem(value.Position, value.Value))
				continue
			}
			delete(ns, oldName)
			ns[value.Value] = item

		case value.Value == "!":
			// elide: name !
			elideBinding(ns, cfg, key, value)

		case NumericPattern.MatchString(value.Value):
			// rebind: name new-value, constants only
			rebindConstant(ns, cfg, key, value)

		default:
			cfg.Problems = append(cfg.Problems,
				ErrCodeExpectedElisionOrRebinding.Problem(span))
		}
	}
}

func elideBinding(ns Namespace, cfg *ImportConfiguration, key, value ParsedItem) {
	if !WordPattern.MatchString(key.Value) {
		cfg.Problems = append(cfg.Problems,
			ErrCodeInvalidWordPattern.Problem(key.Position, key.Value))
		return
	}
	node, ok := ns.Node(key.Value)
	if !ok {
		cfg.Problems = append(cfg.Problems,
			ErrCodeUndefinedIdentifier.Problem(key.Position, key.Value))
		return
	}
	binding, isBinding := node.Binding()
	if !isBinding {
		cfg.Problems = append(cfg.Problems,
			ErrCodeUnexpectedRebinding.Problem(value.Position, key.Value))
		return
	}
	binding.Item = ElidedBinding{}
	binding.Content = "!"
}

func rebindConstant(ns Namespace, cfg *ImportConfiguration, key, value ParsedItem) {
	if !WordPattern.MatchString(key.Value) {
		cfg.Problems = append(cfg.Problems,
			ErrCodeInvalidWordPattern.Problem(key.Position, key.Value))
		return
	}
	node, ok := ns.Node(key.Value)
	if !ok {
		cfg.Problems = append(cfg.Problems,
			ErrCodeUndefinedIdentifier.Problem(key.Position, key.Value))
		return
	}
	binding, isBinding := node.Binding()
	if !isBinding || !node.IsConstant() {
		cfg.Problems = append(cfg.Problems,
			ErrCodeUnexpectedRebinding.Problem(value.Position, key.Value))
		return
	}
	if _, err := ToUint256(value.Value); err != nil {
		cfg.Problems = append(cfg.Problems,
			ErrCodeOutOfRangeValue.Problem(value.Position))
		return
	}
	binding.Item = ConstantBinding{Value: value.Value}
	binding.Content = value.Value
}
