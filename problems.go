package rainlang

import "fmt"

// ErrorCode identifies a diagnostic raised while parsing a rain document.
// Codes are grouped by category: values below 0x100 are lexical/structural,
// 0x1xx resolution, 0x2xx invalid constructs, 0x3xx unexpected tokens,
// 0x4xx expected-but-missing tokens, 0x5xx mismatches, 0x6xx out-of-range
// values and 0x7xx duplicates.
type ErrorCode int

// Lexical and structural codes.
const (
	ErrCodeIllegalChar ErrorCode = iota
	ErrCodeRuntimeError
	ErrCodeCircularDependency
	ErrCodeCircularDependencyQuote
	ErrCodeDeepImport
	ErrCodeDeepNamespace
	ErrCodeCorruptMeta
	ErrCodeElidedBinding
	ErrCodeSingletonWords
	ErrCodeMultipleWords
	ErrCodeSingleWordModify
	ErrCodeInconsumableMeta
	ErrCodeNamespaceOccupied
	ErrCodeUnresolvableDependencies
)

// Resolution codes.
const (
	ErrCodeUndefinedWord ErrorCode = iota + 0x101
	ErrCodeUndefinedAuthoringMeta
	ErrCodeUndefinedMeta
	ErrCodeUndefinedQuote
	ErrCodeUndefinedOpcode
	ErrCodeUndefinedIdentifier
	ErrCodeUndefinedDeployer
	ErrCodeUndefinedNamespaceMember
)

// Invalid construct codes. Values are part of the published diagnostic
// code set and are not contiguous.
const (
	ErrCodeInvalidWordPattern        ErrorCode = 0x201
	ErrCodeInvalidExpression         ErrorCode = 0x202
	ErrCodeInvalidNestedNode         ErrorCode = 0x203
	ErrCodeInvalidSelfReference      ErrorCode = 0x204
	ErrCodeInvalidHash               ErrorCode = 0x205
	ErrCodeInvalidImport             ErrorCode = 0x208
	ErrCodeInvalidEmptyBinding       ErrorCode = 0x209
	ErrCodeInvalidBindingIdentifier  ErrorCode = 0x210
	ErrCodeInvalidQuote              ErrorCode = 0x211
	ErrCodeInvalidOperandArg         ErrorCode = 0x212
	ErrCodeInvalidReference          ErrorCode = 0x213
	ErrCodeInvalidRainDocument       ErrorCode = 0x214
	ErrCodeInvalidEmptyLine          ErrorCode = 0x215
	ErrCodeInvalidNamespaceReference ErrorCode = 0x216
)

// Unexpected token codes.
const (
	ErrCodeUnexpectedToken ErrorCode = iota + 0x301
	ErrCodeUnexpectedClosingParen
	ErrCodeUnexpectedNamespacePath
	ErrCodeUnexpectedRebinding
	ErrCodeUnexpectedClosingAngleParen
	ErrCodeUnexpectedEndOfComment
	ErrCodeUnexpectedComment
	ErrCodeUnexpectedPragma
)

// Expected token codes. Same, not contiguous past 0x409.
const (
	ErrCodeExpectedOpcode              ErrorCode = 0x401
	ErrCodeExpectedSpace               ErrorCode = 0x402
	ErrCodeExpectedElisionOrRebinding  ErrorCode = 0x403
	ErrCodeExpectedClosingParen        ErrorCode = 0x404
	ErrCodeExpectedOpeningParen        ErrorCode = 0x405
	ErrCodeExpectedClosingAngleBracket ErrorCode = 0x406
	ErrCodeExpectedName                ErrorCode = 0x407
	ErrCodeExpectedSemi                ErrorCode = 0x408
	ErrCodeExpectedHexLiteral          ErrorCode = 0x409
	ErrCodeExpectedOperandArgs         ErrorCode = 0x410
	ErrCodeExpectedRename              ErrorCode = 0x411
)

// Mismatch codes.
const (
	ErrCodeMismatchRHS ErrorCode = iota + 0x501
	ErrCodeMismatchLHS
	ErrCodeMismatchOperandArgs
)

// Out-of-range codes.
const (
	ErrCodeOutOfRangeInputs ErrorCode = iota + 0x601
	ErrCodeOutOfRangeOperandArgs
	ErrCodeOutOfRangeValue
)

// Duplicate codes.
const (
	ErrCodeDuplicateAlias ErrorCode = iota + 0x701
	ErrCodeDuplicateIdentifier
	ErrCodeDuplicateImportStatement
	ErrCodeDuplicateImport
)

// Problem is a diagnostic attached to the entity that owns the offending
// span. Problems accumulate; they never abort a parse.
type Problem struct {
	Msg      string
	Position Offsets
	Code     ErrorCode
}

// messageTemplates maps each code to its fixed message template. Templates
// with a %s verb take exactly one item from Problem construction.
var messageTemplates = map[ErrorCode]string{
	ErrCodeIllegalChar:              "illegal character: %s",
	ErrCodeRuntimeError:             "%s",
	ErrCodeCircularDependency:       "circular dependency",
	ErrCodeCircularDependencyQuote:  "quoted binding has circular dependency",
	ErrCodeDeepImport:               "import nesting too deep",
	ErrCodeDeepNamespace:            "namespace path too deep",
	ErrCodeCorruptMeta:              "corrupt meta",
	ErrCodeElidedBinding:            "%s",
	ErrCodeSingletonWords:           "words must be singleton, but namespace includes multiple sets of words",
	ErrCodeMultipleWords:            "namespace includes multiple sets of words",
	ErrCodeSingleWordModify:         "cannot modify or elide a single word",
	ErrCodeInconsumableMeta:         "meta sequence is not consumable",
	ErrCodeNamespaceOccupied:        "namespace already occupied: %s",
	ErrCodeUnresolvableDependencies: "cannot resolve dependency: %s",

	ErrCodeUndefinedWord:            "undefined word: %s",
	ErrCodeUndefinedAuthoringMeta:   "deployer has no authoring meta",
	ErrCodeUndefinedMeta:            "undefined meta: %s",
	ErrCodeUndefinedQuote:           "undefined quote: %s",
	ErrCodeUndefinedOpcode:          "unknown opcode: %s",
	ErrCodeUndefinedIdentifier:      "undefined identifier: %s",
	ErrCodeUndefinedDeployer:        "undefined deployer: %s",
	ErrCodeUndefinedNamespaceMember: "namespace has no member %s",

	ErrCodeInvalidWordPattern:        "invalid word pattern: %s",
	ErrCodeInvalidExpression:         "invalid expression line",
	ErrCodeInvalidNestedNode:         "invalid nested node",
	ErrCodeInvalidSelfReference:      "import hash is the document's own hash",
	ErrCodeInvalidHash:               "invalid hash, must be 32 bytes",
	ErrCodeInvalidImport:             "invalid import statement",
	ErrCodeInvalidEmptyBinding:       "invalid empty expression",
	ErrCodeInvalidBindingIdentifier:  "invalid binding name: %s",
	ErrCodeInvalidQuote:              "invalid quote: %s, cannot quote constants",
	ErrCodeInvalidOperandArg:         "invalid argument pattern: %s",
	ErrCodeInvalidReference:          "invalid reference to binding: %s, only constant bindings can be referenced",
	ErrCodeInvalidRainDocument:       "imported rain document contains problems",
	ErrCodeInvalidEmptyLine:          "invalid empty expression line",
	ErrCodeInvalidNamespaceReference: "expected a node, %s is a namespace",

	ErrCodeUnexpectedToken:             "unexpected token: %s",
	ErrCodeUnexpectedClosingParen:      `unexpected ")"`,
	ErrCodeUnexpectedNamespacePath:     "unexpected path, must end with a node",
	ErrCodeUnexpectedRebinding:         "unexpected rebinding: %s, only constant bindings can be rebound",
	ErrCodeUnexpectedClosingAngleParen: `unexpected ">"`,
	ErrCodeUnexpectedEndOfComment:      "unexpected end of comment",
	ErrCodeUnexpectedComment:           "unexpected comment",
	ErrCodeUnexpectedPragma:            "unexpected pragma, must be at top",

	ErrCodeExpectedOpcode:              "parenthesis represent inputs of an opcode, but no opcode was found for this parenthesis",
	ErrCodeExpectedSpace:               "expected a space",
	ErrCodeExpectedElisionOrRebinding:  "expected elision or rebinding",
	ErrCodeExpectedClosingParen:        `expected ")"`,
	ErrCodeExpectedOpeningParen:        `expected "("`,
	ErrCodeExpectedClosingAngleBracket: `expected ">"`,
	ErrCodeExpectedName:                "expected a name",
	ErrCodeExpectedSemi:                "expected to end with semi",
	ErrCodeExpectedHexLiteral:          "expected to be followed by a hex literal",
	ErrCodeExpectedOperandArgs:         "expected operand arguments",
	ErrCodeExpectedRename:              "expected rename target for %s",

	ErrCodeMismatchRHS:         "RHS item count mismatch",
	ErrCodeMismatchLHS:         "LHS item count mismatch",
	ErrCodeMismatchOperandArgs: "operand argument count mismatch",

	ErrCodeOutOfRangeInputs:      "inputs out of range",
	ErrCodeOutOfRangeOperandArgs: "operand argument out of range",
	ErrCodeOutOfRangeValue:       "value out of range",

	ErrCodeDuplicateAlias:           "duplicate alias: %s",
	ErrCodeDuplicateIdentifier:      "duplicate identifier: %s",
	ErrCodeDuplicateImportStatement: "duplicate import statement",
	ErrCodeDuplicateImport:          "duplicate import",
}

// Problem builds a Problem at the given position, filling the code's
// message template with the given items.
func (c ErrorCode) Problem(position Offsets, items ...any) Problem {
	template, ok := messageTemplates[c]
	if !ok {
		template = "unknown problem"
	}

	msg := template
	if len(items) > 0 {
		msg = fmt.Sprintf(template, items...)
	}

	return Problem{Msg: msg, Position: position, Code: c}
}
