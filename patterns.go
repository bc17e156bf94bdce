package rainlang

import "regexp"

// Compiled patterns shared across the parsers. All matching is on exact
// byte offsets, so none of these use multiline or case folding unless the
// grammar calls for it.
var (
	// WordPattern matches a valid identifier.
	WordPattern = regexp.MustCompile(`^[a-z][0-9a-z-]*$`)

	// WSPattern matches any run of whitespace.
	WSPattern = regexp.MustCompile(`\s+`)

	// HexPattern matches a hex literal.
	HexPattern = regexp.MustCompile(`^0x[0-9a-fA-F]+$`)

	// BinaryPattern matches a binary literal.
	BinaryPattern = regexp.MustCompile(`^0b[0-1]+$`)

	// EPattern matches scientific notation with integer mantissa and
	// exponent.
	EPattern = regexp.MustCompile(`^[1-9]\d*e\d+$`)

	// IntPattern matches a plain decimal integer.
	IntPattern = regexp.MustCompile(`^\d+$`)

	// NumericPattern matches any accepted numeric literal form.
	NumericPattern = regexp.MustCompile(`^(0x[0-9a-fA-F]+|0b[0-1]+|\d+|[1-9]\d*e\d+)$`)

	// HashPattern matches a 32-byte content hash.
	HashPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{64}$`)

	// CommentPattern matches a comment block, tolerating a missing
	// terminator at end of text.
	CommentPattern = regexp.MustCompile(`(?s)/\*.*?(\*/|$)`)

	// NamespacePattern matches a dotted namespace path reference.
	NamespacePattern = regexp.MustCompile(`^(\.?[a-z][0-9a-z-]*)*\.?$`)

	// QuotePattern matches a quoted binding reference.
	QuotePattern = regexp.MustCompile(`^'\.?[a-z][0-9a-z-]*(\.[a-z][0-9a-z-]*)*$`)

	// OperandArgsPattern matches the interior items of an operand
	// argument list.
	OperandArgsPattern = regexp.MustCompile(`[^<>\s]+`)

	// NonASCIIPattern locates bytes outside the 7-bit range.
	NonASCIIPattern = regexp.MustCompile(`[^ -~\s]+`)

	// ImportHashPattern matches the leading hex chunk of an import.
	ImportHashPattern = regexp.MustCompile(`^0x[0-9a-fA-F]*$`)

	// MetaHashPrefixPattern matches a partially typed hash prefix. At
	// least the x marker must have been typed.
	MetaHashPrefixPattern = regexp.MustCompile(`^0?x`)
)
