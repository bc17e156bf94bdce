package rainlang_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/beehive-innovation/rainlang"
)

// Diagnostic codes are published to LSP clients, so the gaps in the
// numbering are load bearing.
func TestErrorCodeValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		code     rainlang.ErrorCode
		expected int
	}{
		{rainlang.ErrCodeIllegalChar, 0},
		{rainlang.ErrCodeUnresolvableDependencies, 13},
		{rainlang.ErrCodeUndefinedWord, 0x101},
		{rainlang.ErrCodeUndefinedNamespaceMember, 0x108},
		{rainlang.ErrCodeInvalidHash, 0x205},
		{rainlang.ErrCodeInvalidImport, 0x208},
		{rainlang.ErrCodeInvalidEmptyBinding, 0x209},
		{rainlang.ErrCodeInvalidBindingIdentifier, 0x210},
		{rainlang.ErrCodeInvalidNamespaceReference, 0x216},
		{rainlang.ErrCodeUnexpectedPragma, 0x308},
		{rainlang.ErrCodeExpectedHexLiteral, 0x409},
		{rainlang.ErrCodeExpectedOperandArgs, 0x410},
		{rainlang.ErrCodeExpectedRename, 0x411},
		{rainlang.ErrCodeMismatchOperandArgs, 0x503},
		{rainlang.ErrCodeOutOfRangeValue, 0x603},
		{rainlang.ErrCodeDuplicateImport, 0x704},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, int(tt.code))
	}
}
