package rainlang

import "errors"

var (
	// ErrInvalidNumber is returned for text that is not a recognized
	// numeric literal.
	ErrInvalidNumber = errors.New("invalid numeric value")

	// ErrOutOfRangeValue is returned for numeric literals exceeding 256
	// bits.
	ErrOutOfRangeValue = errors.New("value out of range")

	// ErrOutOfBounds is returned for a span that exceeds the text it is
	// applied to.
	ErrOutOfBounds = errors.New("span out of text bounds")
)
