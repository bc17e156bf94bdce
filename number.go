package rainlang

import (
	"fmt"
	"math/big"
	"strings"
)

// maxUint256 is the largest value a parsed literal may take.
var maxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

// ToUint256 normalizes a numeric literal to its integer value. Binary,
// scientific, decimal and hex forms are accepted. Values over 256 bits
// return ErrOutOfRangeValue.
func ToUint256(value string) (*big.Int, error) {
	var parsed *big.Int
	var ok bool

	switch {
	case BinaryPattern.MatchString(value):
		parsed, ok = new(big.Int).SetString(value[2:], 2)
	case EPattern.MatchString(value):
		mantissa, exponent, _ := strings.Cut(value, "e")
		zeros, err := ToUint256(exponent)
		if err != nil {
			return nil, err
		}
		if !zeros.IsUint64() || zeros.Uint64() > 77 {
			return nil, ErrOutOfRangeValue
		}
		expanded := mantissa + strings.Repeat("0", int(zeros.Uint64()))
		parsed, ok = new(big.Int).SetString(expanded, 10)
	case IntPattern.MatchString(value):
		parsed, ok = new(big.Int).SetString(value, 10)
	case HexPattern.MatchString(value):
		parsed, ok = new(big.Int).SetString(value[2:], 16)
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidNumber, value)
	}

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrInvalidNumber, value)
	}
	if parsed.Cmp(maxUint256) > 0 {
		return nil, ErrOutOfRangeValue
	}
	return parsed, nil
}
