// Package bits numbers bits the way ISO/IEC 7816-4 tables do: b8 is the most
// significant bit, b1 the least significant.
package bits

// Bit returns a byte with only bit n set (1 to 8). Out of range positions yield 0.
func Bit(n uint) byte {
	if n < 1 || n > 8 {
		return 0
	}
	return 1 << (n - 1)
}

// IsSet reports whether bit n is set.
func IsSet(b byte, n uint) bool {
	return b&Bit(n) != 0
}

// Set returns b with bit n set.
func Set(b byte, n uint) byte {
	return b | Bit(n)
}

// Clear returns b with bit n cleared.
func Clear(b byte, n uint) byte {
	return b &^ Bit(n)
}

// GetRange extracts the value held by bits high..low.
// Example: GetRange(0b00001100, 4, 3) returns 3.
func GetRange(b byte, high, low uint) byte {
	if high < low || high > 8 || low < 1 {
		return 0
	}

	width := high - low + 1
	mask := byte((1 << width) - 1)

	return (b >> (low - 1)) & mask
}

// HighNibble returns bits b8..b5.
func HighNibble(b byte) byte {
	return GetRange(b, 8, 5)
}

// LowNibble returns bits b4..b1.
func LowNibble(b byte) byte {
	return GetRange(b, 4, 1)
}
