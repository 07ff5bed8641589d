package tlv

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// Hex constructs a byte slice from a series of hex strings.
// Whitespace is ignored so wire fixtures can be written as "80 01 00 01".
func Hex(parts ...string) []byte {
	cleanHex := strings.Join(strings.Fields(strings.Join(parts, " ")), "")

	data, err := hex.DecodeString(cleanHex)
	if err != nil {
		panic(fmt.Sprintf("invalid input '%s': %v", cleanHex, err))
	}
	return data
}
