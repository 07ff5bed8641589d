package iso7816

import (
	"fmt"

	"github.com/gregLibert/seqrets-card/pkg/bits"
)

// Instruction Byte (INS) Logic according to ISO/IEC 7816-4.
//
// INS values where the upper nibble is '6' or '9' (0x6X or 0x9X) are invalid:
// they are reserved for SW1 procedure bytes of the transport layer (ISO/IEC 7816-3).
// Under the interindustry class, bit 1 indicates BER-TLV encoded data.

// InsCode is a typed representation of the instruction byte.
type InsCode byte

// Interindustry instruction codes used by the host.
const (
	INS_VERIFY       InsCode = 0x20
	INS_SELECT       InsCode = 0xA4
	INS_GET_RESPONSE InsCode = 0xC0
	INS_GET_DATA     InsCode = 0xCA
)

var insNames = map[InsCode]string{
	INS_VERIFY:       "INS_VERIFY",
	INS_SELECT:       "INS_SELECT",
	INS_GET_RESPONSE: "INS_GET_RESPONSE",
	INS_GET_DATA:     "INS_GET_DATA",
}

func (i InsCode) String() string {
	if name, ok := insNames[i]; ok {
		return name
	}
	return fmt.Sprintf("INS_%02X", byte(i))
}

// Instruction represents the parsed ISO 7816-4 Instruction byte (INS).
type Instruction struct {
	Raw      InsCode
	IsBERTLV bool
}

// NewInstruction creates an Instruction object with validation.
// It rejects '6X' and '9X' values as they are invalid according to ISO 7816-3.
func NewInstruction(ins InsCode) (Instruction, error) {
	highNibble := bits.HighNibble(byte(ins))
	if highNibble == 0x6 || highNibble == 0x9 {
		return Instruction{}, fmt.Errorf("invalid INS 0x%02X: 6X and 9X are reserved", byte(ins))
	}

	return Instruction{
		Raw:      ins,
		IsBERTLV: bits.IsSet(byte(ins), 1),
	}, nil
}

// MustInstruction is like NewInstruction but panics on a reserved value.
func MustInstruction(ins InsCode) Instruction {
	i, err := NewInstruction(ins)
	if err != nil {
		panic(err)
	}
	return i
}

// Verbose returns a human-readable description of the instruction.
func (i Instruction) Verbose() string {
	return fmt.Sprintf("INS: 0x%02X | Command: %s", byte(i.Raw), i.Raw.String())
}
