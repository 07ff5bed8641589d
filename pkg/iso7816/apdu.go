package iso7816

import (
	"bytes"
	"fmt"
)

// APDU (Application Protocol Data Unit) structures and encodings according to ISO/IEC 7816-3 and 7816-4.
//
// COMMAND APDU (C-APDU):
//   - Header: CLA INS P1 P2 (mandatory, 4 bytes).
//   - Body:   [Lc Data] [Le] (optional).
//
// ENCODING CASES (ISO 7816-3), short length only:
// - Case 1: Header only.
// - Case 2: Header + Le.
// - Case 3: Header + Lc + Data.
// - Case 4: Header + Lc + Data + Le.
//
// RESPONSE APDU (R-APDU):
//   - Body:    optional data field.
//   - Trailer: SW1 SW2 (mandatory).

// APDU limits for short length fields.
const (
	// MaxShortLc is the maximum data length (Nc) encodable on one byte.
	MaxShortLc = 255

	// MaxShortLe is the maximum expected response length (Ne). 0x00 encodes 256.
	MaxShortLe = 256

	// MaxResponseSize is a full short response: 256 data bytes plus SW1 SW2.
	MaxResponseSize = MaxShortLe + 2
)

// CommandAPDU represents a command sent to the card.
type CommandAPDU struct {
	Class       Class
	Instruction Instruction
	P1, P2      byte
	Data        []byte
	Ne          int // Expected response length (0 means none)
}

// NewCommandAPDU creates a basic command.
func NewCommandAPDU(cla Class, ins Instruction, p1, p2 byte, data []byte, ne int) *CommandAPDU {
	return &CommandAPDU{
		Class:       cla,
		Instruction: ins,
		P1:          p1,
		P2:          p2,
		Data:        data,
		Ne:          ne,
	}
}

// Bytes encodes the CommandAPDU into its byte representation (C-APDU).
// Lc is emitted only when Data is non-empty and Le only when Ne is positive.
func (c *CommandAPDU) Bytes() ([]byte, error) {
	nc := len(c.Data)
	if nc > MaxShortLc {
		return nil, fmt.Errorf("data field too long: %d bytes (max %d)", nc, MaxShortLc)
	}
	if c.Ne < 0 || c.Ne > MaxShortLe {
		return nil, fmt.Errorf("expected length out of range: %d (max %d)", c.Ne, MaxShortLe)
	}

	class, err := c.Class.Encode()
	if err != nil {
		return nil, fmt.Errorf("failed to encode Class: %w", err)
	}

	buf := bytes.NewBuffer(make([]byte, 0, 4+1+nc+1))
	buf.Write([]byte{class, byte(c.Instruction.Raw), c.P1, c.P2})

	if nc > 0 {
		buf.WriteByte(byte(nc))
		buf.Write(c.Data)
	}

	if c.Ne > 0 {
		// 256 wraps to 0x00.
		buf.WriteByte(byte(c.Ne))
	}

	return buf.Bytes(), nil
}

// String returns a readable representation of the command meta-data.
// The data field is never included: it may carry PINs or secrets.
func (c *CommandAPDU) String() string {
	return fmt.Sprintf("%s | P1: %02X, P2: %02X | Lc: %d | Le: %d",
		c.Instruction.Verbose(), c.P1, c.P2, len(c.Data), c.Ne)
}

// ResponseAPDU represents the reply from the card (R-APDU).
type ResponseAPDU struct {
	Data   []byte
	Status StatusWord
}

// ParseResponseAPDU parses raw bytes received from the card into a ResponseAPDU.
// The input must contain at least 2 bytes (SW1, SW2).
func ParseResponseAPDU(raw []byte) (*ResponseAPDU, error) {
	if len(raw) < 2 {
		return nil, fmt.Errorf("response too short: length %d", len(raw))
	}

	indexSW1 := len(raw) - 2
	data := make([]byte, indexSW1)
	copy(data, raw[:indexSW1])

	return &ResponseAPDU{
		Data:   data,
		Status: NewStatusWord(raw[indexSW1], raw[indexSW1+1]),
	}, nil
}

// String returns a readable representation of the response.
func (r *ResponseAPDU) String() string {
	return fmt.Sprintf("Data (%d bytes) | Status: %s", len(r.Data), r.Status.Verbose())
}
