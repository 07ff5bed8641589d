package seqrets

import (
	"encoding/binary"
)

// minHeaderLength covers length, type, PIN set, PIN verified and PIN retries.
const minHeaderLength = 6

// Header is the GET_STATUS response:
//
//	lenHi lenLo type pinSet pinVerified pinRetries [labelLen label...]
type Header struct {
	DataLength  int
	Type        byte
	PinSet      bool
	PinVerified bool
	PinRetries  int
	Label       string
}

// ParseHeader decodes a GET_STATUS response. The label is read only when the
// response holds all labelLen bytes; an incomplete label field yields an empty label.
func ParseHeader(raw []byte) (Header, error) {
	if len(raw) < minHeaderLength {
		return Header{}, newError(KindCorrupted, nil, "status header is %d bytes, want at least %d", len(raw), minHeaderLength)
	}

	h := Header{
		DataLength:  int(binary.BigEndian.Uint16(raw[0:2])),
		Type:        raw[2],
		PinSet:      raw[3] != 0,
		PinVerified: raw[4] != 0,
		PinRetries:  int(raw[5]),
	}

	if len(raw) > minHeaderLength {
		labelLen := int(raw[minHeaderLength])
		label := raw[minHeaderLength+1:]
		if labelLen <= len(label) {
			h.Label = string(label[:labelLen])
		}
	}

	return h, nil
}

// readHeader issues GET_STATUS on s.
func readHeader(s *Session) (Header, error) {
	raw, err := s.Transmit(INS_GET_STATUS, 0x00, 0x00, nil)
	if err != nil {
		return Header{}, err
	}
	return ParseHeader(raw)
}
