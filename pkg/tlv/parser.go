// Package tlv provides small helpers over BER-TLV (Basic Encoding Rules -
// Tag-Length-Value) data such as the FCI template a card may return on SELECT.
package tlv

import (
	"fmt"
	"strings"

	"github.com/moov-io/bertlv"
)

// Find decodes data and returns the value of the first occurrence of tag,
// searching constructed templates depth-first. For a constructed match the
// re-encoded children are returned.
func Find(data []byte, tag string) ([]byte, bool, error) {
	packets, err := bertlv.Decode(data)
	if err != nil {
		return nil, false, fmt.Errorf("bertlv decode failed: %w", err)
	}

	p, ok := findPacket(packets, strings.ToUpper(tag))
	if !ok {
		return nil, false, nil
	}

	if len(p.TLVs) > 0 {
		enc, err := bertlv.Encode(p.TLVs)
		if err != nil {
			return nil, false, fmt.Errorf("bertlv encode failed: %w", err)
		}
		return enc, true, nil
	}
	return p.Value, true, nil
}

func findPacket(packets []bertlv.TLV, tag string) (bertlv.TLV, bool) {
	for _, p := range packets {
		if strings.ToUpper(p.Tag) == tag {
			return p, true
		}
		if len(p.TLVs) > 0 {
			if nested, ok := findPacket(p.TLVs, tag); ok {
				return nested, true
			}
		}
	}
	return bertlv.TLV{}, false
}
