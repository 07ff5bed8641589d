package iso7816

import (
	"fmt"

	"github.com/gregLibert/seqrets-card/pkg/bits"
)

// Class Byte (CLA) Structure according to ISO/IEC 7816-4.
//
// Bit 8: Proprietary (1) or Interindustry (0).
// Bit 7: Type of Interindustry (0=First, 1=Further).
// Bit 5: Command Chaining (0=Last/Only, 1=More follow).
//
// First Interindustry Class (00xx xxxx): bits 2-1 carry the logical channel (0-3).
// Further Interindustry Class (01xx xxxx): bits 4-1 carry the logical channel minus 4.
//
// Proprietary classes are opaque: the card application defines their meaning.

// Class represents the parsed ISO 7816-4 Class byte (CLA).
type Class struct {
	Raw           byte
	IsProprietary bool
	IsChained     bool
	Channel       uint8 // Logical channel number (0-19)
}

// InterindustryClass is CLA 0x00: first interindustry, channel 0, no chaining.
var InterindustryClass = Class{Raw: 0x00}

// NewClass creates a Class object by decoding a raw CLA byte.
func NewClass(cla byte) (Class, error) {
	if cla == 0xFF {
		return Class{}, fmt.Errorf("invalid CLA value: 0xFF is reserved")
	}

	c := Class{Raw: cla}

	if bits.IsSet(cla, 8) {
		c.IsProprietary = true
		return c, nil
	}

	c.IsChained = bits.IsSet(cla, 5)

	if !bits.IsSet(cla, 7) {
		c.Channel = bits.GetRange(cla, 2, 1)
	} else {
		c.Channel = bits.GetRange(cla, 4, 1) + 4
	}

	return c, nil
}

// MustClass is like NewClass but panics on a reserved value.
// It is intended for package-level protocol constants.
func MustClass(cla byte) Class {
	c, err := NewClass(cla)
	if err != nil {
		panic(err)
	}
	return c
}

// Encode converts the Class object back to its byte representation.
func (c Class) Encode() (byte, error) {
	if c.IsProprietary {
		return c.Raw, nil
	}
	if c.Channel > 19 {
		return 0, fmt.Errorf("channel %d out of range (max 19)", c.Channel)
	}

	// Secure messaging indicators are carried over untouched from Raw.
	var res byte
	if c.Channel <= 3 {
		res = c.Raw & 0b0000_1100
		res |= c.Channel
	} else {
		res = bits.Set(c.Raw&0b0010_0000, 7)
		res |= c.Channel - 4
	}

	if c.IsChained {
		res = bits.Set(res, 5)
	} else {
		res = bits.Clear(res, 5)
	}

	return res, nil
}

// ForResponse returns the class to use for a GET RESPONSE that follows a command
// sent with c. Chaining is dropped and proprietary classes fall back to the
// interindustry class, since GET RESPONSE is an interindustry command.
func (c Class) ForResponse() Class {
	if c.IsProprietary {
		return InterindustryClass
	}
	c.IsChained = false
	c.Raw = bits.Clear(c.Raw, 5)
	return c
}

// Verbose returns a human-readable description of the CLA byte configuration.
func (c Class) Verbose() string {
	if c.IsProprietary {
		return fmt.Sprintf("Class: Proprietary (0x%02X)", c.Raw)
	}

	chaining := "Last or only command"
	if c.IsChained {
		chaining = "More commands follow (Chaining)"
	}

	return fmt.Sprintf("Class: Interindustry (0x%02X) | Chaining: %s | Logical Channel: %d",
		c.Raw, chaining, c.Channel)
}
