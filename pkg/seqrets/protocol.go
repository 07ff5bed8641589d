package seqrets

import (
	"github.com/gregLibert/seqrets-card/pkg/iso7816"
)

// APPLET PROTOCOL:
// The applet exposes one data slot, a type byte, a label and a PIN. Every proprietary
// command uses CLA 0x80; only SELECT is interindustry.
//
// The values below are a fixed contract with the on-card application. They are versioned
// with the applet and are not configurable.

// AID is the 9-byte application identifier of the applet.
var AID = []byte{0xF0, 0x53, 0x51, 0x52, 0x54, 0x53, 0x01, 0x00, 0x00}

// ProprietaryClass is the CLA byte of every applet command.
var ProprietaryClass = iso7816.MustClass(0x80)

// Applet instruction codes.
const (
	INS_STORE_DATA iso7816.InsCode = 0x01
	INS_READ_DATA  iso7816.InsCode = 0x02
	INS_GET_STATUS iso7816.InsCode = 0x03
	INS_ERASE_DATA iso7816.InsCode = 0x04
	INS_SET_TYPE   iso7816.InsCode = 0x10
	INS_SET_LABEL  iso7816.InsCode = 0x11
	INS_VERIFY_PIN iso7816.InsCode = 0x20
	INS_CHANGE_PIN iso7816.InsCode = 0x21
	INS_SET_PIN    iso7816.InsCode = 0x22
)

var insNames = map[iso7816.InsCode]string{
	INS_STORE_DATA: "STORE_DATA",
	INS_READ_DATA:  "READ_DATA",
	INS_GET_STATUS: "GET_STATUS",
	INS_ERASE_DATA: "ERASE_DATA",
	INS_SET_TYPE:   "SET_TYPE",
	INS_SET_LABEL:  "SET_LABEL",
	INS_VERIFY_PIN: "VERIFY_PIN",
	INS_CHANGE_PIN: "CHANGE_PIN",
	INS_SET_PIN:    "SET_PIN",
}

// InstructionName returns the applet name of ins, used as a metric and log label.
func InstructionName(ins iso7816.InsCode) string {
	if name, ok := insNames[ins]; ok {
		return name
	}
	if ins == iso7816.INS_SELECT {
		return "SELECT"
	}
	return ins.String()
}

// Protocol limits.
const (
	// ChunkSize is the maximum payload of one STORE_DATA or READ_DATA exchange.
	ChunkSize = 240

	// Capacity is the size of the on-card data slot.
	Capacity = 8192

	// MaxLabelLength is the longest label the applet accepts, in bytes.
	MaxLabelLength = 64

	// MinPinLength and MaxPinLength bound the PIN size, in bytes.
	MinPinLength = 8
	MaxPinLength = 16

	// MaxReadChunks bounds the read loop. A card that has not delivered the declared
	// length by then is considered corrupted.
	MaxReadChunks = 100

	// maxChunks is the number of chunk indexes P1 can address.
	maxChunks = 256
)

// Type bytes stored alongside the data slot.
const (
	TypeShare byte = 0x01
	TypeVault byte = 0x02
)

// TypeName maps a type byte to the item type used by legacy blobs.
func TypeName(t byte) string {
	switch t {
	case TypeShare:
		return "share"
	case TypeVault:
		return "vault"
	default:
		return "unknown"
	}
}
