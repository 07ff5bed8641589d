package iso7816

import (
	"fmt"

	"github.com/gregLibert/seqrets-card/pkg/tlv"
)

// SELECT COMMAND LOGIC (ISO 7816-4):
// The SELECT command (INS 'A4') opens an application or a file.
//
// P1 (Selection Method): how the target is named (by ID, by DF name / AID, ...).
// P2 (Selection Control): bits 4-3 pick the response template, bits 2-1 the occurrence.
//
// Applications answer a selection by DF name with an FCI template ('6F') whose
// tag '84' echoes the selected DF name.

// SelectionMethod defines how the file is targeted (P1).
type SelectionMethod byte

const (
	SelectByFileID SelectionMethod = 0x00
	SelectByDFName SelectionMethod = 0x04 // Select by AID
)

func (s SelectionMethod) String() string {
	switch s {
	case SelectByFileID:
		return "Select by File ID"
	case SelectByDFName:
		return "Select by DF Name (AID)"
	default:
		return fmt.Sprintf("Unknown Method (0x%02X)", byte(s))
	}
}

// SelectionControl defines what data to return (Bits 3-4 of P2).
type SelectionControl byte

const (
	ReturnFCI    SelectionControl = 0b0000_00_00
	ReturnNoData SelectionControl = 0b0000_11_00
)

// NewSelectCommand creates a SELECT command for the first or only occurrence.
//
// No Le is sent with a data field: under T=0 the card answers '61 XX' and the
// Client fetches the FCI with GET RESPONSE.
func NewSelectCommand(cla Class, method SelectionMethod, ctrl SelectionControl, data []byte) *CommandAPDU {
	ins := MustInstruction(INS_SELECT)

	ne := 0
	if len(data) == 0 && ctrl != ReturnNoData {
		ne = MaxShortLe
	}

	return NewCommandAPDU(cla, ins, byte(method), byte(ctrl), data, ne)
}

// SelectByAID creates a SELECT command for an application identified by its AID.
func SelectByAID(cla Class, aid []byte) *CommandAPDU {
	return NewSelectCommand(cla, SelectByDFName, ReturnFCI, aid)
}

// DFName extracts the DF name (tag '84') from an FCI returned by SELECT.
// It reports false when the response carries no FCI or no DF name.
func DFName(fci []byte) ([]byte, bool) {
	if len(fci) == 0 {
		return nil, false
	}
	name, found, err := tlv.Find(fci, "84")
	if err != nil || !found {
		return nil, false
	}
	return name, true
}
