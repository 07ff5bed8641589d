package seqrets

import (
	"github.com/gregLibert/seqrets-card/pkg/iso7816"
)

// DecodeStatus maps the status word of an applet response to an outcome.
// It returns nil for 9000. The applet reports an exhausted PIN as 6983, other
// cards use 6984; both mean the card is locked.
func DecodeStatus(sw iso7816.StatusWord) error {
	switch sw {
	case iso7816.SW_NO_ERROR:
		return nil
	case iso7816.SW_ERR_SECURITY_STATUS_NOT_SAT:
		return &Error{Kind: KindPinRequired, Status: sw}
	case iso7816.SW_ERR_REF_DATA_NOT_USABLE, iso7816.SW_ERR_AUTH_METHOD_BLOCKED:
		return &Error{Kind: KindCardLocked, Status: sw}
	case iso7816.SW_ERR_NOT_ENOUGH_MEMORY:
		return &Error{Kind: KindStorageFull, Status: sw}
	case iso7816.SW_ERR_FILE_NOT_FOUND:
		return &Error{Kind: KindApplicationNotFound, Status: sw}
	default:
		return &Error{Kind: KindProtocol, Status: sw}
	}
}

// decodeSelectStatus narrows DecodeStatus to the outcomes SELECT can have.
func decodeSelectStatus(sw iso7816.StatusWord) error {
	switch sw {
	case iso7816.SW_NO_ERROR:
		return nil
	case iso7816.SW_ERR_FILE_NOT_FOUND:
		return &Error{Kind: KindApplicationNotFound, Status: sw}
	default:
		return &Error{Kind: KindProtocol, Status: sw}
	}
}
