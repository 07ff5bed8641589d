package seqrets

import (
	"errors"
	"fmt"

	"github.com/gregLibert/seqrets-card/pkg/iso7816"
)

// Kind classifies a failure so callers can branch on it rather than on message text.
type Kind int

const (
	KindUnknown Kind = iota
	KindTransport
	KindPinRequired
	KindCardLocked
	KindStorageFull
	KindApplicationNotFound
	KindProtocol
	KindEncoding
	KindCapacityExceeded
	KindRange
	KindValidation
	KindCorrupted
	KindNoData
)

var kindNames = map[Kind]string{
	KindUnknown:             "unknown",
	KindTransport:           "transport",
	KindPinRequired:         "pin_required",
	KindCardLocked:          "card_locked",
	KindStorageFull:         "storage_full",
	KindApplicationNotFound: "application_not_found",
	KindProtocol:            "protocol",
	KindEncoding:            "encoding",
	KindCapacityExceeded:    "capacity_exceeded",
	KindRange:               "range",
	KindValidation:          "validation",
	KindCorrupted:           "corrupted",
	KindNoData:              "no_data",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// IsProtocol reports whether k is decoded from a card status word.
func (k Kind) IsProtocol() bool {
	switch k {
	case KindPinRequired, KindCardLocked, KindStorageFull, KindApplicationNotFound, KindProtocol:
		return true
	}
	return false
}

// Error is the failure type returned by every card operation.
type Error struct {
	Kind Kind

	// Status is the raw status word for protocol failures.
	Status iso7816.StatusWord

	// Index and Count describe a range failure.
	Index int
	Count int

	Msg string
	Err error
}

func (e *Error) Error() string {
	var msg string
	switch e.Kind {
	case KindPinRequired:
		msg = "PIN verification required"
	case KindCardLocked:
		msg = "card locked: PIN retries exhausted"
	case KindStorageFull:
		msg = "card storage full"
	case KindApplicationNotFound:
		msg = "seQRets application not found on card"
	case KindProtocol:
		msg = fmt.Sprintf("card returned status %04X", uint16(e.Status))
	case KindRange:
		msg = fmt.Sprintf("item index %d out of range (card holds %d items)", e.Index, e.Count)
	case KindNoData:
		msg = "no data on card"
	default:
		msg = e.Kind.String() + " error"
	}
	if e.Msg != "" {
		msg += ": " + e.Msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches sentinel errors by kind, so errors.Is(err, ErrCardLocked) works for any
// card-locked failure.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Msg == "" && t.Err == nil
}

// Sentinels for errors.Is.
var (
	ErrTransport           = &Error{Kind: KindTransport}
	ErrPinRequired         = &Error{Kind: KindPinRequired}
	ErrCardLocked          = &Error{Kind: KindCardLocked}
	ErrStorageFull         = &Error{Kind: KindStorageFull}
	ErrApplicationNotFound = &Error{Kind: KindApplicationNotFound}
	ErrProtocol            = &Error{Kind: KindProtocol}
	ErrEncoding            = &Error{Kind: KindEncoding}
	ErrCapacityExceeded    = &Error{Kind: KindCapacityExceeded}
	ErrRange               = &Error{Kind: KindRange}
	ErrValidation          = &Error{Kind: KindValidation}
	ErrCorrupted           = &Error{Kind: KindCorrupted}
	ErrNoData              = &Error{Kind: KindNoData}
)

// KindOf returns the kind of the first *Error in err's chain, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

func newError(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}

func rangeError(index, count int) *Error {
	return &Error{Kind: KindRange, Index: index, Count: count}
}
