package iso7816

import (
	"errors"
	"fmt"
)

// CLIENT & PROTOCOL LOGIC:
// The Client acts as a high-level driver over the physical connection.
// It implements the automatic handling of ISO 7816-3 transport behaviors that are
// often exposed to the application layer in T=0 protocols:
//
// 1. "61 XX" (Response Available):
//    The card indicates that XX bytes are waiting. The client sends GET RESPONSE
//    with Le = XX (00 meaning 256) on the interindustry class of the same channel.
//
// 2. "6C XX" (Wrong Length):
//    The card indicates that the expected length (Le) was incorrect and suggests XX.
//    The client re-sends the original command with Le = XX.
//
// The Send() method returns a Trace, which is a log of all atomic transactions
// occurred to fulfill the logical request.

// MaxProcedureDepth bounds the number of chained 61XX/6CXX procedures for a single command.
const MaxProcedureDepth = 8

// ErrProcedureLoop is returned when a card keeps answering 61XX or 6CXX past MaxProcedureDepth.
var ErrProcedureLoop = errors.New("iso7816: too many chained response procedures")

// Transmitter abstracts the physical card connection.
type Transmitter interface {
	Transmit(cmd []byte) ([]byte, error)
}

// Client manages the high-level communication with the card.
type Client struct {
	Card Transmitter
}

// NewClient creates a new Client instance.
func NewClient(card Transmitter) *Client {
	return &Client{Card: card}
}

// Send transmits a command and handles protocol logic (61xx, 6Cxx).
// On error the returned Trace holds the transactions completed so far.
func (c *Client) Send(cmd *CommandAPDU) (Trace, error) {
	return c.send(cmd, 0)
}

func (c *Client) send(cmd *CommandAPDU, depth int) (Trace, error) {
	if depth > MaxProcedureDepth {
		return nil, ErrProcedureLoop
	}

	rawCmd, err := cmd.Bytes()
	if err != nil {
		return nil, fmt.Errorf("encoding error: %w", err)
	}

	rawResp, err := c.Card.Transmit(rawCmd)
	if err != nil {
		return nil, fmt.Errorf("transmission error: %w", err)
	}

	resp, err := ParseResponseAPDU(rawResp)
	if err != nil {
		return nil, err
	}

	trace := Trace{{Command: cmd, Response: resp}}

	var next *CommandAPDU
	switch {
	case resp.Status.IsBytesAvailable():
		next = getResponse(cmd.Class, resp.Status.SW2())
	case resp.Status.IsWrongLength():
		// Clone command to update Le without mutating the original pointer
		retry := *cmd
		retry.Ne = leToNe(resp.Status.SW2())
		next = &retry
	default:
		return trace, nil
	}

	subTrace, err := c.send(next, depth+1)
	trace = append(trace, subTrace...)
	return trace, err
}

// getResponse builds GET RESPONSE for the channel of cla.
func getResponse(cla Class, le byte) *CommandAPDU {
	ins := MustInstruction(INS_GET_RESPONSE)
	return NewCommandAPDU(cla.ForResponse(), ins, 0x00, 0x00, nil, leToNe(le))
}

// leToNe decodes a short Le byte, where 0x00 stands for 256.
func leToNe(le byte) int {
	if le == 0 {
		return MaxShortLe
	}
	return int(le)
}
