package iso7816

// TRANSACTION:
// A Transaction is the atomic unit of communication defined in ISO 7816-3:
// one Command APDU sent by the terminal, followed by one Response APDU sent back by the card.
//
// TRACE:
// A Trace is the chronological sequence of Transactions behind one logical command.
// A single intent may take several physical exchanges:
// 1. "61 XX": the card has XX extra bytes and the terminal sends GET RESPONSE.
// 2. "6C XX": the terminal re-sends the command with Le = XX.
//
// IsSuccess() and Status() evaluate the final outcome, Data() reassembles the payload.

// Transaction represents a completed Command-Response pair.
type Transaction struct {
	Command  *CommandAPDU
	Response *ResponseAPDU
}

// IsSuccess checks if the transaction ended with a successful status.
// It returns false if the response is missing.
func (t *Transaction) IsSuccess() bool {
	if t.Response == nil {
		return false
	}
	return t.Response.Status.IsSuccess()
}

// Trace is a sequence of transactions (Command-Response pairs).
type Trace []Transaction

// Last returns the final transaction of the trace.
// Returns nil if the trace is empty.
func (t Trace) Last() *Transaction {
	if len(t) == 0 {
		return nil
	}
	return &t[len(t)-1]
}

// IsSuccess checks if the FINAL transaction in the trace was successful.
func (t Trace) IsSuccess() bool {
	last := t.Last()
	if last == nil {
		return false
	}
	return last.IsSuccess()
}

// Status returns the status word of the final response, or 0 for an empty trace.
func (t Trace) Status() StatusWord {
	last := t.Last()
	if last == nil || last.Response == nil {
		return 0
	}
	return last.Response.Status
}

// Data concatenates the response data of every transaction in order.
func (t Trace) Data() []byte {
	var out []byte
	for _, tx := range t {
		if tx.Response != nil {
			out = append(out, tx.Response.Data...)
		}
	}
	return out
}
