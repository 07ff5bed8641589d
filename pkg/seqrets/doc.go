/*
Package seqrets drives the seQRets smart card applet: it stores labeled secrets
(shares, vault blobs) in the card's single data slot and reads them back.

# Layers

  - Session: connect to a reader, SELECT the applet, exchange APDUs, disconnect with reset.
  - DecodeStatus: map status words to typed errors (see Kind).
  - WriteBlob / ReadBlob: move payloads larger than one APDU in 240-byte chunks.
  - Encode / Decode: the JSON item array kept in the data slot, with a fallback for
    cards written before multi-item support.
  - VerifyIfProvided, SetPin, ChangePin: PIN commands. Verification is bound to one Session.
  - Manager: the operations exposed to callers. Each one runs on its own Session and
    holds the reader exclusively until it has disconnected.

# Usage

	m := seqrets.NewManager(seqrets.PCSC{}, seqrets.WithLogger(logger))
	err := m.AppendItem(ctx, reader, seqrets.Item{ItemType: "share", Label: "Share 1", Data: share}, pin)
	if errors.Is(err, seqrets.ErrPinRequired) {
	    // ask for the PIN and retry
	}
*/
package seqrets
