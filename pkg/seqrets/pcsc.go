package seqrets

import (
	"errors"

	"github.com/ebfe/scard"
)

// PCSC is the Connector backed by the system PC/SC service.
// Every call establishes its own context, so no state is shared between operations.
type PCSC struct{}

// ListReaders returns the names of the connected readers. No readers is not an error.
func (PCSC) ListReaders() ([]string, error) {
	ctx, err := scard.EstablishContext()
	if err != nil {
		return nil, err
	}
	defer ctx.Release()

	readers, err := ctx.ListReaders()
	if errors.Is(err, scard.ErrNoReadersAvailable) {
		return nil, nil
	}
	return readers, err
}

// Connect opens a shared connection to the card in reader, using T=0 or T=1.
func (PCSC) Connect(reader string) (Conn, error) {
	ctx, err := scard.EstablishContext()
	if err != nil {
		return nil, err
	}

	card, err := ctx.Connect(reader, scard.ShareShared, scard.ProtocolAny)
	if err != nil {
		return nil, errors.Join(err, ctx.Release())
	}

	return &pcscConn{ctx: ctx, card: card}, nil
}

type pcscConn struct {
	ctx  *scard.Context
	card *scard.Card
}

func (c *pcscConn) Transmit(cmd []byte) ([]byte, error) {
	return c.card.Transmit(cmd)
}

// Close resets the card, dropping any PIN verification, then releases the context.
func (c *pcscConn) Close() error {
	return errors.Join(c.card.Disconnect(scard.ResetCard), c.ctx.Release())
}
