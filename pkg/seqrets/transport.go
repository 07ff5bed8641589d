package seqrets

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gregLibert/seqrets-card/pkg/iso7816"
	"github.com/gregLibert/seqrets-card/pkg/logging"
)

// Conn is an open connection to a card in a reader.
// Close must disconnect with a card reset and release any reader context.
type Conn interface {
	Transmit(cmd []byte) ([]byte, error)
	Close() error
}

// Connector opens connections to card readers.
type Connector interface {
	ListReaders() ([]string, error)
	Connect(reader string) (Conn, error)
}

// Session is one connection to the applet. PIN verification lives and dies with it.
type Session struct {
	reader  string
	conn    Conn
	client  *iso7816.Client
	logger  *slog.Logger
	metrics *Metrics

	// DFName is the application name echoed by SELECT, if the applet returned an FCI.
	DFName []byte
}

// Open connects to reader. The returned Session must be closed by the caller.
func Open(connector Connector, reader string, logger *slog.Logger, metrics *Metrics) (*Session, error) {
	if err := validateReaderName(reader); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.Discard()
	}

	conn, err := connector.Connect(reader)
	if err != nil {
		return nil, newError(KindTransport, err, "connect to reader %q", reader)
	}

	return &Session{
		reader:  reader,
		conn:    conn,
		client:  iso7816.NewClient(conn),
		logger:  logger.With("reader", reader),
		metrics: metrics,
	}, nil
}

func validateReaderName(reader string) error {
	if reader == "" {
		return newError(KindTransport, nil, "reader name is empty")
	}
	if strings.ContainsRune(reader, 0) {
		return newError(KindTransport, nil, "reader name contains a NUL byte")
	}
	return nil
}

// Select selects the applet by AID.
func (s *Session) Select() error {
	cmd := iso7816.SelectByAID(iso7816.InterindustryClass, AID)

	trace, err := s.exchange(cmd)
	if err != nil {
		return err
	}
	if err := decodeSelectStatus(trace.Status()); err != nil {
		return err
	}

	if name, ok := iso7816.DFName(trace.Data()); ok {
		s.DFName = name
		if !bytes.Equal(name, AID) {
			s.logger.Warn("selected application reports a different DF name",
				"df_name", fmt.Sprintf("%X", name))
		}
	}
	return nil
}

// Transmit sends one applet command and returns the response data on 9000.
// Any other status word is decoded into an *Error.
func (s *Session) Transmit(ins iso7816.InsCode, p1, p2 byte, data []byte) ([]byte, error) {
	instruction, err := iso7816.NewInstruction(ins)
	if err != nil {
		return nil, newError(KindValidation, err, "build command")
	}
	cmd := iso7816.NewCommandAPDU(ProprietaryClass, instruction, p1, p2, data, 0)

	trace, err := s.exchange(cmd)
	if err != nil {
		return nil, err
	}
	if err := DecodeStatus(trace.Status()); err != nil {
		return nil, err
	}
	return trace.Data(), nil
}

// exchange sends cmd and records every physical exchange of the resulting trace.
func (s *Session) exchange(cmd *iso7816.CommandAPDU) (iso7816.Trace, error) {
	trace, err := s.client.Send(cmd)
	for _, tx := range trace {
		s.observe(tx)
	}
	if err != nil {
		if errors.Is(err, iso7816.ErrProcedureLoop) {
			return nil, newError(KindProtocol, err, "%s", InstructionName(cmd.Instruction.Raw))
		}
		return nil, newError(KindTransport, err, "%s", InstructionName(cmd.Instruction.Raw))
	}
	return trace, nil
}

// observe logs one exchange. Payloads are never logged: they carry PINs and secrets.
func (s *Session) observe(tx iso7816.Transaction) {
	name := InstructionName(tx.Command.Instruction.Raw)
	sw := tx.Response.Status

	s.logger.Debug("apdu",
		"ins", name,
		"p1", tx.Command.P1,
		"p2", tx.Command.P2,
		"lc", len(tx.Command.Data),
		"resp_len", len(tx.Response.Data),
		"sw", sw.String(),
	)
	s.metrics.observeAPDU(name, sw)
}

// Close disconnects with a card reset. It is safe to call more than once.
func (s *Session) Close() error {
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	if err != nil {
		return newError(KindTransport, err, "disconnect from reader %q", s.reader)
	}
	return nil
}
