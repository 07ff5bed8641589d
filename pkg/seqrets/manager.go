package seqrets

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/gregLibert/seqrets-card/pkg/logging"
)

// Operation names used in logs and metrics.
const (
	OpListReaders = "list_readers"
	OpStatus      = "status"
	OpAppendItem  = "append_item"
	OpReadItems   = "read_items"
	OpReadItem    = "read_item"
	OpDeleteItem  = "delete_item"
	OpErase       = "erase"
	OpForceErase  = "force_erase"
	OpVerifyPin   = "verify_pin"
	OpSetPin      = "set_pin"
	OpChangePin   = "change_pin"
)

// CardStatus is a fresh snapshot of the card, computed on every call.
type CardStatus struct {
	HasData             bool          `json:"has_data"`
	DataLength          int           `json:"data_length"`
	TotalItems          int           `json:"total_items"`
	Items               []ItemSummary `json:"items"`
	PinSet              bool          `json:"pin_set"`
	PinVerified         bool          `json:"pin_verified"`
	PinRetriesRemaining int           `json:"pin_retries_remaining"`

	// FreeBytesEstimate is negative when legacy content exceeds the nominal capacity.
	FreeBytesEstimate int `json:"free_bytes_estimate"`
}

// Manager runs card operations. Every operation connects, selects the applet,
// works, then disconnects with a card reset, whatever the outcome.
//
// At most one operation runs per reader at a time; operations on different
// readers run in parallel.
type Manager struct {
	connector Connector
	logger    *slog.Logger
	metrics   *Metrics

	mu    sync.Mutex
	locks map[string]*semaphore.Weighted
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithMetrics enables Prometheus instrumentation.
func WithMetrics(metrics *Metrics) Option {
	return func(m *Manager) {
		m.metrics = metrics
	}
}

// NewManager returns a Manager using connector to reach the readers.
func NewManager(connector Connector, opts ...Option) *Manager {
	m := &Manager{
		connector: connector,
		logger:    logging.Discard(),
		locks:     make(map[string]*semaphore.Weighted),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) readerLock(reader string) *semaphore.Weighted {
	m.mu.Lock()
	defer m.mu.Unlock()

	sem, ok := m.locks[reader]
	if !ok {
		sem = semaphore.NewWeighted(1)
		m.locks[reader] = sem
	}
	return sem
}

// observe records the outcome of op.
func (m *Manager) observe(op, reader string, start time.Time, err error) {
	m.metrics.observeOperation(op, start, err)
	if err != nil {
		m.logger.Warn("card operation failed",
			"operation", op, "reader", reader, "kind", KindOf(err).String(), "error", err)
		return
	}
	m.logger.Debug("card operation done",
		"operation", op, "reader", reader, "duration", time.Since(start))
}

// withSession runs fn on a selected session of reader. ctx only bounds the wait
// for the reader: once connected, exchanges run to completion.
func (m *Manager) withSession(ctx context.Context, op, reader string, fn func(*Session) error) (err error) {
	start := time.Now()
	defer func() { m.observe(op, reader, start, err) }()

	if err := validateReaderName(reader); err != nil {
		return err
	}

	sem := m.readerLock(reader)
	if err := sem.Acquire(ctx, 1); err != nil {
		return newError(KindTransport, err, "wait for reader %q", reader)
	}
	defer sem.Release(1)

	s, err := Open(m.connector, reader, m.logger, m.metrics)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := s.Close(); cerr != nil {
			if err == nil {
				err = cerr
				return
			}
			m.logger.Warn("disconnect failed", "reader", reader, "error", cerr)
		}
	}()

	if err := s.Select(); err != nil {
		return err
	}
	return fn(s)
}

// ListReaders returns the connected readers. No reader is a transport error.
func (m *Manager) ListReaders(ctx context.Context) (readers []string, err error) {
	start := time.Now()
	defer func() { m.observe(OpListReaders, "", start, err) }()

	if err := ctx.Err(); err != nil {
		return nil, newError(KindTransport, err, "list readers")
	}

	readers, err = m.connector.ListReaders()
	if err != nil {
		return nil, newError(KindTransport, err, "list readers")
	}
	if len(readers) == 0 {
		return nil, newError(KindTransport, nil, "no smart card readers found")
	}
	return readers, nil
}

// Status reports the card state. Item summaries are best effort: when the data
// cannot be read or decoded, a single summary built from the status header is returned.
func (m *Manager) Status(ctx context.Context, reader, pin string) (*CardStatus, error) {
	var status *CardStatus

	err := m.withSession(ctx, OpStatus, reader, func(s *Session) error {
		if err := VerifyIfProvided(s, pin); err != nil {
			return err
		}

		h, err := readHeader(s)
		if err != nil {
			return err
		}

		status = &CardStatus{
			HasData:             h.DataLength > 0,
			DataLength:          h.DataLength,
			Items:               []ItemSummary{},
			PinSet:              h.PinSet,
			PinVerified:         h.PinVerified,
			PinRetriesRemaining: h.PinRetries,
			FreeBytesEstimate:   Capacity - h.DataLength,
		}
		if h.DataLength == 0 {
			return nil
		}

		items, err := m.summaries(s, h)
		if err != nil {
			m.logger.Warn("card data unreadable, reporting header only",
				"reader", reader, "kind", KindOf(err).String(), "error", err)
			items = []ItemSummary{{
				ItemType: TypeName(h.Type),
				Label:    h.Label,
				DataSize: h.DataLength,
			}}
		}
		status.Items = items
		status.TotalItems = len(items)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return status, nil
}

func (m *Manager) summaries(s *Session, h Header) ([]ItemSummary, error) {
	data, err := readChunks(s, h.DataLength)
	if err != nil {
		return nil, err
	}
	items, err := Decode(data, h.Type, h.Label)
	if err != nil {
		return nil, err
	}

	out := make([]ItemSummary, len(items))
	for i, item := range items {
		out[i] = item.Summary(i)
	}
	return out, nil
}

// readItems reads and decodes the card content. An empty card yields no items.
func readItems(s *Session) ([]Item, error) {
	blob, _, err := ReadBlob(s)
	if err != nil {
		return nil, err
	}
	return Decode(blob.Data, blob.Type, blob.Label)
}

// writeItems replaces the card content with items, as a vault blob with a summary label.
func writeItems(s *Session, items []Item) error {
	blob, label, err := Encode(items)
	if err != nil {
		return err
	}
	return WriteBlob(s, blob, TypeVault, label)
}

// AppendItem adds item after the items already on the card.
//
// The card is erased before the combined list is written. If the write fails
// midway the card may be left empty or partial, and the caller must retry.
func (m *Manager) AppendItem(ctx context.Context, reader string, item Item, pin string) error {
	return m.withSession(ctx, OpAppendItem, reader, func(s *Session) error {
		if err := VerifyIfProvided(s, pin); err != nil {
			return err
		}

		items, err := readItems(s)
		if err != nil {
			return err
		}
		return writeItems(s, append(items, item))
	})
}

// ReadAllItems returns every item on the card.
func (m *Manager) ReadAllItems(ctx context.Context, reader, pin string) ([]Item, error) {
	var items []Item

	err := m.withSession(ctx, OpReadItems, reader, func(s *Session) error {
		var err error
		items, err = m.readNonEmpty(s, pin)
		return err
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

// ReadItem returns the item at index.
func (m *Manager) ReadItem(ctx context.Context, reader string, index int, pin string) (Item, error) {
	var item Item

	err := m.withSession(ctx, OpReadItem, reader, func(s *Session) error {
		items, err := m.readNonEmpty(s, pin)
		if err != nil {
			return err
		}
		if index < 0 || index >= len(items) {
			return rangeError(index, len(items))
		}
		item = items[index]
		return nil
	})
	return item, err
}

// DeleteItem removes the item at index. Removing the last item erases the card.
func (m *Manager) DeleteItem(ctx context.Context, reader string, index int, pin string) error {
	return m.withSession(ctx, OpDeleteItem, reader, func(s *Session) error {
		items, err := m.readNonEmpty(s, pin)
		if err != nil {
			return err
		}
		if index < 0 || index >= len(items) {
			return rangeError(index, len(items))
		}

		items = append(items[:index], items[index+1:]...)
		if len(items) == 0 {
			_, err := s.Transmit(INS_ERASE_DATA, 0x00, 0x00, nil)
			return err
		}
		return writeItems(s, items)
	})
}

func (m *Manager) readNonEmpty(s *Session, pin string) ([]Item, error) {
	if err := VerifyIfProvided(s, pin); err != nil {
		return nil, err
	}
	items, err := readItems(s)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, &Error{Kind: KindNoData}
	}
	return items, nil
}

// EraseCard clears the data slot, type, label and PIN.
func (m *Manager) EraseCard(ctx context.Context, reader, pin string) error {
	return m.withSession(ctx, OpErase, reader, func(s *Session) error {
		if err := VerifyIfProvided(s, pin); err != nil {
			return err
		}
		_, err := s.Transmit(INS_ERASE_DATA, 0x00, 0x00, nil)
		return err
	})
}

// ForceEraseCard erases without verifying a PIN. It is the recovery path for a
// locked card and relies on the applet accepting an unauthenticated erase.
func (m *Manager) ForceEraseCard(ctx context.Context, reader string) error {
	return m.withSession(ctx, OpForceErase, reader, func(s *Session) error {
		m.logger.Warn("force erasing card without PIN verification", "reader", reader)
		_, err := s.Transmit(INS_ERASE_DATA, 0x00, 0x00, nil)
		return err
	})
}

// VerifyPin checks pin against the card. A wrong PIN consumes a retry.
func (m *Manager) VerifyPin(ctx context.Context, reader, pin string) error {
	if pin == "" {
		return newError(KindValidation, nil, "PIN is empty")
	}
	return m.withSession(ctx, OpVerifyPin, reader, func(s *Session) error {
		return VerifyIfProvided(s, pin)
	})
}

// SetPin sets the initial PIN of a card that has none.
func (m *Manager) SetPin(ctx context.Context, reader, pin string) error {
	if err := validatePin(pin); err != nil {
		return err
	}
	return m.withSession(ctx, OpSetPin, reader, func(s *Session) error {
		return SetPin(s, pin)
	})
}

// ChangePin replaces oldPin with newPin. The applet only accepts CHANGE_PIN on a
// verified session, so oldPin is verified first on the same session. A wrong
// oldPin fails that VERIFY_PIN and consumes a retry, like VerifyPin.
func (m *Manager) ChangePin(ctx context.Context, reader, oldPin, newPin string) error {
	if err := validatePin(newPin); err != nil {
		return err
	}
	if oldPin == "" {
		return newError(KindValidation, nil, "current PIN is empty")
	}
	return m.withSession(ctx, OpChangePin, reader, func(s *Session) error {
		if err := VerifyIfProvided(s, oldPin); err != nil {
			return err
		}
		return ChangePin(s, oldPin, newPin)
	})
}
