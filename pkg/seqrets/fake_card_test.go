package seqrets

import (
	"bytes"
	"errors"
	"sync"
	"time"

	"github.com/gregLibert/seqrets-card/pkg/iso7816"
)

// fakeCard simulates the applet, including its PIN rules.
type fakeCard struct {
	stored   [Capacity]byte
	length   int
	dataType byte
	label    []byte

	pin      []byte
	pinSet   bool
	retries  int
	verified bool

	selected bool

	// Test knobs.
	noApplet  bool                                   // SELECT answers 6A82
	withFCI   bool                                   // SELECT answers 61XX then an FCI on GET RESPONSE
	readLimit int                                    // caps READ_DATA responses when > 0
	declared  int                                    // GET_STATUS length override; READ_DATA then serves readLimit bytes at any P1
	failOn    map[iso7816.InsCode]iso7816.StatusWord // forced status per instruction
	pending   []byte
	sent      []apduRecord
}

type apduRecord struct {
	ins    iso7816.InsCode
	p1, p2 byte
	data   []byte
}

func newFakeCard() *fakeCard {
	return &fakeCard{retries: 5, failOn: map[iso7816.InsCode]iso7816.StatusWord{}}
}

// data returns the stored payload.
func (c *fakeCard) data() []byte {
	return append([]byte(nil), c.stored[:c.length]...)
}

// load stores data as if written by another host.
func (c *fakeCard) load(data []byte, typ byte, label string) {
	c.length = copy(c.stored[:], data)
	c.dataType = typ
	c.label = []byte(label)
}

func (c *fakeCard) setPin(pin string) {
	c.pin = []byte(pin)
	c.pinSet = true
	c.retries = 5
}

// instructions returns the INS of every recorded proprietary command.
func (c *fakeCard) instructions() []iso7816.InsCode {
	var out []iso7816.InsCode
	for _, r := range c.sent {
		out = append(out, r.ins)
	}
	return out
}

func (c *fakeCard) count(ins iso7816.InsCode) int {
	n := 0
	for _, r := range c.sent {
		if r.ins == ins {
			n++
		}
	}
	return n
}

func (c *fakeCard) reset() {
	c.verified = false
	c.selected = false
	c.pending = nil
}

func reply(sw iso7816.StatusWord, data ...byte) []byte {
	out := make([]byte, 0, len(data)+2)
	out = append(out, data...)
	return append(out, sw.SW1(), sw.SW2())
}

func (c *fakeCard) transmit(cmd []byte) []byte {
	if len(cmd) < 4 {
		return reply(iso7816.SW_ERR_WRONG_LENGTH)
	}
	cla, ins, p1, p2 := cmd[0], iso7816.InsCode(cmd[1]), cmd[2], cmd[3]

	var data []byte
	if len(cmd) > 5 {
		lc := int(cmd[4])
		if len(cmd) < 5+lc {
			return reply(iso7816.SW_ERR_WRONG_LENGTH)
		}
		data = append([]byte(nil), cmd[5:5+lc]...)
	}

	if cla == 0x00 {
		switch ins {
		case iso7816.INS_SELECT:
			return c.selectApplet(p1, data)
		case iso7816.INS_GET_RESPONSE:
			out := c.pending
			c.pending = nil
			return reply(iso7816.SW_NO_ERROR, out...)
		}
		return reply(iso7816.SW_ERR_CLA_NOT_SUPPORTED)
	}

	if !c.selected {
		return reply(iso7816.SW_ERR_COND_OF_USE_NOT_SAT)
	}
	if cla != 0x80 {
		return reply(iso7816.SW_ERR_CLA_NOT_SUPPORTED)
	}

	c.sent = append(c.sent, apduRecord{ins: ins, p1: p1, p2: p2, data: data})
	if sw, ok := c.failOn[ins]; ok {
		return reply(sw)
	}

	switch ins {
	case INS_STORE_DATA, INS_READ_DATA, INS_SET_TYPE, INS_SET_LABEL:
		if c.pinSet && !c.verified {
			return reply(iso7816.SW_ERR_SECURITY_STATUS_NOT_SAT)
		}
	}

	switch ins {
	case INS_STORE_DATA:
		return c.store(p1, data)
	case INS_READ_DATA:
		return c.read(p1)
	case INS_GET_STATUS:
		return c.status()
	case INS_ERASE_DATA:
		c.erase()
		return reply(iso7816.SW_NO_ERROR)
	case INS_SET_TYPE:
		if p1 != TypeShare && p1 != TypeVault {
			return reply(iso7816.SW_ERR_WRONG_P1P2)
		}
		c.dataType = p1
		return reply(iso7816.SW_NO_ERROR)
	case INS_SET_LABEL:
		if len(data) > MaxLabelLength {
			return reply(iso7816.SW_ERR_WRONG_LENGTH)
		}
		c.label = data
		return reply(iso7816.SW_NO_ERROR)
	case INS_VERIFY_PIN:
		return c.verify(data)
	case INS_CHANGE_PIN:
		return c.changePin(int(p1), data)
	case INS_SET_PIN:
		if c.pinSet {
			return reply(iso7816.SW_ERR_COND_OF_USE_NOT_SAT)
		}
		if len(data) < MinPinLength || len(data) > MaxPinLength {
			return reply(iso7816.SW_ERR_WRONG_LENGTH)
		}
		c.setPin(string(data))
		c.verified = true
		return reply(iso7816.SW_NO_ERROR)
	}
	return reply(iso7816.SW_ERR_INS_INVALID)
}

func (c *fakeCard) selectApplet(p1 byte, aid []byte) []byte {
	if p1 != byte(iso7816.SelectByDFName) || !bytes.Equal(aid, AID) || c.noApplet {
		return reply(iso7816.SW_ERR_FILE_NOT_FOUND)
	}
	c.selected = true
	c.verified = false
	if c.withFCI {
		fci := append([]byte{0x6F, 0x10, 0x84, byte(len(AID))}, AID...)
		c.pending = append(fci, 0xA5, 0x03, 0x88, 0x01, 0x01)
		return reply(iso7816.NewStatusWord(0x61, byte(len(c.pending))))
	}
	return reply(iso7816.SW_NO_ERROR)
}

func (c *fakeCard) store(p1 byte, data []byte) []byte {
	if p1 == 0 {
		c.length = 0
	}
	offset := int(p1) * ChunkSize
	if offset+len(data) > Capacity {
		return reply(iso7816.SW_ERR_NOT_ENOUGH_MEMORY)
	}
	copy(c.stored[offset:], data)
	c.length = max(c.length, offset+len(data))
	return reply(iso7816.SW_NO_ERROR)
}

func (c *fakeCard) read(p1 byte) []byte {
	if c.declared > 0 {
		return reply(iso7816.SW_NO_ERROR, c.stored[:c.readLimit]...)
	}
	if c.length == 0 {
		return reply(iso7816.SW_ERR_COND_OF_USE_NOT_SAT)
	}
	offset := int(p1) * ChunkSize
	if offset >= c.length {
		return reply(iso7816.SW_ERR_WRONG_P1P2)
	}
	n := min(c.length-offset, ChunkSize)
	if c.readLimit > 0 {
		n = min(n, c.readLimit)
	}
	return reply(iso7816.SW_NO_ERROR, c.stored[offset:offset+n]...)
}

func (c *fakeCard) status() []byte {
	length := c.length
	if c.declared > 0 {
		length = c.declared
	}
	out := []byte{byte(length >> 8), byte(length), c.dataType, flag(c.pinSet), flag(c.verified), byte(c.retries), byte(len(c.label))}
	out = append(out, c.label...)
	return reply(iso7816.SW_NO_ERROR, out...)
}

func flag(b bool) byte {
	if b {
		return 1
	}
	return 0
}

func (c *fakeCard) erase() {
	c.stored = [Capacity]byte{}
	c.length = 0
	c.dataType = 0
	c.label = nil
	c.pin = nil
	c.pinSet = false
	c.retries = 5
	c.verified = false
}

func (c *fakeCard) verify(pin []byte) []byte {
	if !c.pinSet {
		c.verified = true
		return reply(iso7816.SW_NO_ERROR)
	}
	if c.retries == 0 {
		return reply(iso7816.SW_ERR_AUTH_METHOD_BLOCKED)
	}
	if !bytes.Equal(pin, c.pin) {
		c.retries--
		c.verified = false
		return reply(iso7816.SW_ERR_SECURITY_STATUS_NOT_SAT)
	}
	c.verified = true
	c.retries = 5
	return reply(iso7816.SW_NO_ERROR)
}

func (c *fakeCard) changePin(oldLen int, data []byte) []byte {
	if !c.pinSet {
		return reply(iso7816.SW_ERR_COND_OF_USE_NOT_SAT)
	}
	if !c.verified {
		return reply(iso7816.SW_ERR_SECURITY_STATUS_NOT_SAT)
	}
	if oldLen > len(data) || !bytes.Equal(data[:oldLen], c.pin) {
		return reply(iso7816.SW_ERR_SECURITY_STATUS_NOT_SAT)
	}
	newPin := data[oldLen:]
	if len(newPin) < MinPinLength || len(newPin) > MaxPinLength {
		return reply(iso7816.SW_ERR_WRONG_LENGTH)
	}
	c.setPin(string(newPin))
	return reply(iso7816.SW_NO_ERROR)
}

// fakeConnector hands out connections to fake cards by reader name.
type fakeConnector struct {
	mu         sync.Mutex
	cards      map[string]*fakeCard
	readers    []string
	listErr    error
	connectErr error
	delay      time.Duration

	connects  int
	closes    int
	active    map[string]int
	maxActive map[string]int
}

func newFakeConnector() *fakeConnector {
	return &fakeConnector{
		cards:     map[string]*fakeCard{},
		active:    map[string]int{},
		maxActive: map[string]int{},
	}
}

// insert puts a fresh card into reader.
func (f *fakeConnector) insert(reader string) *fakeCard {
	f.mu.Lock()
	defer f.mu.Unlock()
	card := newFakeCard()
	f.cards[reader] = card
	f.readers = append(f.readers, reader)
	return card
}

func (f *fakeConnector) ListReaders() ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.readers...), f.listErr
}

func (f *fakeConnector) Connect(reader string) (Conn, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.connectErr != nil {
		return nil, f.connectErr
	}
	card, ok := f.cards[reader]
	if !ok {
		return nil, errors.New("unknown reader")
	}
	f.connects++
	f.active[reader]++
	f.maxActive[reader] = max(f.maxActive[reader], f.active[reader])
	return &fakeConn{connector: f, reader: reader, card: card}, nil
}

func (f *fakeConnector) stats() (connects, closes int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connects, f.closes
}

type fakeConn struct {
	connector *fakeConnector
	reader    string
	card      *fakeCard
	closed    bool
}

func (c *fakeConn) Transmit(cmd []byte) ([]byte, error) {
	if c.closed {
		return nil, errors.New("connection closed")
	}
	if c.connector.delay > 0 {
		time.Sleep(c.connector.delay)
	}
	c.connector.mu.Lock()
	defer c.connector.mu.Unlock()
	return c.card.transmit(cmd), nil
}

// Close resets the card like a disconnect with SCARD_RESET_CARD.
func (c *fakeConn) Close() error {
	c.connector.mu.Lock()
	defer c.connector.mu.Unlock()
	if !c.closed {
		c.closed = true
		c.connector.closes++
		c.connector.active[c.reader]--
		c.card.reset()
	}
	return nil
}
