//go:build !rp2040 && !rp2350

package platform

import (
	"encoding/binary"
	"sync"

	"tinygo.org/x/drivers"
)

// ----------------------------- GPIO (host) -----------------------------------

// FakePin implements Pin and IRQPin for host-side tests.
type FakePin struct {
	mu      sync.RWMutex
	number  int
	level   bool
	modeOut bool
	irqEdge Edge
	irqFunc func()
}

func NewFakePin(number int) *FakePin { return &FakePin{number: number} }

func (p *FakePin) ConfigureInput(_ Pull) error {
	p.mu.Lock()
	p.modeOut = false
	p.mu.Unlock()
	return nil
}

func (p *FakePin) ConfigureOutput(initial bool) error {
	p.mu.Lock()
	p.modeOut = true
	p.level = initial
	p.mu.Unlock()
	return nil
}

func (p *FakePin) Set(level bool) {
	p.mu.Lock()
	edge := edgeFrom(p.level, level)
	p.level = level
	irq := p.irqFunc
	want := irqWanted(p.irqEdge, edge)
	p.mu.Unlock()
	if want && irq != nil {
		irq() // ISR-style callback
	}
}

func (p *FakePin) Get() bool {
	p.mu.RLock()
	v := p.level
	p.mu.RUnlock()
	return v
}

func (p *FakePin) Number() int { return p.number }

func (p *FakePin) SetIRQ(edge Edge, handler func()) error {
	p.mu.Lock()
	p.irqEdge = edge
	p.irqFunc = handler
	p.mu.Unlock()
	return nil
}

func (p *FakePin) ClearIRQ() error {
	p.mu.Lock()
	p.irqEdge = EdgeNone
	p.irqFunc = nil
	p.mu.Unlock()
	return nil
}

// HasIRQ reports whether a handler is installed.
func (p *FakePin) HasIRQ() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.irqFunc != nil
}

func edgeFrom(old, new bool) Edge {
	switch {
	case !old && new:
		return EdgeRising
	case old && !new:
		return EdgeFalling
	default:
		return EdgeNone
	}
}

func irqWanted(cfg, seen Edge) bool {
	switch cfg {
	case EdgeBoth:
		return seen == EdgeRising || seen == EdgeFalling
	case EdgeNone:
		return false
	default:
		return cfg == seen
	}
}

// ----------------------------- gSPI chip (host) ------------------------------

// HostChip emulates the function-0 register file of a gSPI WLAN chip behind
// tinygo drivers.SPI. It answers only while Power is high and comes up in
// 16-bit word mode, where read data has its halves swapped. Command words
// are always decoded as sent. Dropping Power clears its registers.
type HostChip struct {
	Power *FakePin
	Wake  *FakePin

	mu      sync.Mutex
	mute    bool
	busCtl  uint32
	intMask uint32
	status  uint16
	txs     int
}

var _ drivers.SPI = (*HostChip)(nil)

func (c *HostChip) Tx(w, r []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.txs++
	if len(w) < 4 {
		return nil
	}
	cmd := binary.LittleEndian.Uint32(w)
	write := cmd>>31 == 1
	fn := Function(cmd >> 28 & 3)
	addr := cmd >> 11 & 0x1ffff

	if !c.Power.Get() || c.mute || fn != FuncBus {
		if len(r) >= 8 {
			clear(r[4:8])
		}
		return nil
	}
	if write {
		if len(w) < 8 {
			return nil
		}
		val := binary.LittleEndian.Uint32(w[4:])
		switch addr {
		case regBusControl:
			c.busCtl = val
		case regInterruptEnable:
			c.intMask = val
		}
		return nil
	}
	if len(r) < 8 {
		return nil
	}
	var val uint32
	switch addr {
	case regReadTest:
		val = TestPattern
	case regInterrupt:
		val = uint32(c.status)
		c.status = 0
	case regBusControl:
		val = c.busCtl
	case regInterruptEnable:
		val = c.intMask
	}
	if c.busCtl&busWordLength32 == 0 {
		val = val<<16 | val>>16
	}
	binary.LittleEndian.PutUint32(r[4:], val)
	return nil
}

func (c *HostChip) powerLost() {
	c.mu.Lock()
	c.busCtl, c.intMask, c.status = 0, 0, 0
	c.mu.Unlock()
}

func (c *HostChip) Transfer(b byte) (byte, error) { return 0xFF, nil }

// Raise latches status bits and pulses the host-wake line if any of them is
// unmasked.
func (c *HostChip) Raise(bits uint16) {
	c.mu.Lock()
	c.status |= bits
	fire := uint32(bits)&c.intMask != 0
	c.mu.Unlock()
	if fire {
		c.Wake.Set(true)
		c.Wake.Set(false)
	}
}

// SetMute makes the chip stop answering reads, as if the bus were miswired.
func (c *HostChip) SetMute(m bool) {
	c.mu.Lock()
	c.mute = m
	c.mu.Unlock()
}

func (c *HostChip) BusControl() uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busCtl
}

func (c *HostChip) InterruptMask() uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.intMask
}

func (c *HostChip) Transactions() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.txs
}

// NewHostGSPI wires a GSPI platform to an emulated chip.
func NewHostGSPI(cfg GSPIConfig) (*GSPI, *HostChip) {
	chip := &HostChip{Power: NewFakePin(23), Wake: NewFakePin(24)}
	_ = chip.Power.SetIRQ(EdgeFalling, chip.powerLost)
	return NewGSPI(chip, NewFakePin(25), chip.Power, chip.Wake, cfg), chip
}

// DefaultGSPI returns the board's gSPI platform by id. On host builds the
// only bus is an emulated chip on "wlan0".
func DefaultGSPI(id string) (*GSPI, error) {
	if id != "wlan0" {
		return nil, ErrUnknownBus
	}
	g, _ := NewHostGSPI(GSPIConfig{})
	return g, nil
}
