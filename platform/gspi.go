package platform

import (
	"encoding/binary"
	"sync"
	"time"

	"wlanbus-go/hostbus"
	"wlanbus-go/x/mathx"

	"tinygo.org/x/drivers"
)

// gSPI function numbers.
type Function uint8

const (
	FuncBus       Function = 0
	FuncBackplane Function = 1
	FuncWLAN      Function = 2
)

// gSPI function-0 registers and values.
const (
	regBusControl      = 0x0000
	regInterrupt       = 0x0004 // 16 bits, read to collect status
	regInterruptEnable = 0x0006 // 16 bits
	regReadTest        = 0x0014 // 32 bits

	TestPattern = 0xFEEDBEAD
	// Test register as read before 32-bit mode is set: 16-bit halves swapped.
	testPatternSwapped = 0xBEADFEED

	busWordLength32   = 0x01
	busHighSpeed      = 0x10
	busIRQPolarityHi  = 0x20
	busWakeUp         = 0x80
	defaultBusControl = busWordLength32 | busHighSpeed | busIRQPolarityHi | busWakeUp

	// F2 packet available, F1/F2 ready, data unavailable, command error bits.
	DefaultInterruptMask = 0x00F7
)

// Command word: write(1) | incr(1) | fn(2) | addr(17) | len(11).
func cmdWord(write, incr bool, fn Function, addr, size uint32) uint32 {
	var w, i uint32
	if write {
		w = 1
	}
	if incr {
		i = 1
	}
	return w<<31 | i<<30 | uint32(fn&3)<<28 | (addr&0x1ffff)<<11 | size&0x7ff
}

// GSPIConfig tunes a GSPI platform. Zero values take defaults.
type GSPIConfig struct {
	RingDepth     int           // descriptors per direction; default 8, 1..64
	ProbeAttempts int           // test-register reads before giving up; default 4, 1..32
	PowerOnDelay  time.Duration // settle time after WL_ON; default 50ms
	IRQEdge       Edge          // host-wake edge; default rising
	InterruptMask uint16        // chip interrupt enable mask; default DefaultInterruptMask
}

func (c *GSPIConfig) normalise() {
	c.RingDepth = mathx.OrDefault(c.RingDepth, 8, 1, 64)
	c.ProbeAttempts = mathx.OrDefault(c.ProbeAttempts, 4, 1, 32)
	c.PowerOnDelay = mathx.OrDefault(c.PowerOnDelay, 50*time.Millisecond, time.Microsecond, time.Second)
	if c.IRQEdge == EdgeNone {
		c.IRQEdge = EdgeRising
	}
	if c.InterruptMask == 0 {
		c.InterruptMask = DefaultInterruptMask
	}
}

// GSPI is a hostbus.Platform for chips attached over the half-duplex
// "generic SPI" bus with a separate host-wake interrupt line.
type GSPI struct {
	cfg  GSPIConfig
	spi  drivers.SPI
	cs   Pin // optional, active low
	pwr  Pin // WL_ON
	irq  IRQPin
	line *IRQLine

	rings [2]*Ring

	mu  sync.Mutex // serialises SPI transactions
	up  bool
	buf [8]byte
	rx  [8]byte
}

var (
	_ hostbus.Platform        = (*GSPI)(nil)
	_ hostbus.InterruptSource = (*GSPI)(nil)
)

func NewGSPI(spi drivers.SPI, cs, pwr Pin, irq IRQPin, cfg GSPIConfig) *GSPI {
	cfg.normalise()
	return &GSPI{
		cfg:   cfg,
		spi:   spi,
		cs:    cs,
		pwr:   pwr,
		irq:   irq,
		line:  NewIRQLine(irq, cfg.IRQEdge),
		rings: [2]*Ring{NewRing(cfg.RingDepth), NewRing(cfg.RingDepth)},
	}
}

// BindNotify routes the host-wake ISR to notify.
func (g *GSPI) BindNotify(notify func() bool) { g.line.Bind(notify) }

// BusInit powers the chip, probes the bus and configures 32-bit mode,
// re-reading the test register to confirm the switch. On failure the chip is
// powered off again.
func (g *GSPI) BusInit() error {
	if g.cs != nil {
		if err := g.cs.ConfigureOutput(true); err != nil {
			return err
		}
	}
	if err := g.pwr.ConfigureOutput(false); err != nil {
		return err
	}
	if err := g.irq.ConfigureInput(PullNone); err != nil {
		return err
	}

	time.Sleep(g.cfg.PowerOnDelay)
	g.pwr.Set(true)
	time.Sleep(g.cfg.PowerOnDelay)

	if err := g.probe(); err != nil {
		g.pwr.Set(false)
		return err
	}
	if err := g.write32(FuncBus, regBusControl, defaultBusControl); err != nil {
		g.pwr.Set(false)
		return err
	}
	v, err := g.read32(FuncBus, regReadTest)
	if err == nil && v != TestPattern {
		err = ErrProbeFailed
	}
	if err != nil {
		g.pwr.Set(false)
		return err
	}

	g.rings[0].Reset()
	g.rings[1].Reset()

	g.mu.Lock()
	g.up = true
	g.mu.Unlock()
	return nil
}

func (g *GSPI) probe() error {
	for i := 0; i < g.cfg.ProbeAttempts; i++ {
		v, err := g.read32(FuncBus, regReadTest)
		if err != nil {
			return err
		}
		if v == TestPattern || v == testPatternSwapped {
			return nil
		}
	}
	return ErrProbeFailed
}

// BusDeinit disarms the host-wake line and powers the chip off.
func (g *GSPI) BusDeinit() error {
	if err := g.line.Disarm(); err != nil {
		return err
	}
	g.mu.Lock()
	g.up = false
	g.mu.Unlock()
	g.pwr.Set(false)
	return nil
}

// EnableInterrupt unmasks the chip's interrupt sources and arms the
// host-wake line.
func (g *GSPI) EnableInterrupt() error {
	if !g.isUp() {
		return ErrNotInitialized
	}
	if err := g.line.Arm(); err != nil {
		return err
	}
	if err := g.write32(FuncBus, regInterruptEnable, uint32(g.cfg.InterruptMask)); err != nil {
		_ = g.line.Disarm()
		return err
	}
	return nil
}

// DisableInterrupt masks the chip and disarms the line.
func (g *GSPI) DisableInterrupt() error {
	if !g.isUp() {
		return ErrNotInitialized
	}
	if err := g.write32(FuncBus, regInterruptEnable, 0); err != nil {
		return err
	}
	return g.line.Disarm()
}

// BufferFreed reposts one descriptor to the ring for dir.
func (g *GSPI) BufferFreed(dir hostbus.Direction) {
	if r := g.Ring(dir); r != nil {
		r.Refill()
	}
}

// Ring returns the descriptor ring for dir, or nil for an invalid tag.
func (g *GSPI) Ring(dir hostbus.Direction) *Ring {
	switch dir {
	case hostbus.Receive:
		return g.rings[0]
	case hostbus.Transmit:
		return g.rings[1]
	default:
		return nil
	}
}

// InterruptStatus reads the pending chip interrupt bits.
func (g *GSPI) InterruptStatus() (uint16, error) {
	if !g.isUp() {
		return 0, ErrNotInitialized
	}
	v, err := g.read32(FuncBus, regInterrupt)
	return uint16(v), err
}

// Line exposes the host-wake line for diagnostics.
func (g *GSPI) Line() *IRQLine { return g.line }

func (g *GSPI) isUp() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.up
}

func (g *GSPI) read32(fn Function, addr uint32) (uint32, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	binary.LittleEndian.PutUint32(g.buf[:4], cmdWord(false, true, fn, addr, 4))
	clear(g.buf[4:])
	if err := g.tx(g.buf[:], g.rx[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(g.rx[4:]), nil
}

func (g *GSPI) write32(fn Function, addr, val uint32) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	binary.LittleEndian.PutUint32(g.buf[:4], cmdWord(true, true, fn, addr, 4))
	binary.LittleEndian.PutUint32(g.buf[4:], val)
	return g.tx(g.buf[:], nil)
}

func (g *GSPI) tx(w, r []byte) error {
	if g.cs != nil {
		g.cs.Set(false)
		defer g.cs.Set(true)
	}
	return g.spi.Tx(w, r)
}
