//go:build !rp2040 && !rp2350

package platform

import (
	"context"
	"errors"
	"testing"
	"time"

	"wlanbus-go/errcode"
	"wlanbus-go/hostbus"
)

func testGSPI(t *testing.T) (*GSPI, *HostChip) {
	t.Helper()
	return NewHostGSPI(GSPIConfig{PowerOnDelay: time.Microsecond, RingDepth: 4})
}

func TestCmdWord(t *testing.T) {
	// Read, incrementing, function 0, test register, 4 bytes.
	if got, want := cmdWord(false, true, FuncBus, regReadTest, 4), uint32(0x4000A004); got != want {
		t.Fatalf("cmdWord: got %#08x want %#08x", got, want)
	}
	if got := cmdWord(true, false, FuncWLAN, 0, 0); got != 0xA0000000 {
		t.Fatalf("write fn2: got %#08x", got)
	}
}

func TestGSPIInitProbesAndConfigures(t *testing.T) {
	g, chip := testGSPI(t)
	if err := g.BusInit(); err != nil {
		t.Fatalf("BusInit: %v", err)
	}
	if !chip.Power.Get() {
		t.Fatal("chip not powered")
	}
	if chip.BusControl() != defaultBusControl {
		t.Fatalf("bus control %#x", chip.BusControl())
	}
	if err := g.BusDeinit(); err != nil {
		t.Fatalf("BusDeinit: %v", err)
	}
	if chip.Power.Get() {
		t.Fatal("chip still powered after deinit")
	}
	if chip.BusControl() != 0 {
		t.Fatalf("bus control survived power off: %#x", chip.BusControl())
	}
}

func TestGSPIInitAcceptsHalfWordSwappedPattern(t *testing.T) {
	g, chip := testGSPI(t)

	// Fresh from power-on the chip is in 16-bit mode.
	chip.Power.Set(true)
	if v, err := g.read32(FuncBus, regReadTest); err != nil || v != 0xBEADFEED {
		t.Fatalf("16-bit read: %#08x err %v", v, err)
	}
	chip.Power.Set(false)

	if err := g.BusInit(); err != nil {
		t.Fatalf("BusInit: %v", err)
	}
	if v, err := g.read32(FuncBus, regReadTest); err != nil || v != TestPattern {
		t.Fatalf("32-bit read: %#08x err %v", v, err)
	}
	if err := g.BusDeinit(); err != nil {
		t.Fatalf("BusDeinit: %v", err)
	}

	// Power cycling drops the chip back to 16-bit mode.
	chip.Power.Set(true)
	if v, _ := g.read32(FuncBus, regReadTest); v != 0xBEADFEED {
		t.Fatalf("after power cycle: %#08x", v)
	}
}

// writeDropper loses every write, so the chip never leaves 16-bit mode.
type writeDropper struct{ *HostChip }

func (d writeDropper) Tx(w, r []byte) error {
	if len(w) >= 4 && w[3]&0x80 != 0 {
		return nil
	}
	return d.HostChip.Tx(w, r)
}

func TestGSPIInitFailsWhenWordLengthNotApplied(t *testing.T) {
	_, chip := testGSPI(t)
	g := NewGSPI(writeDropper{chip}, nil, chip.Power, chip.Wake, GSPIConfig{PowerOnDelay: time.Microsecond})

	if err := g.BusInit(); !errors.Is(err, ErrProbeFailed) {
		t.Fatalf("expected ErrProbeFailed, got %v", err)
	}
	if chip.Power.Get() {
		t.Fatal("power left on after failed init")
	}
	if err := g.EnableInterrupt(); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("enable after failed init: %v", err)
	}
}

func TestGSPIProbeFailureRollsBack(t *testing.T) {
	g, chip := NewHostGSPI(GSPIConfig{PowerOnDelay: time.Microsecond, ProbeAttempts: 3})
	chip.SetMute(true)

	if err := g.BusInit(); !errors.Is(err, ErrProbeFailed) {
		t.Fatalf("expected ErrProbeFailed, got %v", err)
	}
	if chip.Power.Get() {
		t.Fatal("power left on after failed init")
	}
	if n := chip.Transactions(); n != 3 {
		t.Fatalf("expected 3 probe reads, got %d", n)
	}
	if err := g.EnableInterrupt(); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("enable before init: %v", err)
	}
}

func TestGSPIWithController(t *testing.T) {
	g, chip := testGSPI(t)
	ctrl := hostbus.New(g, hostbus.Config{Name: "wlan0"})

	if err := ctrl.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := ctrl.EnableInterrupts(); err != nil {
		t.Fatalf("EnableInterrupts: %v", err)
	}
	if chip.InterruptMask() != DefaultInterruptMask || !chip.Wake.HasIRQ() {
		t.Fatalf("interrupt not armed: mask=%#x irq=%v", chip.InterruptMask(), chip.Wake.HasIRQ())
	}

	chip.Raise(0x0001)
	chip.Raise(0x0020)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := ctrl.WaitAndDrain(ctx); err != nil {
		t.Fatalf("WaitAndDrain: %v", err)
	}
	st, err := g.InterruptStatus()
	if err != nil || st != 0x0021 {
		t.Fatalf("status %#x err %v", st, err)
	}
	if g.Line().Fires() != 2 || g.Line().Drops() != 0 {
		t.Fatalf("line fires=%d drops=%d", g.Line().Fires(), g.Line().Drops())
	}

	if err := ctrl.DisableInterrupts(); err != nil {
		t.Fatalf("DisableInterrupts: %v", err)
	}
	chip.Raise(0x0001)
	if g.Line().Fires() != 2 {
		t.Fatal("interrupt delivered after disable")
	}

	if err := ctrl.Deinit(); err != nil {
		t.Fatalf("Deinit: %v", err)
	}
	if chip.Power.Get() || chip.Wake.HasIRQ() {
		t.Fatal("platform not torn down")
	}
}

func TestGSPIInitFailureThroughController(t *testing.T) {
	g, chip := testGSPI(t)
	chip.SetMute(true)
	ctrl := hostbus.New(g, hostbus.Config{})

	err := ctrl.Init()
	if !errors.Is(err, errcode.PlatformFailure) || !errors.Is(err, ErrProbeFailed) {
		t.Fatalf("expected PlatformFailure(probe_failed), got %v", err)
	}
	if ctrl.State() != hostbus.Uninitialized {
		t.Fatalf("state %v", ctrl.State())
	}
}

func TestGSPIBufferFreedRefillsMatchingRing(t *testing.T) {
	g, _ := testGSPI(t)
	if err := g.BusInit(); err != nil {
		t.Fatalf("BusInit: %v", err)
	}
	rx, tx := g.Ring(hostbus.Receive), g.Ring(hostbus.Transmit)

	// Hardware filled two receive buffers and the driver took them.
	rx.Take()
	rx.Take()

	g.BufferFreed(hostbus.Receive)
	if rx.Posted() != 3 || tx.Posted() != 4 {
		t.Fatalf("after rx free: rx=%d tx=%d", rx.Posted(), tx.Posted())
	}

	// Nothing to refill on transmit: no-op.
	g.BufferFreed(hostbus.Transmit)
	if tx.Posted() != 4 || tx.Refills() != 0 {
		t.Fatalf("tx refilled while full: posted=%d refills=%d", tx.Posted(), tx.Refills())
	}

	if g.Ring(hostbus.Direction(0)) != nil {
		t.Fatal("ring for invalid direction")
	}
	g.BufferFreed(hostbus.Direction(0)) // ignored
}

func TestRing(t *testing.T) {
	r := NewRing(2)
	if !r.Take() || !r.Take() {
		t.Fatal("take from full ring")
	}
	if r.Take() {
		t.Fatal("take from empty ring")
	}
	if r.Misses() != 1 {
		t.Fatalf("misses %d", r.Misses())
	}
	if !r.Refill() || !r.Refill() || r.Refill() {
		t.Fatal("refill accounting")
	}
	if r.Posted() != r.Depth() || r.Refills() != 2 {
		t.Fatalf("posted=%d refills=%d", r.Posted(), r.Refills())
	}
	r.Take()
	r.Reset()
	if r.Posted() != 2 {
		t.Fatalf("reset: %d", r.Posted())
	}
}

func TestIRQLine(t *testing.T) {
	pin := NewFakePin(5)
	l := NewIRQLine(pin, EdgeNone) // defaults to rising

	if err := l.Arm(); !errors.Is(err, ErrNotBound) {
		t.Fatalf("arm unbound: %v", err)
	}

	accept := true
	calls := 0
	l.Bind(func() bool { calls++; return accept })
	if err := l.Arm(); err != nil {
		t.Fatalf("Arm: %v", err)
	}
	if err := l.Arm(); err != nil || !l.Armed() {
		t.Fatalf("second Arm: %v", err)
	}

	pin.Set(true)  // rising -> fires
	pin.Set(false) // falling -> ignored
	accept = false
	pin.Set(true)

	if calls != 2 || l.Fires() != 2 || l.Drops() != 1 {
		t.Fatalf("calls=%d fires=%d drops=%d", calls, l.Fires(), l.Drops())
	}

	if err := l.Disarm(); err != nil || l.Armed() {
		t.Fatalf("Disarm: %v", err)
	}
	pin.Set(false)
	pin.Set(true)
	if calls != 2 {
		t.Fatal("handler ran after disarm")
	}
}

func TestEdgeStrings(t *testing.T) {
	cases := map[Edge]string{
		EdgeNone:    "none",
		EdgeRising:  "rising",
		EdgeFalling: "falling",
		EdgeBoth:    "both",
	}
	for e, want := range cases {
		if e.String() != want {
			t.Fatalf("%d: got %q", e, e.String())
		}
	}
}

func TestDefaultGSPI(t *testing.T) {
	if _, err := DefaultGSPI("wlan9"); !errors.Is(err, ErrUnknownBus) {
		t.Fatalf("expected ErrUnknownBus, got %v", err)
	}
	g, err := DefaultGSPI("wlan0")
	if err != nil || g == nil {
		t.Fatalf("DefaultGSPI: %v", err)
	}
}
