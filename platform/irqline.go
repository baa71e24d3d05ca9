package platform

import (
	"sync"
	"sync/atomic"
)

// IRQLine connects a host-wake interrupt pin to a notify entry point
// (normally hostbus.Controller.Notify).
type IRQLine struct {
	pin  IRQPin
	edge Edge

	mu     sync.Mutex
	notify func() bool
	armed  bool

	fires atomic.Uint32 // ISR entries
	drops atomic.Uint32 // ISR entries the notify target rejected
}

func NewIRQLine(pin IRQPin, edge Edge) *IRQLine {
	if edge == EdgeNone {
		edge = EdgeRising
	}
	return &IRQLine{pin: pin, edge: edge}
}

// Bind sets the notify target. Must happen before Arm.
func (l *IRQLine) Bind(notify func() bool) {
	l.mu.Lock()
	l.notify = notify
	l.mu.Unlock()
}

// Arm installs the ISR handler. Arming an armed line is a no-op.
func (l *IRQLine) Arm() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.armed {
		return nil
	}
	notify := l.notify
	if notify == nil {
		return ErrNotBound
	}
	// ISR handler: counter bump + non-blocking notify.
	handler := func() {
		l.fires.Add(1)
		if !notify() {
			l.drops.Add(1)
		}
	}
	if err := l.pin.SetIRQ(l.edge, handler); err != nil {
		return err
	}
	l.armed = true
	return nil
}

// Disarm removes the handler. Once it returns no further notify calls are made.
func (l *IRQLine) Disarm() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.armed {
		return nil
	}
	if err := l.pin.ClearIRQ(); err != nil {
		return err
	}
	l.armed = false
	return nil
}

func (l *IRQLine) Armed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.armed
}

func (l *IRQLine) Fires() uint32 { return l.fires.Load() }
func (l *IRQLine) Drops() uint32 { return l.drops.Load() }
