//go:build rp2040 || rp2350

package platform

import (
	"machine"
)

// Breakout wiring for a gSPI WLAN module on SPI0.
const (
	wlanSCK      = machine.GPIO18
	wlanSDO      = machine.GPIO19
	wlanSDI      = machine.GPIO16
	wlanCS       = machine.GPIO17
	wlanPower    = machine.GPIO22
	wlanHostWake = machine.GPIO21
	wlanSPIHz    = 25_000_000
)

type rp2Pin struct{ p machine.Pin }

func (r *rp2Pin) ConfigureInput(pull Pull) error {
	var mode machine.PinMode
	switch pull {
	case PullUp:
		mode = machine.PinInputPullup
	case PullDown:
		mode = machine.PinInputPulldown
	default:
		mode = machine.PinInput
	}
	r.p.Configure(machine.PinConfig{Mode: mode})
	return nil
}

func (r *rp2Pin) ConfigureOutput(initial bool) error {
	r.p.Configure(machine.PinConfig{Mode: machine.PinOutput})
	r.p.Set(initial)
	return nil
}

func (r *rp2Pin) Set(level bool) { r.p.Set(level) }
func (r *rp2Pin) Get() bool      { return r.p.Get() }

func (r *rp2Pin) SetIRQ(edge Edge, handler func()) error {
	var change machine.PinChange
	switch edge {
	case EdgeRising:
		change = machine.PinRising
	case EdgeFalling:
		change = machine.PinFalling
	case EdgeBoth:
		change = machine.PinRising | machine.PinFalling
	default:
		return r.ClearIRQ()
	}
	return r.p.SetInterrupt(change, func(machine.Pin) { handler() })
}

func (r *rp2Pin) ClearIRQ() error { return r.p.SetInterrupt(0, nil) }

// DefaultGSPI returns the gSPI platform for the board's WLAN module.
func DefaultGSPI(id string) (*GSPI, error) {
	if id != "wlan0" {
		return nil, ErrUnknownBus
	}
	spi := machine.SPI0
	if err := spi.Configure(machine.SPIConfig{
		Frequency: wlanSPIHz,
		SCK:       wlanSCK,
		SDO:       wlanSDO,
		SDI:       wlanSDI,
	}); err != nil {
		println("[bus] spi0 configure failed:", err.Error())
		return nil, err
	}
	return NewGSPI(spi, &rp2Pin{p: wlanCS}, &rp2Pin{p: wlanPower}, &rp2Pin{p: wlanHostWake}, GSPIConfig{}), nil
}

// DefaultUARTBus returns a UART-attached WLAN module bus woken by wakePin.
func DefaultUARTBus(id string, baud uint32, tx, rx, wakePin machine.Pin) *UARTBus {
	return NewUARTBus(id, baud, tx, rx, &rp2Pin{p: wakePin})
}
