//go:build rp2040 || rp2350

package platform

import (
	"context"
	"machine"
	"sync"

	"wlanbus-go/hostbus"

	uartx "github.com/jangala-dev/tinygo-uartx/uartx"
)

// UARTBus is a hostbus.Platform for WLAN modules attached over a UART with
// a separate host-wake line. The UART is FIFO driven, so there is no DMA
// ring to refill.
type UARTBus struct {
	id    string
	baud  uint32
	txPin machine.Pin
	rxPin machine.Pin
	wake  IRQPin
	line  *IRQLine

	mu sync.Mutex
	hw *uartx.UART
}

var (
	_ hostbus.Platform        = (*UARTBus)(nil)
	_ hostbus.InterruptSource = (*UARTBus)(nil)
)

func NewUARTBus(id string, baud uint32, tx, rx machine.Pin, wake IRQPin) *UARTBus {
	return &UARTBus{
		id:    id,
		baud:  baud,
		txPin: tx,
		rxPin: rx,
		wake:  wake,
		line:  NewIRQLine(wake, EdgeRising),
	}
}

func (b *UARTBus) BindNotify(notify func() bool) { b.line.Bind(notify) }

func (b *UARTBus) BusInit() error {
	var hw *uartx.UART
	switch b.id {
	case "uart0":
		hw = uartx.UART0
	case "uart1":
		hw = uartx.UART1
	default:
		return ErrUnknownBus
	}
	// Defaults inside uartx apply if zero.
	if err := hw.Configure(uartx.UARTConfig{
		BaudRate: b.baud,
		TX:       b.txPin,
		RX:       b.rxPin,
	}); err != nil {
		return err
	}
	if err := b.wake.ConfigureInput(PullDown); err != nil {
		return err
	}
	b.mu.Lock()
	b.hw = hw
	b.mu.Unlock()
	return nil
}

func (b *UARTBus) BusDeinit() error {
	if err := b.line.Disarm(); err != nil {
		return err
	}
	b.mu.Lock()
	b.hw = nil
	b.mu.Unlock()
	return nil
}

func (b *UARTBus) EnableInterrupt() error  { return b.line.Arm() }
func (b *UARTBus) DisableInterrupt() error { return b.line.Disarm() }

// BufferFreed is a no-op: received bytes live in the uartx software ring.
func (b *UARTBus) BufferFreed(hostbus.Direction) {}

// Write sends p to the module.
func (b *UARTBus) Write(p []byte) (int, error) {
	hw := b.port()
	if hw == nil {
		return 0, ErrNotInitialized
	}
	return hw.Write(p)
}

// RecvSomeContext reads whatever the module has sent, waiting for at least
// one byte or ctx.
func (b *UARTBus) RecvSomeContext(ctx context.Context, p []byte) (int, error) {
	hw := b.port()
	if hw == nil {
		return 0, ErrNotInitialized
	}
	return hw.RecvSomeContext(ctx, p)
}

func (b *UARTBus) port() *uartx.UART {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hw
}
