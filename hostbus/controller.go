package hostbus

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"wlanbus-go/errcode"
)

// Operation names carried in errcode.E.Op.
const (
	OpBusInit          = "bus_init"
	OpBusDeinit        = "bus_deinit"
	OpEnableInterrupt  = "enable_interrupt"
	OpDisableInterrupt = "disable_interrupt"
	OpBufferFreed      = "buffer_freed"
	OpWait             = "wait_and_drain"
)

const defaultName = "bus0"

// Config tunes a Controller. The zero value is usable.
type Config struct {
	// Name identifies the bus in logs and transitions. Defaults to "bus0".
	Name string
	// Logger receives lifecycle logs. Nil discards them.
	Logger *slog.Logger
	// OnTransition is called after each committed state change, with the
	// lifecycle lock held. It must not call back into the controller.
	OnTransition func(Transition)
}

// Stats is a snapshot of the controller's counters.
type Stats struct {
	Notified   uint32 // notifications that set the pending flag
	Coalesced  uint32 // notifications merged into an already pending one
	Ignored    uint32 // notifications while the bus was not Active
	Wakes      uint32 // "work available" returns from WaitAndDrain
	RxReleased uint32
	TxReleased uint32
}

// Controller is the handle the driver core holds for one bus.
type Controller struct {
	name         string
	plat         Platform
	log          *slog.Logger
	onTransition func(Transition)

	// mu serialises Init/Deinit/EnableInterrupts/DisableInterrupts.
	mu    sync.Mutex
	state atomic.Uint32 // State; written under mu, read lock-free

	ntf atomic.Pointer[notifier]

	// gate keeps platform teardown from racing an in-flight BufferFreed:
	// releases hold it shared, Deinit holds it exclusively around BusDeinit.
	gate sync.RWMutex

	notified   atomic.Uint32
	coalesced  atomic.Uint32
	ignored    atomic.Uint32
	wakes      atomic.Uint32
	rxReleased atomic.Uint32
	txReleased atomic.Uint32
}

// New returns a controller in the Uninitialized state. If p implements
// InterruptSource, its interrupt handler is bound to Notify.
func New(p Platform, cfg Config) *Controller {
	if cfg.Name == "" {
		cfg.Name = defaultName
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	c := &Controller{
		name:         cfg.Name,
		plat:         p,
		log:          cfg.Logger.With("bus", cfg.Name),
		onTransition: cfg.OnTransition,
	}
	if src, ok := p.(InterruptSource); ok {
		src.BindNotify(c.Notify)
	}
	return c
}

// Name returns the configured bus name.
func (c *Controller) Name() string { return c.name }

// State returns the current lifecycle state.
func (c *Controller) State() State { return State(c.state.Load()) }

// Init brings the platform bus up: Uninitialized -> Ready.
func (c *Controller) Init() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if s := c.State(); s != Uninitialized {
		return c.invalid(OpBusInit, s)
	}
	if err := c.plat.BusInit(); err != nil {
		return c.platformErr(OpBusInit, err)
	}
	c.ntf.Store(newNotifier())
	c.commit(Uninitialized, Ready)
	return nil
}

// Deinit tears the bus down. From Active it disarms interrupts first. Any
// worker parked in WaitAndDrain is released with ShutdownInProgress before
// the platform teardown runs. Deinit on an uninitialised bus is a no-op.
func (c *Controller) Deinit() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.State()
	switch s {
	case Uninitialized:
		return nil
	case Ready, Active:
	default:
		return c.invalid(OpBusDeinit, s)
	}

	if s == Active {
		if err := c.disableLocked(); err != nil {
			return err
		}
	}

	c.commit(Ready, ShuttingDown)
	c.ntf.Load().close()

	c.gate.Lock()
	err := c.plat.BusDeinit()
	c.gate.Unlock()

	if err != nil {
		// Hardware is still up: fall back to Ready with a fresh channel so the
		// caller can restart its worker or retry.
		c.ntf.Store(newNotifier())
		c.commit(ShuttingDown, Ready)
		return c.platformErr(OpBusDeinit, err)
	}
	c.commit(ShuttingDown, Uninitialized)
	return nil
}

// EnableInterrupts arms the bus interrupt: Ready -> Active. Idempotent when
// already Active; the platform is not armed twice.
func (c *Controller) EnableInterrupts() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch s := c.State(); s {
	case Active:
		return nil
	case Ready:
	default:
		return c.invalid(OpEnableInterrupt, s)
	}

	// Publish Active before arming so an interrupt raised by the arm itself
	// is accepted.
	c.state.Store(uint32(Active))
	if err := c.plat.EnableInterrupt(); err != nil {
		// Stop accepting first, then drop anything the failed arm let in.
		c.state.Store(uint32(Ready))
		c.ntf.Load().reset()
		return c.platformErr(OpEnableInterrupt, err)
	}
	c.commit(Ready, Active)
	return nil
}

// DisableInterrupts disarms the bus interrupt: Active -> Ready. Idempotent
// when already Ready.
func (c *Controller) DisableInterrupts() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch s := c.State(); s {
	case Ready:
		return nil
	case Active:
		return c.disableLocked()
	default:
		return c.invalid(OpDisableInterrupt, s)
	}
}

func (c *Controller) disableLocked() error {
	// Stay Active until the platform confirms: interrupts raised before the
	// disarm completes are still delivered.
	if err := c.plat.DisableInterrupt(); err != nil {
		return c.platformErr(OpDisableInterrupt, err)
	}
	c.commit(Active, Ready)
	return nil
}

// Notify is the interrupt entry point. It never blocks, allocates, or takes
// a lock. It returns false when the bus is not Active and the notification
// was ignored.
func (c *Controller) Notify() bool {
	if State(c.state.Load()) != Active {
		c.ignored.Add(1)
		return false
	}
	n := c.ntf.Load()
	if n == nil {
		c.ignored.Add(1)
		return false
	}
	if n.notify() {
		c.notified.Add(1)
	} else {
		c.coalesced.Add(1)
	}
	return true
}

// WaitAndDrain parks the worker until at least one notification is pending,
// then clears it. It returns nil when work is available,
// errcode.ShutdownInProgress once Deinit has begun, ctx.Err() when ctx ends,
// and an InvalidState error if the bus was never initialised.
//
// Only one goroutine may wait at a time.
func (c *Controller) WaitAndDrain(ctx context.Context) error {
	n := c.ntf.Load()
	if n == nil {
		return c.invalid(OpWait, c.State())
	}
	if err := n.wait(ctx); err != nil {
		return err
	}
	c.wakes.Add(1)
	return nil
}

// BufferFreed relays a buffer release to the platform, preserving its
// direction tag. Call it from the worker, never from interrupt context.
func (c *Controller) BufferFreed(dir Direction) error {
	if !dir.Valid() {
		return &errcode.E{C: errcode.InvalidParams, Op: OpBufferFreed, Msg: "direction " + dir.String()}
	}

	c.gate.RLock()
	defer c.gate.RUnlock()

	switch s := c.State(); s {
	case Ready, Active:
	case ShuttingDown:
		return errcode.ShutdownInProgress
	default:
		return c.invalid(OpBufferFreed, s)
	}

	c.plat.BufferFreed(dir)
	if dir == Receive {
		c.rxReleased.Add(1)
	} else {
		c.txReleased.Add(1)
	}
	return nil
}

// Stats returns a snapshot of the counters.
func (c *Controller) Stats() Stats {
	return Stats{
		Notified:   c.notified.Load(),
		Coalesced:  c.coalesced.Load(),
		Ignored:    c.ignored.Load(),
		Wakes:      c.wakes.Load(),
		RxReleased: c.rxReleased.Load(),
		TxReleased: c.txReleased.Load(),
	}
}

func (c *Controller) commit(from, to State) {
	c.state.Store(uint32(to))
	c.log.Debug("bus state", "from", from.String(), "to", to.String())
	if c.onTransition != nil {
		c.onTransition(Transition{Bus: c.name, From: from, To: to, TSms: time.Now().UnixMilli()})
	}
}

func (c *Controller) invalid(op string, s State) error {
	return &errcode.E{C: errcode.InvalidState, Op: op, Msg: s.String()}
}

func (c *Controller) platformErr(op string, err error) error {
	c.log.Error("platform call failed", "op", op, "error", err)
	return errcode.Wrap(op, err)
}
