package hostbus

// Platform is the board-specific collaborator that touches real hardware.
//
// Every method is called from a non-interrupt context and must complete in
// bounded time. The controller calls each lifecycle method at most once per
// lifecycle edge.
type Platform interface {
	// BusInit configures pins, clocks, and the interrupt line and brings up
	// the bus peripheral. On failure it must roll back any partial setup.
	BusInit() error

	// BusDeinit reverses BusInit.
	BusDeinit() error

	// EnableInterrupt arms the physical interrupt source.
	EnableInterrupt() error

	// DisableInterrupt disarms the interrupt source. No interrupt may reach
	// the controller after it returns.
	DisableInterrupt() error

	// BufferFreed tells the platform a buffer of the given direction went
	// back into circulation. It may refill a DMA ring and must be a no-op
	// when there is nothing to refill.
	BufferFreed(dir Direction)
}

// InterruptSource is implemented by platforms whose interrupt handler needs
// the controller's notify entry. New binds it once.
type InterruptSource interface {
	BindNotify(notify func() bool)
}
