package platform

import "errors"

var (
	ErrProbeFailed    = errors.New("probe_failed")
	ErrNotBound       = errors.New("irq_not_bound")
	ErrNotInitialized = errors.New("not_initialized")
	ErrUnknownBus     = errors.New("unknown_bus")
)
