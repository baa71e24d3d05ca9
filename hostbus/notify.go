package hostbus

import (
	"context"
	"sync/atomic"

	"wlanbus-go/errcode"
)

// notifier hands "the bus has news" from the interrupt handler to the one
// worker. Any number of notify calls between two waits collapse into a
// single wake; the worker re-polls the hardware fully on every wake.
type notifier struct {
	// Written by ISR; MUST NOT block the ISR:
	pending atomic.Bool
	wake    chan struct{} // cap 1, coalesced

	done   chan struct{}
	closed atomic.Bool
}

func newNotifier() *notifier {
	return &notifier{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
}

// notify sets the pending flag and wakes a parked worker. It returns false
// when the flag was already set, i.e. the call was merged into an earlier one.
func (n *notifier) notify() bool {
	if n.pending.Swap(true) {
		return false
	}
	select {
	case n.wake <- struct{}{}:
	default:
	}
	return true
}

// wait parks until the pending flag is set, the notifier is closed, or ctx
// ends. Closing takes priority over pending work.
func (n *notifier) wait(ctx context.Context) error {
	for {
		select {
		case <-n.done:
			return errcode.ShutdownInProgress
		default:
		}
		if n.pending.Swap(false) {
			// A token may still be queued for the flag we just took.
			select {
			case <-n.wake:
			default:
			}
			return nil
		}
		select {
		case <-n.wake:
		case <-n.done:
			return errcode.ShutdownInProgress
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// reset drops a pending notification and any queued wake token.
func (n *notifier) reset() {
	n.pending.Store(false)
	select {
	case <-n.wake:
	default:
	}
}

// close unblocks any parked waiter with ShutdownInProgress. Idempotent.
func (n *notifier) close() {
	if n.closed.CompareAndSwap(false, true) {
		close(n.done)
	}
}
