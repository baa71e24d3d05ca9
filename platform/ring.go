package platform

import "sync/atomic"

// Ring tracks how many DMA descriptors of one direction are posted to the
// hardware. The driver core Takes a descriptor when the bus hands it a
// buffer; BufferFreed Refills one when the buffer comes back.
type Ring struct {
	depth   uint32
	posted  atomic.Uint32
	refills atomic.Uint32
	misses  atomic.Uint32
}

// NewRing returns a full ring of the given depth.
func NewRing(depth int) *Ring {
	r := &Ring{depth: uint32(depth)}
	r.posted.Store(r.depth)
	return r
}

// Take consumes one posted descriptor. It returns false on overrun (nothing
// posted).
func (r *Ring) Take() bool {
	for {
		p := r.posted.Load()
		if p == 0 {
			r.misses.Add(1)
			return false
		}
		if r.posted.CompareAndSwap(p, p-1) {
			return true
		}
	}
}

// Refill reposts one descriptor. It is a no-op returning false when the ring
// is already full.
func (r *Ring) Refill() bool {
	for {
		p := r.posted.Load()
		if p >= r.depth {
			return false
		}
		if r.posted.CompareAndSwap(p, p+1) {
			r.refills.Add(1)
			return true
		}
	}
}

// Reset marks every descriptor posted again.
func (r *Ring) Reset() { r.posted.Store(r.depth) }

func (r *Ring) Depth() int      { return int(r.depth) }
func (r *Ring) Posted() int     { return int(r.posted.Load()) }
func (r *Ring) Refills() uint32 { return r.refills.Load() }
func (r *Ring) Misses() uint32  { return r.misses.Load() }
