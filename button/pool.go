package button

import "sync"

// DefaultPoolSize is the arena capacity used when NewPool is given a
// non-positive one.
const DefaultPoolSize = 8

// Pool is a fixed arena of button instances. The capacity never grows;
// exhaustion makes New fail rather than allocate. Slot occupancy is
// scanned and mutated inside the injected critical section, so a pool
// shared between goroutines needs a real locker while a single-threaded
// integration can leave it nil.
type Pool struct {
	lock  sync.Locker
	slots []Button
}

// nopLocker is the default mutual exclusion: none.
type nopLocker struct{}

func (nopLocker) Lock()   {}
func (nopLocker) Unlock() {}

// NewPool builds an arena with capacity slots. lock brackets allocation
// and release; nil selects a no-op locker.
func NewPool(capacity int, lock sync.Locker) *Pool {
	if capacity <= 0 {
		capacity = DefaultPoolSize
	}
	if lock == nil {
		lock = nopLocker{}
	}
	return &Pool{
		lock:  lock,
		slots: make([]Button, capacity),
	}
}

// New claims the first free slot, binds the sample function and the
// callback, and applies DefaultParam. The instance comes back disabled;
// call Enable before stepping. A nil sample function is refused and an
// exhausted pool returns ErrNoFreeSlot, both without side effects.
func (p *Pool) New(sample SampleFunc, cb Callback) (*Button, error) {
	if sample == nil {
		return nil, ErrInvalidParam
	}

	p.lock.Lock()
	var btn *Button
	for i := range p.slots {
		if !p.slots[i].allocated {
			p.slots[i].allocated = true
			btn = &p.slots[i]
			break
		}
	}
	p.lock.Unlock()

	if btn == nil {
		return nil, ErrNoFreeSlot
	}

	// The slot is claimed; binding needs no lock.
	btn.sample = sample
	btn.callback = cb
	btn.param = DefaultParam()
	return btn, nil
}

// Free returns an instance to the pool, zeroing the slot so no state
// leaks into its next use. The stale handle stays valid memory and
// degrades to ErrDisabled on Step.
func (p *Pool) Free(btn *Button) error {
	if btn == nil {
		return ErrInvalidParam
	}
	p.lock.Lock()
	*btn = Button{}
	p.lock.Unlock()
	return nil
}

// Cap returns the fixed slot count.
func (p *Pool) Cap() int {
	return len(p.slots)
}

// InUse counts currently allocated slots.
func (p *Pool) InUse() int {
	p.lock.Lock()
	n := 0
	for i := range p.slots {
		if p.slots[i].allocated {
			n++
		}
	}
	p.lock.Unlock()
	return n
}
