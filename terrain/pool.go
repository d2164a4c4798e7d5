package terrain

import "fmt"

// PatchID indexes a slot in a Pool.
type PatchID int32

// NoPatch is the zero handle.
const NoPatch PatchID = -1

// Pool is an arena of patches with a free stack. Slots are reused and never
// freed while the pool lives.
type Pool struct {
	slots []*Patch
	live  []bool
	free  []PatchID
}

// NewPool preallocates n slots.
func NewPool(n int) *Pool {
	p := &Pool{}
	for i := 0; i < n; i++ {
		p.grow()
	}
	return p
}

func (p *Pool) grow() {
	id := PatchID(len(p.slots))
	p.slots = append(p.slots, &Patch{})
	p.live = append(p.live, false)
	p.free = append(p.free, id)
}

// Acquire pops a free slot, growing the arena when none is left.
func (p *Pool) Acquire() PatchID {
	if len(p.free) == 0 {
		p.grow()
	}
	id := p.free[len(p.free)-1]
	p.free = p.free[:len(p.free)-1]
	p.live[id] = true
	return id
}

// Release returns a slot. Releasing a slot twice panics.
func (p *Pool) Release(id PatchID) {
	if id < 0 || int(id) >= len(p.slots) || !p.live[id] {
		panic(fmt.Sprintf("terrain: release of free patch %d", id))
	}
	p.slots[id].reset()
	p.live[id] = false
	p.free = append(p.free, id)
}

// Get returns the patch in a slot.
func (p *Pool) Get(id PatchID) *Patch { return p.slots[id] }

// Live reports whether a slot is acquired.
func (p *Pool) Live(id PatchID) bool {
	return id >= 0 && int(id) < len(p.live) && p.live[id]
}

// Len returns the number of slots.
func (p *Pool) Len() int { return len(p.slots) }

// InUse returns the number of acquired slots.
func (p *Pool) InUse() int { return len(p.slots) - len(p.free) }

// Each calls fn for every acquired patch.
func (p *Pool) Each(fn func(id PatchID, patch *Patch)) {
	for i, ok := range p.live {
		if ok {
			fn(PatchID(i), p.slots[i])
		}
	}
}
