// Copyright 2024 The Cockroach Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package scatter is a Go implementation of a scatter hash: an
// open-addressing hash table over prime-sized slot arrays that resolves
// collisions with double hashing and optionally owns the elements it stores.
//
// # Scatter Hashes
//
// A scatter hash stores elements rather than key/value pairs. The key of an
// element is never stored; it is recomputed from the element by a caller
// supplied accessor whenever the table needs to hash or compare it. This makes
// the table a good fit for registries of objects keyed by one of their fields
// (a handler keyed by its name, a connection keyed by its id) as well as for
// plain sets of self-keyed values.
//
// The slot array is always sized to a prime drawn from a fixed ascending list.
// For a key with hash h the probe sequence is
//
//	p(i) := (h + i*h2) mod N,  h2 := (h mod (N-1)) + 1
//
// Because N is prime and 1 <= h2 <= N-1, h2 is coprime to N and the sequence
// visits every slot exactly once before repeating. Lookups walk the sequence
// until they find a match or an empty slot.
//
// Each slot has one of four states: empty, deleted (a tombstone), occupied,
// and owned. Occupied and owned slots hold a live element; an owned element
// is destroyed by the table (via the destroy function configured with
// WithDestroy) when it is removed, when the table is zapped, or when the table
// is closed. Ownership can be toggled at any time without moving the element.
//
// Deletion leaves a tombstone. Tombstones never terminate a lookup, and an
// insertion reuses the first empty or deleted slot along its probe sequence.
// Once the number of live slots plus tombstones exceeds half of the table an
// insertion rebuilds the table into the smallest listed prime that holds the
// live elements at a load of at most 0.4. A rebuild drops every tombstone and
// may pick a smaller size than the current one.
//
// # Duplicates
//
// Insertion never checks whether an element with an equal key is already
// present. Duplicates coexist and a lookup returns whichever one it reaches
// first along the probe sequence. Callers wanting map semantics check with
// Find before calling Add.
//
// # Iteration
//
// Iteration walks the physical slot array, so iteration order is unspecified
// and changes across rebuilds. The only mutation that is safe while an
// iterator is live is Iter.RemoveCurrent. Any insertion may rebuild the table,
// after which the iterator's position is meaningless; doing so is undefined
// behavior and is not detected. Removing some other element by key is safe
// but the iterator may or may not observe the change.
package scatter

import (
	"fmt"
	"strings"
)

const (
	debug = false

	// A rebuild is triggered once used/size exceeds
	// rebuildLoadNum/rebuildLoadDen.
	rebuildLoadNum = 1
	rebuildLoadDen = 2

	// A rebuild picks the smallest size for which live/size is at most
	// resizeLoadNum/resizeLoadDen.
	resizeLoadNum = 2
	resizeLoadDen = 5
)

// slotState records both whether a slot holds a live element and whether
// the table owns that element.
//
//	   empty: unused since the last rebuild or zap; terminates probing
//	 deleted: tombstone; skipped by lookups, reusable by insertions
//	occupied: live element, lifetime managed by the caller
//	   owned: live element, destroyed by the table on removal
type slotState uint8

const (
	slotEmpty slotState = iota
	slotDeleted
	slotOccupied
	slotOwned
)

func (s slotState) live() bool {
	return s >= slotOccupied
}

func (s slotState) String() string {
	switch s {
	case slotEmpty:
		return "empty"
	case slotDeleted:
		return "deleted"
	case slotOccupied:
		return "occupied"
	case slotOwned:
		return "owned"
	default:
		return fmt.Sprintf("slotState(%d)", uint8(s))
	}
}

func liveState(owned bool) slotState {
	if owned {
		return slotOwned
	}
	return slotOccupied
}

// Slot holds an element and the state of its cell in the slot array. The
// zero Slot is empty.
type Slot[T any] struct {
	elem  T
	state slotState
}

// table is the element-agnostic engine beneath Hash. It knows how to hash an
// element, how to tell whether two elements have equal keys, and how to
// destroy an owned element. Lookups take the key comparison as a match
// predicate.
type table[T any] struct {
	slots []Slot[T]
	// primeIndex is the index of len(slots) in primes.
	primeIndex int
	// The number of live (occupied or owned) slots.
	live int
	// The number of live slots plus tombstones. Only a rebuild or zap
	// reduces used.
	used int

	hashElem  func(elem T) uint64
	equalElem func(a, b T) bool
	destroy   func(elem T)
	allocator Allocator[T]
}

func (t *table[T]) init(initialCapacity int) {
	n := uint64(0)
	if initialCapacity > 0 {
		n = uint64(initialCapacity)
	}
	t.primeIndex = primeIndexAtLeast(n)
	t.slots = t.allocator.AllocSlots(int(primes[t.primeIndex]))
	t.live = 0
	t.used = 0
	t.checkInvariants()
}

func (t *table[T]) size() uint64 {
	return uint64(len(t.slots))
}

// find returns the index of the first live slot along the probe sequence for
// hash h whose element satisfies match.
func (t *table[T]) find(h uint64, match func(elem T) bool) (int, bool) {
	size := t.size()
	if size == 0 {
		return -1, false
	}
	seq := makeProbeSeq(h, size)
	if debug {
		fmt.Printf("find(%x): %s\n", h, seq)
	}

	for ; seq.attempt < size; seq = seq.next() {
		s := &t.slots[seq.offset]
		switch s.state {
		case slotEmpty:
			if debug {
				fmt.Printf("find(not-found): offset=%d attempt=%d\n", seq.offset, seq.attempt)
			}
			return -1, false
		case slotDeleted:
			continue
		}
		if match(s.elem) {
			if debug {
				fmt.Printf("find(found): offset=%d attempt=%d\n", seq.offset, seq.attempt)
			}
			return int(seq.offset), true
		}
	}
	return -1, false
}

// add inserts elem into the first empty or deleted slot along the probe
// sequence for hash h. No check is made for an existing element with an
// equal key.
func (t *table[T]) add(elem T, h uint64, owned bool) {
	size := t.size()
	seq := makeProbeSeq(h, size)
	if debug {
		fmt.Printf("add(%x): %s\n", h, seq)
	}

	for ; seq.attempt < size; seq = seq.next() {
		s := &t.slots[seq.offset]
		if s.state.live() {
			continue
		}
		if s.state == slotEmpty {
			t.used++
		}
		if debug {
			fmt.Printf("add(inserting): offset=%d reused=%t live=%d used=%d\n",
				seq.offset, s.state == slotDeleted, t.live+1, t.used)
		}
		s.elem = elem
		s.state = liveState(owned)
		t.live++

		if uint64(t.used)*rebuildLoadDen > size*rebuildLoadNum {
			t.rebuild()
		}
		t.checkInvariants()
		return
	}

	// Every add leaves used <= size/2 so a free slot always exists.
	panic(fmt.Sprintf("scatter: no free slot for hash %x\n%s", h, t.debugString()))
}

// uncheckedPut places elem into a freshly allocated slot array that is known
// to contain no tombstones.
func (t *table[T]) uncheckedPut(elem T, h uint64, state slotState) {
	size := t.size()
	for seq := makeProbeSeq(h, size); seq.attempt < size; seq = seq.next() {
		s := &t.slots[seq.offset]
		if s.state != slotEmpty {
			continue
		}
		s.elem = elem
		s.state = state
		t.live++
		t.used++
		return
	}
	panic(fmt.Sprintf("scatter: rebuild overflowed table of size %d", size))
}

// removeAt destroys the element at index i if it is owned and turns the slot
// into a tombstone. It is a noop if the slot is not live.
func (t *table[T]) removeAt(i int) {
	s := &t.slots[i]
	if !s.state.live() {
		return
	}
	if s.state == slotOwned && t.destroy != nil {
		t.destroy(s.elem)
	}
	var zero T
	s.elem = zero
	s.state = slotDeleted
	t.live--
	if debug {
		fmt.Printf("remove: offset=%d live=%d used=%d\n", i, t.live, t.used)
	}
	t.checkInvariants()
}

// setOwned toggles ownership of the live element at index i.
func (t *table[T]) setOwned(i int, owned bool) {
	if s := &t.slots[i]; s.state.live() {
		s.state = liveState(owned)
	}
}

// rebuild moves every live element into a new slot array sized so that
// live/size <= 0.4 and drops all tombstones. Slot positions are not
// preserved, so every outstanding iterator is invalidated.
func (t *table[T]) rebuild() {
	oldSlots := t.slots
	oldSize := len(oldSlots)
	live := t.live

	t.primeIndex = primeIndexForLive(live)
	t.slots = t.allocator.AllocSlots(int(primes[t.primeIndex]))
	t.live = 0
	t.used = 0

	if debug {
		fmt.Printf("rebuild: size=%d->%d live=%d\n", oldSize, len(t.slots), live)
	}

	for i := range oldSlots {
		s := &oldSlots[i]
		if !s.state.live() {
			continue
		}
		t.uncheckedPut(s.elem, t.hashElem(s.elem), s.state)
	}

	t.allocator.FreeSlots(oldSlots)
}

// zap destroys every owned element and empties every slot. The size of the
// slot array is unchanged.
func (t *table[T]) zap() {
	for i := range t.slots {
		s := &t.slots[i]
		if s.state == slotOwned && t.destroy != nil {
			t.destroy(s.elem)
		}
		*s = Slot[T]{}
	}
	t.live = 0
	t.used = 0
	t.checkInvariants()
}

// close zaps the table and returns the slot array to the allocator. It is
// idempotent.
func (t *table[T]) close() {
	if t.slots == nil {
		return
	}
	t.zap()
	t.allocator.FreeSlots(t.slots)
	t.slots = nil
}

// slowCount counts the live slots by scanning the slot array.
func (t *table[T]) slowCount() int {
	var n int
	for i := range t.slots {
		if t.slots[i].state.live() {
			n++
		}
	}
	return n
}

func (t *table[T]) checkInvariants() {
	if invariants {
		if t.slots == nil {
			return
		}
		if size := t.size(); primes[t.primeIndex] != size {
			panic(fmt.Sprintf("invariant failed: size %d is not primes[%d]=%d\n%s",
				size, t.primeIndex, primes[t.primeIndex], t.debugString()))
		}
		if t.live < 0 || t.live > t.used || uint64(t.used) > t.size() {
			panic(fmt.Sprintf("invariant failed: live=%d used=%d size=%d\n%s",
				t.live, t.used, t.size(), t.debugString()))
		}

		var live, deleted int
		for i := range t.slots {
			s := &t.slots[i]
			switch s.state {
			case slotEmpty:
			case slotDeleted:
				deleted++
			case slotOccupied, slotOwned:
				live++
				elem := s.elem
				if _, ok := t.find(t.hashElem(elem), func(other T) bool {
					return t.equalElem(elem, other)
				}); !ok {
					panic(fmt.Sprintf("invariant failed: slot(%d): %v not found [h=%x]\n%s",
						i, elem, t.hashElem(elem), t.debugString()))
				}
			default:
				panic(fmt.Sprintf("invariant failed: slot(%d): unexpected %s", i, s.state))
			}
		}

		if live != t.live {
			panic(fmt.Sprintf("invariant failed: found %d live slots, but live count is %d\n%s",
				live, t.live, t.debugString()))
		}
		if live+deleted != t.used {
			panic(fmt.Sprintf("invariant failed: found %d live+deleted slots, but used count is %d\n%s",
				live+deleted, t.used, t.debugString()))
		}
	}
}

func (t *table[T]) debugString() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "size=%d  live=%d  used=%d\n", len(t.slots), t.live, t.used)
	for i := range t.slots {
		switch s := &t.slots[i]; s.state {
		case slotEmpty, slotDeleted:
			fmt.Fprintf(&buf, "  %4d: %s\n", i, s.state)
		default:
			fmt.Fprintf(&buf, "  %4d: %v [%s h=%x]\n", i, s.elem, s.state, t.hashElem(s.elem))
		}
	}
	return buf.String()
}

// probeSeq maintains the state for a double hashing probe sequence over a
// table of prime size N:
//
//	p(i) := (h + i*h2) mod N
//
// The secondary hash h2 lies in [1, N-1] and is therefore coprime to N, which
// guarantees that the first N offsets of the sequence are a permutation of
// [0, N).
type probeSeq struct {
	size    uint64
	offset  uint64
	step    uint64
	attempt uint64
}

func makeProbeSeq(hash, size uint64) probeSeq {
	step := uint64(1)
	if size > 1 {
		step = hash%(size-1) + 1
	}
	return probeSeq{
		size:   size,
		offset: hash % size,
		step:   step,
	}
}

func (s probeSeq) next() probeSeq {
	s.attempt++
	s.offset = (s.offset + s.step) % s.size
	return s
}

func (s probeSeq) String() string {
	return fmt.Sprintf("size=%d offset=%d step=%d attempt=%d", s.size, s.offset, s.step, s.attempt)
}
