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

package scatter

import "iter"

// Hash is a scatter hash of elements of type T keyed by values of type K. The
// key of an element is computed by the keyOf function supplied to New and is
// hashed and compared with a Hasher[K].
//
// Elements are stored as given; T is typically a pointer type. An element
// added with owned=true is owned by the Hash, which calls the destroy function
// configured with WithDestroy when the element is removed, zapped, or the Hash
// is closed.
//
// A Hash is NOT goroutine-safe.
type Hash[T, K any] struct {
	t      table[T]
	keyOf  func(elem T) K
	hasher Hasher[K]
}

// New constructs a new Hash with the specified initial capacity, rounded up to
// the smallest permitted prime size. keyOf extracts the key from an element
// and hasher hashes and compares keys.
func New[T, K any](
	initialCapacity int, keyOf func(elem T) K, hasher Hasher[K], options ...option[T, K],
) *Hash[T, K] {
	h := &Hash[T, K]{
		keyOf:  keyOf,
		hasher: hasher,
	}
	h.t.allocator = defaultAllocator[T]{}
	h.t.hashElem = func(elem T) uint64 {
		return h.hasher.Hash(h.keyOf(elem))
	}
	h.t.equalElem = func(a, b T) bool {
		return h.hasher.Equal(h.keyOf(a), h.keyOf(b))
	}

	for _, op := range options {
		op.apply(h)
	}

	h.t.init(initialCapacity)
	return h
}

// Close zaps the Hash, destroying every owned element, and releases the slot
// array back to its configured allocator. It is invalid to use a Hash after it
// has been closed, though Close itself is idempotent.
func (h *Hash[T, K]) Close() {
	h.t.close()
}

func (h *Hash[T, K]) lookup(key K) (int, bool) {
	return h.t.find(h.hasher.Hash(key), func(elem T) bool {
		return h.hasher.Equal(key, h.keyOf(elem))
	})
}

// Find returns an element whose key equals key, returning ok=false if there
// is none. If several elements share the key it is unspecified which one is
// returned. The element remains owned by whoever owned it before.
func (h *Hash[T, K]) Find(key K) (elem T, ok bool) {
	i, ok := h.lookup(key)
	if !ok {
		return elem, false
	}
	return h.t.slots[i].elem, true
}

// Add inserts elem. If owned is true the Hash takes ownership of elem and will
// destroy it on removal. Add does not check for an existing element with the
// same key; both are kept. Add may rebuild the table, which invalidates every
// outstanding iterator.
func (h *Hash[T, K]) Add(elem T, owned bool) {
	h.t.add(elem, h.hasher.Hash(h.keyOf(elem)), owned)
}

// Remove removes an element whose key equals key, destroying it if it is
// owned. It is a noop to remove a non-existent key.
func (h *Hash[T, K]) Remove(key K) {
	if i, ok := h.lookup(key); ok {
		h.t.removeAt(i)
	}
}

// SetOwned sets whether the Hash owns the element whose key equals key. It is
// a noop if there is no such element.
func (h *Hash[T, K]) SetOwned(key K, owned bool) {
	if i, ok := h.lookup(key); ok {
		h.t.setOwned(i, owned)
	}
}

// Owned reports whether the Hash owns the element whose key equals key. It
// returns false if there is no such element.
func (h *Hash[T, K]) Owned(key K) bool {
	i, ok := h.lookup(key)
	return ok && h.t.slots[i].state == slotOwned
}

// Zap removes every element, destroying the owned ones. The capacity of the
// Hash is unchanged.
func (h *Hash[T, K]) Zap() {
	h.t.zap()
}

// Len returns the number of elements in the Hash.
func (h *Hash[T, K]) Len() int {
	return h.t.live
}

// IsEmpty reports whether the Hash holds no elements.
func (h *Hash[T, K]) IsEmpty() bool {
	return h.t.live == 0
}

// SlowCount returns the number of elements by scanning every slot. It always
// agrees with Len and exists as a consistency check.
func (h *Hash[T, K]) SlowCount() int {
	return h.t.slowCount()
}

// Cap returns the number of slots in the table.
func (h *Hash[T, K]) Cap() int {
	return len(h.t.slots)
}

// Iter returns an iterator positioned before the first element.
func (h *Hash[T, K]) Iter() *Iter[T, K] {
	return &Iter[T, K]{h: h}
}

// All returns an iterator over every element in slot order. Removing the
// element currently yielded by key is safe; adding elements during iteration
// is not.
func (h *Hash[T, K]) All() iter.Seq[T] {
	return func(yield func(elem T) bool) {
		for it := h.Iter(); it.Next(); {
			if !yield(it.Current()) {
				return
			}
		}
	}
}

// Iter is a cursor over the elements of a Hash in slot order. A new or
// rewound Iter is positioned before the first element; Current, Owned,
// SetOwned and RemoveCurrent are only valid after Next has returned true.
//
// RemoveCurrent is the only mutation of the Hash permitted while iterating.
// Adding to the Hash may rebuild it, after which the Iter must be discarded.
type Iter[T, K any] struct {
	h *Hash[T, K]
	// index is one past the slot the Iter is positioned on; 0 means before
	// the first slot.
	index int
}

// Rewind repositions the Iter before the first element.
func (it *Iter[T, K]) Rewind() {
	it.index = 0
}

// Next advances to the next live element, skipping empty slots and
// tombstones, and reports whether there was one.
func (it *Iter[T, K]) Next() bool {
	slots := it.h.t.slots
	for it.index < len(slots) {
		it.index++
		if slots[it.index-1].state.live() {
			return true
		}
	}
	return false
}

func (it *Iter[T, K]) slot() *Slot[T] {
	return &it.h.t.slots[it.index-1]
}

// Current returns the element the Iter is positioned on.
func (it *Iter[T, K]) Current() T {
	return it.slot().elem
}

// Owned reports whether the Hash owns the current element.
func (it *Iter[T, K]) Owned() bool {
	return it.slot().state == slotOwned
}

// SetOwned sets whether the Hash owns the current element.
func (it *Iter[T, K]) SetOwned(owned bool) {
	it.h.t.setOwned(it.index-1, owned)
}

// RemoveCurrent removes the current element, destroying it if it is owned.
// The Iter stays valid and the next call to Next moves past the removed slot.
// Calling RemoveCurrent again before Next is a noop.
func (it *Iter[T, K]) RemoveCurrent() {
	it.h.t.removeAt(it.index - 1)
}
