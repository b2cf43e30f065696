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

// option provide an interface to do work on Hash while it is being created.
type option[T, K any] interface {
	apply(h *Hash[T, K])
}

type destroyOption[T, K any] struct {
	destroy func(elem T)
}

func (op destroyOption[T, K]) apply(h *Hash[T, K]) {
	h.t.destroy = op.destroy
}

// WithDestroy is an option to specify the function a Hash[T,K] uses to
// destroy the elements it owns. Without it, removing an owned element simply
// drops the table's reference and leaves the rest to the GC.
func WithDestroy[T, K any](destroy func(elem T)) option[T, K] {
	return destroyOption[T, K]{destroy}
}

// Allocator specifies an interface for allocating and releasing the slot
// arrays used by a Hash. The default allocator utilizes Go's builtin make()
// and allows the GC to reclaim memory.
//
// If the allocator is manually managing memory and requires that slots be
// freed then Hash.Close must be called in order to ensure FreeSlots is called
// for the final slot array.
type Allocator[T any] interface {
	// AllocSlots should return a slice equivalent to make([]Slot[T], n). In
	// particular every returned Slot must be the zero (empty) Slot.
	AllocSlots(n int) []Slot[T]

	// FreeSlots can optional release the memory associated with the supplied
	// slice that is guaranteed to have been allocated by AllocSlots.
	FreeSlots(v []Slot[T])
}

type defaultAllocator[T any] struct{}

func (defaultAllocator[T]) AllocSlots(n int) []Slot[T] {
	return make([]Slot[T], n)
}

func (defaultAllocator[T]) FreeSlots(v []Slot[T]) {
}

type allocatorOption[T, K any] struct {
	allocator Allocator[T]
}

func (op allocatorOption[T, K]) apply(h *Hash[T, K]) {
	h.t.allocator = op.allocator
}

// WithAllocator is an option for specify the Allocator to use for a Hash[T,K].
func WithAllocator[T, K any](allocator Allocator[T]) option[T, K] {
	return allocatorOption[T, K]{allocator}
}
