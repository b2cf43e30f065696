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

// NewDict returns a Hash of elements keyed by a comparable field of the
// element, such as a name or an id. The key is hashed with ComparableHasher.
//
//	type handler struct{ name string; fn func() }
//	handlers := scatter.NewDict(0, func(h *handler) string { return h.name })
func NewDict[T any, K comparable](
	initialCapacity int, field func(elem T) K, options ...option[T, K],
) *Hash[T, K] {
	return New(initialCapacity, field, ComparableHasher[K](), options...)
}

// NewStringDict is NewDict for string keys hashed with StringHasher, the
// common case of a registry of named objects.
func NewStringDict[T any](
	initialCapacity int, field func(elem T) string, options ...option[T, string],
) *Hash[T, string] {
	return New(initialCapacity, field, StringHasher(), options...)
}

// NewSet returns a Hash whose elements are their own keys.
func NewSet[T comparable](initialCapacity int, options ...option[T, T]) *Hash[T, T] {
	return New(initialCapacity, self[T], ComparableHasher[T](), options...)
}

func self[T any](elem T) T {
	return elem
}
