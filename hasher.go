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

import (
	"bytes"
	"hash/maphash"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/exp/constraints"
)

// A Hasher defines a hash function and an equivalence relation over keys of
// type K. Equal(a, b) must imply Hash(a) == Hash(b); if it does not, lookups
// return unspecified results. Both functions must be total.
type Hasher[K any] interface {
	Hash(key K) uint64
	Equal(a, b K) bool
}

// HasherFuncs adapts a pair of functions to the Hasher interface.
type HasherFuncs[K any] struct {
	HashFunc  func(key K) uint64
	EqualFunc func(a, b K) bool
}

func (f HasherFuncs[K]) Hash(key K) uint64 { return f.HashFunc(key) }
func (f HasherFuncs[K]) Equal(a, b K) bool { return f.EqualFunc(a, b) }

type comparableHasher[K comparable] struct {
	seed maphash.Seed
}

// ComparableHasher returns a Hasher for any comparable key type whose Equal
// is consistent with ==. Hashes are computed with hash/maphash under a seed
// chosen when the Hasher is created.
func ComparableHasher[K comparable]() Hasher[K] {
	return comparableHasher[K]{seed: maphash.MakeSeed()}
}

func (h comparableHasher[K]) Hash(key K) uint64 { return maphash.Comparable(h.seed, key) }
func (comparableHasher[K]) Equal(a, b K) bool { return a == b }

type stringHasher struct{}

// StringHasher returns a Hasher for string keys using xxhash.
func StringHasher() Hasher[string] {
	return stringHasher{}
}

func (stringHasher) Hash(key string) uint64 { return xxhash.Sum64String(key) }
func (stringHasher) Equal(a, b string) bool { return a == b }

type bytesHasher struct{}

// BytesHasher returns a Hasher for byte slice keys using xxhash. Keys compare
// by content.
func BytesHasher() Hasher[[]byte] {
	return bytesHasher{}
}

func (bytesHasher) Hash(key []byte) uint64 { return xxhash.Sum64(key) }
func (bytesHasher) Equal(a, b []byte) bool { return bytes.Equal(a, b) }

type integerHasher[K constraints.Integer] struct{}

// IntegerHasher returns a Hasher for integer keys. The key is passed through
// the splitmix64 finalizer so that small or strided keys spread across the
// table.
func IntegerHasher[K constraints.Integer]() Hasher[K] {
	return integerHasher[K]{}
}

func (integerHasher[K]) Hash(key K) uint64 { return mix64(uint64(key)) }
func (integerHasher[K]) Equal(a, b K) bool { return a == b }

func mix64(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}
