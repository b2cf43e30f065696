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

// primes are the permitted table sizes. Each is roughly double its
// predecessor so that growing a table by one step halves its load.
var primes = [...]uint64{
	2, 5, 11, 23, 53, 97, 193, 389, 769, 1543, 3079, 6151, 12289, 24593,
	49157, 98317, 196613, 393241, 786433, 1572869, 3145739, 6291469,
	12582917, 25165843, 50331653, 100663319, 201326611, 402653189,
	805306457, 1610612741,
}

// primeIndexAtLeast returns the index of the smallest listed prime >= n, or
// the last index if n exceeds every listed prime.
func primeIndexAtLeast(n uint64) int {
	for i, p := range primes {
		if p >= n {
			return i
		}
	}
	return len(primes) - 1
}

// primeIndexForLive returns the index of the smallest listed prime that keeps
// live/size at or below resizeLoadFactor.
func primeIndexForLive(live int) int {
	for i, p := range primes {
		// live/p <= 2/5
		if uint64(live)*resizeLoadDen <= p*resizeLoadNum {
			return i
		}
	}
	return len(primes) - 1
}
