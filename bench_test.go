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
	"fmt"
	"io"
	"strconv"
	"testing"

	"github.com/aclements/go-perfevent/perfbench"
)

func BenchmarkHashIter(b *testing.B) {
	b.Run("impl=runtimeMap", func(b *testing.B) {
		b.Run("t=Int", benchSizes(benchmarkRuntimeMapIter[int64], genKeys[int64]))
	})
	b.Run("impl=scatterHash", func(b *testing.B) {
		b.Run("t=Int", benchSizes(benchmarkScatterHashIter[int64], genKeys[int64]))
	})
}

func BenchmarkHashFindHit(b *testing.B) {
	b.Run("impl=runtimeMap", func(b *testing.B) {
		b.Run("t=Int64", benchSizes(benchmarkRuntimeMapFindHit[int64], genKeys[int64]))
		b.Run("t=Int32", benchSizes(benchmarkRuntimeMapFindHit[int32], genKeys[int32]))
		b.Run("t=String", benchSizes(benchmarkRuntimeMapFindHit[string], genKeys[string]))
	})
	b.Run("impl=scatterHash", func(b *testing.B) {
		b.Run("t=Int64", benchSizes(benchmarkScatterHashFindHit[int64], genKeys[int64]))
		b.Run("t=Int32", benchSizes(benchmarkScatterHashFindHit[int32], genKeys[int32]))
		b.Run("t=String", benchSizes(benchmarkScatterHashFindHit[string], genKeys[string]))
	})
}

func BenchmarkHashFindMiss(b *testing.B) {
	b.Run("impl=runtimeMap", func(b *testing.B) {
		b.Run("t=Int64", benchSizes(benchmarkRuntimeMapFindMiss[int64], genKeys[int64]))
		b.Run("t=Int32", benchSizes(benchmarkRuntimeMapFindMiss[int32], genKeys[int32]))
		b.Run("t=String", benchSizes(benchmarkRuntimeMapFindMiss[string], genKeys[string]))
	})
	b.Run("impl=scatterHash", func(b *testing.B) {
		b.Run("t=Int64", benchSizes(benchmarkScatterHashFindMiss[int64], genKeys[int64]))
		b.Run("t=Int32", benchSizes(benchmarkScatterHashFindMiss[int32], genKeys[int32]))
		b.Run("t=String", benchSizes(benchmarkScatterHashFindMiss[string], genKeys[string]))
	})
}

func BenchmarkHashAddGrow(b *testing.B) {
	b.Run("impl=runtimeMap", func(b *testing.B) {
		b.Run("t=Int64", benchSizes(benchmarkRuntimeMapAddGrow[int64], genKeys[int64]))
		b.Run("t=String", benchSizes(benchmarkRuntimeMapAddGrow[string], genKeys[string]))
	})
	b.Run("impl=scatterHash", func(b *testing.B) {
		b.Run("t=Int64", benchSizes(benchmarkScatterHashAddGrow[int64], genKeys[int64]))
		b.Run("t=String", benchSizes(benchmarkScatterHashAddGrow[string], genKeys[string]))
	})
}

func BenchmarkHashAddRemove(b *testing.B) {
	b.Run("impl=runtimeMap", func(b *testing.B) {
		b.Run("t=Int64", benchSizes(benchmarkRuntimeMapAddRemove[int64], genKeys[int64]))
		b.Run("t=String", benchSizes(benchmarkRuntimeMapAddRemove[string], genKeys[string]))
	})
	b.Run("impl=scatterHash", func(b *testing.B) {
		b.Run("t=Int64", benchSizes(benchmarkScatterHashAddRemove[int64], genKeys[int64]))
		b.Run("t=String", benchSizes(benchmarkScatterHashAddRemove[string], genKeys[string]))
	})
}

type benchTypes interface {
	int32 | int64 | string
}

func benchSizes[T benchTypes](
	f func(b *testing.B, n int, genKeys func(start, end int) []T), genKeys func(start, end int) []T,
) func(*testing.B) {
	var cases = []int{
		6, 12, 18, 24, 30,
		64,
		128,
		256,
		512,
		1024,
		2048,
		4096,
		8192,
		1 << 16,
	}

	return func(b *testing.B) {
		for _, n := range cases {
			b.Run("len="+strconv.Itoa(n), func(b *testing.B) { f(b, n, genKeys) })
		}
	}
}

func genKeys[T benchTypes](start, end int) []T {
	var t T
	switch any(t).(type) {
	case int32:
		keys := make([]int32, end-start)
		for i := range keys {
			keys[i] = int32(start + i)
		}
		return any(keys).([]T)
	case int64:
		keys := make([]int64, end-start)
		for i := range keys {
			keys[i] = int64(start + i)
		}
		return any(keys).([]T)
	case string:
		keys := make([]string, end-start)
		for i := range keys {
			keys[i] = strconv.Itoa(start + i)
		}
		return any(keys).([]T)
	default:
		panic("not reached")
	}
}

func benchmarkRuntimeMapIter[T benchTypes](b *testing.B, n int, genKeys func(start, end int) []T) {
	m := make(map[T]T, n)
	keys := genKeys(0, n)
	for _, k := range keys {
		m[k] = k
	}
	b.ResetTimer()
	var tmp T
	for i := 0; i < b.N; i++ {
		for k := range m {
			tmp += k
		}
	}
	fmt.Fprint(io.Discard, tmp)
}

func benchmarkScatterHashIter[T benchTypes](b *testing.B, n int, genKeys func(start, end int) []T) {
	h := NewSet[T](n)
	keys := genKeys(0, n)
	for _, k := range keys {
		h.Add(k, false)
	}
	b.ResetTimer()
	perfbench.Open(b)
	var tmp T
	for i := 0; i < b.N; i++ {
		for it := h.Iter(); it.Next(); {
			tmp += it.Current()
		}
	}
	fmt.Fprint(io.Discard, tmp)
}

func benchmarkRuntimeMapFindMiss[T benchTypes](
	b *testing.B, n int, genKeys func(start, end int) []T,
) {
	m := make(map[T]T)
	keys := genKeys(0, n)
	miss := genKeys(-n, 0)
	for _, k := range keys {
		m[k] = k
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = m[miss[i%len(miss)]]
	}
}

func benchmarkScatterHashFindMiss[T benchTypes](
	b *testing.B, n int, genKeys func(start, end int) []T,
) {
	h := NewSet[T](0)
	keys := genKeys(0, n)
	miss := genKeys(-n, 0)
	for j := range keys {
		h.Add(keys[j], false)
	}
	b.ResetTimer()
	perfbench.Open(b)
	var ok bool
	for i := 0; i < b.N; i++ {
		_, ok = h.Find(miss[i%len(miss)])
	}
	b.StopTimer()
	fmt.Fprint(io.Discard, ok)
}

func benchmarkRuntimeMapFindHit[T benchTypes](
	b *testing.B, n int, genKeys func(start, end int) []T,
) {
	m := make(map[T]T, n)
	keys := genKeys(0, n)
	for _, k := range keys {
		m[k] = k
	}

	// Go's builtin map has an optimization to avoid string comparisons if
	// there is pointer equality. Defeat this optimization to get a better
	// apples-to-apples comparison.
	keys = genKeys(0, n)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = m[keys[i%n]]
	}
}

func benchmarkScatterHashFindHit[T benchTypes](
	b *testing.B, n int, genKeys func(start, end int) []T,
) {
	h := NewSet[T](n)
	keys := genKeys(0, n)
	for _, k := range keys {
		h.Add(k, false)
	}
	keys = genKeys(0, n)

	b.ResetTimer()
	perfbench.Open(b)
	var ok bool
	for i := 0; i < b.N; i++ {
		_, ok = h.Find(keys[i%n])
	}
	b.StopTimer()
	fmt.Fprint(io.Discard, ok)
}

func benchmarkRuntimeMapAddGrow[T benchTypes](
	b *testing.B, n int, genKeys func(start, end int) []T,
) {
	keys := genKeys(0, n)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m := make(map[T]T)
		for _, k := range keys {
			m[k] = k
		}
	}
}

func benchmarkScatterHashAddGrow[T benchTypes](
	b *testing.B, n int, genKeys func(start, end int) []T,
) {
	keys := genKeys(0, n)
	b.ResetTimer()
	perfbench.Open(b)
	for i := 0; i < b.N; i++ {
		h := NewSet[T](0)
		for _, k := range keys {
			h.Add(k, false)
		}
	}
}

func benchmarkRuntimeMapAddRemove[T benchTypes](
	b *testing.B, n int, genKeys func(start, end int) []T,
) {
	m := make(map[T]T, n)
	keys := genKeys(0, n)
	for _, k := range keys {
		m[k] = k
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		j := i % n
		delete(m, keys[j])
		m[keys[j]] = keys[j]
	}
}

func benchmarkScatterHashAddRemove[T benchTypes](
	b *testing.B, n int, genKeys func(start, end int) []T,
) {
	h := NewSet[T](n)
	keys := genKeys(0, n)
	for _, k := range keys {
		h.Add(k, false)
	}
	b.ResetTimer()
	perfbench.Open(b)
	for i := 0; i < b.N; i++ {
		j := i % n
		h.Remove(keys[j])
		h.Add(keys[j], false)
	}
}
