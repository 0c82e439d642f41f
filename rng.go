package main

import (
	"math/rand/v2"
	"time"
)

const hexDigits = "0123456789abcdef"

// randomSource is the subset of *rand.Rand the simulator draws from. Every
// random value in a run flows through one of these so a seeded run is
// reproducible.
type randomSource interface {
	IntN(n int) int
	Int64N(n int64) int64
	Uint64() uint64
	Float64() float64
}

// newRandomSource returns a PCG-backed generator. A zero seed picks one from
// the wall clock.
func newRandomSource(seed uint64) *rand.Rand {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// randIntRange draws uniformly from the inclusive range [lo, hi].
func randIntRange(r randomSource, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + r.IntN(hi-lo+1)
}

func randUniform(r randomSource, lo, hi float64) float64 {
	return lo + (hi-lo)*r.Float64()
}

func randHex(r randomSource, n int) string {
	buf := make([]byte, n)
	for i := range buf {
		buf[i] = hexDigits[r.IntN(len(hexDigits))]
	}
	return string(buf)
}

func randBytes(r randomSource, n int) []byte {
	buf := make([]byte, n)
	for i := 0; i < n; i += 8 {
		v := r.Uint64()
		for j := 0; j < 8 && i+j < n; j++ {
			buf[i+j] = byte(v >> (8 * j))
		}
	}
	return buf
}

// randBits returns a uniform value in [0, 2^bits). bits must be in 1..63.
func randBits(r randomSource, bits int) int64 {
	return int64(r.Uint64() >> (64 - uint(bits)))
}

// sampleStrings picks k distinct entries from items (k is clamped to
// len(items)) with a partial Fisher-Yates shuffle over a copy.
func sampleStrings(r randomSource, items []string, k int) []string {
	if k > len(items) {
		k = len(items)
	}
	if k <= 0 {
		return nil
	}
	pool := append([]string(nil), items...)
	for i := 0; i < k; i++ {
		j := i + r.IntN(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:k]
}
