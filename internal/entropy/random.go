// Package entropy provides the random sources threaded through the election
// and mortality models. Seeded sources make whole campaigns reproducible;
// the crypto source is for unseeded play.
package entropy

import (
	"crypto/rand"
	"encoding/binary"
	mrand "math/rand"
)

// Source is the randomness every stochastic rule draws from.
// *math/rand.Rand satisfies it.
type Source interface {
	Float64() float64
	Intn(n int) int
	Read(p []byte) (int, error)
}

// NewSeeded returns a reproducible source.
func NewSeeded(seed int64) *mrand.Rand {
	return mrand.New(mrand.NewSource(seed))
}

// Derive returns an independent seeded stream for a subsystem, so that adding
// draws in one subsystem does not shift another's sequence.
func Derive(seed int64, stream int64) *mrand.Rand {
	return mrand.New(mrand.NewSource(seed*7919 + stream))
}

// Crypto is a non-reproducible source backed by crypto/rand.
type Crypto struct{}

// Float64 returns a uniform float64 in [0, 1).
func (Crypto) Float64() float64 {
	return cryptoRandFloat()
}

// Intn returns a uniform int in [0, n). Panics if n <= 0, like math/rand.
func (Crypto) Intn(n int) int {
	if n <= 0 {
		panic("entropy: invalid argument to Intn")
	}
	return int(cryptoRandFloat() * float64(n))
}

// Read fills p from crypto/rand.
func (Crypto) Read(p []byte) (int, error) {
	return rand.Read(p)
}

// cryptoRandFloat generates a random float64 using crypto/rand.
func cryptoRandFloat() float64 {
	var buf [8]byte
	_, err := rand.Read(buf[:])
	if err != nil {
		// This should never happen but return 0.5 as a safe default.
		return 0.5
	}
	// Use only 53 bits for a uniform float64 in [0, 1).
	n := binary.LittleEndian.Uint64(buf[:]) >> 11
	return float64(n) / float64(1<<53)
}

// Chance reports whether an event with probability p fires.
func Chance(src Source, p float64) bool {
	return src.Float64() < p
}

// Between returns a uniform float64 in [lo, hi).
func Between(src Source, lo, hi float64) float64 {
	return lo + src.Float64()*(hi-lo)
}
