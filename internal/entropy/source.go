// Package entropy provides injected randomness for the simulation core.
// Every probabilistic roll (softmax sampling, event success, trigger chances)
// draws from a Source so tests can supply deterministic seeds.
package entropy

import (
	"crypto/rand"
	"encoding/binary"
	mathrand "math/rand"
	"sync"
)

// Source yields uniform random values. Implementations need not be safe for
// concurrent use; the simulation core is single-threaded per tick.
type Source interface {
	// Float64 returns a uniform value in [0, 1).
	Float64() float64
	// Intn returns a uniform value in [0, n). Panics if n <= 0.
	Intn(n int) int
}

// Seeded returns a deterministic Source. Same seed, same roll sequence.
func Seeded(seed int64) Source {
	return &seededSource{rng: mathrand.New(mathrand.NewSource(seed))}
}

type seededSource struct {
	rng *mathrand.Rand
}

func (s *seededSource) Float64() float64 { return s.rng.Float64() }
func (s *seededSource) Intn(n int) int   { return s.rng.Intn(n) }

// Crypto returns a Source backed by crypto/rand. Used when no seed is
// configured; safe for concurrent use.
func Crypto() Source {
	return cryptoSource{}
}

type cryptoSource struct{}

func (cryptoSource) Float64() float64 {
	return cryptoRandFloat()
}

func (cryptoSource) Intn(n int) int {
	if n <= 0 {
		panic("entropy: Intn with n <= 0")
	}
	return int(cryptoRandFloat() * float64(n))
}

// cryptoRandFloat generates a random float64 using crypto/rand.
func cryptoRandFloat() float64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// Should never happen; 0.5 is a safe default.
		return 0.5
	}
	// Use only 53 bits for a uniform float64 in [0, 1).
	n := binary.LittleEndian.Uint64(buf[:]) >> 11
	return float64(n) / float64(1<<53)
}

// Locked wraps a Source with a mutex for use outside the tick loop
// (API handlers may roll predictions concurrently with the simulation).
func Locked(src Source) Source {
	return &lockedSource{inner: src}
}

type lockedSource struct {
	mu    sync.Mutex
	inner Source
}

func (l *lockedSource) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.inner.Float64()
}

func (l *lockedSource) Intn(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.inner.Intn(n)
}
