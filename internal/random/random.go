// Package random provides the seeded randomness used by the simulators and
// the model fallbacks.
//
// Every component takes a Source instead of calling the global generator so
// tests can pin values with a fixed seed or a scripted source.
package random

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand/v2"
	"sync"
)

// Source produces pseudo-random numbers.
type Source interface {
	// Float64 returns a value in [0.0, 1.0).
	Float64() float64
	// IntN returns a value in [0, n). It panics if n <= 0.
	IntN(n int) int
}

// lockedSource serializes access to a *rand.Rand, which is not safe for
// concurrent use on its own.
type lockedSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// New returns a goroutine-safe Source seeded with seed.
func New(seed int64) Source {
	return &lockedSource{rng: rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15))}
}

func (s *lockedSource) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64()
}

func (s *lockedSource) IntN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.IntN(n)
}

// NewSeed generates a random seed using crypto/rand.
func NewSeed() (int64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	return int64(binary.LittleEndian.Uint64(b[:])), nil
}

// Uniform returns a value in [lo, hi).
func Uniform(src Source, lo, hi float64) float64 {
	return lo + (hi-lo)*src.Float64()
}

// IntRange returns a value in [lo, hi], both ends inclusive.
func IntRange(src Source, lo, hi int) int {
	return lo + src.IntN(hi-lo+1)
}

// Choice returns one element of options. options must not be empty.
func Choice(src Source, options []string) string {
	return options[src.IntN(len(options))]
}

// Sample returns k distinct elements of options in random order.
// If k exceeds len(options) every element is returned.
func Sample(src Source, options []string, k int) []string {
	pool := make([]string, len(options))
	copy(pool, options)
	if k > len(pool) {
		k = len(pool)
	}
	// Partial Fisher-Yates: the first k slots end up a uniform sample.
	for i := 0; i < k; i++ {
		j := i + src.IntN(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:k]
}
