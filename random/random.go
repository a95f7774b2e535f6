// Package random is the single source of randomness for rewards, access
// codes and catalog imports. Seeding it makes every draw reproducible.
package random

import (
	"math/rand/v2"
	"sync"
	"time"
)

type Source interface {
	// IntN returns a uniform int in [0, n). Panics if n <= 0.
	IntN(n int) int
}

// New returns a Source seeded with seed. A zero seed uses the current
// time.
func New(seed uint64) *Locked {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &Locked{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Locked is a Source safe for concurrent use.
type Locked struct {
	mu sync.Mutex
	r  *rand.Rand
}

func (l *Locked) IntN(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.IntN(n)
}

// Sequence replays fixed values, each taken modulo n. Tests use it to pin
// draws.
type Sequence struct {
	mu     sync.Mutex
	values []int
	next   int
}

func NewSequence(values ...int) *Sequence {
	return &Sequence{values: values}
}

func (s *Sequence) IntN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.values) == 0 {
		return 0
	}
	v := s.values[s.next%len(s.values)]
	s.next++
	return ((v % n) + n) % n
}

const alphanumeric = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Code returns length upper-case alphanumerics drawn from src.
func Code(src Source, length int) string {
	b := make([]byte, length)
	for i := range b {
		b[i] = alphanumeric[src.IntN(len(alphanumeric))]
	}
	return string(b)
}
