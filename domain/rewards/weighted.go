package rewards

import (
	crand "crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"math/rand"
	"sync"
)

// ErrNoOutcomes is returned when a draw has nothing with positive weight to pick
var ErrNoOutcomes = errors.New("no outcomes with positive weight")

// Outcome is one entry of a weighted table
type Outcome[T any] struct {
	Value  T
	Weight float64
}

// Draw picks one outcome in a single pass: a uniform value in [0,total) selects
// the first outcome whose cumulative weight exceeds it.
func Draw[T any](rng *rand.Rand, outcomes []Outcome[T]) (T, error) {
	var zero T

	var total float64
	for _, o := range outcomes {
		if o.Weight > 0 {
			total += o.Weight
		}
	}
	if total <= 0 {
		return zero, ErrNoOutcomes
	}

	roll := rng.Float64() * total
	var cumulative float64
	var last T
	for _, o := range outcomes {
		if o.Weight <= 0 {
			continue
		}
		cumulative += o.Weight
		last = o.Value
		if roll < cumulative {
			return o.Value, nil
		}
	}
	// Float rounding can leave roll == total
	return last, nil
}

// NewSeed generates a random seed using crypto/rand
func NewSeed() (int64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("failed to read random seed: %w", err)
	}
	return int64(binary.LittleEndian.Uint64(b[:])), nil
}

// Engine resolves random rewards. It is safe for concurrent use.
type Engine struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewEngine creates an engine seeded from crypto/rand
func NewEngine() (*Engine, error) {
	seed, err := NewSeed()
	if err != nil {
		return nil, err
	}
	return NewEngineWithSeed(seed), nil
}

// NewEngineWithSeed creates a deterministic engine, mostly for tests
func NewEngineWithSeed(seed int64) *Engine {
	return &Engine{rng: rand.New(rand.NewSource(seed))}
}

// Intn returns a uniform int in [0,n)
func (e *Engine) Intn(n int) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rng.Intn(n)
}

// Int63Range returns a uniform int64 in [min,max]
func (e *Engine) Int63Range(min, max int64) int64 {
	if max <= min {
		return min
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return min + e.rng.Int63n(max-min+1)
}

// Float64Range returns a uniform float in [min,max)
func (e *Engine) Float64Range(min, max float64) float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return min + e.rng.Float64()*(max-min)
}

func drawLocked[T any](e *Engine, outcomes []Outcome[T]) (T, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Draw(e.rng, outcomes)
}
