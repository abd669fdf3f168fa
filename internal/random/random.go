// Package random provides the injected pseudo-random stream used by every draw in a run.
package random

import (
	"hash/fnv"
	"math"
	"math/rand"

	"github.com/rgehrsitz/kpisynth/internal/domain"
)

// Source is the generator every draw goes through. *rand.Rand satisfies it.
type Source interface {
	Float64() float64
	NormFloat64() float64
	Intn(n int) int
}

// New returns a seeded stream
func New(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// SubStreamSeed derives an independent, reproducible seed for key from the run seed
func SubStreamSeed(seed int64, key string) int64 {
	h := fnv.New64a()
	var buf [8]byte
	for i := 0; i < 8; i++ {
		buf[i] = byte(uint64(seed) >> (8 * i))
	}
	h.Write(buf[:])
	h.Write([]byte(key))
	return int64(h.Sum64() & math.MaxInt64)
}

// Uniform draws from [r.Min, r.Max)
func Uniform(rng Source, r domain.FloatRange) float64 {
	return r.Min + rng.Float64()*(r.Max-r.Min)
}

// UniformInt draws an integer from [r.Min, r.Max). An empty range yields r.Min without consuming a draw.
func UniformInt(rng Source, r domain.IntRange) int {
	if r.Max <= r.Min {
		return r.Min
	}
	return r.Min + rng.Intn(r.Max-r.Min)
}

// Normal draws from N(mean, sd)
func Normal(rng Source, mean, sd float64) float64 {
	return mean + sd*rng.NormFloat64()
}

// Clipped draws from the distribution and clips the result to [d.Min, d.Max]
func Clipped(rng Source, d domain.Distribution) float64 {
	v := Normal(rng, d.Mean, d.StdDev)
	return math.Min(math.Max(v, d.Min), d.Max)
}

// Bernoulli returns true with probability p. It always consumes exactly one draw.
func Bernoulli(rng Source, p float64) bool {
	return rng.Float64() < p
}
