package random

import (
	"testing"

	"github.com/rgehrsitz/kpisynth/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestUniform(t *testing.T) {
	rng := New(1)
	r := domain.FloatRange{Min: 0.4, Max: 0.8}
	for i := 0; i < 1000; i++ {
		v := Uniform(rng, r)
		assert.GreaterOrEqual(t, v, r.Min)
		assert.Less(t, v, r.Max)
	}
}

func TestUniformInt(t *testing.T) {
	rng := New(2)
	r := domain.IntRange{Min: 3, Max: 10}
	seen := make(map[int]bool)
	for i := 0; i < 2000; i++ {
		v := UniformInt(rng, r)
		assert.GreaterOrEqual(t, v, 3)
		assert.Less(t, v, 10)
		seen[v] = true
	}
	assert.Len(t, seen, 7, "every value in the half-open range should appear")

	assert.Equal(t, 5, UniformInt(rng, domain.IntRange{Min: 5, Max: 5}))
}

func TestClipped(t *testing.T) {
	rng := New(3)
	d := domain.Distribution{Mean: 1.06, StdDev: 0.5, Min: 1.0, Max: 1.18}
	for i := 0; i < 1000; i++ {
		v := Clipped(rng, d)
		assert.GreaterOrEqual(t, v, d.Min)
		assert.LessOrEqual(t, v, d.Max)
	}
}

func TestBernoulli(t *testing.T) {
	rng := New(4)
	for i := 0; i < 500; i++ {
		assert.False(t, Bernoulli(rng, 0))
		assert.True(t, Bernoulli(rng, 1))
	}

	hits := 0
	for i := 0; i < 10000; i++ {
		if Bernoulli(rng, 0.75) {
			hits++
		}
	}
	assert.InDelta(t, 7500, hits, 300)
}

func TestBernoulli_ConsumesOneDraw(t *testing.T) {
	a, b := New(9), New(9)
	Bernoulli(a, 0)
	b.Float64()
	assert.Equal(t, b.Float64(), a.Float64())
}

func TestSubStreamSeed(t *testing.T) {
	s1 := SubStreamSeed(1337, "ACC_T1_SP_WAW_001_0001")
	s2 := SubStreamSeed(1337, "ACC_T1_SP_WAW_001_0001")
	s3 := SubStreamSeed(1337, "ACC_T1_SP_WAW_001_0002")
	s4 := SubStreamSeed(1338, "ACC_T1_SP_WAW_001_0001")

	assert.Equal(t, s1, s2)
	assert.NotEqual(t, s1, s3)
	assert.NotEqual(t, s1, s4)
	assert.GreaterOrEqual(t, s1, int64(0))
}
