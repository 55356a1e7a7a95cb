// Package rand implements the deterministic pseudo-random sources used by
// world generation. Two families exist side by side: Legacy, a 48-bit linear
// congruential generator, and Xoroshiro, a 128-bit xoroshiro128++ generator.
// Both produce bit-identical sequences for identical seeds and call sequences,
// which is what keeps generated terrain stable across versions.
package rand

import "math"

// Source is a seeded pseudo-random number source.
type Source interface {
	// NextInt32 returns the next uniformly distributed int32.
	NextInt32() int32
	// NextBoundedInt32 returns the next int32 in the range [0, bound). It
	// panics if bound is not positive.
	NextBoundedInt32(bound int32) int32
	// NextInt64 returns the next uniformly distributed int64.
	NextInt64() int64
	// NextFloat64 returns the next float64 in the range [0, 1).
	NextFloat64() float64
	// NextFloat32 returns the next float32 in the range [0, 1).
	NextFloat32() float32
	// NextBool returns the next pseudo-random bool.
	NextBool() bool
	// NextGaussian returns the next normally distributed float64 with a mean
	// of 0 and a standard deviation of 1.
	NextGaussian() float64
	// Skip advances the source by n draws, discarding the values.
	Skip(n int)
	// Fork returns a new Source seeded from the draws of this one.
	Fork() Source
	// Splitter returns a PositionalFactory seeded from the draws of this
	// Source. Sources derived from the factory are independent of each other
	// and of the Source the factory was derived from.
	Splitter() PositionalFactory
}

// PositionalFactory derives independent sources from a fixed seed.
type PositionalFactory interface {
	// At returns a Source seeded for the block position passed.
	At(x, y, z int) Source
	// SplitString returns a Source seeded for the name passed.
	SplitString(name string) Source
	// SplitInt64 returns a Source seeded for the int64 passed.
	SplitInt64(seed int64) Source
}

// NextIntRange returns the next int32 in the closed range [min, max].
func NextIntRange(src Source, min, max int32) int32 {
	return min + src.NextBoundedInt32(max-min+1)
}

// gaussian implements the Marsaglia polar method shared by both source
// families. It caches the second value produced by each round.
type gaussian struct {
	next float64
	ok   bool
}

func (g *gaussian) sample(nextFloat64 func() float64) float64 {
	if g.ok {
		g.ok = false
		return g.next
	}
	for {
		v1 := 2*nextFloat64() - 1
		v2 := 2*nextFloat64() - 1
		s := float64(v1*v1) + float64(v2*v2)
		if s < 1 && s != 0 {
			m := math.Sqrt(-2 * math.Log(s) / s)
			g.next, g.ok = v2*m, true
			return v1 * m
		}
	}
}

func (g *gaussian) reset() {
	g.ok = false
}
