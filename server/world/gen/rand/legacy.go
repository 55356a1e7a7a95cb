package rand

import "unicode/utf16"

const (
	legacyMultiplier = 0x5DEECE66D
	legacyAddend     = 0xB
	legacyMask       = 1<<48 - 1
)

// Legacy is the 48-bit linear congruential generator that older terrain
// features were seeded with. Its output matches java.util.Random.
type Legacy struct {
	seed int64
	g    gaussian
}

// NewLegacy returns a Legacy source initialised with the seed passed.
func NewLegacy(seed int64) *Legacy {
	r := &Legacy{}
	r.SetSeed(seed)
	return r
}

// SetSeed resets the state of the source as if it were newly created with the
// seed passed.
func (r *Legacy) SetSeed(seed int64) {
	r.seed = (seed ^ legacyMultiplier) & legacyMask
	r.g.reset()
}

func (r *Legacy) next(bits uint) int32 {
	r.seed = (r.seed*legacyMultiplier + legacyAddend) & legacyMask
	return int32(r.seed >> (48 - bits))
}

// NextInt32 ...
func (r *Legacy) NextInt32() int32 {
	return r.next(32)
}

// NextBoundedInt32 ...
func (r *Legacy) NextBoundedInt32(bound int32) int32 {
	if bound <= 0 {
		panic("rand: bound must be positive")
	}
	if bound&-bound == bound {
		return int32((int64(bound) * int64(r.next(31))) >> 31)
	}
	for {
		bits := r.next(31)
		val := bits % bound
		// Rejects the values at the top of the range that would make the
		// distribution uneven. The sum overflows for exactly those values.
		if bits-val+(bound-1) >= 0 {
			return val
		}
	}
}

// NextInt64 ...
func (r *Legacy) NextInt64() int64 {
	hi := int64(r.next(32))
	lo := int64(r.next(32))
	return hi<<32 + lo
}

// NextFloat64 ...
func (r *Legacy) NextFloat64() float64 {
	hi := int64(r.next(26))
	lo := int64(r.next(27))
	return float64(hi<<27+lo) * 0x1p-53
}

// NextFloat32 ...
func (r *Legacy) NextFloat32() float32 {
	return float32(r.next(24)) * 0x1p-24
}

// NextBool ...
func (r *Legacy) NextBool() bool {
	return r.next(1) != 0
}

// NextGaussian ...
func (r *Legacy) NextGaussian() float64 {
	return r.g.sample(r.NextFloat64)
}

// Skip ...
func (r *Legacy) Skip(n int) {
	for i := 0; i < n; i++ {
		r.next(32)
	}
}

// Fork ...
func (r *Legacy) Fork() Source {
	return NewLegacy(r.NextInt64())
}

// Splitter ...
func (r *Legacy) Splitter() PositionalFactory {
	return LegacyFactory{Seed: r.NextInt64()}
}

// LegacyFactory derives Legacy sources from a seed.
type LegacyFactory struct {
	Seed int64
}

// At ...
func (f LegacyFactory) At(x, y, z int) Source {
	return NewLegacy(PositionSeed(x, y, z) ^ f.Seed)
}

// SplitString ...
func (f LegacyFactory) SplitString(name string) Source {
	return NewLegacy(int64(stringHash(name)) ^ f.Seed)
}

// SplitInt64 ...
func (f LegacyFactory) SplitInt64(seed int64) Source {
	return NewLegacy(seed)
}

// stringHash computes the 31-multiplier polynomial hash over the UTF-16 code
// units of s, the same hash names have always been seeded with.
func stringHash(s string) int32 {
	var h int32
	for _, c := range utf16.Encode([]rune(s)) {
		h = 31*h + int32(c)
	}
	return h
}
