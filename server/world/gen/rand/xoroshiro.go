package rand

import (
	"crypto/md5"
	"encoding/binary"
	"math/bits"
)

const (
	goldenRatio64 = 0x9E3779B97F4A7C15
	silverRatio64 = 0x6A09E667F3BCC909
)

// Xoroshiro is a xoroshiro128++ source. Modern terrain features are seeded
// with it.
type Xoroshiro struct {
	lo, hi uint64
	g      gaussian
}

// NewXoroshiro returns a Xoroshiro source with the 64-bit seed passed expanded
// to its 128-bit state.
func NewXoroshiro(seed int64) *Xoroshiro {
	lo, hi := UpgradeSeed(seed)
	return NewXoroshiroFromState(lo, hi)
}

// NewXoroshiroFromState returns a Xoroshiro source using the raw state passed.
// An all-zero state is replaced with a fixed non-zero state, since xoroshiro
// never leaves the zero state.
func NewXoroshiroFromState(lo, hi uint64) *Xoroshiro {
	if lo|hi == 0 {
		lo, hi = goldenRatio64, silverRatio64
	}
	return &Xoroshiro{lo: lo, hi: hi}
}

// UpgradeSeed expands a 64-bit seed to a 128-bit state.
func UpgradeSeed(seed int64) (lo, hi uint64) {
	l := uint64(seed) ^ silverRatio64
	h := l + goldenRatio64
	return mixStafford13(l), mixStafford13(h)
}

func mixStafford13(z uint64) uint64 {
	z = (z ^ z>>30) * 0xBF58476D1CE4E5B9
	z = (z ^ z>>27) * 0x94D049BB133111EB
	return z ^ z>>31
}

// NextInt64 ...
func (r *Xoroshiro) NextInt64() int64 {
	l, m := r.lo, r.hi
	n := bits.RotateLeft64(l+m, 17) + l
	m ^= l
	r.lo = bits.RotateLeft64(l, 49) ^ m ^ m<<21
	r.hi = bits.RotateLeft64(m, 28)
	return int64(n)
}

// NextInt32 ...
func (r *Xoroshiro) NextInt32() int32 {
	return int32(r.NextInt64())
}

// NextBoundedInt32 uses Lemire's multiply-shift method, redrawing only when
// the low half falls into the biased region.
func (r *Xoroshiro) NextBoundedInt32(bound int32) int32 {
	if bound <= 0 {
		panic("rand: bound must be positive")
	}
	b := uint64(uint32(bound))
	m := uint64(uint32(r.NextInt32())) * b
	low := m & 0xFFFFFFFF
	if low < b {
		threshold := uint64(uint32(-bound) % uint32(bound))
		for low < threshold {
			m = uint64(uint32(r.NextInt32())) * b
			low = m & 0xFFFFFFFF
		}
	}
	return int32(m >> 32)
}

// NextFloat64 ...
func (r *Xoroshiro) NextFloat64() float64 {
	return float64(uint64(r.NextInt64())>>11) * 0x1p-53
}

// NextFloat32 ...
func (r *Xoroshiro) NextFloat32() float32 {
	return float32(uint64(r.NextInt64())>>40) * 0x1p-24
}

// NextBool ...
func (r *Xoroshiro) NextBool() bool {
	return r.NextInt64()&1 != 0
}

// NextGaussian ...
func (r *Xoroshiro) NextGaussian() float64 {
	return r.g.sample(r.NextFloat64)
}

// Skip ...
func (r *Xoroshiro) Skip(n int) {
	for i := 0; i < n; i++ {
		r.NextInt64()
	}
}

// Fork ...
func (r *Xoroshiro) Fork() Source {
	lo := uint64(r.NextInt64())
	hi := uint64(r.NextInt64())
	return NewXoroshiroFromState(lo, hi)
}

// Splitter ...
func (r *Xoroshiro) Splitter() PositionalFactory {
	lo := uint64(r.NextInt64())
	hi := uint64(r.NextInt64())
	return XoroshiroFactory{Lo: lo, Hi: hi}
}

// XoroshiroFactory derives Xoroshiro sources from a 128-bit seed.
type XoroshiroFactory struct {
	Lo, Hi uint64
}

// At ...
func (f XoroshiroFactory) At(x, y, z int) Source {
	return NewXoroshiroFromState(uint64(PositionSeed(x, y, z))^f.Lo, f.Hi)
}

// SplitString mixes the MD5 digest of the name into the factory seed.
func (f XoroshiroFactory) SplitString(name string) Source {
	sum := md5.Sum([]byte(name))
	lo := binary.BigEndian.Uint64(sum[:8])
	hi := binary.BigEndian.Uint64(sum[8:])
	return NewXoroshiroFromState(lo^f.Lo, hi^f.Hi)
}

// SplitInt64 ...
func (f XoroshiroFactory) SplitInt64(seed int64) Source {
	return NewXoroshiroFromState(uint64(seed)^f.Lo, f.Hi)
}
