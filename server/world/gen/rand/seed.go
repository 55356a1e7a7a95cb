package rand

import (
	"crypto/sha256"
	"encoding/binary"
)

// PositionSeed returns the seed of a block position. Features that must look
// the same every time a position is generated derive their sources from it.
func PositionSeed(x, y, z int) int64 {
	l := int64(int32(x)*3129871) ^ int64(z)*116129781 ^ int64(y)
	l = l*l*42317861 + l*11
	return l >> 16
}

// HashSeed obfuscates a world seed. The result seeds the biome zoom so that
// the zoom pattern cannot be used to recover the world seed.
func HashSeed(seed uint64) int64 {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], seed)
	sum := sha256.Sum256(b[:])
	return int64(binary.LittleEndian.Uint64(sum[:8]))
}
