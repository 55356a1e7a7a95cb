package mcdb

import (
	"encoding/binary"

	"github.com/dm-vev/voxelcore/server/world"
)

// Keys on a per-chunk basis. These are prefixed by the chunk position as two
// little endian int32s.
const (
	// keyVersion holds a single byte with the version of the chunk format.
	keyVersion = ','
	// keySubChunk holds a single sub chunk. The key is followed by one byte
	// with the signed vertical index of the sub chunk.
	keySubChunk = '/'
)

// keySettings is the key under which the world settings are stored.
var keySettings = []byte("VoxelLevelSettings")

// chunkVersion is the version of the chunk format written by the DB.
const chunkVersion = 1

// index returns a byte buffer holding the written index of the chunk position
// passed.
func index(pos world.ChunkPos) []byte {
	b := make([]byte, 8, 10)
	binary.LittleEndian.PutUint32(b, uint32(pos[0]))
	binary.LittleEndian.PutUint32(b[4:], uint32(pos[1]))
	return b
}

func versionKey(pos world.ChunkPos) []byte {
	return append(index(pos), keyVersion)
}

func subChunkKey(pos world.ChunkPos, y int8) []byte {
	return append(index(pos), keySubChunk, byte(y))
}

// parseVersionKey returns the chunk position of a key made by versionKey. It
// returns false for every other key.
func parseVersionKey(k []byte) (world.ChunkPos, bool) {
	if len(k) != 9 || k[8] != keyVersion {
		return world.ChunkPos{}, false
	}
	return world.ChunkPos{int32(binary.LittleEndian.Uint32(k)), int32(binary.LittleEndian.Uint32(k[4:]))}, true
}
