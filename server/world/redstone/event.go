package redstone

import (
	"slices"

	"github.com/dm-vev/voxelcore/server/block/cube"
	"github.com/dm-vev/voxelcore/server/world"
)

// Event is a neighbour update waiting to be run by a chunk worker: the block
// at Pos is updated because the block at Source changed.
type Event struct {
	Pos    cube.Pos
	Source cube.Pos
	Tick   int64
}

// Key collapses the event down to a coalescing key.
func (e Event) Key() EventKey {
	return EventKey{Pos: e.Pos, Source: e.Source}
}

// EventKey is used for coalescing duplicate events when inboxes overflow.
type EventKey struct {
	Pos    cube.Pos
	Source cube.Pos
}

// ChunkID identifies a chunk in Morton space without tying the router to a
// World.
type ChunkID struct {
	X, Z int32
}

// ChunkIDOf returns the ChunkID of the chunk that holds pos.
func ChunkIDOf(pos cube.Pos) ChunkID {
	return ChunkID{X: int32(pos[0] >> 4), Z: int32(pos[2] >> 4)}
}

func chunkID(pos world.ChunkPos) ChunkID {
	return ChunkID{X: pos[0], Z: pos[1]}
}

// Morton returns the deterministic order value for the chunk.
func (id ChunkID) Morton() uint64 {
	return morton2(toUnsigned(id.X), toUnsigned(id.Z))
}

// mortonKey returns a sortable key for ordering events deterministically.
func (k EventKey) mortonKey() uint64 {
	return morton2(toUnsigned(int32(k.Pos[0])), toUnsigned(int32(k.Pos[2])))<<16 |
		uint64(uint16(k.Pos[1]))
}

func toUnsigned(v int32) uint32 {
	return uint32(v) ^ (1 << 31)
}

func splitBy1(x uint32) uint64 {
	x64 := uint64(x)
	x64 = (x64 | x64<<16) & 0x0000FFFF0000FFFF
	x64 = (x64 | x64<<8) & 0x00FF00FF00FF00FF
	x64 = (x64 | x64<<4) & 0x0F0F0F0F0F0F0F0F
	x64 = (x64 | x64<<2) & 0x3333333333333333
	x64 = (x64 | x64<<1) & 0x5555555555555555
	return x64
}

func morton2(x, z uint32) uint64 {
	return splitBy1(x) | splitBy1(z)<<1
}

// sortEventsDeterministic sorts in place using the morton key of the updated
// position. Events with equal keys are ordered by their source.
func sortEventsDeterministic(events []Event) {
	slices.SortStableFunc(events, func(a, b Event) int {
		ka, kb := a.Key().mortonKey(), b.Key().mortonKey()
		switch {
		case ka < kb:
			return -1
		case ka > kb:
			return 1
		}
		return comparePos(a.Source, b.Source)
	})
}

func comparePos(a, b cube.Pos) int {
	for i := range a {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}
