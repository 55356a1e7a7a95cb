package world

import (
	"fmt"

	"github.com/dm-vev/voxelcore/server/block/cube"
)

// ChunkPos holds the position of a chunk. The type is provided as a utility
// struct for keeping track of a chunk's position. Chunks do not themselves
// keep track of that. Chunk positions are different from block positions in
// the way that increasing the X/Z by one means increasing the absolute value
// on the X/Z axis in terms of blocks by 16.
type ChunkPos [2]int32

// String implements fmt.Stringer and returns (x, z).
func (p ChunkPos) String() string {
	return fmt.Sprintf("(%v, %v)", p[0], p[1])
}

// X returns the X coordinate of the chunk position.
func (p ChunkPos) X() int32 {
	return p[0]
}

// Z returns the Z coordinate of the chunk position.
func (p ChunkPos) Z() int32 {
	return p[1]
}

// chunkPosFromBlockPos returns the ChunkPos of the chunk that a block at a
// cube.Pos is in.
func chunkPosFromBlockPos(p cube.Pos) ChunkPos {
	return ChunkPos{int32(p[0] >> 4), int32(p[2] >> 4)}
}

// ChunkPosOf returns the position of the chunk that holds the block position
// passed.
func ChunkPosOf(p cube.Pos) ChunkPos {
	return chunkPosFromBlockPos(p)
}

// SubChunk is a 16x16x16 section of a Column. Blocks are indexed x, then z,
// then y. Biomes are stored per 4x4x4 quart.
type SubChunk struct {
	blocks  [4096]StateID
	biomes  [64]uint8
	nonAir  int
	touched bool
}

func subIndex(x, y, z uint8) int {
	return int(y&15)<<8 | int(z&15)<<4 | int(x&15)
}

// Block returns the state at the position in the sub chunk passed.
func (s *SubChunk) Block(x, y, z uint8) StateID {
	return s.blocks[subIndex(x, y, z)]
}

// SetBlock sets the state at the position in the sub chunk passed and returns
// the previous state.
func (s *SubChunk) SetBlock(x, y, z uint8, st StateID) StateID {
	i := subIndex(x, y, z)
	old := s.blocks[i]
	s.blocks[i] = st
	switch {
	case old == 0 && st != 0:
		s.nonAir++
	case old != 0 && st == 0:
		s.nonAir--
	}
	return old
}

// Biome returns the biome ID of the quart holding the position passed.
func (s *SubChunk) Biome(x, y, z uint8) uint8 {
	return s.biomes[int(y&15>>2)<<4|int(z&15>>2)<<2|int(x&15>>2)]
}

// SetBiome sets the biome ID of the quart holding the position passed.
func (s *SubChunk) SetBiome(x, y, z uint8, id uint8) {
	s.biomes[int(y&15>>2)<<4|int(z&15>>2)<<2|int(x&15>>2)] = id
	s.touched = true
}

// Empty checks if the SubChunk holds only air and carries no biome data.
func (s *SubChunk) Empty() bool {
	return s.nonAir == 0 && !s.touched
}

// Palette returns the distinct states of the SubChunk in the order they are
// first encountered, and the index of every block in that palette.
func (s *SubChunk) Palette() ([]StateID, []uint16) {
	seen := make(map[StateID]uint16, 8)
	palette := make([]StateID, 0, 8)
	indices := make([]uint16, len(s.blocks))
	for i, st := range s.blocks {
		idx, ok := seen[st]
		if !ok {
			idx = uint16(len(palette))
			seen[st] = idx
			palette = append(palette, st)
		}
		indices[i] = idx
	}
	return palette, indices
}

// Biomes returns the biome IDs of the 64 quarts of the SubChunk.
func (s *SubChunk) Biomes() [64]uint8 {
	return s.biomes
}

// Load replaces the contents of the SubChunk with the palette and indices
// passed, as returned by Palette.
func (s *SubChunk) Load(palette []StateID, indices []uint16, biomes [64]uint8) error {
	if len(indices) != len(s.blocks) {
		return fmt.Errorf("sub chunk: expected %d block indices, got %d", len(s.blocks), len(indices))
	}
	s.nonAir = 0
	for i, idx := range indices {
		if int(idx) >= len(palette) {
			return fmt.Errorf("sub chunk: palette index %d out of range (%d entries)", idx, len(palette))
		}
		s.blocks[i] = palette[idx]
		if palette[idx] != 0 {
			s.nonAir++
		}
	}
	s.biomes = biomes
	s.touched = true
	return nil
}

// Column is a full-height column of SubChunks. SubChunks are allocated when a
// block is first written to them. A Column is not safe for concurrent use: the
// World guards it.
type Column struct {
	r        cube.Range
	sub      []*SubChunk
	modified bool
}

// NewColumn returns an empty Column spanning the range passed.
func NewColumn(r cube.Range) *Column {
	return &Column{r: r, sub: make([]*SubChunk, (r.Height()+15)>>4)}
}

// Range returns the vertical range of the Column.
func (c *Column) Range() cube.Range {
	return c.r
}

// Sub returns the SubChunks of the column from the bottom up. Entries are nil
// if nothing was ever written to them.
func (c *Column) Sub() []*SubChunk {
	return c.sub
}

// SubIndex returns the index in Sub of the SubChunk holding the y passed.
func (c *Column) SubIndex(y int) int {
	return (y - c.r[0]) >> 4
}

// SubY returns the y of the lowest block of the SubChunk at index i.
func (c *Column) SubY(i int) int {
	return i<<4 + c.r[0]
}

// SubChunk returns the SubChunk at index i, allocating it if needed.
func (c *Column) SubChunk(i int) *SubChunk {
	if c.sub[i] == nil {
		c.sub[i] = &SubChunk{}
	}
	return c.sub[i]
}

// Block returns the state at x, y, z in the column. x and z are taken modulo 16.
// Positions outside of the range of the Column are air.
func (c *Column) Block(x uint8, y int, z uint8) StateID {
	if y < c.r[0] || y > c.r[1] {
		return 0
	}
	s := c.sub[c.SubIndex(y)]
	if s == nil {
		return 0
	}
	return s.Block(x, uint8(y), z)
}

// SetBlock sets the state at x, y, z and returns the state that was there
// before.
func (c *Column) SetBlock(x uint8, y int, z uint8, st StateID) StateID {
	if y < c.r[0] || y > c.r[1] {
		return 0
	}
	i := c.SubIndex(y)
	if c.sub[i] == nil && st == 0 {
		return 0
	}
	c.modified = true
	return c.SubChunk(i).SetBlock(x, uint8(y), z, st)
}

// Biome returns the biome ID at x, y, z.
func (c *Column) Biome(x uint8, y int, z uint8) uint8 {
	y = max(c.r[0], min(c.r[1], y))
	s := c.sub[c.SubIndex(y)]
	if s == nil {
		return 0
	}
	return s.Biome(x, uint8(y), z)
}

// SetBiome sets the biome ID of the quart holding x, y, z.
func (c *Column) SetBiome(x uint8, y int, z uint8, id uint8) {
	if y < c.r[0] || y > c.r[1] {
		return
	}
	c.modified = true
	c.SubChunk(c.SubIndex(y)).SetBiome(x, uint8(y), z, id)
}

// HighestBlock returns the y of the highest non-air block at x, z, or the
// bottom of the range if the column is empty there.
func (c *Column) HighestBlock(x, z uint8) int {
	for i := len(c.sub) - 1; i >= 0; i-- {
		s := c.sub[i]
		if s == nil || s.nonAir == 0 {
			continue
		}
		for y := 15; y >= 0; y-- {
			if s.Block(x, uint8(y), z) != 0 {
				return c.SubY(i) + y
			}
		}
	}
	return c.r[0]
}

// Compact releases SubChunks that hold nothing.
func (c *Column) Compact() {
	for i, s := range c.sub {
		if s != nil && s.Empty() {
			c.sub[i] = nil
		}
	}
}

// Modified reports if the Column changed since it was loaded or last saved.
func (c *Column) Modified() bool {
	return c.modified
}

// MarkSaved clears the modified flag of the Column.
func (c *Column) MarkSaved() {
	c.modified = false
}
