package generator

import (
	"github.com/dm-vev/voxelcore/server/block"
	"github.com/dm-vev/voxelcore/server/world"
)

// Flat is the flat generator of World. It generates flat worlds (like those
// in vanilla) with no other decoration. It may be constructed by calling
// NewFlat.
type Flat struct {
	// biome is the encoded biome that the generator should use.
	biome uint8
	// layers is a list of block layers placed by the Flat generator. The
	// layers are ordered in a way where the last element in the slice is
	// placed as the bottom most block of the chunk.
	layers []world.StateID
	// n is the amount of layers in the slice above.
	n int
}

// Compile time check to make sure Flat implements world.Generator.
var _ world.Generator = Flat{}

// NewFlat creates a new Flat generator. Chunks generated are completely
// filled with the biome ID passed. layers is a list of block layers placed by
// the Flat generator. The layers are ordered in a way where the last element
// in the slice is placed as the bottom most block of the chunk.
func NewFlat(biome uint8, layers []world.StateID) Flat {
	return Flat{
		biome:  biome,
		layers: layers,
		n:      len(layers),
	}
}

// DefaultFlat returns a Flat generator of plains with a layer of grass, two
// layers of dirt and a bedrock floor.
func DefaultFlat() Flat {
	block.Registry()
	return NewFlat(1, []world.StateID{
		block.GrassBlock.Default(),
		block.Dirt.Default(),
		block.Dirt.Default(),
		block.Bedrock.Default(),
	})
}

// GenerateColumn ...
func (f Flat) GenerateColumn(_ world.ChunkPos, c *world.Column) {
	min, max := c.Range().Min(), c.Range().Max()

	for x := uint8(0); x < 16; x++ {
		for z := uint8(0); z < 16; z++ {
			for y := 0; y < f.n && min+y <= max; y++ {
				c.SetBlock(x, min+y, z, f.layers[f.n-y-1])
			}
			if x&3 != 0 || z&3 != 0 {
				continue
			}
			for y := min; y <= max; y += 4 {
				c.SetBiome(x, y, z, f.biome)
			}
		}
	}
}
