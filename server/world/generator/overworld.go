// Package generator implements the terrain generators of the server: the
// Overworld generator, which shapes terrain from noise and climate biomes,
// and the Flat generator, which fills columns with fixed layers.
package generator

import (
	"fmt"

	"github.com/dm-vev/voxelcore/server/block"
	"github.com/dm-vev/voxelcore/server/block/cube"
	"github.com/dm-vev/voxelcore/server/world"
	"github.com/dm-vev/voxelcore/server/world/biome"
	"github.com/dm-vev/voxelcore/server/world/gen/noise"
	"github.com/dm-vev/voxelcore/server/world/gen/rand"
)

// SmoothSize is the radius of the area over which the elevation of biomes is
// averaged to smooth the borders between them.
const SmoothSize = 2

// SeaLevel is the highest y filled with water.
const SeaLevel = 62

// terrainHeight is the height above y=0 that terrain is shaped in. Blocks
// below y=0 are stone.
const terrainHeight = 128

var gaussianKernel = [5][5]float64{
	{
		1.4715177646858,
		2.141045714076,
		2.4261226388505,
		2.141045714076,
		1.4715177646858,
	},
	{
		2.141045714076,
		3.1152031322856,
		3.5299876103384,
		3.1152031322856,
		2.141045714076,
	},
	{
		2.4261226388505,
		3.5299876103384,
		4,
		3.5299876103384,
		2.4261226388505,
	},
	{
		2.141045714076,
		3.1152031322856,
		3.5299876103384,
		3.1152031322856,
		2.141045714076,
	},
	{
		1.4715177646858,
		2.141045714076,
		2.4261226388505,
		2.141045714076,
		1.4715177646858,
	},
}

// Overworld generates terrain shaped by 3D noise, with the height of every
// column pulled towards the elevation band of its biome. Biomes are resolved
// from climate noise. Overworld is safe for concurrent use.
type Overworld struct {
	seed    int64
	density *noise.Octave
	biomes  *biome.Source
	reg     *world.Registry

	cover   map[uint8][]world.StateID
	ores    Ore
	bedrock world.StateID
	stone   world.StateID
	water   world.StateID
}

// Compile time check to make sure Overworld implements world.Generator.
var _ world.Generator = (*Overworld)(nil)

// NewOverworld creates an Overworld generator for the seed passed, using the
// biomes of biome.DefaultTree and the blocks of block.Registry.
func NewOverworld(seed int64) (*Overworld, error) {
	src, err := biome.NewSource(seed, nil)
	if err != nil {
		return nil, fmt.Errorf("new overworld: %w", err)
	}
	return NewOverworldFrom(seed, src, block.Registry())
}

// NewOverworldFrom creates an Overworld generator that resolves biomes with
// the biome.Source passed and places the blocks of reg. Every block named in
// the ground cover of a biome must be registered in reg.
func NewOverworldFrom(seed int64, src *biome.Source, reg *world.Registry) (*Overworld, error) {
	first, amplitudes := noise.CalculateAmplitudes([]int{-5, -4, -3, -2})
	o := &Overworld{
		seed:    seed,
		density: noise.NewOctave(rand.NewLegacy(seed), first, amplitudes, true),
		biomes:  src,
		reg:     reg,
		cover:   make(map[uint8][]world.StateID),
		bedrock: block.Bedrock.Default(),
		stone:   block.Stone.Default(),
		water:   block.Water.Default(),
	}
	for _, b := range biome.Default().All() {
		states := make([]world.StateID, 0, len(b.GroundCover))
		for _, name := range b.GroundCover {
			st, err := reg.State(name, nil)
			if err != nil {
				return nil, fmt.Errorf("new overworld: ground cover of %v: %w", b.Name, err)
			}
			states = append(states, st)
		}
		o.cover[b.ID] = states
	}
	o.ores = Ore{Types: []OreType{
		{block.CoalOre.Default(), o.stone, 20, 16, 0, 128},
		{block.IronOre.Default(), o.stone, 20, 8, 0, 64},
		{block.RedstoneOre.Default(), o.stone, 8, 7, 0, 16},
		{block.GoldOre.Default(), o.stone, 2, 8, 0, 32},
		{block.DiamondOre.Default(), o.stone, 1, 7, 0, 16},
		{block.Dirt.Default(), o.stone, 20, 32, 0, 128},
		{block.Gravel.Default(), o.stone, 10, 16, 0, 128},
	}}
	return o, nil
}

// Biomes returns the biome.Source the Overworld resolves biomes with.
func (o *Overworld) Biomes() *biome.Source {
	return o.biomes
}

// GenerateColumn generates the column at pos.
func (o *Overworld) GenerateColumn(pos world.ChunkPos, c *world.Column) {
	r := rand.NewLegacy(0xdeadbeef ^ (int64(pos[0]) << 8) ^ int64(pos[1]) ^ o.seed)
	baseX, baseZ := int(pos[0])<<4, int(pos[1])<<4
	density := o.fastNoise(baseX, baseZ)

	// Biomes of the chunk and the SmoothSize wide border around it.
	const size = 16 + SmoothSize*2
	var (
		cursor biome.Cursor
		cols   [size][size]*biome.Biome
	)
	for x := 0; x < size; x++ {
		for z := 0; z < size; z++ {
			cols[x][z] = o.biomes.Biome(cube.Pos{baseX + x - SmoothSize, SeaLevel, baseZ + z - SmoothSize}, &cursor)
		}
	}

	bottom := c.Range().Min()
	for x := 0; x < 16; x++ {
		for z := 0; z < 16; z++ {
			b := cols[x+SmoothSize][z+SmoothSize]
			o.applyBiomeColumn(c, uint8(x), uint8(z), b)

			var minSum, maxSum, weightSum float64
			for sx := -SmoothSize; sx <= SmoothSize; sx++ {
				for sz := -SmoothSize; sz <= SmoothSize; sz++ {
					weight := gaussianKernel[sx+SmoothSize][sz+SmoothSize]
					adjacent := cols[x+sx+SmoothSize][z+sz+SmoothSize]
					minSum += float64(adjacent.MinElevation-1) * weight
					maxSum += float64(adjacent.MaxElevation) * weight
					weightSum += weight
				}
			}
			minSum /= weightSum
			maxSum /= weightSum
			smoothHeight := (maxSum - minSum) / 2

			c.SetBlock(uint8(x), bottom, uint8(z), o.bedrock)
			for y := bottom + 1; y < 0; y++ {
				c.SetBlock(uint8(x), y, uint8(z), o.stone)
			}
			for y := max(0, bottom+1); y < terrainHeight; y++ {
				v := density[x][z][y] - 1.0/smoothHeight*(float64(y)-smoothHeight-minSum)
				if v > 0 {
					c.SetBlock(uint8(x), y, uint8(z), o.stone)
				} else if y <= SeaLevel {
					c.SetBlock(uint8(x), y, uint8(z), o.water)
				}
			}
		}
	}

	for x := 0; x < 16; x++ {
		for z := 0; z < 16; z++ {
			o.coverColumn(c, uint8(x), uint8(z), cols[x+SmoothSize][z+SmoothSize])
		}
	}

	centre := cols[7+SmoothSize][7+SmoothSize]
	v := ChunkView{Column: c, Pos: pos, Registry: o.reg}
	for _, p := range append([]Populator{o.ores}, o.populators(centre)...) {
		p.Populate(v, r)
	}
}

// applyBiomeColumn stores the biome passed for every quart of the column at
// x, z.
func (o *Overworld) applyBiomeColumn(c *world.Column, x, z uint8, b *biome.Biome) {
	if x&3 != 0 || z&3 != 0 {
		return
	}
	r := c.Range()
	for y := r.Min(); y <= r.Max(); y += 4 {
		c.SetBiome(x, y, z, b.ID)
	}
}

// coverColumn replaces the top blocks of the column at x, z with the ground
// cover of the biome passed. Columns under water are covered at the bottom of
// the water.
func (o *Overworld) coverColumn(c *world.Column, x, z uint8, b *biome.Biome) {
	cov := o.cover[b.ID]
	if len(cov) == 0 {
		return
	}
	diffY := 0
	if !o.reg.Solid(cov[0]) {
		diffY = 1
	}
	top := c.HighestBlock(x, z)
	for top > 0 && c.Block(x, top, z) == o.water {
		top--
	}
	start := min(terrainHeight-1, top+diffY)
	end := start - len(cov)
	for y := start; y > end && y >= 0; y-- {
		st := cov[start-y]
		current := c.Block(x, y, z)
		if current == 0 && o.reg.Solid(st) {
			break
		}
		if current == o.water && !o.reg.Solid(st) {
			continue
		}
		c.SetBlock(x, y, z, st)
	}
}

// populators returns the populators of the biome passed.
func (o *Overworld) populators(b *biome.Biome) []Populator {
	var p []Populator
	if tree, ok := treeTypes[b.Trees]; ok && b.TreeCount > 0 {
		p = append(p, Tree{Type: tree, BaseAmount: b.TreeCount})
	}
	if b.GrassCount > 0 {
		p = append(p, TallGrass{Amount: b.GrassCount})
	}
	return p
}

// fastNoise samples the density noise of the 16x16 columns starting at x, z
// on a coarse grid and interpolates between the samples. The values returned
// are scaled to roughly [-1, 1].
func (o *Overworld) fastNoise(x, z int) *[16][16][terrainHeight]float64 {
	const (
		stepXZ = 4
		stepY  = 8
		nXZ    = 16/stepXZ + 1
		nY     = terrainHeight/stepY + 1
	)
	var grid [nXZ][nXZ][nY]float64
	scale := 1 / o.density.MaxValue()
	for gx := 0; gx < nXZ; gx++ {
		for gz := 0; gz < nXZ; gz++ {
			for gy := 0; gy < nY; gy++ {
				grid[gx][gz][gy] = o.density.Sample(float64(x+gx*stepXZ), float64(gy*stepY), float64(z+gz*stepXZ)) * scale
			}
		}
	}

	out := new([16][16][terrainHeight]float64)
	for xx := 0; xx < 16; xx++ {
		gx, dx := xx/stepXZ, float64(xx%stepXZ)/stepXZ
		for zz := 0; zz < 16; zz++ {
			gz, dz := zz/stepXZ, float64(zz%stepXZ)/stepXZ
			for yy := 0; yy < terrainHeight; yy++ {
				gy, dy := yy/stepY, float64(yy%stepY)/stepY
				c00 := lerp(dx, grid[gx][gz][gy], grid[gx+1][gz][gy])
				c01 := lerp(dx, grid[gx][gz+1][gy], grid[gx+1][gz+1][gy])
				c10 := lerp(dx, grid[gx][gz][gy+1], grid[gx+1][gz][gy+1])
				c11 := lerp(dx, grid[gx][gz+1][gy+1], grid[gx+1][gz+1][gy+1])
				out[xx][zz][yy] = lerp(dy, lerp(dz, c00, c01), lerp(dz, c10, c11))
			}
		}
	}
	return out
}

func lerp(delta, start, end float64) float64 {
	return start + delta*(end-start)
}
