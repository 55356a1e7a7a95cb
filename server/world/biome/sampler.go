package biome

import (
	"fmt"

	"github.com/dm-vev/voxelcore/server/block/cube"
	"github.com/dm-vev/voxelcore/server/world/gen/noise"
	"github.com/dm-vev/voxelcore/server/world/gen/rand"
)

// Climate samples climate points for a world seed. A Climate is immutable once created and may be shared
// between goroutines.
type Climate struct {
	temperature, humidity, continentalness, erosion, weirdness *noise.DoublePerlin
	offset                                                     *noise.DoublePerlin
}

// NewClimate creates the climate noises of the world seed passed from the noise parameters in table.
func NewClimate(seed int64, table noise.Table) (*Climate, error) {
	factory := rand.NewXoroshiro(seed).Splitter()
	c := &Climate{}
	for _, n := range []struct {
		name string
		dst  **noise.DoublePerlin
	}{
		{"temperature", &c.temperature},
		{"vegetation", &c.humidity},
		{"continentalness", &c.continentalness},
		{"erosion", &c.erosion},
		{"ridge", &c.weirdness},
		{"offset", &c.offset},
	} {
		d, err := table.New(factory, n.name)
		if err != nil {
			return nil, fmt.Errorf("climate noise %s: %w", n.name, err)
		}
		*n.dst = d
	}
	return c, nil
}

// Sample returns the climate point at the quart position passed. A quart is a cell of 4x4x4 blocks.
func (c *Climate) Sample(qx, qy, qz int) Point {
	x, y, z := float64(qx<<2), float64(qy<<2), float64(qz<<2)

	// Climate noises are offset by the shift noise so that their features are not aligned with each other.
	shiftX := c.offset.Sample(x*0.25, 0, z*0.25) * 4
	shiftZ := c.offset.Sample(z*0.25, x*0.25, 0) * 4
	sx, sz := x*0.25+shiftX, z*0.25+shiftZ

	return Point{
		AxisTemperature:     Quantize(c.temperature.Sample(sx, 0, sz)),
		AxisHumidity:        Quantize(c.humidity.Sample(sx, 0, sz)),
		AxisContinentalness: Quantize(c.continentalness.Sample(sx, 0, sz)),
		AxisErosion:         Quantize(c.erosion.Sample(sx, 0, sz)),
		AxisDepth:           Quantize(depth(y)),
		AxisWeirdness:       Quantize(c.weirdness.Sample(sx, 0, sz)),
	}
}

// depth returns the depth of the block height y below the surface, 0 at sea level and growing downwards.
func depth(y float64) float64 {
	return max(-1.5, min(1.5, (63-y)/128))
}

// Source resolves biomes of a world: it samples climate points, looks them up in a parameter tree and blurs
// the borders between quarts with a Zoomer.
type Source struct {
	climate *Climate
	tree    *Tree
	zoom    Zoomer
}

// NewSource creates a Source for the world seed passed. If tree is nil, DefaultTree is used.
func NewSource(seed int64, tree *Tree) (*Source, error) {
	if tree == nil {
		tree = DefaultTree()
	}
	c, err := NewClimate(seed, noise.DefaultTable())
	if err != nil {
		return nil, err
	}
	return &Source{climate: c, tree: tree, zoom: NewZoomer(seed)}, nil
}

// Climate returns the climate sampler of the Source.
func (s *Source) Climate() *Climate {
	return s.climate
}

// Quart returns the biome of the quart position passed.
func (s *Source) Quart(qx, qy, qz int, c *Cursor) *Biome {
	return s.tree.Get(s.climate.Sample(qx, qy, qz), c)
}

// Biome returns the biome at the block position passed. c may be nil, but passing the same Cursor for
// consecutive nearby lookups makes them cheaper.
func (s *Source) Biome(pos cube.Pos, c *Cursor) *Biome {
	qx, qy, qz := s.zoom.Quart(pos[0], pos[1], pos[2])
	return s.Quart(qx, qy, qz, c)
}
