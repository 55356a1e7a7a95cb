package noise

import (
	"math"

	"github.com/dm-vev/voxelcore/server/world/gen/rand"
	"github.com/go-gl/mathgl/mgl64"
)

// PerlinDraws is the number of draws a Perlin construction takes from a Legacy
// source. Legacy octave stacks skip this many draws for every octave they leave
// out so that the following octaves keep their values.
const PerlinDraws = 262

// Perlin is a single octave of improved Perlin noise. A Perlin is immutable
// after construction and safe for concurrent use.
type Perlin struct {
	perm                      [256]byte
	originX, originY, originZ float64
}

// NewPerlin builds a Perlin from the draws of src: three origin offsets
// followed by a Fisher-Yates shuffle of the identity permutation.
func NewPerlin(src rand.Source) *Perlin {
	p := &Perlin{}
	p.originX = src.NextFloat64() * 256
	p.originY = src.NextFloat64() * 256
	p.originZ = src.NextFloat64() * 256
	for i := range p.perm {
		p.perm[i] = byte(i)
	}
	for i := 0; i < 256; i++ {
		j := int(src.NextBoundedInt32(int32(256 - i)))
		p.perm[i], p.perm[i+j] = p.perm[i+j], p.perm[i]
	}
	return p
}

// Origin returns the offset added to every sampled coordinate.
func (p *Perlin) Origin() mgl64.Vec3 {
	return mgl64.Vec3{p.originX, p.originY, p.originZ}
}

// Permutation returns a copy of the permutation table.
func (p *Perlin) Permutation() [256]byte {
	return p.perm
}

// SampleFlatY samples the noise without any y quantisation.
func (p *Perlin) SampleFlatY(x, y, z float64) float64 {
	return p.SampleNoFade(x, y, z, 0, 0)
}

// SampleNoFade samples the noise at the coordinates passed. If yScale is not
// 0, the fractional y coordinate used for the gradients is reduced by its
// value quantised to multiples of yScale, after clamping it to yMax if yMax is
// not negative.
func (p *Perlin) SampleNoFade(x, y, z, yScale, yMax float64) float64 {
	tx, ty, tz := x+p.originX, y+p.originY, z+p.originZ
	fx, fy, fz := math.Floor(tx), math.Floor(ty), math.Floor(tz)
	lx, ly, lz := tx-fx, ty-fy, tz-fz

	var yNoise float64
	if yScale != 0 {
		raw := ly
		if yMax >= 0 && yMax < ly {
			raw = yMax
		}
		yNoise = math.Floor(raw/yScale+1e-7) * yScale
	}
	return p.sample(floorInt32(fx), floorInt32(fy), floorInt32(fz), lx, ly-yNoise, lz, ly)
}

func (p *Perlin) hash(v int32) int32 {
	return int32(p.perm[v&0xFF])
}

func (p *Perlin) sample(x, y, z int32, lx, ly, lz, fadeY float64) float64 {
	i := p.hash(x)
	j := p.hash(x + 1)
	k := p.hash(i + y)
	l := p.hash(i + y + 1)
	m := p.hash(j + y)
	n := p.hash(j + y + 1)

	d := grad(p.hash(k+z), lx, ly, lz)
	e := grad(p.hash(m+z), lx-1, ly, lz)
	f := grad(p.hash(l+z), lx, ly-1, lz)
	g := grad(p.hash(n+z), lx-1, ly-1, lz)
	h := grad(p.hash(k+z+1), lx, ly, lz-1)
	o := grad(p.hash(m+z+1), lx-1, ly, lz-1)
	q := grad(p.hash(l+z+1), lx, ly-1, lz-1)
	r := grad(p.hash(n+z+1), lx-1, ly-1, lz-1)

	return lerp3(fade(lx), fade(fadeY), fade(lz), d, e, f, g, h, o, q, r)
}
