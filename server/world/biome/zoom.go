package biome

import "github.com/dm-vev/voxelcore/server/world/gen/rand"

// Zoomer maps block positions to the quart whose biome they take. Instead of a plain division by four, every
// quart corner is jittered by a seeded offset so that biome borders do not follow the 4x4 grid.
type Zoomer struct {
	seed int64
}

// NewZoomer returns a Zoomer for the world seed passed.
func NewZoomer(worldSeed int64) Zoomer {
	return Zoomer{seed: rand.HashSeed(uint64(worldSeed))}
}

// Quart returns the quart position that the block at x, y, z takes its biome from.
func (z Zoomer) Quart(x, y, zz int) (int, int, int) {
	i, j, k := x-2, y-2, zz-2
	qx, qy, qz := i>>2, j>>2, k>>2
	fx, fy, fz := float64(i&3)/4, float64(j&3)/4, float64(k&3)/4

	best, dist := 0, 0.0
	for corner := 0; corner < 8; corner++ {
		cx, cy, cz := qx, qy, qz
		dx, dy, dz := fx, fy, fz
		if corner&4 != 0 {
			cx, dx = cx+1, dx-1
		}
		if corner&2 != 0 {
			cy, dy = cy+1, dy-1
		}
		if corner&1 != 0 {
			cz, dz = cz+1, dz-1
		}
		// Ties keep the earlier corner.
		if d := z.fiddledDistance(cx, cy, cz, dx, dy, dz); corner == 0 || d < dist {
			best, dist = corner, d
		}
	}
	if best&4 != 0 {
		qx++
	}
	if best&2 != 0 {
		qy++
	}
	if best&1 != 0 {
		qz++
	}
	return qx, qy, qz
}

// fiddledDistance returns the squared distance to a quart corner after moving the corner by its seeded jitter.
func (z Zoomer) fiddledDistance(x, y, zz int, dx, dy, dz float64) float64 {
	l := lcgNext(z.seed, int64(x))
	l = lcgNext(l, int64(y))
	l = lcgNext(l, int64(zz))
	l = lcgNext(l, int64(x))
	l = lcgNext(l, int64(y))
	l = lcgNext(l, int64(zz))
	fx := fiddle(l)
	l = lcgNext(l, z.seed)
	fy := fiddle(l)
	l = lcgNext(l, z.seed)
	fz := fiddle(l)
	return float64(square(dz+fz)+square(dy+fy)) + square(dx+fx)
}

// lcgNext advances the 64-bit linear congruential sequence seeded with l by the value m.
func lcgNext(l, m int64) int64 {
	return l*(l*6364136223846793005+1442695040888963407) + m
}

// fiddle returns the jitter in [-0.45, 0.45) encoded by bits 24 to 33 of l.
func fiddle(l int64) float64 {
	d := float64(floorMod(l>>24, 1024)) / 1024
	return (d - 0.5) * 0.9
}

func floorMod(a, b int64) int64 {
	m := a % b
	if m != 0 && (m < 0) != (b < 0) {
		m += b
	}
	return m
}

func square(v float64) float64 {
	return float64(v * v)
}
