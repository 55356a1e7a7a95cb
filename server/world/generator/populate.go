package generator

import (
	"math"

	"github.com/dm-vev/voxelcore/server/block"
	"github.com/dm-vev/voxelcore/server/block/cube"
	"github.com/dm-vev/voxelcore/server/world"
	"github.com/dm-vev/voxelcore/server/world/gen/rand"
	"github.com/go-gl/mathgl/mgl64"
)

// Populator decorates a generated column, for example with ores or trees.
type Populator interface {
	Populate(v ChunkView, r rand.Source)
}

// ChunkView gives a Populator access to the blocks of a single column by
// world position. Positions outside of the column read as air and are never
// written, so that populating a column does not depend on its neighbours.
type ChunkView struct {
	Column   *world.Column
	Pos      world.ChunkPos
	Registry *world.Registry
}

// Contains reports if the block position passed lies in the column.
func (v ChunkView) Contains(pos cube.Pos) bool {
	return int32(pos[0]>>4) == v.Pos[0] && int32(pos[2]>>4) == v.Pos[1]
}

// Block returns the state at pos.
func (v ChunkView) Block(pos cube.Pos) world.StateID {
	if !v.Contains(pos) {
		return 0
	}
	return v.Column.Block(uint8(pos[0]), pos[1], uint8(pos[2]))
}

// SetBlock sets the state at pos if pos lies in the column.
func (v ChunkView) SetBlock(pos cube.Pos, st world.StateID) {
	if v.Contains(pos) {
		v.Column.SetBlock(uint8(pos[0]), pos[1], uint8(pos[2]), st)
	}
}

// Solid reports if the block at pos is solid.
func (v ChunkView) Solid(pos cube.Pos) bool {
	return v.Registry.Solid(v.Block(pos))
}

// randomX returns a random x in the column.
func (v ChunkView) randomX(r rand.Source) int {
	return int(rand.NextIntRange(r, v.Pos[0]<<4, v.Pos[0]<<4+15))
}

// randomZ returns a random z in the column.
func (v ChunkView) randomZ(r rand.Source) int {
	return int(rand.NextIntRange(r, v.Pos[1]<<4, v.Pos[1]<<4+15))
}

// Ore places veins of ore in a column.
type Ore struct {
	Types []OreType
}

// Populate ...
func (o Ore) Populate(v ChunkView, r rand.Source) {
	for _, ore := range o.Types {
		for i := 0; i < ore.ClusterCount; i++ {
			p := cube.Pos{
				v.randomX(r),
				int(rand.NextIntRange(r, int32(ore.MinHeight), int32(ore.MaxHeight))),
				v.randomZ(r),
			}
			if v.Block(p) == ore.Replaces {
				ore.Place(v, p, r)
			}
		}
	}
}

// OreType is a kind of ore vein: the ore placed, the block it replaces, how
// many veins a column holds and the height they are placed between.
type OreType struct {
	Material, Replaces        world.StateID
	ClusterCount, ClusterSize int
	MinHeight, MaxHeight      int
}

// Place places a single vein starting at pos.
func (o OreType) Place(v ChunkView, pos cube.Pos, r rand.Source) {
	clusterSize := float64(o.ClusterSize)
	vec := pos.Vec3()
	angle := r.NextFloat64() * math.Pi
	offset := mgl64.Vec2{math.Cos(angle), math.Sin(angle)}.Mul(clusterSize / 8)
	x1, x2 := vec[0]+8+offset[0], vec[0]+8-offset[0]
	z1, z2 := vec[2]+8+offset[1], vec[2]+8-offset[1]
	y1, y2 := vec[1]+float64(r.NextBoundedInt32(3))+2, vec[1]+float64(r.NextBoundedInt32(3))+2
	for i := float64(0); i <= clusterSize; i++ {
		seed := mgl64.Vec3{
			x1 + (x2-x1)*i/clusterSize,
			y1 + (y2-y1)*i/clusterSize,
			z1 + (z2-z1)*i/clusterSize,
		}
		size := ((math.Sin(i*(math.Pi/clusterSize))+1)*r.NextFloat64()*clusterSize/16 + 1) / 2

		start := cube.PosFromVec3(seed.Sub(mgl64.Vec3{size, size, size}))
		end := cube.PosFromVec3(seed.Add(mgl64.Vec3{size, size, size}))
		for xx := start[0]; xx <= end[0]; xx++ {
			sizeX := square((float64(xx) + 0.5 - seed[0]) / size)
			if sizeX >= 1 {
				continue
			}
			for yy := start[1]; yy <= end[1]; yy++ {
				sizeY := square((float64(yy) + 0.5 - seed[1]) / size)
				if yy <= 0 || sizeX+sizeY >= 1 {
					continue
				}
				for zz := start[2]; zz <= end[2]; zz++ {
					sizeZ := square((float64(zz) + 0.5 - seed[2]) / size)
					target := cube.Pos{xx, yy, zz}
					if sizeX+sizeY+sizeZ < 1 && v.Block(target) == o.Replaces {
						v.SetBlock(target, o.Material)
					}
				}
			}
		}
	}
}

// TallGrass places short grass on grass blocks.
type TallGrass struct {
	Amount int
}

// Populate ...
func (t TallGrass) Populate(v ChunkView, r rand.Source) {
	amount := int(r.NextBoundedInt32(2)) + t.Amount
	for i := 0; i < amount; i++ {
		x, z := v.randomX(r), v.randomZ(r)
		if y, ok := t.highestWorkableBlock(v, x, z); ok {
			v.SetBlock(cube.Pos{x, y, z}, block.ShortGrass.Default())
		}
	}
}

func (TallGrass) highestWorkableBlock(v ChunkView, x, z int) (int, bool) {
	for y := terrainHeight - 1; y > 0; y-- {
		if v.Block(cube.Pos{x, y, z}) == 0 && block.GrassBlock.Has(v.Block(cube.Pos{x, y - 1, z})) {
			return y, true
		}
	}
	return 0, false
}

// Tree grows trees of a TreeType on dirt and grass.
type Tree struct {
	BaseAmount int
	Type       TreeType
}

// Populate ...
func (t Tree) Populate(v ChunkView, r rand.Source) {
	amount := int(r.NextBoundedInt32(2)) + t.BaseAmount
	for i := 0; i < amount; i++ {
		x, z := v.randomX(r), v.randomZ(r)
		if y, ok := t.highestWorkableBlock(v, x, z); ok {
			treeType := t.Type
			if birch, ok := treeType.(BirchTree); ok && r.NextBoundedInt32(39) == 0 {
				birch.Super = true
				treeType = birch
			}
			treeType.Grow(v, cube.Pos{x, y, z}, r)
		}
	}
}

func (Tree) highestWorkableBlock(v ChunkView, x, z int) (int, bool) {
	for y := terrainHeight - 1; y > 0; y-- {
		below := v.Block(cube.Pos{x, y - 1, z})
		switch {
		case below == block.Dirt.Default() || block.GrassBlock.Has(below):
			return y, true
		case below != 0:
			return 0, false
		}
	}
	return 0, false
}

// treeTypes maps the tree names used in the biome table to tree types.
var treeTypes = map[string]TreeType{
	"oak":    OakTree{},
	"birch":  BirchTree{},
	"spruce": SpruceTree{},
}

// TreeType grows a single tree with its trunk starting at pos.
type TreeType interface {
	Grow(v ChunkView, pos cube.Pos, r rand.Source)
}

// SpruceTree is a tall tree with a conical crown of spruce leaves.
type SpruceTree struct{}

// Grow ...
func (SpruceTree) Grow(v ChunkView, pos cube.Pos, r rand.Source) {
	if !canGrow(v, pos, 10) {
		return
	}
	treeHeight := int(r.NextBoundedInt32(4)) + 6
	topSize := treeHeight - int(1+r.NextBoundedInt32(2))
	lr := 2 + int(r.NextBoundedInt32(2))

	trunk(v, pos, block.SpruceLog, treeHeight-int(r.NextBoundedInt32(3)))

	radius := int(r.NextBoundedInt32(2))
	minR, maxR := 0, 1
	leaves := block.SpruceLeaves.Default()
	for y := 0; y <= topSize; y++ {
		yy := pos[1] + treeHeight - y
		for x := pos[0] - radius; x <= pos[0]+radius; x++ {
			xOff := abs(x - pos[0])
			for z := pos[2] - radius; z <= pos[2]+radius; z++ {
				zOff := abs(z - pos[2])
				if xOff == radius && zOff == radius && radius > 0 {
					continue
				}
				if p := (cube.Pos{x, yy, z}); !v.Solid(p) {
					v.SetBlock(p, leaves)
				}
			}
		}

		if radius >= maxR {
			radius = minR
			minR = 1
			if maxR++; maxR > lr {
				maxR = lr
			}
		} else {
			radius++
		}
	}
}

// OakTree is a small tree with a round crown of oak leaves.
type OakTree struct{}

// Grow ...
func (OakTree) Grow(v ChunkView, pos cube.Pos, r rand.Source) {
	if !canGrow(v, pos, 7) {
		return
	}
	treeHeight := int(r.NextBoundedInt32(3)) + 4
	basicTop(v, pos, r, block.OakLeaves.Default(), treeHeight)
	trunk(v, pos, block.OakLog, treeHeight-1)
}

// BirchTree is a tree with a round crown of birch leaves. Super birch trees
// are five blocks taller.
type BirchTree struct {
	Super bool
}

// Grow ...
func (b BirchTree) Grow(v ChunkView, pos cube.Pos, r rand.Source) {
	if !canGrow(v, pos, 7) {
		return
	}
	treeHeight := int(r.NextBoundedInt32(3)) + 5
	if b.Super {
		treeHeight += 5
	}
	basicTop(v, pos, r, block.BirchLeaves.Default(), treeHeight)
	trunk(v, pos, block.BirchLog, treeHeight-1)
}

func basicTop(v ChunkView, pos cube.Pos, r rand.Source, leaves world.StateID, treeHeight int) {
	for yy := pos[1] - 3 + treeHeight; yy <= pos[1]+treeHeight; yy++ {
		yOff := yy - (pos[1] + treeHeight)
		mid := 1 - yOff/2
		for xx := pos[0] - mid; xx <= pos[0]+mid; xx++ {
			xOff := abs(xx - pos[0])
			for zz := pos[2] - mid; zz <= pos[2]+mid; zz++ {
				zOff := abs(zz - pos[2])
				if xOff == mid && zOff == mid && (yOff == 0 || r.NextBoundedInt32(2) == 0) {
					continue
				}
				if p := (cube.Pos{xx, yy, zz}); !v.Solid(p) {
					v.SetBlock(p, leaves)
				}
			}
		}
	}
}

func trunk(v ChunkView, pos cube.Pos, log *world.Block, trunkHeight int) {
	v.SetBlock(pos.Sub(cube.Pos{0, 1}), block.Dirt.Default())
	st := log.Default()
	for y := 0; y < trunkHeight; y++ {
		if p := pos.Add(cube.Pos{0, y}); overridable(v.Block(p)) {
			v.SetBlock(p, st)
		}
	}
}

// overridable reports if a tree may grow through the state passed.
func overridable(st world.StateID) bool {
	return st == 0 || block.OakLeaves.Has(st) || block.BirchLeaves.Has(st) || block.SpruceLeaves.Has(st)
}

func canGrow(v ChunkView, pos cube.Pos, treeHeight int) bool {
	radiusToCheck := 0
	for yy := 0; yy < treeHeight+3; yy++ {
		if yy == 1 || yy == treeHeight {
			radiusToCheck++
		}
		for xx := -radiusToCheck; xx <= radiusToCheck; xx++ {
			for zz := -radiusToCheck; zz <= radiusToCheck; zz++ {
				p := cube.Pos{pos[0] + xx, pos[1] + yy, pos[2] + zz}
				if v.Contains(p) && !overridable(v.Block(p)) {
					return false
				}
			}
		}
	}
	return true
}

func square(v float64) float64 {
	return v * v
}

func abs(a int) int {
	if a < 0 {
		return -a
	}
	return a
}
