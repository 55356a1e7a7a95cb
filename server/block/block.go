// Package block defines the blocks of the server and the Registry they are
// registered with.
package block

import (
	"sync"

	"github.com/dm-vev/voxelcore/server/block/cube"
	"github.com/dm-vev/voxelcore/server/world"
	"github.com/dm-vev/voxelcore/server/world/redstone"
)

var (
	registryOnce sync.Once
	registry     *world.Registry
)

// Registry returns the finalised Registry holding all blocks returned by All.
// The Registry is created on the first call and shared by all worlds.
func Registry() *world.Registry {
	registryOnce.Do(func() {
		registry = world.NewRegistry()
		registry.Register(All()...)
		registry.Finalise()
	})
	return registry
}

// All returns all blocks of the package, in the order they are registered.
// Air is not included, as every Registry already holds it.
func All() []*world.Block {
	return []*world.Block{
		Stone, Dirt, GrassBlock, Gravel, Mycelium, Podzol, Sand, RedSand, Sandstone, Terracotta, SnowBlock,
		Bedrock, Water, Glass,
		OakLog, SpruceLog, BirchLog, OakLeaves, SpruceLeaves, BirchLeaves, ShortGrass,
		CoalOre, IronOre, GoldOre, DiamondOre, RedstoneOre,
		RedstoneBlock, Lever, RedstoneTorch, RedstoneWallTorch, RedstoneLamp,
		redstone.Wire, redstone.Repeater, redstone.Observer,
	}
}

// solid returns a full, opaque block without any behaviour.
func solid(name string) *world.Block {
	return &world.Block{Name: name, Solid: true}
}

// fullFace reports true for every face. It is used by blocks that are full
// cubes but do not conduct redstone power.
func fullFace(*world.Block, world.StateID, cube.Face) bool {
	return true
}

// supportedBy reports if the block at pos rests on a solid face of the block
// on the opposite side of attached.
func supportedBy(w *world.World, pos cube.Pos, attached cube.Face) bool {
	return w.SideSolid(pos.Side(attached.Opposite()), attached)
}
