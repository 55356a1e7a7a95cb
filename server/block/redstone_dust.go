package block

import (
	"github.com/dm-vev/voxelcore/server/block/cube"
	"github.com/dm-vev/voxelcore/server/world"
	"github.com/dm-vev/voxelcore/server/world/redstone"
)

// RedstoneBlock is a full block that powers everything around it. It does
// not conduct power from other sources.
var RedstoneBlock = &world.Block{
	Name: "minecraft:redstone_block",
	Behaviour: world.Behaviour{
		EmitsPower: func(*world.Block, world.StateID) bool { return true },
		WeakPower: func(*world.World, cube.Pos, *world.Block, world.StateID, cube.Face) int {
			return redstone.MaxPower
		},
		SideSolid: fullFace,
	},
}

// RedstoneDust returns the state redstone wire is placed with. The wire
// adjusts its shape and power to its surroundings when placed with
// World.Place.
func RedstoneDust() world.StateID {
	return redstone.Wire.Default()
}

// DustPower returns the power of the redstone wire at pos, or -1 if there is
// no wire at pos.
func DustPower(w *world.World, pos cube.Pos) int {
	b, st := w.BlockAndState(pos)
	if b != redstone.Wire {
		return -1
	}
	return redstone.WireStateOf(st).Power
}
