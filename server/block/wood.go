package block

import (
	"github.com/dm-vev/voxelcore/server/block/cube"
	"github.com/dm-vev/voxelcore/server/world"
)

// Logs, leaves and plants placed by tree and grass populators.
var (
	OakLog    = logBlock("minecraft:oak_log")
	SpruceLog = logBlock("minecraft:spruce_log")
	BirchLog  = logBlock("minecraft:birch_log")

	OakLeaves    = leavesBlock("minecraft:oak_leaves")
	SpruceLeaves = leavesBlock("minecraft:spruce_leaves")
	BirchLeaves  = leavesBlock("minecraft:birch_leaves")

	// ShortGrass is a plant that grows on grass and is replaced by anything
	// placed at its position.
	ShortGrass = &world.Block{Name: "minecraft:short_grass", Replaceable: true}
)

func init() {
	ShortGrass.Behaviour = world.Behaviour{CanSurvive: plantSurvives}
}

func logBlock(name string) *world.Block {
	return &world.Block{
		Name:     name,
		Props:    []world.Property{world.EnumProperty("axis", "x", "y", "z")},
		Defaults: map[string]string{"axis": "y"},
		Solid:    true,
	}
}

func leavesBlock(name string) *world.Block {
	return &world.Block{
		Name:      name,
		Props:     []world.Property{world.IntProperty("distance", 1, 7), world.BoolProperty("persistent")},
		Behaviour: world.Behaviour{SideSolid: fullFace},
	}
}

// LogState returns the state of a log with its axis along the axis passed.
func LogState(b *world.Block, axis cube.Axis) world.StateID {
	return b.With(b.Default(), "axis", axis.String())
}

// plantSurvives reports if the block below pos can hold a plant.
func plantSurvives(w *world.World, pos cube.Pos, _ *world.Block, _ world.StateID) bool {
	switch w.Block(pos.Side(cube.FaceDown)) {
	case GrassBlock, Dirt, Podzol, Mycelium:
		return true
	}
	return false
}
