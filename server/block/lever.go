package block

import (
	"github.com/dm-vev/voxelcore/server/block/cube"
	"github.com/dm-vev/voxelcore/server/world"
	"github.com/dm-vev/voxelcore/server/world/redstone"
)

// Lever is an interactable block that acts as a persistent redstone power
// source. It powers the block it is attached to strongly.
var Lever = &world.Block{
	Name: "minecraft:lever",
	Props: []world.Property{
		world.EnumProperty("face", "floor", "wall", "ceiling"),
		world.EnumProperty("facing", "north", "south", "west", "east"),
		world.BoolProperty("powered"),
	},
	Defaults: map[string]string{"face": "wall"},
}

func init() {
	Lever.Behaviour = world.Behaviour{
		EmitsPower: func(*world.Block, world.StateID) bool { return true },
		WeakPower: func(_ *world.World, _ cube.Pos, b *world.Block, st world.StateID, _ cube.Face) int {
			if b.Bool(st, "powered") {
				return redstone.MaxPower
			}
			return 0
		},
		StrongPower: func(_ *world.World, _ cube.Pos, b *world.Block, st world.StateID, face cube.Face) int {
			if b.Bool(st, "powered") && leverAttachedFace(st) == face {
				return redstone.MaxPower
			}
			return 0
		},
		CanSurvive: func(w *world.World, pos cube.Pos, _ *world.Block, st world.StateID) bool {
			return supportedBy(w, pos, leverAttachedFace(st))
		},
		ShapeUpdate: func(w *world.World, pos cube.Pos, _ *world.Block, st world.StateID, face cube.Face, _ cube.Pos, _ world.StateID) world.StateID {
			if attached := leverAttachedFace(st); face == attached.Opposite() && !supportedBy(w, pos, attached) {
				return 0
			}
			return st
		},
		OnReplaced: func(w *world.World, pos cube.Pos, b *world.Block, st, next world.StateID, moved bool) {
			if !moved && !b.Has(next) && b.Bool(st, "powered") {
				updateLeverNeighbours(w, pos, st)
			}
		},
		Use: func(w *world.World, pos cube.Pos, b *world.Block, st world.StateID) bool {
			st = b.WithBool(st, "powered", !b.Bool(st, "powered"))
			w.SetBlockState(pos, st, world.NotifyAll)
			updateLeverNeighbours(w, pos, st)
			return true
		},
	}
}

// LeverState returns the state of an unpowered lever attached to the face
// passed of the block it rests on. Levers on the floor or the ceiling point
// towards facing.
func LeverState(face cube.Face, facing cube.Direction) world.StateID {
	st := Lever.Default()
	switch face {
	case cube.FaceUp:
		st = Lever.With(st, "face", "floor")
	case cube.FaceDown:
		st = Lever.With(st, "face", "ceiling")
	default:
		st = Lever.With(st, "face", "wall")
		facing = face.Direction()
	}
	return Lever.With(st, "facing", facing.String())
}

// leverAttachedFace returns the face of the supporting block the lever is
// attached to.
func leverAttachedFace(st world.StateID) cube.Face {
	switch Lever.Value(st, "face") {
	case "floor":
		return cube.FaceUp
	case "ceiling":
		return cube.FaceDown
	}
	d, _ := cube.DirectionByName(Lever.Value(st, "facing"))
	return d.Face()
}

// updateLeverNeighbours updates the blocks around the lever and around the
// block it is attached to.
func updateLeverNeighbours(w *world.World, pos cube.Pos, st world.StateID) {
	w.UpdateNeighbours(pos)
	w.UpdateNeighbours(pos.Side(leverAttachedFace(st).Opposite()))
}
