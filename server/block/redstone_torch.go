package block

import (
	"github.com/dm-vev/voxelcore/server/block/cube"
	"github.com/dm-vev/voxelcore/server/world"
	"github.com/dm-vev/voxelcore/server/world/redstone"
)

// RedstoneTorch is a redstone power source standing on top of a block. It
// turns off while the block it stands on is powered, and strongly powers the
// block above it.
var RedstoneTorch = &world.Block{
	Name:     "minecraft:redstone_torch",
	Props:    []world.Property{world.BoolProperty("lit")},
	Defaults: map[string]string{"lit": "true"},
}

// RedstoneWallTorch is a RedstoneTorch attached to the side of a block. It
// faces away from the block it is attached to.
var RedstoneWallTorch = &world.Block{
	Name: "minecraft:redstone_wall_torch",
	Props: []world.Property{
		world.EnumProperty("facing", "north", "south", "west", "east"),
		world.BoolProperty("lit"),
	},
	Defaults: map[string]string{"lit": "true"},
}

func init() {
	RedstoneTorch.Behaviour = torchBehaviour()
	RedstoneWallTorch.Behaviour = torchBehaviour()
}

// WallTorchState returns the state of a lit wall torch facing towards facing.
func WallTorchState(facing cube.Direction) world.StateID {
	return RedstoneWallTorch.With(RedstoneWallTorch.Default(), "facing", facing.String())
}

func torchBehaviour() world.Behaviour {
	return world.Behaviour{
		EmitsPower: func(*world.Block, world.StateID) bool { return true },
		WeakPower:  torchPower,
		StrongPower: func(w *world.World, pos cube.Pos, b *world.Block, st world.StateID, face cube.Face) int {
			if face != cube.FaceDown {
				return 0
			}
			return torchPower(w, pos, b, st, face)
		},
		CanSurvive: func(w *world.World, pos cube.Pos, b *world.Block, st world.StateID) bool {
			return supportedBy(w, pos, torchAttachedFace(b, st))
		},
		ShapeUpdate: func(w *world.World, pos cube.Pos, b *world.Block, st world.StateID, face cube.Face, _ cube.Pos, _ world.StateID) world.StateID {
			if attached := torchAttachedFace(b, st); face == attached.Opposite() && !supportedBy(w, pos, attached) {
				return 0
			}
			return st
		},
		OnPlaced: func(w *world.World, pos cube.Pos, _ *world.Block, _, _ world.StateID, _ bool) {
			updateTorchNeighbours(w, pos)
		},
		OnReplaced: func(w *world.World, pos cube.Pos, _ *world.Block, _, _ world.StateID, moved bool) {
			if !moved {
				updateTorchNeighbours(w, pos)
			}
		},
		NeighbourChanged: func(w *world.World, pos cube.Pos, b *world.Block, st world.StateID, _ cube.Pos) {
			if b.Bool(st, "lit") == torchUnpowered(w, pos, b, st) && !w.TickScheduled(pos, b) {
				w.ScheduleTick(pos, b, 2)
			}
		},
		ScheduledTick: func(w *world.World, pos cube.Pos, b *world.Block, st world.StateID) {
			lit, off := b.Bool(st, "lit"), torchUnpowered(w, pos, b, st)
			switch {
			case lit && off:
				w.SetBlockState(pos, b.WithBool(st, "lit", false), world.NotifyAll)
			case !lit && !off:
				w.SetBlockState(pos, b.WithBool(st, "lit", true), world.NotifyAll)
			}
		},
	}
}

// torchAttachedFace returns the face of the supporting block the torch is
// attached to.
func torchAttachedFace(b *world.Block, st world.StateID) cube.Face {
	if b == RedstoneWallTorch {
		d, _ := cube.DirectionByName(b.Value(st, "facing"))
		return d.Face()
	}
	return cube.FaceUp
}

// torchPower returns the power of a torch towards every block except the one
// it is attached to.
func torchPower(_ *world.World, _ cube.Pos, b *world.Block, st world.StateID, face cube.Face) int {
	if b.Bool(st, "lit") && face != torchAttachedFace(b, st) {
		return redstone.MaxPower
	}
	return 0
}

// torchUnpowered reports if the block the torch is attached to is powered,
// which turns the torch off.
func torchUnpowered(w *world.World, pos cube.Pos, b *world.Block, st world.StateID) bool {
	towards := torchAttachedFace(b, st).Opposite()
	return redstone.Emitting(w, pos.Side(towards), towards)
}

func updateTorchNeighbours(w *world.World, pos cube.Pos) {
	for _, face := range cube.Faces() {
		w.UpdateNeighbours(pos.Side(face))
	}
}
