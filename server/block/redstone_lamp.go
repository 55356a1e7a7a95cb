package block

import (
	"github.com/dm-vev/voxelcore/server/block/cube"
	"github.com/dm-vev/voxelcore/server/world"
	"github.com/dm-vev/voxelcore/server/world/redstone"
)

// RedstoneLamp is a light-emitting block that toggles based on redstone
// power. It turns on as soon as it is powered and turns off four ticks after
// it lost power.
var RedstoneLamp = &world.Block{
	Name:  "minecraft:redstone_lamp",
	Props: []world.Property{world.BoolProperty("lit")},
	Solid: true,
}

func init() {
	RedstoneLamp.Behaviour = world.Behaviour{
		PlacementState: func(w *world.World, pos cube.Pos, b *world.Block, st world.StateID) world.StateID {
			return b.WithBool(st, "lit", redstone.ReceivesPower(w, pos))
		},
		NeighbourChanged: func(w *world.World, pos cube.Pos, b *world.Block, st world.StateID, _ cube.Pos) {
			lit, powered := b.Bool(st, "lit"), redstone.ReceivesPower(w, pos)
			if lit == powered {
				return
			}
			if lit {
				w.ScheduleTick(pos, b, 4)
				return
			}
			w.SetBlockState(pos, b.WithBool(st, "lit", true), world.NotifyListeners)
		},
		ScheduledTick: func(w *world.World, pos cube.Pos, b *world.Block, st world.StateID) {
			if b.Bool(st, "lit") && !redstone.ReceivesPower(w, pos) {
				w.SetBlockState(pos, b.WithBool(st, "lit", false), world.NotifyListeners)
			}
		},
	}
}

// LightEmissionLevel returns the light level of the lamp state passed.
func LightEmissionLevel(st world.StateID) uint8 {
	if RedstoneLamp.Has(st) && RedstoneLamp.Bool(st, "lit") {
		return 15
	}
	return 0
}
