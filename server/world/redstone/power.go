// Package redstone implements redstone power: the power queries every
// redstone component is built on, redstone wire with its shape rules, the
// repeater and observer diodes, and a chunk-sharded dispatcher that runs the
// neighbour updates of a World in parallel-safe rounds.
package redstone

import (
	"github.com/dm-vev/voxelcore/server/block/cube"
	"github.com/dm-vev/voxelcore/server/world"
)

// MaxPower is the highest redstone power level.
const MaxPower = 15

// Power returns the redstone power the block at pos emits towards a block
// that lies opposite of face. face is the direction from the receiving block
// towards pos. Solid blocks carry the strongest strong power they receive
// from any of their neighbours.
func Power(w *world.World, pos cube.Pos, face cube.Face) int {
	return power(w, pos, face, true)
}

// PowerNoDust returns the same as Power, except that redstone wire does not
// contribute power. Wire uses it to compute its own power so that it does not
// power itself through the blocks around it.
func PowerNoDust(w *world.World, pos cube.Pos, face cube.Face) int {
	return power(w, pos, face, false)
}

func power(w *world.World, pos cube.Pos, face cube.Face, dust bool) int {
	b, st := w.BlockAndState(pos)
	if b.Solid {
		return max(maxStrongPower(w, pos, dust), weakPower(w, pos, b, st, face, dust))
	}
	return weakPower(w, pos, b, st, face, dust)
}

// WeakPower returns the weak power the block at pos emits through face.
func WeakPower(w *world.World, pos cube.Pos, face cube.Face) int {
	b, st := w.BlockAndState(pos)
	return weakPower(w, pos, b, st, face, true)
}

// StrongPower returns the strong power the block at pos emits through face.
func StrongPower(w *world.World, pos cube.Pos, face cube.Face) int {
	b, st := w.BlockAndState(pos)
	return strongPower(w, pos, b, st, face, true)
}

func weakPower(w *world.World, pos cube.Pos, b *world.Block, st world.StateID, face cube.Face, dust bool) int {
	if (!dust && b == Wire) || b.Behaviour.WeakPower == nil {
		return 0
	}
	return b.Behaviour.WeakPower(w, pos, b, st, face)
}

func strongPower(w *world.World, pos cube.Pos, b *world.Block, st world.StateID, face cube.Face, dust bool) int {
	if (!dust && b == Wire) || b.Behaviour.StrongPower == nil {
		return 0
	}
	return b.Behaviour.StrongPower(w, pos, b, st, face)
}

func maxStrongPower(w *world.World, pos cube.Pos, dust bool) int {
	p := 0
	for _, face := range cube.Faces() {
		n := pos.Side(face)
		b, st := w.BlockAndState(n)
		p = max(p, strongPower(w, n, b, st, face, dust))
	}
	return p
}

func maxWeakPower(w *world.World, pos cube.Pos, dust bool) int {
	p := 0
	for _, face := range cube.Faces() {
		n := pos.Side(face)
		b, st := w.BlockAndState(n)
		p = max(p, weakPower(w, n, b, st, face, dust))
	}
	return p
}

// EmitsPower reports if the state is a source of redstone power, such as a
// lever or a redstone torch.
func EmitsPower(b *world.Block, st world.StateID) bool {
	return b.Behaviour.EmitsPower != nil && b.Behaviour.EmitsPower(b, st)
}

// Emitting reports if the block at pos emits any power through face.
func Emitting(w *world.World, pos cube.Pos, face cube.Face) bool {
	return Power(w, pos, face) > 0
}

// ReceivesPower reports if any of the six blocks around pos powers it.
func ReceivesPower(w *world.World, pos cube.Pos) bool {
	for _, face := range cube.Faces() {
		if Emitting(w, pos.Side(face), face) {
			return true
		}
	}
	return false
}

// ReceivedPower returns the highest power any of the six blocks around pos
// powers it with.
func ReceivedPower(w *world.World, pos cube.Pos) int {
	p := 0
	for _, face := range cube.Faces() {
		p = max(p, Power(w, pos.Side(face), face))
		if p >= MaxPower {
			break
		}
	}
	return p
}

// UpdateWireNeighbours sends a neighbour update to the six blocks around pos
// and to the six blocks around each of those. Wire changes reach blocks two
// steps away this way, such as the block below a wire on a solid block.
func UpdateWireNeighbours(w *world.World, pos cube.Pos) {
	for _, face := range cube.Faces() {
		n := pos.Side(face)
		w.UpdateNeighbour(n, pos)
		for _, nface := range cube.Faces() {
			w.UpdateNeighbour(n.Side(nface), n)
		}
	}
}

// supported reports if the block at pos has a block below it with a solid
// top face.
func supported(w *world.World, pos cube.Pos) bool {
	return w.SideSolid(pos.Side(cube.FaceDown), cube.FaceUp)
}
