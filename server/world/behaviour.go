package world

import "github.com/dm-vev/voxelcore/server/block/cube"

// Behaviour holds the functions that give a Block its behaviour in a World.
// All fields are optional: a nil function means the block does not do
// anything special for that event. Every function receives the World, the
// position of the block, the Block itself and its current state.
type Behaviour struct {
	// EmitsPower reports if the state is a source of redstone power.
	EmitsPower func(b *Block, st StateID) bool
	// WeakPower returns the weak redstone power the block emits towards a
	// block that queries it. face is the direction from the querying block
	// towards this block.
	WeakPower func(w *World, pos cube.Pos, b *Block, st StateID, face cube.Face) int
	// StrongPower returns the strong redstone power the block emits through
	// the face passed. Strong power is conducted through solid blocks.
	StrongPower func(w *World, pos cube.Pos, b *Block, st StateID, face cube.Face) int

	// PlacementState returns the state a block is placed with at pos. st is
	// the default state of the block.
	PlacementState func(w *World, pos cube.Pos, b *Block, st StateID) StateID
	// CanSurvive reports if the state may exist at pos. Blocks that can no
	// longer survive are broken when a neighbour changes.
	CanSurvive func(w *World, pos cube.Pos, b *Block, st StateID) bool

	// OnPlaced is called after the state at pos changed to a state of the
	// block. old is the state that was there before.
	OnPlaced func(w *World, pos cube.Pos, b *Block, st, old StateID, moved bool)
	// OnReplaced is called after a state of the block at pos was replaced by
	// the state next.
	OnReplaced func(w *World, pos cube.Pos, b *Block, st, next StateID, moved bool)

	// NeighbourChanged is called when the block at source changed and pos is
	// one of its neighbours.
	NeighbourChanged func(w *World, pos cube.Pos, b *Block, st StateID, source cube.Pos)
	// ShapeUpdate returns the new state of the block after the block at
	// source, which lies towards face, changed to sourceState.
	ShapeUpdate func(w *World, pos cube.Pos, b *Block, st StateID, face cube.Face, source cube.Pos, sourceState StateID) StateID
	// Prepare sends shape updates to blocks that are not direct neighbours,
	// such as the diagonal neighbours of redstone wire.
	Prepare func(w *World, pos cube.Pos, b *Block, st StateID, flags SetFlags, depth int)

	// ScheduledTick is called when a tick scheduled with World.ScheduleTick
	// for the block is due.
	ScheduledTick func(w *World, pos cube.Pos, b *Block, st StateID)
	// Use is called when the block is used. It returns true if the use had
	// an effect.
	Use func(w *World, pos cube.Pos, b *Block, st StateID) bool

	// SideSolid reports if the face of the state is a full solid square that
	// other blocks can rest on.
	SideSolid func(b *Block, st StateID, face cube.Face) bool
}

// SetFlags changes what happens when a block state is set in a World.
type SetFlags uint16

const (
	// NotifyNeighbours sends a neighbour update to the six blocks around the
	// changed position.
	NotifyNeighbours SetFlags = 1 << iota
	// NotifyListeners reports the change to the BlockListeners of the World.
	NotifyListeners
	// SkipShapeUpdate prevents neighbours from updating their shape.
	SkipShapeUpdate
	// SkipReplacedCallback prevents Behaviour.OnReplaced of the old block from
	// being called.
	SkipReplacedCallback
	// SkipPlacedCallback prevents Behaviour.OnPlaced of the new block from
	// being called.
	SkipPlacedCallback
	// Moved marks the change as the result of a block being moved rather
	// than placed or broken.
	Moved

	// NotifyAll is the combination of flags used for regular block changes.
	NotifyAll = NotifyNeighbours | NotifyListeners
)

// maxUpdateDepth limits how far shape updates recurse from a single change.
const maxUpdateDepth = 512
