package redstone

import (
	"github.com/dm-vev/voxelcore/server/block/cube"
	"github.com/dm-vev/voxelcore/server/world"
)

// Side is the way redstone wire connects towards one horizontal direction.
type Side uint8

const (
	// SideNone means the wire does not connect towards the direction.
	SideNone Side = iota
	// SideSide means the wire runs flat towards the direction, or down the
	// side of the neighbouring block.
	SideSide
	// SideUp means the wire climbs up the side of the neighbouring block.
	SideUp
)

// String returns the property value of the Side.
func (s Side) String() string {
	switch s {
	case SideSide:
		return "side"
	case SideUp:
		return "up"
	}
	return "none"
}

// Connected reports if the Side is anything other than SideNone.
func (s Side) Connected() bool {
	return s != SideNone
}

func parseSide(v string) Side {
	switch v {
	case "side":
		return SideSide
	case "up":
		return SideUp
	}
	return SideNone
}

// Wire is redstone wire, also known as redstone dust. It carries power from
// sources to components, losing one level of power per block.
var Wire = &world.Block{
	Name: "minecraft:redstone_wire",
	Props: []world.Property{
		world.EnumProperty("east", "up", "side", "none"),
		world.EnumProperty("north", "up", "side", "none"),
		world.IntProperty("power", 0, MaxPower),
		world.EnumProperty("south", "up", "side", "none"),
		world.EnumProperty("west", "up", "side", "none"),
	},
	Defaults: map[string]string{"east": "none", "north": "none", "south": "none", "west": "none"},
}

func init() {
	Wire.Behaviour = world.Behaviour{
		EmitsPower:       func(*world.Block, world.StateID) bool { return true },
		WeakPower:        wirePower,
		StrongPower:      wirePower,
		PlacementState:   wirePlacementState,
		CanSurvive:       func(w *world.World, pos cube.Pos, _ *world.Block, _ world.StateID) bool { return supported(w, pos) },
		OnPlaced:         wirePlaced,
		OnReplaced:       wireReplaced,
		NeighbourChanged: wireNeighbourChanged,
		ShapeUpdate:      wireShapeUpdate,
		Prepare:          wirePrepare,
		Use:              wireUse,
	}
}

// sideProps holds the property names of the sides of a wire, indexed by
// cube.Direction.
var sideProps = [4]string{"north", "south", "west", "east"}

// WireState is the decoded state of a redstone wire.
type WireState struct {
	// Sides holds the connection towards every horizontal direction, indexed
	// by cube.Direction.
	Sides [4]Side
	// Power is the power level of the wire, from 0 to 15.
	Power int
}

// WireStateOf decodes the state passed, which must be a state of Wire.
func WireStateOf(st world.StateID) WireState {
	var s WireState
	for d, name := range sideProps {
		s.Sides[d] = parseSide(Wire.Value(st, name))
	}
	s.Power = Wire.Int(st, "power")
	return s
}

// StateID encodes the WireState into a state of Wire.
func (s WireState) StateID() world.StateID {
	st := Wire.Default()
	for d, name := range sideProps {
		st = Wire.With(st, name, s.Sides[d].String())
	}
	return Wire.WithInt(st, "power", s.Power)
}

// Side returns the connection of the wire towards d.
func (s WireState) Side(d cube.Direction) Side {
	return s.Sides[d]
}

// Dot reports if the wire connects to none of its sides.
func (s WireState) Dot() bool {
	return s.Sides == [4]Side{}
}

// Cross reports if the wire runs flat towards all four of its sides.
func (s WireState) Cross() bool {
	return s.Sides == [4]Side{SideSide, SideSide, SideSide, SideSide}
}

// MakeCross returns a wire running flat towards all four sides with the power
// passed.
func MakeCross(power int) WireState {
	return WireState{Sides: [4]Side{SideSide, SideSide, SideSide, SideSide}, Power: power}
}

// connectsTo reports if wire connects to the block state passed that lies
// towards face.
func connectsTo(b *world.Block, st world.StateID, face cube.Face) bool {
	switch b {
	case Wire:
		return true
	case Repeater:
		facing := repeaterFacing(st).Face()
		return facing == face || facing == face.Opposite()
	case Observer:
		return observerFacing(st) == face
	}
	return EmitsPower(b, st)
}

// SideOf computes the connection of the wire at pos towards d from the blocks
// around it.
func SideOf(w *world.World, pos cube.Pos, d cube.Direction) Side {
	n := pos.Side(d.Face())
	b, st := w.BlockAndState(n)
	if connectsTo(b, st, d.Face()) {
		return SideSide
	}
	if !w.Solid(pos.Side(cube.FaceUp)) && w.Block(n.Side(cube.FaceUp)) == Wire {
		return SideUp
	}
	if !b.Solid && w.Block(n.Side(cube.FaceDown)) == Wire {
		return SideSide
	}
	return SideNone
}

// RegulatedSides recomputes the sides of the wire at pos and returns s with
// those sides. A wire that connects to only one axis is extended to run
// along that whole axis. A dot stays a dot if none of its sides connect.
func RegulatedSides(w *world.World, pos cube.Pos, s WireState) WireState {
	next := s
	for _, d := range cube.Directions() {
		next.Sides[d] = SideOf(w, pos, d)
	}
	if s.Dot() && next.Dot() {
		return next
	}
	nsNone := !next.Sides[cube.North].Connected() && !next.Sides[cube.South].Connected()
	weNone := !next.Sides[cube.West].Connected() && !next.Sides[cube.East].Connected()
	for _, d := range cube.Directions() {
		if next.Sides[d].Connected() {
			continue
		}
		if ns := d == cube.North || d == cube.South; ns && weNone || !ns && nsNone {
			next.Sides[d] = SideSide
		}
	}
	return next
}

// CalculatePower returns the power the wire at pos should have: the power of
// the strongest non-wire source around it, or the power of the strongest
// connected wire minus one, whichever is higher.
func CalculatePower(w *world.World, pos cube.Pos) int {
	wirePower, blockPower := 0, 0
	upSolid := w.Solid(pos.Side(cube.FaceUp))
	for _, face := range cube.Faces() {
		n := pos.Side(face)
		b, st := w.BlockAndState(n)
		wirePower = max(wirePower, powerOfWire(b, st))
		blockPower = max(blockPower, PowerNoDust(w, n, face))
		if !face.Horizontal() {
			continue
		}
		if !upSolid {
			wirePower = max(wirePower, powerOfWire(w.BlockAndState(n.Side(cube.FaceUp))))
		}
		if !b.Solid {
			wirePower = max(wirePower, powerOfWire(w.BlockAndState(n.Side(cube.FaceDown))))
		}
	}
	return max(blockPower, wirePower-1)
}

func powerOfWire(b *world.Block, st world.StateID) int {
	if b != Wire {
		return 0
	}
	return Wire.Int(st, "power")
}

// wirePower returns the power of the wire towards a block that queries it
// from the direction opposite of face. Wire powers the block below it and
// the blocks it connects to.
func wirePower(_ *world.World, _ cube.Pos, _ *world.Block, st world.StateID, face cube.Face) int {
	s := WireStateOf(st)
	if face == cube.FaceUp || (face.Horizontal() && s.Side(face.Opposite().Direction()).Connected()) {
		return s.Power
	}
	return 0
}

func wirePlacementState(w *world.World, pos cube.Pos, _ *world.Block, _ world.StateID) world.StateID {
	s := RegulatedSides(w, pos, WireState{Power: CalculatePower(w, pos)})
	if s.Dot() {
		s = MakeCross(s.Power)
	}
	return s.StateID()
}

func wirePlaced(w *world.World, pos cube.Pos, _ *world.Block, _, old world.StateID, _ bool) {
	if !Wire.Has(old) {
		UpdateWireNeighbours(w, pos)
	}
}

func wireReplaced(w *world.World, pos cube.Pos, _ *world.Block, _, next world.StateID, moved bool) {
	if !moved && !Wire.Has(next) {
		UpdateWireNeighbours(w, pos)
	}
}

func wireNeighbourChanged(w *world.World, pos cube.Pos, _ *world.Block, st world.StateID, _ cube.Pos) {
	if !supported(w, pos) {
		w.Break(pos)
		return
	}
	s := WireStateOf(st)
	p := CalculatePower(w, pos)
	if p == s.Power {
		return
	}
	if CurrentPropagation() == PropagationTurbo {
		settleNetwork(w, pos)
		return
	}
	s.Power = p
	w.SetBlockState(pos, s.StateID(), world.NotifyListeners)
	UpdateWireNeighbours(w, pos)
}

func wireShapeUpdate(w *world.World, pos cube.Pos, _ *world.Block, st world.StateID, face cube.Face, _ cube.Pos, _ world.StateID) world.StateID {
	old := WireStateOf(st)
	switch face {
	case cube.FaceUp:
		return st
	case cube.FaceDown:
		return RegulatedSides(w, pos, old).StateID()
	}
	d := face.Direction()
	s := old
	s.Sides[d] = SideOf(w, pos, d)
	newSide := s.Sides[d]

	s = RegulatedSides(w, pos, s)
	if old.Cross() && !newSide.Connected() {
		return s.StateID()
	}
	if !old.Dot() && s.Dot() {
		s = MakeCross(s.Power)
	}
	return s.StateID()
}

// wirePrepare updates the shape of wires diagonally above and below the wire
// at pos, towards every side it connects to.
func wirePrepare(w *world.World, pos cube.Pos, _ *world.Block, st world.StateID, flags world.SetFlags, depth int) {
	s := WireStateOf(st)
	for _, d := range cube.Directions() {
		n := pos.Side(d.Face())
		if !s.Side(d).Connected() || w.Block(n) == Wire {
			continue
		}
		for _, vertical := range [2]cube.Face{cube.FaceUp, cube.FaceDown} {
			if diag := n.Side(vertical); w.Block(diag) == Wire {
				w.UpdateShape(diag, d.Face().Opposite(), n, flags, depth)
			}
		}
	}
}

// wireUse switches a wire between a dot and a cross. Wires that connect to
// other blocks cannot be switched.
func wireUse(w *world.World, pos cube.Pos, _ *world.Block, st world.StateID) bool {
	s := WireStateOf(st)
	if !s.Cross() && !s.Dot() {
		return false
	}
	next := MakeCross(s.Power)
	if s.Cross() {
		next = WireState{Power: s.Power}
	}
	next = RegulatedSides(w, pos, next)
	if next == s {
		return false
	}
	w.SetBlockState(pos, next.StateID(), world.NotifyListeners)
	UpdateWireNeighbours(w, pos)
	return true
}
