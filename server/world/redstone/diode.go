package redstone

import (
	"github.com/dm-vev/voxelcore/server/block/cube"
	"github.com/dm-vev/voxelcore/server/world"
)

// Repeater is a redstone repeater. It takes power from the block it faces and
// emits full power out of its back after a delay of one to four redstone
// ticks. A repeater powered from the side by another diode is locked and
// keeps its output.
var Repeater = &world.Block{
	Name: "minecraft:repeater",
	Props: []world.Property{
		world.IntProperty("delay", 1, 4),
		world.EnumProperty("facing", "north", "south", "west", "east"),
		world.BoolProperty("locked"),
		world.BoolProperty("powered"),
	},
}

// Observer emits a short pulse out of its back when the block it faces
// changes.
var Observer = &world.Block{
	Name: "minecraft:observer",
	Props: []world.Property{
		world.EnumProperty("facing", "north", "east", "south", "west", "up", "down"),
		world.BoolProperty("powered"),
	},
	Defaults: map[string]string{"facing": "south"},
}

func init() {
	Repeater.Behaviour = world.Behaviour{
		EmitsPower:       func(*world.Block, world.StateID) bool { return true },
		WeakPower:        repeaterPower,
		StrongPower:      repeaterPower,
		PlacementState:   repeaterPlacementState,
		CanSurvive:       func(w *world.World, pos cube.Pos, _ *world.Block, _ world.StateID) bool { return supported(w, pos) },
		OnPlaced:         repeaterPlaced,
		OnReplaced:       repeaterReplaced,
		NeighbourChanged: repeaterNeighbourChanged,
		ShapeUpdate:      repeaterShapeUpdate,
		ScheduledTick:    repeaterTick,
		Use:              repeaterUse,
	}
	Observer.Behaviour = world.Behaviour{
		EmitsPower:    func(*world.Block, world.StateID) bool { return true },
		WeakPower:     observerPower,
		StrongPower:   observerPower,
		OnPlaced:      observerPlaced,
		OnReplaced:    observerReplaced,
		ShapeUpdate:   observerShapeUpdate,
		ScheduledTick: observerTick,
		SideSolid:     func(*world.Block, world.StateID, cube.Face) bool { return true },
	}
}

// IsDiode reports if the block is a diode: a component that only takes input
// from one side and only outputs towards the opposite side.
func IsDiode(b *world.Block) bool {
	return b == Repeater
}

// DiodeInputStrength returns the power a diode at pos facing towards facing
// receives. A solid input block that is not powered itself passes on the
// highest weak power around it.
func DiodeInputStrength(w *world.World, pos cube.Pos, facing cube.Direction) int {
	input := pos.Side(facing.Face())
	p := Power(w, input, facing.Face())
	if p == 0 && w.Solid(input) {
		return maxWeakPower(w, input, true)
	}
	return p
}

func repeaterFacing(st world.StateID) cube.Direction {
	d, _ := cube.DirectionByName(Repeater.Value(st, "facing"))
	return d
}

func observerFacing(st world.StateID) cube.Face {
	f, _ := cube.FaceByName(Observer.Value(st, "facing"))
	return f
}

// RepeaterState returns the state of a repeater facing towards its input at
// facing with the delay passed.
func RepeaterState(facing cube.Direction, delay int) world.StateID {
	return Repeater.WithInt(Repeater.With(Repeater.Default(), "facing", facing.String()), "delay", delay)
}

// ObserverState returns the state of an observer watching the block towards
// facing.
func ObserverState(facing cube.Face) world.StateID {
	return Observer.With(Observer.Default(), "facing", facing.String())
}

func repeaterPower(_ *world.World, _ cube.Pos, b *world.Block, st world.StateID, face cube.Face) int {
	if b.Bool(st, "powered") && repeaterFacing(st).Face() == face {
		return MaxPower
	}
	return 0
}

// repeaterLocked reports if a diode powers the repeater at pos from one of its
// sides.
func repeaterLocked(w *world.World, pos cube.Pos, st world.StateID) bool {
	facing := repeaterFacing(st)
	for _, side := range [2]cube.Direction{facing.RotateRight(), facing.RotateLeft()} {
		n := pos.Side(side.Face())
		if IsDiode(w.Block(n)) && StrongPower(w, n, side.Face()) > 0 {
			return true
		}
	}
	return false
}

func repeaterShouldPower(w *world.World, pos cube.Pos, st world.StateID) bool {
	return DiodeInputStrength(w, pos, repeaterFacing(st)) > 0
}

func repeaterDelay(st world.StateID) int64 {
	return int64(Repeater.Int(st, "delay")) * 2
}

// repeaterUpdateTarget updates the block the repeater at pos outputs into and
// the blocks around that block.
func repeaterUpdateTarget(w *world.World, pos cube.Pos, st world.StateID) {
	out := repeaterFacing(st).Opposite().Face()
	target := pos.Side(out)
	w.UpdateNeighbour(target, pos)
	w.UpdateNeighboursExcept(target, out.Opposite())
}

func repeaterPlacementState(w *world.World, pos cube.Pos, _ *world.Block, st world.StateID) world.StateID {
	return Repeater.WithBool(st, "locked", repeaterLocked(w, pos, st))
}

func repeaterPlaced(w *world.World, pos cube.Pos, _ *world.Block, st, old world.StateID, _ bool) {
	repeaterUpdateTarget(w, pos, st)
	if !Repeater.Has(old) && repeaterShouldPower(w, pos, st) != Repeater.Bool(st, "powered") {
		w.ScheduleTick(pos, Repeater, 1)
	}
}

func repeaterReplaced(w *world.World, pos cube.Pos, _ *world.Block, st, next world.StateID, moved bool) {
	if !moved && !Repeater.Has(next) {
		repeaterUpdateTarget(w, pos, st)
	}
}

func repeaterNeighbourChanged(w *world.World, pos cube.Pos, _ *world.Block, st world.StateID, _ cube.Pos) {
	if !supported(w, pos) {
		w.Break(pos)
		return
	}
	if repeaterLocked(w, pos, st) {
		return
	}
	if repeaterShouldPower(w, pos, st) != Repeater.Bool(st, "powered") && !w.TickScheduled(pos, Repeater) {
		w.ScheduleTick(pos, Repeater, repeaterDelay(st))
	}
}

func repeaterShapeUpdate(w *world.World, pos cube.Pos, _ *world.Block, st world.StateID, face cube.Face, _ cube.Pos, _ world.StateID) world.StateID {
	if face == cube.FaceDown && !supported(w, pos) {
		return 0
	}
	if face.Axis() != repeaterFacing(st).Face().Axis() {
		return Repeater.WithBool(st, "locked", repeaterLocked(w, pos, st))
	}
	return st
}

func repeaterTick(w *world.World, pos cube.Pos, _ *world.Block, st world.StateID) {
	if repeaterLocked(w, pos, st) {
		return
	}
	powered, should := Repeater.Bool(st, "powered"), repeaterShouldPower(w, pos, st)
	switch {
	case powered && !should:
		w.SetBlockState(pos, Repeater.WithBool(st, "powered", false), world.NotifyListeners)
	case !powered:
		w.SetBlockState(pos, Repeater.WithBool(st, "powered", true), world.NotifyListeners)
		if !should {
			// The input went off before the repeater turned on: still emit a
			// pulse of the full delay.
			w.ScheduleTick(pos, Repeater, repeaterDelay(st))
		}
	}
}

// repeaterUse cycles the delay of the repeater from one to four.
func repeaterUse(w *world.World, pos cube.Pos, _ *world.Block, st world.StateID) bool {
	return w.SetBlockState(pos, Repeater.WithInt(st, "delay", Repeater.Int(st, "delay")%4+1), world.NotifyAll)
}

func observerPower(_ *world.World, _ cube.Pos, b *world.Block, st world.StateID, face cube.Face) int {
	if b.Bool(st, "powered") && observerFacing(st) == face {
		return MaxPower
	}
	return 0
}

// observerUpdateTarget updates the block behind the observer at pos and the
// blocks around it.
func observerUpdateTarget(w *world.World, pos cube.Pos, st world.StateID) {
	out := observerFacing(st).Opposite()
	target := pos.Side(out)
	w.UpdateNeighbour(target, pos)
	w.UpdateNeighboursExcept(target, out.Opposite())
}

func observerPlaced(w *world.World, pos cube.Pos, _ *world.Block, st, old world.StateID, _ bool) {
	if Observer.Has(old) || !Observer.Bool(st, "powered") || w.TickScheduled(pos, Observer) {
		return
	}
	st = Observer.WithBool(st, "powered", false)
	w.SetBlockState(pos, st, world.NotifyListeners|world.SkipShapeUpdate)
	observerUpdateTarget(w, pos, st)
}

func observerReplaced(w *world.World, pos cube.Pos, _ *world.Block, st, next world.StateID, _ bool) {
	if !Observer.Has(next) && Observer.Bool(st, "powered") && w.TickScheduled(pos, Observer) {
		observerUpdateTarget(w, pos, Observer.WithBool(st, "powered", false))
	}
}

func observerShapeUpdate(w *world.World, pos cube.Pos, _ *world.Block, st world.StateID, face cube.Face, _ cube.Pos, _ world.StateID) world.StateID {
	if observerFacing(st) == face && !Observer.Bool(st, "powered") && !w.TickScheduled(pos, Observer) {
		w.ScheduleTick(pos, Observer, 2)
	}
	return st
}

func observerTick(w *world.World, pos cube.Pos, _ *world.Block, st world.StateID) {
	if Observer.Bool(st, "powered") {
		st = Observer.WithBool(st, "powered", false)
	} else {
		st = Observer.WithBool(st, "powered", true)
		w.ScheduleTick(pos, Observer, 2)
	}
	w.SetBlockState(pos, st, world.NotifyListeners)
	observerUpdateTarget(w, pos, st)
}
