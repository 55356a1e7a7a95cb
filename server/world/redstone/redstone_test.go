package redstone_test

import (
	"context"
	"testing"

	"github.com/dm-vev/voxelcore/server/block"
	"github.com/dm-vev/voxelcore/server/block/cube"
	"github.com/dm-vev/voxelcore/server/world"
	"github.com/dm-vev/voxelcore/server/world/redstone"
)

func TestWireAttenuation(t *testing.T) {
	for _, p := range []redstone.Propagation{redstone.PropagationTwoRing, redstone.PropagationTurbo} {
		t.Run(p.String(), func(t *testing.T) {
			usePropagation(t, p)
			w := newWorld(t, nil)
			source, wires := line(t, w, 16)

			for i, pos := range wires {
				if got, want := power(w, pos), redstone.MaxPower-i; got != want {
					t.Fatalf("wire %d blocks from the source: expected power %d, got %d", i+1, want, got)
				}
			}

			w.Break(source)
			for i, pos := range wires {
				if got := power(w, pos); got != 0 {
					t.Fatalf("wire %d: expected power 0 after the source broke, got %d", i+1, got)
				}
			}
		})
	}
}

func TestWireIdempotence(t *testing.T) {
	w := newWorld(t, nil)
	_, wires := line(t, w, 10)
	// A branch off the line at its fourth wire.
	for z := 1; z <= 3; z++ {
		pos := cube.Pos{4, 65, z}
		w.SetBlockState(pos.Side(cube.FaceDown), block.Stone.Default(), world.NotifyAll)
		if !w.Place(pos, block.RedstoneDust()) {
			t.Fatalf("expected wire to be placed at %v", pos)
		}
		wires = append(wires, pos)
	}

	before := make([]world.StateID, len(wires))
	for i, pos := range wires {
		before[i] = w.BlockState(pos)
		if got, want := redstone.CalculatePower(w, pos), redstone.WireStateOf(before[i]).Power; got != want {
			t.Fatalf("wire at %v: stored power %d, calculated %d", pos, want, got)
		}
	}
	for _, pos := range wires {
		w.NeighbourChanged(pos, pos)
	}
	for i, pos := range wires {
		if got := w.BlockState(pos); got != before[i] {
			t.Fatalf("wire at %v changed on a redundant update: %s -> %s", pos, w.Registry().Encode(before[i]), w.Registry().Encode(got))
		}
	}
	if p := power(w, cube.Pos{4, 65, 3}); p != 9 {
		t.Fatalf("expected the end of the branch to have power 9, got %d", p)
	}
}

func TestWireShape(t *testing.T) {
	w := newWorld(t, nil)
	floor(w, 0, 8, 0, 8)

	single := cube.Pos{2, 65, 2}
	w.Place(single, block.RedstoneDust())
	s := redstone.WireStateOf(w.BlockState(single))
	if !s.Cross() {
		t.Fatalf("expected an isolated wire to be placed as a cross, got %+v", s)
	}
	if !w.Use(single) {
		t.Fatalf("expected using a cross to turn it into a dot")
	}
	if s = redstone.WireStateOf(w.BlockState(single)); !s.Dot() {
		t.Fatalf("expected a dot after use, got %+v", s)
	}
	if !w.Use(single) {
		t.Fatalf("expected using a dot to turn it into a cross")
	}
	if s = redstone.WireStateOf(w.BlockState(single)); !s.Cross() {
		t.Fatalf("expected a cross after the second use, got %+v", s)
	}

	a, b := cube.Pos{5, 65, 5}, cube.Pos{5, 65, 6}
	w.Place(a, block.RedstoneDust())
	w.Place(b, block.RedstoneDust())
	for _, pos := range []cube.Pos{a, b} {
		s := redstone.WireStateOf(w.BlockState(pos))
		want := [4]redstone.Side{redstone.SideSide, redstone.SideSide, redstone.SideNone, redstone.SideNone}
		if s.Sides != want {
			t.Fatalf("expected wire at %v to run north to south, got %+v", pos, s.Sides)
		}
	}
	if w.Use(a) {
		t.Fatalf("expected a connected wire not to toggle")
	}
}

func TestWireClimbsBlocks(t *testing.T) {
	w := newWorld(t, nil)
	floor(w, 0, 4, 0, 0)
	// A step up: the wire at x=1 climbs onto the stone at x=2.
	w.SetBlockState(cube.Pos{2, 65, 0}, block.Stone.Default(), world.NotifyAll)
	w.SetBlockState(cube.Pos{0, 65, 0}, block.RedstoneBlock.Default(), world.NotifyAll)
	low, high := cube.Pos{1, 65, 0}, cube.Pos{2, 66, 0}
	w.Place(high, block.RedstoneDust())
	w.Place(low, block.RedstoneDust())

	if side := redstone.WireStateOf(w.BlockState(low)).Side(cube.East); side != redstone.SideUp {
		t.Fatalf("expected lower wire to climb east, got %v", side)
	}
	if p := power(w, high); p != 14 {
		t.Fatalf("expected upper wire to be powered through the diagonal, got %d", p)
	}
}

func TestRepeaterDelay(t *testing.T) {
	w := newWorld(t, nil)
	floor(w, 0, 3, 0, 0)
	rep, lamp := cube.Pos{1, 65, 0}, cube.Pos{2, 65, 0}
	if !w.Place(rep, redstone.RepeaterState(cube.West, 2)) {
		t.Fatalf("expected repeater to be placed")
	}
	w.Place(lamp, block.RedstoneLamp.Default())

	w.SetBlockState(cube.Pos{0, 65, 0}, block.RedstoneBlock.Default(), world.NotifyAll)
	for i := 1; i <= 3; i++ {
		tick(t, w)
		if lit(w, lamp) {
			t.Fatalf("expected lamp to turn on only after the delay, lit after %d ticks", i)
		}
	}
	tick(t, w)
	if !lit(w, lamp) {
		t.Fatalf("expected lamp to turn on 4 ticks after the repeater was powered")
	}
	if !w.Use(rep) || redstone.Repeater.Int(w.BlockState(rep), "delay") != 3 {
		t.Fatalf("expected using the repeater to increase its delay")
	}
}

func TestRepeaterLock(t *testing.T) {
	w := newWorld(t, nil)
	floor(w, 0, 3, 0, 3)
	locked, side := cube.Pos{1, 65, 0}, cube.Pos{1, 65, 1}
	w.Place(locked, redstone.RepeaterState(cube.West, 1))
	w.Place(side, redstone.RepeaterState(cube.South, 1))

	w.SetBlockState(cube.Pos{1, 65, 2}, block.RedstoneBlock.Default(), world.NotifyAll)
	tick(t, w)
	tick(t, w)
	if !redstone.Repeater.Bool(w.BlockState(side), "powered") {
		t.Fatalf("expected side repeater to be powered")
	}
	if !redstone.Repeater.Bool(w.BlockState(locked), "locked") {
		t.Fatalf("expected repeater powered from the side by a diode to be locked")
	}

	w.SetBlockState(cube.Pos{0, 65, 0}, block.RedstoneBlock.Default(), world.NotifyAll)
	for i := 0; i < 4; i++ {
		tick(t, w)
	}
	if redstone.Repeater.Bool(w.BlockState(locked), "powered") {
		t.Fatalf("expected locked repeater to keep its output")
	}
}

func TestObserverPulse(t *testing.T) {
	w := newWorld(t, nil)
	obs, lamp, watched := cube.Pos{0, 65, 0}, cube.Pos{0, 65, 1}, cube.Pos{0, 65, -1}
	w.SetBlockState(obs, redstone.ObserverState(cube.FaceNorth), world.NotifyAll)
	w.SetBlockState(lamp, block.RedstoneLamp.Default(), world.NotifyAll)

	w.SetBlockState(watched, block.Stone.Default(), world.NotifyAll)
	tick(t, w)
	if lit(w, lamp) {
		t.Fatalf("expected observer to fire after 2 ticks")
	}
	tick(t, w)
	if !lit(w, lamp) {
		t.Fatalf("expected observer pulse to light the lamp")
	}
	tick(t, w)
	tick(t, w)
	if redstone.Observer.Bool(w.BlockState(obs), "powered") {
		t.Fatalf("expected observer pulse to end after 2 ticks")
	}
	for i := 0; i < 4; i++ {
		tick(t, w)
	}
	if lit(w, lamp) {
		t.Fatalf("expected lamp to turn off after the pulse ended")
	}
}

func TestPowerQueries(t *testing.T) {
	w := newWorld(t, nil)
	floor(w, 0, 2, 0, 0)
	stone := cube.Pos{1, 65, 0}
	w.SetBlockState(stone, block.Stone.Default(), world.NotifyAll)
	lever := stone.Side(cube.FaceUp)
	w.Place(lever, block.LeverState(cube.FaceUp, cube.North))
	w.Use(lever)

	if p := redstone.StrongPower(w, lever, cube.FaceUp); p != 15 {
		t.Fatalf("expected lever to strongly power the block below, got %d", p)
	}
	if p := redstone.StrongPower(w, lever, cube.FaceNorth); p != 0 {
		t.Fatalf("expected lever not to strongly power sideways, got %d", p)
	}
	if p := redstone.Power(w, stone, cube.FaceWest); p != 15 {
		t.Fatalf("expected strongly powered stone to emit power, got %d", p)
	}
	if !redstone.ReceivesPower(w, cube.Pos{2, 65, 0}) || redstone.ReceivedPower(w, cube.Pos{2, 65, 0}) != 15 {
		t.Fatalf("expected block next to powered stone to receive power")
	}
	if redstone.ReceivesPower(w, cube.Pos{3, 65, 0}) {
		t.Fatalf("expected power not to pass through two blocks")
	}
	if !redstone.EmitsPower(block.Lever, w.BlockState(lever)) || redstone.EmitsPower(block.Stone, block.Stone.Default()) {
		t.Fatalf("unexpected EmitsPower results")
	}
	if !redstone.IsDiode(redstone.Repeater) || redstone.IsDiode(redstone.Observer) {
		t.Fatalf("unexpected IsDiode results")
	}
}

func TestSystemMatchesChainedUpdates(t *testing.T) {
	chained := newWorld(t, nil)
	sys := redstone.Config{}.New()
	t.Cleanup(func() { _ = sys.Close() })
	sharded := newWorld(t, sys)

	source, wires := line(t, chained, 20)
	line(t, sharded, 20)
	settle(t, sharded)

	for _, pos := range wires {
		if a, b := power(chained, pos), power(sharded, pos); a != b {
			t.Fatalf("wire at %v: chained updates gave %d, sharded updates gave %d", pos, a, b)
		}
	}
	if sys.Chunks() != len(sharded.LoadedChunks()) {
		t.Fatalf("expected a worker for each of the %d loaded chunks, got %d", len(sharded.LoadedChunks()), sys.Chunks())
	}
	if sys.Metrics().Rounds() == 0 || sys.Metrics().Ops(redstone.ChunkID{}) == 0 {
		t.Fatalf("expected the system to have run rounds")
	}

	chained.Break(source)
	sharded.Break(source)
	settle(t, sharded)
	for _, pos := range wires {
		if p := power(sharded, pos); p != 0 {
			t.Fatalf("wire at %v: expected power 0, got %d", pos, p)
		}
	}

	if err := sharded.UnloadChunk(world.ChunkPos{1, 0}); err != nil {
		t.Fatalf("unload chunk: %v", err)
	}
	if sys.Chunks() != len(sharded.LoadedChunks()) {
		t.Fatalf("expected the worker of the unloaded chunk to stop")
	}
}

// line builds a floor of stone and a straight line of n wires east of a
// redstone block. It returns the position of the redstone block and of every
// wire, ordered by distance to it.
func line(t *testing.T, w *world.World, n int) (cube.Pos, []cube.Pos) {
	t.Helper()
	floor(w, 0, n, 0, 0)
	source := cube.Pos{0, 65, 0}
	w.SetBlockState(source, block.RedstoneBlock.Default(), world.NotifyAll)
	wires := make([]cube.Pos, 0, n)
	for x := 1; x <= n; x++ {
		pos := cube.Pos{x, 65, 0}
		if !w.Place(pos, block.RedstoneDust()) {
			t.Fatalf("expected wire to be placed at %v", pos)
		}
		wires = append(wires, pos)
	}
	return source, wires
}

func floor(w *world.World, x0, x1, z0, z1 int) {
	for x := x0; x <= x1; x++ {
		for z := z0; z <= z1; z++ {
			w.SetBlockState(cube.Pos{x, 64, z}, block.Stone.Default(), world.NotifyAll)
		}
	}
}

func newWorld(t *testing.T, sys *redstone.System) *world.World {
	t.Helper()
	conf := world.Config{Registry: block.Registry()}
	if sys != nil {
		conf.Updater = sys
		conf.Observers = []world.ChunkObserver{sys}
	}
	w := conf.New()
	t.Cleanup(func() { _ = w.Close() })
	return w
}

func usePropagation(t *testing.T, p redstone.Propagation) {
	t.Helper()
	prev := redstone.CurrentPropagation()
	redstone.SetPropagation(p)
	t.Cleanup(func() { redstone.SetPropagation(prev) })
}

// settle ticks the world until no chunk has updates queued.
func settle(t *testing.T, w *world.World) {
	t.Helper()
	for i := 0; i < 20; i++ {
		tick(t, w)
	}
}

func tick(t *testing.T, w *world.World) {
	t.Helper()
	if err := w.Tick(context.Background()); err != nil {
		t.Fatalf("tick: %v", err)
	}
}

func power(w *world.World, pos cube.Pos) int {
	return redstone.WireStateOf(w.BlockState(pos)).Power
}

func lit(w *world.World, pos cube.Pos) bool {
	return block.RedstoneLamp.Bool(w.BlockState(pos), "lit")
}
