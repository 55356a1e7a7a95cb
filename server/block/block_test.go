package block

import (
	"context"
	"testing"

	"github.com/dm-vev/voxelcore/server/block/cube"
	"github.com/dm-vev/voxelcore/server/world"
	"github.com/dm-vev/voxelcore/server/world/biome"
)

func TestRegistryHoldsGroundCover(t *testing.T) {
	reg := Registry()
	if Registry() != reg {
		t.Fatalf("expected Registry to return the same registry")
	}
	if !reg.Finalised() {
		t.Fatalf("expected registry to be finalised")
	}
	for _, b := range biome.Default().All() {
		for _, name := range b.GroundCover {
			if _, ok := reg.Block(name); !ok {
				t.Errorf("ground cover %s of biome %s is not registered", name, b.Name)
			}
		}
	}
	if got := reg.BlockOf(LeverState(cube.FaceUp, cube.East)); got != Lever {
		t.Fatalf("expected lever state to belong to the lever, got %s", got.Name)
	}
}

func TestLeverPowersAttachedBlock(t *testing.T) {
	w := newWorld(t)
	stone, lamp := cube.Pos{0, 64, 0}, cube.Pos{1, 64, 0}
	w.SetBlockState(stone, Stone.Default(), world.NotifyAll)
	lever := stone.Side(cube.FaceUp)
	if !w.Place(lever, LeverState(cube.FaceUp, cube.North)) {
		t.Fatalf("expected lever to be placed on stone")
	}
	if !w.Place(lamp, RedstoneLamp.Default()) {
		t.Fatalf("expected lamp to be placed")
	}
	if lit(w, lamp) {
		t.Fatalf("expected lamp to be off before the lever is used")
	}

	w.Use(lever)
	if !lit(w, lamp) {
		t.Fatalf("expected lamp to turn on through the strongly powered stone")
	}

	w.Use(lever)
	for i := 0; i < 3; i++ {
		tick(t, w)
		if !lit(w, lamp) {
			t.Fatalf("expected lamp to stay on for 4 ticks, turned off after %d", i+1)
		}
	}
	tick(t, w)
	if lit(w, lamp) {
		t.Fatalf("expected lamp to turn off 4 ticks after losing power")
	}
}

func TestTorchInverts(t *testing.T) {
	w := newWorld(t)
	stone := cube.Pos{0, 64, 0}
	w.SetBlockState(stone, Stone.Default(), world.NotifyAll)
	torch := stone.Side(cube.FaceUp)
	if !w.Place(torch, RedstoneTorch.Default()) {
		t.Fatalf("expected torch to be placed on stone")
	}
	lever := stone.Side(cube.FaceEast)
	if !w.Place(lever, LeverState(cube.FaceEast, cube.North)) {
		t.Fatalf("expected lever to be placed against stone")
	}

	w.Use(lever)
	if !RedstoneTorch.Bool(w.BlockState(torch), "lit") {
		t.Fatalf("expected torch to turn off only after its delay")
	}
	tick(t, w)
	tick(t, w)
	if RedstoneTorch.Bool(w.BlockState(torch), "lit") {
		t.Fatalf("expected torch to turn off 2 ticks after its block was powered")
	}

	w.Use(lever)
	tick(t, w)
	tick(t, w)
	if !RedstoneTorch.Bool(w.BlockState(torch), "lit") {
		t.Fatalf("expected torch to turn back on")
	}
}

func TestLampLitWhenPlacedNextToPower(t *testing.T) {
	w := newWorld(t)
	w.SetBlockState(cube.Pos{0, 64, 0}, RedstoneBlock.Default(), world.NotifyAll)
	lamp := cube.Pos{0, 65, 0}
	w.Place(lamp, RedstoneLamp.Default())
	if !lit(w, lamp) {
		t.Fatalf("expected lamp placed on a redstone block to be lit")
	}
	if LightEmissionLevel(w.BlockState(lamp)) != 15 {
		t.Fatalf("expected lit lamp to emit light level 15")
	}
}

func TestUnsupportedBlocksBreak(t *testing.T) {
	w := newWorld(t)
	ground := cube.Pos{0, 64, 0}
	w.SetBlockState(ground, GrassBlock.Default(), world.NotifyAll)
	grass, torch := ground.Side(cube.FaceUp), cube.Pos{2, 65, 0}
	w.SetBlockState(torch.Side(cube.FaceDown), Stone.Default(), world.NotifyAll)
	if !w.Place(grass, ShortGrass.Default()) || !w.Place(torch, RedstoneTorch.Default()) {
		t.Fatalf("expected plants and torches to be placed on supporting blocks")
	}
	if w.Place(cube.Pos{5, 80, 5}, ShortGrass.Default()) {
		t.Fatalf("expected short grass not to be placed in the air")
	}

	w.Break(ground)
	w.Break(torch.Side(cube.FaceDown))
	if w.Block(grass) != world.Air {
		t.Fatalf("expected short grass to break without support, got %s", w.Block(grass).Name)
	}
	if w.Block(torch) != world.Air {
		t.Fatalf("expected torch to break without support, got %s", w.Block(torch).Name)
	}
}

func TestWallTorchAttachment(t *testing.T) {
	w := newWorld(t)
	stone := cube.Pos{0, 64, 0}
	w.SetBlockState(stone, Stone.Default(), world.NotifyAll)
	torch := stone.Side(cube.FaceSouth)
	if !w.Place(torch, WallTorchState(cube.South)) {
		t.Fatalf("expected wall torch to be placed facing away from stone")
	}
	if w.Place(cube.Pos{4, 64, 4}, WallTorchState(cube.South)) {
		t.Fatalf("expected wall torch not to be placed without a wall")
	}
	if p := torchPower(w, torch, RedstoneWallTorch, w.BlockState(torch), cube.FaceSouth); p != 0 {
		t.Fatalf("expected wall torch not to power its wall, got %d", p)
	}
	if p := torchPower(w, torch, RedstoneWallTorch, w.BlockState(torch), cube.FaceNorth); p != 15 {
		t.Fatalf("expected wall torch to power the block in front of it, got %d", p)
	}
}

func newWorld(t *testing.T) *world.World {
	t.Helper()
	w := world.Config{Registry: Registry()}.New()
	t.Cleanup(func() { _ = w.Close() })
	return w
}

func tick(t *testing.T, w *world.World) {
	t.Helper()
	if err := w.Tick(context.Background()); err != nil {
		t.Fatalf("tick: %v", err)
	}
}

func lit(w *world.World, pos cube.Pos) bool {
	return RedstoneLamp.Bool(w.BlockState(pos), "lit")
}
