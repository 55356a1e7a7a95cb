package console

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/dm-vev/voxelcore/server"
	"github.com/dm-vev/voxelcore/server/block/cube"
	"github.com/dm-vev/voxelcore/server/world"
	"github.com/dm-vev/voxelcore/server/world/generator"
	"github.com/dm-vev/voxelcore/server/world/redstone"
)

func TestExecuteBlockCommands(t *testing.T) {
	c := newTestConsole(t)
	ctx := context.Background()

	mustExecute(t, c, "setblock 1 -60 1 stone")
	if out := mustExecute(t, c, "/block 1 -60 1"); !strings.HasSuffix(out, "minecraft:stone") {
		t.Fatalf("expected stone, got %q", out)
	}
	mustExecute(t, c, "break 1 -60 1")
	if out := mustExecute(t, c, "block 1 -60 1"); !strings.HasSuffix(out, "minecraft:air") {
		t.Fatalf("expected air after break, got %q", out)
	}
	if _, err := c.Execute(ctx, "setblock 1 -60 1 not_a_block"); err == nil {
		t.Fatalf("expected error for unknown block")
	}
	if _, err := c.Execute(ctx, "block 1 x 1"); err == nil {
		t.Fatalf("expected error for invalid position")
	}
}

func TestExecuteErrors(t *testing.T) {
	c := newTestConsole(t)
	ctx := context.Background()

	if _, err := c.Execute(ctx, "teleport 0 0 0"); !errors.Is(err, ErrUnknownCommand) {
		t.Fatalf("expected ErrUnknownCommand, got %v", err)
	}
	if _, err := c.Execute(ctx, "block 1 2"); err == nil || !strings.Contains(err.Error(), "usage") {
		t.Fatalf("expected usage error, got %v", err)
	}
	if out, err := c.Execute(ctx, "   "); err != nil || out != "" {
		t.Fatalf("expected empty line to do nothing, got %q %v", out, err)
	}
}

func TestExecuteTickAndChunks(t *testing.T) {
	c := newTestConsole(t)
	w := c.srv.World()

	start := w.CurrentTick()
	mustExecute(t, c, "tick 3")
	if w.CurrentTick() != start+3 {
		t.Fatalf("expected 3 ticks to run, now at %d", w.CurrentTick())
	}
	mustExecute(t, c, "load 4 -2")
	if !w.ChunkLoaded(world.ChunkPos{4, -2}) {
		t.Fatalf("expected chunk to be loaded")
	}
	mustExecute(t, c, "unload 4 -2")
	if w.ChunkLoaded(world.ChunkPos{4, -2}) {
		t.Fatalf("expected chunk to be unloaded")
	}
	if out := mustExecute(t, c, "status"); !strings.Contains(out, "chunks=1") {
		t.Fatalf("expected one loaded chunk in status, got %q", out)
	}
}

func TestExecutePropagation(t *testing.T) {
	prev := redstone.CurrentPropagation()
	t.Cleanup(func() { redstone.SetPropagation(prev) })
	c := newTestConsole(t)

	if out := mustExecute(t, c, "propagation TURBO"); !strings.HasSuffix(out, "turbo") {
		t.Fatalf("expected turbo propagation, got %q", out)
	}
	if redstone.CurrentPropagation() != redstone.PropagationTurbo {
		t.Fatalf("expected propagation to be changed")
	}
	if _, err := c.Execute(context.Background(), "propagation instant"); err == nil {
		t.Fatalf("expected error for unknown propagation")
	}
}

func TestRunReadsLines(t *testing.T) {
	stopped := false
	c := newTestConsole(t).WithStop(func() { stopped = true })
	c.WithReader(strings.NewReader("setblock 2 -60 2 glass\n\nunknown\nstop\n"))
	c.Run(context.Background())

	if !stopped {
		t.Fatalf("expected stop command to run")
	}
	if st := c.srv.World().BlockState(cube.Pos{2, -60, 2}); c.srv.World().Registry().Encode(st) != "minecraft:glass" {
		t.Fatalf("expected glass to be set")
	}
}

func TestParseState(t *testing.T) {
	name, props, err := parseState("lever[face=floor, powered=true]")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if name != "minecraft:lever" || props["face"] != "floor" || props["powered"] != "true" {
		t.Fatalf("unexpected result %v %v", name, props)
	}
	if _, _, err := parseState("lever[face=floor"); err == nil {
		t.Fatalf("expected error for unterminated properties")
	}
	if _, _, err := parseState("lever[face]"); err == nil {
		t.Fatalf("expected error for property without value")
	}
}

func newTestConsole(t *testing.T) *Console {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv, err := server.Config{
		Log:          log,
		TickInterval: -1,
		SpawnRadius:  0,
		Generator: func(int64) (world.Generator, error) {
			return generator.DefaultFlat(), nil
		},
	}.New()
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	t.Cleanup(func() { _ = srv.Close() })
	if err := srv.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	return New(srv, log)
}

func mustExecute(t *testing.T, c *Console, line string) string {
	t.Helper()
	out, err := c.Execute(context.Background(), line)
	if err != nil {
		t.Fatalf("%s: %v", line, err)
	}
	return out
}
