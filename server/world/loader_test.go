package world

import (
	"testing"

	"github.com/dm-vev/voxelcore/server/block/cube"
)

func TestLoaderLoadsNearestFirst(t *testing.T) {
	w := New()
	t.Cleanup(func() {
		if err := w.Close(); err != nil {
			t.Fatalf("failed closing world: %v", err)
		}
	})

	loader := NewLoader(2, w)
	if err := loader.Move(cube.Pos{}); err != nil {
		t.Fatalf("move: %v", err)
	}
	left, err := loader.Load(5)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	// 13 chunks lie within a radius of 2.
	if left != 8 {
		t.Fatalf("expected 8 chunks left in the queue, got %d", left)
	}
	for _, pos := range []ChunkPos{{0, 0}, {1, 0}, {-1, 0}, {0, 1}, {0, -1}} {
		if !loader.Chunk(pos) || !w.ChunkLoaded(pos) {
			t.Fatalf("expected chunk %v to be loaded first", pos)
		}
	}

	if left, _ := loader.Load(32); left != 0 {
		t.Fatalf("expected empty queue, got %d", left)
	}
	if !loader.Chunk(ChunkPos{2, 0}) || loader.Chunk(ChunkPos{2, 1}) {
		t.Fatalf("expected the outer ring to be loaded and corners to be skipped")
	}
	if loader.Chunks() != 13 {
		t.Fatalf("expected 13 loaded chunks, got %d", loader.Chunks())
	}
}

func TestLoaderEvictsChunksOutsideRadius(t *testing.T) {
	w := New()
	t.Cleanup(func() {
		if err := w.Close(); err != nil {
			t.Fatalf("failed closing world: %v", err)
		}
	})

	loader := NewLoader(2, w)
	_ = loader.Move(cube.Pos{})
	if _, err := loader.Load(32); err != nil {
		t.Fatalf("load: %v", err)
	}
	target := ChunkPos{-2, 0}
	if !loader.Chunk(target) {
		t.Fatalf("chunk %v was never loaded", target)
	}

	if err := loader.Move(cube.Pos{0, 0, 32}); err != nil {
		t.Fatalf("move: %v", err)
	}
	if loader.Chunk(target) || w.ChunkLoaded(target) {
		t.Fatalf("chunk %v was not evicted after moving outside radius", target)
	}
	if !loader.Chunk(ChunkPos{0, 2}) {
		t.Fatalf("expected chunks within the new radius to stay loaded")
	}

	if err := loader.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if n := len(w.LoadedChunks()); n != 0 {
		t.Fatalf("expected no loaded chunks after close, got %d", n)
	}
}
