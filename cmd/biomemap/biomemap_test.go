package main

import (
	"path/filepath"
	"testing"

	"github.com/dm-vev/voxelcore/server/world/biome"
)

func TestRenderCountsEverySample(t *testing.T) {
	src, err := biome.NewSource(3, nil)
	if err != nil {
		t.Fatalf("new source: %v", err)
	}
	r := region{X: 100, Z: -40, Y: 64, Size: 32, Step: 16}
	img, counts := render(src, r)
	if b := img.Bounds(); b.Dx() != 32 || b.Dy() != 32 {
		t.Fatalf("expected 32x32 image, got %v", b)
	}
	total := 0
	for _, n := range counts {
		total += n
	}
	if total != 32*32 {
		t.Fatalf("expected %d samples, got %d", 32*32, total)
	}

	big := scale(img, 3)
	if b := big.Bounds(); b.Dx() != 96 || b.Dy() != 96 {
		t.Fatalf("expected 96x96 image, got %v", b)
	}
	if big.RGBAAt(4, 7) != img.RGBAAt(1, 2) {
		t.Fatalf("expected nearest neighbour scaling")
	}
}

func TestCensus(t *testing.T) {
	path := filepath.Join(t.TempDir(), "census.db")
	plains, _ := biome.Default().ByName("minecraft:plains")
	desert, _ := biome.Default().ByName("minecraft:desert")
	r := region{X: 8, Z: 8}

	if err := writeCensus(path, 1, r, map[*biome.Biome]int{plains: 10, desert: 3}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := writeCensus(path, 1, r, map[*biome.Biome]int{plains: 7}); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	if err := writeCensus(path, 2, r, map[*biome.Biome]int{desert: 1}); err != nil {
		t.Fatalf("write other seed: %v", err)
	}

	got, err := readCensus(path, 1, r)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != 1 || got["minecraft:plains"] != 7 {
		t.Fatalf("expected only the latest census, got %v", got)
	}
}
