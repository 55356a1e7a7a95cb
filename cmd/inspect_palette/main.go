package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/dm-vev/voxelcore/server/block"
	"github.com/dm-vev/voxelcore/server/block/cube"
	"github.com/dm-vev/voxelcore/server/world"
	"github.com/dm-vev/voxelcore/server/world/biome"
	"github.com/dm-vev/voxelcore/server/world/mcdb"
)

func main() {
	dir := flag.String("world", "world", "world directory")
	x := flag.Int("x", 0, "chunk x")
	z := flag.Int("z", 0, "chunk z")
	filter := flag.String("filter", "", "only print states whose name contains this string")
	list := flag.Bool("list", false, "list the stored chunks instead of printing a palette")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	reg := block.Registry()
	db, err := mcdb.Config{Log: log, Registry: reg, ReadOnly: true}.Open(*dir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open:", err)
		os.Exit(1)
	}
	defer db.Close()

	if *list {
		positions, err := db.Columns()
		if err != nil {
			fmt.Fprintln(os.Stderr, "list:", err)
			os.Exit(1)
		}
		for _, pos := range positions {
			fmt.Println(pos)
		}
		return
	}

	pos := world.ChunkPos{int32(*x), int32(*z)}
	c, err := db.LoadColumn(pos, cube.Range{-64, 319})
	if err != nil {
		fmt.Fprintln(os.Stderr, "load:", err)
		os.Exit(1)
	}
	for i, s := range c.Sub() {
		if s == nil || s.Empty() {
			continue
		}
		palette, indices := s.Palette()
		counts := make([]int, len(palette))
		for _, idx := range indices {
			counts[idx]++
		}
		fmt.Printf("sub chunk %d (y=%d): %d states\n", i, c.SubY(i), len(palette))
		for j, st := range palette {
			name := reg.Encode(st)
			if *filter != "" && !strings.Contains(name, *filter) {
				continue
			}
			fmt.Printf("  %5d  %s\n", counts[j], name)
		}
		biomes := s.Biomes()
		seen := make(map[uint8]bool)
		for _, id := range biomes {
			if seen[id] {
				continue
			}
			seen[id] = true
			if b, ok := biome.Default().ByID(id); ok {
				fmt.Printf("  biome %s\n", b.Name)
			}
		}
	}
}
