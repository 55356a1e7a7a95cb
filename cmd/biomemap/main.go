package main

import (
	"flag"
	"fmt"
	"image/png"
	"os"
	"slices"

	"github.com/dm-vev/voxelcore/server/world/biome"
)

func main() {
	seed := flag.Int64("seed", 0, "world seed")
	var r region
	flag.IntVar(&r.X, "x", 0, "block x of the centre of the map")
	flag.IntVar(&r.Z, "z", 0, "block z of the centre of the map")
	flag.IntVar(&r.Y, "y", 64, "height biomes are sampled at")
	flag.IntVar(&r.Size, "size", 256, "width and height of the map in samples")
	flag.IntVar(&r.Step, "step", 4, "blocks between two samples")
	zoom := flag.Int("zoom", 2, "pixels per sample in the output image")
	climate := flag.String("climate", "", "climate parameter list to use instead of the default one")
	out := flag.String("out", "biomes.png", "output PNG file")
	census := flag.String("census", "", "sqlite database to store the biome census in")
	flag.Parse()

	if r.Size <= 0 || r.Step <= 0 {
		fmt.Fprintln(os.Stderr, "size and step must be positive")
		os.Exit(2)
	}

	var tree *biome.Tree
	if *climate != "" {
		var err error
		if tree, err = biome.TreeFromFile(*climate); err != nil {
			fmt.Fprintln(os.Stderr, "climate:", err)
			os.Exit(1)
		}
	}
	src, err := biome.NewSource(*seed, tree)
	if err != nil {
		fmt.Fprintln(os.Stderr, "biome source:", err)
		os.Exit(1)
	}

	img, counts := render(src, r)
	f, err := os.Create(*out)
	if err != nil {
		fmt.Fprintln(os.Stderr, "create:", err)
		os.Exit(1)
	}
	if err := png.Encode(f, scale(img, *zoom)); err != nil {
		_ = f.Close()
		fmt.Fprintln(os.Stderr, "encode:", err)
		os.Exit(1)
	}
	if err := f.Close(); err != nil {
		fmt.Fprintln(os.Stderr, "close:", err)
		os.Exit(1)
	}

	if *census != "" {
		if err := writeCensus(*census, *seed, r, counts); err != nil {
			fmt.Fprintln(os.Stderr, "census:", err)
			os.Exit(1)
		}
	}

	biomes := make([]*biome.Biome, 0, len(counts))
	for b := range counts {
		biomes = append(biomes, b)
	}
	slices.SortFunc(biomes, func(a, b *biome.Biome) int { return counts[b] - counts[a] })
	total := r.Size * r.Size
	for _, b := range biomes {
		fmt.Printf("%-28s %6.2f%%\n", b, float64(counts[b])*100/float64(total))
	}
}
