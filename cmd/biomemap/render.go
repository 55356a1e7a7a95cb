package main

import (
	"image"
	"image/color"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/dm-vev/voxelcore/server/block/cube"
	"github.com/dm-vev/voxelcore/server/world/biome"
	"golang.org/x/image/draw"
)

// region is the area of the world rendered, in blocks.
type region struct {
	// X and Z are the block coordinates of the centre of the map.
	X, Z int
	// Y is the height biomes are sampled at.
	Y int
	// Size is the width and height of the map in samples.
	Size int
	// Step is the amount of blocks between two samples.
	Step int
}

// render samples the biome of every pixel of r from src. It returns the image
// and the amount of samples per biome.
func render(src *biome.Source, r region) (*image.RGBA, map[*biome.Biome]int) {
	img := image.NewRGBA(image.Rect(0, 0, r.Size, r.Size))
	counts := make(map[*biome.Biome]int)
	var cursor biome.Cursor

	half := r.Size / 2
	for py := 0; py < r.Size; py++ {
		for px := 0; px < r.Size; px++ {
			pos := cube.Pos{r.X + (px-half)*r.Step, r.Y, r.Z + (py-half)*r.Step}
			b := src.Biome(pos, &cursor)
			counts[b]++
			img.SetRGBA(px, py, biomeColour(b))
		}
	}
	return img, counts
}

// scale scales img up by factor using nearest neighbour sampling so that the
// borders between biomes stay sharp.
func scale(img *image.RGBA, factor int) *image.RGBA {
	if factor <= 1 {
		return img
	}
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx()*factor, b.Dy()*factor))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// biomeColour returns the colour a biome is drawn with. Water biomes are
// blue, other biomes get a colour derived from their name.
func biomeColour(b *biome.Biome) color.RGBA {
	switch {
	case strings.Contains(b.Name, "deep") && strings.Contains(b.Name, "ocean"):
		return color.RGBA{R: 0, G: 0, B: 80, A: 255}
	case strings.Contains(b.Name, "ocean"):
		return color.RGBA{R: 0, G: 0, B: 160, A: 255}
	case strings.Contains(b.Name, "river"):
		return color.RGBA{R: 40, G: 90, B: 255, A: 255}
	}
	h := xxhash.Sum64String(b.Name)
	return color.RGBA{R: uint8(h) | 0x40, G: uint8(h>>8) | 0x40, B: uint8(h>>16) & 0x7f, A: 255}
}
