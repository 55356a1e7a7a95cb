// Package biome holds the biome registry and the climate search tree that
// resolves sampled climate points to biomes.
package biome

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/pelletier/go-toml"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	ErrUnknownBiome   = errors.New("biome: unknown biome")
	ErrDuplicateBiome = errors.New("biome: duplicate biome")
)

// Biome is an entry of the biome registry. Biomes are immutable and shared by
// every world of the process.
type Biome struct {
	// ID is the numeric ID of the biome, stored in chunks.
	ID uint8
	// Name is the namespaced name of the biome, such as minecraft:plains.
	Name string
	// Temperature and Downfall are the climate values of the biome used for
	// colouring and precipitation.
	Temperature, Downfall float64
	// Precipitation specifies if it rains or snows in the biome.
	Precipitation bool
	// MinElevation and MaxElevation specify the height band the terrain
	// generator shapes columns of this biome into.
	MinElevation, MaxElevation int
	// GroundCover lists the block names placed at the top of a column, from
	// the surface downwards.
	GroundCover []string
	// Trees is the tree type grown in the biome, or empty if none grow.
	Trees string
	// TreeCount and GrassCount are the base amounts of trees and tall grass
	// attempted per chunk.
	TreeCount, GrassCount int
}

// String returns the display name of the biome, for example "Snowy Plains".
func (b *Biome) String() string {
	name := b.Name
	if i := strings.IndexByte(name, ':'); i >= 0 {
		name = name[i+1:]
	}
	return cases.Title(language.English).String(strings.ReplaceAll(name, "_", " "))
}

// Registry maps biome names and IDs to biomes.
type Registry struct {
	byName map[string]*Biome
	byID   map[uint8]*Biome
	all    []*Biome
}

type registryFile struct {
	Biomes []struct {
		ID            uint8    `toml:"id"`
		Name          string   `toml:"name"`
		Temperature   float64  `toml:"temperature"`
		Downfall      float64  `toml:"downfall"`
		Precipitation bool     `toml:"precipitation"`
		Elevation     []int64  `toml:"elevation"`
		GroundCover   []string `toml:"ground_cover"`
		Trees         string   `toml:"trees"`
		TreeCount     int      `toml:"tree_count"`
		GrassCount    int      `toml:"grass_count"`
	} `toml:"biome"`
}

// ParseRegistry parses a TOML biome table.
func ParseRegistry(data []byte) (*Registry, error) {
	var f registryFile
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode biome table: %w", err)
	}
	r := &Registry{byName: make(map[string]*Biome), byID: make(map[uint8]*Biome)}
	for _, e := range f.Biomes {
		if _, ok := r.byName[e.Name]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateBiome, e.Name)
		}
		if _, ok := r.byID[e.ID]; ok {
			return nil, fmt.Errorf("%w: id %d", ErrDuplicateBiome, e.ID)
		}
		b := &Biome{
			ID:            e.ID,
			Name:          e.Name,
			Temperature:   e.Temperature,
			Downfall:      e.Downfall,
			Precipitation: e.Precipitation,
			GroundCover:   e.GroundCover,
			Trees:         e.Trees,
			TreeCount:     e.TreeCount,
			GrassCount:    e.GrassCount,
			MinElevation:  63,
			MaxElevation:  68,
		}
		if len(e.Elevation) == 2 {
			b.MinElevation, b.MaxElevation = int(e.Elevation[0]), int(e.Elevation[1])
		}
		r.byName[b.Name] = b
		r.byID[b.ID] = b
		r.all = append(r.all, b)
	}
	return r, nil
}

// ByName looks up a biome by its namespaced name.
func (r *Registry) ByName(name string) (*Biome, bool) {
	b, ok := r.byName[name]
	return b, ok
}

// ByID looks up a biome by its numeric ID.
func (r *Registry) ByID(id uint8) (*Biome, bool) {
	b, ok := r.byID[id]
	return b, ok
}

// All returns every biome in the order of the table.
func (r *Registry) All() []*Biome {
	return r.all
}

//go:embed biomes.toml
var biomeTable []byte

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Default returns the registry of the biomes shipped with the server. It is
// loaded on first use and never modified afterwards.
func Default() *Registry {
	defaultOnce.Do(func() {
		r, err := ParseRegistry(biomeTable)
		if err != nil {
			panic(fmt.Errorf("parse embedded biome table: %w", err))
		}
		defaultRegistry = r
	})
	return defaultRegistry
}
