package block

import "github.com/dm-vev/voxelcore/server/world"

// Terrain blocks placed by the world generator.
var (
	Stone      = solid("minecraft:stone")
	Dirt       = solid("minecraft:dirt")
	GrassBlock = &world.Block{Name: "minecraft:grass_block", Solid: true, Props: []world.Property{world.BoolProperty("snowy")}}
	Gravel     = solid("minecraft:gravel")
	Mycelium   = &world.Block{Name: "minecraft:mycelium", Solid: true, Props: []world.Property{world.BoolProperty("snowy")}}
	Podzol     = &world.Block{Name: "minecraft:podzol", Solid: true, Props: []world.Property{world.BoolProperty("snowy")}}
	Sand       = solid("minecraft:sand")
	RedSand    = solid("minecraft:red_sand")
	Sandstone  = solid("minecraft:sandstone")
	Terracotta = solid("minecraft:terracotta")
	SnowBlock  = solid("minecraft:snow_block")
	// Bedrock is the indestructible floor of the world.
	Bedrock = solid("minecraft:bedrock")
)

// Water is a still or flowing liquid. Level 0 is a source block. Water does
// not flow: blocks are replaced by it only by the world generator.
var Water = &world.Block{
	Name:        "minecraft:water",
	Props:       []world.Property{world.IntProperty("level", 0, 15)},
	Replaceable: true,
}

// Glass is a transparent full block. Blocks may rest on it, but it does not
// conduct redstone power.
var Glass = &world.Block{
	Name:      "minecraft:glass",
	Behaviour: world.Behaviour{SideSolid: fullFace},
}
