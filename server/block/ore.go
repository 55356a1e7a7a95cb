package block

// Ores generated in veins inside stone.
var (
	CoalOre     = solid("minecraft:coal_ore")
	IronOre     = solid("minecraft:iron_ore")
	GoldOre     = solid("minecraft:gold_ore")
	DiamondOre  = solid("minecraft:diamond_ore")
	RedstoneOre = solid("minecraft:redstone_ore")
)
