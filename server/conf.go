package server

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/dm-vev/voxelcore/server/block"
	"github.com/dm-vev/voxelcore/server/block/cube"
	"github.com/dm-vev/voxelcore/server/world"
	"github.com/dm-vev/voxelcore/server/world/biome"
	"github.com/dm-vev/voxelcore/server/world/generator"
	"github.com/dm-vev/voxelcore/server/world/mcdb"
	"github.com/dm-vev/voxelcore/server/world/redstone"
	"github.com/klauspost/compress/zstd"
	"github.com/pelletier/go-toml"
)

// Config contains options for starting a voxelcore server.
type Config struct {
	// Log is the Logger to use for logging information. If nil, Log is set to
	// slog.Default(). The world and the redstone system log through a child of
	// Log.
	Log *slog.Logger
	// Name is the name of the world. It is stored in the world settings when
	// the world is first created.
	Name string
	// Provider is the world.Provider that chunks and world settings are read
	// from and written to. If nil, world.NopProvider is used and nothing is
	// saved.
	Provider world.Provider
	// ReadOnly specifies if the world should be read-only, meaning no data
	// will be written to the Provider.
	ReadOnly bool
	// Seed is the seed of a newly created world. Worlds that already hold a
	// seed in their settings keep that seed.
	Seed int64
	// Generator returns the world.Generator used for the seed passed. If nil,
	// the Overworld generator is used with the biomes of Climate.
	Generator func(seed int64) (world.Generator, error)
	// Climate is the biome parameter tree of the default Overworld generator.
	// If nil, biome.DefaultTree is used.
	Climate *biome.Tree
	// Range is the vertical range of the world. If empty, -64 to 319 is used.
	Range cube.Range
	// TickInterval is the time between two ticks of the world. If 0, 50ms is
	// used. If negative, the world does not tick by itself and
	// World().Tick must be called by the owner.
	TickInterval time.Duration
	// SaveInterval is the time between two automatic saves of the world while
	// Run is active. If 0 or lower, the world is only saved when it is
	// closed.
	SaveInterval time.Duration
	// SpawnRadius is the radius in chunks of the area around the spawn
	// position that is loaded by Start and kept loaded. If negative, no spawn
	// chunks are loaded.
	SpawnRadius int
	// ForceLoaded holds chunks that are loaded by Start in addition to the
	// spawn area. It may be nil.
	ForceLoaded *ChunkList
	// Propagation is the redstone wire Propagation used by the server.
	Propagation redstone.Propagation
	// Redstone configures the chunk-sharded redstone system that runs the
	// neighbour updates of the world.
	Redstone redstone.Config
}

// New creates a Server using fields of conf. The Server's world is created
// immediately but no chunks are loaded until Start or Run is called. An error
// is returned if the world settings could not be read or if the generator
// could not be created.
func (conf Config) New() (*Server, error) {
	if conf.Log == nil {
		conf.Log = slog.Default()
	}
	if conf.Name == "" {
		conf.Name = "World"
	}
	if conf.Provider == nil {
		conf.Provider = &world.NopProvider{}
	}
	if conf.Generator == nil {
		conf.Generator = overworldGenerator(conf.Climate)
	}
	if conf.TickInterval == 0 {
		conf.TickInterval = time.Second / 20
	}
	if conf.Redstone.Log == nil {
		conf.Redstone.Log = conf.Log.With("component", "redstone")
	}

	set, err := conf.Provider.Settings()
	if err != nil {
		return nil, fmt.Errorf("load world settings: %w", err)
	}
	set.Lock()
	fresh := set.CurrentTick == 0 && set.Seed == 0
	if fresh {
		set.Seed, set.Name = conf.Seed, conf.Name
	}
	seed := set.Seed
	set.Unlock()
	if fresh && !conf.ReadOnly {
		if err := conf.Provider.SaveSettings(set); err != nil {
			return nil, fmt.Errorf("save world settings: %w", err)
		}
	}

	gen, err := conf.Generator(seed)
	if err != nil {
		return nil, fmt.Errorf("create generator: %w", err)
	}
	redstone.SetPropagation(conf.Propagation)
	sys := conf.Redstone.New()

	w := world.Config{
		Log:          conf.Log.With("component", "world"),
		Registry:     block.Registry(),
		Range:        conf.Range,
		ReadOnly:     conf.ReadOnly,
		Provider:     conf.Provider,
		Generator:    gen,
		Updater:      sys,
		Observers:    []world.ChunkObserver{sys},
		TickInterval: max(conf.TickInterval, 0),
	}.New()

	conf.Log.Debug("Created world.", "name", w.Name(), "seed", seed, "propagation", conf.Propagation)
	return &Server{conf: conf, world: w, redstone: sys}, nil
}

// overworldGenerator returns a Config.Generator that creates Overworld
// generators resolving biomes with tree.
func overworldGenerator(tree *biome.Tree) func(seed int64) (world.Generator, error) {
	return func(seed int64) (world.Generator, error) {
		src, err := biome.NewSource(seed, tree)
		if err != nil {
			return nil, err
		}
		return generator.NewOverworldFrom(seed, src, block.Registry())
	}
}

// flatGenerator is a Config.Generator that creates the default Flat
// generator.
func flatGenerator(int64) (world.Generator, error) {
	return generator.DefaultFlat(), nil
}

// UserConfig is the user configuration for a voxelcore server. It holds
// settings that affect different aspects of the server, such as its world and
// redstone. UserConfig may be serialised and can be converted to a Config by
// calling UserConfig.Config().
type UserConfig struct {
	Server struct {
		// TicksPerSecond is the amount of ticks the world runs per second.
		TicksPerSecond int
		// AutoSaveSeconds is the time in seconds between two automatic saves
		// of the world. Set to 0 to only save when the server stops.
		AutoSaveSeconds int
	}
	World struct {
		// Name is the name of a newly created world.
		Name string
		// SaveData controls whether a world's data will be saved and loaded.
		// If true, the server will use the LevelDB data provider and if
		// false, an empty provider will be used.
		SaveData bool
		// Folder is the folder that the data of the world resides in.
		Folder string
		// ReadOnly opens the world without ever writing to it.
		ReadOnly bool
		// Compression is the zstd level chunks are stored with: "fastest",
		// "default", "better" or "best".
		Compression string
		// Seed controls the terrain of a newly created world.
		Seed int64
		// Generator is the generator of the world: "overworld" or "flat".
		Generator string
		// ClimateFile is an optional path to a climate parameter list (.toml,
		// .json or zstd compressed .zst) that replaces the biome layout of
		// the overworld generator.
		ClimateFile string
		// SpawnRadius is the radius in chunks of the area around spawn that
		// is kept loaded.
		SpawnRadius int
		// ForceLoadFile is the path to the TOML file that stores the chunks
		// that are always loaded.
		ForceLoadFile string
	}
	Redstone struct {
		// Propagation is the way redstone wire spreads power: "two-ring" or
		// "turbo".
		Propagation string
		// InboxSize is the amount of neighbour updates queued per chunk before
		// updates are coalesced.
		InboxSize int
		// BudgetPerTick is the amount of neighbour updates a chunk runs per
		// round.
		BudgetPerTick int
		// MaxRounds is the amount of rounds run per tick.
		MaxRounds int
	}
}

// Config converts a UserConfig to a Config, so that it may be used for creating
// a Server. An error is returned if creating the data provider or loading one
// of the referenced files failed.
func (uc UserConfig) Config(log *slog.Logger) (Config, error) {
	if log == nil {
		log = slog.Default()
	}
	conf := Config{
		Log:         log,
		Name:        uc.World.Name,
		ReadOnly:    uc.World.ReadOnly,
		Seed:        uc.World.Seed,
		SpawnRadius: uc.World.SpawnRadius,
		Redstone: redstone.Config{
			InboxSize:     uc.Redstone.InboxSize,
			BudgetPerTick: uc.Redstone.BudgetPerTick,
			MaxRounds:     uc.Redstone.MaxRounds,
		},
	}
	if uc.Server.TicksPerSecond > 0 {
		conf.TickInterval = time.Second / time.Duration(uc.Server.TicksPerSecond)
	}
	if uc.Server.AutoSaveSeconds > 0 {
		conf.SaveInterval = time.Duration(uc.Server.AutoSaveSeconds) * time.Second
	}

	var err error
	if conf.Propagation, err = redstone.ParsePropagation(strings.ToLower(strings.TrimSpace(uc.Redstone.Propagation))); err != nil {
		return conf, err
	}
	if file := strings.TrimSpace(uc.World.ClimateFile); file != "" {
		if conf.Climate, err = biome.TreeFromFile(file); err != nil {
			return conf, fmt.Errorf("load climate file: %w", err)
		}
	}
	switch name := strings.ToLower(strings.TrimSpace(uc.World.Generator)); name {
	case "", "overworld", "default":
	case "flat":
		conf.Generator = flatGenerator
	default:
		return conf, fmt.Errorf("unknown generator %q", name)
	}
	if file := strings.TrimSpace(uc.World.ForceLoadFile); file != "" {
		if conf.ForceLoaded, err = LoadChunkList(file); err != nil {
			return conf, fmt.Errorf("load force loaded chunks: %w", err)
		}
	}
	if uc.World.SaveData {
		level := zstd.SpeedDefault
		if c := strings.TrimSpace(uc.World.Compression); c != "" {
			ok, l := zstd.EncoderLevelFromString(c)
			if !ok {
				return conf, fmt.Errorf("unknown compression level %q", c)
			}
			level = l
		}
		conf.Provider, err = mcdb.Config{
			Log:              log,
			Registry:         block.Registry(),
			ReadOnly:         uc.World.ReadOnly,
			CompressionLevel: level,
		}.Open(uc.World.Folder)
		if err != nil {
			return conf, fmt.Errorf("create world provider: %w", err)
		}
	}
	return conf, nil
}

// DefaultConfig returns a configuration with the default values filled out.
func DefaultConfig() UserConfig {
	c := UserConfig{}
	c.Server.TicksPerSecond = 20
	c.Server.AutoSaveSeconds = 300
	c.World.Name = "World"
	c.World.SaveData = true
	c.World.Folder = "world"
	c.World.Compression = "default"
	c.World.Generator = "overworld"
	c.World.SpawnRadius = 2
	c.World.ForceLoadFile = "forceload.toml"
	c.Redstone.Propagation = redstone.PropagationTwoRing.String()
	return c
}

// LoadUserConfig reads the UserConfig stored in the TOML file at path. Fields
// missing from the file keep their default value. If the file does not exist,
// it is created holding DefaultConfig.
func LoadUserConfig(path string) (UserConfig, error) {
	c := DefaultConfig()
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		encoded, err := toml.Marshal(c)
		if err != nil {
			return c, fmt.Errorf("encode default config: %w", err)
		}
		if err := os.WriteFile(path, encoded, 0644); err != nil {
			return c, fmt.Errorf("write default config: %w", err)
		}
		return c, nil
	} else if err != nil {
		return c, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(data, &c); err != nil {
		return c, fmt.Errorf("decode config: %w", err)
	}
	return c, nil
}
