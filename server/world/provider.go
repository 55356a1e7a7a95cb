package world

import (
	"io"
	"sync"

	"github.com/df-mc/goleveldb/leveldb"
	"github.com/dm-vev/voxelcore/server/block/cube"
	"github.com/google/uuid"
)

// Provider represents a value that may provide world data to a World value.
// It usually does the reading and writing of the world data so that the World
// may use it.
type Provider interface {
	io.Closer
	// Settings loads the settings of the World. If no settings were saved
	// yet, a Settings value with defaults is returned.
	Settings() (*Settings, error)
	// SaveSettings saves the settings of a World.
	SaveSettings(*Settings) error
	// LoadColumn reads a Column from the provider. If no Column is stored at
	// the position passed, LoadColumn returns an error for which
	// errors.Is(err, leveldb.ErrNotFound) holds.
	LoadColumn(pos ChunkPos, r cube.Range) (*Column, error)
	// StoreColumn stores a Column at a specific position in the provider.
	StoreColumn(pos ChunkPos, c *Column) error
}

// Settings holds the settings of a World. These are typically saved to a
// level.dat file. It is safe to pass the same Settings to multiple worlds,
// in which case the Settings are synchronised between them.
type Settings struct {
	sync.Mutex
	// ID uniquely identifies the world. A new ID is drawn when a world is
	// first created.
	ID uuid.UUID
	// Name is the display name of the World.
	Name string
	// Seed is the seed that terrain, biomes and structures are generated
	// from.
	Seed int64
	// Spawn is the spawn position of the World.
	Spawn cube.Pos
	// CurrentTick is the current tick of the world. This is similar to the
	// Time, except that it has no visible effect to the client. It can also
	// not be changed through commands and will only ever go up.
	CurrentTick int64
}

// defaultSettings returns the settings of a newly created world.
func defaultSettings() *Settings {
	return &Settings{ID: uuid.New(), Name: "World", Spawn: cube.Pos{0, 80, 0}}
}

// NopProvider implements a Provider that does not perform any disk I/O. It
// generates values on the run and dynamically, instead of reading and writing
// data, and otherwise returns empty values. A Settings struct can be passed to
// initialise a world with specific settings. Since Settings is a pointer,
// using the same NopProvider for multiple worlds means those worlds will share
// the same settings.
type NopProvider struct {
	Set *Settings
}

// Compile time check to make sure NopProvider implements Provider.
var _ Provider = (*NopProvider)(nil)

func (n *NopProvider) Settings() (*Settings, error) {
	if n.Set == nil {
		n.Set = defaultSettings()
	}
	return n.Set, nil
}
func (*NopProvider) SaveSettings(*Settings) error { return nil }
func (*NopProvider) LoadColumn(ChunkPos, cube.Range) (*Column, error) {
	return nil, leveldb.ErrNotFound
}
func (*NopProvider) StoreColumn(ChunkPos, *Column) error { return nil }
func (*NopProvider) Close() error                        { return nil }

// Generator handles the generating of newly created chunks. Worlds have one
// generator which is used to generate chunks when the provider of the World
// cannot find a chunk at a given chunk position.
type Generator interface {
	// GenerateColumn generates a column at a chunk position passed. The
	// generator sets blocks in the Column that is passed to the method.
	GenerateColumn(pos ChunkPos, c *Column)
}

// NopGenerator is the default generator a World. It places no blocks in the
// World which results in a void World.
type NopGenerator struct{}

// GenerateColumn ...
func (NopGenerator) GenerateColumn(ChunkPos, *Column) {}

// ChunkObserver is notified when chunks of a World are loaded and unloaded.
type ChunkObserver interface {
	ChunkLoaded(pos ChunkPos)
	ChunkUnloaded(pos ChunkPos)
}

// BlockListener is notified of block changes set with the NotifyListeners
// flag.
type BlockListener interface {
	BlockChanged(pos cube.Pos, old, new StateID)
}
