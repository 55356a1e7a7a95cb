package world

import (
	"log/slog"
	"time"

	"github.com/dm-vev/voxelcore/server/block/cube"
)

// Config may be used to create a new World. It holds a variety of fields that
// influence the World.
type Config struct {
	// Log is the Logger that will be used to log errors and debug messages to.
	// If set to nil, slog.Default() is used.
	Log *slog.Logger
	// Registry holds the blocks that may be placed in the World. It is
	// finalised by New if it was not already. If nil, a Registry holding only
	// air is used.
	Registry *Registry
	// Range is the vertical range of the World. If left empty, the range of
	// the overworld, -64 to 319, is used.
	Range cube.Range
	// ReadOnly specifies if the World should be read-only, meaning no new data
	// will be written to the Provider.
	ReadOnly bool
	// Provider is the Provider implementation used to read and write data. If
	// set to nil, the Provider used will be NopProvider, which does not store
	// any data to disk.
	Provider Provider
	// Generator is the Generator used for the World. If set to nil, a
	// NopGenerator is used, which leaves newly created columns empty.
	Generator Generator
	// Updater processes neighbour updates. If nil, neighbour updates are
	// processed in place, in the order they were issued, as soon as the
	// change that caused them completes.
	Updater NeighbourUpdater
	// MaxChainedUpdates limits how many neighbour updates the default updater
	// runs as the result of a single change. If 0 or lower, 1000000 is used.
	MaxChainedUpdates int
	// Observers are notified when chunks are loaded and unloaded.
	Observers []ChunkObserver
	// Listeners are notified of block changes set with NotifyListeners.
	Listeners []BlockListener
	// TickInterval is the time between two ticks of the World. If 0, the World
	// does not tick by itself and Tick must be called by the owner. Negative
	// values are treated as 0.
	TickInterval time.Duration
}

// New creates a new World using the Config conf. The World returned will
// start ticking if conf.TickInterval is positive. Close must be called on the
// World when it is no longer used.
func (conf Config) New() *World {
	if conf.Log == nil {
		conf.Log = slog.Default()
	}
	if conf.Registry == nil {
		conf.Registry = NewRegistry()
	}
	conf.Registry.Finalise()
	if conf.Range == (cube.Range{}) {
		conf.Range = cube.Range{-64, 319}
	}
	if conf.Provider == nil {
		conf.Provider = &NopProvider{}
	}
	if conf.Generator == nil {
		conf.Generator = NopGenerator{}
	}
	if conf.MaxChainedUpdates <= 0 {
		conf.MaxChainedUpdates = 1000000
	}
	if conf.Updater == nil {
		conf.Updater = &ChainedUpdater{Limit: conf.MaxChainedUpdates, Log: conf.Log}
	}
	conf.TickInterval = max(conf.TickInterval, 0)

	set, err := conf.Provider.Settings()
	if err != nil {
		conf.Log.Error("load world settings: "+err.Error(), "fallback", "defaults")
		set = defaultSettings()
	}

	w := &World{
		conf:    conf,
		ra:      conf.Range,
		reg:     conf.Registry,
		set:     set,
		columns: make(map[ChunkPos]*Column),
		closing: make(chan struct{}),
	}
	w.observers = append(w.observers, conf.Observers...)
	w.listeners = append(w.listeners, conf.Listeners...)
	w.ticks = newScheduledTickQueue(set.CurrentTick)

	if conf.TickInterval > 0 {
		w.running.Add(1)
		go ticker{interval: conf.TickInterval}.tickLoop(w)
	}
	return w
}
