package redstone

import (
	"log/slog"
)

// Config holds the tunable parameters of a System. The zero value is usable;
// defaults are applied by withDefaults.
type Config struct {
	// Log is the Logger used for dropped events and failed steps. If nil,
	// slog.Default() is used.
	Log *slog.Logger
	// InboxSize controls the bounded inbox channel size of every chunk.
	InboxSize int
	// BudgetPerTick caps the number of events a chunk worker runs per round.
	BudgetPerTick int
	// MaxRounds caps the number of rounds run per tick. Events left after the
	// last round run in the next tick.
	MaxRounds int
	// ProcessorFactory produces the per-chunk processors that run events. If
	// nil, every chunk uses a NeighbourProcessor.
	ProcessorFactory ProcessorFactory
}

func (c Config) withDefaults() Config {
	if c.Log == nil {
		c.Log = slog.Default()
	}
	if c.InboxSize <= 0 {
		c.InboxSize = 4096
	}
	if c.BudgetPerTick <= 0 {
		c.BudgetPerTick = 8192
	}
	if c.MaxRounds <= 0 {
		c.MaxRounds = 64
	}
	if c.ProcessorFactory == nil {
		c.ProcessorFactory = ProcessorFactoryFunc(func(ChunkID) Processor { return NeighbourProcessor{} })
	}
	return c
}

// New builds a System from the Config. The System must be passed to the
// World both as its NeighbourUpdater and as one of its ChunkObservers.
func (c Config) New() *System {
	c = c.withDefaults()
	metrics := NewMetrics()
	router := NewRouter(RouterConfig{Logger: c.Log, Metrics: metrics})
	return &System{
		log:    c.Log,
		router: router,
		scheduler: NewScheduler(SchedulerConfig{
			Logger:           c.Log,
			Router:           router,
			InboxSize:        c.InboxSize,
			BudgetPerTick:    c.BudgetPerTick,
			MaxRounds:        c.MaxRounds,
			ProcessorFactory: c.ProcessorFactory,
			Metrics:          metrics,
		}),
		metrics: metrics,
	}
}
