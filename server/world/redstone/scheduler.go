package redstone

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/dm-vev/voxelcore/server/world"
)

type SchedulerConfig struct {
	Logger           *slog.Logger
	Router           *Router
	InboxSize        int
	BudgetPerTick    int
	MaxRounds        int
	ProcessorFactory ProcessorFactory
	Metrics          *Metrics
}

// Scheduler steps chunk workers in a deterministic order. Chunks may be
// registered and unregistered from any goroutine, including from inside a
// Step.
type Scheduler struct {
	log *slog.Logger

	router *Router

	inboxSize     int
	budgetPerTick int
	maxRounds     int

	processorFactory ProcessorFactory

	mu      sync.Mutex
	chunks  map[ChunkID]*ChunkWorker
	order   []ChunkID
	dirty   bool
	retired []*ChunkWorker

	// stepMu serialises Step and guards the watchdog state.
	stepMu     sync.Mutex
	saturation map[ChunkID]int
	penalty    map[ChunkID]int

	metrics *Metrics
}

func NewScheduler(cfg SchedulerConfig) *Scheduler {
	if cfg.Router == nil {
		panic("redstone: scheduler requires router")
	}
	if cfg.ProcessorFactory == nil {
		cfg.ProcessorFactory = ProcessorFactoryFunc(func(id ChunkID) Processor { return NopProcessor{} })
	}
	if cfg.InboxSize <= 0 {
		cfg.InboxSize = 4096
	}
	if cfg.BudgetPerTick <= 0 {
		cfg.BudgetPerTick = 8192
	}
	if cfg.MaxRounds <= 0 {
		cfg.MaxRounds = 64
	}
	return &Scheduler{
		log:              cfg.Logger,
		router:           cfg.Router,
		inboxSize:        cfg.InboxSize,
		budgetPerTick:    cfg.BudgetPerTick,
		maxRounds:        cfg.MaxRounds,
		processorFactory: cfg.ProcessorFactory,
		chunks:           make(map[ChunkID]*ChunkWorker),
		order:            make([]ChunkID, 0, 16),
		saturation:       make(map[ChunkID]int),
		penalty:          make(map[ChunkID]int),
		metrics:          cfg.Metrics,
	}
}

// RegisterChunk installs a worker for the chunk id. Events sent to the chunk
// are accepted from the moment RegisterChunk returns.
func (s *Scheduler) RegisterChunk(id ChunkID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.chunks[id]; ok {
		return
	}
	s.chunks[id] = NewChunkWorker(WorkerConfig{
		Logger:    s.log,
		Router:    s.router,
		Chunk:     id,
		InboxSize: s.inboxSize,
		Processor: s.processorFactory.New(id),
	})
	s.dirty = true
	if s.metrics != nil {
		s.metrics.IncRegistrations(id)
		s.metrics.SetQueueSize(id, 0)
	}
}

// UnregisterChunk removes the worker for the chunk. Events still queued for
// the chunk are discarded. If a Step is running, the worker is stopped once
// the Step returns.
func (s *Scheduler) UnregisterChunk(id ChunkID) {
	s.mu.Lock()
	worker, ok := s.chunks[id]
	if !ok {
		s.mu.Unlock()
		return
	}
	worker.detach()
	delete(s.chunks, id)
	s.retired = append(s.retired, worker)
	s.dirty = true
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.SetQueueSize(id, 0)
	}
	if s.stepMu.TryLock() {
		s.reap()
		s.stepMu.Unlock()
	}
}

// Chunks returns the number of chunks with a worker.
func (s *Scheduler) Chunks() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.chunks)
}

// QueueLocal schedules a local event directly inside the worker.
func (s *Scheduler) QueueLocal(id ChunkID, ev Event) {
	s.mu.Lock()
	worker, ok := s.chunks[id]
	s.mu.Unlock()
	if ok {
		worker.EnqueueLocal(ev)
	}
}

// Close stops all workers.
func (s *Scheduler) Close() {
	s.stepMu.Lock()
	defer s.stepMu.Unlock()

	s.mu.Lock()
	for id, worker := range s.chunks {
		worker.detach()
		s.retired = append(s.retired, worker)
		delete(s.chunks, id)
	}
	s.order = s.order[:0]
	s.mu.Unlock()
	s.reap()
}

// reap stops retired workers. stepMu must be held.
func (s *Scheduler) reap() {
	s.mu.Lock()
	retired := s.retired
	s.retired = nil
	s.mu.Unlock()
	for _, worker := range retired {
		worker.Stop()
		delete(s.saturation, worker.id)
		delete(s.penalty, worker.id)
	}
}

// snapshot returns the workers in Morton order of their chunks.
func (s *Scheduler) snapshot() ([]ChunkID, []*ChunkWorker) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dirty {
		s.rebuildOrder()
	}
	workers := make([]*ChunkWorker, len(s.order))
	for i, id := range s.order {
		workers[i] = s.chunks[id]
	}
	return slices.Clone(s.order), workers
}

// Step runs the queued events of all workers for the tick. Workers are
// stepped one after another in Morton order. Events produced while stepping
// are run in further rounds, until a round runs no events or MaxRounds rounds
// were run. Step returns the number of rounds run.
func (s *Scheduler) Step(ctx context.Context, w *world.World, tick int64) (int, error) {
	s.stepMu.Lock()
	defer s.stepMu.Unlock()
	defer s.reap()

	rounds := 0
	for ; rounds < s.maxRounds; rounds++ {
		if err := ctx.Err(); err != nil {
			return rounds, err
		}
		ops, err := s.round(ctx, w, tick)
		if err != nil {
			return rounds + 1, err
		}
		if ops == 0 {
			break
		}
	}
	if rounds == s.maxRounds && s.log != nil {
		s.log.Warn("Redstone step hit round limit.", "tick", tick, "rounds", rounds)
	}
	if s.metrics != nil {
		s.metrics.AddRounds(rounds)
	}
	return rounds, nil
}

// round steps every worker once and returns the total number of events run.
func (s *Scheduler) round(ctx context.Context, w *world.World, tick int64) (int, error) {
	ids, workers := s.snapshot()
	if len(ids) == 0 {
		return 0, nil
	}
	hot := make(map[ChunkID]struct{}, len(ids)/4+1)
	for _, id := range s.router.SnapshotHot() {
		hot[id] = struct{}{}
	}
	total := 0
	for i, id := range ids {
		budget := s.budgetPerTick
		if _, isHot := hot[id]; isHot {
			budget += budget / 2
		}
		if penalty := s.penalty[id]; penalty > 0 {
			budget = max(1, budget>>penalty)
		}
		res := workers[i].Step(ctx, StepRequest{
			Tick:   tick,
			Budget: budget,
			World:  w,
		})
		if res.Err != nil {
			if s.log != nil {
				s.log.Error("Redstone step failed.", "chunkX", id.X, "chunkZ", id.Z, "err", res.Err)
			}
			return total, res.Err
		}
		total += res.Ops
		if s.metrics != nil {
			s.metrics.AddOps(id, uint64(res.Ops))
			s.metrics.SetQueueSize(id, res.QueueLen)
		}
		s.updateWatchdog(id, res.Ops, budget)
	}
	return total, nil
}

func (s *Scheduler) rebuildOrder() {
	s.order = s.order[:0]
	for id := range s.chunks {
		s.order = append(s.order, id)
	}
	slices.SortFunc(s.order, func(a, b ChunkID) int {
		switch ma, mb := a.Morton(), b.Morton(); {
		case ma < mb:
			return -1
		case ma > mb:
			return 1
		}
		return 0
	})
	s.dirty = false
}

func (s *Scheduler) updateWatchdog(id ChunkID, ops, budget int) {
	if budget <= 0 {
		return
	}
	if ops >= budget {
		s.saturation[id]++
		if s.saturation[id] >= 3 {
			if s.penalty[id] < 3 {
				s.penalty[id]++
			}
			s.saturation[id] = 0
		}
		return
	}
	s.saturation[id] = 0
	if s.penalty[id] > 0 {
		s.penalty[id]--
	}
}
