package redstone

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/dm-vev/voxelcore/server/block/cube"
	"github.com/dm-vev/voxelcore/server/world"
)

// System runs the neighbour updates of a World sharded by chunk. Updates are
// queued in the inbox of the chunk they target and run when the World
// flushes its updater at the end of a tick.
type System struct {
	log       *slog.Logger
	router    *Router
	scheduler *Scheduler
	metrics   *Metrics

	tick atomic.Int64
}

// Compile time checks to make sure System implements world.NeighbourUpdater
// and world.ChunkObserver.
var (
	_ world.NeighbourUpdater = (*System)(nil)
	_ world.ChunkObserver    = (*System)(nil)
)

// UpdateNeighbour queues a neighbour update for the chunk of pos. Updates for
// chunks that are not loaded are dropped.
func (s *System) UpdateNeighbour(_ *world.World, pos, source cube.Pos) {
	id := ChunkIDOf(pos)
	if res := s.router.Send(id, Event{Pos: pos, Source: source, Tick: s.tick.Load()}); res.Err != nil {
		s.log.Debug("Dropped neighbour update.", "chunkX", id.X, "chunkZ", id.Z, "err", res.Err)
	}
}

// Flush runs all queued neighbour updates and the updates they cause.
func (s *System) Flush(ctx context.Context, w *world.World, tick int64) error {
	s.tick.Store(tick)
	_, err := s.scheduler.Step(ctx, w, tick)
	return err
}

// ChunkLoaded starts a worker for the chunk.
func (s *System) ChunkLoaded(pos world.ChunkPos) {
	s.scheduler.RegisterChunk(chunkID(pos))
}

// ChunkUnloaded stops the worker of the chunk.
func (s *System) ChunkUnloaded(pos world.ChunkPos) {
	s.scheduler.UnregisterChunk(chunkID(pos))
}

// Pending reports if updates are queued for the chunk id.
func (s *System) Pending(id ChunkID) bool {
	return s.router.Pending(id)
}

// Chunks returns the number of chunks the System runs updates for.
func (s *System) Chunks() int {
	return s.scheduler.Chunks()
}

// Metrics returns the counters of the System.
func (s *System) Metrics() *Metrics {
	return s.metrics
}

// Close stops the workers of all chunks.
func (s *System) Close() error {
	s.scheduler.Close()
	return nil
}
