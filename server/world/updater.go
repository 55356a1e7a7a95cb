package world

import (
	"context"
	"log/slog"
	"sync"

	"github.com/dm-vev/voxelcore/server/block/cube"
)

// NeighbourUpdater decides when neighbour updates issued by a World are run.
// Implementations must eventually call World.NeighbourChanged for every
// update they accept, unless the position lies in a chunk that is no longer
// loaded.
type NeighbourUpdater interface {
	// UpdateNeighbour issues an update to the block at pos because the block
	// at source changed.
	UpdateNeighbour(w *World, pos, source cube.Pos)
	// Flush is called at the end of every tick of the World. Updaters that
	// defer updates run them here.
	Flush(ctx context.Context, w *World, tick int64) error
}

// neighbourUpdate represents a position that needs to be updated because of a
// neighbour that changed.
type neighbourUpdate struct {
	pos, neighbour cube.Pos
}

// ChainedUpdater is the default NeighbourUpdater of a World. Updates are run
// in the order they are issued. An update issued while another one is running
// is queued and run once the current one returns, so that updates never
// recurse. After Limit updates in a single chain, the remaining updates are
// dropped.
type ChainedUpdater struct {
	Limit int
	Log   *slog.Logger

	mu       sync.Mutex
	queue    []neighbourUpdate
	draining bool
}

// UpdateNeighbour ...
func (u *ChainedUpdater) UpdateNeighbour(w *World, pos, source cube.Pos) {
	u.mu.Lock()
	u.queue = append(u.queue, neighbourUpdate{pos: pos, neighbour: source})
	if u.draining {
		u.mu.Unlock()
		return
	}
	u.draining = true
	u.mu.Unlock()

	u.drain(w)
}

// drain runs queued updates until the queue is empty or the chain limit is
// reached.
func (u *ChainedUpdater) drain(w *World) {
	count := 0
	for {
		u.mu.Lock()
		if len(u.queue) == 0 {
			u.queue = u.queue[:0]
			u.draining = false
			u.mu.Unlock()
			return
		}
		if u.Limit > 0 && count >= u.Limit {
			dropped := len(u.queue)
			u.queue = u.queue[:0]
			u.draining = false
			u.mu.Unlock()
			if u.Log != nil {
				u.Log.Warn("Neighbour update chain limit reached.", "limit", u.Limit, "dropped", dropped)
			}
			return
		}
		update := u.queue[0]
		u.queue = u.queue[1:]
		u.mu.Unlock()

		w.NeighbourChanged(update.pos, update.neighbour)
		count++
	}
}

// Flush ...
func (u *ChainedUpdater) Flush(context.Context, *World, int64) error {
	return nil
}
