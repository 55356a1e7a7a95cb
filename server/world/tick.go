package world

import (
	"context"
	"maps"
	"math"
	"slices"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/dm-vev/voxelcore/server/block/cube"
)

// ticker implements World ticking methods.
type ticker struct {
	interval time.Duration
}

const (
	tpsSampleSize       = 20
	tpsWarningThreshold = 19.0
)

// tickLoop starts ticking the World every interval until the World is closed.
// The average TPS is measured over tpsSampleSize ticks and a warning is logged
// once when it drops below tpsWarningThreshold.
func (t ticker) tickLoop(w *World) {
	defer w.running.Done()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-w.closing
		cancel()
	}()

	tc := time.NewTicker(t.interval)
	defer tc.Stop()
	lastTick := time.Now()
	threshold := min(tpsWarningThreshold, float64(time.Second)/float64(t.interval)-1)
	var (
		durationSum time.Duration
		ticksCount  int
		warned      bool
	)
	for {
		select {
		case <-tc.C:
			tickStart := time.Now()
			duration := tickStart.Sub(lastTick)
			lastTick = tickStart
			if duration > 0 {
				durationSum += duration
				ticksCount++
				if ticksCount >= tpsSampleSize {
					avg := durationSum / time.Duration(ticksCount)
					tps := 1.0 / avg.Seconds()
					w.tps.Store(math.Float64bits(tps))
					if tps < threshold {
						if !warned {
							w.conf.Log.Warn("TPS dropped below threshold.", "tps", tps)
							warned = true
						}
					} else if warned {
						warned = false
					}
					durationSum = 0
					ticksCount = 0
				}
			}
			if err := w.Tick(ctx); err != nil && ctx.Err() == nil {
				w.conf.Log.Error("tick world: "+err.Error(), "tick", w.CurrentTick())
			}
		case <-w.closing:
			return
		}
	}
}

// scheduledTickQueue implements a queue for scheduled block updates. Scheduled
// block updates are both position and block type specific.
type scheduledTickQueue struct {
	ticks         []scheduledTick
	furthestTicks map[scheduledTickIndex]int64
	currentTick   int64
}

type scheduledTick struct {
	pos   cube.Pos
	b     *Block
	bhash uint64
	t     int64
}

type scheduledTickIndex struct {
	pos  cube.Pos
	hash uint64
}

// blockHash returns the hash that scheduled ticks of a block are identified by.
func blockHash(b *Block) uint64 {
	return xxhash.Sum64String(b.Name)
}

// newScheduledTickQueue creates a queue for scheduled block ticks.
func newScheduledTickQueue(tick int64) *scheduledTickQueue {
	return &scheduledTickQueue{furthestTicks: make(map[scheduledTickIndex]int64), currentTick: tick}
}

// due removes all ticks scheduled at or before the tick passed from the queue
// and returns them in the order they are to run.
func (queue *scheduledTickQueue) due(tick int64) []scheduledTick {
	queue.currentTick = tick

	var due []scheduledTick
	queue.ticks = slices.DeleteFunc(queue.ticks, func(t scheduledTick) bool {
		if t.t <= tick {
			due = append(due, t)
			return true
		}
		return false
	})
	maps.DeleteFunc(queue.furthestTicks, func(_ scheduledTickIndex, t int64) bool {
		return t <= tick
	})
	slices.SortStableFunc(due, func(a, b scheduledTick) int {
		return int(a.t - b.t)
	})
	return due
}

// schedule schedules a block update at the position passed for the block type
// passed after a specific delay in ticks. A block update is only scheduled if
// no block update with the same position and block type is already scheduled
// at a later time than the newly scheduled update.
func (queue *scheduledTickQueue) schedule(pos cube.Pos, b *Block, delay int64) {
	resTick := queue.currentTick + max(delay, 1)
	index := scheduledTickIndex{pos: pos, hash: blockHash(b)}
	if t, ok := queue.furthestTicks[index]; ok && t >= resTick {
		// Already have a tick scheduled for this position that will occur after
		// the delay passed. Block updates can only be scheduled if they are
		// after any currently scheduled updates.
		return
	}
	queue.furthestTicks[index] = resTick
	queue.ticks = append(queue.ticks, scheduledTick{pos: pos, t: resTick, b: b, bhash: index.hash})
}

// scheduled checks if a tick is pending for the block at the position passed.
func (queue *scheduledTickQueue) scheduled(pos cube.Pos, b *Block) bool {
	_, ok := queue.furthestTicks[scheduledTickIndex{pos: pos, hash: blockHash(b)}]
	return ok
}

// removeChunk removes all scheduled ticks positioned within a ChunkPos.
func (queue *scheduledTickQueue) removeChunk(pos ChunkPos) {
	queue.ticks = slices.DeleteFunc(queue.ticks, func(tick scheduledTick) bool {
		return chunkPosFromBlockPos(tick.pos) == pos
	})
	maps.DeleteFunc(queue.furthestTicks, func(index scheduledTickIndex, _ int64) bool {
		return chunkPosFromBlockPos(index.pos) == pos
	})
}

// len returns the amount of ticks in the queue.
func (queue *scheduledTickQueue) len() int {
	return len(queue.ticks)
}

// Tick advances the World by one tick: scheduled block ticks that are due are
// run, after which the NeighbourUpdater is flushed. Tick is called by the
// World itself if Config.TickInterval was set.
func (w *World) Tick(ctx context.Context) error {
	w.set.Lock()
	w.set.CurrentTick++
	tick := w.set.CurrentTick
	w.set.Unlock()

	w.tickMu.Lock()
	due := w.ticks.due(tick)
	w.tickMu.Unlock()

	for _, t := range due {
		if err := ctx.Err(); err != nil {
			return err
		}
		b, st := w.BlockAndState(t.pos)
		if b.Behaviour.ScheduledTick != nil && blockHash(b) == t.bhash {
			b.Behaviour.ScheduledTick(w, t.pos, b, st)
		}
	}
	return w.conf.Updater.Flush(ctx, w, tick)
}

// ScheduleTick schedules a tick for the block b at pos after delay ticks. The
// tick is dropped if the block at pos is no longer b by the time it is due.
func (w *World) ScheduleTick(pos cube.Pos, b *Block, delay int64) {
	if pos.OutOfBounds(w.ra) {
		return
	}
	w.tickMu.Lock()
	defer w.tickMu.Unlock()
	w.ticks.schedule(pos, b, delay)
}

// TickScheduled checks if a tick is pending for block b at pos.
func (w *World) TickScheduled(pos cube.Pos, b *Block) bool {
	w.tickMu.Lock()
	defer w.tickMu.Unlock()
	return w.ticks.scheduled(pos, b)
}

// PendingTicks returns the amount of scheduled ticks that did not yet run.
func (w *World) PendingTicks() int {
	w.tickMu.Lock()
	defer w.tickMu.Unlock()
	return w.ticks.len()
}
