package world

import (
	"errors"
	"slices"
	"sync"

	"github.com/dm-vev/voxelcore/server/block/cube"
)

// Loader keeps the chunks within a radius around a position loaded. Chunks
// are loaded nearest first by calling Load, and chunks that fall outside the
// radius after a call to Move are unloaded. A Loader is safe for concurrent
// use.
type Loader struct {
	r int
	w *World

	mu     sync.RWMutex
	pos    ChunkPos
	moved  bool
	queue  []ChunkPos
	loaded map[ChunkPos]struct{}
}

// NewLoader creates a Loader for w that loads chunks within a radius of r
// chunks. No chunks are loaded until Move and Load are called.
func NewLoader(r int, w *World) *Loader {
	return &Loader{r: max(r, 0), w: w, loaded: make(map[ChunkPos]struct{})}
}

// Radius returns the radius in chunks of the Loader.
func (l *Loader) Radius() int {
	return l.r
}

// Move moves the centre of the Loader to the block position passed. Loaded
// chunks that are no longer within the radius are unloaded and the chunks
// that still need loading are queued nearest first.
func (l *Loader) Move(pos cube.Pos) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	centre := ChunkPosOf(pos)
	if l.moved && centre == l.pos {
		return nil
	}
	l.pos, l.moved = centre, true

	var errs []error
	for p := range l.loaded {
		if !l.within(p) {
			delete(l.loaded, p)
			if err := l.w.UnloadChunk(p); err != nil && !errors.Is(err, ErrChunkNotLoaded) {
				errs = append(errs, err)
			}
		}
	}
	l.populateQueue()
	return errors.Join(errs...)
}

// Load loads up to n chunks from the queue of the Loader. The amount of
// chunks still queued is returned.
func (l *Loader) Load(n int) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i := 0; i < n && len(l.queue) > 0; i++ {
		pos := l.queue[0]
		if err := l.w.LoadChunk(pos); err != nil {
			return len(l.queue), err
		}
		l.queue = l.queue[1:]
		l.loaded[pos] = struct{}{}
	}
	return len(l.queue), nil
}

// Chunk reports if the chunk at pos was loaded by the Loader.
func (l *Loader) Chunk(pos ChunkPos) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.loaded[pos]
	return ok
}

// Chunks returns the amount of chunks loaded by the Loader.
func (l *Loader) Chunks() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.loaded)
}

// Close unloads all chunks loaded by the Loader.
func (l *Loader) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var errs []error
	for p := range l.loaded {
		if err := l.w.UnloadChunk(p); err != nil && !errors.Is(err, ErrChunkNotLoaded) {
			errs = append(errs, err)
		}
	}
	clear(l.loaded)
	l.queue = nil
	return errors.Join(errs...)
}

// within reports if pos lies within the radius of the Loader. l.mu must be
// held.
func (l *Loader) within(pos ChunkPos) bool {
	return l.distanceSq(pos) <= l.r*l.r
}

// populateQueue fills the queue with all chunks within the radius that are
// not yet loaded, sorted by distance to the centre. l.mu must be held.
func (l *Loader) populateQueue() {
	l.queue = l.queue[:0]
	for x := -l.r; x <= l.r; x++ {
		for z := -l.r; z <= l.r; z++ {
			pos := ChunkPos{l.pos[0] + int32(x), l.pos[1] + int32(z)}
			if _, ok := l.loaded[pos]; ok || !l.within(pos) {
				continue
			}
			l.queue = append(l.queue, pos)
		}
	}
	slices.SortStableFunc(l.queue, func(a, b ChunkPos) int {
		return l.distanceSq(a) - l.distanceSq(b)
	})
}

func (l *Loader) distanceSq(pos ChunkPos) int {
	dx, dz := int(pos[0]-l.pos[0]), int(pos[1]-l.pos[1])
	return dx*dx + dz*dz
}
