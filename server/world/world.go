package world

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/df-mc/goleveldb/leveldb"
	"github.com/dm-vev/voxelcore/server/block/cube"
	"github.com/google/uuid"
)

// ErrChunkNotLoaded is returned when a chunk is accessed that is not loaded.
var ErrChunkNotLoaded = errors.New("world: chunk not loaded")

// World implements a voxel world: a grid of block states split into columns
// of 16x16 blocks. World ensures that all its methods are safe for
// simultaneous calls. Reads take a shared lock and writes an exclusive one,
// but no lock is held while block behaviour runs, so a chain of changes is
// not atomic: concurrent changes to the same position are resolved as
// last-write-wins.
type World struct {
	conf Config
	ra   cube.Range
	reg  *Registry
	set  *Settings

	mu sync.RWMutex
	// columns holds the columns currently loaded.
	columns map[ChunkPos]*Column

	tickMu sync.Mutex
	// ticks holds block ticks scheduled through ScheduleTick.
	ticks *scheduledTickQueue

	lmu       sync.RWMutex
	observers []ChunkObserver
	listeners []BlockListener

	tps atomic.Uint64

	o       sync.Once
	closing chan struct{}
	running sync.WaitGroup
}

// New creates a new World with the default Config: an empty void World that
// does not store anything on disk and does not tick by itself.
func New() *World {
	var conf Config
	return conf.New()
}

// Registry returns the block Registry of the World.
func (w *World) Registry() *Registry {
	return w.reg
}

// Range returns the vertical range in blocks of the World.
func (w *World) Range() cube.Range {
	return w.ra
}

// Name returns the display name of the World.
func (w *World) Name() string {
	w.set.Lock()
	defer w.set.Unlock()
	return w.set.Name
}

// ID returns the unique ID of the World.
func (w *World) ID() uuid.UUID {
	w.set.Lock()
	defer w.set.Unlock()
	return w.set.ID
}

// Seed returns the seed of the World.
func (w *World) Seed() int64 {
	w.set.Lock()
	defer w.set.Unlock()
	return w.set.Seed
}

// Spawn returns the spawn position of the World.
func (w *World) Spawn() cube.Pos {
	w.set.Lock()
	defer w.set.Unlock()
	return w.set.Spawn
}

// CurrentTick returns the current tick counter of the World.
func (w *World) CurrentTick() int64 {
	w.set.Lock()
	defer w.set.Unlock()
	return w.set.CurrentTick
}

// TPS returns the current average ticks per second of the World. It is zero
// until the World ticked by itself for a while.
func (w *World) TPS() float64 {
	return math.Float64frombits(w.tps.Load())
}

// BlockState returns the block state at pos. Positions in chunks that are not
// loaded and positions outside of the range of the World hold air.
func (w *World) BlockState(pos cube.Pos) StateID {
	if pos.OutOfBounds(w.ra) {
		return 0
	}
	w.mu.RLock()
	defer w.mu.RUnlock()
	c, ok := w.columns[chunkPosFromBlockPos(pos)]
	if !ok {
		return 0
	}
	return c.Block(uint8(pos[0]), pos[1], uint8(pos[2]))
}

// BlockAndState returns the block and the block state at pos.
func (w *World) BlockAndState(pos cube.Pos) (*Block, StateID) {
	st := w.BlockState(pos)
	return w.reg.BlockOf(st), st
}

// Block returns the block at pos.
func (w *World) Block(pos cube.Pos) *Block {
	return w.reg.BlockOf(w.BlockState(pos))
}

// Solid reports if the block at pos is a solid block that conducts redstone
// power.
func (w *World) Solid(pos cube.Pos) bool {
	return w.reg.Solid(w.BlockState(pos))
}

// SideSolid reports if the face passed of the block at pos is a full solid
// square.
func (w *World) SideSolid(pos cube.Pos, face cube.Face) bool {
	return w.reg.SideSolid(w.BlockState(pos), face)
}

// Biome returns the biome ID at pos, or 0 if the chunk is not loaded.
func (w *World) Biome(pos cube.Pos) uint8 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	c, ok := w.columns[chunkPosFromBlockPos(pos)]
	if !ok {
		return 0
	}
	return c.Biome(uint8(pos[0]), pos[1], uint8(pos[2]))
}

// SetBlockState sets the block state at pos. The chunk at pos is loaded or
// generated first if needed. The flags control which updates follow the
// change. SetBlockState returns false if the state at pos was already st or
// if it could not be set.
//
// If the state changed, the old block is told it was replaced and the new one
// that it was placed, after which listeners and neighbours are notified and
// neighbours update their shape, depending on the flags.
func (w *World) SetBlockState(pos cube.Pos, st StateID, flags SetFlags) bool {
	return w.setBlockState(pos, st, flags, maxUpdateDepth)
}

func (w *World) setBlockState(pos cube.Pos, st StateID, flags SetFlags, depth int) bool {
	if pos.OutOfBounds(w.ra) {
		return false
	}
	chunkPos := chunkPosFromBlockPos(pos)

	w.mu.Lock()
	c, loaded, err := w.columnLocked(chunkPos)
	if err != nil {
		w.mu.Unlock()
		w.conf.Log.Error("load chunk: "+err.Error(), "X", chunkPos[0], "Z", chunkPos[1])
		return false
	}
	old := c.SetBlock(uint8(pos[0]), pos[1], uint8(pos[2]), st)
	w.mu.Unlock()

	if loaded {
		w.notifyLoaded(chunkPos)
	}
	if old == st {
		return false
	}

	oldBlock, newBlock := w.reg.BlockOf(old), w.reg.BlockOf(st)
	moved := flags&Moved != 0
	if flags&SkipReplacedCallback == 0 && oldBlock.Behaviour.OnReplaced != nil {
		oldBlock.Behaviour.OnReplaced(w, pos, oldBlock, old, st, moved)
	}
	if flags&SkipPlacedCallback == 0 && newBlock.Behaviour.OnPlaced != nil {
		newBlock.Behaviour.OnPlaced(w, pos, newBlock, st, old, moved)
	}
	if flags&NotifyListeners != 0 {
		w.lmu.RLock()
		for _, l := range w.listeners {
			l.BlockChanged(pos, old, st)
		}
		w.lmu.RUnlock()
	}
	if flags&NotifyNeighbours != 0 {
		w.UpdateNeighbours(pos)
	}
	if flags&SkipShapeUpdate == 0 && depth > 0 {
		next := flags &^ NotifyNeighbours
		if oldBlock.Behaviour.Prepare != nil {
			oldBlock.Behaviour.Prepare(w, pos, oldBlock, old, next, depth-1)
		}
		for _, face := range cube.ShapeUpdateOrder() {
			w.UpdateShape(pos.Side(face), face.Opposite(), pos, next, depth-1)
		}
		if newBlock.Behaviour.Prepare != nil {
			newBlock.Behaviour.Prepare(w, pos, newBlock, st, next, depth-1)
		}
	}
	return true
}

// UpdateShape lets the block at pos update its shape after the block at source,
// towards face, changed. If the new shape is air, the block is broken.
func (w *World) UpdateShape(pos cube.Pos, face cube.Face, source cube.Pos, flags SetFlags, depth int) {
	b, st := w.BlockAndState(pos)
	if b.Behaviour.ShapeUpdate == nil {
		return
	}
	next := b.Behaviour.ShapeUpdate(w, pos, b, st, face, source, w.BlockState(source))
	switch {
	case next == st:
	case next == 0:
		w.setBlockState(pos, 0, NotifyAll, depth)
	default:
		w.setBlockState(pos, next, flags&^(SkipReplacedCallback|SkipPlacedCallback), depth)
	}
}

// Place places the state passed at pos the way a player would: the block may
// adjust the state to its surroundings first, and it is not placed if the
// block at pos cannot be replaced or if the block cannot survive at pos.
func (w *World) Place(pos cube.Pos, st StateID) bool {
	if pos.OutOfBounds(w.ra) || !w.Block(pos).Replaceable {
		return false
	}
	b := w.reg.BlockOf(st)
	if b.Behaviour.PlacementState != nil {
		st = b.Behaviour.PlacementState(w, pos, b, st)
	}
	if b.Behaviour.CanSurvive != nil && !b.Behaviour.CanSurvive(w, pos, b, st) {
		return false
	}
	return w.SetBlockState(pos, st, NotifyAll)
}

// Break replaces the block at pos with air. It returns false if there was
// nothing to break.
func (w *World) Break(pos cube.Pos) bool {
	if w.BlockState(pos) == 0 {
		return false
	}
	return w.SetBlockState(pos, 0, NotifyAll)
}

// Use uses the block at pos, for example toggling a lever. It returns false
// if the block cannot be used.
func (w *World) Use(pos cube.Pos) bool {
	b, st := w.BlockAndState(pos)
	if b.Behaviour.Use == nil {
		return false
	}
	return b.Behaviour.Use(w, pos, b, st)
}

// NeighbourChanged runs the neighbour update of the block at pos that was
// caused by a change at source. Blocks that can no longer survive are broken.
func (w *World) NeighbourChanged(pos, source cube.Pos) {
	b, st := w.BlockAndState(pos)
	if b.Behaviour.NeighbourChanged != nil {
		b.Behaviour.NeighbourChanged(w, pos, b, st, source)
		return
	}
	if b.Behaviour.CanSurvive != nil && !b.Behaviour.CanSurvive(w, pos, b, st) {
		w.Break(pos)
	}
}

// UpdateNeighbours issues a neighbour update to the six blocks around pos.
func (w *World) UpdateNeighbours(pos cube.Pos) {
	for _, face := range cube.UpdateOrder() {
		w.conf.Updater.UpdateNeighbour(w, pos.Side(face), pos)
	}
}

// UpdateNeighboursExcept issues a neighbour update to the blocks around pos,
// except for the block at the face passed.
func (w *World) UpdateNeighboursExcept(pos cube.Pos, except cube.Face) {
	for _, face := range cube.UpdateOrder() {
		if face != except {
			w.conf.Updater.UpdateNeighbour(w, pos.Side(face), pos)
		}
	}
}

// UpdateNeighbour issues a neighbour update to the block at pos because the
// block at source changed.
func (w *World) UpdateNeighbour(pos, source cube.Pos) {
	w.conf.Updater.UpdateNeighbour(w, pos, source)
}

// Observe adds a ChunkObserver to the World. The observer is told about all
// chunks that are already loaded right away.
func (w *World) Observe(o ChunkObserver) {
	w.lmu.Lock()
	w.observers = append(w.observers, o)
	w.lmu.Unlock()
	for _, pos := range w.LoadedChunks() {
		o.ChunkLoaded(pos)
	}
}

// Listen adds a BlockListener to the World.
func (w *World) Listen(l BlockListener) {
	w.lmu.Lock()
	defer w.lmu.Unlock()
	w.listeners = append(w.listeners, l)
}

// LoadChunk loads the chunk at pos from the Provider, or generates it if the
// Provider does not have it. Loading a chunk that is already loaded does
// nothing.
func (w *World) LoadChunk(pos ChunkPos) error {
	w.mu.Lock()
	_, loaded, err := w.columnLocked(pos)
	w.mu.Unlock()
	if err != nil {
		return fmt.Errorf("load chunk %v: %w", pos, err)
	}
	if loaded {
		w.notifyLoaded(pos)
	}
	return nil
}

// columnLocked returns the column at pos, loading it if needed. The bool
// returned is true if the column was newly loaded. w.mu must be held.
func (w *World) columnLocked(pos ChunkPos) (*Column, bool, error) {
	if c, ok := w.columns[pos]; ok {
		return c, false, nil
	}
	c, err := w.conf.Provider.LoadColumn(pos, w.ra)
	switch {
	case err == nil:
	case errors.Is(err, leveldb.ErrNotFound):
		c = NewColumn(w.ra)
		w.conf.Generator.GenerateColumn(pos, c)
		// Freshly generated columns are always saved.
		c.modified = true
	default:
		return nil, false, err
	}
	w.columns[pos] = c
	return c, true, nil
}

func (w *World) notifyLoaded(pos ChunkPos) {
	w.lmu.RLock()
	defer w.lmu.RUnlock()
	for _, o := range w.observers {
		o.ChunkLoaded(pos)
	}
}

// UnloadChunk saves the chunk at pos to the Provider and removes it from
// memory along with the ticks scheduled in it.
func (w *World) UnloadChunk(pos ChunkPos) error {
	w.mu.Lock()
	c, ok := w.columns[pos]
	if !ok {
		w.mu.Unlock()
		return ErrChunkNotLoaded
	}
	delete(w.columns, pos)
	err := w.saveColumn(pos, c)
	w.mu.Unlock()

	w.tickMu.Lock()
	w.ticks.removeChunk(pos)
	w.tickMu.Unlock()

	w.lmu.RLock()
	for _, o := range w.observers {
		o.ChunkUnloaded(pos)
	}
	w.lmu.RUnlock()
	return err
}

// ChunkLoaded checks if the chunk at pos is loaded.
func (w *World) ChunkLoaded(pos ChunkPos) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	_, ok := w.columns[pos]
	return ok
}

// LoadedChunks returns the positions of all loaded chunks, sorted by X, then
// Z.
func (w *World) LoadedChunks() []ChunkPos {
	w.mu.RLock()
	positions := make([]ChunkPos, 0, len(w.columns))
	for pos := range w.columns {
		positions = append(positions, pos)
	}
	w.mu.RUnlock()
	slices.SortFunc(positions, func(a, b ChunkPos) int {
		if a[0] != b[0] {
			return int(a[0]) - int(b[0])
		}
		return int(a[1]) - int(b[1])
	})
	return positions
}

// Chunk returns the column at pos, or ErrChunkNotLoaded if it is not loaded.
// The Column returned is owned by the World: it may be read while no other
// goroutine changes blocks in it.
func (w *World) Chunk(pos ChunkPos) (*Column, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	c, ok := w.columns[pos]
	if !ok {
		return nil, ErrChunkNotLoaded
	}
	return c, nil
}

// saveColumn stores the column passed if it was modified. w.mu must be held.
func (w *World) saveColumn(pos ChunkPos, c *Column) error {
	if w.conf.ReadOnly || !c.modified {
		return nil
	}
	c.Compact()
	if err := w.conf.Provider.StoreColumn(pos, c); err != nil {
		w.conf.Log.Error("save chunk: "+err.Error(), "X", pos[0], "Z", pos[1])
		return fmt.Errorf("save chunk %v: %w", pos, err)
	}
	c.modified = false
	return nil
}

// Save saves all modified chunks and the settings of the World to the
// Provider.
func (w *World) Save() error {
	if w.conf.ReadOnly {
		return nil
	}
	w.conf.Log.Debug("Saving chunks in memory to disk...")
	var errs []error
	w.mu.Lock()
	for pos, c := range w.columns {
		if err := w.saveColumn(pos, c); err != nil {
			errs = append(errs, err)
		}
	}
	w.mu.Unlock()

	w.conf.Log.Debug("Updating level.dat values...")
	if err := w.conf.Provider.SaveSettings(w.set); err != nil {
		errs = append(errs, fmt.Errorf("save settings: %w", err))
	}
	return errors.Join(errs...)
}

// Close stops the World from ticking, saves all chunks and settings to the
// Provider and closes the Provider.
func (w *World) Close() error {
	var err error
	w.o.Do(func() {
		close(w.closing)
		w.running.Wait()

		err = w.Save()
		w.conf.Log.Debug("Closing provider...")
		if cerr := w.conf.Provider.Close(); cerr != nil {
			w.conf.Log.Error("close world provider: " + cerr.Error())
			err = errors.Join(err, cerr)
		}
	})
	return err
}
