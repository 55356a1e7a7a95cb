package mcdb

import (
	"errors"
	"path/filepath"
	"slices"
	"testing"

	"github.com/df-mc/goleveldb/leveldb"
	"github.com/dm-vev/voxelcore/server/block"
	"github.com/dm-vev/voxelcore/server/block/cube"
	"github.com/dm-vev/voxelcore/server/world"
	"github.com/dm-vev/voxelcore/server/world/redstone"
)

func TestStoreAndLoadColumn(t *testing.T) {
	db := openTestDB(t, t.TempDir())
	r := cube.Range{-64, 319}

	wire := redstone.WireState{Sides: [4]redstone.Side{redstone.SideSide, redstone.SideUp}, Power: 7}.StateID()
	c := world.NewColumn(r)
	c.SetBlock(0, -64, 0, block.Bedrock.Default())
	c.SetBlock(3, 70, 9, block.Stone.Default())
	c.SetBlock(3, 71, 9, wire)
	c.SetBiome(3, 70, 9, 12)

	pos := world.ChunkPos{-3, 8}
	if err := db.StoreColumn(pos, c); err != nil {
		t.Fatalf("store column: %v", err)
	}
	got, err := db.LoadColumn(pos, r)
	if err != nil {
		t.Fatalf("load column: %v", err)
	}
	for _, tc := range []struct {
		x, z uint8
		y    int
		want world.StateID
	}{
		{0, 0, -64, block.Bedrock.Default()},
		{3, 9, 70, block.Stone.Default()},
		{3, 9, 71, wire},
		{3, 9, 72, 0},
	} {
		if st := got.Block(tc.x, tc.y, tc.z); st != tc.want {
			t.Fatalf("block at %v %v %v: expected %v, got %v", tc.x, tc.y, tc.z, tc.want, st)
		}
	}
	if b := got.Biome(3, 70, 9); b != 12 {
		t.Fatalf("expected biome 12, got %v", b)
	}
	if got.Modified() {
		t.Fatalf("expected a loaded column not to be marked modified")
	}
}

func TestLoadMissingColumn(t *testing.T) {
	db := openTestDB(t, t.TempDir())
	if _, err := db.LoadColumn(world.ChunkPos{1, 1}, cube.Range{0, 255}); !errors.Is(err, leveldb.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestEmptySubChunksRemoved(t *testing.T) {
	db := openTestDB(t, t.TempDir())
	r := cube.Range{0, 255}
	pos := world.ChunkPos{0, 0}

	c := world.NewColumn(r)
	c.SetBlock(1, 20, 1, block.Dirt.Default())
	if err := db.StoreColumn(pos, c); err != nil {
		t.Fatalf("store column: %v", err)
	}
	c.SetBlock(1, 20, 1, 0)
	if err := db.StoreColumn(pos, c); err != nil {
		t.Fatalf("store column: %v", err)
	}
	if _, err := db.ldb.Get(subChunkKey(pos, 1), nil); !errors.Is(err, leveldb.ErrNotFound) {
		t.Fatalf("expected empty sub chunk to be removed, got %v", err)
	}
}

func TestChecksumMismatch(t *testing.T) {
	db := openTestDB(t, t.TempDir())
	r := cube.Range{0, 255}
	pos := world.ChunkPos{2, -2}

	c := world.NewColumn(r)
	c.SetBlock(0, 0, 0, block.Stone.Default())
	if err := db.StoreColumn(pos, c); err != nil {
		t.Fatalf("store column: %v", err)
	}
	key := subChunkKey(pos, 0)
	b, err := db.ldb.Get(key, nil)
	if err != nil {
		t.Fatalf("read sub chunk: %v", err)
	}
	b[len(b)-1] ^= 0xff
	if err := db.ldb.Put(key, b, nil); err != nil {
		t.Fatalf("write sub chunk: %v", err)
	}
	if _, err := db.LoadColumn(pos, r); !errors.Is(err, ErrChecksum) {
		t.Fatalf("expected ErrChecksum, got %v", err)
	}
}

func TestSettingsPersist(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "overworld")
	db := openTestDB(t, dir)
	set, err := db.Settings()
	if err != nil {
		t.Fatalf("settings: %v", err)
	}
	if set.Name != "overworld" {
		t.Fatalf("expected new world to be named after its directory, got %q", set.Name)
	}
	set.Seed, set.CurrentTick, set.Spawn = -1234, 99, cube.Pos{5, 70, -5}
	if err := db.SaveSettings(set); err != nil {
		t.Fatalf("save settings: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	db = openTestDB(t, dir)
	got, err := db.Settings()
	if err != nil {
		t.Fatalf("settings: %v", err)
	}
	if got.ID != set.ID || got.Seed != -1234 || got.CurrentTick != 99 || got.Spawn != set.Spawn {
		t.Fatalf("settings not persisted: %+v", got)
	}
}

func TestReadOnly(t *testing.T) {
	dir := t.TempDir()
	db := openTestDB(t, dir)
	if err := db.StoreColumn(world.ChunkPos{}, world.NewColumn(cube.Range{0, 15})); err != nil {
		t.Fatalf("store column: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	ro, err := Config{Registry: block.Registry(), ReadOnly: true}.Open(dir)
	if err != nil {
		t.Fatalf("open read-only: %v", err)
	}
	t.Cleanup(func() { _ = ro.Close() })
	if err := ro.StoreColumn(world.ChunkPos{}, world.NewColumn(cube.Range{0, 15})); !errors.Is(err, ErrReadOnly) {
		t.Fatalf("expected ErrReadOnly, got %v", err)
	}
	if err := ro.SaveSettings(&world.Settings{}); !errors.Is(err, ErrReadOnly) {
		t.Fatalf("expected ErrReadOnly, got %v", err)
	}
}

func TestWorldPersistsThroughDB(t *testing.T) {
	dir := t.TempDir()
	pos := cube.Pos{20, 64, -7}

	db := openTestDB(t, dir)
	w := world.Config{Registry: block.Registry(), Provider: db}.New()
	w.SetBlockState(pos, block.RedstoneLamp.Default(), world.NotifyAll)
	if err := w.Close(); err != nil {
		t.Fatalf("close world: %v", err)
	}

	db = openTestDB(t, dir)
	positions, err := db.Columns()
	if err != nil {
		t.Fatalf("columns: %v", err)
	}
	if !slices.Contains(positions, world.ChunkPosOf(pos)) {
		t.Fatalf("expected column %v to be stored, got %v", world.ChunkPosOf(pos), positions)
	}
	w = world.Config{Registry: block.Registry(), Provider: db}.New()
	t.Cleanup(func() { _ = w.Close() })
	if err := w.LoadChunk(world.ChunkPosOf(pos)); err != nil {
		t.Fatalf("load chunk: %v", err)
	}
	if st := w.BlockState(pos); st != block.RedstoneLamp.Default() {
		t.Fatalf("expected lamp to be loaded back, got %v", w.Registry().Encode(st))
	}
}

func openTestDB(t *testing.T, dir string) *DB {
	t.Helper()
	db, err := Open(dir, block.Registry())
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}
