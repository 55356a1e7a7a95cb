// Package mcdb implements a world.Provider that stores worlds in a LevelDB
// database. Sub chunks are stored by block name with a palette, compressed
// with zstd and protected by an xxhash checksum.
package mcdb

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/df-mc/goleveldb/leveldb"
	"github.com/dm-vev/voxelcore/server/block/cube"
	"github.com/dm-vev/voxelcore/server/world"
	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	"github.com/sandertv/gophertunnel/minecraft/nbt"
)

var (
	// ErrReadOnly is returned when writing to a DB opened with
	// Config.ReadOnly.
	ErrReadOnly = errors.New("mcdb: database is read-only")
	// ErrChecksum is returned when a stored sub chunk does not match its
	// checksum.
	ErrChecksum = errors.New("mcdb: sub chunk checksum mismatch")
	// ErrCorrupted is returned when a stored value cannot be decoded.
	ErrCorrupted = errors.New("mcdb: corrupted data")
)

// DB implements a world provider for the LevelDB database format used by the
// server. DB is safe for concurrent use.
type DB struct {
	conf Config
	dir  string
	ldb  *leveldb.DB
	enc  *zstd.Encoder
	dec  *zstd.Decoder

	once     sync.Once
	closeErr error
}

// Compile time check to make sure DB implements world.Provider.
var _ world.Provider = (*DB)(nil)

// Open creates a new DB reading and writing from/to files under the path
// passed, using the default Config with the block registry passed.
func Open(dir string, reg *world.Registry) (*DB, error) {
	return Config{Registry: reg}.Open(dir)
}

// settingsData is the NBT layout of world.Settings.
type settingsData struct {
	ID          string `nbt:"ID"`
	Name        string `nbt:"LevelName"`
	Seed        int64  `nbt:"RandomSeed"`
	SpawnX      int32  `nbt:"SpawnX"`
	SpawnY      int32  `nbt:"SpawnY"`
	SpawnZ      int32  `nbt:"SpawnZ"`
	CurrentTick int64  `nbt:"currentTick"`
}

// Settings returns the world.Settings of the world loaded by the DB. A world
// without settings gets a new ID and the name of its directory.
func (db *DB) Settings() (*world.Settings, error) {
	b, err := db.ldb.Get(keySettings, nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return &world.Settings{
			ID:    uuid.New(),
			Name:  filepath.Base(db.dir),
			Spawn: cube.Pos{0, 80, 0},
		}, nil
	} else if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}
	var data settingsData
	if err := nbt.UnmarshalEncoding(b, &data, nbt.LittleEndian); err != nil {
		return nil, fmt.Errorf("decode settings: %w: %w", ErrCorrupted, err)
	}
	id, err := uuid.Parse(data.ID)
	if err != nil {
		id = uuid.New()
		db.conf.Log.Warn("Invalid world ID, generated a new one.", "stored", data.ID, "id", id)
	}
	return &world.Settings{
		ID:          id,
		Name:        data.Name,
		Seed:        data.Seed,
		Spawn:       cube.Pos{int(data.SpawnX), int(data.SpawnY), int(data.SpawnZ)},
		CurrentTick: data.CurrentTick,
	}, nil
}

// SaveSettings saves the world.Settings passed to the DB.
func (db *DB) SaveSettings(s *world.Settings) error {
	if db.conf.ReadOnly {
		return ErrReadOnly
	}
	s.Lock()
	data := settingsData{
		ID:          s.ID.String(),
		Name:        s.Name,
		Seed:        s.Seed,
		SpawnX:      int32(s.Spawn[0]),
		SpawnY:      int32(s.Spawn[1]),
		SpawnZ:      int32(s.Spawn[2]),
		CurrentTick: s.CurrentTick,
	}
	s.Unlock()
	b, err := nbt.MarshalEncoding(data, nbt.LittleEndian)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := db.ldb.Put(keySettings, b, nil); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}

// LoadColumn reads a world.Column from the DB at a position and dimension
// range. If no column at that position exists, an error is returned for which
// errors.Is(err, leveldb.ErrNotFound) holds.
func (db *DB) LoadColumn(pos world.ChunkPos, r cube.Range) (*world.Column, error) {
	if _, err := db.ldb.Get(versionKey(pos), nil); err != nil {
		return nil, fmt.Errorf("load column %v: %w", pos, err)
	}
	c := world.NewColumn(r)
	for i := range c.Sub() {
		b, err := db.ldb.Get(subChunkKey(pos, int8(c.SubY(i)>>4)), nil)
		if errors.Is(err, leveldb.ErrNotFound) {
			continue
		} else if err != nil {
			return nil, fmt.Errorf("load column %v: sub chunk %d: %w", pos, i, err)
		}
		if err := db.decodeSubChunk(b, c.SubChunk(i)); err != nil {
			return nil, fmt.Errorf("load column %v: sub chunk %d: %w", pos, i, err)
		}
	}
	c.MarkSaved()
	return c, nil
}

// StoreColumn stores a world.Column at a position. Empty sub chunks are
// removed from the DB.
func (db *DB) StoreColumn(pos world.ChunkPos, c *world.Column) error {
	if db.conf.ReadOnly {
		return ErrReadOnly
	}
	batch := new(leveldb.Batch)
	batch.Put(versionKey(pos), []byte{chunkVersion})
	for i, s := range c.Sub() {
		key := subChunkKey(pos, int8(c.SubY(i)>>4))
		if s == nil || s.Empty() {
			batch.Delete(key)
			continue
		}
		b, err := db.encodeSubChunk(s)
		if err != nil {
			return fmt.Errorf("store column %v: sub chunk %d: %w", pos, i, err)
		}
		batch.Put(key, b)
	}
	if err := db.ldb.Write(batch, nil); err != nil {
		return fmt.Errorf("store column %v: %w", pos, err)
	}
	return nil
}

// Columns returns the positions of all columns stored in the DB.
func (db *DB) Columns() ([]world.ChunkPos, error) {
	it := db.ldb.NewIterator(nil, nil)
	defer it.Release()

	var positions []world.ChunkPos
	for it.Next() {
		if pos, ok := parseVersionKey(it.Key()); ok {
			positions = append(positions, pos)
		}
	}
	if err := it.Error(); err != nil {
		return nil, fmt.Errorf("iterate columns: %w", err)
	}
	return positions, nil
}

// Close closes the DB. The DB must not be used after it is closed. Closing a
// DB more than once returns the result of the first call.
func (db *DB) Close() error {
	db.once.Do(func() {
		_ = db.enc.Close()
		db.dec.Close()
		if err := db.ldb.Close(); err != nil {
			db.closeErr = fmt.Errorf("close db: %w", err)
		}
	})
	return db.closeErr
}
