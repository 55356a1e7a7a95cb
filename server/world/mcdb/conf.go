package mcdb

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/df-mc/goleveldb/leveldb"
	"github.com/df-mc/goleveldb/leveldb/opt"
	"github.com/dm-vev/voxelcore/server/world"
	"github.com/klauspost/compress/zstd"
)

// Config holds the optional parameters of a DB.
type Config struct {
	// Log is the Logger used by the DB to log warnings such as unknown block
	// states found while loading chunks. If nil, slog.Default() is used.
	Log *slog.Logger
	// Registry is the block registry that stored block states are resolved
	// against. Registry must not be nil.
	Registry *world.Registry
	// ReadOnly opens the database without write access. StoreColumn and
	// SaveSettings return ErrReadOnly if set.
	ReadOnly bool
	// CompressionLevel is the zstd level that sub chunks are compressed with.
	// If zero, zstd.SpeedDefault is used.
	CompressionLevel zstd.EncoderLevel
	// LDBOptions holds LevelDB specific default options, such as the block
	// size or cache sizes.
	LDBOptions *opt.Options
}

// Open creates a new DB reading and writing from/to files under the path
// passed. If a world is present at the path, Open reads its settings. If no
// world is present, the directory is created.
func (conf Config) Open(dir string) (*DB, error) {
	if conf.Registry == nil {
		return nil, fmt.Errorf("open %v: nil block registry", dir)
	}
	if conf.Log == nil {
		conf.Log = slog.Default()
	}
	conf.Log = conf.Log.With("provider", "mcdb")
	if conf.CompressionLevel == 0 {
		conf.CompressionLevel = zstd.SpeedDefault
	}
	if conf.LDBOptions == nil {
		conf.LDBOptions = new(opt.Options)
	}
	// Sub chunks are compressed before they are written.
	conf.LDBOptions.Compression = opt.NoCompression
	conf.LDBOptions.ReadOnly = conf.ReadOnly
	if !conf.ReadOnly {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create world directory: %w", err)
		}
	}

	ldb, err := leveldb.OpenFile(dir, conf.LDBOptions)
	if err != nil {
		return nil, fmt.Errorf("open db: leveldb: %w", err)
	}
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(conf.CompressionLevel))
	if err != nil {
		_ = ldb.Close()
		return nil, fmt.Errorf("open db: zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		_ = ldb.Close()
		enc.Close()
		return nil, fmt.Errorf("open db: zstd decoder: %w", err)
	}
	return &DB{conf: conf, dir: dir, ldb: ldb, enc: enc, dec: dec}, nil
}
