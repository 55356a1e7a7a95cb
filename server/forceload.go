package server

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/dm-vev/voxelcore/server/world"
	"github.com/pelletier/go-toml"
)

// ErrChunkListUnavailable is returned when a ChunkList is used that was not
// configured.
var ErrChunkListUnavailable = errors.New("chunk list is not configured")

// ChunkList is a set of chunk positions that is persisted in a TOML file. The
// server uses it to keep chunks loaded regardless of the spawn area.
type ChunkList struct {
	mu       sync.RWMutex
	chunks   map[world.ChunkPos]struct{}
	filePath string
}

type chunkListFile struct {
	Chunks []chunkListEntry `toml:"chunk"`
}

type chunkListEntry struct {
	X int32 `toml:"x"`
	Z int32 `toml:"z"`
}

// LoadChunkList loads the chunk list stored in the file at the provided path.
// If the file does not exist yet, it will be created with an empty list.
func LoadChunkList(path string) (*ChunkList, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("chunk list path must not be empty")
	}
	l := &ChunkList{
		chunks:   make(map[world.ChunkPos]struct{}),
		filePath: path,
	}
	if err := l.reloadFromDisk(); err != nil {
		return nil, err
	}
	return l, nil
}

// Contains reports if pos is in the list.
func (l *ChunkList) Contains(pos world.ChunkPos) bool {
	if l == nil {
		return false
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.chunks[pos]
	return ok
}

// Add inserts pos into the list and writes the list to disk. The returned
// bool indicates if pos was newly added.
func (l *ChunkList) Add(pos world.ChunkPos) (bool, error) {
	if l == nil {
		return false, ErrChunkListUnavailable
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.chunks[pos]; exists {
		return false, nil
	}
	l.chunks[pos] = struct{}{}
	if err := l.writeLocked(); err != nil {
		delete(l.chunks, pos)
		return false, err
	}
	return true, nil
}

// Remove deletes pos from the list and writes the list to disk. The returned
// bool indicates if pos was present before the call.
func (l *ChunkList) Remove(pos world.ChunkPos) (bool, error) {
	if l == nil {
		return false, ErrChunkListUnavailable
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.chunks[pos]; !exists {
		return false, nil
	}
	delete(l.chunks, pos)
	if err := l.writeLocked(); err != nil {
		l.chunks[pos] = struct{}{}
		return false, err
	}
	return true, nil
}

// Chunks returns the positions in the list, sorted by x and then z.
func (l *ChunkList) Chunks() []world.ChunkPos {
	if l == nil {
		return nil
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.sortedLocked()
}

func (l *ChunkList) reloadFromDisk() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	data := chunkListFile{}
	contents, err := os.ReadFile(l.filePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			l.chunks = make(map[world.ChunkPos]struct{})
			return l.writeLocked()
		}
		return fmt.Errorf("read chunk list: %w", err)
	}
	if len(contents) != 0 {
		if err := toml.Unmarshal(contents, &data); err != nil {
			return fmt.Errorf("decode chunk list: %w", err)
		}
	}
	l.chunks = make(map[world.ChunkPos]struct{}, len(data.Chunks))
	for _, e := range data.Chunks {
		l.chunks[world.ChunkPos{e.X, e.Z}] = struct{}{}
	}
	return nil
}

func (l *ChunkList) writeLocked() error {
	dir := filepath.Dir(l.filePath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0777); err != nil {
			return fmt.Errorf("create chunk list directory: %w", err)
		}
	}
	sorted := l.sortedLocked()
	data := chunkListFile{Chunks: make([]chunkListEntry, len(sorted))}
	for i, pos := range sorted {
		data.Chunks[i] = chunkListEntry{X: pos[0], Z: pos[1]}
	}
	encoded, err := toml.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode chunk list: %w", err)
	}
	if err := os.WriteFile(l.filePath, encoded, 0644); err != nil {
		return fmt.Errorf("write chunk list: %w", err)
	}
	return nil
}

func (l *ChunkList) sortedLocked() []world.ChunkPos {
	positions := make([]world.ChunkPos, 0, len(l.chunks))
	for pos := range l.chunks {
		positions = append(positions, pos)
	}
	slices.SortFunc(positions, func(a, b world.ChunkPos) int {
		if a[0] != b[0] {
			return int(a[0]) - int(b[0])
		}
		return int(a[1]) - int(b[1])
	})
	return positions
}
