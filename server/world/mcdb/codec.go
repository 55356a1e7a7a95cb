package mcdb

import (
	"encoding/binary"
	"fmt"

	"github.com/cespare/xxhash/v2"
	"github.com/dm-vev/voxelcore/server/world"
	"github.com/sandertv/gophertunnel/minecraft/nbt"
)

// subChunkData is the NBT layout of a stored sub chunk. Blocks holds an index
// into Palette for each of the 4096 blocks, x first, then z, then y.
type subChunkData struct {
	Version uint8          `nbt:"version"`
	Palette []paletteEntry `nbt:"palette"`
	Blocks  []int32        `nbt:"blocks"`
	Biomes  []byte         `nbt:"biomes"`
}

// paletteEntry is a block state stored by name, so that a sub chunk can be
// read back by a registry that numbers its states differently.
type paletteEntry struct {
	Name   string         `nbt:"name"`
	States map[string]any `nbt:"states"`
}

// checksumSize is the size of the xxhash checksum in front of every stored
// sub chunk.
const checksumSize = 8

// encodeSubChunk encodes a sub chunk into its NBT representation, compresses
// it and prefixes it with the checksum of the compressed data.
func (db *DB) encodeSubChunk(s *world.SubChunk) ([]byte, error) {
	palette, indices := s.Palette()
	biomes := s.Biomes()
	data := subChunkData{
		Version: chunkVersion,
		Palette: make([]paletteEntry, len(palette)),
		Blocks:  make([]int32, len(indices)),
		Biomes:  biomes[:],
	}
	for i, st := range palette {
		b := db.conf.Registry.BlockOf(st)
		states := make(map[string]any, len(b.Props))
		for k, v := range b.Properties(st) {
			states[k] = v
		}
		data.Palette[i] = paletteEntry{Name: b.Name, States: states}
	}
	for i, idx := range indices {
		data.Blocks[i] = int32(idx)
	}
	raw, err := nbt.MarshalEncoding(data, nbt.LittleEndian)
	if err != nil {
		return nil, fmt.Errorf("encode sub chunk: %w", err)
	}
	out := db.enc.EncodeAll(raw, make([]byte, checksumSize, checksumSize+len(raw)/4))
	binary.LittleEndian.PutUint64(out, xxhash.Sum64(out[checksumSize:]))
	return out, nil
}

// decodeSubChunk verifies and decodes a sub chunk encoded by encodeSubChunk
// into s. Block states that the registry does not know are replaced with
// air.
func (db *DB) decodeSubChunk(b []byte, s *world.SubChunk) error {
	if len(b) < checksumSize {
		return fmt.Errorf("decode sub chunk: %w", ErrCorrupted)
	}
	if binary.LittleEndian.Uint64(b) != xxhash.Sum64(b[checksumSize:]) {
		return fmt.Errorf("decode sub chunk: %w", ErrChecksum)
	}
	raw, err := db.dec.DecodeAll(b[checksumSize:], nil)
	if err != nil {
		return fmt.Errorf("decode sub chunk: decompress: %w", err)
	}
	var data subChunkData
	if err := nbt.UnmarshalEncoding(raw, &data, nbt.LittleEndian); err != nil {
		return fmt.Errorf("decode sub chunk: %w", err)
	}
	if data.Version != chunkVersion {
		return fmt.Errorf("decode sub chunk: unsupported version %v", data.Version)
	}
	var biomes [64]uint8
	if len(data.Biomes) != len(biomes) {
		return fmt.Errorf("decode sub chunk: expected %d biomes, got %d: %w", len(biomes), len(data.Biomes), ErrCorrupted)
	}
	copy(biomes[:], data.Biomes)

	palette := make([]world.StateID, len(data.Palette))
	for i, e := range data.Palette {
		props := make(map[string]string, len(e.States))
		for k, v := range e.States {
			props[k] = fmt.Sprint(v)
		}
		st, err := db.conf.Registry.State(e.Name, props)
		if err != nil {
			db.conf.Log.Warn("Unknown block state in sub chunk, using air.", "name", e.Name, "states", props, "err", err)
			continue
		}
		palette[i] = st
	}
	indices := make([]uint16, len(data.Blocks))
	for i, idx := range data.Blocks {
		if idx < 0 || int(idx) >= len(palette) {
			return fmt.Errorf("decode sub chunk: palette index %d out of range: %w", idx, ErrCorrupted)
		}
		indices[i] = uint16(idx)
	}
	return s.Load(palette, indices, biomes)
}
