package biome

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pelletier/go-toml"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ErrInvalidClimate is returned when a climate parameter list is malformed.
var ErrInvalidClimate = errors.New("biome: invalid climate parameter list")

// ClimateRecord is one entry of a climate parameter list as it is stored on disk. Ranges hold two unquantized
// values, the minimum and the maximum.
type ClimateRecord struct {
	Biome           string    `toml:"biome" json:"biome"`
	Temperature     []float64 `toml:"temperature" json:"temperature"`
	Humidity        []float64 `toml:"humidity" json:"humidity"`
	Continentalness []float64 `toml:"continentalness" json:"continentalness"`
	Erosion         []float64 `toml:"erosion" json:"erosion"`
	Depth           []float64 `toml:"depth" json:"depth"`
	Weirdness       []float64 `toml:"weirdness" json:"weirdness"`
	Offset          float64   `toml:"offset" json:"offset,omitempty"`
}

// ClimateFile is the layout of a climate parameter list file.
type ClimateFile struct {
	Entries []ClimateRecord `toml:"entry" json:"entry"`
}

// Resolve resolves the biome names of the file through reg and quantizes all ranges.
func (f ClimateFile) Resolve(reg *Registry) ([]Entry, error) {
	if len(f.Entries) == 0 {
		return nil, ErrNoEntries
	}
	entries := make([]Entry, 0, len(f.Entries))
	for i, rec := range f.Entries {
		b, ok := reg.ByName(rec.Biome)
		if !ok {
			return nil, fmt.Errorf("entry %d: %w: %s", i, ErrUnknownBiome, rec.Biome)
		}
		e := Entry{Biome: b}
		for axis, r := range [...][]float64{rec.Temperature, rec.Humidity, rec.Continentalness, rec.Erosion, rec.Depth, rec.Weirdness} {
			if len(r) != 2 || r[0] > r[1] {
				return nil, fmt.Errorf("entry %d (%s): %w: axis %d range %v", i, rec.Biome, ErrInvalidClimate, axis, r)
			}
			e.Params[axis] = Span(r[0], r[1])
		}
		e.Params[AxisOffset] = Exact(rec.Offset)
		entries = append(entries, e)
	}
	return entries, nil
}

// ParseClimateTOML decodes a TOML climate parameter list.
func ParseClimateTOML(data []byte) (ClimateFile, error) {
	var f ClimateFile
	if err := toml.Unmarshal(data, &f); err != nil {
		return f, fmt.Errorf("decode climate table: %w", err)
	}
	return f, nil
}

//go:embed schema.json
var climateSchemaSource string

var (
	schemaOnce    sync.Once
	climateSchema *jsonschema.Schema
)

// ClimateSchema returns the compiled JSON schema that JSON climate parameter lists are validated against.
func ClimateSchema() *jsonschema.Schema {
	schemaOnce.Do(func() {
		climateSchema = jsonschema.MustCompileString("climate.schema.json", climateSchemaSource)
	})
	return climateSchema
}

// ParseClimateJSON validates data against the climate schema and decodes it.
func ParseClimateJSON(data []byte) (ClimateFile, error) {
	var f ClimateFile
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return f, fmt.Errorf("decode climate json: %w", err)
	}
	if err := ClimateSchema().Validate(doc); err != nil {
		return f, fmt.Errorf("%w: %v", ErrInvalidClimate, err)
	}
	if err := json.Unmarshal(data, &f); err != nil {
		return f, fmt.Errorf("decode climate json: %w", err)
	}
	return f, nil
}

// ReadCompressedClimate reads a zstd compressed JSON climate parameter list from r.
func ReadCompressedClimate(r io.Reader) (ClimateFile, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return ClimateFile{}, fmt.Errorf("open zstd stream: %w", err)
	}
	defer dec.Close()

	data, err := io.ReadAll(dec)
	if err != nil {
		return ClimateFile{}, fmt.Errorf("decompress climate table: %w", err)
	}
	return ParseClimateJSON(data)
}

// WriteCompressedClimate encodes f as JSON and writes it zstd compressed to w.
func WriteCompressedClimate(w io.Writer, f ClimateFile) error {
	data, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("encode climate json: %w", err)
	}
	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		return fmt.Errorf("open zstd stream: %w", err)
	}
	if _, err := io.Copy(enc, bytes.NewReader(data)); err != nil {
		_ = enc.Close()
		return fmt.Errorf("compress climate table: %w", err)
	}
	return enc.Close()
}

//go:embed climate.toml
var climateTable []byte

var (
	treeOnce    sync.Once
	defaultTree *Tree
)

// DefaultClimate returns the climate parameter list shipped with the server.
func DefaultClimate() ClimateFile {
	f, err := ParseClimateTOML(climateTable)
	if err != nil {
		panic(fmt.Errorf("parse embedded climate table: %w", err))
	}
	return f
}

// DefaultTree returns the parameter tree built from the climate parameter list shipped with the server and the
// Default registry. It is built once and shared by all callers.
func DefaultTree() *Tree {
	treeOnce.Do(func() {
		entries, err := DefaultClimate().Resolve(Default())
		if err != nil {
			panic(fmt.Errorf("resolve embedded climate table: %w", err))
		}
		defaultTree = MustBuild(entries)
	})
	return defaultTree
}

// ReadClimateFile reads a climate parameter list from the file at path. The
// format is picked by extension: ".toml", ".json" or ".zst" for zstd
// compressed JSON.
func ReadClimateFile(path string) (ClimateFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return ClimateFile{}, fmt.Errorf("open climate table: %w", err)
	}
	defer f.Close()

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".zst":
		return ReadCompressedClimate(f)
	case ".json", ".toml":
		data, err := io.ReadAll(f)
		if err != nil {
			return ClimateFile{}, fmt.Errorf("read climate table: %w", err)
		}
		if ext == ".json" {
			return ParseClimateJSON(data)
		}
		return ParseClimateTOML(data)
	default:
		return ClimateFile{}, fmt.Errorf("%w: unsupported file extension %q", ErrInvalidClimate, ext)
	}
}

// TreeFromFile builds a parameter tree from the climate parameter list at
// path, resolving biome names through the Default registry.
func TreeFromFile(path string) (*Tree, error) {
	f, err := ReadClimateFile(path)
	if err != nil {
		return nil, err
	}
	entries, err := f.Resolve(Default())
	if err != nil {
		return nil, fmt.Errorf("resolve climate table %v: %w", path, err)
	}
	return Build(entries)
}
