package noise

import (
	_ "embed"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/dm-vev/voxelcore/server/world/gen/rand"
	"gopkg.in/yaml.v3"
)

var (
	ErrUnknownParams = errors.New("noise: unknown noise parameters")
	ErrNoAmplitudes  = errors.New("noise: parameters have no amplitudes")
)

// Params describes a DoublePerlin: the index of its lowest octave and the
// amplitude of every octave from there on.
type Params struct {
	FirstOctave int       `yaml:"first_octave"`
	Amplitudes  []float64 `yaml:"amplitudes"`
}

// Table is a set of named noise parameters.
type Table map[string]Params

//go:embed params.yaml
var defaultParams []byte

var (
	defaultOnce  sync.Once
	defaultTable Table
)

// DefaultTable returns the noise parameters shipped with the server. The table
// is parsed once and shared.
func DefaultTable() Table {
	defaultOnce.Do(func() {
		t, err := ParseTable(defaultParams)
		if err != nil {
			panic(fmt.Errorf("parse embedded noise parameters: %w", err))
		}
		defaultTable = t
	})
	return defaultTable
}

// ParseTable parses a YAML document mapping names to noise parameters.
func ParseTable(data []byte) (Table, error) {
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("decode noise parameters: %w", err)
	}
	for name, p := range t {
		if len(p.Amplitudes) == 0 {
			return nil, fmt.Errorf("%s: %w", name, ErrNoAmplitudes)
		}
	}
	return t, nil
}

// Names returns the sorted names in the table.
func (t Table) Names() []string {
	names := make([]string, 0, len(t))
	for name := range t {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New builds the DoublePerlin named name from a stream split from factory by
// the namespaced name, the way every climate noise of a world is seeded.
func (t Table) New(factory rand.PositionalFactory, name string) (*DoublePerlin, error) {
	p, ok := t[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownParams, name)
	}
	return NewDoublePerlin(factory.SplitString("minecraft:"+name), p, false), nil
}
