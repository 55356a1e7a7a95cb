package noise

import (
	"fmt"
	"math"
	"slices"

	"github.com/dm-vev/voxelcore/server/world/gen/rand"
)

// precisionWrap is the period coordinates are re-centred on before sampling an
// octave. It keeps far away coordinates within the precision of a float64.
const precisionWrap = 33554432.0

// MaintainPrecision wraps v into a window of 2^25 centred on 0.
func MaintainPrecision(v float64) float64 {
	return v - float64(math.Floor(v/precisionWrap+0.5)*precisionWrap)
}

// OctaveSampler is a single active octave of an Octave stack.
type OctaveSampler struct {
	Noise       *Perlin
	Amplitude   float64
	Persistence float64
	Lacunarity  float64
}

// Octave sums several Perlin octaves, each sampled at double the frequency
// and half the weight of the previous one. Octave is immutable after
// construction and safe for concurrent use.
type Octave struct {
	samplers []OctaveSampler
	maxValue float64
}

// CalculateAmplitudes turns a sparse list of octave indices into the first
// octave and a dense amplitude list spanning from the lowest to the highest
// index, holding 1 for every index present and 0 otherwise.
func CalculateAmplitudes(octaves []int) (first int, amplitudes []float64) {
	if len(octaves) == 0 {
		panic("noise: no octaves passed")
	}
	sorted := slices.Clone(octaves)
	slices.Sort(sorted)

	i, j := -sorted[0], sorted[len(sorted)-1]
	amplitudes = make([]float64, i+j+1)
	for _, o := range sorted {
		amplitudes[o+i] = 1
	}
	return -i, amplitudes
}

// NewOctave builds an Octave from src. In legacy mode the octaves are drawn in
// sequence from src itself, highest frequency first, and every octave with an
// amplitude of 0 still consumes the draws of a Perlin construction. Otherwise
// every octave is built from its own stream split from src by name.
//
// NewOctave panics if amplitudes is empty.
func NewOctave(src rand.Source, first int, amplitudes []float64, legacy bool) *Octave {
	n := len(amplitudes)
	if n == 0 {
		panic("noise: octave amplitudes must not be empty")
	}
	j := -first
	noises := make([]*Perlin, n)

	if legacy {
		base := NewPerlin(src)
		if j >= 0 && j < n && amplitudes[j] != 0 {
			noises[j] = base
		}
		for k := j - 1; k >= 0; k-- {
			if k < n && amplitudes[k] != 0 {
				noises[k] = NewPerlin(src)
				continue
			}
			src.Skip(PerlinDraws)
		}
	} else {
		splitter := src.Splitter()
		for k := 0; k < n; k++ {
			if amplitudes[k] != 0 {
				noises[k] = NewPerlin(splitter.SplitString(fmt.Sprintf("octave_%d", first+k)))
			}
		}
	}

	o := &Octave{samplers: make([]OctaveSampler, 0, n)}
	persistence := math.Pow(2, float64(n-1)) / (math.Pow(2, float64(n)) - 1)
	lacunarity := math.Pow(2, float64(-j))
	for k, amp := range amplitudes {
		if amp != 0 {
			o.maxValue += float64(2 * amp * persistence)
		}
		if noises[k] != nil {
			o.samplers = append(o.samplers, OctaveSampler{
				Noise:       noises[k],
				Amplitude:   amp,
				Persistence: persistence,
				Lacunarity:  lacunarity,
			})
		}
		persistence /= 2
		lacunarity *= 2
	}
	return o
}

// Sample returns the weighted sum of all octaves at the coordinates passed.
func (o *Octave) Sample(x, y, z float64) float64 {
	var sum float64
	for _, s := range o.samplers {
		v := s.Noise.SampleNoFade(
			MaintainPrecision(x*s.Lacunarity),
			MaintainPrecision(y*s.Lacunarity),
			MaintainPrecision(z*s.Lacunarity),
			0, 0,
		)
		sum += float64(float64(s.Amplitude*v) * s.Persistence)
	}
	return sum
}

// MaxValue returns an upper bound of the absolute value Sample may return.
func (o *Octave) MaxValue() float64 {
	return o.maxValue
}

// Len returns the number of active octaves.
func (o *Octave) Len() int {
	return len(o.samplers)
}

// Sampler returns the i-th active octave, ordered from the lowest frequency to
// the highest.
func (o *Octave) Sampler(i int) OctaveSampler {
	return o.samplers[i]
}

// TotalAmplitude returns the sum of the weights of all active octaves scaled
// by scale.
func (o *Octave) TotalAmplitude(scale float64) float64 {
	var sum float64
	for _, s := range o.samplers {
		sum += float64(s.Amplitude * scale * s.Persistence)
	}
	return sum
}
