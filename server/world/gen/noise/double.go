package noise

import (
	"math"

	"github.com/dm-vev/voxelcore/server/world/gen/rand"
)

// inputFactor is the frequency ratio between the two stacks of a
// DoublePerlin. Being irrational-ish it prevents the stacks from aligning.
const inputFactor = 1.0181268882175227

// DoublePerlin adds two Octave stacks built from the same source, sampling the
// second one at a slightly higher frequency. The sum is scaled so that the
// typical deviation is close to 1/6 regardless of the octave count.
type DoublePerlin struct {
	first, second *Octave
	valueFactor   float64
	maxValue      float64
}

// NewDoublePerlin builds a DoublePerlin from src using the parameters passed.
func NewDoublePerlin(src rand.Source, p Params, legacy bool) *DoublePerlin {
	d := &DoublePerlin{
		first:  NewOctave(src, p.FirstOctave, p.Amplitudes, legacy),
		second: NewOctave(src, p.FirstOctave, p.Amplitudes, legacy),
	}
	lo, hi := math.MaxInt, math.MinInt
	for i, amp := range p.Amplitudes {
		if amp != 0 {
			lo, hi = min(lo, i), max(hi, i)
		}
	}
	d.valueFactor = (1.0 / 6.0) / expectedDeviation(hi-lo)
	d.maxValue = (d.first.MaxValue() + d.second.MaxValue()) * d.valueFactor
	return d
}

func expectedDeviation(octaves int) float64 {
	return 0.1 * (1 + 1/float64(octaves+1))
}

// Sample ...
func (d *DoublePerlin) Sample(x, y, z float64) float64 {
	a := d.first.Sample(x, y, z)
	b := d.second.Sample(x*inputFactor, y*inputFactor, z*inputFactor)
	return (a + b) * d.valueFactor
}

// MaxValue ...
func (d *DoublePerlin) MaxValue() float64 {
	return d.maxValue
}
