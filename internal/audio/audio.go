// Package audio defines the buffers that flow between synthesis stages.
//
// Waveforms are float64 sample slices tagged with their sample rate and
// amplitude scale. Mel-spectrograms carry the analysis parameters they were
// computed under and a tag naming the vocoder they are meant for. PCM is the
// 16-bit integer format used for mixing and for the written artifact.
package audio

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// MaxWavValue is the full-scale ceiling that vocoder output is scaled to.
const MaxWavValue = 32768.0

// Amplitude scales a Waveform can be tagged with.
const (
	ScaleUnit = 1.0
	ScaleFull = MaxWavValue
)

// Waveform is a mono float signal.
type Waveform struct {
	// Samples holds the signal values.
	Samples []float64

	// SampleRate is the rate in Hz.
	SampleRate int

	// Scale is the nominal peak of the signal: ScaleUnit for [-1, 1] model
	// output, ScaleFull for signals scaled to MaxWavValue.
	Scale float64
}

// Len returns the number of samples.
func (w *Waveform) Len() int { return len(w.Samples) }

// Duration returns the signal length in seconds.
func (w *Waveform) Duration() float64 {
	if w.SampleRate <= 0 {
		return 0
	}
	return float64(len(w.Samples)) / float64(w.SampleRate)
}

// Peak returns max(|samples|), or 0 for an empty buffer.
func (w *Waveform) Peak() float64 {
	return Peak(w.Samples)
}

// Peak returns max(|x|) over a slice, or 0 when x is empty.
func Peak(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	hi := floats.Max(x)
	lo := floats.Min(x)
	if -lo > hi {
		return -lo
	}
	return hi
}

// MelTag identifies which vocoder configuration a spectrogram belongs to.
type MelTag int

const (
	// MelBase is produced by the acoustic model at its native rate.
	MelBase MelTag = iota + 1
	// MelRefined is recomputed from resampled audio at the target rate.
	MelRefined
)

func (t MelTag) String() string {
	switch t {
	case MelBase:
		return "base"
	case MelRefined:
		return "refined"
	default:
		return fmt.Sprintf("mel_tag(%d)", int(t))
	}
}

// Mel is a mel-spectrogram stored row-major as Bins x Frames.
type Mel struct {
	Tag    MelTag
	Bins   int
	Frames int
	Data   []float32

	SampleRate int
	NFFT       int
	HopSize    int
	WinSize    int
	Fmin       float64
	Fmax       float64
}

// NewMel allocates a zeroed spectrogram.
func NewMel(tag MelTag, bins, frames int) *Mel {
	return &Mel{
		Tag:    tag,
		Bins:   bins,
		Frames: frames,
		Data:   make([]float32, bins*frames),
	}
}

// At returns the value at bin b, frame f.
func (m *Mel) At(b, f int) float32 { return m.Data[b*m.Frames+f] }

// Set stores v at bin b, frame f.
func (m *Mel) Set(b, f int, v float32) { m.Data[b*m.Frames+f] = v }

// Shape returns the tensor shape [1, Bins, Frames] expected by vocoders.
func (m *Mel) Shape() []int64 {
	return []int64{1, int64(m.Bins), int64(m.Frames)}
}

// PCM is a 16-bit signed mono buffer.
type PCM struct {
	Samples    []int16
	SampleRate int
}

// Len returns the number of samples.
func (p *PCM) Len() int { return len(p.Samples) }

// Concat joins buffers that share a sample rate. Nil entries are skipped.
func Concat(parts ...*PCM) (*PCM, error) {
	out := &PCM{}
	for _, p := range parts {
		if p == nil {
			continue
		}
		if out.SampleRate == 0 {
			out.SampleRate = p.SampleRate
		} else if p.SampleRate != out.SampleRate {
			return nil, fmt.Errorf("concat: sample rate %d does not match %d", p.SampleRate, out.SampleRate)
		}
		out.Samples = append(out.Samples, p.Samples...)
	}
	return out, nil
}

// Gain is the damped peak-normalization factor applied before resampling
// and divided out again after mixing.
type Gain struct {
	// Value multiplies the base waveform. Always finite and positive.
	Value float64

	// Peak is max(|samples|) of the waveform the gain was derived from.
	Peak float64

	// Degenerate is set when the waveform was silent and Value fell back to 1.
	Degenerate bool
}
