// Package voice implements one concurrently sounding FM note: its
// oscillator phase bank, per-operator envelope cache, and the
// modulation-matrix sample-generation algorithm.
//
// A Voice deliberately holds no reference to the synth's shared
// modulation matrix, operator bank, or output mix — those are borrowed
// in as explicit arguments to GenerateSample/IncrementPhase/IsDone for
// the duration of one call. This keeps Voice a self-contained value
// the synth's voice pool can reset and reuse freely, instead of a
// struct that secretly aliases its owner's backing arrays.
package voice

import (
	"math"

	"github.com/fm432/fm432-go/internal/operator"
)

// notReleasedSentinel is larger than any plausible elapsed time, so a
// voice that has never been released always has releasePoint strictly
// greater than elapsed.
const notReleasedSentinel = 1e8

// modThreshold is the minimum matrix-entry*envelope magnitude worth
// evaluating; smaller contributions are skipped entirely to save a
// waveform call on the hot path.
const modThreshold = 1e-5

// silentVolThreshold is the output-volume floor below which an
// operator is treated as contributing no audible output for the
// purposes of IsDone.
const silentVolThreshold = 1e-3

// FMVoice is one playing note: an N-operator phase bank plus the
// per-note timing/detune/pan state needed to render it.
type FMVoice struct {
	phases []float64
	shifts []float64 // scratch buffer reused across GenerateSample calls

	frequency    float64
	elapsed      float64
	releasePoint float64

	detune              float64
	precalcDetuneFactor float64

	globalVol float64
	globalPan float64

	precalcVolLeft  float64
	precalcVolRight float64

	adsrCache   []float64
	adsrCounter int

	isInit bool
}

// New returns a dormant voice with room for n operators.
func New(n int) *FMVoice {
	v := &FMVoice{
		phases:  make([]float64, n),
		shifts:  make([]float64, n),
		adsrCache: make([]float64, n),
	}
	v.Reset()
	return v
}

// Reset returns the voice to dormant state. Must be called before a
// previously-used voice is handed to Init again.
func (v *FMVoice) Reset() {
	v.elapsed = 0
	v.frequency = 0
	v.releasePoint = notReleasedSentinel
	v.detune = 0
	v.precalcDetuneFactor = 1

	v.globalVol = 1
	v.globalPan = 0
	v.precalcVolLeft = .5
	v.precalcVolRight = .5

	for i := range v.phases {
		v.phases[i] = 0
	}
	v.isInit = false
}

// Init configures the voice to sound a new note. The voice must have
// been Reset since it was last used.
func (v *FMVoice) Init(freq, vol, pan, phaseOffset float64) {
	v.frequency = freq
	v.globalVol = vol
	v.globalPan = pan

	// 0.25 rather than 0.5 to pre-cancel the factor of 2 introduced by
	// the pan formula in GenerateSample's final mix step.
	v.precalcVolLeft = vol * .25 * (-pan + 1)
	v.precalcVolRight = vol * .25 * (pan + 1)

	for i := range v.phases {
		v.phases[i] = phaseOffset
	}
	v.adsrCounter = 0
	v.isInit = true
}

// IsInit reports whether this voice currently represents a sounding note.
func (v *FMVoice) IsInit() bool { return v.isInit }

// Elapsed returns milliseconds since note-on.
func (v *FMVoice) Elapsed() float64 { return v.elapsed }

// Frequency returns the voice's current base pitch in Hz.
func (v *FMVoice) Frequency() float64 { return v.frequency }

// OverrideTimePos sets elapsed directly; the synth uses it to start
// every voice of a note, unison voices included, on the same timeline.
func (v *FMVoice) OverrideTimePos(t float64) { v.elapsed = t }

// OverrideFrequency changes the base pitch without touching phase or
// envelope state, used for legato note changes.
func (v *FMVoice) OverrideFrequency(freq float64) { v.frequency = freq }

// SetDetune sets the per-voice detune in cents and its precomputed
// frequency-ratio factor.
func (v *FMVoice) SetDetune(cents float64) {
	v.detune = cents
	v.precalcDetuneFactor = math.Pow(2, cents/1200)
}

// EventReleased latches the current elapsed time as the release point,
// but only if no earlier release has already been latched (the first
// release call wins; later calls are no-ops against releasePoint).
// It also forces the next GenerateSample call to refresh the ADSR
// cache, and pins every operator's envelope to release continuously
// from whatever level is currently cached, avoiding a click.
func (v *FMVoice) EventReleased(params []*operator.Params) {
	if v.releasePoint > v.elapsed {
		v.releasePoint = v.elapsed
	}
	v.adsrCounter = 0
	for i, p := range params {
		p.ADSR.FastReleaseUpdate(v.adsrCache[i])
	}
}

// IsDone reports whether the voice can be safely reset: it is
// uninitialized, or every operator either makes no audible
// contribution to the final mix or has fully decayed.
func (v *FMVoice) IsDone(outputVols []float64, params []*operator.Params) bool {
	if !v.isInit {
		return true
	}
	for i, p := range params {
		if outputVols[i] > silentVolThreshold && !p.ADSR.IsDone(v.elapsed, v.releasePoint) {
			return false
		}
	}
	return true
}

// IncrementPhase advances elapsed and every operator's phase by dtMs
// milliseconds, wrapping phases back into [0,1).
func (v *FMVoice) IncrementPhase(dtMs float64, params []*operator.Params) {
	v.elapsed += dtMs
	realFreq := v.frequency * v.precalcDetuneFactor
	dtSec := dtMs / 1000
	for i, p := range params {
		v.phases[i] = wrapPhase(v.phases[i] + dtSec*realFreq*p.Ratio)
	}
}

// GenerateSample renders one sample for the requested channel, given
// the synth's shared modulation matrix and output mix. matrix, params,
// outputVols, and outputPans must all agree on dimension N with this
// voice's phase bank.
func (v *FMVoice) GenerateSample(params []*operator.Params, matrix Matrix, outputVols, outputPans []float64, isLeftChannel bool) float64 {
	v.refreshADSRCache(params)

	n := len(v.phases)
	for i := range v.shifts {
		v.shifts[i] = 0
	}

	// Back-to-front row evaluation: row i may consume shifts[j] for
	// j > i that were already computed earlier in this same loop,
	// turning the matrix's upper-triangular feed-forward into a single
	// pass with no explicit topological sort.
	for i := n - 1; i >= 0; i-- {
		for j := 0; j < n; j++ {
			m := matrix.Get(i, j) * v.adsrCache[j]
			if math.Abs(m) > modThreshold {
				v.shifts[i] += m * params[j].Osc(v.phases[j]+v.shifts[j])
				v.shifts[i] = wrapPhase(v.shifts[i])
			}
		}
	}

	sign := -1.0
	if !isLeftChannel {
		sign = 1.0
	}
	var output float64
	for i := 0; i < n; i++ {
		pan := sign*outputPans[i] + 1
		output += pan * outputVols[i] * params[i].Osc(v.phases[i]+v.shifts[i]) * v.adsrCache[i]
	}

	if isLeftChannel {
		output *= v.precalcVolLeft
	} else {
		output *= v.precalcVolRight
	}
	return output
}

func (v *FMVoice) refreshADSRCache(params []*operator.Params) {
	if v.adsrCounter%16 == 0 {
		for i, p := range params {
			v.adsrCache[i] = p.ADSR.CalcVol(v.elapsed, v.releasePoint)
		}
	}
	v.adsrCounter++
}

// wrapPhase folds x into [0,1) by dropping the integer part and
// reflecting negatives positive, e.g. -0.3 -> 0.3, not -0.3 -> 0.7.
func wrapPhase(x float64) float64 {
	return math.Abs(x - math.Trunc(x))
}
