// Package operator holds the per-operator parameters shared by every
// voice: which waveform it plays, its frequency ratio relative to the
// voice's base pitch, its output volume, and its own ADSR envelope.
package operator

import (
	"github.com/fm432/fm432-go/internal/envelope"
	"github.com/fm432/fm432-go/internal/waveform"
)

// Params is one operator slot. A voice bank holds N of these, shared
// read-mostly across all voices (every voice's operator i plays the
// same waveform/ratio/ADSR shape, only its phase and envelope timeline
// differ per-voice).
type Params struct {
	Waveform waveform.Kind
	Ratio    float64
	Vol      float64
	ADSR     *envelope.ADSR
}

// New returns an operator with ratio 1, full volume, sine waveform, and
// a default (near-instant) envelope — matching the zero-value defaults
// the original firmware's ADSRParam constructs with.
func New() *Params {
	return &Params{
		Waveform: waveform.Sine,
		Ratio:    1,
		Vol:      1,
		ADSR:     envelope.New(1e-5, 1e-5, 1, 1e-5),
	}
}

// Osc evaluates this operator's waveform at the given phase.
func (p *Params) Osc(phase float64) float64 {
	return waveform.Eval(p.Waveform, phase)
}
