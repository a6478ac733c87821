package fm432

import (
	"math"

	"github.com/fm432/fm432-go/internal/waveform"
)

// handleCC7 implements the reference patch surface's 7-bit CC
// bindings, grounded in the original firmware's main_task.h switch
// table.
func (e *Engine) handleCC7(id, val byte) {
	v := float64(val)
	switch {
	case id >= 11 && id <= 14:
		// (carrier,modulator) ∈ {(0,0),(0,1),(1,0),(1,1)}, scaled to ~0..3.
		idx := int(id - 11)
		carrier, modulator := idx/2, idx%2
		e.synth.SetMod(carrier, modulator, v/127*3)
	case id == 15:
		e.synth.SetOutputVolume(0, v/127)
	case id == 16:
		e.synth.SetOutputVolume(1, v/127)
	case id == 17:
		e.masterVol = v / 64
	case id == 18:
		e.bitcrush = 1 + 30*v
	case id >= 19 && id <= 22:
		e.setADSRField(0, int(id-19), v)
	case id >= 23 && id <= 26:
		e.setADSRField(1, int(id-23), v)
	case id == 27:
		e.setWaveform(0, v)
	case id == 28:
		e.setWaveform(1, v)
	case id == 30:
		e.setRatio(0, v)
	case id == 31:
		e.setRatio(1, v)
	}
}

// setADSRField writes one of an operator's four ADSR fields, selected
// by field (0=attack,1=decay,2=sustain,3=release). Attack/decay/release
// map exponentially from the 0..127 CC range to 0..~17,930ms; sustain
// maps linearly to 0..1.
func (e *Engine) setADSRField(operator, field int, val float64) {
	a := e.synth.ADSR(operator)
	if a == nil {
		return
	}
	switch field {
	case 0:
		a.SetAttack(expTimeMapping(val))
	case 1:
		a.SetDecay(expTimeMapping(val))
	case 2:
		a.SetSustain(val / 127)
	case 3:
		a.SetRelease(expTimeMapping(val))
	}
}

func expTimeMapping(val float64) float64 {
	return math.Exp(val/100)*7000 - 7000
}

// setWaveform implements the CC27/28 quartile selector, consistently
// comparing val across every branch (the original firmware's version
// of this switch compares the wrong variable in its later branches,
// making most of the quartiles unreachable).
func (e *Engine) setWaveform(operator int, val float64) {
	p := e.synth.Param(operator)
	if p == nil {
		return
	}
	switch {
	case val < 32:
		p.Waveform = waveform.Sine
	case val < 64:
		p.Waveform = waveform.Triangle
	case val < 96:
		p.Waveform = waveform.Saw
	default:
		p.Waveform = waveform.Square
	}
}

func (e *Engine) setRatio(operator int, val float64) {
	p := e.synth.Param(operator)
	if p == nil {
		return
	}
	p.Ratio = math.Pow(2, (val-63)/16)
}

func (e *Engine) handleCC14(id byte, value uint16) {
	// The reference surface binds no 14-bit controllers; MIDI-2-compliant
	// mode is accepted by the parser but this patch has nothing wired to
	// it yet.
	_ = id
	_ = value
}

// handlePitchBend applies the 14-bit pitch-bend value as global detune
// in cents, per the reference mapping ±1200 cents across the full range.
// It feeds the engine's base detune rather than the synth directly, so
// the per-sample vibrato LFO (if any) keeps layering on top of it.
func (e *Engine) handlePitchBend(value uint16) {
	e.baseDetune = (float64(value)/8192 - 1) * 1200
}
