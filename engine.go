// Package fm432 wires a streaming MIDI byte parser to an FM voice
// manager and a host audio sink, reproducing the control surface of
// the original MSP432 firmware as a desktop/server Go module.
package fm432

import (
	"fmt"
	"math"

	"github.com/fm432/fm432-go/internal/effects"
	"github.com/fm432/fm432-go/internal/lfo"
	"github.com/fm432/fm432-go/internal/midi"
	"github.com/fm432/fm432-go/internal/synth"
)

// Config configures an Engine. Zero-value fields are replaced with
// sane defaults at construction rather than left to silently produce
// a degenerate engine.
type Config struct {
	SampleRate     int
	OperatorCount  int
	MaxPolyphony   int
	MIDI2Compliant bool
	MIDIChannel    int // 1..15 specific, >=16 omni; 0 (the zero value) selects omni, so channel 0 cannot be chosen here
}

func (c Config) withDefaults() Config {
	if c.SampleRate == 0 {
		c.SampleRate = 48000
	}
	if c.OperatorCount == 0 {
		c.OperatorCount = 2
	}
	if c.MaxPolyphony == 0 {
		c.MaxPolyphony = 4
	}
	if c.MIDIChannel == 0 {
		c.MIDIChannel = 16
	}
	return c
}

// Engine owns the synth, the MIDI parser feeding it, and the
// per-sample tick loop that advances voice phases and quantizes
// output for a DAC-style sink.
type Engine struct {
	cfg    Config
	synth  *synth.Synth
	parser *midi.Parser

	masterVol float64
	bitcrush  float64 // bit-crusher quantization factor k >= 1

	baseDetune        float64
	lastAppliedDetune float64
	vibrato           lfo.LFO
	fx                *effects.Chain
}

// New validates cfg and returns a ready-to-run Engine. It is the only
// constructor in this package that can fail; once an Engine exists,
// every other method degrades silently rather than returning an error,
// matching the synth's own error model.
func New(cfg Config) (*Engine, error) {
	if cfg.SampleRate < 0 {
		return nil, fmt.Errorf("fm432: negative sample rate %d", cfg.SampleRate)
	}
	if cfg.OperatorCount < 0 {
		return nil, fmt.Errorf("fm432: negative operator count %d", cfg.OperatorCount)
	}
	cfg = cfg.withDefaults()

	e := &Engine{
		cfg:       cfg,
		synth:     synth.New(cfg.OperatorCount, cfg.MaxPolyphony),
		parser:    midi.New(),
		masterVol: 1,
		bitcrush:  1,
		fx:        effects.NewChain(),
	}
	e.parser.SetChannel(cfg.MIDIChannel)
	e.parser.SetMIDI2Compliant(cfg.MIDI2Compliant)
	e.parser.SetHandlers(midi.Handlers{
		OnNoteOn:    e.synth.NotePressed,
		OnNoteOff:   e.synth.NoteReleased,
		OnCC7:       e.handleCC7,
		OnCC14:      e.handleCC14,
		OnPitchBend: e.handlePitchBend,
	})
	return e, nil
}

// Synth exposes the underlying voice manager for direct patch editing
// (operator parameters, modulation matrix, unison, polyphony) beyond
// what the CC surface binds.
func (e *Engine) Synth() *synth.Synth { return e.synth }

// ConsumeMIDIByte feeds one MIDI byte into the engine's parser,
// synchronously firing whatever note/CC/pitch-bend effects it implies.
func (e *Engine) ConsumeMIDIByte(b byte) { e.parser.ConsumeByte(b) }

// SampleRate reports the configured audio sample rate in Hz.
func (e *Engine) SampleRate() int { return e.cfg.SampleRate }

// BaseDetune reports the pitch-bend-derived global detune in cents,
// before any vibrato LFO is layered on top of it for rendering.
func (e *Engine) BaseDetune() float64 { return e.baseDetune }

// dtMs is the per-sample time step in milliseconds at the engine's
// configured sample rate.
func (e *Engine) dtMs() float64 { return 1000 / float64(e.cfg.SampleRate) }

// AddEffect appends a post-mix stereo effect (chorus, delay,
// distortion, reverb, compressor, a 5-band EQ) to the master chain
// applied in ProcessStereo after the voice mix and before clamping.
func (e *Engine) AddEffect(eff effects.Effector) { e.fx.Add(eff) }

// SetVibrato configures a global vibrato LFO layered on top of the
// pitch-bend-derived base detune; depthCents of 0 disables it.
func (e *Engine) SetVibrato(depthCents, rateHz float64, waveform int) {
	e.vibrato.Set(depthCents, rateHz, waveform)
}

// ProcessStereo fills out with interleaved stereo float32 frames,
// advancing the voice pool's phase exactly once per produced sample
// (generate, clamp, advance) and cleaning finished voices once per
// call, after the whole buffer is filled.
func (e *Engine) ProcessStereo(out []float32) {
	frames := len(out) / 2
	dt := e.dtMs()
	for i := 0; i < frames; i++ {
		if detune := e.baseDetune + e.vibrato.Sample(float64(e.cfg.SampleRate)); detune != e.lastAppliedDetune {
			e.synth.SetDetune(detune)
			e.lastAppliedDetune = detune
		}

		left := e.synth.GetSample(true) * e.masterVol
		right := e.synth.GetSample(false) * e.masterVol
		left32, right32 := e.fx.Process(float32(left), float32(right))
		out[i*2] = float32(ClampSignal(float64(left32)))
		out[i*2+1] = float32(ClampSignal(float64(right32)))
		e.synth.IncrementPhases(dt)
	}
	e.synth.CleanVoicePool()
}

// referenceDACPremul is the full-scale multiplier the original
// firmware's DAC driver uses to map [-1,1] into its usable code range.
const referenceDACPremul = 6191

// ProcessDAC fills out with mono 16-bit DAC codes sampled from the
// engine's left channel, reproducing the original firmware's single
// FIFO output contract: generate, clamp, bit-crush-quantize, advance.
func (e *Engine) ProcessDAC(out []uint16) {
	dt := e.dtMs()
	for i := range out {
		sample := ClampSignal(e.synth.GetSample(true) * e.masterVol)
		out[i] = QuantizeDACCode(sample, e.bitcrush, referenceDACPremul)
		e.synth.IncrementPhases(dt)
	}
	e.synth.CleanVoicePool()
}

// Process implements the host audio sinks' SampleSource contract
// (Process([]float32)) by delegating to ProcessStereo, so an Engine
// can be handed directly to internal/audio's ebiten or PortAudio sink.
func (e *Engine) Process(out []float32) { e.ProcessStereo(out) }

// ClampSignal folds a signal into [-1,1], matching the original
// firmware's boolean-arithmetic clamp but written as an ordinary
// comparison chain.
func ClampSignal(v float64) float64 {
	switch {
	case v > 1:
		return 1
	case v < -1:
		return -1
	default:
		return v
	}
}

// QuantizeDACCode maps a clamped [-1,1] signal to the unsigned 16-bit
// DAC code the original firmware's FIFO expects: a 0x2000 center
// offset plus a bit-crusher quantization step of size bcVal. premul is
// the full-scale multiplier mapping [-1,1] into the DAC's usable
// range; callers pass premul≈6191 to match the reference firmware.
func QuantizeDACCode(clamped, bcVal, premul float64) uint16 {
	if bcVal < 1 {
		bcVal = 1
	}
	step := bcVal * math.Round(clamped*premul/bcVal)
	code := 0x2000 + int32(step)
	switch {
	case code < 0:
		code = 0
	case code > 0xFFFF:
		code = 0xFFFF
	}
	return uint16(code)
}
