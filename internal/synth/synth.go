// Package synth implements the voice manager: the bounded voice pool,
// the shared modulation matrix and output mix, and the note-on/note-off
// policy (polyphony, unison spread, mono/legato) described by the FM
// engine's owning layer.
//
// Voice-pool slots are referenced by stable (slot index, generation
// counter) pairs rather than pointers, so a key event's references
// degrade safely to no-ops if the slot they named has since been
// reset and handed to a different note — there is no way for a stale
// reference to corrupt an unrelated voice.
package synth

import (
	"math"

	"github.com/fm432/fm432-go/internal/envelope"
	"github.com/fm432/fm432-go/internal/operator"
	"github.com/fm432/fm432-go/internal/voice"
)

type poolSlot struct {
	inUse bool
	gen   uint32
	voice *voice.FMVoice
}

type voiceRef struct {
	slot int
	gen  uint32
}

type keyEvent struct {
	note     byte
	velocity byte
	refs     []voiceRef
}

// Synth owns the voice pool and the per-patch configuration (modulation
// matrix, output mix, play-mode flags, unison spread, polyphony cap)
// shared by every voice it plays.
type Synth struct {
	centerTune   float64
	globalDetune float64

	mono   bool
	legato bool

	unison      int
	unisonVol   float64
	unisonPitch float64
	unisonPhase float64
	unisonPan   float64

	nPolyphony int

	matrix     voice.Matrix
	outputVols []float64
	outputPans []float64
	params     []*operator.Params

	pool       []poolSlot
	voicesUsed int

	keyEvents []keyEvent
}

// New returns a Synth configured for nOsc operators per voice and a
// pool of maxPolyphony voices, each operator defaulted the way the
// original firmware's OSCParam is (sine waveform, ratio 1, full
// volume, a near-instant ADSR).
func New(nOsc, maxPolyphony int) *Synth {
	if nOsc < 1 {
		nOsc = 1
	}
	if maxPolyphony < 1 {
		maxPolyphony = 1
	}
	s := &Synth{
		centerTune: 440,
		nPolyphony: maxPolyphony,
		matrix:     voice.NewMatrix(nOsc),
		outputVols: make([]float64, nOsc),
		outputPans: make([]float64, nOsc),
		params:     make([]*operator.Params, nOsc),
		pool:       make([]poolSlot, maxPolyphony),
	}
	for i := 0; i < nOsc; i++ {
		s.params[i] = operator.New()
	}
	for i := range s.pool {
		s.pool[i].voice = voice.New(nOsc)
	}
	return s
}

// NumOperators reports how many operators each voice has.
func (s *Synth) NumOperators() int { return len(s.params) }

// MaxPolyphony reports the voice pool's size.
func (s *Synth) MaxPolyphony() int { return len(s.pool) }

// Param returns operator i's parameters for direct configuration (the
// CC control surface and any other patch editor mutates these in
// place, same as the original firmware's getParam).
func (s *Synth) Param(i int) *operator.Params {
	if i < 0 || i >= len(s.params) {
		return nil
	}
	return s.params[i]
}

// VoicesUsed reports the number of voice-pool slots currently in use.
func (s *Synth) VoicesUsed() int { return s.voicesUsed }

// SetMod writes M[carrier][modulator], silently rejecting out-of-range
// indices.
func (s *Synth) SetMod(carrier, modulator int, amount float64) {
	s.matrix.Set(carrier, modulator, amount)
}

// SetOutputVolume sets operator i's output mix volume if v is
// non-negative and i is in range; otherwise the call is silently
// rejected.
func (s *Synth) SetOutputVolume(i int, v float64) {
	if v < 0 || i < 0 || i >= len(s.outputVols) {
		return
	}
	s.outputVols[i] = v
}

// SetOutputPan sets operator i's output pan, clamped to [-1,1].
func (s *Synth) SetOutputPan(i int, pan float64) {
	if i < 0 || i >= len(s.outputPans) {
		return
	}
	switch {
	case pan < -1:
		pan = -1
	case pan > 1:
		pan = 1
	}
	s.outputPans[i] = pan
}

// GlobalDetune reports the current global detune in cents.
func (s *Synth) GlobalDetune() float64 { return s.globalDetune }

func (s *Synth) SetMono(b bool)   { s.mono = b }
func (s *Synth) SetLegato(b bool) { s.legato = b }

// SetDetune updates the global detune and propagates it to every
// in-use voice immediately.
func (s *Synth) SetDetune(cents float64) {
	s.globalDetune = cents
	for i := range s.pool {
		if s.pool[i].inUse {
			s.pool[i].voice.SetDetune(cents)
		}
	}
}

// SetUnison sets how many unison voices a note-on spawns (0 disables
// unison stacking).
func (s *Synth) SetUnison(n int) {
	if n < 0 {
		return
	}
	s.unison = n
}

func (s *Synth) SetUnisonVolume(v float64)   { s.unisonVol = v }
func (s *Synth) SetUnisonPitch(cents float64) { s.unisonPitch = cents }
func (s *Synth) SetUnisonPhase(spread float64) { s.unisonPhase = spread }
func (s *Synth) SetUnisonPan(spread float64)  { s.unisonPan = spread }

// SetPolyphony sets the polyphony cap, clamped into [1, pool size].
func (s *Synth) SetPolyphony(n int) {
	switch {
	case n < 1:
		n = 1
	case n > len(s.pool):
		n = len(s.pool)
	}
	s.nPolyphony = n
}

// calcHzFromMidi converts a MIDI note to a frequency centered on note
// 64 (E4) at 440Hz, matching the original firmware's tuning formula
// exactly.
func (s *Synth) calcHzFromMidi(note byte) float64 {
	return s.centerTune * math.Pow(2, (float64(note)-64)/12)
}

// findFreeVoice returns the pool slot index and current generation of
// the first free voice, attempting one cleanup pass first if the pool
// looks full.
func (s *Synth) findFreeVoice() (slot int, gen uint32, ok bool) {
	if s.voicesUsed >= len(s.pool) {
		s.CleanVoicePool()
		if s.voicesUsed >= len(s.pool) {
			return 0, 0, false
		}
	}
	for i := range s.pool {
		if !s.pool[i].inUse {
			s.pool[i].inUse = true
			s.voicesUsed++
			return i, s.pool[i].gen, true
		}
	}
	return 0, 0, false
}

func (s *Synth) deref(ref voiceRef) (*voice.FMVoice, bool) {
	if ref.slot < 0 || ref.slot >= len(s.pool) {
		return nil, false
	}
	slot := &s.pool[ref.slot]
	if !slot.inUse || slot.gen != ref.gen {
		return nil, false
	}
	return slot.voice, true
}

// playNote allocates and initializes the voice(s) for one key press,
// applying unison spread if configured. It returns nil if allocation
// failed; any voices already claimed for a partially-allocated unison
// stack are released back to the pool rather than leaving a half-thick
// note sounding.
func (s *Synth) playNote(note, velocity byte, elapsed float64) []voiceRef {
	hz := s.calcHzFromMidi(note)

	if s.unison > 0 {
		refs := make([]voiceRef, 0, s.unison)
		stepsize := 1.0 / float64(s.unison)
		nCenter := 1
		if s.unison%2 == 0 {
			nCenter = 2
		}
		center := (s.unison - 1) / 2
		for i := 0; i < s.unison; i++ {
			slotIdx, gen, ok := s.findFreeVoice()
			if !ok {
				s.releaseRefs(refs)
				return nil
			}
			velFac := s.unisonVol
			if i >= center && i < center+nCenter {
				velFac = 1
			}
			pan := -s.unisonPan + float64(i)*2*s.unisonPan*stepsize
			phaseOffset := s.unisonPhase * float64(i) * stepsize
			detune := -0.5*s.unisonPitch + float64(i)*s.unisonPitch*stepsize + s.globalDetune

			v := s.pool[slotIdx].voice
			v.Init(hz, velFac*float64(velocity)/127, pan, phaseOffset)
			v.SetDetune(detune)
			v.OverrideTimePos(elapsed)
			refs = append(refs, voiceRef{slot: slotIdx, gen: gen})
		}
		return refs
	}

	slotIdx, gen, ok := s.findFreeVoice()
	if !ok {
		return nil
	}
	v := s.pool[slotIdx].voice
	v.Init(hz, float64(velocity)/127, 0, 0)
	v.OverrideTimePos(elapsed)
	v.SetDetune(s.globalDetune)
	return []voiceRef{{slot: slotIdx, gen: gen}}
}

// releaseRefs returns already-claimed voices back to the free pool,
// used when a unison allocation fails partway through.
func (s *Synth) releaseRefs(refs []voiceRef) {
	for _, ref := range refs {
		if v, ok := s.deref(ref); ok {
			v.Reset()
			s.pool[ref.slot].inUse = false
			s.pool[ref.slot].gen++
			s.voicesUsed--
		}
	}
}

// NotePressed handles a semantic note-on event under the synth's
// current mono/legato/unison/polyphony configuration.
func (s *Synth) NotePressed(note, velocity byte) {
	if s.mono {
		if s.legato && len(s.keyEvents) > 0 {
			key := &s.keyEvents[0]
			newFreq := s.calcHzFromMidi(note)
			for _, ref := range key.refs {
				if v, ok := s.deref(ref); ok {
					v.OverrideFrequency(newFreq)
					v.SetDetune(s.globalDetune)
				}
			}
			key.note = note
			key.velocity = velocity
			return
		}
		if len(s.keyEvents) > 0 {
			s.NoteReleased(s.keyEvents[0].note, 0xFF)
		}
		refs := s.playNote(note, velocity, 0)
		if len(refs) > 0 {
			s.keyEvents = append(s.keyEvents, keyEvent{note: note, velocity: velocity, refs: refs})
		}
		return
	}

	if s.voicesUsed >= s.nPolyphony {
		return
	}
	refs := s.playNote(note, velocity, 0)
	if len(refs) > 0 {
		s.keyEvents = append(s.keyEvents, keyEvent{note: note, velocity: velocity, refs: refs})
	}
}

// NoteReleased handles a semantic note-off event. Every key-event
// record whose note matches is released regardless of velocity (the
// original firmware hard-codes this "release any velocity" behaviour;
// the velocity argument is accepted for interface symmetry only).
func (s *Synth) NoteReleased(note, velocity byte) {
	remaining := s.keyEvents[:0]
	for _, ke := range s.keyEvents {
		if ke.note == note {
			for _, ref := range ke.refs {
				if v, ok := s.deref(ref); ok {
					v.EventReleased(s.params)
				}
			}
			continue
		}
		remaining = append(remaining, ke)
	}
	s.keyEvents = remaining
	s.CleanVoicePool()
}

// GetSample sums generateSample across every in-use, not-yet-done voice.
func (s *Synth) GetSample(isLeftChannel bool) float64 {
	var sum float64
	for i := range s.pool {
		if s.pool[i].inUse && !s.pool[i].voice.IsDone(s.outputVols, s.params) {
			sum += s.pool[i].voice.GenerateSample(s.params, s.matrix, s.outputVols, s.outputPans, isLeftChannel)
		}
	}
	return sum
}

// IncrementPhases advances every in-use voice's phase bank by dtMs.
func (s *Synth) IncrementPhases(dtMs float64) {
	for i := range s.pool {
		if s.pool[i].inUse {
			s.pool[i].voice.IncrementPhase(dtMs, s.params)
		}
	}
}

// CleanVoicePool scans the pool and reclaims any in-use voice that has
// finished sounding.
func (s *Synth) CleanVoicePool() {
	for i := range s.pool {
		if s.pool[i].inUse && s.pool[i].voice.IsDone(s.outputVols, s.params) {
			s.pool[i].voice.Reset()
			s.pool[i].inUse = false
			s.pool[i].gen++
			s.voicesUsed--
		}
	}
}

// ADSR is a convenience accessor so CC wiring can reach
// operator i's envelope without exposing the whole Params struct.
func (s *Synth) ADSR(i int) *envelope.ADSR {
	p := s.Param(i)
	if p == nil {
		return nil
	}
	return p.ADSR
}
