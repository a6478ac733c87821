// Package envelope implements the piecewise-linear attack-decay-sustain-release
// amplitude envelope used by every operator. All durations are in
// milliseconds; a duration at or below instantThreshold is treated as
// instantaneous so its slope contribution is suppressed rather than
// producing a division blow-up.
package envelope

const instantThreshold = 1e-3

// ADSR holds one operator's envelope parameters together with the
// precomputed slopes derived from them. Call Recalc (or one of the
// Set* setters, which call it for you) after mutating attack, decay,
// sustain, or release directly.
type ADSR struct {
	attack  float64
	decay   float64
	sustain float64
	release float64

	aSlope float64
	dSlope float64
	rSlope float64
	rVal   float64
	tAD    float64
}

// New returns an ADSR with the given parameters and its slopes
// precalculated.
func New(attack, decay, sustain, release float64) *ADSR {
	a := &ADSR{attack: attack, decay: decay, sustain: sustain, release: release, rVal: sustain}
	a.Recalc()
	return a
}

func (a *ADSR) SetAttack(ms float64) {
	a.attack = ms
	a.Recalc()
}

func (a *ADSR) SetDecay(ms float64) {
	a.decay = ms
	a.Recalc()
}

// SetSustain updates the sustain level. Note that rVal, the amplitude a
// release ramps down from, is only seeded from sustain at construction
// time and by FastReleaseUpdate thereafter — a later SetSustain call
// does not retroactively move rVal, mirroring the original firmware's
// binding.
func (a *ADSR) SetSustain(level float64) {
	a.sustain = level
	a.Recalc()
}

func (a *ADSR) SetRelease(ms float64) {
	a.release = ms
	a.Recalc()
}

func (a *ADSR) Attack() float64  { return a.attack }
func (a *ADSR) Decay() float64   { return a.decay }
func (a *ADSR) Sustain() float64 { return a.sustain }
func (a *ADSR) Release() float64 { return a.release }

// Recalc refreshes the derived slope values from the current
// attack/decay/sustain/release fields. Must run before the next
// CalcVol after any of those fields changes.
func (a *ADSR) Recalc() {
	if a.attack > instantThreshold {
		a.aSlope = 1 / a.attack
	}
	if a.decay > instantThreshold {
		a.dSlope = (a.sustain - 1) / a.decay
	}
	if a.release > instantThreshold {
		a.rSlope = -a.rVal / a.release
	}
	a.tAD = a.attack + a.decay
}

// FastReleaseUpdate is called when a release happens before the
// envelope settled into sustain (i.e. mid-attack or mid-decay). It
// pins rVal to the amplitude actually held at release time and
// recomputes rSlope so the release ramp starts continuously from
// there instead of clicking down from the nominal sustain level.
func (a *ADSR) FastReleaseUpdate(lastHeld float64) {
	a.rVal = lastHeld
	if a.release > instantThreshold {
		a.rSlope = -a.rVal / a.release
	}
}

// CalcVol evaluates the envelope at timepos milliseconds since note-on,
// given releaseTime (milliseconds since note-on at which release
// began, or a very large sentinel if not yet released).
//
// Release takes precedence over attack/decay/sustain once timepos
// reaches releaseTime, even if that happens before the attack or decay
// phase would otherwise have finished — the four regions partition
// time into "before release" (attack/decay/sustain, governed purely by
// timepos against attack and attack+decay) and "at or after release"
// (the release ramp, or silence once it has fully elapsed).
func (a *ADSR) CalcVol(timepos, releaseTime float64) float64 {
	if timepos >= releaseTime {
		if timepos <= releaseTime+a.release {
			return a.rVal + a.rSlope*(timepos-releaseTime)
		}
		return 0
	}
	switch {
	case timepos < a.attack:
		return timepos * a.aSlope
	case timepos < a.tAD:
		return 1 + a.dSlope*(timepos-a.attack)
	default:
		return a.sustain
	}
}

// IsDone reports whether the envelope has fully decayed to silence at
// timepos given the note released at releaseTime.
func (a *ADSR) IsDone(timepos, releaseTime float64) bool {
	return timepos > releaseTime+a.release
}
