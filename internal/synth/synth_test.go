package synth

import "testing"

func TestNoteOnOffLifecycle(t *testing.T) {
	s := New(1, 4)
	s.SetOutputVolume(0, 1)
	s.Param(0).ADSR.SetRelease(10)

	s.NotePressed(60, 100)
	if s.VoicesUsed() != 1 {
		t.Fatalf("expected 1 voice in use after note-on, got %d", s.VoicesUsed())
	}

	s.IncrementPhases(100)
	s.NoteReleased(60, 0)
	s.IncrementPhases(20)
	s.CleanVoicePool()

	if s.VoicesUsed() != 0 {
		t.Fatalf("expected voice reclaimed after release+decay, got %d in use", s.VoicesUsed())
	}
}

func TestPolyphonyOverflowDropsExcessNotes(t *testing.T) {
	s := New(1, 4)
	s.SetOutputVolume(0, 1)
	for _, n := range []byte{60, 61, 62, 63, 64} {
		s.NotePressed(n, 100)
	}
	if s.VoicesUsed() != 4 {
		t.Fatalf("expected exactly 4 voices in use after 5 note-ons with polyphony cap 4, got %d", s.VoicesUsed())
	}

	for _, n := range []byte{60, 61, 62, 63} {
		s.NoteReleased(n, 0)
	}
	s.Param(0).ADSR.SetRelease(0)
	s.IncrementPhases(0.01)
	s.CleanVoicePool()
	if s.VoicesUsed() != 0 {
		t.Fatalf("expected all voices reclaimed after release, got %d", s.VoicesUsed())
	}

	s.NotePressed(65, 100)
	if s.VoicesUsed() != 1 {
		t.Fatalf("expected a 6th note-on to allocate successfully after pool drained, got %d", s.VoicesUsed())
	}
}

func TestLegatoMonoDoesNotRetriggerEnvelope(t *testing.T) {
	s := New(1, 4)
	s.SetMono(true)
	s.SetLegato(true)
	s.SetOutputVolume(0, 1)

	s.NotePressed(60, 100)
	if s.VoicesUsed() != 1 {
		t.Fatalf("expected exactly one voice in mono mode, got %d", s.VoicesUsed())
	}
	s.IncrementPhases(25)

	elapsedBefore := s.pool[0].voice.Elapsed()
	s.NotePressed(62, 110)

	if s.VoicesUsed() != 1 {
		t.Fatalf("legato note change should not allocate a second voice, got %d in use", s.VoicesUsed())
	}
	if s.pool[0].voice.Elapsed() != elapsedBefore {
		t.Fatalf("legato retrigger must not reset elapsed time: before=%v after=%v", elapsedBefore, s.pool[0].voice.Elapsed())
	}

	want62 := s.calcHzFromMidi(62)
	if got := s.pool[0].voice.Frequency(); got != want62 {
		t.Fatalf("legato note change should retune the held voice to %v, got %v", want62, got)
	}
}

func TestMonoWithoutLegatoRetriggersOnNewNote(t *testing.T) {
	s := New(1, 4)
	s.SetMono(true)
	s.SetOutputVolume(0, 1)

	s.NotePressed(60, 100)
	s.IncrementPhases(50)
	s.NotePressed(62, 100)

	// The held note is released as if by note-off and a fresh voice is
	// allocated for the new one; the released voice stays in use until its
	// release ramp has run out and the pool is cleaned.
	if s.VoicesUsed() != 2 {
		t.Fatalf("mono without legato should release the held voice and allocate a fresh one, got %d in use", s.VoicesUsed())
	}
	if s.pool[1].voice.Elapsed() != 0 {
		t.Fatalf("mono without legato should retrigger the envelope on the fresh voice (elapsed 0), got %v", s.pool[1].voice.Elapsed())
	}
}

func TestVoicesUsedMatchesInUseCount(t *testing.T) {
	s := New(1, 4)
	s.SetOutputVolume(0, 1)
	s.Param(0).ADSR.SetRelease(0)

	check := func() {
		var want int
		for i := range s.pool {
			if s.pool[i].inUse {
				want++
			}
		}
		if want != s.VoicesUsed() {
			t.Fatalf("VoicesUsed() = %d, actual in-use count = %d", s.VoicesUsed(), want)
		}
	}

	s.NotePressed(60, 100)
	check()
	s.NotePressed(61, 100)
	check()
	s.NoteReleased(60, 0)
	check()
	s.CleanVoicePool()
	check()
}

func TestStaleVoiceRefDoesNotCorruptReusedSlot(t *testing.T) {
	s := New(1, 1)
	s.SetOutputVolume(0, 1)
	s.Param(0).ADSR.SetRelease(0)

	s.NotePressed(60, 100)
	oldKey := s.keyEvents[0]

	s.NoteReleased(60, 0)
	s.IncrementPhases(0.01)
	s.CleanVoicePool()
	s.NotePressed(61, 100) // reuses the only pool slot; its generation should have advanced

	for _, ref := range oldKey.refs {
		if _, ok := s.deref(ref); ok {
			t.Fatalf("a stale voice reference to a recycled slot must not resolve")
		}
	}
}

func TestUnisonSpreadsAcrossMultipleVoices(t *testing.T) {
	s := New(1, 8)
	s.SetOutputVolume(0, 1)
	s.SetUnison(3)
	s.SetUnisonPan(0.5)
	s.SetUnisonPitch(20)

	s.NotePressed(60, 100)
	if s.VoicesUsed() != 3 {
		t.Fatalf("expected 3 unison voices, got %d", s.VoicesUsed())
	}
}

func TestSetOutputPanClampsAndWritesPanNotVolume(t *testing.T) {
	s := New(1, 1)
	s.SetOutputVolume(0, 0.8)
	s.SetOutputPan(0, 5) // out of range, should clamp to 1
	if s.outputPans[0] != 1 {
		t.Fatalf("expected pan clamped to 1, got %v", s.outputPans[0])
	}
	if s.outputVols[0] != 0.8 {
		t.Fatalf("SetOutputPan must not touch outputVols (that was the source bug being fixed), got %v", s.outputVols[0])
	}
}
