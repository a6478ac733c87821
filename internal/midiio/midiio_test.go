package midiio

import (
	"bytes"
	"testing"
	"time"
)

func TestReaderSourceStreamsBytesInOrder(t *testing.T) {
	src := NewReaderSource(bytes.NewReader([]byte{0x90, 60, 100, 0x80, 60, 0}))
	src.Start()

	var got []byte
	for b := range src.Bytes() {
		got = append(got, b)
	}

	want := []byte{0x90, 60, 100, 0x80, 60, 0}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("byte %d: got %v, want %v", i, got[i], want[i])
		}
	}

	select {
	case <-src.Done():
	case <-time.After(time.Second):
		t.Fatalf("Done channel never closed")
	}
}

func TestKeyboardTranslatorTogglesNoteOnOff(t *testing.T) {
	k := NewKeyboardTranslator()

	on := k.Translate('a')
	if len(on) != 3 || on[0] != 0x90 || on[1] != 60 {
		t.Fatalf("expected note-on for 'a', got %v", on)
	}

	off := k.Translate('a')
	if len(off) != 3 || off[0] != 0x80 || off[1] != 60 {
		t.Fatalf("expected note-off on second press, got %v", off)
	}
}

func TestKeyboardTranslatorIgnoresUnmappedKeys(t *testing.T) {
	k := NewKeyboardTranslator()
	if got := k.Translate('1'); got != nil {
		t.Fatalf("expected nil for an unmapped key, got %v", got)
	}
}

func TestNoteForKeyCoversHomeRowOctave(t *testing.T) {
	if note, ok := NoteForKey('a'); !ok || note != 60 {
		t.Fatalf("expected 'a' to map to middle C (60), got %v ok=%v", note, ok)
	}
}
