package midiio

// keyNotes lays out a one-octave-plus white/black key piano across the
// home row and the row above it, the way a tracker-style ASCII piano
// typically does, for demoing the engine without real MIDI hardware.
var keyNotes = map[byte]byte{
	'a': 60, 'w': 61, 's': 62, 'e': 63, 'd': 64,
	'f': 65, 't': 66, 'g': 67, 'y': 68, 'h': 69,
	'u': 70, 'j': 71, 'k': 72,
}

// NoteForKey reports the MIDI note an ASCII keyboard key maps to, if any.
func NoteForKey(b byte) (note byte, ok bool) {
	note, ok = keyNotes[b]
	return
}

// KeyboardTranslator turns a raw ASCII byte stream into MIDI channel-1
// Note-On/Note-Off byte sequences. Because a raw terminal read cannot
// distinguish key-down from key-up, each recognized key toggles: the
// first press emits a Note-On, the next press of the same key emits
// the matching Note-Off.
type KeyboardTranslator struct {
	held map[byte]bool
}

// NewKeyboardTranslator returns a translator with no keys held.
func NewKeyboardTranslator() *KeyboardTranslator {
	return &KeyboardTranslator{held: make(map[byte]bool)}
}

// Translate maps one ASCII byte to 0..3 raw MIDI bytes to feed a
// parser: a status byte and two data bytes for a recognized key, or
// nothing for an unrecognized one.
func (k *KeyboardTranslator) Translate(asciiByte byte) []byte {
	note, ok := NoteForKey(asciiByte)
	if !ok {
		return nil
	}
	if k.held[note] {
		k.held[note] = false
		return []byte{0x80, note, 0}
	}
	k.held[note] = true
	return []byte{0x90, note, 100}
}
