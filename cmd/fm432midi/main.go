// Command fm432midi decodes a raw MIDI byte stream (from a file or
// stdin) and prints the semantic events the parser fires, without
// touching any synth or audio sink — a diagnostic tool for inspecting
// a captured byte stream or testing a MIDI controller's wiring.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/fm432/fm432-go/internal/midi"
	"github.com/fm432/fm432-go/internal/midiio"
)

func main() {
	var (
		path    = flag.String("file", "", "path to a raw MIDI byte file; omitted reads stdin")
		channel = flag.Int("channel", 16, "MIDI channel filter, 0-15 specific or >=16 omni")
		midi2   = flag.Bool("midi2", false, "treat CC pairs as 14-bit (MIDI-2-compliant) reassembly")
	)
	flag.Parse()

	r, closeFn, err := openInput(*path)
	if err != nil {
		log.Fatal(err)
	}
	defer closeFn()

	p := midi.New()
	p.SetChannel(*channel)
	p.SetMIDI2Compliant(*midi2)
	p.SetHandlers(midi.Handlers{
		OnNoteOn:    func(n, v byte) { fmt.Printf("note-on  note=%d velocity=%d\n", n, v) },
		OnNoteOff:   func(n, v byte) { fmt.Printf("note-off note=%d velocity=%d\n", n, v) },
		OnCC7:       func(id, v byte) { fmt.Printf("cc7      id=%d value=%d\n", id, v) },
		OnCC14:      func(id byte, v uint16) { fmt.Printf("cc14     id=%d value=%d\n", id, v) },
		OnPitchBend: func(v uint16) { fmt.Printf("bend     value=%d\n", v) },
	})

	src := midiio.NewReaderSource(r)
	src.Start()
	for b := range src.Bytes() {
		p.ConsumeByte(b)
	}
}

func openInput(path string) (io.Reader, func(), error) {
	if path == "" {
		return os.Stdin, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("fm432midi: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}
