// Command fm432synth runs the FM engine live against a host audio
// sink, driven either by raw MIDI bytes piped in on stdin or by an
// ASCII-keyboard-as-MIDI demo mode when no real MIDI source is wired
// up.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"

	fm432 "github.com/fm432/fm432-go"
	"github.com/fm432/fm432-go/internal/audio"
	"github.com/fm432/fm432-go/internal/effects"
	"github.com/fm432/fm432-go/internal/midiio"
)

func main() {
	var (
		sampleRate = flag.Int("sample-rate", 48000, "output sample rate")
		sink       = flag.String("sink", "ebiten", "audio sink: ebiten|portaudio")
		keyboard   = flag.Bool("keyboard", false, "read stdin as an ASCII-keyboard-as-MIDI demo instead of raw MIDI bytes")
		chorus     = flag.Bool("chorus", false, "layer a chorus effect onto the master output")
	)
	flag.Parse()

	e, err := fm432.New(fm432.Config{SampleRate: *sampleRate, OperatorCount: 2, MaxPolyphony: 6})
	if err != nil {
		log.Fatal(err)
	}
	e.Synth().SetOutputVolume(0, 1)
	e.Synth().SetOutputVolume(1, 0.5)
	e.Synth().SetMod(0, 1, 1)
	if *chorus {
		e.AddEffect(effects.NewChorus(*sampleRate, 15, 0.2, 4, 0.8, 0.4))
	}

	stop, err := startSink(*sink, *sampleRate, e)
	if err != nil {
		log.Fatal(err)
	}
	defer stop()

	if *keyboard {
		runKeyboardDemo(e)
		return
	}
	runRawMIDIFromStdin(e)
}

func startSink(kind string, sampleRate int, e *fm432.Engine) (stop func(), err error) {
	switch kind {
	case "portaudio":
		s, err := audio.NewPortAudioSink(sampleRate, e)
		if err != nil {
			return nil, fmt.Errorf("fm432synth: %w", err)
		}
		if err := s.Start(); err != nil {
			return nil, fmt.Errorf("fm432synth: %w", err)
		}
		return func() { _ = s.Stop() }, nil
	case "ebiten":
		p, err := audio.NewPlayer(sampleRate, e)
		if err != nil {
			return nil, fmt.Errorf("fm432synth: %w", err)
		}
		p.Play()
		return func() { _ = p.Stop() }, nil
	default:
		return nil, fmt.Errorf("fm432synth: unknown sink %q (expected ebiten|portaudio)", kind)
	}
}

// runKeyboardDemo reads raw terminal bytes and plays notes from the
// home-row ASCII piano mapping until EOF or Ctrl-C (read as byte 0x03,
// since the terminal is in raw mode).
func runKeyboardDemo(e *fm432.Engine) {
	src, err := midiio.NewStdinSource()
	if err != nil {
		log.Fatal(err)
	}
	if err := src.Start(); err != nil {
		log.Fatal(err)
	}
	defer src.Stop()

	fmt.Fprintln(os.Stderr, "keyboard demo: a w s e d f t g y h u j k, Ctrl-C to quit")
	translator := midiio.NewKeyboardTranslator()
	for b := range src.Bytes() {
		if b == 0x03 { // Ctrl-C
			return
		}
		for _, midiByte := range translator.Translate(b) {
			e.ConsumeMIDIByte(midiByte)
		}
	}
}

// runRawMIDIFromStdin feeds raw MIDI bytes piped into stdin directly
// into the engine's parser.
func runRawMIDIFromStdin(e *fm432.Engine) {
	r := bufio.NewReader(os.Stdin)
	for {
		b, err := r.ReadByte()
		if err != nil {
			return
		}
		e.ConsumeMIDIByte(b)
	}
}
