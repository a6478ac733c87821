// Command fm432render renders a fixed demo phrase played through the
// FM engine to a WAV file, without needing any audio hardware or MIDI
// input — useful for regression-checking the synth offline.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	fm432 "github.com/fm432/fm432-go"
	"github.com/fm432/fm432-go/internal/effects"
	"github.com/fm432/fm432-go/internal/wav"
)

func main() {
	var (
		outPath    = flag.String("out", "fm432-demo.wav", "output WAV path")
		sampleRate = flag.Int("sample-rate", 48000, "output sample rate")
		seconds    = flag.Float64("seconds", 4, "duration of the rendered demo, in seconds")
	)
	flag.Parse()

	samples, err := renderDemo(*sampleRate, *seconds)
	if err != nil {
		log.Fatal(err)
	}

	encoded := wav.EncodeFloat32LE(samples, *sampleRate, 2)
	if err := os.WriteFile(*outPath, encoded, 0o644); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("wrote %s (%d frames at %dHz)\n", *outPath, len(samples)/2, *sampleRate)
}

// renderDemo plays a short ascending arpeggio on a two-operator FM
// patch and returns the rendered interleaved stereo samples.
func renderDemo(sampleRate int, seconds float64) ([]float32, error) {
	e, err := fm432.New(fm432.Config{SampleRate: sampleRate, OperatorCount: 2, MaxPolyphony: 4})
	if err != nil {
		return nil, fmt.Errorf("fm432render: %w", err)
	}

	e.Synth().SetOutputVolume(0, 1)
	e.Synth().SetOutputVolume(1, 0.6)
	e.Synth().SetMod(0, 1, 1.5)
	e.Synth().Param(1).ADSR.SetAttack(5)
	e.Synth().Param(1).ADSR.SetDecay(300)
	e.Synth().Param(1).ADSR.SetSustain(0.2)
	e.Synth().Param(1).ADSR.SetRelease(200)

	e.AddEffect(effects.NewDelay(sampleRate, 180, 0.35, 0.2, 0.3))
	e.AddEffect(effects.NewReverb(sampleRate, 0.6, 0.5, 0.25))

	frames := int(float64(sampleRate) * seconds)
	out := make([]float32, frames*2)

	notes := []byte{60, 64, 67, 72}
	noteFrames := frames / len(notes)
	for i, note := range notes {
		e.ConsumeMIDIByte(0x90)
		e.ConsumeMIDIByte(note)
		e.ConsumeMIDIByte(100)

		start := i * noteFrames
		end := start + noteFrames
		if i == len(notes)-1 {
			end = frames
		}
		e.ProcessStereo(out[start*2 : end*2])

		e.ConsumeMIDIByte(0x80)
		e.ConsumeMIDIByte(note)
		e.ConsumeMIDIByte(0)
	}
	return out, nil
}
