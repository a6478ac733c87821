package audio

import (
	"fmt"

	"github.com/gordonklaus/portaudio"
)

const defaultBufferSize = 256

// PortAudioSink drives a SampleSource through a native PortAudio
// stream, for a low-latency CLI build that doesn't want to pull in
// ebiten/oto. It renders interleaved stereo float32 frames directly,
// the same contract SampleSource already exposes for the ebiten-backed
// Player.
type PortAudioSink struct {
	source SampleSource
	stream *portaudio.Stream
}

// NewPortAudioSink opens the default PortAudio output device at
// sampleRate with 2 output channels. Call Start to begin playback and
// Stop to release the device.
func NewPortAudioSink(sampleRate int, source SampleSource) (*PortAudioSink, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("portaudio sink: initialize: %w", err)
	}
	s := &PortAudioSink{source: source}
	stream, err := portaudio.OpenDefaultStream(0, 2, float64(sampleRate), defaultBufferSize, s.process)
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("portaudio sink: open stream: %w", err)
	}
	s.stream = stream
	return s, nil
}

// process is the PortAudio callback: out is one interleaved stereo
// buffer to fill per call.
func (s *PortAudioSink) process(out []float32) {
	s.source.Process(out)
}

func (s *PortAudioSink) Start() error {
	if err := s.stream.Start(); err != nil {
		return fmt.Errorf("portaudio sink: start: %w", err)
	}
	return nil
}

func (s *PortAudioSink) Stop() error {
	if err := s.stream.Close(); err != nil {
		return fmt.Errorf("portaudio sink: close: %w", err)
	}
	return portaudio.Terminate()
}
