package midiio

import "io"

// ReaderSource wraps an io.Reader (a captured MIDI byte fixture, a
// pipe, a file) as a byte source with the same channel-based contract
// as StdinSource, so tests and offline tools can drive a midi.Parser
// without a real terminal.
type ReaderSource struct {
	r    io.Reader
	out  chan byte
	done chan struct{}
}

// NewReaderSource wraps r. Call Start to begin streaming bytes.
func NewReaderSource(r io.Reader) *ReaderSource {
	return &ReaderSource{r: r, out: make(chan byte, 256), done: make(chan struct{})}
}

// Bytes returns the channel bytes arrive on. The channel is closed
// once r is exhausted or returns an error.
func (s *ReaderSource) Bytes() <-chan byte { return s.out }

// Done is closed when the read loop has finished.
func (s *ReaderSource) Done() <-chan struct{} { return s.done }

// Start reads r one byte at a time in a background goroutine until EOF
// or error, then closes the output channel.
func (s *ReaderSource) Start() {
	go func() {
		defer close(s.out)
		defer close(s.done)
		buf := make([]byte, 1)
		for {
			n, err := s.r.Read(buf)
			if n > 0 {
				s.out <- buf[0]
			}
			if err != nil {
				return
			}
		}
	}()
}
