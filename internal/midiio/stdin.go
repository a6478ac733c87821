// Package midiio supplies MIDI byte sources for a host process: a raw
// stdin reader for interactive demos and a plain io.Reader source for
// captured/fixture byte streams, both feeding a channel-based queue a
// consumer goroutine drains into a midi.Parser.
package midiio

import (
	"fmt"
	"os"
	"sync"
	"syscall"
	"time"

	"golang.org/x/term"
)

// StdinSource reads raw, unbuffered, unechoed bytes from the
// controlling terminal. Each byte read is delivered on the channel
// returned by Bytes, in order, with no line buffering or local echo
// getting in the way of feeding a byte-at-a-time MIDI parser.
type StdinSource struct {
	fd          int
	oldState    *term.State
	nonblockSet bool

	out     chan byte
	stopCh  chan struct{}
	done    chan struct{}
	stopped sync.Once
}

// NewStdinSource puts the controlling terminal into raw mode and
// returns a source ready to Start. Call Stop to restore the terminal
// even if Start was never called.
func NewStdinSource() (*StdinSource, error) {
	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("midiio: set terminal raw mode: %w", err)
	}
	return &StdinSource{
		fd:       fd,
		oldState: oldState,
		out:      make(chan byte, 256),
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}, nil
}

// Bytes returns the channel bytes arrive on.
func (s *StdinSource) Bytes() <-chan byte { return s.out }

// Start begins reading stdin in a background goroutine.
func (s *StdinSource) Start() error {
	if err := syscall.SetNonblock(s.fd, true); err != nil {
		_ = term.Restore(s.fd, s.oldState)
		return fmt.Errorf("midiio: set stdin nonblocking: %w", err)
	}
	s.nonblockSet = true

	go func() {
		defer close(s.done)
		buf := make([]byte, 1)
		for {
			select {
			case <-s.stopCh:
				return
			default:
			}
			n, err := syscall.Read(s.fd, buf)
			if n > 0 {
				select {
				case s.out <- buf[0]:
				case <-s.stopCh:
					return
				}
			}
			switch err {
			case syscall.EAGAIN:
				time.Sleep(5 * time.Millisecond)
			case nil:
				if n == 0 {
					time.Sleep(5 * time.Millisecond)
				}
			default:
				return
			}
		}
	}()
	return nil
}

// Stop terminates the read goroutine, if one was started, and restores
// the terminal to its prior state. Safe to call even if Start was
// never called — the terminal is still put back into its original
// mode.
func (s *StdinSource) Stop() {
	s.stopped.Do(func() { close(s.stopCh) })
	if s.nonblockSet {
		<-s.done
		_ = syscall.SetNonblock(s.fd, false)
	}
	_ = term.Restore(s.fd, s.oldState)
}
