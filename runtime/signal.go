// Package runtime owns the lifecycle of the control surfaces: a one-shot
// cooperative stop signal, the surface contract, the indicator blink task
// and the coordinator that starts everything and drives shutdown.
package runtime

import "sync"

// StopSignal is a single-writer, multi-reader one-shot broadcast. It is
// passed by reference into every long-running task at construction time;
// loops observe it at each sleep boundary.
type StopSignal struct {
	once sync.Once
	ch   chan struct{}
}

func NewStopSignal() *StopSignal {
	return &StopSignal{ch: make(chan struct{})}
}

// Trigger sets the signal. Safe to call more than once; only the first call
// has an effect.
func (s *StopSignal) Trigger() {
	s.once.Do(func() { close(s.ch) })
}

// Done returns a channel closed once the signal has been triggered.
func (s *StopSignal) Done() <-chan struct{} {
	return s.ch
}

// Stopped reports whether the signal has been triggered.
func (s *StopSignal) Stopped() bool {
	select {
	case <-s.ch:
		return true
	default:
		return false
	}
}

// Wait blocks until the signal is triggered.
func (s *StopSignal) Wait() {
	<-s.ch
}
