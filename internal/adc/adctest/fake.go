// Package adctest provides a scripted adc.Reader for tests.
package adctest

import (
	"context"
	"sync"
)

// Fake returns Values in order, wrapping around, and fails on chosen calls.
type Fake struct {
	Values []int

	mu       sync.Mutex
	calls    int
	failures map[int]error
	channels []int
	closed   bool
}

// NewFake returns a Fake cycling through values.
func NewFake(values ...int) *Fake {
	return &Fake{
		Values:   values,
		failures: make(map[int]error),
	}
}

// FailAt makes the call with the given zero-based index return err.
func (f *Fake) FailAt(call int, err error) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.failures[call] = err

	return f
}

func (f *Fake) ReadChannel(ctx context.Context, channel int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	call := f.calls
	f.calls++
	f.channels = append(f.channels, channel)

	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err, ok := f.failures[call]; ok {
		return 0, err
	}
	if len(f.Values) == 0 {
		return 0, nil
	}

	return f.Values[call%len(f.Values)], nil
}

// Calls returns how many reads were attempted.
func (f *Fake) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.calls
}

// Channels returns the channel passed to each read.
func (f *Fake) Channels() []int {
	f.mu.Lock()
	defer f.mu.Unlock()

	channels := make([]int, len(f.channels))
	copy(channels, f.channels)

	return channels
}

func (f *Fake) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.closed = true

	return nil
}

func (f *Fake) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.closed
}
