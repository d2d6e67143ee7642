package sampler

import (
	"context"
	"time"

	"codeberg.org/mutker/alcomon/internal/adc"
	"codeberg.org/mutker/alcomon/internal/errors"
)

const (
	DefaultChannel = 1
	DefaultCount   = 100
	DefaultDelay   = 5 * time.Millisecond
)

// Sampler averages a fixed number of raw readings from one analog channel.
type Sampler struct {
	reader  adc.Reader
	sleeper Sleeper
	channel int
	count   int
	delay   time.Duration
	maxRaw  int
	window  *Window
}

type Option func(*Sampler) error

// WithChannel sets the analog channel to read.
func WithChannel(channel int) Option {
	return func(s *Sampler) error {
		if channel < 0 {
			return errors.New().WithData(errors.ErrInvalidChannel, channel)
		}
		s.channel = channel
		return nil
	}
}

// WithCount sets the number of acquisitions per Sample call.
func WithCount(count int) Option {
	return func(s *Sampler) error {
		if count <= 0 {
			return errors.New().WithData(errors.ErrInvalidSampleCount, count)
		}
		s.count = count
		return nil
	}
}

// WithDelay sets the pause after each acquisition.
func WithDelay(delay time.Duration) Option {
	return func(s *Sampler) error {
		if delay < 0 {
			return errors.New().WithData(errors.ErrInvalidSampleDelay, delay)
		}
		s.delay = delay
		return nil
	}
}

// WithMaxRaw sets the highest valid raw reading.
func WithMaxRaw(maxRaw int) Option {
	return func(s *Sampler) error {
		if maxRaw <= 0 {
			return errors.New().WithData(errors.ErrInvalidArgument, maxRaw)
		}
		s.maxRaw = maxRaw
		return nil
	}
}

// WithSleeper replaces the timer used between acquisitions.
func WithSleeper(sleeper Sleeper) Option {
	return func(s *Sampler) error {
		if sleeper == nil {
			return errors.New().WithMessage(errors.ErrInvalidArgument, "nil sleeper")
		}
		s.sleeper = sleeper
		return nil
	}
}

// WithWindow keeps the last size readings across calls and reports their
// mean instead of the mean of the current burst. Zero keeps burst mode.
func WithWindow(size int) Option {
	return func(s *Sampler) error {
		if size < 0 {
			return errors.New().WithData(errors.ErrInvalidWindow, size)
		}
		if size == 0 {
			s.window = nil
			return nil
		}
		s.window = NewWindow(size)
		return nil
	}
}

// New returns a Sampler reading channel 1, 100 times, 5 ms apart, unless overridden.
func New(reader adc.Reader, opts ...Option) (*Sampler, error) {
	errFactory := errors.New()

	if reader == nil {
		return nil, errFactory.WithMessage(errors.ErrInvalidArgument, "nil reader")
	}

	s := &Sampler{
		reader:  reader,
		sleeper: SystemSleeper{},
		channel: DefaultChannel,
		count:   DefaultCount,
		delay:   DefaultDelay,
		maxRaw:  adc.DefaultMaxRaw,
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Sample acquires count readings and returns their mean. Any failed or
// out-of-range reading aborts the call; no reading is ever replaced by zero.
func (s *Sampler) Sample(ctx context.Context) (float64, error) {
	errFactory := errors.New()

	var (
		sum   int64
		burst []int
	)
	if s.window != nil {
		burst = make([]int, 0, s.count)
	}

	for i := 0; i < s.count; i++ {
		raw, err := s.reader.ReadChannel(ctx, s.channel)
		if err != nil {
			if ctx.Err() != nil {
				return 0, errFactory.Wrap(ErrAcquisitionCanceled, ctx.Err())
			}
			return 0, errors.WrapWithData(ErrAcquisitionFailed, err, Acquisition{
				Channel: s.channel,
				Index:   i,
			})
		}

		if raw < 0 || raw > s.maxRaw {
			return 0, errFactory.WithData(ErrReadingOutOfRange, Acquisition{
				Channel: s.channel,
				Index:   i,
				Value:   raw,
				Max:     s.maxRaw,
			})
		}

		sum += int64(raw)
		if s.window != nil {
			burst = append(burst, raw)
		}

		if err := s.sleeper.Sleep(ctx, s.delay); err != nil {
			return 0, errFactory.Wrap(ErrAcquisitionCanceled, err)
		}
	}

	// a failed burst never reaches the window
	if s.window != nil {
		for _, raw := range burst {
			s.window.Push(raw)
		}
		return s.window.Mean(), nil
	}

	return float64(sum) / float64(s.count), nil
}

// Count returns the number of acquisitions per call.
func (s *Sampler) Count() int {
	return s.count
}

// Channel returns the analog channel being sampled.
func (s *Sampler) Channel() int {
	return s.channel
}
