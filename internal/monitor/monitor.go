// Package monitor runs the measurement cycle: sample, convert, check, report.
package monitor

import (
	"context"
	"sync/atomic"
	"time"

	"codeberg.org/mutker/alcomon/internal/converter"
	"codeberg.org/mutker/alcomon/internal/errors"
	"codeberg.org/mutker/alcomon/internal/logger"
	"codeberg.org/mutker/alcomon/internal/metrics"
	"codeberg.org/mutker/alcomon/internal/sampler"
)

const DefaultInterval = 2000 * time.Millisecond

// Sampler produces one averaged raw reading per call.
type Sampler interface {
	Sample(ctx context.Context) (float64, error)
}

// Reporter receives the human-readable output of each cycle.
type Reporter interface {
	Reading(r converter.Reading) error
	Warning(err error) error
	Failure(err error) error
}

// Stats are process-lifetime counters. Nothing is persisted.
type Stats struct {
	Cycles   uint64
	Failures uint64
	Warnings uint64
}

type Monitor struct {
	sampler   Sampler
	converter *converter.Converter
	reporter  Reporter
	collector metrics.Collector
	sleeper   sampler.Sleeper
	log       logger.Logger
	interval  time.Duration
	now       func() time.Time

	cycles   atomic.Uint64
	failures atomic.Uint64
	warnings atomic.Uint64
}

type Option func(*Monitor) error

func WithInterval(d time.Duration) Option {
	return func(m *Monitor) error {
		if d <= 0 {
			return errors.New().WithData(errors.ErrInvalidInterval, d)
		}
		m.interval = d
		return nil
	}
}

func WithCollector(c metrics.Collector) Option {
	return func(m *Monitor) error {
		if c != nil {
			m.collector = c
		}
		return nil
	}
}

func WithSleeper(s sampler.Sleeper) Option {
	return func(m *Monitor) error {
		if s == nil {
			return errors.New().WithMessage(errors.ErrInvalidArgument, "nil sleeper")
		}
		m.sleeper = s
		return nil
	}
}

func WithLogger(l logger.Logger) Option {
	return func(m *Monitor) error {
		if l != nil {
			m.log = l
		}
		return nil
	}
}

// WithClock replaces time.Now for cycle timestamps and durations.
func WithClock(now func() time.Time) Option {
	return func(m *Monitor) error {
		if now != nil {
			m.now = now
		}
		return nil
	}
}

func New(s Sampler, c *converter.Converter, r Reporter, opts ...Option) (*Monitor, error) {
	errFactory := errors.New()

	switch {
	case s == nil:
		return nil, errFactory.WithMessage(errors.ErrInvalidArgument, "nil sampler")
	case c == nil:
		return nil, errFactory.WithMessage(errors.ErrInvalidArgument, "nil converter")
	case r == nil:
		return nil, errFactory.WithMessage(errors.ErrInvalidArgument, "nil reporter")
	}

	m := &Monitor{
		sampler:   s,
		converter: c,
		reporter:  r,
		collector: noopCollector{},
		sleeper:   sampler.SystemSleeper{},
		log:       logger.Default(),
		interval:  DefaultInterval,
		now:       time.Now,
	}

	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// Cycle performs one measurement. On acquisition failure an error line is
// written instead of a reading and the acquisition error is returned.
func (m *Monitor) Cycle(ctx context.Context) (converter.Reading, error) {
	start := m.now()
	m.cycles.Add(1)

	avg, err := m.sampler.Sample(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return converter.Reading{}, err
		}
		return converter.Reading{}, m.fail(err)
	}

	reading := m.converter.Convert(avg)

	outOfRange := false
	if warn := m.converter.Check(reading); warn != nil {
		outOfRange = true
		m.warnings.Add(1)
		m.log.Warn().Err(warn).Float64("raw", reading.Raw).Msg("Reading outside calibrated range")
		if err := m.reporter.Warning(warn); err != nil {
			return reading, err
		}
	}

	if err := m.reporter.Reading(reading); err != nil {
		return reading, err
	}

	end := m.now()
	if err := m.collector.Record(ctx, &metrics.Snapshot{
		Timestamp:  end,
		Duration:   end.Sub(start),
		Raw:        reading.Raw,
		Voltage:    reading.Voltage,
		PPM:        reading.PPM,
		MgPerLiter: reading.MgPerLiter,
		OutOfRange: outOfRange,
	}); err != nil {
		m.log.Debug().Err(err).Msg("Failed to record metrics")
	}

	m.log.Debug().
		Float64("raw", reading.Raw).
		Float64("voltage", reading.Voltage).
		Float64("ppm", reading.PPM).
		Float64("mg_per_l", reading.MgPerLiter).
		Dur("duration", end.Sub(start)).
		Msg("Cycle complete")

	return reading, nil
}

func (m *Monitor) fail(err error) error {
	m.failures.Add(1)

	code, ok := errors.CodeOf(err)
	if !ok {
		code = errors.ErrOperationFailed
	}
	m.collector.RecordFailure(code)

	var appErr errors.Error
	if errors.As(err, &appErr) {
		m.log.ErrorWithContext(appErr, "sampler", "sample").Msg("Acquisition failed")
	} else {
		m.log.Error().Err(err).Msg("Acquisition failed")
	}

	if werr := m.reporter.Failure(err); werr != nil {
		return werr
	}

	return err
}

// Run repeats Cycle with the configured interval between cycles until ctx
// is canceled. Failed acquisitions are reported and skipped; a report
// write failure ends the loop.
func (m *Monitor) Run(ctx context.Context) error {
	m.log.Info().Dur("interval", m.interval).Msg("Monitoring started")

	for {
		_, err := m.Cycle(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if errors.HasCode(err, errors.ErrReport) {
			return err
		}

		if err := m.sleeper.Sleep(ctx, m.interval); err != nil {
			return nil
		}
	}
}

func (m *Monitor) Stats() Stats {
	return Stats{
		Cycles:   m.cycles.Load(),
		Failures: m.failures.Load(),
		Warnings: m.warnings.Load(),
	}
}

type noopCollector struct{}

func (noopCollector) Record(context.Context, *metrics.Snapshot) error { return nil }
func (noopCollector) RecordFailure(errors.ErrorCode)                  {}
func (noopCollector) Close() error                                    { return nil }
