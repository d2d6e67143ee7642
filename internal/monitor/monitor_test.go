package monitor_test

import (
	"bytes"
	"context"
	stderrors "errors"
	"strings"
	"testing"
	"time"

	"codeberg.org/mutker/alcomon/internal/adc/adctest"
	"codeberg.org/mutker/alcomon/internal/converter"
	"codeberg.org/mutker/alcomon/internal/errors"
	"codeberg.org/mutker/alcomon/internal/metrics"
	"codeberg.org/mutker/alcomon/internal/monitor"
	"codeberg.org/mutker/alcomon/internal/report"
	"codeberg.org/mutker/alcomon/internal/sampler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type instantSleeper struct{}

func (instantSleeper) Sleep(ctx context.Context, _ time.Duration) error {
	return ctx.Err()
}

// cancelingSleeper cancels the run after a fixed number of intervals.
type cancelingSleeper struct {
	after  int
	cancel context.CancelFunc
	sleeps []time.Duration
}

func (s *cancelingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	s.sleeps = append(s.sleeps, d)
	if len(s.sleeps) >= s.after {
		s.cancel()
	}
	return ctx.Err()
}

type recordingCollector struct {
	snapshots []metrics.Snapshot
	failures  []errors.ErrorCode
}

func (c *recordingCollector) Record(_ context.Context, s *metrics.Snapshot) error {
	c.snapshots = append(c.snapshots, *s)
	return nil
}

func (c *recordingCollector) RecordFailure(code errors.ErrorCode) {
	c.failures = append(c.failures, code)
}

func (*recordingCollector) Close() error { return nil }

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, stderrors.New("broken pipe")
}

func newSampler(t *testing.T, fake *adctest.Fake) *sampler.Sampler {
	t.Helper()

	s, err := sampler.New(fake, sampler.WithSleeper(instantSleeper{}))
	require.NoError(t, err)

	return s
}

func steppingClock(step time.Duration) func() time.Time {
	now := time.Unix(1700000000, 0)
	return func() time.Time {
		now = now.Add(step)
		return now
	}
}

func TestCycle(t *testing.T) {
	var out bytes.Buffer
	collector := &recordingCollector{}

	m, err := monitor.New(newSampler(t, adctest.NewFake(2048)), converter.Default(), report.NewSink(&out),
		monitor.WithCollector(collector),
		monitor.WithClock(steppingClock(10*time.Millisecond)),
	)
	require.NoError(t, err)

	reading, err := m.Cycle(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2048.0, reading.Raw)
	assert.InDelta(t, 2.5256043956043954, reading.Voltage, 1e-9)
	assert.InDelta(t, 60.63514199454696, reading.PPM, 1e-9)
	assert.InDelta(t, 0.12127028398909392, reading.MgPerLiter, 1e-12)
	assert.Equal(t, "ADC: 2048 | V: 2.53 V | Alcohol: 60.64 ppm | mg/L: 0.121\n---\n", out.String())

	require.Len(t, collector.snapshots, 1)
	assert.Equal(t, 10*time.Millisecond, collector.snapshots[0].Duration)
	assert.False(t, collector.snapshots[0].OutOfRange)
	assert.Empty(t, collector.failures)

	assert.Equal(t, monitor.Stats{Cycles: 1}, m.Stats())
}

func TestCycleAcquisitionFailure(t *testing.T) {
	var out bytes.Buffer
	collector := &recordingCollector{}
	fake := adctest.NewFake(2048).FailAt(5, stderrors.New("i2c timeout"))

	m, err := monitor.New(newSampler(t, fake), converter.Default(), report.NewSink(&out),
		monitor.WithCollector(collector),
	)
	require.NoError(t, err)

	_, err = m.Cycle(context.Background())
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, sampler.ErrAcquisitionFailed))

	assert.True(t, strings.HasPrefix(out.String(), "ERROR: "))
	assert.Contains(t, out.String(), "i2c timeout")
	assert.NotContains(t, out.String(), "ADC:")
	assert.True(t, strings.HasSuffix(out.String(), "\n---\n"))

	assert.Empty(t, collector.snapshots)
	assert.Equal(t, []errors.ErrorCode{sampler.ErrAcquisitionFailed}, collector.failures)
	assert.Equal(t, monitor.Stats{Cycles: 1, Failures: 1}, m.Stats())
}

func TestCycleOutOfRangeWarning(t *testing.T) {
	var out bytes.Buffer
	collector := &recordingCollector{}

	m, err := monitor.New(newSampler(t, adctest.NewFake(4095)), converter.Default(), report.NewSink(&out),
		monitor.WithCollector(collector),
	)
	require.NoError(t, err)

	reading, err := m.Cycle(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 1.8668335288044802, reading.MgPerLiter, 1e-9)

	lines := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "WARN: "))
	assert.True(t, strings.HasPrefix(lines[1], "ADC: 4095 | "))
	assert.Equal(t, "---", lines[2])

	require.Len(t, collector.snapshots, 1)
	assert.True(t, collector.snapshots[0].OutOfRange)
	assert.Equal(t, monitor.Stats{Cycles: 1, Warnings: 1}, m.Stats())
}

func TestCycleReportFailure(t *testing.T) {
	m, err := monitor.New(newSampler(t, adctest.NewFake(100)), converter.Default(), report.NewSink(failingWriter{}))
	require.NoError(t, err)

	_, err = m.Cycle(context.Background())
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrReport))
}

func TestRun(t *testing.T) {
	var out bytes.Buffer
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fake := adctest.NewFake(2048).FailAt(0, stderrors.New("bus error"))
	sleeper := &cancelingSleeper{after: 3, cancel: cancel}

	m, err := monitor.New(newSampler(t, fake), converter.Default(), report.NewSink(&out),
		monitor.WithSleeper(sleeper),
	)
	require.NoError(t, err)

	require.NoError(t, m.Run(ctx))

	assert.Equal(t, []time.Duration{monitor.DefaultInterval, monitor.DefaultInterval, monitor.DefaultInterval}, sleeper.sleeps)
	assert.Equal(t, monitor.Stats{Cycles: 3, Failures: 1}, m.Stats())

	text := out.String()
	assert.Equal(t, 1, strings.Count(text, "ERROR: "))
	assert.Equal(t, 2, strings.Count(text, "ADC: 2048 | V: 2.53 V | Alcohol: 60.64 ppm | mg/L: 0.121\n"))
	assert.Equal(t, 3, strings.Count(text, "---\n"))
	// One failed read on the first cycle, then two full bursts.
	assert.Equal(t, 1+2*sampler.DefaultCount, fake.Calls())
}

func TestRunCustomInterval(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sleeper := &cancelingSleeper{after: 1, cancel: cancel}
	m, err := monitor.New(newSampler(t, adctest.NewFake(1)), converter.Default(), report.NewSink(&bytes.Buffer{}),
		monitor.WithSleeper(sleeper),
		monitor.WithInterval(500*time.Millisecond),
	)
	require.NoError(t, err)

	require.NoError(t, m.Run(ctx))
	assert.Equal(t, []time.Duration{500 * time.Millisecond}, sleeper.sleeps)
}

func TestRunStopsOnReportFailure(t *testing.T) {
	sleeper := &cancelingSleeper{after: 100, cancel: func() {}}
	m, err := monitor.New(newSampler(t, adctest.NewFake(1)), converter.Default(), report.NewSink(failingWriter{}),
		monitor.WithSleeper(sleeper),
	)
	require.NoError(t, err)

	err = m.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrReport))
	assert.Empty(t, sleeper.sleeps)
}

func TestRunCanceledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	m, err := monitor.New(newSampler(t, adctest.NewFake(1)), converter.Default(), report.NewSink(&out))
	require.NoError(t, err)

	require.NoError(t, m.Run(ctx))
	assert.Empty(t, out.String())
	assert.Zero(t, m.Stats().Failures)
}

func TestNewValidation(t *testing.T) {
	s := newSampler(t, adctest.NewFake(1))
	sink := report.NewSink(&bytes.Buffer{})

	_, err := monitor.New(nil, converter.Default(), sink)
	assert.True(t, errors.HasCode(err, errors.ErrInvalidArgument))

	_, err = monitor.New(s, nil, sink)
	assert.True(t, errors.HasCode(err, errors.ErrInvalidArgument))

	_, err = monitor.New(s, converter.Default(), nil)
	assert.True(t, errors.HasCode(err, errors.ErrInvalidArgument))

	_, err = monitor.New(s, converter.Default(), sink, monitor.WithInterval(0))
	assert.True(t, errors.HasCode(err, errors.ErrInvalidInterval))
}
