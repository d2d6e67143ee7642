package adc

import (
	"context"
	"math"
	"math/rand"
	"sync"

	"codeberg.org/mutker/alcomon/internal/errors"
)

// SimulatedConfig describes a synthetic sensor: a steady level with uniform noise.
type SimulatedConfig struct {
	Level  float64 // counts
	Noise  float64 // peak deviation in counts
	Seed   int64
	MaxRaw int
}

type simulated struct {
	level  float64
	noise  float64
	maxRaw int
	rng    *rand.Rand
	mu     sync.Mutex
}

// NewSimulated returns a Reader producing level±noise, clamped to [0, MaxRaw].
// The same seed yields the same sequence.
func NewSimulated(cfg SimulatedConfig) Reader {
	maxRaw := cfg.MaxRaw
	if maxRaw <= 0 {
		maxRaw = DefaultMaxRaw
	}

	return &simulated{
		level:  cfg.Level,
		noise:  math.Abs(cfg.Noise),
		maxRaw: maxRaw,
		rng:    rand.New(rand.NewSource(cfg.Seed)),
	}
}

func (s *simulated) ReadChannel(ctx context.Context, channel int) (int, error) {
	if err := checkContext(ctx); err != nil {
		return 0, err
	}
	if channel < 0 {
		return 0, errors.New().WithData(ErrInvalidChannel, channel)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	value := s.level
	if s.noise > 0 {
		value += (s.rng.Float64()*2 - 1) * s.noise
	}

	counts := int(math.Round(value))
	if counts < 0 {
		counts = 0
	}
	if counts > s.maxRaw {
		counts = s.maxRaw
	}

	return counts, nil
}

func (*simulated) Close() error {
	return nil
}
