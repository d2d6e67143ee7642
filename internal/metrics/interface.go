package metrics

import (
	"context"
	"time"

	"codeberg.org/mutker/alcomon/internal/errors"
)

// Collector defines the core domain interface
type Collector interface {
	Record(ctx context.Context, snapshot *Snapshot) error
	RecordFailure(code errors.ErrorCode)
	Close() error
}

// Snapshot is one successful cycle
type Snapshot struct {
	Timestamp  time.Time
	Duration   time.Duration
	Raw        float64
	Voltage    float64
	PPM        float64
	MgPerLiter float64
	OutOfRange bool
}
