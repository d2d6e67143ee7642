// Package adc provides the analog inputs the sampler acquires from.
package adc

import (
	"context"
	"time"

	"codeberg.org/mutker/alcomon/internal/errors"
)

const (
	DefaultMaxRaw      = 4095
	DefaultBaudRate    = 115200
	DefaultReadTimeout = 500 * time.Millisecond

	SourceSimulated = "simulated"
	SourceADS1115   = "ads1115"
	SourceSerial    = "serial"
)

// Reader returns one raw conversion from an analog channel.
type Reader interface {
	// ReadChannel returns a value in [0, MaxRaw] or an error. It never
	// substitutes a value for a failed conversion.
	ReadChannel(ctx context.Context, channel int) (int, error)
	Close() error
}

// Config selects and configures a Reader.
type Config struct {
	Source    string
	MaxRaw    int
	ADS1115   ADS1115Config
	Serial    SerialConfig
	Simulated SimulatedConfig
}

// Open creates the Reader named by cfg.Source.
func Open(cfg Config) (Reader, error) {
	errFactory := errors.New()

	maxRaw := cfg.MaxRaw
	if maxRaw <= 0 {
		maxRaw = DefaultMaxRaw
	}

	switch cfg.Source {
	case SourceSimulated:
		simCfg := cfg.Simulated
		simCfg.MaxRaw = maxRaw
		return NewSimulated(simCfg), nil
	case SourceADS1115:
		adsCfg := cfg.ADS1115
		adsCfg.MaxRaw = maxRaw
		return NewADS1115(adsCfg)
	case SourceSerial:
		serialCfg := cfg.Serial
		serialCfg.MaxRaw = maxRaw
		return NewSerial(serialCfg)
	default:
		return nil, errFactory.WithData(ErrUnknownSource, cfg.Source)
	}
}

func checkRange(value, maxRaw int) error {
	if value < 0 || value > maxRaw {
		return errors.New().WithData(ErrValueOutOfRange, value)
	}

	return nil
}

func checkContext(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return errors.New().Wrap(errors.ErrCanceled, err)
	}

	return nil
}
