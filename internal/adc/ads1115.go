package adc

import (
	"context"
	"math"
	"sync"

	"codeberg.org/mutker/alcomon/internal/errors"
	"codeberg.org/mutker/alcomon/internal/logger"
	"periph.io/x/periph/conn/i2c"
	"periph.io/x/periph/conn/i2c/i2creg"
	"periph.io/x/periph/conn/physic"
	"periph.io/x/periph/experimental/conn/analog"
	"periph.io/x/periph/experimental/devices/ads1x15"
	"periph.io/x/periph/host"
)

const (
	defaultReferenceVoltage = 3.3
	defaultFullScale        = 4096 * physic.MilliVolt
	defaultDataRate         = 250 * physic.Hertz
)

// single-ended inputs A0..A3
var adsChannels = []ads1x15.Channel{
	ads1x15.Channel0,
	ads1x15.Channel1,
	ads1x15.Channel2,
	ads1x15.Channel3,
}

// ADS1115Config describes an ADS1115 on an I2C bus. Readings are rescaled so
// that ReferenceVoltage maps to MaxRaw, matching a 12-bit MCU ADC.
type ADS1115Config struct {
	Bus              string
	ReferenceVoltage float64
	MaxRaw           int
}

type ads1115 struct {
	bus    i2c.BusCloser
	dev    *ads1x15.Dev
	pins   map[int]analog.PinADC
	ref    float64
	maxRaw int
	mu     sync.Mutex
}

// NewADS1115 initializes the host drivers and opens the converter.
func NewADS1115(cfg ADS1115Config) (Reader, error) {
	if _, err := host.Init(); err != nil {
		return nil, errors.WrapWithData(ErrOpenFailed, err, "host_init")
	}

	bus, err := i2creg.Open(cfg.Bus)
	if err != nil {
		return nil, errors.WrapWithData(ErrOpenFailed, err, "open_i2c_bus")
	}

	dev, err := ads1x15.NewADS1115(bus, &ads1x15.DefaultOpts)
	if err != nil {
		bus.Close()
		return nil, errors.WrapWithData(ErrOpenFailed, err, "init_ads1115")
	}

	ref := cfg.ReferenceVoltage
	if ref <= 0 {
		ref = defaultReferenceVoltage
	}
	maxRaw := cfg.MaxRaw
	if maxRaw <= 0 {
		maxRaw = DefaultMaxRaw
	}

	logger.Info().
		Str("bus", bus.String()).
		Float64("reference_voltage", ref).
		Msg("ADS1115 initialized")

	return &ads1115{
		bus:    bus,
		dev:    dev,
		pins:   make(map[int]analog.PinADC),
		ref:    ref,
		maxRaw: maxRaw,
	}, nil
}

func (a *ads1115) ReadChannel(ctx context.Context, channel int) (int, error) {
	errFactory := errors.New()

	if err := checkContext(ctx); err != nil {
		return 0, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	pin, err := a.pin(channel)
	if err != nil {
		return 0, err
	}

	sample, err := pin.Read()
	if err != nil {
		return 0, errFactory.Wrap(ErrReadFailed, err)
	}

	return voltsToCounts(float64(sample.V)/float64(physic.Volt), a.ref, a.maxRaw), nil
}

func (a *ads1115) pin(channel int) (analog.PinADC, error) {
	errFactory := errors.New()

	if pin, ok := a.pins[channel]; ok {
		return pin, nil
	}

	if channel < 0 || channel >= len(adsChannels) {
		return nil, errFactory.WithData(ErrInvalidChannel, channel)
	}

	pin, err := a.dev.PinForChannel(adsChannels[channel], defaultFullScale, defaultDataRate, ads1x15.BestQuality)
	if err != nil {
		return nil, errors.WrapWithData(ErrOpenFailed, err, channel)
	}
	a.pins[channel] = pin

	return pin, nil
}

func (a *ads1115) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	for channel, pin := range a.pins {
		if err := pin.Halt(); err != nil {
			logger.Debug().Err(err).Int("channel", channel).Msg("Failed to halt ADS1115 pin")
		}
	}
	a.pins = map[int]analog.PinADC{}

	if err := a.dev.Halt(); err != nil {
		logger.Debug().Err(err).Msg("Failed to halt ADS1115")
	}

	if err := a.bus.Close(); err != nil {
		return errors.New().Wrap(ErrCloseFailed, err)
	}

	return nil
}

// voltsToCounts rescales a measured voltage onto [0, maxRaw] counts of ref.
func voltsToCounts(volts, ref float64, maxRaw int) int {
	counts := int(math.Round(volts / ref * float64(maxRaw)))
	if counts < 0 {
		return 0
	}
	if counts > maxRaw {
		return maxRaw
	}

	return counts
}
