package converter

import (
	"math"

	"codeberg.org/mutker/alcomon/internal/errors"
)

// Reading holds one cycle's derived values.
type Reading struct {
	Raw        float64 // averaged ADC counts
	Voltage    float64 // V
	PPM        float64 // parts per million in air
	MgPerLiter float64
}

// Converter turns averaged ADC counts into voltage and alcohol concentration.
// It holds no state besides its calibration and is safe for concurrent use.
type Converter struct {
	cal Calibration
}

// New returns a Converter for the given calibration.
func New(cal Calibration) (*Converter, error) {
	if err := cal.Validate(); err != nil {
		return nil, err
	}

	return &Converter{cal: cal}, nil
}

// Default returns a Converter using DefaultCalibration.
func Default() *Converter {
	return &Converter{cal: DefaultCalibration()}
}

// Calibration returns the calibration the converter was built with.
func (c *Converter) Calibration() Calibration {
	return c.cal
}

// Voltage reconstructs the sensor voltage from averaged ADC counts,
// compensating for the input divider and the residual offset.
func (c *Converter) Voltage(avgRaw float64) float64 {
	return (avgRaw/c.cal.ADCMax)*c.cal.SupplyVoltage*c.cal.DividerCompensation + c.cal.Offset
}

// PPM applies the exponential regression fit. The result is not clamped and
// goes negative for very low voltages.
func (c *Converter) PPM(voltage float64) float64 {
	return math.Exp((voltage+c.cal.CurveShift)/c.cal.CurveScale) - c.cal.CurveBias
}

// MgPerLiter maps ppm to mg/L. Anything below the noise floor, negative
// regression output included, is reported as zero.
func (c *Converter) MgPerLiter(ppm float64) float64 {
	if ppm < c.cal.NoiseFloorPPM {
		ppm = 0
	}
	if c.cal.UpperClampPPM > 0 && ppm > c.cal.UpperClampPPM {
		ppm = c.cal.UpperClampPPM
	}

	return ppm / c.cal.PPMPerMgL
}

// Convert runs all three stages on one averaged value.
func (c *Converter) Convert(avgRaw float64) Reading {
	voltage := c.Voltage(avgRaw)
	ppm := c.PPM(voltage)

	return Reading{
		Raw:        avgRaw,
		Voltage:    voltage,
		PPM:        ppm,
		MgPerLiter: c.MgPerLiter(ppm),
	}
}

// Check reports readings the regression is not valid for. A non-nil result
// is a warning; the reading itself is still usable.
func (c *Converter) Check(r Reading) error {
	minVoltage := c.Voltage(0)
	maxVoltage := c.Voltage(c.cal.ADCMax)

	if r.Voltage < minVoltage || r.Voltage > maxVoltage {
		return errors.New().WithData(ErrOutOfRangeReading, RangeViolation{
			Quantity: "voltage",
			Value:    r.Voltage,
			Min:      minVoltage,
			Max:      maxVoltage,
		})
	}

	if c.cal.RangeMaxPPM > 0 && r.PPM > c.cal.RangeMaxPPM {
		return errors.New().WithData(ErrOutOfRangeReading, RangeViolation{
			Quantity: "ppm",
			Value:    r.PPM,
			Min:      math.Inf(-1),
			Max:      c.cal.RangeMaxPPM,
		})
	}

	return nil
}
