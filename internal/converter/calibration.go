package converter

import (
	"fmt"
	"math"

	"codeberg.org/mutker/alcomon/internal/errors"
)

const (
	defaultADCMax              = 4095
	defaultSupplyVoltage       = 3.3
	defaultDividerCompensation = 1.50
	defaultOffset              = 0.05

	// MQ-3 regression fit: ppm = exp((V + shift) / scale) - bias
	defaultCurveShift = 1.53338
	defaultCurveScale = 0.95387
	defaultCurveBias  = 9.84144

	defaultNoiseFloorPPM = 25
	defaultPPMPerMgL     = 500
	defaultRangeMaxPPM   = 500
)

// Calibration holds the fixed parameters of the conversion pipeline.
type Calibration struct {
	ADCMax              float64 `mapstructure:"adc_max"`
	SupplyVoltage       float64 `mapstructure:"supply_voltage"`
	DividerCompensation float64 `mapstructure:"divider_compensation"`
	Offset              float64 `mapstructure:"offset"`

	CurveShift float64 `mapstructure:"curve_shift"`
	CurveScale float64 `mapstructure:"curve_scale"`
	CurveBias  float64 `mapstructure:"curve_bias"`

	NoiseFloorPPM float64 `mapstructure:"noise_floor_ppm"`
	PPMPerMgL     float64 `mapstructure:"ppm_per_mg_l"`

	// UpperClampPPM caps ppm before the mg/L mapping. Zero disables it.
	UpperClampPPM float64 `mapstructure:"upper_clamp_ppm"`
	// RangeMaxPPM is the highest ppm Check accepts without a warning. Zero disables it.
	RangeMaxPPM float64 `mapstructure:"range_max_ppm"`
}

// DefaultCalibration returns the MQ-3 calibration behind a 1.5x divider on a 3.3 V 12-bit ADC.
func DefaultCalibration() Calibration {
	return Calibration{
		ADCMax:              defaultADCMax,
		SupplyVoltage:       defaultSupplyVoltage,
		DividerCompensation: defaultDividerCompensation,
		Offset:              defaultOffset,
		CurveShift:          defaultCurveShift,
		CurveScale:          defaultCurveScale,
		CurveBias:           defaultCurveBias,
		NoiseFloorPPM:       defaultNoiseFloorPPM,
		PPMPerMgL:           defaultPPMPerMgL,
		RangeMaxPPM:         defaultRangeMaxPPM,
	}
}

func (c Calibration) Validate() error {
	errFactory := errors.New()

	for name, value := range map[string]float64{
		"adc_max":              c.ADCMax,
		"supply_voltage":       c.SupplyVoltage,
		"divider_compensation": c.DividerCompensation,
		"offset":               c.Offset,
		"curve_shift":          c.CurveShift,
		"curve_scale":          c.CurveScale,
		"curve_bias":           c.CurveBias,
		"noise_floor_ppm":      c.NoiseFloorPPM,
		"ppm_per_mg_l":         c.PPMPerMgL,
		"upper_clamp_ppm":      c.UpperClampPPM,
		"range_max_ppm":        c.RangeMaxPPM,
	} {
		if math.IsNaN(value) || math.IsInf(value, 0) {
			return errFactory.WithData(ErrInvalidCalibration, fmt.Sprintf("%s=%v", name, value))
		}
	}

	switch {
	case c.ADCMax <= 0:
		return errFactory.WithData(ErrInvalidCalibration, fmt.Sprintf("adc_max=%v", c.ADCMax))
	case c.SupplyVoltage <= 0:
		return errFactory.WithData(ErrInvalidCalibration, fmt.Sprintf("supply_voltage=%v", c.SupplyVoltage))
	case c.DividerCompensation <= 0:
		return errFactory.WithData(ErrInvalidCalibration, fmt.Sprintf("divider_compensation=%v", c.DividerCompensation))
	case c.CurveScale == 0:
		return errFactory.WithData(ErrInvalidCalibration, "curve_scale=0")
	case c.PPMPerMgL <= 0:
		return errFactory.WithData(ErrInvalidCalibration, fmt.Sprintf("ppm_per_mg_l=%v", c.PPMPerMgL))
	case c.UpperClampPPM < 0:
		return errFactory.WithData(ErrInvalidCalibration, fmt.Sprintf("upper_clamp_ppm=%v", c.UpperClampPPM))
	case c.RangeMaxPPM < 0:
		return errFactory.WithData(ErrInvalidCalibration, fmt.Sprintf("range_max_ppm=%v", c.RangeMaxPPM))
	}

	return nil
}
