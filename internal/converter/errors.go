package converter

import (
	"fmt"
	"math"

	"codeberg.org/mutker/alcomon/internal/errors"
)

const (
	ErrInvalidCalibration = errors.ErrorCode("converter_invalid_calibration")
	ErrOutOfRangeReading  = errors.ErrorCode("converter_out_of_range_reading")
)

// RangeViolation describes which derived value left its plausible range.
// An infinite Min means only the upper bound is checked.
type RangeViolation struct {
	Quantity string
	Value    float64
	Min      float64
	Max      float64
}

func (v RangeViolation) String() string {
	if math.IsInf(v.Min, -1) {
		return fmt.Sprintf("%s %.3f above %.3f", v.Quantity, v.Value, v.Max)
	}

	return fmt.Sprintf("%s %.3f outside [%.3f, %.3f]", v.Quantity, v.Value, v.Min, v.Max)
}
