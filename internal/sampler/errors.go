package sampler

import (
	"fmt"

	"codeberg.org/mutker/alcomon/internal/errors"
)

const (
	ErrAcquisitionFailed   = errors.ErrorCode("adc_acquisition_failed")
	ErrReadingOutOfRange   = errors.ErrorCode("adc_reading_out_of_range")
	ErrAcquisitionCanceled = errors.ErrorCode("adc_acquisition_canceled")
)

// Acquisition identifies the reading an error refers to.
type Acquisition struct {
	Channel int
	Index   int
	Value   int
	Max     int
}

func (a Acquisition) String() string {
	if a.Max > 0 {
		return fmt.Sprintf("channel %d sample %d: value %d outside [0, %d]", a.Channel, a.Index, a.Value, a.Max)
	}

	return fmt.Sprintf("channel %d sample %d", a.Channel, a.Index)
}
