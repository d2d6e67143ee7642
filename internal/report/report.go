// Package report renders cycle results as plain text lines.
package report

import (
	"fmt"
	"io"
	"sync"

	"codeberg.org/mutker/alcomon/internal/converter"
	"codeberg.org/mutker/alcomon/internal/errors"
)

const separator = "---"

// Sink writes human-readable report lines to w.
type Sink struct {
	w  io.Writer
	mu sync.Mutex
}

func NewSink(w io.Writer) *Sink {
	return &Sink{w: w}
}

// Reading writes one cycle's values followed by a separator line.
//
//	ADC: 2048 | V: 2.53 V | Alcohol: 60.64 ppm | mg/L: 0.121
//	---
func (s *Sink) Reading(r converter.Reading) error {
	return s.write(fmt.Sprintf("ADC: %.0f | V: %.2f V | Alcohol: %.2f ppm | mg/L: %.3f\n%s\n",
		r.Raw, r.Voltage, r.PPM, r.MgPerLiter, separator))
}

// Warning writes a diagnostic line for a reading that is still reported.
func (s *Sink) Warning(err error) error {
	return s.write(fmt.Sprintf("WARN: %v\n", err))
}

// Failure writes an error line in place of a reading.
func (s *Sink) Failure(err error) error {
	return s.write(fmt.Sprintf("ERROR: %v\n%s\n", err, separator))
}

func (s *Sink) write(line string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := io.WriteString(s.w, line); err != nil {
		return errors.New().Wrap(errors.ErrReport, err)
	}

	return nil
}
