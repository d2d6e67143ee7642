package adc

import "codeberg.org/mutker/alcomon/internal/errors"

const (
	// Configuration Errors
	ErrUnknownSource  = errors.ErrorCode("adc_unknown_source")
	ErrInvalidChannel = errors.ErrorCode("adc_invalid_channel")

	// Device Errors
	ErrOpenFailed  = errors.ErrorCode("adc_open_failed")
	ErrCloseFailed = errors.ErrorCode("adc_close_failed")

	// Read Errors
	ErrReadFailed      = errors.ErrorCode("adc_read_failed")
	ErrReadTimeout     = errors.ErrorCode("adc_read_timeout")
	ErrInvalidResponse = errors.ErrorCode("adc_invalid_response")
	ErrValueOutOfRange = errors.ErrorCode("adc_value_out_of_range")
)
