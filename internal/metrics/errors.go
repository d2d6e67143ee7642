package metrics

import "codeberg.org/mutker/alcomon/internal/errors"

const (
	// Configuration Errors
	ErrInvalidConfig     = errors.ErrInvalidConfig
	ErrInvalidListenAddr = errors.ErrorCode("metrics_invalid_listen_addr")
	ErrInvalidPath       = errors.ErrorCode("metrics_invalid_path")

	// Registration Errors
	ErrRegisterFailed = errors.ErrorCode("metrics_register_failed")

	// Server Errors
	ErrListenFailed    = errors.ErrorCode("metrics_listen_failed")
	ErrServiceShutdown = errors.ErrShutdownFailed

	// Collection Errors
	ErrInvalidMetrics = errors.ErrorCode("metrics_invalid_metrics")

	// Operation Errors
	ErrOperationTimeout = errors.ErrTimeout
)
