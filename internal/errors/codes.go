package errors

// Common error codes
const (
	// System errors
	ErrInternal        ErrorCode = "internal_error"
	ErrInvalidArgument ErrorCode = "invalid_argument"
	ErrAlreadyRunning  ErrorCode = "already_running"

	// Configuration errors
	ErrInvalidConfig      ErrorCode = "invalid_configuration"
	ErrBindFlags          ErrorCode = "bind_flags_failed"
	ErrParseFlags         ErrorCode = "parse_flags_failed"
	ErrReadConfig         ErrorCode = "read_config_failed"
	ErrInvalidInterval    ErrorCode = "invalid_interval"
	ErrInvalidSampleCount ErrorCode = "invalid_sample_count"
	ErrInvalidSampleDelay ErrorCode = "invalid_sample_delay"
	ErrInvalidWindow      ErrorCode = "invalid_window"
	ErrInvalidChannel     ErrorCode = "invalid_channel"
	ErrInvalidSource      ErrorCode = "invalid_source"

	// Logging errors
	ErrInvalidLogLevel ErrorCode = "invalid_log_level"

	// Initialization errors
	ErrInitFailed     ErrorCode = "initialization_failed"
	ErrShutdownFailed ErrorCode = "shutdown_failed"

	// Application errors
	ErrInitApp     ErrorCode = "init_app_failed"
	ErrMainLoop    ErrorCode = "main_loop_failed"
	ErrOpenSource  ErrorCode = "open_source_failed"
	ErrOpenOutput  ErrorCode = "open_output_failed"
	ErrCloseSource ErrorCode = "close_source_failed"
	ErrCloseOutput ErrorCode = "close_output_failed"
	ErrReport      ErrorCode = "report_failed"

	// Operation errors
	ErrOperationFailed ErrorCode = "operation_failed"
	ErrTimeout         ErrorCode = "operation_timeout"
	ErrCanceled        ErrorCode = "operation_canceled"

	// Metrics errors
	ErrInitMetrics  ErrorCode = "init_metrics_failed"
	ErrCloseMetrics ErrorCode = "close_metrics_failed"
)

// Common error messages
var errorMessages = map[ErrorCode]string{
	ErrInternal:           "Internal error occurred",
	ErrInvalidArgument:    "Invalid argument provided",
	ErrAlreadyRunning:     "Another instance is already running",
	ErrInvalidConfig:      "Invalid configuration",
	ErrBindFlags:          "Failed to bind flags",
	ErrParseFlags:         "Failed to parse flags",
	ErrReadConfig:         "Failed to read config file",
	ErrInvalidInterval:    "Invalid interval value",
	ErrInvalidSampleCount: "Invalid sample count",
	ErrInvalidSampleDelay: "Invalid sample delay",
	ErrInvalidWindow:      "Invalid averaging window",
	ErrInvalidChannel:     "Invalid ADC channel",
	ErrInvalidSource:      "ADC source must be ads1115, serial or simulated",
	ErrInvalidLogLevel:    "Invalid log level",
	ErrInitFailed:         "Initialization failed",
	ErrShutdownFailed:     "Shutdown failed",
	ErrInitApp:            "Failed to initialize application",
	ErrMainLoop:           "Error in main loop",
	ErrOpenSource:         "Failed to open ADC source",
	ErrOpenOutput:         "Failed to open report output",
	ErrCloseSource:        "Failed to close ADC source",
	ErrCloseOutput:        "Failed to close report output",
	ErrReport:             "Failed to write report",
	ErrOperationFailed:    "Operation failed",
	ErrTimeout:            "Operation timed out",
	ErrCanceled:           "Operation canceled",
	ErrInitMetrics:        "Failed to initialize metrics",
	ErrCloseMetrics:       "Failed to close metrics",
}

// GetErrorMessage returns the message for a given error code
func GetErrorMessage(code ErrorCode) string {
	if msg, ok := errorMessages[code]; ok {
		return msg
	}

	return string(code)
}
