package errors

// ErrorCode is the stable, machine-readable name of a failure. Codes are
// logged as error_code and used as the metrics failure label.
type ErrorCode string

// Error is a coded error. Data carries the value that was rejected, such as
// the acquisition index or the offending config value.
type Error interface {
	error
	Code() ErrorCode
	WithMessage(msg string) Error
	WithData(data any) Error
	GetData() any
	Unwrap() error
}

// Factory builds coded errors; packages call New() once per function and
// reuse the result for every return path.
type Factory interface {
	New(code ErrorCode) Error
	Wrap(code ErrorCode, err error) Error
	WithMessage(code ErrorCode, msg string) Error
	WithData(code ErrorCode, data any) Error
}
