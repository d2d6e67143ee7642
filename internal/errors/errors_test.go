package errors_test

import (
	stderrors "errors"
	"testing"

	"codeberg.org/mutker/alcomon/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorMessages(t *testing.T) {
	errFactory := errors.New()
	cause := stderrors.New("bus error")

	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "known code uses default message",
			err:  errFactory.New(errors.ErrInvalidInterval),
			want: "Invalid interval value",
		},
		{
			name: "unknown code falls back to code",
			err:  errFactory.New(errors.ErrorCode("adc_read_failed")),
			want: "adc_read_failed",
		},
		{
			name: "wrapped cause",
			err:  errFactory.Wrap(errors.ErrOpenSource, cause),
			want: "Failed to open ADC source: bus error",
		},
		{
			name: "custom message",
			err:  errFactory.WithMessage(errors.ErrInternal, "boom"),
			want: "boom",
		},
		{
			name: "data",
			err:  errFactory.WithData(errors.ErrInvalidChannel, -1),
			want: "Invalid ADC channel: -1",
		},
		{
			name: "data and cause",
			err:  errors.WrapWithData(errors.ErrReport, cause, "stdout"),
			want: "Failed to write report: stdout: bus error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestWithMessageKeepsCode(t *testing.T) {
	err := errors.New().New(errors.ErrTimeout).WithMessage("read took too long")

	assert.Equal(t, errors.ErrTimeout, err.Code())
	assert.Equal(t, "read took too long", err.Error())
}

func TestUnwrap(t *testing.T) {
	cause := stderrors.New("io")
	err := errors.New().Wrap(errors.ErrReport, cause)

	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, cause, errors.Unwrap(err))
}

func TestHasCode(t *testing.T) {
	errFactory := errors.New()
	inner := errFactory.Wrap(errors.ErrTimeout, stderrors.New("deadline"))
	outer := errFactory.Wrap(errors.ErrMainLoop, inner)

	assert.True(t, errors.HasCode(outer, errors.ErrMainLoop))
	assert.True(t, errors.HasCode(outer, errors.ErrTimeout))
	assert.False(t, errors.HasCode(outer, errors.ErrInternal))
	assert.False(t, errors.HasCode(stderrors.New("plain"), errors.ErrInternal))
	assert.False(t, errors.HasCode(nil, errors.ErrInternal))
}

func TestCodeOf(t *testing.T) {
	code, ok := errors.CodeOf(errors.New().New(errors.ErrCanceled))
	require.True(t, ok)
	assert.Equal(t, errors.ErrCanceled, code)

	_, ok = errors.CodeOf(stderrors.New("plain"))
	assert.False(t, ok)
}

func TestFactoryContract(t *testing.T) {
	var errFactory errors.Factory = errors.New()

	err := errFactory.WithData(errors.ErrInvalidChannel, 7)
	var coded errors.Error = err

	assert.Equal(t, errors.ErrInvalidChannel, coded.Code())
	assert.Equal(t, 7, coded.GetData())
	assert.Nil(t, coded.Unwrap())

	renamed := coded.WithMessage("channel 7 is not wired")
	assert.Equal(t, errors.ErrInvalidChannel, renamed.Code())
	assert.Equal(t, 7, renamed.GetData())
	require.EqualError(t, renamed, "channel 7 is not wired: 7")
}
