package adc

import (
	"bytes"
	"context"
	"io"
	"testing"

	"codeberg.org/mutker/alcomon/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePort answers each request written to it with the next scripted reply
// and records what the host wrote. Once the input is consumed it behaves
// like an expired read timeout.
type fakePort struct {
	written bytes.Buffer
	input   bytes.Buffer
	replies []string
	readErr error
	resets  int
	closed  bool
}

func newFakePort(replies ...string) *fakePort {
	return &fakePort{replies: replies}
}

func (p *fakePort) Write(b []byte) (int, error) {
	n, err := p.written.Write(b)
	if len(p.replies) > 0 {
		p.input.WriteString(p.replies[0])
		p.replies = p.replies[1:]
	}

	return n, err
}

func (p *fakePort) Read(b []byte) (int, error) {
	if p.readErr != nil {
		return 0, p.readErr
	}
	n, err := p.input.Read(b)
	if err == io.EOF {
		return 0, nil
	}

	return n, err
}

func (p *fakePort) ResetInputBuffer() error {
	p.resets++
	p.input.Reset()
	return nil
}

func (p *fakePort) Close() error {
	p.closed = true
	return nil
}

func TestSerialReadChannel(t *testing.T) {
	p := newFakePort("2048\r\n")
	r := newSerialReader(p, "fake", DefaultMaxRaw)

	value, err := r.ReadChannel(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, 2048, value)
	assert.Equal(t, "READ 1\n", p.written.String())
}

func TestSerialReadSequence(t *testing.T) {
	p := newFakePort("10\n", "20\n", "4095\n")
	r := newSerialReader(p, "fake", DefaultMaxRaw)

	for _, want := range []int{10, 20, 4095} {
		got, err := r.ReadChannel(context.Background(), 0)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	assert.Equal(t, "READ 0\nREAD 0\nREAD 0\n", p.written.String())
}

func TestSerialReadErrors(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		code  errors.ErrorCode
	}{
		{name: "timeout", reply: "", code: ErrReadTimeout},
		{name: "partial line then timeout", reply: "20", code: ErrReadTimeout},
		{name: "mcu error", reply: "ERR adc busy\n", code: ErrReadFailed},
		{name: "garbage", reply: "abc\n", code: ErrInvalidResponse},
		{name: "above range", reply: "4096\n", code: ErrValueOutOfRange},
		{name: "negative", reply: "-1\n", code: ErrValueOutOfRange},
		{name: "overlong line", reply: string(bytes.Repeat([]byte("1"), maxLineLength+1)) + "\n", code: ErrInvalidResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newSerialReader(newFakePort(tt.reply), "fake", DefaultMaxRaw)

			_, err := r.ReadChannel(context.Background(), 1)
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, tt.code), "got %v", err)
		})
	}
}

func TestSerialPortError(t *testing.T) {
	p := newFakePort("")
	p.readErr = io.ErrUnexpectedEOF
	r := newSerialReader(p, "fake", DefaultMaxRaw)

	_, err := r.ReadChannel(context.Background(), 1)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, ErrReadFailed))
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestSerialInvalidChannel(t *testing.T) {
	p := newFakePort("1\n")
	r := newSerialReader(p, "fake", DefaultMaxRaw)

	_, err := r.ReadChannel(context.Background(), -1)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, ErrInvalidChannel))
	assert.Empty(t, p.written.String())
}

func TestSerialCanceledContext(t *testing.T) {
	p := newFakePort("1\n")
	r := newSerialReader(p, "fake", DefaultMaxRaw)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.ReadChannel(ctx, 1)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCanceled))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSerialClose(t *testing.T) {
	p := newFakePort("")
	r := newSerialReader(p, "fake", DefaultMaxRaw)

	require.NoError(t, r.Close())
	assert.True(t, p.closed)
}

func TestSerialLateReplyDiscarded(t *testing.T) {
	// first request times out, its reply shows up before the second request
	p := newFakePort("", "200\n")
	r := newSerialReader(p, "fake", DefaultMaxRaw)

	_, err := r.ReadChannel(context.Background(), 1)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, ErrReadTimeout))

	p.input.WriteString("100\n")

	value, err := r.ReadChannel(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 200, value)
	assert.Equal(t, 2, p.resets)
}

func TestSerialOverlongReplyDiscarded(t *testing.T) {
	long := string(bytes.Repeat([]byte("9"), maxLineLength+10)) + "\n"
	p := newFakePort(long, "300\n")
	r := newSerialReader(p, "fake", DefaultMaxRaw)

	_, err := r.ReadChannel(context.Background(), 2)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, ErrInvalidResponse))

	value, err := r.ReadChannel(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, 300, value)
}
