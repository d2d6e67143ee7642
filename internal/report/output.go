package report

import (
	"io"
	"os"

	"codeberg.org/mutker/alcomon/internal/errors"
	"go.bug.st/serial"
)

const (
	OutputStdout    = "stdout"
	DefaultBaudRate = 115200
)

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }

// Open returns the writer for a report target: stdout, or a serial device path.
func Open(target string, baud int) (io.WriteCloser, error) {
	switch target {
	case "", "-", OutputStdout:
		return nopCloser{os.Stdout}, nil
	}

	if baud <= 0 {
		baud = DefaultBaudRate
	}

	port, err := serial.Open(target, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, errors.WrapWithData(errors.ErrOpenOutput, err, target)
	}

	return port, nil
}
