package adc

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"codeberg.org/mutker/alcomon/internal/errors"
	"codeberg.org/mutker/alcomon/internal/logger"
	"go.bug.st/serial"
)

const maxLineLength = 64

// SerialConfig describes an MCU that answers conversion requests on a serial line.
//
// Protocol, one exchange per reading:
//
//	host: READ <channel>\n
//	mcu:  <counts>\n        or  ERR <reason>\n
type SerialConfig struct {
	Port        string
	BaudRate    int
	ReadTimeout time.Duration
	MaxRaw      int
}

type port interface {
	io.ReadWriter
	ResetInputBuffer() error
	Close() error
}

type serialReader struct {
	port   port
	name   string
	maxRaw int
	mu     sync.Mutex
}

// NewSerial opens the serial port and returns a Reader speaking the request/reply protocol.
func NewSerial(cfg SerialConfig) (Reader, error) {
	errFactory := errors.New()

	if cfg.Port == "" {
		return nil, errFactory.WithData(ErrOpenFailed, "no serial port configured")
	}

	baud := cfg.BaudRate
	if baud <= 0 {
		baud = DefaultBaudRate
	}

	p, err := serial.Open(cfg.Port, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, errors.WrapWithData(ErrOpenFailed, err, cfg.Port)
	}

	timeout := cfg.ReadTimeout
	if timeout <= 0 {
		timeout = DefaultReadTimeout
	}
	if err := p.SetReadTimeout(timeout); err != nil {
		p.Close()
		return nil, errors.WrapWithData(ErrOpenFailed, err, "set_read_timeout")
	}
	if err := p.ResetInputBuffer(); err != nil {
		logger.Debug().Err(err).Str("port", cfg.Port).Msg("Failed to reset serial input buffer")
	}

	logger.Info().
		Str("port", cfg.Port).
		Int("baud_rate", baud).
		Dur("read_timeout", timeout).
		Msg("Serial ADC connected")

	return newSerialReader(p, cfg.Port, cfg.MaxRaw), nil
}

func newSerialReader(p port, name string, maxRaw int) *serialReader {
	if maxRaw <= 0 {
		maxRaw = DefaultMaxRaw
	}

	return &serialReader{
		port:   p,
		name:   name,
		maxRaw: maxRaw,
	}
}

func (r *serialReader) ReadChannel(ctx context.Context, channel int) (int, error) {
	errFactory := errors.New()

	if err := checkContext(ctx); err != nil {
		return 0, err
	}
	if channel < 0 {
		return 0, errFactory.WithData(ErrInvalidChannel, channel)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// a reply that arrived after an earlier timeout must not answer this request
	if err := r.port.ResetInputBuffer(); err != nil {
		return 0, errors.WrapWithData(ErrReadFailed, err, "reset_input")
	}

	if _, err := fmt.Fprintf(r.port, "READ %d\n", channel); err != nil {
		return 0, errors.WrapWithData(ErrReadFailed, err, "write_request")
	}

	line, err := r.readLine()
	if err != nil {
		return 0, err
	}

	return parseReply(line, r.maxRaw)
}

// readLine reads up to the next newline. A zero-length read is the port's
// read timeout expiring.
func (r *serialReader) readLine() (string, error) {
	errFactory := errors.New()

	var (
		line strings.Builder
		b    [1]byte
	)

	for {
		n, err := r.port.Read(b[:])
		if err != nil {
			return "", errors.WrapWithData(ErrReadFailed, err, "read_reply")
		}
		if n == 0 {
			return "", errFactory.WithData(ErrReadTimeout, r.name)
		}
		if b[0] == '\n' {
			return strings.TrimSpace(line.String()), nil
		}
		if line.Len() >= maxLineLength {
			return "", errFactory.WithData(ErrInvalidResponse, "reply too long")
		}
		line.WriteByte(b[0])
	}
}

func parseReply(line string, maxRaw int) (int, error) {
	errFactory := errors.New()

	if reason, ok := strings.CutPrefix(line, "ERR"); ok {
		return 0, errFactory.WithData(ErrReadFailed, strings.TrimSpace(reason))
	}

	value, err := strconv.Atoi(line)
	if err != nil {
		return 0, errors.WrapWithData(ErrInvalidResponse, err, line)
	}

	if err := checkRange(value, maxRaw); err != nil {
		return 0, err
	}

	return value, nil
}

func (r *serialReader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.port.Close(); err != nil {
		return errors.New().Wrap(ErrCloseFailed, err)
	}

	return nil
}
