package metrics

import (
	"net"
	"time"

	"codeberg.org/mutker/alcomon/internal/errors"
)

const (
	defaultPath            = "/metrics"
	defaultShutdownTimeout = 5 * time.Second
	defaultReadTimeout     = 10 * time.Second
)

type Config struct {
	// ListenAddr is the HTTP address serving Path. Empty keeps metrics in-process only.
	ListenAddr      string
	Path            string
	ShutdownTimeout time.Duration
	Enabled         bool
}

func DefaultConfig() Config {
	return Config{
		Path:            defaultPath,
		ShutdownTimeout: defaultShutdownTimeout,
		Enabled:         false, // Disabled by default
	}
}

func (c Config) Validate() error {
	errFactory := errors.New()

	if !c.Enabled || c.ListenAddr == "" {
		return nil
	}

	if _, _, err := net.SplitHostPort(c.ListenAddr); err != nil {
		return errors.WrapWithData(ErrInvalidListenAddr, err, c.ListenAddr)
	}
	if c.Path == "" || c.Path[0] != '/' {
		return errFactory.WithData(ErrInvalidPath, c.Path)
	}

	return nil
}
