package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"codeberg.org/mutker/alcomon/internal/adc"
	"codeberg.org/mutker/alcomon/internal/config"
	"codeberg.org/mutker/alcomon/internal/converter"
	"codeberg.org/mutker/alcomon/internal/errors"
	"codeberg.org/mutker/alcomon/internal/logger"
	"codeberg.org/mutker/alcomon/internal/metrics"
	"codeberg.org/mutker/alcomon/internal/monitor"
	"codeberg.org/mutker/alcomon/internal/pid"
	"codeberg.org/mutker/alcomon/internal/report"
	"codeberg.org/mutker/alcomon/internal/sampler"
	"github.com/spf13/pflag"
)

type app struct {
	cfg       *config.Config
	reader    adc.Reader
	output    io.WriteCloser
	collector metrics.Collector
	monitor   *monitor.Monitor
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	// stdout belongs to the report unless output is redirected
	logger.InitWithWriter(os.Stderr, level, logger.IsService())
	logger.Debug().Msg("Config loaded")

	if err := pid.Write(cfg.PIDFile); err != nil {
		fatal(err, "Failed to write PID file")
	}

	a, err := newApp(cfg)
	if err != nil {
		removePID(cfg.PIDFile)
		fatal(err, "Failed to initialize")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go handleSignals(cancel)

	if err := a.monitor.Run(ctx); err != nil {
		logError(errors.New().Wrap(errors.ErrMainLoop, err), "Error in main loop")
	}
	a.cleanup()
}

func newApp(cfg *config.Config) (*app, error) {
	errFactory := errors.New()
	maxRaw := int(cfg.Calibration.ADCMax)

	a := &app{cfg: cfg}

	reader, err := adc.Open(adc.Config{
		Source: cfg.Source,
		MaxRaw: maxRaw,
		ADS1115: adc.ADS1115Config{
			Bus:              cfg.I2CBus,
			ReferenceVoltage: cfg.ADCReference,
		},
		Serial: adc.SerialConfig{
			Port:        cfg.SerialPort,
			BaudRate:    cfg.BaudRate,
			ReadTimeout: cfg.ReadTimeout,
		},
		Simulated: adc.SimulatedConfig{
			Level: cfg.Simulated.Level,
			Noise: cfg.Simulated.Noise,
			Seed:  cfg.Simulated.Seed,
		},
	})
	if err != nil {
		return nil, errors.WrapWithData(errors.ErrOpenSource, err, cfg.Source)
	}
	a.reader = reader

	s, err := sampler.New(reader,
		sampler.WithChannel(cfg.Channel),
		sampler.WithCount(cfg.Samples),
		sampler.WithDelay(cfg.SampleDelay),
		sampler.WithMaxRaw(maxRaw),
		sampler.WithWindow(cfg.Window),
	)
	if err != nil {
		a.cleanup()
		return nil, errFactory.Wrap(errors.ErrInitApp, err)
	}

	conv, err := converter.New(cfg.Calibration)
	if err != nil {
		a.cleanup()
		return nil, errFactory.Wrap(errors.ErrInitApp, err)
	}

	output, err := report.Open(cfg.Output, cfg.OutputBaud)
	if err != nil {
		a.cleanup()
		return nil, err
	}
	a.output = output

	metricsCfg := metrics.DefaultConfig()
	metricsCfg.ListenAddr = cfg.MetricsListen
	metricsCfg.Enabled = cfg.MetricsListen != ""

	collector, err := metrics.NewService(metricsCfg, logger.Default())
	if err != nil {
		a.cleanup()
		return nil, errFactory.Wrap(errors.ErrInitMetrics, err)
	}
	a.collector = collector

	a.monitor, err = monitor.New(s, conv, report.NewSink(output),
		monitor.WithInterval(cfg.Interval),
		monitor.WithCollector(collector),
		monitor.WithLogger(logger.Default()),
	)
	if err != nil {
		a.cleanup()
		return nil, errFactory.Wrap(errors.ErrInitApp, err)
	}

	logger.Info().
		Str("source", cfg.Source).
		Int("channel", cfg.Channel).
		Int("samples", cfg.Samples).
		Dur("sample_delay", cfg.SampleDelay).
		Int("window", cfg.Window).
		Str("output", cfg.Output).
		Msg("Sensor pipeline ready")

	return a, nil
}

func handleSignals(cancel context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	logger.Info().Msg("Received termination signal.")
	cancel()
}

func (a *app) cleanup() {
	errFactory := errors.New()

	if a.monitor != nil {
		stats := a.monitor.Stats()
		logger.Info().
			Uint64("cycles", stats.Cycles).
			Uint64("failures", stats.Failures).
			Uint64("warnings", stats.Warnings).
			Msg("Monitoring stopped")
	}

	if a.collector != nil {
		if err := a.collector.Close(); err != nil {
			logError(errFactory.Wrap(errors.ErrCloseMetrics, err), "Failed to close metrics")
		}
	}
	if a.output != nil {
		if err := a.output.Close(); err != nil {
			logError(errFactory.Wrap(errors.ErrCloseOutput, err), "Failed to close report output")
		}
	}
	if a.reader != nil {
		if err := a.reader.Close(); err != nil {
			logError(errFactory.Wrap(errors.ErrCloseSource, err), "Failed to close ADC source")
		}
	}

	removePID(a.cfg.PIDFile)
	logger.Info().Msg("Exiting...")
}

func removePID(path string) {
	if err := pid.Remove(path); err != nil {
		logError(err, "Failed to remove PID file")
	}
}

func logError(err error, msg string) {
	var appErr errors.Error
	if errors.As(err, &appErr) {
		logger.ErrorWithCode(appErr).Msg(msg)
		return
	}
	logger.Error().Err(err).Msg(msg)
}

func fatal(err error, msg string) {
	var appErr errors.Error
	if errors.As(err, &appErr) {
		logger.FatalWithCode(appErr).Msg(msg)
	}
	logger.Fatal().Err(err).Msg(msg)
}
