package metrics

import (
	"context"
	"net"
	"net/http"

	"codeberg.org/mutker/alcomon/internal/errors"
	"codeberg.org/mutker/alcomon/internal/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "alcomon"

type service struct {
	cfg      Config
	log      logger.Logger
	registry *prometheus.Registry
	server   *http.Server
	done     chan struct{}

	cycles        prometheus.Counter
	failures      *prometheus.CounterVec
	outOfRange    prometheus.Counter
	raw           prometheus.Gauge
	voltage       prometheus.Gauge
	ppm           prometheus.Gauge
	mgPerLiter    prometheus.Gauge
	cycleDuration prometheus.Histogram
	lastReading   prometheus.Gauge
}

// No-op implementation
type noopCollector struct{}

func NewService(cfg Config, log logger.Logger) (Collector, error) {
	errFactory := errors.New()

	if err := cfg.Validate(); err != nil {
		return nil, errFactory.Wrap(ErrInvalidConfig, err)
	}

	// If metrics is disabled, return a no-op collector
	if !cfg.Enabled {
		log.Debug().Msg("Metrics collection disabled, using no-op collector")
		return &noopCollector{}, nil
	}

	s := newService(cfg, log)
	if err := s.register(); err != nil {
		return nil, err
	}

	if cfg.ListenAddr != "" {
		if err := s.serve(); err != nil {
			return nil, err
		}
	}

	log.Debug().
		Str("listen_addr", cfg.ListenAddr).
		Str("path", cfg.Path).
		Bool("enabled", cfg.Enabled).
		Msg("Metrics service initialized successfully")

	return s, nil
}

func newService(cfg Config, log logger.Logger) *service {
	return &service{
		cfg:      cfg,
		log:      log,
		registry: prometheus.NewRegistry(),
		cycles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycles_total",
			Help:      "Completed measurement cycles",
		}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "acquisition_failures_total",
			Help:      "Cycles that produced no reading, by error code",
		}, []string{"code"}),
		outOfRange: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "out_of_range_total",
			Help:      "Readings outside the sensor's plausible operating range",
		}),
		raw:         newGauge("adc_raw", "Averaged ADC reading (units: counts)"),
		voltage:     newGauge("sensor_voltage_volts", "Reconstructed sensor voltage (units: V)"),
		ppm:         newGauge("alcohol_ppm", "Alcohol concentration in air (units: ppm)"),
		mgPerLiter:  newGauge("alcohol_mg_per_liter", "Alcohol concentration (units: mg/L)"),
		lastReading: newGauge("last_reading_timestamp_seconds", "Unix time of the last successful reading"),
		cycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cycle_duration_seconds",
			Help:      "Time spent sampling and converting one reading",
			Buckets:   []float64{0.1, 0.25, 0.5, 0.75, 1, 2, 5},
		}),
	}
}

func newGauge(name, help string) prometheus.Gauge {
	return prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      name,
		Help:      help,
	})
}

func (s *service) register() error {
	cs := []prometheus.Collector{
		s.cycles,
		s.failures,
		s.outOfRange,
		s.raw,
		s.voltage,
		s.ppm,
		s.mgPerLiter,
		s.lastReading,
		s.cycleDuration,
		collectors.NewBuildInfoCollector(),
	}

	for _, c := range cs {
		if err := s.registry.Register(c); err != nil {
			return errors.New().Wrap(ErrRegisterFailed, err)
		}
	}

	return nil
}

func (s *service) serve() error {
	ln, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		return errors.WrapWithData(ErrListenFailed, err, s.cfg.ListenAddr)
	}

	mux := http.NewServeMux()
	mux.Handle(s.cfg.Path, promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{
		// Opt into OpenMetrics to support exemplars.
		EnableOpenMetrics: true,
	}))

	s.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: defaultReadTimeout,
	}
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error().Err(err).Msg("Metrics server stopped")
		}
	}()

	s.log.Info().
		Str("address", ln.Addr().String()).
		Str("path", s.cfg.Path).
		Msg("Serving metrics")

	return nil
}

func (s *service) Record(ctx context.Context, snapshot *Snapshot) error {
	errFactory := errors.New()

	if snapshot == nil {
		return errFactory.New(ErrInvalidMetrics)
	}

	select {
	case <-ctx.Done():
		return errFactory.Wrap(ErrOperationTimeout, ctx.Err())
	default:
	}

	s.cycles.Inc()
	s.raw.Set(snapshot.Raw)
	s.voltage.Set(snapshot.Voltage)
	s.ppm.Set(snapshot.PPM)
	s.mgPerLiter.Set(snapshot.MgPerLiter)
	s.cycleDuration.Observe(snapshot.Duration.Seconds())
	if !snapshot.Timestamp.IsZero() {
		s.lastReading.Set(float64(snapshot.Timestamp.Unix()))
	}
	if snapshot.OutOfRange {
		s.outOfRange.Inc()
	}

	return nil
}

func (s *service) RecordFailure(code errors.ErrorCode) {
	s.failures.WithLabelValues(string(code)).Inc()
}

func (s *service) Close() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		return errors.New().Wrap(ErrServiceShutdown, err)
	}
	<-s.done

	s.log.Info().Msg("Metrics server closed gracefully")

	return nil
}

// No-op implementation
func (*noopCollector) Record(_ context.Context, _ *Snapshot) error {
	return nil
}

func (*noopCollector) RecordFailure(_ errors.ErrorCode) {}

func (*noopCollector) Close() error {
	return nil
}
