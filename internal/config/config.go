package config

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"codeberg.org/mutker/alcomon/internal/converter"
	"codeberg.org/mutker/alcomon/internal/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	configName       = "alcomon"
	configType       = "toml"
	defaultEnvPrefix = "ALCOMON"

	DefaultInterval     = 2000 * time.Millisecond
	DefaultSamples      = 100
	DefaultSampleDelay  = 5 * time.Millisecond
	DefaultChannel      = 1
	DefaultADCReference = 3.3
	DefaultBaudRate     = 115200
	DefaultReadTimeout  = 500 * time.Millisecond
	DefaultOutput       = "stdout"
	DefaultLogLevel     = "info"
	DefaultSimLevel     = 2048
	DefaultSimNoise     = 8
)

type Config struct {
	Interval      time.Duration `mapstructure:"interval"`
	Samples       int           `mapstructure:"samples"`
	SampleDelay   time.Duration `mapstructure:"sample_delay"`
	Window        int           `mapstructure:"window"`
	Channel       int           `mapstructure:"channel"`
	Source        string        `mapstructure:"source"`
	I2CBus        string        `mapstructure:"i2c_bus"`
	ADCReference  float64       `mapstructure:"adc_reference"`
	SerialPort    string        `mapstructure:"serial_port"`
	BaudRate      int           `mapstructure:"baud_rate"`
	ReadTimeout   time.Duration `mapstructure:"read_timeout"`
	Output        string        `mapstructure:"output"`
	OutputBaud    int           `mapstructure:"output_baud"`
	LogLevel      string        `mapstructure:"log_level"`
	MetricsListen string        `mapstructure:"metrics_listen"`
	PIDFile       string        `mapstructure:"pid_file"`

	Simulated   Simulated             `mapstructure:"simulated"`
	Calibration converter.Calibration `mapstructure:"calibration"`
}

// Simulated configures the synthetic source used when no hardware is attached.
type Simulated struct {
	Level float64 `mapstructure:"level"`
	Noise float64 `mapstructure:"noise"`
	Seed  int64   `mapstructure:"seed"`
}

// sources accepted for the source key; there is no default so that
// synthetic readings are never reported unless asked for
var sources = []string{"simulated", "ads1115", "serial"}

// keys bound to command line flags; the flag name is the key with dashes
var flagKeys = []string{
	"interval",
	"samples",
	"sample_delay",
	"window",
	"channel",
	"source",
	"i2c_bus",
	"adc_reference",
	"serial_port",
	"baud_rate",
	"read_timeout",
	"output",
	"output_baud",
	"log_level",
	"metrics_listen",
	"pid_file",
}

// Load reads configuration from the process arguments
func Load(opts ...Option) (*Config, error) {
	return LoadArgs(os.Args[1:], opts...)
}

// LoadArgs reads configuration from defaults, the config file, the
// environment and args, in increasing order of precedence
func LoadArgs(args []string, opts ...Option) (*Config, error) {
	errFactory := errors.New()

	o := &options{
		envPrefix: defaultEnvPrefix,
	}
	if home, err := os.UserHomeDir(); err == nil {
		o.searchPaths = append(o.searchPaths, filepath.Join(home, ".config", configName))
	}
	o.searchPaths = append(o.searchPaths, "/etc")
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}

	v := viper.New()
	setDefaults(v)

	fs := newFlagSet()
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil, err
		}
		return nil, errFactory.Wrap(errors.ErrParseFlags, err)
	}

	for _, key := range flagKeys {
		if err := v.BindPFlag(key, fs.Lookup(flagName(key))); err != nil {
			return nil, errors.WrapWithData(errors.ErrBindFlags, err, key)
		}
	}

	v.SetEnvPrefix(o.envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	configPath := o.configPath
	if f := fs.Lookup("config"); f.Changed {
		configPath = f.Value.String()
	}
	if configPath == "" {
		configPath = os.Getenv(o.envPrefix + "_CONFIG")
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType(configType)
	} else {
		v.SetConfigName(configName)
		v.SetConfigType(configType)
		for _, path := range o.searchPaths {
			v.AddConfigPath(path)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, errFactory.Wrap(errors.ErrReadConfig, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errFactory.Wrap(errors.ErrInvalidConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("interval", DefaultInterval)
	v.SetDefault("samples", DefaultSamples)
	v.SetDefault("sample_delay", DefaultSampleDelay)
	v.SetDefault("window", 0)
	v.SetDefault("channel", DefaultChannel)
	v.SetDefault("source", "")
	v.SetDefault("i2c_bus", "")
	v.SetDefault("adc_reference", DefaultADCReference)
	v.SetDefault("serial_port", "")
	v.SetDefault("baud_rate", DefaultBaudRate)
	v.SetDefault("read_timeout", DefaultReadTimeout)
	v.SetDefault("output", DefaultOutput)
	v.SetDefault("output_baud", DefaultBaudRate)
	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("metrics_listen", "")
	v.SetDefault("pid_file", "")

	v.SetDefault("simulated.level", DefaultSimLevel)
	v.SetDefault("simulated.noise", DefaultSimNoise)
	v.SetDefault("simulated.seed", 0)

	cal := converter.DefaultCalibration()
	v.SetDefault("calibration.adc_max", cal.ADCMax)
	v.SetDefault("calibration.supply_voltage", cal.SupplyVoltage)
	v.SetDefault("calibration.divider_compensation", cal.DividerCompensation)
	v.SetDefault("calibration.offset", cal.Offset)
	v.SetDefault("calibration.curve_shift", cal.CurveShift)
	v.SetDefault("calibration.curve_scale", cal.CurveScale)
	v.SetDefault("calibration.curve_bias", cal.CurveBias)
	v.SetDefault("calibration.noise_floor_ppm", cal.NoiseFloorPPM)
	v.SetDefault("calibration.ppm_per_mg_l", cal.PPMPerMgL)
	v.SetDefault("calibration.upper_clamp_ppm", cal.UpperClampPPM)
	v.SetDefault("calibration.range_max_ppm", cal.RangeMaxPPM)
}

func newFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet(configName, pflag.ContinueOnError)

	fs.String("config", "", "Path to the TOML config file")
	fs.Duration("interval", DefaultInterval, "Delay between measurement cycles")
	fs.Int("samples", DefaultSamples, "ADC reads averaged per cycle")
	fs.Duration("sample-delay", DefaultSampleDelay, "Delay after each ADC read")
	fs.Int("window", 0, "Moving average window in samples (0 averages each burst)")
	fs.Int("channel", DefaultChannel, "Analog input channel of the sensor")
	fs.String("source", "", "ADC source: ads1115, serial or simulated (required)")
	fs.String("i2c-bus", "", "I2C bus of the ADS1115 (empty selects the first bus)")
	fs.Float64("adc-reference", DefaultADCReference, "Voltage mapped to full scale for the ADS1115 source")
	fs.String("serial-port", "", "Serial device of the ADC bridge")
	fs.Int("baud-rate", DefaultBaudRate, "Baud rate of the ADC bridge")
	fs.Duration("read-timeout", DefaultReadTimeout, "Per-read deadline of the ADC bridge")
	fs.String("output", DefaultOutput, "Report destination: stdout or a serial device")
	fs.Int("output-baud", DefaultBaudRate, "Baud rate of a serial report destination")
	fs.String("log-level", DefaultLogLevel, "Log level: debug, info, warning or error")
	fs.String("metrics-listen", "", "Address serving Prometheus metrics (empty disables)")
	fs.String("pid-file", "", "PID file path (default in the temp directory)")

	return fs
}

func flagName(key string) string {
	return strings.ReplaceAll(key, "_", "-")
}

// Validate checks value ranges and that an ADC source was chosen
func (c *Config) Validate() error {
	errFactory := errors.New()

	switch {
	case c.Interval <= 0:
		return errFactory.WithData(errors.ErrInvalidInterval, c.Interval)
	case c.Samples < 1:
		return errFactory.WithData(errors.ErrInvalidSampleCount, c.Samples)
	case c.SampleDelay < 0:
		return errFactory.WithData(errors.ErrInvalidSampleDelay, c.SampleDelay)
	case c.Window < 0:
		return errFactory.WithData(errors.ErrInvalidWindow, c.Window)
	case c.Channel < 0:
		return errFactory.WithData(errors.ErrInvalidChannel, c.Channel)
	case !LogLevel(c.LogLevel).IsValid():
		return errFactory.WithData(errors.ErrInvalidLogLevel, c.LogLevel)
	case c.BaudRate <= 0 || c.OutputBaud <= 0:
		return errFactory.WithMessage(errors.ErrInvalidConfig, "baud rate must be positive")
	case c.ReadTimeout <= 0:
		return errFactory.WithMessage(errors.ErrInvalidConfig, "read timeout must be positive")
	}

	if err := c.Calibration.Validate(); err != nil {
		return errFactory.Wrap(errors.ErrInvalidConfig, err)
	}

	if !slices.Contains(sources, c.Source) {
		return errFactory.WithData(errors.ErrInvalidSource, c.Source)
	}

	return nil
}
