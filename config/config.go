package config

import (
	"errors"
	"log/slog"
	"net"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/spf13/viper"
)

const (
	EnvDev     = "dev"
	EnvStaging = "staging"
	EnvProd    = "prod"
)

const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
)

const (
	EngineRollingWindow = "rolling-window"
	EngineGoBreaker     = "gobreaker"
)

type ServerConfig struct {
	Address     string `mapstructure:"address"`
	Environment string `mapstructure:"environment"`
}

type LoggingConfig struct {
	Level     string `mapstructure:"level"`
	AddSource bool   `mapstructure:"add_source"`
}

type DatasourceConfig struct {
	URL string `mapstructure:"url"`
}

// CircuitBreakerConfig sizes the breakers. Rate thresholds and the call
// timeout are fixed by the service.
type CircuitBreakerConfig struct {
	Engine                        string `mapstructure:"engine"`
	SlidingWindowSize             int    `mapstructure:"sliding_window_size"`
	MinimumNumberOfCalls          int    `mapstructure:"minimum_number_of_calls"`
	WaitDurationInOpenState       string `mapstructure:"wait_duration_in_open_state"`
	PermittedCallsInHalfOpenState int    `mapstructure:"permitted_calls_in_half_open_state"`
}

// WaitDuration parses WaitDurationInOpenState. Validate guarantees it parses.
func (c CircuitBreakerConfig) WaitDuration() time.Duration {
	d, _ := time.ParseDuration(c.WaitDurationInOpenState)
	return d
}

// RateLimitConfig limits requests across all clients. Zero RequestsPerSecond
// disables limiting.
type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

type MetricsConfig struct {
	BufferSize int `mapstructure:"buffer_size"`
}

type Config struct {
	Server         ServerConfig         `mapstructure:"server"`
	Logging        LoggingConfig        `mapstructure:"logging"`
	Datasource     DatasourceConfig     `mapstructure:"datasource"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
	RateLimit      RateLimitConfig      `mapstructure:"rate_limit"`
	Metrics        MetricsConfig        `mapstructure:"metrics"`
}

// Load reads config.yaml from ./config or the working directory.
func Load() (*Config, error) {
	return LoadFrom("./config", ".")
}

// LoadFrom reads config.yaml from the first of paths that has one. A missing
// file is not an error; defaults and environment variables still apply.
func LoadFrom(paths ...string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.environment", EnvDev)
	v.SetDefault("server.address", ":8080")
	v.SetDefault("logging.level", LogLevelInfo)
	v.SetDefault("logging.add_source", false)
	v.SetDefault("circuit_breaker.engine", EngineRollingWindow)
	v.SetDefault("circuit_breaker.sliding_window_size", 100)
	v.SetDefault("circuit_breaker.minimum_number_of_calls", 100)
	v.SetDefault("circuit_breaker.wait_duration_in_open_state", "60s")
	v.SetDefault("circuit_breaker.permitted_calls_in_half_open_state", 10)
	v.SetDefault("rate_limit.requests_per_second", 0)
	v.SetDefault("rate_limit.burst", 0)
	v.SetDefault("metrics.buffer_size", 1000)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	// No default, so AutomaticEnv alone would not surface it to Unmarshal.
	if err := v.BindEnv("datasource.url"); err != nil {
		return nil, err
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			slog.Error("failed to read config file", slog.String("error", err.Error()))
			return nil, err
		}
		slog.Info("config file not found, using defaults and environment variables")
	} else {
		slog.Info("loaded config file", slog.String("file", v.ConfigFileUsed()))
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		slog.Error("failed to unmarshal config", slog.String("error", err.Error()))
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Server,
			validation.Required,
			validation.By(func(value interface{}) error {
				sc, ok := value.(ServerConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a ServerConfig")
				}
				return validation.ValidateStruct(&sc,
					validation.Field(&sc.Environment,
						validation.Required,
						validation.In(EnvDev, EnvStaging, EnvProd),
					),
					validation.Field(&sc.Address,
						validation.Required,
						validation.By(validateHostPort),
					),
				)
			}),
		),
		validation.Field(&c.Logging,
			validation.Required,
			validation.By(func(value interface{}) error {
				lc, ok := value.(LoggingConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a LoggingConfig")
				}
				return validation.ValidateStruct(&lc,
					validation.Field(&lc.Level,
						validation.Required,
						validation.In(LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError),
					),
				)
			}),
		),
		validation.Field(&c.Datasource,
			validation.By(func(value interface{}) error {
				dc, ok := value.(DatasourceConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a DatasourceConfig")
				}
				return validation.ValidateStruct(&dc,
					validation.Field(&dc.URL, validation.Required),
				)
			}),
		),
		validation.Field(&c.CircuitBreaker,
			validation.Required,
			validation.By(func(value interface{}) error {
				cc, ok := value.(CircuitBreakerConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a CircuitBreakerConfig")
				}
				return validation.ValidateStruct(&cc,
					validation.Field(&cc.Engine,
						validation.Required,
						validation.In(EngineRollingWindow, EngineGoBreaker),
					),
					validation.Field(&cc.SlidingWindowSize, validation.Required, validation.Min(1)),
					validation.Field(&cc.MinimumNumberOfCalls,
						validation.Required,
						validation.Min(1),
						validation.Max(cc.SlidingWindowSize),
					),
					validation.Field(&cc.WaitDurationInOpenState,
						validation.Required,
						validation.By(validateDuration),
					),
					validation.Field(&cc.PermittedCallsInHalfOpenState, validation.Required, validation.Min(1)),
				)
			}),
		),
		validation.Field(&c.RateLimit,
			validation.By(func(value interface{}) error {
				rc, ok := value.(RateLimitConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a RateLimitConfig")
				}
				return validation.ValidateStruct(&rc,
					validation.Field(&rc.RequestsPerSecond, validation.Min(0.0)),
					validation.Field(&rc.Burst, validation.Min(0)),
				)
			}),
		),
		validation.Field(&c.Metrics,
			validation.By(func(value interface{}) error {
				mc, ok := value.(MetricsConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a MetricsConfig")
				}
				return validation.ValidateStruct(&mc,
					validation.Field(&mc.BufferSize, validation.Required, validation.Min(1)),
				)
			}),
		),
	)
}

func validateHostPort(value interface{}) error {
	addr, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}

	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return validation.NewError("validation_invalid_hostport", "must be in host:port format")
	}

	if port == "" {
		return validation.NewError("validation_invalid_port", "port cannot be empty")
	}

	if host != "" {
		if err := is.Host.Validate(host); err != nil {
			return validation.NewError("validation_invalid_host", "invalid host")
		}
	}

	return nil
}

func validateDuration(value interface{}) error {
	durationStr, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}

	d, err := time.ParseDuration(durationStr)
	if err != nil {
		return validation.NewError("validation_invalid_duration", "must be a valid duration (e.g., 2s, 5m, 1h)")
	}
	if d <= 0 {
		return validation.NewError("validation_invalid_duration", "must be positive")
	}

	return nil
}
