package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"os"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/spf13/pflag"
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

// Node identifies which half of the call chain is being configured.
type Node string

const (
	NodeEcho    Node = "echo"
	NodeGateway Node = "gateway"
)

const (
	DefaultEchoAddress     = "127.0.0.1:8080"
	DefaultGatewayAddress  = "127.0.0.1:8081"
	DefaultUpstreamURL     = "http://127.0.0.1:8080"
	DefaultUpstreamName    = "Service A"
	DefaultUpstreamTimeout = "2s"
	DefaultHealthInterval  = "10s"
)

type ServerConfig struct {
	Address     string `mapstructure:"address" json:"address"`
	Environment string `mapstructure:"environment" json:"environment"`
}

type UpstreamConfig struct {
	URL            string `mapstructure:"url" json:"url"`
	Name           string `mapstructure:"name" json:"name"`
	Timeout        string `mapstructure:"timeout" json:"timeout"`
	HealthInterval string `mapstructure:"health_interval" json:"health_interval"`
}

type MetricsConfig struct {
	Address string `mapstructure:"address" json:"address"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level" json:"level"`
}

type Config struct {
	Node     Node           `mapstructure:"-" json:"-"`
	Server   ServerConfig   `mapstructure:"server" json:"server"`
	Upstream UpstreamConfig `mapstructure:"upstream" json:"upstream"`
	Metrics  MetricsConfig  `mapstructure:"metrics" json:"metrics"`
	Logging  LoggingConfig  `mapstructure:"logging" json:"logging"`
}

// Options tells Load where to look for overrides. Flags may be nil.
type Options struct {
	ConfigFile  string
	SearchPaths []string
	Flags       *pflag.FlagSet
}

// flagKeys maps command line flag names to configuration keys.
var flagKeys = map[string]string{
	"addr":         "server.address",
	"metrics-addr": "metrics.address",
	"log-level":    "logging.level",
	"upstream":     "upstream.url",
}

// envKeys lists the only environment variables a node honours. The listen
// address is deliberately absent.
var envKeys = map[string][]string{
	"upstream.url":       {"SERVICE_A_URL", "UPSTREAM_URL"},
	"logging.level":      {"LOG_LEVEL"},
	"server.environment": {"ENVIRONMENT"},
}

// Load resolves the configuration for node. Precedence, highest first:
// flags, environment, config file, defaults.
func Load(node Node, opts Options) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.environment", EnvDev)
	v.SetDefault("server.address", defaultAddress(node))
	v.SetDefault("upstream.url", DefaultUpstreamURL)
	v.SetDefault("upstream.name", DefaultUpstreamName)
	v.SetDefault("upstream.timeout", DefaultUpstreamTimeout)
	v.SetDefault("upstream.health_interval", DefaultHealthInterval)
	v.SetDefault("metrics.address", "")
	v.SetDefault("logging.level", LogLevelInfo)

	if opts.ConfigFile != "" {
		if _, err := os.Stat(opts.ConfigFile); err != nil {
			return nil, fmt.Errorf("config file: %w", err)
		}
		v.SetConfigFile(opts.ConfigFile)
	} else {
		v.SetConfigName(string(node))
		v.SetConfigType("yaml")
		paths := opts.SearchPaths
		if len(paths) == 0 {
			paths = []string{"./config", "."}
		}
		for _, p := range paths {
			v.AddConfigPath(p)
		}
	}

	for key, names := range envKeys {
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return nil, fmt.Errorf("bind env for %s: %w", key, err)
		}
	}

	if opts.Flags != nil {
		for name, key := range flagKeys {
			flag := opts.Flags.Lookup(name)
			if flag == nil {
				continue
			}
			if err := v.BindPFlag(key, flag); err != nil {
				return nil, fmt.Errorf("bind flag %s: %w", name, err)
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			slog.Error("failed to read config file", slog.String("error", err.Error()))
			return nil, fmt.Errorf("read config: %w", err)
		}
		slog.Debug("config file not found, using defaults, environment and flags", slog.String("node", string(node)))
	} else {
		slog.Info("loaded config file", slog.String("file", v.ConfigFileUsed()))
	}

	cfg := Config{Node: node}
	if err := v.Unmarshal(&cfg); err != nil {
		slog.Error("failed to unmarshal config", slog.String("error", err.Error()))
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		return nil, err
	}

	return &cfg, nil
}

// UpstreamTimeout returns the parsed outbound call timeout.
func (c *Config) UpstreamTimeout() time.Duration {
	d, _ := time.ParseDuration(c.Upstream.Timeout)
	return d
}

// HealthInterval returns the parsed probe interval. Zero disables probing.
func (c *Config) HealthInterval() time.Duration {
	d, _ := time.ParseDuration(c.Upstream.HealthInterval)
	return d
}

func (c *Config) Validate() error {
	rules := []*validation.FieldRules{
		validation.Field(&c.Node,
			validation.Required,
			validation.In(NodeEcho, NodeGateway),
		),
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
		validation.Field(&c.Metrics,
			validation.By(func(value interface{}) error {
				mc, ok := value.(MetricsConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a MetricsConfig")
				}
				return validation.ValidateStruct(&mc,
					validation.Field(&mc.Address, validation.By(validateHostPort)),
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
	}

	// The echo node never calls out, so its upstream block is ignored.
	if c.Node == NodeGateway {
		rules = append(rules, validation.Field(&c.Upstream,
			validation.Required,
			validation.By(func(value interface{}) error {
				uc, ok := value.(UpstreamConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be an UpstreamConfig")
				}
				return validation.ValidateStruct(&uc,
					validation.Field(&uc.URL,
						validation.Required,
						validation.By(validateUpstreamURL),
					),
					validation.Field(&uc.Name, validation.Required),
					validation.Field(&uc.Timeout,
						validation.Required,
						validation.By(validatePositiveDuration),
					),
					validation.Field(&uc.HealthInterval,
						validation.Required,
						validation.By(validateDuration),
					),
				)
			}),
		))
	}

	return validation.ValidateStruct(c, rules...)
}

func defaultAddress(node Node) string {
	if node == NodeGateway {
		return DefaultGatewayAddress
	}
	return DefaultEchoAddress
}

func validateHostPort(value interface{}) error {
	addr, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}

	if addr == "" {
		return nil
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

	if d < 0 {
		return validation.NewError("validation_negative_duration", "must not be negative")
	}

	return nil
}

func validatePositiveDuration(value interface{}) error {
	if err := validateDuration(value); err != nil {
		return err
	}

	if d, _ := time.ParseDuration(value.(string)); d == 0 {
		return validation.NewError("validation_zero_duration", "must be greater than zero")
	}

	return nil
}

func validateUpstreamURL(value interface{}) error {
	upstreamURL, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}

	parsedURL, err := url.Parse(upstreamURL)
	if err != nil {
		return validation.NewError("validation_invalid_url", "must be a valid URL")
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return validation.NewError("validation_invalid_scheme", "URL must use http or https scheme")
	}

	if parsedURL.Host == "" {
		return validation.NewError("validation_missing_host", "URL must have a host")
	}

	if parsedURL.RawQuery != "" || parsedURL.Fragment != "" {
		return validation.NewError("validation_unexpected_query", "URL must not carry a query or fragment")
	}

	return nil
}
