package config

import (
	"bytes"
	"io"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
	StoreRedis  = "redis"
)

// Config is the configuration of the notes CLI and server.
type Config struct {
	Version string `yaml:"version" validate:"required,oneof=v1"`

	// Owner is used by the CLI when a command does not name one.
	Owner string `yaml:"owner"`

	Log    *ConfigLog    `yaml:"log,omitempty"`
	Server *ConfigServer `yaml:"server,omitempty"`
	Store  ConfigStore   `yaml:"store"`
	Export ConfigExport  `yaml:"export"`

	// Filters hide notes from listings.
	Filters []*Filter `yaml:"filters,omitempty" validate:"dive"`
}

type ConfigLog struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path,omitempty"`
	Verbose bool   `yaml:"verbose"`
}

type ConfigServer struct {
	// Address of the gRPC server. Also unix:///path/to/file.sock is supported.
	Address string `yaml:"address" validate:"required"`
	// HTTPAddress of the gateway serving JSON endpoints and metrics. The
	// gateway is disabled when empty.
	HTTPAddress string `yaml:"http_address,omitempty"`
}

type ConfigStore struct {
	Driver string `yaml:"driver" validate:"required,oneof=memory sqlite redis"`
	// Path of the SQLite database.
	Path      string           `yaml:"path,omitempty" validate:"required_if=Driver sqlite"`
	Redis     ConfigStoreRedis `yaml:"redis,omitempty"`
	CacheSize int              `yaml:"cache_size" validate:"gte=0"`
}

type ConfigStoreRedis struct {
	Address  string `yaml:"address,omitempty"`
	Password string `yaml:"password,omitempty"`
	DB       int    `yaml:"db" validate:"gte=0,lte=15"`
	Prefix   string `yaml:"prefix,omitempty"`
}

type ConfigExport struct {
	AvoidBreaks bool    `yaml:"avoid_breaks"`
	Width       int     `yaml:"width" validate:"gte=200,lte=4000"`
	FontSize    float64 `yaml:"font_size" validate:"gte=6,lte=72"`
}

// Default returns a copy of the embedded default configuration.
func Default() *Config {
	c := defaults
	if defaults.Log != nil {
		log := *defaults.Log
		c.Log = &log
	}
	if defaults.Server != nil {
		server := *defaults.Server
		c.Server = &server
	}
	return &c
}

// ParseYAML parses and validates configuration files. Later files override
// the fields they set in earlier ones, and all of them override the
// defaults.
func ParseYAML(data ...[]byte) (*Config, error) {
	return parseYAML(Default(), data...)
}

func parseYAML(base *Config, data ...[]byte) (*Config, error) {
	cfg := base
	for _, item := range data {
		version, err := parseVersionFromYAML(item)
		if err != nil {
			return nil, err
		}

		switch version {
		case "v1":
			if err := decodeYAMLv1(item, cfg); err != nil {
				return nil, errors.Wrap(err, "failed to parse v1 config")
			}
		default:
			return nil, errors.Errorf("unknown version: %q", version)
		}
	}

	if err := validateConfig(cfg); err != nil {
		return nil, errors.Wrapf(err, "failed to validate %s config", cfg.Version)
	}
	return cfg, nil
}

type versionOnly struct {
	Version string `yaml:"version"`
}

func parseVersionFromYAML(data []byte) (string, error) {
	var result versionOnly
	if err := yaml.Unmarshal(data, &result); err != nil {
		return "", errors.Wrap(err, "failed to unmarshal version")
	}
	return result.Version, nil
}

// decodeYAMLv1 decodes data on top of cfg. Unknown fields are errors.
func decodeYAMLv1(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterStructValidation(func(sl validator.StructLevel) {
		store := sl.Current().Interface().(ConfigStore)
		if store.Driver == StoreRedis && store.Redis.Address == "" {
			sl.ReportError(store.Redis.Address, "Redis.Address", "address", "required_for_redis", "")
		}
	}, ConfigStore{})
	return v
}

func validateConfig(cfg *Config) error {
	return errors.WithStack(validate.Struct(cfg))
}
