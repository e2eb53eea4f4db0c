// Package config loads the settings of the auctions command from a YAML
// file, a dotenv file and the process environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"cloud.google.com/go/civil"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/alpacahq/alpaca-auctions-go/marketdata"
)

// Output formats
const (
	FormatJSON    = "json"
	FormatParquet = "parquet"
)

// Input encodings
const (
	EncodingJSON    = "json"
	EncodingMsgpack = "msgpack"
)

// Environment variables overriding the file settings
const (
	EnvFormat   = "AUCTIONS_FORMAT"
	EnvEncoding = "AUCTIONS_ENCODING"
	EnvDaily    = "AUCTIONS_DAILY"
	EnvStart    = "AUCTIONS_START"
	EnvEnd      = "AUCTIONS_END"
	EnvTimezone = "AUCTIONS_TIMEZONE"
	EnvLogLevel = "LOG_LEVEL"
)

var (
	ErrInvalidFormat   = errors.New("invalid output format")
	ErrInvalidEncoding = errors.New("invalid input encoding")
	ErrInvalidTime     = errors.New("invalid window bound")
)

// Config contains the settings of the auctions command.
type Config struct {
	// Format is the output format, json or parquet.
	Format string `yaml:"format"`
	// Encoding is the input encoding, json or msgpack.
	Encoding string `yaml:"encoding"`
	// Daily marks the input as a multi-day payload.
	Daily bool `yaml:"daily"`
	// Start and End bound the exported auctions. Both accept RFC 3339
	// timestamps or YYYY-MM-DD dates in Timezone.
	Start string `yaml:"start"`
	End   string `yaml:"end"`
	// Timezone is an IANA location name. Defaults to America/New_York.
	Timezone string `yaml:"timezone"`
	// Mapping overrides the provider field codes, code to field name.
	Mapping  map[string]string `yaml:"mapping"`
	LogLevel string            `yaml:"log_level"`
}

// Default returns the configuration used when no source sets a value.
func Default() Config {
	return Config{
		Format:   FormatJSON,
		Encoding: EncodingJSON,
		Timezone: "America/New_York",
		LogLevel: "info",
	}
}

// Load builds the configuration from the defaults, the YAML file at path,
// the dotenv file at envFile and the process environment, later sources
// winning. An empty path skips the YAML file. A missing envFile is ignored.
func Load(path, envFile string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse YAML: %w", err)
		}
	}

	env := map[string]string{}
	if envFile != "" {
		fileEnv, err := godotenv.Read(envFile)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("failed to read env file: %w", err)
		}
		for k, v := range fileEnv {
			env[k] = v
		}
	}
	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := env[key]
		return v, ok
	}
	if err := cfg.applyEnv(lookup); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	for key, dst := range map[string]*string{
		EnvFormat:   &c.Format,
		EnvEncoding: &c.Encoding,
		EnvStart:    &c.Start,
		EnvEnd:      &c.End,
		EnvTimezone: &c.Timezone,
		EnvLogLevel: &c.LogLevel,
	} {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	if v, ok := lookup(EnvDaily); ok && v != "" {
		daily, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvDaily, err)
		}
		c.Daily = daily
	}
	return nil
}

// Validate checks the format, the encoding, the timezone and the window.
func (c Config) Validate() error {
	switch strings.ToLower(c.Format) {
	case FormatJSON, FormatParquet:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidFormat, c.Format)
	}
	switch strings.ToLower(c.Encoding) {
	case EncodingJSON, EncodingMsgpack:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidEncoding, c.Encoding)
	}
	if _, _, err := c.Window(); err != nil {
		return err
	}
	_, err := c.FieldMapping()
	return err
}

// Location returns the location of Timezone, UTC if it is empty.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Window returns the bounds of Start and End. A date only End covers the
// whole day. Unset bounds are returned as zero times.
func (c Config) Window() (start, end time.Time, err error) {
	loc, err := c.Location()
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if start, err = parseBound(c.Start, loc, false); err != nil {
		return time.Time{}, time.Time{}, err
	}
	if end, err = parseBound(c.End, loc, true); err != nil {
		return time.Time{}, time.Time{}, err
	}
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: end %s is before start %s", ErrInvalidTime, c.End, c.Start)
	}
	return start, end, nil
}

func parseBound(s string, loc *time.Location, endOfDay bool) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	d, err := civil.ParseDate(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	if endOfDay {
		return d.AddDays(1).In(loc).Add(-time.Nanosecond), nil
	}
	return d.In(loc), nil
}

// FieldMapping returns the configured mapping, nil if none is configured
// so that the normalizer falls back to its default.
func (c Config) FieldMapping() (marketdata.FieldMapping, error) {
	if len(c.Mapping) == 0 {
		return nil, nil
	}
	m := make(marketdata.FieldMapping, len(c.Mapping))
	for code, name := range c.Mapping {
		m[code] = marketdata.Field(name)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}
