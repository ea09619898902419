// Package config loads the server configuration from a TOML file
// with environment variable overrides.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/atinyakov/AnimalFacts/internal/models"
	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// DefaultPath is used when neither the --config flag nor CONFIG is set.
const DefaultPath = "config.toml"

// Config holds every setting of the server.
type Config struct {
	// LoggingDir receives the JSON log file. Empty disables file logging.
	LoggingDir string `toml:"logging_dir"`
	// LoggingLevel is a zap level name.
	LoggingLevel string `toml:"logging_level" validate:"oneof=debug info warn error"`
	// FactsDir holds the <animal>_facts.json files and fact_flags.json.
	FactsDir string `toml:"facts_dir" validate:"required"`
	// AnimalFactTypes lists the animals whose facts should be loaded.
	AnimalFactTypes []models.Animal `toml:"animal_fact_types"`
	// FlaggingEnabled turns on /flag and /admin/flag/*.
	FlaggingEnabled bool `toml:"flagging_enabled"`
	// Flaggers may submit flags through /flag.
	Flaggers []models.Flagger `toml:"flaggers" validate:"dive"`
	// Admins may use /admin/*.
	Admins []models.Admin `toml:"admins" validate:"dive"`
	// Server configures the listener.
	Server ServerConfig `toml:"server"`
	// Audit configures the optional PostgreSQL audit trail.
	Audit AuditConfig `toml:"audit"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	IP   string `toml:"ip" validate:"required,ip"`
	Port int    `toml:"port" validate:"min=1,max=65535"`
	// TLSCert and TLSKey switch the server to HTTPS when both are set.
	TLSCert string `toml:"tls_cert" validate:"required_with=TLSKey"`
	TLSKey  string `toml:"tls_key" validate:"required_with=TLSCert"`
	// Addr is ip:port, or SERVER_ADDRESS when that is set.
	Addr string `toml:"-"`
}

// AuditConfig configures the moderation audit trail.
type AuditConfig struct {
	// DatabaseDSN enables the audit trail when non-empty.
	DatabaseDSN string `toml:"database_dsn"`
	// Retention is how long entries are kept.
	Retention Duration `toml:"retention"`
	// Interval is how often expired entries are removed.
	Interval Duration `toml:"interval"`
	// Timeout bounds a single audit write.
	Timeout Duration `toml:"timeout"`
}

// Duration is a time.Duration written as a Go duration string ("720h").
type Duration time.Duration

// UnmarshalText parses a Go duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// TLSEnabled reports whether the server should use ListenAndServeTLS.
func (s ServerConfig) TLSEnabled() bool {
	return s.TLSCert != "" && s.TLSKey != ""
}

var validate = validator.New()

// Default returns the configuration used for keys absent from the file.
// A missing animal_fact_types key loads every known animal.
func Default() *Config {
	return &Config{
		LoggingLevel: "info",
		Server: ServerConfig{
			IP:   "127.0.0.1",
			Port: 8080,
		},
		Audit: AuditConfig{
			Retention: Duration(30 * 24 * time.Hour),
			Interval:  Duration(time.Hour),
			Timeout:   Duration(2 * time.Second),
		},
	}
}

// ResolvePath picks the config file: CONFIG env, then the flag value, then DefaultPath.
func ResolvePath(flagValue string) string {
	if configPath := os.Getenv("CONFIG"); configPath != "" {
		return configPath
	}
	if flagValue != "" {
		return flagValue
	}
	return DefaultPath
}

// Load reads, decodes and validates the TOML file at path.
// Unknown keys are rejected.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error while reading config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a TOML document.
func Parse(data []byte) (*Config, error) {
	cfg := Default()

	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return nil, fmt.Errorf("error while parsing config file: %s", strict.String())
		}
		return nil, fmt.Errorf("error while parsing config file: %w", err)
	}

	if cfg.AnimalFactTypes == nil {
		cfg.AnimalFactTypes = append([]models.Animal(nil), models.Animals...)
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if cfg.Audit.DatabaseDSN != "" && (cfg.Audit.Retention <= 0 || cfg.Audit.Interval <= 0 || cfg.Audit.Timeout <= 0) {
		return nil, errors.New("invalid config: audit retention, interval and timeout must be positive")
	}

	cfg.Server.Addr = net.JoinHostPort(cfg.Server.IP, strconv.Itoa(cfg.Server.Port))
	if serverAddress := os.Getenv("SERVER_ADDRESS"); serverAddress != "" {
		cfg.Server.Addr = serverAddress
	}

	return cfg, nil
}
