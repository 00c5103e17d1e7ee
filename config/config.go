// Package config loads n8nmcp settings from a YAML file and the environment.
//
// Precedence, lowest to highest: built-in defaults, the config file,
// environment variables, command-line flags (applied by the cli package).
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"
)

const (
	projectConfigName = "n8nmcp.yaml"
	homeConfigDir     = ".n8nmcp"
	homeConfigName    = "config.yaml"
)

// Environment variables read by ApplyEnv.
const (
	EnvAPIURL       = "N8N_API_URL"
	EnvAPIKey       = "N8N_API_KEY"
	EnvLogLevel     = "N8NMCP_LOG_LEVEL"
	EnvLogFormat    = "N8NMCP_LOG_FORMAT"
	EnvOTLPEndpoint = "OTEL_EXPORTER_OTLP_ENDPOINT"
	EnvPort         = "PORT"
)

// Config is the full n8nmcp configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	N8N       N8NConfig       `yaml:"n8n"`
	Log       LogConfig       `yaml:"log"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	CORSOrigin   string        `yaml:"cors_origin"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	MaxBody      int64         `yaml:"max_body"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// N8NConfig holds the default n8n credentials. Requests may override both
// with headers.
type N8NConfig struct {
	APIURL  string        `yaml:"api_url"`
	APIKey  string        `yaml:"api_key"`
	Timeout time.Duration `yaml:"timeout"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// TelemetryConfig enables OTLP trace export when Endpoint is set.
type TelemetryConfig struct {
	OTLPEndpoint string `yaml:"otlp_endpoint"`
	ServiceName  string `yaml:"service_name"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8787,
			CORSOrigin:   "*",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 60 * time.Second,
			MaxBody:      4 << 20,
		},
		N8N: N8NConfig{
			Timeout: 30 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Telemetry: TelemetryConfig{
			ServiceName: "n8nmcp",
		},
	}
}

// Load discovers the config file, overlays the process environment, applies
// overrides in order and validates the result. The returned path is empty
// when no file was found.
func Load(explicitPath string, overrides ...func(*Config)) (Config, string, error) {
	path, found, err := DiscoverPath(explicitPath)
	if err != nil {
		return Config{}, "", err
	}

	cfg := Default()
	if found {
		cfg, err = LoadFile(path)
		if err != nil {
			return Config{}, "", err
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return Config{}, "", err
	}
	for _, override := range overrides {
		override(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, "", err
	}
	return cfg, path, nil
}

// DiscoverPath resolves the config location with first-match semantics.
func DiscoverPath(explicitPath string) (string, bool, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", false, fmt.Errorf("resolve working directory: %w", err)
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", false, fmt.Errorf("resolve user home: %w", err)
	}
	return DiscoverPathFrom(explicitPath, cwd, homeDir)
}

// DiscoverPathFrom is a testable variant of DiscoverPath.
func DiscoverPathFrom(explicitPath, cwd, homeDir string) (string, bool, error) {
	candidates := make([]string, 0, 2)
	explicit := strings.TrimSpace(explicitPath)
	if explicit != "" {
		candidates = append(candidates, filepath.Clean(explicit))
	} else {
		candidates = append(candidates, filepath.Join(cwd, projectConfigName))
		candidates = append(candidates, filepath.Join(homeDir, homeConfigDir, homeConfigName))
	}

	for _, candidate := range candidates {
		info, err := os.Stat(candidate)
		if err == nil && !info.IsDir() {
			return candidate, true, nil
		}
		if errors.Is(err, os.ErrNotExist) {
			if explicit != "" {
				return "", false, fmt.Errorf("config file %q not found", candidate)
			}
			continue
		}
		if err != nil {
			return "", false, fmt.Errorf("checking config path %q: %w", candidate, err)
		}
	}
	return "", false, nil
}

// LoadFile reads path over the defaults. Keys missing from the file keep
// their default value.
func LoadFile(path string) (Config, error) {
	// #nosec G304 -- path resolved from explicit local config discovery.
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config %q: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config %q: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overlays environment variables using lookup (os.LookupEnv in
// production). Empty values are ignored.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}

	if v, ok := get(EnvAPIURL); ok {
		c.N8N.APIURL = v
	}
	if v, ok := get(EnvAPIKey); ok {
		c.N8N.APIKey = v
	}
	if v, ok := get(EnvLogLevel); ok {
		c.Log.Level = strings.ToLower(v)
	}
	if v, ok := get(EnvLogFormat); ok {
		c.Log.Format = strings.ToLower(v)
	}
	if v, ok := get(EnvOTLPEndpoint); ok {
		c.Telemetry.OTLPEndpoint = v
	}
	if v, ok := get(EnvPort); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %q is not a port number", EnvPort, v)
		}
		c.Server.Port = port
	}
	return nil
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var result *multierror.Error
	check := func(section string, err error) {
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("%s: %w", section, err))
		}
	}

	s := c.Server
	check("server", validation.ValidateStruct(&s,
		validation.Field(&s.Port, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&s.ReadTimeout, validation.Min(time.Duration(0))),
		validation.Field(&s.WriteTimeout, validation.Min(time.Duration(0))),
		validation.Field(&s.MaxBody, validation.Min(int64(0))),
	))

	n := c.N8N
	check("n8n", validation.ValidateStruct(&n,
		validation.Field(&n.APIURL, validation.By(httpURL)),
		validation.Field(&n.Timeout, validation.Min(time.Duration(0))),
	))

	l := c.Log
	check("log", validation.ValidateStruct(&l,
		validation.Field(&l.Level, validation.In("debug", "info", "warn", "error")),
		validation.Field(&l.Format, validation.In("text", "json")),
	))

	t := c.Telemetry
	check("telemetry", validation.ValidateStruct(&t,
		validation.Field(&t.OTLPEndpoint, validation.By(httpURL)),
	))

	return result.ErrorOrNil()
}

func httpURL(value any) error {
	raw, _ := value.(string)
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.New("must be an http or https URL")
	}
	return nil
}

// SlogLevel maps the configured level name to a slog.Level.
func (l LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(strings.TrimSpace(l.Level)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
