package config

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Version information - set by GoReleaser during build
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// GetVersionInfo returns a formatted version string
func GetVersionInfo() string {
	return fmt.Sprintf("authbridge version %s, commit %s, built at %s", version, commit, date)
}

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Provider  ProviderConfig  `mapstructure:"provider"`
	Origins   []OriginConfig  `mapstructure:"origins"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

type ServerConfig struct {
	Port    int    `mapstructure:"port"`
	Host    string `mapstructure:"host"`
	Timeout string `mapstructure:"timeout"`
}

type LoggingConfig struct {
	Level             string `mapstructure:"level"`
	Format            string `mapstructure:"format"`
	Color             bool   `mapstructure:"color"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
	OutputPath        string `mapstructure:"output_path"`
	AppendToFile      bool   `mapstructure:"append_to_file"`
	DisableConsole    bool   `mapstructure:"disable_console"`
}

// ProviderConfig describes the hosted identity service the bridge talks to.
type ProviderConfig struct {
	BaseURL    string `mapstructure:"base_url"`
	AnonKey    string `mapstructure:"anon_key"`
	CookieName string `mapstructure:"cookie_name"` // provider-defined name, e.g. sb-<ref>-auth-token
}

// OriginConfig is one entry of the ordered candidate-origin table. The order
// in the config file is the probe order: a local development origin listed
// before production takes priority on reads, so a developer is never silently
// authenticated against production data.
type OriginConfig struct {
	Name string `mapstructure:"name"`
	URL  string `mapstructure:"url"`
}

// Secure reports whether cookies for this origin must carry the secure
// attribute. Derived from the configured scheme, never from runtime hostname
// inspection.
func (o OriginConfig) Secure() bool {
	return strings.HasPrefix(o.URL, "https://")
}

type DatabaseConfig struct {
	DSN         string `mapstructure:"dsn"`
	AutoMigrate bool   `mapstructure:"auto_migrate"`
}

type TelemetryConfig struct {
	BatchDelay   time.Duration `mapstructure:"batch_delay"`
	MaxBatchSize int           `mapstructure:"max_batch_size"`
	MaxAttempts  int           `mapstructure:"max_attempts"`
	MaxBackoff   time.Duration `mapstructure:"max_backoff"`
}

// Dashboard navigation targets used by the callback flow.
const (
	RouteLogin          = "/auth/login"
	RouteLoginConfirmed = "/auth/login?confirmed=true"
	RouteResetPassword  = "/auth/reset-password"
	RouteDashboard      = "/dashboard/tickets"
)

// InitFlags initializes command line flags (without parsing)
func InitFlags() {
	pflag.String("listen", "", "Listen address override (host:port)")
	pflag.String("database-dsn", "", "Postgres DSN for provisioning and activity logs")
	// Note: no pflag.Parse() here as it's called in main.go
}

func Load() (*Config, error) {
	viper.Reset() // Ensure clean state

	viper.SetEnvPrefix("AUTHBRIDGE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if err := viper.BindPFlags(pflag.CommandLine); err != nil {
		return nil, err
	}

	setDefaults()

	// Load ./config.yaml first
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	viper.AddConfigPath("/etc/authbridge")

	if err := viper.ReadInConfig(); err != nil {
		// Config file is optional; env vars and flags can carry everything
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	// Listen override from flag or environment
	if listen := viper.GetString("listen"); listen != "" {
		host, port, err := splitListen(listen)
		if err != nil {
			return nil, err
		}
		config.Server.Host = host
		if port != 0 {
			config.Server.Port = port
		}
	}

	if dsn := viper.GetString("database-dsn"); dsn != "" {
		config.Database.DSN = dsn
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("server.host", "127.0.0.1")
	viper.SetDefault("server.port", 8787)
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "console")
	viper.SetDefault("telemetry.batch_delay", time.Second)
	viper.SetDefault("telemetry.max_batch_size", 10)
	viper.SetDefault("telemetry.max_attempts", 5)
	viper.SetDefault("telemetry.max_backoff", 30*time.Second)
}

func (c *Config) validate() error {
	if c.Provider.BaseURL == "" {
		return fmt.Errorf("provider.base_url is required, please adjust the config or set AUTHBRIDGE_PROVIDER_BASE_URL")
	}
	if c.Provider.CookieName == "" {
		return fmt.Errorf("provider.cookie_name is required")
	}
	if len(c.Origins) == 0 {
		return fmt.Errorf("at least one entry in origins is required")
	}
	for _, o := range c.Origins {
		u, err := url.Parse(o.URL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("origin %q has an invalid url %q", o.Name, o.URL)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("origin %q has unsupported scheme %q", o.Name, u.Scheme)
		}
	}
	if c.Telemetry.MaxBatchSize <= 0 {
		return fmt.Errorf("telemetry.max_batch_size must be positive")
	}
	return nil
}

func splitListen(listen string) (string, int, error) {
	if !strings.Contains(listen, ":") {
		return listen, 0, nil
	}
	host, portStr, err := net.SplitHostPort(listen)
	if err != nil {
		return "", 0, fmt.Errorf("invalid listen address %q", listen)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid listen address %q", listen)
	}
	if host == "" {
		host = "127.0.0.1"
	}
	return host, port, nil
}
