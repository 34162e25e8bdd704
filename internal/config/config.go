// Package config handles TOML configuration loading and validation.
package config

import (
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
)

// configSearchPaths lists paths checked in order when no explicit config is given.
var configSearchPaths = []string{
	"/etc/forward-proxy/config.toml",
	"configs/config.toml",
}

// envFiles are loaded into the environment before CLI parsing. Earlier files win.
var envFiles = []string{".env.local", ".env"}

// Upstream authority defaults.
const (
	DefaultUpstreamScheme = "http"
	DefaultUpstreamHost   = "localhost"
	DefaultUpstreamPort   = 9200
)

// reservedAdminPaths are served by the health handler on the admin listener.
var reservedAdminPaths = []string{"/healthz", "/proxy/status"}

// CLI holds command-line arguments parsed by Kong.
type CLI struct {
	Config         string `kong:"short='c',help='Path to TOML config file.',env='CONFIG_PATH'"`
	Host           string `kong:"help='Listen host (overrides config).',env='HOST'"`
	Port           int    `kong:"short='p',help='Listen port (overrides config).',env='PORT'"`
	UpstreamScheme string `kong:"name='upstream-scheme',help='Upstream scheme: http|https (overrides config).',env='PROXIED_SCHEME'"`
	UpstreamHost   string `kong:"name='upstream-host',help='Upstream host (overrides config).',env='PROXIED_HOST'"`
	UpstreamPort   int    `kong:"name='upstream-port',help='Upstream port (overrides config).',env='PROXIED_PORT'"`
	LogLevel       string `kong:"help='Log level: debug|info|warn|error (overrides config).',env='LOG_LEVEL'"`
}

// Config is the top-level application configuration.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Upstream UpstreamConfig `toml:"upstream"`
	CORS     CORSConfig     `toml:"cors"`
	Log      LogConfig      `toml:"log"`
	Metrics  MetricsConfig  `toml:"metrics"`

	filePath string // resolved config file path (unexported)
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host      string   `toml:"host"`
	Port      int      `toml:"port"`       // 0 means "use default" (8080)
	AdminPort int      `toml:"admin_port"` // 0 disables the admin listener
	BodyLimit ByteSize `toml:"body_limit"`
}

// UpstreamConfig describes the single upstream authority and the client used to reach it.
type UpstreamConfig struct {
	Scheme          string `toml:"scheme"`
	Host            string `toml:"host"`
	Port            int    `toml:"port"`
	RewriteHost     bool   `toml:"rewrite_host"`
	TimeoutSeconds  int    `toml:"timeout_seconds"`
	IdleConnections int    `toml:"idle_connections"`
}

// CORSConfig controls cross-origin access to the proxy listener.
type CORSConfig struct {
	Disabled bool `toml:"disabled"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// MetricsConfig holds Prometheus metrics settings.
type MetricsConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// LoadEnv loads .env.local and .env into the process environment.
// Variables that are already set are never overridden; missing files are ignored.
func LoadEnv() {
	loadEnvFiles(envFiles)
}

func loadEnvFiles(paths []string) {
	for _, p := range paths {
		_ = godotenv.Load(p)
	}
}

// Load reads the TOML config file, if any, and applies CLI overrides.
// When no explicit path is given (via --config or CONFIG_PATH), it searches
// /etc/forward-proxy/config.toml then configs/config.toml. Running without a
// config file is allowed; defaults and CLI/env values are used instead.
func Load(cli *CLI) (*Config, error) {
	path := cli.Config
	if path == "" {
		path = findConfig()
	}

	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
		cfg.filePath = path
	}

	cfg.applyCLI(cli)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}

	cfg.setDefaults()
	return &cfg, nil
}

// applyCLI overrides config values with non-zero CLI flags.
func (c *Config) applyCLI(cli *CLI) {
	if cli.Host != "" {
		c.Server.Host = cli.Host
	}
	if cli.Port != 0 {
		c.Server.Port = cli.Port
	}
	if cli.UpstreamScheme != "" {
		c.Upstream.Scheme = cli.UpstreamScheme
	}
	if cli.UpstreamHost != "" {
		c.Upstream.Host = cli.UpstreamHost
	}
	if cli.UpstreamPort != 0 {
		c.Upstream.Port = cli.UpstreamPort
	}
	if cli.LogLevel != "" {
		c.Log.Level = cli.LogLevel
	}
}

func (c *Config) validate() error {
	switch strings.ToLower(c.Upstream.Scheme) {
	case "http", "https", "":
	default:
		return fmt.Errorf("upstream.scheme must be http or https; got %q", c.Upstream.Scheme)
	}
	if strings.ContainsAny(c.Upstream.Host, "/?#@ ") {
		return fmt.Errorf("upstream.host must be a bare host name or address; got %q", c.Upstream.Host)
	}
	if strings.Contains(c.Upstream.Host, ":") && net.ParseIP(c.Upstream.Host) == nil {
		return fmt.Errorf("upstream.host must not carry a port, use upstream.port; got %q", c.Upstream.Host)
	}

	// Numeric bounds.
	for name, port := range map[string]int{
		"server.port":       c.Server.Port,
		"server.admin_port": c.Server.AdminPort,
		"upstream.port":     c.Upstream.Port,
	} {
		if port < 0 || port > 65535 {
			return fmt.Errorf("%s must be 0–65535; got %d", name, port)
		}
	}
	if c.Server.AdminPort != 0 && c.Server.AdminPort == c.Server.Port {
		return fmt.Errorf("server.admin_port must differ from server.port; both are %d", c.Server.Port)
	}
	if c.Upstream.TimeoutSeconds < 0 {
		return fmt.Errorf("upstream.timeout_seconds must be non-negative; got %d", c.Upstream.TimeoutSeconds)
	}
	if c.Upstream.IdleConnections < 0 {
		return fmt.Errorf("upstream.idle_connections must be non-negative; got %d", c.Upstream.IdleConnections)
	}

	// Log fields.
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error", "":
	default:
		return fmt.Errorf("log.level must be one of: debug, info, warn, error; got %q", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "text", "":
	default:
		return fmt.Errorf("log.format must be one of: json, text; got %q", c.Log.Format)
	}

	// Metrics live on the admin listener, next to the health routes.
	if c.Metrics.Enabled {
		if c.Server.AdminPort == 0 {
			return fmt.Errorf("metrics.enabled requires server.admin_port to be set")
		}
		if p := c.Metrics.Path; p != "" {
			if p[0] != '/' {
				return fmt.Errorf("metrics.path must start with '/'; got %q", p)
			}
			for _, reserved := range reservedAdminPaths {
				if p == reserved || strings.HasPrefix(p, reserved+"/") {
					return fmt.Errorf("metrics.path %q conflicts with reserved route %q", p, reserved)
				}
			}
		}
	}
	return nil
}

// setDefaults fills zero-valued fields with sensible defaults.
// For integer fields zero means "unset" because TOML cannot distinguish
// between an explicit 0 and an omitted key.
func (c *Config) setDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.BodyLimit == 0 {
		c.Server.BodyLimit = 10 * MiB
	}
	if c.Upstream.Scheme == "" {
		c.Upstream.Scheme = DefaultUpstreamScheme
	}
	c.Upstream.Scheme = strings.ToLower(c.Upstream.Scheme)
	if c.Upstream.Host == "" {
		c.Upstream.Host = DefaultUpstreamHost
	}
	if c.Upstream.Port == 0 {
		c.Upstream.Port = DefaultUpstreamPort
	}
	if c.Upstream.TimeoutSeconds == 0 {
		c.Upstream.TimeoutSeconds = 120
	}
	if c.Upstream.IdleConnections == 0 {
		c.Upstream.IdleConnections = 100
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
}

// findConfig returns the first config path that exists, or empty string.
func findConfig() string {
	return findConfigInPaths(configSearchPaths)
}

// findConfigInPaths returns the first path that exists on disk, or empty string.
func findConfigInPaths(paths []string) string {
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// Addr returns the server listen address as host:port.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// AdminAddr returns the admin listen address, or empty string when disabled.
func (c *ServerConfig) AdminAddr() string {
	if c.AdminPort == 0 {
		return ""
	}
	return net.JoinHostPort(c.Host, strconv.Itoa(c.AdminPort))
}

// Authority returns the scheme://host:port every request is forwarded to.
func (c *UpstreamConfig) Authority() *url.URL {
	return &url.URL{
		Scheme: c.Scheme,
		Host:   net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
	}
}

// WarnPermissions logs a warning if the config file is readable by group or others.
func (c *Config) WarnPermissions(logger *slog.Logger) {
	if c.filePath == "" {
		return
	}
	info, err := os.Stat(c.filePath)
	if err != nil {
		return
	}
	if perm := info.Mode().Perm(); perm&0o077 != 0 {
		logger.Warn("config file is readable by group/others; consider chmod 600",
			"path", c.filePath,
			"mode", fmt.Sprintf("%04o", perm),
		)
	}
}
