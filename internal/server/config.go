// Package server provides configuration helpers that define runtime defaults,
// validation, and flag/env/file loading for the linechat service.
package server

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// DefaultPort is the TCP port the line protocol listens on.
const DefaultPort = 11042

// envPrefix namespaces environment variables, e.g. CHAT_PORT.
const envPrefix = "CHAT"

// Config holds the server configuration settings.
type Config struct {
	Host            string
	Port            int
	WebSocketAddr   string
	AllowedOrigins  []string
	MaxLineLength   int
	SendBufferSize  int
	LogLevel        string
	ShutdownTimeout time.Duration
}

func defaultConfig() Config {
	return Config{
		Port:          DefaultPort,
		WebSocketAddr: ":8080",
		AllowedOrigins: []string{
			"http://localhost:8080",
		},
		MaxLineLength:   1024,
		SendBufferSize:  256,
		LogLevel:        "info",
		ShutdownTimeout: 5 * time.Second,
	}
}

func sanitizeConfig(cfg Config) Config {
	defaults := defaultConfig()

	if cfg.Port <= 0 || cfg.Port > 65535 {
		cfg.Port = defaults.Port
	}

	if cfg.MaxLineLength <= 0 {
		cfg.MaxLineLength = defaults.MaxLineLength
	}

	if cfg.SendBufferSize <= 0 {
		cfg.SendBufferSize = defaults.SendBufferSize
	}

	if cfg.LogLevel == "" {
		cfg.LogLevel = defaults.LogLevel
	}

	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaults.ShutdownTimeout
	}

	cfg.AllowedOrigins = append([]string(nil), cfg.AllowedOrigins...)
	return cfg
}

// TCPAddr returns the host:port the line protocol binds to.
func (c Config) TCPAddr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// NewConfig creates a Config instance populated with default values for all settings.
func NewConfig() *Config {
	cfg := defaultConfig()
	return &cfg
}

// RegisterFlags defines the command line flags LoadConfig understands.
func RegisterFlags(fs *pflag.FlagSet) {
	defaults := defaultConfig()
	fs.String("config", "", "path to a configuration file (toml, yaml or json)")
	fs.String("host", defaults.Host, "interface to bind the line protocol to")
	fs.Int("port", defaults.Port, "TCP port for the line protocol")
	fs.String("websocket-addr", defaults.WebSocketAddr, "HTTP address serving /ws; empty disables it")
	fs.StringSlice("allowed-origins", defaults.AllowedOrigins, "origins allowed to open /ws; * allows all")
	fs.String("log-level", defaults.LogLevel, "log level (debug, info, warn, error)")
}

// LoadConfig resolves the configuration from, in order of precedence, flags
// that were set explicitly, CHAT_* environment variables, the optional config
// file at path, and the built-in defaults. flags may be nil.
func LoadConfig(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	defaults := defaultConfig()
	v.SetDefault("host", defaults.Host)
	v.SetDefault("port", defaults.Port)
	v.SetDefault("websocket_addr", defaults.WebSocketAddr)
	v.SetDefault("allowed_origins", defaults.AllowedOrigins)
	v.SetDefault("max_line_length", defaults.MaxLineLength)
	v.SetDefault("send_buffer", defaults.SendBufferSize)
	v.SetDefault("log_level", defaults.LogLevel)
	v.SetDefault("shutdown_timeout", defaults.ShutdownTimeout)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for key, name := range map[string]string{
			"host":            "host",
			"port":            "port",
			"websocket_addr":  "websocket-addr",
			"allowed_origins": "allowed-origins",
			"log_level":       "log-level",
		} {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := sanitizeConfig(Config{
		Host:            v.GetString("host"),
		Port:            v.GetInt("port"),
		WebSocketAddr:   v.GetString("websocket_addr"),
		AllowedOrigins:  stringList(v.Get("allowed_origins")),
		MaxLineLength:   v.GetInt("max_line_length"),
		SendBufferSize:  v.GetInt("send_buffer"),
		LogLevel:        v.GetString("log_level"),
		ShutdownTimeout: v.GetDuration("shutdown_timeout"),
	})
	return &cfg, nil
}

// stringList accepts the shapes a list setting arrives in: a comma separated
// string from the environment, or a slice from a flag or config file.
func stringList(value interface{}) []string {
	switch v := value.(type) {
	case nil:
		return nil
	case string:
		return parseOrigins(v)
	case []string:
		return append([]string(nil), v...)
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, strings.TrimSpace(fmt.Sprint(item)))
		}
		return out
	default:
		return parseOrigins(fmt.Sprint(v))
	}
}

func parseOrigins(origins string) []string {
	if strings.TrimSpace(origins) == "" {
		return nil
	}
	parts := strings.Split(origins, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
