// Package config loads the mcp-stdio binary configuration. Values come from
// three layers, later layers winning: built-in defaults, an optional YAML
// file, and MCP_STDIO_* environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joeshaw/envdecode"
	"gopkg.in/yaml.v3"
)

// DefaultStateDir is the directory under the user's home for binary state.
const DefaultStateDir = ".mcp-stdio"

// DefaultLogFile is the log file name within the log directory.
const DefaultLogFile = "mcp-stdio.log"

// ConfigPathEnv names the config file when the -config flag is not given.
const ConfigPathEnv = "MCP_STDIO_CONFIG"

// Config holds the settings of the mcp-stdio binary. The env tags carry no
// defaults so that envdecode only overwrites fields whose variable is
// actually set, preserving the file layer underneath.
type Config struct {
	// ServerName and ServerVersion populate the serverInfo advertised at
	// initialize.
	ServerName    string `env:"MCP_STDIO_SERVER_NAME" yaml:"server_name"`
	ServerVersion string `env:"MCP_STDIO_SERVER_VERSION" yaml:"server_version"`

	// Instructions, when set, are returned verbatim in the initialize result.
	Instructions string `env:"MCP_STDIO_INSTRUCTIONS" yaml:"instructions"`

	// LogLevel is the minimum level of the binary's own logger: debug, info,
	// warn or error. The client can lower it at runtime via logging/setLevel.
	LogLevel string `env:"MCP_STDIO_LOG_LEVEL" yaml:"log_level"`

	// LogDir overrides the log directory. Empty means ~/.mcp-stdio/logs.
	LogDir string `env:"MCP_STDIO_LOG_DIR" yaml:"log_dir"`

	// ResourcesDir, when set, exposes the directory as MCP resources instead
	// of the built-in demo resource.
	ResourcesDir string `env:"MCP_STDIO_RESOURCES_DIR" yaml:"resources_dir"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		ServerName:    "mcp-stdio-go",
		ServerVersion: "0.1.1",
		LogLevel:      "info",
	}
}

// Load assembles the configuration. A non-empty path names the YAML file to
// layer over the defaults; when path is empty the MCP_STDIO_CONFIG variable
// is consulted, and when that is empty too no file is read. A named file
// that does not exist is an error.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv(ConfigPathEnv)
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("reading config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	// An environment with no MCP_STDIO_* variables at all is fine; the file
	// and default layers already populated cfg.
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return Config{}, fmt.Errorf("decoding environment: %w", err)
	}

	return cfg, nil
}

// ResolveLogDir returns the effective log directory, falling back to
// ~/.mcp-stdio/logs when none is configured.
func (c Config) ResolveLogDir() (string, error) {
	if c.LogDir != "" {
		return c.LogDir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("determining home directory: %w", err)
	}
	return filepath.Join(home, DefaultStateDir, "logs"), nil
}

// ParseLevel maps a config log level string onto a slog.Level. The empty
// string means info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", s)
	}
}
