package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

// clearEnv blanks every variable Load consults so ambient shell state cannot
// leak into assertions. envdecode treats an empty value as unset.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"MCP_STDIO_SERVER_NAME",
		"MCP_STDIO_SERVER_VERSION",
		"MCP_STDIO_INSTRUCTIONS",
		"MCP_STDIO_LOG_LEVEL",
		"MCP_STDIO_LOG_DIR",
		"MCP_STDIO_RESOURCES_DIR",
		ConfigPathEnv,
	} {
		t.Setenv(key, "")
	}
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ServerName != "mcp-stdio-go" || cfg.ServerVersion != "0.1.1" {
		t.Fatalf("server identity = %q %q", cfg.ServerName, cfg.ServerVersion)
	}
	if cfg.LogLevel != "info" {
		t.Fatalf("log level = %q, want info", cfg.LogLevel)
	}
	if cfg.ResourcesDir != "" || cfg.Instructions != "" {
		t.Fatalf("unexpected non-defaults: %+v", cfg)
	}
}

func TestLoadFileLayersOverDefaults(t *testing.T) {
	clearEnv(t)
	path := writeConfigFile(t, "server_name: from-file\ninstructions: be nice\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ServerName != "from-file" {
		t.Fatalf("server name = %q, want from-file", cfg.ServerName)
	}
	if cfg.Instructions != "be nice" {
		t.Fatalf("instructions = %q", cfg.Instructions)
	}
	// Fields the file does not mention keep their defaults.
	if cfg.ServerVersion != "0.1.1" || cfg.LogLevel != "info" {
		t.Fatalf("defaults lost: %+v", cfg)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := writeConfigFile(t, "server_name: from-file\nlog_level: debug\n")
	t.Setenv("MCP_STDIO_SERVER_NAME", "from-env")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ServerName != "from-env" {
		t.Fatalf("server name = %q, want from-env", cfg.ServerName)
	}
	// Variables that are not set leave the file layer intact.
	if cfg.LogLevel != "debug" {
		t.Fatalf("log level = %q, want debug", cfg.LogLevel)
	}
}

func TestLoadPathFromEnv(t *testing.T) {
	clearEnv(t)
	path := writeConfigFile(t, "server_name: via-env-path\n")
	t.Setenv(ConfigPathEnv, path)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ServerName != "via-env-path" {
		t.Fatalf("server name = %q", cfg.ServerName)
	}
}

func TestLoadMissingNamedFileFails(t *testing.T) {
	clearEnv(t)

	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatalf("load should fail for a named file that does not exist")
	}
}

func TestLoadMalformedFileFails(t *testing.T) {
	clearEnv(t)
	path := writeConfigFile(t, "server_name: [unclosed\n")

	if _, err := Load(path); err == nil {
		t.Fatalf("load should fail for malformed yaml")
	}
}

func TestResolveLogDir(t *testing.T) {
	cfg := Config{LogDir: "/var/log/custom"}
	dir, err := cfg.ResolveLogDir()
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if dir != "/var/log/custom" {
		t.Fatalf("dir = %q", dir)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home directory: %v", err)
	}
	dir, err = Config{}.ResolveLogDir()
	if err != nil {
		t.Fatalf("resolve default: %v", err)
	}
	want := filepath.Join(home, DefaultStateDir, "logs")
	if dir != want {
		t.Fatalf("dir = %q, want %q", dir, want)
	}
}

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{in: "debug", want: slog.LevelDebug},
		{in: "info", want: slog.LevelInfo},
		{in: "", want: slog.LevelInfo},
		{in: "WARN", want: slog.LevelWarn},
		{in: "warning", want: slog.LevelWarn},
		{in: "error", want: slog.LevelError},
		{in: "verbose", wantErr: true},
	}
	for _, tc := range cases {
		got, err := ParseLevel(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("ParseLevel(%q) should fail", tc.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseLevel(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
