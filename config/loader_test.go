// 配置加载器测试。
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Loader 测试 ---

func TestLoader_LoadDefaults(t *testing.T) {
	cfg, err := NewLoader().Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, 8080, cfg.Server.HTTPPort)
	assert.Equal(t, "skip", cfg.Registry.ProbePolicy)
}

func TestLoader_LoadFromYAML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")

	yamlContent := `
server:
  http_port: 8888
  read_timeout: 60s

registry:
  plugin_dir: "/opt/plugins"
  manifest: "/etc/pluginfamily/plugins.yaml"
  probe_policy: "fail"
  hot_reload: true
  poll_interval: 500ms
  reload_rate: 0.5
  reload_burst: 2

redis:
  enabled: true
  addr: "redis.example.com:6379"
  password: "secret"
  db: 1
  channel: "plugins"

log:
  level: "debug"
  format: "console"
`
	require.NoError(t, os.WriteFile(configPath, []byte(yamlContent), 0644))

	cfg, err := NewLoader().
		WithConfigPath(configPath).
		Load()
	require.NoError(t, err)

	assert.Equal(t, 8888, cfg.Server.HTTPPort)
	assert.Equal(t, 60*time.Second, cfg.Server.ReadTimeout)

	assert.Equal(t, "/opt/plugins", cfg.Registry.PluginDir)
	assert.Equal(t, "/etc/pluginfamily/plugins.yaml", cfg.Registry.Manifest)
	assert.Equal(t, "fail", cfg.Registry.ProbePolicy)
	assert.True(t, cfg.Registry.HotReload)
	assert.Equal(t, 500*time.Millisecond, cfg.Registry.PollInterval)
	assert.Equal(t, 0.5, cfg.Registry.ReloadRate)
	assert.Equal(t, 2, cfg.Registry.ReloadBurst)

	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "redis.example.com:6379", cfg.Redis.Addr)
	assert.Equal(t, "secret", cfg.Redis.Password)
	assert.Equal(t, 1, cfg.Redis.DB)
	assert.Equal(t, "plugins", cfg.Redis.Channel)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)

	// 未出现在文件中的字段保留默认值
	assert.Equal(t, 15*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "pluginfamily", cfg.Telemetry.ServiceName)
}

func TestLoader_LoadFromEnv(t *testing.T) {
	t.Setenv("PLUGINFAMILY_SERVER_HTTP_PORT", "7777")
	t.Setenv("PLUGINFAMILY_REGISTRY_PLUGIN_DIR", "/env/plugins")
	t.Setenv("PLUGINFAMILY_REGISTRY_HOT_RELOAD", "true")
	t.Setenv("PLUGINFAMILY_REGISTRY_POLL_INTERVAL", "3s")
	t.Setenv("PLUGINFAMILY_REGISTRY_RELOAD_RATE", "2.5")
	t.Setenv("PLUGINFAMILY_REDIS_ADDR", "env-redis:6379")
	t.Setenv("PLUGINFAMILY_LOG_LEVEL", "warn")
	t.Setenv("PLUGINFAMILY_LOG_OUTPUT_PATHS", "stdout, /var/log/pf.log")

	cfg, err := NewLoader().Load()
	require.NoError(t, err)

	assert.Equal(t, 7777, cfg.Server.HTTPPort)
	assert.Equal(t, "/env/plugins", cfg.Registry.PluginDir)
	assert.True(t, cfg.Registry.HotReload)
	assert.Equal(t, 3*time.Second, cfg.Registry.PollInterval)
	assert.Equal(t, 2.5, cfg.Registry.ReloadRate)
	assert.Equal(t, "env-redis:6379", cfg.Redis.Addr)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, []string{"stdout", "/var/log/pf.log"}, cfg.Log.OutputPaths)
}

func TestLoader_EnvOverridesYAML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")

	yamlContent := `
server:
  http_port: 8888
registry:
  plugin_dir: "/yaml/plugins"
  manifest: "/yaml/plugins.yaml"
`
	require.NoError(t, os.WriteFile(configPath, []byte(yamlContent), 0644))

	t.Setenv("PLUGINFAMILY_SERVER_HTTP_PORT", "9999")
	t.Setenv("PLUGINFAMILY_REGISTRY_PLUGIN_DIR", "/env/plugins")

	cfg, err := NewLoader().
		WithConfigPath(configPath).
		Load()
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Server.HTTPPort)
	assert.Equal(t, "/env/plugins", cfg.Registry.PluginDir)
	// 未被环境变量覆盖的 YAML 值保留
	assert.Equal(t, "/yaml/plugins.yaml", cfg.Registry.Manifest)
}

func TestLoader_CustomEnvPrefix(t *testing.T) {
	t.Setenv("MYAPP_SERVER_HTTP_PORT", "6666")
	t.Setenv("MYAPP_REGISTRY_MANIFEST", "custom.yaml")

	cfg, err := NewLoader().
		WithEnvPrefix("MYAPP").
		Load()
	require.NoError(t, err)

	assert.Equal(t, 6666, cfg.Server.HTTPPort)
	assert.Equal(t, "custom.yaml", cfg.Registry.Manifest)
}

func TestLoader_InvalidEnvValue(t *testing.T) {
	t.Setenv("PLUGINFAMILY_REGISTRY_POLL_INTERVAL", "soon")

	_, err := NewLoader().Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PLUGINFAMILY_REGISTRY_POLL_INTERVAL")
}

func TestLoader_WithValidator(t *testing.T) {
	validator := func(cfg *Config) error {
		if cfg.Server.HTTPPort < 1024 {
			return assert.AnError
		}
		return nil
	}

	t.Setenv("PLUGINFAMILY_SERVER_HTTP_PORT", "80")

	_, err := NewLoader().
		WithValidator(validator).
		Load()
	assert.ErrorIs(t, err, assert.AnError)
}

func TestLoader_NonExistentFile(t *testing.T) {
	cfg, err := NewLoader().
		WithConfigPath("/non/existent/path/config.yaml").
		Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, 8080, cfg.Server.HTTPPort)
}

func TestLoader_InvalidYAML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "invalid.yaml")

	invalidYAML := `
server:
  http_port: [invalid
  this is not valid yaml
`
	require.NoError(t, os.WriteFile(configPath, []byte(invalidYAML), 0644))

	_, err := NewLoader().
		WithConfigPath(configPath).
		Load()
	assert.Error(t, err)
}

// --- Config 方法测试 ---

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:   "valid default config",
			modify: func(c *Config) {},
		},
		{
			name:    "invalid HTTP port (negative)",
			modify:  func(c *Config) { c.Server.HTTPPort = -1 },
			wantErr: true,
		},
		{
			name:    "invalid HTTP port (too large)",
			modify:  func(c *Config) { c.Server.HTTPPort = 70000 },
			wantErr: true,
		},
		{
			name:    "unknown probe policy",
			modify:  func(c *Config) { c.Registry.ProbePolicy = "retry" },
			wantErr: true,
		},
		{
			name: "hot reload without poll interval",
			modify: func(c *Config) {
				c.Registry.HotReload = true
				c.Registry.PollInterval = 0
			},
			wantErr: true,
		},
		{
			name: "hot reload without rate",
			modify: func(c *Config) {
				c.Registry.HotReload = true
				c.Registry.ReloadRate = 0
			},
			wantErr: true,
		},
		{
			name:   "hot reload with defaults",
			modify: func(c *Config) { c.Registry.HotReload = true },
		},
		{
			name: "redis without channel",
			modify: func(c *Config) {
				c.Redis.Enabled = true
				c.Redis.Channel = ""
			},
			wantErr: true,
		},
		{
			name:    "unknown log format",
			modify:  func(c *Config) { c.Log.Format = "xml" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRegistryConfig_WatchPaths(t *testing.T) {
	assert.Empty(t, RegistryConfig{}.WatchPaths())
	assert.Equal(t, []string{"/p", "/m.yaml"}, RegistryConfig{PluginDir: "/p", Manifest: "/m.yaml"}.WatchPaths())
	assert.Equal(t, []string{"/m.yaml"}, RegistryConfig{Manifest: "/m.yaml"}.WatchPaths())
}

// --- MustLoad 测试 ---

func TestMustLoad_Success(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("server:\n  http_port: 8080\n"), 0644))

	assert.NotPanics(t, func() {
		cfg := MustLoad(configPath)
		assert.Equal(t, 8080, cfg.Server.HTTPPort)
	})
}

func TestMustLoad_InvalidFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "invalid.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("invalid: [yaml"), 0644))

	assert.Panics(t, func() {
		MustLoad(configPath)
	})
}

func TestLoadFromEnv_Function(t *testing.T) {
	t.Setenv("PLUGINFAMILY_REGISTRY_MANIFEST", "env-only.yaml")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "env-only.yaml", cfg.Registry.Manifest)
}
