// file: aegconf/config_test.go
package aegconf

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
server:
  port: 8080
  log_level: debug
  allow_origins: ["https://shop.example.com"]
database:
  path: /tmp/shop.db
auth:
  jwt_key: file-key
  token_ttl: 2h
rate_limit:
  ip_rps: 3
  ip_burst: 6
login:
  lockout: 1m
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	l, err := NewLoader(writeConfig(t, sampleYAML))
	require.NoError(t, err)
	cfg, err := l.Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Server.LogLevel)
	assert.Equal(t, []string{"https://shop.example.com"}, cfg.Server.AllowOrigins)
	assert.Equal(t, "/tmp/shop.db", cfg.Database.Path)
	assert.Equal(t, 2*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, time.Minute, cfg.Login.Lockout)

	// 未出现在文件中的键取默认值
	assert.Equal(t, 5, cfg.Login.MaxFailures)
	assert.Equal(t, 256, cfg.Cache.PrivilegeEntries)
	assert.Equal(t, 5*time.Minute, cfg.Cache.PrivilegeTTL)

	s := cfg.RateLimit.Settings()
	assert.InDelta(t, 3.0, s.IPRPS, 0.0001)
	assert.Equal(t, 6, s.IPBurst)
	assert.InDelta(t, 200.0, s.GlobalRPS, 0.0001)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SHOP_SERVER_PORT", "9090")
	t.Setenv("SHOP_AUTH_JWT_KEY", "env-key")

	l, err := NewLoader(writeConfig(t, sampleYAML))
	require.NoError(t, err)
	cfg, err := l.Load()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "env-key", cfg.Auth.JWTKey)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("SHOP_AUTH_JWT_KEY", "env-key")

	l, err := NewLoader(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	cfg, err := l.Load()
	require.NoError(t, err)
	assert.Equal(t, 10224, cfg.Server.Port)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
}

func TestLoad_Validation(t *testing.T) {
	cases := map[string]string{
		"缺少密钥":     "auth:\n  jwt_key: \"\"\n",
		"端口越界":     "server:\n  port: 70000\nauth:\n  jwt_key: k\n",
		"管理员配置不完整": "auth:\n  jwt_key: k\n  bootstrap_admin_user: root\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			l, err := NewLoader(writeConfig(t, body))
			require.NoError(t, err)
			_, err = l.Load()
			assert.Error(t, err)
		})
	}
}

func TestWatch_ReloadsOnWrite(t *testing.T) {
	path := writeConfig(t, sampleYAML)
	l, err := NewLoader(path)
	require.NoError(t, err)

	changed := make(chan *Config, 4)
	l.Watch(func(c *Config) {
		select {
		case changed <- c:
		default:
		}
	})

	updated := sampleYAML + "\ncache:\n  privilege_entries: 8\n"
	require.NoError(t, os.WriteFile(path, []byte(updated), 0o600))

	// 一次写入可能触发多个事件，等到读到新值为止
	deadline := time.After(5 * time.Second)
	for {
		select {
		case c := <-changed:
			if c.Cache.PrivilegeEntries == 8 {
				return
			}
		case <-deadline:
			t.Fatal("配置变更回调未触发")
		}
	}
}
