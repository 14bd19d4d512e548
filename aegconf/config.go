// Package aegconf 负责集中式配置加载
// file: aegconf/config.go
package aegconf

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"ShopAegis/internal/aegmiddleware"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// EnvPrefix 环境变量前缀，例如 SHOP_SERVER_PORT 覆盖 server.port
const EnvPrefix = "SHOP"

type ServerConfig struct {
	Port         int      `mapstructure:"port"`
	LogLevel     string   `mapstructure:"log_level"`
	PprofAddr    string   `mapstructure:"pprof_addr"`
	AllowOrigins []string `mapstructure:"allow_origins"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

type AuthConfig struct {
	JWTKey                 string        `mapstructure:"jwt_key"`
	TokenTTL               time.Duration `mapstructure:"token_ttl"`
	BootstrapAdminUser     string        `mapstructure:"bootstrap_admin_user"`
	BootstrapAdminPassword string        `mapstructure:"bootstrap_admin_password"`
}

type RateLimitConfig struct {
	GlobalRPS    float64 `mapstructure:"global_rps"`
	GlobalBurst  int     `mapstructure:"global_burst"`
	IPRPS        float64 `mapstructure:"ip_rps"`
	IPBurst      int     `mapstructure:"ip_burst"`
	SubjectRPS   float64 `mapstructure:"subject_rps"`
	SubjectBurst int     `mapstructure:"subject_burst"`
}

// Settings 转换为限流中间件使用的参数
func (r RateLimitConfig) Settings() aegmiddleware.RateSettings {
	return aegmiddleware.RateSettings{
		GlobalRPS:    r.GlobalRPS,
		GlobalBurst:  r.GlobalBurst,
		IPRPS:        r.IPRPS,
		IPBurst:      r.IPBurst,
		SubjectRPS:   r.SubjectRPS,
		SubjectBurst: r.SubjectBurst,
	}
}

type LoginConfig struct {
	MaxFailures int           `mapstructure:"max_failures"`
	Lockout     time.Duration `mapstructure:"lockout"`
}

type CacheConfig struct {
	PrivilegeEntries int           `mapstructure:"privilege_entries"`
	PrivilegeTTL     time.Duration `mapstructure:"privilege_ttl"`
}

// Config 结构体
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Auth      AuthConfig      `mapstructure:"auth"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Login     LoginConfig     `mapstructure:"login"`
	Cache     CacheConfig     `mapstructure:"cache"`
}

var defaults = map[string]any{
	"server.port":                   10224,
	"server.log_level":              "info",
	"server.pprof_addr":             "",
	"server.allow_origins":          []string{},
	"database.path":                 "instance/shop.db",
	"auth.jwt_key":                  "",
	"auth.token_ttl":                "24h",
	"auth.bootstrap_admin_user":     "",
	"auth.bootstrap_admin_password": "",
	"rate_limit.global_rps":         200.0,
	"rate_limit.global_burst":       400,
	"rate_limit.ip_rps":             20.0,
	"rate_limit.ip_burst":           40,
	"rate_limit.subject_rps":        10.0,
	"rate_limit.subject_burst":      20,
	"login.max_failures":            5,
	"login.lockout":                 "15m",
	"cache.privilege_entries":       256,
	"cache.privilege_ttl":           "5m",
}

// Loader 持有 viper 实例，支持配置文件热更新
type Loader struct {
	v       *viper.Viper
	hasFile bool
	mu      sync.Mutex
}

// NewLoader 创建加载器。path 为空或文件不存在时只使用默认值与环境变量。
func NewLoader(path string) (*Loader, error) {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	l := &Loader{v: v}
	if path == "" {
		return l, nil
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			slog.Warn("配置文件不存在，使用默认值与环境变量", "path", path)
			return l, nil
		}
		return nil, fmt.Errorf("检查配置文件 '%s' 失败: %w", path, err)
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("读取配置文件 '%s' 失败: %w", path, err)
	}
	l.hasFile = true
	return l, nil
}

// Load 解析并校验当前配置
func (l *Loader) Load() (*Config, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置到结构体失败: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Watch 在配置文件变化时重新解析并回调，解析失败的版本会被忽略
func (l *Loader) Watch(onChange func(*Config)) {
	if !l.hasFile {
		return
	}
	l.v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		cfg, err := l.Load()
		if err != nil {
			slog.Error("配置热更新失败，保留旧配置", "file", e.Name, "error", err)
			return
		}
		slog.Info("配置文件已变更", "file", e.Name)
		onChange(cfg)
	})
	l.v.WatchConfig()
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port 非法: %d", c.Server.Port)
	}
	if strings.TrimSpace(c.Auth.JWTKey) == "" {
		return errors.New("auth.jwt_key 不能为空")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("auth.token_ttl 必须为正: %s", c.Auth.TokenTTL)
	}
	if c.Database.Path == "" {
		return errors.New("database.path 不能为空")
	}
	if (c.Auth.BootstrapAdminUser == "") != (c.Auth.BootstrapAdminPassword == "") {
		return errors.New("auth.bootstrap_admin_user 与 auth.bootstrap_admin_password 必须同时设置")
	}
	return nil
}
