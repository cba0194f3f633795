// Package conf loads the gatehouse configuration file and keeps the
// reloadable parts of it live.
package conf

import (
	"fmt"
	"strings"

	"github.com/go-arcade/gatehouse/internal/pkg/audit"
	"github.com/go-arcade/gatehouse/internal/pkg/identity"
	"github.com/go-arcade/gatehouse/internal/pkg/rbac"
	"github.com/go-arcade/gatehouse/internal/pkg/session"
	"github.com/go-arcade/gatehouse/pkg/cache"
	"github.com/go-arcade/gatehouse/pkg/database"
	"github.com/go-arcade/gatehouse/pkg/http"
	"github.com/go-arcade/gatehouse/pkg/log"
	"github.com/go-arcade/gatehouse/pkg/pprof"
	"github.com/go-arcade/gatehouse/pkg/trace"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides: GATEHOUSE_SESSION_TTL
// overrides session.ttl.
const EnvPrefix = "GATEHOUSE"

type AppConfig struct {
	Log      log.Conf          `mapstructure:"log"`
	Http     http.Http         `mapstructure:"http"`
	Database database.Database `mapstructure:"database"`
	Redis    cache.Redis       `mapstructure:"redis"`
	Session  session.Conf      `mapstructure:"session"`
	Identity identity.Conf     `mapstructure:"identity"`
	Audit    audit.Conf        `mapstructure:"audit"`
	Policy   rbac.Conf         `mapstructure:"policy"`
	Trace    trace.Conf        `mapstructure:"trace"`
	Pprof    pprof.Conf        `mapstructure:"pprof"`
}

func (c *AppConfig) SetDefaults() {
	c.Http.SetDefaults()
	c.Database.SetDefaults()
	c.Session.SetDefaults()
	c.Identity.SetDefaults()
	c.Audit.SetDefaults()
	c.Policy.SetDefaults()
	c.Trace.SetDefaults()
	c.Pprof.SetDefaults()
}

// Validate checks every section that can be checked without connecting
// to anything.
func (c *AppConfig) Validate() error {
	if err := c.Log.Validate(); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	if err := c.Session.Validate(); err != nil {
		return fmt.Errorf("session: %w", err)
	}
	if err := c.Identity.Validate(); err != nil {
		return fmt.Errorf("identity: %w", err)
	}
	if err := c.Audit.Validate(); err != nil {
		return fmt.Errorf("audit: %w", err)
	}
	if c.Session.Backend == session.BackendRedis && c.Redis.Address == "" {
		return fmt.Errorf("session: backend redis requires redis.address")
	}
	return nil
}

// Loader owns the viper instance behind a loaded configuration.
type Loader struct {
	v    *viper.Viper
	path string
}

func newViper(path string) *viper.Viper {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the file at path. The format follows the extension (yaml,
// toml or json). Environment variables override keys present in the file.
func Load(path string) (*AppConfig, *Loader, error) {
	v := newViper(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, nil, fmt.Errorf("failed to read configuration file: %w", err)
	}
	l := &Loader{v: v, path: path}
	cfg, err := l.decode()
	if err != nil {
		return nil, nil, err
	}
	log.Infow("config file loaded", "path", path)
	return cfg, l, nil
}

func (l *Loader) decode() (*AppConfig, error) {
	cfg := &AppConfig{Log: *log.SetDefaults()}
	if err := l.v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration file: %w", err)
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (l *Loader) Path() string {
	return l.path
}
