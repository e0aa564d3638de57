// Package config loads the service configuration from defaults, an optional
// file and the environment.
package config

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/goliatone/go-print"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces every environment override, e.g. JOBBOARD_SERVER_ADDR
const EnvPrefix = "JOBBOARD"

// Config represents the configuration implementation.
type Config struct {
	Server   *Server   `json:"server"`
	Database *Database `json:"database"`
	Auth     *Auth     `json:"auth"`
	Redis    *Redis    `json:"redis"`
	Logger   *Logger   `json:"logger"`
}

// Load reads configuration. path may be empty, in which case only
// defaults and the environment are used. The result is validated.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindLegacyEnv(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := fromViper(v)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		Server:   getServerConfig(v),
		Database: getDatabaseConfig(v),
		Auth:     getAuthConfig(v),
		Redis:    getRedisConfig(v),
		Logger:   getLoggerConfig(v),
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":3000")
	v.SetDefault("server.read_timeout", "10s")
	v.SetDefault("server.write_timeout", "10s")
	v.SetDefault("server.shutdown_timeout", "15s")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "file:jobboard.db?_pragma=foreign_keys(1)")
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("database.max_open_conns", 0)

	v.SetDefault("auth.access_token_ttl", "1h")
	v.SetDefault("auth.refresh_token_ttl", "168h")
	v.SetDefault("auth.issuer", "jobboard")
	v.SetDefault("auth.hash_cost", 12)
	v.SetDefault("auth.hash_concurrency", 0)
	v.SetDefault("auth.denylist", DenylistNone)
	v.SetDefault("auth.context_key", "user")
	v.SetDefault("auth.token_lookup", "header:Authorization")
	v.SetDefault("auth.auth_scheme", "Bearer")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.key_prefix", "jobboard:auth:revoked:")

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "text")
}

// bindLegacyEnv keeps the plain JWT_* variable names working
func bindLegacyEnv(v *viper.Viper) {
	_ = v.BindEnv("auth.access_token_secret", EnvPrefix+"_AUTH_ACCESS_TOKEN_SECRET", "JWT_ACCESS_SECRET")
	_ = v.BindEnv("auth.refresh_token_secret", EnvPrefix+"_AUTH_REFRESH_TOKEN_SECRET", "JWT_REFRESH_SECRET")
}

// Redacted returns a copy that is safe to print
func (c *Config) Redacted() *Config {
	out := *c

	if c.Auth != nil {
		a := *c.Auth
		a.AccessTokenSecret = mask(a.AccessTokenSecret)
		a.RefreshTokenSecret = mask(a.RefreshTokenSecret)
		out.Auth = &a
	}

	if c.Redis != nil {
		r := *c.Redis
		r.Password = mask(r.Password)
		out.Redis = &r
	}

	if c.Database != nil {
		d := *c.Database
		d.DSN = maskDSN(d.DSN)
		out.Database = &d
	}

	return &out
}

// String renders the redacted configuration as indented JSON
func (c *Config) String() string {
	return print.MaybePrettyJSON(c.Redacted())
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	return "********"
}

var (
	// password=secret or password='quoted secret'
	dsnPasswordKeyword = regexp.MustCompile(`(?i)(\bpassword\s*=\s*)('(?:[^'\\]|\\.)*'|\S*)`)
	// ?password=secret in URL query strings
	dsnPasswordQuery = regexp.MustCompile(`(?i)([?&]password=)[^&]*`)
)

// maskDSN hides the password of URL style and keyword style DSNs
func maskDSN(dsn string) string {
	if !strings.Contains(dsn, "://") {
		return dsnPasswordKeyword.ReplaceAllString(dsn, "${1}********")
	}

	dsn = dsnPasswordQuery.ReplaceAllString(dsn, "${1}********")

	scheme := strings.Index(dsn, "://")
	at := strings.LastIndex(dsn, "@")
	if scheme < 0 || at < scheme {
		return dsn
	}
	creds := dsn[scheme+3 : at]
	user, _, found := strings.Cut(creds, ":")
	if !found {
		return dsn
	}
	return dsn[:scheme+3] + user + ":********" + dsn[at:]
}
