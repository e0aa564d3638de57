package config

import (
	"time"

	"github.com/spf13/viper"

	auth "github.com/goliatone/go-jobboard-auth"
)

// Denylist backends
const (
	DenylistNone   = "none"
	DenylistMemory = "memory"
	DenylistRedis  = "redis"
)

var _ auth.Config = (*Config)(nil)

// Auth auth config struct
type Auth struct {
	AccessTokenSecret  string        `json:"access_token_secret"`
	RefreshTokenSecret string        `json:"refresh_token_secret"`
	AccessTokenTTL     time.Duration `json:"access_token_ttl"`
	RefreshTokenTTL    time.Duration `json:"refresh_token_ttl"`
	Issuer             string        `json:"issuer"`
	HashCost           int           `json:"hash_cost"`
	HashConcurrency    int           `json:"hash_concurrency"`
	Denylist           string        `json:"denylist"`
	ContextKey         string        `json:"context_key"`
	TokenLookup        string        `json:"token_lookup"`
	AuthScheme         string        `json:"auth_scheme"`
}

func getAuthConfig(v *viper.Viper) *Auth {
	return &Auth{
		AccessTokenSecret:  v.GetString("auth.access_token_secret"),
		RefreshTokenSecret: v.GetString("auth.refresh_token_secret"),
		AccessTokenTTL:     v.GetDuration("auth.access_token_ttl"),
		RefreshTokenTTL:    v.GetDuration("auth.refresh_token_ttl"),
		Issuer:             v.GetString("auth.issuer"),
		HashCost:           v.GetInt("auth.hash_cost"),
		HashConcurrency:    v.GetInt("auth.hash_concurrency"),
		Denylist:           v.GetString("auth.denylist"),
		ContextKey:         v.GetString("auth.context_key"),
		TokenLookup:        v.GetString("auth.token_lookup"),
		AuthScheme:         v.GetString("auth.auth_scheme"),
	}
}

func (c *Config) GetAccessTokenSecret() string {
	return c.Auth.AccessTokenSecret
}

func (c *Config) GetRefreshTokenSecret() string {
	return c.Auth.RefreshTokenSecret
}

func (c *Config) GetAccessTokenTTL() time.Duration {
	return c.Auth.AccessTokenTTL
}

func (c *Config) GetRefreshTokenTTL() time.Duration {
	return c.Auth.RefreshTokenTTL
}

func (c *Config) GetIssuer() string {
	return c.Auth.Issuer
}

func (c *Config) GetContextKey() string {
	return c.Auth.ContextKey
}

func (c *Config) GetTokenLookup() string {
	return c.Auth.TokenLookup
}

func (c *Config) GetAuthScheme() string {
	return c.Auth.AuthScheme
}
