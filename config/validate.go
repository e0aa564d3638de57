package config

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/goliatone/go-errors"
	"golang.org/x/crypto/bcrypt"

	auth "github.com/goliatone/go-jobboard-auth"
	"github.com/goliatone/go-jobboard-auth/persistence"
)

// Validate checks the values the service cannot start without.
// Failures carry the auth configuration text code.
func (c *Config) Validate() error {
	if c.Auth == nil || c.Database == nil || c.Logger == nil || c.Server == nil {
		return configError(errors.New("incomplete configuration", errors.CategoryInternal))
	}

	if err := validation.ValidateStruct(c.Auth,
		validation.Field(&c.Auth.AccessTokenSecret, validation.Required.Error("is required, set JWT_ACCESS_SECRET")),
		validation.Field(&c.Auth.RefreshTokenSecret, validation.Required.Error("is required, set JWT_REFRESH_SECRET")),
		validation.Field(&c.Auth.HashCost, validation.Min(bcrypt.MinCost), validation.Max(bcrypt.MaxCost)),
		validation.Field(&c.Auth.HashConcurrency, validation.Min(0)),
		validation.Field(&c.Auth.Denylist, validation.In(DenylistNone, DenylistMemory, DenylistRedis)),
	); err != nil {
		return configError(err)
	}

	if c.Auth.AccessTokenSecret == c.Auth.RefreshTokenSecret {
		return configError(errors.New("access and refresh token secrets must differ", errors.CategoryInternal))
	}

	if err := validation.ValidateStruct(c.Database,
		validation.Field(&c.Database.Driver, validation.Required, validation.In(persistence.DriverSQLite, persistence.DriverPostgres)),
		validation.Field(&c.Database.DSN, validation.Required),
	); err != nil {
		return configError(err)
	}

	if err := validation.ValidateStruct(c.Logger,
		validation.Field(&c.Logger.Level, validation.In("trace", "debug", "info", "warn", "warning", "error")),
		validation.Field(&c.Logger.Format, validation.In("text", "json")),
	); err != nil {
		return configError(err)
	}

	if c.Auth.Denylist == DenylistRedis && (c.Redis == nil || c.Redis.Addr == "") {
		return configError(errors.New("redis.addr is required for the redis denylist", errors.CategoryInternal))
	}

	return nil
}

func configError(err error) error {
	return errors.Wrap(err, errors.CategoryInternal, "invalid configuration: "+err.Error()).
		WithTextCode(auth.TextCodeConfiguration).
		WithCode(errors.CodeInternal)
}
