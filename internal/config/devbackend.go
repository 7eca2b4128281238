package config

import (
	"fmt"
	"time"
)

type SeedAdminConfig struct {
	EmailAddress string
	Password     RedactedString
}

// DevBackendConfig configures the local backend used for development and end-to-end tests.
type DevBackendConfig struct {
	Host            string
	Port            int
	JWTSecret       RedactedString
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	PurgeInterval   time.Duration
	RateLimits      RateLimits
	AllowOrigin     []string
	SeedAdmin       SeedAdminConfig
}

func (c DevBackendConfig) Validate(e RunningEnvironment) error {
	if c.Port <= 0 {
		return fmt.Errorf("the dev backend port (%d) needs to be greater than 0", c.Port)
	}
	if c.AccessTokenTTL <= 0 {
		return fmt.Errorf("the access token TTL (%s) needs to be greater than 0", c.AccessTokenTTL)
	}
	if c.RefreshTokenTTL < c.AccessTokenTTL {
		return fmt.Errorf(
			"the refresh token TTL (%s) cannot be less than the access token TTL (%s)",
			c.RefreshTokenTTL,
			c.AccessTokenTTL,
		)
	}
	if c.PurgeInterval <= 0 {
		return fmt.Errorf("the purge interval (%s) needs to be greater than 0", c.PurgeInterval)
	}
	if e == Production && len(c.JWTSecret) < 32 {
		return fmt.Errorf("the jwt secret has to be at least 32 bytes long in production")
	}
	return c.RateLimits.Validate()
}
