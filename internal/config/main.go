package config

import "fmt"

type RunningEnvironment string

const (
	Development RunningEnvironment = "development"
	Production  RunningEnvironment = "production"
)

type Config struct {
	RunningEnvironment RunningEnvironment
	DebugMode          bool
	API                APIConfig
	Session            SessionConfig
	Redis              RedisConfig
	Monitoring         MonitoringConfig
	DevBackend         DevBackendConfig
}

func (c *Config) Validate() error {
	switch c.RunningEnvironment {
	case Development, Production:
	default:
		return fmt.Errorf("unknown running environment %q (must be one of development, production)", c.RunningEnvironment)
	}
	err := c.API.Validate(c.RunningEnvironment)
	if err != nil {
		return err
	}
	err = c.Session.Validate()
	if err != nil {
		return err
	}
	if c.Session.Store == SessionStoreRedis {
		err = c.Redis.Validate(c.RunningEnvironment)
		if err != nil {
			return err
		}
	}
	err = c.Monitoring.Validate()
	if err != nil {
		return err
	}
	return c.DevBackend.Validate(c.RunningEnvironment)
}
