package config

import "fmt"

type SentryConfig struct {
	Enabled     bool
	Dsn         RedactedString
	Environment string
	SampleRate  float64
}

type PrometheusConfig struct {
	Enabled bool
	Port    int
}

type MonitoringConfig struct {
	Sentry     SentryConfig
	Prometheus PrometheusConfig
}

func (c MonitoringConfig) Validate() error {
	if c.Sentry.Enabled && c.Sentry.Dsn == "" {
		return fmt.Errorf("sentry is enabled but the dsn is missing")
	}
	if c.Sentry.SampleRate < 0 || c.Sentry.SampleRate > 1 {
		return fmt.Errorf("the sentry sample rate (%v) has to be between 0 and 1", c.Sentry.SampleRate)
	}
	if c.Prometheus.Enabled && c.Prometheus.Port <= 0 {
		return fmt.Errorf("the prometheus port (%d) needs to be greater than 0", c.Prometheus.Port)
	}
	return nil
}

type RateLimits struct {
	Enabled bool
	Rate    float64
	Burst   int
}

func (r RateLimits) Validate() error {
	if !r.Enabled {
		return nil
	}
	if r.Rate <= 0 {
		return fmt.Errorf("the rate limit (%v) needs to be greater than 0", r.Rate)
	}
	if r.Burst <= 0 {
		return fmt.Errorf("the rate limit burst (%d) needs to be greater than 0", r.Burst)
	}
	return nil
}
