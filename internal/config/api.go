package config

import (
	"fmt"
	"net/url"
	"time"
)

type APIConfig struct {
	BaseURL    *url.URL
	Timeout    time.Duration
	RateLimits RateLimits
}

func (c *APIConfig) Validate(e RunningEnvironment) error {
	if c.BaseURL == nil {
		return fmt.Errorf("the api config is missing the base url of the backend")
	}
	if c.BaseURL.Scheme != "http" && c.BaseURL.Scheme != "https" {
		return fmt.Errorf("the api base url must use http or https, got %q", c.BaseURL.Scheme)
	}
	if e == Production && c.BaseURL.Scheme != "https" {
		return fmt.Errorf("the api base url must use https in production")
	}
	if c.Timeout < 0 {
		return fmt.Errorf("the api timeout (%s) cannot be negative", c.Timeout)
	}
	return c.RateLimits.Validate()
}
