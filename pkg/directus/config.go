package directus

import "time"

// Config represents the configuration for the Directus client
type Config struct {
	// BaseURL is the Directus instance URL, without a trailing slash
	BaseURL string

	// Token is the static access token used as a Bearer credential
	Token string

	// Timeout bounds each request; zero means the default (30s)
	Timeout time.Duration
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return ErrInvalidConfig
	}
	if c.Token == "" {
		return ErrInvalidConfig
	}
	return nil
}
