package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/uptask/internal/flagx"
	"github.com/dmitrijs2005/uptask/internal/timex"
)

// JSONConfig is the on-disk shape of the config file. Durations accept
// strings such as "24h" or integer nanoseconds. Absent keys keep defaults.
type JSONConfig struct {
	HTTPAddr                     *string         `json:"http_addr"`
	DatabaseDSN                  *string         `json:"database_dsn"`
	Environment                  *string         `json:"environment"`
	FrontendURL                  *string         `json:"frontend_url"`
	LogLevel                     *string         `json:"log_level"`
	JWTSecret                    *string         `json:"jwt_secret"`
	JWTRefreshSecret             *string         `json:"jwt_refresh_secret"`
	AccessTokenValidityDuration  *timex.Duration `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration *timex.Duration `json:"refresh_token_validity_duration"`
	CookieCrossSite              *bool           `json:"cookie_cross_site"`
	EmailProvider                *string         `json:"email_provider"`
	EmailFrom                    *string         `json:"email_from"`
	EmailReplyTo                 *string         `json:"email_reply_to"`
	EmailMaxRetries              *int            `json:"email_max_retries"`
	EmailRetryDelay              *timex.Duration `json:"email_retry_delay"`
	AWSRegion                    *string         `json:"aws_region"`
	RateLimitBackend             *string         `json:"rate_limit_backend"`
}

func parseJSON(cfg *Config, args []string) error {
	path := flagx.ConfigFile(args)
	if path == "" {
		return nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	c := &JSONConfig{}
	if err := json.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	setString(&cfg.HTTPAddr, c.HTTPAddr)
	setString(&cfg.DatabaseDSN, c.DatabaseDSN)
	setString(&cfg.Environment, c.Environment)
	setString(&cfg.FrontendURL, c.FrontendURL)
	setString(&cfg.LogLevel, c.LogLevel)
	setString(&cfg.JWTSecret, c.JWTSecret)
	setString(&cfg.JWTRefreshSecret, c.JWTRefreshSecret)
	setString(&cfg.EmailProvider, c.EmailProvider)
	setString(&cfg.EmailFrom, c.EmailFrom)
	setString(&cfg.EmailReplyTo, c.EmailReplyTo)
	setString(&cfg.AWSRegion, c.AWSRegion)
	setString(&cfg.RateLimitBackend, c.RateLimitBackend)

	if c.AccessTokenValidityDuration != nil {
		cfg.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.RefreshTokenValidityDuration != nil {
		cfg.RefreshTokenValidityDuration = c.RefreshTokenValidityDuration.Duration
	}
	if c.EmailRetryDelay != nil {
		cfg.EmailRetryDelay = c.EmailRetryDelay.Duration
	}
	if c.CookieCrossSite != nil {
		cfg.CookieCrossSite = *c.CookieCrossSite
	}
	if c.EmailMaxRetries != nil {
		cfg.EmailMaxRetries = *c.EmailMaxRetries
	}
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
