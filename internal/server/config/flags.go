package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/uptask/internal/flagx"
)

// parseFlags overlays selected settings from the command line.
//
//	-a string   HTTP bind address (e.g. ":4000")
//	-d string   PostgreSQL DSN
//	-e string   environment ("production" enables secure cookies)
//	-f string   frontend URL (CORS origin, email links)
//	-s string   access token HMAC secret
//	-S string   refresh token HMAC secret
//	-t int      access token validity, minutes
//	-r int      refresh token validity, minutes
func parseFlags(cfg *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-d", "-e", "-f", "-s", "-S", "-t", "-r"})

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.HTTPAddr, "a", cfg.HTTPAddr, "address and port to run server")
	fs.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "database DSN")
	fs.StringVar(&cfg.Environment, "e", cfg.Environment, "environment")
	fs.StringVar(&cfg.FrontendURL, "f", cfg.FrontendURL, "frontend URL")
	fs.StringVar(&cfg.JWTSecret, "s", cfg.JWTSecret, "access token secret")
	fs.StringVar(&cfg.JWTRefreshSecret, "S", cfg.JWTRefreshSecret, "refresh token secret")

	access := fs.Int("t", int(cfg.AccessTokenValidityDuration.Minutes()), "access token validity (minutes)")
	refresh := fs.Int("r", int(cfg.RefreshTokenValidityDuration.Minutes()), "refresh token validity (minutes)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "t":
			cfg.AccessTokenValidityDuration = time.Duration(*access) * time.Minute
		case "r":
			cfg.RefreshTokenValidityDuration = time.Duration(*refresh) * time.Minute
		}
	})
	return nil
}
