package config

import "github.com/urfave/cli/v3"

// Sentry holds error tracking configuration. Reporting stays disabled while
// the DSN is empty.
type Sentry struct {
	DSN         string `masq:"secret"`
	Environment string
}

// Flags returns CLI flags for Sentry configuration
func (c *Sentry) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "sentry-dsn",
			Usage:       "Sentry DSN for error tracking",
			Destination: &c.DSN,
			Sources:     cli.EnvVars("GHSNAP_SENTRY_DSN"),
		},
		&cli.StringFlag{
			Name:        "sentry-env",
			Usage:       "Sentry environment name",
			Value:       "production",
			Destination: &c.Environment,
			Sources:     cli.EnvVars("GHSNAP_SENTRY_ENV"),
		},
	}
}
