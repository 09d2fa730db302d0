package config

import (
	"time"

	"github.com/urfave/cli/v3"
)

// Fetcher holds tree traversal configuration
type Fetcher struct {
	Concurrency int64
	CacheTTL    time.Duration
}

// Flags returns CLI flags for fetcher configuration
func (c *Fetcher) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.Int64Flag{
			Name:        "concurrency",
			Usage:       "Maximum concurrently outstanding GitHub API requests",
			Value:       5,
			Destination: &c.Concurrency,
			Sources:     cli.EnvVars("GHSNAP_CONCURRENCY"),
		},
		&cli.DurationFlag{
			Name:        "cache-ttl",
			Usage:       "Freshness window of the API response cache",
			Value:       5 * time.Minute,
			Destination: &c.CacheTTL,
			Sources:     cli.EnvVars("GHSNAP_CACHE_TTL"),
		},
	}
}
