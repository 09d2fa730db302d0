package config

import "github.com/urfave/cli/v3"

// GitHub holds GitHub API access configuration. Token auth and GitHub App
// auth are both optional; with neither, requests go out unauthenticated.
type GitHub struct {
	Token          string `masq:"secret"`
	BaseURL        string
	AppID          int64
	InstallationID int64
	PrivateKey     string `masq:"secret"`
}

// Flags returns CLI flags for GitHub configuration
func (c *GitHub) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "github-token",
			Usage:       "GitHub access token for authenticated requests",
			Destination: &c.Token,
			Sources:     cli.EnvVars("GHSNAP_GITHUB_TOKEN"),
		},
		&cli.StringFlag{
			Name:        "github-base-url",
			Usage:       "GitHub API endpoint (set for GitHub Enterprise)",
			Value:       "https://api.github.com",
			Destination: &c.BaseURL,
			Sources:     cli.EnvVars("GHSNAP_GITHUB_BASE_URL"),
		},
		&cli.Int64Flag{
			Name:        "github-app-id",
			Usage:       "GitHub App ID for installation auth",
			Destination: &c.AppID,
			Sources:     cli.EnvVars("GHSNAP_GITHUB_APP_ID"),
		},
		&cli.Int64Flag{
			Name:        "github-installation-id",
			Usage:       "GitHub App installation ID",
			Destination: &c.InstallationID,
			Sources:     cli.EnvVars("GHSNAP_GITHUB_INSTALLATION_ID"),
		},
		&cli.StringFlag{
			Name:        "github-app-private-key",
			Usage:       "GitHub App private key in PEM format",
			Destination: &c.PrivateKey,
			Sources:     cli.EnvVars("GHSNAP_GITHUB_PRIVATE_KEY"),
		},
	}
}

// UseAppAuth reports whether GitHub App installation auth is configured.
func (c *GitHub) UseAppAuth() bool {
	return c.AppID != 0 && c.InstallationID != 0 && c.PrivateKey != ""
}
