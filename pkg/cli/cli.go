package cli

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/ghsnap/pkg/cli/config"
	"github.com/m-mizutani/ghsnap/pkg/domain/interfaces"
	"github.com/m-mizutani/ghsnap/pkg/domain/types"
	githubinfra "github.com/m-mizutani/ghsnap/pkg/infra/github"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

// Run runs the CLI application
func Run(ctx context.Context, args []string) error {
	var loggerCfg config.Logger
	var logger *slog.Logger

	app := &cli.Command{
		Name:    "ghsnap",
		Usage:   "Download GitHub repository trees as zip archives",
		Version: types.Version,
		Flags:   loggerCfg.Flags(),
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			var err error
			logger, err = loggerCfg.Configure()
			if err != nil {
				return nil, err
			}

			slog.SetDefault(logger)
			ctx = ctxlog.With(ctx, logger)
			return ctx, nil
		},
		Commands: []*cli.Command{
			cmdFetch(),
			cmdServe(),
		},
	}

	if err := app.Run(ctx, args); err != nil {
		if logger == nil {
			logger = slog.Default()
		}
		logger.Error("CLI execution failed", slog.Any("error", err))
		return err
	}

	return nil
}

// buildGitHubClient wires the configured auth mode into an API client.
func buildGitHubClient(githubCfg *config.GitHub, fetcherCfg *config.Fetcher) (interfaces.GitHubClient, error) {
	opts := []githubinfra.Option{
		githubinfra.WithCacheTTL(fetcherCfg.CacheTTL),
	}
	if githubCfg.BaseURL != "" {
		opts = append(opts, githubinfra.WithBaseURL(githubCfg.BaseURL))
	}

	if githubCfg.UseAppAuth() {
		client, err := githubinfra.NewAppClient(
			githubCfg.AppID,
			githubCfg.InstallationID,
			[]byte(githubCfg.PrivateKey),
			opts...,
		)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create GitHub App client")
		}
		return client, nil
	}

	opts = append(opts, githubinfra.WithToken(githubCfg.Token))
	return githubinfra.NewClient(opts...), nil
}
