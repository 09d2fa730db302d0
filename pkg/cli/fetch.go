package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/ghsnap/pkg/cli/config"
	"github.com/m-mizutani/ghsnap/pkg/domain/model"
	"github.com/m-mizutani/ghsnap/pkg/domain/types"
	"github.com/m-mizutani/ghsnap/pkg/usecase"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func cmdFetch() *cli.Command {
	var (
		githubCfg  config.GitHub
		fetcherCfg config.Fetcher
		outputDir  string
		ref        string
	)

	flags := append(githubCfg.Flags(), fetcherCfg.Flags()...)
	flags = append(flags,
		&cli.StringFlag{
			Name:        "output",
			Aliases:     []string{"o"},
			Usage:       "Directory where the zip archive is written",
			Sources:     cli.EnvVars("GHSNAP_OUTPUT"),
			Value:       ".",
			Destination: &outputDir,
		},
		&cli.StringFlag{
			Name:        "ref",
			Usage:       "Branch, tag or commit SHA (defaults to the repository default branch)",
			Sources:     cli.EnvVars("GHSNAP_REF"),
			Destination: &ref,
		},
	)

	return &cli.Command{
		Name:      "fetch",
		Aliases:   []string{"f"},
		Usage:     "Download a repository tree as a zip archive",
		ArgsUsage: "<repository-url>",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := ctxlog.From(ctx)
			errOut := cmdErrWriter(c)

			// Every failure exit reports through the same classified line.
			fail := func(err error) error {
				printFailure(errOut, err)
				return err
			}

			if c.Args().Len() != 1 {
				return fail(goerr.New("exactly one repository URL is required",
					goerr.T(types.ErrTagInvalidArgument),
				))
			}

			repo, err := model.ParseRepoURL(c.Args().First())
			if err != nil {
				return fail(err)
			}

			client, err := buildGitHubClient(&githubCfg, &fetcherCfg)
			if err != nil {
				return fail(err)
			}

			archiveUC := usecase.NewArchive(client,
				usecase.WithMaxInflight(fetcherCfg.Concurrency),
			)

			logger.Info("Fetching repository",
				slog.String("repo", repo.String()),
				slog.String("ref", ref),
			)

			reporter := model.NewReporter(func(s model.ProgressSnapshot) {
				fmt.Fprint(errOut, color.CyanString("\rDownloading files... %d", s.Display))
			})

			// Build the whole archive in memory so a failed traversal
			// never leaves a partial zip file on disk.
			var buf bytes.Buffer
			summary, err := archiveUC.BuildArchive(ctx, &model.ArchiveRequest{
				Repo:     *repo,
				Ref:      ref,
				Reporter: reporter,
			}, &buf)
			if reporter.Snapshot().Completed > 0 {
				fmt.Fprintln(errOut)
			}
			if err != nil {
				return fail(err)
			}

			dest := filepath.Join(outputDir, summary.Filename)
			if err := os.WriteFile(dest, buf.Bytes(), 0o644); err != nil {
				return fail(goerr.Wrap(err, "failed to write archive file",
					goerr.V("path", dest),
				))
			}

			fmt.Fprintln(errOut, color.GreenString("Saved %s (%d files, %d bytes)",
				dest, summary.Files, summary.Bytes))
			return nil
		},
	}
}

// cmdErrWriter returns the stream for human readable status output, falling
// back to stderr when the command has none configured.
func cmdErrWriter(c *cli.Command) io.Writer {
	if w := c.Root().ErrWriter; w != nil {
		return w
	}
	return os.Stderr
}

// printFailure renders the classified error for terminal users. Structured
// details still go to the logger at the Run level.
func printFailure(w io.Writer, err error) {
	report := model.ClassifyError(err)
	fmt.Fprintln(w, color.RedString("Error: %s", report.Message))
}
