package usecase

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/ghsnap/pkg/domain/interfaces"
	"github.com/m-mizutani/ghsnap/pkg/domain/model"
	"github.com/m-mizutani/ghsnap/pkg/utils/async"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// DefaultMaxInflight bounds concurrently outstanding GitHub API requests to
// stay clear of upstream rate limits.
const DefaultMaxInflight = 5

type archiveUseCase struct {
	githubClient interfaces.GitHubClient
	maxInflight  int64
}

// Option configures the archive use case.
type Option func(*archiveUseCase)

// WithMaxInflight overrides the upstream request concurrency bound.
// Non-positive values keep the default.
func WithMaxInflight(n int64) Option {
	return func(uc *archiveUseCase) {
		if n > 0 {
			uc.maxInflight = n
		}
	}
}

// NewArchive creates a new instance of ArchiveUseCase
func NewArchive(githubClient interfaces.GitHubClient, opts ...Option) interfaces.ArchiveUseCase {
	uc := &archiveUseCase{
		githubClient: githubClient,
		maxInflight:  DefaultMaxInflight,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// BuildArchive recursively downloads the repository tree and writes the zip
// archive to w. Delivery is all-or-nothing: the first failing task cancels
// every outstanding task, and the zip is staged in memory so w never sees
// bytes from a traversal or finalization that failed.
func (uc *archiveUseCase) BuildArchive(ctx context.Context, req *model.ArchiveRequest, w io.Writer) (*model.ArchiveSummary, error) {
	logger := ctxlog.From(ctx).With(
		"session_id", uuid.NewString(),
		"repo", req.Repo.String(),
	)
	ctx = ctxlog.With(ctx, logger)

	reporter := req.Reporter
	if reporter == nil {
		reporter = model.NewReporter(nil)
	}

	logger.Info("Starting repository traversal",
		"ref", req.Ref,
		"max_inflight", uc.maxInflight,
	)

	builder := newArchiveBuilder()
	sem := semaphore.NewWeighted(uc.maxInflight)
	g, gctx := errgroup.WithContext(ctx)

	// The traversal spawns one task per directory and per file. Tasks are
	// cheap; only the upstream requests inside them hold semaphore slots.
	uc.walkDir(gctx, g, sem, uc.githubClient.ContentsURL(req.Repo, req.Ref), "", builder, reporter)

	if err := g.Wait(); err != nil {
		reporter.Fail(err)
		logger.Error("Traversal aborted, discarding partial results",
			"error", err,
			"completed_files", reporter.Snapshot().Completed,
		)
		return nil, err
	}

	// Finalize into a staging buffer so w only ever sees a complete archive.
	var staged bytes.Buffer
	if err := builder.WriteZip(&staged); err != nil {
		reporter.Fail(err)
		return nil, fmt.Errorf("failed to build archive for %s: %w", req.Repo.String(), err)
	}
	if _, err := staged.WriteTo(w); err != nil {
		reporter.Fail(err)
		return nil, fmt.Errorf("failed to deliver archive for %s: %w", req.Repo.String(), err)
	}

	summary := &model.ArchiveSummary{
		Repo:     req.Repo,
		Filename: req.Repo.ArchiveName(),
		Files:    builder.Count(),
		Bytes:    builder.TotalBytes(),
	}

	logger.Info("Repository archive finalized",
		"filename", summary.Filename,
		"file_count", summary.Files,
		"content_bytes", summary.Bytes,
	)

	return summary, nil
}

// walkDir schedules the traversal of one directory. Each file child becomes
// a download task; each directory child recurses with an extended path
// prefix, so "prefix + name" stays collision-free as long as the remote tree
// is.
func (uc *archiveUseCase) walkDir(ctx context.Context, g *errgroup.Group, sem *semaphore.Weighted, listingURL, prefix string, builder *archiveBuilder, reporter *model.Reporter) {
	async.Go(ctx, g, func(ctx context.Context) error {
		entries, err := uc.listDirectory(ctx, sem, listingURL)
		if err != nil {
			return fmt.Errorf("failed to list directory %q: %w", prefix, err)
		}

		for _, entry := range entries {
			switch entry.Kind {
			case model.EntryKindDir:
				uc.walkDir(ctx, g, sem, entry.URL, prefix+entry.Name+"/", builder, reporter)
			case model.EntryKindFile:
				uc.downloadFile(ctx, g, sem, entry, prefix, builder, reporter)
			default:
				// The listing reports the authoritative repository path.
				ctxlog.From(ctx).Warn("Skipping unsupported tree entry",
					"kind", string(entry.Kind),
					"path", entry.Path,
				)
			}
		}
		return nil
	})
}

// downloadFile schedules the raw content fetch of one file entry and feeds
// the result into the builder.
func (uc *archiveUseCase) downloadFile(ctx context.Context, g *errgroup.Group, sem *semaphore.Weighted, entry *model.TreeEntry, prefix string, builder *archiveBuilder, reporter *model.Reporter) {
	path := prefix + entry.Name
	async.Go(ctx, g, func(ctx context.Context) error {
		data, err := uc.fetchFile(ctx, sem, entry.URL)
		if err != nil {
			return fmt.Errorf("failed to download file %q: %w", path, err)
		}

		builder.Add(path, data)
		reporter.FileDone()

		ctxlog.From(ctx).Debug("Downloaded file",
			"path", path,
			"size_bytes", len(data),
		)
		return nil
	})
}

// listDirectory performs the listing request under a semaphore slot so at
// most maxInflight upstream requests are outstanding at once.
func (uc *archiveUseCase) listDirectory(ctx context.Context, sem *semaphore.Weighted, listingURL string) ([]*model.TreeEntry, error) {
	if err := sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer sem.Release(1)
	return uc.githubClient.ListDirectory(ctx, listingURL)
}

// fetchFile performs the file content request under a semaphore slot.
func (uc *archiveUseCase) fetchFile(ctx context.Context, sem *semaphore.Weighted, fileURL string) ([]byte, error) {
	if err := sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer sem.Release(1)
	return uc.githubClient.FetchFile(ctx, fileURL)
}
