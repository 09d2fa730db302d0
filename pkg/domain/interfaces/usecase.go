package interfaces

import (
	"context"
	"io"

	"github.com/m-mizutani/ghsnap/pkg/domain/model"
)

// ArchiveUseCase defines the repository archive build operation.
type ArchiveUseCase interface {
	// BuildArchive recursively downloads the repository tree and, only when
	// every file arrived, writes a zip archive to w. The archive is staged
	// fully in memory before the first byte reaches w, so any traversal or
	// finalization failure leaves w untouched and returns the first error.
	BuildArchive(ctx context.Context, req *model.ArchiveRequest, w io.Writer) (*model.ArchiveSummary, error)
}
