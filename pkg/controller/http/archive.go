package http

import (
	"bytes"
	"io"
	"net/http"
	"strconv"

	"github.com/getsentry/sentry-go"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/ghsnap/pkg/domain/interfaces"
	"github.com/m-mizutani/ghsnap/pkg/domain/model"
	"github.com/m-mizutani/ghsnap/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

// ArchiveHandler handles repository archive downloads
type ArchiveHandler struct {
	archiveUC interfaces.ArchiveUseCase
}

// NewArchiveHandler creates a new ArchiveHandler
func NewArchiveHandler(archiveUC interfaces.ArchiveUseCase) *ArchiveHandler {
	return &ArchiveHandler{
		archiveUC: archiveUC,
	}
}

// Handle processes GET /api/archive?repo=<url>[&ref=<ref>]
func (h *ArchiveHandler) Handle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := ctxlog.From(ctx)

	// Parse repository parameter
	rawRepo := r.URL.Query().Get("repo")
	if rawRepo == "" {
		writeError(w, goerr.New("repo query parameter is required",
			goerr.T(types.ErrTagInvalidArgument),
		))
		return
	}

	repo, err := model.ParseRepoURL(rawRepo)
	if err != nil {
		logger.Warn("Rejected archive request", "error", err, "repo", rawRepo)
		writeError(w, err)
		return
	}

	// Build the archive fully in memory before sending anything: delivery is
	// all-or-nothing, so a traversal failure must not leak partial bytes.
	var buf bytes.Buffer
	summary, err := h.archiveUC.BuildArchive(ctx, &model.ArchiveRequest{
		Repo: *repo,
		Ref:  r.URL.Query().Get("ref"),
	}, &buf)
	if err != nil {
		logger.Error("Failed to build archive",
			"error", err,
			"repo", repo.String(),
		)
		sentry.CaptureException(err)
		writeError(w, err)
		return
	}

	// Deliver the finished archive
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="`+summary.Filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, &buf); err != nil {
		logger.Error("Failed to deliver archive",
			"error", err,
			"filename", summary.Filename,
		)
	}
}
