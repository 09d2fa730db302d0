package interfaces

import (
	"context"

	"github.com/m-mizutani/ghsnap/pkg/domain/model"
)

// GitHubClient defines the read operations the tree traversal needs from the
// GitHub contents API.
type GitHubClient interface {
	// ContentsURL returns the listing URL for the repository root. ref pins a
	// branch, tag or commit and may be empty for the default branch.
	ContentsURL(repo model.RepoRef, ref string) string

	// ListDirectory fetches and decodes the directory listing at listingURL.
	ListDirectory(ctx context.Context, listingURL string) ([]*model.TreeEntry, error)

	// FetchFile returns the raw content bytes of the file at fileURL.
	FetchFile(ctx context.Context, fileURL string) ([]byte, error)
}
