package model

import (
	"strings"

	"github.com/m-mizutani/ghsnap/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

const (
	sshPrefix   = "git@"
	httpsPrefix = "https://"
	gitSuffix   = ".git"
)

// RepoRef identifies a repository by owner and name. It carries no host
// information; the API endpoint is configured on the client.
type RepoRef struct {
	Owner string // Repository owner (user or organization)
	Name  string // Repository name, without a ".git" suffix
}

// String returns the "owner/name" form used in logs and API paths.
func (x RepoRef) String() string {
	return x.Owner + "/" + x.Name
}

// ArchiveName returns the download file name derived from the repository
// name, e.g. "widgets.zip".
func (x RepoRef) ArchiveName() string {
	return x.Name + ".zip"
}

// ParseRepoURL extracts a RepoRef from an SSH style (git@host:owner/name) or
// HTTPS style (https://host/owner/name) repository URL. A trailing ".git" on
// the name is stripped. Splitting is purely structural: the host is ignored
// and empty owner or name segments are not rejected, only inputs that lack
// the expected separators fail.
func ParseRepoURL(repoURL string) (*RepoRef, error) {
	var rest string
	switch {
	case strings.HasPrefix(repoURL, sshPrefix):
		_, after, ok := strings.Cut(repoURL, ":")
		if !ok {
			return nil, goerr.New("SSH repository URL has no colon separator",
				goerr.T(types.ErrTagInvalidArgument),
				goerr.V("url", repoURL),
			)
		}
		rest = after

	case strings.HasPrefix(repoURL, httpsPrefix):
		_, after, ok := strings.Cut(strings.TrimPrefix(repoURL, httpsPrefix), "/")
		if !ok {
			return nil, goerr.New("HTTPS repository URL has no path",
				goerr.T(types.ErrTagInvalidArgument),
				goerr.V("url", repoURL),
			)
		}
		rest = after

	default:
		return nil, goerr.New("repository URL must start with git@ or https://",
			goerr.T(types.ErrTagInvalidArgument),
			goerr.V("url", repoURL),
		)
	}

	owner, name, ok := strings.Cut(rest, "/")
	if !ok {
		return nil, goerr.New("repository URL has no owner/name separator",
			goerr.T(types.ErrTagInvalidArgument),
			goerr.V("url", repoURL),
		)
	}

	return &RepoRef{
		Owner: owner,
		Name:  strings.TrimSuffix(name, gitSuffix),
	}, nil
}
