package types

import "github.com/m-mizutani/goerr/v2"

// Error tags classify a failure for user-facing reporting and HTTP status
// mapping. Tags are attached where the failure is observed and never change
// control flow.
var (
	// ErrTagInvalidArgument marks caller mistakes such as an unparsable
	// repository URL or a missing parameter.
	ErrTagInvalidArgument = goerr.NewTag("invalid_argument")

	// ErrTagUnauthorized marks a 401 from the GitHub API (bad or expired
	// credential).
	ErrTagUnauthorized = goerr.NewTag("unauthorized")

	// ErrTagForbidden marks a 403 from the GitHub API, typically the rate
	// limit for unauthenticated requests.
	ErrTagForbidden = goerr.NewTag("forbidden")

	// ErrTagNotFound marks a 404 from the GitHub API (unknown repository,
	// ref or path).
	ErrTagNotFound = goerr.NewTag("not_found")

	// ErrTagUpstreamStatus marks any other non-2xx GitHub API response. The
	// numeric status is attached as the "status_code" error value.
	ErrTagUpstreamStatus = goerr.NewTag("upstream_status")

	// ErrTagNetwork marks transport failures where no HTTP response arrived
	// at all (DNS, connection reset, aborted body).
	ErrTagNetwork = goerr.NewTag("network")
)
