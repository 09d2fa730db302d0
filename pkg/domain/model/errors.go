package model

import (
	"fmt"

	"github.com/m-mizutani/ghsnap/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

// ErrorKind is the user-facing classification of a failure.
type ErrorKind string

const (
	ErrorKindInvalidArgument ErrorKind = "invalid_argument"
	ErrorKindUnauthorized    ErrorKind = "unauthorized"
	ErrorKindForbidden       ErrorKind = "forbidden"
	ErrorKindNotFound        ErrorKind = "not_found"
	ErrorKindUpstreamStatus  ErrorKind = "upstream_status"
	ErrorKindNetwork         ErrorKind = "network"
	ErrorKindUnexpected      ErrorKind = "unexpected"
)

// ErrorReport is the displayable form of a classified failure.
type ErrorReport struct {
	Kind    ErrorKind
	Message string
}

// ClassifyError maps an error to its user-facing report by inspecting the
// tags attached where the failure was observed. Classification is for
// display only and never changes control flow.
func ClassifyError(err error) ErrorReport {
	switch {
	case goerr.HasTag(err, types.ErrTagInvalidArgument):
		return ErrorReport{
			Kind:    ErrorKindInvalidArgument,
			Message: "the repository URL is not a recognized git@ or https:// repository identifier",
		}
	case goerr.HasTag(err, types.ErrTagUnauthorized):
		return ErrorReport{
			Kind:    ErrorKindUnauthorized,
			Message: "GitHub rejected the credential; check the access token",
		}
	case goerr.HasTag(err, types.ErrTagForbidden):
		return ErrorReport{
			Kind:    ErrorKindForbidden,
			Message: "GitHub refused the request; you may have hit the API rate limit",
		}
	case goerr.HasTag(err, types.ErrTagNotFound):
		return ErrorReport{
			Kind:    ErrorKindNotFound,
			Message: "the repository, ref or file was not found on GitHub",
		}
	case goerr.HasTag(err, types.ErrTagUpstreamStatus):
		if code := statusCodeOf(err); code > 0 {
			return ErrorReport{
				Kind:    ErrorKindUpstreamStatus,
				Message: fmt.Sprintf("GitHub API request failed with status %d", code),
			}
		}
		return ErrorReport{
			Kind:    ErrorKindUpstreamStatus,
			Message: "GitHub API request failed with an unexpected status",
		}
	case goerr.HasTag(err, types.ErrTagNetwork):
		return ErrorReport{
			Kind:    ErrorKindNetwork,
			Message: "the request was sent but no response arrived; check the network",
		}
	default:
		return ErrorReport{
			Kind:    ErrorKindUnexpected,
			Message: "unexpected error",
		}
	}
}

// statusCodeOf digs the "status_code" error value out of the goerr chain.
func statusCodeOf(err error) int {
	goErr := goerr.Unwrap(err)
	if goErr == nil {
		return 0
	}
	if code, ok := goErr.Values()["status_code"].(int); ok {
		return code
	}
	return 0
}
