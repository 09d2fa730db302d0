package model_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/m-mizutani/ghsnap/pkg/domain/model"
	"github.com/m-mizutani/ghsnap/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantKind model.ErrorKind
	}{
		{
			name:     "invalid argument",
			err:      goerr.New("bad input", goerr.T(types.ErrTagInvalidArgument)),
			wantKind: model.ErrorKindInvalidArgument,
		},
		{
			name:     "unauthorized",
			err:      goerr.New("401", goerr.T(types.ErrTagUnauthorized)),
			wantKind: model.ErrorKindUnauthorized,
		},
		{
			name:     "forbidden",
			err:      goerr.New("403", goerr.T(types.ErrTagForbidden)),
			wantKind: model.ErrorKindForbidden,
		},
		{
			name:     "not found",
			err:      goerr.New("404", goerr.T(types.ErrTagNotFound)),
			wantKind: model.ErrorKindNotFound,
		},
		{
			name:     "other upstream status",
			err:      goerr.New("502", goerr.T(types.ErrTagUpstreamStatus), goerr.V("status_code", 502)),
			wantKind: model.ErrorKindUpstreamStatus,
		},
		{
			name:     "network failure",
			err:      goerr.New("no response", goerr.T(types.ErrTagNetwork)),
			wantKind: model.ErrorKindNetwork,
		},
		{
			name:     "untagged error is unexpected",
			err:      errors.New("boom"),
			wantKind: model.ErrorKindUnexpected,
		},
		{
			name: "tag survives wrapping",
			err: goerr.Wrap(
				goerr.New("404", goerr.T(types.ErrTagNotFound)),
				"failed to download file",
			),
			wantKind: model.ErrorKindNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := model.ClassifyError(tt.err)
			if report.Kind != tt.wantKind {
				t.Errorf("ClassifyError() kind = %v, want %v", report.Kind, tt.wantKind)
			}
			if report.Message == "" {
				t.Error("ClassifyError() returned an empty message")
			}
		})
	}
}

func TestClassifyErrorStatusCodeInMessage(t *testing.T) {
	err := goerr.New("upstream failure",
		goerr.T(types.ErrTagUpstreamStatus),
		goerr.V("status_code", 502),
	)
	report := model.ClassifyError(err)
	if !strings.Contains(report.Message, "502") {
		t.Errorf("message %q does not contain the upstream status code", report.Message)
	}
}
