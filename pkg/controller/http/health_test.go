package http_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	controller "github.com/m-mizutani/ghsnap/pkg/controller/http"
	"github.com/m-mizutani/ghsnap/pkg/domain/model"
)

func TestHealthEndpoint(t *testing.T) {
	ctx := context.Background()

	server, err := controller.NewServer(
		ctx,
		&MockArchiveUseCase{}, // archive use case not needed for health check test
		controller.WithAddr("localhost:0"),
	)
	if err != nil {
		t.Fatalf("Failed to create server: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	server.Handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Status code = %v, want %v", w.Code, http.StatusOK)
	}

	var status model.HealthStatus
	if err := json.NewDecoder(w.Body).Decode(&status); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if status.Status != model.HealthStatusOK {
		t.Errorf("Status = %v, want %v", status.Status, model.HealthStatusOK)
	}

	if status.Service != "ghsnap" {
		t.Errorf("Service = %v, want ghsnap", status.Service)
	}

	if status.Version == "" {
		t.Error("Version should not be empty")
	}
}
