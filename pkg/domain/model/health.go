package model

import "github.com/m-mizutani/ghsnap/pkg/domain/types"

// HealthStatusOK is the status value reported while the service is serving.
const HealthStatusOK = "healthy"

// HealthStatus represents the health check response body
type HealthStatus struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
}

// NewHealthStatus returns the health payload for the running build.
func NewHealthStatus() HealthStatus {
	return HealthStatus{
		Status:  HealthStatusOK,
		Service: types.AppName,
		Version: types.Version,
	}
}
