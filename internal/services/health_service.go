package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"evdash/internal/dataset"
	"evdash/internal/infrastructure"
	"evdash/internal/session"
	"evdash/pkg/contracts"
)

// DatasetInventory lists the loaded tables.
type DatasetInventory interface {
	Inventory() []dataset.Inventory
}

// SessionStats reports the session store counters.
type SessionStats interface {
	Stats() session.Stats
}

// ConnectionCounter reports open live connections.
type ConnectionCounter interface {
	ClientCount() int
}

// ExpectedTables is the number of input files the dashboard loads.
const ExpectedTables = 5

// HealthService provides health check functionality
type HealthService struct {
	data      DatasetInventory
	sessions  SessionStats
	live      ConnectionCounter
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                       `json:"status"`
	Timestamp time.Time                    `json:"timestamp"`
	Version   string                       `json:"version"`
	Runtime   *infrastructure.RuntimeStats `json:"runtime,omitempty"`
	Services  map[string]ServiceHealth     `json:"services,omitempty"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

// NewHealthService creates a health service. live may be nil.
func NewHealthService(data DatasetInventory, sessions SessionStats, live ConnectionCounter, logger *slog.Logger) *HealthService {
	return &HealthService{
		data:      data,
		sessions:  sessions,
		live:      live,
		startTime: time.Now(),
		logger:    infrastructure.WithComponent(logger, "health_service"),
	}
}

// HealthCheck returns overall health status
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   contracts.Version,
	}
}

// ReadinessCheck reports ready once every input table is loaded.
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ready",
		Timestamp: time.Now(),
		Version:   contracts.Version,
		Services: map[string]ServiceHealth{
			"datasets": hs.checkDatasets(),
			"sessions": hs.checkSessions(),
			"live":     hs.checkLive(),
		},
	}

	for name, service := range status.Services {
		if service.Status != "ready" {
			status.Status = "not_ready"
			hs.logger.WarnContext(ctx, "readiness check failed",
				slog.String("service", name),
				slog.String("message", service.Message))
		}
	}
	return status
}

// LivenessCheck returns liveness status with runtime counters.
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	stats := infrastructure.CollectRuntimeStats(hs.startTime)
	return HealthStatus{
		Status:    "alive",
		Timestamp: time.Now(),
		Version:   contracts.Version,
		Runtime:   &stats,
	}
}

// Version returns version information
func (hs *HealthService) Version() contracts.VersionInfo {
	return contracts.GetVersionInfo()
}

func (hs *HealthService) checkDatasets() ServiceHealth {
	if hs.data == nil {
		return ServiceHealth{Status: "not_ready", Message: "datasets not loaded"}
	}
	inv := hs.data.Inventory()
	if len(inv) < ExpectedTables {
		return ServiceHealth{
			Status:  "not_ready",
			Message: fmt.Sprintf("%d of %d tables loaded", len(inv), ExpectedTables),
			Details: inv,
		}
	}
	for _, t := range inv {
		if t.Rows == 0 {
			return ServiceHealth{
				Status:  "not_ready",
				Message: fmt.Sprintf("table %s is empty", t.Name),
				Details: inv,
			}
		}
	}
	return ServiceHealth{Status: "ready", Message: "all tables loaded", Details: inv}
}

func (hs *HealthService) checkSessions() ServiceHealth {
	if hs.sessions == nil {
		return ServiceHealth{Status: "not_ready", Message: "session store not initialized"}
	}
	return ServiceHealth{Status: "ready", Details: hs.sessions.Stats()}
}

func (hs *HealthService) checkLive() ServiceHealth {
	if hs.live == nil {
		return ServiceHealth{Status: "ready", Message: "live channel disabled"}
	}
	return ServiceHealth{
		Status:  "ready",
		Details: map[string]int{"connections": hs.live.ClientCount()},
	}
}
