package services

import (
	"context"
	"log/slog"
	"os"
	"time"

	"soleplan/internal/config"
)

// HealthService reports liveness and readiness of the planning server.
type HealthService struct {
	version   string
	paths     *config.Paths
	startTime time.Time
	logger    *slog.Logger
}

// NewHealthService creates a health service.
func NewHealthService(version string, paths *config.Paths, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthService{
		version:   version,
		paths:     paths,
		startTime: time.Now(),
		logger:    logger.With(slog.String("service", "health")),
	}
}

// HealthStatus is the payload returned by the health endpoints.
type HealthStatus struct {
	Status    string            `json:"status"`
	Version   string            `json:"version"`
	Uptime    string            `json:"uptime"`
	Timestamp time.Time         `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// HealthCheck reports overall health including directory checks.
func (s *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	checks := s.directoryChecks()
	status := "healthy"
	for _, result := range checks {
		if result != "ok" {
			status = "degraded"
			break
		}
	}
	return HealthStatus{
		Status:    status,
		Version:   s.version,
		Uptime:    time.Since(s.startTime).Round(time.Second).String(),
		Timestamp: time.Now(),
		Checks:    checks,
	}
}

// ReadinessCheck reports whether the server can accept planning runs.
func (s *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	checks := s.directoryChecks()
	status := "ready"
	for name, result := range checks {
		if result != "ok" {
			status = "not_ready"
			s.logger.WarnContext(ctx, "readiness check failed",
				slog.String("check", name),
				slog.String("result", result))
		}
	}
	return HealthStatus{
		Status:    status,
		Version:   s.version,
		Uptime:    time.Since(s.startTime).Round(time.Second).String(),
		Timestamp: time.Now(),
		Checks:    checks,
	}
}

// LivenessCheck reports that the process is up.
func (s *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "alive",
		Version:   s.version,
		Uptime:    time.Since(s.startTime).Round(time.Second).String(),
		Timestamp: time.Now(),
	}
}

// Version returns the version payload.
func (s *HealthService) Version() map[string]string {
	return map[string]string{"version": s.version}
}

func (s *HealthService) directoryChecks() map[string]string {
	checks := make(map[string]string, 2)
	for name, dir := range map[string]string{
		"inputs_dir":  s.paths.InputsDir,
		"reports_dir": s.paths.ReportsDir,
	} {
		if info, err := os.Stat(dir); err != nil {
			checks[name] = err.Error()
		} else if !info.IsDir() {
			checks[name] = "not a directory"
		} else {
			checks[name] = "ok"
		}
	}
	return checks
}
