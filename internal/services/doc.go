// Package services implements the dashboard use cases between the HTTP layer
// and the report pipeline.
//
// DashboardService resolves the filter state of a browser session, validates
// filter changes against the loaded data, and runs the pipeline for the
// current state to produce reports, chart images and exports.
// HealthService answers the health, readiness and version endpoints.
//
// Services return the sentinel errors of errors.go, wrapped with context;
// handlers map them onto problem responses.
package services
