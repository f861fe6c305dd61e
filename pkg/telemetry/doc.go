// Package telemetry provides structured logging, the diagnostics sink the
// resolution engine reports through, and Prometheus metrics for the
// configuration tool.
package telemetry
