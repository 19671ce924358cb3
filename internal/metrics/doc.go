// Package metrics records build and stage measurements.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so callers never nil-check:
//
//	svc := build.NewBuildService().WithRecorder(metrics.NewPrometheusRecorder(reg))
//
// The Prometheus implementation can be scraped through Handler while serving, or
// written once to a node-exporter textfile after a one-shot build.
package metrics
