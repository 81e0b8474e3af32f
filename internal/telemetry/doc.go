// Package telemetry wraps OpenTelemetry SDK initialization, giving the
// retrieval core a centralized TracerProvider. When telemetry is
// disabled, a noop provider is used and nothing connects to an external
// collector.
package telemetry
