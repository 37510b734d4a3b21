// Package observe provides the telemetry primitives used across apiops:
// an Observer bundling a tracer, a meter, and a structured logger, plus
// exporter wiring for OTLP, Prometheus, and stdout backends.
package observe
