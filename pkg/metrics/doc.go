// Package metrics exposes Prometheus metrics of the STP pipeline.
package metrics
