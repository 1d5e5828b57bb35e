// Package metrics exports the outcome of the last run as Prometheus gauges
// written to a node_exporter textfile.
package metrics
