// Package metrics exposes watchdog activity in Prometheus format.
//
// A Collector is a log.Logger: it derives its counters and histograms from
// the same event trace the alarms, executors and supervisors already emit,
// so components need no separate metrics hook. Feed it alongside the other
// trace sinks:
//
//	c := metrics.NewCollector()
//	events := log.NewMultiLogger(fileLogger, c)
//	http.Handle("/metrics", c.Handler())
//
// Metrics are registered on the Collector's own registry, together with
// the Go runtime and process collectors.
package metrics
