package metrics

import (
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mash-protocol/mash-wdt/pkg/log"
)

const namespace = "mash_wdt"

// Collector converts watchdog events into Prometheus metrics.
type Collector struct {
	registry *prometheus.Registry

	alarmActions *prometheus.CounterVec
	armed        *prometheus.GaugeVec
	calls        *prometheus.CounterVec
	callDuration *prometheus.HistogramVec
	faults       *prometheus.CounterVec
	faultLatency prometheus.Histogram
	boots        *prometheus.CounterVec
	resetCount   prometheus.Gauge
	errors       *prometheus.CounterVec
}

// NewCollector creates a collector with its own registry.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		alarmActions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "alarm",
				Name:      "actions_total",
				Help:      "Alarm register actions and expiry stages.",
			},
			[]string{"alarm", "action"},
		),
		calls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "call",
				Name:      "total",
				Help:      "Bounded calls by outcome.",
			},
			[]string{"executor", "outcome", "timeout"},
		),
		callDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "call",
				Name:      "duration_seconds",
				Help:      "Time from arming to convergence of a bounded call.",
				Buckets:   []float64{.001, .005, .016, .032, .064, .125, .25, .5, 1, 2, 4, 8},
			},
			[]string{"executor", "outcome"},
		),
		faults: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "supervisor",
				Name:      "faults_total",
				Help:      "Supervisor faults captured at first-stage expiry.",
			},
			[]string{"supervisor"},
		),
		faultLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "supervisor",
				Name:      "since_kick_seconds",
				Help:      "Time since the last kick when a fault was captured.",
				Buckets:   prometheus.ExponentialBuckets(.016, 2, 10),
			},
		),
		boots: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "recovery",
				Name:      "boots_total",
				Help:      "Boots by decoded reset cause.",
			},
			[]string{"cause", "snapshot_valid"},
		),
		resetCount: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "recovery",
				Name:      "consecutive_watchdog_resets",
				Help:      "Consecutive watchdog resets reported at the last boot.",
			},
		),
		errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "errors_total",
				Help:      "Errors reported by watchdog components.",
			},
			[]string{"component"},
		),
		armed: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "alarm",
				Name:      "armed",
				Help:      "Whether the alarm countdown is running (1) or stopped (0).",
			},
			[]string{"alarm"},
		),
	}

	c.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		c.alarmActions,
		c.calls,
		c.callDuration,
		c.faults,
		c.faultLatency,
		c.boots,
		c.resetCount,
		c.errors,
		c.armed,
	)
	return c
}

// Log implements log.Logger.
func (c *Collector) Log(e log.Event) {
	switch {
	case e.Alarm != nil:
		c.alarmActions.WithLabelValues(e.Name, strings.ToLower(e.Alarm.Action.String())).Inc()
		switch e.Alarm.Action {
		case log.AlarmDisarm, log.AlarmReset:
			c.armed.WithLabelValues(e.Name).Set(0)
		default:
			c.armed.WithLabelValues(e.Name).Set(1)
		}
	case e.Call != nil:
		outcome := strings.ToLower(e.Call.Outcome.String())
		c.calls.WithLabelValues(e.Name, outcome, e.Call.Timeout.String()).Inc()
		if e.Call.Outcome != log.CallRejected {
			c.callDuration.WithLabelValues(e.Name, outcome).Observe(e.Call.Elapsed.Seconds())
		}
	case e.Fault != nil:
		c.faults.WithLabelValues(e.Name).Inc()
		c.faultLatency.Observe(e.Fault.SinceKick.Seconds())
	case e.Boot != nil:
		valid := "false"
		if e.Boot.SnapshotValid {
			valid = "true"
		}
		c.boots.WithLabelValues(e.Boot.Cause, valid).Inc()
		c.resetCount.Set(float64(e.Boot.ResetCount))
	case e.Error != nil:
		c.errors.WithLabelValues(strings.ToLower(e.Error.Component.String())).Inc()
	}
}

// Registry returns the registry holding the watchdog metrics.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler returns an HTTP handler serving the registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

var _ log.Logger = (*Collector)(nil)
