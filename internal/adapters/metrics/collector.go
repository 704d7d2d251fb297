// Package metrics exposes forwarder counters to Prometheus and serves them,
// together with the latest reading, over HTTP.
package metrics

import (
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/bft-labs/airship/internal/domain"
	"github.com/bft-labs/airship/internal/ports"
)

const namespace = "airship"

// Collector implements ports.EventEmitter by updating Prometheus metrics.
type Collector struct {
	registry *prometheus.Registry

	records          prometheus.Counter
	parseErrors      prometheus.Counter
	overflowBytes    prometheus.Counter
	deliveries       *prometheus.CounterVec
	deliveryDuration prometheus.Histogram
	deliveryDropped  prometheus.Counter
	lastRecord       prometheus.Gauge
	readings         *prometheus.GaugeVec
}

// NewCollector creates a collector with its own registry, including the Go
// runtime and process collectors.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		records: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "extractor",
			Name:      "records_total",
			Help:      "Records parsed and appended to the record log.",
		}),
		parseErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "extractor",
			Name:      "parse_errors_total",
			Help:      "Candidate frames that were not valid JSON.",
		}),
		overflowBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "extractor",
			Name:      "overflow_bytes_total",
			Help:      "Bytes discarded because the accumulation buffer hit its cap.",
		}),
		deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "delivery",
			Name:      "requests_total",
			Help:      "Delivery attempts by HTTP status (0 for transport errors).",
		}, []string{"status", "success"}),
		deliveryDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "delivery",
			Name:      "request_duration_seconds",
			Help:      "Delivery request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}),
		deliveryDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "delivery",
			Name:      "dropped_total",
			Help:      "Payloads dropped because the delivery queue was full.",
		}),
		lastRecord: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "extractor",
			Name:      "last_record_timestamp_seconds",
			Help:      "Unix time of the most recent record.",
		}),
		readings: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "sensor",
			Name:      "reading",
			Help:      "Most recent numeric value of each sensor field.",
		}, []string{"field"}),
	}

	c.registry.MustRegister(
		c.records,
		c.parseErrors,
		c.overflowBytes,
		c.deliveries,
		c.deliveryDuration,
		c.deliveryDropped,
		c.lastRecord,
		c.readings,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// Registry returns the registry backing the collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

func (c *Collector) OnRecord(rec domain.Record) {
	c.records.Inc()
	c.lastRecord.SetToCurrentTime()
	for _, field := range domain.SensorFields {
		if v, ok := numeric(rec[field]); ok {
			c.readings.WithLabelValues(field).Set(v)
		}
	}
}

func (c *Collector) OnParseError(raw string, err error) {
	c.parseErrors.Inc()
}

func (c *Collector) OnOverflow(dropped int) {
	c.overflowBytes.Add(float64(dropped))
}

func (c *Collector) OnDeliverySuccess(status int, duration time.Duration) {
	c.deliveries.WithLabelValues(strconv.Itoa(status), "true").Inc()
	c.deliveryDuration.Observe(duration.Seconds())
}

func (c *Collector) OnDeliveryError(err error, duration time.Duration) {
	status := 0
	var de *domain.DeliveryError
	if errors.As(err, &de) {
		status = de.StatusCode
	}
	c.deliveries.WithLabelValues(strconv.Itoa(status), "false").Inc()
	c.deliveryDuration.Observe(duration.Seconds())
}

func (c *Collector) OnDeliveryDropped() {
	c.deliveryDropped.Inc()
}

// numeric extracts a float from the value types a Record can hold.
func numeric(v any) (float64, bool) {
	switch n := v.(type) {
	case interface{ Float64() (float64, error) }:
		f, err := n.Float64()
		return f, err == nil
	case float64:
		return n, true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}

var _ ports.EventEmitter = (*Collector)(nil)
