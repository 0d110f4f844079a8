package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/statspanel/statspanel/internal/statspanel/cache"
	"github.com/statspanel/statspanel/internal/statspanel/queue"
)

const MetricPrefix = "statspanel_"

var eventsProcessed = promauto.NewCounter(prometheus.CounterOpts{
	Name: MetricPrefix + "events_processed_total",
	Help: "Number of result events aggregated successfully",
})

var eventsFailed = promauto.NewCounter(prometheus.CounterOpts{
	Name: MetricPrefix + "events_failed_total",
	Help: "Number of result events dropped because aggregation failed",
})

var eventsRequeued = promauto.NewCounter(prometheus.CounterOpts{
	Name: MetricPrefix + "events_requeued_total",
	Help: "Number of result events returned to the queue because the worker was busy",
})

var watchdogResets = promauto.NewCounter(prometheus.CounterOpts{
	Name: MetricPrefix + "watchdog_resets_total",
	Help: "Number of times the worker watchdog force-reset a stuck cycle",
})

func RecordEventProcessed() { eventsProcessed.Inc() }
func RecordEventFailed()    { eventsFailed.Inc() }
func RecordEventRequeued()  { eventsRequeued.Inc() }
func RecordWatchdogReset()  { watchdogResets.Inc() }

var queueDepthDesc = prometheus.NewDesc(
	MetricPrefix+"queue_depth",
	"Number of result events waiting for aggregation",
	nil,
	nil,
)

var cachedObjectsDesc = prometheus.NewDesc(
	MetricPrefix+"cached_objects",
	"Number of entries in the read-through cache",
	[]string{"kind"},
	nil,
)

// ExposeDataMetrics registers a collector reporting queue depth and cache
// sizes on every scrape.
func ExposeDataMetrics(q *queue.Queue, c *cache.Cache) *DataCollector {
	collector := &DataCollector{queue: q, cache: c}
	prometheus.MustRegister(collector)
	return collector
}

type DataCollector struct {
	queue *queue.Queue
	cache *cache.Cache
}

func (c *DataCollector) Describe(desc chan<- *prometheus.Desc) {
	desc <- queueDepthDesc
	desc <- cachedObjectsDesc
}

func (c *DataCollector) Collect(metrics chan<- prometheus.Metric) {
	metrics <- prometheus.MustNewConstMetric(queueDepthDesc, prometheus.GaugeValue, float64(c.queue.Len()))
	for kind, size := range c.cache.Sizes() {
		metrics <- prometheus.MustNewConstMetric(cachedObjectsDesc, prometheus.GaugeValue, float64(size), kind)
	}
}
