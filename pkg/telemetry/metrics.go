package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes Prometheus observability primitives for the price radar.
type Metrics struct {
	apiRequests     *prometheus.CounterVec
	apiDuration     *prometheus.HistogramVec
	receiptsStaged  *prometheus.CounterVec
	itemsExtracted  prometheus.Counter
	itemsMatched    *prometheus.CounterVec
	priceAlerts     prometheus.Counter
	recalculations  *prometheus.CounterVec
	recalcDuration  prometheus.Histogram
	notifications   *prometheus.CounterVec
	labelsRendered  *prometheus.CounterVec
}

// NewMetrics registers and returns Prometheus metrics for telemetry.
func NewMetrics() *Metrics {
	apiRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "radar_api_requests_total",
		Help: "Counts API requests by method and status.",
	}, []string{"method", "status"})

	apiDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "radar_api_duration_seconds",
		Help:    "API request latency per method.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method"})

	receiptsStaged := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "radar_receipts_total",
		Help: "Receipt uploads by outcome.",
	}, []string{"outcome"})

	itemsExtracted := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "radar_receipt_items_extracted_total",
		Help: "Line items recovered from receipt text.",
	})

	itemsMatched := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "radar_receipt_items_matched_total",
		Help: "Staged items by matcher outcome.",
	}, []string{"outcome"})

	priceAlerts := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "radar_price_alerts_total",
		Help: "Price change alerts over the threshold.",
	})

	recalculations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "radar_recipe_recalculations_total",
		Help: "Recipe cost recalculations by trigger.",
	}, []string{"trigger"})

	recalcDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "radar_recipe_recalculation_duration_seconds",
		Help:    "Duration of cascade recalculation runs.",
		Buckets: prometheus.DefBuckets,
	})

	notifications := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "radar_notifications_total",
		Help: "Outbound notification attempts by kind and status.",
	}, []string{"kind", "status"})

	labelsRendered := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "radar_nutrition_labels_total",
		Help: "Nutrition label requests by outcome.",
	}, []string{"outcome"})

	prometheus.MustRegister(
		apiRequests,
		apiDuration,
		receiptsStaged,
		itemsExtracted,
		itemsMatched,
		priceAlerts,
		recalculations,
		recalcDuration,
		notifications,
		labelsRendered,
	)

	return &Metrics{
		apiRequests:    apiRequests,
		apiDuration:    apiDuration,
		receiptsStaged: receiptsStaged,
		itemsExtracted: itemsExtracted,
		itemsMatched:   itemsMatched,
		priceAlerts:    priceAlerts,
		recalculations: recalculations,
		recalcDuration: recalcDuration,
		notifications:  notifications,
		labelsRendered: labelsRendered,
	}
}

// ObserveAPIRequest records an API request and latency.
func (m *Metrics) ObserveAPIRequest(method, status string, duration time.Duration) {
	if m == nil {
		return
	}
	methodLabel := sanitizeLabel(method)
	m.apiRequests.WithLabelValues(methodLabel, status).Inc()
	m.apiDuration.WithLabelValues(methodLabel).Observe(duration.Seconds())
}

// ObserveReceipt records a receipt upload outcome.
func (m *Metrics) ObserveReceipt(outcome string, itemCount int) {
	if m == nil {
		return
	}
	m.receiptsStaged.WithLabelValues(sanitizeLabel(outcome)).Inc()
	if itemCount > 0 {
		m.itemsExtracted.Add(float64(itemCount))
	}
}

// ObserveItemMatch records whether the matcher suggested an ingredient.
func (m *Metrics) ObserveItemMatch(matched bool) {
	if m == nil {
		return
	}
	outcome := "unmatched"
	if matched {
		outcome = "matched"
	}
	m.itemsMatched.WithLabelValues(outcome).Inc()
}

// ObservePriceAlert counts an over-threshold price change.
func (m *Metrics) ObservePriceAlert() {
	if m == nil {
		return
	}
	m.priceAlerts.Inc()
}

// ObserveRecalculation records one cascade run.
func (m *Metrics) ObserveRecalculation(trigger string, recipes int, duration time.Duration) {
	if m == nil {
		return
	}
	m.recalculations.WithLabelValues(sanitizeLabel(trigger)).Add(float64(recipes))
	m.recalcDuration.Observe(duration.Seconds())
}

// ObserveNotification records an outbound notification attempt.
func (m *Metrics) ObserveNotification(kind string, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.notifications.WithLabelValues(sanitizeLabel(kind), status).Inc()
}

// ObserveLabelRender records a nutrition label request outcome.
func (m *Metrics) ObserveLabelRender(outcome string) {
	if m == nil {
		return
	}
	m.labelsRendered.WithLabelValues(sanitizeLabel(outcome)).Inc()
}

func sanitizeLabel(val string) string {
	if val == "" {
		return "unknown"
	}
	return val
}
