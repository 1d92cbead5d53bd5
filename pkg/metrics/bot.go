package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// BotMetrics records webhook traffic and the business counters that matter
// for a storefront: confirmed orders and proof review outcomes.
type BotMetrics struct {
	updates        *prometheus.CounterVec
	handlerSeconds *prometheus.HistogramVec
	ordersTotal    *prometheus.CounterVec
	reviewsTotal   *prometheus.CounterVec
}

// NewBotMetrics registers the bot metrics on the provided registerer.
func NewBotMetrics(reg prometheus.Registerer) *BotMetrics {
	if reg == nil {
		return &BotMetrics{}
	}
	updates := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bot_updates_total",
		Help: "Webhook updates handled, by kind.",
	}, []string{"kind"})
	handlerSeconds := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bot_handler_duration_seconds",
		Help:    "Duration of update handling in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})
	ordersTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_total",
		Help: "Orders by lifecycle outcome.",
	}, []string{"outcome"})
	reviewsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "reviews_total",
		Help: "Admin review decisions, by subject and decision.",
	}, []string{"subject", "decision"})
	reg.MustRegister(updates, handlerSeconds, ordersTotal, reviewsTotal)
	return &BotMetrics{
		updates:        updates,
		handlerSeconds: handlerSeconds,
		ordersTotal:    ordersTotal,
		reviewsTotal:   reviewsTotal,
	}
}

// IncUpdate counts one handled update of the given kind.
func (b *BotMetrics) IncUpdate(kind string) {
	if b == nil || b.updates == nil {
		return
	}
	b.updates.WithLabelValues(normalizeLabel(kind)).Inc()
}

// ObserveHandler records how long one update took to handle.
func (b *BotMetrics) ObserveHandler(kind string, duration time.Duration) {
	if b == nil || b.handlerSeconds == nil {
		return
	}
	b.handlerSeconds.WithLabelValues(normalizeLabel(kind)).Observe(duration.Seconds())
}

// IncOrder counts an order outcome (confirmed, cancelled, paid).
func (b *BotMetrics) IncOrder(outcome string) {
	if b == nil || b.ordersTotal == nil {
		return
	}
	b.ordersTotal.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncReview counts an admin decision on a proof or top-up.
func (b *BotMetrics) IncReview(subject, decision string) {
	if b == nil || b.reviewsTotal == nil {
		return
	}
	b.reviewsTotal.WithLabelValues(normalizeLabel(subject), normalizeLabel(decision)).Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
