package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the contact resolution module.
type Metrics struct {
	// Resolution outcomes: "created_primary", "created_secondary", "merged", "matched"
	Resolutions *prometheus.CounterVec

	// Contacts written by link precedence
	ContactsCreated *prometheus.CounterVec

	// Full resolution latency including store round trips
	ResolveLatency prometheus.Histogram
}

// New creates a Metrics instance with all contact module metrics registered.
func New() *Metrics {
	return &Metrics{
		Resolutions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "linkage_contact_resolutions_total",
			Help: "Total contact resolutions by outcome",
		}, []string{"outcome"}),

		ContactsCreated: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "linkage_contacts_created_total",
			Help: "Total contact records created by link precedence",
		}, []string{"precedence"}),

		ResolveLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "linkage_contact_resolve_duration_seconds",
			Help:    "Duration of full contact resolution including store operations",
			Buckets: []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// IncrementResolution records a resolution outcome.
func (m *Metrics) IncrementResolution(outcome string) {
	if m != nil {
		m.Resolutions.WithLabelValues(outcome).Inc()
	}
}

// IncrementContactCreated records a contact write.
func (m *Metrics) IncrementContactCreated(precedence string) {
	if m != nil {
		m.ContactsCreated.WithLabelValues(precedence).Inc()
	}
}

// ObserveResolveLatency records the total resolution duration.
func (m *Metrics) ObserveResolveLatency(d time.Duration) {
	if m != nil {
		m.ResolveLatency.Observe(d.Seconds())
	}
}
