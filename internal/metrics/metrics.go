// Package metrics exposes scrape counters, latency and live browser
// processes to Prometheus.
package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MikeSquared-Agency/sharescrape/internal/scraper"
)

const namespace = "sharescrape"

// Metrics holds all Prometheus collectors. It implements scraper.Sink.
type Metrics struct {
	ScrapesTotal   *prometheus.CounterVec
	ScrapeDuration *prometheus.HistogramVec
	Messages       *prometheus.HistogramVec
	BrowsersActive prometheus.Gauge

	registry *prometheus.Registry
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,

		ScrapesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "scrapes_total",
				Help:      "Scrape requests by platform and outcome kind",
			},
			[]string{"platform", "outcome"},
		),
		ScrapeDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "scrape_duration_seconds",
				Help:      "End-to-end scrape duration in seconds",
				Buckets:   []float64{.1, .5, 1, 2.5, 5, 10, 20, 30, 45, 60, 90},
			},
			[]string{"platform"},
		),
		Messages: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "transcript_messages",
				Help:      "Messages extracted per successful scrape",
				Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
			},
			[]string{"platform"},
		),
		BrowsersActive: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "browsers_active",
				Help:      "Browser processes currently owned by a request",
			},
		),
	}
}

// Record implements scraper.Sink.
func (m *Metrics) Record(_ context.Context, o scraper.Outcome) {
	platform := string(o.Platform)
	if platform == "" {
		platform = "none"
	}
	outcome := "ok"
	if o.Err != nil {
		outcome = o.Kind().String()
	}
	m.ScrapesTotal.WithLabelValues(platform, outcome).Inc()
	m.ScrapeDuration.WithLabelValues(platform).Observe(o.Duration.Seconds())
	if o.Result != nil {
		m.Messages.WithLabelValues(platform).Observe(float64(len(o.Result.Messages)))
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Gatherer is exposed for tests and embedding.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}
