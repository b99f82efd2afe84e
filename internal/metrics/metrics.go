// Package metrics exposes catalog gauges and request counters to Prometheus.
package metrics

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/starford/albumdex/internal/albumservice"
	"github.com/starford/albumdex/internal/models"
	"github.com/starford/albumdex/internal/store"
)

const namespace = "albumdex"

// Metrics owns a private registry with the catalog collector and the
// enrichment counters.
type Metrics struct {
	registry    *prometheus.Registry
	enrichments *prometheus.CounterVec
}

// New registers the catalog collector for st.
func New(st store.Store, logger *slog.Logger) *Metrics {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		enrichments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "enrich_requests_total",
			Help:      "Enrichment requests by result.",
		}, []string{"result"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.enrichments,
		newCatalogCollector(st, logger),
	)
	return m
}

// ObserveEnrich counts one enrichment outcome.
func (m *Metrics) ObserveEnrich(err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.enrichments.WithLabelValues(result).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// catalogCollector reads the store on every scrape.
type catalogCollector struct {
	store  store.Store
	logger *slog.Logger

	albums  *prometheus.Desc
	genre   *prometheus.Desc
	missing *prometheus.Desc
	images  *prometheus.Desc
	up      *prometheus.Desc
}

var _ prometheus.Collector = (*catalogCollector)(nil)

func newCatalogCollector(st store.Store, logger *slog.Logger) *catalogCollector {
	return &catalogCollector{
		store:  st,
		logger: logger,
		albums: prometheus.NewDesc(prometheus.BuildFQName(namespace, "", "albums"),
			"Albums in the catalog.", nil, nil),
		genre: prometheus.NewDesc(prometheus.BuildFQName(namespace, "", "albums_by_genre"),
			"Albums per genre.", []string{"genre"}, nil),
		missing: prometheus.NewDesc(prometheus.BuildFQName(namespace, "", "albums_missing_field"),
			"Albums lacking an enrichable field.", []string{"field"}, nil),
		images: prometheus.NewDesc(prometheus.BuildFQName(namespace, "", "processed_images"),
			"Images already scanned.", nil, nil),
		up: prometheus.NewDesc(prometheus.BuildFQName(namespace, "", "store_up"),
			"Whether the last store read succeeded.", nil, nil),
	}
}

func (c *catalogCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.albums
	ch <- c.genre
	ch <- c.missing
	ch <- c.images
	ch <- c.up
}

func (c *catalogCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	albums, err := c.store.Search(ctx, models.Filter{})
	if err != nil {
		c.logger.Warn("metrics: read albums", slog.String("error", err.Error()))
		ch <- prometheus.MustNewConstMetric(c.up, prometheus.GaugeValue, 0)
		return
	}
	sources, err := c.store.ProcessedSources(ctx)
	if err != nil {
		c.logger.Warn("metrics: read processed images", slog.String("error", err.Error()))
		ch <- prometheus.MustNewConstMetric(c.up, prometheus.GaugeValue, 0)
		return
	}
	ch <- prometheus.MustNewConstMetric(c.up, prometheus.GaugeValue, 1)
	ch <- prometheus.MustNewConstMetric(c.albums, prometheus.GaugeValue, float64(len(albums)))
	ch <- prometheus.MustNewConstMetric(c.images, prometheus.GaugeValue, float64(len(sources)))

	genres := make(map[string]int)
	missing := make(map[models.Field]int, len(models.EnrichableFields))
	for i := range albums {
		genres[strings.ToLower(strings.TrimSpace(albums[i].Genre))]++
		for f := range albumservice.MissingFields(&albums[i]) {
			missing[f]++
		}
	}
	for g, n := range genres {
		ch <- prometheus.MustNewConstMetric(c.genre, prometheus.GaugeValue, float64(n), g)
	}
	for _, f := range models.EnrichableFields {
		ch <- prometheus.MustNewConstMetric(c.missing, prometheus.GaugeValue, float64(missing[f]), string(f))
	}
}
