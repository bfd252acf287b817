// Package metrics exposes prometheus counters for conversion runs.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ImagesProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "images_processed_total",
		Help: "Converted images by per-item result.",
	}, []string{"result"})

	RunsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "conversion_runs_total",
		Help: "Completed batch runs.",
	})
)

// Handler returns the scrape endpoint handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
