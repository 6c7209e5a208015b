package httpserver

import (
	"net/http"

	"git.home.luguber.info/inful/snapfront/internal/metrics"
	"git.home.luguber.info/inful/snapfront/internal/server/handlers"
)

// Dependencies are the upstream clients and observability hooks the server wires into its handlers.
type Dependencies struct {
	Store      handlers.StoreAdmin
	GitHub     handlers.RepositoryLister
	Newsletter handlers.NewsletterService

	// Optional: metrics recorder and Prometheus handler for /_status/metrics.
	Recorder          metrics.Recorder
	PrometheusHandler http.Handler
}
