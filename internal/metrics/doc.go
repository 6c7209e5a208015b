// Package metrics records upstream API and HTTP handler metrics.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so metrics stay optional:
//
//	client := storeapi.New(cfg.Store.APIURL, upstream.WithRecorder(recorder))
//
// When metrics are enabled the server builds a PrometheusRecorder on its own
// registry and exposes it with HTTPHandler.
package metrics
