// Package middleware provides HTTP middleware for the preview server:
// OpenTelemetry request tracing and Prometheus request metrics.
//
// Both are plain func(http.Handler) http.Handler and label requests with
// the chi route pattern when one matched, so /events/{alias}/{event} is
// one series rather than one per alias.
//
//	r := chi.NewRouter()
//	r.Use(middleware.OpenTelemetry(middleware.WithTracerName("vtree")))
//	r.Use(middleware.Prometheus(middleware.WithRegistry(reg)))
package middleware
